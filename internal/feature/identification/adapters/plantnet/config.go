package plantnet

import (
	"errors"
	"os"
	"time"
)

// Config はPl@ntNetクライアントの設定を保持します。
type Config struct {
	APIKey  string        // 認証用APIキー
	BaseURL string        // APIのベースURL（例: "https://my-api.plantnet.org"）
	Project string        // 植物相プロジェクト（例: "all"）
	Organ   string        // 撮影部位のヒント（例: "leaf"）
	Lang    string        // 一般名の言語（例: "en"）
	Timeout time.Duration // 0の場合はPROVIDER_TIMEOUTを使用
}

// LoadConfig は環境変数からPl@ntNetの設定を読み込みます。
func LoadConfig() Config {
	return Config{
		APIKey:  os.Getenv("PLANTNET_API_KEY"),
		BaseURL: envOr("PLANTNET_BASE_URL", DefaultBaseURL),
		Project: envOr("PLANTNET_PROJECT", "all"),
		Organ:   envOr("PLANTNET_ORGAN", "leaf"),
		Lang:    envOr("PLANTNET_LANG", "en"),
		Timeout: durationEnv("PLANTNET_TIMEOUT"),
	}
}

// Validate は必須の認証情報が揃っているかを検証します。
func (c Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("plantnet: PLANTNET_API_KEY is required")
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationEnv(key string) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return 0
	}
	return d
}
