package openai

import (
	"errors"
	"os"
	"time"
)

// Config はOpenAIクライアントの設定を保持します。
type Config struct {
	APIKey  string        // 認証用APIキー
	Model   string        // 例: "gpt-4o"
	BaseURL string        // APIのベースURL（例: "https://api.openai.com/v1"）
	Timeout time.Duration // 0の場合はPROVIDER_TIMEOUTを使用
}

// LoadConfig は環境変数からOpenAIの設定を読み込みます。
func LoadConfig() Config {
	cfg := Config{
		APIKey:  os.Getenv("OPENAI_API_KEY"),
		Model:   os.Getenv("OPENAI_MODEL"),
		BaseURL: os.Getenv("OPENAI_BASE_URL"),
		Timeout: durationEnv("OPENAI_TIMEOUT"),
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return cfg
}

// Validate は必須の認証情報が揃っているかを検証します。
func (c Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("openai: OPENAI_API_KEY is required")
	}
	return nil
}

// durationEnv は時間指定の環境変数を読み込みます。未設定または不正な値は0です。
func durationEnv(key string) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return 0
	}
	return d
}
