package gemini

import (
	"errors"
	"os"
	"strconv"
)

// Config はGeminiクライアントの設定を保持します。
type Config struct {
	APIKey      string // Gemini Developer APIのキー
	Model       string // 例: "gemini-2.5-flash"
	UseVertexAI bool   // trueの場合はAPIキーではなくADC（Vertex AI）を使用
}

// LoadConfig は環境変数からGeminiの設定を読み込みます。
func LoadConfig() Config {
	vertex, _ := strconv.ParseBool(os.Getenv("GOOGLE_GENAI_USE_VERTEXAI"))
	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = DefaultModel
	}
	return Config{
		APIKey:      os.Getenv("GEMINI_API_KEY"),
		Model:       model,
		UseVertexAI: vertex,
	}
}

// Validate は必須の認証情報が揃っているかを検証します。
func (c Config) Validate() error {
	if c.APIKey == "" && !c.UseVertexAI {
		return errors.New("gemini: GEMINI_API_KEY is required unless GOOGLE_GENAI_USE_VERTEXAI is set")
	}
	return nil
}
