// Package dto はOpenAI Chat Completions APIのリクエスト・レスポンス型を定義します。
package dto

// ChatRequest は /chat/completions へのリクエストボディです。
type ChatRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens,omitempty"`
}

// Message は1件のメッセージです。Contentは文字列またはContentPartのスライスです。
type Message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// ContentPart はテキストまたは画像の入力部品です。
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL string `json:"url"`
}

// ChatResponse は /chat/completions のレスポンスボディのうち使用する部分です。
type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
			Refusal *string `json:"refusal"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// ErrorResponse はエラー時のレスポンスボディです。
type ErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}
