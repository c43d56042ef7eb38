// Package openai はOpenAI Chat Completions APIを使用した植物識別クライアントを提供します。
package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"plantid_backend/internal/feature/identification/adapters/openai/dto"
	"plantid_backend/internal/feature/identification/domain"
	"plantid_backend/internal/feature/identification/domain/entity"
	"plantid_backend/internal/feature/identification/usecase"
)

const (
	// ProviderName はログと応答に使うプロバイダー名です。
	ProviderName = "openai"
	// DefaultModel はOpenAIのデフォルトモデルです。
	DefaultModel = "gpt-4o"
	// DefaultBaseURL はOpenAI APIのデフォルトのベースURLです。
	DefaultBaseURL = "https://api.openai.com/v1"

	// maxErrorBody はエラー応答からログに残す最大バイト数です。
	maxErrorBody = 4 << 10
)

// OpenAIIdentifier は画像をdata URLとしてOpenAIへ送り、自由記述の回答を受け取ります。
type OpenAIIdentifier struct {
	cfg    Config
	client *http.Client
}

// OpenAIIdentifierがPlantIdentifierを実装していることをコンパイル時に検証します。
var _ usecase.PlantIdentifier = (*OpenAIIdentifier)(nil)

// NewOpenAIIdentifier は指定された設定とHTTPクライアントでOpenAIIdentifierを生成します。
func NewOpenAIIdentifier(cfg Config, client *http.Client) (*OpenAIIdentifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &OpenAIIdentifier{cfg: cfg, client: client}, nil
}

// Name はプロバイダー名を返します。
func (o *OpenAIIdentifier) Name() string { return ProviderName }

// Identify は指示文と画像のdata URLを1つのユーザーメッセージとして送信します。
func (o *OpenAIIdentifier) Identify(ctx context.Context, image []byte, mimeType string) (entity.ProviderResponse, error) {
	if len(image) == 0 {
		return nil, domain.NewValidationError(domain.ErrNoImage, "openai: image is empty")
	}

	reqBody := dto.ChatRequest{
		Model: o.cfg.Model,
		Messages: []dto.Message{{
			Role: "user",
			Content: []dto.ContentPart{
				{Type: "text", Text: usecase.IdentificationPrompt},
				{Type: "image_url", ImageURL: &dto.ImageURL{URL: dataURL(image, mimeType)}},
			},
		}},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal openai request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create openai request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+o.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := o.client.Do(req)
	if err != nil {
		return nil, &domain.TransportError{Provider: ProviderName, Err: err}
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "provider", ProviderName, "error", err)
		}
	}()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &domain.TransportError{Provider: ProviderName, StatusCode: res.StatusCode, Err: errorFromBody(res.Body)}
	}

	var body dto.ChatResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, &domain.ParseError{Provider: ProviderName, Err: err}
	}
	if len(body.Choices) == 0 {
		return nil, &domain.ParseError{Provider: ProviderName, Err: errors.New("no choices in response")}
	}
	msg := body.Choices[0].Message
	if msg.Content == nil {
		reason := "message has no content"
		if msg.Refusal != nil {
			reason = "model refused: " + *msg.Refusal
		}
		return nil, &domain.ParseError{Provider: ProviderName, Err: errors.New(reason)}
	}

	return entity.FreeTextResponse{Provider: ProviderName, Text: *msg.Content}, nil
}

// dataURL は画像をbase64のdata URLへ変換します。MIMEタイプは実際のアップロードのものを使います。
func dataURL(image []byte, mimeType string) string {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image))
}

// errorFromBody はエラー応答のメッセージを取り出します。
func errorFromBody(r io.Reader) error {
	b, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	var e dto.ErrorResponse
	if err := json.Unmarshal(b, &e); err == nil && e.Error.Message != "" {
		return errors.New(e.Error.Message)
	}
	if len(b) == 0 {
		return errors.New("empty error response")
	}
	return errors.New(strings.TrimSpace(string(b)))
}
