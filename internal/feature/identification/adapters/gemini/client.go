// Package gemini はGoogle Gemini APIを使用した植物識別クライアントを提供します。
package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"plantid_backend/internal/feature/identification/domain"
	"plantid_backend/internal/feature/identification/domain/entity"
	"plantid_backend/internal/feature/identification/usecase"
)

const (
	// ProviderName はログと応答に使うプロバイダー名です。
	ProviderName = "gemini"
	// DefaultModel はGemini APIのデフォルトモデルです。
	DefaultModel = "gemini-2.5-flash"
)

// contentGenerator は*genai.Modelsのうち本クライアントが使うメソッドです。
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiIdentifier は画像をインラインデータとしてGeminiへ送り、自由記述の回答を受け取ります。
type GeminiIdentifier struct {
	models contentGenerator
	model  string
}

// GeminiIdentifierがPlantIdentifierを実装していることをコンパイル時に検証します。
var _ usecase.PlantIdentifier = (*GeminiIdentifier)(nil)

// NewGeminiIdentifier はGeminiIdentifierの新しいインスタンスを生成します。
// cfg.UseVertexAIがtrueの場合はADCを使用し、
// 環境変数 GOOGLE_CLOUD_PROJECT, GOOGLE_CLOUD_LOCATION が必要です。
func NewGeminiIdentifier(ctx context.Context, cfg Config) (*GeminiIdentifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var cc *genai.ClientConfig
	if !cfg.UseVertexAI {
		cc = &genai.ClientConfig{APIKey: cfg.APIKey, Backend: genai.BackendGeminiAPI}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return newGeminiIdentifier(client.Models, cfg.Model), nil
}

func newGeminiIdentifier(models contentGenerator, model string) *GeminiIdentifier {
	if model == "" {
		model = DefaultModel
	}
	return &GeminiIdentifier{models: models, model: model}
}

// Name はプロバイダー名を返します。
func (g *GeminiIdentifier) Name() string { return ProviderName }

// Identify は指示文と画像を1つのユーザーメッセージとして送信します。
func (g *GeminiIdentifier) Identify(ctx context.Context, image []byte, mimeType string) (entity.ProviderResponse, error) {
	if len(image) == 0 {
		return nil, domain.NewValidationError(domain.ErrNoImage, "gemini: image is empty")
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(usecase.IdentificationPrompt),
			genai.NewPartFromBytes(image, mimeType),
		}, genai.RoleUser),
	}

	resp, err := g.models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return nil, &domain.TransportError{Provider: ProviderName, StatusCode: statusCode(err), Err: err}
	}
	if resp == nil || len(resp.Candidates) == 0 {
		reason := "no candidates"
		if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			reason = "prompt blocked: " + string(resp.PromptFeedback.BlockReason)
		}
		return nil, &domain.ParseError{Provider: ProviderName, Err: errors.New(reason)}
	}

	return entity.FreeTextResponse{Provider: ProviderName, Text: resp.Text()}, nil
}

// statusCode はAPIエラーからHTTPステータスコードを取り出します。取得できない場合は0です。
func statusCode(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}
