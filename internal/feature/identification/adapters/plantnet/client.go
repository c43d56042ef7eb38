// Package plantnet はPl@ntNet identify APIを使用した植物識別クライアントを提供します。
package plantnet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"plantid_backend/internal/feature/identification/adapters/plantnet/dto"
	"plantid_backend/internal/feature/identification/domain"
	"plantid_backend/internal/feature/identification/domain/entity"
	"plantid_backend/internal/feature/identification/usecase"
)

const (
	// ProviderName はログと応答に使うプロバイダー名です。
	ProviderName = "plantnet"
	// DefaultBaseURL はPl@ntNet APIのデフォルトのベースURLです。
	DefaultBaseURL = "https://my-api.plantnet.org"

	maxErrorBody = 4 << 10
)

// PlantNetIdentifier は画像をmultipartで送信し、構造化された候補一覧を受け取ります。
type PlantNetIdentifier struct {
	cfg    Config
	client *http.Client
}

// PlantNetIdentifierがPlantIdentifierを実装していることをコンパイル時に検証します。
var _ usecase.PlantIdentifier = (*PlantNetIdentifier)(nil)

// NewPlantNetIdentifier は指定された設定とHTTPクライアントでPlantNetIdentifierを生成します。
func NewPlantNetIdentifier(cfg Config, client *http.Client) (*PlantNetIdentifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Project == "" {
		cfg.Project = "all"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &PlantNetIdentifier{cfg: cfg, client: client}, nil
}

// Name はプロバイダー名を返します。
func (p *PlantNetIdentifier) Name() string { return ProviderName }

// Identify は画像と撮影部位のヒントを送信し、候補一覧を返します。
func (p *PlantNetIdentifier) Identify(ctx context.Context, image []byte, mimeType string) (entity.ProviderResponse, error) {
	if len(image) == 0 {
		return nil, domain.NewValidationError(domain.ErrNoImage, "plantnet: image is empty")
	}

	body, contentType, err := p.multipartBody(image, mimeType)
	if err != nil {
		return nil, fmt.Errorf("build plantnet request body: %w", err)
	}

	// クエリパラメータを追加
	q := url.Values{}
	q.Set("api-key", p.cfg.APIKey)
	q.Set("include-related-images", "true")
	if p.cfg.Lang != "" {
		q.Set("lang", p.cfg.Lang)
	}
	u := fmt.Sprintf("%s/v2/identify/%s?%s", p.cfg.BaseURL, url.PathEscape(p.cfg.Project), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, body)
	if err != nil {
		return nil, fmt.Errorf("create plantnet request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	res, err := p.client.Do(req)
	if err != nil {
		// APIキーを含むURLをエラーに残さない
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
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

	var out dto.IdentifyResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, &domain.ParseError{Provider: ProviderName, Err: err}
	}
	if out.RemainingIdentificationRequests != nil {
		slog.Debug("plantnet quota", "remaining", *out.RemainingIdentificationRequests)
	}

	return toTaxonomy(out), nil
}

func (p *PlantNetIdentifier) multipartBody(image []byte, mimeType string) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="images"; filename="upload"`)
	if mimeType != "" {
		h.Set("Content-Type", mimeType)
	}
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(image); err != nil {
		return nil, "", err
	}
	if p.cfg.Organ != "" {
		if err := w.WriteField("organs", p.cfg.Organ); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// toTaxonomy はDTOをドメインの構造化レスポンスへ変換します。
func toTaxonomy(in dto.IdentifyResponse) entity.TaxonomyResponse {
	out := entity.TaxonomyResponse{Provider: ProviderName, Results: make([]entity.TaxonomyResult, 0, len(in.Results))}
	for _, r := range in.Results {
		tr := entity.TaxonomyResult{Score: r.Score}
		if r.Species != nil {
			tr.ScientificName = r.Species.ScientificNameWithoutAuthor
			tr.CommonNames = r.Species.CommonNames
			tr.Description = r.Species.Description
		}
		for _, img := range r.Images {
			if img.URL.O != "" {
				tr.ImageURLs = append(tr.ImageURLs, img.URL.O)
			}
		}
		out.Results = append(out.Results, tr)
	}
	return out
}

func errorFromBody(r io.Reader) error {
	b, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	var e dto.ErrorResponse
	if err := json.Unmarshal(b, &e); err == nil && e.Message != "" {
		return errors.New(e.Message)
	}
	if len(b) == 0 {
		return errors.New("empty error response")
	}
	return errors.New(strings.TrimSpace(string(b)))
}
