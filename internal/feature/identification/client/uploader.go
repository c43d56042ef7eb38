// Package client は識別サーバーを呼び出す側（CLIなど）のアップロードと結果表示を実装します。
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	caredto "plantid_backend/internal/feature/care/transport/http/dto"
	careentity "plantid_backend/internal/feature/care/domain/entity"
	"plantid_backend/internal/feature/identification/domain"
	"plantid_backend/internal/feature/identification/domain/entity"
	"plantid_backend/internal/feature/identification/transport/http/dto"
	"plantid_backend/internal/feature/identification/usecase"
)

// serverName はTransportErrorに記録する呼び出し先の名前です。
const serverName = "plantid-server"

// ServerError はサーバーが200以外を返したことを表します。
type ServerError struct {
	StatusCode int
	Message    string
	Kind       domain.Kind
}

func (e *ServerError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("server returned %d (%s): %s", e.StatusCode, e.Kind, e.Message)
}

// PreparedImage はローカル検証を通過した送信待ちの画像です。
type PreparedImage struct {
	Filename string
	MIMEType string
	Content  []byte
}

// Uploader は画像1枚をローカルで検証し、POST /identify へ送信します。
type Uploader struct {
	baseURL    string
	httpClient *http.Client
	policy     usecase.UploadPolicy
}

// NewUploader はUploaderの新しいインスタンスを生成します。
// サーバーと同じUploadPolicyを渡すことで、違反する画像は送信前に拒否されます。
func NewUploader(baseURL string, httpClient *http.Client, policy usecase.UploadPolicy) *Uploader {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Uploader{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		policy:     policy,
	}
}

// Prepare はファイルを読み込み、サイズと種類を検証します。ネットワークには接続しません。
func (u *Uploader) Prepare(path string) (*PreparedImage, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, domain.NewValidationError(domain.ErrNoImage, "%v", err)
	}
	if !info.Mode().IsRegular() {
		return nil, domain.NewValidationError(domain.ErrNoImage, "%s is not a regular file", path)
	}
	// 読み込む前にサイズだけで判定できる違反は先に返す
	if info.Size() == 0 {
		return nil, domain.NewValidationError(domain.ErrNoImage, "%s is empty", path)
	}
	if u.policy.MaxBytes > 0 && info.Size() > u.policy.MaxBytes {
		return nil, domain.NewValidationError(domain.ErrImageTooLarge, "%d bytes exceeds maximum of %d bytes", info.Size(), u.policy.MaxBytes)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.ResourceError{Op: "read", Path: path, Err: err}
	}
	declared := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	mimeType := usecase.ResolveMIMEType(declared, content)
	if err := u.policy.Validate(int64(len(content)), mimeType); err != nil {
		return nil, err
	}

	return &PreparedImage{Filename: filepath.Base(path), MIMEType: mimeType, Content: content}, nil
}

// Send は検証済みの画像をmultipartで送信し、識別結果を返します。
func (u *Uploader) Send(ctx context.Context, img *PreparedImage) (*entity.PlantDetails, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename="%s"`, escapeQuotes(img.Filename)))
	h.Set("Content-Type", img.MIMEType)
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(img.Content); err != nil {
		return nil, fmt.Errorf("write form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.baseURL+"/identify", body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var out dto.PlantDetailsResponse
	if err := u.do(req, &out); err != nil {
		return nil, err
	}
	d := out.ToEntity()
	return &d, nil
}

// Submit はPrepareとSendを続けて行います。
func (u *Uploader) Submit(ctx context.Context, path string) (*entity.PlantDetails, error) {
	img, err := u.Prepare(path)
	if err != nil {
		return nil, err
	}
	return u.Send(ctx, img)
}

// CareInstructions はサーバーから育て方ヒントの一覧を取得します。
func (u *Uploader) CareInstructions(ctx context.Context) ([]careentity.CareInstruction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.baseURL+"/care-instructions", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	var out []caredto.CareInstructionResponse
	if err := u.do(req, &out); err != nil {
		return nil, err
	}
	return caredto.ToEntities(out), nil
}

func (u *Uploader) do(req *http.Request, out any) error {
	resp, err := u.httpClient.Do(req)
	if err != nil {
		return &domain.TransportError{Provider: serverName, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeServerError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.ParseError{Provider: serverName, Err: err}
	}
	return nil
}

func decodeServerError(resp *http.Response) error {
	se := &ServerError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return se
	}
	var body dto.ErrorResponse
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		se.Message = body.Error
		se.Kind = domain.Kind(body.Kind)
	}
	return se
}

func escapeQuotes(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}
