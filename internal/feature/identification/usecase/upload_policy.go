package usecase

import (
	"mime"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"plantid_backend/internal/feature/identification/domain"
)

const (
	// DefaultMaxImageSize はアップロード画像の既定の最大サイズ（5MiB）です。
	DefaultMaxImageSize = 5 * 1024 * 1024
)

// DefaultAcceptedTypes は既定で受け付ける画像のMIMEタイプです。
var DefaultAcceptedTypes = []string{"image/jpeg", "image/png", "image/webp"}

// UploadPolicy はアップロード画像のサイズと種類の制約です。
// ブラウザやCLIの送信前検証とサーバー側の検証の両方で同じ値を使います。
type UploadPolicy struct {
	MaxBytes      int64
	AcceptedTypes []string
}

// DefaultUploadPolicy は既定のUploadPolicyを返します。
func DefaultUploadPolicy() UploadPolicy {
	return UploadPolicy{MaxBytes: DefaultMaxImageSize, AcceptedTypes: slices.Clone(DefaultAcceptedTypes)}
}

// Validate はサイズとMIMEタイプを検証し、違反時はValidationErrorを返します。
func (p UploadPolicy) Validate(size int64, mimeType string) error {
	if size <= 0 {
		return domain.NewValidationError(domain.ErrNoImage, "image is empty")
	}
	if p.MaxBytes > 0 && size > p.MaxBytes {
		return domain.NewValidationError(domain.ErrImageTooLarge, "%d bytes exceeds maximum of %d bytes", size, p.MaxBytes)
	}
	if !p.Accepts(mimeType) {
		return domain.NewValidationError(domain.ErrUnsupportedMediaType, "%q is not one of %s", mimeType, strings.Join(p.AcceptedTypes, ", "))
	}
	return nil
}

// Accepts はMIMEタイプが許可リストに含まれるかを返します。
func (p UploadPolicy) Accepts(mimeType string) bool {
	mt := baseMediaType(mimeType)
	for _, a := range p.AcceptedTypes {
		if strings.EqualFold(a, mt) {
			return true
		}
	}
	return false
}

// octetStream は内容から形式を特定できなかったときの判定結果です。
const octetStream = "application/octet-stream"

// ResolveMIMEType は先頭バイトから判定したMIMEタイプを返します。
// 内容から形式を特定できない（application/octet-stream）場合に限り申告されたタイプを使います。
func ResolveMIMEType(declared string, content []byte) string {
	if len(content) == 0 {
		return baseMediaType(declared)
	}
	detected := mimetype.Detect(content)
	if detected.Is(octetStream) {
		return baseMediaType(declared)
	}
	return baseMediaType(detected.String())
}

// ExtensionFor はMIMEタイプに対応する一時ファイル用の拡張子を返します。
func ExtensionFor(mimeType string) string {
	if m := mimetype.Lookup(baseMediaType(mimeType)); m != nil {
		return m.Extension()
	}
	return ""
}

func baseMediaType(v string) string {
	if v == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(v)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(v))
	}
	return mt
}
