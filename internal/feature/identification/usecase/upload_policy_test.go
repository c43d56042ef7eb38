package usecase_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"plantid_backend/internal/feature/identification/domain"
	"plantid_backend/internal/feature/identification/usecase"
)

var (
	pngMagic  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	jpegMagic = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00")
)

func TestUploadPolicy_Validate(t *testing.T) {
	t.Parallel()

	p := usecase.DefaultUploadPolicy()

	tests := []struct {
		name    string
		size    int64
		mime    string
		wantErr error
	}{
		{"jpeg ok", 1024, "image/jpeg", nil},
		{"png with params ok", 1024, "image/png; charset=binary", nil},
		{"webp ok", usecase.DefaultMaxImageSize, "image/webp", nil},
		{"empty", 0, "image/jpeg", domain.ErrNoImage},
		{"too large", usecase.DefaultMaxImageSize + 1, "image/jpeg", domain.ErrImageTooLarge},
		{"gif rejected", 1024, "image/gif", domain.ErrUnsupportedMediaType},
		{"missing type rejected", 1024, "", domain.ErrUnsupportedMediaType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := p.Validate(tt.size, tt.mime)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, domain.KindValidation, domain.KindOf(err))
		})
	}
}

func TestResolveMIMEType(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "image/png", usecase.ResolveMIMEType("application/octet-stream", pngMagic))
	assert.Equal(t, "image/jpeg", usecase.ResolveMIMEType("", jpegMagic))
	// 形式を特定できないバイナリの場合のみ申告値を使う
	assert.Equal(t, "image/webp", usecase.ResolveMIMEType("image/webp", []byte{0x00, 0x9f, 0x92, 0x96, 0x00, 0x01}))
	assert.Equal(t, "", usecase.ResolveMIMEType("", nil))
}

func TestResolveMIMEType_DetectedTypeWinsOverDeclared(t *testing.T) {
	t.Parallel()

	p := usecase.DefaultUploadPolicy()

	tests := []struct {
		name     string
		declared string
		content  []byte
	}{
		{"plain text declared as jpeg", "image/jpeg", []byte("this is just some text, not a photo\n")},
		{"html declared as png", "image/png", []byte("<html><body>hi</body></html>")},
		{"pdf declared as webp", "image/webp", []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			mt := usecase.ResolveMIMEType(tt.declared, tt.content)
			assert.NotEqual(t, tt.declared, mt)
			err := p.Validate(int64(len(tt.content)), mt)
			assert.ErrorIs(t, err, domain.ErrUnsupportedMediaType)
		})
	}
}

func TestExtensionFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ".png", usecase.ExtensionFor("image/png"))
	assert.Equal(t, ".jpg", usecase.ExtensionFor("image/jpeg"))
	assert.Equal(t, "", usecase.ExtensionFor("application/x-unknown-thing"))
}
