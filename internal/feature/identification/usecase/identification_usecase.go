// Package usecase はidentificationフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"plantid_backend/internal/feature/identification/domain"
	"plantid_backend/internal/feature/identification/domain/entity"
)

// PlantIdentifier は1つの外部識別プロバイダーを表すインターフェースです。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type PlantIdentifier interface {
	// Name はログや応答に使うプロバイダー名を返します。
	Name() string
	// Identify は画像を1回だけプロバイダーへ送信し、生の応答を返します。
	Identify(ctx context.Context, image []byte, mimeType string) (entity.ProviderResponse, error)
}

// ImageStore はアップロード画像をリクエスト単位の一時ファイルとして扱うインターフェースです。
type ImageStore interface {
	// Save はストリームを一意な一時ファイルへ書き込み、そのパスを返します。
	Save(r io.Reader, ext string, limit int64) (string, error)
	// Read は一時ファイルの内容を返します。
	Read(path string) ([]byte, error)
	// Remove は一時ファイルを削除します。存在しない場合はnilを返します。
	Remove(path string) error
}

// ResultCache は画像ハッシュをキーに正規化済みの結果を保持するインターフェースです。
type ResultCache interface {
	Get(ctx context.Context, key string) (*entity.PlantDetails, error)
	Set(ctx context.Context, key string, details entity.PlantDetails) error
}

// Upload はクライアントから受け取った1枚の画像です。
// Sizeが不明な場合は-1を指定します。
type Upload struct {
	Filename string
	MIMEType string
	Size     int64
	Content  io.Reader
}

// IdentificationUsecase は1回の識別リクエストを受付から応答まで処理します。
type IdentificationUsecase struct {
	providers  []PlantIdentifier
	normalizer *Normalizer
	store      ImageStore
	cache      ResultCache
	policy     UploadPolicy
}

// NewIdentificationUsecase はIdentificationUsecaseの新しいインスタンスを生成します。
// providersの順序が優先順位になります。cacheはnilでも構いません。
func NewIdentificationUsecase(providers []PlantIdentifier, normalizer *Normalizer, store ImageStore, cache ResultCache, policy UploadPolicy) *IdentificationUsecase {
	if normalizer == nil {
		normalizer = NewNormalizer()
	}
	return &IdentificationUsecase{
		providers:  providers,
		normalizer: normalizer,
		store:      store,
		cache:      cache,
		policy:     policy,
	}
}

// ProviderNames は設定順のプロバイダー名を返します。
func (u *IdentificationUsecase) ProviderNames() []string {
	names := make([]string, 0, len(u.providers))
	for _, p := range u.providers {
		names = append(names, p.Name())
	}
	return names
}

// Identify は画像を一時保存し、すべてのプロバイダーへ問い合わせ、
// 設定順で最初に成功した結果を返します。一時ファイルは成否にかかわらず削除されます。
func (u *IdentificationUsecase) Identify(ctx context.Context, upload Upload) (*entity.PlantDetails, error) {
	tr := newRequestTracker()
	details, err := u.identify(ctx, tr, upload)
	if err != nil {
		tr.fail()
		slog.WarnContext(ctx, "identification failed", "kind", domain.KindOf(err), "error", err)
		return nil, err
	}
	return details, nil
}

func (u *IdentificationUsecase) identify(ctx context.Context, tr *requestTracker, upload Upload) (*entity.PlantDetails, error) {
	if upload.Content == nil || upload.Size == 0 {
		return nil, domain.NewValidationError(domain.ErrNoImage, "no image was uploaded")
	}
	if u.policy.MaxBytes > 0 && upload.Size > u.policy.MaxBytes {
		return nil, domain.NewValidationError(domain.ErrImageTooLarge, "%d bytes exceeds maximum of %d bytes", upload.Size, u.policy.MaxBytes)
	}
	if len(u.providers) == 0 {
		return nil, fmt.Errorf("identify: %w", domain.ErrNoProviders)
	}

	path, err := u.store.Save(upload.Content, u.extension(upload), u.policy.MaxBytes)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := u.store.Remove(path); err != nil {
			slog.ErrorContext(ctx, "failed to delete temporary image", "path", path, "error", err)
		}
	}()
	if err := tr.advance(StateImageStored); err != nil {
		return nil, err
	}

	image, err := u.store.Read(path)
	if err != nil {
		return nil, err
	}
	mimeType := ResolveMIMEType(upload.MIMEType, image)
	if err := u.policy.Validate(int64(len(image)), mimeType); err != nil {
		return nil, err
	}

	key := imageKey(image)
	if cached := u.lookup(ctx, key); cached != nil {
		if err := tr.advance(StateResponded); err != nil {
			return nil, err
		}
		return cached, nil
	}

	if err := tr.advance(StateProvidersInvoked); err != nil {
		return nil, err
	}
	outcomes := u.invokeAll(ctx, image, mimeType)

	details, err := u.selectAuthoritative(ctx, outcomes)
	if err != nil {
		return nil, err
	}
	if err := tr.advance(StateNormalized); err != nil {
		return nil, err
	}

	u.remember(ctx, key, details)
	if err := tr.advance(StateResponded); err != nil {
		return nil, err
	}
	return &details, nil
}

// providerOutcome は1プロバイダー分の正規化結果です。
type providerOutcome struct {
	provider string
	details  entity.PlantDetails
	err      error
}

// invokeAll はすべてのプロバイダーを並行に呼び出します。
// 1つの失敗が他の呼び出しを取り消すことはありません。
func (u *IdentificationUsecase) invokeAll(ctx context.Context, image []byte, mimeType string) []providerOutcome {
	outcomes := make([]providerOutcome, len(u.providers))

	var g errgroup.Group
	for i, p := range u.providers {
		g.Go(func() error {
			out := providerOutcome{provider: p.Name()}
			resp, err := p.Identify(ctx, image, mimeType)
			if err == nil {
				out.details, err = u.normalizer.Normalize(resp)
				out.details.Provider = out.provider
			}
			out.err = err
			outcomes[i] = out
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

// selectAuthoritative は設定順で最初に成功した結果を採用し、残りはログにのみ残します。
// すべて失敗した場合は先頭プロバイダーのエラーを返します。
func (u *IdentificationUsecase) selectAuthoritative(ctx context.Context, outcomes []providerOutcome) (entity.PlantDetails, error) {
	chosen := -1
	for i, o := range outcomes {
		if o.err != nil {
			slog.WarnContext(ctx, "provider failed", "provider", o.provider, "kind", domain.KindOf(o.err), "error", o.err)
			continue
		}
		if chosen < 0 {
			chosen = i
		}
	}
	if chosen < 0 {
		return entity.PlantDetails{}, outcomes[0].err
	}

	primary := outcomes[chosen].details
	for i, o := range outcomes {
		if i == chosen || o.err != nil {
			continue
		}
		if !strings.EqualFold(o.details.Name, primary.Name) {
			slog.InfoContext(ctx, "providers disagree",
				"authoritative", primary.Provider, "name", primary.Name,
				"other", o.provider, "other_name", o.details.Name)
			continue
		}
		slog.DebugContext(ctx, "providers agree", "authoritative", primary.Provider, "other", o.provider, "name", primary.Name)
	}
	return primary, nil
}

func (u *IdentificationUsecase) lookup(ctx context.Context, key string) *entity.PlantDetails {
	if u.cache == nil {
		return nil
	}
	d, err := u.cache.Get(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "result cache lookup failed", "error", err)
		return nil
	}
	return d
}

func (u *IdentificationUsecase) remember(ctx context.Context, key string, details entity.PlantDetails) {
	if u.cache == nil {
		return
	}
	if err := u.cache.Set(ctx, key, details); err != nil {
		slog.WarnContext(ctx, "result cache store failed", "error", err)
	}
}

func (u *IdentificationUsecase) extension(upload Upload) string {
	if ext := ExtensionFor(upload.MIMEType); ext != "" {
		return ext
	}
	return strings.ToLower(filepath.Ext(upload.Filename))
}

// imageKey は画像内容のSHA-256を16進文字列で返します。
func imageKey(image []byte) string {
	sum := sha256.Sum256(image)
	return hex.EncodeToString(sum[:])
}
