package entity

// ProviderResponse はプロバイダーごとの生レスポンスを表すタグ付きユニオンです。
// 実装はこのパッケージ内の型に限られ、正規化はtype switchで分岐します。
type ProviderResponse interface {
	// ProviderName はレスポンスを返したプロバイダー名です。
	ProviderName() string
	isProviderResponse()
}

// FreeTextResponse は自然言語で回答するプロバイダー（Gemini, OpenAI）のレスポンスです。
type FreeTextResponse struct {
	Provider string
	Text     string
}

// TaxonomyResult は分類プロバイダーが返す候補1件分です。
// 欠落し得る値はゼロ値またはnilのまま保持し、既定値の補完は正規化時に行います。
type TaxonomyResult struct {
	Score          *float64 // 0.0 ~ 1.0、欠落時はnil
	ScientificName string
	CommonNames    []string
	Description    string
	ImageURLs      []string
}

// TaxonomyResponse は分類とスコアを含むJSONを返すプロバイダー（PlantNet）のレスポンスです。
type TaxonomyResponse struct {
	Provider string
	Results  []TaxonomyResult
}

// Label は画像ラベル検出の1件分の結果です。
type Label struct {
	Description string
	Score       float32 // 0.0 ~ 1.0
}

// LabelResponse はラベル検出プロバイダー（Cloud Vision）のレスポンスです。
type LabelResponse struct {
	Provider string
	Labels   []Label
}

func (r FreeTextResponse) ProviderName() string { return r.Provider }
func (r TaxonomyResponse) ProviderName() string { return r.Provider }
func (r LabelResponse) ProviderName() string    { return r.Provider }

func (FreeTextResponse) isProviderResponse() {}
func (TaxonomyResponse) isProviderResponse() {}
func (LabelResponse) isProviderResponse()    {}
