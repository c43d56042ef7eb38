// Package dto はPl@ntNet identify APIのレスポンス型を定義します。
package dto

// IdentifyResponse は /v2/identify/{project} のレスポンスボディです。
// Resultsがnilの場合はフィールド自体が欠落していたことを表します。
type IdentifyResponse struct {
	Language                        string   `json:"language"`
	BestMatch                       string   `json:"bestMatch"`
	Results                         []Result `json:"results"`
	RemainingIdentificationRequests *int     `json:"remainingIdentificationRequests,omitempty"`
}

// Result は候補1件です。
type Result struct {
	Score   *float64 `json:"score"`
	Species *Species `json:"species"`
	Images  []Image  `json:"images"`
}

type Species struct {
	ScientificNameWithoutAuthor string   `json:"scientificNameWithoutAuthor"`
	ScientificNameAuthorship    string   `json:"scientificNameAuthorship"`
	ScientificName              string   `json:"scientificName"`
	CommonNames                 []string `json:"commonNames"`
	Description                 string   `json:"description"`
}

// Image は関連画像です。URL.Oは原寸画像のURLです。
type Image struct {
	Organ string `json:"organ"`
	URL   struct {
		O string `json:"o"`
		M string `json:"m"`
		S string `json:"s"`
	} `json:"url"`
}

// ErrorResponse はエラー時のレスポンスボディです。
type ErrorResponse struct {
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}
