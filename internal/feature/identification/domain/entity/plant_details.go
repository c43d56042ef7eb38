// Package entity はidentificationフィーチャーのドメインモデルを定義します。
package entity

import "strings"

const (
	// UnknownName は通称が取得できなかった場合の既定値です。
	UnknownName = "Unknown Plant"
	// UnknownScientificName は学名が取得できなかった場合の既定値です。
	UnknownScientificName = "Unknown Species"
	// UnknownTaxon は構造化プロバイダーで名前が欠落していた場合の既定値です。
	UnknownTaxon = "Unknown"
	// NoDescription は説明文が取得できなかった場合の既定値です。
	NoDescription = "No description available."
	// PlaceholderImageURL はプロバイダーが画像を返さなかった場合の表示用URLです。
	PlaceholderImageURL = "https://via.placeholder.com/300"
)

// PlantDetails は1回の識別リクエストの結果を表します。
// すべてのフィールドは常に値を持ち、欠落データは既定値で置き換えられます。
type PlantDetails struct {
	Name           string  // 表示用の通称
	ScientificName string  // 学名
	Description    string  // 説明文
	Confidence     float64 // 0〜100のスコア
	ImageURL       string  // 表示用の代表画像URL

	// ConfidenceSynthetic はConfidenceが実測値ではなく表示用の推定値であることを示します。
	ConfidenceSynthetic bool
	// Provider は結果を生成したプロバイダー名です。
	Provider string
}

// Complete はすべての表示フィールドが埋まっており、信頼度が範囲内であるかを返します。
func (p PlantDetails) Complete() bool {
	for _, s := range []string{p.Name, p.ScientificName, p.Description, p.ImageURL} {
		if strings.TrimSpace(s) == "" {
			return false
		}
	}
	return p.Confidence >= 0 && p.Confidence <= 100
}

// WithDefaults は空のフィールドを既定値で埋めたコピーを返します。
func (p PlantDetails) WithDefaults() PlantDetails {
	p.Name = orDefault(p.Name, UnknownName)
	p.ScientificName = orDefault(p.ScientificName, UnknownScientificName)
	p.Description = orDefault(p.Description, NoDescription)
	p.ImageURL = orDefault(p.ImageURL, PlaceholderImageURL)
	switch {
	case p.Confidence < 0:
		p.Confidence = 0
	case p.Confidence > 100:
		p.Confidence = 100
	}
	return p
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}
