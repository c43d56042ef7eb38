package usecase

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"plantid_backend/internal/feature/identification/domain"
	"plantid_backend/internal/feature/identification/domain/entity"
)

const (
	// SyntheticConfidenceMin は推定信頼度の下限です。
	SyntheticConfidenceMin = 80
	// SyntheticConfidenceMax は推定信頼度の上限（両端を含む）です。
	SyntheticConfidenceMax = 100
)

// labelAliases は自由記述レスポンス中のラベル付き行を各フィールドに対応付けます。
var labelAliases = map[string]string{
	"name":            "name",
	"common name":     "name",
	"plant name":      "name",
	"plant":           "name",
	"scientific name": "scientific",
	"botanical name":  "scientific",
	"latin name":      "scientific",
	"species":         "scientific",
	"description":     "description",
}

// Normalizer はプロバイダー固有のレスポンスをPlantDetailsへ変換します。
type Normalizer struct {
	intn func(n int) int
}

// NewNormalizer はグローバル乱数源を使うNormalizerを生成します。
func NewNormalizer() *Normalizer {
	return &Normalizer{intn: rand.IntN}
}

// NewNormalizerWithRand は推定信頼度に使う乱数関数を指定してNormalizerを生成します（テスト用）。
func NewNormalizerWithRand(intn func(n int) int) *Normalizer {
	return &Normalizer{intn: intn}
}

// Normalize はレスポンスの種類に応じて解析し、すべてのフィールドが埋まったPlantDetailsを返します。
// 個別フィールドの欠落はエラーにせず既定値で補い、結果が1件もない場合のみParseErrorを返します。
func (n *Normalizer) Normalize(resp entity.ProviderResponse) (entity.PlantDetails, error) {
	var (
		details entity.PlantDetails
		err     error
	)
	switch r := resp.(type) {
	case entity.FreeTextResponse:
		details = n.normalizeFreeText(r)
	case entity.TaxonomyResponse:
		details, err = n.normalizeTaxonomy(r)
	case entity.LabelResponse:
		details, err = normalizeLabels(r)
	case nil:
		return entity.PlantDetails{}, &domain.ParseError{Provider: "unknown", Err: fmt.Errorf("nil response")}
	default:
		return entity.PlantDetails{}, &domain.ParseError{Provider: resp.ProviderName(), Err: fmt.Errorf("unsupported response type %T", resp)}
	}
	if err != nil {
		return entity.PlantDetails{}, err
	}
	details.Provider = resp.ProviderName()
	return details.WithDefaults(), nil
}

// normalizeFreeText は「名前・学名・説明」の3行形式を前提に自由記述を解析します。
// ラベル付き行（"Scientific name: ..." など）があればそのフィールドに使い、
// 残りのフィールドはラベルのない行から順に埋めます。
func (n *Normalizer) normalizeFreeText(r entity.FreeTextResponse) entity.PlantDetails {
	lines := meaningfulLines(r.Text)

	name, scientific, description, rest := labeledFields(lines)
	// ラベルのない行は空いているフィールドへ順に割り当てる
	for _, field := range []*string{&name, &scientific, &description} {
		if *field == "" && len(rest) > 0 {
			*field, rest = rest[0], rest[1:]
		}
	}

	return entity.PlantDetails{
		Name:                orDefault(name, entity.UnknownName),
		ScientificName:      orDefault(scientific, entity.UnknownScientificName),
		Description:         orDefault(description, entity.NoDescription),
		Confidence:          n.syntheticConfidence(),
		ConfidenceSynthetic: true,
		ImageURL:            entity.PlaceholderImageURL,
	}
}

func (n *Normalizer) normalizeTaxonomy(r entity.TaxonomyResponse) (entity.PlantDetails, error) {
	if len(r.Results) == 0 {
		return entity.PlantDetails{}, &domain.ParseError{Provider: r.Provider, Err: domain.ErrNoResults}
	}
	top := r.Results[0]

	details := entity.PlantDetails{
		Name:           orDefault(first(top.CommonNames), entity.UnknownTaxon),
		ScientificName: orDefault(top.ScientificName, entity.UnknownTaxon),
		Description:    orDefault(top.Description, entity.NoDescription),
		ImageURL:       orDefault(first(top.ImageURLs), entity.PlaceholderImageURL),
	}
	if top.Score != nil {
		details.Confidence = fractionToPercent(*top.Score)
	} else {
		details.Confidence = n.syntheticConfidence()
		details.ConfidenceSynthetic = true
	}
	return details, nil
}

func normalizeLabels(r entity.LabelResponse) (entity.PlantDetails, error) {
	if len(r.Labels) == 0 {
		return entity.PlantDetails{}, &domain.ParseError{Provider: r.Provider, Err: domain.ErrNoResults}
	}
	best := r.Labels[0]
	for _, l := range r.Labels[1:] {
		if l.Score > best.Score {
			best = l
		}
	}
	return entity.PlantDetails{
		Name:           orDefault(best.Description, entity.UnknownName),
		ScientificName: entity.UnknownScientificName,
		Description:    entity.NoDescription,
		Confidence:     fractionToPercent(float64(best.Score)),
		ImageURL:       entity.PlaceholderImageURL,
	}, nil
}

// syntheticConfidence は実スコアを持たないプロバイダー向けの表示用の値です。測定値ではありません。
func (n *Normalizer) syntheticConfidence() float64 {
	return float64(SyntheticConfidenceMin + n.intn(SyntheticConfidenceMax-SyntheticConfidenceMin+1))
}

// fractionToPercent は0〜1のスコアを小数点以下2桁に丸めた百分率に変換します。
func fractionToPercent(f float64) float64 {
	p := math.Round(f*10000) / 100
	return math.Max(0, math.Min(100, p))
}

// meaningfulLines は空行を除き、Markdownの装飾や箇条書き記号を取り除いた行を返します。
func meaningfulLines(text string) []string {
	var out []string
	for _, raw := range strings.Split(text, "\n") {
		line := strings.ReplaceAll(raw, "**", "")
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "#-*•> ")
		line = trimOrdinal(line)
		line = strings.Trim(line, "*_ \t\r")
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// trimOrdinal は "1. " や "2) " のような番号付けを取り除きます。
func trimOrdinal(line string) string {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i == 0 || i > 2 || i >= len(line) || (line[i] != '.' && line[i] != ')') {
		return line
	}
	if i+1 < len(line) && line[i+1] != ' ' {
		return line
	}
	return strings.TrimSpace(line[i+1:])
}

// labeledFields はラベル付き行から各フィールドを取り出し、ラベルのない行を順序どおりrestに返します。
func labeledFields(lines []string) (name, scientific, description string, rest []string) {
	for _, line := range lines {
		label, value, ok := strings.Cut(line, ":")
		field, known := "", false
		if ok {
			field, known = labelAliases[strings.ToLower(strings.TrimSpace(label))]
		}
		if !known {
			rest = append(rest, line)
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), "*_ ")
		switch field {
		case "name":
			if name == "" {
				name = value
			}
		case "scientific":
			if scientific == "" {
				scientific = value
			}
		case "description":
			if description == "" {
				description = value
			}
		}
	}
	return name, scientific, description, rest
}

func first(s []string) string {
	for _, v := range s {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}
