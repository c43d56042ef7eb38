package dto

import "plantid_backend/internal/feature/identification/domain/entity"

// PlantDetailsResponse は POST /identify 成功時のレスポンスDTOです。
type PlantDetailsResponse struct {
	Name                string  `json:"name"`                // 通称
	ScientificName      string  `json:"scientificName"`      // 学名
	Description         string  `json:"description"`         // 説明文
	Confidence          float64 `json:"confidence"`          // 0〜100
	ImageURL            string  `json:"imageUrl"`            // 代表画像URL
	ConfidenceSynthetic bool    `json:"confidenceSynthetic"` // trueの場合Confidenceは推定値
	Provider            string  `json:"provider"`            // 結果を生成したプロバイダー
}

// ErrorResponse は失敗時のレスポンスDTOです。Kindはエラー分類（validation, transport など）です。
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// FromEntity はPlantDetailsをレスポンスDTOへ変換します。
func FromEntity(d entity.PlantDetails) PlantDetailsResponse {
	return PlantDetailsResponse{
		Name:                d.Name,
		ScientificName:      d.ScientificName,
		Description:         d.Description,
		Confidence:          d.Confidence,
		ImageURL:            d.ImageURL,
		ConfidenceSynthetic: d.ConfidenceSynthetic,
		Provider:            d.Provider,
	}
}

// ToEntity はレスポンスDTOをPlantDetailsへ戻します（クライアント側で使用）。
func (r PlantDetailsResponse) ToEntity() entity.PlantDetails {
	return entity.PlantDetails{
		Name:                r.Name,
		ScientificName:      r.ScientificName,
		Description:         r.Description,
		Confidence:          r.Confidence,
		ImageURL:            r.ImageURL,
		ConfidenceSynthetic: r.ConfidenceSynthetic,
		Provider:            r.Provider,
	}
}
