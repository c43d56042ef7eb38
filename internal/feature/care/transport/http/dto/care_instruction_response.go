package dto

import "plantid_backend/internal/feature/care/domain/entity"

// CareInstructionResponse は GET /care-instructions の1要素です。
type CareInstructionResponse struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Tooltip     string `json:"tooltip"`
}

// FromEntities はエンティティ一覧をレスポンスDTOへ変換します。
func FromEntities(in []entity.CareInstruction) []CareInstructionResponse {
	out := make([]CareInstructionResponse, 0, len(in))
	for _, ci := range in {
		out = append(out, CareInstructionResponse(ci))
	}
	return out
}

// ToEntities はレスポンスDTOをエンティティ一覧へ戻します（クライアント側で使用）。
func ToEntities(in []CareInstructionResponse) []entity.CareInstruction {
	out := make([]entity.CareInstruction, 0, len(in))
	for _, r := range in {
		out = append(out, entity.CareInstruction(r))
	}
	return out
}
