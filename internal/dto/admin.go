package dto

import "github.com/shopspring/decimal"

type AdjustRequestDTO struct {
	UserID      int             `json:"user_id" example:"1"`
	Amount      decimal.Decimal `json:"amount" example:"100"`
	Description string          `json:"description" example:"support compensation"`
	Category    string          `json:"category" example:"manual"`
	BalanceKind string          `json:"balance_kind" example:"free"`
}

type AdjustResponseDTO struct {
	Total decimal.Decimal `json:"total" example:"520.5"`
}

type BulkUpdateRequestDTO struct {
	UserIDs     []int           `json:"user_ids" example:"1,2,3"`
	Op          string          `json:"op" example:"add"`
	Amount      decimal.Decimal `json:"amount" example:"10"`
	Description string          `json:"description" example:"season bonus"`
	Category    string          `json:"category" example:"bulk-update"`
	BalanceKind string          `json:"balance_kind" example:"free"`
}

type BulkUpdateResponseDTO struct {
	Succeeded int `json:"succeeded" example:"2"`
	Failed    int `json:"failed" example:"1"`
}
