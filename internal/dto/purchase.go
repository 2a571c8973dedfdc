package dto

import "github.com/shopspring/decimal"

type PurchaseRequestDTO struct {
	Order  string          `json:"order" example:"2377225624"`
	Points decimal.Decimal `json:"points" example:"500"`
}

type PurchaseResponseDTO struct {
	Message string `json:"message"`
}
