package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type BalanceResponseDTO struct {
	Free      decimal.Decimal `json:"free" example:"120.5"`
	Permanent decimal.Decimal `json:"permanent" example:"300"`
	Total     decimal.Decimal `json:"total" example:"420.5"`
}

type SpendRequestDTO struct {
	Amount      decimal.Decimal `json:"amount" example:"50"`
	Description string          `json:"description" example:"coffee voucher"`
}

type SpendResponseDTO struct {
	Total decimal.Decimal `json:"total" example:"370.5"`
}

type HistoryEntryDTO struct {
	ID          int64           `json:"id" example:"42"`
	Amount      decimal.Decimal `json:"amount" example:"-60"`
	Free        decimal.Decimal `json:"free_balance_after" example:"0"`
	Permanent   decimal.Decimal `json:"permanent_balance_after" example:"20"`
	Kind        string          `json:"balance_kind" example:"mixed"`
	Description string          `json:"description" example:"spend"`
	Category    string          `json:"category" example:"usage"`
	CreatedAt   time.Time       `json:"created_at" example:"2020-12-09T16:09:57+03:00"`
}
