package balance

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/GlebRadaev/pointsbank/internal/domain"
	"github.com/GlebRadaev/pointsbank/internal/dto"
	ledgerservice "github.com/GlebRadaev/pointsbank/internal/service/ledgerservice"
	"github.com/GlebRadaev/pointsbank/pkg/auth"
	"github.com/GlebRadaev/pointsbank/pkg/utils"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

type Service interface {
	GetBalance(ctx context.Context, userID int) (*domain.Balance, error)
	GetHistory(ctx context.Context, userID int, limit, offset int) ([]domain.Transaction, error)
	SubtractPoints(ctx context.Context, userID int, amount decimal.Decimal, description, category string) (decimal.Decimal, error)
}

type BalanceHandler struct {
	ledgerService Service
}

func New(ledgerService Service) *BalanceHandler {
	return &BalanceHandler{
		ledgerService: ledgerService,
	}
}

// GetBalance godoc
//
//	@Summary		Get current user balance
//	@Description	Retrieve the free, permanent and total points balance for the authenticated user.
//	@Tags			Balance
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	dto.BalanceResponseDTO	"Current free, permanent and total balance"
//	@Failure		401	{object}	utils.Response			"User not authorized"
//	@Failure		500	{object}	utils.Response			"Internal server error"
//	@Router			/api/user/balance [get]
func (h *BalanceHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(int)

	balance, err := h.ledgerService.GetBalance(r.Context(), userID)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.BalanceResponseDTO{
		Free:      balance.Free,
		Permanent: balance.Permanent,
		Total:     balance.Total(),
	})
}

// Spend godoc
//
//	@Summary		Spend points
//	@Description	Debit points from the user balance, draining the free balance before the permanent one.
//	@Tags			Balance
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.SpendRequestDTO		true	"Spend request payload"
//	@Success		200		{object}	dto.SpendResponseDTO	"Remaining total balance"
//	@Failure		400		{object}	utils.Response			"Invalid request payload"
//	@Failure		401		{object}	utils.Response			"User not authorized"
//	@Failure		402		{object}	utils.Response			"Insufficient balance"
//	@Failure		500		{object}	utils.Response			"Internal server error"
//	@Router			/api/user/balance/spend [post]
func (h *BalanceHandler) Spend(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(int)

	var req dto.SpendRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	total, err := h.ledgerService.SubtractPoints(r.Context(), userID, req.Amount, req.Description, "usage")
	if err != nil {
		switch {
		case errors.Is(err, ledgerservice.ErrInsufficientBalance):
			utils.RespondWithError(w, http.StatusPaymentRequired, err.Error())
		case errors.Is(err, ledgerservice.ErrInvalidAmount),
			errors.Is(err, ledgerservice.ErrInvalidDescription):
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		default:
			utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.SpendResponseDTO{Total: total})
}

// GetHistory godoc
//
//	@Summary		Get transaction history
//	@Description	Get the points transaction history for the authenticated user, newest first.
//	@Tags			Balance
//	@Security		BearerAuth
//	@Produce		json
//	@Param			limit	query		int					false	"Page size (default 50, max 500)"
//	@Param			offset	query		int					false	"Rows to skip"
//	@Success		200		{array}		dto.HistoryEntryDTO	"Transaction history"
//	@Success		204		{object}	utils.Response		"No transactions found"
//	@Failure		401		{object}	utils.Response		"User not authorized"
//	@Failure		500		{object}	utils.Response		"Internal server error"
//	@Router			/api/user/balance/history [get]
func (h *BalanceHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(int)

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			utils.RespondWithError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			utils.RespondWithError(w, http.StatusBadRequest, "invalid offset")
			return
		}
		offset = n
	}

	transactions, err := h.ledgerService.GetHistory(r.Context(), userID, limit, offset)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch history")
		return
	}

	if len(transactions) == 0 {
		utils.RespondWithError(w, http.StatusNoContent, "Transactions not found")
		return
	}

	response := make([]dto.HistoryEntryDTO, len(transactions))
	for i, trx := range transactions {
		response[i] = dto.HistoryEntryDTO{
			ID:          trx.ID,
			Amount:      trx.Amount,
			Free:        trx.FreeAfter,
			Permanent:   trx.PermanentAfter,
			Kind:        string(trx.Kind),
			Description: trx.Description,
			Category:    trx.Category,
			CreatedAt:   trx.CreatedAt,
		}
	}

	utils.RespondWithJSON(w, http.StatusOK, response)
}
