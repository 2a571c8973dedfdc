package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/GlebRadaev/pointsbank/internal/domain"
	"github.com/GlebRadaev/pointsbank/internal/dto"
	ledgerservice "github.com/GlebRadaev/pointsbank/internal/service/ledgerservice"
	"github.com/GlebRadaev/pointsbank/pkg/utils"
)

type Service interface {
	AddPoints(ctx context.Context, userID int, amount decimal.Decimal, description, category string, kind domain.BalanceKind) (decimal.Decimal, error)
	SubtractPoints(ctx context.Context, userID int, amount decimal.Decimal, description, category string) (decimal.Decimal, error)
	SetBalance(ctx context.Context, userID int, newValue decimal.Decimal, description, category string, kind domain.BalanceKind) (decimal.Decimal, error)
	BulkAdjust(ctx context.Context, userIDs []int, op ledgerservice.BulkOp, amount decimal.Decimal, description, category string, kind domain.BalanceKind) (int, int, error)
}

type AdminHandler struct {
	ledgerService Service
}

func New(ledgerService Service) *AdminHandler {
	return &AdminHandler{
		ledgerService: ledgerService,
	}
}

const defaultCategory = "manual"

// AddPoints godoc
//
//	@Summary		Credit points to a user
//	@Description	Credit points to the free or permanent balance of the given user.
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.AdjustRequestDTO	true	"Adjustment payload"
//	@Param			X-Admin-Token	header	string	true	"Operator token"
//	@Success		200	{object}	dto.AdjustResponseDTO	"Resulting total balance"
//	@Failure		400	{object}	utils.Response			"Invalid payload"
//	@Failure		403	{object}	utils.Response			"Missing or wrong operator token"
//	@Failure		500	{object}	utils.Response			"Internal server error"
//	@Router			/api/admin/points/add [post]
func (h *AdminHandler) AddPoints(w http.ResponseWriter, r *http.Request) {
	var req dto.AdjustRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	total, err := h.ledgerService.AddPoints(r.Context(), req.UserID, req.Amount,
		req.Description, category(req.Category), domain.BalanceKind(req.BalanceKind))
	if err != nil {
		respondAdjustError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.AdjustResponseDTO{Total: total})
}

// SubtractPoints godoc
//
//	@Summary		Debit points from a user
//	@Description	Debit points from the given user, draining the free balance before the permanent one.
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.AdjustRequestDTO	true	"Adjustment payload (balance_kind ignored)"
//	@Param			X-Admin-Token	header	string	true	"Operator token"
//	@Success		200	{object}	dto.AdjustResponseDTO	"Resulting total balance"
//	@Failure		400	{object}	utils.Response			"Invalid payload"
//	@Failure		402	{object}	utils.Response			"Insufficient balance"
//	@Failure		403	{object}	utils.Response			"Missing or wrong operator token"
//	@Failure		500	{object}	utils.Response			"Internal server error"
//	@Router			/api/admin/points/subtract [post]
func (h *AdminHandler) SubtractPoints(w http.ResponseWriter, r *http.Request) {
	var req dto.AdjustRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	total, err := h.ledgerService.SubtractPoints(r.Context(), req.UserID, req.Amount,
		req.Description, category(req.Category))
	if err != nil {
		respondAdjustError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.AdjustResponseDTO{Total: total})
}

// SetBalance godoc
//
//	@Summary		Set a user balance to an exact value
//	@Description	Overwrite the free or permanent balance of the given user with an exact non-negative value.
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.AdjustRequestDTO	true	"Adjustment payload"
//	@Param			X-Admin-Token	header	string	true	"Operator token"
//	@Success		200	{object}	dto.AdjustResponseDTO	"Resulting total balance"
//	@Failure		400	{object}	utils.Response			"Invalid payload"
//	@Failure		403	{object}	utils.Response			"Missing or wrong operator token"
//	@Failure		422	{object}	utils.Response			"Negative target value"
//	@Failure		500	{object}	utils.Response			"Internal server error"
//	@Router			/api/admin/points/set [post]
func (h *AdminHandler) SetBalance(w http.ResponseWriter, r *http.Request) {
	var req dto.AdjustRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	total, err := h.ledgerService.SetBalance(r.Context(), req.UserID, req.Amount,
		req.Description, category(req.Category), domain.BalanceKind(req.BalanceKind))
	if err != nil {
		respondAdjustError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.AdjustResponseDTO{Total: total})
}

// BulkUpdate godoc
//
//	@Summary		Adjust balances for a batch of users
//	@Description	Apply one add, subtract or set operation to every listed user. Individual failures do not abort the batch.
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.BulkUpdateRequestDTO	true	"Bulk adjustment payload"
//	@Param			X-Admin-Token	header	string	true	"Operator token"
//	@Success		200	{object}	dto.BulkUpdateResponseDTO	"Per-user success and failure counts"
//	@Failure		400	{object}	utils.Response				"Invalid payload"
//	@Failure		403	{object}	utils.Response				"Missing or wrong operator token"
//	@Failure		500	{object}	utils.Response				"Internal server error"
//	@Router			/api/admin/points/bulk [post]
func (h *AdminHandler) BulkUpdate(w http.ResponseWriter, r *http.Request) {
	var req dto.BulkUpdateRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.UserIDs) == 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "user_ids is required")
		return
	}

	succeeded, failed, err := h.ledgerService.BulkAdjust(r.Context(), req.UserIDs,
		ledgerservice.BulkOp(req.Op), req.Amount, req.Description,
		category(req.Category), domain.BalanceKind(req.BalanceKind))
	if err != nil {
		respondAdjustError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.BulkUpdateResponseDTO{
		Succeeded: succeeded,
		Failed:    failed,
	})
}

func category(c string) string {
	if c == "" {
		return defaultCategory
	}
	return c
}

func respondAdjustError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledgerservice.ErrInsufficientBalance):
		utils.RespondWithError(w, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, ledgerservice.ErrNegativeBalance):
		utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ledgerservice.ErrInvalidBalanceKind),
		errors.Is(err, ledgerservice.ErrInvalidAmount),
		errors.Is(err, ledgerservice.ErrInvalidOperation),
		errors.Is(err, ledgerservice.ErrInvalidDescription):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
