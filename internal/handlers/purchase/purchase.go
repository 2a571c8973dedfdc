package purchase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/GlebRadaev/pointsbank/internal/domain"
	"github.com/GlebRadaev/pointsbank/internal/dto"
	purchaseservice "github.com/GlebRadaev/pointsbank/internal/purchase"
	"github.com/GlebRadaev/pointsbank/pkg/auth"
	"github.com/GlebRadaev/pointsbank/pkg/utils"
	"github.com/GlebRadaev/pointsbank/pkg/validate"
)

type Service interface {
	RegisterPurchase(ctx context.Context, userID int, orderNumber string, points decimal.Decimal) (*domain.Purchase, error)
}

type PurchaseHandler struct {
	purchaseService Service
}

func New(purchaseService Service) *PurchaseHandler {
	return &PurchaseHandler{
		purchaseService: purchaseService,
	}
}

// AddPurchase godoc
//
//	@Summary		Register a point purchase
//	@Description	Record a pending point purchase for the authenticated user; points are credited once the payment provider confirms the order.
//	@Tags			Purchases
//	@Accept			json
//	@Produce		json
//	@Param			request	body	dto.PurchaseRequestDTO	true	"Purchase payload"
//	@Security		BearerAuth
//	@Success		202	{object}	utils.Response	"Purchase accepted for processing"
//	@Success		200	{object}	utils.Response	"Purchase already registered by this user"
//	@Failure		400	{object}	utils.Response	"Bad request"
//	@Failure		401	{object}	utils.Response	"User not authorized"
//	@Failure		409	{object}	utils.Response	"Purchase already registered by another user"
//	@Failure		422	{object}	utils.Response	"Invalid order number format"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/user/purchase [post]
func (h *PurchaseHandler) AddPurchase(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(auth.UserIDKey).(int)

	var req dto.PurchaseRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Order == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Order number is required")
		return
	}

	ok := validate.IsOrderNumber(req.Order)
	if !ok {
		utils.RespondWithError(w, http.StatusUnprocessableEntity, "Invalid order number")
		return
	}

	resp, err := h.purchaseService.RegisterPurchase(r.Context(), userID, req.Order, req.Points)
	if err != nil {
		switch {
		case errors.Is(err, purchaseservice.ErrPurchaseAlreadyExistsByUser):
			utils.RespondWithError(w, http.StatusOK, err.Error())
		case errors.Is(err, purchaseservice.ErrPurchaseAlreadyExists):
			utils.RespondWithError(w, http.StatusConflict, err.Error())
		case errors.Is(err, purchaseservice.ErrInvalidPoints):
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		default:
			utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}
	utils.RespondWithJSON(w, http.StatusAccepted, resp)
}
