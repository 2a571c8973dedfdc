package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/GlebRadaev/pointsbank/docs"
	adminhandlers "github.com/GlebRadaev/pointsbank/internal/handlers/admin"
	authhandlers "github.com/GlebRadaev/pointsbank/internal/handlers/auth"
	balancehandlers "github.com/GlebRadaev/pointsbank/internal/handlers/balance"
	purchasehandlers "github.com/GlebRadaev/pointsbank/internal/handlers/purchase"
	"github.com/GlebRadaev/pointsbank/internal/service"
	"github.com/GlebRadaev/pointsbank/pkg/auth"
)

type AuthHandler interface {
	Register(w http.ResponseWriter, r *http.Request)
	Login(w http.ResponseWriter, r *http.Request)
}

type BalanceHandler interface {
	GetBalance(w http.ResponseWriter, r *http.Request)
	Spend(w http.ResponseWriter, r *http.Request)
	GetHistory(w http.ResponseWriter, r *http.Request)
}

type PurchaseHandler interface {
	AddPurchase(w http.ResponseWriter, r *http.Request)
}

type AdminHandler interface {
	AddPoints(w http.ResponseWriter, r *http.Request)
	SubtractPoints(w http.ResponseWriter, r *http.Request)
	SetBalance(w http.ResponseWriter, r *http.Request)
	BulkUpdate(w http.ResponseWriter, r *http.Request)
}

type Handlers struct {
	AuthHandler     AuthHandler
	BalanceHandler  BalanceHandler
	PurchaseHandler PurchaseHandler
	AdminHandler    AdminHandler
	adminToken      string
}

func New(s *service.Services, adminToken string) *Handlers {
	return &Handlers{
		AuthHandler:     authhandlers.New(s.AuthService),
		BalanceHandler:  balancehandlers.New(s.LedgerService),
		PurchaseHandler: purchasehandlers.New(s.PurchaseService),
		AdminHandler:    adminhandlers.New(s.LedgerService),
		adminToken:      adminToken,
	}
}

func (h *Handlers) InitRoutes(r chi.Router) chi.Router {
	r.Use(
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
	)
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("doc.json"),
	))
	r.Route("/api/user", func(r chi.Router) {
		r.Post("/register", h.AuthHandler.Register)
		r.Post("/login", h.AuthHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(auth.AuthMiddleware)
			r.Route("/balance", func(r chi.Router) {
				r.Get("/", h.BalanceHandler.GetBalance)
				r.Get("/history", h.BalanceHandler.GetHistory)
				r.Post("/spend", h.BalanceHandler.Spend)
			})
			r.Post("/purchase", h.PurchaseHandler.AddPurchase)
		})
	})
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(auth.AdminMiddleware(h.adminToken))
		r.Route("/points", func(r chi.Router) {
			r.Post("/add", h.AdminHandler.AddPoints)
			r.Post("/subtract", h.AdminHandler.SubtractPoints)
			r.Post("/set", h.AdminHandler.SetBalance)
			r.Post("/bulk", h.AdminHandler.BulkUpdate)
		})
	})

	return r
}
