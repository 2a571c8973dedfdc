package service

import (
	"github.com/shopspring/decimal"

	"github.com/GlebRadaev/pointsbank/internal/config"
	"github.com/GlebRadaev/pointsbank/internal/events"
	"github.com/GlebRadaev/pointsbank/internal/handlers/auth"
	"github.com/GlebRadaev/pointsbank/internal/pg"
	"github.com/GlebRadaev/pointsbank/internal/purchase"
	"github.com/GlebRadaev/pointsbank/internal/repo"
	authservice "github.com/GlebRadaev/pointsbank/internal/service/authservice"
	ledgerservice "github.com/GlebRadaev/pointsbank/internal/service/ledgerservice"
	pkgauth "github.com/GlebRadaev/pointsbank/pkg/auth"
	"github.com/GlebRadaev/pointsbank/pkg/clients"
)

type Services struct {
	AuthService     auth.Service
	LedgerService   *ledgerservice.Service
	PurchaseService *purchase.Service
}

func New(cfg *config.Config, repo *repo.Repositories, txManager pg.TXManager, notifier *events.Notifier) *Services {
	ledgerService := ledgerservice.New(repo.LedgerRepo, txManager, notifier)
	purchaseService := purchase.New(cfg, repo.PurchaseRepo, ledgerService, txManager, clients.NewHTTPClient())
	authService := authservice.New(repo.UserRepo, ledgerService,
		&pkgauth.HashService{}, &pkgauth.JWTService{}, decimal.NewFromFloat(cfg.RegistrationBonus))

	return &Services{
		AuthService:     authService,
		LedgerService:   ledgerService,
		PurchaseService: purchaseService,
	}
}
