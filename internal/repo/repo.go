package repo

import (
	"github.com/GlebRadaev/pointsbank/internal/pg"
	"github.com/GlebRadaev/pointsbank/internal/purchase"
	ledgerrepo "github.com/GlebRadaev/pointsbank/internal/repo/ledger-repo"
	purchaserepo "github.com/GlebRadaev/pointsbank/internal/repo/purchase-repo"
	userrepo "github.com/GlebRadaev/pointsbank/internal/repo/user-repo"
	"github.com/GlebRadaev/pointsbank/internal/service/authservice"
	"github.com/GlebRadaev/pointsbank/internal/service/ledgerservice"
)

type Repositories struct {
	UserRepo     authservice.Repo
	LedgerRepo   ledgerservice.LedgerRepo
	PurchaseRepo purchase.Repo
}

func New(conn pg.Database, txManager pg.TXManager) *Repositories {
	userRepo := userrepo.New(conn)
	ledgerRepo := ledgerrepo.New(conn)
	purchaseRepo := purchaserepo.New(conn, txManager)

	return &Repositories{
		UserRepo:     userRepo,
		LedgerRepo:   ledgerRepo,
		PurchaseRepo: purchaseRepo,
	}
}
