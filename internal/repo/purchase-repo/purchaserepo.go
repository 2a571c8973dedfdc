package purchaserepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/GlebRadaev/pointsbank/internal/domain"
	"github.com/GlebRadaev/pointsbank/internal/pg"
	"go.uber.org/zap"
)

type Repository struct {
	db        pg.Database
	txManager pg.TXManager
}

func New(db pg.Database, txManager pg.TXManager) *Repository {
	return &Repository{
		db:        db,
		txManager: txManager,
	}
}

func (r *Repository) FindByOrderNumber(ctx context.Context, orderNumber string) (*domain.Purchase, error) {
	query := `
        SELECT id, user_id, order_number, points, status, created_at
        FROM purchases
        WHERE order_number = $1
    `
	row := r.db.QueryRow(ctx, query, orderNumber)

	var purchase domain.Purchase
	err := row.Scan(&purchase.ID, &purchase.UserID, &purchase.OrderNumber, &purchase.Points, &purchase.Status, &purchase.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		zap.L().Error("can't find purchase", zap.Error(err))
		return nil, err
	}
	return &purchase, nil
}

func (r *Repository) Save(ctx context.Context, purchase *domain.Purchase) error {
	query := `
        INSERT INTO purchases (user_id, order_number, points, status)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at
    `
	err := r.txManager.Begin(ctx, func(ctx context.Context) error {
		err := r.db.QueryRow(ctx, query, purchase.UserID, purchase.OrderNumber, purchase.Points, purchase.Status).
			Scan(&purchase.ID, &purchase.CreatedAt)
		if err != nil {
			zap.L().Error("can't save purchase", zap.Error(err))
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}
	return nil
}

func (r *Repository) UpdateStatus(ctx context.Context, purchaseID int, status string) error {
	query := `
        UPDATE purchases
        SET status = $1
        WHERE id = $2
    `
	err := r.txManager.Begin(ctx, func(ctx context.Context) error {
		_, err := r.db.Exec(ctx, query, status, purchaseID)
		if err != nil {
			zap.L().Error("failed to update purchase status", zap.Error(err))
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}
	return nil
}

func (r *Repository) FindForProcessing(ctx context.Context, limit uint32) ([]domain.Purchase, error) {
	query := `
        SELECT id, user_id, order_number, points, status, created_at
        FROM purchases
        WHERE status = 'NEW' OR status = 'PROCESSING'
        ORDER BY created_at ASC
        LIMIT $1
    `
	rows, err := r.db.Query(ctx, query, int(limit))
	if err != nil {
		zap.L().Error("can't get purchases for processing", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var purchases []domain.Purchase
	for rows.Next() {
		var purchase domain.Purchase
		err := rows.Scan(&purchase.ID, &purchase.UserID, &purchase.OrderNumber, &purchase.Points, &purchase.Status, &purchase.CreatedAt)
		if err != nil {
			zap.L().Error("can't scan purchase row", zap.Error(err))
			return nil, err
		}
		purchases = append(purchases, purchase)
	}
	return purchases, nil
}
