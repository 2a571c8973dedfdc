package ledgerrepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/GlebRadaev/pointsbank/internal/domain"
	"github.com/GlebRadaev/pointsbank/internal/pg"
	"go.uber.org/zap"
)

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetBalance(ctx context.Context, userID int) (*domain.Balance, error) {
	query := `
        SELECT user_id, free_balance, permanent_balance
        FROM point_balances
        WHERE user_id = $1
    `
	row := r.db.QueryRow(ctx, query, userID)
	var balance domain.Balance
	err := row.Scan(&balance.UserID, &balance.Free, &balance.Permanent)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("failed to get balance", zap.Error(err))
		return nil, err
	}
	return &balance, nil
}

// LockBalance takes a row lock on the user's balance cache row for the rest of
// the surrounding transaction, creating the row first if the user has none.
// Must be called inside TXManager.Begin.
func (r *Repository) LockBalance(ctx context.Context, userID int) (*domain.Balance, error) {
	insert := `
        INSERT INTO point_balances (user_id, free_balance, permanent_balance)
        VALUES ($1, 0, 0)
        ON CONFLICT (user_id) DO NOTHING
    `
	if _, err := r.db.Exec(ctx, insert, userID); err != nil {
		zap.L().Error("failed to init balance row", zap.Error(err))
		return nil, err
	}

	query := `
        SELECT user_id, free_balance, permanent_balance
        FROM point_balances
        WHERE user_id = $1
        FOR UPDATE
    `
	row := r.db.QueryRow(ctx, query, userID)
	var balance domain.Balance
	err := row.Scan(&balance.UserID, &balance.Free, &balance.Permanent)
	if err != nil {
		zap.L().Error("failed to lock balance", zap.Error(err))
		return nil, err
	}
	return &balance, nil
}

func (r *Repository) SaveBalance(ctx context.Context, balance *domain.Balance) error {
	query := `
        INSERT INTO point_balances (user_id, free_balance, permanent_balance)
        VALUES ($1, $2, $3)
        ON CONFLICT (user_id) DO UPDATE
        SET free_balance = EXCLUDED.free_balance, permanent_balance = EXCLUDED.permanent_balance
    `
	_, err := r.db.Exec(ctx, query, balance.UserID, balance.Free, balance.Permanent)
	if err != nil {
		zap.L().Error("failed to save balance", zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) CreateTransaction(ctx context.Context, trx *domain.Transaction) (*domain.Transaction, error) {
	query := `
        INSERT INTO point_transactions
            (user_id, amount, free_balance_after, permanent_balance_after, balance_kind, description, category)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at
    `
	err := r.db.QueryRow(ctx, query,
		trx.UserID, trx.Amount, trx.FreeAfter, trx.PermanentAfter,
		string(trx.Kind), trx.Description, trx.Category,
	).Scan(&trx.ID, &trx.CreatedAt)
	if err != nil {
		zap.L().Error("failed to create transaction", zap.Error(err))
		return nil, err
	}
	return trx, nil
}

// LatestTransaction returns the newest ledger row for the user, nil when the
// user has no history. Used to rebuild a missing balance cache row.
func (r *Repository) LatestTransaction(ctx context.Context, userID int) (*domain.Transaction, error) {
	query := `
        SELECT id, user_id, amount, free_balance_after, permanent_balance_after,
               balance_kind, description, category, created_at
        FROM point_transactions
        WHERE user_id = $1
        ORDER BY id DESC
        LIMIT 1
    `
	row := r.db.QueryRow(ctx, query, userID)
	trx, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("failed to get latest transaction", zap.Error(err))
		return nil, err
	}
	return trx, nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var trx domain.Transaction
	var kind string
	err := row.Scan(&trx.ID, &trx.UserID, &trx.Amount, &trx.FreeAfter, &trx.PermanentAfter,
		&kind, &trx.Description, &trx.Category, &trx.CreatedAt)
	if err != nil {
		return nil, err
	}
	trx.Kind = domain.BalanceKind(kind)
	return &trx, nil
}

func (r *Repository) GetTransactions(ctx context.Context, userID int, limit, offset int) ([]domain.Transaction, error) {
	query := `
        SELECT id, user_id, amount, free_balance_after, permanent_balance_after,
               balance_kind, description, category, created_at
        FROM point_transactions
        WHERE user_id = $1
        ORDER BY id DESC
        LIMIT $2 OFFSET $3
    `
	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		zap.L().Error("failed to fetch transactions", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var trxs []domain.Transaction
	for rows.Next() {
		trx, err := scanTransaction(rows)
		if err != nil {
			zap.L().Error("failed to scan transaction row", zap.Error(err))
			return nil, err
		}
		trxs = append(trxs, *trx)
	}
	return trxs, nil
}
