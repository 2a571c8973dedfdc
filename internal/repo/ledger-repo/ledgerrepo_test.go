package ledgerrepo

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/GlebRadaev/pointsbank/internal/domain"
)

func NewMock(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	mockDB, err := pgxmock.NewPool()
	assert.NoError(t, err)
	repo := New(mockDB)
	defer mockDB.Close()

	return repo, mockDB
}

func dec(v string) decimal.Decimal {
	d, _ := decimal.NewFromString(v)
	return d
}

func TestRepository_GetBalance(t *testing.T) {
	repo, mock := NewMock(t)

	query := regexp.QuoteMeta(`SELECT user_id, free_balance, permanent_balance FROM point_balances WHERE user_id = $1`)

	tests := []struct {
		name      string
		userID    int
		mockSetup func()
		expectErr bool
		result    *domain.Balance
	}{
		{
			name:   "Existing user returns cached balance",
			userID: 1,
			mockSetup: func() {
				rows := pgxmock.NewRows([]string{"user_id", "free_balance", "permanent_balance"}).
					AddRow(1, dec("100"), dec("50"))
				mock.ExpectQuery(query).WithArgs(1).WillReturnRows(rows)
			},
			result: &domain.Balance{UserID: 1, Free: dec("100"), Permanent: dec("50")},
		},
		{
			name:   "Missing cache row returns nil",
			userID: 99,
			mockSetup: func() {
				mock.ExpectQuery(query).WithArgs(99).WillReturnError(pgx.ErrNoRows)
			},
			result: nil,
		},
		{
			name:   "Database error",
			userID: 1,
			mockSetup: func() {
				mock.ExpectQuery(query).WithArgs(1).WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			result, err := repo.GetBalance(context.Background(), tt.userID)

			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.result, result)
		})
	}
}

func TestRepository_LockBalance(t *testing.T) {
	repo, mock := NewMock(t)

	insert := regexp.QuoteMeta(`INSERT INTO point_balances (user_id, free_balance, permanent_balance) VALUES ($1, 0, 0) ON CONFLICT (user_id) DO NOTHING`)
	query := regexp.QuoteMeta(`SELECT user_id, free_balance, permanent_balance FROM point_balances WHERE user_id = $1 FOR UPDATE`)

	tests := []struct {
		name      string
		mockSetup func()
		expectErr bool
		result    *domain.Balance
	}{
		{
			name: "Locks and returns the row",
			mockSetup: func() {
				mock.ExpectExec(insert).WithArgs(1).WillReturnResult(pgxmock.NewResult("INSERT", 0))
				rows := pgxmock.NewRows([]string{"user_id", "free_balance", "permanent_balance"}).
					AddRow(1, dec("10"), dec("0"))
				mock.ExpectQuery(query).WithArgs(1).WillReturnRows(rows)
			},
			result: &domain.Balance{UserID: 1, Free: dec("10"), Permanent: dec("0")},
		},
		{
			name: "Init insert fails",
			mockSetup: func() {
				mock.ExpectExec(insert).WithArgs(1).WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
		{
			name: "Select for update fails",
			mockSetup: func() {
				mock.ExpectExec(insert).WithArgs(1).WillReturnResult(pgxmock.NewResult("INSERT", 1))
				mock.ExpectQuery(query).WithArgs(1).WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			result, err := repo.LockBalance(context.Background(), 1)

			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.result, result)
		})
	}
}

func TestRepository_SaveBalance(t *testing.T) {
	repo, mock := NewMock(t)

	query := regexp.QuoteMeta(`INSERT INTO point_balances (user_id, free_balance, permanent_balance) VALUES ($1, $2, $3) ON CONFLICT (user_id) DO UPDATE SET free_balance = EXCLUDED.free_balance, permanent_balance = EXCLUDED.permanent_balance`)

	t.Run("Upserts the cache row", func(t *testing.T) {
		mock.ExpectExec(query).WithArgs(1, dec("5"), dec("7")).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err := repo.SaveBalance(context.Background(), &domain.Balance{UserID: 1, Free: dec("5"), Permanent: dec("7")})
		assert.NoError(t, err)
	})

	t.Run("Database error", func(t *testing.T) {
		mock.ExpectExec(query).WithArgs(1, dec("5"), dec("7")).
			WillReturnError(errors.New("database error"))

		err := repo.SaveBalance(context.Background(), &domain.Balance{UserID: 1, Free: dec("5"), Permanent: dec("7")})
		assert.Error(t, err)
	})
}

func TestRepository_CreateTransaction(t *testing.T) {
	repo, mock := NewMock(t)

	query := regexp.QuoteMeta(`INSERT INTO point_transactions (user_id, amount, free_balance_after, permanent_balance_after, balance_kind, description, category) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at`)

	now := time.Now()

	t.Run("Inserts and returns id", func(t *testing.T) {
		rows := pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(12), now)
		mock.ExpectQuery(query).
			WithArgs(1, dec("-60"), dec("0"), dec("20"), "mixed", "spend", "usage").
			WillReturnRows(rows)

		trx, err := repo.CreateTransaction(context.Background(), &domain.Transaction{
			UserID:         1,
			Amount:         dec("-60"),
			FreeAfter:      dec("0"),
			PermanentAfter: dec("20"),
			Kind:           domain.BalanceKindMixed,
			Description:    "spend",
			Category:       "usage",
		})
		assert.NoError(t, err)
		assert.Equal(t, int64(12), trx.ID)
		assert.Equal(t, now, trx.CreatedAt)
	})

	t.Run("Constraint violation", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(1, dec("-60"), dec("0"), dec("20"), "mixed", "spend", "usage").
			WillReturnError(errors.New("violates check constraint"))

		_, err := repo.CreateTransaction(context.Background(), &domain.Transaction{
			UserID:         1,
			Amount:         dec("-60"),
			FreeAfter:      dec("0"),
			PermanentAfter: dec("20"),
			Kind:           domain.BalanceKindMixed,
			Description:    "spend",
			Category:       "usage",
		})
		assert.Error(t, err)
	})
}

func TestRepository_LatestTransaction(t *testing.T) {
	repo, mock := NewMock(t)

	query := regexp.QuoteMeta(`SELECT id, user_id, amount, free_balance_after, permanent_balance_after, balance_kind, description, category, created_at FROM point_transactions WHERE user_id = $1 ORDER BY id DESC LIMIT 1`)

	now := time.Now()

	t.Run("Returns newest row", func(t *testing.T) {
		rows := pgxmock.NewRows([]string{
			"id", "user_id", "amount", "free_balance_after", "permanent_balance_after",
			"balance_kind", "description", "category", "created_at",
		}).AddRow(int64(3), 1, dec("100"), dec("100"), dec("0"), "free", "bonus", "manual", now)
		mock.ExpectQuery(query).WithArgs(1).WillReturnRows(rows)

		trx, err := repo.LatestTransaction(context.Background(), 1)
		assert.NoError(t, err)
		assert.Equal(t, int64(3), trx.ID)
		assert.Equal(t, domain.BalanceKindFree, trx.Kind)
		assert.True(t, trx.FreeAfter.Equal(dec("100")))
	})

	t.Run("No history returns nil", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(1).WillReturnError(pgx.ErrNoRows)

		trx, err := repo.LatestTransaction(context.Background(), 1)
		assert.NoError(t, err)
		assert.Nil(t, trx)
	})
}

func TestRepository_GetTransactions(t *testing.T) {
	repo, mock := NewMock(t)

	query := regexp.QuoteMeta(`SELECT id, user_id, amount, free_balance_after, permanent_balance_after, balance_kind, description, category, created_at FROM point_transactions WHERE user_id = $1 ORDER BY id DESC LIMIT $2 OFFSET $3`)

	now := time.Now()

	t.Run("Returns page most recent first", func(t *testing.T) {
		rows := pgxmock.NewRows([]string{
			"id", "user_id", "amount", "free_balance_after", "permanent_balance_after",
			"balance_kind", "description", "category", "created_at",
		}).
			AddRow(int64(5), 1, dec("-10"), dec("0"), dec("40"), "mixed", "spend", "usage", now).
			AddRow(int64(4), 1, dec("50"), dec("10"), dec("40"), "permanent", "bonus", "purchase", now)
		mock.ExpectQuery(query).WithArgs(1, 10, 0).WillReturnRows(rows)

		trxs, err := repo.GetTransactions(context.Background(), 1, 10, 0)
		assert.NoError(t, err)
		assert.Len(t, trxs, 2)
		assert.Equal(t, int64(5), trxs[0].ID)
		assert.Equal(t, domain.BalanceKindMixed, trxs[0].Kind)
		assert.Equal(t, int64(4), trxs[1].ID)
	})

	t.Run("Query error", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(1, 10, 0).WillReturnError(errors.New("database error"))

		trxs, err := repo.GetTransactions(context.Background(), 1, 10, 0)
		assert.Error(t, err)
		assert.Nil(t, trxs)
	})
}
