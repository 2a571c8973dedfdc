package ledgerservice

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"

	"github.com/GlebRadaev/pointsbank/internal/domain"
)

func NewMock(t *testing.T) (*Service, *MockLedgerRepo, *MockTXManager, *MockNotifier) {
	ctrl := gomock.NewController(t)
	ledgerRepo := NewMockLedgerRepo(ctrl)
	txManager := NewMockTXManager(ctrl)
	notifier := NewMockNotifier(ctrl)
	service := New(ledgerRepo, txManager, notifier)
	defer ctrl.Finish()
	return service, ledgerRepo, txManager, notifier
}

func passThroughTx(txManager *MockTXManager) {
	txManager.EXPECT().Begin(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(ctx context.Context) error) error {
			return fn(ctx)
		},
	)
}

func dec(v string) decimal.Decimal {
	d, _ := decimal.NewFromString(v)
	return d
}

func TestAddPoints(t *testing.T) {
	tests := []struct {
		name          string
		amount        decimal.Decimal
		description   string
		kind          domain.BalanceKind
		prepareMock   func(repo *MockLedgerRepo, tx *MockTXManager, notifier *MockNotifier)
		expectedTotal decimal.Decimal
		expectedError error
	}{
		{
			name:        "Credit free balance",
			amount:      dec("100"),
			description: "bonus",
			kind:        domain.BalanceKindFree,
			prepareMock: func(repo *MockLedgerRepo, tx *MockTXManager, notifier *MockNotifier) {
				passThroughTx(tx)
				repo.EXPECT().LockBalance(gomock.Any(), 1).Return(&domain.Balance{
					UserID: 1, Free: dec("50"), Permanent: dec("30"),
				}, nil)
				repo.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, trx *domain.Transaction) (*domain.Transaction, error) {
						assert.True(t, trx.Amount.Equal(dec("100")))
						assert.True(t, trx.FreeAfter.Equal(dec("150")))
						assert.True(t, trx.PermanentAfter.Equal(dec("30")))
						assert.Equal(t, domain.BalanceKindFree, trx.Kind)
						trx.ID = 7
						return trx, nil
					},
				)
				repo.EXPECT().SaveBalance(gomock.Any(), gomock.Any()).Return(nil)
				notifier.EXPECT().Publish(gomock.Any(), gomock.Any())
			},
			expectedTotal: dec("180"),
		},
		{
			name:        "Negative amount is coerced to a credit",
			amount:      dec("-25"),
			description: "manual adjustment",
			kind:        domain.BalanceKindPermanent,
			prepareMock: func(repo *MockLedgerRepo, tx *MockTXManager, notifier *MockNotifier) {
				passThroughTx(tx)
				repo.EXPECT().LockBalance(gomock.Any(), 1).Return(&domain.Balance{
					UserID: 1, Free: dec("0"), Permanent: dec("10"),
				}, nil)
				repo.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, trx *domain.Transaction) (*domain.Transaction, error) {
						assert.True(t, trx.Amount.Equal(dec("25")))
						assert.True(t, trx.PermanentAfter.Equal(dec("35")))
						return trx, nil
					},
				)
				repo.EXPECT().SaveBalance(gomock.Any(), gomock.Any()).Return(nil)
				notifier.EXPECT().Publish(gomock.Any(), gomock.Any())
			},
			expectedTotal: dec("35"),
		},
		{
			name:          "Mixed kind rejected",
			amount:        dec("10"),
			description:   "bonus",
			kind:          domain.BalanceKindMixed,
			prepareMock:   func(repo *MockLedgerRepo, tx *MockTXManager, notifier *MockNotifier) {},
			expectedError: ErrInvalidBalanceKind,
		},
		{
			name:          "Unknown kind rejected",
			amount:        dec("10"),
			description:   "bonus",
			kind:          domain.BalanceKind("bogus"),
			prepareMock:   func(repo *MockLedgerRepo, tx *MockTXManager, notifier *MockNotifier) {},
			expectedError: ErrInvalidBalanceKind,
		},
		{
			name:          "Empty description rejected",
			amount:        dec("10"),
			description:   "",
			kind:          domain.BalanceKindFree,
			prepareMock:   func(repo *MockLedgerRepo, tx *MockTXManager, notifier *MockNotifier) {},
			expectedError: ErrInvalidDescription,
		},
		{
			name:          "Zero amount rejected",
			amount:        dec("0"),
			description:   "bonus",
			kind:          domain.BalanceKindFree,
			prepareMock:   func(repo *MockLedgerRepo, tx *MockTXManager, notifier *MockNotifier) {},
			expectedError: ErrInvalidAmount,
		},
		{
			name:        "Storage failure surfaces as ErrStorage",
			amount:      dec("10"),
			description: "bonus",
			kind:        domain.BalanceKindFree,
			prepareMock: func(repo *MockLedgerRepo, tx *MockTXManager, notifier *MockNotifier) {
				passThroughTx(tx)
				repo.EXPECT().LockBalance(gomock.Any(), 1).Return(nil, errors.New("connection refused"))
			},
			expectedError: ErrStorage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, repo, tx, notifier := NewMock(t)
			tt.prepareMock(repo, tx, notifier)

			total, err := service.AddPoints(context.Background(), 1, tt.amount, tt.description, "manual", tt.kind)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
				assert.True(t, total.Equal(tt.expectedTotal), "total %s != %s", total, tt.expectedTotal)
			}
		})
	}
}

func TestSubtractPoints(t *testing.T) {
	tests := []struct {
		name          string
		amount        decimal.Decimal
		free          decimal.Decimal
		permanent     decimal.Decimal
		expectedKind  domain.BalanceKind
		expectedFree  decimal.Decimal
		expectedPerm  decimal.Decimal
		expectedError error
	}{
		{
			name:         "Free balance covers the debit",
			amount:       dec("30"),
			free:         dec("50"),
			permanent:    dec("30"),
			expectedKind: domain.BalanceKindFree,
			expectedFree: dec("20"),
			expectedPerm: dec("30"),
		},
		{
			name:         "Debit spills into permanent and is tagged mixed",
			amount:       dec("60"),
			free:         dec("50"),
			permanent:    dec("30"),
			expectedKind: domain.BalanceKindMixed,
			expectedFree: dec("0"),
			expectedPerm: dec("20"),
		},
		{
			name:         "Exact drain of free only",
			amount:       dec("50"),
			free:         dec("50"),
			permanent:    dec("30"),
			expectedKind: domain.BalanceKindFree,
			expectedFree: dec("0"),
			expectedPerm: dec("30"),
		},
		{
			name:          "Insufficient total leaves balances untouched",
			amount:        dec("100"),
			free:          dec("50"),
			permanent:     dec("30"),
			expectedError: ErrInsufficientBalance,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, repo, tx, notifier := NewMock(t)
			passThroughTx(tx)
			repo.EXPECT().LockBalance(gomock.Any(), 1).Return(&domain.Balance{
				UserID: 1, Free: tt.free, Permanent: tt.permanent,
			}, nil)

			if tt.expectedError == nil {
				repo.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, trx *domain.Transaction) (*domain.Transaction, error) {
						assert.Equal(t, tt.expectedKind, trx.Kind)
						assert.True(t, trx.Amount.Equal(tt.amount.Neg()), "amount %s", trx.Amount)
						assert.True(t, trx.FreeAfter.Equal(tt.expectedFree))
						assert.True(t, trx.PermanentAfter.Equal(tt.expectedPerm))
						return trx, nil
					},
				)
				repo.EXPECT().SaveBalance(gomock.Any(), gomock.Cond(func(b *domain.Balance) bool {
					return b.UserID == 1 && b.Free.Equal(tt.expectedFree) && b.Permanent.Equal(tt.expectedPerm)
				})).Return(nil)
				notifier.EXPECT().Publish(gomock.Any(), gomock.Any())
			}

			total, err := service.SubtractPoints(context.Background(), 1, tt.amount, "spend", "usage")
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
				assert.True(t, total.Equal(tt.expectedFree.Add(tt.expectedPerm)))
			}
		})
	}
}

func TestSetBalance(t *testing.T) {
	tests := []struct {
		name           string
		newValue       decimal.Decimal
		kind           domain.BalanceKind
		free           decimal.Decimal
		permanent      decimal.Decimal
		expectedAmount decimal.Decimal
		expectedFree   decimal.Decimal
		expectedPerm   decimal.Decimal
		expectedError  error
	}{
		{
			name:           "Reset free records negative delta",
			newValue:       dec("10"),
			kind:           domain.BalanceKindFree,
			free:           dec("500"),
			permanent:      dec("30"),
			expectedAmount: dec("-490"),
			expectedFree:   dec("10"),
			expectedPerm:   dec("30"),
		},
		{
			name:           "Raise permanent records positive delta",
			newValue:       dec("80"),
			kind:           domain.BalanceKindPermanent,
			free:           dec("5"),
			permanent:      dec("30"),
			expectedAmount: dec("50"),
			expectedFree:   dec("5"),
			expectedPerm:   dec("80"),
		},
		{
			name:          "Negative target rejected",
			newValue:      dec("-1"),
			kind:          domain.BalanceKindFree,
			expectedError: ErrNegativeBalance,
		},
		{
			name:          "Mixed kind rejected",
			newValue:      dec("10"),
			kind:          domain.BalanceKindMixed,
			expectedError: ErrInvalidBalanceKind,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, repo, tx, notifier := NewMock(t)

			if tt.expectedError == nil {
				passThroughTx(tx)
				repo.EXPECT().LockBalance(gomock.Any(), 1).Return(&domain.Balance{
					UserID: 1, Free: tt.free, Permanent: tt.permanent,
				}, nil)
				repo.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, trx *domain.Transaction) (*domain.Transaction, error) {
						assert.True(t, trx.Amount.Equal(tt.expectedAmount), "amount %s", trx.Amount)
						assert.True(t, trx.FreeAfter.Equal(tt.expectedFree))
						assert.True(t, trx.PermanentAfter.Equal(tt.expectedPerm))
						assert.Equal(t, tt.kind, trx.Kind)
						return trx, nil
					},
				)
				repo.EXPECT().SaveBalance(gomock.Any(), gomock.Any()).Return(nil)
				notifier.EXPECT().Publish(gomock.Any(), gomock.Any())
			}

			total, err := service.SetBalance(context.Background(), 1, tt.newValue, "daily reset", "daily_reset", tt.kind)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
				assert.True(t, total.Equal(tt.expectedFree.Add(tt.expectedPerm)))
			}
		})
	}
}

func TestGetBalance(t *testing.T) {
	tests := []struct {
		name          string
		prepareMock   func(repo *MockLedgerRepo, tx *MockTXManager)
		expectedFree  decimal.Decimal
		expectedPerm  decimal.Decimal
		expectedError bool
	}{
		{
			name: "Cache hit",
			prepareMock: func(repo *MockLedgerRepo, tx *MockTXManager) {
				repo.EXPECT().GetBalance(gomock.Any(), 1).Return(&domain.Balance{
					UserID: 1, Free: dec("12"), Permanent: dec("3"),
				}, nil)
			},
			expectedFree: dec("12"),
			expectedPerm: dec("3"),
		},
		{
			name: "Cache miss rebuilds from latest log row under the row lock",
			prepareMock: func(repo *MockLedgerRepo, tx *MockTXManager) {
				repo.EXPECT().GetBalance(gomock.Any(), 1).Return(nil, nil)
				passThroughTx(tx)
				repo.EXPECT().LockBalance(gomock.Any(), 1).Return(&domain.Balance{
					UserID: 1, Free: decimal.Zero, Permanent: decimal.Zero,
				}, nil)
				repo.EXPECT().LatestTransaction(gomock.Any(), 1).Return(&domain.Transaction{
					ID: 42, UserID: 1, FreeAfter: dec("7"), PermanentAfter: dec("5"),
				}, nil)
				repo.EXPECT().SaveBalance(gomock.Any(), &domain.Balance{
					UserID: 1, Free: dec("7"), Permanent: dec("5"),
				}).Return(nil)
			},
			expectedFree: dec("7"),
			expectedPerm: dec("5"),
		},
		{
			name: "Cache miss races a write that locked first",
			prepareMock: func(repo *MockLedgerRepo, tx *MockTXManager) {
				repo.EXPECT().GetBalance(gomock.Any(), 1).Return(nil, nil)
				passThroughTx(tx)
				repo.EXPECT().LockBalance(gomock.Any(), 1).Return(&domain.Balance{
					UserID: 1, Free: dec("100"), Permanent: decimal.Zero,
				}, nil)
			},
			expectedFree: dec("100"),
			expectedPerm: decimal.Zero,
		},
		{
			name: "New user has zero balances",
			prepareMock: func(repo *MockLedgerRepo, tx *MockTXManager) {
				repo.EXPECT().GetBalance(gomock.Any(), 1).Return(nil, nil)
				passThroughTx(tx)
				repo.EXPECT().LockBalance(gomock.Any(), 1).Return(&domain.Balance{
					UserID: 1, Free: decimal.Zero, Permanent: decimal.Zero,
				}, nil)
				repo.EXPECT().LatestTransaction(gomock.Any(), 1).Return(nil, nil)
			},
			expectedFree: decimal.Zero,
			expectedPerm: decimal.Zero,
		},
		{
			name: "Storage error",
			prepareMock: func(repo *MockLedgerRepo, tx *MockTXManager) {
				repo.EXPECT().GetBalance(gomock.Any(), 1).Return(nil, errors.New("db down"))
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, repo, tx, _ := NewMock(t)
			tt.prepareMock(repo, tx)

			balance, err := service.GetBalance(context.Background(), 1)
			if tt.expectedError {
				assert.ErrorIs(t, err, ErrStorage)
				return
			}
			assert.NoError(t, err)
			assert.True(t, balance.Free.Equal(tt.expectedFree))
			assert.True(t, balance.Permanent.Equal(tt.expectedPerm))
		})
	}
}

func TestGetTotalBalance(t *testing.T) {
	service, repo, _, _ := NewMock(t)
	repo.EXPECT().GetBalance(gomock.Any(), 1).Return(&domain.Balance{
		UserID: 1, Free: dec("2.5"), Permanent: dec("7.5"),
	}, nil).Times(2)

	total, err := service.GetTotalBalance(context.Background(), 1)
	assert.NoError(t, err)
	assert.True(t, total.Equal(dec("10")))
}

func TestGetHistory(t *testing.T) {
	service, repo, _, _ := NewMock(t)
	expected := []domain.Transaction{
		{ID: 3, UserID: 1, Amount: dec("-5")},
		{ID: 2, UserID: 1, Amount: dec("10")},
	}
	repo.EXPECT().GetTransactions(gomock.Any(), 1, 10, 0).Return(expected, nil)

	trxs, err := service.GetHistory(context.Background(), 1, 10, 0)
	assert.NoError(t, err)
	assert.Equal(t, expected, trxs)
}

func TestBulkAdjust(t *testing.T) {
	service, repo, tx, notifier := NewMock(t)

	// user 2 fails with a storage error, users 1 and 3 succeed
	tx.EXPECT().Begin(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(ctx context.Context) error) error {
			return fn(ctx)
		},
	).Times(3)
	for _, userID := range []int{1, 2, 3} {
		userID := userID
		if userID == 2 {
			repo.EXPECT().LockBalance(gomock.Any(), 2).Return(nil, errors.New("db down"))
			continue
		}
		repo.EXPECT().LockBalance(gomock.Any(), userID).Return(&domain.Balance{
			UserID: userID, Free: dec("1"), Permanent: dec("0"),
		}, nil)
		repo.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, trx *domain.Transaction) (*domain.Transaction, error) {
				return trx, nil
			},
		)
		repo.EXPECT().SaveBalance(gomock.Any(), gomock.Any()).Return(nil)
	}
	notifier.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(2)

	succeeded, failed, err := service.BulkAdjust(
		context.Background(), []int{1, 2, 3}, BulkOpAdd,
		dec("5"), "season bonus", "bulk-update", domain.BalanceKindFree,
	)
	assert.NoError(t, err)
	assert.Equal(t, 2, succeeded)
	assert.Equal(t, 1, failed)
}

func TestBulkAdjustUnknownOp(t *testing.T) {
	service, _, _, _ := NewMock(t)
	_, _, err := service.BulkAdjust(
		context.Background(), []int{1}, BulkOp("divide"),
		dec("5"), "x", "bulk-update", domain.BalanceKindFree,
	)
	assert.ErrorIs(t, err, ErrInvalidOperation)
}
