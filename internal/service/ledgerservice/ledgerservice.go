package ledgerservice

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/GlebRadaev/pointsbank/internal/domain"
	"github.com/GlebRadaev/pointsbank/internal/events"
)

const (
	maxDescriptionLen = 255
	maxCategoryLen    = 64

	bulkConcurrency = 10
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidBalanceKind  = errors.New("invalid balance kind")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidOperation    = errors.New("invalid operation")
	ErrNegativeBalance     = errors.New("balance cannot be negative")
	ErrInvalidDescription  = errors.New("invalid description")
	// ErrStorage wraps every failure coming from the store so callers can tell
	// systemic faults from business outcomes like ErrInsufficientBalance.
	ErrStorage = errors.New("storage error")
)

type LedgerRepo interface {
	GetBalance(ctx context.Context, userID int) (*domain.Balance, error)
	LockBalance(ctx context.Context, userID int) (*domain.Balance, error)
	SaveBalance(ctx context.Context, balance *domain.Balance) error
	CreateTransaction(ctx context.Context, trx *domain.Transaction) (*domain.Transaction, error)
	LatestTransaction(ctx context.Context, userID int) (*domain.Transaction, error)
	GetTransactions(ctx context.Context, userID int, limit, offset int) ([]domain.Transaction, error)
}

type TXManager interface {
	Begin(ctx context.Context, fn func(ctx context.Context) error) error
}

type Notifier interface {
	Publish(ctx context.Context, event events.BalanceChanged)
}

// Service owns the dual-balance points ledger. All mutations for one user are
// serialized by a row lock on that user's balance row, held for the whole
// read-compute-insert-update unit, so concurrent callers can never lose an
// update or drive a balance negative.
type Service struct {
	ledgerRepo LedgerRepo
	txManager  TXManager
	notifier   Notifier
}

func New(ledgerRepo LedgerRepo, txManager TXManager, notifier Notifier) *Service {
	return &Service{
		ledgerRepo: ledgerRepo,
		txManager:  txManager,
		notifier:   notifier,
	}
}

func (s *Service) GetBalance(ctx context.Context, userID int) (*domain.Balance, error) {
	balance, err := s.ledgerRepo.GetBalance(ctx, userID)
	if err != nil {
		zap.L().Error("failed to get balance", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if balance != nil {
		return balance, nil
	}
	return s.rebuildBalance(ctx, userID)
}

// rebuildBalance recomputes a missing cache row from the newest ledger entry.
// The log is the source of truth; the cache row is only a memoized copy of it.
// The rebuild holds the same row lock as the write path, so a racing write
// either lands its snapshot before the lock read (and wins) or waits behind
// the rebuild; a stale snapshot can never overwrite a newer committed one.
func (s *Service) rebuildBalance(ctx context.Context, userID int) (*domain.Balance, error) {
	balance := &domain.Balance{
		UserID:    userID,
		Free:      decimal.Zero,
		Permanent: decimal.Zero,
	}
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		locked, err := s.ledgerRepo.LockBalance(ctx, userID)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStorage, err)
		}
		balance.Free, balance.Permanent = locked.Free, locked.Permanent

		// A concurrent write got here first; its snapshot is the answer.
		if !balance.Free.IsZero() || !balance.Permanent.IsZero() {
			return nil
		}

		latest, err := s.ledgerRepo.LatestTransaction(ctx, userID)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStorage, err)
		}
		if latest == nil {
			return nil
		}
		balance.Free = latest.FreeAfter
		balance.Permanent = latest.PermanentAfter

		if err := s.ledgerRepo.SaveBalance(ctx, balance); err != nil {
			return fmt.Errorf("%w: %v", ErrStorage, err)
		}
		return nil
	})
	if err != nil {
		zap.L().Error("failed to rebuild balance cache", zap.Int("userID", userID), zap.Error(err))
		return nil, err
	}
	return balance, nil
}

func (s *Service) GetFreeBalance(ctx context.Context, userID int) (decimal.Decimal, error) {
	balance, err := s.GetBalance(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return balance.Free, nil
}

func (s *Service) GetPermanentBalance(ctx context.Context, userID int) (decimal.Decimal, error) {
	balance, err := s.GetBalance(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return balance.Permanent, nil
}

func (s *Service) GetTotalBalance(ctx context.Context, userID int) (decimal.Decimal, error) {
	free, err := s.GetFreeBalance(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	permanent, err := s.GetPermanentBalance(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return free.Add(permanent), nil
}

func (s *Service) GetHistory(ctx context.Context, userID int, limit, offset int) ([]domain.Transaction, error) {
	trxs, err := s.ledgerRepo.GetTransactions(ctx, userID, limit, offset)
	if err != nil {
		zap.L().Error("failed to fetch history", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return trxs, nil
}

// AddPoints credits the chosen balance. The amount's sign is ignored; an add
// is always a credit. Returns the resulting total balance.
func (s *Service) AddPoints(ctx context.Context, userID int, amount decimal.Decimal, description, category string, kind domain.BalanceKind) (decimal.Decimal, error) {
	if !kind.IsCreditable() {
		return decimal.Zero, ErrInvalidBalanceKind
	}
	if err := validateNote(description, category); err != nil {
		return decimal.Zero, err
	}
	amount = amount.Abs()
	if amount.IsZero() {
		return decimal.Zero, ErrInvalidAmount
	}

	return s.apply(ctx, userID, category, func(free, permanent decimal.Decimal) (*domain.Transaction, error) {
		trx := &domain.Transaction{
			UserID:      userID,
			Amount:      amount,
			Kind:        kind,
			Description: description,
			Category:    category,
		}
		if kind == domain.BalanceKindFree {
			trx.FreeAfter = free.Add(amount)
			trx.PermanentAfter = permanent
		} else {
			trx.FreeAfter = free
			trx.PermanentAfter = permanent.Add(amount)
		}
		return trx, nil
	})
}

// SubtractPoints debits the user, draining the free balance first and
// spilling into the permanent one. A spill is recorded as a single row tagged
// mixed. Fails with ErrInsufficientBalance when free+permanent cannot cover
// the amount, leaving both balances untouched.
func (s *Service) SubtractPoints(ctx context.Context, userID int, amount decimal.Decimal, description, category string) (decimal.Decimal, error) {
	if err := validateNote(description, category); err != nil {
		return decimal.Zero, err
	}
	amount = amount.Abs()
	if amount.IsZero() {
		return decimal.Zero, ErrInvalidAmount
	}

	return s.apply(ctx, userID, category, func(free, permanent decimal.Decimal) (*domain.Transaction, error) {
		if free.Add(permanent).LessThan(amount) {
			return nil, ErrInsufficientBalance
		}
		trx := &domain.Transaction{
			UserID:      userID,
			Amount:      amount.Neg(),
			Description: description,
			Category:    category,
		}
		if free.GreaterThanOrEqual(amount) {
			trx.Kind = domain.BalanceKindFree
			trx.FreeAfter = free.Sub(amount)
			trx.PermanentAfter = permanent
		} else {
			trx.Kind = domain.BalanceKindMixed
			trx.FreeAfter = decimal.Zero
			trx.PermanentAfter = permanent.Sub(amount.Sub(free))
		}
		return trx, nil
	})
}

// SetBalance forces the chosen balance to exactly newValue and records the
// signed delta as the transaction amount. Used for administrative and
// periodic resets.
func (s *Service) SetBalance(ctx context.Context, userID int, newValue decimal.Decimal, description, category string, kind domain.BalanceKind) (decimal.Decimal, error) {
	if !kind.IsCreditable() {
		return decimal.Zero, ErrInvalidBalanceKind
	}
	if newValue.IsNegative() {
		return decimal.Zero, ErrNegativeBalance
	}
	if err := validateNote(description, category); err != nil {
		return decimal.Zero, err
	}

	return s.apply(ctx, userID, category, func(free, permanent decimal.Decimal) (*domain.Transaction, error) {
		trx := &domain.Transaction{
			UserID:      userID,
			Kind:        kind,
			Description: description,
			Category:    category,
		}
		if kind == domain.BalanceKindFree {
			trx.Amount = newValue.Sub(free)
			trx.FreeAfter = newValue
			trx.PermanentAfter = permanent
		} else {
			trx.Amount = newValue.Sub(permanent)
			trx.FreeAfter = free
			trx.PermanentAfter = newValue
		}
		return trx, nil
	})
}

// apply runs one read-compute-insert-update unit under the user's row lock
// and publishes the change after the commit.
func (s *Service) apply(ctx context.Context, userID int, category string, compute func(free, permanent decimal.Decimal) (*domain.Transaction, error)) (decimal.Decimal, error) {
	var trx *domain.Transaction

	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		balance, err := s.ledgerRepo.LockBalance(ctx, userID)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStorage, err)
		}
		free, permanent := balance.Free, balance.Permanent

		// A fresh lock row with history behind it means the cache was lost;
		// reseed it from the log before computing.
		if free.IsZero() && permanent.IsZero() {
			latest, err := s.ledgerRepo.LatestTransaction(ctx, userID)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrStorage, err)
			}
			if latest != nil {
				free, permanent = latest.FreeAfter, latest.PermanentAfter
			}
		}

		trx, err = compute(free, permanent)
		if err != nil {
			return err
		}

		if _, err := s.ledgerRepo.CreateTransaction(ctx, trx); err != nil {
			return fmt.Errorf("%w: %v", ErrStorage, err)
		}
		if err := s.ledgerRepo.SaveBalance(ctx, &domain.Balance{
			UserID:    userID,
			Free:      trx.FreeAfter,
			Permanent: trx.PermanentAfter,
		}); err != nil {
			return fmt.Errorf("%w: %v", ErrStorage, err)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrInsufficientBalance) {
			zap.L().Error("ledger operation failed", zap.Int("userID", userID), zap.Error(err))
		}
		return decimal.Zero, err
	}

	s.notifier.Publish(ctx, events.BalanceChanged{
		UserID:     userID,
		Kind:       trx.Kind,
		Amount:     trx.Amount,
		Free:       trx.FreeAfter,
		Permanent:  trx.PermanentAfter,
		Category:   category,
		OccurredAt: time.Now(),
	})
	return trx.FreeAfter.Add(trx.PermanentAfter), nil
}

type BulkOp string

const (
	BulkOpAdd      BulkOp = "add"
	BulkOpSubtract BulkOp = "subtract"
	BulkOpSet      BulkOp = "set"
)

// BulkAdjust applies one operation to every listed user and reports how many
// succeeded and how many failed. Individual failures never abort the batch.
func (s *Service) BulkAdjust(ctx context.Context, userIDs []int, op BulkOp, amount decimal.Decimal, description, category string, kind domain.BalanceKind) (succeeded, failed int, err error) {
	switch op {
	case BulkOpAdd, BulkOpSubtract, BulkOpSet:
	default:
		return 0, 0, fmt.Errorf("%w: unknown bulk op %q", ErrInvalidOperation, op)
	}

	var ok, bad int64
	var g errgroup.Group
	g.SetLimit(bulkConcurrency)
	for _, userID := range userIDs {
		userID := userID
		g.Go(func() error {
			var opErr error
			switch op {
			case BulkOpAdd:
				_, opErr = s.AddPoints(ctx, userID, amount, description, category, kind)
			case BulkOpSubtract:
				_, opErr = s.SubtractPoints(ctx, userID, amount, description, category)
			case BulkOpSet:
				_, opErr = s.SetBalance(ctx, userID, amount, description, category, kind)
			}
			if opErr != nil {
				atomic.AddInt64(&bad, 1)
				zap.L().Warn("bulk adjust failed for user", zap.Int("userID", userID), zap.Error(opErr))
				return nil
			}
			atomic.AddInt64(&ok, 1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(atomic.LoadInt64(&ok)), int(atomic.LoadInt64(&bad)), err
	}
	return int(ok), int(bad), nil
}

func validateNote(description, category string) error {
	if description == "" || len(description) > maxDescriptionLen {
		return ErrInvalidDescription
	}
	if len(category) > maxCategoryLen {
		return fmt.Errorf("%w: category too long", ErrInvalidDescription)
	}
	return nil
}
