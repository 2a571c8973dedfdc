package events

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/GlebRadaev/pointsbank/internal/domain"
)

// BalanceChanged is published after every committed ledger mutation.
type BalanceChanged struct {
	UserID     int
	Kind       domain.BalanceKind
	Amount     decimal.Decimal
	Free       decimal.Decimal
	Permanent  decimal.Decimal
	Category   string
	OccurredAt time.Time
}

type Listener func(ctx context.Context, event BalanceChanged)

// Notifier fans a BalanceChanged event out to subscribed listeners,
// synchronously and in subscription order. Publication happens strictly after
// the ledger commit, so a slow or panicking listener can never roll a
// mutation back.
type Notifier struct {
	mu        sync.RWMutex
	listeners []Listener
}

func NewNotifier() *Notifier {
	return &Notifier{}
}

func (n *Notifier) Subscribe(listener Listener) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.listeners = append(n.listeners, listener)
}

func (n *Notifier) Publish(ctx context.Context, event BalanceChanged) {
	n.mu.RLock()
	listeners := make([]Listener, len(n.listeners))
	copy(listeners, n.listeners)
	n.mu.RUnlock()

	for _, listener := range listeners {
		n.notify(ctx, listener, event)
	}
}

func (n *Notifier) notify(ctx context.Context, listener Listener, event BalanceChanged) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("balance listener panicked", zap.Any("panic", r), zap.Int("userID", event.UserID))
		}
	}()
	listener(ctx, event)
}

// LogListener returns a listener that records every balance change in the
// application log.
func LogListener() Listener {
	return func(_ context.Context, event BalanceChanged) {
		zap.L().Info("balance changed",
			zap.Int("userID", event.UserID),
			zap.String("kind", string(event.Kind)),
			zap.String("amount", event.Amount.String()),
			zap.String("free", event.Free.String()),
			zap.String("permanent", event.Permanent.String()),
			zap.String("category", event.Category),
		)
	}
}
