package purchase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/GlebRadaev/pointsbank/internal/config"
	"github.com/GlebRadaev/pointsbank/internal/domain"
	"github.com/GlebRadaev/pointsbank/pkg/clients"
)

const (
	maxRetries    = 3
	retryInterval = time.Second * 1
)

var (
	ErrPurchaseAlreadyExistsByUser = errors.New("purchase already exists by user")
	ErrPurchaseAlreadyExists       = errors.New("purchase already exists")
	ErrInvalidPoints               = errors.New("points amount must be positive")
)

var processingPurchases sync.Map

// Response is the payment provider's answer for a single order.
type Response struct {
	Order  string  `json:"order"`
	Status string  `json:"status"`
	Points float64 `json:"points,omitempty"`
}

type Repo interface {
	FindByOrderNumber(ctx context.Context, orderNumber string) (*domain.Purchase, error)
	Save(ctx context.Context, purchase *domain.Purchase) error
	UpdateStatus(ctx context.Context, purchaseID int, status string) error
	FindForProcessing(ctx context.Context, limit uint32) ([]domain.Purchase, error)
}

type Ledger interface {
	AddPoints(ctx context.Context, userID int, amount decimal.Decimal, description, category string, kind domain.BalanceKind) (decimal.Decimal, error)
}

type TXManager interface {
	Begin(ctx context.Context, fn func(ctx context.Context) error) error
}

type Service struct {
	url            string
	purchaseRepo   Repo
	ledger         Ledger
	txManager      TXManager
	client         clients.HTTPClientI
	limit          uint32
	workerPool     WorkerPoolI
	updateInterval time.Duration
}

func New(cfg *config.Config, purchaseRepo Repo, ledger Ledger, txManager TXManager, client clients.HTTPClientI) *Service {
	return &Service{
		url:            cfg.ProviderAddress,
		purchaseRepo:   purchaseRepo,
		ledger:         ledger,
		txManager:      txManager,
		client:         client,
		limit:          1000,
		workerPool:     NewWorkerPool(10),
		updateInterval: time.Second * 5,
	}
}

// RegisterPurchase records a pending purchase. The actual credit happens later,
// once the payment provider confirms the order.
func (s *Service) RegisterPurchase(ctx context.Context, userID int, orderNumber string, points decimal.Decimal) (*domain.Purchase, error) {
	if !points.IsPositive() {
		return nil, ErrInvalidPoints
	}

	existing, err := s.purchaseRepo.FindByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.UserID == userID {
			zap.L().Info("purchase already exists by user", zap.String("order_number", orderNumber))
			return nil, ErrPurchaseAlreadyExistsByUser
		}
		zap.L().Info("purchase already exists", zap.String("order_number", orderNumber))
		return nil, ErrPurchaseAlreadyExists
	}

	purchase := &domain.Purchase{
		UserID:      userID,
		OrderNumber: orderNumber,
		Points:      points,
		Status:      domain.PurchaseStatusNew,
	}

	if err := s.purchaseRepo.Save(ctx, purchase); err != nil {
		zap.L().Error("can't save purchase: ", zap.Error(err))
		return nil, err
	}

	return purchase, nil
}

func (s *Service) Start(ctx context.Context) {
	zap.L().Info("Purchase confirmation service started")
	go s.run(ctx)
}

func (s *Service) run(ctx context.Context) {
	ticker := time.NewTicker(s.updateInterval)
	defer ticker.Stop()
	defer s.workerPool.Close()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("Context canceled, stopping service")
			return
		case <-ticker.C:
			s.processPurchases(ctx)
		}
	}
}

func (s *Service) processPurchases(ctx context.Context) {
	purchases, err := s.purchaseRepo.FindForProcessing(ctx, atomic.LoadUint32(&s.limit))
	if err != nil {
		zap.L().Error("Failed to fetch purchases for processing", zap.Error(err))
		return
	}

	var g errgroup.Group
	for _, purchase := range purchases {
		purchase := purchase

		if _, loaded := processingPurchases.LoadOrStore(purchase.OrderNumber, struct{}{}); loaded {
			continue
		}

		g.Go(func() error {
			err := s.workerPool.AddTask(ctx, func() error {
				defer processingPurchases.Delete(purchase.OrderNumber)
				return s.handlePurchase(ctx, purchase)
			})
			if err != nil {
				processingPurchases.Delete(purchase.OrderNumber)
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		zap.L().Error("Error processing purchases", zap.Error(err))
	}
}

func (s *Service) handlePurchase(ctx context.Context, purchase domain.Purchase) error {
	url := s.url + "/api/purchases/" + purchase.OrderNumber
	var err error
	var statusCode int
	var respBody []byte
	var respHeaders http.Header

	for attempt := 1; attempt <= maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			statusCode, respBody, respHeaders, err = s.client.Get(url, nil)
			if err != nil {
				if attempt < maxRetries {
					retryAfter := retryInterval * time.Duration(attempt)
					time.Sleep(retryAfter)
					continue
				}
				return fmt.Errorf("failed to process purchase %s after %d retries: %w", purchase.OrderNumber, maxRetries, err)
			}

			switch statusCode {
			case http.StatusTooManyRequests:
				return s.handleRateLimit(purchase, respHeaders, attempt)
			case http.StatusNoContent:
				zap.L().Warn("Purchase not found in provider, retrying", zap.String("orderNumber", purchase.OrderNumber), zap.Int("attempt", attempt))
				if attempt < maxRetries {
					retryAfter := retryInterval * time.Duration(attempt)
					time.Sleep(retryAfter)
					continue
				}
				return fmt.Errorf("failed to process not found purchase %s after %d retries", purchase.OrderNumber, maxRetries)

			case http.StatusOK:
				return s.processConfirmation(ctx, purchase, respBody)

			default:
				zap.L().Error("Unexpected status code", zap.Int("status", statusCode), zap.String("orderNumber", purchase.OrderNumber))
				return errors.New("unexpected status code")
			}
		}
	}
	return nil
}

func (s *Service) processConfirmation(ctx context.Context, purchase domain.Purchase, respBody []byte) error {
	var response Response
	if err := json.Unmarshal(respBody, &response); err != nil {
		return fmt.Errorf("failed to parse response body: %w", err)
	}

	if response.Order != purchase.OrderNumber {
		return fmt.Errorf("order number mismatch: expected %s, got %s", purchase.OrderNumber, response.Order)
	}

	switch response.Status {
	case domain.PurchaseStatusConfirmed:
		points := decimal.NewFromFloat(response.Points)
		if !points.IsPositive() {
			points = purchase.Points
		}
		// Credit and status change commit as one unit: a crash between them
		// would leave the row NEW and get it credited again on the next tick.
		return s.txManager.Begin(ctx, func(ctx context.Context) error {
			if err := s.creditPurchase(ctx, purchase, points); err != nil {
				return fmt.Errorf("failed to credit purchase for user %d: %w", purchase.UserID, err)
			}
			if err := s.purchaseRepo.UpdateStatus(ctx, purchase.ID, response.Status); err != nil {
				return fmt.Errorf("failed to update purchase in repo: %w", err)
			}
			return nil
		})
	case domain.PurchaseStatusProcessing:
		zap.L().Info("Purchase still processing, no credit yet", zap.String("orderNumber", purchase.OrderNumber))
	case domain.PurchaseStatusRejected:
		zap.L().Info("Purchase rejected by provider and will not be credited", zap.String("orderNumber", purchase.OrderNumber))
	default:
		zap.L().Warn("Unrecognized status received", zap.String("orderNumber", purchase.OrderNumber), zap.String("status", response.Status))
		return nil
	}

	if err := s.purchaseRepo.UpdateStatus(ctx, purchase.ID, response.Status); err != nil {
		return fmt.Errorf("failed to update purchase in repo: %w", err)
	}
	return nil
}

func (s *Service) creditPurchase(ctx context.Context, purchase domain.Purchase, points decimal.Decimal) error {
	description := "purchase order " + purchase.OrderNumber
	_, err := s.ledger.AddPoints(ctx, purchase.UserID, points, description, "purchase", domain.BalanceKindPermanent)
	if err != nil {
		return err
	}

	zap.L().Info("Purchase credited",
		zap.Int("userID", purchase.UserID),
		zap.String("orderNumber", purchase.OrderNumber),
		zap.String("points", points.String()),
	)
	return nil
}

func (s *Service) handleRateLimit(purchase domain.Purchase, respHeaders http.Header, attempt int) error {
	retryAfterHeader := respHeaders.Get("Retry-After")
	retryAfter := retryInterval * time.Duration(attempt)

	if retryAfterHeader != "" {
		if seconds, err := strconv.Atoi(retryAfterHeader); err == nil {
			retryAfter = time.Duration(seconds) * time.Second
		}
	}
	zap.L().Warn(
		"Rate limit detected, retrying",
		zap.String("orderNumber", purchase.OrderNumber),
		zap.Int("attempt", attempt),
		zap.Duration("retryAfter", retryAfter),
	)
	time.Sleep(retryAfter)
	return nil
}
