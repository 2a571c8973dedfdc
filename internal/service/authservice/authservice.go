package authservice

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/GlebRadaev/pointsbank/internal/domain"
	"github.com/GlebRadaev/pointsbank/pkg/auth"
)

var (
	ErrLoginTaken         = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type Repo interface {
	FindByLogin(ctx context.Context, login string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
}

type Ledger interface {
	AddPoints(ctx context.Context, userID int, amount decimal.Decimal, description, category string, kind domain.BalanceKind) (decimal.Decimal, error)
}

type Service struct {
	userRepo     Repo
	ledger       Ledger
	hashService  auth.HashServiceInterface
	jwtService   auth.JWTServiceInterface
	welcomeBonus decimal.Decimal
}

func New(repo Repo, ledger Ledger, hashService auth.HashServiceInterface, jwtService auth.JWTServiceInterface, welcomeBonus decimal.Decimal) *Service {
	return &Service{
		userRepo:     repo,
		ledger:       ledger,
		hashService:  hashService,
		jwtService:   jwtService,
		welcomeBonus: welcomeBonus,
	}
}

func (s *Service) Register(ctx context.Context, login, password string) (*domain.User, error) {
	existingUser, err := s.userRepo.FindByLogin(ctx, login)
	if err != nil {
		zap.L().Error("can't find user: ", zap.Error(err))
		return nil, err
	}
	if existingUser != nil {
		zap.L().Info("user already exists, login: ", zap.String("login", login))
		return nil, ErrLoginTaken
	}
	hashedPassword, err := s.hashService.HashPassword(password)
	if err != nil {
		zap.L().Error("can't hash password: ", zap.Error(err))
		return nil, err
	}
	user := &domain.User{
		Login:        login,
		PasswordHash: hashedPassword,
	}
	newUser, err := s.userRepo.Create(ctx, user)
	if err != nil {
		zap.L().Error("can't create user: ", zap.Error(err))
		return nil, err
	}

	// the welcome bonus is best effort: a ledger hiccup must not lose the account
	if s.welcomeBonus.IsPositive() {
		_, err = s.ledger.AddPoints(ctx, newUser.ID, s.welcomeBonus, "registration bonus", "registration", domain.BalanceKindFree)
		if err != nil {
			zap.L().Error("can't grant registration bonus: ", zap.Int("userID", newUser.ID), zap.Error(err))
		}
	}

	zap.L().Info("user successfully registered", zap.String("login", login))
	return user, nil
}

func (s *Service) Authenticate(ctx context.Context, login, password string) (*domain.User, error) {
	user, err := s.userRepo.FindByLogin(ctx, login)
	if err != nil || user == nil {
		zap.L().Error("invalid credentials", zap.Error(err))
		return nil, ErrInvalidCredentials
	}
	if ok := s.hashService.ComparePassword(user.PasswordHash, password); !ok {
		zap.L().Error("invalid credentials", zap.Error(err))
		return nil, ErrInvalidCredentials
	}
	zap.L().Info("user successfully authenticated", zap.String("login", login))
	return user, nil
}

func (s *Service) GenerateToken(userID int) (string, error) {
	expirationTime := time.Now().Add(15 * time.Minute)

	token, err := s.jwtService.GenerateJWT(userID, expirationTime)
	if err != nil {
		zap.L().Error("can't generate token: ", zap.Error(err))
		return "", err
	}
	return token, nil
}
