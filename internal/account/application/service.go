package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmehra2102/Marketplace-Booking-System/internal/account/domain"
)

type Repository interface {
	// Create fails with domain.ErrEmailTaken when the email is already registered.
	Create(ctx context.Context, a domain.Account) error
	Get(ctx context.Context, email string) (domain.Account, error)
}

type TokenIssuer interface {
	Issue(email, userType string) (string, time.Time, error)
}

type Session struct {
	Token     string
	ExpiresAt time.Time
	Email     string
	UserType  domain.UserType
}

type Service struct {
	log    *slog.Logger
	repo   Repository
	tokens TokenIssuer
	cost   int
}

func NewService(log *slog.Logger, repo Repository, tokens TokenIssuer) *Service {
	return &Service{log: log, repo: repo, tokens: tokens, cost: bcrypt.DefaultCost}
}

// WithHashCost lowers the bcrypt cost, for tests.
func (s *Service) WithHashCost(cost int) *Service {
	s.cost = cost
	return s
}

func (s *Service) Register(ctx context.Context, email, password string, userType domain.UserType, displayName string) (domain.Account, error) {
	email, err := domain.NormalizeEmail(email)
	if err != nil {
		return domain.Account{}, err
	}
	if len(password) < domain.MinPasswordLength {
		return domain.Account{}, domain.ErrWeakPassword
	}
	if len(password) > domain.MaxPasswordLength {
		return domain.Account{}, domain.ErrPasswordTooLong
	}
	if !userType.Valid() {
		return domain.Account{}, domain.ErrInvalidUserType
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return domain.Account{}, fmt.Errorf("hash password: %w", err)
	}
	a := domain.Account{
		Email:        email,
		PasswordHash: hash,
		UserType:     userType,
		DisplayName:  strings.TrimSpace(displayName),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return domain.Account{}, err
	}
	s.log.Info("account registered", "email", email, "user_type", userType)
	return a, nil
}

// Login checks the password before the user type, so a caller without the password learns
// nothing about how an email is registered.
func (s *Service) Login(ctx context.Context, email, password string, userType domain.UserType) (Session, error) {
	email, err := domain.NormalizeEmail(email)
	if err != nil {
		return Session{}, err
	}
	a, err := s.repo.Get(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return Session{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("load account: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(password)); err != nil {
		return Session{}, domain.ErrInvalidCredentials
	}
	if a.UserType != userType {
		return Session{}, domain.ErrUserTypeMismatch
	}

	token, exp, err := s.tokens.Issue(a.Email, string(a.UserType))
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, ExpiresAt: exp, Email: a.Email, UserType: a.UserType}, nil
}

// StorekeeperExists reports whether email belongs to a registered storekeeper.
func (s *Service) StorekeeperExists(ctx context.Context, email string) (bool, error) {
	a, err := s.repo.Get(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return a.UserType == domain.Storekeeper, nil
}

// DisplayName returns the name an account registered with, or "" when it has none.
func (s *Service) DisplayName(ctx context.Context, email string) (string, error) {
	a, err := s.repo.Get(ctx, email)
	if err != nil {
		return "", err
	}
	return a.DisplayName, nil
}
