package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/Marketplace-Booking-System/internal/account/domain"
)

const uniqueViolation = "23505"

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) Create(ctx context.Context, a domain.Account) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO accounts (email, password_hash, user_type, display_name, created_at)
		VALUES ($1,$2,$3,$4,$5)`, a.Email, string(a.PasswordHash), string(a.UserType), a.DisplayName, a.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		r.log.Debug("duplicate account rejected", "email", a.Email)
		return domain.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, email string) (domain.Account, error) {
	var (
		a        domain.Account
		hash     string
		userType string
	)
	err := r.pool.QueryRow(ctx, `SELECT email, password_hash, user_type, display_name, created_at FROM accounts WHERE email=$1`, email).
		Scan(&a.Email, &hash, &userType, &a.DisplayName, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Account{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Account{}, fmt.Errorf("get account: %w", err)
	}
	a.PasswordHash = []byte(hash)
	a.UserType = domain.UserType(userType)
	return a, nil
}
