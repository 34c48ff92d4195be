package memory

import (
	"context"
	"sync"

	"github.com/dmehra2102/Marketplace-Booking-System/internal/account/domain"
)

type Repository struct {
	mu sync.RWMutex
	m  map[string]domain.Account
}

func NewRepository() *Repository {
	return &Repository{m: make(map[string]domain.Account)}
}

func (r *Repository) Create(_ context.Context, a domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.m[a.Email]; ok {
		return domain.ErrEmailTaken
	}
	r.m[a.Email] = a
	return nil
}

func (r *Repository) Get(_ context.Context, email string) (domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.m[email]
	if !ok {
		return domain.Account{}, domain.ErrNotFound
	}
	return a, nil
}
