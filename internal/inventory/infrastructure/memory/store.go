// Package memory is the in-process Inventory Store used by the memory driver and by tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmehra2102/Marketplace-Booking-System/internal/inventory/domain"
)

// Store serialises every read-check-write behind one mutex, which makes the conditional
// decrement atomic per product.
type Store struct {
	mu  sync.RWMutex
	m   map[string]domain.Product
	now func() time.Time
}

func New() *Store {
	return &Store{m: make(map[string]domain.Product), now: func() time.Time { return time.Now().UTC() }}
}

func clone(p domain.Product) domain.Product {
	if p.Location != nil {
		loc := *p.Location
		p.Location = &loc
	}
	return p
}

func (s *Store) Get(_ context.Context, id string) (domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.m[id]
	if !ok {
		return domain.Product{}, domain.ErrNotFound
	}
	return clone(p), nil
}

func (s *Store) ListByStorekeeper(_ context.Context, email string) ([]domain.Product, error) {
	return s.filter(func(p domain.Product) bool { return p.StorekeeperEmail == email }), nil
}

func (s *Store) Search(_ context.Context, name string) ([]domain.Product, error) {
	needle := strings.ToLower(name)
	return s.filter(func(p domain.Product) bool {
		return strings.Contains(strings.ToLower(p.Name), needle)
	}), nil
}

func (s *Store) filter(keep func(domain.Product) bool) []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Product{}
	for _, p := range s.m {
		if keep(p) {
			out = append(out, clone(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *Store) Create(_ context.Context, p domain.Product) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = uuid.NewString()
	p.CreatedAt = s.now()
	p.UpdatedAt = p.CreatedAt
	s.m[p.ID] = clone(p)
	return clone(p), nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.m, id)
	return nil
}

func (s *Store) SetStock(_ context.Context, id string, stock int) (domain.StockChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.m[id]
	if !ok {
		return domain.StockChange{}, domain.ErrNotFound
	}
	return s.writeStockLocked(p, stock), nil
}

func (s *Store) DecrementIfSufficient(_ context.Context, id string, qty int) (domain.StockChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.m[id]
	if !ok {
		return domain.StockChange{}, domain.ErrNotFound
	}
	if p.Stock < qty {
		return domain.StockChange{}, &domain.InsufficientStockError{ProductID: id, Available: p.Stock, Requested: qty}
	}
	return s.writeStockLocked(p, p.Stock-qty), nil
}

func (s *Store) writeStockLocked(p domain.Product, stock int) domain.StockChange {
	if stock <= 0 {
		delete(s.m, p.ID)
		return domain.StockChange{ProductID: p.ID, NewStock: 0, Deleted: true}
	}
	p.Stock = stock
	p.UpdatedAt = s.now()
	s.m[p.ID] = p
	return domain.StockChange{ProductID: p.ID, NewStock: stock}
}

func (s *Store) SetLocation(_ context.Context, storekeeperEmail string, loc domain.Location) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, p := range s.m {
		if p.StorekeeperEmail != storekeeperEmail {
			continue
		}
		l := loc
		p.Location = &l
		p.UpdatedAt = s.now()
		s.m[id] = p
		n++
	}
	return n, nil
}
