// Package memory keeps the booking ledger in process, on top of the in-memory inventory store.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/dmehra2102/Marketplace-Booking-System/internal/booking/domain"
	inventory "github.com/dmehra2102/Marketplace-Booking-System/internal/inventory/domain"
)

type StockDecrementer interface {
	DecrementIfSufficient(ctx context.Context, id string, qty int) (inventory.StockChange, error)
}

type Ledger struct {
	mu       sync.RWMutex
	stock    StockDecrementer
	bookings []domain.Booking
}

func NewLedger(stock StockDecrementer) *Ledger {
	return &Ledger{stock: stock}
}

// Reserve holds the ledger lock across the decrement and the append, so a reader never sees
// stock taken without the booking that took it.
func (l *Ledger) Reserve(ctx context.Context, b domain.Booking) (inventory.StockChange, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	change, err := l.stock.DecrementIfSufficient(ctx, b.ProductID, b.Quantity)
	if err != nil {
		return inventory.StockChange{}, err
	}
	if b.CustomerLocation != nil {
		loc := *b.CustomerLocation
		b.CustomerLocation = &loc
	}
	l.bookings = append(l.bookings, b)
	return change, nil
}

func (l *Ledger) ByCustomer(_ context.Context, email string) ([]domain.Booking, error) {
	return l.filter(func(b domain.Booking) bool { return b.CustomerEmail == email }), nil
}

func (l *Ledger) ByStorekeeper(_ context.Context, email string) ([]domain.Booking, error) {
	return l.filter(func(b domain.Booking) bool { return b.StorekeeperEmail == email }), nil
}

func (l *Ledger) filter(keep func(domain.Booking) bool) []domain.Booking {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := []domain.Booking{}
	for _, b := range l.bookings {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}
