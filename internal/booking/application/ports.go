package application

import (
	"context"

	"github.com/dmehra2102/Marketplace-Booking-System/internal/booking/domain"
	inventory "github.com/dmehra2102/Marketplace-Booking-System/internal/inventory/domain"
)

type ProductReader interface {
	Get(ctx context.Context, id string) (inventory.Product, error)
}

// Ledger is the server-owned record of fulfilled bookings.
type Ledger interface {
	// Reserve takes b.Quantity from the product's stock and records b as one unit of work.
	// Nothing is recorded when it fails with inventory.ErrNotFound or
	// *inventory.InsufficientStockError.
	Reserve(ctx context.Context, b domain.Booking) (inventory.StockChange, error)
	ByCustomer(ctx context.Context, email string) ([]domain.Booking, error)
	ByStorekeeper(ctx context.Context, email string) ([]domain.Booking, error)
}
