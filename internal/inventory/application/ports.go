package application

import (
	"context"

	"github.com/dmehra2102/Marketplace-Booking-System/internal/admission"
	"github.com/dmehra2102/Marketplace-Booking-System/internal/inventory/domain"
)

// ProductRepository is the Inventory Store. Every write is scoped to one product except
// SetLocation, which is a bulk best-effort update of one storekeeper's products.
type ProductRepository interface {
	Get(ctx context.Context, id string) (domain.Product, error)
	ListByStorekeeper(ctx context.Context, email string) ([]domain.Product, error)
	// Search matches name case-insensitively as a substring. An empty slice is not an error here.
	Search(ctx context.Context, name string) ([]domain.Product, error)
	Create(ctx context.Context, p domain.Product) (domain.Product, error)
	Delete(ctx context.Context, id string) error
	// SetStock deletes the product instead of storing stock <= 0.
	SetStock(ctx context.Context, id string, stock int) (domain.StockChange, error)
	// DecrementIfSufficient removes qty from stock atomically, deleting the product when it
	// reaches zero. It fails with *domain.InsufficientStockError without writing anything
	// when stock < qty.
	DecrementIfSufficient(ctx context.Context, id string, qty int) (domain.StockChange, error)
	SetLocation(ctx context.Context, storekeeperEmail string, loc domain.Location) (int64, error)
}

type AdmissionGate interface {
	Admit(ctx context.Context, name string) admission.Verdict
}

type StorekeeperDirectory interface {
	StorekeeperExists(ctx context.Context, email string) (bool, error)
}
