package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmehra2102/Marketplace-Booking-System/internal/booking/domain"
	inventory "github.com/dmehra2102/Marketplace-Booking-System/internal/inventory/domain"
)

type Mutator struct {
	log    *slog.Logger
	ledger Ledger
	now    func() time.Time
}

func NewMutator(log *slog.Logger, ledger Ledger) *Mutator {
	return &Mutator{
		log:    log,
		ledger: ledger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Apply fulfils the available lines in cart order and reports one outcome per check.
// Stock is re-checked at fulfilment time, so a line validated against stale stock comes
// back as insufficient_stock rather than overselling.
func (m *Mutator) Apply(ctx context.Context, cart domain.Cart, checks []Check) domain.Result {
	res := domain.Result{Outcomes: make([]domain.Outcome, 0, len(checks))}
	for _, c := range checks {
		out := domain.Outcome{
			Line:      c.Index,
			ProductID: c.Line.ProductID,
			Quantity:  c.Line.Quantity,
			Status:    c.Status,
		}
		if !c.Fulfillable() {
			if c.Status == domain.StatusInsufficientStock {
				out.Available = c.Available
			}
			if c.Err != nil {
				out.Detail = "store unavailable"
			}
			res.Outcomes = append(res.Outcomes, out)
			continue
		}

		b := domain.Booking{
			ID:               uuid.NewString(),
			ProductID:        c.Product.ID,
			ProductName:      c.Product.Name,
			Quantity:         c.Line.Quantity,
			UnitPriceCents:   c.Product.PriceCents,
			CustomerEmail:    cart.CustomerEmail,
			CustomerLocation: cart.CustomerLocation,
			StorekeeperEmail: c.Product.StorekeeperEmail,
			StorekeeperName:  c.Product.StorekeeperName,
			CreatedAt:        m.now(),
		}
		change, err := m.ledger.Reserve(ctx, b)

		var short *inventory.InsufficientStockError
		switch {
		case err == nil:
			out.Status = domain.StatusApplied
			out.NewStock = change.NewStock
			out.Deleted = change.Deleted
			out.BookingID = b.ID
		case errors.As(err, &short):
			out.Status = domain.StatusInsufficientStock
			out.Available = short.Available
		case errors.Is(err, inventory.ErrNotFound):
			// Present at validation, gone now: sold out or withdrawn in between.
			out.Status = domain.StatusInsufficientStock
			out.Detail = "product is no longer available"
		default:
			m.log.Error("reserve failed", "product_id", b.ProductID, "customer", b.CustomerEmail, "err", err)
			out.Status = domain.StatusStoreError
			out.Detail = "store unavailable"
		}
		res.Outcomes = append(res.Outcomes, out)
	}
	return res
}
