package application

import (
	"context"
	"errors"

	"github.com/dmehra2102/Marketplace-Booking-System/internal/booking/domain"
	inventory "github.com/dmehra2102/Marketplace-Booking-System/internal/inventory/domain"
)

// Check is the validator's verdict on one line. Product is only set when Status is
// StatusAvailable.
type Check struct {
	Index   int
	Line    domain.Line
	Status  domain.Status
	Product inventory.Product
	// Available is the stock left for this line after earlier lines of the same cart.
	Available int
	Err       error
}

func (c Check) Fulfillable() bool { return c.Status == domain.StatusAvailable }

type Validator struct {
	products ProductReader
}

func NewValidator(products ProductReader) *Validator {
	return &Validator{products: products}
}

// Validate partitions a normalized cart into fulfillable and rejected lines. Lines that
// target the same product are checked against their cumulative demand.
func (v *Validator) Validate(ctx context.Context, cart domain.Cart) []Check {
	checks := make([]Check, len(cart.Lines))
	demand := make(map[string]int, len(cart.Lines))

	for i, line := range cart.Lines {
		c := Check{Index: i, Line: line}
		p, err := v.products.Get(ctx, line.ProductID)
		switch {
		case errors.Is(err, inventory.ErrNotFound):
			c.Status = domain.StatusProductNotFound
		case err != nil:
			c.Status = domain.StatusStoreError
			c.Err = err
		default:
			left := p.Stock - demand[line.ProductID]
			c.Available = left
			if line.Quantity > left {
				c.Status = domain.StatusInsufficientStock
				break
			}
			demand[line.ProductID] += line.Quantity
			c.Status = domain.StatusAvailable
			c.Product = p
		}
		checks[i] = c
	}
	return checks
}
