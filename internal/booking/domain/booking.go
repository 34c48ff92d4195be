package domain

import (
	"fmt"
	"strings"
	"time"

	inventory "github.com/dmehra2102/Marketplace-Booking-System/internal/inventory/domain"
)

// ErrEmptyCart is a validation error, so both errors.Is(err, ErrEmptyCart) and
// inventory.IsValidation(err) hold for it.
var ErrEmptyCart error = inventory.NewValidationError("lines", "cart is empty")

type Line struct {
	ProductID string
	Quantity  int
}

// Cart lives for one booking request only.
type Cart struct {
	CustomerEmail    string
	CustomerLocation *inventory.Location
	Lines            []Line
}

// Normalize validates the cart and returns it with canonical ids and a lower-cased email.
// Any malformed line rejects the whole cart before stock is looked at.
func (c Cart) Normalize() (Cart, error) {
	if len(c.Lines) == 0 {
		return Cart{}, ErrEmptyCart
	}
	if c.CustomerLocation != nil {
		if err := c.CustomerLocation.Validate(); err != nil {
			return Cart{}, err
		}
	}

	lines := make([]Line, len(c.Lines))
	for i, l := range c.Lines {
		id, err := inventory.ParseID(l.ProductID)
		if err != nil {
			return Cart{}, inventory.NewValidationError(fmt.Sprintf("lines[%d].product_id", i), "is not a valid identifier")
		}
		if l.Quantity <= 0 {
			return Cart{}, inventory.NewValidationError(fmt.Sprintf("lines[%d].quantity", i), "must be a positive integer")
		}
		lines[i] = Line{ProductID: id, Quantity: l.Quantity}
	}
	c.CustomerEmail = strings.ToLower(strings.TrimSpace(c.CustomerEmail))
	c.Lines = lines
	return c, nil
}

// Booking is one fulfilled line. It snapshots everything the storekeeper and the customer
// need later, so it stays readable after the product sells out.
type Booking struct {
	ID               string
	ProductID        string
	ProductName      string
	Quantity         int
	UnitPriceCents   int64
	CustomerEmail    string
	CustomerLocation *inventory.Location
	StorekeeperEmail string
	StorekeeperName  string
	CreatedAt        time.Time
}

func (b Booking) TotalCents() int64 {
	return b.UnitPriceCents * int64(b.Quantity)
}
