package domain

import (
	"math"
	"net/url"
	"strings"
	"time"
)

// Upper bounds keep values inside the store's integer columns. MaxPriceCents is the largest
// integer a float64 price converts to exactly.
const (
	MaxStock      = math.MaxInt32
	MaxPriceCents = 1 << 53
)

type StockUnit string

const (
	UnitWeight StockUnit = "weight"
	UnitPiece  StockUnit = "unit"
)

func (u StockUnit) Valid() bool {
	return u == UnitWeight || u == UnitPiece
}

type Product struct {
	ID               string
	Name             string
	PriceCents       int64
	Stock            int
	StockUnit        StockUnit
	ImageURL         string
	Location         *Location
	StorekeeperEmail string
	StorekeeperName  string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewProduct is a storekeeper's submission before the admission gate has looked at it.
type NewProduct struct {
	Name             string
	Price            float64
	Stock            int
	ImageURL         string
	Location         *Location
	StorekeeperEmail string
	StorekeeperName  string
}

func (n NewProduct) Validate() error {
	switch {
	case strings.TrimSpace(n.Name) == "":
		return NewValidationError("name", "is required")
	case math.IsNaN(n.Price) || math.IsInf(n.Price, 0) || n.Price < 0:
		return NewValidationError("price", "must be a non-negative number")
	case math.Round(n.Price*100) > MaxPriceCents:
		return NewValidationError("price", "is too large")
	case n.Stock <= 0:
		return NewValidationError("stock", "must be a positive integer")
	case n.Stock > MaxStock:
		return NewValidationError("stock", "is too large")
	case strings.TrimSpace(n.StorekeeperEmail) == "":
		return NewValidationError("storekeeper_email", "is required")
	case strings.TrimSpace(n.StorekeeperName) == "":
		return NewValidationError("storekeeper_name", "is required")
	case !validImageURL(strings.TrimSpace(n.ImageURL)):
		return NewValidationError("image_url", "must be an http or https url")
	}
	if n.Location != nil {
		if err := n.Location.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Admit turns an accepted submission into a product ready for the store. ID and timestamps
// are assigned by the store.
func (n NewProduct) Admit(unit StockUnit) Product {
	return Product{
		Name:             strings.TrimSpace(n.Name),
		PriceCents:       int64(math.Round(n.Price * 100)),
		Stock:            n.Stock,
		StockUnit:        unit,
		ImageURL:         strings.TrimSpace(n.ImageURL),
		Location:         n.Location,
		StorekeeperEmail: strings.ToLower(strings.TrimSpace(n.StorekeeperEmail)),
		StorekeeperName:  strings.TrimSpace(n.StorekeeperName),
	}
}

// validImageURL reports whether s is empty or an absolute http(s) URL.
func validImageURL(s string) bool {
	if s == "" {
		return true
	}
	u, err := url.ParseRequestURI(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// StockChange is the result of a stock write. Deleted means the product reached zero and
// was removed rather than stored.
type StockChange struct {
	ProductID string
	NewStock  int
	Deleted   bool
}
