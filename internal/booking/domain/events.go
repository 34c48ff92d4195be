package domain

import "time"

const (
	EventBookingPlaced   = "BookingPlaced"
	EventProductDepleted = "ProductDepleted"
)

type BookingPlaced struct {
	BookingID        string    `json:"booking_id"`
	ProductID        string    `json:"product_id"`
	ProductName      string    `json:"product_name"`
	Quantity         int       `json:"quantity"`
	UnitPriceCents   int64     `json:"unit_price_cents"`
	CustomerEmail    string    `json:"customer_email"`
	StorekeeperEmail string    `json:"storekeeper_email"`
	NewStock         int       `json:"new_stock"`
	Deleted          bool      `json:"deleted"`
	PlacedAt         time.Time `json:"placed_at"`
}

// ProductDepleted follows a booking that took the last of a product's stock.
type ProductDepleted struct {
	ProductID        string    `json:"product_id"`
	StorekeeperEmail string    `json:"storekeeper_email"`
	DepletedAt       time.Time `json:"depleted_at"`
}
