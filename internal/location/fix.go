// Package location runs on the storekeeper's side: it reads the device position at a fixed
// interval and publishes it for the marketplace service to stamp on that storekeeper's
// products.
package location

import (
	"time"

	"github.com/dmehra2102/Marketplace-Booking-System/internal/inventory/domain"
)

// Fix is the message published on the locations topic, keyed by Email.
type Fix struct {
	Email      string    `json:"email"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	ObservedAt time.Time `json:"observed_at"`
}

func (f Fix) Location() domain.Location {
	return domain.Location{Latitude: f.Latitude, Longitude: f.Longitude}
}
