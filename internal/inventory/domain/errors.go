package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrNotFound            = errors.New("product not found")
	ErrStorekeeperNotFound = errors.New("storekeeper not found")
	ErrNoMatches           = errors.New("no products match the query")
	ErrInvalidProduct      = errors.New("invalid product: only recognized products can be added")
)

// ValidationError reports malformed input. Nothing has been written when it is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + " " + e.Reason
}

type InsufficientStockError struct {
	ProductID string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: available %d, requested %d", e.ProductID, e.Available, e.Requested)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ParseID checks that id is a store-generated identifier and returns its canonical form.
func ParseID(id string) (string, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", NewValidationError("product_id", fmt.Sprintf("%q is not a valid identifier", id))
	}
	return u.String(), nil
}
