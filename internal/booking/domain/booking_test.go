package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	inventory "github.com/dmehra2102/Marketplace-Booking-System/internal/inventory/domain"
)

const productID = "6f1c1d9a-3f5e-4d0b-9a55-2b8a4c1e7d10"

func TestNormalizeEmptyCart(t *testing.T) {
	_, err := Cart{CustomerEmail: "a@b.com"}.Normalize()
	assert.True(t, errors.Is(err, ErrEmptyCart))
	assert.True(t, inventory.IsValidation(err))
}

func TestNormalizeRejectsMalformedLines(t *testing.T) {
	cases := map[string]Line{
		"bad id":        {ProductID: "42", Quantity: 1},
		"zero quantity": {ProductID: productID, Quantity: 0},
		"negative":      {ProductID: productID, Quantity: -3},
	}
	for name, line := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Cart{CustomerEmail: "a@b.com", Lines: []Line{{ProductID: productID, Quantity: 1}, line}}.Normalize()
			require.Error(t, err)
			assert.True(t, inventory.IsValidation(err))
			assert.False(t, errors.Is(err, ErrEmptyCart))
		})
	}
}

func TestNormalizeCanonicalises(t *testing.T) {
	c, err := Cart{
		CustomerEmail: " Buyer@Mail.com ",
		Lines:         []Line{{ProductID: "6F1C1D9A-3F5E-4D0B-9A55-2B8A4C1E7D10", Quantity: 2}},
	}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, "buyer@mail.com", c.CustomerEmail)
	assert.Equal(t, productID, c.Lines[0].ProductID)
}

func TestResultCount(t *testing.T) {
	r := Result{Outcomes: []Outcome{{Status: StatusApplied}, {Status: StatusProductNotFound}, {Status: StatusApplied}}}
	assert.Equal(t, 2, r.Count(StatusApplied))
	assert.Equal(t, 0, r.Count(StatusStoreError))
}

func TestBookingTotal(t *testing.T) {
	assert.Equal(t, int64(750), Booking{Quantity: 3, UnitPriceCents: 250}.TotalCents())
}
