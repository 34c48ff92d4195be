package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEmail(t *testing.T) {
	got, err := NormalizeEmail("  Ravi@Gmail.com ")
	require.NoError(t, err)
	assert.Equal(t, "ravi@gmail.com", got)

	for _, bad := range []string{"", "ravi", "ravi@gmail.org", "ra vi@gmail.com", "ravi@mail2.com", "a@b@c.com"} {
		_, err := NormalizeEmail(bad)
		assert.ErrorIs(t, err, ErrInvalidEmail, bad)
	}
}

func TestUserTypeValid(t *testing.T) {
	assert.True(t, Customer.Valid())
	assert.True(t, Storekeeper.Valid())
	assert.False(t, UserType("admin").Valid())
}
