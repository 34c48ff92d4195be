package application_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmehra2102/Marketplace-Booking-System/internal/account/application"
	"github.com/dmehra2102/Marketplace-Booking-System/internal/account/domain"
	"github.com/dmehra2102/Marketplace-Booking-System/internal/account/infrastructure/memory"
	"github.com/dmehra2102/Marketplace-Booking-System/pkg/authn"
	"github.com/dmehra2102/Marketplace-Booking-System/pkg/logging"
)

func newService() (*application.Service, *authn.Issuer) {
	issuer := authn.NewIssuer("test-secret", time.Hour)
	svc := application.NewService(logging.Discard(), memory.NewRepository(), issuer).WithHashCost(bcrypt.MinCost)
	return svc, issuer
}

func TestRegisterAndLogin(t *testing.T) {
	svc, issuer := newService()
	ctx := context.Background()

	a, err := svc.Register(ctx, "Shop@Mail.com", "secret1", domain.Storekeeper, "Corner Shop")
	require.NoError(t, err)
	assert.Equal(t, "shop@mail.com", a.Email)
	assert.NotEqual(t, []byte("secret1"), a.PasswordHash)

	sess, err := svc.Login(ctx, "shop@mail.com", "secret1", domain.Storekeeper)
	require.NoError(t, err)
	assert.Equal(t, domain.Storekeeper, sess.UserType)

	claims, err := issuer.Verify(sess.Token)
	require.NoError(t, err)
	assert.Equal(t, "shop@mail.com", claims.Email)
	assert.Equal(t, "storekeeper", claims.UserType)
}

func TestRegisterRejects(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	_, err := svc.Register(ctx, "buyer@mail.com", "secret1", domain.Customer, "")
	require.NoError(t, err)

	cases := []struct {
		name     string
		email    string
		password string
		userType domain.UserType
		want     error
	}{
		{"duplicate", "BUYER@mail.com", "secret1", domain.Customer, domain.ErrEmailTaken},
		{"bad email", "buyer@mail.net", "secret1", domain.Customer, domain.ErrInvalidEmail},
		{"short password", "new@mail.com", "123", domain.Customer, domain.ErrWeakPassword},
		{"long password", "new@mail.com", strings.Repeat("p", domain.MaxPasswordLength+1), domain.Customer, domain.ErrPasswordTooLong},
		{"bad user type", "new@mail.com", "secret1", "admin", domain.ErrInvalidUserType},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.email, tc.password, tc.userType, "")
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestLoginFailures(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	_, err := svc.Register(ctx, "buyer@mail.com", "secret1", domain.Customer, "")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "ghost@mail.com", "secret1", domain.Customer)
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "buyer@mail.com", "wrong!", domain.Customer)
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "buyer@mail.com", "secret1", domain.Storekeeper)
	assert.ErrorIs(t, err, domain.ErrUserTypeMismatch)
}

func TestStorekeeperExists(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	_, err := svc.Register(ctx, "shop@mail.com", "secret1", domain.Storekeeper, "Shop")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "buyer@mail.com", "secret1", domain.Customer, "")
	require.NoError(t, err)

	ok, err := svc.StorekeeperExists(ctx, " SHOP@mail.com")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.StorekeeperExists(ctx, "buyer@mail.com")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.StorekeeperExists(ctx, "ghost@mail.com")
	require.NoError(t, err)
	assert.False(t, ok)

	name, err := svc.DisplayName(ctx, "shop@mail.com")
	require.NoError(t, err)
	assert.Equal(t, "Shop", name)
}
