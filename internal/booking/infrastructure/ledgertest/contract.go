// Package ledgertest holds behaviour every booking ledger driver must share.
package ledgertest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/Marketplace-Booking-System/internal/booking/application"
	"github.com/dmehra2102/Marketplace-Booking-System/internal/booking/domain"
	invapp "github.com/dmehra2102/Marketplace-Booking-System/internal/inventory/application"
	inventory "github.com/dmehra2102/Marketplace-Booking-System/internal/inventory/domain"
	"github.com/dmehra2102/Marketplace-Booking-System/internal/inventory/infrastructure/storetest"
)

// Env pairs a ledger with the inventory store it decrements.
type Env struct {
	Ledger   application.Ledger
	Products invapp.ProductRepository
}

func booking(p inventory.Product, customer string, qty int) domain.Booking {
	return domain.Booking{
		ID:               uuid.NewString(),
		ProductID:        p.ID,
		ProductName:      p.Name,
		Quantity:         qty,
		UnitPriceCents:   p.PriceCents,
		CustomerEmail:    customer,
		CustomerLocation: &inventory.Location{Latitude: 12.5, Longitude: 77.5},
		StorekeeperEmail: p.StorekeeperEmail,
		StorekeeperName:  p.StorekeeperName,
		CreatedAt:        time.Now().UTC().Truncate(time.Microsecond),
	}
}

// Run exercises a ledger. newEnv must return empty stores each call.
func Run(t *testing.T, newEnv func(t *testing.T) Env) {
	t.Run("ReserveDecrementsAndRecords", func(t *testing.T) {
		env := newEnv(t)
		ctx := context.Background()
		p := mustCreate(t, env, storetest.Product("Milk", "shop@mail.com", 5))

		change, err := env.Ledger.Reserve(ctx, booking(p, "buyer@mail.com", 2))
		require.NoError(t, err)
		assert.Equal(t, 3, change.NewStock)
		assert.False(t, change.Deleted)

		got, err := env.Products.Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, got.Stock)

		mine, err := env.Ledger.ByCustomer(ctx, "buyer@mail.com")
		require.NoError(t, err)
		require.Len(t, mine, 1)
		assert.Equal(t, 2, mine[0].Quantity)
		assert.Equal(t, "Milk", mine[0].ProductName)
		require.NotNil(t, mine[0].CustomerLocation)
		assert.Equal(t, 12.5, mine[0].CustomerLocation.Latitude)
	})

	t.Run("ReserveLastUnitDeletesProduct", func(t *testing.T) {
		env := newEnv(t)
		ctx := context.Background()
		p := mustCreate(t, env, storetest.Product("Eggs", "shop@mail.com", 5))

		change, err := env.Ledger.Reserve(ctx, booking(p, "buyer@mail.com", 5))
		require.NoError(t, err)
		assert.True(t, change.Deleted)

		_, err = env.Products.Get(ctx, p.ID)
		assert.ErrorIs(t, err, inventory.ErrNotFound)

		theirs, err := env.Ledger.ByStorekeeper(ctx, "shop@mail.com")
		require.NoError(t, err)
		require.Len(t, theirs, 1, "booking outlives the product")
		assert.Equal(t, "Eggs", theirs[0].ProductName)
	})

	t.Run("ReserveInsufficientRecordsNothing", func(t *testing.T) {
		env := newEnv(t)
		ctx := context.Background()
		p := mustCreate(t, env, storetest.Product("Flour", "shop@mail.com", 3))

		_, err := env.Ledger.Reserve(ctx, booking(p, "buyer@mail.com", 5))
		var short *inventory.InsufficientStockError
		require.True(t, errors.As(err, &short))
		assert.Equal(t, 3, short.Available)

		got, err := env.Products.Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, got.Stock)

		mine, err := env.Ledger.ByCustomer(ctx, "buyer@mail.com")
		require.NoError(t, err)
		assert.Empty(t, mine)
	})

	t.Run("ReserveMissingProduct", func(t *testing.T) {
		env := newEnv(t)
		p := storetest.Product("Ghost", "shop@mail.com", 1)
		p.ID = uuid.NewString()
		_, err := env.Ledger.Reserve(context.Background(), booking(p, "buyer@mail.com", 1))
		assert.ErrorIs(t, err, inventory.ErrNotFound)
	})

	t.Run("ConcurrentReservesNeverOversell", func(t *testing.T) {
		env := newEnv(t)
		ctx := context.Background()
		p := mustCreate(t, env, storetest.Product("Last Loaf", "shop@mail.com", 4))

		const buyers = 12
		var (
			wg      sync.WaitGroup
			applied atomic.Int32
			short   atomic.Int32
		)
		for i := 0; i < buyers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := env.Ledger.Reserve(ctx, booking(p, "buyer@mail.com", 2))
				var ise *inventory.InsufficientStockError
				switch {
				case err == nil:
					applied.Add(1)
				case errors.As(err, &ise), errors.Is(err, inventory.ErrNotFound):
					short.Add(1)
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()

		assert.EqualValues(t, 2, applied.Load())
		assert.EqualValues(t, buyers-2, short.Load())

		mine, err := env.Ledger.ByCustomer(ctx, "buyer@mail.com")
		require.NoError(t, err)
		assert.Len(t, mine, 2)
	})
}

func mustCreate(t *testing.T, env Env, p inventory.Product) inventory.Product {
	t.Helper()
	created, err := env.Products.Create(context.Background(), p)
	require.NoError(t, err)
	return created
}
