// Package storetest holds behaviour every Inventory Store driver must share. Driver packages
// call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/Marketplace-Booking-System/internal/inventory/application"
	"github.com/dmehra2102/Marketplace-Booking-System/internal/inventory/domain"
)

func Product(name, storekeeper string, stock int) domain.Product {
	return domain.Product{
		Name:             name,
		PriceCents:       250,
		Stock:            stock,
		StockUnit:        domain.UnitPiece,
		StorekeeperEmail: storekeeper,
		StorekeeperName:  "Shop",
	}
}

// Run exercises repo. newRepo must return an empty store each call.
func Run(t *testing.T, newRepo func(t *testing.T) application.ProductRepository) {
	t.Run("CreateGet", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		in := Product("Basmati Rice", "a@shop.com", 5)
		in.Location = &domain.Location{Latitude: 1.5, Longitude: 2.5}
		in.ImageURL = "https://img.example.com/rice.png"

		p, err := repo.Create(ctx, in)
		require.NoError(t, err)
		require.NotEmpty(t, p.ID)

		got, err := repo.Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "Basmati Rice", got.Name)
		assert.Equal(t, 5, got.Stock)
		assert.Equal(t, int64(250), got.PriceCents)
		assert.Equal(t, "https://img.example.com/rice.png", got.ImageURL)
		require.NotNil(t, got.Location)
		assert.Equal(t, 1.5, got.Location.Latitude)
	})

	t.Run("GetMissing", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Get(context.Background(), "00000000-0000-0000-0000-000000000001")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("ListAndSearch", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		mustCreate(t, repo, Product("Basmati Rice", "a@shop.com", 5))
		mustCreate(t, repo, Product("Brown rice", "b@shop.com", 5))
		mustCreate(t, repo, Product("Milk", "a@shop.com", 5))

		list, err := repo.ListByStorekeeper(ctx, "a@shop.com")
		require.NoError(t, err)
		assert.Len(t, list, 2)

		none, err := repo.ListByStorekeeper(ctx, "c@shop.com")
		require.NoError(t, err)
		assert.Empty(t, none)

		found, err := repo.Search(ctx, "RICE")
		require.NoError(t, err)
		assert.Len(t, found, 2)

		found, err = repo.Search(ctx, "bread")
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	t.Run("SearchTreatsPatternCharsLiterally", func(t *testing.T) {
		repo := newRepo(t)
		mustCreate(t, repo, Product("Milk", "a@shop.com", 1))
		found, err := repo.Search(context.Background(), "%")
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	t.Run("Delete", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		p := mustCreate(t, repo, Product("Milk", "a@shop.com", 1))
		require.NoError(t, repo.Delete(ctx, p.ID))
		assert.ErrorIs(t, repo.Delete(ctx, p.ID), domain.ErrNotFound)
	})

	t.Run("SetStockDeletesAtZero", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		p := mustCreate(t, repo, Product("Milk", "a@shop.com", 4))

		change, err := repo.SetStock(ctx, p.ID, 9)
		require.NoError(t, err)
		assert.Equal(t, domain.StockChange{ProductID: p.ID, NewStock: 9}, change)

		change, err = repo.SetStock(ctx, p.ID, 0)
		require.NoError(t, err)
		assert.True(t, change.Deleted)
		_, err = repo.Get(ctx, p.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		_, err = repo.SetStock(ctx, p.ID, 3)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("DecrementIfSufficient", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		p := mustCreate(t, repo, Product("Eggs", "a@shop.com", 3))

		_, err := repo.DecrementIfSufficient(ctx, p.ID, 5)
		var ise *domain.InsufficientStockError
		require.True(t, errors.As(err, &ise))
		assert.Equal(t, 3, ise.Available)
		got, err := repo.Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, got.Stock)

		change, err := repo.DecrementIfSufficient(ctx, p.ID, 2)
		require.NoError(t, err)
		assert.Equal(t, 1, change.NewStock)
		assert.False(t, change.Deleted)

		change, err = repo.DecrementIfSufficient(ctx, p.ID, 1)
		require.NoError(t, err)
		assert.True(t, change.Deleted)
		_, err = repo.Get(ctx, p.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		_, err = repo.DecrementIfSufficient(ctx, p.ID, 1)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("ConcurrentDecrementsNeverOversell", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		const stock = 10
		p := mustCreate(t, repo, Product("Flour", "a@shop.com", stock))

		var (
			wg       sync.WaitGroup
			sold     atomic.Int64
			rejected atomic.Int64
		)
		for i := 0; i < 25; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.DecrementIfSufficient(ctx, p.ID, 1)
				switch {
				case err == nil:
					sold.Add(1)
				default:
					rejected.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.EqualValues(t, stock, sold.Load())
		assert.EqualValues(t, 15, rejected.Load())
		_, err := repo.Get(ctx, p.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("SetLocationBulk", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		a1 := mustCreate(t, repo, Product("Milk", "a@shop.com", 1))
		mustCreate(t, repo, Product("Eggs", "a@shop.com", 1))
		b1 := mustCreate(t, repo, Product("Tea", "b@shop.com", 1))

		loc := domain.Location{Latitude: 12.97, Longitude: 77.59}
		n, err := repo.SetLocation(ctx, "a@shop.com", loc)
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)

		n, err = repo.SetLocation(ctx, "a@shop.com", loc)
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)

		got, err := repo.Get(ctx, a1.ID)
		require.NoError(t, err)
		require.NotNil(t, got.Location)
		assert.Equal(t, loc, *got.Location)

		other, err := repo.Get(ctx, b1.ID)
		require.NoError(t, err)
		assert.Nil(t, other.Location)
	})
}

func mustCreate(t *testing.T, repo application.ProductRepository, p domain.Product) domain.Product {
	t.Helper()
	out, err := repo.Create(context.Background(), p)
	require.NoError(t, err)
	return out
}
