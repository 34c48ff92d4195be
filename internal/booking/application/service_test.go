package application_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/Marketplace-Booking-System/internal/booking/application"
	"github.com/dmehra2102/Marketplace-Booking-System/internal/booking/domain"
	bookingmemory "github.com/dmehra2102/Marketplace-Booking-System/internal/booking/infrastructure/memory"
	inventory "github.com/dmehra2102/Marketplace-Booking-System/internal/inventory/domain"
	invmemory "github.com/dmehra2102/Marketplace-Booking-System/internal/inventory/infrastructure/memory"
	"github.com/dmehra2102/Marketplace-Booking-System/internal/inventory/infrastructure/storetest"
	"github.com/dmehra2102/Marketplace-Booking-System/pkg/logging"
)

const missingID = "00000000-0000-0000-0000-0000000000aa"

type fixture struct {
	store  *invmemory.Store
	ledger *bookingmemory.Ledger
	svc    *application.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := invmemory.New()
	ledger := bookingmemory.NewLedger(store)
	svc, err := application.NewService(logging.Discard(), store, ledger)
	require.NoError(t, err)
	return &fixture{store: store, ledger: ledger, svc: svc}
}

func (f *fixture) product(t *testing.T, name string, stock int) inventory.Product {
	t.Helper()
	p, err := f.store.Create(context.Background(), storetest.Product(name, "shop@mail.com", stock))
	require.NoError(t, err)
	return p
}

func cart(lines ...domain.Line) domain.Cart {
	return domain.Cart{
		CustomerEmail:    "buyer@mail.com",
		CustomerLocation: &inventory.Location{Latitude: 12.97, Longitude: 77.59},
		Lines:            lines,
	}
}

func TestBookExactStockDeletesProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Milk", 5)

	res, err := f.svc.Book(ctx, cart(domain.Line{ProductID: p.ID, Quantity: 5}))
	require.NoError(t, err)
	require.Len(t, res.Outcomes, 1)
	assert.Equal(t, domain.StatusApplied, res.Outcomes[0].Status)
	assert.True(t, res.Outcomes[0].Deleted)
	assert.NotEmpty(t, res.Outcomes[0].BookingID)

	_, err = f.store.Get(ctx, p.ID)
	assert.ErrorIs(t, err, inventory.ErrNotFound)

	list, err := f.store.ListByStorekeeper(ctx, "shop@mail.com")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestBookInsufficientStockLeavesStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Flour", 3)

	res, err := f.svc.Book(ctx, cart(domain.Line{ProductID: p.ID, Quantity: 5}))
	require.NoError(t, err)
	require.Len(t, res.Outcomes, 1)
	assert.Equal(t, domain.StatusInsufficientStock, res.Outcomes[0].Status)
	assert.Equal(t, 3, res.Outcomes[0].Available)

	got, err := f.store.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Stock)
}

func TestBookEmptyCart(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Milk", 5)

	_, err := f.svc.Book(context.Background(), cart())
	assert.ErrorIs(t, err, domain.ErrEmptyCart)

	got, err := f.store.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Stock)
}

func TestBookMalformedLineRejectsWholeCart(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Milk", 5)

	_, err := f.svc.Book(context.Background(), cart(
		domain.Line{ProductID: p.ID, Quantity: 1},
		domain.Line{ProductID: "not-a-uuid", Quantity: 1},
	))
	assert.True(t, inventory.IsValidation(err))

	got, err := f.store.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Stock)
}

func TestBookPartialCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rice := f.product(t, "Rice", 10)
	salt := f.product(t, "Salt", 1)
	oil := f.product(t, "Oil", 4)

	res, err := f.svc.Book(ctx, cart(
		domain.Line{ProductID: rice.ID, Quantity: 2},
		domain.Line{ProductID: salt.ID, Quantity: 3},
		domain.Line{ProductID: missingID, Quantity: 1},
		domain.Line{ProductID: oil.ID, Quantity: 1},
	))
	require.NoError(t, err)
	require.Len(t, res.Outcomes, 4)

	statuses := make([]domain.Status, len(res.Outcomes))
	for i, o := range res.Outcomes {
		assert.Equal(t, i, o.Line)
		statuses[i] = o.Status
	}
	assert.Equal(t, []domain.Status{
		domain.StatusApplied,
		domain.StatusInsufficientStock,
		domain.StatusProductNotFound,
		domain.StatusApplied,
	}, statuses)
	assert.Equal(t, 8, res.Outcomes[0].NewStock)
	assert.Equal(t, 3, res.Outcomes[3].NewStock)

	mine, err := f.svc.CustomerBookings(ctx, "BUYER@mail.com")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	theirs, err := f.svc.StorekeeperBookings(ctx, "shop@mail.com")
	require.NoError(t, err)
	assert.Len(t, theirs, 2)
}

func TestBookSameProductTwiceUsesCumulativeDemand(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Bread", 5)

	res, err := f.svc.Book(context.Background(), cart(
		domain.Line{ProductID: p.ID, Quantity: 3},
		domain.Line{ProductID: p.ID, Quantity: 3},
		domain.Line{ProductID: p.ID, Quantity: 2},
	))
	require.NoError(t, err)
	require.Len(t, res.Outcomes, 3)
	assert.Equal(t, domain.StatusApplied, res.Outcomes[0].Status)
	assert.Equal(t, domain.StatusInsufficientStock, res.Outcomes[1].Status)
	assert.Equal(t, 2, res.Outcomes[1].Available)
	assert.Equal(t, domain.StatusApplied, res.Outcomes[2].Status)
	assert.True(t, res.Outcomes[2].Deleted)
}

func TestConcurrentFullStockBookings(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Last Cake", 4)

	var wg sync.WaitGroup
	results := make([]domain.Result, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := f.svc.Book(context.Background(), cart(domain.Line{ProductID: p.ID, Quantity: 4}))
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	wg.Wait()

	applied := 0
	for _, r := range results {
		require.Len(t, r.Outcomes, 1)
		switch r.Outcomes[0].Status {
		case domain.StatusApplied:
			applied++
		case domain.StatusInsufficientStock:
		default:
			t.Fatalf("unexpected status %q", r.Outcomes[0].Status)
		}
	}
	assert.Equal(t, 1, applied)
}

// staleReader reports more stock than the store holds, as if another booking landed
// between validation and fulfilment.
type staleReader struct {
	inner application.ProductReader
	extra int
}

func (s staleReader) Get(ctx context.Context, id string) (inventory.Product, error) {
	p, err := s.inner.Get(ctx, id)
	p.Stock += s.extra
	return p, err
}

func TestBookRechecksStockAtFulfilment(t *testing.T) {
	store := invmemory.New()
	p, err := store.Create(context.Background(), storetest.Product("Tea", "shop@mail.com", 2))
	require.NoError(t, err)

	svc, err := application.NewService(logging.Discard(), staleReader{inner: store, extra: 10}, bookingmemory.NewLedger(store))
	require.NoError(t, err)

	res, err := svc.Book(context.Background(), cart(domain.Line{ProductID: p.ID, Quantity: 5}))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInsufficientStock, res.Outcomes[0].Status)
	assert.Equal(t, 2, res.Outcomes[0].Available)

	got, err := store.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Stock)
}

type brokenLedger struct {
	application.Ledger
	failFor string
}

func (b brokenLedger) Reserve(ctx context.Context, bk domain.Booking) (inventory.StockChange, error) {
	if bk.ProductID == b.failFor {
		return inventory.StockChange{}, errors.New("connection reset")
	}
	return b.Ledger.Reserve(ctx, bk)
}

func TestStoreErrorIsolatedToLine(t *testing.T) {
	store := invmemory.New()
	ctx := context.Background()
	a, err := store.Create(ctx, storetest.Product("A", "shop@mail.com", 2))
	require.NoError(t, err)
	b, err := store.Create(ctx, storetest.Product("B", "shop@mail.com", 2))
	require.NoError(t, err)

	ledger := brokenLedger{Ledger: bookingmemory.NewLedger(store), failFor: a.ID}
	svc, err := application.NewService(logging.Discard(), store, ledger)
	require.NoError(t, err)

	res, err := svc.Book(ctx, cart(domain.Line{ProductID: a.ID, Quantity: 1}, domain.Line{ProductID: b.ID, Quantity: 1}))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusStoreError, res.Outcomes[0].Status)
	assert.Equal(t, domain.StatusApplied, res.Outcomes[1].Status)
}

func TestPreviewDoesNotMutate(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Jam", 3)

	res, err := f.svc.Preview(context.Background(), cart(
		domain.Line{ProductID: p.ID, Quantity: 3},
		domain.Line{ProductID: missingID, Quantity: 1},
	))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAvailable, res.Outcomes[0].Status)
	assert.Equal(t, domain.StatusProductNotFound, res.Outcomes[1].Status)

	got, err := f.store.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Stock)
}
