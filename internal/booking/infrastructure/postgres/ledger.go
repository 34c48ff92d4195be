package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/Marketplace-Booking-System/internal/booking/domain"
	inventory "github.com/dmehra2102/Marketplace-Booking-System/internal/inventory/domain"
	inventorypg "github.com/dmehra2102/Marketplace-Booking-System/internal/inventory/infrastructure/postgres"
	platformpg "github.com/dmehra2102/Marketplace-Booking-System/internal/platform/postgres"
	"github.com/dmehra2102/Marketplace-Booking-System/pkg/outbox"
	"github.com/dmehra2102/Marketplace-Booking-System/pkg/tracing"
)

const bookingColumns = `id::text, product_id::text, product_name, quantity, unit_price_cents, customer_email,
	customer_latitude, customer_longitude, storekeeper_email, storekeeper_name, created_at`

type Ledger struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewLedger(log *slog.Logger, pool *pgxpool.Pool) *Ledger {
	return &Ledger{log: log, pool: pool}
}

// Reserve decrements stock, inserts the booking and queues its events in one transaction.
func (l *Ledger) Reserve(ctx context.Context, b domain.Booking) (inventory.StockChange, error) {
	tx, err := l.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return inventory.StockChange{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	change, err := inventorypg.DecrementInTx(ctx, tx, b.ProductID, b.Quantity)
	if err != nil {
		return inventory.StockChange{}, err
	}

	var lat, lon *float64
	if b.CustomerLocation != nil {
		lat, lon = &b.CustomerLocation.Latitude, &b.CustomerLocation.Longitude
	}
	_, err = tx.Exec(ctx, `INSERT INTO bookings (id, product_id, product_name, quantity, unit_price_cents, customer_email,
			customer_latitude, customer_longitude, storekeeper_email, storekeeper_name, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		b.ID, b.ProductID, b.ProductName, b.Quantity, b.UnitPriceCents, b.CustomerEmail,
		lat, lon, b.StorekeeperEmail, b.StorekeeperName, b.CreatedAt)
	if err != nil {
		return inventory.StockChange{}, fmt.Errorf("insert booking: %w", err)
	}

	traceparent := tracing.Traceparent(ctx)
	placed, err := json.Marshal(domain.BookingPlaced{
		BookingID:        b.ID,
		ProductID:        b.ProductID,
		ProductName:      b.ProductName,
		Quantity:         b.Quantity,
		UnitPriceCents:   b.UnitPriceCents,
		CustomerEmail:    b.CustomerEmail,
		StorekeeperEmail: b.StorekeeperEmail,
		NewStock:         change.NewStock,
		Deleted:          change.Deleted,
		PlacedAt:         b.CreatedAt,
	})
	if err != nil {
		return inventory.StockChange{}, err
	}
	if err := platformpg.AppendOutbox(ctx, tx, outbox.Message{
		AggregateType: "product",
		AggregateID:   b.ProductID,
		Type:          domain.EventBookingPlaced,
		Payload:       placed,
		Headers:       map[string]string{"source": "booking-service"},
		Traceparent:   traceparent,
	}); err != nil {
		return inventory.StockChange{}, err
	}

	if change.Deleted {
		depleted, err := json.Marshal(domain.ProductDepleted{
			ProductID:        b.ProductID,
			StorekeeperEmail: b.StorekeeperEmail,
			DepletedAt:       b.CreatedAt,
		})
		if err != nil {
			return inventory.StockChange{}, err
		}
		if err := platformpg.AppendOutbox(ctx, tx, outbox.Message{
			AggregateType: "product",
			AggregateID:   b.ProductID,
			Type:          domain.EventProductDepleted,
			Payload:       depleted,
			Headers:       map[string]string{"source": "booking-service"},
			Traceparent:   traceparent,
		}); err != nil {
			return inventory.StockChange{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return inventory.StockChange{}, fmt.Errorf("commit booking: %w", err)
	}
	l.log.Debug("booking recorded", "booking_id", b.ID, "product_id", b.ProductID, "quantity", b.Quantity, "deleted", change.Deleted)
	return change, nil
}

func (l *Ledger) ByCustomer(ctx context.Context, email string) ([]domain.Booking, error) {
	return l.query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE customer_email=$1 ORDER BY created_at DESC, id`, email)
}

func (l *Ledger) ByStorekeeper(ctx context.Context, email string) ([]domain.Booking, error) {
	return l.query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE storekeeper_email=$1 ORDER BY created_at DESC, id`, email)
}

func (l *Ledger) query(ctx context.Context, sql string, args ...any) ([]domain.Booking, error) {
	rows, err := l.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query bookings: %w", err)
	}
	defer rows.Close()

	bookings := []domain.Booking{}
	for rows.Next() {
		var (
			b        domain.Booking
			lat, lon *float64
		)
		if err := rows.Scan(&b.ID, &b.ProductID, &b.ProductName, &b.Quantity, &b.UnitPriceCents, &b.CustomerEmail,
			&lat, &lon, &b.StorekeeperEmail, &b.StorekeeperName, &b.CreatedAt); err != nil {
			return nil, err
		}
		if lat != nil && lon != nil {
			b.CustomerLocation = &inventory.Location{Latitude: *lat, Longitude: *lon}
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}
