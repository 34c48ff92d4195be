package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	accountapp "github.com/dmehra2102/Marketplace-Booking-System/internal/account/application"
	accountmemory "github.com/dmehra2102/Marketplace-Booking-System/internal/account/infrastructure/memory"
	accountpg "github.com/dmehra2102/Marketplace-Booking-System/internal/account/infrastructure/postgres"
	bookingapp "github.com/dmehra2102/Marketplace-Booking-System/internal/booking/application"
	bookingmemory "github.com/dmehra2102/Marketplace-Booking-System/internal/booking/infrastructure/memory"
	bookingpg "github.com/dmehra2102/Marketplace-Booking-System/internal/booking/infrastructure/postgres"
	"github.com/dmehra2102/Marketplace-Booking-System/internal/config"
	invapp "github.com/dmehra2102/Marketplace-Booking-System/internal/inventory/application"
	invmemory "github.com/dmehra2102/Marketplace-Booking-System/internal/inventory/infrastructure/memory"
	invpg "github.com/dmehra2102/Marketplace-Booking-System/internal/inventory/infrastructure/postgres"
	platformpg "github.com/dmehra2102/Marketplace-Booking-System/internal/platform/postgres"
	"github.com/dmehra2102/Marketplace-Booking-System/pkg/outbox"
)

type stores struct {
	products invapp.ProductRepository
	ledger   bookingapp.Ledger
	accounts accountapp.Repository
	// outbox is nil for the memory driver, which publishes no events.
	outbox outbox.Store
	close  func()
}

func openStores(ctx context.Context, log *slog.Logger, cfg config.Config) (stores, error) {
	if cfg.StoreDriver == "memory" {
		log.Warn("using in-memory store, data is lost on restart")
		products := invmemory.New()
		return stores{
			products: products,
			ledger:   bookingmemory.NewLedger(products),
			accounts: accountmemory.NewRepository(),
			close:    func() {},
		}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.PGURL)
	if err != nil {
		return stores{}, fmt.Errorf("pg connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return stores{}, fmt.Errorf("pg ping: %w", err)
	}
	if err := platformpg.Migrate(ctx, pool); err != nil {
		pool.Close()
		return stores{}, fmt.Errorf("migrate: %w", err)
	}
	return stores{
		products: invpg.NewRepository(log, pool),
		ledger:   bookingpg.NewLedger(log, pool),
		accounts: accountpg.NewRepository(log, pool),
		outbox:   platformpg.NewOutboxStore(log, pool),
		close:    pool.Close,
	}, nil
}
