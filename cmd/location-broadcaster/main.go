package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmehra2102/Marketplace-Booking-System/internal/config"
	"github.com/dmehra2102/Marketplace-Booking-System/internal/location"
	platformkafka "github.com/dmehra2102/Marketplace-Booking-System/internal/platform/kafka"
	"github.com/dmehra2102/Marketplace-Booking-System/pkg/logging"
	"github.com/dmehra2102/Marketplace-Booking-System/pkg/shutdown"
	"github.com/dmehra2102/Marketplace-Booking-System/pkg/tracing"
)

func main() {
	ctx, cancel := shutdown.WithSignals(context.Background())
	err := run(ctx)
	cancel()
	if err != nil {
		logging.New().Error("location-broadcaster failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config load: %w", err)
	}
	log := logging.NewWithLevel(cfg.LogLevel)

	if cfg.Broadcast.StorekeeperEmail == "" || cfg.Broadcast.PositionURL == "" {
		return errors.New("STOREKEEPER_EMAIL and POSITION_URL are required")
	}
	if !config.Enabled(cfg.KafkaAddr) {
		return errors.New("KAFKA_ADDR is required")
	}

	tp, err := tracing.Init(ctx, "location-broadcaster", cfg.OTLPEndpoint, log)
	if err != nil {
		return fmt.Errorf("otel init: %w", err)
	}
	defer func() { _ = shutdown.Drain(cfg.ShutdownTimeout, tp.Shutdown) }()

	writer := platformkafka.NewWriter(platformkafka.Brokers(cfg.KafkaAddr))
	defer writer.Close()

	b := location.NewBroadcaster(log,
		cfg.Broadcast.StorekeeperEmail,
		location.NewHTTPPositioner(cfg.Broadcast.PositionURL),
		location.NewKafkaPublisher(writer, cfg.LocationTopic),
		cfg.Broadcast.Interval,
	)
	log.Info("broadcasting location", "email", cfg.Broadcast.StorekeeperEmail, "interval", cfg.Broadcast.Interval)
	if err := b.Run(ctx); err != nil {
		return fmt.Errorf("broadcaster: %w", err)
	}
	log.Info("location-broadcaster shutdown complete")
	return nil
}
