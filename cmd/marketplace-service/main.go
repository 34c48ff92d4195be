package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	accountapp "github.com/dmehra2102/Marketplace-Booking-System/internal/account/application"
	accounthttp "github.com/dmehra2102/Marketplace-Booking-System/internal/account/infrastructure/http"
	"github.com/dmehra2102/Marketplace-Booking-System/internal/admission"
	bookingapp "github.com/dmehra2102/Marketplace-Booking-System/internal/booking/application"
	bookinghttp "github.com/dmehra2102/Marketplace-Booking-System/internal/booking/infrastructure/http"
	"github.com/dmehra2102/Marketplace-Booking-System/internal/config"
	invapp "github.com/dmehra2102/Marketplace-Booking-System/internal/inventory/application"
	invgrpc "github.com/dmehra2102/Marketplace-Booking-System/internal/inventory/infrastructure/grpc"
	invhttp "github.com/dmehra2102/Marketplace-Booking-System/internal/inventory/infrastructure/http"
	invkafka "github.com/dmehra2102/Marketplace-Booking-System/internal/inventory/infrastructure/kafka"
	platformkafka "github.com/dmehra2102/Marketplace-Booking-System/internal/platform/kafka"
	"github.com/dmehra2102/Marketplace-Booking-System/pkg/authn"
	"github.com/dmehra2102/Marketplace-Booking-System/pkg/httpx"
	"github.com/dmehra2102/Marketplace-Booking-System/pkg/idempotency"
	"github.com/dmehra2102/Marketplace-Booking-System/pkg/logging"
	"github.com/dmehra2102/Marketplace-Booking-System/pkg/outbox"
	"github.com/dmehra2102/Marketplace-Booking-System/pkg/shutdown"
	"github.com/dmehra2102/Marketplace-Booking-System/pkg/tracing"
)

func main() {
	ctx, cancel := shutdown.WithSignals(context.Background())
	err := run(ctx)
	cancel()
	if err != nil {
		logging.New().Error("marketplace-service failed", "err", err)
		os.Exit(1)
	}
}

// run serves until ctx is cancelled or a server fails. Every resource it opens is released
// before it returns.
func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config load: %w", err)
	}
	log := logging.NewWithLevel(cfg.LogLevel)
	if cfg.InsecureSecret() {
		log.Warn("TOKEN_SECRET is unset, session tokens are signed with the built-in development secret")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tp, err := tracing.Init(ctx, "marketplace-service", cfg.OTLPEndpoint, log)
	if err != nil {
		return fmt.Errorf("otel init: %w", err)
	}
	defer func() { _ = shutdown.Drain(cfg.ShutdownTimeout, tp.Shutdown) }()

	st, err := openStores(ctx, log, cfg)
	if err != nil {
		return fmt.Errorf("store init (%s): %w", cfg.StoreDriver, err)
	}
	defer st.close()

	var (
		rdb    *redis.Client
		dedupe bookinghttp.Deduper
		idem   *idempotency.Store
	)
	if config.Enabled(cfg.RedisAddr) {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		idem = idempotency.NewStore(rdb, cfg.IdempotencyTTL)
		dedupe = idem
	}

	var gate admission.Gate = admission.NewGeminiClient(log, admission.GeminiConfig{
		APIKey:  cfg.Admission.APIKey,
		BaseURL: cfg.Admission.BaseURL,
		Model:   cfg.Admission.Model,
		Timeout: cfg.Admission.Timeout,
	})
	if rdb != nil {
		gate = admission.NewCachedGate(log, rdb, gate, cfg.Admission.CacheTTL)
	}

	issuer := authn.NewIssuer(cfg.TokenSecret, cfg.TokenTTL)
	accounts := accountapp.NewService(log, st.accounts, issuer)
	inventory := invapp.NewService(log, st.products, gate, accounts)
	bookings, err := bookingapp.NewService(log, st.products, st.ledger)
	if err != nil {
		return fmt.Errorf("booking service init: %w", err)
	}

	var workers sync.WaitGroup

	// Outbox relay and location ingest
	if config.Enabled(cfg.KafkaAddr) {
		brokers := platformkafka.Brokers(cfg.KafkaAddr)

		if st.outbox != nil {
			writer := platformkafka.NewWriter(brokers)
			defer writer.Close()
			dispatch := outbox.NewDispatcher(log, writer, cfg.BookingTopic)
			relay := outbox.NewRelay(log, st.outbox, dispatch, "marketplace-relay-"+uuid.NewString()[:8],
				outbox.WithInterval(cfg.OutboxInterval))
			workers.Add(1)
			go func() {
				defer workers.Done()
				if err := relay.Run(ctx); err != nil {
					log.Error("relay stopped", "err", err)
				}
			}()
		}

		if idem != nil {
			reader := invkafka.NewReader(brokers, cfg.LocationTopic, cfg.LocationGroup)
			consumer := invkafka.NewLocationConsumer(log, reader, inventory, idem)
			workers.Add(1)
			go func() {
				defer workers.Done()
				if err := consumer.Run(ctx); err != nil {
					log.Error("location consumer stopped", "err", err)
				}
			}()
		} else {
			log.Warn("location consumer disabled: needs redis for idempotency")
		}
	}

	// Workers stop before the writer, Redis client and stores they use are closed.
	defer func() {
		cancel()
		workers.Wait()
	}()

	// gRPC server
	gs, err := invgrpc.Run(cfg.GRPCAddr, invgrpc.NewServer(log, bookings))
	if err != nil {
		return fmt.Errorf("grpc server: %w", err)
	}
	defer gs.GracefulStop()

	// HTTP server
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, httpx.RequestLogger(log), middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	accounthttp.NewHandler(log, accounts).Register(r)
	invhttp.NewHandler(log, inventory, issuer, accounts).Register(r)
	bookinghttp.NewHandler(log, bookings, issuer, dedupe).Register(r)

	lis, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return fmt.Errorf("http listen: %w", err)
	}
	srv := &http.Server{
		Handler:      otelhttp.NewHandler(r, "marketplace-http"),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		log.Info("http listening", "addr", lis.Addr().String(), "grpc_addr", cfg.GRPCAddr, "driver", cfg.StoreDriver)
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err = <-serveErr:
		err = fmt.Errorf("http server: %w", err)
	}
	cancel()

	if derr := shutdown.Drain(cfg.ShutdownTimeout, srv.Shutdown); derr != nil {
		log.Error("http shutdown failed", "err", derr)
	}
	log.Info("marketplace-service shutdown complete")
	return err
}
