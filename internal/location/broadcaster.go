package location

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

type Broadcaster struct {
	log      *slog.Logger
	email    string
	pos      Positioner
	pub      Publisher
	interval time.Duration
	now      func() time.Time
	tracer   trace.Tracer
}

func NewBroadcaster(log *slog.Logger, email string, pos Positioner, pub Publisher, interval time.Duration) *Broadcaster {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Broadcaster{
		log:      log,
		email:    strings.ToLower(strings.TrimSpace(email)),
		pos:      pos,
		pub:      pub,
		interval: interval,
		now:      func() time.Time { return time.Now().UTC() },
		tracer:   otel.Tracer("location-broadcaster"),
	}
}

// Run broadcasts once immediately and then every interval until ctx is done.
func (b *Broadcaster) Run(ctx context.Context) error {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	b.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			b.Tick(ctx)
		}
	}
}

// Tick publishes one position. It reports whether anything was published; a failed read
// skips the tick so the last good location stays in place.
func (b *Broadcaster) Tick(ctx context.Context) bool {
	ctx, span := b.tracer.Start(ctx, "BroadcastLocation")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, b.interval)
	defer cancel()

	loc, err := b.pos.Position(ctx)
	if err == nil {
		err = loc.Validate()
	}
	if err != nil {
		b.log.Warn("position unavailable, skipping broadcast", "err", err)
		return false
	}

	fix := Fix{Email: b.email, Latitude: loc.Latitude, Longitude: loc.Longitude, ObservedAt: b.now()}
	if err := b.pub.Publish(ctx, fix); err != nil {
		b.log.Error("location publish failed", "email", b.email, "err", err)
		return false
	}
	b.log.Debug("location broadcast", "email", b.email, "maps_url", loc.MapsURL())
	return true
}
