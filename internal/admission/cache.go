package admission

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmehra2102/Marketplace-Booking-System/internal/inventory/domain"
)

// CachedGate memoises definitive verdicts in Redis. Unavailable verdicts are never cached, and
// a Redis failure simply falls through to the wrapped gate.
type CachedGate struct {
	log  *slog.Logger
	rdb  redis.Cmdable
	next Gate
	ttl  time.Duration
}

func NewCachedGate(log *slog.Logger, rdb redis.Cmdable, next Gate, ttl time.Duration) *CachedGate {
	return &CachedGate{log: log, rdb: rdb, next: next, ttl: ttl}
}

const rejectedMarker = "rejected"

func cacheKey(name string) string {
	return "admission:" + strings.ToLower(strings.TrimSpace(name))
}

func (g *CachedGate) Admit(ctx context.Context, name string) Verdict {
	key := cacheKey(name)
	cached, err := g.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		if v, ok := decodeCached(cached); ok {
			return v
		}
	case !errors.Is(err, redis.Nil):
		g.log.Warn("admission cache read failed", "key", key, "err", err)
	}

	v := g.next.Admit(ctx, name)
	if v.Outcome == OutcomeUnavailable {
		return v
	}
	if err := g.rdb.Set(ctx, key, encodeCached(v), g.ttl).Err(); err != nil {
		g.log.Warn("admission cache write failed", "key", key, "err", err)
	}
	return v
}

func encodeCached(v Verdict) string {
	if v.Outcome == OutcomeAccepted {
		return "accepted:" + string(v.Unit)
	}
	return rejectedMarker
}

func decodeCached(s string) (Verdict, bool) {
	if s == rejectedMarker {
		return Rejected("cached rejection"), true
	}
	unit, ok := strings.CutPrefix(s, "accepted:")
	if !ok || !domain.StockUnit(unit).Valid() {
		return Verdict{}, false
	}
	return Accepted(domain.StockUnit(unit)), true
}
