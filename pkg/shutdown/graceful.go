package shutdown

import (
	"context"
	"os/signal"
	"syscall"
	"time"
)

// WithSignals cancels the returned context on SIGINT or SIGTERM.
func WithSignals(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
}

// Drain runs stop with a fresh context bounded by timeout, for use after the signal context
// is already canceled.
func Drain(timeout time.Duration, stop func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return stop(ctx)
}
