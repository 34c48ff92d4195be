package kafka

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/Marketplace-Booking-System/internal/inventory/domain"
	"github.com/dmehra2102/Marketplace-Booking-System/internal/location"
	"github.com/dmehra2102/Marketplace-Booking-System/pkg/idempotency"
	"github.com/dmehra2102/Marketplace-Booking-System/pkg/tracing"
)

type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type LocationSink interface {
	BroadcastLocation(ctx context.Context, storekeeperEmail string, loc domain.Location) (int64, error)
}

// LocationConsumer applies storekeeper location fixes to their products.
type LocationConsumer struct {
	log    *slog.Logger
	reader Reader
	sink   LocationSink
	idem   *idempotency.Store
	tracer trace.Tracer
}

func NewReader(brokers []string, topic, group string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: group,
	})
}

func NewLocationConsumer(log *slog.Logger, reader Reader, sink LocationSink, idem *idempotency.Store) *LocationConsumer {
	return &LocationConsumer{
		log:    log,
		reader: reader,
		sink:   sink,
		idem:   idem,
		tracer: otel.Tracer("location-consumer"),
	}
}

// Run consumes until ctx is cancelled or the reader fails. Every fetched message is
// committed: a fix that cannot be applied is superseded by the next one anyway.
func (c *LocationConsumer) Run(ctx context.Context) error {
	defer c.reader.Close()
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		c.handle(ctx, msg)
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.log.Error("commit failed", "topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "err", err)
		}
	}
}

func (c *LocationConsumer) handle(ctx context.Context, msg kafka.Message) {
	key := c.idem.Key(msg.Topic, msg.Partition, msg.Offset)
	seen, err := c.idem.Seen(ctx, key)
	if err != nil {
		// Applying a fix twice is harmless, so a broken idempotency store does not stop ingest.
		c.log.Warn("idempotency check failed", "key", key, "err", err)
	}
	if seen {
		c.log.Info("duplicate message skipped", "key", key)
		return
	}

	msgCtx := tracing.ExtractKafkaHeaders(ctx, msg.Headers)
	msgCtx, span := c.tracer.Start(msgCtx, "ConsumeLocationFix")
	defer span.End()

	var fix location.Fix
	if err := json.Unmarshal(msg.Value, &fix); err != nil {
		c.log.Error("unmarshal failed, dropping message", "offset", msg.Offset, "err", err)
		return
	}
	span.SetAttributes(attribute.String("storekeeper.email", fix.Email))

	n, err := c.sink.BroadcastLocation(msgCtx, fix.Email, fix.Location())
	switch {
	case domain.IsValidation(err):
		c.log.Warn("invalid location fix dropped", "email", fix.Email, "err", err)
	case err != nil:
		c.log.Error("location update failed", "email", fix.Email, "err", err)
		if err := c.idem.Release(ctx, key); err != nil {
			c.log.Warn("idempotency release failed", "key", key, "err", err)
		}
	default:
		c.log.Debug("location applied", "email", fix.Email, "products", n)
	}
}
