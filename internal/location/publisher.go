package location

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/segmentio/kafka-go"

	"github.com/dmehra2102/Marketplace-Booking-System/pkg/tracing"
)

type Producer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Publisher interface {
	Publish(ctx context.Context, fix Fix) error
}

type KafkaPublisher struct {
	producer Producer
	topic    string
	tries    uint
}

func NewKafkaPublisher(producer Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic, tries: 3}
}

func (p *KafkaPublisher) Publish(ctx context.Context, fix Fix) error {
	payload, err := json.Marshal(fix)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Topic:   p.topic,
		Key:     []byte(fix.Email),
		Value:   payload,
		Headers: tracing.InjectKafkaHeaders(ctx, nil),
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond
	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, p.producer.WriteMessages(ctx, msg)
	}, backoff.WithBackOff(b), backoff.WithMaxTries(p.tries))
	return err
}
