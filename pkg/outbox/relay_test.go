package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/Marketplace-Booking-System/pkg/logging"
)

type fakeStore struct {
	mu      sync.Mutex
	pending []Event
	sent    []int64
	failed  map[int64]string
}

func (s *fakeStore) LockBatch(_ context.Context, _ string, batchSize int, _ time.Duration) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := min(batchSize, len(s.pending))
	batch := s.pending[:n]
	s.pending = s.pending[n:]
	return batch, nil
}

func (s *fakeStore) MarkSent(_ context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, ids...)
	return nil
}

func (s *fakeStore) MarkFailed(_ context.Context, id int64, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failed == nil {
		s.failed = map[int64]string{}
	}
	s.failed[id] = errMsg
	return nil
}

func (s *fakeStore) ExtendLease(context.Context, string, []int64, time.Duration) error { return nil }

type fakeProducer struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	failOn string
}

func (p *fakeProducer) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, m := range msgs {
		if string(m.Key) == p.failOn {
			return errors.New("broker unavailable")
		}
	}
	p.msgs = append(p.msgs, msgs...)
	return nil
}

func TestDispatcherBuildsMessage(t *testing.T) {
	p := &fakeProducer{}
	d := NewDispatcher(logging.Discard(), p, "booking.events")

	err := d.Dispatch(context.Background(), Event{
		ID:          7,
		AggregateID: "prod-1",
		Type:        "BookingPlaced",
		Payload:     []byte(`{"ok":true}`),
		Headers:     map[string]string{"source": "marketplace-service"},
		Traceparent: "00-abc-def-01",
	})
	require.NoError(t, err)
	require.Len(t, p.msgs, 1)

	msg := p.msgs[0]
	assert.Equal(t, "booking.events", msg.Topic)
	assert.Equal(t, "prod-1", string(msg.Key))
	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "BookingPlaced", headers["event_type"])
	assert.Equal(t, "00-abc-def-01", headers["traceparent"])
	assert.Equal(t, "marketplace-service", headers["source"])
}

func TestRelayTickMarksSentAndFailed(t *testing.T) {
	store := &fakeStore{pending: []Event{
		{ID: 1, AggregateID: "a"},
		{ID: 2, AggregateID: "bad"},
		{ID: 3, AggregateID: "c"},
	}}
	p := &fakeProducer{failOn: "bad"}
	r := NewRelay(logging.Discard(), store, NewDispatcher(logging.Discard(), p, "t"), "relay-1", WithBatchSize(10))

	r.tick(context.Background())

	assert.Equal(t, []int64{1, 3}, store.sent)
	assert.Contains(t, store.failed, int64(2))
	assert.Len(t, p.msgs, 2)
}

func TestRelayRunStopsOnCancel(t *testing.T) {
	store := &fakeStore{pending: []Event{{ID: 1, AggregateID: "a"}}}
	p := &fakeProducer{}
	r := NewRelay(logging.Discard(), store, NewDispatcher(logging.Discard(), p, "t"), "relay-1", WithInterval(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return len(store.sent) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}
