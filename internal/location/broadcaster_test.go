package location

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/Marketplace-Booking-System/internal/inventory/domain"
	"github.com/dmehra2102/Marketplace-Booking-System/pkg/logging"
)

type fakeProducer struct {
	mu    sync.Mutex
	msgs  []kafka.Message
	fails int
}

func (p *fakeProducer) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fails > 0 {
		p.fails--
		return errors.New("broker not available")
	}
	p.msgs = append(p.msgs, msgs...)
	return nil
}

func (p *fakeProducer) sent() []kafka.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]kafka.Message(nil), p.msgs...)
}

type positionFunc func(ctx context.Context) (domain.Location, error)

func (f positionFunc) Position(ctx context.Context) (domain.Location, error) { return f(ctx) }

func TestTickPublishesFix(t *testing.T) {
	prod := &fakeProducer{fails: 1}
	pos := positionFunc(func(context.Context) (domain.Location, error) {
		return domain.Location{Latitude: 12.97, Longitude: 77.59}, nil
	})
	b := NewBroadcaster(logging.Discard(), "Shop@Mail.com", pos, NewKafkaPublisher(prod, "storekeeper.locations"), time.Second)

	require.True(t, b.Tick(context.Background()))

	msgs := prod.sent()
	require.Len(t, msgs, 1, "publish retries after a transient failure")
	assert.Equal(t, "storekeeper.locations", msgs[0].Topic)
	assert.Equal(t, "shop@mail.com", string(msgs[0].Key))

	var fix Fix
	require.NoError(t, json.Unmarshal(msgs[0].Value, &fix))
	assert.Equal(t, domain.Location{Latitude: 12.97, Longitude: 77.59}, fix.Location())
	assert.False(t, fix.ObservedAt.IsZero())
}

func TestTickSkipsWhenPositionUnavailable(t *testing.T) {
	prod := &fakeProducer{}
	failing := positionFunc(func(context.Context) (domain.Location, error) {
		return domain.Location{}, errors.New("gps off")
	})
	b := NewBroadcaster(logging.Discard(), "shop@mail.com", failing, NewKafkaPublisher(prod, "t"), time.Second)
	assert.False(t, b.Tick(context.Background()))

	outOfRange := positionFunc(func(context.Context) (domain.Location, error) {
		return domain.Location{Latitude: 300}, nil
	})
	b = NewBroadcaster(logging.Discard(), "shop@mail.com", outOfRange, NewKafkaPublisher(prod, "t"), time.Second)
	assert.False(t, b.Tick(context.Background()))

	assert.Empty(t, prod.sent())
}

func TestRunStopsWithContext(t *testing.T) {
	prod := &fakeProducer{}
	pos := positionFunc(func(context.Context) (domain.Location, error) {
		return domain.Location{Latitude: 1, Longitude: 2}, nil
	})
	b := NewBroadcaster(logging.Discard(), "shop@mail.com", pos, NewKafkaPublisher(prod, "t"), 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 55*time.Millisecond)
	defer cancel()
	require.NoError(t, b.Run(ctx))
	assert.GreaterOrEqual(t, len(prod.sent()), 2)
}

func TestHTTPPositioner(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"latitude":48.85,"longitude":2.35}`))
	}))
	defer srv.Close()

	loc, err := NewHTTPPositioner(srv.URL + "/position").Position(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.Location{Latitude: 48.85, Longitude: 2.35}, loc)

	_, err = NewHTTPPositioner(srv.URL + "/broken").Position(context.Background())
	assert.Error(t, err)
}
