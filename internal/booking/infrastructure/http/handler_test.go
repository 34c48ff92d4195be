package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/Marketplace-Booking-System/internal/booking/application"
	bookingmemory "github.com/dmehra2102/Marketplace-Booking-System/internal/booking/infrastructure/memory"
	inventory "github.com/dmehra2102/Marketplace-Booking-System/internal/inventory/domain"
	invmemory "github.com/dmehra2102/Marketplace-Booking-System/internal/inventory/infrastructure/memory"
	"github.com/dmehra2102/Marketplace-Booking-System/internal/inventory/infrastructure/storetest"
	"github.com/dmehra2102/Marketplace-Booking-System/pkg/authn"
	"github.com/dmehra2102/Marketplace-Booking-System/pkg/idempotency"
	"github.com/dmehra2102/Marketplace-Booking-System/pkg/logging"
)

type env struct {
	srv    *httptest.Server
	store  *invmemory.Store
	buyer  string
	keeper string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := invmemory.New()
	svc, err := application.NewService(logging.Discard(), store, bookingmemory.NewLedger(store))
	require.NoError(t, err)

	issuer := authn.NewIssuer("secret", time.Hour)
	r := chi.NewRouter()
	NewHandler(logging.Discard(), svc, issuer, idempotency.NewStore(rdb, time.Hour)).Register(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	buyer, _, err := issuer.Issue("buyer@mail.com", "customer")
	require.NoError(t, err)
	keeper, _, err := issuer.Issue("shop@mail.com", "storekeeper")
	require.NoError(t, err)
	return &env{srv: srv, store: store, buyer: buyer, keeper: keeper}
}

func (e *env) product(t *testing.T, stock int) inventory.Product {
	t.Helper()
	p, err := e.store.Create(context.Background(), storetest.Product("Milk", "shop@mail.com", stock))
	require.NoError(t, err)
	return p
}

func (e *env) do(t *testing.T, method, path, token, body string, header map[string]string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, e.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestBookReturnsOutcomePerLine(t *testing.T) {
	e := newEnv(t)
	milk := e.product(t, 5)
	low := e.product(t, 3)

	body := `{"location":"12.97,77.59","lines":[` +
		`{"product_id":"` + milk.ID + `","quantity":5},` +
		`{"product_id":"` + low.ID + `","quantity":5},` +
		`{"product_id":"00000000-0000-0000-0000-0000000000aa","quantity":1}]}`
	status, out := e.do(t, http.MethodPost, "/bookings", e.buyer, body, nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, out["applied"])

	outcomes := out["outcomes"].([]any)
	require.Len(t, outcomes, 3)
	first := outcomes[0].(map[string]any)
	assert.Equal(t, "applied", first["status"])
	assert.Equal(t, true, first["deleted"])
	second := outcomes[1].(map[string]any)
	assert.Equal(t, "insufficient_stock", second["status"])
	assert.EqualValues(t, 3, second["available"])
	assert.Equal(t, "product_not_found", outcomes[2].(map[string]any)["status"])

	status, out = e.do(t, http.MethodGet, "/bookings", e.buyer, "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, out["bookings"], 1)

	status, out = e.do(t, http.MethodGet, "/storekeeper/bookings", e.keeper, "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, out["bookings"], 1)
}

func TestBookRejections(t *testing.T) {
	e := newEnv(t)

	status, out := e.do(t, http.MethodPost, "/bookings", e.buyer, `{"lines":[]}`, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "empty_cart", out["error"])

	status, out = e.do(t, http.MethodPost, "/bookings", e.buyer, `{"lines":[{"product_id":"x","quantity":1}]}`, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_request", out["error"])

	status, _ = e.do(t, http.MethodPost, "/bookings", e.keeper, `{"lines":[]}`, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = e.do(t, http.MethodGet, "/storekeeper/bookings", e.buyer, "", nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestBookIdempotencyKey(t *testing.T) {
	e := newEnv(t)
	p := e.product(t, 10)
	body := `{"lines":[{"product_id":"` + p.ID + `","quantity":2}]}`
	key := map[string]string{"Idempotency-Key": "k-1"}

	status, _ := e.do(t, http.MethodPost, "/bookings", e.buyer, `{"lines":[]}`, key)
	require.Equal(t, http.StatusBadRequest, status)

	status, _ = e.do(t, http.MethodPost, "/bookings", e.buyer, body, key)
	require.Equal(t, http.StatusOK, status, "a rejected request must not burn the key")

	status, out := e.do(t, http.MethodPost, "/bookings", e.buyer, body, key)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "duplicate_request", out["error"])

	got, err := e.store.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, got.Stock)
}
