package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/Marketplace-Booking-System/internal/booking/application"
	"github.com/dmehra2102/Marketplace-Booking-System/internal/booking/domain"
	inventory "github.com/dmehra2102/Marketplace-Booking-System/internal/inventory/domain"
	"github.com/dmehra2102/Marketplace-Booking-System/pkg/authn"
	"github.com/dmehra2102/Marketplace-Booking-System/pkg/httpx"
)

const idempotencyHeader = "Idempotency-Key"

// Deduper remembers client supplied idempotency keys.
type Deduper interface {
	RequestKey(operation, principal, clientKey string) string
	Seen(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type Handler struct {
	log     *slog.Logger
	service *application.Service
	auth    *authn.Issuer
	dedupe  Deduper
	tracer  trace.Tracer
}

// NewHandler builds the booking endpoints. dedupe may be nil, in which case
// Idempotency-Key headers are ignored.
func NewHandler(log *slog.Logger, service *application.Service, auth *authn.Issuer, dedupe Deduper) *Handler {
	return &Handler{
		log:     log,
		service: service,
		auth:    auth,
		dedupe:  dedupe,
		tracer:  otel.Tracer("booking-http"),
	}
}

func (h *Handler) Register(r chi.Router) {
	r.With(h.auth.Require("customer")).Post("/bookings", h.book)
	r.With(h.auth.Require("customer")).Get("/bookings", h.customerBookings)
	r.With(h.auth.Require("storekeeper")).Get("/storekeeper/bookings", h.storekeeperBookings)
}

type lineReq struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type bookReq struct {
	Lines    []lineReq           `json:"lines"`
	Location *inventory.Location `json:"location"`
}

type outcomeResp struct {
	Line      int           `json:"line"`
	ProductID string        `json:"product_id"`
	Quantity  int           `json:"quantity"`
	Status    domain.Status `json:"status"`
	NewStock  *int          `json:"new_stock,omitempty"`
	Deleted   bool          `json:"deleted,omitempty"`
	Available *int          `json:"available,omitempty"`
	BookingID string        `json:"booking_id,omitempty"`
	Detail    string        `json:"detail,omitempty"`
}

func toOutcomeResp(o domain.Outcome) outcomeResp {
	out := outcomeResp{
		Line:      o.Line,
		ProductID: o.ProductID,
		Quantity:  o.Quantity,
		Status:    o.Status,
		Deleted:   o.Deleted,
		BookingID: o.BookingID,
		Detail:    o.Detail,
	}
	switch o.Status {
	case domain.StatusApplied:
		if !o.Deleted {
			stock := o.NewStock
			out.NewStock = &stock
		}
	case domain.StatusInsufficientStock:
		available := o.Available
		out.Available = &available
	}
	return out
}

func (h *Handler) book(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SubmitBooking")
	defer span.End()

	claims, _ := authn.FromContext(ctx)

	var req bookReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	key := ""
	if clientKey := r.Header.Get(idempotencyHeader); clientKey != "" && h.dedupe != nil {
		key = h.dedupe.RequestKey("book", claims.Email, clientKey)
		seen, err := h.dedupe.Seen(ctx, key)
		if err != nil {
			h.log.Error("idempotency check failed", "key", key, "err", err)
			httpx.WriteError(w, http.StatusServiceUnavailable, "unavailable", "idempotency store unavailable")
			return
		}
		if seen {
			httpx.WriteError(w, http.StatusConflict, "duplicate_request", "a booking with this Idempotency-Key was already submitted")
			return
		}
	}

	cart := domain.Cart{
		CustomerEmail:    claims.Email,
		CustomerLocation: req.Location,
		Lines:            make([]domain.Line, 0, len(req.Lines)),
	}
	for _, l := range req.Lines {
		cart.Lines = append(cart.Lines, domain.Line{ProductID: l.ProductID, Quantity: l.Quantity})
	}

	res, err := h.service.Book(ctx, cart)
	if err != nil {
		h.release(key)
		h.writeErr(w, err)
		return
	}
	applied := res.Count(domain.StatusApplied)
	span.SetAttributes(attribute.Int("booking.applied", applied))
	if applied == 0 {
		h.release(key)
	}

	outcomes := make([]outcomeResp, 0, len(res.Outcomes))
	for _, o := range res.Outcomes {
		outcomes = append(outcomes, toOutcomeResp(o))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"outcomes": outcomes,
		"applied":  applied,
	})
}

// release frees a key after a request that changed nothing, so the client can retry it.
func (h *Handler) release(key string) {
	if key == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.dedupe.Release(ctx, key); err != nil {
		h.log.Warn("idempotency release failed", "key", key, "err", err)
	}
}

type bookingResp struct {
	ID               string              `json:"id"`
	ProductID        string              `json:"product_id"`
	ProductName      string              `json:"product_name"`
	Quantity         int                 `json:"quantity"`
	UnitPrice        float64             `json:"unit_price"`
	Total            float64             `json:"total"`
	CustomerEmail    string              `json:"customer_email"`
	CustomerLocation *inventory.Location `json:"customer_location,omitempty"`
	StorekeeperEmail string              `json:"storekeeper_email"`
	StorekeeperName  string              `json:"storekeeper_name"`
	CreatedAt        time.Time           `json:"created_at"`
}

func toBookingResps(bs []domain.Booking) []bookingResp {
	out := make([]bookingResp, 0, len(bs))
	for _, b := range bs {
		out = append(out, bookingResp{
			ID:               b.ID,
			ProductID:        b.ProductID,
			ProductName:      b.ProductName,
			Quantity:         b.Quantity,
			UnitPrice:        float64(b.UnitPriceCents) / 100,
			Total:            float64(b.TotalCents()) / 100,
			CustomerEmail:    b.CustomerEmail,
			CustomerLocation: b.CustomerLocation,
			StorekeeperEmail: b.StorekeeperEmail,
			StorekeeperName:  b.StorekeeperName,
			CreatedAt:        b.CreatedAt,
		})
	}
	return out
}

func (h *Handler) customerBookings(w http.ResponseWriter, r *http.Request) {
	claims, _ := authn.FromContext(r.Context())
	bs, err := h.service.CustomerBookings(r.Context(), claims.Email)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"bookings": toBookingResps(bs)})
}

func (h *Handler) storekeeperBookings(w http.ResponseWriter, r *http.Request) {
	claims, _ := authn.FromContext(r.Context())
	bs, err := h.service.StorekeeperBookings(r.Context(), claims.Email)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"bookings": toBookingResps(bs)})
}

func (h *Handler) writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrEmptyCart):
		httpx.WriteError(w, http.StatusBadRequest, "empty_cart", err.Error())
	case inventory.IsValidation(err):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		h.log.Error("booking request failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}
