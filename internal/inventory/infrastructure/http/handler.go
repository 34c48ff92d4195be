package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/Marketplace-Booking-System/internal/inventory/application"
	"github.com/dmehra2102/Marketplace-Booking-System/internal/inventory/domain"
	"github.com/dmehra2102/Marketplace-Booking-System/pkg/authn"
	"github.com/dmehra2102/Marketplace-Booking-System/pkg/httpx"
)

// NameLookup supplies a storekeeper's registered display name when a submission omits it.
type NameLookup interface {
	DisplayName(ctx context.Context, email string) (string, error)
}

type Handler struct {
	log     *slog.Logger
	service *application.Service
	auth    *authn.Issuer
	names   NameLookup
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, service *application.Service, auth *authn.Issuer, names NameLookup) *Handler {
	return &Handler{
		log:     log,
		service: service,
		auth:    auth,
		names:   names,
		tracer:  otel.Tracer("inventory-http"),
	}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/products", h.listProducts)
	r.Get("/products/{id}", h.getProduct)
	r.Get("/search", h.search)

	r.Group(func(r chi.Router) {
		r.Use(h.auth.Require("storekeeper"))
		r.Post("/products", h.createProduct)
		r.Patch("/products/{id}/stock", h.setStock)
		r.Delete("/products/{id}", h.deleteProduct)
		r.Post("/storekeeper/location", h.broadcastLocation)
	})
}

type productResp struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Price            float64          `json:"price"`
	PriceCents       int64            `json:"price_cents"`
	Stock            int              `json:"stock"`
	StockUnit        domain.StockUnit `json:"stock_unit"`
	ImageURL         string           `json:"image_url,omitempty"`
	Location         *domain.Location `json:"location,omitempty"`
	StorekeeperEmail string           `json:"storekeeper_email"`
	StorekeeperName  string           `json:"storekeeper_name"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

func toResp(p domain.Product) productResp {
	return productResp{
		ID:               p.ID,
		Name:             p.Name,
		Price:            float64(p.PriceCents) / 100,
		PriceCents:       p.PriceCents,
		Stock:            p.Stock,
		StockUnit:        p.StockUnit,
		ImageURL:         p.ImageURL,
		Location:         p.Location,
		StorekeeperEmail: p.StorekeeperEmail,
		StorekeeperName:  p.StorekeeperName,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

func toRespList(ps []domain.Product) []productResp {
	out := make([]productResp, 0, len(ps))
	for _, p := range ps {
		out = append(out, toResp(p))
	}
	return out
}

type createProductReq struct {
	Name            string           `json:"name"`
	Price           float64          `json:"price"`
	Stock           int              `json:"stock"`
	ImageURL        string           `json:"image_url"`
	Location        *domain.Location `json:"location"`
	StorekeeperName string           `json:"storekeeper_name"`
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreateProduct")
	defer span.End()

	var req createProductReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	claims, _ := authn.FromContext(ctx)

	name := strings.TrimSpace(req.StorekeeperName)
	if name == "" && h.names != nil {
		registered, err := h.names.DisplayName(ctx, claims.Email)
		if err != nil {
			h.log.Warn("display name lookup failed", "email", claims.Email, "err", err)
		}
		name = registered
	}

	p, err := h.service.CreateProduct(ctx, domain.NewProduct{
		Name:             req.Name,
		Price:            req.Price,
		Stock:            req.Stock,
		ImageURL:         req.ImageURL,
		Location:         req.Location,
		StorekeeperEmail: claims.Email,
		StorekeeperName:  name,
	})
	if err != nil {
		h.writeErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toResp(p))
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListByStorekeeper(r.Context(), r.URL.Query().Get("storekeeper_email"))
	if err != nil {
		h.writeErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"products": toRespList(products)})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toResp(p))
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := application.SearchQuery{Name: q.Get("query")}

	lat, lon := q.Get("lat"), q.Get("lon")
	if lat != "" || lon != "" {
		loc, err := domain.ParseLocation(lat + "," + lon)
		if err != nil {
			h.writeErr(w, err)
			return
		}
		query.Near = &loc
	}
	if raw := q.Get("radius"); raw != "" {
		radius, err := strconv.ParseFloat(raw, 64)
		if err != nil || radius <= 0 {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "radius must be a positive number of meters")
			return
		}
		query.RadiusMeters = radius
	}

	products, err := h.service.Search(r.Context(), query)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"products": toRespList(products)})
}

type setStockReq struct {
	Stock *int `json:"stock"`
}

func (h *Handler) setStock(w http.ResponseWriter, r *http.Request) {
	var req setStockReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.Stock == nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "stock is required")
		return
	}
	change, err := h.service.SetStock(r.Context(), chi.URLParam(r, "id"), *req.Stock)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"product_id": change.ProductID,
		"stock":      change.NewStock,
		"deleted":    change.Deleted,
	})
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type locationReq struct {
	Location *domain.Location `json:"location"`
}

func (h *Handler) broadcastLocation(w http.ResponseWriter, r *http.Request) {
	var req locationReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.Location == nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "location is required")
		return
	}
	claims, _ := authn.FromContext(r.Context())
	n, err := h.service.BroadcastLocation(r.Context(), claims.Email, *req.Location)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"updated": n, "location": req.Location})
}

func (h *Handler) writeErr(w http.ResponseWriter, err error) {
	switch {
	case domain.IsValidation(err):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "product_not_found", err.Error())
	case errors.Is(err, domain.ErrStorekeeperNotFound):
		httpx.WriteError(w, http.StatusNotFound, "storekeeper_not_found", err.Error())
	case errors.Is(err, domain.ErrNoMatches):
		httpx.WriteError(w, http.StatusNotFound, "no_matches", err.Error())
	case errors.Is(err, domain.ErrInvalidProduct):
		httpx.WriteError(w, http.StatusUnprocessableEntity, "invalid_product", err.Error())
	default:
		h.log.Error("inventory request failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}
