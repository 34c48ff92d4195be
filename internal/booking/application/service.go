package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/Marketplace-Booking-System/internal/booking/domain"
	inventory "github.com/dmehra2102/Marketplace-Booking-System/internal/inventory/domain"
)

type Service struct {
	log       *slog.Logger
	validator *Validator
	mutator   *Mutator
	ledger    Ledger
	tracer    trace.Tracer
	outcomes  metric.Int64Counter
}

func NewService(log *slog.Logger, products ProductReader, ledger Ledger) (*Service, error) {
	outcomes, err := otel.Meter("booking-service").Int64Counter("booking.line.outcomes",
		metric.WithDescription("Booking lines by outcome status"))
	if err != nil {
		return nil, fmt.Errorf("create outcome counter: %w", err)
	}
	return &Service{
		log:       log,
		validator: NewValidator(products),
		mutator:   NewMutator(log, ledger),
		ledger:    ledger,
		tracer:    otel.Tracer("booking-service"),
		outcomes:  outcomes,
	}, nil
}

// Book validates the cart and applies every fulfillable line. The error is non-nil only
// when the cart itself is malformed; per-line failures are reported in the result.
func (s *Service) Book(ctx context.Context, cart domain.Cart) (domain.Result, error) {
	ctx, span := s.tracer.Start(ctx, "Book")
	defer span.End()

	cart, err := cart.Normalize()
	if err != nil {
		return domain.Result{}, err
	}
	if cart.CustomerEmail == "" {
		return domain.Result{}, inventory.NewValidationError("customer_email", "is required")
	}
	span.SetAttributes(attribute.Int("booking.lines", len(cart.Lines)))

	res := s.mutator.Apply(ctx, cart, s.validator.Validate(ctx, cart))
	for _, o := range res.Outcomes {
		s.outcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(o.Status))))
	}
	s.log.Info("booking processed",
		"customer", cart.CustomerEmail,
		"lines", len(res.Outcomes),
		"applied", res.Count(domain.StatusApplied),
	)
	return res, nil
}

// Preview reports which lines of cart could be fulfilled right now without touching stock.
func (s *Service) Preview(ctx context.Context, cart domain.Cart) (domain.Result, error) {
	cart, err := cart.Normalize()
	if err != nil {
		return domain.Result{}, err
	}
	checks := s.validator.Validate(ctx, cart)
	res := domain.Result{Outcomes: make([]domain.Outcome, len(checks))}
	for i, c := range checks {
		res.Outcomes[i] = domain.Outcome{
			Line:      c.Index,
			ProductID: c.Line.ProductID,
			Quantity:  c.Line.Quantity,
			Status:    c.Status,
			Available: c.Available,
		}
	}
	return res, nil
}

func (s *Service) CustomerBookings(ctx context.Context, email string) ([]domain.Booking, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, inventory.NewValidationError("email", "is required")
	}
	return s.ledger.ByCustomer(ctx, email)
}

func (s *Service) StorekeeperBookings(ctx context.Context, email string) ([]domain.Booking, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, inventory.NewValidationError("email", "is required")
	}
	return s.ledger.ByStorekeeper(ctx, email)
}
