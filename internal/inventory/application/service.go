package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/Marketplace-Booking-System/internal/inventory/domain"
)

type Service struct {
	log       *slog.Logger
	repo      ProductRepository
	gate      AdmissionGate
	directory StorekeeperDirectory
	tracer    trace.Tracer
}

func NewService(log *slog.Logger, repo ProductRepository, gate AdmissionGate, directory StorekeeperDirectory) *Service {
	return &Service{
		log:       log,
		repo:      repo,
		gate:      gate,
		directory: directory,
		tracer:    otel.Tracer("inventory-service"),
	}
}

// CreateProduct runs the submission past the admission gate and stores it with the inferred
// stock unit. Anything short of an explicit acceptance yields ErrInvalidProduct.
func (s *Service) CreateProduct(ctx context.Context, n domain.NewProduct) (domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "CreateProduct")
	defer span.End()

	if err := n.Validate(); err != nil {
		return domain.Product{}, err
	}

	verdict := s.gate.Admit(ctx, strings.TrimSpace(n.Name))
	span.SetAttributes(attribute.String("admission.outcome", verdict.Outcome.String()))
	if !verdict.Admitted() {
		s.log.Info("product rejected by admission gate",
			"name", n.Name,
			"storekeeper", n.StorekeeperEmail,
			"outcome", verdict.Outcome.String(),
			"reason", verdict.Reason,
		)
		return domain.Product{}, domain.ErrInvalidProduct
	}

	p, err := s.repo.Create(ctx, n.Admit(verdict.Unit))
	if err != nil {
		return domain.Product{}, fmt.Errorf("create product: %w", err)
	}
	s.log.Info("product created", "product_id", p.ID, "name", p.Name, "stock", p.Stock, "unit", p.StockUnit)
	return p, nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	id, err := domain.ParseID(id)
	if err != nil {
		return domain.Product{}, err
	}
	return s.repo.Get(ctx, id)
}

// ListByStorekeeper returns the storekeeper's current products. An empty result is valid;
// an email that belongs to no storekeeper is ErrStorekeeperNotFound.
func (s *Service) ListByStorekeeper(ctx context.Context, email string) ([]domain.Product, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, domain.NewValidationError("storekeeper_email", "is required")
	}
	ok, err := s.directory.StorekeeperExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup storekeeper: %w", err)
	}
	if !ok {
		return nil, domain.ErrStorekeeperNotFound
	}
	products, err := s.repo.ListByStorekeeper(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if products == nil {
		products = []domain.Product{}
	}
	return products, nil
}

type SearchQuery struct {
	Name string
	// Near restricts results to products located within RadiusMeters of it. Products with no
	// known location are excluded when Near is set.
	Near         *domain.Location
	RadiusMeters float64
}

func (s *Service) Search(ctx context.Context, q SearchQuery) ([]domain.Product, error) {
	name := strings.TrimSpace(q.Name)
	if name == "" {
		return nil, domain.NewValidationError("query", "is required")
	}
	if q.Near != nil {
		if err := q.Near.Validate(); err != nil {
			return nil, err
		}
	}

	found, err := s.repo.Search(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	if q.Near != nil {
		radius := q.RadiusMeters
		if radius <= 0 {
			radius = domain.DefaultNearbyRadius
		}
		nearby := found[:0]
		for _, p := range found {
			if p.Location != nil && domain.DistanceMeters(*q.Near, *p.Location) <= radius {
				nearby = append(nearby, p)
			}
		}
		found = nearby
	}
	if len(found) == 0 {
		return nil, domain.ErrNoMatches
	}
	return found, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	id, err := domain.ParseID(id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("product deleted", "product_id", id)
	return nil
}

// SetStock overwrites a product's stock. Zero removes the product.
func (s *Service) SetStock(ctx context.Context, id string, stock int) (domain.StockChange, error) {
	id, err := domain.ParseID(id)
	if err != nil {
		return domain.StockChange{}, err
	}
	if stock < 0 {
		return domain.StockChange{}, domain.NewValidationError("stock", "must not be negative")
	}
	if stock > domain.MaxStock {
		return domain.StockChange{}, domain.NewValidationError("stock", "is too large")
	}
	change, err := s.repo.SetStock(ctx, id, stock)
	if err != nil {
		return domain.StockChange{}, err
	}
	s.log.Info("stock set", "product_id", id, "stock", change.NewStock, "deleted", change.Deleted)
	return change, nil
}

// BroadcastLocation stamps loc on every product of the storekeeper. An invalid location is
// rejected before any write so a bad fix never overwrites a good one.
func (s *Service) BroadcastLocation(ctx context.Context, storekeeperEmail string, loc domain.Location) (int64, error) {
	email := strings.ToLower(strings.TrimSpace(storekeeperEmail))
	if email == "" {
		return 0, domain.NewValidationError("email", "is required")
	}
	if err := loc.Validate(); err != nil {
		return 0, err
	}
	n, err := s.repo.SetLocation(ctx, email, loc)
	if err != nil {
		return 0, fmt.Errorf("set location: %w", err)
	}
	s.log.Debug("location updated", "storekeeper", email, "products", n)
	return n, nil
}
