package location

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/dmehra2102/Marketplace-Booking-System/internal/inventory/domain"
)

type Positioner interface {
	Position(ctx context.Context) (domain.Location, error)
}

// HTTPPositioner reads {"latitude": .., "longitude": ..} from a positioning endpoint.
type HTTPPositioner struct {
	url    string
	client *http.Client
}

func NewHTTPPositioner(url string) *HTTPPositioner {
	return &HTTPPositioner{
		url:    url,
		client: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
}

func (p *HTTPPositioner) Position(ctx context.Context) (domain.Location, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return domain.Location{}, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return domain.Location{}, fmt.Errorf("positioning request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return domain.Location{}, fmt.Errorf("positioning returned status %d", resp.StatusCode)
	}
	var loc domain.Location
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&loc); err != nil {
		return domain.Location{}, fmt.Errorf("decode position: %w", err)
	}
	return loc, nil
}
