package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/odyssey-erp/sitelayout/internal/layout"
)

// RemoteSource fetches products from an upstream catalog API.
type RemoteSource struct {
	client *resty.Client
}

type remoteProduct struct {
	ID          string  `json:"_id"`
	Name        string  `json:"name"`
	Code        string  `json:"productCode"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"image"`
}

type remoteResponse struct {
	Success bool            `json:"success"`
	Data    []remoteProduct `json:"data"`
}

// NewRemoteSource builds a client against baseURL with retries on transport
// errors and 5xx responses.
func NewRemoteSource(baseURL string, timeout time.Duration) *RemoteSource {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		}).
		SetHeader("Accept", "application/json")
	return &RemoteSource{client: client}
}

// Products implements Source.
func (s *RemoteSource) Products(ctx context.Context) ([]layout.Product, error) {
	var body remoteResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetResult(&body).
		Get("/products")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode())
	}

	products := make([]layout.Product, 0, len(body.Data))
	for _, rp := range body.Data {
		products = append(products, layout.Product{
			ID:          rp.ID,
			Name:        rp.Name,
			Code:        rp.Code,
			Category:    rp.Category,
			Description: rp.Description,
			UnitPrice:   rp.Price,
			ImageURL:    rp.ImageURL,
		})
	}
	return products, nil
}
