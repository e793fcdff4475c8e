// Package catalog supplies read-only product records to the site map
// service. Products come from Postgres or a remote catalog API and are cached
// in Redis.
package catalog

import (
	"context"
	"fmt"

	"github.com/odyssey-erp/sitelayout/internal/layout"
	"github.com/odyssey-erp/sitelayout/internal/platform/httpx"
)

var (
	// ErrProductNotFound is returned when a product id is not in the catalog.
	ErrProductNotFound = fmt.Errorf("catalog: product %w", httpx.ErrNotFound)
	// ErrUnavailable marks a failed upstream catalog call.
	ErrUnavailable = fmt.Errorf("catalog: %w", httpx.ErrUnavailable)
)

// Source loads the full active catalog.
type Source interface {
	Products(ctx context.Context) ([]layout.Product, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]layout.Product, error)

// Products implements Source.
func (f SourceFunc) Products(ctx context.Context) ([]layout.Product, error) { return f(ctx) }
