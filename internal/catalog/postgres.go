package catalog

import (
	"context"
	"fmt"

	"github.com/odyssey-erp/sitelayout/internal/layout"
	"github.com/odyssey-erp/sitelayout/internal/platform/db"
)

const listProductsSQL = `
	SELECT p.id::text, p.code, p.name, COALESCE(c.name, ''), COALESCE(p.description, ''),
	       p.price::float8, COALESCE(p.image_url, '')
	FROM products p
	LEFT JOIN categories c ON c.id = p.category_id
	WHERE p.is_active
	ORDER BY p.name, p.id`

// PostgresSource reads products joined with their category names.
type PostgresSource struct {
	db db.Querier
}

// NewPostgresSource constructs a PostgresSource.
func NewPostgresSource(q db.Querier) *PostgresSource {
	return &PostgresSource{db: q}
}

// Products implements Source.
func (s *PostgresSource) Products(ctx context.Context) ([]layout.Product, error) {
	rows, err := s.db.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("catalog: query products: %w", err)
	}
	defer rows.Close()

	var products []layout.Product
	for rows.Next() {
		var p layout.Product
		if err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.Category, &p.Description, &p.UnitPrice, &p.ImageURL); err != nil {
			return nil, fmt.Errorf("catalog: scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
