package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/sitelayout/internal/layout"
)

// DefaultSplitLimit caps each bucket returned by Split.
const DefaultSplitLimit = 50

// LookupRecorder observes cache hits and misses.
type LookupRecorder interface {
	CatalogLookup(hit bool)
}

// ServiceConfig wires the catalog service.
type ServiceConfig struct {
	Source     Source
	Cache      *Cache
	Classifier *layout.Classifier
	Logger     *slog.Logger
	Recorder   LookupRecorder
}

// Service serves the cached catalog. Concurrent misses share one load.
type Service struct {
	source     Source
	cache      *Cache
	classifier *layout.Classifier
	logger     *slog.Logger
	recorder   LookupRecorder
	group      singleflight.Group
}

// NewService constructs the catalog service.
func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	classifier := cfg.Classifier
	if classifier == nil {
		classifier = layout.DefaultClassifier()
	}
	return &Service{
		source:     cfg.Source,
		cache:      cfg.Cache,
		classifier: classifier,
		logger:     logger,
		recorder:   cfg.Recorder,
	}
}

// Classifier returns the rule table used for splits.
func (s *Service) Classifier() *layout.Classifier { return s.classifier }

// Products returns the whole catalog.
func (s *Service) Products(ctx context.Context) ([]layout.Product, error) {
	v, err, _ := s.group.Do("products", func() (any, error) {
		key, err := s.cache.BuildKey(ctx, "catalog", "products")
		if err != nil {
			return nil, fmt.Errorf("catalog: build key: %w", err)
		}
		var products []layout.Product
		hit, err := s.cache.FetchJSON(ctx, key, &products, func(ctx context.Context) (any, error) {
			return s.source.Products(ctx)
		})
		if err != nil {
			return nil, err
		}
		if s.recorder != nil {
			s.recorder.CatalogLookup(hit)
		}
		return products, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]layout.Product)), nil
}

// Product looks up one product by id.
func (s *Service) Product(ctx context.Context, id string) (layout.Product, error) {
	products, err := s.Products(ctx)
	if err != nil {
		return layout.Product{}, err
	}
	for _, p := range products {
		if p.ID == id {
			return p, nil
		}
	}
	return layout.Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, id)
}

// Refresh invalidates the cached catalog and loads it again.
func (s *Service) Refresh(ctx context.Context) (int, error) {
	if err := s.cache.Bump(ctx); err != nil {
		return 0, fmt.Errorf("catalog: bump cache: %w", err)
	}
	products, err := s.Products(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.Info("catalog refreshed", slog.Int("products", len(products)))
	return len(products), nil
}

// Filter narrows a split.
type Filter struct {
	Search string
	Limit  int
}

// Entry is a product with its classification.
type Entry struct {
	layout.Product
	Concealed bool   `json:"isConcealed"`
	Category  string `json:"concealedCategory,omitempty"`
}

// SplitResult holds the visible and concealed buckets. The totals count
// every match before the limit is applied.
type SplitResult struct {
	Visible        []Entry `json:"visible"`
	Concealed      []Entry `json:"concealed"`
	VisibleTotal   int     `json:"visibleTotal"`
	ConcealedTotal int     `json:"concealedTotal"`
}

// Split classifies the catalog into visible and concealed products. Search
// matches name, code or category case-insensitively.
func (s *Service) Split(ctx context.Context, f Filter) (SplitResult, error) {
	products, err := s.Products(ctx)
	if err != nil {
		return SplitResult{}, err
	}
	limit := f.Limit
	if limit <= 0 || limit > DefaultSplitLimit {
		limit = DefaultSplitLimit
	}
	needle := strings.ToLower(strings.TrimSpace(f.Search))

	res := SplitResult{Visible: []Entry{}, Concealed: []Entry{}}
	for _, p := range products {
		if needle != "" && !matches(p, needle) {
			continue
		}
		class := s.classifier.Classify(p)
		e := Entry{Product: p, Concealed: class.Concealed, Category: class.Category}
		if class.Concealed {
			res.ConcealedTotal++
			if len(res.Concealed) < limit {
				res.Concealed = append(res.Concealed, e)
			}
			continue
		}
		res.VisibleTotal++
		if len(res.Visible) < limit {
			res.Visible = append(res.Visible, e)
		}
	}
	return res, nil
}

func matches(p layout.Product, needle string) bool {
	for _, v := range []string{p.Name, p.Code, p.Category} {
		if strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	return false
}
