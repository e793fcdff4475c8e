// Package quotations holds the quotation documents a site map is imported
// from and exported to. Discount and tax math lives here, outside the layout
// engine.
package quotations

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/sitelayout/internal/layout"
	"github.com/odyssey-erp/sitelayout/internal/platform/httpx"
)

// Service manages quotations on behalf of the site map service.
type Service struct {
	repo  Repository
	clock func() time.Time
}

// NewService constructs the service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: func() time.Time { return time.Now().UTC() }}
}

// Get returns a quotation with its lines.
func (s *Service) Get(ctx context.Context, id string) (*Quotation, error) {
	return s.repo.Get(ctx, id)
}

// Items returns the quotation lines in the raw shape the layout importer
// expects. Discounts are passed through as percentages.
func (s *Service) Items(ctx context.Context, id string) ([]layout.RawItem, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get quotation: %w", err)
	}
	items := make([]layout.RawItem, 0, len(q.Lines))
	for _, l := range q.Lines {
		items = append(items, layout.RawItem{
			ProductID:    l.ProductID,
			Name:         l.Name,
			ImageURL:     l.ImageURL,
			Quantity:     int(math.Round(l.Quantity)),
			Price:        l.UnitPrice,
			Discount:     l.DiscountPercent,
			DiscountType: "percent",
			Total:        l.LineTotal,
			Category:     l.Category,
		})
	}
	return items, nil
}

// CreateFromItemsRequest describes a quotation generated from placed items.
type CreateFromItemsRequest struct {
	CustomerID string
	Title      string
	CreatedBy  string
	TaxPercent float64
	Items      []layout.PlacedItem
}

// CreateFromItems persists a new draft quotation with one line per placed
// item.
func (s *Service) CreateFromItems(ctx context.Context, req CreateFromItemsRequest) (*Quotation, error) {
	if strings.TrimSpace(req.CustomerID) == "" {
		return nil, fmt.Errorf("%w: customer is required to generate a quotation", httpx.ErrValidation)
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: site map has no items", httpx.ErrValidation)
	}
	tax := req.TaxPercent
	if tax <= 0 {
		tax = DefaultTaxPercent
	}
	now := s.clock()

	q := Quotation{
		ID:         uuid.NewString(),
		CustomerID: req.CustomerID,
		Title:      req.Title,
		QuoteDate:  now,
		ValidUntil: now.Add(DefaultValidity),
		Status:     StatusDraft,
		TaxPercent: tax,
		CreatedBy:  req.CreatedBy,
	}
	lines := buildLines(q.ID, req.Items, tax)
	q.Subtotal, q.TaxAmount, q.TotalAmount = sumLines(lines)

	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		number, err := repo.GenerateNumber(ctx, now)
		if err != nil {
			return fmt.Errorf("generate doc number: %w", err)
		}
		q.DocNumber = number
		if err := repo.Create(ctx, q); err != nil {
			return fmt.Errorf("create quotation: %w", err)
		}
		for _, line := range lines {
			if err := repo.InsertLine(ctx, line); err != nil {
				return fmt.Errorf("insert quotation line: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, q.ID)
}

// ReplaceLines rewrites a quotation's lines from placed items and recomputes
// its totals with the quotation's own tax rate.
func (s *Service) ReplaceLines(ctx context.Context, id string, items []layout.PlacedItem) (*Quotation, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get quotation: %w", err)
	}
	if existing.Status != StatusDraft {
		return nil, fmt.Errorf("%w: quotation %s is %s", httpx.ErrConflict, existing.DocNumber, existing.Status)
	}
	lines := buildLines(id, items, existing.TaxPercent)
	subtotal, tax, total := sumLines(lines)

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.DeleteLines(ctx, id); err != nil {
			return err
		}
		for _, line := range lines {
			if err := repo.InsertLine(ctx, line); err != nil {
				return err
			}
		}
		return repo.UpdateTotals(ctx, id, subtotal, tax, total)
	})
	if err != nil {
		return nil, fmt.Errorf("replace quotation lines: %w", err)
	}
	return s.repo.Get(ctx, id)
}

// Discard deletes a draft quotation together with its lines. Quotations that
// left draft are kept and reported as a conflict.
func (s *Service) Discard(ctx context.Context, id string) error {
	if err := s.repo.DeleteDraft(ctx, id); err != nil {
		return fmt.Errorf("discard quotation: %w", err)
	}
	return nil
}

func buildLines(quotationID string, items []layout.PlacedItem, taxPercent float64) []Line {
	lines := make([]Line, 0, len(items))
	for i, it := range items {
		qty := float64(max(it.Quantity, 0))
		discountPct := DiscountPercent(it.Discount.Value, it.Discount.Type, qty, it.UnitPrice)
		discount, tax, total := CalculateLineTotals(qty, it.UnitPrice, discountPct, taxPercent)
		lines = append(lines, Line{
			QuotationID:     quotationID,
			ProductID:       it.ProductID,
			Name:            it.Name,
			ImageURL:        it.ImageURL,
			Category:        it.ProductType,
			Quantity:        qty,
			UnitPrice:       it.UnitPrice,
			DiscountPercent: discountPct,
			DiscountAmount:  discount,
			TaxPercent:      taxPercent,
			TaxAmount:       tax,
			LineTotal:       total,
			LineOrder:       i + 1,
		})
	}
	return lines
}

func sumLines(lines []Line) (subtotal, tax, total float64) {
	for _, l := range lines {
		subtotal += l.Quantity*l.UnitPrice - l.DiscountAmount
		tax += l.TaxAmount
		total += l.LineTotal
	}
	return roundPaise(subtotal), roundPaise(tax), roundPaise(total)
}

func roundPaise(v float64) float64 {
	return layout.FromFloat(v).Float64()
}
