package quotations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/sitelayout/internal/platform/db"
	"github.com/odyssey-erp/sitelayout/internal/platform/httpx"
)

// ErrNotFound is returned when a quotation does not exist.
var ErrNotFound = fmt.Errorf("quotation %w", httpx.ErrNotFound)

// Repository persists quotations and their lines.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id string) (*Quotation, error)
	Create(ctx context.Context, q Quotation) error
	InsertLine(ctx context.Context, line Line) error
	DeleteLines(ctx context.Context, quotationID string) error
	UpdateTotals(ctx context.Context, id string, subtotal, tax, total float64) error
	// DeleteDraft removes a draft quotation. Lines go with it.
	DeleteDraft(ctx context.Context, id string) error
	GenerateNumber(ctx context.Context, date time.Time) (string, error)
}

type repository struct {
	db   db.Querier
	pool *pgxpool.Pool
}

// NewRepository constructs a pgx backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

func (r *repository) Get(ctx context.Context, id string) (*Quotation, error) {
	var (
		q         Quotation
		siteMapID pgtype.Text
		createdBy pgtype.Text
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, doc_number, customer_id, title, quote_date, valid_until, status,
		       subtotal::float8, tax_percent::float8, tax_amount::float8, total_amount::float8,
		       site_map_id, created_by, created_at, updated_at
		FROM quotations WHERE id = $1`, id).Scan(
		&q.ID, &q.DocNumber, &q.CustomerID, &q.Title, &q.QuoteDate, &q.ValidUntil, &q.Status,
		&q.Subtotal, &q.TaxPercent, &q.TaxAmount, &q.TotalAmount,
		&siteMapID, &createdBy, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if siteMapID.Valid {
		q.SiteMapID = &siteMapID.String
	}
	q.CreatedBy = createdBy.String

	rows, err := r.db.Query(ctx, `
		SELECT id, quotation_id, product_id, name, image_url, category,
		       quantity::float8, unit_price::float8, discount_percent::float8, discount_amount::float8,
		       tax_percent::float8, tax_amount::float8, line_total::float8, line_order
		FROM quotation_lines WHERE quotation_id = $1 ORDER BY line_order, id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var l Line
		if err := rows.Scan(
			&l.ID, &l.QuotationID, &l.ProductID, &l.Name, &l.ImageURL, &l.Category,
			&l.Quantity, &l.UnitPrice, &l.DiscountPercent, &l.DiscountAmount,
			&l.TaxPercent, &l.TaxAmount, &l.LineTotal, &l.LineOrder,
		); err != nil {
			return nil, err
		}
		q.Lines = append(q.Lines, l)
	}
	return &q, rows.Err()
}

func (r *repository) Create(ctx context.Context, q Quotation) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO quotations (id, doc_number, customer_id, title, quote_date, valid_until, status,
		                        subtotal, tax_percent, tax_amount, total_amount, site_map_id, created_by,
		                        created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())`,
		q.ID, q.DocNumber, q.CustomerID, q.Title, q.QuoteDate, q.ValidUntil, q.Status,
		q.Subtotal, q.TaxPercent, q.TaxAmount, q.TotalAmount,
		pgtype.Text{String: deref(q.SiteMapID), Valid: q.SiteMapID != nil},
		pgtype.Text{String: q.CreatedBy, Valid: q.CreatedBy != ""},
	)
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("quotation %s: %w", q.DocNumber, httpx.ErrDuplicate)
	}
	return err
}

func (r *repository) InsertLine(ctx context.Context, l Line) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO quotation_lines (quotation_id, product_id, name, image_url, category, quantity,
		                             unit_price, discount_percent, discount_amount, tax_percent,
		                             tax_amount, line_total, line_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		l.QuotationID, l.ProductID, l.Name, l.ImageURL, l.Category, l.Quantity,
		l.UnitPrice, l.DiscountPercent, l.DiscountAmount, l.TaxPercent,
		l.TaxAmount, l.LineTotal, l.LineOrder,
	)
	return err
}

func (r *repository) DeleteLines(ctx context.Context, quotationID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM quotation_lines WHERE quotation_id = $1`, quotationID)
	return err
}

func (r *repository) UpdateTotals(ctx context.Context, id string, subtotal, tax, total float64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE quotations SET subtotal = $2, tax_amount = $3, total_amount = $4, updated_at = NOW()
		WHERE id = $1`, id, subtotal, tax, total)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) DeleteDraft(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM quotations WHERE id = $1 AND status = $2`, id, StatusDraft)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	var status Status
	err = r.db.QueryRow(ctx, `SELECT status FROM quotations WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("quotation %s is %s: %w", id, status, httpx.ErrConflict)
}

func (r *repository) GenerateNumber(ctx context.Context, date time.Time) (string, error) {
	// QT-{YY}{MM}-{SEQ}
	var seq int64
	period := date.Format("200601")
	err := r.db.QueryRow(ctx, `
		INSERT INTO document_sequences (doc_type, period, seq)
		VALUES ($1, $2, 1)
		ON CONFLICT (doc_type, period)
		DO UPDATE SET seq = document_sequences.seq + 1
		RETURNING seq
	`, "QT", period).Scan(&seq)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("QT-%s-%04d", date.Format("0601"), seq), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
