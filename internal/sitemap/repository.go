package sitemap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/sitelayout/internal/platform/db"
	"github.com/odyssey-erp/sitelayout/internal/platform/httpx"
	"github.com/odyssey-erp/sitelayout/internal/quotations"
)

// ErrNotFound is returned when a site map does not exist.
var ErrNotFound = fmt.Errorf("site map %w", httpx.ErrNotFound)

// Repository persists site maps.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Create(ctx context.Context, s SiteMap) error
	Get(ctx context.Context, id string) (*SiteMap, error)
	// GetForUpdate locks the row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id string) (*SiteMap, error)
	ListByCustomer(ctx context.Context, customerID string, f ListFilter) ([]SiteMap, error)
	Update(ctx context.Context, s SiteMap) error
	Delete(ctx context.Context, id string) error
	// LinkQuotation points a quotation back at a site map, or clears the
	// pointer when siteMapID is nil. It shares the repository's transaction
	// so both sides of the link commit together.
	LinkQuotation(ctx context.Context, quotationID string, siteMapID *string) error
}

type repository struct {
	db   db.Querier
	pool *pgxpool.Pool
}

// NewRepository constructs a pgx backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

// editIsolation lets a writer queued on GetForUpdate apply its change on top
// of the one committed before it.
const editIsolation = pgx.ReadCommitted

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTxLevel(ctx, r.pool, editIsolation, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const selectSiteMap = `
	SELECT id, customer_id, name, site_size, status, quotation_id, document, summary,
	       created_by, created_at, updated_at
	FROM site_maps`

func (r *repository) Create(ctx context.Context, s SiteMap) error {
	doc, summary, err := encode(s)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO site_maps (id, customer_id, name, site_size, status, quotation_id, document,
		                       summary, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())`,
		s.ID, s.CustomerID, s.Name, s.SiteSize, s.Status, nullable(s.QuotationID), doc, summary,
		pgtype.Text{String: s.CreatedBy, Valid: s.CreatedBy != ""},
	)
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("site map %s: %w", s.ID, httpx.ErrDuplicate)
	}
	return err
}

func (r *repository) Get(ctx context.Context, id string) (*SiteMap, error) {
	return scanSiteMap(r.db.QueryRow(ctx, selectSiteMap+` WHERE id = $1`, id))
}

func (r *repository) GetForUpdate(ctx context.Context, id string) (*SiteMap, error) {
	return scanSiteMap(r.db.QueryRow(ctx, selectSiteMap+` WHERE id = $1 FOR UPDATE`, id))
}

func (r *repository) ListByCustomer(ctx context.Context, customerID string, f ListFilter) ([]SiteMap, error) {
	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, selectSiteMap+`
		WHERE customer_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`, customerID, limit, max(f.Offset, 0))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SiteMap
	for rows.Next() {
		s, err := scanSiteMap(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (r *repository) Update(ctx context.Context, s SiteMap) error {
	doc, summary, err := encode(s)
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE site_maps
		SET customer_id = $2, name = $3, site_size = $4, status = $5, quotation_id = $6,
		    document = $7, summary = $8, updated_at = NOW()
		WHERE id = $1`,
		s.ID, s.CustomerID, s.Name, s.SiteSize, s.Status, nullable(s.QuotationID), doc, summary,
	)
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("quotation already linked to another site map: %w", httpx.ErrConflict)
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM site_maps WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) LinkQuotation(ctx context.Context, quotationID string, siteMapID *string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE quotations SET site_map_id = $2, updated_at = NOW() WHERE id = $1`,
		quotationID, nullable(siteMapID))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return quotations.ErrNotFound
	}
	return nil
}

func scanSiteMap(row pgx.Row) (*SiteMap, error) {
	var (
		s           SiteMap
		quotationID pgtype.Text
		createdBy   pgtype.Text
		doc         []byte
		summary     []byte
	)
	err := row.Scan(
		&s.ID, &s.CustomerID, &s.Name, &s.SiteSize, &s.Status, &quotationID, &doc, &summary,
		&createdBy, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if quotationID.Valid {
		s.QuotationID = &quotationID.String
	}
	s.CreatedBy = createdBy.String
	if err := json.Unmarshal(doc, &s.Document); err != nil {
		return nil, fmt.Errorf("decode site map %s document: %w", s.ID, err)
	}
	if len(summary) > 0 {
		if err := json.Unmarshal(summary, &s.Summary); err != nil {
			return nil, fmt.Errorf("decode site map %s summary: %w", s.ID, err)
		}
	}
	return &s, nil
}

func encode(s SiteMap) (doc, summary []byte, err error) {
	if doc, err = json.Marshal(s.Document); err != nil {
		return nil, nil, fmt.Errorf("encode site map document: %w", err)
	}
	if summary, err = json.Marshal(s.Summary); err != nil {
		return nil, nil, fmt.Errorf("encode site map summary: %w", err)
	}
	return doc, summary, nil
}

func nullable(s *string) pgtype.Text {
	if s == nil || *s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}
