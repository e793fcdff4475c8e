// Package sitemap persists site layouts and exposes them over HTTP. Editing
// rules live in internal/layout; this package loads a layout, applies a
// batch of commands and stores the result.
package sitemap

import (
	"time"

	"github.com/odyssey-erp/sitelayout/internal/layout"
)

// Status of a site map.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusConverted Status = "converted"
)

// QuotationTitleSuffix is appended to the site name when a quotation is
// generated from a site map.
const QuotationTitleSuffix = " - Site Based Quotation"

// ============================================================================
// SITE MAP
// ============================================================================

// SiteMap is the stored record. Document is the source of truth; Summary is
// recomputed on every write.
type SiteMap struct {
	ID          string          `json:"id"`
	CustomerID  string          `json:"customerId"`
	Name        string          `json:"name"`
	SiteSize    string          `json:"siteSizeInBHK"`
	Status      Status          `json:"status"`
	QuotationID *string         `json:"quotationId"`
	Document    layout.Document `json:"document"`
	Summary     layout.Summary  `json:"summary"`
	CreatedBy   string          `json:"createdBy,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Linked reports whether a quotation is attached.
func (s *SiteMap) Linked() bool {
	return s.QuotationID != nil && *s.QuotationID != ""
}

// absorb copies the model's header, document and totals into the record.
// The quotation link stays owned by the record.
func (s *SiteMap) absorb(m *layout.Model) {
	m.QuotationID = ""
	if s.QuotationID != nil {
		m.QuotationID = *s.QuotationID
	}
	s.CustomerID = m.CustomerID
	s.Name = m.ProjectName
	s.SiteSize = m.SiteSize
	s.Document = m.Document()
	s.Summary = m.Summary()
}

// ============================================================================
// SUMMARY
// ============================================================================

// SummaryView is the totals panel shown next to a layout.
type SummaryView struct {
	SiteMapID string           `json:"siteMapId"`
	Summary   layout.Summary   `json:"summary"`
	Breakdown layout.Breakdown `json:"breakdown"`
	Display   DisplayTotals    `json:"display"`
}

// DisplayTotals carries the summary amounts formatted as rupees.
type DisplayTotals struct {
	Visible   string `json:"visible"`
	Concealed string `json:"concealed"`
	Grand     string `json:"grand"`
}
