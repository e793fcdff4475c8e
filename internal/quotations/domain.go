package quotations

import "time"

// Status of a quotation document.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSubmitted Status = "SUBMITTED"
	StatusApproved  Status = "APPROVED"
	StatusConverted Status = "CONVERTED"
)

// DefaultTaxPercent is the GST rate applied to quotations generated from a
// site map.
const DefaultTaxPercent = 18.0

// DefaultValidity is how long a generated quotation stays valid.
const DefaultValidity = 15 * 24 * time.Hour

// Quotation is the header of a quotation document.
type Quotation struct {
	ID          string    `json:"id"`
	DocNumber   string    `json:"doc_number"`
	CustomerID  string    `json:"customer_id"`
	Title       string    `json:"title"`
	QuoteDate   time.Time `json:"quote_date"`
	ValidUntil  time.Time `json:"valid_until"`
	Status      Status    `json:"status"`
	Subtotal    float64   `json:"subtotal"`
	TaxPercent  float64   `json:"tax_percent"`
	TaxAmount   float64   `json:"tax_amount"`
	TotalAmount float64   `json:"total_amount"`
	SiteMapID   *string   `json:"site_map_id,omitempty"`
	CreatedBy   string    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Lines       []Line    `json:"lines,omitempty"`
}

// Line is one product row on a quotation.
type Line struct {
	ID              int64   `json:"id"`
	QuotationID     string  `json:"quotation_id"`
	ProductID       string  `json:"product_id"`
	Name            string  `json:"name"`
	ImageURL        string  `json:"image_url,omitempty"`
	Category        string  `json:"category,omitempty"`
	Quantity        float64 `json:"quantity"`
	UnitPrice       float64 `json:"unit_price"`
	DiscountPercent float64 `json:"discount_percent"`
	DiscountAmount  float64 `json:"discount_amount"`
	TaxPercent      float64 `json:"tax_percent"`
	TaxAmount       float64 `json:"tax_amount"`
	LineTotal       float64 `json:"line_total"`
	LineOrder       int     `json:"line_order"`
}
