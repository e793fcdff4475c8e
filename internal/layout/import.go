package layout

import "strings"

// QuotationItemType is the product type given to imported lines without a
// category.
const QuotationItemType = "Quotation Item"

// RawItem is a quotation line as delivered by the quotation collaborator.
// Floor and room hints on the line are deliberately not part of the type.
type RawItem struct {
	ProductID    string  `json:"productId"`
	Name         string  `json:"name"`
	ImageURL     string  `json:"imageUrl"`
	Quantity     int     `json:"quantity"`
	Price        float64 `json:"price"`
	Discount     float64 `json:"discount"`
	DiscountType string  `json:"discountType"`
	Total        float64 `json:"total"`
	Category     string  `json:"category"`
}

// ImportOptions carries the header fields of a seeded model.
type ImportOptions struct {
	CustomerID  string
	ProjectName string
	QuotationID string
	Classifier  *Classifier
}

// ImportFromQuotation seeds a model from quotation lines. Every item starts
// unassigned and visible; triage happens afterwards. The floor count comes
// from the hint, defaulting to one, and the ground floor always exists.
func ImportFromQuotation(raw []RawItem, totalFloorsHint int, opts ImportOptions) *Model {
	m := newEmpty(WithClassifier(opts.Classifier))
	m.CustomerID = opts.CustomerID
	m.ProjectName = opts.ProjectName
	m.QuotationID = opts.QuotationID

	if totalFloorsHint < 1 {
		totalFloorsHint = 1
	}
	m.totalFloors = totalFloorsHint
	m.EnsureDefaultFloor()
	m.growTo(totalFloorsHint)

	for _, r := range raw {
		m.insert(importItem(r))
	}
	return m
}

func importItem(r RawItem) *PlacedItem {
	qty := clampQuantity(r.Quantity)
	price := sanitizePrice(r.Price)
	total := r.Total
	if total == 0 {
		total = price
	}
	kind := strings.TrimSpace(r.Category)
	if kind == "" {
		kind = QuotationItemType
	}
	return &PlacedItem{
		ID:          newID(),
		ProductID:   r.ProductID,
		Name:        firstNonBlank(r.Name, UnknownProductName),
		ImageURL:    r.ImageURL,
		ProductType: kind,
		Quantity:    qty,
		UnitPrice:   price,
		Discount: Discount{
			Value: r.Discount,
			Type:  firstNonBlank(r.DiscountType, "percent"),
			Total: total,
		},
	}
}
