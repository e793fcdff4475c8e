package layout

import (
	"math"
	"slices"
	"strings"
)

// AddItem places a snapshot of product. The display name, unit price and
// concealed tag are fixed now and never recomputed. Quantities are clamped to
// 1..MaxQuantity. An empty location leaves the item unassigned.
func (m *Model) AddItem(p Product, quantity int, loc Location) (PlacedItem, error) {
	if err := m.checkLocation(loc); err != nil {
		return PlacedItem{}, err
	}
	quantity = clampQuantity(quantity)
	class := m.classifier.Classify(p)
	it := &PlacedItem{
		ID:                newID(),
		ProductID:         p.ID,
		Name:              p.DisplayName(),
		ImageURL:          p.ImageURL,
		ProductType:       productType(p.Category, class),
		Quantity:          quantity,
		UnitPrice:         sanitizePrice(p.UnitPrice),
		Location:          loc,
		IsConcealed:       class.Concealed,
		ConcealedCategory: class.Category,
	}
	m.insert(it)
	return *it, nil
}

func (m *Model) insert(it *PlacedItem) {
	m.items[it.ID] = it
	m.order = append(m.order, it.ID)
}

// SetQuantity updates an item's quantity. Values below one or above
// MaxQuantity are ignored so a half-typed field never breaks the model.
func (m *Model) SetQuantity(itemID string, quantity int) error {
	it, ok := m.items[itemID]
	if !ok {
		return notFound("item", itemID)
	}
	if quantity < 1 || quantity > MaxQuantity {
		return nil
	}
	it.Quantity = quantity
	return nil
}

// SetUnitPrice overrides the snapshotted price. Negative, non-finite and
// over-limit values are ignored.
func (m *Model) SetUnitPrice(itemID string, price float64) error {
	it, ok := m.items[itemID]
	if !ok {
		return notFound("item", itemID)
	}
	if !validPrice(price) {
		return nil
	}
	it.UnitPrice = price
	return nil
}

// Assign moves an item to a floor and optionally a room. Both fields change
// together or not at all.
func (m *Model) Assign(itemID string, floor int, roomID string) error {
	it, ok := m.items[itemID]
	if !ok {
		return notFound("item", itemID)
	}
	loc := Location{Floor: floor, RoomID: strings.TrimSpace(roomID)}
	if !loc.Assigned() {
		return invalid("floorNumber", "must be at least 1")
	}
	if err := m.checkLocation(loc); err != nil {
		return err
	}
	it.Location = loc
	return nil
}

// Unassign returns an item to the unassigned bucket.
func (m *Model) Unassign(itemID string) error {
	it, ok := m.items[itemID]
	if !ok {
		return notFound("item", itemID)
	}
	it.Location = Location{}
	return nil
}

// RemoveItem deletes an item from the site altogether.
func (m *Model) RemoveItem(itemID string) error {
	if _, ok := m.items[itemID]; !ok {
		return notFound("item", itemID)
	}
	delete(m.items, itemID)
	if idx := slices.Index(m.order, itemID); idx >= 0 {
		m.order = slices.Delete(m.order, idx, idx+1)
	}
	return nil
}

// Unassigned returns the items still awaiting a floor, in insertion order.
func (m *Model) Unassigned() []PlacedItem {
	var out []PlacedItem
	for _, id := range m.order {
		if it := m.items[id]; !it.Location.Assigned() {
			out = append(out, *it)
		}
	}
	return out
}

func productType(category string, class Classification) string {
	if t := strings.TrimSpace(category); t != "" {
		return t
	}
	if class.Concealed {
		return "Concealed Works"
	}
	return ""
}

func validPrice(v float64) bool {
	return v >= 0 && v <= MaxUnitPrice && !math.IsNaN(v)
}

func sanitizePrice(v float64) float64 {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0) || v < 0:
		return 0
	case v > MaxUnitPrice:
		return MaxUnitPrice
	}
	return v
}

func clampQuantity(q int) int {
	return min(max(q, 1), MaxQuantity)
}
