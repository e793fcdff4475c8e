package layout

import (
	"sort"
	"strconv"
)

// Grouping sentinels.
const (
	UnassignedKey = "unassigned"
	FloorLevelKey = "floor-level"
	OthersKey     = "others"
)

// Predicate selects items for Totals.
type Predicate func(PlacedItem) bool

// Concealed selects concealed items.
func Concealed(it PlacedItem) bool { return it.IsConcealed }

// Visible selects visible items.
func Visible(it PlacedItem) bool { return !it.IsConcealed }

// OnFloor selects items assigned to a floor.
func OnFloor(number int) Predicate {
	return func(it PlacedItem) bool { return it.Location.Floor == number }
}

// InRoom selects items assigned to a room.
func InRoom(roomID string) Predicate {
	return func(it PlacedItem) bool { return roomID != "" && it.Location.RoomID == roomID }
}

// IsUnassigned selects items without a floor.
func IsUnassigned(it PlacedItem) bool { return !it.Location.Assigned() }

// Groups maps floor key to room key to items.
type Groups map[string]map[string][]PlacedItem

// FloorKey returns the grouping key of a location's floor.
func FloorKey(loc Location) string {
	if !loc.Assigned() {
		return UnassignedKey
	}
	return strconv.Itoa(loc.Floor)
}

// RoomKey returns the grouping key of a location's room.
func RoomKey(loc Location) string {
	if loc.RoomID == "" {
		return FloorLevelKey
	}
	return loc.RoomID
}

// GroupByLocation buckets items by floor then room. The input is not
// modified and item order is kept within each bucket.
func GroupByLocation(items []PlacedItem) Groups {
	g := make(Groups)
	for _, it := range items {
		fk, rk := FloorKey(it.Location), RoomKey(it.Location)
		rooms, ok := g[fk]
		if !ok {
			rooms = make(map[string][]PlacedItem)
			g[fk] = rooms
		}
		rooms[rk] = append(rooms[rk], it)
	}
	return g
}

// FloorKeys returns the floor keys in floor order with the unassigned
// bucket last.
func (g Groups) FloorKeys() []string {
	keys := make([]string, 0, len(g))
	for k := range g {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		switch {
		case errA != nil && errB != nil:
			return keys[i] < keys[j]
		case errA != nil:
			return false
		case errB != nil:
			return true
		}
		return a < b
	})
	return keys
}

// Bucket accumulates item count, quantity and amount.
type Bucket struct {
	Items    int   `json:"items"`
	Quantity int   `json:"qty"`
	Amount   Money `json:"amount"`
}

func (b *Bucket) add(it PlacedItem) {
	b.Items++
	if it.Quantity > 0 {
		b.Quantity += it.Quantity
	}
	b.Amount = b.Amount.Add(it.Amount())
}

// Totals sums quantity times unit price over items matching pred. A nil
// predicate selects everything.
func Totals(items []PlacedItem, pred Predicate) Bucket {
	var b Bucket
	for _, it := range items {
		if pred != nil && !pred(it) {
			continue
		}
		b.add(it)
	}
	return b
}

// Summary splits the site value into visible and concealed work.
type Summary struct {
	VisibleTotal   Money `json:"visibleTotal"`
	ConcealedTotal Money `json:"concealedTotal"`
	GrandTotal     Money `json:"grandTotal"`
}

// Summarize partitions items by the concealed flag. The result does not
// depend on item order.
func Summarize(items []PlacedItem) Summary {
	var s Summary
	for _, it := range items {
		if it.IsConcealed {
			s.ConcealedTotal = s.ConcealedTotal.Add(it.Amount())
		} else {
			s.VisibleTotal = s.VisibleTotal.Add(it.Amount())
		}
	}
	s.GrandTotal = s.VisibleTotal.Add(s.ConcealedTotal)
	return s
}

// Summary summarises the model's items.
func (m *Model) Summary() Summary { return Summarize(m.Items()) }

// Split holds a total alongside its visible and concealed parts.
type Split struct {
	Total     Bucket `json:"total"`
	Visible   Bucket `json:"visible"`
	Concealed Bucket `json:"concealed"`
}

func (s *Split) add(it PlacedItem) {
	s.Total.add(it)
	if it.IsConcealed {
		s.Concealed.add(it)
	} else {
		s.Visible.add(it)
	}
}

// RoomBreakdown is the per-room slice of a Breakdown.
type RoomBreakdown struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Split
}

// FloorBreakdown is the per-floor slice of a Breakdown.
type FloorBreakdown struct {
	Key    string          `json:"key"`
	Number int             `json:"floorNumber,omitempty"`
	Name   string          `json:"floorName"`
	Rooms  []RoomBreakdown `json:"rooms"`
	Split
}

// Breakdown is the detailed summary shown next to the layout.
type Breakdown struct {
	Overall             Split             `json:"overall"`
	Floors              []FloorBreakdown  `json:"perFloor"`
	ConcealedByCategory map[string]Bucket `json:"concealedByCategory"`
	ByProductType       map[string]Bucket `json:"perType"`
}

// Breakdown groups the model's items by floor, room, concealed category and
// product type. Floors without items are included so every floor shows up.
func (m *Model) Breakdown() Breakdown {
	b := Breakdown{
		ConcealedByCategory: make(map[string]Bucket),
		ByProductType:       make(map[string]Bucket),
	}
	floors := make(map[string]*FloorBreakdown)
	rooms := make(map[string]map[string]*RoomBreakdown)
	var keys []string

	addFloor := func(key string, number int, name string) *FloorBreakdown {
		fb := &FloorBreakdown{Key: key, Number: number, Name: name}
		floors[key] = fb
		rooms[key] = make(map[string]*RoomBreakdown)
		keys = append(keys, key)
		return fb
	}
	for _, f := range m.floors {
		key := strconv.Itoa(f.Number)
		addFloor(key, f.Number, f.Name)
		for _, id := range f.RoomIDs {
			rooms[key][id] = &RoomBreakdown{Key: id, Name: m.rooms[id].Name}
		}
	}

	for _, it := range m.Items() {
		b.Overall.add(it)

		fk := FloorKey(it.Location)
		fb, ok := floors[fk]
		if !ok {
			fb = addFloor(fk, 0, "Unassigned")
		}
		fb.Split.add(it)

		rk := RoomKey(it.Location)
		rb, ok := rooms[fk][rk]
		if !ok {
			rb = &RoomBreakdown{Key: rk, Name: "Common Area"}
			rooms[fk][rk] = rb
		}
		rb.Split.add(it)

		if it.IsConcealed {
			cat := it.ConcealedCategory
			if cat == "" {
				cat = OthersKey
			}
			cb := b.ConcealedByCategory[cat]
			cb.add(it)
			b.ConcealedByCategory[cat] = cb
		}
		kind := it.ProductType
		if kind == "" {
			kind = "Others"
		}
		tb := b.ByProductType[kind]
		tb.add(it)
		b.ByProductType[kind] = tb
	}

	for _, key := range keys {
		fb := floors[key]
		if f := m.floor(fb.Number); f != nil {
			for _, id := range f.RoomIDs {
				fb.Rooms = append(fb.Rooms, *rooms[key][id])
			}
		}
		if rb, ok := rooms[key][FloorLevelKey]; ok {
			fb.Rooms = append(fb.Rooms, *rb)
		}
		b.Floors = append(b.Floors, *fb)
	}
	return b
}
