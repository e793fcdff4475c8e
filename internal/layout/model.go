// Package layout models a building as floors and rooms and tracks which
// catalog items are placed where. Everything here is in-memory and
// synchronous; persistence and catalog lookups belong to callers.
package layout

import (
	"slices"
	"strconv"

	"github.com/google/uuid"
)

// DefaultRoomType is applied when a room is created without a type.
const DefaultRoomType = "General"

// UnknownProductName is the display name used when a product carries neither
// a name nor a code.
const UnknownProductName = "Unknown Product"

// Product is a read-only catalog record supplied by the catalog collaborator.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Code        string  `json:"code"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	UnitPrice   float64 `json:"unit_price"`
	ImageURL    string  `json:"image_url,omitempty"`
}

// DisplayName returns the best human readable label for the product.
func (p Product) DisplayName() string {
	return firstNonBlank(p.Name, p.Code, UnknownProductName)
}

// Location points at a floor and optionally a room. The zero value means
// unassigned; a Floor without RoomID means the floor-level common area.
type Location struct {
	Floor  int
	RoomID string
}

// Assigned reports whether the location references a floor.
func (l Location) Assigned() bool { return l.Floor > 0 }

// Discount is carried through from quotations without interpretation.
type Discount struct {
	Value float64
	Type  string
	Total float64
}

// PlacedItem is a product snapshot placed somewhere in the site.
type PlacedItem struct {
	ID                string
	ProductID         string
	Name              string
	ImageURL          string
	ProductType       string
	Quantity          int
	UnitPrice         float64
	Location          Location
	IsConcealed       bool
	ConcealedCategory string
	Discount          Discount
}

// Amount is quantity times unit price, rounded to paise. Missing or invalid
// values count as zero.
func (i PlacedItem) Amount() Money {
	if i.Quantity <= 0 {
		return 0
	}
	return FromFloat(i.UnitPrice).Mul(i.Quantity)
}

// Floor is a level of the building. Rooms are listed in creation order.
type Floor struct {
	Number  int
	Name    string
	Size    string
	Notes   string
	RoomIDs []string
}

// Room belongs to exactly one floor.
type Room struct {
	ID    string
	Floor int
	Name  string
	Type  string
	Size  string
	Notes string
}

// Model is the site aggregate. Floors, rooms and items live in flat
// collections and reference each other by number or id.
type Model struct {
	CustomerID  string
	ProjectName string
	SiteSize    string
	QuotationID string

	totalFloors int
	floors      []*Floor
	rooms       map[string]*Room
	items       map[string]*PlacedItem
	order       []string

	classifier *Classifier
}

// Option customises a Model.
type Option func(*Model)

// WithClassifier sets the classifier used when items are added.
func WithClassifier(c *Classifier) Option {
	return func(m *Model) {
		if c != nil {
			m.classifier = c
		}
	}
}

var newID = uuid.NewString

// NewModel returns a model with totalFloors floors, each auto-named and empty.
// Counts below one are raised to one.
func NewModel(totalFloors int, opts ...Option) *Model {
	m := newEmpty(opts...)
	if totalFloors < 1 {
		totalFloors = 1
	}
	m.totalFloors = totalFloors
	m.growTo(totalFloors)
	return m
}

func newEmpty(opts ...Option) *Model {
	m := &Model{
		rooms:      make(map[string]*Room),
		items:      make(map[string]*PlacedItem),
		classifier: DefaultClassifier(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TotalFloors returns the authoritative floor count.
func (m *Model) TotalFloors() int { return m.totalFloors }

// Classifier returns the classifier bound to the model.
func (m *Model) Classifier() *Classifier { return m.classifier }

// Floors returns copies of the floors in number order.
func (m *Model) Floors() []Floor {
	out := make([]Floor, 0, len(m.floors))
	for _, f := range m.floors {
		cp := *f
		cp.RoomIDs = slices.Clone(f.RoomIDs)
		out = append(out, cp)
	}
	return out
}

// Floor returns the floor with the given number.
func (m *Model) Floor(number int) (Floor, bool) {
	f := m.floor(number)
	if f == nil {
		return Floor{}, false
	}
	cp := *f
	cp.RoomIDs = slices.Clone(f.RoomIDs)
	return cp, true
}

// Rooms returns the rooms of a floor in creation order.
func (m *Model) Rooms(floor int) []Room {
	f := m.floor(floor)
	if f == nil {
		return nil
	}
	out := make([]Room, 0, len(f.RoomIDs))
	for _, id := range f.RoomIDs {
		out = append(out, *m.rooms[id])
	}
	return out
}

// Room looks up a room by id.
func (m *Model) Room(id string) (Room, bool) {
	r, ok := m.rooms[id]
	if !ok {
		return Room{}, false
	}
	return *r, true
}

// Items returns every placed item in insertion order.
func (m *Model) Items() []PlacedItem {
	out := make([]PlacedItem, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.items[id])
	}
	return out
}

// Item looks up a placed item by id.
func (m *Model) Item(id string) (PlacedItem, bool) {
	it, ok := m.items[id]
	if !ok {
		return PlacedItem{}, false
	}
	return *it, true
}

// Len returns the number of placed items.
func (m *Model) Len() int { return len(m.order) }

// Clone returns a deep copy that shares nothing mutable with m.
func (m *Model) Clone() *Model {
	cp := &Model{
		CustomerID:  m.CustomerID,
		ProjectName: m.ProjectName,
		SiteSize:    m.SiteSize,
		QuotationID: m.QuotationID,
		totalFloors: m.totalFloors,
		floors:      make([]*Floor, 0, len(m.floors)),
		rooms:       make(map[string]*Room, len(m.rooms)),
		items:       make(map[string]*PlacedItem, len(m.items)),
		order:       slices.Clone(m.order),
		classifier:  m.classifier,
	}
	for _, f := range m.floors {
		nf := *f
		nf.RoomIDs = slices.Clone(f.RoomIDs)
		cp.floors = append(cp.floors, &nf)
	}
	for id, r := range m.rooms {
		nr := *r
		cp.rooms[id] = &nr
	}
	for id, it := range m.items {
		ni := *it
		cp.items[id] = &ni
	}
	return cp
}

func (m *Model) floor(number int) *Floor {
	if number < 1 || number > len(m.floors) {
		return nil
	}
	return m.floors[number-1]
}

// checkLocation verifies that loc references existing structure.
func (m *Model) checkLocation(loc Location) error {
	if !loc.Assigned() {
		if loc.RoomID != "" {
			return invalid("floorNumber", "a room requires a floor")
		}
		return nil
	}
	f := m.floor(loc.Floor)
	if f == nil {
		return invalid("floorNumber", "floor "+strconv.Itoa(loc.Floor)+" does not exist")
	}
	if loc.RoomID == "" {
		return nil
	}
	r, ok := m.rooms[loc.RoomID]
	if !ok {
		return notFound("room", loc.RoomID)
	}
	if r.Floor != f.Number {
		return invalid("roomId", "room "+loc.RoomID+" is not on floor "+strconv.Itoa(f.Number))
	}
	return nil
}
