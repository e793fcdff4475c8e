package layout

import (
	"sort"
	"strconv"
	"strings"
)

// Document is the persistence payload of a model: floors nest their rooms
// and items are a flat list pointing at floor numbers and room ids.
type Document struct {
	CustomerID  string     `json:"customerId"`
	Name        string     `json:"name"`
	SiteSize    string     `json:"siteSizeInBHK"`
	TotalFloors int        `json:"totalFloors"`
	Floors      []FloorDoc `json:"floorDetails"`
	Items       []ItemDoc  `json:"items"`
	QuotationID *string    `json:"quotationId"`
}

// FloorDoc is a floor inside a Document.
type FloorDoc struct {
	Number int       `json:"floor_number"`
	Name   string    `json:"floor_name"`
	Size   string    `json:"floor_size"`
	Notes  string    `json:"details"`
	Rooms  []RoomDoc `json:"rooms"`
}

// RoomDoc is a room inside a FloorDoc.
type RoomDoc struct {
	ID    string `json:"room_id"`
	Name  string `json:"room_name"`
	Type  string `json:"room_type"`
	Size  string `json:"room_size"`
	Notes string `json:"details"`
}

// ItemDoc is a placed item inside a Document. Nil floor and room mean
// unassigned and floor-level respectively.
type ItemDoc struct {
	ID                string  `json:"itemId"`
	ProductID         string  `json:"productId"`
	Name              string  `json:"name"`
	ImageURL          string  `json:"imageUrl,omitempty"`
	ProductType       string  `json:"productType,omitempty"`
	Quantity          int     `json:"quantity"`
	Price             float64 `json:"price"`
	Discount          float64 `json:"discount,omitempty"`
	DiscountType      string  `json:"discountType,omitempty"`
	Total             float64 `json:"total,omitempty"`
	FloorNumber       *int    `json:"floor_number"`
	RoomID            *string `json:"room_id"`
	IsConcealed       bool    `json:"isConcealed"`
	ConcealedCategory string  `json:"concealedCategory,omitempty"`
}

// Document renders the model as its persistence payload.
func (m *Model) Document() Document {
	doc := Document{
		CustomerID:  m.CustomerID,
		Name:        m.ProjectName,
		SiteSize:    m.SiteSize,
		TotalFloors: m.totalFloors,
		Floors:      make([]FloorDoc, 0, len(m.floors)),
		Items:       make([]ItemDoc, 0, len(m.order)),
	}
	if m.QuotationID != "" {
		q := m.QuotationID
		doc.QuotationID = &q
	}
	for _, f := range m.floors {
		fd := FloorDoc{Number: f.Number, Name: f.Name, Size: f.Size, Notes: f.Notes, Rooms: make([]RoomDoc, 0, len(f.RoomIDs))}
		for _, id := range f.RoomIDs {
			r := m.rooms[id]
			fd.Rooms = append(fd.Rooms, RoomDoc{ID: r.ID, Name: r.Name, Type: r.Type, Size: r.Size, Notes: r.Notes})
		}
		doc.Floors = append(doc.Floors, fd)
	}
	for _, id := range m.order {
		doc.Items = append(doc.Items, itemDoc(m.items[id]))
	}
	return doc
}

func itemDoc(it *PlacedItem) ItemDoc {
	d := ItemDoc{
		ID:                it.ID,
		ProductID:         it.ProductID,
		Name:              it.Name,
		ImageURL:          it.ImageURL,
		ProductType:       it.ProductType,
		Quantity:          it.Quantity,
		Price:             it.UnitPrice,
		Discount:          it.Discount.Value,
		DiscountType:      it.Discount.Type,
		Total:             it.Discount.Total,
		IsConcealed:       it.IsConcealed,
		ConcealedCategory: it.ConcealedCategory,
	}
	if it.Location.Assigned() {
		floor := it.Location.Floor
		d.FloorNumber = &floor
		if it.Location.RoomID != "" {
			room := it.Location.RoomID
			d.RoomID = &room
		}
	}
	return d
}

// FromDocument rebuilds a model from a persisted payload and checks every
// structural invariant. Floors must be numbered 1..n without gaps, room ids
// must be unique and named, and item locations must resolve. Missing room
// and item ids are generated. A floor count that disagrees with the floor
// list is reconciled the same way Resize does.
func FromDocument(doc Document, opts ...Option) (*Model, error) {
	m := newEmpty(opts...)
	m.CustomerID = strings.TrimSpace(doc.CustomerID)
	m.ProjectName = strings.TrimSpace(doc.Name)
	m.SiteSize = strings.TrimSpace(doc.SiteSize)
	if doc.QuotationID != nil {
		m.QuotationID = strings.TrimSpace(*doc.QuotationID)
	}

	floors := make([]FloorDoc, len(doc.Floors))
	copy(floors, doc.Floors)
	sort.SliceStable(floors, func(i, j int) bool { return floors[i].Number < floors[j].Number })
	for i, fd := range floors {
		if fd.Number != i+1 {
			return nil, invalid("floorDetails", "floor numbers must run from 1 without gaps")
		}
		f := &Floor{
			Number: fd.Number,
			Name:   firstNonBlank(fd.Name, FloorName(fd.Number)),
			Size:   strings.TrimSpace(fd.Size),
			Notes:  fd.Notes,
		}
		for _, rd := range fd.Rooms {
			id := strings.TrimSpace(rd.ID)
			if id == "" {
				id = newID()
			}
			if _, dup := m.rooms[id]; dup {
				return nil, invalid("room_id", "duplicate room id "+id)
			}
			name := strings.TrimSpace(rd.Name)
			if name == "" {
				return nil, invalid("room_name", "room name is required on floor "+strconv.Itoa(fd.Number))
			}
			m.rooms[id] = &Room{
				ID:    id,
				Floor: f.Number,
				Name:  name,
				Type:  normalizeRoomType(rd.Type),
				Size:  strings.TrimSpace(rd.Size),
				Notes: rd.Notes,
			}
			f.RoomIDs = append(f.RoomIDs, id)
		}
		m.floors = append(m.floors, f)
	}

	for _, d := range doc.Items {
		it, err := m.itemFromDoc(d)
		if err != nil {
			return nil, err
		}
		m.insert(it)
	}

	total := doc.TotalFloors
	if total < 1 {
		total = max(len(m.floors), 1)
	}
	m.totalFloors = total
	m.EnsureDefaultFloor()
	if err := m.Resize(total); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Model) itemFromDoc(d ItemDoc) (*PlacedItem, error) {
	id := strings.TrimSpace(d.ID)
	if id == "" {
		id = newID()
	}
	if _, dup := m.items[id]; dup {
		return nil, invalid("itemId", "duplicate item id "+id)
	}
	var loc Location
	if d.FloorNumber != nil {
		loc.Floor = *d.FloorNumber
		if loc.Floor < 1 {
			return nil, invalid("floor_number", "must be at least 1")
		}
	}
	if d.RoomID != nil {
		loc.RoomID = strings.TrimSpace(*d.RoomID)
	}
	if err := m.checkLocation(loc); err != nil {
		return nil, err
	}
	qty := clampQuantity(d.Quantity)
	return &PlacedItem{
		ID:                id,
		ProductID:         d.ProductID,
		Name:              firstNonBlank(d.Name, UnknownProductName),
		ImageURL:          d.ImageURL,
		ProductType:       d.ProductType,
		Quantity:          qty,
		UnitPrice:         sanitizePrice(d.Price),
		Location:          loc,
		IsConcealed:       d.IsConcealed,
		ConcealedCategory: d.ConcealedCategory,
		Discount:          Discount{Value: d.Discount, Type: d.DiscountType, Total: d.Total},
	}, nil
}
