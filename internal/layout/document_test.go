package layout

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestDocumentRoundTrip(t *testing.T) {
	m := NewModel(2)
	m.CustomerID = "cust-1"
	m.ProjectName = "Sharma Residence"
	m.SiteSize = "3BHK"
	m.QuotationID = "q-77"
	room, err := m.AddRoom(2, RoomInput{Name: "Bedroom", Size: "12x12", Notes: "east facing"})
	require.NoError(t, err)
	_, err = m.AddItem(Product{ID: "p1", Name: "Fan", UnitPrice: 1999}, 2, Location{Floor: 2, RoomID: room})
	require.NoError(t, err)
	_, err = m.AddItem(Product{ID: "p2", Name: "Conduit", UnitPrice: 40}, 5, Location{})
	require.NoError(t, err)

	doc := m.Document()
	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	var decoded Document
	require.NoError(t, json.Unmarshal(raw, &decoded))
	back, err := FromDocument(decoded)
	require.NoError(t, err)

	assert.Equal(t, doc, back.Document())
	assert.Equal(t, m.Summary(), back.Summary())
}

func TestDocumentUsesNullsForUnassigned(t *testing.T) {
	m := NewModel(1)
	_, err := m.AddItem(Product{ID: "p", Name: "Switch"}, 1, Location{})
	require.NoError(t, err)
	_, err = m.AddItem(Product{ID: "q", Name: "Plate"}, 1, Location{Floor: 1})
	require.NoError(t, err)

	doc := m.Document()
	assert.Nil(t, doc.Items[0].FloorNumber)
	assert.Nil(t, doc.Items[0].RoomID)
	require.NotNil(t, doc.Items[1].FloorNumber)
	assert.Equal(t, 1, *doc.Items[1].FloorNumber)
	assert.Nil(t, doc.Items[1].RoomID)
	assert.Nil(t, doc.QuotationID)
}

func TestFromDocumentValidation(t *testing.T) {
	base := func() Document {
		return Document{
			Name:        "Site",
			TotalFloors: 2,
			Floors: []FloorDoc{
				{Number: 1, Name: "Ground Floor", Rooms: []RoomDoc{{ID: "r1", Name: "Hall"}}},
				{Number: 2},
			},
		}
	}

	t.Run("gap in floor numbers", func(t *testing.T) {
		doc := base()
		doc.Floors[1].Number = 3
		_, err := FromDocument(doc)
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("duplicate room id", func(t *testing.T) {
		doc := base()
		doc.Floors[1].Rooms = []RoomDoc{{ID: "r1", Name: "Copy"}}
		_, err := FromDocument(doc)
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("unnamed room", func(t *testing.T) {
		doc := base()
		doc.Floors[1].Rooms = []RoomDoc{{ID: "r2"}}
		_, err := FromDocument(doc)
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("item on missing floor", func(t *testing.T) {
		doc := base()
		doc.Items = []ItemDoc{{Name: "Fan", Quantity: 1, FloorNumber: intPtr(4)}}
		_, err := FromDocument(doc)
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("item in missing room", func(t *testing.T) {
		doc := base()
		doc.Items = []ItemDoc{{Name: "Fan", Quantity: 1, FloorNumber: intPtr(1), RoomID: strPtr("zz")}}
		_, err := FromDocument(doc)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("room without floor", func(t *testing.T) {
		doc := base()
		doc.Items = []ItemDoc{{Name: "Fan", Quantity: 1, RoomID: strPtr("r1")}}
		_, err := FromDocument(doc)
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("duplicate item id", func(t *testing.T) {
		doc := base()
		doc.Items = []ItemDoc{{ID: "i", Name: "A"}, {ID: "i", Name: "B"}}
		_, err := FromDocument(doc)
		require.ErrorIs(t, err, ErrValidation)
	})
}

func TestFromDocumentFillsGaps(t *testing.T) {
	doc := Document{
		Name:        "Fresh",
		TotalFloors: 3,
		Floors: []FloorDoc{
			{Number: 2, Name: ""},
			{Number: 1, Rooms: []RoomDoc{{Name: "Lobby"}}},
		},
		Items: []ItemDoc{{Name: "Fan", Quantity: 0, FloorNumber: intPtr(2)}},
	}

	m, err := FromDocument(doc)
	require.NoError(t, err)

	floors := m.Floors()
	require.Len(t, floors, 3)
	assert.Equal(t, "Ground Floor", floors[0].Name)
	assert.Equal(t, "1st Floor", floors[1].Name)
	require.Len(t, floors[0].RoomIDs, 1)
	assert.NotEmpty(t, floors[0].RoomIDs[0])

	items := m.Items()
	require.Len(t, items, 1)
	assert.NotEmpty(t, items[0].ID)
	assert.Equal(t, 1, items[0].Quantity)
}

func TestFromDocumentReconcilesFloorCount(t *testing.T) {
	doc := Document{
		TotalFloors: 1,
		Floors:      []FloorDoc{{Number: 1}, {Number: 2}},
		Items:       []ItemDoc{{ID: "up", Name: "Lamp", Quantity: 1, FloorNumber: intPtr(2)}},
	}
	m, err := FromDocument(doc)
	require.NoError(t, err)
	assert.Len(t, m.Floors(), 1)
	it, ok := m.Item("up")
	require.True(t, ok)
	assert.False(t, it.Location.Assigned())

	empty, err := FromDocument(Document{})
	require.NoError(t, err)
	assert.Equal(t, 1, empty.TotalFloors())
	assert.Len(t, empty.Floors(), 1)
}

func TestApplyIsAtomic(t *testing.T) {
	m := NewModel(1)
	it, err := m.AddItem(Product{ID: "p", Name: "Fan"}, 1, Location{})
	require.NoError(t, err)
	before := m.Document()

	same, err := Apply(m,
		ResizeFloors{TotalFloors: 2},
		AssignItem{ItemID: it.ID, Floor: 2},
		AssignItem{ItemID: it.ID, Floor: 9},
	)
	require.ErrorIs(t, err, ErrValidation)
	assert.Same(t, m, same)
	assert.Equal(t, before, m.Document())

	next, err := Apply(m,
		ResizeFloors{TotalFloors: 2},
		AddRoom{Floor: 2, Room: RoomInput{Name: "Study"}},
		AssignItem{ItemID: it.ID, Floor: 2},
		SetQuantity{ItemID: it.ID, Quantity: 4},
		SetDetails{ProjectName: strPtr("Tower B")},
	)
	require.NoError(t, err)
	assert.NotSame(t, m, next)
	assert.Equal(t, before, m.Document(), "the source model is never modified")

	got, _ := next.Item(it.ID)
	assert.Equal(t, Location{Floor: 2}, got.Location)
	assert.Equal(t, 4, got.Quantity)
	assert.Len(t, next.Rooms(2), 1)
	assert.Equal(t, "Tower B", next.ProjectName)
}

func TestApplyCommandsCoverEveryOperation(t *testing.T) {
	m := NewModel(1)
	m, err := Apply(m,
		AddRoom{Floor: 1, Room: RoomInput{Name: "Hall"}},
		AddItem{Product: Product{ID: "x", Name: "Bulb", UnitPrice: 80}, Quantity: 2},
	)
	require.NoError(t, err)
	roomID := m.Rooms(1)[0].ID
	itemID := m.Items()[0].ID

	name := "Drawing"
	floorName := "Lobby Level"
	m, err = Apply(m,
		EditRoom{RoomID: roomID, Patch: RoomPatch{Name: &name}},
		EditFloor{Floor: 1, Patch: FloorPatch{Name: &floorName}},
		AssignItem{ItemID: itemID, Floor: 1, RoomID: roomID},
		SetUnitPrice{ItemID: itemID, Price: 90},
		DeleteRoom{Floor: 1, RoomID: roomID},
		UnassignItem{ItemID: itemID},
		RemoveItem{ItemID: itemID},
	)
	require.NoError(t, err)
	assert.Zero(t, m.Len())
	assert.Empty(t, m.Rooms(1))
	f, _ := m.Floor(1)
	assert.Equal(t, floorName, f.Name)

	_, err = Apply(m, SetDetails{ProjectName: strPtr("  ")})
	require.ErrorIs(t, err, ErrValidation)
}

func TestSetDetailsKeepsQuotationLink(t *testing.T) {
	m := ImportFromQuotation(nil, 1, ImportOptions{CustomerID: "c-1", ProjectName: "Villa", QuotationID: "q-1"})

	next, err := Apply(m, SetDetails{CustomerID: strPtr("c-2"), SiteSize: strPtr("4BHK")})
	require.NoError(t, err)
	assert.Equal(t, "q-1", next.QuotationID)
	assert.Equal(t, "c-2", next.CustomerID)
	assert.Equal(t, "4BHK", next.SiteSize)
}
