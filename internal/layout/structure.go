package layout

import (
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FloorName returns the automatic name for a floor number: "Ground Floor"
// for 1, then "1st Floor", "2nd Floor" and so on.
func FloorName(number int) string {
	if number <= 1 {
		return "Ground Floor"
	}
	return ordinal(number-1) + " Floor"
}

func ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(n) + suffix
}

// Resize sets the floor count. Growing appends auto-named empty floors.
// Shrinking drops the removed floors and their rooms, and returns items
// placed on them to the unassigned bucket. Items are never deleted.
func (m *Model) Resize(totalFloors int) error {
	if totalFloors < 1 {
		return invalid("totalFloors", "must be at least 1")
	}
	switch {
	case len(m.floors) < totalFloors:
		m.growTo(totalFloors)
	case len(m.floors) > totalFloors:
		m.shrinkTo(totalFloors)
	}
	m.totalFloors = totalFloors
	return nil
}

// EnsureDefaultFloor creates the ground floor when the model has no floors
// but expects at least one. It reports whether a floor was created.
func (m *Model) EnsureDefaultFloor() bool {
	if len(m.floors) > 0 || m.totalFloors < 1 {
		return false
	}
	m.floors = append(m.floors, &Floor{Number: 1, Name: FloorName(1)})
	return true
}

func (m *Model) growTo(n int) {
	for number := len(m.floors) + 1; number <= n; number++ {
		m.floors = append(m.floors, &Floor{Number: number, Name: FloorName(number)})
	}
}

func (m *Model) shrinkTo(n int) {
	for _, f := range m.floors[n:] {
		for _, id := range f.RoomIDs {
			delete(m.rooms, id)
		}
	}
	m.floors = m.floors[:n]
	for _, it := range m.items {
		if it.Location.Floor > n {
			it.Location = Location{}
		}
	}
}

// RoomInput carries the fields of a new room.
type RoomInput struct {
	Name  string
	Type  string
	Size  string
	Notes string
}

// RoomPatch updates the non-nil fields of a room.
type RoomPatch struct {
	Name  *string
	Type  *string
	Size  *string
	Notes *string
}

// FloorPatch updates the non-nil fields of a floor. An empty name restores
// the automatic one.
type FloorPatch struct {
	Name  *string
	Size  *string
	Notes *string
}

// AddRoom appends a room to a floor and returns its generated id.
func (m *Model) AddRoom(floor int, in RoomInput) (string, error) {
	f := m.floor(floor)
	if f == nil {
		return "", invalid("floorNumber", "floor "+strconv.Itoa(floor)+" does not exist")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return "", invalid("name", "room name is required")
	}
	id := newID()
	m.rooms[id] = &Room{
		ID:    id,
		Floor: f.Number,
		Name:  name,
		Type:  normalizeRoomType(in.Type),
		Size:  strings.TrimSpace(in.Size),
		Notes: in.Notes,
	}
	f.RoomIDs = append(f.RoomIDs, id)
	return id, nil
}

// EditRoom merges patch into an existing room.
func (m *Model) EditRoom(roomID string, patch RoomPatch) error {
	r, ok := m.rooms[roomID]
	if !ok {
		return notFound("room", roomID)
	}
	next := *r
	if patch.Name != nil {
		next.Name = strings.TrimSpace(*patch.Name)
		if next.Name == "" {
			return invalid("name", "room name is required")
		}
	}
	if patch.Type != nil {
		next.Type = normalizeRoomType(*patch.Type)
	}
	if patch.Size != nil {
		next.Size = strings.TrimSpace(*patch.Size)
	}
	if patch.Notes != nil {
		next.Notes = *patch.Notes
	}
	*r = next
	return nil
}

// DeleteRoom removes a room from its floor. Items placed in it stay on the
// floor as common-area items.
func (m *Model) DeleteRoom(floor int, roomID string) error {
	f := m.floor(floor)
	if f == nil {
		return notFound("floor", strconv.Itoa(floor))
	}
	idx := slices.Index(f.RoomIDs, roomID)
	if idx < 0 {
		return notFound("room", roomID)
	}
	f.RoomIDs = slices.Delete(f.RoomIDs, idx, idx+1)
	delete(m.rooms, roomID)
	for _, it := range m.items {
		if it.Location.RoomID == roomID {
			it.Location.RoomID = ""
		}
	}
	return nil
}

// EditFloor merges patch into a floor.
func (m *Model) EditFloor(number int, patch FloorPatch) error {
	f := m.floor(number)
	if f == nil {
		return notFound("floor", strconv.Itoa(number))
	}
	if patch.Name != nil {
		f.Name = strings.TrimSpace(*patch.Name)
		if f.Name == "" {
			f.Name = FloorName(number)
		}
	}
	if patch.Size != nil {
		f.Size = strings.TrimSpace(*patch.Size)
	}
	if patch.Notes != nil {
		f.Notes = *patch.Notes
	}
	return nil
}

func normalizeRoomType(t string) string {
	t = strings.TrimSpace(t)
	if t == "" {
		return DefaultRoomType
	}
	return cases.Title(language.English).String(t)
}
