package layout

// Command is one editing step. Commands are applied through Apply so a batch
// either lands completely or not at all.
type Command interface {
	apply(*Model) error
}

// Apply runs cmds against a copy of m and returns the copy. On error the
// copy is discarded and m is returned untouched together with the error.
func Apply(m *Model, cmds ...Command) (*Model, error) {
	next := m.Clone()
	for _, cmd := range cmds {
		if err := cmd.apply(next); err != nil {
			return m, err
		}
	}
	return next, nil
}

// SetDetails updates the header fields that are not nil.
type SetDetails struct {
	CustomerID  *string
	ProjectName *string
	SiteSize    *string
}

func (c SetDetails) apply(m *Model) error {
	if c.ProjectName != nil {
		name := firstNonBlank(*c.ProjectName)
		if name == "" {
			return invalid("name", "project name is required")
		}
		m.ProjectName = name
	}
	if c.CustomerID != nil {
		m.CustomerID = firstNonBlank(*c.CustomerID)
	}
	if c.SiteSize != nil {
		m.SiteSize = firstNonBlank(*c.SiteSize)
	}
	return nil
}

// ResizeFloors wraps Model.Resize.
type ResizeFloors struct{ TotalFloors int }

func (c ResizeFloors) apply(m *Model) error { return m.Resize(c.TotalFloors) }

// EditFloor wraps Model.EditFloor.
type EditFloor struct {
	Floor int
	Patch FloorPatch
}

func (c EditFloor) apply(m *Model) error { return m.EditFloor(c.Floor, c.Patch) }

// AddRoom wraps Model.AddRoom.
type AddRoom struct {
	Floor int
	Room  RoomInput
}

func (c AddRoom) apply(m *Model) error {
	_, err := m.AddRoom(c.Floor, c.Room)
	return err
}

// EditRoom wraps Model.EditRoom.
type EditRoom struct {
	RoomID string
	Patch  RoomPatch
}

func (c EditRoom) apply(m *Model) error { return m.EditRoom(c.RoomID, c.Patch) }

// DeleteRoom wraps Model.DeleteRoom.
type DeleteRoom struct {
	Floor  int
	RoomID string
}

func (c DeleteRoom) apply(m *Model) error { return m.DeleteRoom(c.Floor, c.RoomID) }

// AddItem wraps Model.AddItem.
type AddItem struct {
	Product  Product
	Quantity int
	Location Location
}

func (c AddItem) apply(m *Model) error {
	_, err := m.AddItem(c.Product, c.Quantity, c.Location)
	return err
}

// SetQuantity wraps Model.SetQuantity.
type SetQuantity struct {
	ItemID   string
	Quantity int
}

func (c SetQuantity) apply(m *Model) error { return m.SetQuantity(c.ItemID, c.Quantity) }

// SetUnitPrice wraps Model.SetUnitPrice.
type SetUnitPrice struct {
	ItemID string
	Price  float64
}

func (c SetUnitPrice) apply(m *Model) error { return m.SetUnitPrice(c.ItemID, c.Price) }

// AssignItem wraps Model.Assign.
type AssignItem struct {
	ItemID string
	Floor  int
	RoomID string
}

func (c AssignItem) apply(m *Model) error { return m.Assign(c.ItemID, c.Floor, c.RoomID) }

// UnassignItem wraps Model.Unassign.
type UnassignItem struct{ ItemID string }

func (c UnassignItem) apply(m *Model) error { return m.Unassign(c.ItemID) }

// RemoveItem wraps Model.RemoveItem.
type RemoveItem struct{ ItemID string }

func (c RemoveItem) apply(m *Model) error { return m.RemoveItem(c.ItemID) }
