package sitemap

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Command operations accepted by the edit endpoint.
const (
	OpSetDetails   = "set_details"
	OpResizeFloors = "resize_floors"
	OpEditFloor    = "edit_floor"
	OpAddRoom      = "add_room"
	OpEditRoom     = "edit_room"
	OpDeleteRoom   = "delete_room"
	OpAddItem      = "add_item"
	OpSetQuantity  = "set_quantity"
	OpSetPrice     = "set_unit_price"
	OpAssignItem   = "assign_item"
	OpUnassignItem = "unassign_item"
	OpRemoveItem   = "remove_item"
)

// CreateSiteMapRequest creates a site map from scratch. A supplied Document
// replaces the generated floors and is checked against the document schema.
type CreateSiteMapRequest struct {
	CustomerID  string          `json:"customerId" validate:"required,max=64"`
	Name        string          `json:"name" validate:"required,max=200"`
	SiteSize    string          `json:"siteSizeInBHK" validate:"omitempty,max=50"`
	TotalFloors int             `json:"totalFloors" validate:"omitempty,min=1,max=200"`
	Document    json.RawMessage `json:"document,omitempty"`
	CreatedBy   string          `json:"-"`
}

// CreateFromQuotationRequest seeds a site map from a quotation's lines.
type CreateFromQuotationRequest struct {
	CustomerID  string `json:"customerId" validate:"required,max=64"`
	Name        string `json:"name" validate:"required,max=200"`
	SiteSize    string `json:"siteSizeInBHK" validate:"omitempty,max=50"`
	TotalFloors int    `json:"totalFloors" validate:"omitempty,min=1,max=200"`
	CreatedBy   string `json:"-"`
}

// UpdateSiteMapRequest replaces the whole document.
type UpdateSiteMapRequest struct {
	Document        json.RawMessage `json:"document" validate:"required"`
	SyncToQuotation bool            `json:"syncToQuotation"`
}

// ApplyRequest is a batch of edits applied all-or-nothing.
type ApplyRequest struct {
	Commands        []CommandRequest `json:"commands" validate:"required,min=1,max=500,dive"`
	SyncToQuotation bool             `json:"syncToQuotation"`
}

// CommandRequest is one edit. Which fields are read depends on Op.
type CommandRequest struct {
	Op          string   `json:"op" validate:"required,oneof=set_details resize_floors edit_floor add_room edit_room delete_room add_item set_quantity set_unit_price assign_item unassign_item remove_item"`
	CustomerID  *string  `json:"customerId,omitempty" validate:"omitempty,max=64"`
	SiteSize    *string  `json:"siteSizeInBHK,omitempty" validate:"omitempty,max=50"`
	TotalFloors int      `json:"totalFloors,omitempty"`
	FloorNumber int      `json:"floorNumber,omitempty" validate:"gte=0"`
	RoomID      string   `json:"roomId,omitempty"`
	ItemID      string   `json:"itemId,omitempty"`
	ProductID   string   `json:"productId,omitempty"`
	Quantity    int      `json:"quantity,omitempty" validate:"lte=1000000"`
	Price       *float64 `json:"price,omitempty" validate:"omitempty,gte=0,lte=1000000000"`
	Name        *string  `json:"name,omitempty" validate:"omitempty,max=200"`
	Type        *string  `json:"type,omitempty" validate:"omitempty,max=100"`
	Size        *string  `json:"size,omitempty" validate:"omitempty,max=50"`
	Notes       *string  `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// AttachQuotationRequest links an existing quotation.
type AttachQuotationRequest struct {
	QuotationID string `json:"quotationId" validate:"required"`
}

// ListFilter pages through a customer's site maps.
type ListFilter struct {
	Limit  int
	Offset int
}

// GenerateQuotationResponse is returned after a quotation is created.
type GenerateQuotationResponse struct {
	SiteMap     *SiteMap `json:"siteMap"`
	QuotationID string   `json:"quotationId"`
	DocNumber   string   `json:"docNumber"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
