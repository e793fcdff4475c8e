package sitemap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/sitelayout/internal/catalog"
	"github.com/odyssey-erp/sitelayout/internal/contracts"
	"github.com/odyssey-erp/sitelayout/internal/layout"
	"github.com/odyssey-erp/sitelayout/internal/platform/httpx"
	"github.com/odyssey-erp/sitelayout/internal/quotations"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

type mockRepository struct {
	siteMaps  map[string]SiteMap
	order     []string
	links     map[string]*string // quotation id -> linked site map id
	quotes    *fakeQuotations
	updateErr error
}

func newMockRepository(quotes *fakeQuotations) *mockRepository {
	return &mockRepository{siteMaps: make(map[string]SiteMap), links: make(map[string]*string), quotes: quotes}
}

// WithTx runs fn against a copy of the store and commits only on success.
func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	tx := &mockRepository{
		siteMaps:  maps.Clone(m.siteMaps),
		order:     slices.Clone(m.order),
		links:     maps.Clone(m.links),
		quotes:    m.quotes,
		updateErr: m.updateErr,
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	m.siteMaps, m.order, m.links = tx.siteMaps, tx.order, tx.links
	return nil
}

func (m *mockRepository) LinkQuotation(ctx context.Context, quotationID string, siteMapID *string) error {
	if _, ok := m.quotes.items[quotationID]; !ok {
		return quotations.ErrNotFound
	}
	m.links[quotationID] = siteMapID
	return nil
}

func (m *mockRepository) Create(ctx context.Context, s SiteMap) error {
	if _, ok := m.siteMaps[s.ID]; ok {
		return httpx.ErrDuplicate
	}
	m.siteMaps[s.ID] = s
	m.order = append(m.order, s.ID)
	return nil
}

func (m *mockRepository) Get(ctx context.Context, id string) (*SiteMap, error) {
	s, ok := m.siteMaps[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *mockRepository) GetForUpdate(ctx context.Context, id string) (*SiteMap, error) {
	return m.Get(ctx, id)
}

func (m *mockRepository) ListByCustomer(ctx context.Context, customerID string, f ListFilter) ([]SiteMap, error) {
	var out []SiteMap
	for i := len(m.order) - 1; i >= 0; i-- {
		if s, ok := m.siteMaps[m.order[i]]; ok && s.CustomerID == customerID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockRepository) Update(ctx context.Context, s SiteMap) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.siteMaps[s.ID]; !ok {
		return ErrNotFound
	}
	m.siteMaps[s.ID] = s
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, id string) error {
	if _, ok := m.siteMaps[id]; !ok {
		return ErrNotFound
	}
	delete(m.siteMaps, id)
	return nil
}

// ============================================================================
// MOCK COLLABORATORS
// ============================================================================

type fakeQuotations struct {
	items     map[string][]layout.RawItem
	created   []quotations.CreateFromItemsRequest
	replaced  map[string][]layout.PlacedItem
	discarded []string
}

func newFakeQuotations() *fakeQuotations {
	return &fakeQuotations{
		items:    make(map[string][]layout.RawItem),
		replaced: make(map[string][]layout.PlacedItem),
	}
}

func (f *fakeQuotations) Items(ctx context.Context, id string) ([]layout.RawItem, error) {
	items, ok := f.items[id]
	if !ok {
		return nil, quotations.ErrNotFound
	}
	return items, nil
}

func (f *fakeQuotations) CreateFromItems(ctx context.Context, req quotations.CreateFromItemsRequest) (*quotations.Quotation, error) {
	if len(req.Items) == 0 {
		return nil, httpx.ErrValidation
	}
	f.created = append(f.created, req)
	id := "q-generated"
	f.items[id] = nil
	return &quotations.Quotation{ID: id, DocNumber: "QT-2610-0001", Title: req.Title}, nil
}

func (f *fakeQuotations) ReplaceLines(ctx context.Context, id string, items []layout.PlacedItem) (*quotations.Quotation, error) {
	f.replaced[id] = items
	return &quotations.Quotation{ID: id}, nil
}

func (f *fakeQuotations) Discard(ctx context.Context, id string) error {
	if _, ok := f.items[id]; !ok {
		return quotations.ErrNotFound
	}
	delete(f.items, id)
	f.discarded = append(f.discarded, id)
	return nil
}

type fakeJobs struct {
	synced [][2]string
	err    error
}

func (f *fakeJobs) EnqueueQuotationSync(ctx context.Context, siteMapID, quotationID string) error {
	f.synced = append(f.synced, [2]string{siteMapID, quotationID})
	return f.err
}

type editLog struct {
	ops []string
}

func (e *editLog) SiteMapEdit(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	e.ops = append(e.ops, op+":"+outcome)
}

type fixture struct {
	svc    *Service
	repo   *mockRepository
	quotes *fakeQuotations
	jobs   *fakeJobs
	edits  *editLog
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	products := []layout.Product{
		{ID: "fan", Name: "Ceiling Fan", Category: "Fans", UnitPrice: 2500},
		{ID: "pipe", Name: "PVC Conduit 25mm", Category: "Pipes", UnitPrice: 40},
		{ID: "switch", Name: "Modular Switch", Category: "Switches", UnitPrice: 120},
	}
	cat := catalog.NewService(catalog.ServiceConfig{
		Source: catalog.SourceFunc(func(ctx context.Context) ([]layout.Product, error) { return products, nil }),
	})
	quotes := newFakeQuotations()
	f := fixture{
		repo:   newMockRepository(quotes),
		quotes: quotes,
		jobs:   &fakeJobs{},
		edits:  &editLog{},
	}
	f.svc = NewService(ServiceConfig{
		Repo:       f.repo,
		Catalog:    cat,
		Quotations: f.quotes,
		Jobs:       f.jobs,
		Schemas:    contracts.MustLoad(),
		Recorder:   f.edits,
	})
	return f
}

func (f fixture) create(t *testing.T, floors int) *SiteMap {
	t.Helper()
	sm, err := f.svc.Create(context.Background(), CreateSiteMapRequest{
		CustomerID:  "cust-1",
		Name:        "Sharma Villa",
		SiteSize:    "3BHK",
		TotalFloors: floors,
	})
	require.NoError(t, err)
	return sm
}

func strp(s string) *string { return &s }

// ============================================================================
// TESTS
// ============================================================================

func TestCreateGeneratesFloors(t *testing.T) {
	f := newFixture(t)
	sm := f.create(t, 3)

	assert.Equal(t, StatusDraft, sm.Status)
	assert.Equal(t, "Sharma Villa", sm.Name)
	assert.Equal(t, "3BHK", sm.Document.SiteSize)
	assert.Equal(t, 3, sm.Document.TotalFloors)
	require.Len(t, sm.Document.Floors, 3)
	assert.Equal(t, "Ground Floor", sm.Document.Floors[0].Name)
	assert.Nil(t, sm.QuotationID)
	assert.Equal(t, []string{"create:ok"}, f.edits.ops)
}

func TestCreateWithDocument(t *testing.T) {
	f := newFixture(t)
	doc := `{
		"name": "From editor",
		"totalFloors": 1,
		"floorDetails": [{"floor_number": 1, "floor_name": "Lobby", "rooms": [{"room_id": "r1", "room_name": "Hall"}]}],
		"items": [{"itemId": "i1", "productId": "fan", "name": "Ceiling Fan", "quantity": 2, "price": 2500, "floor_number": 1, "room_id": "r1"}]
	}`
	sm, err := f.svc.Create(context.Background(), CreateSiteMapRequest{
		CustomerID: "cust-1",
		Name:       "Renamed",
		Document:   json.RawMessage(doc),
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", sm.Name)
	assert.Equal(t, "Lobby", sm.Document.Floors[0].Name)
	assert.Equal(t, layout.FromFloat(5000), sm.Summary.GrandTotal)
}

func TestCreateRejectsInvalidDocument(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), CreateSiteMapRequest{
		CustomerID: "c", Name: "x", Document: json.RawMessage(`{"name": "x", "totalFloors": 0}`),
	})
	require.ErrorIs(t, err, httpx.ErrValidation)
	assert.ErrorIs(t, err, contracts.ErrInvalidDocument)

	_, err = f.svc.Create(context.Background(), CreateSiteMapRequest{
		CustomerID: "c", Name: "x",
		Document: json.RawMessage(`{"name": "x", "totalFloors": 1, "items": [{"name": "Fan", "quantity": 1, "price": 1, "floor_number": 4}]}`),
	})
	require.ErrorIs(t, err, layout.ErrValidation)
	assert.Empty(t, f.repo.siteMaps)
}

func TestCreateFromQuotation(t *testing.T) {
	f := newFixture(t)
	f.quotes.items["q-1"] = []layout.RawItem{
		{ProductID: "fan", Name: "Ceiling Fan", Quantity: 2, Price: 2500},
		{ProductID: "pipe", Name: "PVC Conduit 25mm", Quantity: 10, Price: 40, Category: "Pipes"},
	}

	sm, err := f.svc.CreateFromQuotation(context.Background(), "q-1", CreateFromQuotationRequest{
		CustomerID: "cust-1", Name: "Imported", TotalFloors: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, StatusConverted, sm.Status)
	require.NotNil(t, sm.QuotationID)
	assert.Equal(t, "q-1", *sm.QuotationID)
	require.NotNil(t, sm.Document.QuotationID)
	assert.Equal(t, "q-1", *sm.Document.QuotationID)
	require.Len(t, sm.Document.Items, 2)
	for _, it := range sm.Document.Items {
		assert.Nil(t, it.FloorNumber)
		assert.False(t, it.IsConcealed)
	}
	assert.Equal(t, layout.FromFloat(5400), sm.Summary.VisibleTotal)
	require.NotNil(t, f.repo.links["q-1"])
	assert.Equal(t, sm.ID, *f.repo.links["q-1"])

	_, err = f.svc.CreateFromQuotation(context.Background(), "missing", CreateFromQuotationRequest{CustomerID: "c", Name: "x"})
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestApplyCommands(t *testing.T) {
	f := newFixture(t)
	sm := f.create(t, 1)

	sm, err := f.svc.Apply(context.Background(), sm.ID, ApplyRequest{Commands: []CommandRequest{
		{Op: OpResizeFloors, TotalFloors: 2},
		{Op: OpAddRoom, FloorNumber: 2, Name: strp("Master Bedroom"), Type: strp("bedroom")},
		{Op: OpAddItem, ProductID: "fan", Quantity: 2, FloorNumber: 1},
		{Op: OpAddItem, ProductID: "pipe", Quantity: 25},
	}})
	require.NoError(t, err)

	require.Len(t, sm.Document.Floors, 2)
	require.Len(t, sm.Document.Floors[1].Rooms, 1)
	assert.Equal(t, "Bedroom", sm.Document.Floors[1].Rooms[0].Type)
	require.Len(t, sm.Document.Items, 2)
	assert.True(t, sm.Document.Items[1].IsConcealed)
	assert.Equal(t, layout.CategoryConduitPipe, sm.Document.Items[1].ConcealedCategory)
	assert.Equal(t, layout.FromFloat(5000), sm.Summary.VisibleTotal)
	assert.Equal(t, layout.FromFloat(1000), sm.Summary.ConcealedTotal)

	stored, err := f.svc.Get(context.Background(), sm.ID)
	require.NoError(t, err)
	assert.Equal(t, sm.Document, stored.Document)
}

func TestApplyIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	sm := f.create(t, 1)
	before := f.repo.siteMaps[sm.ID]

	_, err := f.svc.Apply(context.Background(), sm.ID, ApplyRequest{Commands: []CommandRequest{
		{Op: OpAddItem, ProductID: "fan", Quantity: 1},
		{Op: OpAssignItem, ItemID: "ghost", FloorNumber: 1},
	}})
	require.ErrorIs(t, err, layout.ErrNotFound)
	assert.Equal(t, before, f.repo.siteMaps[sm.ID])

	_, err = f.svc.Apply(context.Background(), sm.ID, ApplyRequest{Commands: []CommandRequest{
		{Op: OpAddItem, ProductID: "unknown"},
	}})
	require.ErrorIs(t, err, httpx.ErrNotFound)

	_, err = f.svc.Apply(context.Background(), sm.ID, ApplyRequest{Commands: []CommandRequest{
		{Op: OpSetQuantity, Quantity: 3},
	}})
	var verr *layout.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "itemId", verr.Field)

	f.repo.updateErr = errors.New("connection reset")
	_, err = f.svc.Apply(context.Background(), sm.ID, ApplyRequest{Commands: []CommandRequest{
		{Op: OpAddItem, ProductID: "fan", Quantity: 1},
	}})
	require.Error(t, err)
	assert.Equal(t, before, f.repo.siteMaps[sm.ID])
	assert.Contains(t, f.edits.ops, "apply:error")
}

func TestApplyWithSyncEnqueuesOnlyWhenLinked(t *testing.T) {
	f := newFixture(t)
	sm := f.create(t, 1)
	add := ApplyRequest{Commands: []CommandRequest{{Op: OpAddItem, ProductID: "switch", Quantity: 4}}, SyncToQuotation: true}

	_, err := f.svc.Apply(context.Background(), sm.ID, add)
	require.NoError(t, err)
	assert.Empty(t, f.jobs.synced)

	f.quotes.items["q-9"] = nil
	_, err = f.svc.AttachQuotation(context.Background(), sm.ID, "q-9")
	require.NoError(t, err)

	f.jobs.err = errors.New("redis down")
	_, err = f.svc.Apply(context.Background(), sm.ID, add)
	require.NoError(t, err, "enqueue failures are logged, not returned")
	assert.Equal(t, [][2]string{{sm.ID, "q-9"}}, f.jobs.synced)
}

func TestReplaceKeepsQuotationLink(t *testing.T) {
	f := newFixture(t)
	sm := f.create(t, 1)
	f.quotes.items["q-2"] = nil
	_, err := f.svc.AttachQuotation(context.Background(), sm.ID, "q-2")
	require.NoError(t, err)

	doc := `{"name": "Edited", "totalFloors": 2, "quotationId": "other",
		"floorDetails": [{"floor_number": 1}, {"floor_number": 2}],
		"items": [{"itemId": "a", "name": "Wire 1.5mm", "quantity": 3, "price": 100, "floor_number": 2, "room_id": null, "isConcealed": true, "concealedCategory": "wiring-cable"}]}`
	out, err := f.svc.Replace(context.Background(), sm.ID, UpdateSiteMapRequest{Document: json.RawMessage(doc), SyncToQuotation: true})
	require.NoError(t, err)

	assert.Equal(t, "Edited", out.Name)
	assert.Equal(t, "cust-1", out.CustomerID)
	require.NotNil(t, out.Document.QuotationID)
	assert.Equal(t, "q-2", *out.Document.QuotationID)
	assert.Equal(t, layout.FromFloat(300), out.Summary.ConcealedTotal)
	assert.Len(t, f.jobs.synced, 1)

	_, err = f.svc.Replace(context.Background(), "nope", UpdateSiteMapRequest{Document: json.RawMessage(doc)})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAttachAndDetachQuotation(t *testing.T) {
	f := newFixture(t)
	sm := f.create(t, 1)
	f.quotes.items["q-a"] = nil
	f.quotes.items["q-b"] = nil

	out, err := f.svc.AttachQuotation(context.Background(), sm.ID, "q-a")
	require.NoError(t, err)
	assert.Equal(t, StatusConverted, out.Status)
	assert.Equal(t, sm.ID, *f.repo.links["q-a"])

	out, err = f.svc.AttachQuotation(context.Background(), sm.ID, "q-b")
	require.NoError(t, err)
	assert.Equal(t, "q-b", *out.QuotationID)
	assert.Nil(t, f.repo.links["q-a"], "the previous quotation is unlinked")

	out, err = f.svc.DetachQuotation(context.Background(), sm.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, out.Status)
	assert.Nil(t, out.QuotationID)
	assert.Nil(t, out.Document.QuotationID)
	assert.Nil(t, f.repo.links["q-b"])

	_, err = f.svc.AttachQuotation(context.Background(), sm.ID, "missing")
	assert.ErrorIs(t, err, httpx.ErrNotFound)
	_, err = f.svc.AttachQuotation(context.Background(), sm.ID, " ")
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestFailedAttachLeavesBothLinksUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.create(t, 1)
	second := f.create(t, 1)
	f.quotes.items["q-a"] = nil
	f.quotes.items["q-b"] = nil

	_, err := f.svc.AttachQuotation(ctx, first.ID, "q-a")
	require.NoError(t, err)
	_, err = f.svc.AttachQuotation(ctx, second.ID, "q-b")
	require.NoError(t, err)

	f.repo.updateErr = fmt.Errorf("quotation already linked to another site map: %w", httpx.ErrConflict)
	_, err = f.svc.AttachQuotation(ctx, second.ID, "q-a")
	require.ErrorIs(t, err, httpx.ErrConflict)
	f.repo.updateErr = nil

	assert.Equal(t, first.ID, *f.repo.links["q-a"])
	assert.Equal(t, second.ID, *f.repo.links["q-b"], "the old quotation keeps its link")

	got, err := f.svc.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "q-a", *got.QuotationID)
	got, err = f.svc.Get(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "q-b", *got.QuotationID)
}

func TestGenerateQuotation(t *testing.T) {
	f := newFixture(t)
	sm := f.create(t, 1)
	_, err := f.svc.Apply(context.Background(), sm.ID, ApplyRequest{Commands: []CommandRequest{
		{Op: OpAddItem, ProductID: "fan", Quantity: 1, FloorNumber: 1},
		{Op: OpAddItem, ProductID: "pipe", Quantity: 5},
	}})
	require.NoError(t, err)

	res, err := f.svc.GenerateQuotation(context.Background(), sm.ID, "u-1")
	require.NoError(t, err)

	assert.Equal(t, "q-generated", res.QuotationID)
	assert.Equal(t, "QT-2610-0001", res.DocNumber)
	assert.Equal(t, StatusConverted, res.SiteMap.Status)
	require.Len(t, f.quotes.created, 1)
	req := f.quotes.created[0]
	assert.Equal(t, "Sharma Villa - Site Based Quotation", req.Title)
	assert.Equal(t, "cust-1", req.CustomerID)
	assert.Equal(t, "u-1", req.CreatedBy)
	assert.Len(t, req.Items, 2)

	require.NotNil(t, f.repo.links["q-generated"])
	assert.Equal(t, sm.ID, *f.repo.links["q-generated"])

	_, err = f.svc.GenerateQuotation(context.Background(), sm.ID, "u-1")
	assert.ErrorIs(t, err, httpx.ErrConflict)

	empty := f.create(t, 1)
	_, err = f.svc.GenerateQuotation(context.Background(), empty.ID, "u-1")
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestGenerateQuotationDiscardsDraftWhenLinkFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sm := f.create(t, 1)
	_, err := f.svc.Apply(ctx, sm.ID, ApplyRequest{Commands: []CommandRequest{{Op: OpAddItem, ProductID: "fan", Quantity: 1}}})
	require.NoError(t, err)

	f.repo.updateErr = errors.New("connection reset")
	_, err = f.svc.GenerateQuotation(ctx, sm.ID, "u-1")
	require.Error(t, err)
	f.repo.updateErr = nil

	assert.Equal(t, []string{"q-generated"}, f.quotes.discarded)
	assert.NotContains(t, f.repo.links, "q-generated")
	got, err := f.svc.Get(ctx, sm.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, got.Status)
	assert.Nil(t, got.QuotationID)
}

func TestSyncQuotation(t *testing.T) {
	f := newFixture(t)
	sm := f.create(t, 1)
	require.NoError(t, f.svc.SyncQuotation(context.Background(), sm.ID))
	assert.Empty(t, f.quotes.replaced)

	f.quotes.items["q-s"] = nil
	_, err := f.svc.AttachQuotation(context.Background(), sm.ID, "q-s")
	require.NoError(t, err)
	_, err = f.svc.Apply(context.Background(), sm.ID, ApplyRequest{Commands: []CommandRequest{{Op: OpAddItem, ProductID: "switch", Quantity: 2}}})
	require.NoError(t, err)

	require.NoError(t, f.svc.SyncQuotation(context.Background(), sm.ID))
	require.Len(t, f.quotes.replaced["q-s"], 1)
	assert.Equal(t, "Modular Switch", f.quotes.replaced["q-s"][0].Name)
}

func TestDeleteUnlinksQuotation(t *testing.T) {
	f := newFixture(t)
	sm := f.create(t, 1)
	f.quotes.items["q-d"] = nil
	_, err := f.svc.AttachQuotation(context.Background(), sm.ID, "q-d")
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(context.Background(), sm.ID))
	assert.Nil(t, f.repo.links["q-d"])
	_, err = f.svc.Get(context.Background(), sm.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, f.svc.Delete(context.Background(), sm.ID), httpx.ErrNotFound)
}

func TestListByCustomerNewestFirst(t *testing.T) {
	f := newFixture(t)
	first := f.create(t, 1)
	second := f.create(t, 1)

	list, err := f.svc.ListByCustomer(context.Background(), "cust-1", ListFilter{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)

	_, err = f.svc.ListByCustomer(context.Background(), "", ListFilter{})
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestSummaryView(t *testing.T) {
	f := newFixture(t)
	sm := f.create(t, 2)
	_, err := f.svc.Apply(context.Background(), sm.ID, ApplyRequest{Commands: []CommandRequest{
		{Op: OpAddItem, ProductID: "fan", Quantity: 1, FloorNumber: 2},
		{Op: OpAddItem, ProductID: "pipe", Quantity: 10},
	}})
	require.NoError(t, err)

	view, err := f.svc.Summary(context.Background(), sm.ID)
	require.NoError(t, err)
	assert.Equal(t, layout.FromFloat(2900), view.Summary.GrandTotal)
	assert.Equal(t, "₹2,500.00", view.Display.Visible)
	assert.Equal(t, "₹400.00", view.Display.Concealed)
	require.Len(t, view.Breakdown.Floors, 3)
	assert.Equal(t, layout.FromFloat(400), view.Breakdown.ConcealedByCategory[layout.CategoryConduitPipe].Amount)
}

func TestCatalogSplit(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.Catalog(context.Background(), catalog.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.VisibleTotal)
	assert.Equal(t, 1, res.ConcealedTotal)
	assert.Equal(t, "pipe", res.Concealed[0].ID)
}
