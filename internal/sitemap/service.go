package sitemap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"

	"github.com/odyssey-erp/sitelayout/internal/catalog"
	"github.com/odyssey-erp/sitelayout/internal/contracts"
	"github.com/odyssey-erp/sitelayout/internal/layout"
	"github.com/odyssey-erp/sitelayout/internal/platform/httpx"
	"github.com/odyssey-erp/sitelayout/internal/quotations"
)

// Catalog resolves products and splits the catalog for the picker.
type Catalog interface {
	Product(ctx context.Context, id string) (layout.Product, error)
	Split(ctx context.Context, f catalog.Filter) (catalog.SplitResult, error)
	Classifier() *layout.Classifier
}

// Quotations is the quotation collaborator.
type Quotations interface {
	Items(ctx context.Context, id string) ([]layout.RawItem, error)
	CreateFromItems(ctx context.Context, req quotations.CreateFromItemsRequest) (*quotations.Quotation, error)
	ReplaceLines(ctx context.Context, id string, items []layout.PlacedItem) (*quotations.Quotation, error)
	Discard(ctx context.Context, id string) error
}

// SyncEnqueuer schedules pushing a site map's items to its quotation.
type SyncEnqueuer interface {
	EnqueueQuotationSync(ctx context.Context, siteMapID, quotationID string) error
}

// DocumentValidator checks raw documents against a named schema.
type DocumentValidator interface {
	Validate(key string, raw []byte) error
}

// EditRecorder observes edit outcomes.
type EditRecorder interface {
	SiteMapEdit(op string, err error)
}

// ServiceConfig wires the site map service.
type ServiceConfig struct {
	Repo       Repository
	Catalog    Catalog
	Quotations Quotations
	Jobs       SyncEnqueuer
	Schemas    DocumentValidator
	Logger     *slog.Logger
	Recorder   EditRecorder
}

// Service implements site map use cases.
type Service struct {
	repo       Repository
	catalog    Catalog
	quotations Quotations
	jobs       SyncEnqueuer
	schemas    DocumentValidator
	logger     *slog.Logger
	recorder   EditRecorder
	now        func() time.Time
}

// NewService constructs the service.
func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:       cfg.Repo,
		catalog:    cfg.Catalog,
		quotations: cfg.Quotations,
		jobs:       cfg.Jobs,
		schemas:    cfg.Schemas,
		logger:     logger,
		recorder:   cfg.Recorder,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) classifier() *layout.Classifier {
	if s.catalog == nil {
		return layout.DefaultClassifier()
	}
	return s.catalog.Classifier()
}

func (s *Service) load(rec *SiteMap) (*layout.Model, error) {
	m, err := layout.FromDocument(rec.Document, layout.WithClassifier(s.classifier()))
	if err != nil {
		return nil, fmt.Errorf("site map %s: stored document: %w", rec.ID, err)
	}
	return m, nil
}

func (s *Service) record(op string, err error) {
	if s.recorder != nil {
		s.recorder.SiteMapEdit(op, err)
	}
}

// Create stores a new draft site map. Without a document the floors are
// generated from TotalFloors.
func (s *Service) Create(ctx context.Context, req CreateSiteMapRequest) (*SiteMap, error) {
	var (
		m   *layout.Model
		err error
	)
	if len(req.Document) > 0 {
		m, err = s.decodeDocument(req.Document)
		if err != nil {
			s.record("create", err)
			return nil, err
		}
	} else {
		m = layout.NewModel(req.TotalFloors, layout.WithClassifier(s.classifier()))
	}
	m.CustomerID = strings.TrimSpace(req.CustomerID)
	m.ProjectName = strings.TrimSpace(req.Name)
	if req.SiteSize != "" || len(req.Document) == 0 {
		m.SiteSize = strings.TrimSpace(req.SiteSize)
	}

	rec := SiteMap{ID: uuid.NewString(), Status: StatusDraft, CreatedBy: req.CreatedBy}
	rec.absorb(m)
	if err := s.repo.Create(ctx, rec); err != nil {
		s.record("create", err)
		return nil, fmt.Errorf("create site map: %w", err)
	}
	s.record("create", nil)
	s.logger.Info("site map created", slog.String("site_map_id", rec.ID), slog.Int("floors", m.TotalFloors()))
	return s.repo.Get(ctx, rec.ID)
}

// CreateFromQuotation seeds a site map from quotation lines. Every item
// starts unassigned; the quotation is linked both ways.
func (s *Service) CreateFromQuotation(ctx context.Context, quotationID string, req CreateFromQuotationRequest) (*SiteMap, error) {
	items, err := s.quotations.Items(ctx, quotationID)
	if err != nil {
		return nil, fmt.Errorf("load quotation items: %w", err)
	}
	m := layout.ImportFromQuotation(items, req.TotalFloors, layout.ImportOptions{
		CustomerID:  strings.TrimSpace(req.CustomerID),
		ProjectName: strings.TrimSpace(req.Name),
		QuotationID: quotationID,
		Classifier:  s.classifier(),
	})
	m.SiteSize = strings.TrimSpace(req.SiteSize)

	qid := quotationID
	rec := SiteMap{ID: uuid.NewString(), Status: StatusConverted, QuotationID: &qid, CreatedBy: req.CreatedBy}
	rec.absorb(m)

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.Create(ctx, rec); err != nil {
			return err
		}
		id := rec.ID
		return repo.LinkQuotation(ctx, quotationID, &id)
	})
	if err != nil {
		s.record("import", err)
		return nil, fmt.Errorf("create site map from quotation: %w", err)
	}
	s.record("import", nil)
	s.logger.Info("site map imported",
		slog.String("site_map_id", rec.ID),
		slog.String("quotation_id", quotationID),
		slog.Int("items", m.Len()),
	)
	return s.repo.Get(ctx, rec.ID)
}

// Get returns one site map.
func (s *Service) Get(ctx context.Context, id string) (*SiteMap, error) {
	return s.repo.Get(ctx, id)
}

// ListByCustomer returns a customer's site maps, newest first.
func (s *Service) ListByCustomer(ctx context.Context, customerID string, f ListFilter) ([]SiteMap, error) {
	if strings.TrimSpace(customerID) == "" {
		return nil, fmt.Errorf("%w: customerId is required", httpx.ErrValidation)
	}
	return s.repo.ListByCustomer(ctx, customerID, f)
}

// Delete removes a site map and clears the link on its quotation.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		rec, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if rec.Linked() {
			if err := repo.LinkQuotation(ctx, *rec.QuotationID, nil); err != nil && !errors.Is(err, httpx.ErrNotFound) {
				return fmt.Errorf("unlink quotation: %w", err)
			}
		}
		return repo.Delete(ctx, id)
	})
}

// Apply runs a batch of edits. Either every command lands or the stored
// site map is left as it was.
func (s *Service) Apply(ctx context.Context, id string, req ApplyRequest) (*SiteMap, error) {
	cmds, err := s.Commands(ctx, req.Commands)
	if err != nil {
		s.record("apply", err)
		return nil, err
	}
	rec, err := s.mutate(ctx, id, func(rec *SiteMap, m *layout.Model) (*layout.Model, error) {
		return layout.Apply(m, cmds...)
	})
	s.record("apply", err)
	if err != nil {
		return nil, err
	}
	if req.SyncToQuotation {
		s.enqueueSync(ctx, rec)
	}
	return rec, nil
}

// Replace swaps in a whole document. The quotation link is kept.
func (s *Service) Replace(ctx context.Context, id string, req UpdateSiteMapRequest) (*SiteMap, error) {
	next, err := s.decodeDocument(req.Document)
	if err != nil {
		s.record("replace", err)
		return nil, err
	}
	rec, err := s.mutate(ctx, id, func(rec *SiteMap, _ *layout.Model) (*layout.Model, error) {
		if next.CustomerID == "" {
			next.CustomerID = rec.CustomerID
		}
		return next, nil
	})
	s.record("replace", err)
	if err != nil {
		return nil, err
	}
	if req.SyncToQuotation {
		s.enqueueSync(ctx, rec)
	}
	return rec, nil
}

// AttachQuotation links a quotation and marks the site map converted.
func (s *Service) AttachQuotation(ctx context.Context, id, quotationID string) (*SiteMap, error) {
	quotationID = strings.TrimSpace(quotationID)
	if quotationID == "" {
		return nil, fmt.Errorf("%w: quotationId is required", httpx.ErrValidation)
	}
	return s.relink(ctx, id, &quotationID, StatusConverted, false)
}

// DetachQuotation clears the link on both sides and returns the site map to
// draft.
func (s *Service) DetachQuotation(ctx context.Context, id string) (*SiteMap, error) {
	return s.relink(ctx, id, nil, StatusDraft, false)
}

// relink rewrites both sides of the quotation link in one transaction. With
// onlyUnlinked set, a site map that is already linked is a conflict.
func (s *Service) relink(ctx context.Context, id string, quotationID *string, status Status, onlyUnlinked bool) (*SiteMap, error) {
	var out SiteMap
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		rec, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if onlyUnlinked && rec.Linked() {
			return fmt.Errorf("%w: site map already linked to quotation %s", httpx.ErrConflict, *rec.QuotationID)
		}
		if rec.Linked() && (quotationID == nil || *rec.QuotationID != *quotationID) {
			if err := repo.LinkQuotation(ctx, *rec.QuotationID, nil); err != nil && !errors.Is(err, httpx.ErrNotFound) {
				return fmt.Errorf("unlink quotation: %w", err)
			}
		}
		if quotationID != nil {
			if err := repo.LinkQuotation(ctx, *quotationID, &rec.ID); err != nil {
				return fmt.Errorf("link quotation: %w", err)
			}
		}
		m, err := s.load(rec)
		if err != nil {
			return err
		}
		rec.QuotationID = quotationID
		rec.Status = status
		rec.absorb(m)
		rec.UpdatedAt = s.now()
		if err := repo.Update(ctx, *rec); err != nil {
			return err
		}
		out = *rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateQuotation creates a draft quotation holding every placed item and
// links it to the site map. The draft is discarded when the link cannot be
// made.
func (s *Service) GenerateQuotation(ctx context.Context, id, userID string) (*GenerateQuotationResponse, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Linked() {
		return nil, fmt.Errorf("%w: site map already linked to quotation %s", httpx.ErrConflict, *rec.QuotationID)
	}
	m, err := s.load(rec)
	if err != nil {
		return nil, err
	}
	q, err := s.quotations.CreateFromItems(ctx, quotations.CreateFromItemsRequest{
		CustomerID: rec.CustomerID,
		Title:      rec.Name + QuotationTitleSuffix,
		CreatedBy:  userID,
		Items:      m.Items(),
	})
	if err != nil {
		return nil, fmt.Errorf("generate quotation: %w", err)
	}
	linked, err := s.relink(ctx, id, &q.ID, StatusConverted, true)
	if err != nil {
		if derr := s.quotations.Discard(ctx, q.ID); derr != nil {
			s.logger.Error("discard unlinked quotation",
				slog.String("site_map_id", id),
				slog.String("quotation_id", q.ID),
				slog.Any("error", derr),
			)
		}
		return nil, err
	}
	s.logger.Info("quotation generated from site map",
		slog.String("site_map_id", id),
		slog.String("quotation_id", q.ID),
		slog.String("doc_number", q.DocNumber),
	)
	return &GenerateQuotationResponse{SiteMap: linked, QuotationID: q.ID, DocNumber: q.DocNumber}, nil
}

// SyncQuotation pushes the placed items of a site map to its linked
// quotation. Unlinked site maps are skipped.
func (s *Service) SyncQuotation(ctx context.Context, id string) error {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !rec.Linked() {
		return nil
	}
	m, err := s.load(rec)
	if err != nil {
		return err
	}
	if _, err := s.quotations.ReplaceLines(ctx, *rec.QuotationID, m.Items()); err != nil {
		return fmt.Errorf("sync quotation %s: %w", *rec.QuotationID, err)
	}
	return nil
}

// Summary returns the totals and the per-floor breakdown.
func (s *Service) Summary(ctx context.Context, id string) (*SummaryView, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	m, err := s.load(rec)
	if err != nil {
		return nil, err
	}
	sum := m.Summary()
	return &SummaryView{
		SiteMapID: rec.ID,
		Summary:   sum,
		Breakdown: m.Breakdown(),
		Display: DisplayTotals{
			Visible:   sum.VisibleTotal.Format(language.English),
			Concealed: sum.ConcealedTotal.Format(language.English),
			Grand:     sum.GrandTotal.Format(language.English),
		},
	}, nil
}

// Catalog returns the product picker lists.
func (s *Service) Catalog(ctx context.Context, f catalog.Filter) (catalog.SplitResult, error) {
	return s.catalog.Split(ctx, f)
}

// Commands turns requests into layout commands, resolving products for
// add_item against the catalog.
func (s *Service) Commands(ctx context.Context, reqs []CommandRequest) ([]layout.Command, error) {
	cmds := make([]layout.Command, 0, len(reqs))
	for i, r := range reqs {
		cmd, err := s.command(ctx, r)
		if err != nil {
			return nil, fmt.Errorf("commands[%d] %s: %w", i, r.Op, err)
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

func (s *Service) command(ctx context.Context, r CommandRequest) (layout.Command, error) {
	switch r.Op {
	case OpSetDetails:
		return layout.SetDetails{CustomerID: r.CustomerID, ProjectName: r.Name, SiteSize: r.SiteSize}, nil
	case OpResizeFloors:
		return layout.ResizeFloors{TotalFloors: r.TotalFloors}, nil
	case OpEditFloor:
		return layout.EditFloor{Floor: r.FloorNumber, Patch: layout.FloorPatch{Name: r.Name, Size: r.Size, Notes: r.Notes}}, nil
	case OpAddRoom:
		return layout.AddRoom{Floor: r.FloorNumber, Room: layout.RoomInput{
			Name:  deref(r.Name),
			Type:  deref(r.Type),
			Size:  deref(r.Size),
			Notes: deref(r.Notes),
		}}, nil
	case OpEditRoom:
		if r.RoomID == "" {
			return nil, missing("roomId")
		}
		return layout.EditRoom{RoomID: r.RoomID, Patch: layout.RoomPatch{Name: r.Name, Type: r.Type, Size: r.Size, Notes: r.Notes}}, nil
	case OpDeleteRoom:
		if r.RoomID == "" {
			return nil, missing("roomId")
		}
		return layout.DeleteRoom{Floor: r.FloorNumber, RoomID: r.RoomID}, nil
	case OpAddItem:
		if r.ProductID == "" {
			return nil, missing("productId")
		}
		p, err := s.catalog.Product(ctx, r.ProductID)
		if err != nil {
			return nil, err
		}
		if r.Price != nil {
			p.UnitPrice = *r.Price
		}
		return layout.AddItem{Product: p, Quantity: r.Quantity, Location: layout.Location{Floor: r.FloorNumber, RoomID: r.RoomID}}, nil
	case OpSetQuantity:
		if r.ItemID == "" {
			return nil, missing("itemId")
		}
		return layout.SetQuantity{ItemID: r.ItemID, Quantity: r.Quantity}, nil
	case OpSetPrice:
		if r.ItemID == "" {
			return nil, missing("itemId")
		}
		if r.Price == nil {
			return nil, missing("price")
		}
		return layout.SetUnitPrice{ItemID: r.ItemID, Price: *r.Price}, nil
	case OpAssignItem:
		if r.ItemID == "" {
			return nil, missing("itemId")
		}
		return layout.AssignItem{ItemID: r.ItemID, Floor: r.FloorNumber, RoomID: r.RoomID}, nil
	case OpUnassignItem:
		if r.ItemID == "" {
			return nil, missing("itemId")
		}
		return layout.UnassignItem{ItemID: r.ItemID}, nil
	case OpRemoveItem:
		if r.ItemID == "" {
			return nil, missing("itemId")
		}
		return layout.RemoveItem{ItemID: r.ItemID}, nil
	}
	return nil, &layout.ValidationError{Field: "op", Reason: "unknown operation " + r.Op}
}

// mutate loads a site map under a row lock, lets fn produce the next model
// and stores it.
func (s *Service) mutate(ctx context.Context, id string, fn func(*SiteMap, *layout.Model) (*layout.Model, error)) (*SiteMap, error) {
	var out SiteMap
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		rec, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		m, err := s.load(rec)
		if err != nil {
			return err
		}
		next, err := fn(rec, m)
		if err != nil {
			return err
		}
		rec.absorb(next)
		rec.UpdatedAt = s.now()
		if err := repo.Update(ctx, *rec); err != nil {
			return err
		}
		out = *rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) decodeDocument(raw json.RawMessage) (*layout.Model, error) {
	if s.schemas != nil {
		if err := s.schemas.Validate(contracts.SiteMapV1, raw); err != nil {
			return nil, fmt.Errorf("%w: %w", httpx.ErrValidation, err)
		}
	}
	var doc layout.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode document: %w", httpx.ErrValidation, err)
	}
	return layout.FromDocument(doc, layout.WithClassifier(s.classifier()))
}

func (s *Service) enqueueSync(ctx context.Context, rec *SiteMap) {
	if s.jobs == nil || !rec.Linked() {
		return
	}
	if err := s.jobs.EnqueueQuotationSync(ctx, rec.ID, *rec.QuotationID); err != nil {
		s.logger.Warn("enqueue quotation sync failed",
			slog.String("site_map_id", rec.ID),
			slog.Any("error", err),
		)
	}
}

func missing(field string) error {
	return &layout.ValidationError{Field: field, Reason: "is required"}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
