package sitemap

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/sitelayout/internal/catalog"
	"github.com/odyssey-erp/sitelayout/internal/layout"
	"github.com/odyssey-erp/sitelayout/internal/platform/httpx"
)

// UserHeader carries the acting user id set by the gateway.
const UserHeader = "X-User-ID"

// Handler serves the site map JSON API.
type Handler struct {
	logger     *slog.Logger
	service    *Service
	writeLimit func(http.Handler) http.Handler
}

// NewHandler constructs the handler. writeLimit, when set, wraps every
// mutating route.
func NewHandler(logger *slog.Logger, service *Service, writeLimit func(http.Handler) http.Handler) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, writeLimit: writeLimit}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	items, err := h.service.ListByCustomer(r.Context(), q.Get("customerId"), ListFilter{Limit: limit, Offset: offset})
	if err != nil {
		h.fail(w, r, "list site maps", err)
		return
	}
	if items == nil {
		items = []SiteMap{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": items})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	sm, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "get site map", err)
		return
	}
	httpx.JSON(w, http.StatusOK, sm)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateSiteMapRequest
	if !h.bind(w, r, &req) {
		return
	}
	req.CreatedBy = userID(r)
	sm, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.fail(w, r, "create site map", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sm)
}

func (h *Handler) createFromQuotation(w http.ResponseWriter, r *http.Request) {
	var req CreateFromQuotationRequest
	if !h.bind(w, r, &req) {
		return
	}
	req.CreatedBy = userID(r)
	sm, err := h.service.CreateFromQuotation(r.Context(), chi.URLParam(r, "quotationID"), req)
	if err != nil {
		h.fail(w, r, "import site map", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sm)
}

func (h *Handler) replace(w http.ResponseWriter, r *http.Request) {
	var req UpdateSiteMapRequest
	if !h.bind(w, r, &req) {
		return
	}
	sm, err := h.service.Replace(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.fail(w, r, "replace site map", err)
		return
	}
	httpx.JSON(w, http.StatusOK, sm)
}

func (h *Handler) apply(w http.ResponseWriter, r *http.Request) {
	var req ApplyRequest
	if !h.bind(w, r, &req) {
		return
	}
	sm, err := h.service.Apply(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.fail(w, r, "apply site map commands", err)
		return
	}
	httpx.JSON(w, http.StatusOK, sm)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, "delete site map", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Summary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "site map summary", err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) generateQuotation(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.GenerateQuotation(r.Context(), chi.URLParam(r, "id"), userID(r))
	if err != nil {
		h.fail(w, r, "generate quotation", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, res)
}

func (h *Handler) attachQuotation(w http.ResponseWriter, r *http.Request) {
	var req AttachQuotationRequest
	if !h.bind(w, r, &req) {
		return
	}
	sm, err := h.service.AttachQuotation(r.Context(), chi.URLParam(r, "id"), req.QuotationID)
	if err != nil {
		h.fail(w, r, "attach quotation", err)
		return
	}
	httpx.JSON(w, http.StatusOK, sm)
}

func (h *Handler) detachQuotation(w http.ResponseWriter, r *http.Request) {
	sm, err := h.service.DetachQuotation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "detach quotation", err)
		return
	}
	httpx.JSON(w, http.StatusOK, sm)
}

func (h *Handler) catalogSplit(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	res, err := h.service.Catalog(r.Context(), catalog.Filter{
		Search: r.URL.Query().Get("search"),
		Limit:  limit,
	})
	if err != nil {
		h.fail(w, r, "catalog split", err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

// bind decodes and validates a JSON body, writing the problem response on
// failure.
func (h *Handler) bind(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body: "+err.Error())
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fieldPath(fe.Namespace())] = fe.Tag()
			}
			httpx.ValidationProblem(w, "request validation failed", fields)
			return false
		}
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return false
	}
	return true
}

// fail maps layout errors to 400/404 and defers everything else to
// httpx.RespondError.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, action string, err error) {
	var (
		verr *layout.ValidationError
		nerr *layout.NotFoundError
	)
	switch {
	case errors.As(err, &verr):
		httpx.ValidationProblem(w, err.Error(), map[string]string{verr.Field: verr.Reason})
		return
	case errors.As(err, &nerr):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
		return
	case errors.Is(err, layout.ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	case errors.Is(err, layout.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
		return
	}
	level := slog.LevelWarn
	if !errors.Is(err, httpx.ErrNotFound) && !errors.Is(err, httpx.ErrValidation) &&
		!errors.Is(err, httpx.ErrConflict) && !errors.Is(err, httpx.ErrDuplicate) {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, action+" failed", slog.Any("error", err), slog.String("path", r.URL.Path))
	httpx.RespondError(w, err)
}

func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func userID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(UserHeader))
}
