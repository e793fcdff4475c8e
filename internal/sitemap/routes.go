package sitemap

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the site map and catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/catalog", h.catalogSplit)

	r.Route("/sitemaps", func(r chi.Router) {
		r.Get("/", h.list)
		r.Get("/{id}", h.show)
		r.Get("/{id}/summary", h.summary)

		r.Group(func(r chi.Router) {
			r.Use(h.limiter())
			r.Post("/", h.create)
			r.Post("/from-quotation/{quotationID}", h.createFromQuotation)
			r.Put("/{id}", h.replace)
			r.Delete("/{id}", h.remove)
			r.Post("/{id}/commands", h.apply)
			r.Post("/{id}/quotation", h.generateQuotation)
			r.Put("/{id}/quotation", h.attachQuotation)
			r.Delete("/{id}/quotation", h.detachQuotation)
		})
	})
}

func (h *Handler) limiter() func(http.Handler) http.Handler {
	if h.writeLimit != nil {
		return h.writeLimit
	}
	return func(next http.Handler) http.Handler { return next }
}
