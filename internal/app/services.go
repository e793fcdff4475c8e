package app

import (
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/sitelayout/internal/catalog"
	"github.com/odyssey-erp/sitelayout/internal/contracts"
	"github.com/odyssey-erp/sitelayout/internal/quotations"
	"github.com/odyssey-erp/sitelayout/internal/sitemap"
)

// Services groups the domain services shared by the server and the worker.
type Services struct {
	Catalog    *catalog.Service
	Quotations *quotations.Service
	SiteMaps   *sitemap.Service
}

// ServiceDeps carries the infrastructure the domain services are built on.
type ServiceDeps struct {
	Config   *Config
	Logger   *slog.Logger
	Pool     *pgxpool.Pool
	Redis    *redis.Client
	Jobs     sitemap.SyncEnqueuer
	Lookups  catalog.LookupRecorder
	Recorder sitemap.EditRecorder
}

// BuildServices wires the catalog, quotation and site map services.
func BuildServices(deps ServiceDeps) (*Services, error) {
	classifier, err := deps.Config.Classifier()
	if err != nil {
		return nil, err
	}
	schemas, err := contracts.Load()
	if err != nil {
		return nil, err
	}

	var source catalog.Source = catalog.NewPostgresSource(deps.Pool)
	if deps.Config.CatalogSource == CatalogSourceRemote {
		source = catalog.NewRemoteSource(deps.Config.CatalogURL, deps.Config.CatalogTimeout)
	}
	catalogService := catalog.NewService(catalog.ServiceConfig{
		Source:     source,
		Cache:      catalog.NewCache(deps.Redis, deps.Config.CatalogCacheTTL),
		Classifier: classifier,
		Logger:     deps.Logger,
		Recorder:   deps.Lookups,
	})

	quotationService := quotations.NewService(quotations.NewRepository(deps.Pool))

	siteMapService := sitemap.NewService(sitemap.ServiceConfig{
		Repo:       sitemap.NewRepository(deps.Pool),
		Catalog:    catalogService,
		Quotations: quotationService,
		Jobs:       deps.Jobs,
		Schemas:    schemas,
		Logger:     deps.Logger,
		Recorder:   deps.Recorder,
	})

	return &Services{Catalog: catalogService, Quotations: quotationService, SiteMaps: siteMapService}, nil
}
