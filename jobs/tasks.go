package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSiteMapQuotationSync pushes a site map's placed items to its quotation.
	TaskSiteMapQuotationSync = "sitemap:quotation-sync"
	// TaskCatalogRefresh reloads the product catalog into the cache.
	TaskCatalogRefresh = "catalog:refresh"
)

// QuotationSyncPayload identifies the site map to push.
type QuotationSyncPayload struct {
	SiteMapID   string `json:"site_map_id"`
	QuotationID string `json:"quotation_id"`
}

// CatalogRefreshPayload records why a refresh was requested. Reason only
// ends up in the job log.
type CatalogRefreshPayload struct {
	Reason string `json:"reason,omitempty"`
}

// NewQuotationSyncTask constructs an Asynq task. Syncs for the same site map
// collapse while one is pending.
func NewQuotationSyncTask(payload QuotationSyncPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSiteMapQuotationSync, data,
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
		asynq.Unique(time.Minute),
	), nil
}

// NewCatalogRefreshTask constructs an Asynq task.
func NewCatalogRefreshTask(payload CatalogRefreshPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCatalogRefresh, data, asynq.MaxRetry(2), asynq.Timeout(2*time.Minute)), nil
}
