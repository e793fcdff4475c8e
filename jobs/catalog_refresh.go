package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/sitelayout/internal/jobs"
)

// CatalogRefresher reloads the cached catalog.
type CatalogRefresher interface {
	Refresh(ctx context.Context) (int, error)
}

// CatalogRefreshJob warms the catalog cache, normally from cron.
type CatalogRefreshJob struct {
	Catalog CatalogRefresher
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewCatalogRefreshJob wires dependencies for the refresh handler.
func NewCatalogRefreshJob(catalog CatalogRefresher, logger *slog.Logger, metrics *jobmetrics.Metrics) *CatalogRefreshJob {
	return &CatalogRefreshJob{Catalog: catalog, Logger: logger, Metrics: metrics}
}

// Handle processes catalog refresh tasks.
func (j *CatalogRefreshJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Catalog == nil {
		return errors.New("catalog refresh: handler not configured")
	}
	var payload CatalogRefreshPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}

	tracker := metricsOrDefault(j.Metrics).Track(TaskCatalogRefresh)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := jobLogger(j.Logger, TaskCatalogRefresh)
	start := time.Now()
	count, err := j.Catalog.Refresh(ctx)
	if err != nil {
		resultErr = err
		logger.Error("catalog refresh failed", slog.Any("error", err))
		return resultErr
	}
	logger.Info("catalog refreshed",
		slog.Int("products", count),
		slog.String("reason", payload.Reason),
		slog.Duration("duration", time.Since(start)),
	)
	return resultErr
}
