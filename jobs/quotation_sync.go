package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/sitelayout/internal/jobs"
	"github.com/odyssey-erp/sitelayout/internal/platform/httpx"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// QuotationSyncer pushes a site map's items to its linked quotation.
type QuotationSyncer interface {
	SyncQuotation(ctx context.Context, siteMapID string) error
}

// QuotationSyncJob handles TaskSiteMapQuotationSync.
type QuotationSyncJob struct {
	Syncer  QuotationSyncer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewQuotationSyncJob wires dependencies for the sync handler.
func NewQuotationSyncJob(syncer QuotationSyncer, logger *slog.Logger, metrics *jobmetrics.Metrics) *QuotationSyncJob {
	return &QuotationSyncJob{Syncer: syncer, Logger: logger, Metrics: metrics}
}

// Handle processes quotation sync tasks. Missing site maps or quotations are
// not retried.
func (j *QuotationSyncJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Syncer == nil {
		return errors.New("quotation sync: handler not configured")
	}
	var payload QuotationSyncPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.SiteMapID == "" {
		return asynq.SkipRetry
	}

	tracker := metricsOrDefault(j.Metrics).Track(TaskSiteMapQuotationSync)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := jobLogger(j.Logger, TaskSiteMapQuotationSync).With(
		slog.String("site_map_id", payload.SiteMapID),
		slog.String("quotation_id", payload.QuotationID),
	)
	if err := j.Syncer.SyncQuotation(ctx, payload.SiteMapID); err != nil {
		if errors.Is(err, httpx.ErrNotFound) || errors.Is(err, httpx.ErrConflict) {
			resultErr = err
			logger.Warn("quotation sync skipped", slog.Any("error", err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		resultErr = err
		logger.Error("quotation sync failed", slog.Any("error", err))
		return resultErr
	}
	metricsOrDefault(j.Metrics).AddSyncedSiteMaps(1)
	logger.Info("quotation synced")
	return resultErr
}

func jobLogger(logger *slog.Logger, job string) *slog.Logger {
	if logger != nil {
		return logger.With(slog.String("job", job))
	}
	return slog.Default().With(slog.String("job", job))
}

func metricsOrDefault(m *jobmetrics.Metrics) *jobmetrics.Metrics {
	if m != nil {
		return m
	}
	return defaultJobMetrics
}
