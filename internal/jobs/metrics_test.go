package jobmetrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, reg *prometheus.Registry) string {
	t.Helper()
	rr := httptest.NewRecorder()
	promhttp.HandlerFor(reg, promhttp.HandlerOpts{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	return rr.Body.String()
}

func TestTrackerRecordsOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	assert.NoError(t, m.Track("catalog:refresh").End(nil))
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("catalog:refresh").End(boom), boom)

	body := scrape(t, reg)
	assert.Contains(t, body, `sitelayout_jobs_total{job="catalog:refresh",status="success"} 1`)
	assert.Contains(t, body, `sitelayout_jobs_total{job="catalog:refresh",status="failure"} 1`)
	assert.Contains(t, body, `sitelayout_jobs_failures_total{job="catalog:refresh"} 1`)
	assert.Contains(t, body, `sitelayout_job_duration_seconds_count{job="catalog:refresh"} 2`)
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	err := errors.New("x")
	assert.Equal(t, err, m.Track("job").End(err))
	m.AddSyncedSiteMaps(3)
}

func TestAddSyncedSiteMaps(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.AddSyncedSiteMaps(0)
	m.AddSyncedSiteMaps(2)
	assert.Contains(t, scrape(t, reg), "sitelayout_quotation_syncs_total 2")
}
