package main

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/sitelayout/jobs"
)

func TestBuildTask(t *testing.T) {
	task, err := buildTask(jobs.TaskCatalogRefresh, TriggerArgs{})
	require.NoError(t, err)
	assert.Equal(t, jobs.TaskCatalogRefresh, task.Type())
	var refresh jobs.CatalogRefreshPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &refresh))
	assert.Equal(t, "cli", refresh.Reason)

	task, err = buildTask(jobs.TaskSiteMapQuotationSync, TriggerArgs{SiteMapID: "sm-1", QuotationID: "q-1"})
	require.NoError(t, err)
	var sync jobs.QuotationSyncPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &sync))
	assert.Equal(t, jobs.QuotationSyncPayload{SiteMapID: "sm-1", QuotationID: "q-1"}, sync)

	_, err = buildTask(jobs.TaskSiteMapQuotationSync, TriggerArgs{})
	require.Error(t, err)

	_, err = buildTask("analytics:warmup", TriggerArgs{})
	require.Error(t, err)
}

func TestTriggerWithoutClient(t *testing.T) {
	var cli *JobsCLI
	_, err := cli.Trigger(context.Background(), jobs.TaskCatalogRefresh, TriggerArgs{})
	require.Error(t, err)

	_, err = cli.InspectQueue()
	require.Error(t, err)
}
