package heuristic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/cluster-iq/pkg/models/domain"
	"github.com/de-tools/cluster-iq/pkg/store/pricing"
)

func newTestAnalyzer() *Analyzer {
	return NewAnalyzer(DefaultSettings(), pricing.NewStore())
}

func recommendationsOfType(recs []domain.Recommendation, rt domain.RecommendationType) []domain.Recommendation {
	var out []domain.Recommendation
	for _, r := range recs {
		if r.Type == rt {
			out = append(out, r)
		}
	}
	return out
}

func TestAnalyze_RunningClusterWithoutSignalAndAutotermination(t *testing.T) {
	record := domain.ResourceRecord{
		Type:  domain.ResourceAllPurposeCluster,
		ID:    "cluster-1",
		Name:  "etl-dev",
		State: domain.StateRunning,
		Attrs: map[string]any{
			domain.AttrNumWorkers: 8,
			domain.AttrNodeType:   "i3.xlarge",
		},
	}

	recs := newTestAnalyzer().Analyze(context.Background(), []domain.ResourceRecord{record})

	require.Len(t, recs, 2)
	leaks := recommendationsOfType(recs, domain.CostLeak)
	require.Len(t, leaks, 2)

	var running, autoterm *domain.Recommendation
	for i := range leaks {
		if leaks[i].Severity == domain.SeverityHigh {
			running = &leaks[i]
		} else {
			autoterm = &leaks[i]
		}
	}
	require.NotNil(t, running)
	require.NotNil(t, autoterm)

	// 8 workers above the threshold of 4 escalates severity.
	assert.Equal(t, domain.SeverityHigh, running.Severity)
	assert.Equal(t, "cluster-1", running.ResourceID)
	assert.Equal(t, "$1797.12/month", running.EstimatedSavings)
	assert.Equal(t, domain.TierHeuristic, running.Source)

	assert.Equal(t, domain.SeverityMedium, autoterm.Severity)
	assert.Equal(t, domain.ResourceAllPurposeCluster, autoterm.ResourceType)
}

func TestAnalyze_SmallClusterGetsMediumSeverity(t *testing.T) {
	record := domain.ResourceRecord{
		Type:  domain.ResourceAllPurposeCluster,
		ID:    "cluster-2",
		Name:  "small",
		State: domain.StateRunning,
		Attrs: map[string]any{
			domain.AttrNumWorkers:             2,
			domain.AttrAutoTerminationMinutes: 60,
		},
	}

	recs := newTestAnalyzer().Analyze(context.Background(), []domain.ResourceRecord{record})

	require.Len(t, recs, 1)
	assert.Equal(t, domain.CostLeak, recs[0].Type)
	assert.Equal(t, domain.SeverityMedium, recs[0].Severity)
	// Worker node type unknown, so the estimate stays empty.
	assert.Empty(t, recs[0].EstimatedSavings)
}

func TestAnalyze_UnderutilizedMultiNodeCluster(t *testing.T) {
	record := domain.ResourceRecord{
		Type:  domain.ResourceJobCluster,
		ID:    "job-9",
		Name:  "nightly-batch",
		State: domain.StateUnknown,
		Attrs: map[string]any{
			domain.AttrNumWorkers:         4,
			domain.AttrNodeType:           "m5.xlarge",
			domain.AttrPeakCPUUtilization: 0.2,
		},
	}

	recs := newTestAnalyzer().Analyze(context.Background(), []domain.ResourceRecord{record})

	require.Len(t, recs, 1)
	rec := recs[0]
	assert.Equal(t, domain.OptimizationOpportunity, rec.Type)
	assert.Equal(t, domain.SeverityMedium, rec.Severity)
	assert.Equal(t, 2, rec.RecommendedConfig[domain.AttrNumWorkers])
	// Savings estimate covers the two workers being removed.
	assert.Equal(t, "$276.48/month", rec.EstimatedSavings)
}

func TestAnalyze_UtilizedClusterProducesNothing(t *testing.T) {
	record := domain.ResourceRecord{
		Type:  domain.ResourceAllPurposeCluster,
		ID:    "cluster-3",
		Name:  "busy",
		State: domain.StateRunning,
		Attrs: map[string]any{
			domain.AttrNumWorkers:             4,
			domain.AttrPeakCPUUtilization:     0.85,
			domain.AttrAutoTerminationMinutes: 30,
		},
	}

	recs := newTestAnalyzer().Analyze(context.Background(), []domain.ResourceRecord{record})
	assert.Empty(t, recs)
}

func TestAnalyze_WarehouseAutoStopDisabled(t *testing.T) {
	record := domain.ResourceRecord{
		Type:  domain.ResourceSQLWarehouse,
		ID:    "wh-1",
		Name:  "bi-warehouse",
		State: domain.StateTerminated,
		Attrs: map[string]any{
			domain.AttrAutoStopMinutes: 0,
			domain.AttrClusterSize:     "Medium",
		},
	}

	recs := newTestAnalyzer().Analyze(context.Background(), []domain.ResourceRecord{record})

	require.Len(t, recs, 1)
	assert.Equal(t, domain.CostLeak, recs[0].Type)
	assert.Equal(t, 10, recs[0].RecommendedConfig[domain.AttrAutoStopMinutes])
}

func TestAnalyze_AutoscalingPinnedAppliesAcrossTypes(t *testing.T) {
	records := []domain.ResourceRecord{
		{
			Type: domain.ResourceAllPurposeCluster, ID: "c-1", Name: "pinned-cluster",
			State: domain.StateTerminated,
			Attrs: map[string]any{
				domain.AttrMinWorkers:             3,
				domain.AttrMaxWorkers:             3,
				domain.AttrAutoTerminationMinutes: 30,
			},
		},
		{
			Type: domain.ResourceSQLWarehouse, ID: "w-1", Name: "pinned-warehouse",
			State: domain.StateTerminated,
			Attrs: map[string]any{
				domain.AttrMinWorkers: 2,
				domain.AttrMaxWorkers: 2,
			},
		},
	}

	recs := newTestAnalyzer().Analyze(context.Background(), records)

	require.Len(t, recs, 2)
	for _, rec := range recs {
		assert.Equal(t, domain.ValueLeak, rec.Type)
		assert.Equal(t, domain.SeverityLow, rec.Severity)
	}
}

func TestAnalyze_PoolAndJobRules(t *testing.T) {
	records := []domain.ResourceRecord{
		{
			Type: domain.ResourcePool, ID: "pool-1", Name: "warm-pool",
			Attrs: map[string]any{
				domain.AttrMinIdleInstances: 5,
				domain.AttrInstanceUseCount: 0,
			},
		},
		{
			Type: domain.ResourceMLJob, ID: "job-1", Name: "empty-job",
			Attrs: map[string]any{
				domain.AttrTaskCount: 0,
			},
		},
	}

	recs := newTestAnalyzer().Analyze(context.Background(), records)

	require.Len(t, recs, 2)
	pool := recommendationsOfType(recs, domain.CostLeak)
	require.Len(t, pool, 1)
	assert.Equal(t, "pool-1", pool[0].ResourceID)

	job := recommendationsOfType(recs, domain.OptimizationOpportunity)
	require.Len(t, job, 1)
	assert.Equal(t, "job-1", job[0].ResourceID)
}

func TestAnalyze_DeterministicForFixedInput(t *testing.T) {
	records := []domain.ResourceRecord{
		{
			Type: domain.ResourceAllPurposeCluster, ID: "c-1", Name: "a",
			State: domain.StateRunning,
			Attrs: map[string]any{domain.AttrNumWorkers: 6, domain.AttrNodeType: "m5.2xlarge"},
		},
		{
			Type: domain.ResourceSQLWarehouse, ID: "w-1", Name: "b",
			Attrs: map[string]any{domain.AttrAutoStopMinutes: 0},
		},
	}

	analyzer := newTestAnalyzer()
	first := analyzer.Analyze(context.Background(), records)
	second := analyzer.Analyze(context.Background(), records)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Title, second[i].Title)
		assert.Equal(t, first[i].EstimatedSavings, second[i].EstimatedSavings)
	}
}
