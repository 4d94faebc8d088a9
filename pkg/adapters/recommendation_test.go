package adapters

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/cluster-iq/pkg/models/domain"
)

func TestMapRecommendationDomainToApi(t *testing.T) {
	rec := MapRecommendationDomainToApi(domain.Recommendation{
		ID:               "rec_1",
		Type:             domain.CostLeak,
		Severity:         domain.SeverityHigh,
		Title:            "Idle cluster",
		ResourceType:     domain.ResourceAllPurposeCluster,
		ResourceID:       "c1",
		EstimatedSavings: "$500/month",
		Risk:             "Low",
		Source:           domain.TierHeuristic,
	})

	assert.Equal(t, "rec_1", rec.Id)
	assert.Equal(t, "cost_leak", rec.Type)
	assert.Equal(t, "high", string(rec.Severity))
	require.NotNil(t, rec.EstimatedSavings)
	assert.Equal(t, "$500/month", *rec.EstimatedSavings)
	assert.Equal(t, "heuristic", rec.SourceTier)
}

func TestMapRecommendationDomainToApi_NullSavingsAndRisk(t *testing.T) {
	rec := MapRecommendationDomainToApi(domain.Recommendation{
		Type:     domain.ValueLeak,
		Severity: domain.SeverityLow,
	})

	assert.Nil(t, rec.EstimatedSavings)
	assert.Nil(t, rec.Risk)
}

func TestMapSummaryDomainToApi(t *testing.T) {
	now := time.Now().UTC()
	summary := MapSummaryDomainToApi(domain.SummaryMetrics{
		HasAnalysis:          true,
		AnalyzedAt:           now,
		TotalRecommendations: 2,
		TotalSavings:         1234567.89,
		ByType:               map[domain.RecommendationType]int{domain.CostLeak: 2},
		BySeverity:           map[domain.Severity]int{domain.SeverityMedium: 2},
		SavingsByType:        map[domain.RecommendationType]float64{domain.CostLeak: 1234567.89},
		ResourcesByType:      map[domain.ResourceType]int{domain.ResourceSQLWarehouse: 1},
	})

	assert.Equal(t, "$1,234,567.89", summary.TotalCostSavingsFormatted)
	assert.Equal(t, 2, summary.ByType["cost_leak"])
	assert.Equal(t, 2, summary.BySeverity["medium"])
	assert.Equal(t, 1, summary.ResourcesByType["sql_warehouse"])
	require.NotNil(t, summary.AnalysisMetadata.Timestamp)
	assert.Equal(t, now, *summary.AnalysisMetadata.Timestamp)
}

func TestMapSummaryDomainToApi_EmptyRun(t *testing.T) {
	summary := MapSummaryDomainToApi(domain.SummaryMetrics{})

	assert.False(t, summary.AnalysisMetadata.HasAnalysis)
	assert.Nil(t, summary.AnalysisMetadata.Timestamp)
	assert.Equal(t, "$0.00", summary.TotalCostSavingsFormatted)
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "$0.00", formatMoney(0))
	assert.Equal(t, "$999.99", formatMoney(999.99))
	assert.Equal(t, "$1,000.00", formatMoney(1000))
	assert.Equal(t, "$12,345.60", formatMoney(12345.6))
	assert.Equal(t, "$1,234,567.89", formatMoney(1234567.89))
}
