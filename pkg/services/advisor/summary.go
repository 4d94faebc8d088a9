package advisor

import (
	"fmt"

	"github.com/de-tools/cluster-iq/pkg/models/domain"
)

// Summarize derives the rollup metrics from one analysis run. It is a
// pure read-side projection; a nil run yields zeroed metrics so the
// dashboard can render a "run analysis" prompt.
func Summarize(run *domain.AnalysisRun) domain.SummaryMetrics {
	metrics := domain.SummaryMetrics{
		ByType:          map[domain.RecommendationType]int{},
		BySeverity:      map[domain.Severity]int{},
		SavingsByType:   map[domain.RecommendationType]float64{},
		ResourcesByType: map[domain.ResourceType]int{},
	}
	if run == nil {
		return metrics
	}

	metrics.HasAnalysis = true
	metrics.AnalyzedAt = run.Timestamp
	metrics.TotalRecommendations = len(run.Recommendations)

	type resourceKey struct {
		rt domain.ResourceType
		id string
	}
	resources := map[resourceKey]bool{}
	jobs := map[string]bool{}

	for _, rec := range run.Recommendations {
		metrics.ByType[rec.Type]++
		metrics.BySeverity[rec.Severity]++

		if amount, ok := rec.SavingsAmount(); ok {
			metrics.TotalSavings += amount
			metrics.SavingsByType[rec.Type] += amount
		}

		key := resourceKey{rec.ResourceType, rec.ResourceID}
		if !resources[key] {
			resources[key] = true
			metrics.ResourcesByType[rec.ResourceType]++
		}
		if rec.ResourceType == domain.ResourceJobCluster || rec.ResourceType == domain.ResourceMLJob {
			jobs[rec.ResourceID] = true
		}
	}

	metrics.DistinctResources = len(resources)
	metrics.JobsIdentified = len(jobs)
	metrics.Success = domain.SuccessMetrics{
		RecommendationsGenerated: metrics.TotalRecommendations,
		HighPriorityActions:      metrics.BySeverity[domain.SeverityHigh],
		PotentialMonthlySavings:  metrics.TotalSavings,
		OptimizationCoverage: fmt.Sprintf("%d jobs, %d resources",
			metrics.JobsIdentified, metrics.DistinctResources),
	}
	return metrics
}
