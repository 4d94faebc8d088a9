package domain

import "time"

// SuccessMetrics is the small named-metric block surfaced on the
// dashboard landing page.
type SuccessMetrics struct {
	RecommendationsGenerated int
	HighPriorityActions      int
	PotentialMonthlySavings  float64
	OptimizationCoverage     string // e.g. "3 jobs, 12 resources"
}

// SummaryMetrics is a read-side projection over the current analysis
// run. A zero value is the correct answer when no run exists yet.
type SummaryMetrics struct {
	HasAnalysis          bool
	AnalyzedAt           time.Time
	TotalRecommendations int
	TotalSavings         float64
	ByType               map[RecommendationType]int
	BySeverity           map[Severity]int
	SavingsByType        map[RecommendationType]float64
	ResourcesByType      map[ResourceType]int
	DistinctResources    int
	JobsIdentified       int
	Success              SuccessMetrics
}
