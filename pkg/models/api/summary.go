package api

import "time"

type SuccessMetrics struct {
	RecommendationsGenerated int     `json:"recommendations_generated"`
	HighPriorityActions      int     `json:"high_priority_actions"`
	PotentialMonthlySavings  float64 `json:"potential_monthly_savings"`
	OptimizationCoverage     string  `json:"optimization_coverage"`
}

type AnalysisMetadata struct {
	Timestamp   *time.Time `json:"timestamp"`
	HasAnalysis bool       `json:"has_analysis"`
}

type Summary struct {
	TotalCostSavings          float64            `json:"total_cost_savings"`
	TotalCostSavingsFormatted string             `json:"total_cost_savings_formatted"`
	TotalRecommendations      int                `json:"total_recommendations"`
	JobsIdentified            int                `json:"jobs_identified"`
	ResourcesOptimized        int                `json:"resources_optimized"`
	ByType                    map[string]int     `json:"by_type"`
	BySeverity                map[string]int     `json:"by_severity"`
	SavingsByType             map[string]float64 `json:"savings_by_type"`
	ResourcesByType           map[string]int     `json:"resources_by_type"`
	AnalysisMetadata          AnalysisMetadata   `json:"analysis_metadata"`
	SuccessMetrics            SuccessMetrics     `json:"success_metrics"`
}
