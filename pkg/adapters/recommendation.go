package adapters

import (
	"fmt"
	"strings"

	"github.com/de-tools/cluster-iq/pkg/models/api"
	"github.com/de-tools/cluster-iq/pkg/models/domain"
)

func MapSeverityDomainToApi(s domain.Severity) api.Severity {
	switch s {
	case domain.SeverityHigh:
		return api.SeverityHigh
	case domain.SeverityMedium:
		return api.SeverityMedium
	default:
		return api.SeverityLow
	}
}

func MapRecommendationDomainToApi(r domain.Recommendation) api.Recommendation {
	rec := api.Recommendation{
		Id:                  r.ID,
		Type:                string(r.Type),
		Severity:            MapSeverityDomainToApi(r.Severity),
		Title:               r.Title,
		Description:         r.Description,
		ResourceType:        string(r.ResourceType),
		ResourceId:          r.ResourceID,
		CurrentConfig:       r.CurrentConfig,
		RecommendedConfig:   r.RecommendedConfig,
		ImplementationSteps: r.ImplementationSteps,
		SourceTier:          string(r.Source),
	}
	if r.EstimatedSavings != "" {
		savings := r.EstimatedSavings
		rec.EstimatedSavings = &savings
	}
	if r.Risk != "" {
		risk := r.Risk
		rec.Risk = &risk
	}
	return rec
}

func MapAnalysisRunDomainToApi(run domain.AnalysisRun) api.AnalysisRun {
	res := api.AnalysisRun{
		RunId:             run.RunID,
		Timestamp:         run.Timestamp,
		ResourcesAnalyzed: map[string]int{},
		AiAttempted:       run.AIAttempted,
		AiSucceeded:       run.AISucceeded,
		Truncated:         run.Truncated,
		Recommendations:   make([]api.Recommendation, 0, len(run.Recommendations)),
	}
	for rt, count := range run.ResourcesAnalyzed {
		res.ResourcesAnalyzed[string(rt)] = count
	}
	if len(run.FetchFailures) > 0 {
		res.FetchFailures = map[string]string{}
		for rt, msg := range run.FetchFailures {
			res.FetchFailures[string(rt)] = msg
		}
	}
	for _, rec := range run.Recommendations {
		res.Recommendations = append(res.Recommendations, MapRecommendationDomainToApi(rec))
	}
	return res
}

func MapSummaryDomainToApi(s domain.SummaryMetrics) api.Summary {
	res := api.Summary{
		TotalCostSavings:          s.TotalSavings,
		TotalCostSavingsFormatted: formatMoney(s.TotalSavings),
		TotalRecommendations:      s.TotalRecommendations,
		JobsIdentified:            s.JobsIdentified,
		ResourcesOptimized:        s.DistinctResources,
		ByType:                    map[string]int{},
		BySeverity:                map[string]int{},
		SavingsByType:             map[string]float64{},
		ResourcesByType:           map[string]int{},
		AnalysisMetadata: api.AnalysisMetadata{
			HasAnalysis: s.HasAnalysis,
		},
		SuccessMetrics: api.SuccessMetrics{
			RecommendationsGenerated: s.Success.RecommendationsGenerated,
			HighPriorityActions:      s.Success.HighPriorityActions,
			PotentialMonthlySavings:  s.Success.PotentialMonthlySavings,
			OptimizationCoverage:     s.Success.OptimizationCoverage,
		},
	}
	for t, count := range s.ByType {
		res.ByType[string(t)] = count
	}
	for sev, count := range s.BySeverity {
		res.BySeverity[string(MapSeverityDomainToApi(sev))] = count
	}
	for t, amount := range s.SavingsByType {
		res.SavingsByType[string(t)] = amount
	}
	for rt, count := range s.ResourcesByType {
		res.ResourcesByType[string(rt)] = count
	}
	if s.HasAnalysis {
		ts := s.AnalyzedAt
		res.AnalysisMetadata.Timestamp = &ts
	}
	return res
}

// formatMoney renders a dollar amount with thousands separators, the
// shape dashboards expect for the headline figure.
func formatMoney(amount float64) string {
	s := fmt.Sprintf("%.2f", amount)
	intPart, fracPart := s, ""
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		intPart, fracPart = s[:dot], s[dot:]
	}
	if len(intPart) <= 3 {
		return "$" + intPart + fracPart
	}
	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	return "$" + b.String() + fracPart
}
