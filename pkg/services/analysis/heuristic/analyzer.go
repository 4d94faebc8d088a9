package heuristic

import (
	"context"
	"fmt"

	"github.com/de-tools/cluster-iq/pkg/models/domain"
	"github.com/de-tools/cluster-iq/pkg/store/pricing"
)

// Settings contains the configurable thresholds for the rule battery.
type Settings struct {
	// WorkerCountThreshold separates high from medium severity for
	// running compute without a workload signal.
	WorkerCountThreshold int
	// CPUUtilizationThreshold is the peak-utilization fraction below
	// which a multi-node cluster counts as over-provisioned.
	CPUUtilizationThreshold float64
	// MonthlyHoursEstimate feeds the savings formula.
	MonthlyHoursEstimate float64
}

func DefaultSettings() Settings {
	return Settings{
		WorkerCountThreshold:    4,
		CPUUtilizationThreshold: 0.3,
		MonthlyHoursEstimate:    720,
	}
}

// Analyzer evaluates the fixed rule battery against every normalized
// resource. Analyze is deterministic and idempotent for a fixed input.
type Analyzer struct {
	settings Settings
	pricing  pricing.Store
	rules    []Rule
}

func NewAnalyzer(settings Settings, pricingStore pricing.Store) *Analyzer {
	return &Analyzer{
		settings: settings,
		pricing:  pricingStore,
		rules:    defaultRules(),
	}
}

func (a *Analyzer) Analyze(ctx context.Context, records []domain.ResourceRecord) []domain.Recommendation {
	env := Env{
		Settings: a.settings,
		Savings: func(record domain.ResourceRecord, workers int) string {
			return a.estimateMonthlySavings(ctx, record, workers)
		},
	}

	var recommendations []domain.Recommendation
	for _, record := range records {
		for _, rule := range a.rules {
			if !rule.appliesTo(record.Type) {
				continue
			}
			if !rule.Condition(env, record) {
				continue
			}
			rec := rule.Build(env, record)
			rec.Source = domain.TierHeuristic
			recommendations = append(recommendations, rec)
		}
	}
	return recommendations
}

// estimateMonthlySavings computes a deterministic monthly figure from
// worker count, cost table and the configured hours estimate. Unknown
// node types yield an empty string, never a fabricated number.
func (a *Analyzer) estimateMonthlySavings(ctx context.Context, record domain.ResourceRecord, workers int) string {
	if workers <= 0 {
		return ""
	}
	nodeType, ok := record.StringAttr(domain.AttrNodeType)
	if !ok {
		return ""
	}
	price, ok := a.pricing.GetNodeTypePrice(ctx, nodeType)
	if !ok {
		return ""
	}
	amount := float64(workers) * price.PricePerHour * a.settings.MonthlyHoursEstimate
	return fmt.Sprintf("$%.2f/month", amount)
}
