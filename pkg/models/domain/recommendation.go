package domain

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

type RecommendationType string

const (
	CostLeak                RecommendationType = "cost_leak"
	ValueLeak               RecommendationType = "value_leak"
	OptimizationOpportunity RecommendationType = "optimization_opportunity"
)

type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
)

type SourceTier string

const (
	TierHeuristic SourceTier = "heuristic"
	TierAI        SourceTier = "ai"
)

// Recommendation is one actionable finding produced by either tier.
// Recommendations are never mutated after creation; the reconciler
// assigns run-scoped ids on copies.
type Recommendation struct {
	ID                  string
	Type                RecommendationType
	Severity            Severity
	Title               string
	Description         string
	ResourceType        ResourceType
	ResourceID          string
	CurrentConfig       map[string]any
	RecommendedConfig   map[string]any
	EstimatedSavings    string // currency-formatted, empty when no cost model applies
	Risk                string
	ImplementationSteps []string
	Source              SourceTier
}

var savingsAmountPattern = regexp.MustCompile(`\d+(?:,\d{3})*(?:\.\d+)?`)

// SavingsAmount parses the estimated savings string into a
// non-negative monthly USD amount. Percentage figures ("30% reduction")
// and empty strings carry no parseable amount.
func (r Recommendation) SavingsAmount() (float64, bool) {
	s := r.EstimatedSavings
	if s == "" || strings.Contains(s, "%") {
		return 0, false
	}
	match := savingsAmountPattern.FindString(s)
	if match == "" {
		return 0, false
	}
	amount, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
	if err != nil || amount < 0 {
		return 0, false
	}
	return amount, true
}

// AnalysisRun is the metadata envelope around one reconciled
// recommendation set. Exactly one run is current at any time.
type AnalysisRun struct {
	RunID             string
	Timestamp         time.Time
	ResourcesAnalyzed map[ResourceType]int
	FetchFailures     map[ResourceType]string
	AIAttempted       bool
	AISucceeded       bool
	Truncated         bool
	Recommendations   []Recommendation
}
