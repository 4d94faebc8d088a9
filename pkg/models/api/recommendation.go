package api

import "time"

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

type Recommendation struct {
	Id                  string         `json:"id"`
	Type                string         `json:"type"`
	Severity            Severity       `json:"severity"`
	Title               string         `json:"title"`
	Description         string         `json:"description"`
	ResourceType        string         `json:"resource_type"`
	ResourceId          string         `json:"resource_id"`
	CurrentConfig       map[string]any `json:"current_config,omitempty"`
	RecommendedConfig   map[string]any `json:"recommended_config,omitempty"`
	EstimatedSavings    *string        `json:"estimated_savings"`
	Risk                *string        `json:"risk"`
	ImplementationSteps []string       `json:"implementation_steps,omitempty"`
	SourceTier          string         `json:"source_tier"`
}

type AnalysisRun struct {
	RunId             string            `json:"run_id"`
	Timestamp         time.Time         `json:"timestamp"`
	ResourcesAnalyzed map[string]int    `json:"resources_analyzed"`
	FetchFailures     map[string]string `json:"fetch_failures,omitempty"`
	AiAttempted       bool              `json:"ai_attempted"`
	AiSucceeded       bool              `json:"ai_succeeded"`
	Truncated         bool              `json:"truncated"`
	Recommendations   []Recommendation  `json:"recommendations"`
}

// RecommendationsResponse wraps the cached run so consumers can render
// a "run analysis" prompt instead of an error when nothing has run yet.
type RecommendationsResponse struct {
	HasAnalysis bool         `json:"has_analysis"`
	Message     string       `json:"message,omitempty"`
	Run         *AnalysisRun `json:"run,omitempty"`
}

const (
	TriggerAccepted       = "accepted"
	TriggerAlreadyRunning = "already_running"
)

type TriggerResponse struct {
	Status string       `json:"status"`
	Run    *AnalysisRun `json:"run,omitempty"`
}
