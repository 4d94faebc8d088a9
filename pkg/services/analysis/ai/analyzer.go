package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/de-tools/cluster-iq/pkg/models/domain"
)

// ErrUnavailable marks every AI-tier failure: transport errors, auth
// errors and non-parseable response bodies. The tier is best-effort;
// callers degrade to heuristic-only output.
var ErrUnavailable = errors.New("ai analysis unavailable")

// CompletionClient is the external completion collaborator. The
// implementation owns timeouts and retries; this tier adds neither.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type Settings struct {
	// MaxResourcesPerType bounds the inventory context handed to the
	// model; anything beyond it is sampled deterministically.
	MaxResourcesPerType int
}

func DefaultSettings() Settings {
	return Settings{MaxResourcesPerType: 25}
}

type Analyzer struct {
	client   CompletionClient
	settings Settings
}

func NewAnalyzer(client CompletionClient, settings Settings) *Analyzer {
	return &Analyzer{client: client, settings: settings}
}

const instructionTemplate = `You are an expert Databricks cost optimization analyst. Analyze ALL compute resources below to identify cost leaks, value leaks and optimization opportunities.

COMPUTE INFRASTRUCTURE DATA:
%s

For each issue found, provide:
- type: "cost_leak", "value_leak", or "optimization_opportunity"
- severity: "high", "medium", or "low"
- title: clear, actionable title
- description: detailed explanation of the issue
- resource_type: the resource type key from the data above
- resource_id: the specific resource id
- current_config: current configuration details
- recommended_config: recommended changes
- estimated_savings: estimated monthly cost savings (e.g. "$500/month")
- risk: "High", "Medium", or "Low"
- implementation_steps: array of actionable steps

Return ONLY a valid JSON array of recommendations, without commentary.`

// Analyze submits the bounded inventory context to the completion
// client and parses the structured response. An empty recommendation
// list is a valid result, distinct from ErrUnavailable. The bool
// reports whether the context was truncated.
func (a *Analyzer) Analyze(ctx context.Context, snap domain.Snapshot) ([]domain.Recommendation, bool, error) {
	logger := zerolog.Ctx(ctx)

	payload, truncated, err := buildContext(snap, a.settings.MaxResourcesPerType)
	if err != nil {
		return nil, false, fmt.Errorf("%w: failed to build context: %v", ErrUnavailable, err)
	}
	if truncated {
		logger.Info().
			Int("max_per_type", a.settings.MaxResourcesPerType).
			Msg("inventory context truncated for ai analysis")
	}

	response, err := a.client.Complete(ctx, fmt.Sprintf(instructionTemplate, payload))
	if err != nil {
		return nil, truncated, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	recommendations, dropped, err := parseRecommendations(response)
	if err != nil {
		return nil, truncated, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if dropped > 0 {
		logger.Warn().
			Int("dropped", dropped).
			Msg("ai recommendations dropped for missing required fields")
	}

	return recommendations, truncated, nil
}

// wireRecommendation mirrors the JSON object shape the instruction
// template asks for. Required: type, resource_id, severity.
type wireRecommendation struct {
	Type                string         `json:"type"`
	Severity            string         `json:"severity"`
	Title               string         `json:"title"`
	Description         string         `json:"description"`
	ResourceType        string         `json:"resource_type"`
	ResourceID          any            `json:"resource_id"`
	CurrentConfig       map[string]any `json:"current_config"`
	RecommendedConfig   map[string]any `json:"recommended_config"`
	EstimatedSavings    string         `json:"estimated_savings"`
	Risk                string         `json:"risk"`
	ImplementationSteps []string       `json:"implementation_steps"`
}

// parseRecommendations extracts the JSON array from the completion
// text (tolerating markdown code fences) and validates each record
// independently. Records failing required-field validation are
// dropped and counted; a body that is not a JSON array at all is a
// parse failure for the whole response.
func parseRecommendations(content string) ([]domain.Recommendation, int, error) {
	body := extractJSON(content)

	var rawItems []json.RawMessage
	if err := json.Unmarshal([]byte(body), &rawItems); err != nil {
		// Some models wrap the array in {"recommendations": [...]}.
		var wrapped struct {
			Recommendations []json.RawMessage `json:"recommendations"`
		}
		if err2 := json.Unmarshal([]byte(body), &wrapped); err2 != nil || wrapped.Recommendations == nil {
			return nil, 0, fmt.Errorf("response is not a recommendation list: %v", err)
		}
		rawItems = wrapped.Recommendations
	}

	var (
		recommendations []domain.Recommendation
		dropped         int
	)
	for _, raw := range rawItems {
		var wire wireRecommendation
		if err := json.Unmarshal(raw, &wire); err != nil {
			dropped++
			continue
		}
		rec, ok := mapWireRecommendation(wire)
		if !ok {
			dropped++
			continue
		}
		recommendations = append(recommendations, rec)
	}
	return recommendations, dropped, nil
}

func mapWireRecommendation(wire wireRecommendation) (domain.Recommendation, bool) {
	recType, ok := mapRecommendationType(wire.Type)
	if !ok {
		return domain.Recommendation{}, false
	}
	severity, ok := mapSeverity(wire.Severity)
	if !ok {
		return domain.Recommendation{}, false
	}
	resourceID := coerceID(wire.ResourceID)
	if resourceID == "" {
		return domain.Recommendation{}, false
	}

	return domain.Recommendation{
		Type:                recType,
		Severity:            severity,
		Title:               wire.Title,
		Description:         wire.Description,
		ResourceType:        domain.ResourceType(wire.ResourceType),
		ResourceID:          resourceID,
		CurrentConfig:       wire.CurrentConfig,
		RecommendedConfig:   wire.RecommendedConfig,
		EstimatedSavings:    wire.EstimatedSavings,
		Risk:                wire.Risk,
		ImplementationSteps: wire.ImplementationSteps,
		Source:              domain.TierAI,
	}, true
}

func mapRecommendationType(raw string) (domain.RecommendationType, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "cost_leak":
		return domain.CostLeak, true
	case "value_leak":
		return domain.ValueLeak, true
	case "optimization_opportunity", "optimization":
		return domain.OptimizationOpportunity, true
	default:
		return "", false
	}
}

func mapSeverity(raw string) (domain.Severity, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "high":
		return domain.SeverityHigh, true
	case "medium":
		return domain.SeverityMedium, true
	case "low":
		return domain.SeverityLow, true
	default:
		return domain.SeverityLow, false
	}
}

func coerceID(v any) string {
	switch id := v.(type) {
	case string:
		return strings.TrimSpace(id)
	case float64:
		return fmt.Sprintf("%.0f", id)
	default:
		return ""
	}
}

// extractJSON strips markdown code fences the model tends to wrap the
// array in.
func extractJSON(content string) string {
	content = strings.TrimSpace(content)
	if idx := strings.Index(content, "```json"); idx >= 0 {
		content = content[idx+len("```json"):]
		if end := strings.Index(content, "```"); end >= 0 {
			content = content[:end]
		}
		return strings.TrimSpace(content)
	}
	if idx := strings.Index(content, "```"); idx >= 0 {
		content = content[idx+len("```"):]
		if end := strings.Index(content, "```"); end >= 0 {
			content = content[:end]
		}
		return strings.TrimSpace(content)
	}
	return content
}
