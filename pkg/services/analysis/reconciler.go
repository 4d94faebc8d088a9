package analysis

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/de-tools/cluster-iq/pkg/models/domain"
)

// AIOutcome is what the AI tier handed back: possibly nothing. The
// reconciler never assumes AI presence.
type AIOutcome struct {
	Attempted       bool
	Succeeded       bool
	Truncated       bool
	Recommendations []domain.Recommendation
}

// Reconcile merges the heuristic and AI outputs into one ordered,
// de-duplicated AnalysisRun. Heuristic findings are the availability
// guarantee and always take precedence on a (resource_id, type) pair.
func Reconcile(logger zerolog.Logger, snap domain.Snapshot, heuristic []domain.Recommendation, ai AIOutcome) domain.AnalysisRun {
	type pairKey struct {
		resourceID string
		recType    domain.RecommendationType
	}

	merged := make([]domain.Recommendation, 0, len(heuristic)+len(ai.Recommendations))
	seen := make(map[pairKey]bool, len(heuristic))
	orphans := 0

	for _, rec := range heuristic {
		merged = append(merged, rec)
		seen[pairKey{rec.ResourceID, rec.Type}] = true
	}

	if ai.Succeeded {
		for _, rec := range ai.Recommendations {
			key := pairKey{rec.ResourceID, rec.Type}
			if seen[key] {
				continue
			}
			// Recommendations naming resources outside the
			// snapshot are dropped and counted.
			if !referencesKnownResource(snap, rec) {
				orphans++
				continue
			}
			seen[key] = true
			merged = append(merged, rec)
		}
	}
	if orphans > 0 {
		logger.Error().
			Int("dropped", orphans).
			Msg("ai recommendations referenced resources outside the analyzed set")
	}

	sortRecommendations(merged)
	for i := range merged {
		merged[i].ID = fmt.Sprintf("rec_%d", i+1)
	}

	return domain.AnalysisRun{
		RunID:             uuid.NewString(),
		Timestamp:         time.Now().UTC(),
		ResourcesAnalyzed: snap.CountByType(),
		FetchFailures:     snap.Failures,
		AIAttempted:       ai.Attempted,
		AISucceeded:       ai.Succeeded,
		Truncated:         ai.Truncated,
		Recommendations:   merged,
	}
}

func referencesKnownResource(snap domain.Snapshot, rec domain.Recommendation) bool {
	if snap.Contains(rec.ResourceType, rec.ResourceID) {
		return true
	}
	// The model occasionally mislabels the type of a real resource.
	for _, r := range snap.Records {
		if r.ID == rec.ResourceID {
			return true
		}
	}
	return false
}

// sortRecommendations orders by severity (high first), then descending
// parsed savings with nulls last, then resource_type for stability.
// This ordering is a user-facing contract.
func sortRecommendations(recs []domain.Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Severity != recs[j].Severity {
			return recs[i].Severity > recs[j].Severity
		}
		si, oki := recs[i].SavingsAmount()
		sj, okj := recs[j].SavingsAmount()
		if oki != okj {
			return oki
		}
		if oki && si != sj {
			return si > sj
		}
		return recs[i].ResourceType < recs[j].ResourceType
	})
}
