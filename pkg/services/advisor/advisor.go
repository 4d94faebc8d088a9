package advisor

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/de-tools/cluster-iq/pkg/models/domain"
	"github.com/de-tools/cluster-iq/pkg/services/analysis"
	"github.com/de-tools/cluster-iq/pkg/services/analysis/heuristic"
	"github.com/de-tools/cluster-iq/pkg/services/inventory"
)

// AIAnalyzer is the optional second tier. It is best-effort: a nil
// analyzer or any error just means the run carries heuristic output.
type AIAnalyzer interface {
	Analyze(ctx context.Context, snap domain.Snapshot) ([]domain.Recommendation, bool, error)
}

// ClusterInspector fetches the live shape of one cluster for the
// detail endpoint.
type ClusterInspector interface {
	ClusterMetrics(ctx context.Context, clusterID string) (domain.ResourceRecord, error)
}

// Advisor owns the analysis pipeline: normalize, analyze on both
// tiers, reconcile, cache. It is the single entry point the HTTP
// layer talks to.
type Advisor struct {
	fetchers   map[domain.ResourceType]inventory.FetchFunc
	normalizer *inventory.Normalizer
	heuristic  *heuristic.Analyzer
	ai         AIAnalyzer
	inspector  ClusterInspector
	store      *Store
}

func New(
	fetchers map[domain.ResourceType]inventory.FetchFunc,
	heuristicAnalyzer *heuristic.Analyzer,
	aiAnalyzer AIAnalyzer,
	inspector ClusterInspector,
	store *Store,
) *Advisor {
	return &Advisor{
		fetchers:   fetchers,
		normalizer: inventory.NewNormalizer(fetchers),
		heuristic:  heuristicAnalyzer,
		ai:         aiAnalyzer,
		inspector:  inspector,
		store:      store,
	}
}

// TriggerAnalysis runs the full pipeline and installs the result as
// the current run. It returns ErrAnalysisRunning when another trigger
// is already in flight.
func (a *Advisor) TriggerAnalysis(ctx context.Context) (domain.AnalysisRun, error) {
	if err := a.store.Begin(); err != nil {
		return domain.AnalysisRun{}, err
	}

	completed := false
	defer func() {
		if !completed {
			a.store.Abort()
		}
	}()

	run := a.runPipeline(ctx)
	a.store.Complete(run)
	completed = true
	return run, nil
}

func (a *Advisor) runPipeline(ctx context.Context) domain.AnalysisRun {
	logger := zerolog.Ctx(ctx)

	snap := a.normalizer.Snapshot(ctx)
	logger.Info().
		Int("resources", len(snap.Records)).
		Int("failed_types", len(snap.Failures)).
		Msg("inventory snapshot complete")

	// The heuristic tier always completes before the AI tier is
	// awaited; its results are never discarded.
	heuristicRecs := a.heuristic.Analyze(ctx, snap.Records)
	logger.Info().
		Int("recommendations", len(heuristicRecs)).
		Msg("heuristic analysis complete")

	outcome := analysis.AIOutcome{}
	if a.ai != nil {
		outcome.Attempted = true
		aiRecs, truncated, err := a.ai.Analyze(ctx, snap)
		outcome.Truncated = truncated
		if err != nil {
			logger.Warn().Err(err).Msg("ai tier degraded, serving heuristic output")
		} else {
			outcome.Succeeded = true
			outcome.Recommendations = aiRecs
			logger.Info().
				Int("recommendations", len(aiRecs)).
				Msg("ai analysis complete")
		}
	}

	return analysis.Reconcile(*logger, snap, heuristicRecs, outcome)
}

// CurrentRun returns the cached run; false means no analysis has
// completed yet.
func (a *Advisor) CurrentRun() (domain.AnalysisRun, bool) {
	return a.store.Current()
}

// Summary projects the current run into rollup metrics, zeroed when
// no run exists.
func (a *Advisor) Summary() domain.SummaryMetrics {
	run, ok := a.store.Current()
	if !ok {
		return Summarize(nil)
	}
	return Summarize(&run)
}

// ListResources is the normalized pass-through listing for inventory
// display, independent of any analysis run.
func (a *Advisor) ListResources(ctx context.Context, rt domain.ResourceType) ([]domain.ResourceRecord, error) {
	fetch, ok := a.fetchers[rt]
	if !ok {
		return nil, fmt.Errorf("unsupported resource type: %s", rt)
	}
	return fetch(ctx)
}

// Stats reports live inventory counts without touching the cache.
func (a *Advisor) Stats(ctx context.Context) domain.Snapshot {
	return a.normalizer.Snapshot(ctx)
}

func (a *Advisor) ClusterMetrics(ctx context.Context, clusterID string) (domain.ResourceRecord, error) {
	if a.inspector == nil {
		return domain.ResourceRecord{}, fmt.Errorf("cluster inspection not configured")
	}
	return a.inspector.ClusterMetrics(ctx, clusterID)
}

// AIConfigured reports whether the AI tier is wired, for the health
// endpoint.
func (a *Advisor) AIConfigured() bool {
	return a.ai != nil
}
