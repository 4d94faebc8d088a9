package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/de-tools/cluster-iq/pkg/adapters"
	"github.com/de-tools/cluster-iq/pkg/models/api"
	"github.com/de-tools/cluster-iq/pkg/models/domain"
	"github.com/de-tools/cluster-iq/pkg/services/advisor"
)

// Service is the advisor surface the HTTP layer consumes.
type Service interface {
	TriggerAnalysis(ctx context.Context) (domain.AnalysisRun, error)
	CurrentRun() (domain.AnalysisRun, bool)
	Summary() domain.SummaryMetrics
	ListResources(ctx context.Context, rt domain.ResourceType) ([]domain.ResourceRecord, error)
	Stats(ctx context.Context) domain.Snapshot
	ClusterMetrics(ctx context.Context, clusterID string) (domain.ResourceRecord, error)
	AIConfigured() bool
}

type Handler struct {
	svc                  Service
	databricksConfigured bool
}

func NewHandler(svc Service, databricksConfigured bool) *Handler {
	return &Handler{svc: svc, databricksConfigured: databricksConfigured}
}

func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	run, err := h.svc.TriggerAnalysis(ctx)
	if errors.Is(err, advisor.ErrAnalysisRunning) {
		writeJSON(ctx, w, http.StatusConflict, api.TriggerResponse{
			Status: api.TriggerAlreadyRunning,
		})
		return
	}
	if err != nil {
		writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}

	apiRun := adapters.MapAnalysisRunDomainToApi(run)
	writeJSON(ctx, w, http.StatusOK, api.TriggerResponse{
		Status: api.TriggerAccepted,
		Run:    &apiRun,
	})
}

func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	run, ok := h.svc.CurrentRun()
	if !ok {
		writeJSON(ctx, w, http.StatusOK, api.RecommendationsResponse{
			HasAnalysis: false,
			Message:     "No analysis available. Please run analysis first.",
		})
		return
	}

	apiRun := adapters.MapAnalysisRunDomainToApi(run)
	writeJSON(ctx, w, http.StatusOK, api.RecommendationsResponse{
		HasAnalysis: true,
		Run:         &apiRun,
	})
}

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	writeJSON(ctx, w, http.StatusOK, adapters.MapSummaryDomainToApi(h.svc.Summary()))
}

func (h *Handler) ListResources(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rt := domain.ResourceType(chi.URLParam(r, "resource"))

	if _, ok := domain.SupportedResources[rt]; !ok {
		writeError(ctx, w, http.StatusNotFound, errors.New("unsupported resource type"))
		return
	}

	records, err := h.svc.ListResources(ctx, rt)
	if err != nil {
		writeError(ctx, w, http.StatusBadGateway, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, adapters.MapResourceRecordsDomainToApi(records))
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	snap := h.svc.Stats(ctx)

	stats := api.Stats{
		Counts:    map[string]int{},
		Timestamp: snap.TakenAt,
	}
	for rt, count := range snap.CountByType() {
		stats.Counts[string(rt)] = count
		stats.TotalResources += count
	}
	for _, rec := range snap.Records {
		if rec.Type != domain.ResourceAllPurposeCluster || rec.State != domain.StateRunning {
			continue
		}
		stats.RunningClusters++
		if _, ok := rec.FloatAttr(domain.AttrPeakCPUUtilization); !ok {
			stats.IdleClusters++
		}
	}
	writeJSON(ctx, w, http.StatusOK, stats)
}

func (h *Handler) GetClusterMetrics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clusterID := chi.URLParam(r, "cluster")

	record, err := h.svc.ClusterMetrics(ctx, clusterID)
	if err != nil {
		writeError(ctx, w, http.StatusBadGateway, err)
		return
	}

	workers, _ := record.IntAttr(domain.AttrNumWorkers)
	metrics := api.ClusterMetrics{
		ClusterId:  record.ID,
		State:      string(record.State),
		NumWorkers: workers,
	}
	if cores, ok := record.FloatAttr("cluster_cores"); ok {
		metrics.ClusterCores = cores
	}
	if mem, ok := record.IntAttr("cluster_memory_mb"); ok {
		metrics.ClusterMemoryMb = int64(mem)
	}
	writeJSON(ctx, w, http.StatusOK, metrics)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	writeJSON(ctx, w, http.StatusOK, api.Health{
		Status:               "healthy",
		DatabricksConfigured: h.databricksConfigured,
		AiConfigured:         h.svc.AIConfigured(),
		Timestamp:            time.Now().UTC(),
	})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	zerolog.Ctx(ctx).Error().Err(err).Msg("request failed")
	writeJSON(ctx, w, status, map[string]string{"error": err.Error()})
}
