package databricks

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/de-tools/cluster-iq/pkg/models/domain"
)

// The Lakebase and feature-store surfaces have no high-level service
// in the SDK yet; they go through the raw API client.

type lakebaseInstance struct {
	Name     string `json:"name"`
	Uid      string `json:"uid"`
	State    string `json:"state"`
	Capacity string `json:"capacity"`
}

type listLakebaseResponse struct {
	DatabaseInstances []lakebaseInstance `json:"database_instances"`
}

func (c *Client) ListLakebaseInstances(ctx context.Context) ([]domain.ResourceRecord, error) {
	var resp listLakebaseResponse
	err := c.api.Do(ctx, http.MethodGet, "/api/2.0/database/instances",
		nil, nil, nil, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to list lakebase instances: %w", err)
	}

	var records []domain.ResourceRecord
	for _, inst := range resp.DatabaseInstances {
		id := inst.Uid
		if id == "" {
			id = inst.Name
		}
		records = append(records, domain.ResourceRecord{
			Type:  domain.ResourceLakebase,
			ID:    id,
			Name:  inst.Name,
			State: mapState(inst.State),
			Attrs: map[string]any{
				"capacity": inst.Capacity,
			},
			FetchedAt: time.Now().UTC(),
		})
	}
	return records, nil
}

type featureTable struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type searchFeatureTablesResponse struct {
	FeatureTables []featureTable `json:"feature_tables"`
}

func (c *Client) ListFeatureStoreTables(ctx context.Context) ([]domain.ResourceRecord, error) {
	var resp searchFeatureTablesResponse
	err := c.api.Do(ctx, http.MethodGet, "/api/2.0/feature-store/feature-tables/search",
		nil, nil, nil, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to search feature tables: %w", err)
	}

	var records []domain.ResourceRecord
	for _, table := range resp.FeatureTables {
		records = append(records, domain.ResourceRecord{
			Type:  domain.ResourceFeatureStoreTable,
			ID:    table.Name,
			Name:  table.Name,
			State: domain.StateUnknown,
			Attrs: map[string]any{
				"description": table.Description,
			},
			FetchedAt: time.Now().UTC(),
		})
	}
	return records, nil
}

type appInfo struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	ComputeStatus struct {
		State string `json:"state"`
	} `json:"compute_status"`
}

type listAppsResponse struct {
	Apps []appInfo `json:"apps"`
}

func (c *Client) ListApps(ctx context.Context) ([]domain.ResourceRecord, error) {
	var resp listAppsResponse
	err := c.api.Do(ctx, http.MethodGet, "/api/2.0/apps",
		nil, nil, nil, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to list apps: %w", err)
	}

	var records []domain.ResourceRecord
	for _, app := range resp.Apps {
		records = append(records, domain.ResourceRecord{
			Type:  domain.ResourceApp,
			ID:    app.Name,
			Name:  app.Name,
			State: mapState(app.ComputeStatus.State),
			Attrs: map[string]any{
				"description": app.Description,
			},
			FetchedAt: time.Now().UTC(),
		})
	}
	return records, nil
}
