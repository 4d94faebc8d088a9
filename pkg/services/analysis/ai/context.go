package ai

import (
	"encoding/json"
	"sort"

	"golang.org/x/exp/maps"

	"github.com/de-tools/cluster-iq/pkg/models/domain"
)

// contextResource is the compact per-resource shape handed to the
// model. Raw attributes ride along untouched; they are already sparse.
type contextResource struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	State      string         `json:"state"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

type contextPayload struct {
	Summary   map[string]int               `json:"summary"`
	Resources map[string][]contextResource `json:"resources"`
	Truncated bool                         `json:"truncated"`
}

// buildContext renders the inventory into a bounded JSON payload.
// Oversized inventories are sampled deterministically: at most
// maxPerType records per type, RUNNING resources first, ties broken
// by id. The second return reports whether anything was cut.
func buildContext(snap domain.Snapshot, maxPerType int) (string, bool, error) {
	byType := make(map[domain.ResourceType][]domain.ResourceRecord)
	for _, rec := range snap.Records {
		byType[rec.Type] = append(byType[rec.Type], rec)
	}

	payload := contextPayload{
		Summary:   map[string]int{},
		Resources: map[string][]contextResource{},
	}

	types := maps.Keys(byType)
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	truncated := false
	for _, rt := range types {
		records := byType[rt]
		payload.Summary[string(rt)] = len(records)

		sort.SliceStable(records, func(i, j int) bool {
			ri, rj := records[i].State == domain.StateRunning, records[j].State == domain.StateRunning
			if ri != rj {
				return ri
			}
			return records[i].ID < records[j].ID
		})
		if maxPerType > 0 && len(records) > maxPerType {
			records = records[:maxPerType]
			truncated = true
		}

		entries := make([]contextResource, 0, len(records))
		for _, rec := range records {
			entries = append(entries, contextResource{
				ID:         rec.ID,
				Name:       rec.Name,
				State:      string(rec.State),
				Attributes: rec.Attrs,
			})
		}
		payload.Resources[string(rt)] = entries
	}
	payload.Truncated = truncated

	encoded, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", false, err
	}
	return string(encoded), truncated, nil
}
