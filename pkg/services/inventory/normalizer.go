package inventory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/de-tools/cluster-iq/pkg/models/domain"
)

// FetchFunc lists every resource of one type. Implementations fail
// independently per type; the normalizer never lets one unavailable
// type block the rest of the inventory.
type FetchFunc func(ctx context.Context) ([]domain.ResourceRecord, error)

const defaultConcurrency = 6

type Normalizer struct {
	fetchers    map[domain.ResourceType]FetchFunc
	concurrency int
}

func NewNormalizer(fetchers map[domain.ResourceType]FetchFunc) *Normalizer {
	return &Normalizer{
		fetchers:    fetchers,
		concurrency: defaultConcurrency,
	}
}

// Snapshot fetches all resource types concurrently and returns their
// union plus the per-type failure map. A snapshot with zero records
// and a full failure map is still a valid snapshot.
func (n *Normalizer) Snapshot(ctx context.Context) domain.Snapshot {
	var (
		mu       sync.Mutex
		records  []domain.ResourceRecord
		failures = make(map[domain.ResourceType]string)
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(n.concurrency)

	for rt, fetch := range n.fetchers {
		rt, fetch := rt, fetch
		g.Go(func() error {
			fetched, err := fetch(ctx)
			if err != nil {
				zerolog.Ctx(ctx).Warn().
					Err(err).
					Str("resource_type", string(rt)).
					Msg("resource fetch failed, continuing without this type")
				mu.Lock()
				failures[rt] = err.Error()
				mu.Unlock()
				return nil // other types keep going
			}

			mu.Lock()
			records = append(records, fetched...)
			mu.Unlock()
			return nil
		})
	}

	// Fetch errors are swallowed per type, so Wait cannot fail.
	_ = g.Wait()

	return domain.Snapshot{
		TakenAt:  time.Now().UTC(),
		Records:  dedupe(ctx, records),
		Failures: failures,
	}
}

// dedupe enforces (type, id) uniqueness, keeping the
// most recently fetched record. Duplicates indicate a collection bug
// and are logged rather than crashing the run.
func dedupe(ctx context.Context, records []domain.ResourceRecord) []domain.ResourceRecord {
	type key struct {
		rt domain.ResourceType
		id string
	}

	seen := make(map[key]domain.ResourceRecord, len(records))
	dropped := 0
	for _, rec := range records {
		k := key{rt: rec.Type, id: rec.ID}
		prev, ok := seen[k]
		if !ok {
			seen[k] = rec
			continue
		}
		dropped++
		if rec.FetchedAt.After(prev.FetchedAt) {
			seen[k] = rec
		}
	}
	if dropped > 0 {
		zerolog.Ctx(ctx).Error().
			Int("dropped", dropped).
			Msg("duplicate resource ids within a type, keeping most recently fetched")
	}

	result := make([]domain.ResourceRecord, 0, len(seen))
	for _, rec := range seen {
		result = append(result, rec)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Type != result[j].Type {
			return result[i].Type < result[j].Type
		}
		return result[i].ID < result[j].ID
	})
	return result
}
