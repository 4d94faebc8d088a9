package advisor

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/cluster-iq/pkg/models/domain"
)

func TestStore_EmptyBeforeFirstRun(t *testing.T) {
	store := NewStore()

	_, ok := store.Current()
	assert.False(t, ok)
	_, ok = store.Previous()
	assert.False(t, ok)
}

func TestStore_RejectsConcurrentTrigger(t *testing.T) {
	store := NewStore()

	require.NoError(t, store.Begin())
	assert.ErrorIs(t, store.Begin(), ErrAnalysisRunning)

	store.Complete(domain.AnalysisRun{RunID: "run-1"})
	assert.NoError(t, store.Begin())
	store.Abort()
}

func TestStore_OnlyOneOfManyConcurrentTriggersWins(t *testing.T) {
	store := NewStore()

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if store.Begin() == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, accepted)
}

func TestStore_CompleteRotatesPrevious(t *testing.T) {
	store := NewStore()

	require.NoError(t, store.Begin())
	store.Complete(domain.AnalysisRun{RunID: "run-1"})

	require.NoError(t, store.Begin())
	store.Complete(domain.AnalysisRun{RunID: "run-2"})

	current, ok := store.Current()
	require.True(t, ok)
	assert.Equal(t, "run-2", current.RunID)

	previous, ok := store.Previous()
	require.True(t, ok)
	assert.Equal(t, "run-1", previous.RunID)
}

func TestStore_AbortKeepsExistingRun(t *testing.T) {
	store := NewStore()

	require.NoError(t, store.Begin())
	store.Complete(domain.AnalysisRun{RunID: "run-1"})

	require.NoError(t, store.Begin())
	store.Abort()

	current, ok := store.Current()
	require.True(t, ok)
	assert.Equal(t, "run-1", current.RunID)

	// The flag is clear again after an abort.
	assert.NoError(t, store.Begin())
	store.Abort()
}
