package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/cluster-iq/pkg/models/domain"
)

type mockCompletionClient struct{ mock.Mock }

func (m *mockCompletionClient) Complete(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func testSnapshot() domain.Snapshot {
	return domain.Snapshot{
		Records: []domain.ResourceRecord{
			{Type: domain.ResourceAllPurposeCluster, ID: "cluster-1", Name: "etl", State: domain.StateRunning},
			{Type: domain.ResourceSQLWarehouse, ID: "wh-1", Name: "bi", State: domain.StateTerminated},
		},
	}
}

func TestAnalyze_TransportFailureIsUnavailable(t *testing.T) {
	client := new(mockCompletionClient)
	client.On("Complete", mock.Anything, mock.Anything).Return("", errors.New("connection refused"))

	analyzer := NewAnalyzer(client, DefaultSettings())
	recs, _, err := analyzer.Analyze(context.Background(), testSnapshot())

	assert.Nil(t, recs)
	assert.ErrorIs(t, err, ErrUnavailable)
	client.AssertExpectations(t)
}

func TestAnalyze_GarbageResponseIsUnavailable(t *testing.T) {
	client := new(mockCompletionClient)
	client.On("Complete", mock.Anything, mock.Anything).
		Return("I could not find any issues worth mentioning.", nil)

	analyzer := NewAnalyzer(client, DefaultSettings())
	recs, _, err := analyzer.Analyze(context.Background(), testSnapshot())

	assert.Nil(t, recs)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestAnalyze_ParsesFencedArray(t *testing.T) {
	response := "Here is my analysis:\n```json\n[\n" +
		`{"type": "cost_leak", "severity": "high", "title": "Idle cluster",` +
		`"description": "d", "resource_type": "all_purpose_cluster", "resource_id": "cluster-1",` +
		`"estimated_savings": "$500/month", "risk": "Low", "implementation_steps": ["terminate"]}` +
		"\n]\n```"

	client := new(mockCompletionClient)
	client.On("Complete", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, "cluster-1") && strings.Contains(prompt, "COMPUTE INFRASTRUCTURE DATA")
	})).Return(response, nil)

	analyzer := NewAnalyzer(client, DefaultSettings())
	recs, truncated, err := analyzer.Analyze(context.Background(), testSnapshot())

	require.NoError(t, err)
	assert.False(t, truncated)
	require.Len(t, recs, 1)
	assert.Equal(t, domain.CostLeak, recs[0].Type)
	assert.Equal(t, domain.SeverityHigh, recs[0].Severity)
	assert.Equal(t, "cluster-1", recs[0].ResourceID)
	assert.Equal(t, domain.TierAI, recs[0].Source)
	assert.Equal(t, "$500/month", recs[0].EstimatedSavings)
}

func TestAnalyze_EmptyArrayIsSuccess(t *testing.T) {
	client := new(mockCompletionClient)
	client.On("Complete", mock.Anything, mock.Anything).Return("[]", nil)

	analyzer := NewAnalyzer(client, DefaultSettings())
	recs, _, err := analyzer.Analyze(context.Background(), testSnapshot())

	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestAnalyze_TruncatesOversizedInventory(t *testing.T) {
	snap := domain.Snapshot{}
	for i := 0; i < 5; i++ {
		snap.Records = append(snap.Records, domain.ResourceRecord{
			Type: domain.ResourceJobCluster,
			ID:   string(rune('a' + i)),
		})
	}

	client := new(mockCompletionClient)
	client.On("Complete", mock.Anything, mock.Anything).Return("[]", nil)

	analyzer := NewAnalyzer(client, Settings{MaxResourcesPerType: 2})
	_, truncated, err := analyzer.Analyze(context.Background(), snap)

	require.NoError(t, err)
	assert.True(t, truncated)
}

func TestParseRecommendations_DropsInvalidRecords(t *testing.T) {
	body := `[
		{"type": "cost_leak", "severity": "high", "resource_id": "c1", "title": "ok"},
		{"type": "nonsense", "severity": "high", "resource_id": "c2"},
		{"type": "value_leak", "severity": "medium", "resource_id": ""},
		{"type": "optimization", "severity": "low", "resource_id": 42}
	]`

	recs, dropped, err := parseRecommendations(body)

	require.NoError(t, err)
	assert.Equal(t, 2, dropped)
	require.Len(t, recs, 2)
	assert.Equal(t, "c1", recs[0].ResourceID)
	// Numeric ids get coerced to their decimal form.
	assert.Equal(t, "42", recs[1].ResourceID)
	assert.Equal(t, domain.OptimizationOpportunity, recs[1].Type)
}

func TestParseRecommendations_ToleratesWrappedObject(t *testing.T) {
	body := `{"recommendations": [{"type": "cost_leak", "severity": "low", "resource_id": "x"}]}`

	recs, dropped, err := parseRecommendations(body)

	require.NoError(t, err)
	assert.Zero(t, dropped)
	require.Len(t, recs, 1)
	assert.Equal(t, "x", recs[0].ResourceID)
}

func TestBuildContext_DeterministicSamplingPrefersRunning(t *testing.T) {
	snap := domain.Snapshot{
		Records: []domain.ResourceRecord{
			{Type: domain.ResourceAllPurposeCluster, ID: "c3", State: domain.StateTerminated},
			{Type: domain.ResourceAllPurposeCluster, ID: "c2", State: domain.StateRunning},
			{Type: domain.ResourceAllPurposeCluster, ID: "c1", State: domain.StateTerminated},
		},
	}

	payload, truncated, err := buildContext(snap, 2)

	require.NoError(t, err)
	assert.True(t, truncated)
	// The running record survives sampling, the terminated ones
	// compete by id.
	assert.Contains(t, payload, `"id": "c2"`)
	assert.Contains(t, payload, `"id": "c1"`)
	assert.NotContains(t, payload, `"id": "c3"`)
	assert.Contains(t, payload, `"truncated": true`)
}
