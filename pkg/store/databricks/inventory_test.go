package databricks

import (
	"testing"

	"github.com/databricks/databricks-sdk-go/service/compute"
	"github.com/databricks/databricks-sdk-go/service/jobs"
	"github.com/stretchr/testify/assert"

	"github.com/de-tools/cluster-iq/pkg/models/domain"
)

func TestMapCluster(t *testing.T) {
	cl := compute.ClusterDetails{
		ClusterId:              "0101-123456-abc",
		ClusterName:            "etl-dev",
		State:                  compute.StateRunning,
		NumWorkers:             8,
		NodeTypeId:             "i3.xlarge",
		DriverNodeTypeId:       "i3.2xlarge",
		AutoterminationMinutes: 0,
		ClusterSource:          compute.ClusterSourceUi,
		CreatorUserName:        "dev@example.com",
		Autoscale: &compute.AutoScale{
			MinWorkers: 2,
			MaxWorkers: 8,
		},
	}

	rec := mapCluster(cl, domain.ResourceAllPurposeCluster)

	assert.Equal(t, domain.ResourceAllPurposeCluster, rec.Type)
	assert.Equal(t, "0101-123456-abc", rec.ID)
	assert.Equal(t, "etl-dev", rec.Name)
	assert.Equal(t, domain.StateRunning, rec.State)

	workers, _ := rec.IntAttr(domain.AttrNumWorkers)
	assert.Equal(t, 8, workers)
	nodeType, _ := rec.StringAttr(domain.AttrNodeType)
	assert.Equal(t, "i3.xlarge", nodeType)
	minWorkers, _ := rec.IntAttr(domain.AttrMinWorkers)
	assert.Equal(t, 2, minWorkers)
}

func TestMapCluster_UnnamedClusterGetsFallbackName(t *testing.T) {
	rec := mapCluster(compute.ClusterDetails{ClusterId: "c-42"}, domain.ResourceAllPurposeCluster)
	assert.Equal(t, "Cluster-c-42", rec.Name)
}

func TestMapJob(t *testing.T) {
	job := jobs.BaseJob{
		JobId:           12345,
		CreatorUserName: "data@example.com",
		Settings: &jobs.JobSettings{
			Name: "nightly-refresh",
			Tasks: []jobs.Task{
				{TaskKey: "ingest"},
				{
					TaskKey: "transform",
					NewCluster: &compute.ClusterSpec{
						NumWorkers: 4,
						NodeTypeId: "m5.xlarge",
					},
				},
			},
		},
	}

	client := &Client{}
	rec := client.mapJob(job, domain.ResourceJobCluster)

	assert.Equal(t, "12345", rec.ID)
	assert.Equal(t, "nightly-refresh", rec.Name)
	assert.Equal(t, domain.StateUnknown, rec.State)

	tasks, _ := rec.IntAttr(domain.AttrTaskCount)
	assert.Equal(t, 2, tasks)
	workers, _ := rec.IntAttr(domain.AttrNumWorkers)
	assert.Equal(t, 4, workers)
	nodeType, _ := rec.StringAttr(domain.AttrNodeType)
	assert.Equal(t, "m5.xlarge", nodeType)
}

func TestMapJob_NoSettings(t *testing.T) {
	client := &Client{}
	rec := client.mapJob(jobs.BaseJob{JobId: 7}, domain.ResourceJobCluster)

	assert.Equal(t, "Unknown", rec.Name)
	tasks, ok := rec.IntAttr(domain.AttrTaskCount)
	assert.True(t, ok)
	assert.Zero(t, tasks)
}

func TestIsMLJob(t *testing.T) {
	tests := []struct {
		name     string
		job      jobs.BaseJob
		expected bool
	}{
		{
			name:     "name mentions training",
			job:      jobs.BaseJob{Settings: &jobs.JobSettings{Name: "churn-model-training"}},
			expected: true,
		},
		{
			name:     "mlflow in name",
			job:      jobs.BaseJob{Settings: &jobs.JobSettings{Name: "mlflow-registry-sync"}},
			expected: true,
		},
		{
			name: "ml tag",
			job: jobs.BaseJob{Settings: &jobs.JobSettings{
				Name: "batch-scoring",
				Tags: map[string]string{"ML": "true"},
			}},
			expected: true,
		},
		{
			name:     "plain etl job",
			job:      jobs.BaseJob{Settings: &jobs.JobSettings{Name: "daily-ingest"}},
			expected: false,
		},
		{
			name:     "nil settings",
			job:      jobs.BaseJob{},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isMLJob(tt.job))
		})
	}
}

func TestMapState(t *testing.T) {
	assert.Equal(t, domain.StateRunning, mapState("RUNNING"))
	assert.Equal(t, domain.StateRunning, mapState("online"))
	assert.Equal(t, domain.StateTerminated, mapState("STOPPED"))
	assert.Equal(t, domain.StatePending, mapState("PROVISIONING"))
	assert.Equal(t, domain.StateError, mapState("FAILED"))
	assert.Equal(t, domain.StateUnknown, mapState(""))
	assert.Equal(t, domain.StateUnknown, mapState("SOMETHING_NEW"))
}
