package domain

import "time"

type ResourceType string

const (
	ResourceAllPurposeCluster    ResourceType = "all_purpose_cluster"
	ResourceJobCluster           ResourceType = "job_cluster"
	ResourceSQLWarehouse         ResourceType = "sql_warehouse"
	ResourcePool                 ResourceType = "pool"
	ResourcePolicy               ResourceType = "policy"
	ResourceApp                  ResourceType = "app"
	ResourceLakebase             ResourceType = "lakebase"
	ResourceVectorSearchEndpoint ResourceType = "vector_search_endpoint"
	ResourceMLJob                ResourceType = "ml_job"
	ResourceMLflowExperiment     ResourceType = "mlflow_experiment"
	ResourceMLflowModel          ResourceType = "mlflow_model"
	ResourceModelServingEndpoint ResourceType = "model_serving_endpoint"
	ResourceFeatureStoreTable    ResourceType = "feature_store_table"
)

// SupportedResources maps every resource type the advisor understands
// to a human-readable description used by inventory listings.
var SupportedResources = map[ResourceType]string{
	ResourceAllPurposeCluster:    "All-purpose compute cluster",
	ResourceJobCluster:           "Job compute cluster",
	ResourceSQLWarehouse:         "SQL warehouse",
	ResourcePool:                 "Instance pool",
	ResourcePolicy:               "Cluster policy",
	ResourceApp:                  "Databricks app",
	ResourceLakebase:             "Lakebase database instance",
	ResourceVectorSearchEndpoint: "Vector search endpoint",
	ResourceMLJob:                "ML job",
	ResourceMLflowExperiment:     "MLflow experiment",
	ResourceMLflowModel:          "MLflow registered model",
	ResourceModelServingEndpoint: "Model serving endpoint",
	ResourceFeatureStoreTable:    "Feature store table",
}

type ResourceState string

const (
	StateRunning    ResourceState = "RUNNING"
	StateTerminated ResourceState = "TERMINATED"
	StatePending    ResourceState = "PENDING"
	StateError      ResourceState = "ERROR"
	StateUnknown    ResourceState = "UNKNOWN"
)

// Attribute keys shared between fetchers and the rule battery.
// Attributes are sparse; no resource type carries all of them.
const (
	AttrNumWorkers             = "num_workers"
	AttrNodeType               = "node_type_id"
	AttrDriverNodeType         = "driver_node_type_id"
	AttrAutoTerminationMinutes = "autotermination_minutes"
	AttrAutoStopMinutes        = "auto_stop_mins"
	AttrMinWorkers             = "min_workers"
	AttrMaxWorkers             = "max_workers"
	AttrClusterSize            = "cluster_size"
	AttrClusterSource          = "cluster_source"
	AttrTaskCount              = "task_count"
	AttrPeakCPUUtilization     = "peak_cpu_utilization"
	AttrInstanceUseCount       = "instance_use_count"
	AttrMinIdleInstances       = "min_idle_instances"
	AttrHoursRunning           = "hours_running"
	AttrAvgRunSeconds          = "avg_run_duration_seconds"
	AttrLifecycleStage         = "lifecycle_stage"
	AttrCreatorUserName        = "creator_user_name"
)

// ResourceRecord is the normalized shape of one compute resource.
// Records are immutable once constructed; a fresh set is built on
// every analysis run.
type ResourceRecord struct {
	Type      ResourceType
	ID        string
	Name      string
	State     ResourceState
	Attrs     map[string]any
	FetchedAt time.Time
}

// IntAttr reads an integer attribute, tolerating the numeric types
// that survive a JSON round trip.
func (r ResourceRecord) IntAttr(key string) (int, bool) {
	v, ok := r.Attrs[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

func (r ResourceRecord) FloatAttr(key string) (float64, bool) {
	v, ok := r.Attrs[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func (r ResourceRecord) StringAttr(key string) (string, bool) {
	v, ok := r.Attrs[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Snapshot is the union of normalized records across every resource
// type, plus the per-type fetch outcome for observability.
type Snapshot struct {
	TakenAt time.Time
	Records []ResourceRecord
	// Failures holds the error message for every type whose fetch
	// failed. Types absent from the map fetched successfully.
	Failures map[ResourceType]string
	// Truncated is set when the AI context builder had to sample the
	// inventory down to its per-type cap.
	Truncated bool
}

// CountByType returns the number of records per resource type.
func (s Snapshot) CountByType() map[ResourceType]int {
	counts := make(map[ResourceType]int)
	for _, r := range s.Records {
		counts[r.Type]++
	}
	return counts
}

// Contains reports whether the snapshot holds a record with the given
// type and id.
func (s Snapshot) Contains(rt ResourceType, id string) bool {
	for _, r := range s.Records {
		if r.Type == rt && r.ID == id {
			return true
		}
	}
	return false
}
