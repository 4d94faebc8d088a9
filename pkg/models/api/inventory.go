package api

import "time"

type Resource struct {
	ResourceType string         `json:"resource_type"`
	Id           string         `json:"id"`
	Name         string         `json:"name"`
	State        string         `json:"state"`
	Attributes   map[string]any `json:"attributes,omitempty"`
}

type Stats struct {
	Counts          map[string]int `json:"counts"`
	TotalResources  int            `json:"total_resources"`
	RunningClusters int            `json:"running_clusters"`
	IdleClusters    int            `json:"idle_clusters"`
	Timestamp       time.Time      `json:"timestamp"`
}

type ClusterMetrics struct {
	ClusterId       string  `json:"cluster_id"`
	State           string  `json:"state"`
	NumWorkers      int     `json:"num_workers"`
	ClusterCores    float64 `json:"cluster_cores,omitempty"`
	ClusterMemoryMb int64   `json:"cluster_memory_mb,omitempty"`
}

type Health struct {
	Status               string    `json:"status"`
	DatabricksConfigured bool      `json:"databricks_configured"`
	AiConfigured         bool      `json:"ai_configured"`
	Timestamp            time.Time `json:"timestamp"`
}
