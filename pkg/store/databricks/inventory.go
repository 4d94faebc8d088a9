package databricks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/databricks/databricks-sdk-go"
	dbclient "github.com/databricks/databricks-sdk-go/client"
	dbconfig "github.com/databricks/databricks-sdk-go/config"
	"github.com/databricks/databricks-sdk-go/service/compute"
	"github.com/databricks/databricks-sdk-go/service/jobs"
	"github.com/databricks/databricks-sdk-go/service/ml"
	"github.com/databricks/databricks-sdk-go/service/sql"
	"github.com/databricks/databricks-sdk-go/service/vectorsearch"
	"github.com/rs/zerolog"

	"github.com/de-tools/cluster-iq/pkg/models/domain"
)

// Client lists workspace compute resources and maps them into
// normalized records. Each List method fails independently; the
// normalizer isolates per-type failures.
type Client struct {
	ws           *databricks.WorkspaceClient
	api          *dbclient.DatabricksClient
	jobRunSample int
}

func NewClient(cfg *dbconfig.Config, jobRunSample int) (*Client, error) {
	ws, err := databricks.NewWorkspaceClient(&databricks.Config{
		Host:  cfg.Host,
		Token: cfg.Token,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace client: %w", err)
	}

	api, err := dbclient.New(&dbconfig.Config{
		Host:  cfg.Host,
		Token: cfg.Token,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create api client: %w", err)
	}

	if jobRunSample <= 0 {
		jobRunSample = 10
	}

	return &Client{ws: ws, api: api, jobRunSample: jobRunSample}, nil
}

// Fetchers exposes one fetch function per supported resource type.
func (c *Client) Fetchers() map[domain.ResourceType]func(context.Context) ([]domain.ResourceRecord, error) {
	return map[domain.ResourceType]func(context.Context) ([]domain.ResourceRecord, error){
		domain.ResourceAllPurposeCluster:    c.ListAllPurposeClusters,
		domain.ResourceJobCluster:           c.ListJobs,
		domain.ResourceSQLWarehouse:         c.ListWarehouses,
		domain.ResourcePool:                 c.ListInstancePools,
		domain.ResourcePolicy:               c.ListClusterPolicies,
		domain.ResourceApp:                  c.ListApps,
		domain.ResourceLakebase:             c.ListLakebaseInstances,
		domain.ResourceVectorSearchEndpoint: c.ListVectorSearchEndpoints,
		domain.ResourceMLJob:                c.ListMLJobs,
		domain.ResourceMLflowExperiment:     c.ListExperiments,
		domain.ResourceMLflowModel:          c.ListRegisteredModels,
		domain.ResourceModelServingEndpoint: c.ListServingEndpoints,
		domain.ResourceFeatureStoreTable:    c.ListFeatureStoreTables,
	}
}

func (c *Client) ListAllPurposeClusters(ctx context.Context) ([]domain.ResourceRecord, error) {
	clusters, err := c.ws.Clusters.ListAll(ctx, compute.ListClustersRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to list clusters: %w", err)
	}

	var records []domain.ResourceRecord
	for _, cl := range clusters {
		if cl.ClusterSource == compute.ClusterSourceJob {
			continue
		}
		records = append(records, mapCluster(cl, domain.ResourceAllPurposeCluster))
	}
	return records, nil
}

func mapCluster(cl compute.ClusterDetails, rt domain.ResourceType) domain.ResourceRecord {
	attrs := map[string]any{
		domain.AttrNumWorkers:             int(cl.NumWorkers),
		domain.AttrNodeType:               cl.NodeTypeId,
		domain.AttrDriverNodeType:         cl.DriverNodeTypeId,
		domain.AttrAutoTerminationMinutes: int(cl.AutoterminationMinutes),
		domain.AttrClusterSource:          string(cl.ClusterSource),
		domain.AttrCreatorUserName:        cl.CreatorUserName,
	}
	if cl.Autoscale != nil {
		attrs[domain.AttrMinWorkers] = int(cl.Autoscale.MinWorkers)
		attrs[domain.AttrMaxWorkers] = int(cl.Autoscale.MaxWorkers)
	}
	if cl.StartTime > 0 && cl.State == compute.StateRunning {
		started := time.UnixMilli(cl.StartTime)
		attrs[domain.AttrHoursRunning] = time.Since(started).Hours()
	}

	name := cl.ClusterName
	if name == "" {
		name = fmt.Sprintf("Cluster-%s", cl.ClusterId)
	}

	return domain.ResourceRecord{
		Type:      rt,
		ID:        cl.ClusterId,
		Name:      name,
		State:     mapState(string(cl.State)),
		Attrs:     attrs,
		FetchedAt: time.Now().UTC(),
	}
}

// ListJobs returns job compute records with task counts and sampled
// run durations for the first jobRunSample jobs.
func (c *Client) ListJobs(ctx context.Context) ([]domain.ResourceRecord, error) {
	all, err := c.ws.Jobs.ListAll(ctx, jobs.ListJobsRequest{ExpandTasks: true, Limit: 100})
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	var records []domain.ResourceRecord
	for i, job := range all {
		rec := c.mapJob(job, domain.ResourceJobCluster)
		if i < c.jobRunSample {
			if avg, ok := c.averageRunSeconds(ctx, job.JobId); ok {
				rec.Attrs[domain.AttrAvgRunSeconds] = avg
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// ListMLJobs returns jobs whose name or tags mark them as ML
// workloads. They appear as a distinct resource type so the analyzers
// can weigh them separately from plain job compute.
func (c *Client) ListMLJobs(ctx context.Context) ([]domain.ResourceRecord, error) {
	all, err := c.ws.Jobs.ListAll(ctx, jobs.ListJobsRequest{ExpandTasks: true, Limit: 100})
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	var records []domain.ResourceRecord
	for _, job := range all {
		if !isMLJob(job) {
			continue
		}
		records = append(records, c.mapJob(job, domain.ResourceMLJob))
	}
	return records, nil
}

func isMLJob(job jobs.BaseJob) bool {
	if job.Settings == nil {
		return false
	}
	name := strings.ToLower(job.Settings.Name)
	for _, marker := range []string{"ml", "train", "model", "mlflow"} {
		if strings.Contains(name, marker) {
			return true
		}
	}
	for tag := range job.Settings.Tags {
		if strings.EqualFold(tag, "ml") {
			return true
		}
	}
	return false
}

func (c *Client) mapJob(job jobs.BaseJob, rt domain.ResourceType) domain.ResourceRecord {
	name := "Unknown"
	attrs := map[string]any{
		domain.AttrCreatorUserName: job.CreatorUserName,
	}
	if job.Settings != nil {
		if job.Settings.Name != "" {
			name = job.Settings.Name
		}
		attrs[domain.AttrTaskCount] = len(job.Settings.Tasks)

		// First new-cluster task carries the compute shape the rule
		// battery looks at.
		for _, task := range job.Settings.Tasks {
			if task.NewCluster == nil {
				continue
			}
			attrs[domain.AttrNumWorkers] = int(task.NewCluster.NumWorkers)
			attrs[domain.AttrNodeType] = task.NewCluster.NodeTypeId
			if task.NewCluster.Autoscale != nil {
				attrs[domain.AttrMinWorkers] = int(task.NewCluster.Autoscale.MinWorkers)
				attrs[domain.AttrMaxWorkers] = int(task.NewCluster.Autoscale.MaxWorkers)
			}
			break
		}
	} else {
		attrs[domain.AttrTaskCount] = 0
	}

	return domain.ResourceRecord{
		Type:      rt,
		ID:        fmt.Sprintf("%d", job.JobId),
		Name:      name,
		State:     domain.StateUnknown,
		Attrs:     attrs,
		FetchedAt: time.Now().UTC(),
	}
}

func (c *Client) averageRunSeconds(ctx context.Context, jobID int64) (float64, bool) {
	runs, err := c.ws.Jobs.ListRunsAll(ctx, jobs.ListRunsRequest{
		JobId: jobID,
		Limit: c.jobRunSample,
	})
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Int64("job_id", jobID).Msg("failed to sample job runs")
		return 0, false
	}

	var total float64
	var counted int
	for _, run := range runs {
		if run.StartTime > 0 && run.EndTime > run.StartTime {
			total += float64(run.EndTime-run.StartTime) / 1000
			counted++
		}
	}
	if counted == 0 {
		return 0, false
	}
	return total / float64(counted), true
}

func (c *Client) ListWarehouses(ctx context.Context) ([]domain.ResourceRecord, error) {
	warehouses, err := c.ws.Warehouses.ListAll(ctx, sql.ListWarehousesRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to list warehouses: %w", err)
	}

	var records []domain.ResourceRecord
	for _, wh := range warehouses {
		records = append(records, domain.ResourceRecord{
			Type:  domain.ResourceSQLWarehouse,
			ID:    wh.Id,
			Name:  wh.Name,
			State: mapState(string(wh.State)),
			Attrs: map[string]any{
				domain.AttrClusterSize:     wh.ClusterSize,
				domain.AttrAutoStopMinutes: int(wh.AutoStopMins),
				domain.AttrMinWorkers:      int(wh.MinNumClusters),
				domain.AttrMaxWorkers:      int(wh.MaxNumClusters),
				"enable_serverless":        wh.EnableServerlessCompute,
				"warehouse_type":           string(wh.WarehouseType),
			},
			FetchedAt: time.Now().UTC(),
		})
	}
	return records, nil
}

func (c *Client) ListInstancePools(ctx context.Context) ([]domain.ResourceRecord, error) {
	pools, err := c.ws.InstancePools.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list instance pools: %w", err)
	}

	var records []domain.ResourceRecord
	for _, pool := range pools {
		attrs := map[string]any{
			domain.AttrNodeType:         pool.NodeTypeId,
			domain.AttrMinIdleInstances: int(pool.MinIdleInstances),
			"max_capacity":              int(pool.MaxCapacity),
		}
		if pool.Stats != nil {
			attrs[domain.AttrInstanceUseCount] = int(pool.Stats.UsedCount)
			attrs["idle_count"] = int(pool.Stats.IdleCount)
		}
		records = append(records, domain.ResourceRecord{
			Type:      domain.ResourcePool,
			ID:        pool.InstancePoolId,
			Name:      pool.InstancePoolName,
			State:     mapState(string(pool.State)),
			Attrs:     attrs,
			FetchedAt: time.Now().UTC(),
		})
	}
	return records, nil
}

func (c *Client) ListClusterPolicies(ctx context.Context) ([]domain.ResourceRecord, error) {
	policies, err := c.ws.ClusterPolicies.ListAll(ctx, compute.ListClusterPoliciesRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to list cluster policies: %w", err)
	}

	var records []domain.ResourceRecord
	for _, policy := range policies {
		records = append(records, domain.ResourceRecord{
			Type:  domain.ResourcePolicy,
			ID:    policy.PolicyId,
			Name:  policy.Name,
			State: domain.StateUnknown,
			Attrs: map[string]any{
				"definition": policy.Definition,
			},
			FetchedAt: time.Now().UTC(),
		})
	}
	return records, nil
}

func (c *Client) ListVectorSearchEndpoints(ctx context.Context) ([]domain.ResourceRecord, error) {
	endpoints, err := c.ws.VectorSearchEndpoints.ListEndpointsAll(ctx, vectorsearch.ListEndpointsRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to list vector search endpoints: %w", err)
	}

	var records []domain.ResourceRecord
	for _, ep := range endpoints {
		state := domain.StateUnknown
		if ep.EndpointStatus != nil {
			state = mapState(string(ep.EndpointStatus.State))
		}
		records = append(records, domain.ResourceRecord{
			Type:  domain.ResourceVectorSearchEndpoint,
			ID:    ep.Id,
			Name:  ep.Name,
			State: state,
			Attrs: map[string]any{
				"endpoint_type": string(ep.EndpointType),
			},
			FetchedAt: time.Now().UTC(),
		})
	}
	return records, nil
}

func (c *Client) ListServingEndpoints(ctx context.Context) ([]domain.ResourceRecord, error) {
	endpoints, err := c.ws.ServingEndpoints.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list serving endpoints: %w", err)
	}

	var records []domain.ResourceRecord
	for _, ep := range endpoints {
		state := domain.StateUnknown
		if ep.State != nil {
			if string(ep.State.Ready) == "READY" {
				state = domain.StateRunning
			} else {
				state = domain.StatePending
			}
		}
		records = append(records, domain.ResourceRecord{
			Type:  domain.ResourceModelServingEndpoint,
			ID:    ep.Name,
			Name:  ep.Name,
			State: state,
			Attrs: map[string]any{
				domain.AttrCreatorUserName: ep.Creator,
			},
			FetchedAt: time.Now().UTC(),
		})
	}
	return records, nil
}

func (c *Client) ListExperiments(ctx context.Context) ([]domain.ResourceRecord, error) {
	experiments, err := c.ws.Experiments.ListExperimentsAll(ctx, ml.ListExperimentsRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to list mlflow experiments: %w", err)
	}

	var records []domain.ResourceRecord
	for _, exp := range experiments {
		records = append(records, domain.ResourceRecord{
			Type:  domain.ResourceMLflowExperiment,
			ID:    exp.ExperimentId,
			Name:  exp.Name,
			State: domain.StateUnknown,
			Attrs: map[string]any{
				domain.AttrLifecycleStage: exp.LifecycleStage,
			},
			FetchedAt: time.Now().UTC(),
		})
	}
	return records, nil
}

func (c *Client) ListRegisteredModels(ctx context.Context) ([]domain.ResourceRecord, error) {
	models, err := c.ws.ModelRegistry.ListModelsAll(ctx, ml.ListModelsRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to list registered models: %w", err)
	}

	var records []domain.ResourceRecord
	for _, model := range models {
		attrs := map[string]any{
			"version_count": len(model.LatestVersions),
		}
		if len(model.LatestVersions) > 0 {
			attrs[domain.AttrLifecycleStage] = model.LatestVersions[0].CurrentStage
		}
		records = append(records, domain.ResourceRecord{
			Type:      domain.ResourceMLflowModel,
			ID:        model.Name,
			Name:      model.Name,
			State:     domain.StateUnknown,
			Attrs:     attrs,
			FetchedAt: time.Now().UTC(),
		})
	}
	return records, nil
}

// ClusterMetrics returns the live shape of one cluster for the detail
// endpoint, independent of any analysis run.
func (c *Client) ClusterMetrics(ctx context.Context, clusterID string) (domain.ResourceRecord, error) {
	cl, err := c.ws.Clusters.Get(ctx, compute.GetClusterRequest{ClusterId: clusterID})
	if err != nil {
		return domain.ResourceRecord{}, fmt.Errorf("failed to get cluster %s: %w", clusterID, err)
	}

	rec := mapCluster(*cl, domain.ResourceAllPurposeCluster)
	rec.Attrs["cluster_cores"] = cl.ClusterCores
	rec.Attrs["cluster_memory_mb"] = cl.ClusterMemoryMb
	return rec, nil
}

func mapState(raw string) domain.ResourceState {
	switch strings.ToUpper(raw) {
	case "RUNNING", "ONLINE", "AVAILABLE", "ACTIVE":
		return domain.StateRunning
	case "TERMINATED", "TERMINATING", "STOPPED", "DELETED", "OFFLINE":
		return domain.StateTerminated
	case "PENDING", "STARTING", "RESIZING", "PROVISIONING", "CREATING", "RESTARTING":
		return domain.StatePending
	case "ERROR", "FAILED", "UNHEALTHY":
		return domain.StateError
	case "":
		return domain.StateUnknown
	default:
		return domain.StateUnknown
	}
}
