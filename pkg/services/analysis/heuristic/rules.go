package heuristic

import (
	"fmt"

	"github.com/de-tools/cluster-iq/pkg/models/domain"
)

// Env is what a rule gets to work with: the configured thresholds and
// the savings formula. Rules never reach outside it, which keeps each
// one independently testable.
type Env struct {
	Settings Settings
	Savings  func(record domain.ResourceRecord, workers int) string
}

// Rule is one data-described heuristic: an applicability gate, a
// condition and a recommendation builder. New heuristics are added to
// defaultRules, not as new control flow.
type Rule struct {
	Name      string
	Types     []domain.ResourceType // empty means every type
	Condition func(env Env, r domain.ResourceRecord) bool
	Build     func(env Env, r domain.ResourceRecord) domain.Recommendation
}

func (rule Rule) appliesTo(rt domain.ResourceType) bool {
	if len(rule.Types) == 0 {
		return true
	}
	for _, t := range rule.Types {
		if t == rt {
			return true
		}
	}
	return false
}

func defaultRules() []Rule {
	return []Rule{
		runningWithoutWorkloadSignal(),
		underutilizedMultiNode(),
		autoscalingPinned(),
		jobWithoutTasks(),
		missingAutotermination(),
		warehouseAutoStopDisabled(),
		unusedInstancePool(),
	}
}

// A RUNNING cluster or warehouse holding workers with no workload
// signal is burning spend.
func runningWithoutWorkloadSignal() Rule {
	return Rule{
		Name: "running_without_workload_signal",
		Types: []domain.ResourceType{
			domain.ResourceAllPurposeCluster,
			domain.ResourceJobCluster,
			domain.ResourceSQLWarehouse,
		},
		Condition: func(env Env, r domain.ResourceRecord) bool {
			if r.State != domain.StateRunning {
				return false
			}
			workers, ok := r.IntAttr(domain.AttrNumWorkers)
			if !ok || workers <= 0 {
				return false
			}
			_, hasSignal := r.FloatAttr(domain.AttrPeakCPUUtilization)
			return !hasSignal
		},
		Build: func(env Env, r domain.ResourceRecord) domain.Recommendation {
			workers, _ := r.IntAttr(domain.AttrNumWorkers)
			severity := domain.SeverityMedium
			if workers > env.Settings.WorkerCountThreshold {
				severity = domain.SeverityHigh
			}
			nodeType, _ := r.StringAttr(domain.AttrNodeType)
			return domain.Recommendation{
				Type:     domain.CostLeak,
				Severity: severity,
				Title:    fmt.Sprintf("Running compute without workload signal: %s", r.Name),
				Description: fmt.Sprintf(
					"%s is RUNNING with %d workers and reports no utilization data. "+
						"Verify it is actively used and terminate or downsize it otherwise.",
					r.Name, workers),
				ResourceType: r.Type,
				ResourceID:   r.ID,
				CurrentConfig: map[string]any{
					"state":              string(r.State),
					domain.AttrNumWorkers: workers,
					domain.AttrNodeType:   nodeType,
				},
				RecommendedConfig: map[string]any{
					"action": "Terminate when idle or enable auto-termination",
				},
				EstimatedSavings: env.Savings(r, workers),
				Risk:             "Low",
				ImplementationSteps: []string{
					"Confirm the resource has no active workload",
					"Terminate it or configure auto-termination",
					"Monitor spend for one billing cycle",
				},
			}
		},
	}
}

// A multi-node cluster whose historical peak utilization stays below
// the threshold can run with fewer workers.
func underutilizedMultiNode() Rule {
	return Rule{
		Name: "underutilized_multi_node",
		Types: []domain.ResourceType{
			domain.ResourceAllPurposeCluster,
			domain.ResourceJobCluster,
		},
		Condition: func(env Env, r domain.ResourceRecord) bool {
			workers, ok := r.IntAttr(domain.AttrNumWorkers)
			if !ok || workers <= 1 {
				return false
			}
			peak, ok := r.FloatAttr(domain.AttrPeakCPUUtilization)
			return ok && peak < env.Settings.CPUUtilizationThreshold
		},
		Build: func(env Env, r domain.ResourceRecord) domain.Recommendation {
			workers, _ := r.IntAttr(domain.AttrNumWorkers)
			peak, _ := r.FloatAttr(domain.AttrPeakCPUUtilization)
			recommended := workers / 2
			if recommended < 1 {
				recommended = 1
			}
			return domain.Recommendation{
				Type:     domain.OptimizationOpportunity,
				Severity: domain.SeverityMedium,
				Title:    fmt.Sprintf("Over-provisioned cluster: %s", r.Name),
				Description: fmt.Sprintf(
					"Peak CPU utilization of %.0f%% stays below the %.0f%% threshold on a %d-worker cluster. "+
						"Right-size to %d workers or a single-node cluster.",
					peak*100, env.Settings.CPUUtilizationThreshold*100, workers, recommended),
				ResourceType: r.Type,
				ResourceID:   r.ID,
				CurrentConfig: map[string]any{
					domain.AttrNumWorkers:         workers,
					domain.AttrPeakCPUUtilization: peak,
				},
				RecommendedConfig: map[string]any{
					domain.AttrNumWorkers: recommended,
				},
				EstimatedSavings: env.Savings(r, workers-recommended),
				Risk:             "Medium",
				ImplementationSteps: []string{
					fmt.Sprintf("Reduce worker count to %d", recommended),
					"Re-check peak utilization after one week",
				},
			}
		},
	}
}

// Autoscaling with max_workers == min_workers cannot scale and only
// adds configuration noise.
func autoscalingPinned() Rule {
	return Rule{
		Name: "autoscaling_pinned",
		Condition: func(env Env, r domain.ResourceRecord) bool {
			minWorkers, okMin := r.IntAttr(domain.AttrMinWorkers)
			maxWorkers, okMax := r.IntAttr(domain.AttrMaxWorkers)
			return okMin && okMax && maxWorkers > 0 && minWorkers == maxWorkers
		},
		Build: func(env Env, r domain.ResourceRecord) domain.Recommendation {
			minWorkers, _ := r.IntAttr(domain.AttrMinWorkers)
			return domain.Recommendation{
				Type:     domain.ValueLeak,
				Severity: domain.SeverityLow,
				Title:    fmt.Sprintf("Autoscaling pinned on %s", r.Name),
				Description: fmt.Sprintf(
					"Autoscaling is configured with min_workers == max_workers (%d); scale-up is structurally impossible. "+
						"Use a fixed worker count instead.", minWorkers),
				ResourceType: r.Type,
				ResourceID:   r.ID,
				CurrentConfig: map[string]any{
					domain.AttrMinWorkers: minWorkers,
					domain.AttrMaxWorkers: minWorkers,
				},
				RecommendedConfig: map[string]any{
					"autoscale":           nil,
					domain.AttrNumWorkers: minWorkers,
				},
				Risk: "None",
				ImplementationSteps: []string{
					"Remove the autoscale block",
					fmt.Sprintf("Set num_workers to %d", minWorkers),
				},
			}
		},
	}
}

// A job with no tasks configured never does anything useful.
func jobWithoutTasks() Rule {
	return Rule{
		Name: "job_without_tasks",
		Types: []domain.ResourceType{
			domain.ResourceJobCluster,
			domain.ResourceMLJob,
		},
		Condition: func(env Env, r domain.ResourceRecord) bool {
			tasks, ok := r.IntAttr(domain.AttrTaskCount)
			return ok && tasks == 0
		},
		Build: func(env Env, r domain.ResourceRecord) domain.Recommendation {
			return domain.Recommendation{
				Type:     domain.OptimizationOpportunity,
				Severity: domain.SeverityLow,
				Title:    fmt.Sprintf("Job with no tasks: %s", r.Name),
				Description: "Job has no configured tasks. Review the job definition and " +
					"delete it if it is no longer needed.",
				ResourceType: r.Type,
				ResourceID:   r.ID,
				CurrentConfig: map[string]any{
					domain.AttrTaskCount: 0,
				},
				RecommendedConfig: map[string]any{
					"action": "Add tasks or delete the job",
				},
				Risk: "Low",
			}
		},
	}
}

// Interactive clusters without auto-termination keep billing after
// everyone has gone home.
func missingAutotermination() Rule {
	return Rule{
		Name:  "missing_autotermination",
		Types: []domain.ResourceType{domain.ResourceAllPurposeCluster},
		Condition: func(env Env, r domain.ResourceRecord) bool {
			minutes, ok := r.IntAttr(domain.AttrAutoTerminationMinutes)
			return !ok || minutes == 0
		},
		Build: func(env Env, r domain.ResourceRecord) domain.Recommendation {
			return domain.Recommendation{
				Type:     domain.CostLeak,
				Severity: domain.SeverityMedium,
				Title:    fmt.Sprintf("No auto-termination on %s", r.Name),
				Description: "Interactive cluster has no auto-termination configured and will " +
					"keep running after it goes idle.",
				ResourceType: r.Type,
				ResourceID:   r.ID,
				CurrentConfig: map[string]any{
					domain.AttrAutoTerminationMinutes: 0,
				},
				RecommendedConfig: map[string]any{
					domain.AttrAutoTerminationMinutes: 30,
				},
				Risk: "Low",
				ImplementationSteps: []string{
					"Edit the cluster configuration",
					"Set auto-termination to 30 minutes",
				},
			}
		},
	}
}

// A warehouse with auto-stop disabled behaves like a cluster without
// auto-termination.
func warehouseAutoStopDisabled() Rule {
	return Rule{
		Name:  "warehouse_autostop_disabled",
		Types: []domain.ResourceType{domain.ResourceSQLWarehouse},
		Condition: func(env Env, r domain.ResourceRecord) bool {
			minutes, ok := r.IntAttr(domain.AttrAutoStopMinutes)
			return ok && minutes == 0
		},
		Build: func(env Env, r domain.ResourceRecord) domain.Recommendation {
			size, _ := r.StringAttr(domain.AttrClusterSize)
			return domain.Recommendation{
				Type:     domain.CostLeak,
				Severity: domain.SeverityMedium,
				Title:    fmt.Sprintf("Auto-stop disabled on SQL warehouse %s", r.Name),
				Description: "SQL warehouse has auto-stop disabled and continues to bill " +
					"between query workloads.",
				ResourceType: r.Type,
				ResourceID:   r.ID,
				CurrentConfig: map[string]any{
					domain.AttrAutoStopMinutes: 0,
					domain.AttrClusterSize:     size,
				},
				RecommendedConfig: map[string]any{
					domain.AttrAutoStopMinutes: 10,
				},
				Risk: "Low",
				ImplementationSteps: []string{
					"Enable auto-stop",
					"Set the idle timeout to 10 minutes",
				},
			}
		},
	}
}

// Pools keeping idle instances warm with nothing drawing from them.
func unusedInstancePool() Rule {
	return Rule{
		Name:  "unused_instance_pool",
		Types: []domain.ResourceType{domain.ResourcePool},
		Condition: func(env Env, r domain.ResourceRecord) bool {
			useCount, ok := r.IntAttr(domain.AttrInstanceUseCount)
			if !ok || useCount > 0 {
				return false
			}
			minIdle, _ := r.IntAttr(domain.AttrMinIdleInstances)
			return minIdle > 0
		},
		Build: func(env Env, r domain.ResourceRecord) domain.Recommendation {
			minIdle, _ := r.IntAttr(domain.AttrMinIdleInstances)
			return domain.Recommendation{
				Type:     domain.CostLeak,
				Severity: domain.SeverityLow,
				Title:    fmt.Sprintf("Unused instance pool: %s", r.Name),
				Description: fmt.Sprintf(
					"Instance pool keeps %d idle instances warm but nothing is drawing from it.", minIdle),
				ResourceType: r.Type,
				ResourceID:   r.ID,
				CurrentConfig: map[string]any{
					domain.AttrMinIdleInstances: minIdle,
					domain.AttrInstanceUseCount: 0,
				},
				RecommendedConfig: map[string]any{
					domain.AttrMinIdleInstances: 0,
				},
				EstimatedSavings: env.Savings(r, minIdle),
				Risk:             "Low",
			}
		},
	}
}
