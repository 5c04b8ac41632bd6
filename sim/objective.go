package sim

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Objective selects the scalar a run is scored by. Smaller is better.
type Objective string

const (
	ObjectiveMakespan     Objective = "makespan"
	ObjectiveMeanFlowTime Objective = "mean-flowtime"
)

// SentinelWorst is the objective value of an incomplete or aborted run.
const SentinelWorst = math.MaxFloat64

var validObjectives = map[Objective]bool{
	ObjectiveMakespan:     true,
	ObjectiveMeanFlowTime: true,
}

// ParseObjective converts a name to an Objective.
func ParseObjective(name string) (Objective, error) {
	if !validObjectives[Objective(name)] {
		return "", fmt.Errorf("unknown objective %q; valid: [%s %s]", name, ObjectiveMakespan, ObjectiveMeanFlowTime)
	}
	return Objective(name), nil
}

// MeanFlowTime averages flow time over jobs, or returns SentinelWorst when
// fewer than target jobs are given.
func MeanFlowTime(jobs []*Job, target int) float64 {
	if len(jobs) < target || len(jobs) == 0 {
		return SentinelWorst
	}
	flow := make([]float64, len(jobs))
	for i, j := range jobs {
		flow[i] = j.FlowTime()
	}
	return stat.Mean(flow, nil)
}

// Makespan returns the latest completion minus the earliest release over
// jobs, or SentinelWorst when fewer than target jobs are given.
func Makespan(jobs []*Job, target int) float64 {
	if len(jobs) < target || len(jobs) == 0 {
		return SentinelWorst
	}
	release := make([]float64, len(jobs))
	completion := make([]float64, len(jobs))
	for i, j := range jobs {
		release[i] = j.ReleaseTime
		completion[i] = j.CompletionTime
	}
	return floats.Max(completion) - floats.Min(release)
}

// ObjectiveValue dispatches on obj. Panics on an unknown objective.
func ObjectiveValue(obj Objective, jobs []*Job, target int) float64 {
	switch obj {
	case ObjectiveMakespan:
		return Makespan(jobs, target)
	case ObjectiveMeanFlowTime:
		return MeanFlowTime(jobs, target)
	default:
		panic(fmt.Sprintf("ObjectiveValue: unknown objective %q", obj))
	}
}
