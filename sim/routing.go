package sim

import (
	"fmt"
	"math"
	"sort"
)

// RoutingRule decides where a ready task executes. Among the candidate
// options (local first if the device can process, then every server in
// registry order) the smallest Priority wins; ties go to the earlier
// candidate.
type RoutingRule interface {
	Name() string
	Priority(o *TaskOption, now float64, state *SystemState) float64
}

// LocalFirstRule prefers the device, then edge servers, then cloud servers.
type LocalFirstRule struct{}

func (LocalFirstRule) Name() string { return "local-first" }

func (LocalFirstRule) Priority(o *TaskOption, _ float64, _ *SystemState) float64 {
	switch o.Location() {
	case LocationDevice:
		return 0
	case LocationEdge:
		return 1
	default:
		return 2
	}
}

// EdgeFirstRule prefers edge servers, then cloud servers, then the device.
type EdgeFirstRule struct{}

func (EdgeFirstRule) Name() string { return "edge-first" }

func (EdgeFirstRule) Priority(o *TaskOption, _ float64, _ *SystemState) float64 {
	switch o.Location() {
	case LocationEdge:
		return 0
	case LocationCloud:
		return 1
	default:
		return 2
	}
}

// CloudOnlyRule sends every task to a cloud server. Without cloud servers
// every candidate ties and the first one wins.
type CloudOnlyRule struct{}

func (CloudOnlyRule) Name() string { return "cloud-only" }

func (CloudOnlyRule) Priority(o *TaskOption, _ float64, _ *SystemState) float64 {
	if o.Location() == LocationCloud {
		return 0
	}
	return math.MaxFloat64
}

// MinProcRule picks the option with the shortest processing time.
type MinProcRule struct{}

func (MinProcRule) Name() string { return "min-proc" }

func (MinProcRule) Priority(o *TaskOption, _ float64, _ *SystemState) float64 {
	return o.ProcTime()
}

// MinQueueRule picks the resource with the fewest queued tasks.
type MinQueueRule struct{}

func (MinQueueRule) Name() string { return "min-queue" }

func (MinQueueRule) Priority(o *TaskOption, _ float64, _ *SystemState) float64 {
	if o.IsLocal() {
		return float64(len(o.Device().Queue()))
	}
	return float64(o.Server().NumTaskInQueue())
}

// MinLoadRule picks the resource with the least queued processing time.
type MinLoadRule struct{}

func (MinLoadRule) Name() string { return "min-load" }

func (MinLoadRule) Priority(o *TaskOption, _ float64, _ *SystemState) float64 {
	if o.IsLocal() {
		return o.Device().TotalProcTimeInQueue()
	}
	return o.Server().TotalProcTimeInQueue()
}

// EarliestCompletionRule estimates when the task's result would be back on
// the device and picks the earliest. Server estimates admit the option into
// a clone of the server so the live backlog is never touched.
type EarliestCompletionRule struct{}

func (EarliestCompletionRule) Name() string { return "earliest-completion" }

func (EarliestCompletionRule) Priority(o *TaskOption, now float64, _ *SystemState) float64 {
	if o.IsLocal() {
		d := o.Device()
		return math.Max(now, d.ReadyTime()) + d.TotalProcTimeInQueue() + o.ProcTime()
	}
	whatIf := o.Server().Clone()
	whatIf.AddToQueue(o)
	return math.Max(now+o.UploadDelay(), whatIf.ReadyTime()) + whatIf.TotalProcTimeInQueue() + o.DownloadDelay()
}

// MinTotalLoadRule picks the resource with the least queued processing and
// transfer time, counting the candidate's own costs.
type MinTotalLoadRule struct{}

func (MinTotalLoadRule) Name() string { return "min-total-load" }

func (MinTotalLoadRule) Priority(o *TaskOption, _ float64, _ *SystemState) float64 {
	if o.IsLocal() {
		return o.Device().TotalProcTimeInQueue() + o.TotalTime()
	}
	return o.Server().TotalProcTimeAndUploadAndDownloadTimeInQueue() + o.TotalTime()
}

var routingRules = map[string]func() RoutingRule{
	"local-first":         func() RoutingRule { return LocalFirstRule{} },
	"edge-first":          func() RoutingRule { return EdgeFirstRule{} },
	"cloud-only":          func() RoutingRule { return CloudOnlyRule{} },
	"min-proc":            func() RoutingRule { return MinProcRule{} },
	"min-queue":           func() RoutingRule { return MinQueueRule{} },
	"min-load":            func() RoutingRule { return MinLoadRule{} },
	"min-total-load":      func() RoutingRule { return MinTotalLoadRule{} },
	"earliest-completion": func() RoutingRule { return EarliestCompletionRule{} },
}

// IsValidRoutingRule returns true if name is a recognized routing rule.
func IsValidRoutingRule(name string) bool {
	_, ok := routingRules[name]
	return ok
}

// ValidRoutingRuleNames returns the recognized names, sorted.
func ValidRoutingRuleNames() []string {
	names := make([]string, 0, len(routingRules))
	for name := range routingRules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewRoutingRule creates a RoutingRule by name.
func NewRoutingRule(name string) (RoutingRule, error) {
	ctor, ok := routingRules[name]
	if !ok {
		return nil, fmt.Errorf("unknown routing rule %q; valid: %v", name, ValidRoutingRuleNames())
	}
	return ctor(), nil
}

// route scores every candidate and returns the winner with all scores.
// Panics on an empty candidate list.
func route(candidates []*TaskOption, rule RoutingRule, now float64, state *SystemState) (*TaskOption, []float64) {
	if len(candidates) == 0 {
		panic("route: no candidate options")
	}
	scores := make([]float64, len(candidates))
	best := 0
	for i, o := range candidates {
		scores[i] = rule.Priority(o, now, state)
		if scores[i] < scores[best] {
			best = i
		}
	}
	return candidates[best], scores
}
