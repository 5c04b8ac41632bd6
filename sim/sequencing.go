package sim

import (
	"fmt"
	"sort"
)

// SequencingRule decides which pending option a resource serves next.
// The option with the smallest Priority is served first; ties go to the
// option queued earliest.
type SequencingRule interface {
	Name() string
	Priority(o *TaskOption, now float64, state *SystemState) float64
}

// FCFSRule serves options in the order their tasks became ready.
type FCFSRule struct{}

func (FCFSRule) Name() string { return "fcfs" }

func (FCFSRule) Priority(o *TaskOption, _ float64, _ *SystemState) float64 {
	if o.Task() == nil {
		return 0
	}
	return o.Task().ReadyTime
}

// SPTRule serves the shortest processing time first.
type SPTRule struct{}

func (SPTRule) Name() string { return "spt" }

func (SPTRule) Priority(o *TaskOption, _ float64, _ *SystemState) float64 {
	return o.ProcTime()
}

// LPTRule serves the longest processing time first.
type LPTRule struct{}

func (LPTRule) Name() string { return "lpt" }

func (LPTRule) Priority(o *TaskOption, _ float64, _ *SystemState) float64 {
	return -o.ProcTime()
}

// WSPTRule serves the smallest processing time per unit of job weight first.
type WSPTRule struct{}

func (WSPTRule) Name() string { return "wspt" }

func (WSPTRule) Priority(o *TaskOption, _ float64, _ *SystemState) float64 {
	return o.ProcTime() / jobWeight(o)
}

// MWKRRule serves the task whose job has the most work remaining first.
type MWKRRule struct{}

func (MWKRRule) Name() string { return "mwkr" }

func (MWKRRule) Priority(o *TaskOption, _ float64, _ *SystemState) float64 {
	return -remainingWork(o)
}

// LWKRRule serves the task whose job has the least work remaining first.
type LWKRRule struct{}

func (LWKRRule) Name() string { return "lwkr" }

func (LWKRRule) Priority(o *TaskOption, _ float64, _ *SystemState) float64 {
	return remainingWork(o)
}

func jobWeight(o *TaskOption) float64 {
	if o.Task() == nil || o.Task().Job == nil || o.Task().Job.Weight <= 0 {
		return 1
	}
	return o.Task().Job.Weight
}

func remainingWork(o *TaskOption) float64 {
	if o.Task() == nil || o.Task().Job == nil {
		return 0
	}
	return o.Task().Job.RemainingWork()
}

var sequencingRules = map[string]func() SequencingRule{
	"fcfs": func() SequencingRule { return FCFSRule{} },
	"spt":  func() SequencingRule { return SPTRule{} },
	"lpt":  func() SequencingRule { return LPTRule{} },
	"wspt": func() SequencingRule { return WSPTRule{} },
	"mwkr": func() SequencingRule { return MWKRRule{} },
	"lwkr": func() SequencingRule { return LWKRRule{} },
}

// IsValidSequencingRule returns true if name is a recognized sequencing rule.
func IsValidSequencingRule(name string) bool {
	_, ok := sequencingRules[name]
	return ok
}

// ValidSequencingRuleNames returns the recognized names, sorted.
func ValidSequencingRuleNames() []string {
	names := make([]string, 0, len(sequencingRules))
	for name := range sequencingRules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewSequencingRule creates a SequencingRule by name.
func NewSequencingRule(name string) (SequencingRule, error) {
	ctor, ok := sequencingRules[name]
	if !ok {
		return nil, fmt.Errorf("unknown sequencing rule %q; valid: %v", name, ValidSequencingRuleNames())
	}
	return ctor(), nil
}

// selectNext returns the option in queue with the smallest priority under
// rule. Ties go to the earliest queued. Panics on an empty queue.
func selectNext(queue []*TaskOption, rule SequencingRule, now float64, state *SystemState) *TaskOption {
	if len(queue) == 0 {
		panic("selectNext: empty queue")
	}
	best := queue[0]
	bestPriority := rule.Priority(best, now, state)
	for _, o := range queue[1:] {
		if p := rule.Priority(o, now, state); p < bestPriority {
			best, bestPriority = o, p
		}
	}
	return best
}
