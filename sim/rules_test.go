package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSequencingRule_AllNames(t *testing.T) {
	for _, name := range ValidSequencingRuleNames() {
		t.Run(name, func(t *testing.T) {
			r, err := NewSequencingRule(name)
			require.NoError(t, err)
			assert.Equal(t, name, r.Name())
			assert.True(t, IsValidSequencingRule(name))
		})
	}
}

func TestNewSequencingRule_UnknownName_ReturnsError(t *testing.T) {
	r, err := NewSequencingRule("edd")
	assert.Nil(t, r)
	assert.ErrorContains(t, err, "unknown sequencing rule")
}

func TestNewRoutingRule_AllNames(t *testing.T) {
	names := ValidRoutingRuleNames()
	for i := 1; i < len(names); i++ {
		assert.True(t, names[i-1] < names[i], "names must be sorted: %q >= %q", names[i-1], names[i])
	}
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			r, err := NewRoutingRule(name)
			require.NoError(t, err)
			assert.Equal(t, name, r.Name())
		})
	}
}

func TestNewRoutingRule_UnknownName_ReturnsError(t *testing.T) {
	r, err := NewRoutingRule("")
	assert.Nil(t, r)
	assert.Error(t, err)
	assert.False(t, IsValidRoutingRule("random"))
}

// sequencingFixture returns three local options on one device whose jobs
// differ in weight and remaining work.
func sequencingFixture(t *testing.T) (*SystemState, []*TaskOption) {
	t.Helper()
	state := NewSystemState(0)
	d := addTestDevice(state, 0, 10, true, 1, constantSamplers(1, 10, 1, 1, 100, 1), "fcfs", "local-first")

	mk := func(id int, ready, weight float64, workloads ...float64) *TaskOption {
		job := newChainJob(workloads...)
		job.ID = id
		job.Weight = weight
		task := job.nextTask()
		task.ReadyTime = ready
		return NewLocalOption(task, d)
	}
	return state, []*TaskOption{
		mk(0, 3, 1, 40, 10),     // proc 4, remaining 50
		mk(1, 1, 4, 20),         // proc 2, remaining 20
		mk(2, 2, 1, 60, 30, 30), // proc 6, remaining 120
	}
}

func TestSequencingRules_SelectNext(t *testing.T) {
	tests := []struct {
		rule string
		want int // job ID served first
	}{
		{"fcfs", 1}, // earliest ready time
		{"spt", 1},  // shortest proc
		{"lpt", 2},  // longest proc
		{"wspt", 1}, // 2/4 beats 4/1 and 6/1
		{"mwkr", 2}, // most remaining work
		{"lwkr", 1}, // least remaining work
	}
	for _, tt := range tests {
		t.Run(tt.rule, func(t *testing.T) {
			state, opts := sequencingFixture(t)
			got := selectNext(opts, mustSequencingRule(tt.rule), 10, state)
			assert.Equal(t, tt.want, got.Task().Job.ID)
		})
	}
}

func TestSelectNext_Ties_FirstQueuedWins(t *testing.T) {
	// GIVEN detached options with identical proc times
	a, b := NewTaskOption(2, 0, 0), NewTaskOption(2, 0, 0)

	// WHEN selected under SPT THEN the first one queued wins
	assert.Same(t, a, selectNext([]*TaskOption{a, b}, SPTRule{}, 0, nil))
}

func TestSelectNext_EmptyQueue_Panics(t *testing.T) {
	assert.Panics(t, func() { selectNext(nil, FCFSRule{}, 0, nil) })
}

// routingFixture returns the candidates of one ready task on a capable
// device with one edge and one cloud server.
func routingFixture(t *testing.T) (*SystemState, *MobileDevice, []*TaskOption) {
	t.Helper()
	state := NewSystemState(0)
	d := addTestDevice(state, 0, 10, true, 1, constantSamplers(1, 10, 1, 1, 100, 1), "fcfs", "local-first")
	state.AddServer(NewServer(0, ServerTypeEdge, 100, 100, 50))
	state.AddServer(NewServer(1, ServerTypeCloud, 10, 10, 1000))

	task := newChainJob(100).nextTask()
	task.Data, task.OutputData = 100, 100
	// local proc 10; edge proc 2, up 1, down 1; cloud proc 0.1, up 10, down 10
	return state, d, d.candidateOptions(task)
}

func TestRoutingRules_Route(t *testing.T) {
	tests := []struct {
		rule string
		want Location
	}{
		{"local-first", LocationDevice},
		{"edge-first", LocationEdge},
		{"cloud-only", LocationCloud},
		{"min-proc", LocationCloud},
		{"min-queue", LocationDevice}, // all empty; local is the first candidate
		{"min-load", LocationDevice},
		{"min-total-load", LocationEdge}, // 4 beats 10 and 20.1
		{"earliest-completion", LocationEdge},
	}
	for _, tt := range tests {
		t.Run(tt.rule, func(t *testing.T) {
			state, _, candidates := routingFixture(t)
			require.Len(t, candidates, 3)
			chosen, scores := route(candidates, mustRoutingRule(tt.rule), 0, state)
			assert.Equal(t, tt.want, chosen.Location())
			assert.Len(t, scores, 3)
		})
	}
}

func TestRoutingRules_LoadAware_AvoidBusyServer(t *testing.T) {
	// GIVEN the edge server already has a long backlog
	state, _, candidates := routingFixture(t)
	edge := state.Servers()[0]
	edge.AddToQueue(NewTaskOption(100, 0, 0))

	// WHEN routed by load-aware rules
	// THEN the busy edge server is avoided
	chosen, _ := route(candidates, MinTotalLoadRule{}, 0, state)
	assert.NotEqual(t, LocationEdge, chosen.Location())

	chosen, _ = route(candidates, MinQueueRule{}, 0, state)
	assert.Equal(t, LocationDevice, chosen.Location())
}

func TestEarliestCompletionRule_DoesNotMutateServer(t *testing.T) {
	// GIVEN a server with a backlog
	state, _, candidates := routingFixture(t)
	edge := state.Servers()[0]
	edge.AddToQueue(NewTaskOption(3, 1, 1))
	edge.SetReadyTime(5)

	// WHEN the edge candidate is scored
	p := EarliestCompletionRule{}.Priority(candidates[1], 0, state)

	// THEN the estimate is max(upload arrival, readyTime) + backlog incl. own proc + download
	assert.Equal(t, 5.0+3+2+1, p)
	// AND the live server is unchanged
	assert.Equal(t, 1, edge.NumTaskInQueue())
	assert.Equal(t, 3.0, edge.TotalProcTimeInQueue())
}

func TestCloudOnlyRule_NoCloud_FirstCandidateWins(t *testing.T) {
	state := NewSystemState(0)
	d := addTestDevice(state, 0, 10, true, 1, constantSamplers(1, 10, 1, 1, 100, 1), "fcfs", "cloud-only")
	state.AddServer(NewServer(0, ServerTypeEdge, 1, 1, 1))

	candidates := d.candidateOptions(newChainJob(1).nextTask())
	chosen, scores := route(candidates, CloudOnlyRule{}, 0, state)

	assert.True(t, chosen.IsLocal())
	assert.Equal(t, math.MaxFloat64, scores[0])
}

func TestRoute_NoCandidates_Panics(t *testing.T) {
	assert.Panics(t, func() { route(nil, MinProcRule{}, 0, nil) })
}
