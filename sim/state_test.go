package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/offload-sim/sim/trace"
)

func completedJob(id int, release, completion float64) *Job {
	return &Job{ID: id, ReleaseTime: release, CompletionTime: completion}
}

func TestSystemState_CompleteJob_ExcludesWarmup(t *testing.T) {
	// GIVEN a registry with 2 warm-up jobs
	state := NewSystemState(2)

	// WHEN 5 jobs complete
	for i := 0; i < 5; i++ {
		state.CompleteJob(completedJob(i, 0, float64(i+1)))
	}

	// THEN all count toward throughput but only the last 3 are recorded
	assert.Equal(t, 5, state.Throughput())
	require.Equal(t, 3, state.NumJobsCompleted())
	assert.Equal(t, 2, state.JobsCompleted()[0].ID)
}

func TestSystemState_CompleteJob_BeforeRelease_Panics(t *testing.T) {
	state := NewSystemState(0)
	assert.Panics(t, func() { state.CompleteJob(completedJob(0, 5, 4)) })
}

func TestSystemState_SetClock_Backwards_Panics(t *testing.T) {
	state := NewSystemState(0)
	state.SetClock(3)
	state.SetClock(3)
	assert.Panics(t, func() { state.SetClock(2.999) })
}

func TestSystemState_Abort_SetsSentinelClock(t *testing.T) {
	state := NewSystemState(0)
	state.SetClock(10)

	state.Abort()

	assert.True(t, state.Aborted())
	assert.Equal(t, ClockInfinity, state.Clock())
}

func TestSystemState_NextSeq_Increments(t *testing.T) {
	state := NewSystemState(0)
	assert.Equal(t, uint64(0), state.NextSeq())
	assert.Equal(t, uint64(1), state.NextSeq())
	assert.Equal(t, uint64(2), state.NextSeq())
}

func TestSystemState_Reset_ClearsRegistryOnly(t *testing.T) {
	// GIVEN a registry with a device, a busy server and completed jobs
	state := NewSystemState(0)
	d := addTestDevice(state, 0, 10, true, 1, constantSamplers(1, 10, 1, 1, 100, 1), "fcfs", "local-first")
	srv := NewServer(0, ServerTypeEdge, 10, 10, 100)
	state.AddServer(srv)
	srv.AddToQueue(NewTaskOption(3, 1, 1))
	srv.SetReadyTime(8)
	mustGenerateJob(d)
	state.SetClock(4)
	state.CompleteJob(completedJob(0, 0, 4))

	// WHEN the registry is reset
	state.Reset()

	// THEN clock, jobs and throughput are cleared
	assert.Equal(t, 0.0, state.Clock())
	assert.Equal(t, 0, state.NumJobsCompleted())
	assert.Equal(t, 0, state.Throughput())

	// AND work in progress is kept: server backlog, server readyTime, the
	// sequence counter and the device's pending stream
	assert.Equal(t, 1, srv.NumTaskInQueue())
	assert.Equal(t, 8.0, srv.ReadyTime())
	assert.Equal(t, uint64(1), state.NextSeq())
	assert.Len(t, state.Devices(), 1)
	assert.Len(t, state.Servers(), 1)
	assert.Equal(t, 1, d.PendingEvents().Len())
}

func TestSystemState_ResetResources_EmptiesServersAndSequence(t *testing.T) {
	// GIVEN a busy server and an advanced sequence counter
	state := NewSystemState(0)
	srv := NewServer(0, ServerTypeCloud, 10, 10, 100)
	state.AddServer(srv)
	srv.AddToQueue(NewTaskOption(3, 1, 1))
	srv.SetReadyTime(8)
	state.NextSeq()
	state.NextSeq()

	// WHEN resources are reset
	state.ResetResources()

	// THEN servers are idle and empty and the counter restarts
	assert.Equal(t, 0, srv.NumTaskInQueue())
	assert.Equal(t, 0.0, srv.ReadyTime())
	assert.Equal(t, 0.0, srv.TotalProcTimeInQueue())
	assert.Equal(t, uint64(0), state.NextSeq())
}

func TestSystemState_Trace_RecordsCompletions(t *testing.T) {
	// GIVEN a traced registry with one warm-up job
	state := NewSystemState(1)
	st := trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelEvents})
	state.SetTrace(st)

	// WHEN two jobs complete
	state.CompleteJob(completedJob(0, 0, 1))
	state.CompleteJob(completedJob(1, 0, 2))

	// THEN both are traced and only the second is marked recorded
	require.Len(t, st.Completions, 2)
	assert.False(t, st.Completions[0].Recorded)
	assert.True(t, st.Completions[1].Recorded)
}
