package sim

import (
	"fmt"
	"math"

	"github.com/inference-sim/offload-sim/sim/trace"
	"github.com/sirupsen/logrus"
)

// ClockInfinity is the clock value of a run terminated by a divergence guard.
const ClockInfinity = math.MaxFloat64

// SystemState is the registry of one simulation instance: its devices,
// servers, completed jobs and the simulated clock. Exactly one exists per
// instance; comparative runs must each own their own.
//
// Thread-safety: NOT thread-safe. All mutation happens while applying a
// single event.
type SystemState struct {
	devices []*MobileDevice
	servers []*Server

	jobsCompleted []*Job // recorded jobs only, in completion order
	throughput    int    // every completion, warm-up included
	warmupJobs    int

	clock float64
	seq   uint64

	trace *trace.SimulationTrace
}

// NewSystemState creates an empty registry. The first warmupJobs completions
// are counted in Throughput but never recorded.
func NewSystemState(warmupJobs int) *SystemState {
	if warmupJobs < 0 {
		panic(fmt.Sprintf("NewSystemState: warmupJobs must be >= 0, got %d", warmupJobs))
	}
	return &SystemState{warmupJobs: warmupJobs}
}

func (s *SystemState) Devices() []*MobileDevice { return s.devices }
func (s *SystemState) Servers() []*Server       { return s.servers }
func (s *SystemState) JobsCompleted() []*Job    { return s.jobsCompleted }
func (s *SystemState) NumJobsCompleted() int    { return len(s.jobsCompleted) }
func (s *SystemState) Throughput() int          { return s.throughput }
func (s *SystemState) WarmupJobs() int          { return s.warmupJobs }
func (s *SystemState) Clock() float64           { return s.clock }
func (s *SystemState) Aborted() bool            { return s.clock == ClockInfinity }

// AddDevice registers d.
func (s *SystemState) AddDevice(d *MobileDevice) {
	s.devices = append(s.devices, d)
}

// AddServer registers srv.
func (s *SystemState) AddServer(srv *Server) {
	s.servers = append(s.servers, srv)
}

// SetClock advances the clock to t. Panics if t is earlier than the
// current clock.
func (s *SystemState) SetClock(t float64) {
	if t < s.clock {
		panic(fmt.Sprintf("SystemState.SetClock: clock went backwards from %f to %f", s.clock, t))
	}
	s.clock = t
}

// Abort moves the clock to ClockInfinity.
func (s *SystemState) Abort() {
	s.clock = ClockInfinity
}

// NextSeq returns the next event insertion sequence number.
func (s *SystemState) NextSeq() uint64 {
	seq := s.seq
	s.seq++
	return seq
}

// CompleteJob counts job as finished and records it once warm-up is over.
func (s *SystemState) CompleteJob(job *Job) {
	if job.CompletionTime < job.ReleaseTime {
		panic(fmt.Sprintf("SystemState.CompleteJob: %v completed at %f before its release", job, job.CompletionTime))
	}
	s.throughput++
	recorded := s.throughput > s.warmupJobs
	if recorded {
		s.jobsCompleted = append(s.jobsCompleted, job)
	}
	if s.trace != nil {
		s.trace.RecordCompletion(trace.CompletionRecord{
			JobID:          job.ID,
			DeviceID:       job.DeviceID,
			ReleaseTime:    job.ReleaseTime,
			CompletionTime: job.CompletionTime,
			Recorded:       recorded,
		})
	}
}

// SetTrace attaches a trace; nil disables tracing.
func (s *SystemState) SetTrace(st *trace.SimulationTrace) {
	s.trace = st
}

// Trace returns the attached trace, or nil.
func (s *SystemState) Trace() *trace.SimulationTrace {
	return s.trace
}

// recordEvent traces e being applied.
func (s *SystemState) recordEvent(e *Event) {
	if s.trace == nil {
		return
	}
	s.trace.RecordEvent(trace.EventRecord{
		Seq:      e.seq,
		Clock:    e.time,
		DeviceID: e.device.ID(),
		Kind:     e.kind.String(),
	})
}

// recordRouting traces the routing decision for task.
func (s *SystemState) recordRouting(task *Task, deviceID int, chosen *TaskOption, candidates []*TaskOption, scores []float64) {
	if s.trace == nil || s.trace.Config.Level != trace.TraceLevelDecisions {
		return
	}
	m := make(map[string]float64, len(candidates))
	for i, c := range candidates {
		m[optionLabel(c)] = scores[i]
	}
	s.trace.RecordRouting(trace.RoutingRecord{
		JobID:     task.Job.ID,
		TaskIndex: task.Index,
		DeviceID:  deviceID,
		Clock:     s.clock,
		Chosen:    optionLabel(chosen),
		Scores:    m,
	})
}

// Apply sets the clock to e's time, traces it and triggers it on its owning
// device.
func (s *SystemState) Apply(e *Event) {
	s.SetClock(e.time)
	logrus.Debugf("[t=%.3f] applying %s for device %d", e.time, e.kind, e.device.ID())
	s.recordEvent(e)
	e.Trigger(e.device)
}

// Reset clears the registry: the clock, the completed jobs, the throughput
// and the trace. Server backlogs, server readyTimes and the event sequence
// counter are kept, because pending events still refer to them.
func (s *SystemState) Reset() {
	s.clock = 0
	s.throughput = 0
	s.jobsCompleted = nil
	if s.trace != nil {
		s.trace.Clear()
	}
}

// ResetResources empties every server and restarts the event sequence
// counter. Only valid once no event is pending anywhere.
func (s *SystemState) ResetResources() {
	s.seq = 0
	for _, srv := range s.servers {
		srv.Reset(0)
	}
}

func optionLabel(o *TaskOption) string {
	if o.IsLocal() {
		return string(LocationDevice)
	}
	return fmt.Sprintf("%s_%d", o.Server().Type(), o.Server().ID())
}
