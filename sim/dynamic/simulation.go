// Package dynamic drives a full offloading system: it builds devices and
// servers from sampled capacities, merges the devices' private event
// streams in time order, stops divergent runs and scores the result.
package dynamic

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/offload-sim/sim"
	"github.com/inference-sim/offload-sim/sim/trace"
	"github.com/inference-sim/offload-sim/sim/workload"
)

// Simulation is one configured instance of the offloading system.
// Comparative runs (same seed, different rule pair) must use separate
// instances; nothing mutable is shared between them.
//
// Thread-safety: NOT thread-safe.
type Simulation struct {
	config Config
	state  *sim.SystemState
	merge  *sim.EventQueue
	guard  *sim.Guard

	applied int
	reason  sim.TerminationReason
}

// Result is a snapshot of a finished run.
type Result struct {
	Seed            int64                 `json:"seed"`
	Sequencing      string                `json:"sequencing"`
	Routing         string                `json:"routing"`
	MeanFlowTime    float64               `json:"mean_flowtime"`
	Makespan        float64               `json:"makespan"`
	JobsRecorded    int                   `json:"jobs_recorded"`
	Throughput      int                   `json:"throughput"`
	EventsApplied   int                   `json:"events_applied"`
	Termination     sim.TerminationReason `json:"termination"`
	Clock           float64               `json:"clock"`
	Aborted         bool                  `json:"aborted"`
	NumJobsRecorded int                   `json:"target"`
}

// New validates cfg, samples every static capacity from the master seed,
// builds the devices and servers, and seeds one job per device.
//
// Capacities are drawn in a fixed order: one processing rate per device,
// then upload bandwidth, download bandwidth and processing rate per edge
// server, then the same per cloud server. Cloud server IDs follow the edge
// server IDs.
func New(cfg Config) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid simulation config: %w", err)
	}
	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(cfg.Seed)).ForSubsystem(sim.SubsystemResources)
	state := sim.NewSystemState(cfg.WarmupJobs)
	s := cfg.Samplers

	for i := 0; i < cfg.NumMobileDevices; i++ {
		rate := s.DeviceProcessingRate.Next(rng)
		if rate <= 0 {
			return nil, fmt.Errorf("device %d: sampled processing rate %f is not positive", i, rate)
		}
		state.AddDevice(sim.NewMobileDevice(sim.DeviceConfig{
			ID:             i,
			ProcessingRate: rate,
			CanProcessTask: cfg.CanMobileDeviceProcessTask,
			Seed:           cfg.Seed,
			Samplers:       s.Job,
			SequencingRule: cfg.SequencingRule,
			RoutingRule:    cfg.RoutingRule,
		}, state))
	}

	addServers := func(firstID, n int, serverType sim.ServerType, up, down, rate workload.RealSampler) error {
		for i := firstID; i < firstID+n; i++ {
			u, d, r := up.Next(rng), down.Next(rng), rate.Next(rng)
			if u <= 0 || d <= 0 || r <= 0 {
				return fmt.Errorf("%s server %d: sampled capacities must be positive, got up=%f down=%f rate=%f", serverType, i, u, d, r)
			}
			state.AddServer(sim.NewServer(i, serverType, u, d, r))
		}
		return nil
	}
	if err := addServers(0, cfg.NumEdgeServers, sim.ServerTypeEdge,
		s.EdgeUploadBandwidth, s.EdgeDownloadBandwidth, s.EdgeProcessingRate); err != nil {
		return nil, err
	}
	if err := addServers(cfg.NumEdgeServers, cfg.NumCloudServers, sim.ServerTypeCloud,
		s.CloudUploadBandwidth, s.CloudDownloadBandwidth, s.CloudProcessingRate); err != nil {
		return nil, err
	}

	sm := &Simulation{
		config: cfg,
		state:  state,
		merge:  sim.NewEventQueue(),
		guard:  sim.NewGuard(cfg.WarmupJobs),
		reason: sim.TerminationNone,
	}
	if err := sm.Setup(); err != nil {
		return nil, err
	}
	logrus.Infof("simulation built: seed=%d devices=%d edge=%d cloud=%d sequencing=%s routing=%s",
		cfg.Seed, cfg.NumMobileDevices, cfg.NumEdgeServers, cfg.NumCloudServers,
		cfg.SequencingRule.Name(), cfg.RoutingRule.Name())
	return sm, nil
}

func (sm *Simulation) Config() Config                     { return sm.config }
func (sm *Simulation) State() *sim.SystemState            { return sm.state }
func (sm *Simulation) EventsApplied() int                 { return sm.applied }
func (sm *Simulation) Termination() sim.TerminationReason { return sm.reason }

// SetTrace attaches a trace to the registry; nil disables tracing.
func (sm *Simulation) SetTrace(st *trace.SimulationTrace) {
	sm.state.SetTrace(st)
}

// Setup seeds exactly one job per device. Returns the first device's error
// if a draw is out of range.
func (sm *Simulation) Setup() error {
	for _, d := range sm.state.Devices() {
		if _, err := d.GenerateJob(); err != nil {
			return fmt.Errorf("setup: %w", err)
		}
	}
	return nil
}

// Reset clears the registry only: clock, completed jobs, throughput and
// trace. Pending events, device and server backlogs, server readyTimes and
// the event sequence counter are kept, so a following Run continues the
// existing sample path and every job in progress can still complete.
func (sm *Simulation) Reset() {
	sm.state.Reset()
	sm.guard.Reset()
	sm.applied = 0
	sm.reason = sim.TerminationNone
}

// ResetState clears the registry, the merge queue, every device and every
// server, then re-runs Setup. The next Run replays the configured instance
// from the start.
func (sm *Simulation) ResetState() error {
	sm.Reset()
	sm.merge.Clear()
	for _, d := range sm.state.Devices() {
		d.ResetState()
	}
	sm.state.ResetResources()
	return sm.Setup()
}

// Rerun is ResetState followed by Run.
func (sm *Simulation) Rerun() (sim.TerminationReason, error) {
	if err := sm.ResetState(); err != nil {
		return sim.TerminationNone, err
	}
	return sm.Run(), nil
}

// RotateSeed advances every device's seed by sim.SeedRotationStep. Takes
// effect at the next ResetState or Rerun.
func (sm *Simulation) RotateSeed() {
	for _, d := range sm.state.Devices() {
		d.RotateSeed()
	}
}

// SetSequencingRule sets the rule on the simulation and every device.
func (sm *Simulation) SetSequencingRule(rule sim.SequencingRule) {
	sm.config.SequencingRule = rule
	for _, d := range sm.state.Devices() {
		d.SetSequencingRule(rule)
	}
}

// SetRoutingRule sets the rule on the simulation and every device.
func (sm *Simulation) SetRoutingRule(rule sim.RoutingRule) {
	sm.config.RoutingRule = rule
	for _, d := range sm.state.Devices() {
		d.SetRoutingRule(rule)
	}
}

// Run drives the simulation until the recorded-job target is met or a
// guard fires.
func (sm *Simulation) Run() sim.TerminationReason {
	return sm.RunContext(context.Background())
}

// RunContext is Run with cancellation checked between events. A canceled
// run keeps its pending events; its objectives are the sentinel unless the
// target was already met.
func (sm *Simulation) RunContext(ctx context.Context) sim.TerminationReason {
	target := sm.config.NumJobsRecorded
	devices := sm.state.Devices()
	if len(devices) == 1 {
		var n int
		sm.reason, n = devices[0].RunContext(ctx, target, sm.guard)
		sm.applied += n
	} else {
		sm.reason = sm.runMerged(ctx, target)
	}
	logrus.Infof("run finished: %s after %d events, %d/%d jobs recorded, clock %g",
		sm.reason, sm.applied, sm.state.NumJobsCompleted(), target, sm.state.Clock())
	return sm.reason
}

// runMerged is the multi-device loop. Every iteration moves the head of each
// non-empty device stream into the merge queue, then applies the merge
// queue's earliest event. Events are never scheduled before the current
// clock, so the merge queue's minimum is always the global minimum.
func (sm *Simulation) runMerged(ctx context.Context, target int) sim.TerminationReason {
	devices := sm.state.Devices()
	servers := sm.state.Servers()
	for n := 0; ; n++ {
		refilled := sm.refill(devices)
		if !refilled && sm.merge.Len() == 0 {
			break
		}
		if sm.state.NumJobsCompleted() >= target {
			return sim.TerminationTargetReached
		}
		if n%cancelCheckInterval == 0 && ctx.Err() != nil {
			logrus.Warnf("run canceled after %d events", sm.applied)
			return sim.TerminationCanceled
		}

		e := sm.merge.Pop()
		before := sm.state.Throughput()
		sm.state.Apply(e)
		sm.applied++

		if reason := sm.guard.Observe(before, sm.state.Throughput(), e.Device(), servers); reason != sim.TerminationNone {
			sm.abort()
			return reason
		}
	}
	if sm.state.NumJobsCompleted() >= target {
		return sim.TerminationTargetReached
	}
	return sim.TerminationDrained
}

// cancelCheckInterval is how many loop iterations run between context checks.
const cancelCheckInterval = 1024

func (sm *Simulation) refill(devices []*sim.MobileDevice) bool {
	found := false
	for _, d := range devices {
		if e := d.PendingEvents().Pop(); e != nil {
			sm.merge.Push(e)
			found = true
		}
	}
	return found
}

// abort moves the clock to the sentinel and discards every pending event.
func (sm *Simulation) abort() {
	sm.state.Abort()
	sm.merge.Clear()
	for _, d := range sm.state.Devices() {
		d.PendingEvents().Clear()
	}
}

// MeanFlowTime returns the mean flow time of the recorded jobs, or
// sim.SentinelWorst if fewer than the target were recorded.
func (sm *Simulation) MeanFlowTime() float64 {
	return sim.MeanFlowTime(sm.state.JobsCompleted(), sm.config.NumJobsRecorded)
}

// Makespan returns the span of the recorded jobs, or sim.SentinelWorst if
// fewer than the target were recorded.
func (sm *Simulation) Makespan() float64 {
	return sim.Makespan(sm.state.JobsCompleted(), sm.config.NumJobsRecorded)
}

// ObjectiveValue dispatches on obj.
func (sm *Simulation) ObjectiveValue(obj sim.Objective) float64 {
	return sim.ObjectiveValue(obj, sm.state.JobsCompleted(), sm.config.NumJobsRecorded)
}

// Result snapshots the current run.
func (sm *Simulation) Result() Result {
	return Result{
		Seed:            sm.config.Seed,
		Sequencing:      sm.config.SequencingRule.Name(),
		Routing:         sm.config.RoutingRule.Name(),
		MeanFlowTime:    sm.MeanFlowTime(),
		Makespan:        sm.Makespan(),
		JobsRecorded:    sm.state.NumJobsCompleted(),
		Throughput:      sm.state.Throughput(),
		EventsApplied:   sm.applied,
		Termination:     sm.reason,
		Clock:           sm.state.Clock(),
		Aborted:         sm.state.Aborted(),
		NumJobsRecorded: sm.config.NumJobsRecorded,
	}
}
