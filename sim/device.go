package sim

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/offload-sim/sim/workload"
)

// JobSamplers are the value sources a device draws its workload from.
type JobSamplers struct {
	NumTasks         workload.IntegerSampler
	Workload         workload.RealSampler
	TaskData         workload.RealSampler
	TaskInputData    workload.RealSampler // data returned to the device, feeding the next task
	InterReleaseTime workload.RealSampler
	JobWeight        workload.RealSampler
}

// Validate returns an error naming the first missing sampler.
func (s JobSamplers) Validate() error {
	required := []struct {
		name    string
		missing bool
	}{
		{"NumTasks", s.NumTasks == nil},
		{"Workload", s.Workload == nil},
		{"TaskData", s.TaskData == nil},
		{"TaskInputData", s.TaskInputData == nil},
		{"InterReleaseTime", s.InterReleaseTime == nil},
		{"JobWeight", s.JobWeight == nil},
	}
	for _, r := range required {
		if r.missing {
			return fmt.Errorf("sampler %s is required", r.name)
		}
	}

	if lo, ok := workload.IntLowerBound(s.NumTasks); ok && lo < 1 {
		return fmt.Errorf("sampler NumTasks can draw %d; a job needs at least one task", lo)
	}
	nonNegative := []struct {
		name    string
		sampler workload.RealSampler
	}{
		{"Workload", s.Workload},
		{"TaskData", s.TaskData},
		{"TaskInputData", s.TaskInputData},
		{"InterReleaseTime", s.InterReleaseTime},
	}
	for _, r := range nonNegative {
		if lo, ok := workload.LowerBound(r.sampler); ok && !(lo >= 0) {
			return fmt.Errorf("sampler %s can draw %g; values must be >= 0", r.name, lo)
		}
	}
	return nil
}

// DeviceConfig holds the construction parameters of a MobileDevice.
type DeviceConfig struct {
	ID             int
	ProcessingRate float64
	CanProcessTask bool
	Seed           int64
	Samplers       JobSamplers
	SequencingRule SequencingRule
	RoutingRule    RoutingRule
}

// MobileDevice is the actor that releases jobs, routes their tasks and,
// when capable, executes tasks locally. It owns a private time-ordered
// event stream; the multi-device engine merges those streams.
//
// Thread-safety: NOT thread-safe. Owned by a single SystemState.
type MobileDevice struct {
	id             int
	processingRate float64
	canProcessTask bool

	seed     int64
	rng      *rand.Rand
	samplers JobSamplers

	sequencingRule SequencingRule
	routingRule    RoutingRule

	state  *SystemState
	stream *EventQueue

	queue         []*TaskOption
	queueProcTime float64
	readyTime     float64

	nextReleaseTime float64
	jobsGenerated   int
	tasksGenerated  int
}

// NewMobileDevice creates a device registered with nothing yet; the caller
// adds it to state. Panics on a non-positive processing rate or missing
// samplers.
func NewMobileDevice(cfg DeviceConfig, state *SystemState) *MobileDevice {
	if cfg.ProcessingRate <= 0 {
		panic(fmt.Sprintf("NewMobileDevice(%d): processing rate must be positive, got %f", cfg.ID, cfg.ProcessingRate))
	}
	if err := cfg.Samplers.Validate(); err != nil {
		panic(fmt.Sprintf("NewMobileDevice(%d): %v", cfg.ID, err))
	}
	d := &MobileDevice{
		id:             cfg.ID,
		processingRate: cfg.ProcessingRate,
		canProcessTask: cfg.CanProcessTask,
		seed:           cfg.Seed,
		samplers:       cfg.Samplers,
		sequencingRule: cfg.SequencingRule,
		routingRule:    cfg.RoutingRule,
		state:          state,
		stream:         NewEventQueue(),
		queue:          make([]*TaskOption, 0),
	}
	d.rng = d.newRNG()
	return d
}

func (d *MobileDevice) ID() int                       { return d.id }
func (d *MobileDevice) ProcessingRate() float64       { return d.processingRate }
func (d *MobileDevice) IsCanProcessTask() bool        { return d.canProcessTask }
func (d *MobileDevice) Seed() int64                   { return d.seed }
func (d *MobileDevice) ReadyTime() float64            { return d.readyTime }
func (d *MobileDevice) PendingEvents() *EventQueue    { return d.stream }
func (d *MobileDevice) TotalProcTimeInQueue() float64 { return d.queueProcTime }
func (d *MobileDevice) NumJobsGenerated() int         { return d.jobsGenerated }

// Queue returns the local backlog in admission order. Callers MUST NOT
// modify it.
func (d *MobileDevice) Queue() []*TaskOption {
	return d.queue
}

func (d *MobileDevice) SetSequencingRule(rule SequencingRule) { d.sequencingRule = rule }
func (d *MobileDevice) SetRoutingRule(rule RoutingRule)       { d.routingRule = rule }

// GenerateJob samples the device's next job, schedules its release and
// advances the next release time by a sampled inter-release gap. Returns an
// error, leaving the device unchanged apart from its generator, when a draw
// is out of range: fewer than one task, or a negative size or gap.
func (d *MobileDevice) GenerateJob() (*Job, error) {
	numTasks := d.samplers.NumTasks.Next(d.rng)
	if numTasks < 1 {
		return nil, fmt.Errorf("device %d: sampled task count %d is below 1", d.id, numTasks)
	}
	job := &Job{
		ID:          d.jobsGenerated,
		DeviceID:    d.id,
		ReleaseTime: d.nextReleaseTime,
		Weight:      d.samplers.JobWeight.Next(d.rng),
		Tasks:       make([]*Task, numTasks),
	}
	for i := range job.Tasks {
		t := &Task{
			ID:         d.tasksGenerated + i,
			Job:        job,
			Index:      i,
			Workload:   d.samplers.Workload.Next(d.rng),
			Data:       d.samplers.TaskData.Next(d.rng),
			OutputData: d.samplers.TaskInputData.Next(d.rng),
		}
		for _, draw := range []struct {
			name  string
			value float64
		}{{"workload", t.Workload}, {"task data", t.Data}, {"task input data", t.OutputData}} {
			if !(draw.value >= 0) {
				return nil, fmt.Errorf("device %d: sampled %s %f is negative", d.id, draw.name, draw.value)
			}
		}
		job.Tasks[i] = t
	}
	gap := d.samplers.InterReleaseTime.Next(d.rng)
	if !(gap >= 0) {
		return nil, fmt.Errorf("device %d: sampled inter-release time %f is negative", d.id, gap)
	}

	d.tasksGenerated += numTasks
	d.jobsGenerated++
	d.nextReleaseTime += gap
	d.schedule(EventJobReleased, job.ReleaseTime, job, nil, nil)
	return job, nil
}

// RotateSeed advances the device seed by SeedRotationStep. The new seed
// takes effect at the next ResetState.
func (d *MobileDevice) RotateSeed() {
	d.seed += SeedRotationStep
}

// ResetState discards pending events and the local backlog, idles the
// device and re-derives its generator from the current seed.
func (d *MobileDevice) ResetState() {
	d.stream.Clear()
	d.queue = d.queue[:0]
	d.queueProcTime = 0
	d.readyTime = 0
	d.nextReleaseTime = 0
	d.jobsGenerated = 0
	d.tasksGenerated = 0
	d.rng = d.newRNG()
}

// Run drives this device alone until target jobs are recorded or guard
// fires. Used when the system has exactly one device.
func (d *MobileDevice) Run(target int, guard *Guard) (TerminationReason, int) {
	return d.RunContext(context.Background(), target, guard)
}

// RunContext is Run with cancellation, checked between events.
// Returns the termination reason and the number of events applied.
func (d *MobileDevice) RunContext(ctx context.Context, target int, guard *Guard) (TerminationReason, int) {
	if d.sequencingRule == nil || d.routingRule == nil {
		panic(fmt.Sprintf("MobileDevice(%d).Run: rules must be set", d.id))
	}
	applied := 0
	for d.stream.Len() > 0 {
		if d.state.NumJobsCompleted() >= target {
			return TerminationTargetReached, applied
		}
		if applied%cancelCheckInterval == 0 && ctx.Err() != nil {
			logrus.Warnf("device %d: run canceled after %d events", d.id, applied)
			return TerminationCanceled, applied
		}
		e := d.stream.Pop()
		before := d.state.Throughput()
		d.state.Apply(e)
		applied++
		if reason := guard.Observe(before, d.state.Throughput(), d, d.state.Servers()); reason != TerminationNone {
			d.state.Abort()
			d.stream.Clear()
			return reason, applied
		}
	}
	if d.state.NumJobsCompleted() >= target {
		return TerminationTargetReached, applied
	}
	return TerminationDrained, applied
}

// cancelCheckInterval is how many events run between context checks.
const cancelCheckInterval = 1024

func (d *MobileDevice) newRNG() *rand.Rand {
	return rand.New(rand.NewSource(DeriveSeed(NewSimulationKey(d.seed), SubsystemDevice(d.id))))
}

// schedule pushes a new event owned by d onto d's stream. Panics if t is
// before the current clock.
func (d *MobileDevice) schedule(kind EventKind, t float64, job *Job, task *Task, option *TaskOption) {
	if t < d.state.Clock() {
		panic(fmt.Sprintf("MobileDevice(%d).schedule: %s at %f is before clock %f", d.id, kind, t, d.state.Clock()))
	}
	d.stream.Push(&Event{
		time:   t,
		seq:    d.state.NextSeq(),
		kind:   kind,
		device: d,
		job:    job,
		task:   task,
		option: option,
	})
}

// === Event effects ===

func (d *MobileDevice) onJobReleased(e *Event) {
	if _, err := d.GenerateJob(); err != nil {
		panic(fmt.Sprintf("MobileDevice(%d).onJobReleased: %v", d.id, err))
	}
	d.schedule(EventTaskReady, e.time, e.job, e.job.nextTask(), nil)
}

func (d *MobileDevice) onTaskReady(e *Event) {
	task := e.task
	task.ReadyTime = e.time
	candidates := d.candidateOptions(task)
	chosen, scores := route(candidates, d.routingRule, e.time, d.state)
	d.state.recordRouting(task, d.id, chosen, candidates, scores)

	if chosen.IsLocal() {
		d.addToQueue(chosen)
		d.dispatchLocal(e.time)
		return
	}
	d.schedule(EventTaskUploaded, e.time+chosen.UploadDelay(), task.Job, task, chosen)
}

func (d *MobileDevice) onTaskUploaded(e *Event) {
	srv := e.option.Server()
	srv.AddToQueue(e.option)
	d.dispatchServer(srv, e.time)
}

func (d *MobileDevice) onProcessFinished(e *Event) {
	o := e.option
	if o.IsLocal() {
		d.completeTask(o.Task(), e.time)
		d.dispatchLocal(e.time)
		return
	}
	d.schedule(EventTaskDownloaded, e.time+o.DownloadDelay(), e.job, e.task, o)
	d.dispatchServer(o.Server(), e.time)
}

func (d *MobileDevice) onTaskDownloaded(e *Event) {
	d.completeTask(e.task, e.time)
}

// candidateOptions lists where task may run: locally if capable, then on
// every server in registry order.
func (d *MobileDevice) candidateOptions(task *Task) []*TaskOption {
	servers := d.state.Servers()
	options := make([]*TaskOption, 0, len(servers)+1)
	if d.canProcessTask {
		options = append(options, NewLocalOption(task, d))
	}
	for _, srv := range servers {
		options = append(options, NewServerOption(task, d, srv))
	}
	return options
}

// completeTask makes the job's next task ready, or completes the job.
func (d *MobileDevice) completeTask(task *Task, now float64) {
	job := task.Job
	if next := job.nextTask(); next != nil {
		d.schedule(EventTaskReady, now, job, next, nil)
		return
	}
	job.CompletionTime = now
	d.state.CompleteJob(job)
}

// dispatchLocal starts the next local task if the device is idle.
func (d *MobileDevice) dispatchLocal(now float64) {
	if d.readyTime > now || len(d.queue) == 0 {
		return
	}
	o := selectNext(d.queue, d.sequencingRule, now, d.state)
	d.removeFromQueue(o)
	d.readyTime = now + o.ProcTime()
	d.schedule(EventProcessFinished, d.readyTime, o.Task().Job, o.Task(), o)
}

// dispatchServer starts the next task on srv if srv is idle. The finish
// event belongs to the device that offloaded the task.
func (d *MobileDevice) dispatchServer(srv *Server, now float64) {
	if srv.ReadyTime() > now || srv.NumTaskInQueue() == 0 {
		return
	}
	o := selectNext(srv.Queue(), d.sequencingRule, now, d.state)
	srv.RemoveFromQueue(o)
	srv.SetReadyTime(now + o.ProcTime())
	o.Device().schedule(EventProcessFinished, srv.ReadyTime(), o.Task().Job, o.Task(), o)
}

func (d *MobileDevice) addToQueue(o *TaskOption) {
	d.queue = append(d.queue, o)
	d.queueProcTime += o.ProcTime()
}

func (d *MobileDevice) removeFromQueue(o *TaskOption) {
	for i, q := range d.queue {
		if q != o {
			continue
		}
		d.queue = append(d.queue[:i], d.queue[i+1:]...)
		d.queueProcTime -= o.ProcTime()
		if len(d.queue) == 0 {
			d.queueProcTime = 0
		}
		return
	}
	panic(fmt.Sprintf("MobileDevice(%d).removeFromQueue: %v is not queued", d.id, o))
}
