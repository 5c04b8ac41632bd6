package sim

import "fmt"

// Job is a unit of offloading demand released by one mobile device.
// Its tasks form a chain: task k+1 becomes ready only once task k has
// completed and its result is back on the device.
type Job struct {
	ID             int
	DeviceID       int
	ReleaseTime    float64
	CompletionTime float64
	Weight         float64
	Tasks          []*Task

	next int // index of the next task to become ready
}

// FlowTime returns CompletionTime - ReleaseTime.
func (j *Job) FlowTime() float64 {
	return j.CompletionTime - j.ReleaseTime
}

// RemainingWork returns the total workload of tasks not yet completed,
// including the task currently in progress.
func (j *Job) RemainingWork() float64 {
	w := 0.0
	start := j.next - 1
	if start < 0 {
		start = 0
	}
	for _, t := range j.Tasks[start:] {
		w += t.Workload
	}
	return w
}

// NumRemainingTasks returns the number of tasks not yet completed,
// including the task currently in progress.
func (j *Job) NumRemainingTasks() int {
	if j.next == 0 {
		return len(j.Tasks)
	}
	return len(j.Tasks) - j.next + 1
}

func (j *Job) String() string {
	return fmt.Sprintf("Job{ID: %d, Device: %d, Release: %.3f, Tasks: %d}", j.ID, j.DeviceID, j.ReleaseTime, len(j.Tasks))
}

// nextTask advances the chain and returns the next task, or nil when the
// job has no tasks left.
func (j *Job) nextTask() *Task {
	if j.next >= len(j.Tasks) {
		return nil
	}
	t := j.Tasks[j.next]
	j.next++
	return t
}

// Task is one stage of a job.
type Task struct {
	ID         int
	Job        *Job
	Index      int
	Workload   float64 // processing demand, divided by a processing rate to get time
	Data       float64 // bytes uploaded when the task is offloaded
	OutputData float64 // bytes downloaded back to the device after remote execution
	ReadyTime  float64 // time the task became eligible for routing
}

// Location tells where a TaskOption would execute.
type Location string

const (
	LocationDevice Location = "device"
	LocationEdge   Location = "edge"
	LocationCloud  Location = "cloud"
)

// TaskOption is the cost profile of executing one task on one resource.
// Options are immutable once created; servers and devices queue pointers to
// them, and clones of a backlog share the same option values.
type TaskOption struct {
	task          *Task
	device        *MobileDevice
	server        *Server
	procTime      float64
	uploadDelay   float64
	downloadDelay float64
}

// NewLocalOption returns the option of executing task on its own device.
// Local execution has no transfer costs.
func NewLocalOption(task *Task, device *MobileDevice) *TaskOption {
	return &TaskOption{
		task:     task,
		device:   device,
		procTime: task.Workload / device.ProcessingRate(),
	}
}

// NewServerOption returns the option of offloading task from device to server.
func NewServerOption(task *Task, device *MobileDevice, server *Server) *TaskOption {
	return &TaskOption{
		task:          task,
		device:        device,
		server:        server,
		procTime:      task.Workload / server.ProcessingRate(),
		uploadDelay:   task.Data / server.UploadBandwidth(),
		downloadDelay: task.OutputData / server.DownloadBandwidth(),
	}
}

// NewTaskOption builds a detached option with explicit costs. Used for
// what-if load accounting and tests where no task chain is involved.
func NewTaskOption(procTime, uploadDelay, downloadDelay float64) *TaskOption {
	return &TaskOption{procTime: procTime, uploadDelay: uploadDelay, downloadDelay: downloadDelay}
}

func (o *TaskOption) Task() *Task            { return o.task }
func (o *TaskOption) Device() *MobileDevice  { return o.device }
func (o *TaskOption) Server() *Server        { return o.server }
func (o *TaskOption) ProcTime() float64      { return o.procTime }
func (o *TaskOption) UploadDelay() float64   { return o.uploadDelay }
func (o *TaskOption) DownloadDelay() float64 { return o.downloadDelay }
func (o *TaskOption) IsLocal() bool          { return o.server == nil }
func (o *TaskOption) TotalTime() float64     { return o.procTime + o.uploadDelay + o.downloadDelay }

// Location reports the tier the option executes on.
func (o *TaskOption) Location() Location {
	if o.server == nil {
		return LocationDevice
	}
	if o.server.Type() == ServerTypeCloud {
		return LocationCloud
	}
	return LocationEdge
}

func (o *TaskOption) String() string {
	return fmt.Sprintf("TaskOption{%s, proc: %.3f, up: %.3f, down: %.3f}", o.Location(), o.procTime, o.uploadDelay, o.downloadDelay)
}
