package sim

import "fmt"

// EventKind enumerates the closed set of simulation events.
// Every kind is handled by the single switch in Event.Trigger.
type EventKind int

const (
	// EventJobReleased releases a job on its device and generates the next one.
	EventJobReleased EventKind = iota
	// EventTaskReady asks the routing rule where a ready task executes.
	EventTaskReady
	// EventTaskUploaded admits an offloaded task to its server's backlog.
	EventTaskUploaded
	// EventProcessFinished ends execution of a task on a device or server.
	EventProcessFinished
	// EventTaskDownloaded returns an offloaded task's result to its device.
	EventTaskDownloaded
)

var eventKindNames = map[EventKind]string{
	EventJobReleased:     "JobReleased",
	EventTaskReady:       "TaskReady",
	EventTaskUploaded:    "TaskUploaded",
	EventProcessFinished: "ProcessFinished",
	EventTaskDownloaded:  "TaskDownloaded",
}

func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event is a pending state change at a point in simulated time, owned by one
// device. Events are ordered by (Time, Seq); Seq is assigned from the
// SystemState counter when the event is scheduled.
type Event struct {
	time   float64
	seq    uint64
	kind   EventKind
	device *MobileDevice
	job    *Job
	task   *Task
	option *TaskOption
}

func (e *Event) Time() float64         { return e.time }
func (e *Event) Seq() uint64           { return e.seq }
func (e *Event) Kind() EventKind       { return e.kind }
func (e *Event) Device() *MobileDevice { return e.device }
func (e *Event) Job() *Job             { return e.job }
func (e *Event) Task() *Task           { return e.task }
func (e *Event) Option() *TaskOption   { return e.option }

func (e *Event) String() string {
	return fmt.Sprintf("%s{t=%.3f, seq=%d, device=%d}", e.kind, e.time, e.seq, e.device.ID())
}

// Trigger applies the event's effect. d is the device that owns the event.
// Effects mutate device, server and registry state and may schedule further
// events on any device, never earlier than the event's own time.
func (e *Event) Trigger(d *MobileDevice) {
	switch e.kind {
	case EventJobReleased:
		d.onJobReleased(e)
	case EventTaskReady:
		d.onTaskReady(e)
	case EventTaskUploaded:
		d.onTaskUploaded(e)
	case EventProcessFinished:
		d.onProcessFinished(e)
	case EventTaskDownloaded:
		d.onTaskDownloaded(e)
	default:
		panic(fmt.Sprintf("Event.Trigger: unhandled event kind %v", e.kind))
	}
}
