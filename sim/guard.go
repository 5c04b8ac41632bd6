package sim

import "github.com/sirupsen/logrus"

// TerminationReason reports why a run stopped.
type TerminationReason string

const (
	// TerminationNone means the run has not stopped.
	TerminationNone TerminationReason = "none"
	// TerminationTargetReached means the recorded-job target was met.
	TerminationTargetReached TerminationReason = "target-reached"
	// TerminationDrained means every event stream emptied before the target.
	TerminationDrained TerminationReason = "drained"
	// TerminationStall means too many consecutive events completed no job.
	TerminationStall TerminationReason = "stall"
	// TerminationOverflow means a backlog grew past OverflowLimit.
	TerminationOverflow TerminationReason = "overflow"
	// TerminationCanceled means the caller's context was done.
	TerminationCanceled TerminationReason = "canceled"
)

const (
	// StallLimit is the number of consecutive non-progressing events, past
	// warm-up, that a run tolerates. The run stops on the event that
	// pushes the count above it.
	StallLimit = 100000
	// OverflowLimit is the largest backlog a capable device or a server may hold.
	OverflowLimit = 150
)

// Guard detects divergent policy pairs. It is checked after every applied
// event by both the multi-device engine and the single-device path.
type Guard struct {
	warmupJobs    int
	stallLimit    int
	overflowLimit int
	stalled       int
}

// NewGuard creates a Guard with the default limits.
func NewGuard(warmupJobs int) *Guard {
	return NewGuardWithLimits(warmupJobs, StallLimit, OverflowLimit)
}

// NewGuardWithLimits creates a Guard with explicit limits.
func NewGuardWithLimits(warmupJobs, stallLimit, overflowLimit int) *Guard {
	return &Guard{
		warmupJobs:    warmupJobs,
		stallLimit:    stallLimit,
		overflowLimit: overflowLimit,
	}
}

// Stalled returns the current count of consecutive non-progressing events.
func (g *Guard) Stalled() int { return g.stalled }

// Reset zeroes the stall counter.
func (g *Guard) Reset() { g.stalled = 0 }

// Observe is called after an event has been applied. before and after are
// the throughput around the event; actor is the device that owned it.
// Returns TerminationNone unless a limit was crossed.
func (g *Guard) Observe(before, after int, actor *MobileDevice, servers []*Server) TerminationReason {
	if after != before {
		g.stalled = 0
	} else if after >= g.warmupJobs {
		g.stalled++
		if g.stalled > g.stallLimit {
			logrus.Warnf("stall guard: %d consecutive events without a completed job", g.stalled)
			return TerminationStall
		}
	}

	if actor != nil && actor.IsCanProcessTask() && len(actor.Queue()) > g.overflowLimit {
		logrus.Warnf("overflow guard: device %d holds %d tasks", actor.ID(), len(actor.Queue()))
		return TerminationOverflow
	}
	for _, s := range servers {
		if s.NumTaskInQueue() > g.overflowLimit {
			logrus.Warnf("overflow guard: %s_%d holds %d tasks", s.Type(), s.ID(), s.NumTaskInQueue())
			return TerminationOverflow
		}
	}
	return TerminationNone
}
