package sim

import "fmt"

// ServerType is the tier a Server belongs to.
type ServerType string

const (
	ServerTypeEdge  ServerType = "edge"
	ServerTypeCloud ServerType = "cloud"
)

// Server is a fixed-capacity execution resource (edge or cloud) with network
// transfer costs and a FIFO backlog of admitted task options.
//
// The two load aggregates are maintained incrementally by AddToQueue and
// RemoveFromQueue; routing rules read them on every placement decision, so
// they are never recomputed by scanning the backlog.
//
// Thread-safety: NOT thread-safe. Owned by a single SystemState.
type Server struct {
	id                int
	serverType        ServerType
	uploadBandwidth   float64
	downloadBandwidth float64
	processingRate    float64

	readyTime float64
	queue     []*TaskOption

	totalProcTime         float64 // Σ ProcTime over queue
	totalProcAndTransfers float64 // Σ ProcTime+UploadDelay+DownloadDelay over queue
}

// NewServer creates an idle Server with an empty backlog.
// Panics on non-positive capacities; callers validate sampled values first.
func NewServer(id int, serverType ServerType, uploadBandwidth, downloadBandwidth, processingRate float64) *Server {
	if uploadBandwidth <= 0 || downloadBandwidth <= 0 || processingRate <= 0 {
		panic(fmt.Sprintf("NewServer(%d): capacities must be positive, got up=%f down=%f rate=%f",
			id, uploadBandwidth, downloadBandwidth, processingRate))
	}
	return &Server{
		id:                id,
		serverType:        serverType,
		uploadBandwidth:   uploadBandwidth,
		downloadBandwidth: downloadBandwidth,
		processingRate:    processingRate,
		queue:             make([]*TaskOption, 0),
	}
}

func (s *Server) ID() int                    { return s.id }
func (s *Server) Type() ServerType           { return s.serverType }
func (s *Server) UploadBandwidth() float64   { return s.uploadBandwidth }
func (s *Server) DownloadBandwidth() float64 { return s.downloadBandwidth }
func (s *Server) ProcessingRate() float64    { return s.processingRate }
func (s *Server) ReadyTime() float64         { return s.readyTime }

// SetReadyTime records when the server finishes its current work.
func (s *Server) SetReadyTime(t float64) {
	s.readyTime = t
}

// AddToQueue appends o to the backlog. There is no capacity check; unbounded
// growth is caught by the engine's overflow guard.
func (s *Server) AddToQueue(o *TaskOption) {
	s.queue = append(s.queue, o)
	s.totalProcTime += o.ProcTime()
	s.totalProcAndTransfers += o.TotalTime()
}

// RemoveFromQueue removes the first backlog entry identical to o.
// Panics if o is not queued: removing an absent option would corrupt the
// aggregates.
func (s *Server) RemoveFromQueue(o *TaskOption) {
	for i, q := range s.queue {
		if q != o {
			continue
		}
		s.queue = append(s.queue[:i], s.queue[i+1:]...)
		s.totalProcTime -= o.ProcTime()
		s.totalProcAndTransfers -= o.TotalTime()
		if len(s.queue) == 0 {
			// Snap to zero so float drift never leaks into an empty backlog.
			s.totalProcTime = 0
			s.totalProcAndTransfers = 0
		}
		return
	}
	panic(fmt.Sprintf("Server(%d).RemoveFromQueue: %v is not queued", s.id, o))
}

// Queue returns the backlog in admission order.
// The returned slice is the server's internal storage; callers MUST NOT
// append to or reslice it.
func (s *Server) Queue() []*TaskOption {
	return s.queue
}

// NumTaskInQueue returns the backlog length.
func (s *Server) NumTaskInQueue() int {
	return len(s.queue)
}

// TotalProcTimeInQueue returns Σ ProcTime over the backlog in O(1).
func (s *Server) TotalProcTimeInQueue() float64 {
	return s.totalProcTime
}

// TotalProcTimeAndUploadAndDownloadTimeInQueue returns
// Σ (ProcTime + UploadDelay + DownloadDelay) over the backlog in O(1).
func (s *Server) TotalProcTimeAndUploadAndDownloadTimeInQueue() float64 {
	return s.totalProcAndTransfers
}

// Clone returns an independent Server with a fresh backlog container holding
// the same option values, the same static attributes and the same readyTime.
// Mutating the clone's backlog never affects s.
func (s *Server) Clone() *Server {
	q := make([]*TaskOption, len(s.queue))
	copy(q, s.queue)
	return &Server{
		id:                    s.id,
		serverType:            s.serverType,
		uploadBandwidth:       s.uploadBandwidth,
		downloadBandwidth:     s.downloadBandwidth,
		processingRate:        s.processingRate,
		readyTime:             s.readyTime,
		queue:                 q,
		totalProcTime:         s.totalProcTime,
		totalProcAndTransfers: s.totalProcAndTransfers,
	}
}

// Reset clears the backlog, zeroes both aggregates and sets readyTime.
// Static attributes are untouched.
func (s *Server) Reset(readyTime float64) {
	s.queue = s.queue[:0]
	s.totalProcTime = 0
	s.totalProcAndTransfers = 0
	s.readyTime = readyTime
}

func (s *Server) String() string {
	return fmt.Sprintf("Server{ID: %d, Type: %s, Queue: %d, ProcInQueue: %.3f}", s.id, s.serverType, len(s.queue), s.totalProcTime)
}
