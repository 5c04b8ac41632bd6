// Package trace provides event and decision recording for offloading runs.
// This package has no dependencies on sim/ or sim/dynamic/; it stores pure data types.
package trace

// EventRecord captures one applied event.
type EventRecord struct {
	Seq      uint64
	Clock    float64
	DeviceID int
	Kind     string
}

// RoutingRecord captures one routing decision for a ready task.
type RoutingRecord struct {
	JobID     int
	TaskIndex int
	DeviceID  int
	Clock     float64
	Chosen    string             // "device" or the chosen server's label, e.g. "edge_0"
	Scores    map[string]float64 // candidate label → routing priority (smaller wins)
}

// CompletionRecord captures one job completion.
type CompletionRecord struct {
	JobID          int
	DeviceID       int
	ReleaseTime    float64
	CompletionTime float64
	Recorded       bool // false for warm-up jobs
}
