package trace

// TraceLevel controls the verbosity of run tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelEvents captures every applied event and job completion.
	TraceLevelEvents TraceLevel = "events"
	// TraceLevelDecisions additionally captures every routing decision.
	TraceLevelDecisions TraceLevel = "decisions"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:      true,
	TraceLevelEvents:    true,
	TraceLevelDecisions: true,
	"":                  true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// SimulationTrace collects records during a single run.
type SimulationTrace struct {
	Config      TraceConfig
	Events      []EventRecord
	Routings    []RoutingRecord
	Completions []CompletionRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config:      config,
		Events:      make([]EventRecord, 0),
		Routings:    make([]RoutingRecord, 0),
		Completions: make([]CompletionRecord, 0),
	}
}

// RecordEvent appends an applied-event record.
func (st *SimulationTrace) RecordEvent(record EventRecord) {
	st.Events = append(st.Events, record)
}

// RecordRouting appends a routing decision record. Dropped unless the level
// is TraceLevelDecisions.
func (st *SimulationTrace) RecordRouting(record RoutingRecord) {
	if st.Config.Level != TraceLevelDecisions {
		return
	}
	st.Routings = append(st.Routings, record)
}

// RecordCompletion appends a job completion record.
func (st *SimulationTrace) RecordCompletion(record CompletionRecord) {
	st.Completions = append(st.Completions, record)
}

// Clear drops every record and keeps the configuration.
func (st *SimulationTrace) Clear() {
	st.Events = st.Events[:0]
	st.Routings = st.Routings[:0]
	st.Completions = st.Completions[:0]
}
