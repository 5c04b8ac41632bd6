package trace

import (
	"testing"
)

func TestSimulationTrace_RecordEvent_AppendsRecord(t *testing.T) {
	// GIVEN a trace configured for events
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelEvents})

	// WHEN an event record is recorded
	st.RecordEvent(EventRecord{Seq: 3, Clock: 1.5, DeviceID: 2, Kind: "TaskReady"})

	// THEN the trace contains one event record with correct data
	if len(st.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(st.Events))
	}
	if st.Events[0].Kind != "TaskReady" || st.Events[0].DeviceID != 2 {
		t.Errorf("unexpected record %+v", st.Events[0])
	}
}

func TestSimulationTrace_RecordRouting_OnlyAtDecisionsLevel(t *testing.T) {
	tests := []struct {
		level TraceLevel
		want  int
	}{
		{TraceLevelEvents, 0},
		{TraceLevelDecisions, 1},
	}
	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			// GIVEN a trace at the given level
			st := NewSimulationTrace(TraceConfig{Level: tt.level})

			// WHEN a routing decision is recorded
			st.RecordRouting(RoutingRecord{JobID: 1, Chosen: "edge_0", Scores: map[string]float64{"edge_0": 1}})

			// THEN it is kept only when decisions are traced
			if len(st.Routings) != tt.want {
				t.Errorf("expected %d routings, got %d", tt.want, len(st.Routings))
			}
		})
	}
}

func TestSimulationTrace_MultipleRecords_PreservesOrder(t *testing.T) {
	// GIVEN a trace
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelEvents})

	// WHEN multiple records are added
	st.RecordEvent(EventRecord{Seq: 0, Clock: 0, Kind: "JobReleased"})
	st.RecordEvent(EventRecord{Seq: 1, Clock: 0, Kind: "TaskReady"})
	st.RecordCompletion(CompletionRecord{JobID: 0, ReleaseTime: 0, CompletionTime: 4, Recorded: true})

	// THEN order is preserved
	if len(st.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(st.Events))
	}
	if st.Events[0].Seq != 0 || st.Events[1].Seq != 1 {
		t.Error("event order not preserved")
	}
	if len(st.Completions) != 1 || st.Completions[0].CompletionTime != 4 {
		t.Error("completion record mismatch")
	}
}

func TestSimulationTrace_Clear_KeepsConfig(t *testing.T) {
	// GIVEN a populated trace
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelDecisions})
	st.RecordEvent(EventRecord{Kind: "JobReleased"})
	st.RecordRouting(RoutingRecord{Chosen: "device"})
	st.RecordCompletion(CompletionRecord{JobID: 1})

	// WHEN cleared
	st.Clear()

	// THEN all records are gone but the level survives
	if len(st.Events)+len(st.Routings)+len(st.Completions) != 0 {
		t.Error("expected no records after Clear")
	}
	if st.Config.Level != TraceLevelDecisions {
		t.Errorf("expected level %q, got %q", TraceLevelDecisions, st.Config.Level)
	}
}

func TestIsValidTraceLevel_ValidLevels(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"none", true},
		{"events", true},
		{"decisions", true},
		{"", true}, // empty defaults to none
		{"detailed", false},
		{"foobar", false},
		{"NONE", false}, // case-sensitive
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			if got := IsValidTraceLevel(tt.level); got != tt.valid {
				t.Errorf("IsValidTraceLevel(%q) = %v, want %v", tt.level, got, tt.valid)
			}
		})
	}
}
