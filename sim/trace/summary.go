package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalEvents         int
	EventsByKind        map[string]int
	LastClock           float64
	CompletedJobs       int
	RecordedJobs        int
	RoutingDecisions    int
	PlacementByLocation map[string]int // chosen label → count of tasks routed there
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		EventsByKind:        make(map[string]int),
		PlacementByLocation: make(map[string]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalEvents = len(st.Events)
	for _, e := range st.Events {
		summary.EventsByKind[e.Kind]++
		if e.Clock > summary.LastClock {
			summary.LastClock = e.Clock
		}
	}

	summary.CompletedJobs = len(st.Completions)
	for _, c := range st.Completions {
		if c.Recorded {
			summary.RecordedJobs++
		}
	}

	summary.RoutingDecisions = len(st.Routings)
	for _, r := range st.Routings {
		summary.PlacementByLocation[r.Chosen]++
	}

	return summary
}
