package trace

import "gonum.org/v1/gonum/stat"

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	Attempts      int
	GateFailures  int
	Collisions    int
	Deliveries    int
	Abandoned     int
	CollisionRate float64 // Collisions / Attempts
	MeanBackoff   float64
	MaxBackoff    int
	MeanDelay     float64
	DelayStdDev   float64 // sample standard deviation; 0 with fewer than two deliveries
	// ChannelDistribution maps channel index to the number of deliveries on it.
	ChannelDistribution map[int]int
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		ChannelDistribution: make(map[int]int),
	}
	if st == nil {
		return summary
	}

	summary.Attempts = len(st.Attempts)
	summary.GateFailures = len(st.GateFails)
	summary.Collisions = len(st.Collisions)
	summary.Deliveries = len(st.Deliveries)
	summary.Abandoned = len(st.Abandonment)

	if summary.Attempts > 0 {
		summary.CollisionRate = float64(summary.Collisions) / float64(summary.Attempts)
	}

	if len(st.Collisions) > 0 {
		backoffs := make([]float64, len(st.Collisions))
		for i, c := range st.Collisions {
			backoffs[i] = float64(c.Backoff)
			summary.MaxBackoff = max(summary.MaxBackoff, c.Backoff)
		}
		summary.MeanBackoff = stat.Mean(backoffs, nil)
	}

	if len(st.Deliveries) > 0 {
		delays := make([]float64, len(st.Deliveries))
		for i, d := range st.Deliveries {
			delays[i] = float64(d.Delay)
			summary.ChannelDistribution[d.Channel]++
		}
		if len(delays) > 1 {
			summary.MeanDelay, summary.DelayStdDev = stat.MeanStdDev(delays, nil)
		} else {
			summary.MeanDelay = delays[0]
		}
	}

	return summary
}
