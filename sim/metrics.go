// Tracks run-wide and per-transmitter results for the end-of-run report.

package sim

import (
	"fmt"
	"io"
	"sort"
)

// TransmitterMetrics is the end-of-run view of one transmitter.
type TransmitterMetrics struct {
	ID              int
	Leader          bool
	Channels        int
	GateProbability float64
	Generated       int64
	Sent            int64
	Dropped         int64
	Attempts        int64
	Collisions      int64
	QueueLen        int
	Throughput      float64 // sent / slots
}

// Metrics aggregates statistics about the run for final reporting.
type Metrics struct {
	SimEndedTime int64
	Events       int64
	Slots        int64 // leader's slot counter
	Delivered    int64
	Dropped      int64
	Discarded    int // packets still queued at teardown
	MeanDelay    float64
	MaxDelay     int64

	// ChannelThroughput is the mean of the emitted per-channel samples;
	// absent channels had no sample after warm-up.
	ChannelThroughput map[int]float64
	Transmitters      []TransmitterMetrics
}

// Metrics snapshots the network's current results.
func (n *Network) Metrics() *Metrics {
	m := &Metrics{
		SimEndedTime:      min(n.Sim.Clock, n.Config.Horizon),
		Events:            n.Sim.Executed,
		Delivered:         n.Sink.Delivered,
		MeanDelay:         n.Sink.MeanDelay(),
		MaxDelay:          n.Sink.MaxDelay,
		ChannelThroughput: make(map[int]float64),
	}
	if n.leader != nil {
		m.Slots = n.leader.SlotCounter()
	}
	for c := 0; c < n.Table.Channels(); c++ {
		if ser, ok := n.Summary.Series(ChannelThroughputSample(c)); ok {
			m.ChannelThroughput[c] = ser.Mean()
		}
	}
	for i, tx := range n.Transmitters {
		m.Dropped += tx.DroppedTotal()
		m.Transmitters = append(m.Transmitters, TransmitterMetrics{
			ID:              tx.ID(),
			Leader:          tx.IsLeader(),
			Channels:        tx.Channels(),
			GateProbability: tx.GateProbability(),
			Generated:       n.Generators[i].Generated(),
			Sent:            tx.SentTotal(),
			Dropped:         tx.DroppedTotal(),
			Attempts:        tx.AttemptsTotal(),
			Collisions:      tx.CollisionsTotal(),
			QueueLen:        tx.QueueLen(),
			Throughput:      tx.CumulativeThroughput(),
		})
	}
	return m
}

// Print displays the aggregated metrics.
func (m *Metrics) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Simulation Metrics ===")
	fmt.Fprintf(w, "Simulated Time       : %d ticks\n", m.SimEndedTime)
	fmt.Fprintf(w, "Events Executed      : %d\n", m.Events)
	fmt.Fprintf(w, "Slots                : %d\n", m.Slots)
	fmt.Fprintf(w, "Delivered Packets    : %d\n", m.Delivered)
	fmt.Fprintf(w, "Dropped Packets      : %d\n", m.Dropped)
	fmt.Fprintf(w, "Queued At Teardown   : %d\n", m.Discarded)
	if m.Delivered > 0 {
		fmt.Fprintf(w, "Average Delay        : %.2f ticks\n", m.MeanDelay)
		fmt.Fprintf(w, "Max Delay            : %d ticks\n", m.MaxDelay)
	}
	channels := make([]int, 0, len(m.ChannelThroughput))
	for c := range m.ChannelThroughput {
		channels = append(channels, c)
	}
	sort.Ints(channels)
	for _, c := range channels {
		fmt.Fprintf(w, "Channel %-3d Throughput: %.4f\n", c, m.ChannelThroughput[c])
	}

	fmt.Fprintln(w, "=== Transmitters ===")
	fmt.Fprintf(w, "%4s %6s %8s %6s %9s %8s %8s %9s %10s %6s %10s\n",
		"id", "leader", "channels", "gate", "generated", "sent", "dropped", "attempts", "collisions", "queue", "throughput")
	for _, t := range m.Transmitters {
		fmt.Fprintf(w, "%4d %6t %8d %6.3f %9d %8d %8d %9d %10d %6d %10.4f\n",
			t.ID, t.Leader, t.Channels, t.GateProbability, t.Generated, t.Sent, t.Dropped,
			t.Attempts, t.Collisions, t.QueueLen, t.Throughput)
	}
}
