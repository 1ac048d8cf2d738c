package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mac-sim/mac-sim/sim/traffic"
)

func TestGenerator_ArrivalsStartAtZeroAndFeedTarget(t *testing.T) {
	// GIVEN a generator feeding a non-leader transmitter that never starts
	table := NewContentionTable(1, 1)
	rng := NewPartitionedRNG(5)
	tx := NewTransmitter(TransmitterParams{ID: 0, Channels: 1, Population: 1, Timing: testTiming},
		table, rng, NewDelaySink(DiscardStats{}), DiscardStats{}, nil)
	gen := NewGenerator(tx, traffic.ArrivalSpec{Process: traffic.ProcessPoisson, MeanInterarrival: 100}, rng)
	s := NewSimulator(10_000)

	// WHEN started and run
	gen.Start(s)
	require.Equal(t, int64(0), s.PeekNextEventTime())
	s.Run()

	// THEN every generated packet sits in the queue, stamped in order
	require.Positive(t, gen.Generated())
	assert.Equal(t, int(gen.Generated()), tx.QueueLen())
	assert.InDelta(t, 100, float64(gen.Generated()), 40, "about horizon/mean arrivals")

	var last int64 = -1
	for _, p := range tx.queue.Drain() {
		assert.Equal(t, 0, p.Source)
		assert.GreaterOrEqual(t, p.GenerationTime, last)
		assert.False(t, p.Transmitted())
		last = p.GenerationTime
	}
}

func TestGenerator_Stop_CancelsNextArrival(t *testing.T) {
	table := NewContentionTable(1, 1)
	rng := NewPartitionedRNG(5)
	tx := NewTransmitter(TransmitterParams{ID: 0, Channels: 1, Population: 1, Timing: testTiming},
		table, rng, NewDelaySink(DiscardStats{}), DiscardStats{}, nil)
	gen := NewGenerator(tx, traffic.ArrivalSpec{MeanInterarrival: 100}, rng)
	s := NewSimulator(10_000)

	gen.Start(s)
	s.RunUntil(0)
	gen.Stop(s)

	assert.Equal(t, int64(1), gen.Generated())
	assert.False(t, s.HasPendingEvents())
	assert.NotPanics(t, func() { gen.Stop(s) })
}
