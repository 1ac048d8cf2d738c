package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mac-sim/mac-sim/sim/trace"
)

// Network is one simulation run: the shared contention table, every
// transmitter with its generator, the delay sink and the event loop.
// It owns the table for its whole lifetime; nothing in the MAC core is global.
type Network struct {
	Config       Config
	Sim          *Simulator
	Table        *ContentionTable
	Transmitters []*Transmitter
	Generators   []*Generator
	Sink         *DelaySink
	Summary      *SummaryStats
	Trace        *trace.SimulationTrace

	leader  *Transmitter
	started bool
	stopped bool
}

// Option customizes NewNetwork.
type Option func(*Network, *[]StatsSink)

// WithSimulator runs the network on s instead of a fresh simulator, so that
// collaborators built beforehand (e.g. a recorder) can read its clock.
func WithSimulator(s *Simulator) Option {
	return func(n *Network, _ *[]StatsSink) { n.Sim = s }
}

// WithStats adds sinks that receive every emitted sample, after the
// in-memory summary.
func WithStats(sinks ...StatsSink) Option {
	return func(_ *Network, all *[]StatsSink) { *all = append(*all, sinks...) }
}

// WithTrace records MAC decisions into tr.
func WithTrace(tr *trace.SimulationTrace) Option {
	return func(n *Network, _ *[]StatsSink) { n.Trace = tr }
}

// NewNetwork validates cfg and builds a ready-to-run network.
// Any configuration error is returned and nothing is scheduled.
func NewNetwork(cfg Config, opts ...Option) (*Network, error) {
	cfg, err := cfg.Expand()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.WarnAnomalies()

	n := &Network{Config: cfg, Summary: NewSummaryStats()}
	sinks := []StatsSink{n.Summary}
	for _, opt := range opts {
		opt(n, &sinks)
	}
	if n.Sim == nil {
		n.Sim = NewSimulator(cfg.Horizon)
	}
	n.Sim.Horizon = cfg.Horizon

	var stats StatsSink = MultiStats(sinks)
	if len(sinks) == 1 {
		stats = sinks[0]
	}

	population := len(cfg.Transmitters)
	rng := NewPartitionedRNG(cfg.Seed)
	n.Table = NewContentionTable(population, cfg.MaxChannels())
	n.Sink = NewDelaySink(stats)
	timing := MACTiming{
		SlotDuration:  cfg.SlotDuration,
		CheckDelay:    cfg.CheckDelay,
		ClearDuration: cfg.ClearDuration,
		Warmup:        cfg.Warmup,
	}

	for id, tc := range cfg.Transmitters {
		params := TransmitterParams{
			ID:            id,
			Channels:      tc.Channels,
			Population:    population,
			Leader:        tc.Leader,
			MaxCollisions: cfg.MaxCollisions,
			Timing:        timing,
		}
		if tc.GateProbability != nil {
			params.GateProbability = *tc.GateProbability
		}
		tx := NewTransmitter(params, n.Table, rng, n.Sink, stats, n.Trace)
		if tx.IsLeader() {
			n.leader = tx
		}
		n.Transmitters = append(n.Transmitters, tx)
		n.Generators = append(n.Generators, NewGenerator(tx, tc.Arrival, rng))
	}
	return n, nil
}

// Leader returns the transmitter that drives the statistics cycle.
func (n *Network) Leader() *Transmitter { return n.leader }

// Start schedules the first arrival of every generator and the first slot
// tick of every transmitter.
func (n *Network) Start() {
	if n.started {
		panic("Network.Start() called more than once")
	}
	n.started = true
	for _, g := range n.Generators {
		g.Start(n.Sim)
	}
	for _, tx := range n.Transmitters {
		tx.Start(n.Sim)
	}
	logrus.Infof("Starting MAC simulation: %d transmitters, %d channels, horizon=%d ticks, seed=%d",
		len(n.Transmitters), n.Table.Channels(), n.Config.Horizon, n.Config.Seed)
}

// Run starts the network if needed, executes it to the horizon, tears it down
// and returns the run metrics.
func (n *Network) Run() *Metrics {
	if !n.started {
		n.Start()
	}
	n.Sim.Run()
	m := n.Metrics()
	m.Discarded = n.Stop()
	return m
}

// Stop cancels every recurring event and discards queued packets. Returns the
// number of packets discarded. Safe to call more than once.
func (n *Network) Stop() int {
	if n.stopped {
		return 0
	}
	n.stopped = true
	discarded := 0
	for _, g := range n.Generators {
		g.Stop(n.Sim)
	}
	for _, tx := range n.Transmitters {
		left := len(tx.Stop(n.Sim))
		discarded += left
		if left > 0 {
			logrus.Debugf("transmitter %d: discarded %d queued packets at teardown", tx.ID(), left)
		}
	}
	if n.Sim.HasPendingEvents() {
		panic(fmt.Sprintf("Network.Stop: events still pending at %d after teardown", n.Sim.PeekNextEventTime()))
	}
	return discarded
}
