package sim

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/mac-sim/mac-sim/sim/traffic"
)

// Generator produces packets for one transmitter with interarrival gaps drawn
// from an ArrivalSampler (exponential by default).
type Generator struct {
	target    *Transmitter
	sampler   traffic.ArrivalSampler
	rng       *rand.Rand
	next      Event
	generated int64
}

// NewGenerator creates a source feeding target. spec must be valid.
func NewGenerator(target *Transmitter, spec traffic.ArrivalSpec, rng *PartitionedRNG) *Generator {
	return &Generator{
		target:  target,
		sampler: traffic.NewArrivalSampler(spec),
		rng:     rng.ForSubsystem(SubsystemGenerator(target.ID())),
	}
}

// Generated returns the number of packets produced so far.
func (g *Generator) Generated() int64 { return g.generated }

// Start schedules the first packet at the current virtual time.
func (g *Generator) Start(s Scheduler) {
	g.schedule(s, s.Now())
}

// Stop cancels the pending arrival. Safe to call more than once.
func (g *Generator) Stop(s Scheduler) {
	s.Cancel(g.next)
	g.next = nil
}

func (g *Generator) schedule(s Scheduler, at int64) {
	ev := NewPacketArrivalEvent(at, g)
	g.next = ev
	s.Schedule(ev)
}

func (g *Generator) handleArrival(s Scheduler, now int64) {
	g.next = nil
	g.generated++
	p := NewPacket(fmt.Sprintf("tx%d-%d", g.target.ID(), g.generated), g.target.ID(), now)
	g.target.Enqueue(p)

	iat := g.sampler.SampleIAT(g.rng)
	logrus.Tracef("[tick %07d] generator %d: %s, next in %d", now, g.target.ID(), p.ID, iat)
	if now > math.MaxInt64-iat {
		return
	}
	g.schedule(s, now+iat)
}
