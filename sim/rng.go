package sim

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// Random stream names. Every run derives one stream per name from its seed.
const (
	SubsystemGate    = "gate"    // Bernoulli attempt gate, shared by all transmitters
	SubsystemBackoff = "backoff" // binary exponential backoff draws
	SubsystemChannel = "channel" // channel choice for each new head packet
)

// SubsystemGenerator names the stream of the generator feeding transmitter id.
func SubsystemGenerator(id int) string {
	return fmt.Sprintf("generator_%d", id)
}

// PartitionedRNG splits one master seed into independent named streams, so
// that changing one transmitter's traffic leaves every MAC draw unchanged.
// Stream seed = master seed XOR FNV-1a(name).
//
// Thread-safety: NOT thread-safe. Must be called from single goroutine.
type PartitionedRNG struct {
	seed    int64
	streams map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a master seed.
func NewPartitionedRNG(seed int64) *PartitionedRNG {
	return &PartitionedRNG{seed: seed, streams: map[string]*rand.Rand{}}
}

// ForSubsystem returns the stream for name, creating it on first use.
// Repeated calls with the same name share one *rand.Rand.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	r, ok := p.streams[name]
	if !ok {
		r = rand.New(rand.NewSource(p.seed ^ streamHash(name)))
		p.streams[name] = r
	}
	return r
}

// Seed returns the master seed.
func (p *PartitionedRNG) Seed() int64 {
	return p.seed
}

func streamHash(name string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return int64(h.Sum64())
}
