// Defines the Packet struct that models a single frame flowing from a generator,
// through a transmitter's queue, onto a channel and into the delay sink.

package sim

import "fmt"

// Unset marks a virtual time that has not been assigned yet.
const Unset int64 = -1

// Packet models a single frame's lifecycle in the simulation.
// GenerationTime is stamped by the generator; TransmissionTime is set exactly
// once, when the transmitter confirms a collision-free send.
type Packet struct {
	ID               string
	Source           int   // Index of the transmitter the packet was handed to
	GenerationTime   int64 // Tick at which the generator produced the packet
	TransmissionTime int64 // Tick of the successful slot, Unset until transmitted
	Channel          int   // Channel the packet was delivered on, -1 until transmitted
}

// NewPacket creates an untransmitted packet generated at the given tick.
func NewPacket(id string, source int, generatedAt int64) *Packet {
	return &Packet{
		ID:               id,
		Source:           source,
		GenerationTime:   generatedAt,
		TransmissionTime: Unset,
		Channel:          -1,
	}
}

// Transmitted reports whether the packet has been finalized by a transmitter.
func (p *Packet) Transmitted() bool {
	return p.TransmissionTime != Unset
}

// MarkTransmitted finalizes the transmission time and channel.
// Panics if called twice or with a time before the generation time.
func (p *Packet) MarkTransmitted(at int64, channel int) {
	if p.Transmitted() {
		panic(fmt.Sprintf("packet %s: transmission time already set to %d", p.ID, p.TransmissionTime))
	}
	if at < p.GenerationTime {
		panic(fmt.Sprintf("packet %s: transmission time %d precedes generation time %d", p.ID, at, p.GenerationTime))
	}
	p.TransmissionTime = at
	p.Channel = channel
}

// Delay returns transmission time minus generation time.
// Only meaningful once the packet has been transmitted.
func (p *Packet) Delay() int64 {
	return p.TransmissionTime - p.GenerationTime
}

func (p *Packet) String() string {
	return fmt.Sprintf("Packet(%s, src=%d, gen=%d, tx=%d)", p.ID, p.Source, p.GenerationTime, p.TransmissionTime)
}
