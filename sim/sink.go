package sim

import "fmt"

// DelaySink consumes delivered packets, records their delay and drops them.
type DelaySink struct {
	stats StatsSink

	Delivered  int64
	TotalDelay int64
	MaxDelay   int64
	// PerChannel counts deliveries by channel.
	PerChannel map[int]int64
}

var _ PacketSink = (*DelaySink)(nil)

// NewDelaySink creates a sink that emits packet_delay samples to stats.
func NewDelaySink(stats StatsSink) *DelaySink {
	return &DelaySink{stats: stats, PerChannel: make(map[int]int64)}
}

// Deliver records the delay of a transmitted packet. An untransmitted packet
// or a negative delay is a protocol-logic bug and panics.
func (d *DelaySink) Deliver(p *Packet) {
	if !p.Transmitted() {
		panic(fmt.Sprintf("DelaySink: %s delivered without a transmission time", p.ID))
	}
	delay := p.Delay()
	if delay < 0 {
		panic(fmt.Sprintf("DelaySink: %s has negative delay %d", p.ID, delay))
	}
	d.Delivered++
	d.TotalDelay += delay
	d.MaxDelay = max(d.MaxDelay, delay)
	d.PerChannel[p.Channel]++
	d.stats.Emit(SamplePacketDelay, float64(delay))
}

// MeanDelay returns the average delay in ticks, or 0 before any delivery.
func (d *DelaySink) MeanDelay() float64 {
	if d.Delivered == 0 {
		return 0
	}
	return float64(d.TotalDelay) / float64(d.Delivered)
}
