package sim

import (
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/mac-sim/mac-sim/sim/trace"
)

// noChannel marks a head packet that has not committed to a channel yet.
const noChannel = -1

// MACTiming groups the slot-level timing shared by every transmitter of a run.
type MACTiming struct {
	SlotDuration  int64 // period of the slot tick
	CheckDelay    int64 // offset of the mid-slot collision check, < SlotDuration
	ClearDuration int64 // delay from a leader slot tick to the next clear tick; see ClearPeriod
	Warmup        int64 // channel throughput at or before this tick is discarded
}

// ClearPeriod returns the spacing between consecutive clear ticks. The next
// clear is armed on the first slot tick after the previous one fired, so a
// ClearDuration that is not a multiple of SlotDuration is rounded up to one:
// 2500 with 1000-tick slots clears every 3000 ticks.
func (t MACTiming) ClearPeriod() int64 {
	slots := (t.ClearDuration + t.SlotDuration - 1) / t.SlotDuration
	return slots * t.SlotDuration
}

// TransmitterParams identifies one transmitter and its place in the run.
type TransmitterParams struct {
	ID            int
	Channels      int
	Population    int
	Leader        bool
	MaxCollisions int // abandon the head packet after this many collisions; 0 = never

	// GateProbability replaces min(Channels/Population, 1) when positive.
	GateProbability float64
	Timing          MACTiming
}

// PacketSink receives every successfully transmitted packet exactly once.
type PacketSink interface {
	Deliver(p *Packet)
}

// Transmitter is the per-sender slotted random-access MAC engine.
//
// Each slot tick it commits the head packet to a channel (once per packet),
// honours any backoff, passes a Bernoulli gate and records an attempt in the
// shared ContentionTable. The mid-slot check then either delivers the packet
// or draws a binary exponential backoff. The leader additionally runs the
// statistics cycle in leader.go.
//
// Thread-safety: NOT thread-safe. All methods must be called from the event loop.
type Transmitter struct {
	id              int
	channels        int
	leader          bool
	gateProbability float64
	maxCollisions   int
	timing          MACTiming

	queue            PacketQueue
	extractedChannel int
	backoffRemaining int
	collisionCount   int
	attemptTime      int64 // provisional transmission time of the pending attempt

	slotCounter     int64
	sentTotal       int64
	droppedTotal    int64
	attemptsTotal   int64
	collisionsTotal int64

	table      *ContentionTable
	sink       PacketSink
	stats      StatsSink
	trace      *trace.SimulationTrace
	gateRNG    *rand.Rand
	backoffRNG *rand.Rand
	channelRNG *rand.Rand

	slotEvent  Event
	checkEvent Event
	clearEvent Event
}

// NewTransmitter wires a transmitter to the shared table and its collaborators.
// tr may be nil to disable tracing.
func NewTransmitter(p TransmitterParams, table *ContentionTable, rng *PartitionedRNG,
	sink PacketSink, stats StatsSink, tr *trace.SimulationTrace) *Transmitter {
	if p.ID < 0 || p.ID >= table.Transmitters() {
		panic(fmt.Sprintf("NewTransmitter: id %d outside table rows [0, %d)", p.ID, table.Transmitters()))
	}
	if p.Channels <= 0 || p.Channels > table.Channels() {
		panic(fmt.Sprintf("NewTransmitter: %d channels outside table columns (1..%d)", p.Channels, table.Channels()))
	}
	if sink == nil || stats == nil {
		panic("NewTransmitter: sink and stats must not be nil")
	}
	gate := p.GateProbability
	if gate <= 0 {
		gate = GateProbability(p.Channels, p.Population)
	} else if gate > 1 {
		panic(fmt.Sprintf("NewTransmitter: gate probability %v above 1", gate))
	}
	return &Transmitter{
		id:               p.ID,
		channels:         p.Channels,
		leader:           p.Leader,
		gateProbability:  gate,
		maxCollisions:    p.MaxCollisions,
		timing:           p.Timing,
		extractedChannel: noChannel,
		attemptTime:      Unset,
		table:            table,
		sink:             sink,
		stats:            stats,
		trace:            tr,
		gateRNG:          rng.ForSubsystem(SubsystemGate),
		backoffRNG:       rng.ForSubsystem(SubsystemBackoff),
		channelRNG:       rng.ForSubsystem(SubsystemChannel),
	}
}

// ID returns the transmitter's row index in the contention table.
func (tx *Transmitter) ID() int { return tx.id }

// IsLeader reports whether this instance drives the statistics cycle.
func (tx *Transmitter) IsLeader() bool { return tx.leader }

// Channels returns the number of channels visible to this transmitter.
func (tx *Transmitter) Channels() int { return tx.channels }

// GateProbability returns the per-slot attempt probability fixed at construction.
func (tx *Transmitter) GateProbability() float64 { return tx.gateProbability }

// ExtractedChannel returns the head packet's committed channel, or -1.
func (tx *Transmitter) ExtractedChannel() int { return tx.extractedChannel }

// BackoffRemaining returns the slots left before the head packet may retry.
func (tx *Transmitter) BackoffRemaining() int { return tx.backoffRemaining }

// CollisionCount returns the consecutive collisions of the head packet.
func (tx *Transmitter) CollisionCount() int { return tx.collisionCount }

// SlotCounter returns the number of slot ticks observed.
func (tx *Transmitter) SlotCounter() int64 { return tx.slotCounter }

// SentTotal returns the lifetime number of delivered packets.
func (tx *Transmitter) SentTotal() int64 { return tx.sentTotal }

// DroppedTotal returns the lifetime number of abandoned packets.
func (tx *Transmitter) DroppedTotal() int64 { return tx.droppedTotal }

// AttemptsTotal returns the lifetime number of gated attempts.
func (tx *Transmitter) AttemptsTotal() int64 { return tx.attemptsTotal }

// CollisionsTotal returns the lifetime number of collisions suffered.
func (tx *Transmitter) CollisionsTotal() int64 { return tx.collisionsTotal }

// QueueLen returns the number of packets waiting, head included.
func (tx *Transmitter) QueueLen() int { return tx.queue.Len() }

// SuccessCount returns this instance's success counter for channel in the
// current accounting period.
func (tx *Transmitter) SuccessCount(channel int) int {
	return tx.table.Successes(tx.id, channel)
}

// CumulativeThroughput returns sent_total / slot_counter, or 0 before the
// first slot tick.
func (tx *Transmitter) CumulativeThroughput() float64 {
	if tx.slotCounter == 0 {
		return 0
	}
	return float64(tx.sentTotal) / float64(tx.slotCounter)
}

// Enqueue takes ownership of a generated packet.
func (tx *Transmitter) Enqueue(p *Packet) {
	tx.queue.Enqueue(p)
	logrus.Tracef("[tick %07d] transmitter %d enqueued %s, queue=%d", p.GenerationTime, tx.id, p.ID, tx.queue.Len())
}

// Start schedules the first slot tick one slot from now.
func (tx *Transmitter) Start(s Scheduler) {
	if tx.slotEvent != nil {
		panic(fmt.Sprintf("transmitter %d started twice", tx.id))
	}
	tx.scheduleSlotTick(s, s.Now()+tx.timing.SlotDuration)
}

// Stop cancels every pending event of this transmitter and returns the
// packets still queued. Safe to call more than once.
func (tx *Transmitter) Stop(s Scheduler) []*Packet {
	s.Cancel(tx.slotEvent)
	s.Cancel(tx.checkEvent)
	s.Cancel(tx.clearEvent)
	tx.slotEvent, tx.checkEvent, tx.clearEvent = nil, nil, nil
	tx.resetHead()
	return tx.queue.Drain()
}

func (tx *Transmitter) scheduleSlotTick(s Scheduler, at int64) {
	ev := NewSlotTickEvent(at, tx)
	tx.slotEvent = ev
	s.Schedule(ev)
}

// handleSlotTick runs one step of the slot state machine.
func (tx *Transmitter) handleSlotTick(s Scheduler, now int64) {
	tx.slotEvent = nil
	tx.scheduleSlotTick(s, now+tx.timing.SlotDuration)

	if head := tx.queue.Peek(); head != nil {
		if tx.extractedChannel == noChannel {
			tx.extractedChannel = tx.channelRNG.Intn(tx.channels)
			logrus.Debugf("[tick %07d] transmitter %d: %s committed to channel %d", now, tx.id, head.ID, tx.extractedChannel)
		}
		if tx.backoffRemaining > 0 {
			tx.backoffRemaining--
		} else {
			tx.attempt(s, now, head)
		}
	}

	tx.slotCounter++
	tx.stats.Emit(QueueLengthSample(tx.id), float64(tx.queue.Len()))
	tx.stats.Emit(TransmitterThroughputSample(tx.id), tx.CumulativeThroughput())

	if tx.leader {
		tx.ensureClearTick(s, now)
	}
}

// attempt passes the Bernoulli gate and, on success, writes into the shared
// table and arms the mid-slot check.
func (tx *Transmitter) attempt(s Scheduler, now int64, head *Packet) {
	if !BernoulliGate(tx.gateRNG, tx.gateProbability) {
		logrus.Tracef("[tick %07d] transmitter %d: gate failed on channel %d", now, tx.id, tx.extractedChannel)
		tx.trace.RecordGateFailure(trace.GateRecord{
			Transmitter: tx.id, Clock: now, Channel: tx.extractedChannel, Probability: tx.gateProbability,
		})
		return
	}
	if tx.checkEvent != nil {
		panic(fmt.Sprintf("transmitter %d: attempt at %d while a check is still pending", tx.id, now))
	}

	tx.table.RecordAttempt(tx.id, tx.extractedChannel, now)
	tx.attemptTime = now
	tx.attemptsTotal++
	tx.trace.RecordAttempt(trace.AttemptRecord{
		Transmitter: tx.id, Clock: now, Channel: tx.extractedChannel, PacketID: head.ID,
	})
	logrus.Debugf("[tick %07d] transmitter %d: attempt %s on channel %d", now, tx.id, head.ID, tx.extractedChannel)

	ev := NewMidSlotCheckEvent(now+tx.timing.CheckDelay, tx, now)
	tx.checkEvent = ev
	s.Schedule(ev)
}

// handleMidSlotCheck resolves the attempt made in the slot starting at slotStart.
func (tx *Transmitter) handleMidSlotCheck(s Scheduler, now, slotStart int64) {
	tx.checkEvent = nil
	head := tx.queue.Peek()
	if head == nil || tx.extractedChannel == noChannel || tx.attemptTime != slotStart {
		panic(fmt.Sprintf("transmitter %d: mid-slot check at %d without an attempt in slot %d", tx.id, now, slotStart))
	}
	channel := tx.extractedChannel
	tx.attemptTime = Unset

	attempts := tx.table.ChannelAttempts(channel, slotStart)
	switch {
	case attempts == 0:
		panic(fmt.Sprintf("transmitter %d: channel %d shows no attempts in slot %d after recording one", tx.id, channel, slotStart))
	case attempts > 1:
		tx.collide(now, head, channel, attempts)
	default:
		tx.deliver(now, head, channel, slotStart)
	}
	logrus.Tracef("[tick %07d] transmitter %d: contention table after check\n%s", now, tx.id, tx.table)
}

func (tx *Transmitter) collide(now int64, head *Packet, channel, attempts int) {
	tx.backoffRemaining = BackoffSlots(tx.backoffRNG, tx.collisionCount)
	tx.collisionCount++
	tx.collisionsTotal++
	logrus.Debugf("[tick %07d] transmitter %d: collision on channel %d (%d attempts), collisions=%d backoff=%d",
		now, tx.id, channel, attempts, tx.collisionCount, tx.backoffRemaining)
	tx.trace.RecordCollision(trace.CollisionRecord{
		Transmitter: tx.id, Clock: now, Channel: channel, Attempts: attempts,
		Collisions: tx.collisionCount, Backoff: tx.backoffRemaining,
	})

	if tx.maxCollisions > 0 && tx.collisionCount >= tx.maxCollisions {
		tx.queue.Dequeue()
		tx.droppedTotal++
		logrus.Debugf("[tick %07d] transmitter %d: abandoned %s after %d collisions", now, tx.id, head.ID, tx.collisionCount)
		tx.trace.RecordAbandon(trace.AbandonRecord{
			Transmitter: tx.id, Clock: now, Channel: channel, PacketID: head.ID, Collisions: tx.collisionCount,
		})
		tx.resetHead()
	}
}

func (tx *Transmitter) deliver(now int64, head *Packet, channel int, slotStart int64) {
	tx.queue.Dequeue()
	head.MarkTransmitted(slotStart, channel)
	tx.table.RecordSuccess(tx.id, channel)
	tx.sentTotal++
	tx.trace.RecordDelivery(trace.DeliveryRecord{
		Transmitter: tx.id, Clock: now, Channel: channel, PacketID: head.ID,
		Delay: head.Delay(), Collisions: tx.collisionCount,
	})
	logrus.Debugf("[tick %07d] transmitter %d: delivered %s on channel %d", now, tx.id, head.ID, channel)
	tx.resetHead()
	tx.sink.Deliver(head)
}

// resetHead forgets the per-packet MAC state before the next head packet.
func (tx *Transmitter) resetHead() {
	tx.extractedChannel = noChannel
	tx.collisionCount = 0
	tx.backoffRemaining = 0
	tx.attemptTime = Unset
}
