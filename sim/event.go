package sim

import "fmt"

// EventKind tags each event variant. Dispatch is by concrete type; the kind
// only drives same-timestamp ordering and logging.
type EventKind string

const (
	EventKindMidSlotCheck  EventKind = "MidSlotCheck"
	EventKindClearTick     EventKind = "ClearTick"
	EventKindPacketArrival EventKind = "PacketArrival"
	EventKindSlotTick      EventKind = "SlotTick"
)

// EventKindPriority defines ordering for simultaneous events.
// Lower values are processed first: a check for slot N must see the table
// before a clear wipes it, and a clear landing on a slot boundary must run
// before any transmitter records an attempt for the new slot.
var EventKindPriority = map[EventKind]int{
	EventKindMidSlotCheck:  0,
	EventKindClearTick:     1,
	EventKindPacketArrival: 2,
	EventKindSlotTick:      3,
}

// Event is the closed set of things that can happen in virtual time.
// Each event has a Timestamp (in ticks) and an Execute method that advances
// simulation state when invoked.
type Event interface {
	Timestamp() int64
	Kind() EventKind
	Execute(*Simulator)
	base() *BaseEvent
}

// BaseEvent provides the common fields of every event.
type BaseEvent struct {
	timestamp int64
	kind      EventKind
	seqID     uint64 // assigned by Simulator.Schedule; FIFO tie-breaker
	cancelled bool
	fired     bool
}

func newBaseEvent(timestamp int64, kind EventKind) BaseEvent {
	return BaseEvent{timestamp: timestamp, kind: kind}
}

func (e *BaseEvent) Timestamp() int64 { return e.timestamp }
func (e *BaseEvent) Kind() EventKind { return e.kind }
func (e *BaseEvent) base() *BaseEvent { return e }

// Cancelled reports whether the event was cancelled before it fired.
func (e *BaseEvent) Cancelled() bool { return e.cancelled }

// Fired reports whether the event has been executed.
func (e *BaseEvent) Fired() bool { return e.fired }

// SlotTickEvent marks the start of a slot for one transmitter.
type SlotTickEvent struct {
	BaseEvent
	tx *Transmitter
}

// NewSlotTickEvent creates a slot tick for tx at the given tick.
func NewSlotTickEvent(timestamp int64, tx *Transmitter) *SlotTickEvent {
	return &SlotTickEvent{BaseEvent: newBaseEvent(timestamp, EventKindSlotTick), tx: tx}
}

// Execute runs the transmitter's slot state machine.
func (e *SlotTickEvent) Execute(s *Simulator) {
	e.tx.handleSlotTick(s, e.timestamp)
}

// MidSlotCheckEvent fires check_delay after a slot tick in which the
// transmitter recorded an attempt.
type MidSlotCheckEvent struct {
	BaseEvent
	tx        *Transmitter
	slotStart int64
}

// NewMidSlotCheckEvent creates a collision check for the attempt tx made in
// the slot starting at slotStart.
func NewMidSlotCheckEvent(timestamp int64, tx *Transmitter, slotStart int64) *MidSlotCheckEvent {
	return &MidSlotCheckEvent{
		BaseEvent: newBaseEvent(timestamp, EventKindMidSlotCheck),
		tx:        tx,
		slotStart: slotStart,
	}
}

// Execute runs collision detection for the attempt.
func (e *MidSlotCheckEvent) Execute(s *Simulator) {
	e.tx.handleMidSlotCheck(s, e.timestamp, e.slotStart)
}

// ClearTickEvent drives the leader's statistics cycle.
type ClearTickEvent struct {
	BaseEvent
	leader *Transmitter
}

// NewClearTickEvent creates a clear tick owned by the leader.
func NewClearTickEvent(timestamp int64, leader *Transmitter) *ClearTickEvent {
	if !leader.IsLeader() {
		panic(fmt.Sprintf("ClearTickEvent: transmitter %d is not the leader", leader.ID()))
	}
	return &ClearTickEvent{BaseEvent: newBaseEvent(timestamp, EventKindClearTick), leader: leader}
}

// Execute drains per-channel throughput and clears shared state.
func (e *ClearTickEvent) Execute(s *Simulator) {
	e.leader.handleClearTick(s, e.timestamp)
}

// PacketArrivalEvent hands a freshly generated packet to a transmitter.
type PacketArrivalEvent struct {
	BaseEvent
	gen *Generator
}

// NewPacketArrivalEvent creates the next arrival for gen.
func NewPacketArrivalEvent(timestamp int64, gen *Generator) *PacketArrivalEvent {
	return &PacketArrivalEvent{BaseEvent: newBaseEvent(timestamp, EventKindPacketArrival), gen: gen}
}

// Execute produces a packet, enqueues it and schedules the next arrival.
func (e *PacketArrivalEvent) Execute(s *Simulator) {
	e.gen.handleArrival(s, e.timestamp)
}
