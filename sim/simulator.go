// sim/simulator.go
package sim

import (
	"container/heap"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Scheduler is the virtual-clock contract the MAC core calls into.
// Events fire in non-decreasing time order with a stable tie-break, one at a
// time, never re-entrantly.
type Scheduler interface {
	Schedule(e Event)
	Cancel(e Event)
	Now() int64
}

// TimeTeller can be used to get the current virtual time.
type TimeTeller interface {
	Now() int64
}

// Simulator holds the virtual clock and the event loop.
//
// Thread-safety: NOT thread-safe. All methods must be called from the same goroutine.
type Simulator struct {
	Clock   int64
	Horizon int64

	events    eventQueue
	nextSeqID uint64
	// Executed counts events run so far (cancelled tombstones excluded).
	Executed int64
}

var _ Scheduler = (*Simulator)(nil)

// NewSimulator creates an empty simulator that stops after horizon ticks.
func NewSimulator(horizon int64) *Simulator {
	return &Simulator{
		Horizon: horizon,
		events:  make(eventQueue, 0),
	}
}

// Now returns the current virtual time.
func (s *Simulator) Now() int64 {
	return s.Clock
}

// Schedule pushes an event into the queue. Events are single-use: scheduling
// the same event twice, or scheduling into the past, panics.
func (s *Simulator) Schedule(e Event) {
	b := e.base()
	if e.Timestamp() < s.Clock {
		panic(fmt.Sprintf("Schedule: %s at %d is before current clock %d", e.Kind(), e.Timestamp(), s.Clock))
	}
	if b.seqID != 0 {
		panic(fmt.Sprintf("Schedule: %s at %d was already scheduled", e.Kind(), e.Timestamp()))
	}
	s.nextSeqID++
	b.seqID = s.nextSeqID
	heap.Push(&s.events, e)
}

// Cancel withdraws a pending event. It is unconditional: cancelling nil, a
// fired event, or an already cancelled event is a no-op.
func (s *Simulator) Cancel(e Event) {
	if e == nil {
		return
	}
	if b := e.base(); !b.fired {
		b.cancelled = true
	}
}

// HasPendingEvents returns true if a live event is queued.
func (s *Simulator) HasPendingEvents() bool {
	return s.events.peek() != nil
}

// PeekNextEventTime returns the timestamp of the earliest live event.
// Caller MUST check HasPendingEvents() first; panics on empty queue.
func (s *Simulator) PeekNextEventTime() int64 {
	next := s.events.peek()
	if next == nil {
		panic("PeekNextEventTime: no pending events")
	}
	return next.Timestamp()
}

// ProcessNextEvent pops and executes the earliest live event.
// Returns false when there is nothing left to run within the horizon.
func (s *Simulator) ProcessNextEvent() bool {
	next := s.events.peek()
	if next == nil || next.Timestamp() > s.Horizon {
		return false
	}
	heap.Pop(&s.events)
	if next.Timestamp() < s.Clock {
		panic(fmt.Sprintf("Clock went backwards: %d < %d", next.Timestamp(), s.Clock))
	}
	s.Clock = next.Timestamp()
	next.base().fired = true
	logrus.Tracef("[tick %07d] Executing %s", s.Clock, next.Kind())
	next.Execute(s)
	s.Executed++
	return true
}

// Run executes events until the queue is empty or the horizon is passed.
func (s *Simulator) Run() {
	for s.ProcessNextEvent() {
	}
	logrus.Infof("[tick %07d] Simulation ended after %d events", s.Clock, s.Executed)
}

// RunUntil executes events with timestamps at or before t, then leaves the
// clock at the last executed event. Useful for stepping a run in tests.
func (s *Simulator) RunUntil(t int64) {
	for s.HasPendingEvents() && s.PeekNextEventTime() <= t {
		if !s.ProcessNextEvent() {
			return
		}
	}
}
