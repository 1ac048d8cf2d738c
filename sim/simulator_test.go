package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// logEvent appends its label to a shared log when executed.
type logEvent struct {
	BaseEvent
	label string
	log   *[]string
	then  func(s *Simulator)
}

func newLogEvent(at int64, kind EventKind, label string, log *[]string) *logEvent {
	return &logEvent{BaseEvent: newBaseEvent(at, kind), label: label, log: log}
}

func (e *logEvent) Execute(s *Simulator) {
	*e.log = append(*e.log, e.label)
	if e.then != nil {
		e.then(s)
	}
}

func TestSimulator_Ordering_TimestampThenKindThenFIFO(t *testing.T) {
	// GIVEN events scheduled out of order, several at the same tick
	var log []string
	s := NewSimulator(10_000)
	s.Schedule(newLogEvent(2000, EventKindSlotTick, "slot@2000", &log))
	s.Schedule(newLogEvent(1000, EventKindSlotTick, "slotA@1000", &log))
	s.Schedule(newLogEvent(1000, EventKindPacketArrival, "arrival@1000", &log))
	s.Schedule(newLogEvent(1000, EventKindSlotTick, "slotB@1000", &log))
	s.Schedule(newLogEvent(1000, EventKindClearTick, "clear@1000", &log))
	s.Schedule(newLogEvent(1000, EventKindMidSlotCheck, "check@1000", &log))

	// WHEN the simulator runs
	s.Run()

	// THEN same-tick events run check, clear, arrival, then slot ticks in schedule order
	assert.Equal(t, []string{"check@1000", "clear@1000", "arrival@1000", "slotA@1000", "slotB@1000", "slot@2000"}, log)
	assert.Equal(t, int64(2000), s.Now())
	assert.Equal(t, int64(6), s.Executed)
}

func TestSimulator_Cancel_SkipsEvent(t *testing.T) {
	// GIVEN two events, one cancelled
	var log []string
	s := NewSimulator(10_000)
	keep := newLogEvent(100, EventKindSlotTick, "keep", &log)
	drop := newLogEvent(50, EventKindSlotTick, "drop", &log)
	s.Schedule(keep)
	s.Schedule(drop)
	s.Cancel(drop)

	// WHEN run
	s.Run()

	// THEN the cancelled event never fires and is not counted
	assert.Equal(t, []string{"keep"}, log)
	assert.True(t, drop.Cancelled())
	assert.False(t, drop.Fired())
	assert.True(t, keep.Fired())
	assert.Equal(t, int64(1), s.Executed)
}

func TestSimulator_Cancel_AfterFireOrNil_IsNoOp(t *testing.T) {
	var log []string
	s := NewSimulator(10_000)
	e := newLogEvent(10, EventKindSlotTick, "e", &log)
	s.Schedule(e)
	s.Run()

	assert.NotPanics(t, func() {
		s.Cancel(e)
		s.Cancel(nil)
	})
	assert.False(t, e.Cancelled())
}

func TestSimulator_Horizon_StopsBeforeLaterEvents(t *testing.T) {
	// GIVEN events at and after the horizon
	var log []string
	s := NewSimulator(1000)
	s.Schedule(newLogEvent(1000, EventKindSlotTick, "at", &log))
	s.Schedule(newLogEvent(1001, EventKindSlotTick, "after", &log))

	// WHEN run
	s.Run()

	// THEN the event at the horizon fires and the later one stays pending
	assert.Equal(t, []string{"at"}, log)
	require.True(t, s.HasPendingEvents())
	assert.Equal(t, int64(1001), s.PeekNextEventTime())
}

func TestSimulator_ScheduleFromHandler_RunsInOrder(t *testing.T) {
	// GIVEN an event that schedules a same-tick follow-up of higher priority
	var log []string
	s := NewSimulator(1000)
	first := newLogEvent(100, EventKindSlotTick, "slot", &log)
	first.then = func(s *Simulator) {
		s.Schedule(newLogEvent(100, EventKindMidSlotCheck, "check", &log))
	}
	s.Schedule(first)
	s.Schedule(newLogEvent(200, EventKindSlotTick, "next", &log))

	// WHEN run
	s.Run()

	// THEN the follow-up runs before anything later
	assert.Equal(t, []string{"slot", "check", "next"}, log)
}

func TestSimulator_Schedule_InvalidUse_Panics(t *testing.T) {
	var log []string
	s := NewSimulator(1000)
	s.Schedule(newLogEvent(500, EventKindSlotTick, "a", &log))
	s.Run()

	// scheduling into the past
	assert.Panics(t, func() { s.Schedule(newLogEvent(100, EventKindSlotTick, "past", &log)) })

	// scheduling the same event twice
	e := newLogEvent(600, EventKindSlotTick, "twice", &log)
	s.Schedule(e)
	assert.Panics(t, func() { s.Schedule(e) })
}

func TestSimulator_RunUntil_StepsToBoundary(t *testing.T) {
	var log []string
	s := NewSimulator(10_000)
	for _, at := range []int64{100, 200, 300} {
		s.Schedule(newLogEvent(at, EventKindSlotTick, "e", &log))
	}

	s.RunUntil(200)

	assert.Len(t, log, 2)
	assert.Equal(t, int64(200), s.Now())
	assert.True(t, s.HasPendingEvents())
}

func TestSimulator_PeekNextEventTime_Empty_Panics(t *testing.T) {
	s := NewSimulator(10)
	assert.False(t, s.HasPendingEvents())
	assert.Panics(t, func() { s.PeekNextEventTime() })
}
