package sim

import "github.com/sirupsen/logrus"

// ensureClearTick arms the leader's next clear tick unless one is pending.
// Clears therefore repeat every timing.ClearPeriod() ticks.
func (tx *Transmitter) ensureClearTick(s Scheduler, now int64) {
	if tx.clearEvent != nil {
		return
	}
	ev := NewClearTickEvent(now+tx.timing.ClearDuration, tx)
	tx.clearEvent = ev
	s.Schedule(ev)
}

// ChannelThroughput returns successes on channel in the current accounting
// period, summed over every transmitter, divided by this transmitter's slot
// counter. ok is false before the first slot tick.
func (tx *Transmitter) ChannelThroughput(channel int) (throughput float64, ok bool) {
	if tx.slotCounter == 0 {
		return 0, false
	}
	return float64(tx.table.ChannelSuccesses(channel)) / float64(tx.slotCounter), true
}

// handleClearTick emits per-channel throughput (after warm-up) and resets the
// shared table and every success counter. slot_counter is left untouched.
func (tx *Transmitter) handleClearTick(s Scheduler, now int64) {
	tx.clearEvent = nil

	emit := now > tx.timing.Warmup
	for c := 0; c < tx.table.Channels(); c++ {
		th, ok := tx.ChannelThroughput(c)
		if !ok {
			break
		}
		logrus.Debugf("[tick %07d] leader %d: throughput[%d] = %.6f", now, tx.id, c, th)
		if emit {
			tx.stats.Emit(ChannelThroughputSample(c), th)
		}
	}

	logrus.Tracef("[tick %07d] leader %d: clearing contention table\n%s", now, tx.id, tx.table)
	tx.table.Clear()
}
