package sim

import (
	"fmt"
	"strings"
)

// attemptCell is one [transmitter][channel] entry of the contention table.
// slot is the start tick of the slot the count belongs to.
type attemptCell struct {
	count int
	slot  int64
}

// ContentionTable is the shared T×C record of transmission attempts plus the
// per-transmitter success counters the leader drains each cycle.
//
// One table is built at run setup and handed to every transmitter. A row is
// written only by its owning transmitter; any transmitter reads a column when
// checking for collisions; only the leader clears.
//
// Thread-safety: NOT thread-safe. The event loop serializes all access.
type ContentionTable struct {
	transmitters int
	channels     int
	attempts     []attemptCell
	successes    []int
}

// NewContentionTable creates an all-zero table for the given population and
// channel count (the widest channel set of any transmitter).
func NewContentionTable(transmitters, channels int) *ContentionTable {
	if transmitters <= 0 || channels <= 0 {
		panic(fmt.Sprintf("NewContentionTable: transmitters=%d channels=%d must be positive", transmitters, channels))
	}
	return &ContentionTable{
		transmitters: transmitters,
		channels:     channels,
		attempts:     make([]attemptCell, transmitters*channels),
		successes:    make([]int, transmitters*channels),
	}
}

// Transmitters returns the number of rows.
func (t *ContentionTable) Transmitters() int { return t.transmitters }

// Channels returns the number of columns.
func (t *ContentionTable) Channels() int { return t.channels }

func (t *ContentionTable) index(id, channel int) int {
	if id < 0 || id >= t.transmitters || channel < 0 || channel >= t.channels {
		panic(fmt.Sprintf("ContentionTable: cell [%d][%d] out of range %dx%d", id, channel, t.transmitters, t.channels))
	}
	return id*t.channels + channel
}

// RecordAttempt increments cell [id][channel] for the slot starting at slot.
// A count left over from an earlier slot is discarded first.
func (t *ContentionTable) RecordAttempt(id, channel int, slot int64) {
	cell := &t.attempts[t.index(id, channel)]
	if cell.count > 0 && cell.slot != slot {
		cell.count = 0
	}
	cell.slot = slot
	cell.count++
}

// ChannelAttempts sums the column for channel across every transmitter,
// counting only attempts made in the slot starting at slot.
func (t *ContentionTable) ChannelAttempts(channel int, slot int64) int {
	sum := 0
	for id := 0; id < t.transmitters; id++ {
		cell := t.attempts[t.index(id, channel)]
		if cell.slot == slot {
			sum += cell.count
		}
	}
	return sum
}

// Attempts returns the raw count in cell [id][channel], whatever slot it belongs to.
func (t *ContentionTable) Attempts(id, channel int) int {
	return t.attempts[t.index(id, channel)].count
}

// RecordSuccess increments the success counter of transmitter id on channel.
func (t *ContentionTable) RecordSuccess(id, channel int) {
	t.successes[t.index(id, channel)]++
}

// Successes returns transmitter id's success counter on channel.
func (t *ContentionTable) Successes(id, channel int) int {
	return t.successes[t.index(id, channel)]
}

// ChannelSuccesses sums every transmitter's success counter on channel.
func (t *ContentionTable) ChannelSuccesses(channel int) int {
	sum := 0
	for id := 0; id < t.transmitters; id++ {
		sum += t.successes[t.index(id, channel)]
	}
	return sum
}

// Clear zeroes every attempt cell and every success counter.
func (t *ContentionTable) Clear() {
	clear(t.attempts)
	clear(t.successes)
}

// IsZero reports whether every attempt cell and success counter is zero.
func (t *ContentionTable) IsZero() bool {
	for _, cell := range t.attempts {
		if cell.count != 0 {
			return false
		}
	}
	for _, n := range t.successes {
		if n != 0 {
			return false
		}
	}
	return true
}

// Snapshot returns a copy of the attempt counts as [transmitter][channel].
func (t *ContentionTable) Snapshot() [][]int {
	out := make([][]int, t.transmitters)
	for id := range out {
		out[id] = make([]int, t.channels)
		for c := range out[id] {
			out[id][c] = t.attempts[id*t.channels+c].count
		}
	}
	return out
}

func (t *ContentionTable) String() string {
	var sb strings.Builder
	for id := 0; id < t.transmitters; id++ {
		fmt.Fprintf(&sb, "Tx: %d |", id)
		for c := 0; c < t.channels; c++ {
			fmt.Fprintf(&sb, " C_%d:%d |", c, t.attempts[id*t.channels+c].count)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
