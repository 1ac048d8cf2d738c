// Package sim provides a discrete-event simulator of multi-channel slotted
// random access: many transmitters contend for a small set of shared channels,
// one slot at a time.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - transmitter.go: the per-sender slot state machine (channel choice, gating,
//     collision handling, backoff, delivery)
//   - contention.go: the shared T×C attempt table and success counters
//   - leader.go: the leader's periodic throughput emission and table clear
//   - event.go / simulator.go: the event variants and the virtual-time loop
//
// # Slot Timeline
//
// Every transmitter ticks at t = k·slot_duration. On a tick with a ready head
// packet it may record an attempt; check_delay later its MidSlotCheckEvent sums
// the channel's column for that slot and either delivers the packet (sum = 1)
// or draws a backoff (sum > 1). The leader's ClearTickEvent drains throughput
// and zeroes the table every clear_duration.
//
// At equal timestamps events run MidSlotCheck, ClearTick, PacketArrival,
// SlotTick, then in schedule order.
//
// # Sub-packages
//   - sim/traffic/: interarrival samplers (poisson, gamma, weibull)
//   - sim/trace/: MAC decision trace recording
//   - sim/recorder/: SQLite persistence of emitted samples
package sim
