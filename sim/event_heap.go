package sim

import "container/heap"

// eventQueue is a min-heap ordered by (timestamp, kind priority, seqID).
// Implements heap.Interface; use the Simulator methods instead of touching it directly.
type eventQueue []Event

func (q eventQueue) Len() int { return len(q) }

func (q eventQueue) Less(i, j int) bool {
	if q[i].Timestamp() != q[j].Timestamp() {
		return q[i].Timestamp() < q[j].Timestamp()
	}
	priI, priJ := EventKindPriority[q[i].Kind()], EventKindPriority[q[j].Kind()]
	if priI != priJ {
		return priI < priJ
	}
	return q[i].base().seqID < q[j].base().seqID
}

func (q eventQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *eventQueue) Push(x any) {
	*q = append(*q, x.(Event))
}

func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

// peek returns the earliest live event, discarding cancelled tombstones on the way.
func (q *eventQueue) peek() Event {
	for q.Len() > 0 {
		if next := (*q)[0]; !next.base().cancelled {
			return next
		}
		heap.Pop(q)
	}
	return nil
}
