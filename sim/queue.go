// Implements the PacketQueue, which holds all packets waiting at a transmitter.
// Packets are enqueued on arrival from the generator

package sim

import (
	"fmt"
	"strings"
)

// PacketQueue is an unbounded FIFO of packets waiting for a transmission slot.
// The head packet is the one the MAC engine is currently contending for.
type PacketQueue struct {
	queue []*Packet
}

// Enqueue adds a packet to the back of the queue.
func (pq *PacketQueue) Enqueue(p *Packet) {
	if p == nil {
		panic("Enqueue: packet must not be nil")
	}
	pq.queue = append(pq.queue, p)
}

func (pq *PacketQueue) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, val := range pq.queue {
		sb.WriteString(fmt.Sprint(val))
		if i < len(pq.queue)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}

// Len returns the number of packets in the queue.
func (pq *PacketQueue) Len() int {
	return len(pq.queue)
}

// Peek returns the packet at the front of the queue without removing it.
// Returns nil if the queue is empty.
func (pq *PacketQueue) Peek() *Packet {
	if len(pq.queue) == 0 {
		return nil
	}
	return pq.queue[0]
}

// Dequeue removes and returns the packet at the front of the queue.
// Returns nil if the queue is empty.
func (pq *PacketQueue) Dequeue() *Packet {
	if len(pq.queue) == 0 {
		return nil
	}
	head := pq.queue[0]
	pq.queue[0] = nil
	pq.queue = pq.queue[1:]
	return head
}

// Drain empties the queue and returns the packets it held, head first.
func (pq *PacketQueue) Drain() []*Packet {
	drained := pq.queue
	pq.queue = nil
	return drained
}
