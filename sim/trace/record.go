// Package trace provides decision-trace recording for MAC protocol analysis.
// It stores pure data types and has no dependency on sim/.
package trace

// AttemptRecord captures a transmitter passing the gate and writing into the
// contention table.
type AttemptRecord struct {
	Transmitter int
	Clock       int64
	Channel     int
	PacketID    string
}

// GateRecord captures a ready transmitter failing its Bernoulli gate.
type GateRecord struct {
	Transmitter int
	Clock       int64
	Channel     int
	Probability float64
}

// CollisionRecord captures a mid-slot check that found more than one attempt.
type CollisionRecord struct {
	Transmitter int
	Clock       int64
	Channel     int
	Attempts    int // column sum at check time
	Collisions  int // collision count of the head packet after this collision
	Backoff     int // slots drawn to wait before the next attempt
}

// DeliveryRecord captures a confirmed collision-free send.
type DeliveryRecord struct {
	Transmitter int
	Clock       int64
	Channel     int
	PacketID    string
	Delay       int64
	Collisions  int // collisions suffered before success
}

// AbandonRecord captures a head packet dropped after too many collisions.
type AbandonRecord struct {
	Transmitter int
	Clock       int64
	Channel     int
	PacketID    string
	Collisions  int
}
