package trace

// TraceLevel selects which MAC decisions are recorded.
type TraceLevel string

const (
	// TraceLevelNone records nothing; NewSimulationTrace returns nil.
	TraceLevelNone TraceLevel = "none"
	// TraceLevelDecisions records every gate, attempt, collision, delivery and abandon.
	TraceLevelDecisions TraceLevel = "decisions"
)

// IsValidTraceLevel reports whether level names a known trace level.
// The empty string means none.
func IsValidTraceLevel(level string) bool {
	switch TraceLevel(level) {
	case "", TraceLevelNone, TraceLevelDecisions:
		return true
	}
	return false
}

// TraceConfig selects what a SimulationTrace keeps.
type TraceConfig struct {
	Level TraceLevel
}

// SimulationTrace collects decision records during a run, in event order.
// A nil *SimulationTrace is valid and records nothing, so callers never need
// to check whether tracing is on.
type SimulationTrace struct {
	Config      TraceConfig
	Attempts    []AttemptRecord
	GateFails   []GateRecord
	Collisions  []CollisionRecord
	Deliveries  []DeliveryRecord
	Abandonment []AbandonRecord
}

// NewSimulationTrace returns an empty trace, or nil when config disables tracing.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	switch config.Level {
	case "", TraceLevelNone:
		return nil
	}
	return &SimulationTrace{Config: config}
}

func (st *SimulationTrace) RecordAttempt(r AttemptRecord) {
	if st != nil {
		st.Attempts = append(st.Attempts, r)
	}
}

func (st *SimulationTrace) RecordGateFailure(r GateRecord) {
	if st != nil {
		st.GateFails = append(st.GateFails, r)
	}
}

func (st *SimulationTrace) RecordCollision(r CollisionRecord) {
	if st != nil {
		st.Collisions = append(st.Collisions, r)
	}
}

func (st *SimulationTrace) RecordDelivery(r DeliveryRecord) {
	if st != nil {
		st.Deliveries = append(st.Deliveries, r)
	}
}

func (st *SimulationTrace) RecordAbandon(r AbandonRecord) {
	if st != nil {
		st.Abandonment = append(st.Abandonment, r)
	}
}
