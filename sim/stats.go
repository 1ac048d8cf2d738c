package sim

import (
	"fmt"
	"math"
	"sort"
)

//go:generate mockgen -destination "mock_stats_test.go" -package $GOPACKAGE -write_package_comment=false github.com/mac-sim/mac-sim/sim StatsSink

// StatsSink receives named numeric samples. Emit is fire-and-forget and is
// called at high frequency (every transmitter, every slot).
type StatsSink interface {
	Emit(name string, value float64)
}

// Sample names.
const (
	SamplePacketDelay = "packet_delay"
)

// QueueLengthSample names transmitter id's per-slot queue length.
func QueueLengthSample(id int) string {
	return fmt.Sprintf("transmitter[%d].queue_length", id)
}

// TransmitterThroughputSample names transmitter id's cumulative throughput.
func TransmitterThroughputSample(id int) string {
	return fmt.Sprintf("transmitter[%d].throughput", id)
}

// ChannelThroughputSample names the leader's per-channel throughput.
func ChannelThroughputSample(channel int) string {
	return fmt.Sprintf("channel_throughput[%d]", channel)
}

// DiscardStats drops every sample.
type DiscardStats struct{}

func (DiscardStats) Emit(string, float64) {}

// MultiStats fans each sample out to several sinks in order.
type MultiStats []StatsSink

func (m MultiStats) Emit(name string, value float64) {
	for _, s := range m {
		s.Emit(name, value)
	}
}

// SeriesSummary aggregates one sample series.
type SeriesSummary struct {
	Count int64
	Sum   float64
	Min   float64
	Max   float64
	Last  float64
}

// Mean returns Sum/Count, or 0 for an empty series.
func (s SeriesSummary) Mean() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.Sum / float64(s.Count)
}

// SummaryStats keeps count/sum/min/max/last per sample name in memory.
type SummaryStats struct {
	series map[string]*SeriesSummary
}

// NewSummaryStats creates an empty in-memory summary.
func NewSummaryStats() *SummaryStats {
	return &SummaryStats{series: make(map[string]*SeriesSummary)}
}

func (s *SummaryStats) Emit(name string, value float64) {
	ser, ok := s.series[name]
	if !ok {
		ser = &SeriesSummary{Min: math.Inf(1), Max: math.Inf(-1)}
		s.series[name] = ser
	}
	ser.Count++
	ser.Sum += value
	ser.Last = value
	ser.Min = math.Min(ser.Min, value)
	ser.Max = math.Max(ser.Max, value)
}

// Series returns the summary for name and whether any sample was seen.
func (s *SummaryStats) Series(name string) (SeriesSummary, bool) {
	ser, ok := s.series[name]
	if !ok {
		return SeriesSummary{}, false
	}
	return *ser, true
}

// Names returns every sample name seen, sorted.
func (s *SummaryStats) Names() []string {
	names := make([]string, 0, len(s.series))
	for name := range s.series {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
