// Package testutil provides shared test infrastructure for the MAC simulator.
// It has no dependency on sim/ so that sim's own tests can import it.
package testutil

import (
	"math"
	"sort"
	"testing"
)

// Sample is one captured Emit call.
type Sample struct {
	Name  string
	Value float64
}

// CaptureStats records every sample in emission order. It satisfies
// sim.StatsSink.
type CaptureStats struct {
	Samples []Sample
}

func (c *CaptureStats) Emit(name string, value float64) {
	c.Samples = append(c.Samples, Sample{Name: name, Value: value})
}

// Values returns the values emitted under name, in order.
func (c *CaptureStats) Values(name string) []float64 {
	var out []float64
	for _, s := range c.Samples {
		if s.Name == name {
			out = append(out, s.Value)
		}
	}
	return out
}

// Count returns how many samples were emitted under name.
func (c *CaptureStats) Count(name string) int {
	return len(c.Values(name))
}

// Names returns every distinct sample name seen, sorted.
func (c *CaptureStats) Names() []string {
	seen := make(map[string]bool)
	for _, s := range c.Samples {
		seen[s.Name] = true
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
