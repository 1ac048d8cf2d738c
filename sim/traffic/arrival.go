// Package traffic provides the interarrival-time processes that drive packet
// generators. It has no dependency on the MAC core.
package traffic

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"
)

// Arrival process names accepted in ArrivalSpec.Process.
const (
	ProcessPoisson = "poisson"
	ProcessGamma   = "gamma"
	ProcessWeibull = "weibull"
)

// ArrivalSpec configures the interarrival time process of one generator.
type ArrivalSpec struct {
	Process          string   `yaml:"process"`
	MeanInterarrival float64  `yaml:"mean_interarrival"` // ticks
	CV               *float64 `yaml:"cv,omitempty"`
}

// Validate checks the spec without building a sampler.
func (s ArrivalSpec) Validate() error {
	switch s.Process {
	case "", ProcessPoisson, ProcessGamma, ProcessWeibull:
	default:
		return fmt.Errorf("unknown arrival process %q (want %s, %s or %s)", s.Process, ProcessPoisson, ProcessGamma, ProcessWeibull)
	}
	if !(s.MeanInterarrival > 0) || math.IsInf(s.MeanInterarrival, 0) {
		return fmt.Errorf("mean_interarrival must be a positive finite number of ticks, got %v", s.MeanInterarrival)
	}
	if s.CV != nil && !(*s.CV > 0) {
		return fmt.Errorf("cv must be positive, got %v", *s.CV)
	}
	if s.Process == ProcessWeibull && s.CV != nil && (*s.CV < 0.01 || *s.CV > 10.4) {
		return fmt.Errorf("weibull cv must be in [0.01, 10.4], got %v", *s.CV)
	}
	return nil
}

// ArrivalSampler draws the gap, in ticks, until a generator's next packet.
// Implementations never return less than one tick.
type ArrivalSampler interface {
	SampleIAT(rng *rand.Rand) int64
}

// exponentialIAT is the memoryless gap of a Poisson process.
type exponentialIAT struct {
	mean float64
}

func (e exponentialIAT) SampleIAT(rng *rand.Rand) int64 {
	return toTicks(e.mean * rng.ExpFloat64())
}

// gammaIAT has shape 1/cv² and scale mean·cv²; cv > 1 gives bursts.
type gammaIAT struct {
	shape, scale float64
}

func (g gammaIAT) SampleIAT(rng *rand.Rand) int64 {
	return toTicks(g.scale * standardGamma(rng, g.shape))
}

// weibullIAT has shape k and scale lambda chosen so the mean is preserved.
type weibullIAT struct {
	k, lambda float64
}

func (w weibullIAT) SampleIAT(rng *rand.Rand) int64 {
	// 1-U lies in (0, 1], so the log is finite.
	e := -math.Log1p(-rng.Float64())
	return toTicks(w.lambda * math.Pow(e, 1/w.k))
}

// toTicks truncates a continuous gap to whole ticks, at least 1.
func toTicks(gap float64) int64 {
	switch {
	case gap >= math.MaxInt64:
		return math.MaxInt64
	case gap < 1:
		return 1
	}
	return int64(gap)
}

// NewArrivalSampler builds the sampler for a validated spec.
// An empty Process is poisson; a missing cv is 1.
func NewArrivalSampler(spec ArrivalSpec) ArrivalSampler {
	cv := 1.0
	if spec.CV != nil && *spec.CV > 0 {
		cv = *spec.CV
	}
	mean := spec.MeanInterarrival

	switch spec.Process {
	case ProcessGamma:
		shape := 1 / (cv * cv)
		if shape < 0.01 {
			logrus.Warnf("gamma arrivals with cv=%.1f need shape %.4f; using poisson instead", cv, shape)
			return exponentialIAT{mean: mean}
		}
		return gammaIAT{shape: shape, scale: mean * cv * cv}
	case ProcessWeibull:
		k := weibullShape(cv)
		return weibullIAT{k: k, lambda: mean / math.Gamma(1+1/k)}
	}
	return exponentialIAT{mean: mean}
}

// standardGamma draws Gamma(alpha, 1) with the Marsaglia-Tsang squeeze.
// For alpha < 1 it draws Gamma(alpha+1) and scales by U^(1/alpha).
func standardGamma(rng *rand.Rand, alpha float64) float64 {
	boost := 1.0
	if alpha < 1 {
		boost = math.Pow(rng.Float64(), 1/alpha)
		alpha++
	}
	d := alpha - 1.0/3
	c := 1 / math.Sqrt(9*d)
	for {
		z := rng.NormFloat64()
		t := 1 + c*z
		if t <= 0 {
			continue
		}
		v := t * t * t
		u := rng.Float64()
		z2 := z * z
		if u < 1-0.0331*z2*z2 || math.Log(u) < z2/2+d*(1-v+math.Log(v)) {
			return boost * d * v
		}
	}
}

// weibullShape returns the shape k whose coefficient of variation is cv,
// by bisection on [0.1, 100]. The CV falls as k grows.
func weibullShape(cv float64) float64 {
	lo, hi := 0.1, 100.0
	for i := 0; i < 100; i++ {
		k := (lo + hi) / 2
		got := weibullCoefficientOfVariation(k)
		if math.Abs(got-cv) < 1e-3 {
			return k
		}
		if got > cv {
			lo = k
		} else {
			hi = k
		}
	}
	k := (lo + hi) / 2
	logrus.Warnf("weibull shape search for cv=%.3f did not converge; using k=%.3f", cv, k)
	return k
}

// weibullCoefficientOfVariation is sqrt(Γ(1+2/k)/Γ(1+1/k)² - 1).
func weibullCoefficientOfVariation(k float64) float64 {
	m1 := math.Gamma(1 + 1/k)
	m2 := math.Gamma(1 + 2/k)
	return math.Sqrt(m2/(m1*m1) - 1)
}
