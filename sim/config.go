package sim

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/mac-sim/mac-sim/sim/traffic"
)

// TransmitterConfig describes one sender.
type TransmitterConfig struct {
	Channels int                 `yaml:"channels"`
	Leader   bool                `yaml:"leader,omitempty"`
	Arrival  traffic.ArrivalSpec `yaml:"arrival"`

	// GateProbability pins the Bernoulli gate; nil derives min(C/T, 1).
	GateProbability *float64 `yaml:"gate_probability,omitempty"`
}

// Config is the full run configuration. Durations are in ticks.
//
// Transmitters may be listed explicitly, or described with the uniform
// shorthand (Population, Channels, LeaderIndex, Arrival) which Expand turns
// into identical entries. Giving both is an error.
type Config struct {
	Seed          int64 `yaml:"seed"`
	Horizon       int64 `yaml:"horizon"`
	Warmup        int64 `yaml:"warmup"`
	SlotDuration  int64 `yaml:"slot_duration"`
	CheckDelay    int64 `yaml:"check_delay"`
	ClearDuration int64 `yaml:"clear_duration"`
	MaxCollisions int   `yaml:"max_collisions,omitempty"` // 0 = retry forever

	Transmitters []TransmitterConfig `yaml:"transmitters,omitempty"`

	Population  int                  `yaml:"population,omitempty"`
	Channels    int                  `yaml:"channels,omitempty"`
	LeaderIndex int                  `yaml:"leader_index,omitempty"`
	Arrival     *traffic.ArrivalSpec `yaml:"arrival,omitempty"`
}

// DefaultConfig returns the timing used when nothing else is given:
// 1000-tick slots, a check half-way through, and a per-slot clear.
func DefaultConfig() Config {
	return Config{
		Seed:          42,
		Horizon:       1_000_000,
		SlotDuration:  1000,
		CheckDelay:    500,
		ClearDuration: 1000,
	}
}

// NewUniformConfig returns DefaultConfig with population identical
// transmitters, each seeing channels channels, transmitter leader as leader.
func NewUniformConfig(population, channels, leader int, meanInterarrival float64) Config {
	cfg := DefaultConfig()
	cfg.Population = population
	cfg.Channels = channels
	cfg.LeaderIndex = leader
	cfg.Arrival = &traffic.ArrivalSpec{Process: traffic.ProcessPoisson, MeanInterarrival: meanInterarrival}
	return cfg
}

// LoadConfig reads and parses a YAML run configuration.
// Uses strict parsing: unrecognized keys (typos) are rejected.
// Fields absent from the file keep their DefaultConfig values.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	cfg := DefaultConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Expand resolves the uniform shorthand into explicit transmitter entries.
// A config that already lists transmitters is returned unchanged.
func (c Config) Expand() (Config, error) {
	shorthand := c.Population != 0 || c.Channels != 0 || c.Arrival != nil
	if len(c.Transmitters) > 0 {
		if shorthand {
			return c, errors.New("config: give either transmitters or population/channels/arrival, not both")
		}
		return c, nil
	}
	if !shorthand {
		return c, nil
	}
	if c.Population <= 0 {
		return c, fmt.Errorf("config: population must be positive, got %d", c.Population)
	}
	if c.LeaderIndex < 0 || c.LeaderIndex >= c.Population {
		return c, fmt.Errorf("config: leader_index %d outside [0, %d)", c.LeaderIndex, c.Population)
	}
	if c.Arrival == nil {
		return c, errors.New("config: arrival is required with population")
	}
	out := c
	out.Transmitters = make([]TransmitterConfig, c.Population)
	for i := range out.Transmitters {
		out.Transmitters[i] = TransmitterConfig{
			Channels: c.Channels,
			Leader:   i == c.LeaderIndex,
			Arrival:  *c.Arrival,
		}
	}
	out.Population, out.Channels, out.LeaderIndex, out.Arrival = 0, 0, 0, nil
	return out, nil
}

// Validate reports the first configuration error. The run must refuse to
// start on any of them. Call on an expanded config.
func (c Config) Validate() error {
	if c.SlotDuration <= 0 {
		return fmt.Errorf("config: slot_duration must be positive, got %d", c.SlotDuration)
	}
	if c.CheckDelay <= 0 {
		return fmt.Errorf("config: check_delay must be positive, got %d", c.CheckDelay)
	}
	if c.CheckDelay >= c.SlotDuration {
		return fmt.Errorf("config: check_delay %d must be shorter than slot_duration %d", c.CheckDelay, c.SlotDuration)
	}
	if c.ClearDuration <= 0 {
		return fmt.Errorf("config: clear_duration must be positive, got %d", c.ClearDuration)
	}
	if phase := c.ClearDuration % c.SlotDuration; phase != 0 && phase < c.CheckDelay {
		return fmt.Errorf("config: clear_duration %d lands %d ticks into a slot, before the check at %d",
			c.ClearDuration, phase, c.CheckDelay)
	}
	if c.Horizon <= 0 {
		return fmt.Errorf("config: horizon must be positive, got %d", c.Horizon)
	}
	if c.Warmup < 0 {
		return fmt.Errorf("config: warmup must not be negative, got %d", c.Warmup)
	}
	if c.MaxCollisions < 0 {
		return fmt.Errorf("config: max_collisions must not be negative, got %d", c.MaxCollisions)
	}
	if len(c.Transmitters) == 0 {
		return errors.New("config: at least one transmitter is required")
	}

	leaders := 0
	for i, tc := range c.Transmitters {
		if tc.Channels <= 0 {
			return fmt.Errorf("config: transmitters[%d]: channels must be positive, got %d", i, tc.Channels)
		}
		if g := tc.GateProbability; g != nil && !(*g > 0 && *g <= 1) {
			return fmt.Errorf("config: transmitters[%d]: gate_probability must be in (0, 1], got %v", i, *g)
		}
		if err := tc.Arrival.Validate(); err != nil {
			return fmt.Errorf("config: transmitters[%d]: %w", i, err)
		}
		if tc.Leader {
			leaders++
		}
	}
	switch {
	case leaders == 0:
		return errors.New("config: no transmitter is flagged as leader; exactly one is required")
	case leaders > 1:
		return fmt.Errorf("config: %d transmitters are flagged as leader; exactly one is required", leaders)
	}
	return nil
}

// WarnAnomalies logs legal but unusual settings.
func (c Config) WarnAnomalies() {
	population := len(c.Transmitters)
	for i, tc := range c.Transmitters {
		if tc.Channels > population && tc.GateProbability == nil {
			logrus.Warnf("transmitters[%d]: %d channels for %d transmitters; gate probability clamped to 1",
				i, tc.Channels, population)
		}
	}
	timing := MACTiming{SlotDuration: c.SlotDuration, ClearDuration: c.ClearDuration}
	if period := timing.ClearPeriod(); period != c.ClearDuration {
		logrus.Warnf("clear_duration %d is not a multiple of slot_duration %d; clear ticks repeat every %d ticks",
			c.ClearDuration, c.SlotDuration, period)
	}
	if c.Warmup >= c.Horizon {
		logrus.Warnf("warmup %d is not before horizon %d; no channel throughput will be emitted", c.Warmup, c.Horizon)
	}
}

// MaxChannels returns the widest channel set of any transmitter.
func (c Config) MaxChannels() int {
	widest := 0
	for _, tc := range c.Transmitters {
		widest = max(widest, tc.Channels)
	}
	return widest
}
