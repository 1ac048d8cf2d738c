package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mac-sim/mac-sim/sim"
)

// newTestCommand returns a throwaway command carrying the config flags,
// parsed from args. Flag variables are reset to their defaults first.
func newTestCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	c := &cobra.Command{Use: "test"}
	registerConfigFlags(c)
	require.NoError(t, c.ParseFlags(args))
	return c
}

func TestResolveConfig_NoFlags_UsesUniformDefaults(t *testing.T) {
	// GIVEN no config file and no flags
	c := newTestCommand(t)

	// WHEN the config is resolved
	cfg, err := resolveConfig(c)

	// THEN the default population is expanded with exactly one leader
	require.NoError(t, err)
	assert.Len(t, cfg.Transmitters, 10)
	assert.Equal(t, 4, cfg.MaxChannels())
	assert.True(t, cfg.Transmitters[0].Leader)
	assert.Equal(t, sim.DefaultConfig().SlotDuration, cfg.SlotDuration)
}

func TestResolveConfig_ShorthandFlags_Applied(t *testing.T) {
	// GIVEN explicit shorthand flags
	c := newTestCommand(t, "--population", "3", "--channels", "2", "--leader", "2", "--arrival", "gamma", "--cv", "2.5")

	// WHEN the config is resolved
	cfg, err := resolveConfig(c)

	// THEN every transmitter carries the flagged values
	require.NoError(t, err)
	require.Len(t, cfg.Transmitters, 3)
	assert.True(t, cfg.Transmitters[2].Leader)
	for _, tc := range cfg.Transmitters {
		assert.Equal(t, 2, tc.Channels)
		assert.Equal(t, "gamma", tc.Arrival.Process)
		require.NotNil(t, tc.Arrival.CV)
		assert.Equal(t, 2.5, *tc.Arrival.CV)
	}
}

func TestResolveConfig_YAMLFile_ChangedFlagsOverride(t *testing.T) {
	// GIVEN a YAML config with explicit transmitters and seed 42
	path := filepath.Join(t.TempDir(), "run.yaml")
	yamlDoc := `
seed: 42
horizon: 50000
slot_duration: 100
check_delay: 40
clear_duration: 300
transmitters:
  - channels: 2
    leader: true
    arrival: {process: poisson, mean_interarrival: 250}
  - channels: 1
    arrival: {process: poisson, mean_interarrival: 500}
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o644))

	// WHEN --seed overrides the file but nothing else is set
	c := newTestCommand(t, "--config", path, "--seed", "7")
	cfg, err := resolveConfig(c)

	// THEN the seed comes from the flag and everything else from the file
	require.NoError(t, err)
	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, int64(50000), cfg.Horizon)
	assert.Equal(t, int64(100), cfg.SlotDuration)
	assert.Equal(t, int64(300), cfg.ClearDuration)
	require.Len(t, cfg.Transmitters, 2)
	assert.Equal(t, 1, cfg.Transmitters[1].Channels)
}

func TestResolveConfig_YAMLShorthand_OnlyChangedFieldOverridden(t *testing.T) {
	// GIVEN a YAML config using the uniform shorthand
	path := filepath.Join(t.TempDir(), "uniform.yaml")
	yamlDoc := `
population: 3
channels: 2
leader_index: 2
arrival: {process: gamma, mean_interarrival: 800}
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o644))

	// WHEN only --channels is set on the command line
	c := newTestCommand(t, "--config", path, "--channels", "1")
	cfg, err := resolveConfig(c)

	// THEN channels come from the flag and the rest of the shorthand from the file
	require.NoError(t, err)
	require.Len(t, cfg.Transmitters, 3)
	assert.True(t, cfg.Transmitters[2].Leader)
	assert.False(t, cfg.Transmitters[0].Leader)
	for _, tc := range cfg.Transmitters {
		assert.Equal(t, 1, tc.Channels)
		assert.Equal(t, "gamma", tc.Arrival.Process)
		assert.Equal(t, 800.0, tc.Arrival.MeanInterarrival)
		assert.Nil(t, tc.Arrival.CV)
	}
}

func TestResolveConfig_YAMLShorthand_ArrivalFlagKeepsFileMean(t *testing.T) {
	// GIVEN a YAML shorthand population with a gamma process
	path := filepath.Join(t.TempDir(), "uniform.yaml")
	yamlDoc := `
population: 2
channels: 3
arrival: {process: gamma, mean_interarrival: 800}
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o644))

	// WHEN only the coefficient of variation is flagged
	c := newTestCommand(t, "--config", path, "--cv", "0.5")
	cfg, err := resolveConfig(c)

	// THEN the file's process and mean survive next to the flagged CV
	require.NoError(t, err)
	require.Len(t, cfg.Transmitters, 2)
	arrival := cfg.Transmitters[1].Arrival
	assert.Equal(t, "gamma", arrival.Process)
	assert.Equal(t, 800.0, arrival.MeanInterarrival)
	require.NotNil(t, arrival.CV)
	assert.Equal(t, 0.5, *arrival.CV)
}

func TestResolveConfig_ExplicitTransmittersPlusShorthandFlag_ReturnsError(t *testing.T) {
	// GIVEN a YAML config listing transmitters explicitly
	path := filepath.Join(t.TempDir(), "explicit.yaml")
	yamlDoc := `
transmitters:
  - channels: 2
    leader: true
    arrival: {process: poisson, mean_interarrival: 250}
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o644))

	// WHEN a shorthand flag is also given
	_, err := resolveConfig(newTestCommand(t, "--config", path, "--population", "4"))

	// THEN the list is not silently replaced and resolution fails
	assert.Error(t, err)
}

func TestResolveConfig_UnknownYAMLKey_ReturnsError(t *testing.T) {
	// GIVEN a YAML config with a typo
	path := filepath.Join(t.TempDir(), "typo.yaml")
	require.NoError(t, os.WriteFile(path, []byte("slot_durration: 100\n"), 0o644))

	// WHEN the config is resolved
	_, err := resolveConfig(newTestCommand(t, "--config", path))

	// THEN strict parsing rejects it
	assert.Error(t, err)
}

func TestResolveConfig_CheckDelayNotInsideSlot_ReturnsError(t *testing.T) {
	// GIVEN a check delay equal to the slot duration
	c := newTestCommand(t, "--slot", "1000", "--check-delay", "1000")

	// WHEN the config is resolved
	_, err := resolveConfig(c)

	// THEN the run refuses to start
	assert.Error(t, err)
}

func TestResolveConfig_LeaderOutOfRange_ReturnsError(t *testing.T) {
	// GIVEN a leader index past the population
	c := newTestCommand(t, "--population", "2", "--leader", "5")

	// WHEN the config is resolved
	_, err := resolveConfig(c)

	// THEN no leader can be chosen and resolution fails
	assert.Error(t, err)
}

func TestValidateCommand_ValidConfig_PrintsSummary(t *testing.T) {
	// GIVEN the validate subcommand with a small uniform population
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"validate", "--population", "4", "--channels", "2", "--leader", "1"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	// WHEN it is executed
	err := rootCmd.Execute()

	// THEN it reports the expanded configuration
	require.NoError(t, err)
	assert.Contains(t, out.String(), "configuration OK: 4 transmitters, 2 channels, leader 1")
}
