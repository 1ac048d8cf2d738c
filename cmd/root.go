package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/mac-sim/mac-sim/sim"
	"github.com/mac-sim/mac-sim/sim/recorder"
	"github.com/mac-sim/mac-sim/sim/trace"
	"github.com/mac-sim/mac-sim/sim/traffic"
)

var (
	// CLI flags for run configuration
	configPath       string  // YAML run configuration
	seed             int64   // Master seed for every random stream
	horizon          int64   // Total simulation time (in ticks)
	warmup           int64   // Channel throughput at or before this tick is dropped
	slotDuration     int64   // Slot length (in ticks)
	checkDelay       int64   // Offset of the mid-slot collision check (in ticks)
	clearDuration    int64   // Leader clear period (in ticks)
	maxCollisions    int     // Abandon a packet after this many collisions (0 = never)
	population       int     // Number of transmitters (uniform shorthand)
	channels         int     // Channels per transmitter (uniform shorthand)
	leaderIndex      int     // Index of the leader transmitter (uniform shorthand)
	arrivalProcess   string  // poisson, gamma or weibull
	meanInterarrival float64 // Mean packet interarrival (in ticks)
	arrivalCV        float64 // Coefficient of variation for gamma/weibull

	// CLI flags for output
	logLevel   string // Log verbosity level
	traceLevel string // Decision trace verbosity
	dbPath     string // SQLite file for emitted samples ("" = disabled)
	recordDB   bool   // Persist samples even without --db (auto-named file)
	showSeries bool   // Print every sample series summary
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "mac-sim",
	Short: "Discrete-event simulator for multi-channel slotted random access",
}

// runCmd executes the simulation using parameters from the config file and CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the MAC simulation",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		cfg, err := resolveConfig(cmd)
		if err != nil {
			logrus.Fatalf("Invalid configuration: %v", err)
		}
		if !trace.IsValidTraceLevel(traceLevel) {
			logrus.Fatalf("Invalid trace level: %s", traceLevel)
		}

		startTime := time.Now()
		clock := sim.NewSimulator(cfg.Horizon)
		opts := []sim.Option{sim.WithSimulator(clock)}

		tr := trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevel(traceLevel)})
		if tr != nil {
			opts = append(opts, sim.WithTrace(tr))
		}

		var rec *recorder.SQLiteRecorder
		if dbPath != "" || recordDB {
			rec = recorder.NewSQLiteRecorder(dbPath, clock)
			if err := rec.Init(); err != nil {
				logrus.Fatalf("Unable to open sample database: %v", err)
			}
			opts = append(opts, sim.WithStats(rec))
		}

		network, err := sim.NewNetwork(cfg, opts...)
		if err != nil {
			logrus.Fatalf("Invalid configuration: %v", err)
		}
		if rec != nil {
			if err := rec.RecordRun(network.Config); err != nil {
				logrus.Fatalf("Unable to record run: %v", err)
			}
		}

		metrics := network.Run()
		metrics.Print(os.Stdout)
		if showSeries {
			printSeries(network.Summary)
		}
		if tr != nil {
			printTraceSummary(trace.Summarize(tr))
		}
		if rec != nil {
			if err := rec.Close(); err != nil {
				logrus.Fatalf("Unable to write samples: %v", err)
			}
			logrus.Infof("Wrote %d samples to %s", rec.Written(), rec.Path())
		}

		logrus.Infof("Simulation complete in %v.", time.Since(startTime))
	},
}

// validateCmd checks a configuration without running it
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a run configuration without simulating",
	RunE: func(cmd *cobra.Command, args []string) error {
		setupLogging()
		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}
		cfg.WarnAnomalies()
		leader := 0
		for i, tc := range cfg.Transmitters {
			if tc.Leader {
				leader = i
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "configuration OK: %d transmitters, %d channels, leader %d\n",
			len(cfg.Transmitters), cfg.MaxChannels(), leader)
		return nil
	},
}

func setupLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// resolveConfig loads --config (if any), applies explicitly set flags on top,
// expands the uniform shorthand and validates the result.
func resolveConfig(cmd *cobra.Command) (sim.Config, error) {
	cfg := sim.DefaultConfig()
	if configPath != "" {
		loaded, err := sim.LoadConfig(configPath)
		if err != nil {
			return sim.Config{}, err
		}
		cfg = loaded
	}
	applyFlagOverrides(cmd, &cfg)

	cfg, err := cfg.Expand()
	if err != nil {
		return sim.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return sim.Config{}, err
	}
	return cfg, nil
}

// applyFlagOverrides copies changed flags into cfg. Each uniform shorthand
// field is overridden only by its own flag. When the file gives neither
// transmitters nor a shorthand population, the shorthand flags (with their
// defaults) describe the population.
func applyFlagOverrides(cmd *cobra.Command, cfg *sim.Config) {
	flags := cmd.Flags()
	if configPath == "" || flags.Changed("seed") {
		cfg.Seed = seed
	}
	if configPath == "" || flags.Changed("horizon") {
		cfg.Horizon = horizon
	}
	if configPath == "" || flags.Changed("warmup") {
		cfg.Warmup = warmup
	}
	if configPath == "" || flags.Changed("slot") {
		cfg.SlotDuration = slotDuration
	}
	if configPath == "" || flags.Changed("check-delay") {
		cfg.CheckDelay = checkDelay
	}
	if configPath == "" || flags.Changed("clear") {
		cfg.ClearDuration = clearDuration
	}
	if configPath == "" || flags.Changed("max-collisions") {
		cfg.MaxCollisions = maxCollisions
	}

	noPopulation := len(cfg.Transmitters) == 0 && cfg.Population == 0 && cfg.Channels == 0 && cfg.Arrival == nil
	if noPopulation || flags.Changed("population") {
		cfg.Population = population
	}
	if noPopulation || flags.Changed("channels") {
		cfg.Channels = channels
	}
	if noPopulation || flags.Changed("leader") {
		cfg.LeaderIndex = leaderIndex
	}
	if !noPopulation && !flags.Changed("arrival") && !flags.Changed("mean-interarrival") && !flags.Changed("cv") {
		return
	}
	spec := traffic.ArrivalSpec{Process: arrivalProcess, MeanInterarrival: meanInterarrival}
	if cfg.Arrival != nil {
		spec = *cfg.Arrival
	}
	if flags.Changed("arrival") {
		spec.Process = arrivalProcess
	}
	if flags.Changed("mean-interarrival") {
		spec.MeanInterarrival = meanInterarrival
	}
	if flags.Changed("cv") {
		cv := arrivalCV
		spec.CV = &cv
	}
	cfg.Arrival = &spec
}

func printSeries(summary *sim.SummaryStats) {
	fmt.Println("=== Sample Series ===")
	fmt.Printf("%-36s %10s %12s %12s %12s\n", "name", "count", "mean", "min", "max")
	for _, name := range summary.Names() {
		ser, _ := summary.Series(name)
		fmt.Printf("%-36s %10d %12.4f %12.4f %12.4f\n", name, ser.Count, ser.Mean(), ser.Min, ser.Max)
	}
}

func printTraceSummary(s *trace.TraceSummary) {
	fmt.Println("=== Decision Trace ===")
	fmt.Printf("Attempts             : %d\n", s.Attempts)
	fmt.Printf("Gate Failures        : %d\n", s.GateFailures)
	fmt.Printf("Collisions           : %d\n", s.Collisions)
	fmt.Printf("Deliveries           : %d\n", s.Deliveries)
	fmt.Printf("Abandoned            : %d\n", s.Abandoned)
	fmt.Printf("Collision Rate       : %.4f\n", s.CollisionRate)
	fmt.Printf("Mean Backoff         : %.2f slots (max %d)\n", s.MeanBackoff, s.MaxBackoff)
	fmt.Printf("Mean Delay           : %.2f ticks (stddev %.2f)\n", s.MeanDelay, s.DelayStdDev)
}

// Execute runs the CLI root command. Exit goes through atexit so buffered
// samples are flushed, including after logrus.Fatalf.
func Execute() {
	logrus.StandardLogger().ExitFunc = atexit.Exit
	if err := rootCmd.Execute(); err != nil {
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

func registerConfigFlags(cmd *cobra.Command) {
	defaults := sim.DefaultConfig()
	cmd.Flags().StringVar(&configPath, "config", "", "YAML run configuration; explicitly set flags override it")
	cmd.Flags().Int64Var(&seed, "seed", defaults.Seed, "Seed for every random stream (gate, backoff, channel, traffic)")
	cmd.Flags().Int64Var(&horizon, "horizon", defaults.Horizon, "Total simulation horizon (in ticks)")
	cmd.Flags().Int64Var(&warmup, "warmup", defaults.Warmup, "Warm-up boundary; channel throughput at or before it is discarded (in ticks)")
	cmd.Flags().Int64Var(&slotDuration, "slot", defaults.SlotDuration, "Slot duration (in ticks)")
	cmd.Flags().Int64Var(&checkDelay, "check-delay", defaults.CheckDelay, "Mid-slot collision check offset (in ticks)")
	cmd.Flags().Int64Var(&clearDuration, "clear", defaults.ClearDuration, "Leader clear period (in ticks)")
	cmd.Flags().IntVar(&maxCollisions, "max-collisions", defaults.MaxCollisions, "Abandon a packet after this many collisions (0 = never)")

	cmd.Flags().IntVar(&population, "population", 10, "Number of transmitters")
	cmd.Flags().IntVar(&channels, "channels", 4, "Channels visible to each transmitter")
	cmd.Flags().IntVar(&leaderIndex, "leader", 0, "Index of the leader transmitter")
	cmd.Flags().StringVar(&arrivalProcess, "arrival", traffic.ProcessPoisson, "Interarrival process (poisson, gamma, weibull)")
	cmd.Flags().Float64Var(&meanInterarrival, "mean-interarrival", 5000, "Mean packet interarrival per transmitter (in ticks)")
	cmd.Flags().Float64Var(&arrivalCV, "cv", 1.0, "Coefficient of variation for gamma/weibull arrivals")

	cmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
}

// init sets up CLI flags and subcommands
func init() {
	registerConfigFlags(runCmd)
	runCmd.Flags().StringVar(&traceLevel, "trace-level", string(trace.TraceLevelNone), "Decision trace level (none, decisions)")
	runCmd.Flags().StringVar(&dbPath, "db", "", "SQLite file to persist every emitted sample")
	runCmd.Flags().BoolVar(&recordDB, "record", false, "Persist samples to an auto-named SQLite file")
	runCmd.Flags().BoolVar(&showSeries, "series", false, "Print a summary of every sample series")

	registerConfigFlags(validateCmd)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
}
