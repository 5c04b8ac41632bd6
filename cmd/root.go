package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"

	"github.com/inference-sim/offload-sim/sim"
	"github.com/inference-sim/offload-sim/sim/dynamic"
	"github.com/inference-sim/offload-sim/sim/trace"
)

var (
	configPath string // Experiment YAML file
	logLevel   string // Log verbosity level
	flagValues = DefaultExperimentConfig()
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "offload-sim",
	Short: "Discrete-event simulator for device/edge/cloud task offloading",
}

// ReplicationResult is one replication's snapshot and its objective value.
type ReplicationResult struct {
	dynamic.Result
	Objective float64             `json:"objective"`
	Trace     *trace.TraceSummary `json:"trace,omitempty"`
}

// RunSummary is the JSON document printed by `run`.
type RunSummary struct {
	Objective    string              `json:"objective"`
	Replications []ReplicationResult `json:"replications"`
	Mean         float64             `json:"mean"`
}

// runCmd executes the experiment using the config file and CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the offloading simulation",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		cfg := DefaultExperimentConfig()
		if configPath != "" {
			if cfg, err = LoadExperimentConfig(configPath); err != nil {
				logrus.Fatalf("%v", err)
			}
			logrus.Infof("Loaded experiment config %s", configPath)
		}
		applyChangedFlags(cmd, cfg, flagValues)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		summary, err := runExperiment(ctx, cfg)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if err := writeSummary(os.Stdout, summary); err != nil {
			logrus.Fatalf("writing results: %v", err)
		}
	},
}

// applyChangedFlags copies every explicitly set flag from flags onto cfg.
func applyChangedFlags(cmd *cobra.Command, cfg, flags *ExperimentConfig) {
	changed := cmd.Flags().Changed
	if changed("seed") {
		cfg.Seed = flags.Seed
	}
	if changed("sequencing") {
		cfg.Sequencing = flags.Sequencing
	}
	if changed("routing") {
		cfg.Routing = flags.Routing
	}
	if changed("objective") {
		cfg.Objective = flags.Objective
	}
	if changed("jobs") {
		cfg.Jobs = flags.Jobs
	}
	if changed("warmup") {
		cfg.Warmup = flags.Warmup
	}
	if changed("replications") {
		cfg.Replications = flags.Replications
	}
	if changed("trace") {
		cfg.Trace = flags.Trace
	}
	if changed("devices") {
		cfg.Devices = flags.Devices
	}
	if changed("edge") {
		cfg.Edge = flags.Edge
	}
	if changed("cloud") {
		cfg.Cloud = flags.Cloud
	}
	if changed("device-can-process") {
		cfg.DeviceCanProcess = flags.DeviceCanProcess
	}
	if changed("min-tasks") {
		cfg.MinTasks = flags.MinTasks
	}
	if changed("max-tasks") {
		cfg.MaxTasks = flags.MaxTasks
	}
	if changed("min-workload") {
		cfg.MinWorkload = flags.MinWorkload
	}
	if changed("max-workload") {
		cfg.MaxWorkload = flags.MaxWorkload
	}
	if changed("inter-release-mean") {
		cfg.InterReleaseMean = flags.InterReleaseMean
	}
}

// runExperiment builds one simulation and runs cfg.Replications
// replications of it. Replication i > 0 rotates the device seeds first, so
// each replication sees a fresh but reproducible workload on the same
// resources.
func runExperiment(ctx context.Context, cfg *ExperimentConfig) (*RunSummary, error) {
	simCfg, err := cfg.SimulationConfig()
	if err != nil {
		return nil, err
	}
	objective, err := sim.ParseObjective(cfg.Objective)
	if err != nil {
		return nil, err
	}
	sm, err := dynamic.New(simCfg)
	if err != nil {
		return nil, err
	}
	var st *trace.SimulationTrace
	if trace.TraceLevel(cfg.Trace) != trace.TraceLevelNone {
		st = trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevel(cfg.Trace)})
		sm.SetTrace(st)
	}

	summary := &RunSummary{Objective: cfg.Objective}
	values := make([]float64, 0, cfg.Replications)
	for i := 0; i < cfg.Replications; i++ {
		if i > 0 {
			sm.RotateSeed()
			if err := sm.ResetState(); err != nil {
				return nil, fmt.Errorf("replication %d: %w", i, err)
			}
		}
		if reason := sm.RunContext(ctx); reason == sim.TerminationCanceled {
			return nil, fmt.Errorf("replication %d: %w", i, ctx.Err())
		}
		rep := ReplicationResult{Result: sm.Result(), Objective: sm.ObjectiveValue(objective)}
		if st != nil {
			rep.Trace = trace.Summarize(st)
		}
		logrus.Infof("replication %d: %s = %g (%s)", i, objective, rep.Objective, rep.Termination)
		summary.Replications = append(summary.Replications, rep)
		values = append(values, rep.Objective)
	}
	summary.Mean = replicationMean(values)
	return summary, nil
}

// replicationMean is the mean objective, or the sentinel if any replication
// did not finish.
func replicationMean(values []float64) float64 {
	for _, v := range values {
		if v == sim.SentinelWorst {
			return sim.SentinelWorst
		}
	}
	return stat.Mean(values, nil)
}

func writeSummary(w io.Writer, summary *RunSummary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().StringVar(&configPath, "config", "", "Experiment YAML file; flags override its values when set")
	runCmd.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	addExperimentFlags(runCmd, flagValues)

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}

// addExperimentFlags binds one flag per ExperimentConfig field to f, using
// f's current values as defaults.
func addExperimentFlags(c *cobra.Command, f *ExperimentConfig) {
	c.Flags().Int64Var(&f.Seed, "seed", f.Seed, "Master seed for capacities and workloads")
	c.Flags().StringVar(&f.Sequencing, "sequencing", f.Sequencing, fmt.Sprintf("Sequencing rule %v", sim.ValidSequencingRuleNames()))
	c.Flags().StringVar(&f.Routing, "routing", f.Routing, fmt.Sprintf("Routing rule %v", sim.ValidRoutingRuleNames()))
	c.Flags().StringVar(&f.Objective, "objective", f.Objective, "Objective (makespan, mean-flowtime)")
	c.Flags().IntVar(&f.Jobs, "jobs", f.Jobs, "Number of jobs recorded per replication")
	c.Flags().IntVar(&f.Warmup, "warmup", f.Warmup, "Completed jobs excluded before recording starts")
	c.Flags().IntVar(&f.Replications, "replications", f.Replications, "Number of replications, each with rotated device seeds")
	c.Flags().StringVar(&f.Trace, "trace", f.Trace, "Trace level (none, events, decisions)")

	// System shape
	c.Flags().IntVar(&f.Devices, "devices", f.Devices, "Number of mobile devices")
	c.Flags().IntVar(&f.Edge, "edge", f.Edge, "Number of edge servers")
	c.Flags().IntVar(&f.Cloud, "cloud", f.Cloud, "Number of cloud servers")
	c.Flags().BoolVar(&f.DeviceCanProcess, "device-can-process", f.DeviceCanProcess, "Whether devices may execute tasks locally")

	// Workload ranges
	c.Flags().IntVar(&f.MinTasks, "min-tasks", f.MinTasks, "Min tasks per job")
	c.Flags().IntVar(&f.MaxTasks, "max-tasks", f.MaxTasks, "Max tasks per job")
	c.Flags().Float64Var(&f.MinWorkload, "min-workload", f.MinWorkload, "Min task workload")
	c.Flags().Float64Var(&f.MaxWorkload, "max-workload", f.MaxWorkload, "Max task workload")
	c.Flags().Float64Var(&f.InterReleaseMean, "inter-release-mean", f.InterReleaseMean, "Mean gap between two jobs of one device")
}
