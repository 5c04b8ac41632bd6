package cmd

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/inference-sim/offload-sim/sim"
	"github.com/inference-sim/offload-sim/sim/dynamic"
	"github.com/inference-sim/offload-sim/sim/trace"
	"github.com/inference-sim/offload-sim/sim/workload"
)

// ExperimentConfig is the experiment file layout. Every field has a CLI flag
// of the same meaning; flags win only when explicitly set.
type ExperimentConfig struct {
	Seed         int64  `yaml:"seed"`
	Sequencing   string `yaml:"sequencing"`
	Routing      string `yaml:"routing"`
	Objective    string `yaml:"objective"`
	Jobs         int    `yaml:"jobs"`
	Warmup       int    `yaml:"warmup"`
	Replications int    `yaml:"replications"`
	Trace        string `yaml:"trace"`

	Devices          int  `yaml:"devices"`
	Edge             int  `yaml:"edge"`
	Cloud            int  `yaml:"cloud"`
	DeviceCanProcess bool `yaml:"device_can_process"`

	MinTasks         int     `yaml:"min_tasks"`
	MaxTasks         int     `yaml:"max_tasks"`
	MinWorkload      float64 `yaml:"min_workload"`
	MaxWorkload      float64 `yaml:"max_workload"`
	InterReleaseMean float64 `yaml:"inter_release_mean"`

	// Distributions replaces individual value sources, keyed by source name
	// (see distributionKeys).
	Distributions map[string]workload.DistSpec `yaml:"distributions,omitempty"`
}

// distributionKeys lists the value sources an experiment file may override.
var distributionKeys = map[string]bool{
	"num_tasks":                true,
	"workload":                 true,
	"task_data":                true,
	"task_input_data":          true,
	"inter_release_time":       true,
	"job_weight":               true,
	"cloud_upload_bandwidth":   true,
	"cloud_download_bandwidth": true,
	"edge_upload_bandwidth":    true,
	"edge_download_bandwidth":  true,
	"cloud_processing_rate":    true,
	"edge_processing_rate":     true,
	"device_processing_rate":   true,
}

// DefaultExperimentConfig returns the values used when neither a file nor a
// flag sets a field.
func DefaultExperimentConfig() *ExperimentConfig {
	return &ExperimentConfig{
		Seed:             42,
		Sequencing:       "spt",
		Routing:          "earliest-completion",
		Objective:        string(sim.ObjectiveMeanFlowTime),
		Jobs:             100,
		Warmup:           0,
		Replications:     1,
		Trace:            string(trace.TraceLevelNone),
		Devices:          5,
		Edge:             2,
		Cloud:            1,
		DeviceCanProcess: true,
		MinTasks:         1,
		MaxTasks:         5,
		MinWorkload:      500,
		MaxWorkload:      150000,
		InterReleaseMean: dynamic.DefaultInterReleaseMean,
	}
}

// LoadExperimentConfig reads path over the defaults. Unknown keys are errors.
func LoadExperimentConfig(path string) (*ExperimentConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading experiment config: %w", err)
	}
	cfg := DefaultExperimentConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parsing experiment config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the fields the simulation config cannot check itself.
func (c *ExperimentConfig) Validate() error {
	if c.Replications < 1 {
		return fmt.Errorf("replications must be >= 1, got %d", c.Replications)
	}
	if !sim.IsValidSequencingRule(c.Sequencing) {
		return fmt.Errorf("unknown sequencing rule %q; valid: %v", c.Sequencing, sim.ValidSequencingRuleNames())
	}
	if !sim.IsValidRoutingRule(c.Routing) {
		return fmt.Errorf("unknown routing rule %q; valid: %v", c.Routing, sim.ValidRoutingRuleNames())
	}
	if _, err := sim.ParseObjective(c.Objective); err != nil {
		return err
	}
	if !trace.IsValidTraceLevel(c.Trace) {
		return fmt.Errorf("unknown trace level %q", c.Trace)
	}
	keys := make([]string, 0, len(c.Distributions))
	for k := range c.Distributions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !distributionKeys[k] {
			return fmt.Errorf("distributions: unknown value source %q", k)
		}
	}
	return nil
}

// Samplers builds the standard samplers from the ranges, then applies the
// distribution overrides. The result is validated, so an override that can
// draw a negative size or gap, or fewer than one task, is rejected here.
func (c *ExperimentConfig) Samplers() (dynamic.Samplers, error) {
	r := dynamic.StandardRanges(c.MinTasks, c.MaxTasks, c.MinWorkload, c.MaxWorkload)
	r.InterReleaseMean = c.InterReleaseMean
	s, err := r.Samplers()
	if err != nil {
		return dynamic.Samplers{}, err
	}

	if spec, ok := c.Distributions["num_tasks"]; ok {
		if s.Job.NumTasks, err = workload.NewIntegerSampler(spec); err != nil {
			return dynamic.Samplers{}, fmt.Errorf("distributions.num_tasks: %w", err)
		}
	}
	overrides := map[string]*workload.RealSampler{
		"workload":                 &s.Job.Workload,
		"task_data":                &s.Job.TaskData,
		"task_input_data":          &s.Job.TaskInputData,
		"inter_release_time":       &s.Job.InterReleaseTime,
		"job_weight":               &s.Job.JobWeight,
		"cloud_upload_bandwidth":   &s.CloudUploadBandwidth,
		"cloud_download_bandwidth": &s.CloudDownloadBandwidth,
		"edge_upload_bandwidth":    &s.EdgeUploadBandwidth,
		"edge_download_bandwidth":  &s.EdgeDownloadBandwidth,
		"cloud_processing_rate":    &s.CloudProcessingRate,
		"edge_processing_rate":     &s.EdgeProcessingRate,
		"device_processing_rate":   &s.DeviceProcessingRate,
	}
	for name, spec := range c.Distributions {
		dst, ok := overrides[name]
		if !ok {
			continue
		}
		sampler, err := workload.NewRealSampler(spec)
		if err != nil {
			return dynamic.Samplers{}, fmt.Errorf("distributions.%s: %w", name, err)
		}
		*dst = sampler
	}
	if err := s.Validate(); err != nil {
		return dynamic.Samplers{}, fmt.Errorf("distributions: %w", err)
	}
	return s, nil
}

// SimulationConfig resolves rule names and samplers into a dynamic.Config.
func (c *ExperimentConfig) SimulationConfig() (dynamic.Config, error) {
	if err := c.Validate(); err != nil {
		return dynamic.Config{}, err
	}
	seq, err := sim.NewSequencingRule(c.Sequencing)
	if err != nil {
		return dynamic.Config{}, err
	}
	route, err := sim.NewRoutingRule(c.Routing)
	if err != nil {
		return dynamic.Config{}, err
	}
	samplers, err := c.Samplers()
	if err != nil {
		return dynamic.Config{}, err
	}
	return dynamic.Config{
		Seed:                       c.Seed,
		SequencingRule:             seq,
		RoutingRule:                route,
		NumJobsRecorded:            c.Jobs,
		WarmupJobs:                 c.Warmup,
		NumMobileDevices:           c.Devices,
		NumEdgeServers:             c.Edge,
		NumCloudServers:            c.Cloud,
		CanMobileDeviceProcessTask: c.DeviceCanProcess,
		Samplers:                   samplers,
	}, nil
}
