package dynamic

import (
	"fmt"

	"github.com/inference-sim/offload-sim/sim"
	"github.com/inference-sim/offload-sim/sim/workload"
)

// DefaultInterReleaseMean is the mean gap between two jobs of one device
// used by the convenience ranges.
const DefaultInterReleaseMean = 1000.0

// Samplers are the value sources of one simulation instance: the job shape
// drawn by every device, plus the static capacities drawn once per resource.
type Samplers struct {
	Job sim.JobSamplers

	CloudUploadBandwidth   workload.RealSampler
	CloudDownloadBandwidth workload.RealSampler
	EdgeUploadBandwidth    workload.RealSampler
	EdgeDownloadBandwidth  workload.RealSampler

	CloudProcessingRate  workload.RealSampler
	EdgeProcessingRate   workload.RealSampler
	DeviceProcessingRate workload.RealSampler
}

// Validate returns an error naming the first missing sampler.
func (s Samplers) Validate() error {
	if err := s.Job.Validate(); err != nil {
		return err
	}
	required := []struct {
		name    string
		missing bool
	}{
		{"CloudUploadBandwidth", s.CloudUploadBandwidth == nil},
		{"CloudDownloadBandwidth", s.CloudDownloadBandwidth == nil},
		{"EdgeUploadBandwidth", s.EdgeUploadBandwidth == nil},
		{"EdgeDownloadBandwidth", s.EdgeDownloadBandwidth == nil},
		{"CloudProcessingRate", s.CloudProcessingRate == nil},
		{"EdgeProcessingRate", s.EdgeProcessingRate == nil},
		{"DeviceProcessingRate", s.DeviceProcessingRate == nil},
	}
	for _, r := range required {
		if r.missing {
			return fmt.Errorf("sampler %s is required", r.name)
		}
	}
	return nil
}

// Ranges are literal (min, max) bounds from which convenience samplers are
// built: uniform for sizes and rates, exponential inter-release gaps, the
// 2:6:2 weight mix and the tier bandwidth presets.
type Ranges struct {
	MinNumTasks, MaxNumTasks           int
	MinWorkload, MaxWorkload           float64
	MinTaskData, MaxTaskData           float64
	MinTaskInputData, MaxTaskInputData float64
	InterReleaseMean                   float64

	MinProcessingRateCloud, MaxProcessingRateCloud   float64
	MinProcessingRateEdge, MaxProcessingRateEdge     float64
	MinProcessingRateDevice, MaxProcessingRateDevice float64
}

// DefaultRanges returns the default ranges with the given task-count bounds.
func DefaultRanges(minTasks, maxTasks int) Ranges {
	return Ranges{
		MinNumTasks:             minTasks,
		MaxNumTasks:             maxTasks,
		MinWorkload:             500,
		MaxWorkload:             150000,
		MinTaskData:             1024,
		MaxTaskData:             1024 * 20,
		MinTaskInputData:        100,
		MaxTaskInputData:        300,
		InterReleaseMean:        DefaultInterReleaseMean,
		MinProcessingRateCloud:  500,
		MaxProcessingRateCloud:  1500,
		MinProcessingRateEdge:   250,
		MaxProcessingRateEdge:   500,
		MinProcessingRateDevice: 10,
		MaxProcessingRateDevice: 250,
	}
}

// StandardRanges returns DefaultRanges with explicit workload bounds and
// smaller task data (up to 5 KiB).
func StandardRanges(minTasks, maxTasks int, minWorkload, maxWorkload float64) Ranges {
	r := DefaultRanges(minTasks, maxTasks)
	r.MinWorkload, r.MaxWorkload = minWorkload, maxWorkload
	r.MaxTaskData = 1024 * 5
	return r
}

// Samplers builds the convenience samplers. Returns an error on any empty
// or inverted range, and on negative sizes.
func (r Ranges) Samplers() (Samplers, error) {
	if r.MinNumTasks < 1 {
		return Samplers{}, fmt.Errorf("task count: minimum must be >= 1, got %d", r.MinNumTasks)
	}
	nonNegative := []struct {
		name string
		min  float64
	}{
		{"workload", r.MinWorkload},
		{"task data", r.MinTaskData},
		{"task input data", r.MinTaskInputData},
	}
	for _, n := range nonNegative {
		if !(n.min >= 0) {
			return Samplers{}, fmt.Errorf("%s: minimum must be >= 0, got %f", n.name, n.min)
		}
	}
	numTasks, err := workload.NewUniformIntSampler(r.MinNumTasks, r.MaxNumTasks)
	if err != nil {
		return Samplers{}, fmt.Errorf("task count: %w", err)
	}
	uniform := func(name string, min, max float64) (workload.RealSampler, error) {
		s, err := workload.NewUniformSampler(min, max)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return s, nil
	}
	var s Samplers
	s.Job.NumTasks = numTasks
	if s.Job.Workload, err = uniform("workload", r.MinWorkload, r.MaxWorkload); err != nil {
		return Samplers{}, err
	}
	if s.Job.TaskData, err = uniform("task data", r.MinTaskData, r.MaxTaskData); err != nil {
		return Samplers{}, err
	}
	if s.Job.TaskInputData, err = uniform("task input data", r.MinTaskInputData, r.MaxTaskInputData); err != nil {
		return Samplers{}, err
	}
	inter, err := workload.NewExponentialSampler(r.InterReleaseMean)
	if err != nil {
		return Samplers{}, fmt.Errorf("inter-release time: %w", err)
	}
	s.Job.InterReleaseTime = inter
	s.Job.JobWeight = workload.NewTwoSixTwoSampler()

	s.CloudUploadBandwidth = workload.NewCloudBandwidthSampler()
	s.CloudDownloadBandwidth = workload.NewCloudBandwidthSampler()
	s.EdgeUploadBandwidth = workload.NewEdgeBandwidthSampler()
	s.EdgeDownloadBandwidth = workload.NewEdgeBandwidthSampler()

	if s.CloudProcessingRate, err = uniform("cloud processing rate", r.MinProcessingRateCloud, r.MaxProcessingRateCloud); err != nil {
		return Samplers{}, err
	}
	if s.EdgeProcessingRate, err = uniform("edge processing rate", r.MinProcessingRateEdge, r.MaxProcessingRateEdge); err != nil {
		return Samplers{}, err
	}
	if s.DeviceProcessingRate, err = uniform("device processing rate", r.MinProcessingRateDevice, r.MaxProcessingRateDevice); err != nil {
		return Samplers{}, err
	}
	return s, nil
}

// DefaultSamplers is DefaultRanges(minTasks, maxTasks).Samplers().
func DefaultSamplers(minTasks, maxTasks int) (Samplers, error) {
	return DefaultRanges(minTasks, maxTasks).Samplers()
}

// StandardSamplers is StandardRanges(...).Samplers().
func StandardSamplers(minTasks, maxTasks int, minWorkload, maxWorkload float64) (Samplers, error) {
	return StandardRanges(minTasks, maxTasks, minWorkload, maxWorkload).Samplers()
}

// Config holds the construction parameters of a Simulation.
type Config struct {
	Seed            int64
	SequencingRule  sim.SequencingRule
	RoutingRule     sim.RoutingRule
	NumJobsRecorded int // recorded-job target
	WarmupJobs      int // completions excluded before recording starts

	NumMobileDevices int
	NumEdgeServers   int
	NumCloudServers  int

	CanMobileDeviceProcessTask bool

	Samplers Samplers
}

// Validate checks every parameter eagerly.
func (c Config) Validate() error {
	if c.NumJobsRecorded < 1 {
		return fmt.Errorf("NumJobsRecorded must be >= 1, got %d", c.NumJobsRecorded)
	}
	if c.WarmupJobs < 0 {
		return fmt.Errorf("WarmupJobs must be >= 0, got %d", c.WarmupJobs)
	}
	if c.NumMobileDevices < 1 {
		return fmt.Errorf("NumMobileDevices must be >= 1, got %d", c.NumMobileDevices)
	}
	if c.NumEdgeServers < 0 || c.NumCloudServers < 0 {
		return fmt.Errorf("server counts must be >= 0, got edge=%d cloud=%d", c.NumEdgeServers, c.NumCloudServers)
	}
	if !c.CanMobileDeviceProcessTask && c.NumEdgeServers+c.NumCloudServers == 0 {
		return fmt.Errorf("devices cannot process tasks and there are no servers")
	}
	if c.SequencingRule == nil {
		return fmt.Errorf("SequencingRule is required")
	}
	if c.RoutingRule == nil {
		return fmt.Errorf("RoutingRule is required")
	}
	if err := c.Samplers.Validate(); err != nil {
		return fmt.Errorf("samplers: %w", err)
	}
	return nil
}
