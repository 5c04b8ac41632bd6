package dynamic

import (
	"github.com/inference-sim/offload-sim/sim"
	"github.com/inference-sim/offload-sim/sim/workload"
)

// constantSamplers returns samplers where every job and every resource is
// identical: numTasks chained tasks of the given workload, and all
// bandwidths equal to bandwidth.
func constantSamplers(numTasks int, work, interRelease, deviceRate, serverRate, bandwidth float64) Samplers {
	c := workload.NewConstantSampler
	return Samplers{
		Job: sim.JobSamplers{
			NumTasks:         workload.NewConstantIntSampler(numTasks),
			Workload:         c(work),
			TaskData:         c(bandwidth),
			TaskInputData:    c(bandwidth),
			InterReleaseTime: c(interRelease),
			JobWeight:        c(1),
		},
		CloudUploadBandwidth:   c(bandwidth),
		CloudDownloadBandwidth: c(bandwidth),
		EdgeUploadBandwidth:    c(bandwidth),
		EdgeDownloadBandwidth:  c(bandwidth),
		CloudProcessingRate:    c(serverRate),
		EdgeProcessingRate:     c(serverRate),
		DeviceProcessingRate:   c(deviceRate),
	}
}

func mustRules(sequencing, routing string) (sim.SequencingRule, sim.RoutingRule) {
	s, err := sim.NewSequencingRule(sequencing)
	if err != nil {
		panic(err)
	}
	r, err := sim.NewRoutingRule(routing)
	if err != nil {
		panic(err)
	}
	return s, r
}

// defaultConfig returns a randomized multi-tier configuration.
func defaultConfig(seed int64, devices, edge, cloud, jobs int) Config {
	samplers, err := DefaultSamplers(1, 5)
	if err != nil {
		panic(err)
	}
	seq, route := mustRules("spt", "earliest-completion")
	return Config{
		Seed:                       seed,
		SequencingRule:             seq,
		RoutingRule:                route,
		NumJobsRecorded:            jobs,
		WarmupJobs:                 0,
		NumMobileDevices:           devices,
		NumEdgeServers:             edge,
		NumCloudServers:            cloud,
		CanMobileDeviceProcessTask: true,
		Samplers:                   samplers,
	}
}

func mustNew(cfg Config) *Simulation {
	sm, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return sm
}
