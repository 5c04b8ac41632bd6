package sim

import (
	"github.com/inference-sim/offload-sim/sim/workload"
)

// constantSamplers returns samplers that always yield the same job shape.
func constantSamplers(numTasks int, work, data, inputData, interRelease, weight float64) JobSamplers {
	return JobSamplers{
		NumTasks:         workload.NewConstantIntSampler(numTasks),
		Workload:         workload.NewConstantSampler(work),
		TaskData:         workload.NewConstantSampler(data),
		TaskInputData:    workload.NewConstantSampler(inputData),
		InterReleaseTime: workload.NewConstantSampler(interRelease),
		JobWeight:        workload.NewConstantSampler(weight),
	}
}

// uniformSamplers returns randomized samplers with the default value ranges.
func uniformSamplers() JobSamplers {
	numTasks, _ := workload.NewUniformIntSampler(1, 5)
	work, _ := workload.NewUniformSampler(500, 150000)
	data, _ := workload.NewUniformSampler(1024, 20480)
	input, _ := workload.NewUniformSampler(100, 300)
	inter, _ := workload.NewExponentialSampler(200)
	return JobSamplers{
		NumTasks:         numTasks,
		Workload:         work,
		TaskData:         data,
		TaskInputData:    input,
		InterReleaseTime: inter,
		JobWeight:        workload.NewTwoSixTwoSampler(),
	}
}

func mustSequencingRule(name string) SequencingRule {
	r, err := NewSequencingRule(name)
	if err != nil {
		panic(err)
	}
	return r
}

func mustRoutingRule(name string) RoutingRule {
	r, err := NewRoutingRule(name)
	if err != nil {
		panic(err)
	}
	return r
}

// addTestDevice creates a device with the given rules and registers it.
func addTestDevice(state *SystemState, id int, rate float64, capable bool, seed int64, samplers JobSamplers, sequencing, routing string) *MobileDevice {
	d := NewMobileDevice(DeviceConfig{
		ID:             id,
		ProcessingRate: rate,
		CanProcessTask: capable,
		Seed:           seed,
		Samplers:       samplers,
		SequencingRule: mustSequencingRule(sequencing),
		RoutingRule:    mustRoutingRule(routing),
	}, state)
	state.AddDevice(d)
	return d
}

// testOptions builds n detached options with proc times 1..n and fixed transfers.
func testOptions(n int, upload, download float64) []*TaskOption {
	opts := make([]*TaskOption, n)
	for i := range opts {
		opts[i] = NewTaskOption(float64(i+1), upload, download)
	}
	return opts
}

func mustGenerateJob(d *MobileDevice) *Job {
	job, err := d.GenerateJob()
	if err != nil {
		panic(err)
	}
	return job
}
