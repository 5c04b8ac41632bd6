package workload

import (
	"fmt"
	"math"
	"strconv"
)

// DistSpec parameterizes a value source. Loaded from the `distributions`
// section of an experiment YAML file.
type DistSpec struct {
	Type   string             `yaml:"type"`
	Params map[string]float64 `yaml:"params,omitempty"`
}

// Valid value registries.
var (
	validRealDistTypes = map[string]bool{
		"uniform": true, "exponential": true, "constant": true, "categorical": true,
		"two-six-two": true, "edge-bandwidth": true, "cloud-bandwidth": true,
	}
	validIntegerDistTypes = map[string]bool{
		"uniform-int": true, "constant": true,
	}
)

// requireParam checks that all required keys exist in a params map.
func requireParam(params map[string]float64, keys ...string) error {
	for _, k := range keys {
		if _, ok := params[k]; !ok {
			return fmt.Errorf("distribution requires parameter %q", k)
		}
	}
	return nil
}

// validate checks the distribution type against the given registry and
// rejects non-finite parameters.
func (d DistSpec) validate(registry map[string]bool) error {
	if !registry[d.Type] {
		return fmt.Errorf("unknown distribution type %q", d.Type)
	}
	for name, val := range d.Params {
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return fmt.Errorf("params.%s must be a finite number, got %f", name, val)
		}
	}
	return nil
}

// NewRealSampler creates a RealSampler from a DistSpec.
//
// Supported types:
//   - uniform: min, max
//   - exponential: mean
//   - constant: value
//   - categorical: params keyed by the value itself ("1", "2.5", ...) → probability
//   - two-six-two, edge-bandwidth, cloud-bandwidth: presets, no params
func NewRealSampler(spec DistSpec) (RealSampler, error) {
	if err := spec.validate(validRealDistTypes); err != nil {
		return nil, err
	}
	switch spec.Type {
	case "uniform":
		if err := requireParam(spec.Params, "min", "max"); err != nil {
			return nil, err
		}
		s, err := NewUniformSampler(spec.Params["min"], spec.Params["max"])
		if err != nil {
			return nil, err
		}
		return s, nil

	case "exponential":
		if err := requireParam(spec.Params, "mean"); err != nil {
			return nil, err
		}
		s, err := NewExponentialSampler(spec.Params["mean"])
		if err != nil {
			return nil, err
		}
		return s, nil

	case "constant":
		if err := requireParam(spec.Params, "value"); err != nil {
			return nil, err
		}
		return NewConstantSampler(spec.Params["value"]), nil

	case "categorical":
		pmf := make(map[float64]float64, len(spec.Params))
		for k, p := range spec.Params {
			v, err := strconv.ParseFloat(k, 64)
			if err != nil {
				return nil, fmt.Errorf("categorical key %q is not a number: %w", k, err)
			}
			pmf[v] = p
		}
		s, err := NewCategoricalSampler(pmf)
		if err != nil {
			return nil, err
		}
		return s, nil

	case "two-six-two":
		return NewTwoSixTwoSampler(), nil

	case "edge-bandwidth":
		return NewEdgeBandwidthSampler(), nil

	case "cloud-bandwidth":
		return NewCloudBandwidthSampler(), nil

	default:
		return nil, fmt.Errorf("unhandled distribution type %q", spec.Type)
	}
}

// NewIntegerSampler creates an IntegerSampler from a DistSpec.
// Supported types: uniform-int (min, max), constant (value).
func NewIntegerSampler(spec DistSpec) (IntegerSampler, error) {
	if err := spec.validate(validIntegerDistTypes); err != nil {
		return nil, err
	}
	switch spec.Type {
	case "uniform-int":
		if err := requireParam(spec.Params, "min", "max"); err != nil {
			return nil, err
		}
		s, err := NewUniformIntSampler(int(spec.Params["min"]), int(spec.Params["max"]))
		if err != nil {
			return nil, err
		}
		return s, nil

	case "constant":
		if err := requireParam(spec.Params, "value"); err != nil {
			return nil, err
		}
		return NewConstantIntSampler(int(spec.Params["value"])), nil

	default:
		return nil, fmt.Errorf("unhandled distribution type %q", spec.Type)
	}
}
