package workload

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// RealSampler draws the next real value from a seeded generator.
// Implementations hold only immutable parameters; all randomness comes from rng,
// so the same rng state always yields the same value.
type RealSampler interface {
	Next(rng *rand.Rand) float64
}

// IntegerSampler draws the next integer value from a seeded generator.
type IntegerSampler interface {
	Next(rng *rand.Rand) int
}

// LowerBound returns the smallest value s can draw. The bool is false when s
// does not declare a bound.
func LowerBound(s RealSampler) (float64, bool) {
	if b, ok := s.(interface{ Min() float64 }); ok {
		return b.Min(), true
	}
	return 0, false
}

// IntLowerBound is LowerBound for integer samplers.
func IntLowerBound(s IntegerSampler) (int, bool) {
	if b, ok := s.(interface{ Min() int }); ok {
		return b.Min(), true
	}
	return 0, false
}

// UniformSampler draws from the continuous uniform distribution on [min, max].
type UniformSampler struct {
	dist distuv.Uniform
}

// NewUniformSampler returns an error when the range is empty or not finite.
// A degenerate range (min == max) is allowed and always yields min.
func NewUniformSampler(min, max float64) (*UniformSampler, error) {
	if err := validateRange("uniform", min, max); err != nil {
		return nil, err
	}
	return &UniformSampler{dist: distuv.Uniform{Min: min, Max: max}}, nil
}

func (s *UniformSampler) Next(rng *rand.Rand) float64 {
	if s.dist.Min == s.dist.Max {
		return s.dist.Min
	}
	return s.dist.Quantile(rng.Float64())
}

// Min returns the lower bound of the sampled range.
func (s *UniformSampler) Min() float64 { return s.dist.Min }

// Max returns the upper bound of the sampled range.
func (s *UniformSampler) Max() float64 { return s.dist.Max }

// UniformIntSampler draws integers uniformly from [min, max] inclusive.
type UniformIntSampler struct {
	min, max int
}

// NewUniformIntSampler returns an error when max < min.
func NewUniformIntSampler(min, max int) (*UniformIntSampler, error) {
	if max < min {
		return nil, fmt.Errorf("uniform-int range is empty: min %d > max %d", min, max)
	}
	return &UniformIntSampler{min: min, max: max}, nil
}

func (s *UniformIntSampler) Next(rng *rand.Rand) int {
	if s.min == s.max {
		return s.min
	}
	return s.min + rng.Intn(s.max-s.min+1)
}

func (s *UniformIntSampler) Min() int { return s.min }

// ExponentialSampler draws exponentially-distributed values with the given mean.
// Used for inter-release times (Poisson job arrivals per device).
type ExponentialSampler struct {
	dist distuv.Exponential
}

// NewExponentialSampler returns an error unless mean is finite and positive.
func NewExponentialSampler(mean float64) (*ExponentialSampler, error) {
	if err := validateFinitePositive("exponential mean", mean); err != nil {
		return nil, err
	}
	return &ExponentialSampler{dist: distuv.Exponential{Rate: 1 / mean}}, nil
}

func (s *ExponentialSampler) Next(rng *rand.Rand) float64 {
	return s.dist.Quantile(rng.Float64())
}

// Mean returns the configured mean of the distribution.
func (s *ExponentialSampler) Mean() float64 { return 1 / s.dist.Rate }

func (s *ExponentialSampler) Min() float64 { return 0 }

// ConstantSampler always returns the same value and never consumes randomness.
type ConstantSampler struct {
	value float64
}

func NewConstantSampler(value float64) *ConstantSampler {
	return &ConstantSampler{value: value}
}

func (s *ConstantSampler) Next(_ *rand.Rand) float64 { return s.value }
func (s *ConstantSampler) Min() float64              { return s.value }

// ConstantIntSampler is the integer counterpart of ConstantSampler.
type ConstantIntSampler struct {
	value int
}

func NewConstantIntSampler(value int) *ConstantIntSampler {
	return &ConstantIntSampler{value: value}
}

func (s *ConstantIntSampler) Next(_ *rand.Rand) int { return s.value }
func (s *ConstantIntSampler) Min() int              { return s.value }

// CategoricalSampler samples from a finite set of values using inverse CDF
// via binary search.
type CategoricalSampler struct {
	values []float64
	cdf    []float64
}

// NewCategoricalSampler builds a sampler from a value → probability map.
// Probabilities are normalized; non-positive entries are skipped.
func NewCategoricalSampler(pmf map[float64]float64) (*CategoricalSampler, error) {
	keys := make([]float64, 0, len(pmf))
	for k, p := range pmf {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return nil, fmt.Errorf("categorical probability for %v must be finite, got %f", k, p)
		}
		if p <= 0 {
			continue
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("categorical distribution has no positive-probability values")
	}
	// summed in key order so the CDF is bit-identical across processes
	sort.Float64s(keys)
	total := 0.0
	for _, k := range keys {
		total += pmf[k]
	}

	values := make([]float64, 0, len(keys))
	cdf := make([]float64, 0, len(keys))
	cumulative := 0.0
	for _, k := range keys {
		cumulative += pmf[k] / total
		values = append(values, k)
		cdf = append(cdf, cumulative)
	}
	cdf[len(cdf)-1] = 1.0
	return &CategoricalSampler{values: values, cdf: cdf}, nil
}

func (s *CategoricalSampler) Next(rng *rand.Rand) float64 {
	if len(s.values) == 1 {
		return s.values[0]
	}
	idx := sort.SearchFloat64s(s.cdf, rng.Float64())
	if idx >= len(s.values) {
		idx = len(s.values) - 1
	}
	return s.values[idx]
}

// Min returns the smallest value with positive probability.
func (s *CategoricalSampler) Min() float64 { return s.values[0] }

// Default ranges for the tier-specific bandwidth samplers.
const (
	EdgeBandwidthMin  = 1000.0
	EdgeBandwidthMax  = 4000.0
	CloudBandwidthMin = 200.0
	CloudBandwidthMax = 1000.0
)

// NewTwoSixTwoSampler returns the job-weight sampler used in weighted
// scheduling benchmarks: weight 1, 2, 4 with probability 0.2, 0.6, 0.2.
func NewTwoSixTwoSampler() *CategoricalSampler {
	s, err := NewCategoricalSampler(map[float64]float64{1: 0.2, 2: 0.6, 4: 0.2})
	if err != nil {
		panic(err)
	}
	return s
}

// NewEdgeBandwidthSampler returns the default bandwidth sampler for edge links.
// Edge servers sit one hop from the device, so links are fast.
func NewEdgeBandwidthSampler() *UniformSampler {
	return &UniformSampler{dist: distuv.Uniform{Min: EdgeBandwidthMin, Max: EdgeBandwidthMax}}
}

// NewCloudBandwidthSampler returns the default bandwidth sampler for cloud links.
func NewCloudBandwidthSampler() *UniformSampler {
	return &UniformSampler{dist: distuv.Uniform{Min: CloudBandwidthMin, Max: CloudBandwidthMax}}
}

func validateRange(kind string, min, max float64) error {
	if math.IsNaN(min) || math.IsInf(min, 0) || math.IsNaN(max) || math.IsInf(max, 0) {
		return fmt.Errorf("%s range must be finite, got [%f, %f]", kind, min, max)
	}
	if max < min {
		return fmt.Errorf("%s range is empty: min %f > max %f", kind, min, max)
	}
	return nil
}

func validateFinitePositive(name string, val float64) error {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return fmt.Errorf("%s must be a finite number, got %f", name, val)
	}
	if val <= 0 {
		return fmt.Errorf("%s must be positive, got %f", name, val)
	}
	return nil
}
