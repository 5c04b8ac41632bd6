package workload

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniformSampler_StaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	s, err := NewRealSampler(DistSpec{
		Type:   "uniform",
		Params: map[string]float64{"min": 500, "max": 1500},
	})
	require.NoError(t, err)
	for i := 0; i < 10000; i++ {
		v := s.Next(rng)
		if v < 500 || v > 1500 {
			t.Fatalf("sample %d: %f outside [500, 1500]", i, v)
		}
	}
}

func TestUniformSampler_DegenerateRange_ReturnsMin(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	s, err := NewUniformSampler(7, 7)
	require.NoError(t, err)
	assert.Equal(t, 7.0, s.Next(rng))
}

func TestUniformSampler_EmptyRange_Rejected(t *testing.T) {
	_, err := NewUniformSampler(10, 5)
	assert.Error(t, err)

	_, err = NewUniformSampler(math.NaN(), 5)
	assert.Error(t, err)
}

func TestUniformIntSampler_CoversInclusiveRange(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	s, err := NewUniformIntSampler(1, 3)
	require.NoError(t, err)
	seen := map[int]int{}
	for i := 0; i < 3000; i++ {
		v := s.Next(rng)
		if v < 1 || v > 3 {
			t.Fatalf("sample %d: %d outside [1, 3]", i, v)
		}
		seen[v]++
	}
	assert.Len(t, seen, 3, "every value in [1, 3] must be drawn")
}

func TestUniformIntSampler_EmptyRange_Rejected(t *testing.T) {
	_, err := NewUniformIntSampler(4, 3)
	assert.Error(t, err)
}

func TestExponentialSampler_MeanMatchesParam(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	s, err := NewRealSampler(DistSpec{
		Type:   "exponential",
		Params: map[string]float64{"mean": 256},
	})
	require.NoError(t, err)
	n := 20000
	sum := 0.0
	for i := 0; i < n; i++ {
		v := s.Next(rng)
		if v < 0 {
			t.Fatalf("sample %d: negative inter-release time %f", i, v)
		}
		sum += v
	}
	mean := sum / float64(n)
	if math.Abs(mean-256)/256 > 0.05 {
		t.Errorf("exponential mean = %.1f, want ≈ 256 (within 5%%)", mean)
	}
}

func TestExponentialSampler_NonPositiveMean_Rejected(t *testing.T) {
	for _, mean := range []float64{0, -1, math.Inf(1)} {
		_, err := NewExponentialSampler(mean)
		assert.Error(t, err, "mean=%v", mean)
	}
}

func TestTwoSixTwoSampler_Frequencies(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	s := NewTwoSixTwoSampler()
	counts := map[float64]int{}
	n := 20000
	for i := 0; i < n; i++ {
		counts[s.Next(rng)]++
	}
	assert.Len(t, counts, 3)
	assert.InDelta(t, 0.2, float64(counts[1])/float64(n), 0.02)
	assert.InDelta(t, 0.6, float64(counts[2])/float64(n), 0.02)
	assert.InDelta(t, 0.2, float64(counts[4])/float64(n), 0.02)
}

func TestCategoricalSampler_FromSpec_ParsesValueKeys(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	s, err := NewRealSampler(DistSpec{
		Type:   "categorical",
		Params: map[string]float64{"2.5": 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 2.5, s.Next(rng))

	_, err = NewRealSampler(DistSpec{Type: "categorical", Params: map[string]float64{"abc": 1}})
	assert.Error(t, err)

	_, err = NewRealSampler(DistSpec{Type: "categorical", Params: map[string]float64{"1": 0}})
	assert.Error(t, err, "no positive-probability values")
}

func TestBandwidthSamplers_TierRanges(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	edge := NewEdgeBandwidthSampler()
	cloud := NewCloudBandwidthSampler()
	for i := 0; i < 1000; i++ {
		e := edge.Next(rng)
		c := cloud.Next(rng)
		assert.True(t, e >= EdgeBandwidthMin && e <= EdgeBandwidthMax, "edge bandwidth %f", e)
		assert.True(t, c >= CloudBandwidthMin && c <= CloudBandwidthMax, "cloud bandwidth %f", c)
	}
}

func TestSamplers_SameSeed_SameSequence(t *testing.T) {
	s, err := NewUniformSampler(0, 100)
	require.NoError(t, err)
	rng1 := rand.New(rand.NewSource(99))
	rng2 := rand.New(rand.NewSource(99))
	for i := 0; i < 50; i++ {
		assert.Equal(t, s.Next(rng1), s.Next(rng2))
	}
}

func TestNewRealSampler_Errors(t *testing.T) {
	tests := []struct {
		name string
		spec DistSpec
	}{
		{"unknown type", DistSpec{Type: "weibull"}},
		{"missing uniform params", DistSpec{Type: "uniform", Params: map[string]float64{"min": 1}}},
		{"missing exponential mean", DistSpec{Type: "exponential"}},
		{"missing constant value", DistSpec{Type: "constant"}},
		{"non-finite param", DistSpec{Type: "uniform", Params: map[string]float64{"min": math.NaN(), "max": 2}}},
		{"integer type for real source", DistSpec{Type: "uniform-int", Params: map[string]float64{"min": 1, "max": 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewRealSampler(tt.spec)
			assert.Error(t, err)
			assert.Nil(t, s)
		})
	}
}

func TestNewIntegerSampler(t *testing.T) {
	rng := rand.New(rand.NewSource(5))

	s, err := NewIntegerSampler(DistSpec{Type: "constant", Params: map[string]float64{"value": 4}})
	require.NoError(t, err)
	assert.Equal(t, 4, s.Next(rng))

	s, err = NewIntegerSampler(DistSpec{Type: "uniform-int", Params: map[string]float64{"min": 2, "max": 2}})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Next(rng))

	_, err = NewIntegerSampler(DistSpec{Type: "uniform", Params: map[string]float64{"min": 1, "max": 2}})
	assert.Error(t, err)

	_, err = NewIntegerSampler(DistSpec{Type: "uniform-int", Params: map[string]float64{"min": 3, "max": 2}})
	assert.Error(t, err)
}

func TestLowerBound_DeclaredBySamplers(t *testing.T) {
	uniform, err := NewUniformSampler(-3, 5)
	require.NoError(t, err)
	exp, err := NewExponentialSampler(10)
	require.NoError(t, err)
	cat, err := NewCategoricalSampler(map[float64]float64{4: 0.5, 2: 0.5})
	require.NoError(t, err)
	uniformInt, err := NewUniformIntSampler(0, 4)
	require.NoError(t, err)

	tests := []struct {
		name    string
		sampler RealSampler
		want    float64
	}{
		{"uniform", uniform, -3},
		{"exponential", exp, 0},
		{"constant", NewConstantSampler(-1), -1},
		{"categorical", cat, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := LowerBound(tt.sampler)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	lo, ok := IntLowerBound(uniformInt)
	assert.True(t, ok)
	assert.Equal(t, 0, lo)
	lo, ok = IntLowerBound(NewConstantIntSampler(3))
	assert.True(t, ok)
	assert.Equal(t, 3, lo)
}

func TestCategoricalSampler_SameCDFRegardlessOfInsertionOrder(t *testing.T) {
	// GIVEN the same pmf built many times (map iteration order varies)
	pmf := map[float64]float64{0.5: 0.1, 1: 0.3, 3: 0.7, 7: 0.13, 11: 0.29}
	first, err := NewCategoricalSampler(pmf)
	require.NoError(t, err)

	// THEN every build has a bit-identical CDF
	for i := 0; i < 50; i++ {
		again, err := NewCategoricalSampler(pmf)
		require.NoError(t, err)
		assert.Equal(t, first.cdf, again.cdf)
		assert.Equal(t, first.values, again.values)
	}
}
