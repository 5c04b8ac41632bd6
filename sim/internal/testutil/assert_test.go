package testutil

import "testing"

func TestAssertFloat64Equal_WithinTolerance_Passes(t *testing.T) {
	// GIVEN values 0.05% apart
	// WHEN compared with a 0.1% tolerance
	// THEN the assertion passes (a failure would fail this test)
	AssertFloat64Equal(t, "close", 1000, 1000.5, 1e-3)
	AssertFloat64Equal(t, "zeros", 0, 0, 1e-9)
}

func TestAssertNonDecreasing_SortedInput_Passes(t *testing.T) {
	AssertNonDecreasing(t, "sorted", []float64{0, 0, 1.5, 2, 2})
	AssertNonDecreasing(t, "empty", nil)
}
