package timeval

import "math"

// Traits supplies the trait constants original_source/include/time.hpp
// defines per time model: a value standing in for infinity, the
// smallest representable gap (epsilon), and the slack tolerated when
// checking a job against its deadline.
type Traits[T Numeric] struct {
	Infinity               T
	Epsilon                T
	DeadlineMissTolerance  T
}

// Discrete returns the trait set for integer (discrete) time, the
// default time model per the CLI's -t flag.
func Discrete() Traits[int64] {
	return Traits[int64]{
		Infinity:              math.MaxInt64 / 2,
		Epsilon:               1,
		DeadlineMissTolerance: 0,
	}
}

// Dense returns the trait set for floating-point (dense) time.
func Dense() Traits[float64] {
	return Traits[float64]{
		Infinity:              math.Inf(1),
		Epsilon:               1e-9,
		DeadlineMissTolerance: 1e-9,
	}
}
