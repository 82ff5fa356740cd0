// Package timeval provides the closed-interval arithmetic and the
// discrete/dense time-trait constants the rest of the analyzer is
// generic over, mirroring original_source/include/interval.hpp and
// include/time.hpp.
package timeval

// Numeric is the set of time representations the analyzer is generic
// over: discrete (integer) and dense (floating point) time, per
// original_source/include/time.hpp's Time_model::constants<T>
// specializations. Unlike cmp.Ordered this excludes strings, since
// interval arithmetic needs +/-.
type Numeric interface {
	~int | ~int32 | ~int64 | ~float32 | ~float64
}

// Interval is a closed range [Lo, Hi] over a numeric time type T.
// Callers are expected to maintain Lo <= Hi; the zero value is the
// degenerate interval [0, 0].
type Interval[T Numeric] struct {
	Lo T
	Hi T
}

// New builds an interval, swapping the bounds if given out of order.
func New[T Numeric](lo, hi T) Interval[T] {
	if hi < lo {
		lo, hi = hi, lo
	}
	return Interval[T]{Lo: lo, Hi: hi}
}

// From returns the lower bound.
func (iv Interval[T]) From() T { return iv.Lo }

// Until returns the upper bound.
func (iv Interval[T]) Until() T { return iv.Hi }

// Widen returns the smallest interval containing both iv and other.
func (iv Interval[T]) Widen(other Interval[T]) Interval[T] {
	lo, hi := iv.Lo, iv.Hi
	if other.Lo < lo {
		lo = other.Lo
	}
	if other.Hi > hi {
		hi = other.Hi
	}
	return Interval[T]{Lo: lo, Hi: hi}
}

// Intersects reports whether the two intervals share at least one
// point.
func (iv Interval[T]) Intersects(other Interval[T]) bool {
	return iv.Lo <= other.Hi && other.Lo <= iv.Hi
}

// Shift translates both bounds by delta.
func (iv Interval[T]) Shift(delta T) Interval[T] {
	return Interval[T]{Lo: iv.Lo + delta, Hi: iv.Hi + delta}
}

// Sub subtracts a scalar point from both bounds, used by the data-age
// analyzer to turn a finish-time interval into a latency interval
// relative to a producer timestamp.
func (iv Interval[T]) Sub(point T) Interval[T] {
	return Interval[T]{Lo: iv.Lo - point, Hi: iv.Hi - point}
}

// Empty reports whether the interval is the uninitialized sentinel
// [0, 0] used by the data-age state before its first widen.
func (iv Interval[T]) Empty() bool {
	var zero T
	return iv.Lo == zero && iv.Hi == zero
}
