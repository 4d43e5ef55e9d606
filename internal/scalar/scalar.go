// Package scalar defines the numeric field abstraction shared by the sparse
// algebra and the KPM engine. The engine is instantiated per concrete field
// (real float64 or complex complex128) via Go generics rather than runtime
// dispatch, so the recursion loops compile down to direct arithmetic.
package scalar

import (
	"math"
	"math/cmplx"
	"math/rand"
)

// Scalar is the constraint satisfied by the two supported number fields.
// A Hermitian operator over float64 is a real symmetric matrix; over
// complex128 it is a genuinely complex Hermitian matrix. Both fields
// support the native +, -, * and / operators inside generic code; only
// conjugation and component access need per-field handling.
type Scalar interface {
	~float64 | ~complex128
}

// IsComplex reports whether the field T carries an imaginary part.
// It is resolved per instantiation and used for scalar-field identity
// checks (e.g. operator hot-swapping).
func IsComplex[T Scalar]() bool {
	var zero T
	_, ok := any(zero).(complex128)
	return ok
}

// FromReal embeds a real value into the field T.
func FromReal[T Scalar](r float64) T {
	var zero T
	if _, ok := any(zero).(complex128); ok {
		return any(complex(r, 0)).(T)
	}
	return any(r).(T)
}

// RealPart extracts the real component of v.
func RealPart[T Scalar](v T) float64 {
	switch x := any(v).(type) {
	case float64:
		return x
	case complex128:
		return real(x)
	}
	panic("scalar: unsupported field")
}

// Conj returns the complex conjugate of v. For the real field this is the
// identity.
func Conj[T Scalar](v T) T {
	switch x := any(v).(type) {
	case float64:
		return v
	case complex128:
		return any(cmplx.Conj(x)).(T)
	}
	panic("scalar: unsupported field")
}

// AbsSq returns |v|^2 as a real number.
func AbsSq[T Scalar](v T) float64 {
	switch x := any(v).(type) {
	case float64:
		return x * x
	case complex128:
		return real(x)*real(x) + imag(x)*imag(x)
	}
	panic("scalar: unsupported field")
}

// Dot computes the Hermitian inner product conj(a)·b over the common length
// of the two vectors. Callers normally guarantee len(a) == len(b); the
// shorter prefix rule exists for light-cone truncated vectors whose logical
// tails are exact zeros.
func Dot[T Scalar](a, b []T) T {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum T
	for i := 0; i < n; i++ {
		sum += Conj(a[i]) * b[i]
	}
	return sum
}

// Norm returns the Euclidean norm of v.
func Norm[T Scalar](v []T) float64 {
	var sum float64
	for _, x := range v {
		sum += AbsSq(x)
	}
	return math.Sqrt(sum)
}

// RandomPhase draws one entry of a stochastic trace-estimation starter:
// uniformly distributed ±1 for the real field, a uniformly distributed
// unit-phase number exp(i·2πu) for the complex field. Both choices give an
// unbiased trace estimator with unit-magnitude entries.
func RandomPhase[T Scalar](rng *rand.Rand) T {
	var zero T
	if _, ok := any(zero).(complex128); ok {
		phi := 2 * math.Pi * rng.Float64()
		return any(complex(math.Cos(phi), math.Sin(phi))).(T)
	}
	if rng.Intn(2) == 0 {
		return any(1.0).(T)
	}
	return any(-1.0).(T)
}
