package array

import "math/rand"

// Zeros creates a zero-filled array, panicking on an invalid shape.
// Shapes reaching this point were validated at variable declaration time.
func Zeros(shape Shape) *Array {
	a, err := New(shape)
	if err != nil {
		panic(err)
	}
	return a
}

// Ones creates an array filled with ones.
func Ones(shape Shape) *Array {
	a := Zeros(shape)
	a.Fill(1)
	return a
}

// Full creates an array filled with a specific value.
func Full(shape Shape, value float64) *Array {
	a := Zeros(shape)
	a.Fill(value)
	return a
}

// Scalar creates a 0-D array holding value.
func Scalar(value float64) *Array {
	a := Zeros(Shape{})
	a.data[0] = value
	return a
}

// Rand creates an array with uniform random values in [-1, 1).
// Uses math/rand: derivative probing needs reproducibility under a seed,
// not cryptographic strength.
func Rand(rng *rand.Rand, shape Shape) *Array {
	a := Zeros(shape)
	for i := range a.data {
		a.data[i] = 2*rng.Float64() - 1
	}
	return a
}

// Basis creates a 1-D basis vector of length n with a one at index i.
func Basis(n, i int) *Array {
	a := Zeros(Shape{n})
	a.data[i] = 1
	return a
}
