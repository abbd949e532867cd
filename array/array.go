// Copyright 2025 The gomdao Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package array provides the public API for the dense float64 arrays
// that flow through traced residual programs.
//
// Arrays are row-major with explicit shapes; a Shape{} is a scalar.
//
// Example:
//
//	x := array.Zeros(array.Shape{2, 3})
//	x.Set(1.5, 0, 2)
//	y := array.FromSlice([]float64{1, 2, 3}, array.Shape{3})
package array

import (
	"math/rand"

	"github.com/gomdao/gomdao/internal/array"
)

// Shape holds the dimensions of an array. Empty means scalar.
type Shape = array.Shape

// Array is a dense row-major float64 array.
type Array = array.Array

// Zeros creates an array filled with zeros.
func Zeros(s Shape) *Array { return array.Zeros(s) }

// Ones creates an array filled with ones.
func Ones(s Shape) *Array { return array.Ones(s) }

// Full creates an array filled with the given value.
func Full(s Shape, value float64) *Array { return array.Full(s, value) }

// Scalar creates a zero-dimensional array holding one value.
func Scalar(value float64) *Array { return array.Scalar(value) }

// FromSlice creates an array by copying data.
func FromSlice(data []float64, s Shape) *Array { return array.FromSlice(data, s) }

// FromData creates an array aliasing data without a copy.
func FromData(data []float64, s Shape) *Array { return array.FromData(data, s) }

// Rand creates an array of uniform values in [-1, 1).
func Rand(rng *rand.Rand, s Shape) *Array { return array.Rand(rng, s) }

// Basis creates a length-n unit vector with a one at index i.
func Basis(n, i int) *Array { return array.Basis(n, i) }
