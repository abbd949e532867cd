// Copyright 2025 The gomdao Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package ad provides the public API for trace-based automatic
// differentiation.
//
// A Primal function describes its math once through a Trace; Compile
// records every primitive into a replayable program that evaluates,
// pushes tangents forward, and pulls cotangents back without calling
// the function again.
//
// Example:
//
//	import (
//	    "github.com/gomdao/gomdao/ad"
//	    "github.com/gomdao/gomdao/array"
//	)
//
//	fn := func(t *ad.Trace, args []*ad.Value, _ []any) ad.Result {
//	    x := args[0]
//	    return ad.Single(x.Mul(x).Sum())
//	}
//	compiled, err := ad.Compile(fn, []array.Shape{{3}}, nil)
package ad

import (
	"github.com/gomdao/gomdao/internal/ad"
	"github.com/gomdao/gomdao/internal/array"
)

// Trace records primitive operations while a Primal runs.
type Trace = ad.Trace

// Value is a placeholder for an array inside a trace.
type Value = ad.Value

// Result is what a Primal returns: one value or a tuple.
type Result = ad.Result

// Primal is a residual function traced into a program. Discrete
// arguments are folded in as constants.
type Primal = ad.Primal

// Compiled is a traced program ready to replay.
type Compiled = ad.Compiled

// Pullback replays reverse-mode derivatives from stored forward
// intermediates.
type Pullback = ad.Pullback

// Single wraps one value as a Result.
func Single(v *Value) Result { return ad.Single(v) }

// Tuple wraps several values as a Result. A one-element tuple is not
// the same as Single.
func Tuple(vs ...*Value) Result { return ad.Tuple(vs...) }

// Compile traces fn once against the given input shapes and discrete
// values.
func Compile(fn Primal, inShapes []array.Shape, discrete []any) (*Compiled, error) {
	return ad.Compile(fn, inShapes, discrete)
}

// CentralDiff approximates all derivative blocks of a compiled program
// by central finite differences with the given step.
func CentralDiff(c *Compiled, inputs []*array.Array, step float64) [][]*array.Array {
	return ad.CentralDiff(c, inputs, step)
}
