// Copyright 2025 The gomdao Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package component provides the public API for implicit components.
//
// An Implicit owns named inputs, outputs, and discretes, a residual
// function, and declared partial derivative blocks. After Setup it
// evaluates residuals, linearizes, and propagates seed vectors in
// either direction.
//
// Example:
//
//	import (
//	    "github.com/gomdao/gomdao/ad"
//	    "github.com/gomdao/gomdao/array"
//	    "github.com/gomdao/gomdao/component"
//	)
//
//	c := component.New("quadratic")
//	c.AddInput("a", array.Shape{})
//	c.AddOutput("x", array.Shape{})
//	c.SetPrimal(func(t *ad.Trace, args []*ad.Value, _ []any) ad.Result {
//	    a, x := args[0], args[1]
//	    return ad.Single(x.Mul(x).Sub(a))
//	})
//	c.DeclarePartials("x", "x")
//	if err := c.Setup(); err != nil {
//	    // ...
//	}
package component

import (
	"context"

	"github.com/gomdao/gomdao/internal/component"
)

// Implicit is a component defined by residuals over its outputs.
type Implicit = component.Implicit

var (
	ErrNoPrimal  = component.ErrNoPrimal
	ErrNotSetup  = component.ErrNotSetup
	ErrSetupDone = component.ErrSetupDone
	ErrNoOutputs = component.ErrNoOutputs
	ErrSize      = component.ErrSize
)

// New creates an empty component with default options.
func New(name string) *Implicit { return component.New(name) }

// LinearizeAll linearizes components concurrently, stopping on the
// first failure.
func LinearizeAll(ctx context.Context, comps ...*Implicit) error {
	return component.LinearizeAll(ctx, comps...)
}

// ApplyNonlinearAll evaluates residuals concurrently, stopping on the
// first failure.
func ApplyNonlinearAll(ctx context.Context, comps ...*Implicit) error {
	return component.ApplyNonlinearAll(ctx, comps...)
}
