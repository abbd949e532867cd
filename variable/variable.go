// Copyright 2025 The gomdao Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package variable provides the public API for named variable sets and
// the flat vectors that back them.
//
// A Set registers names and shapes in order; a Vector allocates one
// flat float64 slice for the whole set and hands out aliasing array
// views per name. Discretes hold the non-differentiable values.
package variable

import (
	"github.com/gomdao/gomdao/internal/variable"
)

// Meta describes one registered variable.
type Meta = variable.Meta

// Set is an ordered registry of named variables.
type Set = variable.Set

// Vector is a flat value store with aliasing per-variable views.
type Vector = variable.Vector

// Discretes holds named non-differentiable values.
type Discretes = variable.Discretes

var (
	ErrDuplicate = variable.ErrDuplicate
	ErrUnknown   = variable.ErrUnknown
)

// NewSet returns an empty registry.
func NewSet() *Set { return variable.NewSet() }

// NewVector allocates zeroed storage for every variable in the set.
func NewVector(vars *Set) *Vector { return variable.NewVector(vars) }

// NewDiscretes returns an empty discrete value store.
func NewDiscretes() *Discretes { return variable.NewDiscretes() }
