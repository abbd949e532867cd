// Copyright 2025 The gomdao Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package linearize provides the public API for the derivative
// controller: compiled-kernel management, forward and reverse
// derivative passes, sparsity probing, and pattern coloring.
//
// Most users reach this package through component.Implicit and only
// touch the option types here.
//
// Example:
//
//	opts := linearize.DefaultOptions()
//	opts.Direction = linearize.DirRev
//	opts.JIT = true
package linearize

import (
	"github.com/gomdao/gomdao/internal/linearize"
)

// Direction selects forward mode, reverse mode, or size-based choice.
type Direction = linearize.Direction

// Direction constants.
const (
	DirAuto Direction = linearize.DirAuto
	DirFwd  Direction = linearize.DirFwd
	DirRev  Direction = linearize.DirRev
)

// Method selects how derivatives are computed.
type Method = linearize.Method

// Method constants.
const (
	MethodAD Method = linearize.MethodAD
	MethodFD Method = linearize.MethodFD
)

// Options configures a Controller.
type Options = linearize.Options

// SparsityOptions tunes jacobian structure probing.
type SparsityOptions = linearize.SparsityOptions

// Controller owns one primal's kernel, tangent storage, and partials.
type Controller = linearize.Controller

// Kernel manages the compiled primal and its recompile policy.
type Kernel = linearize.Kernel

// Pattern is a jacobian sparsity structure in coordinate form.
type Pattern = linearize.Pattern

// Coloring groups structurally orthogonal rows or columns for
// compressed derivative passes.
type Coloring = linearize.Coloring

var (
	ErrColoringMatrixFree = linearize.ErrColoringMatrixFree
	ErrNotCompiled        = linearize.ErrNotCompiled
	ErrFDReverse          = linearize.ErrFDReverse
	ErrResidualMismatch   = linearize.ErrResidualMismatch
	ErrPatternShape       = linearize.ErrPatternShape
)

// DefaultOptions returns the standard controller settings: automatic
// direction, AD derivatives, JIT reuse on.
func DefaultOptions() Options { return linearize.DefaultOptions() }

// DefaultSparsityOptions returns the standard probe settings.
func DefaultSparsityOptions() SparsityOptions { return linearize.DefaultSparsityOptions() }

// ColorColumns greedily groups columns sharing no row.
func ColorColumns(p *Pattern) *Coloring { return linearize.ColorColumns(p) }

// ColorRows greedily groups rows sharing no column.
func ColorRows(p *Pattern) *Coloring { return linearize.ColorRows(p) }

// ColorPattern colors in the given direction; DirAuto picks whichever
// direction needs fewer passes, preferring forward on ties.
func ColorPattern(p *Pattern, dir Direction) *Coloring { return linearize.ColorPattern(p, dir) }
