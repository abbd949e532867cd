// Copyright 2025 The gomdao Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package jacobian provides the public API for declared partial
// derivative blocks.
//
// A Partials set maps (residual, variable) keys to Blocks. Dense
// blocks store the full matrix; sparse blocks store values only at
// declared coordinates. Blocks never declared are dropped when a
// component linearizes.
package jacobian

import (
	"github.com/gomdao/gomdao/internal/jacobian"
)

// Key names a derivative block: residual Of with respect to WRT.
type Key = jacobian.Key

// Block stores one declared derivative block.
type Block = jacobian.Block

// Partials is the set of declared blocks of one component.
type Partials = jacobian.Partials

var (
	ErrDuplicate = jacobian.ErrDuplicate
	ErrPattern   = jacobian.ErrPattern
	ErrUnknown   = jacobian.ErrUnknown
)

// NewPartials returns an empty declaration set.
func NewPartials() *Partials { return jacobian.NewPartials() }
