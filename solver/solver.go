// Copyright 2025 The gomdao Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package solver provides the public API for driving implicit
// components to a root of their residuals.
package solver

import (
	"go.uber.org/zap"

	"github.com/gomdao/gomdao/internal/solver"
)

// Newton is a dense Newton-Raphson driver.
type Newton = solver.Newton

// Result reports how a solve went.
type Result = solver.Result

var ErrDiverged = solver.ErrDiverged

// New creates a driver with a 20-iteration cap and a 1e-10 tolerance.
func New(log *zap.Logger) *Newton { return solver.New(log) }
