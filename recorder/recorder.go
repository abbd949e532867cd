// Copyright 2025 The gomdao Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package recorder provides the public API for persisting
// linearization runs to SQLite and reading them back.
//
// Example:
//
//	store := recorder.NewStore("runs.db")
//	if err := store.Init(ctx); err != nil {
//	    // ...
//	}
//	defer store.Close()
//
//	rec := recorder.New(store, comp, opts, logger)
//	rec.Start(ctx)
//	rec.RecordLinearization(ctx, comp)
package recorder

import (
	"go.uber.org/zap"

	"github.com/gomdao/gomdao/internal/component"
	"github.com/gomdao/gomdao/internal/linearize"
	"github.com/gomdao/gomdao/internal/recorder"
)

// CurrentSchemaVersion is stamped into every record.
const CurrentSchemaVersion = recorder.CurrentSchemaVersion

// Store is a SQLite-backed database of runs.
type Store = recorder.Store

// Recorder captures one component's state under a fresh run ID.
type Recorder = recorder.Recorder

// Run identifies one recorded component session.
type Run = recorder.Run

// Snapshot captures component state after one linearization.
type Snapshot = recorder.Snapshot

// PatternRecord stores a probed jacobian structure.
type PatternRecord = recorder.PatternRecord

var (
	ErrNotInitialized  = recorder.ErrNotInitialized
	ErrVersionMismatch = recorder.ErrVersionMismatch
)

// NewStore creates an unopened store; call Init before use.
func NewStore(path string) *Store { return recorder.NewStore(path) }

// New creates a recorder for one component under a fresh run ID.
func New(store *Store, comp *component.Implicit, opts linearize.Options, log *zap.Logger) *Recorder {
	return recorder.New(store, comp, opts, log)
}
