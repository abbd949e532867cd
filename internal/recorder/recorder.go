package recorder

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gomdao/gomdao/internal/component"
	"github.com/gomdao/gomdao/internal/linearize"
)

// Recorder captures a component's state into a Store under a fresh run
// ID. One Recorder records one component.
type Recorder struct {
	store *Store
	log   *zap.Logger
	run   Run
	seq   int
}

func New(store *Store, comp *component.Implicit, opts linearize.Options, log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{
		store: store,
		log:   log,
		run: Run{
			SchemaVersion: CurrentSchemaVersion,
			ID:            uuid.NewString(),
			Component:     comp.Name(),
			StartedAt:     time.Now().UTC(),
			Direction:     opts.Direction.String(),
			Method:        opts.Method.String(),
			JIT:           opts.JIT,
			MatrixFree:    opts.MatrixFree,
		},
	}
}

func (r *Recorder) RunID() string { return r.run.ID }

// Start registers the run in the store.
func (r *Recorder) Start(ctx context.Context) error {
	if err := r.store.SaveRun(ctx, r.run); err != nil {
		return err
	}
	r.log.Info("recording run",
		zap.String("run", r.run.ID),
		zap.String("component", r.run.Component),
	)
	return nil
}

// RecordLinearization snapshots the component's values, residuals,
// materialized partial blocks, and compile counters.
func (r *Recorder) RecordLinearization(ctx context.Context, c *component.Implicit) error {
	snap := Snapshot{
		SchemaVersion:    CurrentSchemaVersion,
		Seq:              r.seq,
		Inputs:           append([]float64(nil), c.Inputs().Data()...),
		Outputs:          append([]float64(nil), c.Outputs().Data()...),
		Residuals:        append([]float64(nil), c.Residuals().Data()...),
		Specializations:  c.Controller().Kernel().Specializations(),
		Retraces:         c.Controller().Kernel().Retraces(),
		PullbackRebuilds: c.Controller().PullbackRebuilds(),
	}
	if parts := c.Partials(); parts.Len() > 0 {
		snap.Partials = make(map[string][]float64, parts.Len())
		for _, key := range parts.Keys() {
			blk, _ := parts.Block(key)
			snap.Partials[key.String()] = append([]float64(nil), blk.Dense().Data()...)
		}
	}

	if err := r.store.SaveSnapshot(ctx, r.run.ID, snap); err != nil {
		return err
	}
	r.seq++
	r.log.Debug("recorded snapshot",
		zap.String("run", r.run.ID),
		zap.Int("seq", snap.Seq),
	)
	return nil
}

// RecordPattern stores a probed sparsity structure for the run.
func (r *Recorder) RecordPattern(ctx context.Context, p *linearize.Pattern) error {
	rec := PatternRecord{
		SchemaVersion: CurrentSchemaVersion,
		NRows:         p.NRows,
		NCols:         p.NCols,
		Rows:          append([]int(nil), p.Rows...),
		Cols:          append([]int(nil), p.Cols...),
	}
	return r.store.SavePattern(ctx, r.run.ID, rec)
}
