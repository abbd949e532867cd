// Package recorder persists linearization runs to a SQLite database so
// they can be inspected after the fact.
package recorder

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// CurrentSchemaVersion is stamped into every record; readers reject
// records written under a different schema.
const CurrentSchemaVersion = 1

var ErrVersionMismatch = errors.New("recorder: record version mismatch")

// Run identifies one recorded component session.
type Run struct {
	SchemaVersion int       `json:"schema_version"`
	ID            string    `json:"id"`
	Component     string    `json:"component"`
	StartedAt     time.Time `json:"started_at"`
	Direction     string    `json:"direction"`
	Method        string    `json:"method"`
	JIT           bool      `json:"jit"`
	MatrixFree    bool      `json:"matrix_free"`
}

// Snapshot captures component state right after one linearization.
// Partials maps block keys to row-major dense values.
type Snapshot struct {
	SchemaVersion    int                  `json:"schema_version"`
	Seq              int                  `json:"seq"`
	Inputs           []float64            `json:"inputs"`
	Outputs          []float64            `json:"outputs"`
	Residuals        []float64            `json:"residuals"`
	Partials         map[string][]float64 `json:"partials,omitempty"`
	Specializations  int                  `json:"specializations"`
	Retraces         int                  `json:"retraces"`
	PullbackRebuilds int                  `json:"pullback_rebuilds"`
}

// PatternRecord stores a probed jacobian structure.
type PatternRecord struct {
	SchemaVersion int   `json:"schema_version"`
	NRows         int   `json:"nrows"`
	NCols         int   `json:"ncols"`
	Rows          []int `json:"rows"`
	Cols          []int `json:"cols"`
}

func EncodeRun(r Run) ([]byte, error) {
	return json.Marshal(r)
}

func DecodeRun(data []byte) (Run, error) {
	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return Run{}, errors.Wrap(err, "recorder: decode run")
	}
	if run.SchemaVersion != CurrentSchemaVersion {
		return Run{}, ErrVersionMismatch
	}
	return run, nil
}

func EncodeSnapshot(s Snapshot) ([]byte, error) {
	return json.Marshal(s)
}

func DecodeSnapshot(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, errors.Wrap(err, "recorder: decode snapshot")
	}
	if snap.SchemaVersion != CurrentSchemaVersion {
		return Snapshot{}, ErrVersionMismatch
	}
	return snap, nil
}

func EncodePattern(p PatternRecord) ([]byte, error) {
	return json.Marshal(p)
}

func DecodePattern(data []byte) (PatternRecord, error) {
	var rec PatternRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return PatternRecord{}, errors.Wrap(err, "recorder: decode pattern")
	}
	if rec.SchemaVersion != CurrentSchemaVersion {
		return PatternRecord{}, ErrVersionMismatch
	}
	return rec, nil
}
