package linearize

import (
	"go.uber.org/zap"

	"github.com/gomdao/gomdao/internal/ad"
	"github.com/gomdao/gomdao/internal/array"
)

// Kernel owns the compiled form of a primal. With jit enabled the trace
// is kept and replayed until the call signature changes: a different
// discrete fingerprint or different argument shapes forces a fresh
// specialization, because discrete values and shapes are folded into the
// trace. With jit disabled the primal is re-traced on every call.
type Kernel struct {
	fn  ad.Primal
	jit bool
	log *zap.Logger

	compiled  *ad.Compiled
	sigShapes []array.Shape
	sigDisc   uint64

	specializations int
	retraces        int
}

// NewKernel wraps a primal. A nil logger disables logging.
func NewKernel(fn ad.Primal, jit bool, log *zap.Logger) *Kernel {
	if log == nil {
		log = zap.NewNop()
	}
	return &Kernel{fn: fn, jit: jit, log: log}
}

// Compiled returns the current program, or nil before the first Ensure.
func (k *Kernel) Compiled() *ad.Compiled { return k.compiled }

// Specializations counts compiles caused by a new call signature.
func (k *Kernel) Specializations() int { return k.specializations }

// Retraces counts compiles caused by jit being disabled.
func (k *Kernel) Retraces() int { return k.retraces }

// JIT reports whether traces are kept across calls.
func (k *Kernel) JIT() bool { return k.jit }

func shapesEqual(a, b []array.Shape) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// Ensure returns a program valid for the given shapes and discrete
// values, compiling only when needed. discFP must fingerprint discrete.
func (k *Kernel) Ensure(shapes []array.Shape, discrete []any, discFP uint64) (*ad.Compiled, error) {
	if !k.jit {
		c, err := ad.Compile(k.fn, shapes, discrete)
		if err != nil {
			return nil, err
		}
		k.retraces++
		k.compiled = c
		k.sigShapes = shapes
		k.sigDisc = discFP
		k.log.Debug("re-traced primal", zap.Int("retraces", k.retraces))
		return c, nil
	}

	if k.compiled != nil && k.sigDisc == discFP && shapesEqual(k.sigShapes, shapes) {
		return k.compiled, nil
	}

	c, err := ad.Compile(k.fn, shapes, discrete)
	if err != nil {
		return nil, err
	}
	k.specializations++
	k.compiled = c
	k.sigShapes = shapes
	k.sigDisc = discFP
	k.log.Debug("specialized primal",
		zap.Int("specializations", k.specializations),
		zap.Uint64("discrete_fingerprint", discFP),
	)
	return c, nil
}
