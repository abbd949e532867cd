// Package ad implements trace-based automatic differentiation over
// float64 arrays.
//
// A user function describes its math once through a Trace, which records
// every primitive into a Program. The Program then replays without the
// user function: plain evaluation, forward-mode derivatives (JVP), and
// reverse-mode derivatives through a reusable Pullback all walk the same
// recorded instruction list. Discrete (non-differentiable) arguments are
// folded into the trace as constants, so a Program is only valid for the
// discrete values it was compiled against.
package ad

import (
	"fmt"

	"github.com/gomdao/gomdao/internal/ad/ops"
	"github.com/gomdao/gomdao/internal/array"
)

// inst is one recorded primitive application. args and out are node
// indices into the program's value table.
type inst struct {
	op   ops.Op
	args []int
	out  int
}

// Trace records primitive applications while a user function runs.
// All Values flowing through the function belong to exactly one Trace;
// mixing Values from different Traces panics.
type Trace struct {
	p *Program
}

func newTrace(inShapes []array.Shape) (*Trace, []*Value) {
	p := &Program{
		numInputs: len(inShapes),
		consts:    make(map[int]*array.Array),
	}
	t := &Trace{p: p}
	args := make([]*Value, len(inShapes))
	for i, s := range inShapes {
		if err := s.Validate(); err != nil {
			panic(fmt.Sprintf("ad: input %d: %v", i, err))
		}
		p.shapes = append(p.shapes, s.Clone())
		args[i] = &Value{t: t, id: i, shape: s.Clone()}
	}
	return t, args
}

func (t *Trace) newNode(shape array.Shape) int {
	id := len(t.p.shapes)
	t.p.shapes = append(t.p.shapes, shape)
	return id
}

// Const embeds a fixed array into the trace. The value is copied, and
// its derivative with respect to every input is zero.
func (t *Trace) Const(a *array.Array) *Value {
	id := t.newNode(a.Shape().Clone())
	t.p.consts[id] = a.Clone()
	return &Value{t: t, id: id, shape: a.Shape().Clone()}
}

// Scalar embeds a fixed scalar into the trace.
func (t *Trace) Scalar(v float64) *Value {
	return t.Const(array.Scalar(v))
}

func (t *Trace) apply(op ops.Op, shape array.Shape, args ...*Value) *Value {
	for _, a := range args {
		if a.t != t {
			panic(fmt.Sprintf("ad: %s: value belongs to a different trace", op.Name()))
		}
	}
	idxs := make([]int, len(args))
	for i, a := range args {
		idxs[i] = a.id
	}
	id := t.newNode(shape)
	t.p.insts = append(t.p.insts, inst{op: op, args: idxs, out: id})
	return &Value{t: t, id: id, shape: shape}
}
