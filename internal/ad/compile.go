package ad

import (
	"github.com/pkg/errors"

	"github.com/gomdao/gomdao/internal/array"
)

// Primal is a user-supplied differentiable function. It receives one
// symbolic value per continuous argument plus the discrete arguments as
// plain Go values, builds its math through the trace, and returns the
// result. Discrete values participate only at trace time: branching on
// them is fine, but the branch taken is frozen into the compiled program.
type Primal func(t *Trace, args []*Value, discrete []any) Result

// Compiled is a traced program with its interface metadata: input and
// output shapes and whether the primal returned a tuple.
type Compiled struct {
	prog      *Program
	inShapes  []array.Shape
	outShapes []array.Shape
	tuple     bool
}

// Compile traces fn once over symbolic inputs with the given shapes and
// returns the recorded program. fn itself never runs again: all later
// evaluation and differentiation replays the trace. Shape errors raised
// while tracing are returned, not propagated as panics.
func Compile(fn Primal, shapes []array.Shape, discrete []any) (c *Compiled, err error) {
	defer func() {
		if r := recover(); r != nil {
			c, err = nil, errors.Errorf("ad: compile: %v", r)
		}
	}()

	t, args := newTrace(shapes)
	res := fn(t, args, discrete)
	if res.Len() == 0 {
		return nil, errors.New("ad: compile: primal returned no values")
	}

	p := t.p
	outShapes := make([]array.Shape, 0, res.Len())
	for i, v := range res.Values() {
		if v == nil {
			return nil, errors.Errorf("ad: compile: result value %d is nil", i)
		}
		if v.t != t {
			return nil, errors.Errorf("ad: compile: result value %d belongs to a different trace", i)
		}
		p.outputs = append(p.outputs, v.id)
		outShapes = append(outShapes, v.shape.Clone())
	}
	p.tuple = res.IsTuple()

	in := make([]array.Shape, len(shapes))
	for i, s := range shapes {
		in[i] = s.Clone()
	}
	return &Compiled{prog: p, inShapes: in, outShapes: outShapes, tuple: p.tuple}, nil
}

// NumInputs returns the number of continuous arguments.
func (c *Compiled) NumInputs() int { return len(c.inShapes) }

// NumOutputs returns the number of result values.
func (c *Compiled) NumOutputs() int { return len(c.outShapes) }

// InShapes returns the input shapes the program was compiled for.
func (c *Compiled) InShapes() []array.Shape { return c.inShapes }

// OutShapes returns the result shapes discovered while tracing.
func (c *Compiled) OutShapes() []array.Shape { return c.outShapes }

// ReturnsTuple reports whether the primal returned a tuple rather than a
// single value.
func (c *Compiled) ReturnsTuple() bool { return c.tuple }

// Eval replays the program on concrete inputs.
func (c *Compiled) Eval(inputs []*array.Array) []*array.Array {
	return c.prog.Eval(inputs)
}

// JVP pushes one tangent per input forward through the program.
func (c *Compiled) JVP(inputs, tangents []*array.Array) (outs, tanOuts []*array.Array) {
	return c.prog.JVP(inputs, tangents)
}

// VJP evaluates the program and returns its outputs with a reusable
// pullback for reverse sweeps.
func (c *Compiled) VJP(inputs []*array.Array) ([]*array.Array, *Pullback) {
	return c.prog.VJP(inputs)
}
