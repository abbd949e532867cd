package ad

import (
	"fmt"

	"github.com/gomdao/gomdao/internal/array"
)

// Program is a completed trace: a flat instruction list over a table of
// value nodes, with inputs occupying the first numInputs slots. A Program
// holds no mutable state and is safe for concurrent replay.
type Program struct {
	numInputs int
	shapes    []array.Shape
	consts    map[int]*array.Array
	insts     []inst
	outputs   []int
	tuple     bool
}

// NumInputs returns the number of input nodes.
func (p *Program) NumInputs() int { return p.numInputs }

// NumOutputs returns the number of output nodes.
func (p *Program) NumOutputs() int { return len(p.outputs) }

func (p *Program) checkInputs(inputs []*array.Array) {
	if len(inputs) != p.numInputs {
		panic(fmt.Sprintf("ad: got %d inputs, program has %d", len(inputs), p.numInputs))
	}
	for i, in := range inputs {
		if !in.Shape().Equal(p.shapes[i]) {
			panic(fmt.Sprintf("ad: input %d has shape %v, program expects %v", i, in.Shape(), p.shapes[i]))
		}
	}
}

// run replays the instruction list and returns the full node table.
func (p *Program) run(inputs []*array.Array) []*array.Array {
	p.checkInputs(inputs)
	vals := make([]*array.Array, len(p.shapes))
	copy(vals, inputs)
	for id, c := range p.consts {
		vals[id] = c
	}
	args := make([]*array.Array, 0, 4)
	for _, ins := range p.insts {
		args = args[:0]
		for _, a := range ins.args {
			args = append(args, vals[a])
		}
		vals[ins.out] = ins.op.Eval(args)
	}
	return vals
}

func (p *Program) gather(vals []*array.Array) []*array.Array {
	outs := make([]*array.Array, len(p.outputs))
	for i, id := range p.outputs {
		v := vals[id]
		// An output that is directly an input aliases the caller's
		// buffer, which the caller may mutate between replays.
		if id < p.numInputs {
			v = v.Clone()
		}
		outs[i] = v
	}
	return outs
}

// Eval replays the program on concrete inputs and returns the outputs.
// Returned arrays may share storage with internal buffers; callers must
// treat them as read-only.
func (p *Program) Eval(inputs []*array.Array) []*array.Array {
	return p.gather(p.run(inputs))
}

// JVP replays the program while pushing one tangent per input forward,
// returning the primal outputs and their tangents. Tangent shapes must
// match the corresponding input shapes.
func (p *Program) JVP(inputs, tangents []*array.Array) (outs, tanOuts []*array.Array) {
	p.checkInputs(inputs)
	if len(tangents) != p.numInputs {
		panic(fmt.Sprintf("ad: got %d tangents, program has %d inputs", len(tangents), p.numInputs))
	}
	for i, tn := range tangents {
		if !tn.Shape().Equal(p.shapes[i]) {
			panic(fmt.Sprintf("ad: tangent %d has shape %v, program expects %v", i, tn.Shape(), p.shapes[i]))
		}
	}

	vals := make([]*array.Array, len(p.shapes))
	tans := make([]*array.Array, len(p.shapes))
	copy(vals, inputs)
	copy(tans, tangents)
	for id, c := range p.consts {
		vals[id] = c
		tans[id] = array.Zeros(p.shapes[id])
	}

	args := make([]*array.Array, 0, 4)
	targs := make([]*array.Array, 0, 4)
	for _, ins := range p.insts {
		args, targs = args[:0], targs[:0]
		for _, a := range ins.args {
			args = append(args, vals[a])
			targs = append(targs, tans[a])
		}
		out := ins.op.Eval(args)
		vals[ins.out] = out
		tans[ins.out] = ins.op.JVP(args, out, targs)
	}

	outs = p.gather(vals)
	tanOuts = make([]*array.Array, len(p.outputs))
	for i, id := range p.outputs {
		tv := tans[id]
		if id < p.numInputs {
			tv = tv.Clone()
		}
		tanOuts[i] = tv
	}
	return outs, tanOuts
}

// VJP replays the program once and returns the primal outputs together
// with a Pullback that can be applied to any number of cotangent seeds.
// This is the reverse-mode entry point: the forward pass (and its stored
// intermediates) is shared across all subsequent pulls.
func (p *Program) VJP(inputs []*array.Array) ([]*array.Array, *Pullback) {
	vals := p.run(inputs)
	return p.gather(vals), &Pullback{prog: p, vals: vals}
}

// Pullback is a completed forward pass ready for reverse sweeps. Apply
// may be called repeatedly; the stored intermediates are shared.
type Pullback struct {
	prog *Program
	vals []*array.Array
}

// Apply pulls one cotangent per program output back to one cotangent per
// program input. Seeds and returned arrays may share storage; callers
// must treat both as read-only.
func (pb *Pullback) Apply(cots []*array.Array) []*array.Array {
	p := pb.prog
	if len(cots) != len(p.outputs) {
		panic(fmt.Sprintf("ad: got %d cotangents, program has %d outputs", len(cots), len(p.outputs)))
	}

	grads := make([]*array.Array, len(p.shapes))
	owned := make([]bool, len(p.shapes))
	accum := func(id int, g *array.Array) {
		if grads[id] == nil {
			grads[id] = g
			return
		}
		if !owned[id] {
			grads[id] = grads[id].Clone()
			owned[id] = true
		}
		array.AddTo(grads[id], g)
	}

	for i, id := range p.outputs {
		if !cots[i].Shape().Equal(p.shapes[id]) {
			panic(fmt.Sprintf("ad: cotangent %d has shape %v, program expects %v", i, cots[i].Shape(), p.shapes[id]))
		}
		accum(id, cots[i])
	}

	args := make([]*array.Array, 0, 4)
	for i := len(p.insts) - 1; i >= 0; i-- {
		ins := p.insts[i]
		g := grads[ins.out]
		if g == nil {
			continue
		}
		args = args[:0]
		for _, a := range ins.args {
			args = append(args, pb.vals[a])
		}
		contribs := ins.op.VJP(args, pb.vals[ins.out], g)
		for j, c := range contribs {
			if c != nil {
				accum(ins.args[j], c)
			}
		}
	}

	res := make([]*array.Array, p.numInputs)
	for i := range res {
		if grads[i] == nil {
			res[i] = array.Zeros(p.shapes[i])
		} else {
			res[i] = grads[i]
		}
	}
	return res
}
