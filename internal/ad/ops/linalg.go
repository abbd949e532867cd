package ops

import "github.com/gomdao/gomdao/internal/array"

// MatVec is the matrix-vector product m·x for a 2-D m.
type MatVec struct{}

func (MatVec) Name() string { return "matvec" }

func (MatVec) Eval(in []*array.Array) *array.Array {
	return array.MatVec(in[0], in[1])
}

func (MatVec) JVP(in []*array.Array, out *array.Array, tan []*array.Array) *array.Array {
	d := array.MatVec(tan[0], in[1])
	array.AddTo(d, array.MatVec(in[0], tan[1]))
	return d
}

func (MatVec) VJP(in []*array.Array, out, cot *array.Array) []*array.Array {
	gm := array.Outer(cot, in[1]).Reshape(in[0].Shape())
	gx := array.VecMat(cot, in[0]).Reshape(in[1].Shape())
	return []*array.Array{gm, gx}
}

// Reshape reinterprets the operand under a new shape of equal size.
type Reshape struct{ To array.Shape }

func (Reshape) Name() string { return "reshape" }

func (o Reshape) Eval(in []*array.Array) *array.Array {
	return in[0].Clone().Reshape(o.To)
}

func (o Reshape) JVP(in []*array.Array, out *array.Array, tan []*array.Array) *array.Array {
	return tan[0].Clone().Reshape(o.To)
}

func (o Reshape) VJP(in []*array.Array, out, cot *array.Array) []*array.Array {
	return []*array.Array{cot.Clone().Reshape(in[0].Shape())}
}
