package ops

import "github.com/gomdao/gomdao/internal/array"

// Add is element-wise addition.
type Add struct{}

func (Add) Name() string { return "add" }

func (Add) Eval(in []*array.Array) *array.Array {
	return array.Add(in[0], in[1])
}

func (Add) JVP(in []*array.Array, out *array.Array, tan []*array.Array) *array.Array {
	return array.Add(tan[0], tan[1])
}

func (Add) VJP(in []*array.Array, out, cot *array.Array) []*array.Array {
	return []*array.Array{cot, cot}
}

// Sub is element-wise subtraction.
type Sub struct{}

func (Sub) Name() string { return "sub" }

func (Sub) Eval(in []*array.Array) *array.Array {
	return array.Sub(in[0], in[1])
}

func (Sub) JVP(in []*array.Array, out *array.Array, tan []*array.Array) *array.Array {
	return array.Sub(tan[0], tan[1])
}

func (Sub) VJP(in []*array.Array, out, cot *array.Array) []*array.Array {
	return []*array.Array{cot, array.Neg(cot)}
}

// Mul is element-wise multiplication.
type Mul struct{}

func (Mul) Name() string { return "mul" }

func (Mul) Eval(in []*array.Array) *array.Array {
	return array.Mul(in[0], in[1])
}

func (Mul) JVP(in []*array.Array, out *array.Array, tan []*array.Array) *array.Array {
	d := array.Mul(tan[0], in[1])
	array.AddTo(d, array.Mul(in[0], tan[1]))
	return d
}

func (Mul) VJP(in []*array.Array, out, cot *array.Array) []*array.Array {
	return []*array.Array{array.Mul(cot, in[1]), array.Mul(cot, in[0])}
}

// Div is element-wise division.
type Div struct{}

func (Div) Name() string { return "div" }

func (Div) Eval(in []*array.Array) *array.Array {
	return array.Div(in[0], in[1])
}

func (Div) JVP(in []*array.Array, out *array.Array, tan []*array.Array) *array.Array {
	// d(a/b) = (da - (a/b)*db) / b
	d := array.Sub(tan[0], array.Mul(out, tan[1]))
	return array.Div(d, in[1])
}

func (Div) VJP(in []*array.Array, out, cot *array.Array) []*array.Array {
	ga := array.Div(cot, in[1])
	gb := array.Neg(array.Mul(ga, out))
	return []*array.Array{ga, gb}
}
