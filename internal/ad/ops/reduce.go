package ops

import "github.com/gomdao/gomdao/internal/array"

// Sum reduces all elements to a scalar.
type Sum struct{}

func (Sum) Name() string { return "sum" }

func (Sum) Eval(in []*array.Array) *array.Array {
	return array.Sum(in[0])
}

func (Sum) JVP(in []*array.Array, out *array.Array, tan []*array.Array) *array.Array {
	return array.Sum(tan[0])
}

func (Sum) VJP(in []*array.Array, out, cot *array.Array) []*array.Array {
	return []*array.Array{array.Full(in[0].Shape(), cot.Item())}
}

// Dot is the scalar inner product of two equally sized operands.
type Dot struct{}

func (Dot) Name() string { return "dot" }

func (Dot) Eval(in []*array.Array) *array.Array {
	return array.Dot(in[0], in[1])
}

func (Dot) JVP(in []*array.Array, out *array.Array, tan []*array.Array) *array.Array {
	d := array.Dot(tan[0], in[1])
	array.AddTo(d, array.Dot(in[0], tan[1]))
	return d
}

func (Dot) VJP(in []*array.Array, out, cot *array.Array) []*array.Array {
	g := cot.Item()
	ga := array.Scale(in[1], g).Reshape(in[0].Shape())
	gb := array.Scale(in[0], g).Reshape(in[1].Shape())
	return []*array.Array{ga, gb}
}
