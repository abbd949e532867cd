package ops

import "github.com/gomdao/gomdao/internal/array"

// Neg is element-wise negation.
type Neg struct{}

func (Neg) Name() string { return "neg" }

func (Neg) Eval(in []*array.Array) *array.Array {
	return array.Neg(in[0])
}

func (Neg) JVP(in []*array.Array, out *array.Array, tan []*array.Array) *array.Array {
	return array.Neg(tan[0])
}

func (Neg) VJP(in []*array.Array, out, cot *array.Array) []*array.Array {
	return []*array.Array{array.Neg(cot)}
}

// Scale multiplies by a compile-time constant.
type Scale struct{ S float64 }

func (Scale) Name() string { return "scale" }

func (o Scale) Eval(in []*array.Array) *array.Array {
	return array.Scale(in[0], o.S)
}

func (o Scale) JVP(in []*array.Array, out *array.Array, tan []*array.Array) *array.Array {
	return array.Scale(tan[0], o.S)
}

func (o Scale) VJP(in []*array.Array, out, cot *array.Array) []*array.Array {
	return []*array.Array{array.Scale(cot, o.S)}
}

// Shift adds a compile-time constant.
type Shift struct{ S float64 }

func (Shift) Name() string { return "shift" }

func (o Shift) Eval(in []*array.Array) *array.Array {
	return array.Shift(in[0], o.S)
}

func (Shift) JVP(in []*array.Array, out *array.Array, tan []*array.Array) *array.Array {
	return tan[0]
}

func (Shift) VJP(in []*array.Array, out, cot *array.Array) []*array.Array {
	return []*array.Array{cot}
}

// Sin is element-wise sine.
type Sin struct{}

func (Sin) Name() string { return "sin" }

func (Sin) Eval(in []*array.Array) *array.Array {
	return array.Sin(in[0])
}

func (Sin) JVP(in []*array.Array, out *array.Array, tan []*array.Array) *array.Array {
	return array.Mul(array.Cos(in[0]), tan[0])
}

func (Sin) VJP(in []*array.Array, out, cot *array.Array) []*array.Array {
	return []*array.Array{array.Mul(cot, array.Cos(in[0]))}
}

// Cos is element-wise cosine.
type Cos struct{}

func (Cos) Name() string { return "cos" }

func (Cos) Eval(in []*array.Array) *array.Array {
	return array.Cos(in[0])
}

func (Cos) JVP(in []*array.Array, out *array.Array, tan []*array.Array) *array.Array {
	return array.Neg(array.Mul(array.Sin(in[0]), tan[0]))
}

func (Cos) VJP(in []*array.Array, out, cot *array.Array) []*array.Array {
	return []*array.Array{array.Neg(array.Mul(cot, array.Sin(in[0])))}
}

// Exp is the element-wise exponential.
type Exp struct{}

func (Exp) Name() string { return "exp" }

func (Exp) Eval(in []*array.Array) *array.Array {
	return array.Exp(in[0])
}

func (Exp) JVP(in []*array.Array, out *array.Array, tan []*array.Array) *array.Array {
	return array.Mul(out, tan[0])
}

func (Exp) VJP(in []*array.Array, out, cot *array.Array) []*array.Array {
	return []*array.Array{array.Mul(cot, out)}
}

// Log is the element-wise natural logarithm.
type Log struct{}

func (Log) Name() string { return "log" }

func (Log) Eval(in []*array.Array) *array.Array {
	return array.Log(in[0])
}

func (Log) JVP(in []*array.Array, out *array.Array, tan []*array.Array) *array.Array {
	return array.Div(tan[0], in[0])
}

func (Log) VJP(in []*array.Array, out, cot *array.Array) []*array.Array {
	return []*array.Array{array.Div(cot, in[0])}
}

// Sqrt is the element-wise square root.
type Sqrt struct{}

func (Sqrt) Name() string { return "sqrt" }

func (Sqrt) Eval(in []*array.Array) *array.Array {
	return array.Sqrt(in[0])
}

func (Sqrt) JVP(in []*array.Array, out *array.Array, tan []*array.Array) *array.Array {
	return array.Div(tan[0], array.Scale(out, 2))
}

func (Sqrt) VJP(in []*array.Array, out, cot *array.Array) []*array.Array {
	return []*array.Array{array.Div(cot, array.Scale(out, 2))}
}

// Tanh is the element-wise hyperbolic tangent.
type Tanh struct{}

func (Tanh) Name() string { return "tanh" }

func (Tanh) Eval(in []*array.Array) *array.Array {
	return array.Tanh(in[0])
}

func (Tanh) JVP(in []*array.Array, out *array.Array, tan []*array.Array) *array.Array {
	// d tanh = (1 - tanh²) dx
	sech2 := array.Shift(array.Neg(array.Mul(out, out)), 1)
	return array.Mul(sech2, tan[0])
}

func (Tanh) VJP(in []*array.Array, out, cot *array.Array) []*array.Array {
	sech2 := array.Shift(array.Neg(array.Mul(out, out)), 1)
	return []*array.Array{array.Mul(cot, sech2)}
}

// Pow raises to a compile-time constant exponent.
type Pow struct{ P float64 }

func (Pow) Name() string { return "pow" }

func (o Pow) Eval(in []*array.Array) *array.Array {
	return array.Pow(in[0], o.P)
}

func (o Pow) deriv(in []*array.Array) *array.Array {
	return array.Scale(array.Pow(in[0], o.P-1), o.P)
}

func (o Pow) JVP(in []*array.Array, out *array.Array, tan []*array.Array) *array.Array {
	return array.Mul(o.deriv(in), tan[0])
}

func (o Pow) VJP(in []*array.Array, out, cot *array.Array) []*array.Array {
	return []*array.Array{array.Mul(cot, o.deriv(in))}
}
