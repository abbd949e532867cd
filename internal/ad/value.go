package ad

import (
	"fmt"

	"github.com/gomdao/gomdao/internal/ad/ops"
	"github.com/gomdao/gomdao/internal/array"
)

// Value is a symbolic array inside a trace: a handle to one node of the
// program under construction. Values carry only a shape; concrete numbers
// exist solely at replay time.
type Value struct {
	t     *Trace
	id    int
	shape array.Shape
}

// Shape returns the node's shape.
func (v *Value) Shape() array.Shape { return v.shape.Clone() }

// Size returns the node's element count.
func (v *Value) Size() int { return v.shape.NumElements() }

func (v *Value) binary(op ops.Op, o *Value) *Value {
	if !v.shape.Equal(o.shape) {
		panic(fmt.Sprintf("ad: %s: shape mismatch %v vs %v", op.Name(), v.shape, o.shape))
	}
	return v.t.apply(op, v.shape.Clone(), v, o)
}

func (v *Value) unary(op ops.Op) *Value {
	return v.t.apply(op, v.shape.Clone(), v)
}

// Add returns v + o element-wise.
func (v *Value) Add(o *Value) *Value { return v.binary(ops.Add{}, o) }

// Sub returns v - o element-wise.
func (v *Value) Sub(o *Value) *Value { return v.binary(ops.Sub{}, o) }

// Mul returns v * o element-wise.
func (v *Value) Mul(o *Value) *Value { return v.binary(ops.Mul{}, o) }

// Div returns v / o element-wise.
func (v *Value) Div(o *Value) *Value { return v.binary(ops.Div{}, o) }

// Neg returns -v.
func (v *Value) Neg() *Value { return v.unary(ops.Neg{}) }

// Scale returns s * v for a constant s.
func (v *Value) Scale(s float64) *Value { return v.unary(ops.Scale{S: s}) }

// Shift returns v + s for a constant s.
func (v *Value) Shift(s float64) *Value { return v.unary(ops.Shift{S: s}) }

// Sin returns sin(v) element-wise.
func (v *Value) Sin() *Value { return v.unary(ops.Sin{}) }

// Cos returns cos(v) element-wise.
func (v *Value) Cos() *Value { return v.unary(ops.Cos{}) }

// Exp returns exp(v) element-wise.
func (v *Value) Exp() *Value { return v.unary(ops.Exp{}) }

// Log returns the natural logarithm element-wise.
func (v *Value) Log() *Value { return v.unary(ops.Log{}) }

// Sqrt returns the square root element-wise.
func (v *Value) Sqrt() *Value { return v.unary(ops.Sqrt{}) }

// Tanh returns the hyperbolic tangent element-wise.
func (v *Value) Tanh() *Value { return v.unary(ops.Tanh{}) }

// Pow returns v**p element-wise for a constant exponent.
func (v *Value) Pow(p float64) *Value { return v.unary(ops.Pow{P: p}) }

// Sum reduces v to a scalar.
func (v *Value) Sum() *Value {
	return v.t.apply(ops.Sum{}, array.Shape{}, v)
}

// Dot returns the scalar inner product of v and o, flattening both.
func (v *Value) Dot(o *Value) *Value {
	if v.Size() != o.Size() {
		panic(fmt.Sprintf("ad: dot: size mismatch %d vs %d", v.Size(), o.Size()))
	}
	return v.t.apply(ops.Dot{}, array.Shape{}, v, o)
}

// MatVec returns v·x where v is a 2-D matrix and x a vector with as many
// elements as v has columns.
func (v *Value) MatVec(x *Value) *Value {
	if len(v.shape) != 2 {
		panic(fmt.Sprintf("ad: matvec: matrix must be 2-D, got %v", v.shape))
	}
	if x.Size() != v.shape[1] {
		panic(fmt.Sprintf("ad: matvec: size mismatch: matrix %v, vector %d", v.shape, x.Size()))
	}
	return v.t.apply(ops.MatVec{}, array.Shape{v.shape[0]}, v, x)
}

// Reshape reinterprets v under a new shape of equal size.
func (v *Value) Reshape(s array.Shape) *Value {
	if err := s.Validate(); err != nil {
		panic(fmt.Sprintf("ad: reshape: %v", err))
	}
	if s.NumElements() != v.Size() {
		panic(fmt.Sprintf("ad: reshape: cannot reshape %v to %v", v.shape, s))
	}
	return v.t.apply(ops.Reshape{To: s.Clone()}, s.Clone(), v)
}
