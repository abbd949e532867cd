package array

import (
	"fmt"
	"math"

	"github.com/gomdao/gomdao/internal/parallel"
)

// parCfg is the shared parallel configuration for element-wise kernels.
// Kernels only touch disjoint chunks of the destination, so running them
// under the caller's goroutine is safe without extra synchronization.
var parCfg = parallel.DefaultConfig()

func checkSameShape(op string, a, b *Array) {
	if !a.shape.Equal(b.shape) {
		panic(fmt.Sprintf("%s: shape mismatch %v vs %v", op, a.shape, b.shape))
	}
}

func binary(op string, a, b *Array, f func(x, y float64) float64) *Array {
	checkSameShape(op, a, b)
	out := Zeros(a.shape)
	ad, bd, od := a.data, b.data, out.data
	parallel.ForChunked(len(od), func(start, end int) {
		for i := start; i < end; i++ {
			od[i] = f(ad[i], bd[i])
		}
	}, parCfg)
	return out
}

func unary(a *Array, f func(x float64) float64) *Array {
	out := Zeros(a.shape)
	ad, od := a.data, out.data
	parallel.ForChunked(len(od), func(start, end int) {
		for i := start; i < end; i++ {
			od[i] = f(ad[i])
		}
	}, parCfg)
	return out
}

// Add returns a + b element-wise.
func Add(a, b *Array) *Array { return binary("add", a, b, func(x, y float64) float64 { return x + y }) }

// Sub returns a - b element-wise.
func Sub(a, b *Array) *Array { return binary("sub", a, b, func(x, y float64) float64 { return x - y }) }

// Mul returns a * b element-wise.
func Mul(a, b *Array) *Array { return binary("mul", a, b, func(x, y float64) float64 { return x * y }) }

// Div returns a / b element-wise.
func Div(a, b *Array) *Array { return binary("div", a, b, func(x, y float64) float64 { return x / y }) }

// Neg returns -a element-wise.
func Neg(a *Array) *Array { return unary(a, func(x float64) float64 { return -x }) }

// Scale returns s * a element-wise.
func Scale(a *Array, s float64) *Array { return unary(a, func(x float64) float64 { return s * x }) }

// Shift returns a + s element-wise.
func Shift(a *Array, s float64) *Array { return unary(a, func(x float64) float64 { return x + s }) }

// Sin returns sin(a) element-wise.
func Sin(a *Array) *Array { return unary(a, math.Sin) }

// Cos returns cos(a) element-wise.
func Cos(a *Array) *Array { return unary(a, math.Cos) }

// Exp returns exp(a) element-wise.
func Exp(a *Array) *Array { return unary(a, math.Exp) }

// Log returns the natural logarithm element-wise.
func Log(a *Array) *Array { return unary(a, math.Log) }

// Sqrt returns the square root element-wise.
func Sqrt(a *Array) *Array { return unary(a, math.Sqrt) }

// Tanh returns the hyperbolic tangent element-wise.
func Tanh(a *Array) *Array { return unary(a, math.Tanh) }

// Pow returns a**p element-wise for a constant exponent.
func Pow(a *Array, p float64) *Array {
	return unary(a, func(x float64) float64 { return math.Pow(x, p) })
}

// Sum returns the scalar sum of all elements.
func Sum(a *Array) *Array {
	s := 0.0
	for _, v := range a.data {
		s += v
	}
	return Scalar(s)
}

// Dot returns the scalar inner product of two equally sized arrays,
// flattening both.
func Dot(a, b *Array) *Array {
	if len(a.data) != len(b.data) {
		panic(fmt.Sprintf("dot: size mismatch %d vs %d", len(a.data), len(b.data)))
	}
	s := 0.0
	for i, v := range a.data {
		s += v * b.data[i]
	}
	return Scalar(s)
}

// MatVec returns the matrix-vector product of a 2-D array m (r × c) and a
// vector x with c elements (any shape, flattened).
func MatVec(m, x *Array) *Array {
	if len(m.shape) != 2 {
		panic(fmt.Sprintf("matvec: matrix must be 2-D, got %v", m.shape))
	}
	r, c := m.shape[0], m.shape[1]
	if len(x.data) != c {
		panic(fmt.Sprintf("matvec: size mismatch: matrix %v, vector %d", m.shape, len(x.data)))
	}
	out := Zeros(Shape{r})
	md, xd, od := m.data, x.data, out.data
	parallel.ForChunked(r, func(start, end int) {
		for i := start; i < end; i++ {
			row := md[i*c : (i+1)*c]
			s := 0.0
			for j, v := range row {
				s += v * xd[j]
			}
			od[i] = s
		}
	}, parCfg)
	return out
}

// VecMat returns xᵀ·m for a 2-D array m (r × c) and a vector x with r
// elements: the adjoint counterpart of MatVec.
func VecMat(x, m *Array) *Array {
	if len(m.shape) != 2 {
		panic(fmt.Sprintf("vecmat: matrix must be 2-D, got %v", m.shape))
	}
	r, c := m.shape[0], m.shape[1]
	if len(x.data) != r {
		panic(fmt.Sprintf("vecmat: size mismatch: vector %d, matrix %v", len(x.data), m.shape))
	}
	out := Zeros(Shape{c})
	md, xd, od := m.data, x.data, out.data
	for i := 0; i < r; i++ {
		row := md[i*c : (i+1)*c]
		xi := xd[i]
		for j, v := range row {
			od[j] += xi * v
		}
	}
	return out
}

// Outer returns the outer product of two vectors as a 2-D array.
func Outer(a, b *Array) *Array {
	out := Zeros(Shape{len(a.data), len(b.data)})
	for i, av := range a.data {
		row := out.data[i*len(b.data) : (i+1)*len(b.data)]
		for j, bv := range b.data {
			row[j] = av * bv
		}
	}
	return out
}

// Axpy accumulates y += alpha * x in place, flattening both.
func Axpy(alpha float64, x, y *Array) {
	if len(x.data) != len(y.data) {
		panic(fmt.Sprintf("axpy: size mismatch %d vs %d", len(x.data), len(y.data)))
	}
	for i, v := range x.data {
		y.data[i] += alpha * v
	}
}

// AddTo accumulates dst += src in place, flattening both.
func AddTo(dst, src *Array) {
	Axpy(1, src, dst)
}
