package ad

import (
	"math"
	"testing"

	"github.com/gomdao/gomdao/internal/array"
)

// scalarChain is a small smooth function with shared subexpressions:
// f(x, y) = sum(sin(x)*y + x*x).
func scalarChain(t *Trace, args []*Value, discrete []any) Result {
	x, y := args[0], args[1]
	return Single(x.Sin().Mul(y).Add(x.Mul(x)).Sum())
}

func compileT(t *testing.T, fn Primal, shapes []array.Shape, discrete []any) *Compiled {
	t.Helper()
	c, err := Compile(fn, shapes, discrete)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return c
}

func close2(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

func TestCompileTracesOnce(t *testing.T) {
	traces := 0
	fn := func(tr *Trace, args []*Value, discrete []any) Result {
		traces++
		return Single(args[0].Scale(2))
	}
	c := compileT(t, fn, []array.Shape{{3}}, nil)
	if traces != 1 {
		t.Fatalf("traced %d times during compile, want 1", traces)
	}

	in := []*array.Array{array.FromSlice([]float64{1, 2, 3}, array.Shape{3})}
	for i := 0; i < 5; i++ {
		out := c.Eval(in)
		if out[0].At(1) != 4 {
			t.Fatalf("eval %d: got %v", i, out[0].Data())
		}
	}
	if traces != 1 {
		t.Errorf("replay re-ran the primal: traced %d times", traces)
	}
}

func TestCompileResultKinds(t *testing.T) {
	single := compileT(t, func(tr *Trace, args []*Value, _ []any) Result {
		return Single(args[0].Neg())
	}, []array.Shape{{2}}, nil)
	if single.ReturnsTuple() {
		t.Error("Single result reported as tuple")
	}

	oneTuple := compileT(t, func(tr *Trace, args []*Value, _ []any) Result {
		return Tuple(args[0].Neg())
	}, []array.Shape{{2}}, nil)
	if !oneTuple.ReturnsTuple() {
		t.Error("one-element Tuple result reported as single")
	}
	if oneTuple.NumOutputs() != 1 {
		t.Errorf("NumOutputs = %d, want 1", oneTuple.NumOutputs())
	}

	pair := compileT(t, func(tr *Trace, args []*Value, _ []any) Result {
		return Tuple(args[0].Exp(), args[0].Sum())
	}, []array.Shape{{2}}, nil)
	if got := pair.OutShapes(); len(got) != 2 || !got[0].Equal(array.Shape{2}) || !got[1].Equal(array.Shape{}) {
		t.Errorf("OutShapes = %v", got)
	}
}

func TestCompileShapeErrorReturned(t *testing.T) {
	_, err := Compile(func(tr *Trace, args []*Value, _ []any) Result {
		return Single(args[0].Add(args[1]))
	}, []array.Shape{{2}, {3}}, nil)
	if err == nil {
		t.Fatal("expected error for shape-mismatched add")
	}
}

func TestCompileMixedTraceErrorReturned(t *testing.T) {
	var stray *Value
	compileT(t, func(tr *Trace, args []*Value, _ []any) Result {
		stray = args[0]
		return Single(args[0])
	}, []array.Shape{{2}}, nil)

	_, err := Compile(func(tr *Trace, args []*Value, _ []any) Result {
		return Single(args[0].Add(stray))
	}, []array.Shape{{2}}, nil)
	if err == nil {
		t.Fatal("expected error when mixing values across traces")
	}
}

func TestEvalMatchesDirect(t *testing.T) {
	c := compileT(t, scalarChain, []array.Shape{{3}, {3}}, nil)
	x := []float64{0.3, -0.7, 1.2}
	y := []float64{1.5, 0.25, -2}
	in := []*array.Array{
		array.FromSlice(x, array.Shape{3}),
		array.FromSlice(y, array.Shape{3}),
	}
	want := 0.0
	for i := range x {
		want += math.Sin(x[i])*y[i] + x[i]*x[i]
	}
	got := c.Eval(in)[0].Item()
	if !close2(got, want, 1e-12) {
		t.Errorf("Eval = %v, want %v", got, want)
	}
}

func TestJVPMatchesCentralDiff(t *testing.T) {
	c := compileT(t, scalarChain, []array.Shape{{3}, {3}}, nil)
	in := []*array.Array{
		array.FromSlice([]float64{0.3, -0.7, 1.2}, array.Shape{3}),
		array.FromSlice([]float64{1.5, 0.25, -2}, array.Shape{3}),
	}
	fd := CentralDiff(c, in, 1e-6)

	for wi := 0; wi < 2; wi++ {
		for j := 0; j < 3; j++ {
			tangents := []*array.Array{array.Zeros(array.Shape{3}), array.Zeros(array.Shape{3})}
			tangents[wi].Data()[j] = 1
			_, douts := c.JVP(in, tangents)
			got := douts[0].Item()
			want := fd[0][wi].Data()[j]
			if !close2(got, want, 1e-5) {
				t.Errorf("d f / d in[%d][%d]: jvp %v, fd %v", wi, j, got, want)
			}
		}
	}
}

func TestVJPMatchesJVP(t *testing.T) {
	// ⟨J·dx, dy⟩ must equal ⟨dx, Jᵀ·dy⟩ for every seed pair.
	fn := func(tr *Trace, args []*Value, _ []any) Result {
		x, y := args[0], args[1]
		r0 := x.Exp().Mul(y).Sub(x)
		r1 := x.Dot(y)
		return Tuple(r0, r1)
	}
	c := compileT(t, fn, []array.Shape{{2}, {2}}, nil)
	in := []*array.Array{
		array.FromSlice([]float64{0.5, -0.25}, array.Shape{2}),
		array.FromSlice([]float64{2, 3}, array.Shape{2}),
	}

	dx := []*array.Array{
		array.FromSlice([]float64{0.7, -1.1}, array.Shape{2}),
		array.FromSlice([]float64{0.2, 0.9}, array.Shape{2}),
	}
	dy := []*array.Array{
		array.FromSlice([]float64{-0.4, 1.3}, array.Shape{2}),
		array.Scalar(0.6),
	}

	_, jdx := c.JVP(in, dx)
	lhs := 0.0
	for i := range jdx {
		lhs += array.Dot(jdx[i], dy[i]).Item()
	}

	_, pb := c.VJP(in)
	jtdy := pb.Apply(dy)
	rhs := 0.0
	for i := range jtdy {
		rhs += array.Dot(dx[i], jtdy[i]).Item()
	}

	if !close2(lhs, rhs, 1e-10) {
		t.Errorf("adjoint identity broken: %v vs %v", lhs, rhs)
	}
}

func TestPullbackReuse(t *testing.T) {
	fn := func(tr *Trace, args []*Value, _ []any) Result {
		return Single(args[0].Mul(args[0]))
	}
	c := compileT(t, fn, []array.Shape{{2}}, nil)
	in := []*array.Array{array.FromSlice([]float64{3, 5}, array.Shape{2})}

	_, pb := c.VJP(in)
	for i := 0; i < 3; i++ {
		for j := 0; j < 2; j++ {
			seed := array.Zeros(array.Shape{2})
			seed.Data()[j] = 1
			g := pb.Apply([]*array.Array{seed})
			// d(x²)/dx = 2x, one row per seed.
			for k := 0; k < 2; k++ {
				want := 0.0
				if k == j {
					want = 2 * in[0].Data()[k]
				}
				if !close2(g[0].Data()[k], want, 1e-12) {
					t.Fatalf("pull %d row %d: got %v, want %v", i, j, g[0].Data(), want)
				}
			}
		}
	}
}

func TestDiscreteFoldedAtTrace(t *testing.T) {
	fn := func(tr *Trace, args []*Value, discrete []any) Result {
		if discrete[0].(bool) {
			return Single(args[0].Scale(10))
		}
		return Single(args[0].Scale(-10))
	}
	in := []*array.Array{array.Scalar(1)}

	pos := compileT(t, fn, []array.Shape{{}}, []any{true})
	neg := compileT(t, fn, []array.Shape{{}}, []any{false})
	if got := pos.Eval(in)[0].Item(); got != 10 {
		t.Errorf("true branch: got %v", got)
	}
	if got := neg.Eval(in)[0].Item(); got != -10 {
		t.Errorf("false branch: got %v", got)
	}
}

func TestConstHasZeroDerivative(t *testing.T) {
	fn := func(tr *Trace, args []*Value, _ []any) Result {
		k := tr.Const(array.FromSlice([]float64{2, 4}, array.Shape{2}))
		return Single(args[0].Mul(k).Sum())
	}
	c := compileT(t, fn, []array.Shape{{2}}, nil)
	in := []*array.Array{array.FromSlice([]float64{1, 1}, array.Shape{2})}

	_, pb := c.VJP(in)
	g := pb.Apply([]*array.Array{array.Scalar(1)})
	if g[0].Data()[0] != 2 || g[0].Data()[1] != 4 {
		t.Errorf("grad = %v, want [2 4]", g[0].Data())
	}
}

func TestPassthroughOutputIndependentOfCaller(t *testing.T) {
	fn := func(tr *Trace, args []*Value, _ []any) Result {
		return Single(args[0])
	}
	c := compileT(t, fn, []array.Shape{{2}}, nil)
	in := []*array.Array{array.FromSlice([]float64{1, 2}, array.Shape{2})}

	out := c.Eval(in)
	in[0].Data()[0] = 99
	if out[0].Data()[0] != 1 {
		t.Error("output aliases caller input")
	}

	fd := CentralDiff(c, in, 1e-6)
	want := []float64{1, 0, 0, 1}
	for i, w := range want {
		if !close2(fd[0][0].Data()[i], w, 1e-6) {
			t.Fatalf("identity jacobian = %v", fd[0][0].Data())
		}
	}
}

func TestCentralDiffCompositeShapes(t *testing.T) {
	fn := func(tr *Trace, args []*Value, _ []any) Result {
		return Tuple(args[0].MatVec(args[1]), args[1].Sum())
	}
	c := compileT(t, fn, []array.Shape{{2, 3}, {3}}, nil)
	in := []*array.Array{
		array.FromSlice([]float64{1, 2, 3, 4, 5, 6}, array.Shape{2, 3}),
		array.FromSlice([]float64{1, -1, 2}, array.Shape{3}),
	}
	fd := CentralDiff(c, in, 1e-6)

	if !fd[0][0].Shape().Equal(array.Shape{2, 2, 3}) {
		t.Errorf("block[0][0] shape = %v, want [2 2 3]", fd[0][0].Shape())
	}
	if !fd[0][1].Shape().Equal(array.Shape{2, 3}) {
		t.Errorf("block[0][1] shape = %v, want [2 3]", fd[0][1].Shape())
	}
	if !fd[1][1].Shape().Equal(array.Shape{3}) {
		t.Errorf("block[1][1] shape = %v, want [3]", fd[1][1].Shape())
	}
	// d(Mx)/dx = M.
	for i, w := range in[0].Data() {
		if !close2(fd[0][1].Data()[i], w, 1e-5) {
			t.Fatalf("d(Mx)/dx = %v, want M = %v", fd[0][1].Data(), in[0].Data())
		}
	}
}

func TestJVPChainedOps(t *testing.T) {
	// Full jacobian of a vector function via basis tangents vs FD.
	fn := func(tr *Trace, args []*Value, _ []any) Result {
		x := args[0]
		return Single(x.Tanh().Add(x.Pow(3).Scale(0.5)).Div(x.Exp()))
	}
	c := compileT(t, fn, []array.Shape{{3}}, nil)
	in := []*array.Array{array.FromSlice([]float64{0.2, -0.5, 1.1}, array.Shape{3})}
	fd := CentralDiff(c, in, 1e-6)

	for j := 0; j < 3; j++ {
		tan := []*array.Array{array.Zeros(array.Shape{3})}
		tan[0].Data()[j] = 1
		_, douts := c.JVP(in, tan)
		for k := 0; k < 3; k++ {
			got := douts[0].Data()[k]
			want := fd[0][0].Data()[k*3+j]
			if !close2(got, want, 1e-5) {
				t.Errorf("J[%d][%d]: jvp %v, fd %v", k, j, got, want)
			}
		}
	}
}
