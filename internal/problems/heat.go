package problems

import (
	"go.uber.org/zap"

	"github.com/gomdao/gomdao/internal/ad"
	"github.com/gomdao/gomdao/internal/array"
	"github.com/gomdao/gomdao/internal/component"
	"github.com/gomdao/gomdao/internal/linearize"
)

// heatPrimal is steady 1-D heat conduction on the unit interval with
// fixed boundary temperatures and a uniform source:
//
//	r_i = k*(T[i-1] - 2*T[i] + T[i+1])/h^2 + q
//
// The node count and conductivity ride along as discretes, so the
// stencil matrix is folded into the trace as a constant.
func heatPrimal(tr *ad.Trace, args []*ad.Value, disc []any) ad.Result {
	n := disc[0].(int)
	k := disc[1].(float64)
	h := 1.0 / float64(n+1)
	c := k / (h * h)

	tL, tR, q, T := args[0], args[1], args[2], args[3]

	lap := array.Zeros(array.Shape{n, n})
	for i := 0; i < n; i++ {
		lap.Set(-2*c, i, i)
		if i > 0 {
			lap.Set(c, i, i-1)
		}
		if i < n-1 {
			lap.Set(c, i, i+1)
		}
	}
	eL := array.Zeros(array.Shape{n, 1})
	eL.Set(c, 0, 0)
	eR := array.Zeros(array.Shape{n, 1})
	eR.Set(c, n-1, 0)
	ones := array.Full(array.Shape{n, 1}, 1)

	r := tr.Const(lap).MatVec(T).
		Add(tr.Const(eL).MatVec(tL.Reshape(array.Shape{1}))).
		Add(tr.Const(eR).MatVec(tR.Reshape(array.Shape{1}))).
		Add(tr.Const(ones).MatVec(q.Reshape(array.Shape{1})))
	return ad.Single(r)
}

// HeatN builds the conduction problem with n interior nodes. The
// jacobian of T against itself is tridiagonal, which makes this the
// demo of choice for sparsity probing and coloring.
func HeatN(n int) Builder {
	return func(opts linearize.Options, log *zap.Logger) (*component.Implicit, error) {
		c := component.New("heat")
		if log != nil {
			c.SetLogger(log)
		}
		start := make([]float64, n)
		for i := range start {
			start[i] = 0.5
		}
		if err := firstErr(
			c.SetOptions(opts),
			c.AddInput("tL", array.Shape{}),
			c.AddInput("tR", array.Shape{}),
			c.AddInput("q", array.Shape{}),
			c.AddOutput("T", array.Shape{n}),
			c.AddDiscrete("n", n),
			c.AddDiscrete("k", 1.0),
			c.SetPrimal(heatPrimal),
			c.DeclarePartials("T", "T"),
			c.DeclarePartials("T", "tL"),
			c.DeclarePartials("T", "tR"),
			c.DeclarePartials("T", "q"),
			c.Setup(),
			c.SetInput("tL", 1),
			c.SetInput("tR", 0),
			c.SetInput("q", 10),
			c.SetOutput("T", start...),
		); err != nil {
			return nil, err
		}
		return c, nil
	}
}

// Heat is HeatN with eight nodes.
func Heat(opts linearize.Options, log *zap.Logger) (*component.Implicit, error) {
	return HeatN(8)(opts, log)
}
