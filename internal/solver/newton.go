// Package solver drives implicit components to a root of their
// residuals.
package solver

import (
	"math"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/gomdao/gomdao/internal/component"
	"github.com/gomdao/gomdao/internal/solve"
)

var ErrDiverged = errors.New("solver: newton diverged")

// Newton is a dense Newton-Raphson driver. Each iteration linearizes
// the component, solves the output jacobian against the negated
// residuals, and applies the full step. Partials of every residual
// with respect to every output it touches must be declared, or the
// step uses a jacobian with holes.
type Newton struct {
	MaxIter int
	Atol    float64
	log     *zap.Logger
}

func New(log *zap.Logger) *Newton {
	if log == nil {
		log = zap.NewNop()
	}
	return &Newton{MaxIter: 20, Atol: 1e-10, log: log}
}

// Result reports how a solve went.
type Result struct {
	Iterations int
	Norm       float64
	Converged  bool
}

// Solve iterates until the residual 2-norm drops below Atol or the
// iteration cap is hit. The component's outputs hold the final point
// either way.
func (n *Newton) Solve(c *component.Implicit) (Result, error) {
	var res Result
	for {
		if err := c.ApplyNonlinear(); err != nil {
			return res, err
		}
		res.Norm = norm(c.Residuals().Data())
		if math.IsNaN(res.Norm) || math.IsInf(res.Norm, 0) {
			return res, ErrDiverged
		}
		n.log.Debug("newton iteration",
			zap.Int("iter", res.Iterations),
			zap.Float64("norm", res.Norm),
		)
		if res.Norm < n.Atol {
			res.Converged = true
			return res, nil
		}
		if res.Iterations == n.MaxIter {
			n.log.Warn("newton hit the iteration cap",
				zap.Int("maxiter", n.MaxIter),
				zap.Float64("norm", res.Norm),
			)
			return res, nil
		}

		if err := c.Linearize(); err != nil {
			return res, err
		}
		jac, err := c.OutputJacobian()
		if err != nil {
			return res, err
		}
		r := c.Residuals().Data()
		rhs := make([]float64, len(r))
		for i := range r {
			rhs[i] = -r[i]
		}
		step, err := solve.Dense(jac, rhs)
		if err != nil {
			return res, err
		}
		out := c.Outputs().Data()
		for i := range out {
			out[i] += step[i]
		}
		res.Iterations++
	}
}

func norm(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x * x
	}
	return math.Sqrt(s)
}
