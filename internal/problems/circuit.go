package problems

import (
	"go.uber.org/zap"

	"github.com/gomdao/gomdao/internal/ad"
	"github.com/gomdao/gomdao/internal/array"
	"github.com/gomdao/gomdao/internal/component"
	"github.com/gomdao/gomdao/internal/linearize"
)

// Circuit component values: a current source feeding node 1, R1 from
// node 1 to ground, R2 between the nodes, and a diode from node 2 to
// ground. With I = 0.1 A the converged voltages are V1 = 9.908 V and
// V2 = 0.7128 V.
const (
	circuitR1 = 100.0
	circuitR2 = 10000.0
	circuitIs = 1e-15
	circuitVt = 0.025875
)

func circuitPrimal(tr *ad.Trace, args []*ad.Value, _ []any) ad.Result {
	iIn, v1, v2 := args[0], args[1], args[2]
	i1 := v1.Scale(1 / circuitR1)
	i2 := v1.Sub(v2).Scale(1 / circuitR2)
	iD := v2.Scale(1 / circuitVt).Exp().Shift(-1).Scale(circuitIs)
	r1 := iIn.Sub(i1).Sub(i2)
	r2 := i2.Sub(iD)
	return ad.Tuple(r1, r2)
}

// Circuit builds the two-node nonlinear circuit. Residuals are
// Kirchhoff's current law at each node.
func Circuit(opts linearize.Options, log *zap.Logger) (*component.Implicit, error) {
	c := component.New("circuit")
	if log != nil {
		c.SetLogger(log)
	}
	if err := firstErr(
		c.SetOptions(opts),
		c.AddInput("I", array.Shape{}),
		c.AddOutput("V1", array.Shape{}),
		c.AddOutput("V2", array.Shape{}),
		c.SetPrimal(circuitPrimal),
		c.DeclarePartials("V1", "I"),
		c.DeclarePartials("V1", "V1"),
		c.DeclarePartials("V1", "V2"),
		c.DeclarePartials("V2", "V1"),
		c.DeclarePartials("V2", "V2"),
		c.Setup(),
		c.SetInput("I", 0.1),
		c.SetOutput("V1", 10),
		c.SetOutput("V2", 0.7),
	); err != nil {
		return nil, err
	}
	return c, nil
}
