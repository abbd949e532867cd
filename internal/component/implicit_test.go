package component

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/gomdao/gomdao/internal/ad"
	"github.com/gomdao/gomdao/internal/array"
	"github.com/gomdao/gomdao/internal/jacobian"
	"github.com/gomdao/gomdao/internal/linearize"
	"github.com/gomdao/gomdao/internal/variable"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// Circuit constants: a current source into node 1, R1 to ground, R2 to
// node 2, and a diode from node 2 to ground.
const (
	circuitR1 = 100.0
	circuitR2 = 10000.0
	circuitIs = 1e-15
	circuitVt = 0.025875
)

// circuitPrimal is Kirchhoff's current law at both nodes.
func circuitPrimal(tr *ad.Trace, args []*ad.Value, _ []any) ad.Result {
	iIn, v1, v2 := args[0], args[1], args[2]
	i1 := v1.Scale(1 / circuitR1)
	i2 := v1.Sub(v2).Scale(1 / circuitR2)
	iD := v2.Scale(1 / circuitVt).Exp().Shift(-1).Scale(circuitIs)
	r1 := iIn.Sub(i1).Sub(i2)
	r2 := i2.Sub(iD)
	return ad.Tuple(r1, r2)
}

func newCircuit(t *testing.T, opts linearize.Options) *Implicit {
	t.Helper()
	c := New("circuit")
	require.NoError(t, c.SetOptions(opts))
	require.NoError(t, c.AddInput("I", array.Shape{}))
	require.NoError(t, c.AddOutput("V1", array.Shape{}))
	require.NoError(t, c.AddOutput("V2", array.Shape{}))
	require.NoError(t, c.SetPrimal(circuitPrimal))
	for _, d := range []struct{ of, wrt string }{
		{"V1", "I"}, {"V1", "V1"}, {"V1", "V2"},
		{"V2", "V1"}, {"V2", "V2"},
	} {
		require.NoError(t, c.DeclarePartials(d.of, d.wrt))
	}
	require.NoError(t, c.Setup())

	require.NoError(t, c.SetInput("I", 0.1))
	require.NoError(t, c.SetOutput("V1", 10))
	require.NoError(t, c.SetOutput("V2", 0.7))
	return c
}

func blockVal(t *testing.T, c *Implicit, of, wrt string) float64 {
	t.Helper()
	b, ok := c.Partials().Block(jacobian.Key{Of: of, WRT: wrt})
	require.True(t, ok, "block (%s, %s) missing", of, wrt)
	return b.Dense().Data()[0]
}

func TestCircuitResiduals(t *testing.T) {
	c := newCircuit(t, linearize.DefaultOptions())
	require.NoError(t, c.ApplyNonlinear())

	v1, v2 := 10.0, 0.7
	wantR1 := 0.1 - v1/circuitR1 - (v1-v2)/circuitR2
	wantR2 := (v1-v2)/circuitR2 - circuitIs*(math.Exp(v2/circuitVt)-1)
	assert.InDelta(t, wantR1, c.Residuals().Data()[0], 1e-14)
	assert.InDelta(t, wantR2, c.Residuals().Data()[1], 1e-14)
}

func TestCircuitLinearize(t *testing.T) {
	c := newCircuit(t, linearize.DefaultOptions())
	require.NoError(t, c.Linearize())

	dDiode := circuitIs / circuitVt * math.Exp(0.7/circuitVt)
	assert.InDelta(t, 1.0, blockVal(t, c, "V1", "I"), 1e-12)
	assert.InDelta(t, -1/circuitR1-1/circuitR2, blockVal(t, c, "V1", "V1"), 1e-12)
	assert.InDelta(t, 1/circuitR2, blockVal(t, c, "V1", "V2"), 1e-12)
	assert.InDelta(t, 1/circuitR2, blockVal(t, c, "V2", "V1"), 1e-12)
	assert.InDelta(t, -1/circuitR2-dDiode, blockVal(t, c, "V2", "V2"), 1e-8)
}

func TestCircuitNewton(t *testing.T) {
	c := newCircuit(t, linearize.DefaultOptions())

	for iter := 0; iter < 50; iter++ {
		require.NoError(t, c.ApplyNonlinear())
		r1 := c.Residuals().Data()[0]
		r2 := c.Residuals().Data()[1]
		if math.Abs(r1) < 1e-12 && math.Abs(r2) < 1e-12 {
			break
		}
		require.NoError(t, c.Linearize())

		a := blockVal(t, c, "V1", "V1")
		b := blockVal(t, c, "V1", "V2")
		d := blockVal(t, c, "V2", "V1")
		e := blockVal(t, c, "V2", "V2")
		det := a*e - b*d
		require.NotZero(t, det)
		dv1 := (-r1*e + r2*b) / det
		dv2 := (r1*d - r2*a) / det

		v := c.Outputs().Data()
		v[0] += dv1
		v[1] += dv2
	}

	require.NoError(t, c.ApplyNonlinear())
	assert.InDelta(t, 0, c.Residuals().Data()[0], 1e-10)
	assert.InDelta(t, 0, c.Residuals().Data()[1], 1e-10)
	// Known operating point for these constants.
	assert.InDelta(t, 9.908, c.Outputs().Data()[0], 1e-2)
	assert.InDelta(t, 0.7128, c.Outputs().Data()[1], 1e-3)

	// The whole solve reuses one trace.
	assert.Equal(t, 1, c.Controller().Kernel().Specializations())
}

func TestCircuitDeclareColoring(t *testing.T) {
	c := newCircuit(t, linearize.DefaultOptions())
	require.NoError(t, c.DeclareColoring(linearize.DefaultSparsityOptions()))

	col := c.Controller().Coloring()
	require.NotNil(t, col)
	assert.Equal(t, linearize.DirRev, col.Direction)
	assert.Equal(t, 2, col.NumColors())

	// Compressed linearization must match the analytic values.
	require.NoError(t, c.Linearize())
	assert.InDelta(t, 1.0, blockVal(t, c, "V1", "I"), 1e-12)
	assert.InDelta(t, 1/circuitR2, blockVal(t, c, "V2", "V1"), 1e-12)

	// The probed pattern trims the declared blocks.
	b, _ := c.Partials().Block(jacobian.Key{Of: "V2", WRT: "V1"})
	assert.True(t, b.IsSparse())
	assert.Equal(t, 1, b.NNZ())
}

func TestCircuitApplyLinear(t *testing.T) {
	opts := linearize.DefaultOptions()
	opts.MatrixFree = true
	c := newCircuit(t, opts)

	dIn := variable.NewVector(c.InputSet())
	dIn.Data()[0] = 1
	dOut := variable.NewVector(c.OutputSet())
	dRes := variable.NewVector(c.OutputSet())

	require.NoError(t, c.ApplyLinear(linearize.DirFwd, dIn, dOut, dRes))
	assert.InDelta(t, 1.0, dRes.Data()[0], 1e-12) // ∂r1/∂I
	assert.InDelta(t, 0.0, dRes.Data()[1], 1e-12)

	dRes.CopyFrom([]float64{1, 0})
	gIn := variable.NewVector(c.InputSet())
	gOut := variable.NewVector(c.OutputSet())
	require.NoError(t, c.ApplyLinear(linearize.DirRev, gIn, gOut, dRes))
	assert.InDelta(t, 1.0, gIn.Data()[0], 1e-12)
	assert.InDelta(t, -1/circuitR1-1/circuitR2, gOut.Data()[0], 1e-12)
}

func TestSetupValidation(t *testing.T) {
	c := New("empty")
	require.NoError(t, c.AddOutput("x", array.Shape{}))
	assert.ErrorIs(t, c.Setup(), ErrNoPrimal)

	c = New("no-outputs")
	require.NoError(t, c.SetPrimal(circuitPrimal))
	assert.ErrorIs(t, c.Setup(), ErrNoOutputs)

	c = newCircuit(t, linearize.DefaultOptions())
	assert.ErrorIs(t, c.Setup(), ErrSetupDone)
	assert.ErrorIs(t, c.AddInput("late", array.Shape{}), ErrSetupDone)
	assert.ErrorIs(t, c.AddOutput("late", array.Shape{}), ErrSetupDone)
	assert.ErrorIs(t, c.SetPrimal(circuitPrimal), ErrSetupDone)
	assert.ErrorIs(t, c.DeclarePartials("V1", "I"), ErrSetupDone)
	assert.ErrorIs(t, c.SetOptions(linearize.DefaultOptions()), ErrSetupDone)
}

func TestDeclarePartialsValidation(t *testing.T) {
	c := New("decl")
	require.NoError(t, c.AddInput("a", array.Shape{2}))
	require.NoError(t, c.AddOutput("x", array.Shape{2}))

	assert.ErrorIs(t, c.DeclarePartials("nope", "a"), variable.ErrUnknown)
	assert.ErrorIs(t, c.DeclarePartials("x", "nope"), variable.ErrUnknown)
	require.NoError(t, c.DeclarePartials("x", "a"))
	assert.ErrorIs(t, c.DeclarePartials("x", "a"), jacobian.ErrDuplicate)
	assert.ErrorIs(t,
		c.DeclarePartialsPattern("x", "x", []int{5}, []int{0}),
		jacobian.ErrPattern,
	)
}

func TestOpsBeforeSetup(t *testing.T) {
	c := New("early")
	assert.ErrorIs(t, c.ApplyNonlinear(), ErrNotSetup)
	assert.ErrorIs(t, c.Linearize(), ErrNotSetup)
	assert.ErrorIs(t, c.ApplyLinear(linearize.DirFwd, nil, nil, nil), ErrNotSetup)
	assert.ErrorIs(t, c.SetInput("a", 1), ErrNotSetup)
	_, err := c.ComputeSparsity(linearize.DefaultSparsityOptions())
	assert.ErrorIs(t, err, ErrNotSetup)
	assert.ErrorIs(t, c.DeclareColoring(linearize.DefaultSparsityOptions()), ErrNotSetup)
}

func TestSetValueErrors(t *testing.T) {
	c := newCircuit(t, linearize.DefaultOptions())
	assert.ErrorIs(t, c.SetInput("missing", 1), variable.ErrUnknown)
	assert.ErrorIs(t, c.SetInput("I", 1, 2), ErrSize)
	assert.ErrorIs(t, c.SetOutput("V1"), ErrSize)
}

func TestLinearizeAll(t *testing.T) {
	var comps []*Implicit
	for i := 0; i < 4; i++ {
		comps = append(comps, newCircuit(t, linearize.DefaultOptions()))
	}
	require.NoError(t, LinearizeAll(context.Background(), comps...))
	for _, c := range comps {
		assert.InDelta(t, 1.0, blockVal(t, c, "V1", "I"), 1e-12)
	}

	require.NoError(t, ApplyNonlinearAll(context.Background(), comps...))
	for _, c := range comps {
		assert.NotZero(t, c.Residuals().Data()[1])
	}
}

func TestLinearizeAllPropagatesFailure(t *testing.T) {
	good := newCircuit(t, linearize.DefaultOptions())

	bad := New("bad")
	require.NoError(t, bad.AddOutput("x", array.Shape{}))
	require.NoError(t, bad.SetPrimal(func(tr *ad.Trace, args []*ad.Value, _ []any) ad.Result {
		return ad.Result{}
	}))
	require.NoError(t, bad.Setup())

	err := LinearizeAll(context.Background(), good, bad)
	assert.Error(t, err)
}

func TestDiscreteRespecialization(t *testing.T) {
	c := New("gain")
	require.NoError(t, c.AddInput("u", array.Shape{}))
	require.NoError(t, c.AddOutput("x", array.Shape{}))
	require.NoError(t, c.AddDiscrete("gain", 3.0))
	require.NoError(t, c.SetPrimal(func(tr *ad.Trace, args []*ad.Value, disc []any) ad.Result {
		g := disc[0].(float64)
		return ad.Single(args[1].Scale(g).Sub(args[0]))
	}))
	require.NoError(t, c.DeclarePartials("x", "x"))
	require.NoError(t, c.Setup())

	require.NoError(t, c.Linearize())
	assert.InDelta(t, 3.0, blockVal(t, c, "x", "x"), 1e-12)

	require.NoError(t, c.SetDiscrete("gain", -2.0))
	require.NoError(t, c.Linearize())
	assert.InDelta(t, -2.0, blockVal(t, c, "x", "x"), 1e-12)
	assert.Equal(t, 2, c.Controller().Kernel().Specializations())
}
