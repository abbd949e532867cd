// Package component assembles the pieces a modeler touches: an implicit
// component declares its variables and partials, supplies a primal
// residual function, and then evaluates, linearizes and propagates
// derivatives through one interface.
package component

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/gomdao/gomdao/internal/ad"
	"github.com/gomdao/gomdao/internal/array"
	"github.com/gomdao/gomdao/internal/jacobian"
	"github.com/gomdao/gomdao/internal/linearize"
	"github.com/gomdao/gomdao/internal/variable"
)

var (
	// ErrNoPrimal is returned by Setup when no primal function was set.
	ErrNoPrimal = errors.New("component: no primal function set")
	// ErrNotSetup is returned by operations that need Setup first.
	ErrNotSetup = errors.New("component: setup has not run")
	// ErrSetupDone is returned when the interface is changed after Setup.
	ErrSetupDone = errors.New("component: already set up")
	// ErrNoOutputs is returned by Setup for a component without outputs.
	ErrNoOutputs = errors.New("component: at least one output is required")
	// ErrSize is returned when a value does not fit its variable.
	ErrSize = errors.New("component: value size mismatch")
)

// Implicit is a component defined by residuals R(inputs, outputs) = 0.
// The residual math lives in a primal function; evaluation and every
// derivative product replay its compiled trace.
type Implicit struct {
	name string
	log  *zap.Logger

	inputs  *variable.Set
	outputs *variable.Set
	disc    *variable.Discretes

	inVals  *variable.Vector
	outVals *variable.Vector
	resVals *variable.Vector

	primal ad.Primal
	parts  *jacobian.Partials
	opts   linearize.Options

	ctrl *Controller
}

// Controller is the derivative engine behind a component.
type Controller = linearize.Controller

// New returns an empty component with default options.
func New(name string) *Implicit {
	return &Implicit{
		name:    name,
		log:     zap.NewNop(),
		inputs:  variable.NewSet(),
		outputs: variable.NewSet(),
		disc:    variable.NewDiscretes(),
		parts:   jacobian.NewPartials(),
		opts:    linearize.DefaultOptions(),
	}
}

// Name returns the component name.
func (c *Implicit) Name() string { return c.name }

// SetLogger attaches a logger used by the component and its controller.
func (c *Implicit) SetLogger(log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	c.log = log
}

// SetOptions replaces the derivative options. Must precede Setup.
func (c *Implicit) SetOptions(opts linearize.Options) error {
	if c.ctrl != nil {
		return ErrSetupDone
	}
	c.opts = opts
	return nil
}

// SetPrimal sets the residual function. Must precede Setup.
func (c *Implicit) SetPrimal(fn ad.Primal) error {
	if c.ctrl != nil {
		return ErrSetupDone
	}
	c.primal = fn
	return nil
}

// AddInput declares a continuous input.
func (c *Implicit) AddInput(name string, shape array.Shape) error {
	if c.ctrl != nil {
		return ErrSetupDone
	}
	return c.inputs.Add(name, shape)
}

// AddOutput declares a continuous output. Its residual shares the name.
func (c *Implicit) AddOutput(name string, shape array.Shape) error {
	if c.ctrl != nil {
		return ErrSetupDone
	}
	return c.outputs.Add(name, shape)
}

// AddDiscrete declares a discrete input with an initial value.
func (c *Implicit) AddDiscrete(name string, val any) error {
	if c.ctrl != nil {
		return ErrSetupDone
	}
	return c.disc.Add(name, val)
}

func (c *Implicit) wrtSize(name string) (int, error) {
	if i, ok := c.inputs.Index(name); ok {
		return c.inputs.Meta(i).Size(), nil
	}
	if i, ok := c.outputs.Index(name); ok {
		return c.outputs.Meta(i).Size(), nil
	}
	return 0, errors.Wrapf(variable.ErrUnknown, "wrt %q", name)
}

// DeclarePartials declares a dense derivative block of one residual with
// respect to one input or output. Blocks never declared are dropped at
// linearization time.
func (c *Implicit) DeclarePartials(of, wrt string) error {
	return c.DeclarePartialsPattern(of, wrt, nil, nil)
}

// DeclarePartialsPattern declares a sparse derivative block holding only
// the given coordinates.
func (c *Implicit) DeclarePartialsPattern(of, wrt string, rows, cols []int) error {
	if c.ctrl != nil {
		return ErrSetupDone
	}
	oi, ok := c.outputs.Index(of)
	if !ok {
		return errors.Wrapf(variable.ErrUnknown, "of %q", of)
	}
	wsz, err := c.wrtSize(wrt)
	if err != nil {
		return err
	}
	return c.parts.Declare(jacobian.Key{Of: of, WRT: wrt}, c.outputs.Meta(oi).Size(), wsz, rows, cols)
}

// Setup freezes the interface and builds the derivative controller.
func (c *Implicit) Setup() error {
	if c.ctrl != nil {
		return ErrSetupDone
	}
	if c.primal == nil {
		return ErrNoPrimal
	}
	if c.outputs.Len() == 0 {
		return ErrNoOutputs
	}

	opts := c.opts
	opts.Logger = c.log.Named(c.name)
	ctrl, err := linearize.New(c.primal, c.inputs, c.outputs, c.parts, opts)
	if err != nil {
		return err
	}

	c.ctrl = ctrl
	c.inVals = variable.NewVector(c.inputs)
	c.outVals = variable.NewVector(c.outputs)
	c.resVals = variable.NewVector(c.outputs)
	c.log.Debug("component set up",
		zap.String("component", c.name),
		zap.Int("inputs", c.inputs.Len()),
		zap.Int("outputs", c.outputs.Len()),
		zap.Int("partials", c.parts.Len()),
	)
	return nil
}

// Inputs returns the input values vector.
func (c *Implicit) Inputs() *variable.Vector { return c.inVals }

// Outputs returns the output values vector.
func (c *Implicit) Outputs() *variable.Vector { return c.outVals }

// Residuals returns the residual values vector filled by ApplyNonlinear.
func (c *Implicit) Residuals() *variable.Vector { return c.resVals }

// Discretes returns the discrete values registry.
func (c *Implicit) Discretes() *variable.Discretes { return c.disc }

// Partials returns the declared derivative blocks.
func (c *Implicit) Partials() *jacobian.Partials { return c.parts }

// Controller returns the derivative engine, nil before Setup.
func (c *Implicit) Controller() *Controller { return c.ctrl }

// InputSet returns the input metadata registry.
func (c *Implicit) InputSet() *variable.Set { return c.inputs }

// OutputSet returns the output metadata registry.
func (c *Implicit) OutputSet() *variable.Set { return c.outputs }

func setVar(vec *variable.Vector, name string, vals []float64) error {
	view, err := vec.View(name)
	if err != nil {
		return err
	}
	if view.Size() != len(vals) {
		return errors.Wrapf(ErrSize, "%q holds %d elements, got %d", name, view.Size(), len(vals))
	}
	copy(view.Data(), vals)
	return nil
}

// SetInput sets an input's value.
func (c *Implicit) SetInput(name string, vals ...float64) error {
	if c.ctrl == nil {
		return ErrNotSetup
	}
	return setVar(c.inVals, name, vals)
}

// SetOutput sets an output's value.
func (c *Implicit) SetOutput(name string, vals ...float64) error {
	if c.ctrl == nil {
		return ErrNotSetup
	}
	return setVar(c.outVals, name, vals)
}

// SetDiscrete replaces a discrete value. The next derivative call
// recompiles against it.
func (c *Implicit) SetDiscrete(name string, val any) error {
	return c.disc.Set(name, val)
}

// ApplyNonlinear evaluates the residuals at the current values.
func (c *Implicit) ApplyNonlinear() error {
	if c.ctrl == nil {
		return ErrNotSetup
	}
	return c.ctrl.Eval(c.inVals, c.outVals, c.disc, c.resVals)
}

// Linearize materializes the declared partial blocks at the current
// values.
func (c *Implicit) Linearize() error {
	if c.ctrl == nil {
		return ErrNotSetup
	}
	return c.ctrl.Linearize(c.inVals, c.outVals, c.disc)
}

// ApplyLinear propagates seed vectors through the linearization at the
// current values without materializing it.
func (c *Implicit) ApplyLinear(mode linearize.Direction, dIn, dOut, dRes *variable.Vector) error {
	if c.ctrl == nil {
		return ErrNotSetup
	}
	return c.ctrl.ApplyLinear(mode, c.inVals, c.outVals, c.disc, dIn, dOut, dRes)
}

// OutputJacobian assembles the square jacobian of the residuals with
// respect to the outputs from the declared blocks, in registration
// order. Blocks never declared stay zero. Call Linearize first for
// current values.
func (c *Implicit) OutputJacobian() (*array.Array, error) {
	if c.ctrl == nil {
		return nil, ErrNotSetup
	}
	n := c.outputs.TotalSize()
	jac := array.Zeros(array.Shape{n, n})
	for oi := 0; oi < c.outputs.Len(); oi++ {
		of := c.outputs.Meta(oi)
		r0 := c.outputs.Offset(oi)
		for wi := 0; wi < c.outputs.Len(); wi++ {
			wrt := c.outputs.Meta(wi)
			blk, ok := c.parts.Block(jacobian.Key{Of: of.Name, WRT: wrt.Name})
			if !ok {
				continue
			}
			c0 := c.outputs.Offset(wi)
			dense := blk.Dense()
			for r := 0; r < of.Size(); r++ {
				for col := 0; col < wrt.Size(); col++ {
					jac.Set(dense.At(r, col), r0+r, c0+col)
				}
			}
		}
	}
	return jac, nil
}

// ComputeSparsity probes the jacobian structure around the current
// values. The primal must have been compiled by an earlier call.
func (c *Implicit) ComputeSparsity(opts linearize.SparsityOptions) (*linearize.Pattern, error) {
	if c.ctrl == nil {
		return nil, ErrNotSetup
	}
	return c.ctrl.ComputeSparsity(c.inVals, c.outVals, c.disc, opts)
}

// DeclareColoring probes sparsity, colors the pattern in the cheaper
// direction, installs the coloring, and converts declared dense blocks
// to the probed pattern. It evaluates the residuals first so the primal
// is compiled.
func (c *Implicit) DeclareColoring(opts linearize.SparsityOptions) error {
	if c.ctrl == nil {
		return ErrNotSetup
	}
	if err := c.ApplyNonlinear(); err != nil {
		return err
	}
	p, err := c.ComputeSparsity(opts)
	if err != nil {
		return err
	}
	dir := opts.Direction
	if c.opts.Method == linearize.MethodFD {
		dir = linearize.DirFwd
	}
	col := linearize.ColorPattern(p, dir)
	if err := c.ctrl.UseColoring(col); err != nil {
		return err
	}
	if err := c.ctrl.ApplySparsity(p); err != nil {
		return err
	}
	c.log.Info("coloring declared",
		zap.String("component", c.name),
		zap.String("direction", col.Direction.String()),
		zap.Int("colors", col.NumColors()),
		zap.Int("uncompressed", col.TotalSize()),
	)
	return nil
}
