// Package linearize drives derivative computation for implicit
// components: it compiles primal functions into replayable programs,
// probes jacobian structure, colors it, materializes declared partial
// blocks, and propagates seed vectors matrix-free.
package linearize

import (
	"math/rand"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/gomdao/gomdao/internal/ad"
	"github.com/gomdao/gomdao/internal/array"
	"github.com/gomdao/gomdao/internal/jacobian"
	"github.com/gomdao/gomdao/internal/variable"
)

// Direction selects how derivatives propagate through the primal.
type Direction int

const (
	// DirAuto picks the cheaper direction from the variable sizes.
	DirAuto Direction = iota
	// DirFwd seeds arguments and reads residual tangents.
	DirFwd
	// DirRev seeds residuals and reads argument cotangents.
	DirRev
)

func (d Direction) String() string {
	switch d {
	case DirFwd:
		return "fwd"
	case DirRev:
		return "rev"
	default:
		return "auto"
	}
}

// Method selects how derivatives are computed.
type Method int

const (
	// MethodAD differentiates the traced program exactly.
	MethodAD Method = iota
	// MethodFD approximates with central differences.
	MethodFD
)

func (m Method) String() string {
	if m == MethodFD {
		return "fd"
	}
	return "ad"
}

// Options configures a Controller.
type Options struct {
	Direction  Direction
	Method     Method
	JIT        bool
	MatrixFree bool
	FDStep     float64
	Logger     *zap.Logger
}

// DefaultOptions returns the standard configuration: exact derivatives,
// automatic direction, traces kept across calls.
func DefaultOptions() Options {
	return Options{JIT: true, FDStep: 1e-6}
}

// pullbackKey identifies the evaluation point a cached pullback was
// built at: fingerprints of the inputs, the outputs, and the discrete
// values.
type pullbackKey struct {
	in   uint64
	out  uint64
	disc uint64
}

type pullbackCache struct {
	valid bool
	key   pullbackKey
	from  *ad.Compiled
	pb    *ad.Pullback
}

// Controller owns derivative computation for one component: a kernel
// over the primal, the declared partials it fills, and the memoized
// tangent and pullback state reused across calls.
type Controller struct {
	log  *zap.Logger
	opts Options

	ofs  *variable.Set
	args *variable.Set
	nIn  int

	kernel *Kernel
	parts  *jacobian.Partials

	coloring *Coloring

	argTan    *tangents
	ofTan     *tangents
	ofTanFrom *ad.Compiled

	validFor   *ad.Compiled
	pbCache    pullbackCache
	pbRebuilds int
}

// New builds a controller for a primal whose arguments are the inputs
// followed by the outputs, and whose results are the residuals, one per
// output. parts holds the declared blocks Linearize fills.
func New(fn ad.Primal, inputs, outputs *variable.Set, parts *jacobian.Partials, opts Options) (*Controller, error) {
	if fn == nil {
		return nil, errors.New("linearize: nil primal")
	}
	if opts.Method == MethodFD && opts.Direction == DirRev {
		return nil, ErrFDReverse
	}
	if opts.FDStep <= 0 {
		opts.FDStep = 1e-6
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	args := variable.NewSet()
	for _, m := range inputs.Metas() {
		if err := args.Add(m.Name, m.Shape); err != nil {
			return nil, err
		}
	}
	for _, m := range outputs.Metas() {
		if err := args.Add(m.Name, m.Shape); err != nil {
			return nil, err
		}
	}

	return &Controller{
		log:    log,
		opts:   opts,
		ofs:    outputs,
		args:   args,
		nIn:    inputs.Len(),
		kernel: NewKernel(fn, opts.JIT, log),
		parts:  parts,
	}, nil
}

// Kernel exposes the kernel, mainly for its counters.
func (c *Controller) Kernel() *Kernel { return c.kernel }

// MatrixFree reports whether the controller materializes nothing.
func (c *Controller) MatrixFree() bool { return c.opts.MatrixFree }

// Partials returns the declared blocks this controller fills.
func (c *Controller) Partials() *jacobian.Partials { return c.parts }

// Coloring returns the installed coloring, if any.
func (c *Controller) Coloring() *Coloring { return c.coloring }

// PullbackRebuilds counts how often the reverse pullback was rebuilt
// because the evaluation point or the program changed.
func (c *Controller) PullbackRebuilds() int { return c.pbRebuilds }

// UseColoring installs a coloring for compressed linearization.
func (c *Controller) UseColoring(col *Coloring) error {
	if c.opts.MatrixFree {
		return ErrColoringMatrixFree
	}
	if c.opts.Method == MethodFD && col.Direction == DirRev {
		return ErrFDReverse
	}
	p := col.Pattern()
	if p.NRows != c.ofs.TotalSize() || p.NCols != c.args.TotalSize() {
		return errors.Wrapf(ErrPatternShape, "pattern is %d × %d, jacobian is %d × %d",
			p.NRows, p.NCols, c.ofs.TotalSize(), c.args.TotalSize())
	}
	c.coloring = col
	c.log.Debug("installed coloring",
		zap.String("direction", col.Direction.String()),
		zap.Int("colors", col.NumColors()),
		zap.Int("uncompressed", col.TotalSize()),
	)
	return nil
}

// ApplySparsity converts every declared dense block to sparse storage
// using the block's window of the global pattern.
func (c *Controller) ApplySparsity(p *Pattern) error {
	if p.NRows != c.ofs.TotalSize() || p.NCols != c.args.TotalSize() {
		return errors.Wrapf(ErrPatternShape, "pattern is %d × %d, jacobian is %d × %d",
			p.NRows, p.NCols, c.ofs.TotalSize(), c.args.TotalSize())
	}
	for _, key := range c.parts.Keys() {
		oi, ok := c.ofs.Index(key.Of)
		if !ok {
			continue
		}
		wi, ok := c.args.Index(key.WRT)
		if !ok {
			continue
		}
		r0 := c.ofs.Offset(oi)
		c0 := c.args.Offset(wi)
		rows, cols := p.Sub(r0, r0+c.ofs.Meta(oi).Size(), c0, c0+c.args.Meta(wi).Size())
		if err := c.parts.SetPattern(key, rows, cols); err != nil {
			return err
		}
	}
	return nil
}

func discParts(disc *variable.Discretes) ([]any, uint64) {
	if disc == nil {
		return nil, 0
	}
	return disc.Values(), disc.Fingerprint()
}

func (c *Controller) argViews(in, out *variable.Vector) []*array.Array {
	views := make([]*array.Array, 0, c.args.Len())
	views = append(views, in.Views()...)
	views = append(views, out.Views()...)
	return views
}

// ensure compiles (if needed) and validates that the program's results
// line up with the declared outputs.
func (c *Controller) ensure(disc *variable.Discretes) (*ad.Compiled, error) {
	vals, fp := discParts(disc)
	cp, err := c.kernel.Ensure(c.args.Shapes(), vals, fp)
	if err != nil {
		return nil, err
	}
	if c.validFor == cp {
		return cp, nil
	}
	if cp.NumOutputs() != c.ofs.Len() {
		return nil, errors.Wrapf(ErrResidualMismatch, "%d results for %d outputs", cp.NumOutputs(), c.ofs.Len())
	}
	for i, s := range cp.OutShapes() {
		if want := c.ofs.Meta(i).Size(); s.NumElements() != want {
			return nil, errors.Wrapf(ErrResidualMismatch, "result %d has %d elements, output %q has %d",
				i, s.NumElements(), c.ofs.Meta(i).Name, want)
		}
	}
	c.validFor = cp
	return cp, nil
}

// Eval computes residuals at the given point into res.
func (c *Controller) Eval(in, out *variable.Vector, disc *variable.Discretes, res *variable.Vector) error {
	cp, err := c.ensure(disc)
	if err != nil {
		return err
	}
	outs := cp.Eval(c.argViews(in, out))
	for i, o := range outs {
		res.ViewAt(i).CopyFrom(o)
	}
	return nil
}

func (c *Controller) argTangents() *tangents {
	if c.argTan == nil {
		c.argTan = newTangents(c.args.Shapes())
	}
	return c.argTan
}

func (c *Controller) ofTangents(cp *ad.Compiled) *tangents {
	if c.ofTan == nil || c.ofTanFrom != cp {
		c.ofTan = newTangents(cp.OutShapes())
		c.ofTanFrom = cp
	}
	return c.ofTan
}

func bestDirection(totalWrt, totalOf int) Direction {
	if totalWrt < totalOf {
		return DirFwd
	}
	return DirRev
}

func (c *Controller) resolveDirection() Direction {
	if c.opts.Method == MethodFD {
		return DirFwd
	}
	if c.opts.Direction != DirAuto {
		return c.opts.Direction
	}
	return bestDirection(c.args.TotalSize(), c.ofs.TotalSize())
}

// Linearize materializes the declared partial blocks at the given
// point. On a matrix-free controller it is a no-op.
func (c *Controller) Linearize(in, out *variable.Vector, disc *variable.Discretes) error {
	if c.opts.MatrixFree {
		c.log.Debug("linearize skipped: matrix-free")
		return nil
	}
	cp, err := c.ensure(disc)
	if err != nil {
		return err
	}
	argVals := c.argViews(in, out)

	var d derivVals
	if c.coloring != nil {
		d, err = c.jacColored(cp, argVals)
	} else {
		dir := c.resolveDirection()
		d, err = c.jacDense(cp, argVals, dir)
		c.log.Debug("linearized", zap.String("direction", dir.String()), zap.String("method", c.opts.Method.String()))
	}
	if err != nil {
		return err
	}
	c.unpack(d)
	return nil
}

// ApplyLinear propagates seed vectors through the exact linearization
// without materializing it. Forward mode writes J·(dIn ⊕ dOut) into
// dRes; reverse mode writes Jᵀ·dRes into dIn and dOut. Reverse mode
// reuses its pullback while inputs, outputs and discrete values keep
// the fingerprints it was built at.
func (c *Controller) ApplyLinear(mode Direction, in, out *variable.Vector, disc *variable.Discretes, dIn, dOut, dRes *variable.Vector) error {
	switch mode {
	case DirFwd:
		return c.applyFwd(in, out, disc, dIn, dOut, dRes)
	case DirRev:
		return c.applyRev(in, out, disc, dIn, dOut, dRes)
	}
	return errors.New("linearize: apply mode must be forward or reverse")
}

func (c *Controller) applyFwd(in, out *variable.Vector, disc *variable.Discretes, dIn, dOut, dRes *variable.Vector) error {
	cp, err := c.ensure(disc)
	if err != nil {
		return err
	}
	seeds := c.argViews(dIn, dOut)
	douts := c.pushForward(cp, c.argViews(in, out), seeds)
	for i, d := range douts {
		dRes.ViewAt(i).CopyFrom(d)
	}
	return nil
}

func (c *Controller) applyRev(in, out *variable.Vector, disc *variable.Discretes, dIn, dOut, dRes *variable.Vector) error {
	if c.opts.Method == MethodFD {
		return ErrFDReverse
	}
	cp, err := c.ensure(disc)
	if err != nil {
		return err
	}

	_, discFP := discParts(disc)
	key := pullbackKey{in: in.Fingerprint(), out: out.Fingerprint(), disc: discFP}
	if !c.pbCache.valid || c.pbCache.key != key || c.pbCache.from != cp {
		_, pb := cp.VJP(c.argViews(in, out))
		c.pbCache = pullbackCache{valid: true, key: key, from: cp, pb: pb}
		c.pbRebuilds++
		c.log.Debug("rebuilt reverse pullback",
			zap.Uint64("inputs_fingerprint", key.in),
			zap.Uint64("outputs_fingerprint", key.out),
		)
	}

	seeds := make([]*array.Array, c.ofs.Len())
	for i := 0; i < c.ofs.Len(); i++ {
		s := dRes.ViewAt(i)
		if want := cp.OutShapes()[i]; !s.Shape().Equal(want) {
			s = s.Reshape(want)
		}
		seeds[i] = s
	}
	gins := c.pbCache.pb.Apply(seeds)
	for i := 0; i < c.nIn; i++ {
		dIn.ViewAt(i).CopyFrom(gins[i])
	}
	for i := c.nIn; i < len(gins); i++ {
		dOut.ViewAt(i - c.nIn).CopyFrom(gins[i])
	}
	return nil
}

// ComputeSparsity probes the jacobian structure at randomly perturbed
// points around the given values. The primal must have been compiled by
// an earlier evaluation or linearization.
func (c *Controller) ComputeSparsity(in, out *variable.Vector, disc *variable.Discretes, opts SparsityOptions) (*Pattern, error) {
	if c.kernel.Compiled() == nil {
		return nil, ErrNotCompiled
	}
	cp, err := c.ensure(disc)
	if err != nil {
		return nil, err
	}
	if opts.NumIters <= 0 {
		opts.NumIters = 2
	}
	if opts.PerturbSize <= 0 {
		opts.PerturbSize = 1e-9
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = 1e-25
	}
	dir := opts.Direction
	if c.opts.Method == MethodFD {
		dir = DirFwd
	} else if dir == DirAuto {
		dir = bestDirection(c.args.TotalSize(), c.ofs.TotalSize())
	}

	nrows, ncols := c.ofs.TotalSize(), c.args.TotalSize()
	accum := make([]float64, nrows*ncols)
	rng := rand.New(rand.NewSource(opts.Seed))

	wIn := variable.NewVector(in.Vars())
	wOut := variable.NewVector(out.Vars())
	perturb := func(dst *variable.Vector, src *variable.Vector) {
		dst.CopyVec(src)
		d := dst.Data()
		for i := range d {
			d[i] += (2*rng.Float64() - 1) * opts.PerturbSize
		}
	}

	for it := 0; it < opts.NumIters; it++ {
		perturb(wIn, in)
		perturb(wOut, out)
		if err := c.accumGlobalAbs(cp, c.argViews(wIn, wOut), dir, accum); err != nil {
			return nil, err
		}
	}

	p := patternFromDense(accum, nrows, ncols, opts.Tolerance)
	c.log.Info("computed sparsity",
		zap.String("direction", dir.String()),
		zap.Int("iters", opts.NumIters),
		zap.Int("nonzeros", p.NNZ()),
		zap.Float64("density", p.Density()),
	)
	return p, nil
}
