package linearize

import (
	"math"

	"github.com/gomdao/gomdao/internal/ad"
	"github.com/gomdao/gomdao/internal/array"
)

// derivVals is the raw structure one full derivative pass produces: one
// block per (result, argument) pair, shaped as the result shape
// concatenated with the argument shape. nested records whether the
// primal returned a tuple, which decides whether the result index takes
// part in unpacking.
type derivVals struct {
	nested bool
	blocks [][]*array.Array
}

func (c *Controller) allocBlocks(cp *ad.Compiled) derivVals {
	nout := cp.NumOutputs()
	blocks := make([][]*array.Array, nout)
	for oi := 0; oi < nout; oi++ {
		blocks[oi] = make([]*array.Array, c.args.Len())
		for wi, m := range c.args.Metas() {
			blocks[oi][wi] = array.Zeros(cp.OutShapes()[oi].Concat(m.Shape))
		}
	}
	return derivVals{nested: cp.ReturnsTuple(), blocks: blocks}
}

// pushForward computes result tangents for the given argument seeds:
// the exact JVP, or a central directional difference when the
// controller differentiates by finite steps.
func (c *Controller) pushForward(cp *ad.Compiled, argVals, seeds []*array.Array) []*array.Array {
	if c.opts.Method == MethodAD {
		_, douts := cp.JVP(argVals, seeds)
		return douts
	}

	h := c.opts.FDStep
	plus := make([]*array.Array, len(argVals))
	minus := make([]*array.Array, len(argVals))
	for i, a := range argVals {
		step := array.Scale(seeds[i], h)
		plus[i] = array.Add(a, step)
		minus[i] = array.Sub(a, step)
	}
	fp := cp.Eval(plus)
	fm := cp.Eval(minus)
	douts := make([]*array.Array, len(fp))
	for i := range fp {
		d := array.Sub(fp[i], fm[i])
		douts[i] = array.Scale(d, 1/(2*h))
	}
	return douts
}

// jacDense computes every block with one pass per basis vector of the
// chosen direction.
func (c *Controller) jacDense(cp *ad.Compiled, argVals []*array.Array, dir Direction) (derivVals, error) {
	d := c.allocBlocks(cp)
	argTg := c.argTangents()
	ofTg := c.ofTangents(cp)

	if dir == DirRev {
		_, pb := cp.VJP(argVals)
		for row := 0; row < ofTg.total; row++ {
			gins := pb.Apply(ofTg.basis(row))
			oi, r := ofTg.owner(row)
			for wi, g := range gins {
				w := argTg.sizes[wi]
				copy(d.blocks[oi][wi].Data()[r*w:(r+1)*w], g.Data())
			}
		}
		return d, nil
	}

	for col := 0; col < argTg.total; col++ {
		douts := c.pushForward(cp, argVals, argTg.basis(col))
		wi, j := argTg.owner(col)
		w := argTg.sizes[wi]
		for oi, dout := range douts {
			bd := d.blocks[oi][wi].Data()
			for k, v := range dout.Data() {
				bd[k*w+j] = v
			}
		}
	}
	return d, nil
}

// jacColored computes blocks with one compressed pass per color group,
// scattering recovered values through the sparsity pattern.
func (c *Controller) jacColored(cp *ad.Compiled, argVals []*array.Array) (derivVals, error) {
	col := c.coloring
	if c.opts.Method == MethodFD && col.Direction == DirRev {
		return derivVals{}, ErrFDReverse
	}
	d := c.allocBlocks(cp)
	argTg := c.argTangents()
	ofTg := c.ofTangents(cp)
	pattern := col.Pattern()

	if col.Direction == DirRev {
		rowCols := pattern.rowCols()
		flat := make([]float64, argTg.total)
		_, pb := cp.VJP(argVals)
		for _, group := range col.Groups {
			gins := pb.Apply(ofTg.groupSeed(group))
			argTg.gather(gins, flat)
			for _, row := range group {
				oi, r := ofTg.owner(row)
				for _, cidx := range rowCols[row] {
					wi, j := argTg.owner(cidx)
					w := argTg.sizes[wi]
					d.blocks[oi][wi].Data()[r*w+j] = flat[cidx]
				}
			}
		}
		return d, nil
	}

	colRows := pattern.colRows()
	flat := make([]float64, ofTg.total)
	for _, group := range col.Groups {
		douts := c.pushForward(cp, argVals, argTg.groupSeed(group))
		ofTg.gather(douts, flat)
		for _, cidx := range group {
			wi, j := argTg.owner(cidx)
			w := argTg.sizes[wi]
			for _, row := range colRows[cidx] {
				oi, r := ofTg.owner(row)
				d.blocks[oi][wi].Data()[r*w+j] = flat[row]
			}
		}
	}
	return d, nil
}

// accumGlobalAbs adds the magnitudes of the full jacobian at argVals
// into accum, laid out over the concatenated result × argument spaces.
func (c *Controller) accumGlobalAbs(cp *ad.Compiled, argVals []*array.Array, dir Direction, accum []float64) error {
	argTg := c.argTangents()
	ofTg := c.ofTangents(cp)
	ncols := argTg.total

	if dir == DirRev {
		flat := make([]float64, ncols)
		_, pb := cp.VJP(argVals)
		for row := 0; row < ofTg.total; row++ {
			gins := pb.Apply(ofTg.basis(row))
			argTg.gather(gins, flat)
			base := row * ncols
			for cidx, v := range flat {
				accum[base+cidx] += math.Abs(v)
			}
		}
		return nil
	}

	flat := make([]float64, ofTg.total)
	for cidx := 0; cidx < ncols; cidx++ {
		douts := c.pushForward(cp, argVals, argTg.basis(cidx))
		ofTg.gather(douts, flat)
		for row, v := range flat {
			accum[row*ncols+cidx] += math.Abs(v)
		}
	}
	return nil
}
