package ad

import "github.com/gomdao/gomdao/internal/array"

// CentralDiff approximates the Jacobian of c at the given inputs by
// central differences with the given step. The result has one block per
// (output, input) pair, shaped as the output shape concatenated with the
// input shape, matching the layout the forward-mode path produces.
func CentralDiff(c *Compiled, inputs []*array.Array, step float64) [][]*array.Array {
	nout := c.NumOutputs()
	nin := c.NumInputs()

	blocks := make([][]*array.Array, nout)
	for oi := 0; oi < nout; oi++ {
		blocks[oi] = make([]*array.Array, nin)
		for wi := 0; wi < nin; wi++ {
			blocks[oi][wi] = array.Zeros(c.outShapes[oi].Concat(c.inShapes[wi]))
		}
	}

	work := make([]*array.Array, nin)
	copy(work, inputs)
	for wi := 0; wi < nin; wi++ {
		orig := inputs[wi]
		probe := orig.Clone()
		work[wi] = probe
		wrtSize := probe.Size()

		for j := 0; j < wrtSize; j++ {
			saved := probe.Data()[j]

			probe.Data()[j] = saved + step
			plus := c.Eval(work)

			probe.Data()[j] = saved - step
			minus := c.Eval(work)

			probe.Data()[j] = saved

			for oi := 0; oi < nout; oi++ {
				bd := blocks[oi][wi].Data()
				pd, md := plus[oi].Data(), minus[oi].Data()
				for k := range pd {
					bd[k*wrtSize+j] = (pd[k] - md[k]) / (2 * step)
				}
			}
		}
		work[wi] = orig
	}
	return blocks
}
