package linearize

import "github.com/gomdao/gomdao/internal/array"

// tangents builds seed structures over the concatenated flat space of an
// ordered variable list: identity basis vectors for one column or row at
// a time, and arbitrary flat seeds scattered into per-variable arrays.
// Controllers memoize one per direction, keyed implicitly by the shapes
// the kernel was compiled for.
type tangents struct {
	shapes  []array.Shape
	sizes   []int
	offsets []int
	total   int
}

func newTangents(shapes []array.Shape) *tangents {
	tg := &tangents{shapes: shapes}
	for _, s := range shapes {
		n := s.NumElements()
		tg.sizes = append(tg.sizes, n)
		tg.offsets = append(tg.offsets, tg.total)
		tg.total += n
	}
	return tg
}

// owner returns which variable a flat index belongs to and the index
// local to that variable.
func (tg *tangents) owner(flat int) (vi, local int) {
	for vi = len(tg.offsets) - 1; vi > 0; vi-- {
		if flat >= tg.offsets[vi] {
			break
		}
	}
	return vi, flat - tg.offsets[vi]
}

// zeros allocates one zero array per variable.
func (tg *tangents) zeros() []*array.Array {
	out := make([]*array.Array, len(tg.shapes))
	for i, s := range tg.shapes {
		out[i] = array.Zeros(s)
	}
	return out
}

// basis returns fresh per-variable arrays forming the identity basis
// vector for one flat index.
func (tg *tangents) basis(flat int) []*array.Array {
	out := tg.zeros()
	vi, local := tg.owner(flat)
	out[vi].Data()[local] = 1
	return out
}

// scatter splits a flat seed over the concatenated space into fresh
// per-variable arrays.
func (tg *tangents) scatter(seed []float64) []*array.Array {
	if len(seed) != tg.total {
		panic("linearize: seed length mismatch")
	}
	out := make([]*array.Array, len(tg.shapes))
	for i, s := range tg.shapes {
		off := tg.offsets[i]
		a := array.Zeros(s)
		copy(a.Data(), seed[off:off+tg.sizes[i]])
		out[i] = a
	}
	return out
}

// groupSeed returns fresh per-variable arrays holding the sum of the
// identity basis vectors for the given flat indices.
func (tg *tangents) groupSeed(flats []int) []*array.Array {
	out := tg.zeros()
	for _, f := range flats {
		vi, local := tg.owner(f)
		out[vi].Data()[local] = 1
	}
	return out
}

// gather flattens per-variable arrays into dst in variable order.
func (tg *tangents) gather(arrs []*array.Array, dst []float64) {
	for i, a := range arrs {
		off := tg.offsets[i]
		copy(dst[off:off+tg.sizes[i]], a.Data())
	}
}
