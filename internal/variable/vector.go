package variable

import (
	"encoding/binary"
	"hash/fnv"
	"math"

	"github.com/pkg/errors"

	"github.com/gomdao/gomdao/internal/array"
)

// Vector holds concrete values for every variable in a Set as one flat
// buffer. Per-variable views alias the buffer: writing through a view is
// writing the vector, and vice versa.
type Vector struct {
	vars  *Set
	data  []float64
	views []*array.Array
}

// NewVector allocates a zero-valued vector over the set.
func NewVector(vars *Set) *Vector {
	v := &Vector{
		vars:  vars,
		data:  make([]float64, vars.TotalSize()),
		views: make([]*array.Array, vars.Len()),
	}
	for i, m := range vars.Metas() {
		off := vars.Offset(i)
		v.views[i] = array.FromData(v.data[off:off+m.Size()], m.Shape)
	}
	return v
}

// Vars returns the set this vector is laid out over.
func (v *Vector) Vars() *Set { return v.vars }

// Data returns the flat backing buffer.
func (v *Vector) Data() []float64 { return v.data }

// ViewAt returns the aliasing view of the i-th variable.
func (v *Vector) ViewAt(i int) *array.Array { return v.views[i] }

// View returns the aliasing view of a named variable.
func (v *Vector) View(name string) (*array.Array, error) {
	i, ok := v.vars.Index(name)
	if !ok {
		return nil, errors.Wrapf(ErrUnknown, "%q", name)
	}
	return v.views[i], nil
}

// Views returns all aliasing views in registration order.
func (v *Vector) Views() []*array.Array { return v.views }

// CopyFrom overwrites the buffer from a flat slice of equal length.
func (v *Vector) CopyFrom(src []float64) {
	if len(src) != len(v.data) {
		panic("variable: vector length mismatch")
	}
	copy(v.data, src)
}

// CopyVec overwrites the buffer from another vector over the same set.
func (v *Vector) CopyVec(src *Vector) {
	v.CopyFrom(src.data)
}

// Zero clears the buffer.
func (v *Vector) Zero() {
	clear(v.data)
}

// Fingerprint returns an FNV-1a hash of the buffer contents. Two vectors
// fingerprint equal exactly when their bit patterns are equal.
func (v *Vector) Fingerprint() uint64 {
	h := fnv.New64a()
	var b [8]byte
	for _, f := range v.data {
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(f))
		h.Write(b[:])
	}
	return h.Sum64()
}
