// Package variable manages the named continuous and discrete quantities a
// component exposes: ordered metadata registries, flat value vectors with
// per-variable views, and content fingerprints used for cache validity.
package variable

import (
	"github.com/pkg/errors"

	"github.com/gomdao/gomdao/internal/array"
)

var (
	// ErrDuplicate is returned when a name is registered twice.
	ErrDuplicate = errors.New("variable: duplicate name")
	// ErrUnknown is returned when a name was never registered.
	ErrUnknown = errors.New("variable: unknown name")
)

// Meta describes one continuous variable.
type Meta struct {
	Name  string
	Shape array.Shape
}

// Size returns the variable's element count.
func (m Meta) Size() int { return m.Shape.NumElements() }

// Set is an ordered registry of continuous variables. Order is the
// registration order and determines flat layout: each variable occupies
// a contiguous span of the concatenated value space.
type Set struct {
	metas   []Meta
	index   map[string]int
	offsets []int
	total   int
}

// NewSet returns an empty registry.
func NewSet() *Set {
	return &Set{index: make(map[string]int)}
}

// Add registers a variable. Names must be unique and shapes valid.
func (s *Set) Add(name string, shape array.Shape) error {
	if _, ok := s.index[name]; ok {
		return errors.Wrapf(ErrDuplicate, "%q", name)
	}
	if err := shape.Validate(); err != nil {
		return errors.Wrapf(err, "variable %q", name)
	}
	s.index[name] = len(s.metas)
	s.metas = append(s.metas, Meta{Name: name, Shape: shape.Clone()})
	s.offsets = append(s.offsets, s.total)
	s.total += shape.NumElements()
	return nil
}

// Len returns the number of registered variables.
func (s *Set) Len() int { return len(s.metas) }

// TotalSize returns the element count of the concatenated value space.
func (s *Set) TotalSize() int { return s.total }

// Meta returns the i-th variable's metadata.
func (s *Set) Meta(i int) Meta { return s.metas[i] }

// Metas returns all metadata in registration order.
func (s *Set) Metas() []Meta { return s.metas }

// Index returns the position of a name.
func (s *Set) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// Offset returns the flat offset of the i-th variable in the
// concatenated value space.
func (s *Set) Offset(i int) int { return s.offsets[i] }

// Names returns the registered names in order.
func (s *Set) Names() []string {
	names := make([]string, len(s.metas))
	for i, m := range s.metas {
		names[i] = m.Name
	}
	return names
}

// Shapes returns the registered shapes in order.
func (s *Set) Shapes() []array.Shape {
	shapes := make([]array.Shape, len(s.metas))
	for i, m := range s.metas {
		shapes[i] = m.Shape
	}
	return shapes
}
