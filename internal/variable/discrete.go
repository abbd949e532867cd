package variable

import (
	"fmt"
	"hash/fnv"

	"github.com/pkg/errors"
)

// Discretes is an ordered registry of named discrete values: arguments a
// primal may branch on but never differentiate through. Changing a
// discrete value invalidates any program compiled against it.
type Discretes struct {
	names []string
	index map[string]int
	vals  []any
}

// NewDiscretes returns an empty registry.
func NewDiscretes() *Discretes {
	return &Discretes{index: make(map[string]int)}
}

// Add registers a discrete value under a unique name.
func (d *Discretes) Add(name string, val any) error {
	if _, ok := d.index[name]; ok {
		return errors.Wrapf(ErrDuplicate, "%q", name)
	}
	d.index[name] = len(d.names)
	d.names = append(d.names, name)
	d.vals = append(d.vals, val)
	return nil
}

// Set replaces the value of a registered name.
func (d *Discretes) Set(name string, val any) error {
	i, ok := d.index[name]
	if !ok {
		return errors.Wrapf(ErrUnknown, "%q", name)
	}
	d.vals[i] = val
	return nil
}

// Get returns the value of a registered name.
func (d *Discretes) Get(name string) (any, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.vals[i], true
}

// Len returns the number of registered values.
func (d *Discretes) Len() int { return len(d.names) }

// Names returns the registered names in order.
func (d *Discretes) Names() []string { return d.names }

// Values returns the current values in registration order. The returned
// slice aliases internal storage.
func (d *Discretes) Values() []any { return d.vals }

// Fingerprint returns an FNV-1a hash over the formatted values. Values
// must have a stable formatted representation for the fingerprint to be
// meaningful, which holds for the bools, integers, floats and strings
// discrete arguments are in practice.
func (d *Discretes) Fingerprint() uint64 {
	h := fnv.New64a()
	for i, v := range d.vals {
		fmt.Fprintf(h, "%s=%T:%#v;", d.names[i], v, v)
	}
	return h.Sum64()
}
