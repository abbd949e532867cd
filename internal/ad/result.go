package ad

// Result is what a primal function returns: either a single value or a
// tuple of values. The two are distinct even for one element, and the
// distinction is preserved through compilation because derivative
// unpacking depends on it.
type Result struct {
	vals  []*Value
	tuple bool
}

// Single wraps one value as a non-tuple result.
func Single(v *Value) Result {
	return Result{vals: []*Value{v}}
}

// Tuple wraps the values as a tuple result. A one-element tuple is not
// the same result as Single of that element.
func Tuple(vs ...*Value) Result {
	return Result{vals: append([]*Value(nil), vs...), tuple: true}
}

// IsTuple reports whether the result is a tuple.
func (r Result) IsTuple() bool { return r.tuple }

// Len returns the number of values.
func (r Result) Len() int { return len(r.vals) }

// Values returns the underlying values in order.
func (r Result) Values() []*Value { return r.vals }
