// Package ops defines the primitive operations a traced program is built
// from. Each primitive knows how to evaluate itself, how to push a tangent
// forward through itself (JVP), and how to pull a cotangent back through
// itself (VJP). Implementations are stateless: the program records which
// node indices feed each instruction, and the evaluator hands the resolved
// arrays to the op.
package ops

import "github.com/gomdao/gomdao/internal/array"

// Op is a single differentiable primitive.
type Op interface {
	// Name identifies the op in traces and error messages.
	Name() string

	// Eval computes the output from the input values.
	Eval(in []*array.Array) *array.Array

	// JVP computes the output tangent from the primal inputs, the primal
	// output, and one tangent per input. Tangents are never nil; callers
	// seed zeros for constant nodes.
	JVP(in []*array.Array, out *array.Array, tan []*array.Array) *array.Array

	// VJP computes one cotangent per input from the primal inputs, the
	// primal output, and the output cotangent. A nil entry means the op
	// contributes nothing to that input.
	VJP(in []*array.Array, out, cot *array.Array) []*array.Array
}
