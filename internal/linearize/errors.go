package linearize

import "github.com/pkg/errors"

var (
	// ErrColoringMatrixFree is returned when a coloring is installed on
	// a matrix-free controller. A coloring compresses a materialized
	// jacobian; a matrix-free component never materializes one.
	ErrColoringMatrixFree = errors.New("linearize: coloring cannot be used with a matrix-free component")

	// ErrNotCompiled is returned when sparsity is requested before the
	// primal has ever been compiled.
	ErrNotCompiled = errors.New("linearize: primal has not been compiled yet")

	// ErrFDReverse is returned when reverse mode is requested together
	// with finite differencing, which only propagates forward.
	ErrFDReverse = errors.New("linearize: reverse mode is not available with finite differencing")

	// ErrResidualMismatch is returned when the primal's results do not
	// line up with the declared outputs.
	ErrResidualMismatch = errors.New("linearize: primal results do not match declared outputs")

	// ErrPatternShape is returned when a sparsity pattern's dimensions
	// do not match the jacobian.
	ErrPatternShape = errors.New("linearize: pattern dimensions do not match the jacobian")
)
