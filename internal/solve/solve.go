// Package solve provides the small dense linear solver behind the
// Newton driver.
package solve

import (
	"math"

	"github.com/pkg/errors"

	"github.com/gomdao/gomdao/internal/array"
)

var ErrSingular = errors.New("solve: singular matrix")

// Dense solves a*x = b by Gaussian elimination with partial pivoting.
// a must be square and is left untouched.
func Dense(a *array.Array, b []float64) ([]float64, error) {
	sh := a.Shape()
	if len(sh) != 2 || sh[0] != sh[1] {
		return nil, errors.Errorf("solve: need a square matrix, got %v", sh)
	}
	n := sh[0]
	if len(b) != n {
		return nil, errors.Errorf("solve: matrix is %dx%d but rhs has %d entries", n, n, len(b))
	}

	m := make([]float64, n*n)
	copy(m, a.Data())
	x := make([]float64, n)
	copy(x, b)

	for col := 0; col < n; col++ {
		piv := col
		for r := col + 1; r < n; r++ {
			if math.Abs(m[r*n+col]) > math.Abs(m[piv*n+col]) {
				piv = r
			}
		}
		if m[piv*n+col] == 0 {
			return nil, ErrSingular
		}
		if piv != col {
			for k := col; k < n; k++ {
				m[col*n+k], m[piv*n+k] = m[piv*n+k], m[col*n+k]
			}
			x[col], x[piv] = x[piv], x[col]
		}
		inv := 1 / m[col*n+col]
		for r := col + 1; r < n; r++ {
			f := m[r*n+col] * inv
			if f == 0 {
				continue
			}
			for k := col; k < n; k++ {
				m[r*n+k] -= f * m[col*n+k]
			}
			x[r] -= f * x[col]
		}
	}

	for r := n - 1; r >= 0; r-- {
		s := x[r]
		for k := r + 1; k < n; k++ {
			s -= m[r*n+k] * x[k]
		}
		x[r] = s / m[r*n+r]
	}
	return x, nil
}
