package linearize

import (
	"fmt"
	"sort"
)

// Pattern is the nonzero structure of the full jacobian over the
// concatenated residual (rows) and argument (cols) spaces, stored as
// row-major sorted coordinates.
type Pattern struct {
	NRows int
	NCols int
	Rows  []int
	Cols  []int
}

// NNZ returns the number of structural nonzeros.
func (p *Pattern) NNZ() int { return len(p.Rows) }

// Density returns the nonzero fraction.
func (p *Pattern) Density() float64 {
	if p.NRows == 0 || p.NCols == 0 {
		return 0
	}
	return float64(p.NNZ()) / float64(p.NRows*p.NCols)
}

func (p *Pattern) String() string {
	return fmt.Sprintf("%d × %d pattern, %d nonzeros (%.2f%% dense)", p.NRows, p.NCols, p.NNZ(), 100*p.Density())
}

// Sub extracts the coordinates falling inside rows [r0, r1) and cols
// [c0, c1), rebased to the block origin.
func (p *Pattern) Sub(r0, r1, c0, c1 int) (rows, cols []int) {
	rows, cols = []int{}, []int{}
	for i, r := range p.Rows {
		c := p.Cols[i]
		if r >= r0 && r < r1 && c >= c0 && c < c1 {
			rows = append(rows, r-r0)
			cols = append(cols, c-c0)
		}
	}
	return rows, cols
}

// colRows returns the row indices of every column, for coloring and for
// scattering compressed forward passes.
func (p *Pattern) colRows() [][]int {
	out := make([][]int, p.NCols)
	for i, c := range p.Cols {
		out[c] = append(out[c], p.Rows[i])
	}
	return out
}

// rowCols returns the column indices of every row.
func (p *Pattern) rowCols() [][]int {
	out := make([][]int, p.NRows)
	for i, r := range p.Rows {
		out[r] = append(out[r], p.Cols[i])
	}
	return out
}

// patternFromDense thresholds an accumulated magnitude matrix into a
// coordinate pattern. Entries with magnitude at or below tol are
// structural zeros.
func patternFromDense(accum []float64, nrows, ncols int, tol float64) *Pattern {
	p := &Pattern{NRows: nrows, NCols: ncols}
	for r := 0; r < nrows; r++ {
		base := r * ncols
		for c := 0; c < ncols; c++ {
			if accum[base+c] > tol {
				p.Rows = append(p.Rows, r)
				p.Cols = append(p.Cols, c)
			}
		}
	}
	return p
}

// normalize sorts the coordinates row-major and drops duplicates. Useful
// for patterns assembled by hand.
func (p *Pattern) normalize() {
	type coord struct{ r, c int }
	seen := make(map[coord]struct{}, len(p.Rows))
	coords := make([]coord, 0, len(p.Rows))
	for i := range p.Rows {
		k := coord{p.Rows[i], p.Cols[i]}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		coords = append(coords, k)
	}
	sort.Slice(coords, func(i, j int) bool {
		if coords[i].r != coords[j].r {
			return coords[i].r < coords[j].r
		}
		return coords[i].c < coords[j].c
	})
	p.Rows = p.Rows[:0]
	p.Cols = p.Cols[:0]
	for _, k := range coords {
		p.Rows = append(p.Rows, k.r)
		p.Cols = append(p.Cols, k.c)
	}
}

// SparsityOptions controls structure probing.
type SparsityOptions struct {
	// Direction picks the probing passes; DirAuto chooses by size.
	Direction Direction
	// NumIters is how many randomly perturbed points are sampled.
	NumIters int
	// PerturbSize bounds the uniform perturbation applied per sample.
	PerturbSize float64
	// Tolerance is the magnitude at or below which an accumulated entry
	// counts as a structural zero.
	Tolerance float64
	// Seed fixes the perturbation stream.
	Seed int64
}

// DefaultSparsityOptions returns the standard probe configuration.
func DefaultSparsityOptions() SparsityOptions {
	return SparsityOptions{
		Direction:   DirAuto,
		NumIters:    2,
		PerturbSize: 1e-9,
		Tolerance:   1e-25,
	}
}
