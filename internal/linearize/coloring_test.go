package linearize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// diag4 is a 4×4 diagonal pattern: fully compressible in either
// direction.
func diag4() *Pattern {
	return &Pattern{
		NRows: 4, NCols: 4,
		Rows: []int{0, 1, 2, 3},
		Cols: []int{0, 1, 2, 3},
	}
}

// arrow4 has a dense first row and first column plus the diagonal.
func arrow4() *Pattern {
	p := &Pattern{NRows: 4, NCols: 4}
	for c := 0; c < 4; c++ {
		p.Rows = append(p.Rows, 0)
		p.Cols = append(p.Cols, c)
	}
	for r := 1; r < 4; r++ {
		p.Rows = append(p.Rows, r, r)
		p.Cols = append(p.Cols, 0, r)
	}
	p.normalize()
	return p
}

func TestColorDiagonal(t *testing.T) {
	col := ColorColumns(diag4())
	assert.Equal(t, 1, col.NumColors())
	assert.Equal(t, []int{0, 1, 2, 3}, col.Groups[0])

	rev := ColorRows(diag4())
	assert.Equal(t, 1, rev.NumColors())
}

func TestColorArrowhead(t *testing.T) {
	// Row 0 is dense, so every column pair conflicts: the arrowhead
	// cannot compress in a single direction.
	fwd := ColorColumns(arrow4())
	assert.Equal(t, 4, fwd.NumColors())

	rev := ColorRows(arrow4())
	assert.Equal(t, 4, rev.NumColors())
}

func TestColorPatternAuto(t *testing.T) {
	// 1 dense row over 3 diagonal rows: reverse needs 2 passes, forward
	// needs 3 (every column conflicts through the dense row except none
	// are orthogonal to it).
	p := &Pattern{
		NRows: 4, NCols: 3,
		Rows: []int{0, 0, 0, 1, 2, 3},
		Cols: []int{0, 1, 2, 0, 1, 2},
	}
	col := ColorPattern(p, DirAuto)
	assert.Equal(t, DirRev, col.Direction)
	assert.Equal(t, 2, col.NumColors())

	forced := ColorPattern(p, DirFwd)
	assert.Equal(t, DirFwd, forced.Direction)
	assert.Equal(t, 3, forced.NumColors())
}

func TestColoringGroupsCoverEverything(t *testing.T) {
	col := ColorColumns(arrow4())
	seen := map[int]bool{}
	for _, g := range col.Groups {
		for _, c := range g {
			require.False(t, seen[c], "column %d colored twice", c)
			seen[c] = true
		}
	}
	assert.Len(t, seen, 4)
}

func TestPatternSub(t *testing.T) {
	p := arrow4()
	rows, cols := p.Sub(1, 4, 1, 4)
	// The trailing 3×3 window of the arrowhead is the diagonal.
	assert.Equal(t, []int{0, 1, 2}, rows)
	assert.Equal(t, []int{0, 1, 2}, cols)

	rows, cols = p.Sub(0, 1, 0, 4)
	assert.Equal(t, []int{0, 0, 0, 0}, rows)
	assert.Equal(t, []int{0, 1, 2, 3}, cols)
}

func TestPatternNormalize(t *testing.T) {
	p := &Pattern{
		NRows: 2, NCols: 2,
		Rows: []int{1, 0, 1, 0},
		Cols: []int{1, 1, 1, 0},
	}
	p.normalize()
	assert.Equal(t, []int{0, 0, 1}, p.Rows)
	assert.Equal(t, []int{0, 1, 1}, p.Cols)
}

func TestPatternDensity(t *testing.T) {
	p := diag4()
	assert.Equal(t, 4, p.NNZ())
	assert.InDelta(t, 0.25, p.Density(), 1e-12)
}
