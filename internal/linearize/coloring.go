package linearize

// Coloring partitions structurally orthogonal columns (forward mode) or
// rows (reverse mode) of a sparsity pattern into groups, so that one
// compressed derivative pass recovers every member of a group.
type Coloring struct {
	Direction Direction
	Groups    [][]int
	pattern   *Pattern
}

// NumColors returns the number of compressed passes the coloring needs.
func (c *Coloring) NumColors() int { return len(c.Groups) }

// Pattern returns the sparsity pattern the coloring was computed from.
func (c *Coloring) Pattern() *Pattern { return c.pattern }

// TotalSize returns the uncompressed pass count: columns for forward,
// rows for reverse.
func (c *Coloring) TotalSize() int {
	if c.Direction == DirRev {
		return c.pattern.NRows
	}
	return c.pattern.NCols
}

// ColorColumns greedily groups columns sharing no row, for compressed
// forward passes.
func ColorColumns(p *Pattern) *Coloring {
	return &Coloring{
		Direction: DirFwd,
		Groups:    greedyGroups(p.colRows(), p.NRows),
		pattern:   p,
	}
}

// ColorRows greedily groups rows sharing no column, for compressed
// reverse passes.
func ColorRows(p *Pattern) *Coloring {
	return &Coloring{
		Direction: DirRev,
		Groups:    greedyGroups(p.rowCols(), p.NCols),
		pattern:   p,
	}
}

// ColorPattern colors in the given direction, resolving DirAuto to the
// direction with fewer compressed passes (forward on ties).
func ColorPattern(p *Pattern, dir Direction) *Coloring {
	switch dir {
	case DirFwd:
		return ColorColumns(p)
	case DirRev:
		return ColorRows(p)
	}
	fwd := ColorColumns(p)
	rev := ColorRows(p)
	if rev.NumColors() < fwd.NumColors() {
		return rev
	}
	return fwd
}

// greedyGroups places each index into the first group whose occupied
// marks do not intersect the index's marks, appending a new group when
// none fits. Indices with no marks (structurally zero lines) share one
// group, since any pass recovers their zeros.
func greedyGroups(marks [][]int, nmarks int) [][]int {
	var groups [][]int
	var occupied [][]bool

	for idx, ms := range marks {
		placed := false
		for gi := range groups {
			conflict := false
			for _, m := range ms {
				if occupied[gi][m] {
					conflict = true
					break
				}
			}
			if conflict {
				continue
			}
			groups[gi] = append(groups[gi], idx)
			for _, m := range ms {
				occupied[gi][m] = true
			}
			placed = true
			break
		}
		if !placed {
			groups = append(groups, []int{idx})
			occ := make([]bool, nmarks)
			for _, m := range ms {
				occ[m] = true
			}
			occupied = append(occupied, occ)
		}
	}
	return groups
}
