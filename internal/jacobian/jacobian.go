// Package jacobian stores materialized derivative blocks. A component
// declares which (of, wrt) pairs it owns, optionally with a sparse
// coordinate pattern, and the linearization pass writes computed values
// into the declared blocks. Blocks that were never declared have no
// storage and are dropped when derivatives are unpacked.
package jacobian

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/gomdao/gomdao/internal/array"
)

var (
	// ErrDuplicate is returned when a block is declared twice.
	ErrDuplicate = errors.New("jacobian: block already declared")
	// ErrPattern is returned for malformed sparse coordinate lists.
	ErrPattern = errors.New("jacobian: invalid sparsity pattern")
	// ErrUnknown is returned when addressing an undeclared block.
	ErrUnknown = errors.New("jacobian: block not declared")
)

// Key identifies one derivative block by variable names.
type Key struct {
	Of  string
	WRT string
}

func (k Key) String() string { return fmt.Sprintf("(%s, %s)", k.Of, k.WRT) }

// Block is the storage for one declared derivative block. Dense blocks
// hold the full (ofSize × wrtSize) matrix; sparse blocks hold only the
// values at their declared coordinates.
type Block struct {
	OfSize  int
	WRTSize int
	Rows    []int // nil for dense
	Cols    []int
	Data    *array.Array
}

func newBlock(ofSize, wrtSize int, rows, cols []int) (*Block, error) {
	if ofSize <= 0 || wrtSize <= 0 {
		return nil, errors.Wrapf(ErrPattern, "block sizes %d × %d", ofSize, wrtSize)
	}
	b := &Block{OfSize: ofSize, WRTSize: wrtSize}
	if rows == nil && cols == nil {
		b.Data = array.Zeros(array.Shape{ofSize, wrtSize})
		return b, nil
	}
	if len(rows) != len(cols) {
		return nil, errors.Wrapf(ErrPattern, "%d rows vs %d cols", len(rows), len(cols))
	}
	for i := range rows {
		if rows[i] < 0 || rows[i] >= ofSize || cols[i] < 0 || cols[i] >= wrtSize {
			return nil, errors.Wrapf(ErrPattern, "coordinate (%d, %d) outside %d × %d", rows[i], cols[i], ofSize, wrtSize)
		}
	}
	b.Rows = append([]int(nil), rows...)
	b.Cols = append([]int(nil), cols...)
	// A declared-but-empty pattern is a structurally zero block; it
	// keeps no storage.
	if len(rows) > 0 {
		b.Data = array.Zeros(array.Shape{len(rows)})
	}
	return b, nil
}

// IsSparse reports whether the block stores coordinate values only.
func (b *Block) IsSparse() bool { return b.Rows != nil }

// NNZ returns the number of stored values.
func (b *Block) NNZ() int {
	if b.IsSparse() {
		return len(b.Rows)
	}
	return b.OfSize * b.WRTSize
}

// SetFrom fills the block from a computed dense matrix of ofSize×wrtSize
// elements in row-major order, in any shape. Dense blocks copy the whole
// matrix; sparse blocks gather their declared coordinates. A size
// mismatch is fatal.
func (b *Block) SetFrom(dense *array.Array) {
	if dense.Size() != b.OfSize*b.WRTSize {
		panic(fmt.Sprintf("jacobian: block is %d × %d, got %d values", b.OfSize, b.WRTSize, dense.Size()))
	}
	if !b.IsSparse() {
		b.Data.CopyFrom(dense)
		return
	}
	if len(b.Rows) == 0 {
		return
	}
	src := dense.Data()
	dst := b.Data.Data()
	for i := range b.Rows {
		dst[i] = src[b.Rows[i]*b.WRTSize+b.Cols[i]]
	}
}

// Dense materializes the block as a full (ofSize × wrtSize) matrix.
func (b *Block) Dense() *array.Array {
	if !b.IsSparse() {
		return b.Data.Clone()
	}
	out := array.Zeros(array.Shape{b.OfSize, b.WRTSize})
	d := out.Data()
	for i := range b.Rows {
		d[b.Rows[i]*b.WRTSize+b.Cols[i]] = b.Data.Data()[i]
	}
	return out
}

// Partials is the set of declared derivative blocks of one component.
type Partials struct {
	keys   []Key
	blocks map[Key]*Block
}

// NewPartials returns an empty declaration set.
func NewPartials() *Partials {
	return &Partials{blocks: make(map[Key]*Block)}
}

// Declare registers storage for a block. Pass nil rows and cols for a
// dense block; both non-nil for a sparse one.
func (p *Partials) Declare(key Key, ofSize, wrtSize int, rows, cols []int) error {
	if _, ok := p.blocks[key]; ok {
		return errors.Wrapf(ErrDuplicate, "%s", key)
	}
	if (rows == nil) != (cols == nil) {
		return errors.Wrapf(ErrPattern, "%s: rows and cols must both be given or both nil", key)
	}
	b, err := newBlock(ofSize, wrtSize, rows, cols)
	if err != nil {
		return errors.Wrapf(err, "%s", key)
	}
	p.keys = append(p.keys, key)
	p.blocks[key] = b
	return nil
}

// Has reports whether a block was declared.
func (p *Partials) Has(key Key) bool {
	_, ok := p.blocks[key]
	return ok
}

// Block returns a declared block.
func (p *Partials) Block(key Key) (*Block, bool) {
	b, ok := p.blocks[key]
	return b, ok
}

// Keys returns the declared keys in declaration order.
func (p *Partials) Keys() []Key { return p.keys }

// Len returns the number of declared blocks.
func (p *Partials) Len() int { return len(p.keys) }

// SetPattern converts a declared dense block to sparse storage with the
// given coordinates, discarding any held values. Converting an already
// sparse block replaces its pattern.
func (p *Partials) SetPattern(key Key, rows, cols []int) error {
	old, ok := p.blocks[key]
	if !ok {
		return errors.Wrapf(ErrUnknown, "%s", key)
	}
	b, err := newBlock(old.OfSize, old.WRTSize, rows, cols)
	if err != nil {
		return errors.Wrapf(err, "%s", key)
	}
	p.blocks[key] = b
	return nil
}
