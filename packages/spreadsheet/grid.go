package spreadsheet

import (
	"iter"

	"github.com/vogtb/go-sheetgraph/packages/cellref"
)

const (
	chunkRows = 64 // rows per chunk
	chunkCols = 64 // columns per chunk
	chunkSize = chunkRows * chunkCols
)

// chunkKey represents the key for indexing chunks in the grid
type chunkKey struct {
	row int
	col int
}

// chunk represents a 64x64 region of cell slots. a nil slot is an absent
// cell, which is distinct from a cell holding empty content.
type chunk struct {
	cells    []*Cell
	occupied int
}

// grid is sparse cell storage. cells are partitioned into chunks that are
// allocated on first write and dropped again once their last slot empties.
// size only ever grows: it covers every position ever written or
// materialized, which is what Sheet.Size reports.
type grid struct {
	chunks map[chunkKey]*chunk
	size   cellref.Size
	count  int
}

func newGrid() *grid {
	return &grid{
		chunks: make(map[chunkKey]*chunk),
	}
}

func locate(pos cellref.Position) (chunkKey, int) {
	key := chunkKey{row: pos.Row / chunkRows, col: pos.Col / chunkCols}
	idx := (pos.Row%chunkRows)*chunkCols + pos.Col%chunkCols
	return key, idx
}

// get returns the cell at pos, nil if the slot is absent
func (g *grid) get(pos cellref.Position) *Cell {
	key, idx := locate(pos)
	c, ok := g.chunks[key]
	if !ok {
		return nil
	}
	return c.cells[idx]
}

// put stores cell at pos and grows the tracked size to cover it
func (g *grid) put(pos cellref.Position, cell *Cell) {
	key, idx := locate(pos)
	c, ok := g.chunks[key]
	if !ok {
		c = &chunk{cells: make([]*Cell, chunkSize)}
		g.chunks[key] = c
	}
	if c.cells[idx] == nil {
		c.occupied++
		g.count++
	}
	c.cells[idx] = cell
	g.grow(pos)
}

// remove empties the slot at pos and returns what was there
func (g *grid) remove(pos cellref.Position) *Cell {
	key, idx := locate(pos)
	c, ok := g.chunks[key]
	if !ok {
		return nil
	}
	cell := c.cells[idx]
	if cell == nil {
		return nil
	}
	c.cells[idx] = nil
	c.occupied--
	g.count--
	if c.occupied == 0 {
		delete(g.chunks, key)
	}
	return cell
}

// grow extends the tracked size so pos lies inside it, never shrinking
func (g *grid) grow(pos cellref.Position) {
	g.size.Rows = max(g.size.Rows, pos.Row+1)
	g.size.Cols = max(g.size.Cols, pos.Col+1)
}

// all returns an iterator over every present cell, in no particular order
func (g *grid) all() iter.Seq[*Cell] {
	return func(yield func(*Cell) bool) {
		for _, c := range g.chunks {
			for _, cell := range c.cells {
				if cell == nil {
					continue
				}
				if !yield(cell) {
					return
				}
			}
		}
	}
}
