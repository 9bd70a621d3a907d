package formula

import (
	"iter"

	"github.com/vogtb/go-sheetgraph/packages/cellref"
)

// MaxRangeCells bounds the area of a single range argument. every cell of a
// range becomes a dependency edge, so the limit keeps one formula from
// materializing an unbounded number of cells.
const MaxRangeCells = 1 << 14

// CellRange is a normalized rectangular block: Start is the top-left corner
// and End the bottom-right, both inclusive
type CellRange struct {
	Start cellref.Position
	End   cellref.Position
}

// NewCellRange builds a range from two opposite corners in any order
func NewCellRange(a, b cellref.Position) CellRange {
	return CellRange{
		Start: cellref.Position{Row: min(a.Row, b.Row), Col: min(a.Col, b.Col)},
		End:   cellref.Position{Row: max(a.Row, b.Row), Col: max(a.Col, b.Col)},
	}
}

// IsValid reports whether both corners lie inside the grid
func (r CellRange) IsValid() bool {
	return r.Start.IsValid() && r.End.IsValid()
}

func (r CellRange) String() string {
	return r.Start.String() + ":" + r.End.String()
}

// Area is the number of cells covered by the range
func (r CellRange) Area() int {
	return (r.End.Row - r.Start.Row + 1) * (r.End.Col - r.Start.Col + 1)
}

// Contains checks if pos lies inside the range
func (r CellRange) Contains(pos cellref.Position) bool {
	return pos.Row >= r.Start.Row && pos.Row <= r.End.Row &&
		pos.Col >= r.Start.Col && pos.Col <= r.End.Col
}

// Iterate returns an iterator over every position in the range, row-major
func (r CellRange) Iterate() iter.Seq[cellref.Position] {
	return func(yield func(cellref.Position) bool) {
		if !r.IsValid() {
			return
		}
		for row := r.Start.Row; row <= r.End.Row; row++ {
			for col := r.Start.Col; col <= r.End.Col; col++ {
				if !yield(cellref.Position{Row: row, Col: col}) {
					return
				}
			}
		}
	}
}

// IterateValues returns an iterator over the raw values of the range as
// reported by lookup
func (r CellRange) IterateValues(lookup Lookup) iter.Seq[any] {
	return func(yield func(any) bool) {
		for pos := range r.Iterate() {
			if !yield(lookup(pos)) {
				return
			}
		}
	}
}
