package spreadsheet

import (
	"fmt"
	"slices"

	"github.com/apex/log"

	"github.com/vogtb/go-sheetgraph/packages/cellref"
)

// checkCircular walks the current graph from the candidate references of
// target and fails if any path leads back to target. it only reads: the
// candidate edges are not yet part of the graph, they seed the walk.
// diamonds are fine, the visited set keeps shared precedents from being
// expanded twice.
func (s *Sheet) checkCircular(target cellref.Position, refs []cellref.Position) error {
	visited := make(map[cellref.Position]struct{})
	stack := slices.Clone(refs)

	for len(stack) > 0 {
		pos := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if pos == target {
			s.stats.CyclesRejected++
			s.observer.CycleRejected(target)
			s.logger.WithFields(log.Fields{
				"cell": target.String(),
				"via":  pos.String(),
			}).Debug("circular reference rejected")
			return &AppError{
				Code:    FailedPrecondition,
				Message: fmt.Sprintf("%s: formula in %s would reference itself", ErrCircularDependency, target),
				Err:     ErrCircularDependency,
			}
		}

		if _, seen := visited[pos]; seen {
			continue
		}
		visited[pos] = struct{}{}

		cell := s.grid.get(pos)
		if cell == nil {
			continue
		}
		stack = append(stack, cell.referencedPositions()...)
	}

	return nil
}

// invalidate clears the cache of origin and of everything downstream of it.
// a dependent whose cache is already empty is not expanded: nothing below
// it can hold a value computed from the old state.
func (s *Sheet) invalidate(origin *Cell) {
	if origin.clearCache() {
		s.noteInvalidated(origin.pos)
	}

	stack := make([]cellref.Position, 0, len(origin.dependents))
	for pos := range origin.dependents {
		stack = append(stack, pos)
	}

	for len(stack) > 0 {
		pos := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		cell := s.grid.get(pos)
		if cell == nil || !cell.clearCache() {
			continue
		}
		s.noteInvalidated(pos)

		for dep := range cell.dependents {
			stack = append(stack, dep)
		}
	}
}

func (s *Sheet) noteInvalidated(pos cellref.Position) {
	s.stats.Invalidations++
	s.observer.CacheInvalidated(pos)
}

// ensureCell returns the cell at pos, creating an empty one if the slot is
// absent so that it can carry dependents
func (s *Sheet) ensureCell(pos cellref.Position) *Cell {
	if cell := s.grid.get(pos); cell != nil {
		return cell
	}
	cell := newCell(s, pos)
	s.grid.put(pos, cell)
	s.stats.CellsMaterialized++
	s.observer.CellMaterialized(pos)
	return cell
}
