// Package spreadsheet is the cell graph engine: a grid of cells holding
// empty content, text, or formulas, with dependency tracking, cycle
// rejection and memoized evaluation that is invalidated along dependent
// edges when an upstream cell changes.
//
// A Sheet is not safe for concurrent use. Every operation runs to
// completion before returning.
package spreadsheet

import (
	"bufio"
	"io"

	"github.com/apex/log"

	"github.com/vogtb/go-sheetgraph/packages/cellref"
	"github.com/vogtb/go-sheetgraph/packages/formula"
)

// Observer is notified about cache and graph events. it is how metrics are
// attached to a sheet.
type Observer interface {
	CacheHit(pos cellref.Position)
	CacheMiss(pos cellref.Position)
	CacheInvalidated(pos cellref.Position)
	CycleRejected(pos cellref.Position)
	CellMaterialized(pos cellref.Position)
}

type noopObserver struct{}

func (noopObserver) CacheHit(cellref.Position)         {}
func (noopObserver) CacheMiss(cellref.Position)        {}
func (noopObserver) CacheInvalidated(cellref.Position) {}
func (noopObserver) CycleRejected(cellref.Position)    {}
func (noopObserver) CellMaterialized(cellref.Position) {}

// Stats are running counters kept by every sheet
type Stats struct {
	CacheHits         int
	CacheMisses       int
	Invalidations     int
	CyclesRejected    int
	CellsMaterialized int
}

// Option configures a Sheet
type Option func(*Sheet)

// WithObserver attaches an observer for cache and graph events
func WithObserver(o Observer) Option {
	return func(s *Sheet) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithLogger sets the logger used for structural events. defaults to the
// apex/log package logger.
func WithLogger(l log.Interface) Option {
	return func(s *Sheet) {
		if l != nil {
			s.logger = l
		}
	}
}

// Sheet owns a grid of cells and mediates every creation, lookup and
// removal of them
type Sheet struct {
	grid     *grid
	formulas *formula.Table
	observer Observer
	logger   log.Interface
	stats    Stats
}

// New creates an empty sheet
func New(opts ...Option) *Sheet {
	s := &Sheet{
		grid:     newGrid(),
		formulas: formula.NewTable(),
		observer: noopObserver{},
		logger:   log.Log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetCell stores text at pos. setting the text a cell already has is a
// no-op. on any error the sheet is left unchanged, including its size.
func (s *Sheet) SetCell(pos cellref.Position, text string) error {
	if !pos.IsValid() {
		return invalidPositionError(pos)
	}

	cell := s.grid.get(pos)
	if cell != nil && cell.Text() == text {
		return nil
	}

	created := false
	prevSize := s.grid.size
	if cell == nil {
		cell = newCell(s, pos)
		s.grid.put(pos, cell)
		created = true
	}

	if err := cell.SetContent(text); err != nil {
		if created {
			s.grid.remove(pos)
			s.grid.size = prevSize
		}
		return err
	}

	s.logger.WithFields(log.Fields{
		"cell": pos.String(),
		"type": cell.Type().String(),
	}).Debug("cell set")
	return nil
}

// GetCell returns the cell at pos. a nil cell with a nil error means the
// slot was never materialized, or has been removed.
func (s *Sheet) GetCell(pos cellref.Position) (*Cell, error) {
	if !pos.IsValid() {
		return nil, invalidPositionError(pos)
	}
	return s.grid.get(pos), nil
}

// ClearCell empties the cell at pos. a cell that other formulas reference
// survives with empty content; otherwise the slot is removed.
func (s *Sheet) ClearCell(pos cellref.Position) error {
	if !pos.IsValid() {
		return invalidPositionError(pos)
	}

	cell := s.grid.get(pos)
	if cell == nil {
		return nil
	}

	cell.Clear()

	if cell.HasDependents() {
		s.logger.WithField("cell", pos.String()).Debug("cell cleared, kept for dependents")
		return nil
	}

	s.grid.remove(pos)
	s.logger.WithField("cell", pos.String()).Debug("cell removed")
	return nil
}

// lookup resolves a referenced position for formula evaluation
func (s *Sheet) lookup(pos cellref.Position) any {
	cell := s.grid.get(pos)
	if cell == nil {
		return nil
	}
	return cell.Value()
}

// Size returns the allocated size: it covers every position ever written
// or implicitly materialized, and never shrinks
func (s *Sheet) Size() cellref.Size {
	return s.grid.size
}

// PrintableSize returns the smallest size that contains every cell with
// non-empty text
func (s *Sheet) PrintableSize() cellref.Size {
	var size cellref.Size
	for cell := range s.grid.all() {
		if cell.Text() == "" {
			continue
		}
		size.Rows = max(size.Rows, cell.pos.Row+1)
		size.Cols = max(size.Cols, cell.pos.Col+1)
	}
	return size
}

// CellCount returns the number of materialized cells, empty ones included
func (s *Sheet) CellCount() int {
	return s.grid.count
}

// FormulaCount returns the number of distinct formulas held by the sheet
func (s *Sheet) FormulaCount() int {
	return s.formulas.Count()
}

// Stats returns a snapshot of the sheet's counters
func (s *Sheet) Stats() Stats {
	return s.stats
}

// PrintValues writes the value of every cell in the printable area,
// tab-separated, one line per row
func (s *Sheet) PrintValues(w io.Writer) error {
	return s.print(w, func(c *Cell) string {
		return FormatValue(c.Value())
	})
}

// PrintTexts writes the text of every cell in the printable area,
// tab-separated, one line per row
func (s *Sheet) PrintTexts(w io.Writer) error {
	return s.print(w, (*Cell).Text)
}

// Rows returns the printable area as rows of rendered fields, using render
// for present cells and "" for absent ones
func (s *Sheet) Rows(render func(c *Cell) string) [][]string {
	size := s.PrintableSize()
	rows := make([][]string, size.Rows)
	for row := range size.Rows {
		fields := make([]string, size.Cols)
		for col := range size.Cols {
			if cell := s.grid.get(cellref.Position{Row: row, Col: col}); cell != nil {
				fields[col] = render(cell)
			}
		}
		rows[row] = fields
	}
	return rows
}

func (s *Sheet) print(w io.Writer, render func(c *Cell) string) error {
	bw := bufio.NewWriter(w)
	for _, fields := range s.Rows(render) {
		for col, field := range fields {
			if col > 0 {
				bw.WriteByte('\t')
			}
			bw.WriteString(field)
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
