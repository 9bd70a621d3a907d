package spreadsheet

import (
	"slices"
	"strconv"

	"github.com/vogtb/go-sheetgraph/packages/cellref"
	"github.com/vogtb/go-sheetgraph/packages/formula"
)

const (
	// FormulaSign marks text to be parsed as a formula
	FormulaSign = '='

	// EscapeSign marks text to be kept literally even if it looks like a
	// formula. it is stripped from the value, not from the stored text.
	EscapeSign = '\''
)

// Primitive represents cell value types.
// types:
//   - string: text values, and "" for empty cells
//   - float64: computed formula results
//   - *formula.Error: formula evaluation errors (#REF!, #VALUE!, #ARITHM!)
type Primitive any

// CellType represents the kind of content a cell holds
type CellType uint8

const (
	CellTypeEmpty CellType = iota
	CellTypeText
	CellTypeFormula
)

func (t CellType) String() string {
	switch t {
	case CellTypeText:
		return "text"
	case CellTypeFormula:
		return "formula"
	default:
		return "empty"
	}
}

// content is the closed set of things a cell can hold. only the types in
// this file implement it.
type content interface {
	cellType() CellType
}

type emptyContent struct{}

type textContent struct {
	text string
}

// formulaContent owns the memo slot. a nil cache only means the value has
// not been computed since the last invalidation.
type formulaContent struct {
	formula *formula.Formula
	cache   *cachedValue
}

type cachedValue struct {
	number float64
	err    *formula.Error
}

func (emptyContent) cellType() CellType    { return CellTypeEmpty }
func (textContent) cellType() CellType     { return CellTypeText }
func (*formulaContent) cellType() CellType { return CellTypeFormula }

func (v *cachedValue) primitive() Primitive {
	if v.err != nil {
		return v.err
	}
	return v.number
}

// Cell is one slot of a Sheet. the sheet owns every cell; dependents holds
// positions, looked up through the sheet, never cell pointers.
type Cell struct {
	sheet      *Sheet
	pos        cellref.Position
	content    content
	dependents map[cellref.Position]struct{}
}

func newCell(sheet *Sheet, pos cellref.Position) *Cell {
	return &Cell{
		sheet:      sheet,
		pos:        pos,
		content:    emptyContent{},
		dependents: make(map[cellref.Position]struct{}),
	}
}

// classify turns raw text into content without touching the cell
func classify(text string) (content, error) {
	if text == "" {
		return emptyContent{}, nil
	}
	if text[0] == FormulaSign && len(text) > 1 {
		f, err := formula.Parse(text[1:])
		if err != nil {
			return nil, wrapError(InvalidArgument, err, "cannot parse %q", text)
		}
		return &formulaContent{formula: f}, nil
	}
	return textContent{text: text}, nil
}

// SetContent replaces the cell's content with text. the new content is
// validated completely (syntax, then cycles) before anything changes; on
// error the cell and the graph are exactly as before.
func (c *Cell) SetContent(text string) error {
	if c.sheet.grid.get(c.pos) != c {
		return &AppError{Code: FailedPrecondition, Message: ErrDetachedCell.Error() + ": " + c.pos.String(), Err: ErrDetachedCell}
	}

	next, err := classify(text)
	if err != nil {
		return err
	}

	if fc, ok := next.(*formulaContent); ok {
		if err := c.sheet.checkCircular(c.pos, fc.formula.ReferencedPositions()); err != nil {
			return err
		}
		fc.formula = c.sheet.formulas.Intern(fc.formula)
	}

	c.replaceContent(next)
	return nil
}

// Clear resets the content to empty. cells referencing this one keep their
// edges; this cell drops the edges its own formula had.
func (c *Cell) Clear() {
	c.replaceContent(emptyContent{})
}

// replaceContent commits already-validated content: old outbound edges go,
// new ones are added (materializing referenced cells), then caches
// downstream are invalidated
func (c *Cell) replaceContent(next content) {
	for _, ref := range c.referencedPositions() {
		if target := c.sheet.grid.get(ref); target != nil {
			delete(target.dependents, c.pos)
		}
	}
	if fc, ok := c.content.(*formulaContent); ok {
		c.sheet.formulas.Release(fc.formula)
	}

	c.content = next

	for _, ref := range c.referencedPositions() {
		target := c.sheet.ensureCell(ref)
		target.dependents[c.pos] = struct{}{}
	}

	c.sheet.invalidate(c)
}

// Value returns the cell's value: "" for empty, the unescaped text for text,
// and a float64 or *formula.Error for formulas. formula values are computed
// on first read and served from the cache until invalidated.
func (c *Cell) Value() Primitive {
	switch ct := c.content.(type) {
	case textContent:
		if ct.text[0] == EscapeSign {
			return ct.text[1:]
		}
		return ct.text
	case *formulaContent:
		if ct.cache != nil {
			c.sheet.stats.CacheHits++
			c.sheet.observer.CacheHit(c.pos)
			return ct.cache.primitive()
		}
		c.sheet.stats.CacheMisses++
		c.sheet.observer.CacheMiss(c.pos)
		number, err := ct.formula.Evaluate(c.sheet.lookup)
		ct.cache = &cachedValue{number: number, err: err}
		return ct.cache.primitive()
	default:
		return ""
	}
}

// Text returns the stored text: raw text including any escape sign, or the
// formula sign followed by the canonical expression
func (c *Cell) Text() string {
	switch ct := c.content.(type) {
	case textContent:
		return ct.text
	case *formulaContent:
		return string(FormulaSign) + ct.formula.Expression()
	default:
		return ""
	}
}

// Type reports which kind of content the cell holds
func (c *Cell) Type() CellType {
	return c.content.cellType()
}

// ReferencedCells returns the positions the cell's formula names,
// deduplicated and sorted row-major. empty for non-formula cells.
func (c *Cell) ReferencedCells() []cellref.Position {
	refs := c.referencedPositions()
	slices.SortFunc(refs, cellref.Compare)
	return refs
}

// referencedPositions derives outbound edges from the current formula.
// they are never stored separately.
func (c *Cell) referencedPositions() []cellref.Position {
	if fc, ok := c.content.(*formulaContent); ok {
		return fc.formula.ReferencedPositions()
	}
	return nil
}

// HasDependents reports whether any formula currently references this cell
func (c *Cell) HasDependents() bool {
	return len(c.dependents) > 0
}

// Dependents returns the positions of cells whose formulas reference this
// one, sorted row-major
func (c *Cell) Dependents() []cellref.Position {
	out := make([]cellref.Position, 0, len(c.dependents))
	for pos := range c.dependents {
		out = append(out, pos)
	}
	slices.SortFunc(out, cellref.Compare)
	return out
}

// HasCache reports whether a formula value is currently memoized
func (c *Cell) HasCache() bool {
	fc, ok := c.content.(*formulaContent)
	return ok && fc.cache != nil
}

func (c *Cell) Position() cellref.Position {
	return c.pos
}

// clearCache drops the memoized value, reporting whether there was one
func (c *Cell) clearCache() bool {
	fc, ok := c.content.(*formulaContent)
	if !ok || fc.cache == nil {
		return false
	}
	fc.cache = nil
	return true
}

// FormatValue renders a cell value the way the print functions do
func FormatValue(v Primitive) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case *formula.Error:
		return val.Marker()
	default:
		return ""
	}
}
