package spreadsheet

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vogtb/go-sheetgraph/packages/cellref"
	"github.com/vogtb/go-sheetgraph/packages/formula"
)

type SheetTestCase struct {
	t     *testing.T
	name  string
	sheet *Sheet
	err   error
}

func NewSheetTestCase(t *testing.T, name string, opts ...Option) *SheetTestCase {
	return &SheetTestCase{
		t:     t,
		name:  name,
		sheet: New(opts...),
	}
}

// pending reports an error left over from a previous step that nobody
// expected. assertions are skipped once that happens.
func (tc *SheetTestCase) pending() bool {
	if tc.err != nil {
		tc.t.Errorf("%s: unexpected error: %v", tc.name, tc.err)
		tc.err = nil
		return true
	}
	return false
}

func (tc *SheetTestCase) Set(address string, text string) *SheetTestCase {
	if tc.err != nil {
		return tc
	}
	tc.err = tc.sheet.SetCell(cellref.MustParse(address), text)
	return tc
}

func (tc *SheetTestCase) Clear(address string) *SheetTestCase {
	if tc.err != nil {
		return tc
	}
	tc.err = tc.sheet.ClearCell(cellref.MustParse(address))
	return tc
}

func (tc *SheetTestCase) cell(address string) *Cell {
	cell, err := tc.sheet.GetCell(cellref.MustParse(address))
	require.NoError(tc.t, err)
	return cell
}

func (tc *SheetTestCase) AssertValue(address string, expected any) *SheetTestCase {
	if tc.pending() {
		return tc
	}
	cell := tc.cell(address)
	if !assert.NotNil(tc.t, cell, "%s: cell %s is absent", tc.name, address) {
		return tc
	}

	actual := cell.Value()
	switch exp := expected.(type) {
	case float64:
		if act, ok := actual.(float64); assert.True(tc.t, ok, "%s: cell %s = %v (%T), want %v", tc.name, address, actual, actual, exp) {
			assert.InDelta(tc.t, exp, act, 1e-10, "%s: cell %s", tc.name, address)
		}
	case int:
		return tc.AssertValue(address, float64(exp))
	case formula.ErrorCode:
		if act, ok := actual.(*formula.Error); assert.True(tc.t, ok, "%s: cell %s = %v, want error %s", tc.name, address, actual, formula.ErrorMapper[exp]) {
			assert.Equal(tc.t, exp, act.ErrorCode, "%s: cell %s", tc.name, address)
		}
	default:
		assert.Equal(tc.t, expected, actual, "%s: cell %s", tc.name, address)
	}
	return tc
}

func (tc *SheetTestCase) AssertText(address string, expected string) *SheetTestCase {
	if tc.pending() {
		return tc
	}
	cell := tc.cell(address)
	if assert.NotNil(tc.t, cell, "%s: cell %s is absent", tc.name, address) {
		assert.Equal(tc.t, expected, cell.Text(), "%s: text of %s", tc.name, address)
	}
	return tc
}

func (tc *SheetTestCase) AssertAbsent(address string) *SheetTestCase {
	if tc.pending() {
		return tc
	}
	assert.Nil(tc.t, tc.cell(address), "%s: cell %s should be absent", tc.name, address)
	return tc
}

func (tc *SheetTestCase) AssertCached(address string, cached bool) *SheetTestCase {
	if tc.pending() {
		return tc
	}
	cell := tc.cell(address)
	if assert.NotNil(tc.t, cell, "%s: cell %s is absent", tc.name, address) {
		assert.Equal(tc.t, cached, cell.HasCache(), "%s: cache of %s", tc.name, address)
	}
	return tc
}

func positions(addresses ...string) []cellref.Position {
	out := make([]cellref.Position, 0, len(addresses))
	for _, address := range addresses {
		out = append(out, cellref.MustParse(address))
	}
	return out
}

func (tc *SheetTestCase) AssertRefs(address string, expected ...string) *SheetTestCase {
	if tc.pending() {
		return tc
	}
	cell := tc.cell(address)
	if assert.NotNil(tc.t, cell, "%s: cell %s is absent", tc.name, address) {
		assert.Equal(tc.t, positions(expected...), append([]cellref.Position{}, cell.ReferencedCells()...), "%s: refs of %s", tc.name, address)
	}
	return tc
}

func (tc *SheetTestCase) AssertDependents(address string, expected ...string) *SheetTestCase {
	if tc.pending() {
		return tc
	}
	cell := tc.cell(address)
	if assert.NotNil(tc.t, cell, "%s: cell %s is absent", tc.name, address) {
		assert.Equal(tc.t, positions(expected...), cell.Dependents(), "%s: dependents of %s", tc.name, address)
		assert.Equal(tc.t, len(expected) > 0, cell.HasDependents())
	}
	return tc
}

func (tc *SheetTestCase) ExpectError(target error, code AppErrorCode) *SheetTestCase {
	if tc.err == nil {
		tc.t.Errorf("%s: expected error %v, but got no error", tc.name, target)
		return tc
	}
	assert.ErrorIs(tc.t, tc.err, target, tc.name)
	assert.Equal(tc.t, code, CodeOf(tc.err), tc.name)
	tc.err = nil
	return tc
}

func (tc *SheetTestCase) End() {
	tc.pending()
}

func TestTextAndEmptyContent(t *testing.T) {
	NewSheetTestCase(t, "plain text").
		Set("A1", "hello").
		AssertText("A1", "hello").
		AssertValue("A1", "hello").
		AssertRefs("A1").
		End()

	NewSheetTestCase(t, "escaped formula text").
		Set("A1", "'=5").
		AssertText("A1", "'=5").
		AssertValue("A1", "=5").
		End()

	NewSheetTestCase(t, "lone escape sign").
		Set("A1", "'").
		AssertText("A1", "'").
		AssertValue("A1", "").
		End()

	NewSheetTestCase(t, "lone formula sign is text").
		Set("A1", "=").
		AssertText("A1", "=").
		AssertValue("A1", "=").
		End()

	NewSheetTestCase(t, "empty text").
		Set("A1", "").
		AssertText("A1", "").
		AssertValue("A1", "").
		End()
}

func TestFormulaContent(t *testing.T) {
	NewSheetTestCase(t, "canonical text").
		Set("A1", "= 1 + (2 * 3)").
		AssertText("A1", "=1+2*3").
		AssertValue("A1", 7).
		End()

	NewSheetTestCase(t, "references sorted and deduplicated").
		Set("C3", "=B2+A1+B2+A2").
		AssertRefs("C3", "A1", "A2", "B2").
		End()

	NewSheetTestCase(t, "referenced cells are materialized").
		Set("C3", "=B2+A1").
		AssertValue("A1", "").
		AssertText("B2", "").
		AssertDependents("A1", "C3").
		AssertDependents("B2", "C3").
		AssertValue("C3", 0).
		End()

	NewSheetTestCase(t, "numeric text is coerced").
		Set("A1", "3").
		Set("A2", "=A1*2").
		AssertValue("A2", 6).
		End()

	NewSheetTestCase(t, "error values propagate").
		Set("A1", "abc").
		Set("B1", "=A1+1").
		Set("C1", "=B1*2").
		AssertValue("B1", formula.ErrorCodeValue).
		AssertValue("C1", formula.ErrorCodeValue).
		AssertCached("B1", true).
		End()

	NewSheetTestCase(t, "division by zero").
		Set("A1", "=1/0").
		AssertValue("A1", formula.ErrorCodeArithmetic).
		End()

	NewSheetTestCase(t, "reference outside the grid").
		Set("A1", "=A99999+1").
		AssertValue("A1", formula.ErrorCodeRef).
		AssertRefs("A1").
		End()

	NewSheetTestCase(t, "ranges").
		Set("A1", "1").
		Set("A2", "2").
		Set("B1", "=SUM(A1:A3)").
		AssertValue("B1", 3).
		AssertDependents("A3", "B1").
		Set("A3", "4").
		AssertValue("B1", 7).
		End()
}

func TestRecalculationAfterUpstreamChange(t *testing.T) {
	NewSheetTestCase(t, "chain").
		Set("A1", "1").
		Set("B1", "=A1*2").
		Set("C1", "=B1+A1").
		AssertValue("C1", 3).
		AssertCached("B1", true).
		AssertCached("C1", true).
		Set("A1", "5").
		AssertCached("B1", false).
		AssertCached("C1", false).
		AssertValue("B1", 10).
		AssertValue("C1", 15).
		End()

	NewSheetTestCase(t, "replacing a formula rebuilds edges").
		Set("B1", "=A1").
		AssertDependents("A1", "B1").
		Set("B1", "=C1").
		AssertDependents("A1").
		AssertDependents("C1", "B1").
		Set("C1", "7").
		AssertValue("B1", 7).
		Set("A1", "100").
		AssertValue("B1", 7).
		End()

	NewSheetTestCase(t, "formula replaced by text").
		Set("A1", "2").
		Set("B1", "=A1").
		Set("C1", "=B1").
		AssertValue("C1", 2).
		Set("B1", "9").
		AssertDependents("A1").
		AssertValue("C1", 9).
		End()
}

func TestCircularReferences(t *testing.T) {
	NewSheetTestCase(t, "direct self reference").
		Set("A1", "hello").
		Set("A1", "=A1").
		ExpectError(ErrCircularDependency, FailedPrecondition).
		AssertText("A1", "hello").
		AssertRefs("A1").
		AssertDependents("A1").
		End()

	NewSheetTestCase(t, "self reference on a new cell").
		Set("A1", "=A1+1").
		ExpectError(ErrCircularDependency, FailedPrecondition).
		AssertAbsent("A1").
		End()

	NewSheetTestCase(t, "two cell cycle").
		Set("A1", "=B1").
		Set("B1", "=A1").
		ExpectError(ErrCircularDependency, FailedPrecondition).
		AssertText("B1", "").
		AssertRefs("B1").
		AssertDependents("A1").
		AssertDependents("B1", "A1").
		End()

	NewSheetTestCase(t, "long cycle").
		Set("A1", "=B1").
		Set("B1", "=C1").
		Set("C1", "=D1*2").
		Set("D1", "=A1").
		ExpectError(ErrCircularDependency, FailedPrecondition).
		AssertText("D1", "").
		AssertDependents("A1").
		End()

	NewSheetTestCase(t, "cycle through a range").
		Set("A2", "=SUM(A1:A3)").
		ExpectError(ErrCircularDependency, FailedPrecondition).
		AssertAbsent("A2").
		End()

	NewSheetTestCase(t, "rejected formula keeps previous formula").
		Set("A1", "=B1+1").
		Set("B1", "2").
		AssertValue("A1", 3).
		Set("B1", "=A1").
		ExpectError(ErrCircularDependency, FailedPrecondition).
		AssertText("B1", "2").
		AssertCached("A1", true).
		AssertValue("A1", 3).
		End()

	NewSheetTestCase(t, "diamond is not a cycle").
		Set("A1", "=B1+C1").
		Set("B1", "=D1").
		Set("C1", "=D1").
		Set("D1", "=E1+E1").
		AssertRefs("A1", "B1", "C1").
		End()
}

func TestSyntaxErrorsLeaveCellUntouched(t *testing.T) {
	tc := NewSheetTestCase(t, "syntax error").
		Set("A1", "=1+2").
		Set("B1", "=A1").
		AssertValue("B1", 3).
		Set("A1", "=1+")

	var syntaxErr *formula.SyntaxError
	assert.ErrorAs(t, tc.err, &syntaxErr)

	tc.ExpectError(ErrFormulaSyntax, InvalidArgument).
		AssertText("A1", "=1+2").
		AssertCached("B1", true).
		AssertDependents("A1", "B1").
		End()

	NewSheetTestCase(t, "syntax error on new cell").
		Set("C3", "=SUM(").
		ExpectError(ErrFormulaSyntax, InvalidArgument).
		AssertAbsent("C3").
		End()
}

func TestInvalidPositions(t *testing.T) {
	sheet := New()
	bad := []cellref.Position{
		{Row: -1, Col: 0},
		{Row: 0, Col: -1},
		{Row: cellref.MaxRows, Col: 0},
		{Row: 0, Col: cellref.MaxCols},
		cellref.None,
	}

	for _, pos := range bad {
		err := sheet.SetCell(pos, "1")
		assert.ErrorIs(t, err, ErrInvalidPosition)
		assert.Equal(t, OutOfRange, CodeOf(err))

		cell, err := sheet.GetCell(pos)
		assert.Nil(t, cell)
		assert.ErrorIs(t, err, ErrInvalidPosition)

		assert.ErrorIs(t, sheet.ClearCell(pos), ErrInvalidPosition)
	}

	assert.Equal(t, cellref.Size{}, sheet.Size())
	assert.Equal(t, 0, sheet.CellCount())
}

func TestClearCell(t *testing.T) {
	NewSheetTestCase(t, "no dependents removes the slot").
		Set("A1", "5").
		Clear("A1").
		AssertAbsent("A1").
		End()

	NewSheetTestCase(t, "dependents keep the cell as empty").
		Set("A1", "5").
		Set("B1", "=A1").
		AssertValue("B1", 5).
		Clear("A1").
		AssertText("A1", "").
		AssertValue("A1", "").
		AssertDependents("A1", "B1").
		AssertCached("B1", false).
		AssertValue("B1", 0).
		End()

	NewSheetTestCase(t, "clearing a formula drops its edges").
		Set("A1", "1").
		Set("B1", "=A1").
		Clear("B1").
		AssertAbsent("B1").
		AssertDependents("A1").
		Clear("A1").
		AssertAbsent("A1").
		End()

	NewSheetTestCase(t, "clearing an absent cell").
		Clear("Z9").
		AssertAbsent("Z9").
		End()
}

func TestIdenticalTextIsNoop(t *testing.T) {
	sheet := New()
	require.NoError(t, sheet.SetCell(cellref.MustParse("A1"), "1"))
	require.NoError(t, sheet.SetCell(cellref.MustParse("B1"), "=A1+1"))

	b1, err := sheet.GetCell(cellref.MustParse("B1"))
	require.NoError(t, err)
	assert.Equal(t, 2.0, b1.Value())
	require.True(t, b1.HasCache())

	before := sheet.Stats()
	require.NoError(t, sheet.SetCell(cellref.MustParse("A1"), "1"))
	require.NoError(t, sheet.SetCell(cellref.MustParse("B1"), "=A1+1"))

	assert.True(t, b1.HasCache())
	assert.Equal(t, before.Invalidations, sheet.Stats().Invalidations)
}

func TestDetachedCell(t *testing.T) {
	sheet := New()
	pos := cellref.MustParse("A1")
	require.NoError(t, sheet.SetCell(pos, "1"))

	cell, err := sheet.GetCell(pos)
	require.NoError(t, err)
	require.NoError(t, sheet.ClearCell(pos))

	err = cell.SetContent("2")
	assert.ErrorIs(t, err, ErrDetachedCell)
	assert.Equal(t, FailedPrecondition, CodeOf(err))
}

func TestSizes(t *testing.T) {
	sheet := New()
	require.NoError(t, sheet.SetCell(cellref.MustParse("A1"), "=Z100"))

	assert.Equal(t, cellref.Size{Rows: 100, Cols: 26}, sheet.Size())
	assert.Equal(t, cellref.Size{Rows: 1, Cols: 1}, sheet.PrintableSize())
	assert.Equal(t, 2, sheet.CellCount())

	require.NoError(t, sheet.SetCell(cellref.MustParse("C2"), "x"))
	assert.Equal(t, cellref.Size{Rows: 2, Cols: 3}, sheet.PrintableSize())

	require.NoError(t, sheet.ClearCell(cellref.MustParse("C2")))
	assert.Equal(t, cellref.Size{Rows: 1, Cols: 1}, sheet.PrintableSize())
	assert.Equal(t, cellref.Size{Rows: 100, Cols: 26}, sheet.Size())

	err := sheet.SetCell(cellref.MustParse("AA200"), "=1+")
	assert.ErrorIs(t, err, ErrFormulaSyntax)
	assert.Equal(t, cellref.Size{Rows: 100, Cols: 26}, sheet.Size())
}

func TestEmptySheet(t *testing.T) {
	sheet := New()
	assert.Equal(t, cellref.Size{}, sheet.PrintableSize())

	var buf bytes.Buffer
	require.NoError(t, sheet.PrintValues(&buf))
	assert.Empty(t, buf.String())
}

func TestPrint(t *testing.T) {
	r := NewRunnableSheet(func(string) {}).
		Set("A1", "1").
		Set("B1", "=A1/0").
		Set("A2", "'=x").
		Set("C2", "text").
		Set("B3", "=A1+0.5")
	require.NoError(t, r.Error())
	sheet := r.Sheet()

	var values bytes.Buffer
	require.NoError(t, sheet.PrintValues(&values))
	assert.Equal(t, "1\t#ARITHM!\t\n=x\t\ttext\n\t1.5\t\n", values.String())

	var texts bytes.Buffer
	require.NoError(t, sheet.PrintTexts(&texts))
	assert.Equal(t, "1\t=A1/0\t\n'=x\t\ttext\n\t=A1+0.5\t\n", texts.String())
}

func TestFormulaSharing(t *testing.T) {
	r := NewRunnableSheet(func(string) {}).
		Set("A1", "=X1+1").
		Set("B1", "=X1 + 1").
		Set("C1", "=X1+2")
	require.NoError(t, r.Error())
	sheet := r.Sheet()
	assert.Equal(t, 2, sheet.FormulaCount())

	require.NoError(t, sheet.ClearCell(cellref.MustParse("A1")))
	assert.Equal(t, 2, sheet.FormulaCount())
	require.NoError(t, sheet.ClearCell(cellref.MustParse("B1")))
	assert.Equal(t, 1, sheet.FormulaCount())
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, OK, CodeOf(nil))
	assert.Equal(t, Unknown, CodeOf(errors.New("plain")))
	assert.Equal(t, Internal, CodeOf(NewApplicationError(Internal, "boom")))
	assert.Equal(t, "out_of_range", OutOfRange.String())
}
