package spreadsheet

import (
	"fmt"

	"github.com/vogtb/go-sheetgraph/packages/cellref"
)

// RunnableSheet wraps a Sheet for scripted use: cells are addressed in A1
// notation and the first error is tracked internally. once an error is
// recorded every further operation is a no-op until Reset.
type RunnableSheet struct {
	sheet   *Sheet
	err     error
	printLn func(string)
}

// NewRunnableSheet creates a new RunnableSheet. printLn is required and is
// used by Log.
func NewRunnableSheet(printLn func(string), opts ...Option) *RunnableSheet {
	return &RunnableSheet{
		sheet:   New(opts...),
		err:     nil,
		printLn: printLn,
	}
}

// resolve parses an A1 address, turning failures into position errors
func resolve(address string) (cellref.Position, error) {
	pos, err := cellref.ParsePosition(address)
	if err != nil {
		return cellref.None, &AppError{Code: OutOfRange, Message: err.Error(), Err: err}
	}
	return pos, nil
}

// Set sets a cell's text (chainable)
func (r *RunnableSheet) Set(address string, text string) *RunnableSheet {
	if r.err != nil {
		return r // no-op if there's already an error
	}
	pos, err := resolve(address)
	if err != nil {
		r.err = err
		return r
	}
	r.err = r.sheet.SetCell(pos, text)
	return r
}

// Clear clears a cell (chainable)
func (r *RunnableSheet) Clear(address string) *RunnableSheet {
	if r.err != nil {
		return r // no-op if there's already an error
	}
	pos, err := resolve(address)
	if err != nil {
		r.err = err
		return r
	}
	r.err = r.sheet.ClearCell(pos)
	return r
}

// Error returns the current error state
func (r *RunnableSheet) Error() error {
	return r.err
}

// Reset clears the error state (chainable)
func (r *RunnableSheet) Reset() *RunnableSheet {
	r.err = nil
	return r
}

// Sheet returns the underlying sheet. use with caution as it bypasses
// error tracking.
func (r *RunnableSheet) Sheet() *Sheet {
	return r.sheet
}

// Value is a helper to get a single value from the chain. absent cells
// read as "".
// example: val := NewRunnableSheet(printLn).Set("A1", "10").Set("A2", "=A1*2").Value("A2")
func (r *RunnableSheet) Value(address string) Primitive {
	cell := r.Cell(address)
	if r.err != nil {
		return nil
	}
	if cell == nil {
		return ""
	}
	return cell.Value()
}

// Text is a helper to get a single cell's text from the chain
func (r *RunnableSheet) Text(address string) string {
	cell := r.Cell(address)
	if cell == nil {
		return ""
	}
	return cell.Text()
}

// Log prints "address: value" using the printLn function (chainable).
// absent and empty cells print an empty value.
func (r *RunnableSheet) Log(address string) *RunnableSheet {
	val := r.Value(address)
	if r.err != nil {
		return r
	}
	r.printLn(fmt.Sprintf("%s: %s", address, FormatValue(val)))
	return r
}

// Cell resolves an address to its cell, recording position errors. it
// returns nil both on error and for absent cells.
func (r *RunnableSheet) Cell(address string) *Cell {
	if r.err != nil {
		return nil
	}
	pos, err := resolve(address)
	if err != nil {
		r.err = err
		return nil
	}
	cell, err := r.sheet.GetCell(pos)
	if err != nil {
		r.err = err
		return nil
	}
	return cell
}
