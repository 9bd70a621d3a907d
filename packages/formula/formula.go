// Package formula parses and evaluates arithmetic cell expressions: numbers,
// cell references, ranges, + - * / ^, unary signs, parentheses, and a small
// set of built-in functions.
package formula

import (
	"math"
	"strconv"

	"github.com/vogtb/go-sheetgraph/packages/cellref"
)

// Lookup resolves a referenced position to the current value of that cell.
// it returns nil for an empty or missing cell, a string for text, a float64
// for a computed number, or *Error for a formula that failed.
type Lookup func(pos cellref.Position) any

// Formula is a parsed expression. it is immutable and safe to share.
type Formula struct {
	root       ASTNode
	expression string
	references []cellref.Position
}

// Parse lexes and parses an expression (without the leading '='). every
// failure wraps ErrSyntax.
func Parse(expression string) (*Formula, error) {
	tokens, err := NewLexer(expression).Tokenize()
	if err != nil {
		return nil, err
	}

	root, err := NewParser(tokens).Parse()
	if err != nil {
		return nil, err
	}

	f := &Formula{root: root}
	f.expression = root.ToString()

	seen := make(map[cellref.Position]struct{})
	collectReferences(root, func(pos cellref.Position) {
		if _, ok := seen[pos]; ok {
			return
		}
		seen[pos] = struct{}{}
		f.references = append(f.references, pos)
	})

	return f, nil
}

// Evaluate computes the formula against lookup. failures are returned as
// an *Error value; evaluation never panics on bad data.
func (f *Formula) Evaluate(lookup Lookup) (float64, *Error) {
	if lookup == nil {
		lookup = func(cellref.Position) any { return nil }
	}
	return f.root.Eval(lookup)
}

// Expression returns the canonical text of the formula. parsing it again
// yields an identical tree.
func (f *Formula) Expression() string {
	return f.expression
}

// ReferencedPositions returns each in-grid position the formula names once,
// in order of first appearance. references outside the grid are left out.
func (f *Formula) ReferencedPositions() []cellref.Position {
	out := make([]cellref.Position, len(f.references))
	copy(out, f.references)
	return out
}

// Root exposes the parsed tree
func (f *Formula) Root() ASTNode {
	return f.root
}

// ParseNumber reports whether text is entirely a finite decimal number
// literal, with an optional leading sign. surrounding whitespace, hex
// literals, infinities and NaN are rejected.
func ParseNumber(text string) (float64, bool) {
	if text == "" {
		return 0, false
	}
	digits := 0
	for i := 0; i < len(text); i++ {
		ch := text[i]
		switch {
		case ch >= '0' && ch <= '9':
			digits++
		case ch == '.' || ch == 'e' || ch == 'E' || ch == '+' || ch == '-':
		default:
			return 0, false
		}
	}
	if digits == 0 {
		return 0, false
	}

	num, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsInf(num, 0) || math.IsNaN(num) {
		return 0, false
	}
	return num, true
}
