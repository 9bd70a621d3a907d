// Package cellref holds the grid coordinate value types shared by the formula
// engine and the sheet: zero-based positions, sizes, and A1 notation.
package cellref

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	MaxRows = 16384
	MaxCols = 16384

	maxColLetters = 3
	maxRowDigits  = 5
	lettersCount  = 26
)

// ErrInvalidPosition is returned when text does not name a cell inside the
// supported grid.
var ErrInvalidPosition = errors.New("invalid position")

// Position is a zero-based (row, col) pair
type Position struct {
	Row int
	Col int
}

// Size is a row/column count
type Size struct {
	Rows int
	Cols int
}

// None is the position returned by failed parses. it is never valid.
var None = Position{Row: -1, Col: -1}

// IsValid reports whether both components lie inside the grid bounds
func (p Position) IsValid() bool {
	return p.Row >= 0 && p.Col >= 0 && p.Row < MaxRows && p.Col < MaxCols
}

// String renders the position in A1 notation. invalid positions render
// as an empty string.
func (p Position) String() string {
	if !p.IsValid() {
		return ""
	}
	return ColumnName(p.Col) + strconv.Itoa(p.Row+1)
}

// Less orders positions row-major: by row, then by column
func Less(a, b Position) bool {
	if a.Row != b.Row {
		return a.Row < b.Row
	}
	return a.Col < b.Col
}

// Compare is the three-way form of Less, suitable for slices.SortFunc
func Compare(a, b Position) int {
	switch {
	case Less(a, b):
		return -1
	case Less(b, a):
		return 1
	default:
		return 0
	}
}

// ColumnName converts a zero-based column index into letters (0 -> A,
// 25 -> Z, 26 -> AA)
func ColumnName(col int) string {
	if col < 0 {
		return ""
	}
	var buf [8]byte
	i := len(buf)
	for n := col + 1; n > 0; n = (n - 1) / lettersCount {
		i--
		buf[i] = byte('A' + (n-1)%lettersCount)
	}
	return string(buf[i:])
}

// ParsePosition parses A1 notation ("B12") into a Position. only upper-case
// column letters are accepted, matching what the formula lexer produces.
func ParsePosition(s string) (Position, error) {
	letterEnd := 0
	for letterEnd < len(s) && s[letterEnd] >= 'A' && s[letterEnd] <= 'Z' {
		letterEnd++
	}
	digits := s[letterEnd:]

	// leading zeros do not count towards the row digit limit
	significant := strings.TrimLeft(digits, "0")
	if letterEnd == 0 || letterEnd > maxColLetters || len(digits) == 0 || len(significant) > maxRowDigits {
		return None, fmt.Errorf("%w: %q", ErrInvalidPosition, s)
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return None, fmt.Errorf("%w: %q", ErrInvalidPosition, s)
		}
	}

	col := 0
	for i := 0; i < letterEnd; i++ {
		col = col*lettersCount + int(s[i]-'A') + 1
	}
	row, err := strconv.Atoi(digits)
	if err != nil {
		return None, fmt.Errorf("%w: %q", ErrInvalidPosition, s)
	}

	pos := Position{Row: row - 1, Col: col - 1}
	if !pos.IsValid() {
		return None, fmt.Errorf("%w: %q out of range", ErrInvalidPosition, s)
	}
	return pos, nil
}

// MustParse is ParsePosition for literals known to be valid. it panics on
// malformed input.
func MustParse(s string) Position {
	pos, err := ParsePosition(strings.TrimSpace(s))
	if err != nil {
		panic(err)
	}
	return pos
}
