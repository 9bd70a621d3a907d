package formula

import "strings"

// TokenType represents different types of tokens in formulas
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenNumber
	TokenCell
	TokenRange
	TokenFunction
	TokenUnaryPrefixOp
	TokenBinaryOp
	TokenComma
	TokenLeftParen
	TokenRightParen
	TokenError
)

// BinaryOp represents binary operators in AST nodes
type BinaryOp int

const (
	BinOpAdd BinaryOp = iota
	BinOpSubtract
	BinOpMultiply
	BinOpDivide
	BinOpPower
)

// UnaryOp represents unary operators in AST nodes
type UnaryOp int

const (
	UnaryOpPlus UnaryOp = iota
	UnaryOpMinus
)

// character classification constants. slightly easier to read.
const (
	charNull       = 0
	charTab        = '\t'
	charNewline    = '\n'
	charReturn     = '\r'
	charSpace      = ' '
	charLParen     = '('
	charRParen     = ')'
	charAsterisk   = '*'
	charPlus       = '+'
	charComma      = ','
	charMinus      = '-'
	charPeriod     = '.'
	charSlash      = '/'
	charColon      = ':'
	charCaret      = '^'
	charUnderscore = '_'
)

// TokenState represents the lexer state for validation
type TokenState int

const (
	StateStart TokenState = iota
	StateAfterValue
	StateAfterOperator
	StateAfterLeftParen
	StateAfterRightParen
	StateAfterComma
	StateAfterFunction
)

// tokenTransitions maps the current state to valid next token types
var tokenTransitions = map[TokenState]map[TokenType]bool{
	StateStart: {
		TokenUnaryPrefixOp: true,
		TokenNumber:        true,
		TokenCell:          true,
		TokenFunction:      true,
		TokenLeftParen:     true,
	},
	StateAfterValue: { // after number, cell, range
		TokenBinaryOp:   true,
		TokenRightParen: true,
		TokenComma:      true, // only if in function
	},
	StateAfterOperator: {
		TokenNumber:        true,
		TokenCell:          true,
		TokenFunction:      true,
		TokenLeftParen:     true,
		TokenUnaryPrefixOp: true,
	},
	StateAfterLeftParen: {
		TokenNumber:        true,
		TokenCell:          true,
		TokenRange:         true, // ranges are function arguments
		TokenFunction:      true,
		TokenLeftParen:     true,
		TokenUnaryPrefixOp: true,
		TokenRightParen:    true, // empty parens for arg-less functions like PI()
	},
	StateAfterRightParen: {
		TokenBinaryOp:   true,
		TokenRightParen: true,
		TokenComma:      true,
	},
	StateAfterComma: {
		TokenNumber:        true,
		TokenCell:          true,
		TokenRange:         true,
		TokenFunction:      true,
		TokenLeftParen:     true,
		TokenUnaryPrefixOp: true,
	},
	StateAfterFunction: {
		TokenLeftParen: true,
	},
}

// Token represents a lexical token with position information
type Token struct {
	Type  TokenType
	Value string
	Pos   int // rune position in input
}

// Lexer tokenizes formula expressions (the text after the leading '=')
type Lexer struct {
	runes      []rune
	pos        int
	state      TokenState
	parenDepth int
	tokens     []Token
}

// NewLexer creates a new lexer for the given expression
func NewLexer(input string) *Lexer {
	return &Lexer{
		runes:  []rune(input),
		state:  StateStart,
		tokens: []Token{},
	}
}

// Tokenize tokenizes the entire input. the returned slice always ends with
// an EOF token when err is nil.
func (l *Lexer) Tokenize() ([]Token, error) {
	for {
		l.skipWhitespace()
		if l.pos >= len(l.runes) {
			break
		}

		tok := l.nextToken()
		if tok.Type == TokenError {
			return nil, newSyntaxError(tok.Pos, "%s", tok.Value)
		}
		if !l.validateTransition(tok.Type) {
			return nil, newSyntaxError(tok.Pos, "unexpected token: %s", tok.Value)
		}
		l.tokens = append(l.tokens, tok)
		l.updateState(tok.Type)
	}

	if len(l.tokens) == 0 {
		return nil, newSyntaxError(0, "empty expression")
	}
	if l.parenDepth > 0 {
		return nil, newSyntaxError(l.pos, "unbalanced parentheses: missing closing parenthesis")
	}

	l.tokens = append(l.tokens, Token{Type: TokenEOF, Pos: l.pos})
	return l.tokens, nil
}

// validateTransition checks if the token type is valid in current state
func (l *Lexer) validateTransition(tokenType TokenType) bool {
	validTokens, exists := tokenTransitions[l.state]
	if !exists {
		return false
	}
	return validTokens[tokenType]
}

// updateState updates the lexer state based on the token type
func (l *Lexer) updateState(tokenType TokenType) {
	switch tokenType {
	case TokenNumber, TokenCell, TokenRange:
		l.state = StateAfterValue
	case TokenUnaryPrefixOp, TokenBinaryOp:
		l.state = StateAfterOperator
	case TokenLeftParen:
		l.state = StateAfterLeftParen
	case TokenRightParen:
		l.state = StateAfterRightParen
	case TokenComma:
		l.state = StateAfterComma
	case TokenFunction:
		l.state = StateAfterFunction
	}
}

// nextToken returns the next token from the input
func (l *Lexer) nextToken() Token {
	startPos := l.pos
	ch := l.current()

	if isDigit(ch) || (ch == charPeriod && isDigit(l.peek(1))) {
		return l.scanNumber()
	}

	switch ch {
	case charLParen:
		l.pos++
		l.parenDepth++
		return Token{Type: TokenLeftParen, Value: "(", Pos: startPos}
	case charRParen:
		l.pos++
		l.parenDepth--
		if l.parenDepth < 0 {
			return Token{Type: TokenError, Value: "unexpected closing parenthesis", Pos: startPos}
		}
		return Token{Type: TokenRightParen, Value: ")", Pos: startPos}
	case charComma:
		l.pos++
		return Token{Type: TokenComma, Value: ",", Pos: startPos}
	case charPlus, charMinus:
		return l.scanUnaryPrefixOrBinaryOp()
	case charAsterisk, charSlash, charCaret:
		l.pos++
		return Token{Type: TokenBinaryOp, Value: string(ch), Pos: startPos}
	}

	if isAlpha(ch) || ch == charUnderscore {
		return l.scanIdentifierOrCell()
	}

	l.pos++
	return Token{Type: TokenError, Value: "unexpected character: " + string(ch), Pos: startPos}
}

// helper methods for character navigation and classification

func (l *Lexer) substring(start, end int) string {
	if start < 0 || end > len(l.runes) || start > end {
		return ""
	}
	return string(l.runes[start:end])
}

func (l *Lexer) current() rune {
	if l.pos >= len(l.runes) {
		return charNull
	}
	return l.runes[l.pos]
}

func (l *Lexer) peek(offset int) rune {
	pos := l.pos + offset
	if pos >= len(l.runes) || pos < 0 {
		return charNull
	}
	return l.runes[pos]
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.runes) {
		ch := l.current()
		if ch == charSpace || ch == charTab || ch == charNewline || ch == charReturn {
			l.pos++
		} else {
			break
		}
	}
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isAlpha(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isAlphaNumeric(ch rune) bool {
	return isAlpha(ch) || isDigit(ch)
}

// scanNumber scans a number token including decimals and scientific notation
func (l *Lexer) scanNumber() Token {
	startPos := l.pos

	for isDigit(l.current()) {
		l.pos++
	}

	if l.current() == charPeriod && isDigit(l.peek(1)) {
		l.pos++ // consume '.'
		for isDigit(l.current()) {
			l.pos++
		}
	}

	if l.current() == 'e' || l.current() == 'E' {
		savedPos := l.pos
		l.pos++

		if l.current() == charPlus || l.current() == charMinus {
			l.pos++
		}

		// must have at least one digit after e/E
		if !isDigit(l.current()) {
			l.pos = savedPos
		} else {
			for isDigit(l.current()) {
				l.pos++
			}
		}
	}

	return Token{Type: TokenNumber, Value: l.substring(startPos, l.pos), Pos: startPos}
}

// scanIdentifierOrCell scans function names, cells and ranges
func (l *Lexer) scanIdentifierOrCell() Token {
	startPos := l.pos

	for isAlphaNumeric(l.current()) || l.current() == charUnderscore {
		l.pos++
	}

	value := l.substring(startPos, l.pos)

	if isCell(value) {
		if l.current() == charColon {
			savedPos := l.pos
			l.pos++ // consume ':'

			cellStart := l.pos
			for isAlphaNumeric(l.current()) {
				l.pos++
			}

			if isCell(l.substring(cellStart, l.pos)) {
				return Token{Type: TokenRange, Value: l.substring(startPos, l.pos), Pos: startPos}
			}
			// not a valid range, leave the ':' for the next token
			l.pos = savedPos
		}
		return Token{Type: TokenCell, Value: value, Pos: startPos}
	}

	if l.current() == charLParen {
		return Token{Type: TokenFunction, Value: strings.ToUpper(value), Pos: startPos}
	}

	return Token{Type: TokenError, Value: "unknown identifier: " + value, Pos: startPos}
}

// isCell checks if a string is shaped like a cell reference: upper-case
// letters followed by digits. bounds are checked by the parser.
func isCell(s string) bool {
	letterEnd := 0
	for letterEnd < len(s) && s[letterEnd] >= 'A' && s[letterEnd] <= 'Z' {
		letterEnd++
	}

	if letterEnd == 0 || letterEnd == len(s) {
		return false
	}

	for i := letterEnd; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	return true
}

// scanUnaryPrefixOrBinaryOp scans + and - which can be either unary
// prefix or binary
func (l *Lexer) scanUnaryPrefixOrBinaryOp() Token {
	startPos := l.pos
	ch := l.current()
	l.pos++

	if l.isUnaryContext() {
		return Token{Type: TokenUnaryPrefixOp, Value: string(ch), Pos: startPos}
	}
	return Token{Type: TokenBinaryOp, Value: string(ch), Pos: startPos}
}

// isUnaryContext checks if the current context allows for unary operators
func (l *Lexer) isUnaryContext() bool {
	switch l.state {
	case StateStart, StateAfterOperator, StateAfterLeftParen, StateAfterComma:
		return true
	default:
		return false
	}
}
