package formula

import (
	"strconv"

	"github.com/vogtb/go-sheetgraph/packages/cellref"
)

// Parser parses tokens into an AST
type Parser struct {
	tokens []Token
	pos    int
}

// NewParser creates a new parser over a token stream produced by Lexer
func NewParser(tokens []Token) *Parser {
	return &Parser{
		tokens: tokens,
		pos:    0,
	}
}

// Parse parses the tokens into an AST
func (p *Parser) Parse() (ASTNode, error) {
	if len(p.tokens) == 0 || p.tokens[0].Type == TokenEOF {
		return nil, newSyntaxError(0, "empty expression")
	}

	node, err := p.parseAddition()
	if err != nil {
		return nil, err
	}

	if tok := p.current(); tok.Type != TokenEOF {
		return nil, newSyntaxError(tok.Pos, "unexpected token after expression: %s", tok.Value)
	}

	return node, nil
}

func (p *Parser) current() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peekType(offset int) TokenType {
	if p.pos+offset >= len(p.tokens) {
		return TokenEOF
	}
	return p.tokens[p.pos+offset].Type
}

// parseAddition handles addition and subtraction (lowest precedence)
func (p *Parser) parseAddition() (ASTNode, error) {
	left, err := p.parseMultiplication()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.current()
		if tok.Type != TokenBinaryOp {
			break
		}

		var op BinaryOp
		switch tok.Value {
		case "+":
			op = BinOpAdd
		case "-":
			op = BinOpSubtract
		default:
			return left, nil
		}

		p.pos++
		right, err := p.parseMultiplication()
		if err != nil {
			return nil, err
		}

		left = &BinaryOpNode{
			Op:       op,
			Left:     left,
			Right:    right,
			Position: NodePosition{Start: left.GetPosition().Start, End: right.GetPosition().End},
		}
	}

	return left, nil
}

// parseMultiplication handles multiplication and division
func (p *Parser) parseMultiplication() (ASTNode, error) {
	left, err := p.parsePower()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.current()
		if tok.Type != TokenBinaryOp {
			break
		}

		var op BinaryOp
		switch tok.Value {
		case "*":
			op = BinOpMultiply
		case "/":
			op = BinOpDivide
		default:
			return left, nil
		}

		p.pos++
		right, err := p.parsePower()
		if err != nil {
			return nil, err
		}

		left = &BinaryOpNode{
			Op:       op,
			Left:     left,
			Right:    right,
			Position: NodePosition{Start: left.GetPosition().Start, End: right.GetPosition().End},
		}
	}

	return left, nil
}

// parsePower handles exponentiation. the sign binds tighter than ^, so
// -2^2 is (-2)^2.
func (p *Parser) parsePower() (ASTNode, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	// right-associative
	if tok := p.current(); tok.Type == TokenBinaryOp && tok.Value == "^" {
		p.pos++
		right, err := p.parsePower()
		if err != nil {
			return nil, err
		}

		return &BinaryOpNode{
			Op:       BinOpPower,
			Left:     left,
			Right:    right,
			Position: NodePosition{Start: left.GetPosition().Start, End: right.GetPosition().End},
		}, nil
	}

	return left, nil
}

// parseUnary handles unary operators
func (p *Parser) parseUnary() (ASTNode, error) {
	tok := p.current()
	if tok.Type != TokenUnaryPrefixOp {
		return p.parsePrimary()
	}

	op := UnaryOpPlus
	if tok.Value == "-" {
		op = UnaryOpMinus
	}

	p.pos++
	operand, err := p.parseUnary() // recurse for chained unary operators
	if err != nil {
		return nil, err
	}

	return &UnaryOpNode{
		Op:       op,
		Operand:  operand,
		Position: NodePosition{Start: tok.Pos, End: operand.GetPosition().End},
	}, nil
}

// parsePrimary handles literals, references, function calls and
// parenthesized expressions
func (p *Parser) parsePrimary() (ASTNode, error) {
	tok := p.current()

	switch tok.Type {
	case TokenNumber:
		p.pos++
		val, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			return nil, newSyntaxError(tok.Pos, "invalid number: %s", tok.Value)
		}
		return &NumberNode{
			Value:    val,
			Position: NodePosition{Start: tok.Pos, End: tok.Pos + len(tok.Value)},
		}, nil

	case TokenCell:
		p.pos++
		return p.parseCellReference(tok), nil

	case TokenRange:
		return nil, newSyntaxError(tok.Pos, "range %s is only allowed as a function argument", tok.Value)

	case TokenFunction:
		return p.parseFunctionCall()

	case TokenLeftParen:
		p.pos++
		node, err := p.parseAddition()
		if err != nil {
			return nil, err
		}

		if p.current().Type != TokenRightParen {
			return nil, newSyntaxError(p.current().Pos, "expected closing parenthesis")
		}
		p.pos++

		return node, nil

	case TokenEOF:
		return nil, newSyntaxError(tok.Pos, "unexpected end of expression")

	default:
		return nil, newSyntaxError(tok.Pos, "unexpected token: %s", tok.Value)
	}
}

// parseFunctionCall parses a function call and validates its arity
func (p *Parser) parseFunctionCall() (ASTNode, error) {
	funcTok := p.current()
	funcName := funcTok.Value
	startPos := funcTok.Pos
	p.pos++

	if p.current().Type != TokenLeftParen {
		return nil, newSyntaxError(p.current().Pos, "expected '(' after function name")
	}
	p.pos++

	args := []ASTNode{}

	if p.current().Type != TokenRightParen {
		for {
			arg, err := p.parseArgument()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)

			if p.current().Type == TokenRightParen {
				break
			}
			if p.current().Type != TokenComma {
				return nil, newSyntaxError(p.current().Pos, "expected ',' or ')' in function arguments")
			}
			p.pos++
		}
	}

	endTok := p.current()
	p.pos++ // consume ')'

	if err := checkCall(funcName, len(args)); err != nil {
		return nil, newSyntaxError(startPos, "%s", err.Error())
	}

	return &FunctionCallNode{
		Name:     funcName,
		Args:     args,
		Position: NodePosition{Start: startPos, End: endTok.Pos + 1},
	}, nil
}

// parseArgument accepts a bare range when it is the whole argument, and
// falls back to an ordinary expression otherwise
func (p *Parser) parseArgument() (ASTNode, error) {
	tok := p.current()
	if tok.Type == TokenRange {
		next := p.peekType(1)
		if next != TokenComma && next != TokenRightParen {
			return nil, newSyntaxError(tok.Pos, "range %s is only allowed as a function argument", tok.Value)
		}
		p.pos++
		return p.parseRange(tok)
	}
	return p.parseAddition()
}

// parseCellReference turns a cell token into a CellRefNode. references past
// the grid edge are kept by name and evaluate to #REF!
func (p *Parser) parseCellReference(tok Token) ASTNode {
	target, err := cellref.ParsePosition(tok.Value)
	if err != nil {
		target = cellref.None
	}
	return &CellRefNode{
		Name:     tok.Value,
		Target:   target,
		Position: NodePosition{Start: tok.Pos, End: tok.Pos + len(tok.Value)},
	}
}

// parseRange parses a range token into a RangeNode
func (p *Parser) parseRange(tok Token) (ASTNode, error) {
	node := &RangeNode{
		Name:     tok.Value,
		Position: NodePosition{Start: tok.Pos, End: tok.Pos + len(tok.Value)},
	}

	var startText, endText string
	for i := 0; i < len(tok.Value); i++ {
		if tok.Value[i] == charColon {
			startText, endText = tok.Value[:i], tok.Value[i+1:]
			break
		}
	}

	start, startErr := cellref.ParsePosition(startText)
	end, endErr := cellref.ParsePosition(endText)
	if startErr != nil || endErr != nil {
		node.Range = CellRange{Start: cellref.None, End: cellref.None}
		return node, nil
	}

	node.Range = NewCellRange(start, end)
	if node.Range.Area() > MaxRangeCells {
		return nil, newSyntaxError(tok.Pos, "range %s covers more than %d cells", tok.Value, MaxRangeCells)
	}
	return node, nil
}
