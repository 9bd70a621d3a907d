package formula

import (
	"math"
	"strconv"
	"strings"

	"github.com/vogtb/go-sheetgraph/packages/cellref"
)

type NodePosition struct {
	Start int
	End   int
}

// ASTNode is a node of a parsed expression. the tree is immutable once
// built, so a single Formula can be evaluated any number of times.
type ASTNode interface {
	Eval(lookup Lookup) (float64, *Error)
	GetPosition() NodePosition
	ToString() string
	precedence() int
}

// operator precedence used when printing; higher binds tighter
const (
	precAdditive = iota + 1
	precMultiplicative
	precPower
	precUnary
	precPrimary
)

// NumberNode represents a numeric literal
type NumberNode struct {
	Value    float64
	Position NodePosition
}

func (n *NumberNode) Eval(lookup Lookup) (float64, *Error) {
	return n.Value, nil
}

func (n *NumberNode) GetPosition() NodePosition {
	return n.Position
}

func (n *NumberNode) ToString() string {
	return strconv.FormatFloat(n.Value, 'g', -1, 64)
}

func (n *NumberNode) precedence() int { return precPrimary }

// CellRefNode represents a single cell reference. a reference that names a
// cell outside the grid still parses; it keeps its text and evaluates to
// #REF!.
type CellRefNode struct {
	Name     string
	Target   cellref.Position
	Position NodePosition
}

func (n *CellRefNode) Eval(lookup Lookup) (float64, *Error) {
	if !n.Target.IsValid() {
		return 0, NewError(ErrorCodeRef, "reference outside the grid: "+n.Name)
	}
	return toNumber(lookup(n.Target))
}

func (n *CellRefNode) GetPosition() NodePosition {
	return n.Position
}

func (n *CellRefNode) ToString() string {
	if n.Target.IsValid() {
		return n.Target.String()
	}
	return n.Name
}

func (n *CellRefNode) precedence() int { return precPrimary }

// RangeNode represents a rectangular block of cells. ranges are only valid
// as function arguments.
type RangeNode struct {
	Name     string
	Range    CellRange
	Position NodePosition
}

func (n *RangeNode) Eval(lookup Lookup) (float64, *Error) {
	return 0, NewError(ErrorCodeValue, "range used as a scalar: "+n.Name)
}

func (n *RangeNode) GetPosition() NodePosition {
	return n.Position
}

func (n *RangeNode) ToString() string {
	if n.Range.IsValid() {
		return n.Range.String()
	}
	return n.Name
}

func (n *RangeNode) precedence() int { return precPrimary }

// BinaryOpNode represents a binary arithmetic operation
type BinaryOpNode struct {
	Op       BinaryOp
	Left     ASTNode
	Right    ASTNode
	Position NodePosition
}

func (n *BinaryOpNode) Eval(lookup Lookup) (float64, *Error) {
	left, err := n.Left.Eval(lookup)
	if err != nil {
		return 0, err
	}
	right, err := n.Right.Eval(lookup)
	if err != nil {
		return 0, err
	}

	var result float64
	switch n.Op {
	case BinOpAdd:
		result = left + right
	case BinOpSubtract:
		result = left - right
	case BinOpMultiply:
		result = left * right
	case BinOpDivide:
		if right == 0 {
			return 0, NewError(ErrorCodeArithmetic, "division by zero")
		}
		result = left / right
	case BinOpPower:
		result = math.Pow(left, right)
	default:
		return 0, NewError(ErrorCodeValue, "unknown operator")
	}

	return checkFinite(result)
}

func (n *BinaryOpNode) GetPosition() NodePosition {
	return n.Position
}

func (n *BinaryOpNode) operator() string {
	switch n.Op {
	case BinOpAdd:
		return "+"
	case BinOpSubtract:
		return "-"
	case BinOpMultiply:
		return "*"
	case BinOpDivide:
		return "/"
	case BinOpPower:
		return "^"
	}
	return "?"
}

func (n *BinaryOpNode) precedence() int {
	switch n.Op {
	case BinOpAdd, BinOpSubtract:
		return precAdditive
	case BinOpMultiply, BinOpDivide:
		return precMultiplicative
	default:
		return precPower
	}
}

// ToString prints the minimal parenthesization that parses back into the
// same tree. power is right-associative, everything else left-associative.
func (n *BinaryOpNode) ToString() string {
	prec := n.precedence()

	left := n.Left.ToString()
	leftPrec := n.Left.precedence()
	if leftPrec < prec || (n.Op == BinOpPower && leftPrec == prec) {
		left = "(" + left + ")"
	}

	right := n.Right.ToString()
	rightPrec := n.Right.precedence()
	if rightPrec < prec || (n.Op != BinOpPower && rightPrec == prec) {
		right = "(" + right + ")"
	}

	return left + n.operator() + right
}

// UnaryOpNode represents a unary sign
type UnaryOpNode struct {
	Op       UnaryOp
	Operand  ASTNode
	Position NodePosition
}

func (n *UnaryOpNode) Eval(lookup Lookup) (float64, *Error) {
	val, err := n.Operand.Eval(lookup)
	if err != nil {
		return 0, err
	}
	if n.Op == UnaryOpMinus {
		return -val, nil
	}
	return val, nil
}

func (n *UnaryOpNode) GetPosition() NodePosition {
	return n.Position
}

func (n *UnaryOpNode) ToString() string {
	opStr := "+"
	if n.Op == UnaryOpMinus {
		opStr = "-"
	}
	operand := n.Operand.ToString()
	if n.Operand.precedence() < precUnary {
		operand = "(" + operand + ")"
	}
	return opStr + operand
}

func (n *UnaryOpNode) precedence() int { return precUnary }

// FunctionCallNode represents a call to one of the built-in functions
type FunctionCallNode struct {
	Name     string
	Args     []ASTNode
	Position NodePosition
}

func (n *FunctionCallNode) Eval(lookup Lookup) (float64, *Error) {
	fn, ok := builtins[n.Name]
	if !ok {
		return 0, NewError(ErrorCodeValue, "unknown function: "+n.Name)
	}
	result, err := fn.call(n.Args, lookup)
	if err != nil {
		return 0, err
	}
	return checkFinite(result)
}

func (n *FunctionCallNode) GetPosition() NodePosition {
	return n.Position
}

func (n *FunctionCallNode) ToString() string {
	args := make([]string, len(n.Args))
	for i, arg := range n.Args {
		args[i] = arg.ToString()
	}
	return n.Name + "(" + strings.Join(args, ",") + ")"
}

func (n *FunctionCallNode) precedence() int { return precPrimary }

func checkFinite(v float64) (float64, *Error) {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, NewError(ErrorCodeArithmetic, "result is not a finite number")
	}
	return v, nil
}

// collectReferences walks the tree and reports every in-grid position it
// names, ranges expanded cell by cell
func collectReferences(node ASTNode, visit func(pos cellref.Position)) {
	switch n := node.(type) {
	case *CellRefNode:
		if n.Target.IsValid() {
			visit(n.Target)
		}
	case *RangeNode:
		if n.Range.IsValid() {
			for pos := range n.Range.Iterate() {
				visit(pos)
			}
		}
	case *BinaryOpNode:
		collectReferences(n.Left, visit)
		collectReferences(n.Right, visit)
	case *UnaryOpNode:
		collectReferences(n.Operand, visit)
	case *FunctionCallNode:
		for _, arg := range n.Args {
			collectReferences(arg, visit)
		}
	}
}
