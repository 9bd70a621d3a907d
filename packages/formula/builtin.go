package formula

import (
	"fmt"
	"math"
	"slices"
	"sort"
)

// builtin describes one built-in function. aggregates fold every numeric
// value of their arguments (ranges included); scalar functions take
// exactly one number per argument.
type builtin struct {
	minArgs   int
	maxArgs   int // -1 means variadic
	aggregate bool
	reduce    func(nums []float64) (float64, *Error)
	scalar    func(args []float64) (float64, *Error)
}

var builtins = map[string]builtin{
	"SUM":     {minArgs: 1, maxArgs: -1, aggregate: true, reduce: sumOf},
	"AVERAGE": {minArgs: 1, maxArgs: -1, aggregate: true, reduce: averageOf},
	"MIN":     {minArgs: 1, maxArgs: -1, aggregate: true, reduce: minOf},
	"MAX":     {minArgs: 1, maxArgs: -1, aggregate: true, reduce: maxOf},
	"COUNT":   {minArgs: 1, maxArgs: -1, aggregate: true, reduce: countOf},
	"ABS":     {minArgs: 1, maxArgs: 1, scalar: absOf},
	"ROUND":   {minArgs: 1, maxArgs: 2, scalar: roundOf},
	"SQRT":    {minArgs: 1, maxArgs: 1, scalar: sqrtOf},
	"POWER":   {minArgs: 2, maxArgs: 2, scalar: powerOf},
	"MOD":     {minArgs: 2, maxArgs: 2, scalar: modOf},
	"PI":      {minArgs: 0, maxArgs: 0, scalar: piOf},
}

// FunctionNames lists the supported built-in functions in sorted order
func FunctionNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// checkCall validates a function name and argument count at parse time
func checkCall(name string, argc int) error {
	fn, ok := builtins[name]
	if !ok {
		return fmt.Errorf("unknown function: %s", name)
	}
	if argc < fn.minArgs || (fn.maxArgs >= 0 && argc > fn.maxArgs) {
		switch {
		case fn.maxArgs < 0:
			return fmt.Errorf("%s requires at least %d argument(s), got %d", name, fn.minArgs, argc)
		case fn.minArgs == fn.maxArgs:
			return fmt.Errorf("%s requires exactly %d argument(s), got %d", name, fn.minArgs, argc)
		default:
			return fmt.Errorf("%s requires %d to %d arguments, got %d", name, fn.minArgs, fn.maxArgs, argc)
		}
	}
	return nil
}

func (fn builtin) call(args []ASTNode, lookup Lookup) (float64, *Error) {
	if fn.aggregate {
		nums, err := gatherNumbers(args, lookup)
		if err != nil {
			return 0, err
		}
		return fn.reduce(nums)
	}

	values := make([]float64, len(args))
	for i, arg := range args {
		if _, ok := arg.(*RangeNode); ok {
			return 0, NewError(ErrorCodeValue, "function expects a single value, got a range")
		}
		v, err := arg.Eval(lookup)
		if err != nil {
			return 0, err
		}
		values[i] = v
	}
	return fn.scalar(values)
}

// gatherNumbers flattens aggregate arguments. ranges and bare cell
// references skip empty and non-numeric text; any other expression must
// evaluate to a number. errors always propagate.
func gatherNumbers(args []ASTNode, lookup Lookup) ([]float64, *Error) {
	var nums []float64

	collect := func(r CellRange) *Error {
		for v := range r.IterateValues(lookup) {
			num, ok, err := rangeNumber(v)
			if err != nil {
				return err
			}
			if ok {
				nums = append(nums, num)
			}
		}
		return nil
	}

	for _, arg := range args {
		switch n := arg.(type) {
		case *RangeNode:
			if !n.Range.IsValid() {
				return nil, NewError(ErrorCodeRef, "range outside the grid: "+n.Name)
			}
			if err := collect(n.Range); err != nil {
				return nil, err
			}
		case *CellRefNode:
			if !n.Target.IsValid() {
				return nil, NewError(ErrorCodeRef, "reference outside the grid: "+n.Name)
			}
			if err := collect(NewCellRange(n.Target, n.Target)); err != nil {
				return nil, err
			}
		default:
			v, err := arg.Eval(lookup)
			if err != nil {
				return nil, err
			}
			nums = append(nums, v)
		}
	}

	return nums, nil
}

func sumOf(nums []float64) (float64, *Error) {
	sum := 0.0
	for _, n := range nums {
		sum += n
	}
	return sum, nil
}

func averageOf(nums []float64) (float64, *Error) {
	if len(nums) == 0 {
		return 0, NewError(ErrorCodeArithmetic, "AVERAGE of no numbers")
	}
	sum, _ := sumOf(nums)
	return sum / float64(len(nums)), nil
}

func minOf(nums []float64) (float64, *Error) {
	if len(nums) == 0 {
		return 0, nil
	}
	return slices.Min(nums), nil
}

func maxOf(nums []float64) (float64, *Error) {
	if len(nums) == 0 {
		return 0, nil
	}
	return slices.Max(nums), nil
}

func countOf(nums []float64) (float64, *Error) {
	return float64(len(nums)), nil
}

func absOf(args []float64) (float64, *Error) {
	return math.Abs(args[0]), nil
}

func roundOf(args []float64) (float64, *Error) {
	places := 0.0
	if len(args) == 2 {
		places = math.Trunc(args[1])
	}
	multiplier := math.Pow(10, places)
	return math.Round(args[0]*multiplier) / multiplier, nil
}

func sqrtOf(args []float64) (float64, *Error) {
	if args[0] < 0 {
		return 0, NewError(ErrorCodeArithmetic, "SQRT of a negative number")
	}
	return math.Sqrt(args[0]), nil
}

func powerOf(args []float64) (float64, *Error) {
	return math.Pow(args[0], args[1]), nil
}

// modOf follows spreadsheet semantics: the result takes the divisor's sign
func modOf(args []float64) (float64, *Error) {
	dividend, divisor := args[0], args[1]
	if divisor == 0 {
		return 0, NewError(ErrorCodeArithmetic, "division by zero")
	}
	return dividend - divisor*math.Floor(dividend/divisor), nil
}

func piOf(args []float64) (float64, *Error) {
	return math.Pi, nil
}

// toNumber coerces a looked-up cell value for arithmetic. empty cells and
// empty text count as zero, text must be a complete number literal.
func toNumber(value any) (float64, *Error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case float64:
		return v, nil
	case string:
		if v == "" {
			return 0, nil
		}
		if num, ok := ParseNumber(v); ok {
			return num, nil
		}
		return 0, NewError(ErrorCodeValue, fmt.Sprintf("text is not a number: %q", v))
	case *Error:
		return 0, v
	default:
		return 0, NewError(ErrorCodeValue, fmt.Sprintf("unsupported value %T", value))
	}
}

// rangeNumber classifies a value met while scanning a range: numbers (and
// numeric text) are kept, blanks and other text are skipped
func rangeNumber(value any) (float64, bool, *Error) {
	switch v := value.(type) {
	case float64:
		return v, true, nil
	case string:
		num, ok := ParseNumber(v)
		return num, ok, nil
	case *Error:
		return 0, false, v
	default:
		return 0, false, nil
	}
}
