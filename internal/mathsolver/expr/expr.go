// Package expr implements the expression language shared by the solver
// engines: a recursive-descent parser over + - * / ^ ( ), numbers,
// single-letter variables and the functions sin, cos, tan, exp, log and
// sqrt, plus evaluation and canonical rendering of the resulting AST.
package expr

import (
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Node is an expression tree node.
type Node interface {
	// Eval computes the value of the expression with the given
	// variable bindings.
	Eval(vars map[string]float64) (float64, error)

	// String renders the expression canonically, with explicit "*"
	// and "^" operators.
	String() string

	precedence() int
}

type Num struct {
	Value float64
}

type Var struct {
	Name string
}

type Unary struct {
	Op byte // '-'
	X  Node
}

type Binary struct {
	Op byte // one of + - * / ^
	L  Node
	R  Node
}

type Call struct {
	Fn  string
	Arg Node
}

func (n Num) Eval(map[string]float64) (float64, error) { return n.Value, nil }

func (v Var) Eval(vars map[string]float64) (float64, error) {
	val, ok := vars[v.Name]
	if !ok {
		return 0, fmt.Errorf("unbound variable %q", v.Name)
	}
	return val, nil
}

func (u Unary) Eval(vars map[string]float64) (float64, error) {
	x, err := u.X.Eval(vars)
	if err != nil {
		return 0, err
	}
	return -x, nil
}

func (b Binary) Eval(vars map[string]float64) (float64, error) {
	l, err := b.L.Eval(vars)
	if err != nil {
		return 0, err
	}
	r, err := b.R.Eval(vars)
	if err != nil {
		return 0, err
	}
	switch b.Op {
	case '+':
		return l + r, nil
	case '-':
		return l - r, nil
	case '*':
		return l * r, nil
	case '/':
		if r == 0 {
			return 0, fmt.Errorf("division by zero")
		}
		return l / r, nil
	case '^':
		return math.Pow(l, r), nil
	}
	return 0, fmt.Errorf("unknown operator %q", string(b.Op))
}

func (c Call) Eval(vars map[string]float64) (float64, error) {
	arg, err := c.Arg.Eval(vars)
	if err != nil {
		return 0, err
	}
	switch c.Fn {
	case "sin":
		return math.Sin(arg), nil
	case "cos":
		return math.Cos(arg), nil
	case "tan":
		return math.Tan(arg), nil
	case "exp":
		return math.Exp(arg), nil
	case "log":
		if arg <= 0 {
			return 0, fmt.Errorf("log of non-positive value")
		}
		return math.Log(arg), nil
	case "sqrt":
		if arg < 0 {
			return 0, fmt.Errorf("sqrt of negative value")
		}
		return math.Sqrt(arg), nil
	}
	return 0, fmt.Errorf("unknown function %q", c.Fn)
}

// precedence levels used for parenthesization when rendering.
func (Num) precedence() int    { return 5 }
func (Var) precedence() int    { return 5 }
func (Call) precedence() int   { return 5 }
func (Unary) precedence() int  { return 2 }
func (b Binary) precedence() int {
	switch b.Op {
	case '+', '-':
		return 1
	case '*', '/':
		return 3
	case '^':
		return 4
	}
	return 0
}

func (n Num) String() string {
	if n.Value < 0 {
		return "-" + FormatNumber(-n.Value)
	}
	return FormatNumber(n.Value)
}

func (v Var) String() string { return v.Name }

func (u Unary) String() string {
	inner := u.X.String()
	if u.X.precedence() < u.precedence() {
		inner = "(" + inner + ")"
	}
	return "-" + inner
}

func (b Binary) String() string {
	l := b.L.String()
	r := b.R.String()
	prec := b.precedence()
	if b.L.precedence() < prec {
		l = "(" + l + ")"
	}
	// Subtraction, division and exponentiation are not associative on
	// the right, so equal-precedence right operands need parens too.
	rightPrec := b.R.precedence()
	if rightPrec < prec || (rightPrec == prec && (b.Op == '-' || b.Op == '/' || b.Op == '^')) {
		r = "(" + r + ")"
	}
	return l + " " + string(b.Op) + " " + r
}

func (c Call) String() string {
	return c.Fn + "(" + c.Arg.String() + ")"
}

// Variables returns the sorted set of variable names used in the expression.
func Variables(n Node) []string {
	seen := map[string]bool{}
	collectVariables(n, seen)

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func collectVariables(n Node, seen map[string]bool) {
	switch t := n.(type) {
	case Var:
		seen[t.Name] = true
	case Unary:
		collectVariables(t.X, seen)
	case Binary:
		collectVariables(t.L, seen)
		collectVariables(t.R, seen)
	case Call:
		collectVariables(t.Arg, seen)
	}
}

// FormatNumber renders a float without trailing zeros ("2", "2.5",
// "0.3333333333333333").
func FormatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

// FormatRounded rounds to the given decimal places and trims trailing zeros.
func FormatRounded(v float64, places int) string {
	return FormatNumber(Round(v, places))
}
