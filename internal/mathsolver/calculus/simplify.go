package calculus

import (
	"github.com/mathservice-vn/platform/app/internal/mathsolver/expr"
)

// Simplify applies constant folding and algebraic identities
// (x*1 = x, x+0 = x, x^1 = x, ...) bottom-up.
func Simplify(node expr.Node) expr.Node {
	return simplifyNode(node)
}

// Render picks the best string form for a result: polynomials render
// densely ("2*x + 3" rather than "1*2*x^1 + 3*1"), constants as plain
// numbers, everything else canonically.
func Render(node expr.Node) string {
	vars := expr.Variables(node)
	if len(vars) == 0 {
		if v, err := node.Eval(nil); err == nil {
			return expr.FormatNumber(v)
		}
	}
	if len(vars) == 1 {
		if coeffs, err := expr.Coefficients(node, vars[0]); err == nil {
			return expr.RenderPolynomial(coeffs, vars[0])
		}
	}
	return node.String()
}

func simplifyNode(node expr.Node) expr.Node {
	switch t := node.(type) {
	case expr.Unary:
		x := simplifyNode(t.X)
		if n, ok := x.(expr.Num); ok {
			return expr.Num{Value: -n.Value}
		}
		return expr.Unary{Op: '-', X: x}

	case expr.Binary:
		l := simplifyNode(t.L)
		r := simplifyNode(t.R)
		return simplifyBinary(t.Op, l, r)

	case expr.Call:
		return expr.Call{Fn: t.Fn, Arg: simplifyNode(t.Arg)}
	}
	return node
}

func simplifyBinary(op byte, l, r expr.Node) expr.Node {
	ln, lNum := l.(expr.Num)
	rn, rNum := r.(expr.Num)

	// Constant folding (division by zero and 0^0 are left unfolded so
	// evaluation reports them).
	if lNum && rNum {
		folded := expr.Binary{Op: op, L: ln, R: rn}
		if v, err := folded.Eval(nil); err == nil {
			return expr.Num{Value: v}
		}
		return folded
	}

	switch op {
	case '+':
		if lNum && ln.Value == 0 {
			return r
		}
		if rNum && rn.Value == 0 {
			return l
		}
	case '-':
		if rNum && rn.Value == 0 {
			return l
		}
		if lNum && ln.Value == 0 {
			return expr.Unary{Op: '-', X: r}
		}
	case '*':
		if lNum && ln.Value == 0 || rNum && rn.Value == 0 {
			return expr.Num{Value: 0}
		}
		if lNum && ln.Value == 1 {
			return r
		}
		if rNum && rn.Value == 1 {
			return l
		}
	case '/':
		if lNum && ln.Value == 0 {
			return expr.Num{Value: 0}
		}
		if rNum && rn.Value == 1 {
			return l
		}
	case '^':
		if rNum && rn.Value == 1 {
			return l
		}
		if rNum && rn.Value == 0 {
			return expr.Num{Value: 1}
		}
	}

	return expr.Binary{Op: op, L: l, R: r}
}
