// Package calculus computes symbolic derivatives, integrals and limits
// over the expression language in internal/mathsolver/expr.
package calculus

import (
	"fmt"

	"github.com/mathservice-vn/platform/app/internal/mathsolver/expr"
)

// DerivativeResult carries the simplified derivative, the worked steps
// and the primary differentiation rule that was applied.
type DerivativeResult struct {
	Derivative string
	Steps      []string
	Rule       string
}

// Differentiate computes d/d<variable> of the expression.
func Differentiate(expression, variable string) (*DerivativeResult, error) {
	node, err := expr.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("Invalid expression syntax: %s", err.Error())
	}

	steps := []string{fmt.Sprintf("Find the derivative of: f(%s) = %s", variable, node.String())}

	derivative, ruleSteps, err := diff(node, variable)
	if err != nil {
		return nil, err
	}
	steps = append(steps, ruleSteps...)

	rendered := Render(Simplify(derivative))
	steps = append(steps, fmt.Sprintf("Therefore: f'(%s) = %s", variable, rendered))

	return &DerivativeResult{
		Derivative: rendered,
		Steps:      steps,
		Rule:       classifyRule(node, variable),
	}, nil
}

// diff returns the derivative tree plus human-readable steps for the
// rules applied at this level.
func diff(node expr.Node, variable string) (expr.Node, []string, error) {
	switch t := node.(type) {
	case expr.Num:
		return expr.Num{Value: 0}, []string{fmt.Sprintf("d/d%s(%s) = 0", variable, t.String())}, nil

	case expr.Var:
		if t.Name == variable {
			return expr.Num{Value: 1}, nil, nil
		}
		return expr.Num{Value: 0}, []string{fmt.Sprintf("d/d%s(%s) = 0", variable, t.Name)}, nil

	case expr.Unary:
		inner, steps, err := diff(t.X, variable)
		if err != nil {
			return nil, nil, err
		}
		return expr.Unary{Op: '-', X: inner}, steps, nil

	case expr.Binary:
		return diffBinary(t, variable)

	case expr.Call:
		return diffCall(t, variable)
	}

	return nil, nil, fmt.Errorf("unsupported expression node")
}

func diffBinary(b expr.Binary, variable string) (expr.Node, []string, error) {
	switch b.Op {
	case '+', '-':
		l, lSteps, err := diff(b.L, variable)
		if err != nil {
			return nil, nil, err
		}
		r, rSteps, err := diff(b.R, variable)
		if err != nil {
			return nil, nil, err
		}
		return expr.Binary{Op: b.Op, L: l, R: r}, append(lSteps, rSteps...), nil

	case '*':
		if isConstant(b.L, variable) {
			r, steps, err := diff(b.R, variable)
			if err != nil {
				return nil, nil, err
			}
			steps = append(steps, powerRuleStep(b, variable))
			return expr.Binary{Op: '*', L: b.L, R: r}, steps, nil
		}
		if isConstant(b.R, variable) {
			l, steps, err := diff(b.L, variable)
			if err != nil {
				return nil, nil, err
			}
			return expr.Binary{Op: '*', L: l, R: b.R}, steps, nil
		}

		u, v := b.L, b.R
		du, _, err := diff(u, variable)
		if err != nil {
			return nil, nil, err
		}
		dv, _, err := diff(v, variable)
		if err != nil {
			return nil, nil, err
		}
		steps := []string{
			"Apply the product rule: (uv)' = u'v + uv'",
			fmt.Sprintf("u = %s, u' = %s", u.String(), Render(Simplify(du))),
			fmt.Sprintf("v = %s, v' = %s", v.String(), Render(Simplify(dv))),
		}
		result := expr.Binary{
			Op: '+',
			L:  expr.Binary{Op: '*', L: du, R: v},
			R:  expr.Binary{Op: '*', L: u, R: dv},
		}
		return result, steps, nil

	case '/':
		if isConstant(b.R, variable) {
			l, steps, err := diff(b.L, variable)
			if err != nil {
				return nil, nil, err
			}
			return expr.Binary{Op: '/', L: l, R: b.R}, steps, nil
		}

		u, v := b.L, b.R
		du, _, err := diff(u, variable)
		if err != nil {
			return nil, nil, err
		}
		dv, _, err := diff(v, variable)
		if err != nil {
			return nil, nil, err
		}
		steps := []string{
			"Apply the quotient rule: (u/v)' = (u'v - uv') / v²",
			fmt.Sprintf("u = %s, u' = %s", u.String(), Render(Simplify(du))),
			fmt.Sprintf("v = %s, v' = %s", v.String(), Render(Simplify(dv))),
		}
		result := expr.Binary{
			Op: '/',
			L: expr.Binary{
				Op: '-',
				L:  expr.Binary{Op: '*', L: du, R: v},
				R:  expr.Binary{Op: '*', L: u, R: dv},
			},
			R: expr.Binary{Op: '^', L: v, R: expr.Num{Value: 2}},
		}
		return result, steps, nil

	case '^':
		exp, ok := b.R.(expr.Num)
		if !ok {
			return nil, nil, fmt.Errorf("unsupported derivative: variable exponent in %s", b.String())
		}
		// d/dx(g^n) = n * g^(n-1) * g' (chain rule; g' = 1 for g = x).
		dBase, _, err := diff(b.L, variable)
		if err != nil {
			return nil, nil, err
		}
		powered := expr.Binary{Op: '^', L: b.L, R: expr.Num{Value: exp.Value - 1}}
		result := expr.Binary{
			Op: '*',
			L:  expr.Binary{Op: '*', L: expr.Num{Value: exp.Value}, R: powered},
			R:  dBase,
		}
		steps := []string{powerRuleStep(b, variable)}
		if !isVariable(b.L, variable) {
			steps = append([]string{"Apply the chain rule: f(g(x))' = f'(g(x)) * g'(x)"}, steps...)
		}
		return result, steps, nil
	}

	return nil, nil, fmt.Errorf("unknown operator %q", string(b.Op))
}

func diffCall(c expr.Call, variable string) (expr.Node, []string, error) {
	dArg, _, err := diff(c.Arg, variable)
	if err != nil {
		return nil, nil, err
	}

	var outer expr.Node
	switch c.Fn {
	case "sin":
		outer = expr.Call{Fn: "cos", Arg: c.Arg}
	case "cos":
		outer = expr.Unary{Op: '-', X: expr.Call{Fn: "sin", Arg: c.Arg}}
	case "tan":
		outer = expr.Binary{
			Op: '/',
			L:  expr.Num{Value: 1},
			R:  expr.Binary{Op: '^', L: expr.Call{Fn: "cos", Arg: c.Arg}, R: expr.Num{Value: 2}},
		}
	case "exp":
		outer = expr.Call{Fn: "exp", Arg: c.Arg}
	case "log":
		outer = expr.Binary{Op: '/', L: expr.Num{Value: 1}, R: c.Arg}
	case "sqrt":
		outer = expr.Binary{
			Op: '/',
			L:  expr.Num{Value: 1},
			R:  expr.Binary{Op: '*', L: expr.Num{Value: 2}, R: expr.Call{Fn: "sqrt", Arg: c.Arg}},
		}
	default:
		return nil, nil, fmt.Errorf("unsupported derivative of %q", c.Fn)
	}

	var steps []string
	if !isVariable(c.Arg, variable) {
		steps = append(steps, "Apply the chain rule: f(g(x))' = f'(g(x)) * g'(x)")
	}
	steps = append(steps, fmt.Sprintf("d/d%s(%s) = %s", variable, c.String(),
		Render(Simplify(expr.Binary{Op: '*', L: outer, R: dArg}))))

	return expr.Binary{Op: '*', L: outer, R: dArg}, steps, nil
}

// powerRuleStep renders the per-term power rule explanation for a term
// of the form c*x^n (or x^n).
func powerRuleStep(node expr.Node, variable string) string {
	coeffs, err := expr.Coefficients(node, variable)
	if err != nil {
		return fmt.Sprintf("Differentiate %s term by term", node.String())
	}
	n := coeffs.Degree()
	c := coeffs.Coefficient(n)
	if n == 0 {
		return fmt.Sprintf("d/d%s(%s) = 0", variable, expr.FormatNumber(c))
	}
	return fmt.Sprintf("d/d%s(%s*%s^%s) = %s*%s*%s^%s",
		variable,
		expr.FormatNumber(c), variable, expr.FormatNumber(float64(n)),
		expr.FormatNumber(c), expr.FormatNumber(float64(n)), variable, expr.FormatNumber(float64(n-1)))
}

func isConstant(node expr.Node, variable string) bool {
	for _, name := range expr.Variables(node) {
		if name == variable {
			return false
		}
	}
	return true
}

func isVariable(node expr.Node, variable string) bool {
	v, ok := node.(expr.Var)
	return ok && v.Name == variable
}

// classifyRule reports the primary rule for the whole expression.
func classifyRule(node expr.Node, variable string) string {
	if _, err := expr.Coefficients(node, variable); err == nil {
		return "power_rule"
	}
	switch t := node.(type) {
	case expr.Binary:
		switch t.Op {
		case '*':
			if !isConstant(t.L, variable) && !isConstant(t.R, variable) {
				return "product_rule"
			}
		case '/':
			if !isConstant(t.R, variable) {
				return "quotient_rule"
			}
		}
	case expr.Call:
		if !isVariable(t.Arg, variable) {
			return "chain_rule"
		}
		return "standard_derivative"
	}
	if hasComposite(node, variable) {
		return "chain_rule"
	}
	return "power_rule"
}

func hasComposite(node expr.Node, variable string) bool {
	switch t := node.(type) {
	case expr.Unary:
		return hasComposite(t.X, variable)
	case expr.Binary:
		return hasComposite(t.L, variable) || hasComposite(t.R, variable)
	case expr.Call:
		return !isVariable(t.Arg, variable)
	}
	return false
}
