package calculus

import (
	"fmt"
	"math"
	"strings"

	"github.com/mathservice-vn/platform/app/internal/mathsolver/expr"
)

// IntegralResult carries the antiderivative (without the constant of
// integration), the worked steps and the definite value when bounds
// were supplied.
type IntegralResult struct {
	Antiderivative string
	Steps          []string
	HasClosedForm  bool
	DefiniteValue  *float64
}

// integratedTerm pairs the rendered antiderivative of one term with an
// evaluator for the definite case.
type integratedTerm struct {
	text string
	eval func(x float64) float64
}

// Integrate computes the indefinite integral of the expression.
func Integrate(expression, variable string) (*IntegralResult, error) {
	node, err := expr.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("Invalid expression syntax: %s", err.Error())
	}

	steps := []string{fmt.Sprintf("Calculate the indefinite integral: ∫ %s d%s", node.String(), variable)}

	terms, termSteps, ok := integrateNode(node, variable)
	if !ok {
		steps = append(steps, fmt.Sprintf("No closed-form antiderivative found for %s", node.String()))
		return &IntegralResult{Steps: steps, HasClosedForm: false}, nil
	}
	steps = append(steps, termSteps...)

	text := combineTerms(terms)
	steps = append(steps, fmt.Sprintf("Therefore: ∫ %s d%s = %s + C", node.String(), variable, text))

	return &IntegralResult{
		Antiderivative: text,
		Steps:          steps,
		HasClosedForm:  true,
	}, nil
}

// IntegrateDefinite evaluates the definite integral over [lower, upper]
// via the fundamental theorem of calculus.
func IntegrateDefinite(expression, variable string, lower, upper float64) (*IntegralResult, error) {
	node, err := expr.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("Invalid expression syntax: %s", err.Error())
	}

	steps := []string{fmt.Sprintf("Calculate the definite integral: ∫ %s d%s from %s to %s",
		node.String(), variable, expr.FormatNumber(lower), expr.FormatNumber(upper))}

	terms, termSteps, ok := integrateNode(node, variable)
	if !ok {
		steps = append(steps, fmt.Sprintf("No closed-form antiderivative found for %s", node.String()))
		return &IntegralResult{Steps: steps, HasClosedForm: false}, nil
	}
	steps = append(steps, termSteps...)

	text := combineTerms(terms)

	fUpper, fLower := 0.0, 0.0
	for _, term := range terms {
		fUpper += term.eval(upper)
		fLower += term.eval(lower)
	}
	value := fUpper - fLower

	steps = append(steps,
		fmt.Sprintf("Antiderivative: F(%s) = %s", variable, text),
		fmt.Sprintf("= (%s) - (%s)", expr.FormatNumber(fUpper), expr.FormatNumber(fLower)),
		fmt.Sprintf("= %s", expr.FormatNumber(value)),
	)

	return &IntegralResult{
		Antiderivative: text,
		Steps:          steps,
		HasClosedForm:  true,
		DefiniteValue:  &value,
	}, nil
}

// integrateNode integrates term by term over top-level + and -.
func integrateNode(node expr.Node, variable string) ([]integratedTerm, []string, bool) {
	// Whole-expression polynomial integration covers sums of powers in
	// one pass.
	if coeffs, err := expr.Coefficients(node, variable); err == nil {
		return integratePolynomial(coeffs, variable)
	}

	switch t := node.(type) {
	case expr.Binary:
		if t.Op == '+' || t.Op == '-' {
			left, lSteps, ok := integrateNode(t.L, variable)
			if !ok {
				return nil, nil, false
			}
			right, rSteps, ok := integrateNode(t.R, variable)
			if !ok {
				return nil, nil, false
			}
			if t.Op == '-' {
				for i := range right {
					right[i] = negateTerm(right[i])
				}
			}
			return append(left, right...), append(lSteps, rSteps...), true
		}
	case expr.Unary:
		inner, steps, ok := integrateNode(t.X, variable)
		if !ok {
			return nil, nil, false
		}
		for i := range inner {
			inner[i] = negateTerm(inner[i])
		}
		return inner, steps, true
	}

	return integrateSpecial(node, variable)
}

func negateTerm(t integratedTerm) integratedTerm {
	text := t.text
	if len(text) > 0 && text[0] == '-' {
		text = text[1:]
	} else {
		text = "-" + text
	}
	inner := t.eval
	return integratedTerm{text: text, eval: func(x float64) float64 { return -inner(x) }}
}

func integratePolynomial(coeffs expr.Polynomial, variable string) ([]integratedTerm, []string, bool) {
	anti := make(expr.Polynomial, len(coeffs)+1)
	var steps []string
	for i, c := range coeffs {
		if c == 0 {
			continue
		}
		anti[i+1] = c / float64(i+1)
		if i == 0 {
			steps = append(steps, fmt.Sprintf("∫%s d%s = %s*%s",
				expr.FormatNumber(c), variable, expr.FormatNumber(c), variable))
		} else {
			steps = append(steps, fmt.Sprintf("∫%s*%s^%d d%s = %s*%s^%d",
				expr.FormatNumber(c), variable, i, variable,
				expr.FormatNumber(anti[i+1]), variable, i+1))
		}
	}

	term := integratedTerm{
		text: expr.RenderPolynomial(anti, variable),
		eval: func(x float64) float64 {
			result := 0.0
			for i := len(anti) - 1; i >= 0; i-- {
				result = result*x + anti[i]
			}
			return result
		},
	}
	return []integratedTerm{term}, steps, true
}

// integrateSpecial handles the non-polynomial table entries: c/x and
// the trig/exp functions of the bare variable, optionally scaled by a
// constant factor.
func integrateSpecial(node expr.Node, variable string) ([]integratedTerm, []string, bool) {
	scale := 1.0
	inner := node

	// Peel a constant multiplier: c * f(x) or f(x) * c.
	if b, ok := node.(expr.Binary); ok && b.Op == '*' {
		if n, ok := b.L.(expr.Num); ok {
			scale = n.Value
			inner = b.R
		} else if n, ok := b.R.(expr.Num); ok {
			scale = n.Value
			inner = b.L
		}
	}

	// c / x integrates to c*ln|x|.
	if b, ok := inner.(expr.Binary); ok && b.Op == '/' {
		if n, ok := b.L.(expr.Num); ok {
			if v, ok := b.R.(expr.Var); ok && v.Name == variable {
				c := scale * n.Value
				text := fmt.Sprintf("%s*ln|%s|", expr.FormatNumber(c), variable)
				if c == 1 {
					text = fmt.Sprintf("ln|%s|", variable)
				}
				step := fmt.Sprintf("∫%s/%s d%s = %s", expr.FormatNumber(n.Value), variable, variable, text)
				return []integratedTerm{{
					text: text,
					eval: func(x float64) float64 { return c * math.Log(math.Abs(x)) },
				}}, []string{step}, true
			}
		}
	}

	call, ok := inner.(expr.Call)
	if !ok {
		return nil, nil, false
	}
	v, ok := call.Arg.(expr.Var)
	if !ok || v.Name != variable {
		return nil, nil, false
	}

	var text string
	var eval func(x float64) float64
	switch call.Fn {
	case "sin":
		text = fmt.Sprintf("-cos(%s)", variable)
		eval = func(x float64) float64 { return -math.Cos(x) }
	case "cos":
		text = fmt.Sprintf("sin(%s)", variable)
		eval = math.Sin
	case "tan":
		text = fmt.Sprintf("-ln|cos(%s)|", variable)
		eval = func(x float64) float64 { return -math.Log(math.Abs(math.Cos(x))) }
	case "exp":
		text = fmt.Sprintf("exp(%s)", variable)
		eval = math.Exp
	default:
		return nil, nil, false
	}

	step := fmt.Sprintf("∫%s d%s = %s", call.String(), variable, text)

	if scale != 1 {
		baseEval := eval
		c := scale
		if strings.HasPrefix(text, "-") {
			text = "-" + expr.FormatNumber(c) + "*" + text[1:]
		} else {
			text = expr.FormatNumber(c) + "*" + text
		}
		eval = func(x float64) float64 { return c * baseEval(x) }
		step = fmt.Sprintf("∫%s*%s d%s = %s", expr.FormatNumber(c), call.String(), variable, text)
	}

	return []integratedTerm{{text: text, eval: eval}}, []string{step}, true
}

func combineTerms(terms []integratedTerm) string {
	out := ""
	for i, term := range terms {
		if i == 0 {
			out = term.text
			continue
		}
		if len(term.text) > 0 && term.text[0] == '-' {
			out += " - " + term.text[1:]
		} else {
			out += " + " + term.text
		}
	}
	return out
}
