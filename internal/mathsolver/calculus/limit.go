package calculus

import (
	"fmt"
	"math"
	"strings"

	"github.com/mathservice-vn/platform/app/internal/mathsolver/expr"
)

// LimitResult describes the limit of an expression as the variable
// approaches a point or infinity.
type LimitResult struct {
	Exists     bool
	Value      float64
	IsInfinite bool
	Sign       int // +1 or -1 for infinite limits
	Technique  string
	Steps      []string
}

// ParseApproach converts the "approaching" request field into a target
// value, accepting numbers as well as "inf", "-inf" and "infinity".
func ParseApproach(s string) (float64, bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inf", "+inf", "infinity", "+infinity", "∞":
		return math.Inf(1), true, nil
	case "-inf", "-infinity", "-∞":
		return math.Inf(-1), true, nil
	}
	node, err := expr.Parse(s)
	if err != nil {
		return 0, false, fmt.Errorf("Invalid approach value: %s", s)
	}
	v, err := node.Eval(nil)
	if err != nil {
		return 0, false, fmt.Errorf("Invalid approach value: %s", s)
	}
	return v, false, nil
}

// Limit computes the limit of the expression as variable → target.
// Direction is "both", "left" or "right".
func Limit(expression, variable string, target float64, direction string) (*LimitResult, error) {
	node, err := expr.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("Invalid expression syntax: %s", err.Error())
	}

	targetText := expr.FormatNumber(target)
	if math.IsInf(target, 1) {
		targetText = "∞"
	} else if math.IsInf(target, -1) {
		targetText = "-∞"
	}

	steps := []string{fmt.Sprintf("Evaluate: lim(%s→%s%s) %s",
		variable, targetText, directionMark(direction), node.String())}

	if math.IsInf(target, 0) {
		return limitAtInfinity(node, variable, target, steps)
	}

	// One-sided limits always go through signed probing.
	if direction == "left" || direction == "right" {
		return limitByProbing(node, variable, target, direction, steps)
	}

	// Direct substitution first.
	if v, err := node.Eval(map[string]float64{variable: target}); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		steps = append(steps,
			fmt.Sprintf("Direct substitution: f(%s) = %s", targetText, expr.FormatNumber(v)))
		return &LimitResult{
			Exists:    true,
			Value:     v,
			Technique: "direct substitution",
			Steps:     steps,
		}, nil
	}

	// Indeterminate 0/0 for a quotient: factor and cancel when both
	// sides are polynomials, otherwise L'Hôpital.
	if b, ok := node.(expr.Binary); ok && b.Op == '/' {
		if result, handled := limitIndeterminate(b, variable, target, targetText, steps); handled {
			return result, nil
		}
	}

	// Fall back to one-sided numeric probing.
	return limitByProbing(node, variable, target, direction, steps)
}

func directionMark(direction string) string {
	switch direction {
	case "left":
		return "⁻"
	case "right":
		return "⁺"
	}
	return ""
}

func limitAtInfinity(node expr.Node, variable string, target float64, steps []string) (*LimitResult, error) {
	// Rational functions resolve by comparing degrees of the leading
	// terms.
	if b, ok := node.(expr.Binary); ok && b.Op == '/' {
		num, errN := expr.Coefficients(b.L, variable)
		den, errD := expr.Coefficients(b.R, variable)
		if errN == nil && errD == nil && den.Degree() >= 0 {
			dn, dd := num.Degree(), den.Degree()
			ln, ld := num.Coefficient(dn), den.Coefficient(dd)
			steps = append(steps, fmt.Sprintf("Compare leading terms: degree %d over degree %d", dn, dd))
			switch {
			case dn < dd:
				steps = append(steps, "Denominator dominates: limit is 0")
				return &LimitResult{Exists: true, Value: 0, Technique: "leading term analysis", Steps: steps}, nil
			case dn == dd:
				v := ln / ld
				steps = append(steps, fmt.Sprintf("Equal degrees: limit is the ratio of leading coefficients = %s", expr.FormatNumber(v)))
				return &LimitResult{Exists: true, Value: v, Technique: "leading term analysis", Steps: steps}, nil
			default:
				sign := infinitySign(ln/ld, dn-dd, target)
				steps = append(steps, "Numerator dominates: limit is infinite")
				return &LimitResult{Exists: false, IsInfinite: true, Sign: sign, Technique: "leading term analysis", Steps: steps}, nil
			}
		}
	}

	// Bare polynomials diverge by the sign of the leading term.
	if coeffs, err := expr.Coefficients(node, variable); err == nil {
		if coeffs.Degree() == 0 {
			v := coeffs.Coefficient(0)
			steps = append(steps, fmt.Sprintf("Constant expression: limit is %s", expr.FormatNumber(v)))
			return &LimitResult{Exists: true, Value: v, Technique: "direct substitution", Steps: steps}, nil
		}
		sign := infinitySign(coeffs.Coefficient(coeffs.Degree()), coeffs.Degree(), target)
		steps = append(steps, "Leading term dominates: limit is infinite")
		return &LimitResult{Exists: false, IsInfinite: true, Sign: sign, Technique: "leading term analysis", Steps: steps}, nil
	}

	// Numeric probe at progressively large values.
	probe := 1e6
	if math.IsInf(target, -1) {
		probe = -1e6
	}
	v, err := node.Eval(map[string]float64{variable: probe})
	if err != nil || math.IsNaN(v) {
		steps = append(steps, "Expression does not settle at large values")
		return &LimitResult{Exists: false, Technique: "numeric probing", Steps: steps}, nil
	}
	if math.Abs(v) > 1e12 {
		sign := 1
		if v < 0 {
			sign = -1
		}
		steps = append(steps, "Expression grows without bound")
		return &LimitResult{Exists: false, IsInfinite: true, Sign: sign, Technique: "numeric probing", Steps: steps}, nil
	}
	steps = append(steps, fmt.Sprintf("Numeric probing at %s suggests %s", expr.FormatNumber(probe), expr.FormatRounded(v, 6)))
	return &LimitResult{Exists: true, Value: expr.Round(v, 6), Technique: "numeric probing", Steps: steps}, nil
}

// infinitySign determines the sign of a polynomial-dominated infinite
// limit from the leading coefficient, the dominating degree and the
// direction of travel.
func infinitySign(leading float64, degree int, target float64) int {
	sign := 1
	if leading < 0 {
		sign = -1
	}
	if math.IsInf(target, -1) && degree%2 == 1 {
		sign = -sign
	}
	return sign
}

// limitIndeterminate resolves 0/0 quotients: polynomial numerator and
// denominator are deflated by (x - a) and re-evaluated; anything else
// gets L'Hôpital's rule.
func limitIndeterminate(b expr.Binary, variable string, target float64, targetText string, steps []string) (*LimitResult, bool) {
	numV, errN := b.L.Eval(map[string]float64{variable: target})
	denV, errD := b.R.Eval(map[string]float64{variable: target})

	zeroOverZero := errN == nil && errD == nil && nearZero(numV) && nearZero(denV)
	// Eval reports division by zero as an error, so a vanishing
	// denominator may surface as errD instead of denV == 0.
	if errD != nil && strings.Contains(errD.Error(), "division by zero") {
		zeroOverZero = errN == nil && nearZero(numV)
	}
	if !zeroOverZero {
		return nil, false
	}

	steps = append(steps, fmt.Sprintf("Substitution gives 0/0 at %s = %s: indeterminate", variable, targetText))

	// Polynomial: factor out (x - a) from both sides and retry.
	num, errPN := expr.Coefficients(b.L, variable)
	den, errPD := expr.Coefficients(b.R, variable)
	if errPN == nil && errPD == nil {
		for nearZero(evalAt(num, target)) && nearZero(evalAt(den, target)) && den.Degree() > 0 {
			num = deflateAt(num, target)
			den = deflateAt(den, target)
		}
		steps = append(steps, fmt.Sprintf("Factor and cancel (%s - %s): %s / %s",
			variable, targetText,
			expr.RenderPolynomial(num, variable), expr.RenderPolynomial(den, variable)))

		denVal := evalAt(den, target)
		if nearZero(denVal) {
			steps = append(steps, "Denominator still vanishes: limit is infinite")
			return &LimitResult{Exists: false, IsInfinite: true, Technique: "factoring", Steps: steps}, true
		}
		v := evalAt(num, target) / denVal
		steps = append(steps, fmt.Sprintf("Limit = %s", expr.FormatNumber(v)))
		return &LimitResult{Exists: true, Value: v, Technique: "factoring", Steps: steps}, true
	}

	// L'Hôpital: differentiate numerator and denominator.
	dNum, _, errDN := diff(b.L, variable)
	dDen, _, errDD := diff(b.R, variable)
	if errDN != nil || errDD != nil {
		return nil, false
	}
	dNum = Simplify(dNum)
	dDen = Simplify(dDen)
	steps = append(steps, fmt.Sprintf("Apply L'Hôpital's rule: lim %s / %s", Render(dNum), Render(dDen)))

	nv, errN2 := dNum.Eval(map[string]float64{variable: target})
	dv, errD2 := dDen.Eval(map[string]float64{variable: target})
	if errN2 != nil || errD2 != nil || nearZero(dv) {
		return nil, false
	}
	v := nv / dv
	steps = append(steps, fmt.Sprintf("Limit = %s", expr.FormatNumber(v)))
	return &LimitResult{Exists: true, Value: v, Technique: "L'Hôpital's rule", Steps: steps}, true
}

// limitByProbing approaches the target from one or both sides with a
// shrinking offset.
func limitByProbing(node expr.Node, variable string, target float64, direction string, steps []string) (*LimitResult, error) {
	left, leftOK := probeSide(node, variable, target, -1)
	right, rightOK := probeSide(node, variable, target, +1)

	switch direction {
	case "left":
		return probedResult(left, leftOK, "left-sided probing", steps), nil
	case "right":
		return probedResult(right, rightOK, "right-sided probing", steps), nil
	}

	if leftOK && rightOK && math.Abs(left-right) < 1e-4 {
		v := expr.Round((left+right)/2, 6)
		steps = append(steps, fmt.Sprintf("Both sides agree: limit = %s", expr.FormatNumber(v)))
		return &LimitResult{Exists: true, Value: v, Technique: "numeric probing", Steps: steps}, nil
	}

	steps = append(steps, "Left and right limits disagree or diverge: limit does not exist")
	return &LimitResult{Exists: false, Technique: "numeric probing", Steps: steps}, nil
}

func probedResult(v float64, ok bool, technique string, steps []string) *LimitResult {
	if !ok {
		steps = append(steps, "One-sided probe diverges: limit does not exist")
		return &LimitResult{Exists: false, Technique: technique, Steps: steps}
	}
	v = expr.Round(v, 6)
	steps = append(steps, fmt.Sprintf("One-sided probe converges to %s", expr.FormatNumber(v)))
	return &LimitResult{Exists: true, Value: v, Technique: technique, Steps: steps}
}

func probeSide(node expr.Node, variable string, target float64, side int) (float64, bool) {
	values := make([]float64, 0, 3)
	for _, h := range []float64{1e-3, 1e-5, 1e-7} {
		x := target + float64(side)*h
		v, err := node.Eval(map[string]float64{variable: x})
		if err != nil || math.IsNaN(v) || math.Abs(v) > 1e10 {
			return 0, false
		}
		values = append(values, v)
	}

	v1, v2, v3 := values[0], values[1], values[2]
	d1 := v2 - v1
	d2 := v3 - v2

	// Settled outright.
	if math.Abs(d2) < 1e-9*(1+math.Abs(v3)) {
		return v3, true
	}
	// Geometric contraction: accelerate with Aitken extrapolation so
	// slow convergers like sqrt(x) near 0 still resolve.
	if math.Abs(d2) < 0.5*math.Abs(d1) {
		r := d2 / d1
		return v3 + d2*r/(1-r), true
	}
	return 0, false
}

func nearZero(v float64) bool {
	return math.Abs(v) < 1e-12
}

func evalAt(p expr.Polynomial, x float64) float64 {
	result := 0.0
	for i := len(p) - 1; i >= 0; i-- {
		result = result*x + p[i]
	}
	return result
}

// deflateAt divides the polynomial by (x - a) via synthetic division.
func deflateAt(p expr.Polynomial, a float64) expr.Polynomial {
	degree := p.Degree()
	if degree == 0 {
		return p
	}
	out := make(expr.Polynomial, degree)
	carry := p.Coefficient(degree)
	for i := degree - 1; i >= 0; i-- {
		out[i] = carry
		carry = p.Coefficient(i) + carry*a
	}
	return out
}
