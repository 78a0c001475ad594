package algebra

import (
	"fmt"
	"math"
	"sort"

	"github.com/mathservice-vn/platform/app/internal/mathsolver/expr"
)

const rootEpsilon = 1e-9

// PolynomialResult is the outcome of solving a cubic or quartic equation.
type PolynomialResult struct {
	Degree       int
	Roots        []float64
	ComplexRoots []ComplexRoot
	Steps        []string
}

// SolveCubic solves a degree-three equation by rational-root search,
// synthetic deflation and the quadratic formula on the remainder, with
// bisection as a fallback for irrational real roots.
func SolveCubic(equation, variable string) (*PolynomialResult, error) {
	return solvePolynomial(equation, variable, 3, "cubic")
}

// SolveQuartic solves a degree-four equation the same way as SolveCubic,
// deflating twice before the quadratic remainder.
func SolveQuartic(equation, variable string) (*PolynomialResult, error) {
	return solvePolynomial(equation, variable, 4, "quartic")
}

func solvePolynomial(equation, variable string, degree int, kind string) (*PolynomialResult, error) {
	coeffs, err := ParseEquation(equation, variable)
	if err != nil {
		return nil, err
	}
	if coeffs.Degree() != degree {
		return nil, fmt.Errorf("Not a %s equation (degree = %d)", kind, coeffs.Degree())
	}

	steps := []string{
		fmt.Sprintf("Original equation: %s", equation),
		fmt.Sprintf("Standard form: %s = 0", expr.RenderPolynomial(coeffs, variable)),
	}

	result := &PolynomialResult{Degree: degree}
	remaining := coeffs

	// Deflate down to a quadratic remainder, one real root at a time.
	for remaining.Degree() > 2 {
		root, how, found := findRealRoot(remaining)
		if !found {
			return nil, fmt.Errorf("unable to locate a real root of %s", expr.RenderPolynomial(remaining, variable))
		}
		steps = append(steps, fmt.Sprintf("Found root %s = %s (%s)", variable, expr.FormatNumber(root), how))
		result.Roots = append(result.Roots, root)
		remaining = deflate(remaining, root)
		steps = append(steps, fmt.Sprintf("Deflated: %s = 0", expr.RenderPolynomial(remaining, variable)))
	}

	// Solve the quadratic (or linear) remainder directly.
	switch remaining.Degree() {
	case 2:
		a := remaining.Coefficient(2)
		b := remaining.Coefficient(1)
		c := remaining.Coefficient(0)
		d := b*b - 4*a*c
		steps = append(steps, fmt.Sprintf("Quadratic remainder discriminant: Δ = %s", expr.FormatNumber(d)))
		if d >= 0 {
			sqrtD := math.Sqrt(d)
			result.Roots = append(result.Roots, (-b+sqrtD)/(2*a), (-b-sqrtD)/(2*a))
		} else {
			re := -b / (2 * a)
			im := math.Sqrt(-d) / (2 * math.Abs(a))
			result.ComplexRoots = append(result.ComplexRoots,
				ComplexRoot{Real: re, Imag: im},
				ComplexRoot{Real: re, Imag: -im})
		}
	case 1:
		result.Roots = append(result.Roots, -remaining.Coefficient(0)/remaining.Coefficient(1))
	}

	sort.Float64s(result.Roots)

	rendered := make([]string, 0, len(result.Roots))
	for _, r := range result.Roots {
		rendered = append(rendered, expr.FormatNumber(r))
	}
	if len(rendered) > 0 {
		steps = append(steps, fmt.Sprintf("Real roots: %s", join(rendered)))
	}
	if len(result.ComplexRoots) > 0 {
		steps = append(steps, fmt.Sprintf("Complex roots: %s ± %si",
			expr.FormatNumber(result.ComplexRoots[0].Real),
			expr.FormatNumber(math.Abs(result.ComplexRoots[0].Imag))))
	}

	result.Steps = steps
	return result, nil
}

func join(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}

// findRealRoot first tries the rational-root theorem (divisors of the
// constant term over divisors of the leading coefficient) and falls
// back to bisection over a sign change.
func findRealRoot(p expr.Polynomial) (float64, string, bool) {
	if root, ok := rationalRoot(p); ok {
		return root, "rational root", true
	}
	if root, ok := bisectRoot(p); ok {
		return root, "bisection", true
	}
	return 0, "", false
}

func rationalRoot(p expr.Polynomial) (float64, bool) {
	constant := p.Coefficient(0)
	leading := p.Coefficient(p.Degree())

	if constant == 0 {
		return 0, true
	}

	for _, num := range divisors(constant) {
		for _, den := range divisors(leading) {
			for _, candidate := range []float64{num / den, -num / den} {
				if math.Abs(evalPoly(p, candidate)) < rootEpsilon {
					return candidate, true
				}
			}
		}
	}
	return 0, false
}

// divisors returns the positive integer divisors of |v| rounded to the
// nearest integer; non-integer coefficients yield only 1 so the search
// degrades gracefully.
func divisors(v float64) []float64 {
	abs := math.Abs(v)
	n := math.Round(abs)
	if n == 0 || math.Abs(abs-n) > rootEpsilon {
		return []float64{1}
	}

	var out []float64
	for d := 1.0; d <= n; d++ {
		if math.Mod(n, d) == 0 {
			out = append(out, d)
		}
	}
	return out
}

func bisectRoot(p expr.Polynomial) (float64, bool) {
	// Scan for a sign change on a coarse grid, then bisect.
	const lo, hi, steps = -1000.0, 1000.0, 4000
	step := (hi - lo) / steps

	prev := evalPoly(p, lo)
	for x := lo + step; x <= hi; x += step {
		cur := evalPoly(p, x)
		if prev == 0 {
			return x - step, true
		}
		if prev*cur < 0 {
			return bisect(p, x-step, x), true
		}
		prev = cur
	}
	return 0, false
}

func bisect(p expr.Polynomial, lo, hi float64) float64 {
	fLo := evalPoly(p, lo)
	for i := 0; i < 200; i++ {
		mid := (lo + hi) / 2
		fMid := evalPoly(p, mid)
		if math.Abs(fMid) < rootEpsilon {
			return mid
		}
		if fLo*fMid < 0 {
			hi = mid
		} else {
			lo = mid
			fLo = fMid
		}
	}
	return (lo + hi) / 2
}

func evalPoly(p expr.Polynomial, x float64) float64 {
	result := 0.0
	for i := len(p) - 1; i >= 0; i-- {
		result = result*x + p[i]
	}
	return result
}

// deflate divides p by (x - root) using synthetic division, discarding
// the (near-zero) remainder.
func deflate(p expr.Polynomial, root float64) expr.Polynomial {
	degree := p.Degree()
	out := make(expr.Polynomial, degree)

	carry := p.Coefficient(degree)
	for i := degree - 1; i >= 0; i-- {
		out[i] = carry
		carry = p.Coefficient(i) + carry*root
	}
	return out
}
