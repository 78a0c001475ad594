package algebra

import (
	"fmt"
	"math"

	"github.com/mathservice-vn/platform/app/internal/mathsolver/expr"
)

// ComplexRoot is a complex solution rendered as separate real and
// imaginary parts.
type ComplexRoot struct {
	Real float64 `json:"real"`
	Imag float64 `json:"imag"`
}

// QuadraticResult is the outcome of solving ax^2 + bx + c = 0.
type QuadraticResult struct {
	RootType     string // two_real, one_real or complex
	Discriminant float64
	Roots        []float64
	ComplexRoots []ComplexRoot
	Steps        []string
}

// SolveQuadratic solves a degree-two equation using the quadratic formula.
func SolveQuadratic(equation, variable string) (*QuadraticResult, error) {
	coeffs, err := ParseEquation(equation, variable)
	if err != nil {
		return nil, err
	}
	if coeffs.Degree() != 2 {
		return nil, fmt.Errorf("Not a quadratic equation (degree = %d)", coeffs.Degree())
	}

	a := coeffs.Coefficient(2)
	b := coeffs.Coefficient(1)
	c := coeffs.Coefficient(0)

	discriminant := b*b - 4*a*c

	steps := []string{
		fmt.Sprintf("Original equation: %s", equation),
		fmt.Sprintf("Standard form: %s = 0", expr.RenderPolynomial(coeffs, variable)),
		fmt.Sprintf("Coefficients: a=%s, b=%s, c=%s", expr.FormatNumber(a), expr.FormatNumber(b), expr.FormatNumber(c)),
		fmt.Sprintf("Discriminant: Δ = b² - 4ac = %s", expr.FormatNumber(discriminant)),
	}

	switch {
	case discriminant > 0:
		sqrtD := math.Sqrt(discriminant)
		x1 := (-b + sqrtD) / (2 * a)
		x2 := (-b - sqrtD) / (2 * a)
		steps = append(steps,
			"Δ > 0: two distinct real roots",
			fmt.Sprintf("%s₁ = (-b + √Δ) / 2a = %s", variable, expr.FormatNumber(x1)),
			fmt.Sprintf("%s₂ = (-b - √Δ) / 2a = %s", variable, expr.FormatNumber(x2)),
		)
		return &QuadraticResult{
			RootType:     "two_real",
			Discriminant: discriminant,
			Roots:        []float64{x1, x2},
			Steps:        steps,
		}, nil

	case discriminant == 0:
		x := -b / (2 * a)
		steps = append(steps,
			"Δ = 0: one repeated real root",
			fmt.Sprintf("%s = -b / 2a = %s", variable, expr.FormatNumber(x)),
		)
		return &QuadraticResult{
			RootType:     "one_real",
			Discriminant: discriminant,
			Roots:        []float64{x},
			Steps:        steps,
		}, nil

	default:
		re := -b / (2 * a)
		im := math.Sqrt(-discriminant) / (2 * math.Abs(a))
		steps = append(steps,
			"Δ < 0: two complex conjugate roots",
			fmt.Sprintf("%s = %s ± %si", variable, expr.FormatNumber(re), expr.FormatNumber(im)),
		)
		return &QuadraticResult{
			RootType:     "complex",
			Discriminant: discriminant,
			ComplexRoots: []ComplexRoot{
				{Real: re, Imag: im},
				{Real: re, Imag: -im},
			},
			Steps: steps,
		}, nil
	}
}
