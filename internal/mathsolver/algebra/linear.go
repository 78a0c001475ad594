package algebra

import (
	"fmt"

	"github.com/mathservice-vn/platform/app/internal/mathsolver/expr"
)

// LinearResult is the outcome of solving a degree-one equation.
type LinearResult struct {
	SolutionType string   // solved, no_solution or infinite_solutions
	Value        float64
	Steps        []string
	Message      string
}

// SolveLinear solves ax + b = 0 for the given variable.
func SolveLinear(equation, variable string) (*LinearResult, error) {
	coeffs, err := ParseEquation(equation, variable)
	if err != nil {
		return nil, err
	}
	if coeffs.Degree() > 1 {
		return nil, fmt.Errorf("Not a linear equation (degree = %d)", coeffs.Degree())
	}

	a := coeffs.Coefficient(1)
	b := coeffs.Coefficient(0)

	steps := []string{
		fmt.Sprintf("Original equation: %s", equation),
		fmt.Sprintf("Rearranged: %s = 0", expr.RenderPolynomial(coeffs, variable)),
	}

	if a == 0 {
		if b == 0 {
			return &LinearResult{
				SolutionType: "infinite_solutions",
				Steps:        steps,
				Message:      "This is an identity - infinite solutions",
			}, nil
		}
		return &LinearResult{
			SolutionType: "no_solution",
			Steps:        steps,
			Message:      "This is a contradiction - no solution exists",
		}, nil
	}

	value := -b / a
	steps = append(steps,
		fmt.Sprintf("Solution: %s = %s", variable, expr.FormatNumber(value)),
		fmt.Sprintf("Verification: %s*(%s) + %s = 0 ✓", expr.FormatNumber(a), expr.FormatNumber(value), expr.FormatNumber(b)),
	)

	return &LinearResult{
		SolutionType: "solved",
		Value:        value,
		Steps:        steps,
	}, nil
}
