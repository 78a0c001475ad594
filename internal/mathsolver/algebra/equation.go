// Package algebra solves polynomial equations and linear systems over
// the expression language in internal/mathsolver/expr.
package algebra

import (
	"fmt"
	"strings"

	"github.com/mathservice-vn/platform/app/internal/mathsolver/expr"
)

// allowedVariables are the only variable names accepted in equations.
var allowedVariables = map[string]bool{"x": true, "y": true, "z": true}

// ParseEquation parses "lhs = rhs" and returns the dense coefficients
// of lhs - rhs in the given variable, so the equation is normalized to
// poly = 0.
func ParseEquation(equation, variable string) (expr.Polynomial, error) {
	lhs, rhs, err := splitEquation(equation)
	if err != nil {
		return nil, err
	}

	left, err := parseSide(lhs)
	if err != nil {
		return nil, err
	}
	right, err := parseSide(rhs)
	if err != nil {
		return nil, err
	}

	if err := checkVariables(left, right); err != nil {
		return nil, err
	}

	diff := expr.Binary{Op: '-', L: left, R: right}
	coeffs, err := expr.Coefficients(diff, variable)
	if err != nil {
		return nil, fmt.Errorf("Invalid equation syntax: %s", err.Error())
	}
	return coeffs, nil
}

func splitEquation(equation string) (string, string, error) {
	switch strings.Count(equation, "=") {
	case 0:
		return "", "", fmt.Errorf("Equation must contain '=' sign")
	case 1:
	default:
		return "", "", fmt.Errorf("Equation cannot contain multiple '=' signs")
	}
	parts := strings.SplitN(equation, "=", 2)
	return parts[0], parts[1], nil
}

func parseSide(side string) (expr.Node, error) {
	node, err := expr.Parse(side)
	if err != nil {
		return nil, fmt.Errorf("Invalid equation syntax: %s", err.Error())
	}
	return node, nil
}

func checkVariables(nodes ...expr.Node) error {
	var invalid []string
	seen := map[string]bool{}
	for _, node := range nodes {
		for _, name := range expr.Variables(node) {
			if !allowedVariables[name] && !seen[name] {
				invalid = append(invalid, name)
				seen[name] = true
			}
		}
	}
	if len(invalid) > 0 {
		return fmt.Errorf("Invalid variables: [%s]. Only x, y, z are allowed.", strings.Join(invalid, ", "))
	}
	return nil
}
