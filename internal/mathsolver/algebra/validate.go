package algebra

import (
	"strings"

	"github.com/mathservice-vn/platform/app/internal/mathsolver/expr"
)

// OperationCounts tallies the operators in a parsed expression.
type OperationCounts struct {
	Additions       int `json:"additions"`
	Multiplications int `json:"multiplications"`
	Powers          int `json:"powers"`
}

// Validation is the outcome of checking an expression or equation
// without solving it.
type Validation struct {
	IsValid         bool
	Complexity      string // easy, medium, hard, very_hard or unknown
	EstimatedTimeMS float64
	Operations      OperationCounts
	Errors          []string
	Suggestions     []string
}

// Validate checks an expression or equation and estimates its solving
// complexity. Equations (containing "=") are validated on both sides.
func Validate(input string) *Validation {
	v := &Validation{}

	var nodes []expr.Node
	degree := -1

	if strings.Contains(input, "=") {
		coeffs, err := ParseEquation(input, primaryVariable(input))
		if err != nil {
			return invalid(err.Error())
		}
		degree = coeffs.Degree()

		// Re-parse the sides for the operation counts.
		lhs, rhs, _ := splitEquation(input)
		left, _ := parseSide(lhs)
		right, _ := parseSide(rhs)
		nodes = append(nodes, left, right)
	} else {
		node, err := expr.Parse(input)
		if err != nil {
			return invalid("Invalid equation syntax: " + err.Error())
		}
		if err := checkVariables(node); err != nil {
			return invalid(err.Error())
		}
		nodes = append(nodes, node)

		if coeffs, err := expr.Coefficients(node, primaryVariable(input)); err == nil {
			degree = coeffs.Degree()
		}
	}

	v.IsValid = true
	for _, node := range nodes {
		countOperations(node, &v.Operations)
	}

	switch {
	case degree >= 0 && degree <= 1:
		v.Complexity = "easy"
		v.EstimatedTimeMS = 100
	case degree == 2:
		v.Complexity = "medium"
		v.EstimatedTimeMS = 500
	case degree > 4:
		v.Complexity = "very_hard"
		v.EstimatedTimeMS = 10000
	default:
		// Cubic/quartic, or parseable but not polynomial (trig, exp, ...).
		v.Complexity = "hard"
		v.EstimatedTimeMS = 2000
	}

	return v
}

func invalid(message string) *Validation {
	return &Validation{
		IsValid:         false,
		Complexity:      "unknown",
		EstimatedTimeMS: 5000,
		Errors:          []string{message},
		Suggestions:     suggestionsFor(message),
	}
}

func suggestionsFor(message string) []string {
	var out []string
	switch {
	case strings.Contains(message, "'='"):
		out = append(out, "Write the equation in the form 'expression = expression'")
	case strings.Contains(message, "Invalid variables"):
		out = append(out, "Use only the variables x, y and z")
	case strings.Contains(message, "parenthes"):
		out = append(out, "Check that every '(' has a matching ')'")
	default:
		out = append(out, "Check the expression for typos and unsupported symbols")
	}
	return out
}

// primaryVariable picks the variable to normalize over: x when present
// (or when no variables appear at all), otherwise the first variable
// used.
func primaryVariable(input string) string {
	for _, candidate := range []string{"x", "y", "z"} {
		if strings.Contains(input, candidate) {
			return candidate
		}
	}
	return "x"
}

func countOperations(n expr.Node, counts *OperationCounts) {
	switch t := n.(type) {
	case expr.Unary:
		countOperations(t.X, counts)
	case expr.Binary:
		switch t.Op {
		case '+', '-':
			counts.Additions++
		case '*', '/':
			counts.Multiplications++
		case '^':
			counts.Powers++
		}
		countOperations(t.L, counts)
		countOperations(t.R, counts)
	case expr.Call:
		countOperations(t.Arg, counts)
	}
}
