package expr

import (
	"fmt"
	"math"
)

// Polynomial holds dense coefficients indexed by power, so
// coefficients[i] is the coefficient of variable^i.
type Polynomial []float64

// Degree returns the highest power with a non-zero coefficient.
func (p Polynomial) Degree() int {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] != 0 {
			return i
		}
	}
	return 0
}

// Coefficient returns the coefficient of the given power (zero when
// the power exceeds the stored degree).
func (p Polynomial) Coefficient(power int) float64 {
	if power < 0 || power >= len(p) {
		return 0
	}
	return p[power]
}

func (p Polynomial) trim() Polynomial {
	n := len(p)
	for n > 1 && p[n-1] == 0 {
		n--
	}
	return p[:n]
}

func polyAdd(a, b Polynomial) Polynomial {
	out := make(Polynomial, max(len(a), len(b)))
	for i := range out {
		out[i] = a.Coefficient(i) + b.Coefficient(i)
	}
	return out.trim()
}

func polyNeg(a Polynomial) Polynomial {
	out := make(Polynomial, len(a))
	for i, c := range a {
		out[i] = -c
	}
	return out
}

func polyMul(a, b Polynomial) Polynomial {
	out := make(Polynomial, len(a)+len(b)-1)
	for i, ca := range a {
		for j, cb := range b {
			out[i+j] += ca * cb
		}
	}
	return out.trim()
}

// Coefficients extracts dense polynomial coefficients of the expression
// in the given variable. It fails when the expression is not a
// polynomial: calls to functions, division by a non-constant, variables
// other than the requested one, or non-integer exponents.
func Coefficients(n Node, variable string) (Polynomial, error) {
	switch t := n.(type) {
	case Num:
		return Polynomial{t.Value}, nil

	case Var:
		if t.Name != variable {
			return nil, fmt.Errorf("expression contains variable %q, expected %q", t.Name, variable)
		}
		return Polynomial{0, 1}, nil

	case Unary:
		inner, err := Coefficients(t.X, variable)
		if err != nil {
			return nil, err
		}
		return polyNeg(inner), nil

	case Binary:
		switch t.Op {
		case '+':
			l, err := Coefficients(t.L, variable)
			if err != nil {
				return nil, err
			}
			r, err := Coefficients(t.R, variable)
			if err != nil {
				return nil, err
			}
			return polyAdd(l, r), nil

		case '-':
			l, err := Coefficients(t.L, variable)
			if err != nil {
				return nil, err
			}
			r, err := Coefficients(t.R, variable)
			if err != nil {
				return nil, err
			}
			return polyAdd(l, polyNeg(r)), nil

		case '*':
			l, err := Coefficients(t.L, variable)
			if err != nil {
				return nil, err
			}
			r, err := Coefficients(t.R, variable)
			if err != nil {
				return nil, err
			}
			return polyMul(l, r), nil

		case '/':
			l, err := Coefficients(t.L, variable)
			if err != nil {
				return nil, err
			}
			r, err := Coefficients(t.R, variable)
			if err != nil {
				return nil, err
			}
			if r.Degree() > 0 {
				return nil, fmt.Errorf("division by a non-constant is not polynomial")
			}
			d := r.Coefficient(0)
			if d == 0 {
				return nil, fmt.Errorf("division by zero")
			}
			out := make(Polynomial, len(l))
			for i, c := range l {
				out[i] = c / d
			}
			return out, nil

		case '^':
			exp, ok := t.R.(Num)
			if !ok {
				return nil, fmt.Errorf("exponent must be a constant")
			}
			if exp.Value < 0 || exp.Value != math.Trunc(exp.Value) {
				return nil, fmt.Errorf("exponent must be a non-negative integer, got %s", FormatNumber(exp.Value))
			}
			base, err := Coefficients(t.L, variable)
			if err != nil {
				return nil, err
			}
			out := Polynomial{1}
			for i := 0; i < int(exp.Value); i++ {
				out = polyMul(out, base)
			}
			return out, nil
		}
		return nil, fmt.Errorf("unknown operator %q", string(t.Op))

	case Call:
		return nil, fmt.Errorf("function %q is not polynomial", t.Fn)
	}

	return nil, fmt.Errorf("unsupported expression node")
}

// RenderPolynomial renders coefficients back to a canonical expression
// string such as "2*x^2 - 3*x + 1".
func RenderPolynomial(p Polynomial, variable string) string {
	if len(p) == 0 {
		return "0"
	}

	out := ""
	for i := len(p) - 1; i >= 0; i-- {
		c := p[i]
		if c == 0 {
			continue
		}

		sign := "+"
		if c < 0 {
			sign = "-"
			c = -c
		}

		var term string
		switch {
		case i == 0:
			term = FormatNumber(c)
		case i == 1 && c == 1:
			term = variable
		case i == 1:
			term = FormatNumber(c) + "*" + variable
		case c == 1:
			term = fmt.Sprintf("%s^%d", variable, i)
		default:
			term = fmt.Sprintf("%s*%s^%d", FormatNumber(c), variable, i)
		}

		if out == "" {
			if sign == "-" {
				out = "-" + term
			} else {
				out = term
			}
		} else {
			out += " " + sign + " " + term
		}
	}

	if out == "" {
		return "0"
	}
	return out
}
