package calculus

import (
	"math"
	"strings"
	"testing"
)

func TestDifferentiate(t *testing.T) {
	tests := []struct {
		name       string
		expression string
		want       string
		wantRule   string
	}{
		{"power rule", "x^2", "2*x", "power_rule"},
		{"polynomial", "x^2 + 3x - 1", "2*x + 3", "power_rule"},
		{"constant", "7", "0", "power_rule"},
		{"cubic", "2x^3", "6*x^2", "power_rule"},
		{"sine", "sin(x)", "cos(x)", "standard_derivative"},
		{"chain rule", "sin(2x)", "cos(2 * x) * 2", "chain_rule"},
		{"exponential", "exp(x)", "exp(x)", "standard_derivative"},
		{"product rule", "x * sin(x)", "sin(x) + x * cos(x)", "product_rule"},
		{"quotient rule", "sin(x) / x", "(cos(x) * x - sin(x)) / x ^ 2", "quotient_rule"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Differentiate(tt.expression, "x")
			if err != nil {
				t.Fatalf("Differentiate(%q) failed: %v", tt.expression, err)
			}
			if got.Derivative != tt.want {
				t.Errorf("Derivative = %q, want %q", got.Derivative, tt.want)
			}
			if got.Rule != tt.wantRule {
				t.Errorf("Rule = %q, want %q", got.Rule, tt.wantRule)
			}
			if len(got.Steps) < 2 {
				t.Fatalf("got %d steps, want at least 2", len(got.Steps))
			}
			if !strings.HasPrefix(got.Steps[0], "Find the derivative of: f(x) = ") {
				t.Errorf("first step = %q", got.Steps[0])
			}
			last := got.Steps[len(got.Steps)-1]
			if !strings.HasPrefix(last, "Therefore: f'(x) = ") {
				t.Errorf("last step = %q", last)
			}
		})
	}
}

func TestDifferentiateErrors(t *testing.T) {
	if _, err := Differentiate("x^x", "x"); err == nil {
		t.Error("variable exponent should fail")
	}
	if _, err := Differentiate("2x ++", "x"); err == nil {
		t.Error("bad syntax should fail")
	}
}

func TestIntegrate(t *testing.T) {
	tests := []struct {
		name       string
		expression string
		want       string
	}{
		{"power rule", "2x + 3", "x^2 + 3*x"},
		{"single power", "x^2", "0.3333333333333333*x^3"},
		{"constant", "5", "5*x"},
		{"reciprocal", "1/x", "ln|x|"},
		{"scaled reciprocal", "3/x", "3*ln|x|"},
		{"sine", "sin(x)", "-cos(x)"},
		{"cosine", "cos(x)", "sin(x)"},
		{"tangent", "tan(x)", "-ln|cos(x)|"},
		{"exponential", "exp(x)", "exp(x)"},
		{"scaled trig", "2*sin(x)", "-2*cos(x)"},
		{"mixed sum", "sin(x) + 2x", "-cos(x) + x^2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Integrate(tt.expression, "x")
			if err != nil {
				t.Fatalf("Integrate(%q) failed: %v", tt.expression, err)
			}
			if !got.HasClosedForm {
				t.Fatalf("HasClosedForm = false, steps: %v", got.Steps)
			}
			if got.Antiderivative != tt.want {
				t.Errorf("Antiderivative = %q, want %q", got.Antiderivative, tt.want)
			}
			last := got.Steps[len(got.Steps)-1]
			if !strings.HasSuffix(last, "+ C") {
				t.Errorf("last step = %q, want trailing + C", last)
			}
		})
	}
}

func TestIntegrateNoClosedForm(t *testing.T) {
	got, err := Integrate("sin(x^2)", "x")
	if err != nil {
		t.Fatalf("Integrate failed: %v", err)
	}
	if got.HasClosedForm {
		t.Error("sin(x^2) should have no closed form in this engine")
	}
}

func TestIntegrateDefinite(t *testing.T) {
	tests := []struct {
		name       string
		expression string
		lower      float64
		upper      float64
		want       float64
	}{
		{"quadratic", "x^2", 0, 3, 9},
		{"linear", "2x", 0, 2, 4},
		{"sine over half period", "sin(x)", 0, math.Pi, 2},
		{"reciprocal", "1/x", 1, math.E, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IntegrateDefinite(tt.expression, "x", tt.lower, tt.upper)
			if err != nil {
				t.Fatalf("IntegrateDefinite(%q) failed: %v", tt.expression, err)
			}
			if got.DefiniteValue == nil {
				t.Fatal("DefiniteValue is nil")
			}
			if math.Abs(*got.DefiniteValue-tt.want) > 1e-9 {
				t.Errorf("DefiniteValue = %v, want %v", *got.DefiniteValue, tt.want)
			}
			foundBoundStep := false
			for _, step := range got.Steps {
				if strings.HasPrefix(step, "= (") {
					foundBoundStep = true
				}
			}
			if !foundBoundStep {
				t.Errorf("no bound evaluation step in %v", got.Steps)
			}
		})
	}
}

func TestLimit(t *testing.T) {
	tests := []struct {
		name          string
		expression    string
		approaching   string
		direction     string
		wantExists    bool
		wantValue     float64
		wantTechnique string
	}{
		{"direct substitution", "x^2 + 1", "2", "both", true, 5, "direct substitution"},
		{"sin x over x", "sin(x)/x", "0", "both", true, 1, "L'Hôpital's rule"},
		{"factor and cancel", "(x^2 - 1)/(x - 1)", "1", "both", true, 2, "factoring"},
		{"rational at infinity", "(2x^2 + 1)/(x^2 - 3)", "inf", "both", true, 2, "leading term analysis"},
		{"denominator dominates", "x/(x^2 + 1)", "inf", "both", true, 0, "leading term analysis"},
		{"one over x diverges", "1/x", "0", "both", false, 0, "numeric probing"},
		{"right-sided", "sqrt(x)", "0", "right", true, 0, "right-sided probing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, _, err := ParseApproach(tt.approaching)
			if err != nil {
				t.Fatalf("ParseApproach(%q) failed: %v", tt.approaching, err)
			}
			got, err := Limit(tt.expression, "x", target, tt.direction)
			if err != nil {
				t.Fatalf("Limit(%q) failed: %v", tt.expression, err)
			}
			if got.Exists != tt.wantExists {
				t.Fatalf("Exists = %v, want %v (steps: %v)", got.Exists, tt.wantExists, got.Steps)
			}
			if tt.wantExists && math.Abs(got.Value-tt.wantValue) > 1e-4 {
				t.Errorf("Value = %v, want %v", got.Value, tt.wantValue)
			}
			if got.Technique != tt.wantTechnique {
				t.Errorf("Technique = %q, want %q", got.Technique, tt.wantTechnique)
			}
		})
	}
}

func TestLimitPolynomialAtInfinity(t *testing.T) {
	target, isInf, err := ParseApproach("infinity")
	if err != nil || !isInf {
		t.Fatalf("ParseApproach: %v %v", isInf, err)
	}
	got, err := Limit("x^2", "x", target, "both")
	if err != nil {
		t.Fatalf("Limit failed: %v", err)
	}
	if got.Exists || !got.IsInfinite || got.Sign != 1 {
		t.Errorf("got %+v, want infinite positive", got)
	}

	target, _, _ = ParseApproach("-inf")
	got, err = Limit("x^3", "x", target, "both")
	if err != nil {
		t.Fatalf("Limit failed: %v", err)
	}
	if !got.IsInfinite || got.Sign != -1 {
		t.Errorf("got %+v, want infinite negative", got)
	}
}

func TestParseApproach(t *testing.T) {
	if _, _, err := ParseApproach("banana"); err == nil {
		t.Error("garbage approach should fail")
	}
	v, isInf, err := ParseApproach("2.5")
	if err != nil || isInf || v != 2.5 {
		t.Errorf("ParseApproach(2.5) = %v %v %v", v, isInf, err)
	}
}
