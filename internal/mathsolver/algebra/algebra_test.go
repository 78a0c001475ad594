package algebra

import (
	"math"
	"strings"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestSolveLinear(t *testing.T) {
	tests := []struct {
		name         string
		equation     string
		wantType     string
		wantValue    float64
		wantMessage  string
		wantErr      string
	}{
		{"simple", "2x + 4 = 0", "solved", -2, "", ""},
		{"both sides", "3x + 1 = x + 5", "solved", 2, "", ""},
		{"fractional answer", "2x = 5", "solved", 2.5, "", ""},
		{"contradiction", "x + 1 = x + 2", "no_solution", 0, "This is a contradiction - no solution exists", ""},
		{"identity", "2x + 2 = 2(x + 1)", "infinite_solutions", 0, "This is an identity - infinite solutions", ""},
		{"missing equals", "2x + 4", "", 0, "", "Equation must contain '=' sign"},
		{"double equals", "x = 1 = 2", "", 0, "", "Equation cannot contain multiple '=' signs"},
		{"bad variable", "2a + 4 = 0", "", 0, "", "Invalid variables: [a]. Only x, y, z are allowed."},
		{"not linear", "x^2 = 4", "", 0, "", "Not a linear equation (degree = 2)"},
		{"garbage", "2x ++= 4", "", 0, "", "Invalid equation syntax"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SolveLinear(tt.equation, "x")
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("SolveLinear(%q) succeeded, want error %q", tt.equation, tt.wantErr)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("error = %q, want it to contain %q", err.Error(), tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("SolveLinear(%q) failed: %v", tt.equation, err)
			}
			if got.SolutionType != tt.wantType {
				t.Errorf("SolutionType = %q, want %q", got.SolutionType, tt.wantType)
			}
			if tt.wantType == "solved" && !almostEqual(got.Value, tt.wantValue) {
				t.Errorf("Value = %v, want %v", got.Value, tt.wantValue)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", got.Message, tt.wantMessage)
			}
			if len(got.Steps) == 0 {
				t.Error("Steps is empty")
			}
		})
	}
}

func TestSolveLinearSteps(t *testing.T) {
	got, err := SolveLinear("2x + 4 = 0", "x")
	if err != nil {
		t.Fatalf("SolveLinear failed: %v", err)
	}
	if len(got.Steps) != 4 {
		t.Fatalf("got %d steps, want 4: %v", len(got.Steps), got.Steps)
	}
	if got.Steps[0] != "Original equation: 2x + 4 = 0" {
		t.Errorf("step[0] = %q", got.Steps[0])
	}
	if got.Steps[2] != "Solution: x = -2" {
		t.Errorf("step[2] = %q", got.Steps[2])
	}
	if !strings.HasSuffix(got.Steps[3], "✓") {
		t.Errorf("step[3] = %q, want verification ending with ✓", got.Steps[3])
	}
}

func TestSolveQuadratic(t *testing.T) {
	tests := []struct {
		name     string
		equation string
		wantType string
		wantRoots []float64
	}{
		{"two real roots", "x^2 - 5x + 6 = 0", "two_real", []float64{3, 2}},
		{"repeated root", "x^2 - 4x + 4 = 0", "one_real", []float64{2}},
		{"complex roots", "x^2 + 1 = 0", "complex", nil},
		{"needs rearranging", "x^2 = 9", "two_real", []float64{3, -3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SolveQuadratic(tt.equation, "x")
			if err != nil {
				t.Fatalf("SolveQuadratic(%q) failed: %v", tt.equation, err)
			}
			if got.RootType != tt.wantType {
				t.Errorf("RootType = %q, want %q", got.RootType, tt.wantType)
			}
			if len(got.Roots) != len(tt.wantRoots) {
				t.Fatalf("Roots = %v, want %v", got.Roots, tt.wantRoots)
			}
			for i, want := range tt.wantRoots {
				if !almostEqual(got.Roots[i], want) {
					t.Errorf("Roots[%d] = %v, want %v", i, got.Roots[i], want)
				}
			}
			if len(got.Steps) == 0 {
				t.Error("Steps is empty")
			}
		})
	}
}

func TestSolveQuadraticComplexRoots(t *testing.T) {
	got, err := SolveQuadratic("x^2 + 2x + 5 = 0", "x")
	if err != nil {
		t.Fatalf("SolveQuadratic failed: %v", err)
	}
	if got.RootType != "complex" {
		t.Fatalf("RootType = %q, want complex", got.RootType)
	}
	if len(got.ComplexRoots) != 2 {
		t.Fatalf("got %d complex roots, want 2", len(got.ComplexRoots))
	}
	// x^2 + 2x + 5 = 0 has roots -1 ± 2i.
	if !almostEqual(got.ComplexRoots[0].Real, -1) || !almostEqual(got.ComplexRoots[0].Imag, 2) {
		t.Errorf("first root = %+v, want -1+2i", got.ComplexRoots[0])
	}
	if !almostEqual(got.ComplexRoots[1].Imag, -2) {
		t.Errorf("second root = %+v, want conjugate", got.ComplexRoots[1])
	}
}

func TestSolveQuadraticDegreeMismatch(t *testing.T) {
	_, err := SolveQuadratic("2x + 1 = 0", "x")
	if err == nil || !strings.Contains(err.Error(), "Not a quadratic equation (degree = 1)") {
		t.Fatalf("err = %v, want degree mismatch", err)
	}
}

func TestSolveCubic(t *testing.T) {
	tests := []struct {
		name      string
		equation  string
		wantRoots []float64
	}{
		{"three rational roots", "x^3 - 6x^2 + 11x - 6 = 0", []float64{1, 2, 3}},
		{"root at zero", "x^3 - x = 0", []float64{-1, 0, 1}},
		{"one real root", "x^3 - 1 = 0", []float64{1}},
		{"irrational root", "x^3 - 2 = 0", []float64{math.Cbrt(2)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SolveCubic(tt.equation, "x")
			if err != nil {
				t.Fatalf("SolveCubic(%q) failed: %v", tt.equation, err)
			}
			if len(got.Roots) != len(tt.wantRoots) {
				t.Fatalf("Roots = %v, want %v", got.Roots, tt.wantRoots)
			}
			for i, want := range tt.wantRoots {
				if !almostEqual(got.Roots[i], want) {
					t.Errorf("Roots[%d] = %v, want %v", i, got.Roots[i], want)
				}
			}
		})
	}
}

func TestSolveCubicDegreeMismatch(t *testing.T) {
	_, err := SolveCubic("x^2 - 1 = 0", "x")
	if err == nil || !strings.Contains(err.Error(), "Not a cubic equation (degree = 2)") {
		t.Fatalf("err = %v, want degree mismatch", err)
	}
}

func TestSolveQuartic(t *testing.T) {
	got, err := SolveQuartic("x^4 - 5x^2 + 4 = 0", "x")
	if err != nil {
		t.Fatalf("SolveQuartic failed: %v", err)
	}
	want := []float64{-2, -1, 1, 2}
	if len(got.Roots) != len(want) {
		t.Fatalf("Roots = %v, want %v", got.Roots, want)
	}
	for i, w := range want {
		if !almostEqual(got.Roots[i], w) {
			t.Errorf("Roots[%d] = %v, want %v", i, got.Roots[i], w)
		}
	}
}

func TestSolveSystem(t *testing.T) {
	tests := []struct {
		name      string
		equations []string
		wantType  string
		want      map[string]float64
	}{
		{
			"two by two",
			[]string{"x + y = 3", "x - y = 1"},
			"solved",
			map[string]float64{"x": 2, "y": 1},
		},
		{
			"three by three",
			[]string{"x + y + z = 6", "2x - y + z = 3", "x + 2y - z = 2"},
			"solved",
			map[string]float64{"x": 1, "y": 2, "z": 3},
		},
		{
			"inconsistent",
			[]string{"x + y = 1", "x + y = 2"},
			"no_solution",
			nil,
		},
		{
			"dependent",
			[]string{"x + y = 2", "2x + 2y = 4"},
			"infinite_solutions",
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SolveSystem(tt.equations)
			if err != nil {
				t.Fatalf("SolveSystem(%v) failed: %v", tt.equations, err)
			}
			if got.SolutionType != tt.wantType {
				t.Fatalf("SolutionType = %q, want %q", got.SolutionType, tt.wantType)
			}
			for name, want := range tt.want {
				if !almostEqual(got.Values[name], want) {
					t.Errorf("%s = %v, want %v", name, got.Values[name], want)
				}
			}
		})
	}
}

func TestSolveSystemErrors(t *testing.T) {
	if _, err := SolveSystem([]string{"x = 1"}); err == nil {
		t.Error("single equation should fail")
	}
	if _, err := SolveSystem([]string{"x*y = 1", "x + y = 2"}); err == nil {
		t.Error("non-linear system should fail")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name           string
		input          string
		wantValid      bool
		wantComplexity string
		wantTimeMS     float64
	}{
		{"linear equation", "2x + 4 = 0", true, "easy", 100},
		{"quadratic", "x^2 - 4 = 0", true, "medium", 500},
		{"cubic", "x^3 - 1 = 0", true, "hard", 2000},
		{"quintic", "x^5 - 1 = 0", true, "very_hard", 10000},
		{"bare expression", "2x + 1", true, "easy", 100},
		{"trig expression", "sin(x) + 1", true, "hard", 2000},
		{"missing equals is fine for expressions", "x^2 + 3", true, "medium", 500},
		{"invalid syntax", "2x ++= 4", false, "unknown", 5000},
		{"bad variable", "2a = 4", false, "unknown", 5000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Validate(tt.input)
			if got.IsValid != tt.wantValid {
				t.Fatalf("IsValid = %v, want %v (errors: %v)", got.IsValid, tt.wantValid, got.Errors)
			}
			if got.Complexity != tt.wantComplexity {
				t.Errorf("Complexity = %q, want %q", got.Complexity, tt.wantComplexity)
			}
			if got.EstimatedTimeMS != tt.wantTimeMS {
				t.Errorf("EstimatedTimeMS = %v, want %v", got.EstimatedTimeMS, tt.wantTimeMS)
			}
			if !tt.wantValid && len(got.Errors) == 0 {
				t.Error("invalid result carries no errors")
			}
			if !tt.wantValid && len(got.Suggestions) == 0 {
				t.Error("invalid result carries no suggestions")
			}
		})
	}
}

func TestValidateOperationCounts(t *testing.T) {
	got := Validate("2*x^2 + 3*x - 1 = 0")
	if !got.IsValid {
		t.Fatalf("expected valid, got errors %v", got.Errors)
	}
	if got.Operations.Additions != 2 {
		t.Errorf("Additions = %d, want 2", got.Operations.Additions)
	}
	if got.Operations.Multiplications != 2 {
		t.Errorf("Multiplications = %d, want 2", got.Operations.Multiplications)
	}
	if got.Operations.Powers != 1 {
		t.Errorf("Powers = %d, want 1", got.Operations.Powers)
	}
}
