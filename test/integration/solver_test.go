//go:build integration

package integration

import (
	"net/http"
	"testing"
)

// TestValidateExpression checks the public validation endpoint, which must
// work without a token.
func TestValidateExpression(t *testing.T) {
	env := startSolverService(t)
	defer env.shutdown()

	validateURL := env.baseURL + "/validate"

	t.Run("valid equation", func(t *testing.T) {
		status, body := doJSON(t, http.MethodPost, validateURL, "", map[string]any{
			"expression": "2x + 3 = 7",
		})
		if status != http.StatusOK {
			t.Fatalf("validate returned %d: %v", status, body)
		}
		validation, _ := body["validation"].(map[string]any)
		if validation == nil {
			t.Fatalf("response missing validation: %v", body)
		}
		if validation["is_valid"] != true {
			t.Errorf("is_valid = %v, want true", validation["is_valid"])
		}
		if validation["complexity"] == nil {
			t.Error("validation missing complexity estimate")
		}
	})

	t.Run("invalid syntax", func(t *testing.T) {
		status, body := doJSON(t, http.MethodPost, validateURL, "", map[string]any{
			"expression": "2x ++= 4",
		})
		if status != http.StatusOK {
			t.Fatalf("validate returned %d: %v", status, body)
		}
		validation, _ := body["validation"].(map[string]any)
		if validation["is_valid"] != false {
			t.Errorf("is_valid = %v, want false", validation["is_valid"])
		}
		errs, _ := validation["errors"].([]any)
		if len(errs) == 0 {
			t.Error("invalid expression reported no errors")
		}
	})

	t.Run("missing expression", func(t *testing.T) {
		status, body := doJSON(t, http.MethodPost, validateURL, "", map[string]any{})
		if status != http.StatusBadRequest {
			t.Errorf("validate returned %d, want 400", status)
		}
		if errorDetail(body) != "Expression is required" {
			t.Errorf("detail = %q", errorDetail(body))
		}
	})
}

// TestSolveAlgebra exercises the equation solver end to end, including the
// premium gate on cubic equations and the history recorded per solve.
func TestSolveAlgebra(t *testing.T) {
	env := startSolverService(t)
	defer env.shutdown()

	solveURL := env.baseURL + "/algebra/solve"
	token := mintToken(t, env, uniqueEmail("solver"), "user")

	// solving requires a token
	status, _ := doJSON(t, http.MethodPost, solveURL, "", map[string]any{
		"equation": "2x + 4 = 10",
	})
	if status != http.StatusUnauthorized {
		t.Fatalf("solve without token returned %d, want 401", status)
	}

	// linear equation
	status, body := doJSON(t, http.MethodPost, solveURL, token, map[string]any{
		"equation": "2x + 4 = 10",
	})
	if status != http.StatusOK {
		t.Fatalf("solve returned %d: %v", status, body)
	}
	problem, _ := body["problem"].(map[string]any)
	if problem["type"] != "linear" {
		t.Errorf("problem type = %v, want linear", problem["type"])
	}
	if problem["variable"] != "x" {
		t.Errorf("variable = %v, want default x", problem["variable"])
	}
	solution, _ := body["solution"].(map[string]any)
	if solution["solution_type"] != "solved" {
		t.Fatalf("solution_type = %v: %v", solution["solution_type"], solution)
	}
	if value, _ := solution["value"].(float64); value != 3 {
		t.Errorf("value = %v, want 3", solution["value"])
	}
	if steps, _ := solution["steps"].([]any); len(steps) == 0 {
		t.Error("solution has no steps")
	}

	// quadratic equation
	status, body = doJSON(t, http.MethodPost, solveURL, token, map[string]any{
		"equation": "x^2 - 5x + 6 = 0",
	})
	if status != http.StatusOK {
		t.Fatalf("quadratic solve returned %d: %v", status, body)
	}
	solution, _ = body["solution"].(map[string]any)
	if solution["root_type"] != "two_real" {
		t.Errorf("root_type = %v, want two_real", solution["root_type"])
	}
	roots, _ := solution["values"].([]any)
	if len(roots) != 2 {
		t.Errorf("got %d roots, want 2", len(roots))
	}

	// cubic equations need a premium subscription
	status, body = doJSON(t, http.MethodPost, solveURL, token, map[string]any{
		"equation": "x^3 - 6x^2 + 11x - 6 = 0",
	})
	if status != http.StatusForbidden {
		t.Errorf("cubic solve as free user returned %d, want 403", status)
	}
	if errorDetail(body) != "Premium subscription required for cubic equations" {
		t.Errorf("cubic solve detail = %q", errorDetail(body))
	}

	premiumToken := mintToken(t, env, uniqueEmail("premium"), "premium_user")
	status, body = doJSON(t, http.MethodPost, solveURL, premiumToken, map[string]any{
		"equation": "x^3 - 6x^2 + 11x - 6 = 0",
	})
	if status != http.StatusOK {
		t.Fatalf("cubic solve as premium returned %d: %v", status, body)
	}
	problem, _ = body["problem"].(map[string]any)
	if problem["type"] != "cubic" {
		t.Errorf("problem type = %v, want cubic", problem["type"])
	}

	// each successful solve left a history row for its user
	status, body = doJSON(t, http.MethodGet, env.baseURL+"/history", token, nil)
	if status != http.StatusOK {
		t.Fatalf("history returned %d: %v", status, body)
	}
	history, _ := body["history"].([]any)
	if len(history) != 2 {
		t.Fatalf("got %d history rows, want 2 (linear + quadratic)", len(history))
	}
	latest, _ := history[0].(map[string]any)
	if latest["input"] == "" {
		t.Error("history row missing input")
	}

	// the solver statistics aggregate the same history
	status, body = doJSON(t, http.MethodGet, env.baseURL+"/statistics/user", token, nil)
	if status != http.StatusOK {
		t.Fatalf("user statistics returned %d: %v", status, body)
	}
	stats, _ := body["statistics"].(map[string]any)
	if total, _ := stats["total_problems_solved"].(float64); int(total) != 2 {
		t.Errorf("total_problems_solved = %v, want 2", stats["total_problems_solved"])
	}
	byType, _ := stats["problems_by_type"].(map[string]any)
	if count, _ := byType["linear"].(float64); int(count) != 1 {
		t.Errorf("problems_by_type[linear] = %v, want 1", byType["linear"])
	}
}

// TestSolveValidationErrors checks the error contract of the solver.
func TestSolveValidationErrors(t *testing.T) {
	env := startSolverService(t)
	defer env.shutdown()

	token := mintToken(t, env, uniqueEmail("solveerr"), "user")
	solveURL := env.baseURL + "/algebra/solve"

	tests := []struct {
		name       string
		payload    map[string]any
		wantDetail string
	}{
		{
			name:       "missing equation",
			payload:    map[string]any{},
			wantDetail: "Equation is required",
		},
		{
			name:       "no equals sign",
			payload:    map[string]any{"equation": "2x + 4"},
			wantDetail: "Equation must contain '=' sign",
		},
		{
			name:       "unsupported variable",
			payload:    map[string]any{"equation": "2a + 4 = 0"},
			wantDetail: "Invalid variables: [a]. Only x, y, z are allowed.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := doJSON(t, http.MethodPost, solveURL, token, tt.payload)
			if status != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", status)
			}
			if errorDetail(body) != tt.wantDetail {
				t.Errorf("detail = %q, want %q", errorDetail(body), tt.wantDetail)
			}
		})
	}
}
