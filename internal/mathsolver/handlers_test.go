package mathsolver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/mathservice-vn/platform/app/internal/auth"
)

func postJSON(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHandleSolveAlgebraLinear(t *testing.T) {
	h := NewHandlers(nil)

	rec := postJSON(t, h.HandleSolveAlgebra, `{"equation": "2x + 4 = 0"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	if body["success"] != true {
		t.Fatalf("success = %v", body["success"])
	}
	problem := body["problem"].(map[string]any)
	if problem["type"] != "linear" {
		t.Errorf("problem type = %v, want linear", problem["type"])
	}
	if problem["variable"] != "x" {
		t.Errorf("variable = %v, want default x", problem["variable"])
	}
	solution := body["solution"].(map[string]any)
	if solution["value"].(float64) != -2 {
		t.Errorf("value = %v, want -2", solution["value"])
	}
	if _, ok := body["solving_time_ms"].(float64); !ok {
		t.Errorf("solving_time_ms missing: %v", body)
	}
}

func TestHandleSolveAlgebraQuadratic(t *testing.T) {
	h := NewHandlers(nil)

	rec := postJSON(t, h.HandleSolveAlgebra, `{"equation": "x^2 - 5x + 6 = 0"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	solution := body["solution"].(map[string]any)
	if solution["root_type"] != "two_real" {
		t.Errorf("root_type = %v, want two_real", solution["root_type"])
	}
	values := solution["values"].([]any)
	if len(values) != 2 {
		t.Fatalf("values = %v, want two roots", values)
	}
}

func TestHandleSolveAlgebraValidation(t *testing.T) {
	h := NewHandlers(nil)

	tests := []struct {
		name       string
		body       string
		wantDetail string
	}{
		{"missing equation", `{}`, "Equation is required"},
		{"no equals sign", `{"equation": "2x + 4"}`, "Equation must contain '=' sign"},
		{"bad variable", `{"equation": "2a + 4 = 0"}`, "Invalid variables: [a]. Only x, y, z are allowed."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, h.HandleSolveAlgebra, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			body := decodeBody(t, rec)
			if body["detail"] != tt.wantDetail {
				t.Errorf("detail = %q, want %q", body["detail"], tt.wantDetail)
			}
		})
	}
}

func TestHandleSolveAlgebraPremiumGate(t *testing.T) {
	h := NewHandlers(nil)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"equation": "x^3 - 6x^2 + 11x - 6 = 0"}`))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(auth.ContextWithPrincipal(req.Context(), auth.Principal{
		UserID: uuid.New(),
		Role:   auth.RoleUser,
	}))
	rec := httptest.NewRecorder()
	h.HandleSolveAlgebra(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["detail"] != "Premium subscription required for cubic equations" {
		t.Errorf("detail = %q", body["detail"])
	}
}

func TestHandleSolveSystem(t *testing.T) {
	h := NewHandlers(nil)

	rec := postJSON(t, h.HandleSolveSystem, `{"equations": ["x + y = 3", "x - y = 1"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	solution := body["solution"].(map[string]any)
	values := solution["values"].(map[string]any)
	if values["x"].(float64) != 2 || values["y"].(float64) != 1 {
		t.Errorf("values = %v, want x=2 y=1", values)
	}
}

func TestHandleSolveSystemValidation(t *testing.T) {
	h := NewHandlers(nil)

	rec := postJSON(t, h.HandleSolveSystem, `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["detail"] != "Equations are required" {
		t.Errorf("detail = %q", body["detail"])
	}
}

func TestHandleDerivative(t *testing.T) {
	h := NewHandlers(nil)

	rec := postJSON(t, h.HandleDerivative, `{"expression": "x^2"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	solution := body["solution"].(map[string]any)
	if solution["derivative"] != "2*x" {
		t.Errorf("derivative = %v, want 2*x", solution["derivative"])
	}
	if solution["rule"] != "power_rule" {
		t.Errorf("rule = %v, want power_rule", solution["rule"])
	}
}

func TestHandleDerivativeMissingExpression(t *testing.T) {
	h := NewHandlers(nil)

	rec := postJSON(t, h.HandleDerivative, `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["detail"] != "Expression is required" {
		t.Errorf("detail = %q", body["detail"])
	}
}

func TestHandleIntegralIndefinite(t *testing.T) {
	h := NewHandlers(nil)

	rec := postJSON(t, h.HandleIntegral, `{"expression": "2x + 3"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	solution := body["solution"].(map[string]any)
	if solution["integral"] != "x^2 + 3*x + C" {
		t.Errorf("integral = %v", solution["integral"])
	}
}

func TestHandleIntegralDefinite(t *testing.T) {
	h := NewHandlers(nil)

	rec := postJSON(t, h.HandleIntegral,
		`{"expression": "x^2", "type": "definite", "limits": {"lower": 0, "upper": 3}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	solution := body["solution"].(map[string]any)
	if got := solution["definite_value"].(float64); got != 9 {
		t.Errorf("definite_value = %v, want 9", got)
	}
}

func TestHandleIntegralDefiniteWithoutLimits(t *testing.T) {
	h := NewHandlers(nil)

	rec := postJSON(t, h.HandleIntegral, `{"expression": "x^2", "type": "definite"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["detail"] != "Limits required for definite integral" {
		t.Errorf("detail = %q", body["detail"])
	}
}

func TestHandleLimit(t *testing.T) {
	h := NewHandlers(nil)

	rec := postJSON(t, h.HandleLimit, `{"expression": "sin(x) / x", "approaching": "0"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	solution := body["solution"].(map[string]any)
	if solution["exists"] != true {
		t.Fatalf("exists = %v", solution["exists"])
	}
	if got := solution["value"].(float64); got != 1 {
		t.Errorf("value = %v, want 1", got)
	}
}

func TestHandleLimitBadDirection(t *testing.T) {
	h := NewHandlers(nil)

	rec := postJSON(t, h.HandleLimit, `{"expression": "1/x", "approaching": "0", "direction": "sideways"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["detail"] != "Direction must be both, left or right" {
		t.Errorf("detail = %q", body["detail"])
	}
}

func TestHandleGeometryArea(t *testing.T) {
	h := NewHandlers(nil)

	tests := []struct {
		name        string
		body        string
		wantArea    float64
		wantFormula string
	}{
		{"rectangle", `{"shape": "rectangle", "width": 4, "height": 5}`, 20, "Area = width × height"},
		{"circle", `{"shape": "circle", "radius": 1}`, 3.1416, "Area = π × r²"},
		{"triangle", `{"shape": "triangle", "base": 6, "height": 3}`, 9, "Area = ½ × base × height"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, h.HandleGeometryArea, tt.body)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
			}
			body := decodeBody(t, rec)
			if got := body["area"].(float64); got != tt.wantArea {
				t.Errorf("area = %v, want %v", got, tt.wantArea)
			}
			if body["formula"] != tt.wantFormula {
				t.Errorf("formula = %v, want %v", body["formula"], tt.wantFormula)
			}
		})
	}
}

func TestHandleGeometryAreaValidation(t *testing.T) {
	h := NewHandlers(nil)

	tests := []struct {
		name       string
		body       string
		wantDetail string
	}{
		{"missing shape", `{}`, "Shape is required"},
		{"rectangle without height", `{"shape": "rectangle", "width": 4}`, "Width and height required for rectangle"},
		{"circle without radius", `{"shape": "circle"}`, "Radius required for circle"},
		{"triangle without base", `{"shape": "triangle", "height": 3}`, "Base and height required for triangle"},
		{"unknown shape", `{"shape": "hexagon"}`, "Unsupported shape"},
		{"negative radius", `{"shape": "circle", "radius": -2}`, "Radius must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, h.HandleGeometryArea, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			body := decodeBody(t, rec)
			if body["detail"] != tt.wantDetail {
				t.Errorf("detail = %q, want %q", body["detail"], tt.wantDetail)
			}
		})
	}
}

func TestHandleStatisticsAnalyze(t *testing.T) {
	h := NewHandlers(nil)

	rec := postJSON(t, h.HandleStatisticsAnalyze, `{"data": [2, 4, 4, 4, 5, 5, 7, 9, 9]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	if body["analysis_type"] != "descriptive" {
		t.Errorf("analysis_type = %v, want default descriptive", body["analysis_type"])
	}
	stats := body["statistics"].(map[string]any)
	if got := stats["mean"].(float64); got != 5.4444 {
		t.Errorf("mean = %v, want 5.4444", got)
	}
	if got := stats["median"].(float64); got != 5 {
		t.Errorf("median = %v, want 5", got)
	}
}

func TestHandleStatisticsAnalyzeValidation(t *testing.T) {
	h := NewHandlers(nil)

	tests := []struct {
		name       string
		body       string
		wantDetail string
	}{
		{"missing data", `{}`, "Data array is required"},
		{"empty data", `{"data": []}`, "Data array cannot be empty"},
		{"unsupported type", `{"data": [1, 2], "analysis_type": "bayesian"}`, "Unsupported analysis type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, h.HandleStatisticsAnalyze, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			body := decodeBody(t, rec)
			if body["detail"] != tt.wantDetail {
				t.Errorf("detail = %q, want %q", body["detail"], tt.wantDetail)
			}
		})
	}
}

func TestHandleValidate(t *testing.T) {
	h := NewHandlers(nil)

	rec := postJSON(t, h.HandleValidate, `{"expression": "x^2 + 2x + 1 = 0"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	validation := body["validation"].(map[string]any)
	if validation["is_valid"] != true {
		t.Fatalf("is_valid = %v", validation["is_valid"])
	}
	if validation["complexity"] != "medium" {
		t.Errorf("complexity = %v, want medium", validation["complexity"])
	}
}

func TestHandleValidateInvalidExpression(t *testing.T) {
	h := NewHandlers(nil)

	rec := postJSON(t, h.HandleValidate, `{"expression": "2a + 4 = 0"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	validation := body["validation"].(map[string]any)
	if validation["is_valid"] != false {
		t.Fatalf("is_valid = %v, want false", validation["is_valid"])
	}
	if errs := validation["errors"].([]any); len(errs) == 0 {
		t.Error("expected validation errors")
	}
}

func TestSolverLevel(t *testing.T) {
	tests := []struct {
		total int64
		want  string
	}{
		{0, "beginner"},
		{19, "beginner"},
		{20, "intermediate"},
		{100, "advanced"},
		{500, "master"},
	}
	for _, tt := range tests {
		if got := solverLevel(tt.total); got != tt.want {
			t.Errorf("solverLevel(%d) = %q, want %q", tt.total, got, tt.want)
		}
	}
}
