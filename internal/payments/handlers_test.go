package payments

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/mathservice-vn/platform/app/internal/auth"
)

func spendResponse(t *testing.T, payload string, withPrincipal bool) (int, map[string]any) {
	t.Helper()

	h := NewHandlers(nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/balance/spend", strings.NewReader(payload))
	if withPrincipal {
		ctx := auth.ContextWithPrincipal(req.Context(), auth.Principal{
			UserID: uuid.New(),
			Role:   auth.RoleUser,
		})
		req = req.WithContext(ctx)
	}

	rec := httptest.NewRecorder()
	h.HandleSpendBalance(rec, req)

	body := map[string]any{}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return rec.Code, body
}

func TestSpendBalanceValidation(t *testing.T) {
	tests := []struct {
		name          string
		payload       string
		withPrincipal bool
		wantStatus    int
		wantDetail    string
	}{
		{
			name:       "requires a token",
			payload:    `{"amount": "99000"}`,
			wantStatus: http.StatusUnauthorized,
			wantDetail: "Invalid token",
		},
		{
			name:          "rejects zero amount",
			payload:       `{"amount": "0"}`,
			withPrincipal: true,
			wantStatus:    http.StatusBadRequest,
			wantDetail:    "Invalid amount",
		},
		{
			name:          "rejects negative amount",
			payload:       `{"amount": "-5000", "description": "Premium subscription"}`,
			withPrincipal: true,
			wantStatus:    http.StatusBadRequest,
			wantDetail:    "Invalid amount",
		},
		{
			name:          "rejects malformed body",
			payload:       `{"amount": `,
			withPrincipal: true,
			wantStatus:    http.StatusBadRequest,
			wantDetail:    "Invalid JSON body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := spendResponse(t, tt.payload, tt.withPrincipal)
			if status != tt.wantStatus {
				t.Errorf("status = %d, want %d", status, tt.wantStatus)
			}
			if detail, _ := body["detail"].(string); detail != tt.wantDetail {
				t.Errorf("detail = %q, want %q", detail, tt.wantDetail)
			}
		})
	}
}
