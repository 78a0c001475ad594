package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth(t *testing.T) {
	ts := &TokenService{
		secret:     []byte("test-secret-at-least-16-chars"),
		accessTTL:  30 * time.Minute,
		refreshTTL: 7 * 24 * time.Hour,
	}

	validToken, err := ts.IssueAccessToken(uuid.New(), "a@b.com", RoleUser, uuid.New())
	if err != nil {
		t.Fatalf("IssueAccessToken() error = %v", err)
	}

	refreshToken, err := ts.IssueRefreshToken(uuid.New())
	if err != nil {
		t.Fatalf("IssueRefreshToken() error = %v", err)
	}

	handler := RequireAuth(ts, nil, nil)(okHandler())

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
		wantDetail string
	}{
		{
			name:       "valid token",
			authHeader: "Bearer " + validToken,
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing header",
			authHeader: "",
			wantStatus: http.StatusForbidden,
			wantDetail: "Not authenticated",
		},
		{
			name:       "malformed header",
			authHeader: "Basic dXNlcjpwYXNz",
			wantStatus: http.StatusUnauthorized,
			wantDetail: "Invalid token",
		},
		{
			name:       "garbage token",
			authHeader: "Bearer not-a-token",
			wantStatus: http.StatusUnauthorized,
			wantDetail: "Invalid token",
		},
		{
			name:       "refresh token used as access token",
			authHeader: "Bearer " + refreshToken,
			wantStatus: http.StatusUnauthorized,
			wantDetail: "Invalid token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/users/profile", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			if tt.wantDetail != "" {
				var body struct {
					Detail string `json:"detail"`
				}
				if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
					t.Fatalf("failed to decode error body: %v", err)
				}
				if body.Detail != tt.wantDetail {
					t.Errorf("detail = %q, want %q", body.Detail, tt.wantDetail)
				}
			}
		})
	}
}

type capturedAuthFailure struct {
	eventType string
	ip        string
	details   map[string]any
}

type fakeSecurityRecorder struct {
	failures []capturedAuthFailure
}

func (f *fakeSecurityRecorder) RecordAuthFailure(_ context.Context, eventType, ip string, _ *uuid.UUID, details map[string]any) {
	f.failures = append(f.failures, capturedAuthFailure{eventType: eventType, ip: ip, details: details})
}

// Token rejections must land in the security event trail; valid tokens and
// missing headers must not.
func TestRequireAuthRecordsFailures(t *testing.T) {
	ts := &TokenService{
		secret:     []byte("test-secret-at-least-16-chars"),
		accessTTL:  30 * time.Minute,
		refreshTTL: 7 * 24 * time.Hour,
	}
	validToken, err := ts.IssueAccessToken(uuid.New(), "a@b.com", RoleUser, uuid.New())
	if err != nil {
		t.Fatalf("IssueAccessToken() error = %v", err)
	}

	recorder := &fakeSecurityRecorder{}
	handler := RequireAuth(ts, nil, recorder)(okHandler())

	serve := func(authHeader string) {
		req := httptest.NewRequest(http.MethodGet, "/users/profile", nil)
		req.RemoteAddr = "203.0.113.50:41000"
		if authHeader != "" {
			req.Header.Set("Authorization", authHeader)
		}
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	serve("Bearer " + validToken)
	serve("")
	if len(recorder.failures) != 0 {
		t.Fatalf("recorded %d events for valid token and missing header, want 0", len(recorder.failures))
	}

	serve("Bearer not-a-token")
	if len(recorder.failures) != 1 {
		t.Fatalf("recorded %d events for a rejected token, want 1", len(recorder.failures))
	}
	got := recorder.failures[0]
	if got.eventType != "unauthorized_access" {
		t.Errorf("eventType = %q, want unauthorized_access", got.eventType)
	}
	if got.ip != "203.0.113.50:41000" {
		t.Errorf("ip = %q", got.ip)
	}
	if got.details["reason"] != "invalid_token" {
		t.Errorf("reason = %v, want invalid_token", got.details["reason"])
	}
	if got.details["path"] != "/users/profile" {
		t.Errorf("path = %v", got.details["path"])
	}
}

func TestRequireRoles(t *testing.T) {
	handler := RequireRoles("Admin access required", RoleAdmin, RoleSuperAdmin)(okHandler())

	tests := []struct {
		name       string
		role       string
		wantStatus int
	}{
		{name: "admin allowed", role: RoleAdmin, wantStatus: http.StatusOK},
		{name: "super admin allowed", role: RoleSuperAdmin, wantStatus: http.StatusOK},
		{name: "regular user rejected", role: RoleUser, wantStatus: http.StatusForbidden},
		{name: "author rejected", role: RoleAuthor, wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
			ctx := ContextWithPrincipal(req.Context(), Principal{UserID: uuid.New(), Role: tt.role})
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req.WithContext(ctx))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}

	t.Run("no principal rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})
}
