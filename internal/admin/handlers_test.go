package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/mathservice-vn/platform/app/internal/admin/audit"
	"github.com/mathservice-vn/platform/app/internal/auth"
)

func errorDetail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body.Detail
}

func TestSetUserStatusValidation(t *testing.T) {
	h := NewHandlers(nil, nil, nil, nil, nil, nil)
	router := chi.NewRouter()
	router.Put("/users/{id}/status", h.HandleSetUserStatus)

	tests := []struct {
		name       string
		target     string
		body       string
		wantStatus int
		wantDetail string
	}{
		{"bad uuid", "/users/not-a-uuid/status", `{"status": "active"}`, http.StatusBadRequest, "Invalid user ID"},
		{"missing status", "/users/0a80e9f4-3a28-4e52-9a7d-6a2f8f6f1a10/status", `{}`, http.StatusBadRequest, "Invalid status"},
		{"unknown status", "/users/0a80e9f4-3a28-4e52-9a7d-6a2f8f6f1a10/status", `{"status": "frozen"}`, http.StatusBadRequest, "Invalid status"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, tc.target, strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if detail := errorDetail(t, rec); detail != tc.wantDetail {
				t.Errorf("detail = %q, want %q", detail, tc.wantDetail)
			}
		})
	}
}

func TestGetUserRejectsBadID(t *testing.T) {
	h := NewHandlers(nil, nil, nil, nil, nil, nil)
	router := chi.NewRouter()
	router.Get("/users/{id}", h.HandleGetUser)

	req := httptest.NewRequest(http.MethodGet, "/users/42", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if detail := errorDetail(t, rec); detail != "Invalid user ID" {
		t.Errorf("detail = %q", detail)
	}
}

func TestCreateBackupRejectsInvalidType(t *testing.T) {
	h := NewHandlers(nil, nil, nil, nil, nil, nil)

	for _, body := range []string{`{}`, `{"backup_type": "incremental"}`} {
		req := httptest.NewRequest(http.MethodPost, "/system/backup", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		h.HandleCreateBackup(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400 for body %s", rec.Code, body)
		}
		if detail := errorDetail(t, rec); detail != "Invalid backup type" {
			t.Errorf("detail = %q, want Invalid backup type", detail)
		}
	}
}

func TestAuditLogFiltersValidation(t *testing.T) {
	h := NewHandlers(nil, nil, nil, nil, nil, nil)

	tests := []struct {
		name       string
		target     string
		wantDetail string
	}{
		{"bad user id", "/audit/logs?user_id=xyz", "Invalid user ID"},
		{"bad from", "/audit/logs?from=yesterday", "Invalid from date"},
		{"bad to", "/audit/logs?to=2025-13-99", "Invalid to date"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.target, nil)
			rec := httptest.NewRecorder()
			h.HandleListAuditLogs(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if detail := errorDetail(t, rec); detail != tc.wantDetail {
				t.Errorf("detail = %q, want %q", detail, tc.wantDetail)
			}
		})
	}
}

func TestEnrichActivityInput(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/users/search", nil)
	req.RemoteAddr = "198.51.100.7:54321"
	req.Header.Set("User-Agent", "platform-test/1.0")

	principal := auth.Principal{
		UserID:    uuid.New(),
		Email:     "admin@mathservice.vn",
		Role:      auth.RoleAdmin,
		SessionID: "5f3f9a2c-88d1-4e0a-9a51-0c4c2e9f7b1d",
	}
	ctx := auth.ContextWithPrincipal(req.Context(), principal)
	ctx = context.WithValue(ctx, chimiddleware.RequestIDKey, "host/abc123-000042")
	req = req.WithContext(ctx)

	in := enrichActivityInput(req, audit.ActivityInput{
		UserID:   principal.UserID,
		Action:   "user_search",
		Resource: "users",
	})

	if in.SessionID != principal.SessionID {
		t.Errorf("SessionID = %q, want %q", in.SessionID, principal.SessionID)
	}
	if in.IPAddress != "198.51.100.7:54321" {
		t.Errorf("IPAddress = %q", in.IPAddress)
	}
	if in.UserAgent != "platform-test/1.0" {
		t.Errorf("UserAgent = %q", in.UserAgent)
	}
	if in.RequestID != "host/abc123-000042" {
		t.Errorf("RequestID = %q", in.RequestID)
	}
	if in.Action != "user_search" || in.Resource != "users" {
		t.Errorf("caller-provided fields changed: %+v", in)
	}

	// Without a principal the session stays empty rather than erroring.
	anon := enrichActivityInput(httptest.NewRequest(http.MethodGet, "/", nil), audit.ActivityInput{})
	if anon.SessionID != "" {
		t.Errorf("SessionID without principal = %q, want empty", anon.SessionID)
	}
}

func TestParseInfoCounter(t *testing.T) {
	info := "# Stats\r\nkeyspace_hits:150\r\nkeyspace_misses:50\r\n"
	if got := parseInfoCounter(info, "keyspace_hits"); got != 150 {
		t.Errorf("keyspace_hits = %d, want 150", got)
	}
	if got := parseInfoCounter(info, "keyspace_misses"); got != 50 {
		t.Errorf("keyspace_misses = %d, want 50", got)
	}
	if got := parseInfoCounter(info, "expired_keys"); got != 0 {
		t.Errorf("missing field = %d, want 0", got)
	}
}

func TestPlanForRole(t *testing.T) {
	tests := []struct {
		role string
		want string
	}{
		{"user", "free"},
		{"premium_user", "premium"},
		{"admin", "premium"},
		{"super_admin", "premium"},
		{"author", "free"},
	}
	for _, tc := range tests {
		if got := planForRole(tc.role); got != tc.want {
			t.Errorf("planForRole(%q) = %q, want %q", tc.role, got, tc.want)
		}
	}
}

func TestJSONMapTolerance(t *testing.T) {
	if m := jsonMap(nil); len(m) != 0 {
		t.Errorf("nil input should yield empty map, got %v", m)
	}
	if m := jsonMap([]byte("not json")); len(m) != 0 {
		t.Errorf("garbage input should yield empty map, got %v", m)
	}
	m := jsonMap([]byte(`{"key": "value"}`))
	if m["key"] != "value" {
		t.Errorf("jsonMap lost data: %v", m)
	}
}
