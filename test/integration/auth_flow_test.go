//go:build integration

package integration

import (
	"net/http"
	"testing"
)

// TestUserLifecycle walks an account through the full user service flow:
// register, verify email, login, profile reads and updates, password change
// and logout.
func TestUserLifecycle(t *testing.T) {
	env := startUserService(t)
	defer env.shutdown()

	email := uniqueEmail("lifecycle")
	password := "original-password-1"

	// register
	body := registerUser(t, env, email, password, "Nguyen Van A")

	verificationToken, _ := body["verification_token"].(string)
	if verificationToken == "" {
		t.Fatalf("register response missing verification_token: %v", body)
	}
	user, _ := body["user"].(map[string]any)
	if user == nil {
		t.Fatalf("register response missing user: %v", body)
	}
	if user["is_verified"] != false {
		t.Errorf("new user is_verified = %v, want false", user["is_verified"])
	}
	if user["role"] != "user" {
		t.Errorf("new user role = %v, want user", user["role"])
	}
	if _, exposed := user["password_hash"]; exposed {
		t.Error("register response exposes password_hash")
	}

	// duplicate registration is rejected
	status, dup := doJSON(t, http.MethodPost, env.baseURL+"/auth/register", "", map[string]any{
		"email":     email,
		"password":  password,
		"full_name": "Someone Else",
	})
	if status != http.StatusBadRequest {
		t.Errorf("duplicate register returned %d, want 400", status)
	}
	if errorDetail(dup) != "Email already registered" {
		t.Errorf("duplicate register detail = %q", errorDetail(dup))
	}

	// verify email
	status, body = doJSON(t, http.MethodPost, env.baseURL+"/auth/verify-email", "", map[string]any{
		"token": verificationToken,
	})
	if status != http.StatusOK {
		t.Fatalf("verify-email returned %d: %v", status, body)
	}
	if body["message"] != "Email verified successfully" {
		t.Errorf("verify-email message = %v", body["message"])
	}

	// login
	status, body = doJSON(t, http.MethodPost, env.baseURL+"/auth/login", "", map[string]any{
		"email":    email,
		"password": password,
	})
	if status != http.StatusOK {
		t.Fatalf("login returned %d: %v", status, body)
	}
	if body["token_type"] != "bearer" {
		t.Errorf("token_type = %v, want bearer", body["token_type"])
	}
	wantExpiry := int(env.cfg.AccessTokenTTL.Seconds())
	if got, _ := body["expires_in"].(float64); int(got) != wantExpiry {
		t.Errorf("expires_in = %v, want %d", body["expires_in"], wantExpiry)
	}
	accessToken, _ := body["access_token"].(string)
	if accessToken == "" {
		t.Fatal("login response missing access_token")
	}

	// profile requires the token
	status, body = doJSON(t, http.MethodGet, env.baseURL+"/users/profile", "", nil)
	if status != http.StatusUnauthorized {
		t.Errorf("profile without token returned %d, want 401", status)
	}

	status, body = doJSON(t, http.MethodGet, env.baseURL+"/users/profile", accessToken, nil)
	if status != http.StatusOK {
		t.Fatalf("profile returned %d: %v", status, body)
	}
	user, _ = body["user"].(map[string]any)
	if user["email"] != email {
		t.Errorf("profile email = %v, want %s", user["email"], email)
	}
	if user["is_verified"] != true {
		t.Errorf("profile is_verified = %v, want true after verification", user["is_verified"])
	}
	if user["last_login_at"] == nil {
		t.Error("last_login_at not stamped by login")
	}

	// update profile
	status, body = doJSON(t, http.MethodPut, env.baseURL+"/users/profile", accessToken, map[string]any{
		"full_name": "Nguyen Van B",
		"address":   "123 Le Loi, Da Nang",
	})
	if status != http.StatusOK {
		t.Fatalf("update profile returned %d: %v", status, body)
	}
	user, _ = body["user"].(map[string]any)
	if user["full_name"] != "Nguyen Van B" {
		t.Errorf("full_name = %v after update", user["full_name"])
	}
	if user["address"] != "123 Le Loi, Da Nang" {
		t.Errorf("address = %v after update", user["address"])
	}

	// change password
	newPassword := "rotated-password-2"
	status, body = doJSON(t, http.MethodPost, env.baseURL+"/users/change-password", accessToken, map[string]any{
		"current_password": password,
		"new_password":     newPassword,
	})
	if status != http.StatusOK {
		t.Fatalf("change-password returned %d: %v", status, body)
	}
	if body["message"] != "Password changed successfully" {
		t.Errorf("change-password message = %v", body["message"])
	}

	// old password no longer works, new one does
	status, body = doJSON(t, http.MethodPost, env.baseURL+"/auth/login", "", map[string]any{
		"email":    email,
		"password": password,
	})
	if status != http.StatusUnauthorized {
		t.Errorf("login with old password returned %d, want 401", status)
	}
	if errorDetail(body) != "Invalid credentials" {
		t.Errorf("login with old password detail = %q", errorDetail(body))
	}
	accessToken, _ = loginUser(t, env, email, newPassword)

	// sessions were recorded for each login
	status, body = doJSON(t, http.MethodGet, env.baseURL+"/users/sessions", accessToken, nil)
	if status != http.StatusOK {
		t.Fatalf("sessions returned %d: %v", status, body)
	}
	sessions, _ := body["sessions"].([]any)
	if len(sessions) < 2 {
		t.Errorf("got %d sessions, want at least 2 (one per login)", len(sessions))
	}

	// logout
	status, body = doJSON(t, http.MethodPost, env.baseURL+"/auth/logout", accessToken, nil)
	if status != http.StatusOK {
		t.Fatalf("logout returned %d: %v", status, body)
	}
	if body["message"] != "Logged out successfully" {
		t.Errorf("logout message = %v", body["message"])
	}
}

func TestRefreshToken(t *testing.T) {
	env := startUserService(t)
	defer env.shutdown()

	email := uniqueEmail("refresh")
	registerUser(t, env, email, "refresh-password-1", "Tran Thi C")
	_, refreshToken := loginUser(t, env, email, "refresh-password-1")

	status, body := doJSON(t, http.MethodPost, env.baseURL+"/auth/refresh", "", map[string]any{
		"refresh_token": refreshToken,
	})
	if status != http.StatusOK {
		t.Fatalf("refresh returned %d: %v", status, body)
	}
	newAccess, _ := body["access_token"].(string)
	if newAccess == "" {
		t.Fatal("refresh response missing access_token")
	}

	// the refreshed access token is usable
	status, body = doJSON(t, http.MethodGet, env.baseURL+"/users/profile", newAccess, nil)
	if status != http.StatusOK {
		t.Fatalf("profile with refreshed token returned %d: %v", status, body)
	}

	// an access token is not accepted as a refresh token
	status, body = doJSON(t, http.MethodPost, env.baseURL+"/auth/refresh", "", map[string]any{
		"refresh_token": newAccess,
	})
	if status != http.StatusUnauthorized {
		t.Errorf("refresh with access token returned %d, want 401", status)
	}
	if errorDetail(body) != "Invalid token" {
		t.Errorf("refresh with access token detail = %q", errorDetail(body))
	}

	// garbage is rejected
	status, _ = doJSON(t, http.MethodPost, env.baseURL+"/auth/refresh", "", map[string]any{
		"refresh_token": "not-a-jwt",
	})
	if status != http.StatusUnauthorized {
		t.Errorf("refresh with garbage returned %d, want 401", status)
	}
}

func TestLoginValidation(t *testing.T) {
	env := startUserService(t)
	defer env.shutdown()

	email := uniqueEmail("loginval")
	registerUser(t, env, email, "valid-password-1", "Le Van D")

	tests := []struct {
		name       string
		payload    map[string]any
		wantStatus int
		wantDetail string
	}{
		{
			name:       "missing fields",
			payload:    map[string]any{},
			wantStatus: http.StatusBadRequest,
			wantDetail: "Email and password required",
		},
		{
			name:       "unknown email",
			payload:    map[string]any{"email": "nobody@example.com", "password": "whatever-123"},
			wantStatus: http.StatusUnauthorized,
			wantDetail: "Invalid credentials",
		},
		{
			name:       "wrong password",
			payload:    map[string]any{"email": email, "password": "wrong-password-1"},
			wantStatus: http.StatusUnauthorized,
			wantDetail: "Invalid credentials",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := doJSON(t, http.MethodPost, env.baseURL+"/auth/login", "", tt.payload)
			if status != tt.wantStatus {
				t.Errorf("status = %d, want %d", status, tt.wantStatus)
			}
			if errorDetail(body) != tt.wantDetail {
				t.Errorf("detail = %q, want %q", errorDetail(body), tt.wantDetail)
			}
		})
	}
}

// TestAdminUserManagement covers the user service admin endpoints: listing
// accounts and soft-deleting them, plus the role checks guarding both.
func TestAdminUserManagement(t *testing.T) {
	env := startUserService(t)
	defer env.shutdown()

	memberEmail := uniqueEmail("member")
	adminEmail := uniqueEmail("admin")
	registerUser(t, env, memberEmail, "member-password-1", "Member User")
	registerUser(t, env, adminEmail, "admin-password-1", "Admin User")
	setUserRole(t, env, adminEmail, "admin")

	memberToken, _ := loginUser(t, env, memberEmail, "member-password-1")
	adminToken, _ := loginUser(t, env, adminEmail, "admin-password-1")

	// ordinary users may not reach the admin endpoints
	status, body := doJSON(t, http.MethodGet, env.baseURL+"/admin/users", memberToken, nil)
	if status != http.StatusForbidden {
		t.Errorf("admin list as member returned %d, want 403", status)
	}
	if errorDetail(body) != "Admin access required" {
		t.Errorf("admin list as member detail = %q", errorDetail(body))
	}

	// list with a search filter
	status, body = doJSON(t, http.MethodGet, env.baseURL+"/admin/users?search="+memberEmail, adminToken, nil)
	if status != http.StatusOK {
		t.Fatalf("admin list returned %d: %v", status, body)
	}
	found, _ := body["users"].([]any)
	if len(found) != 1 {
		t.Fatalf("search for %s matched %d users, want 1", memberEmail, len(found))
	}
	member, _ := found[0].(map[string]any)
	memberID, _ := member["id"].(string)
	if memberID == "" {
		t.Fatalf("user view missing id: %v", member)
	}

	// deactivate the member
	status, body = doJSON(t, http.MethodPut, env.baseURL+"/admin/users/"+memberID+"/status", adminToken, map[string]any{
		"is_active": false,
	})
	if status != http.StatusOK {
		t.Fatalf("deactivate returned %d: %v", status, body)
	}
	updated, _ := body["user"].(map[string]any)
	if updated["is_active"] != false {
		t.Errorf("deactivated user is_active = %v", updated["is_active"])
	}

	// a deactivated account may not log in
	status, body = doJSON(t, http.MethodPost, env.baseURL+"/auth/login", "", map[string]any{
		"email":    memberEmail,
		"password": "member-password-1",
	})
	if status != http.StatusUnauthorized {
		t.Errorf("login while deactivated returned %d, want 401", status)
	}
	if errorDetail(body) != "Invalid credentials" {
		t.Errorf("login while deactivated detail = %q", errorDetail(body))
	}

	// reactivate and log in again
	status, _ = doJSON(t, http.MethodPut, env.baseURL+"/admin/users/"+memberID+"/status", adminToken, map[string]any{
		"is_active": true,
	})
	if status != http.StatusOK {
		t.Fatalf("reactivate returned %d", status)
	}
	loginUser(t, env, memberEmail, "member-password-1")
}
