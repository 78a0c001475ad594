//go:build integration

// functions that are useful in integration tests

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mathservice-vn/platform/app/internal/auth"
	"github.com/mathservice-vn/platform/app/internal/database"
	"github.com/mathservice-vn/platform/app/internal/mathsolver"
	"github.com/mathservice-vn/platform/app/internal/server"
	"github.com/mathservice-vn/platform/app/internal/users"
)

// startUserService boots the user service in-process. The session blacklist is
// nil because the integration environment has no Redis; RequireAuth and logout
// both tolerate that.
func startUserService(t *testing.T) *testEnv {
	t.Helper()
	return startInProcessServer(t, "user-service", func(env *testEnv) server.RouteRegistrar {
		handlers := users.NewHandlers(env.queries, env.tokens, nil, auth.NewLoginLimiter(env.cfg.LoginAttemptsPerMn))
		return users.RegisterRoutes(handlers, env.tokens, nil)
	})
}

// startSolverService boots the math solver service in-process.
func startSolverService(t *testing.T) *testEnv {
	t.Helper()
	return startInProcessServer(t, "math-solver", func(env *testEnv) server.RouteRegistrar {
		handlers := mathsolver.NewHandlers(env.queries)
		return mathsolver.RegisterRoutes(handlers, env.tokens, nil)
	})
}

// doJSON sends an HTTP request with an optional JSON payload and bearer token
// and decodes the JSON response body.
func doJSON(t *testing.T, method, url, token string, payload any) (int, map[string]any) {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("Failed to marshal request payload: %v", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Request %s %s failed: %v", method, url, err)
	}
	defer resp.Body.Close()

	decoded := map[string]any{}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("Failed to decode response from %s %s: %v", method, url, err)
	}

	return resp.StatusCode, decoded
}

// errorDetail extracts the detail string from an error response body.
func errorDetail(body map[string]any) string {
	detail, _ := body["detail"].(string)
	return detail
}

// registerUser registers a new account through the API and returns the
// response body (includes the user view and the verification token).
func registerUser(t *testing.T, env *testEnv, email, password, fullName string) map[string]any {
	t.Helper()

	status, body := doJSON(t, http.MethodPost, env.baseURL+"/auth/register", "", map[string]any{
		"email":     email,
		"password":  password,
		"full_name": fullName,
	})
	if status != http.StatusCreated {
		t.Fatalf("register returned %d: %v", status, body)
	}
	return body
}

// loginUser logs in through the API and returns the access and refresh tokens.
func loginUser(t *testing.T, env *testEnv, email, password string) (accessToken, refreshToken string) {
	t.Helper()

	status, body := doJSON(t, http.MethodPost, env.baseURL+"/auth/login", "", map[string]any{
		"email":    email,
		"password": password,
	})
	if status != http.StatusOK {
		t.Fatalf("login returned %d: %v", status, body)
	}

	accessToken, _ = body["access_token"].(string)
	refreshToken, _ = body["refresh_token"].(string)
	if accessToken == "" || refreshToken == "" {
		t.Fatalf("login response missing tokens: %v", body)
	}
	return accessToken, refreshToken
}

// setUserRole updates a user's role directly in the database. Role changes
// have no public API endpoint so tests promote accounts this way.
func setUserRole(t *testing.T, env *testEnv, email, role string) {
	t.Helper()

	tag, err := env.pool.Exec(context.Background(),
		`UPDATE users SET role = $1 WHERE email = $2`, role, email)
	if err != nil {
		t.Fatalf("failed to set role for %s: %v", email, err)
	}
	if tag.RowsAffected() != 1 {
		t.Fatalf("expected to update 1 user, updated %d", tag.RowsAffected())
	}
}

// mintToken creates a user row plus a session and issues an access token for
// it, bypassing the register/login endpoints. Services other than the user
// service do not expose those endpoints, so their tests mint tokens directly.
func mintToken(t *testing.T, env *testEnv, email, role string) string {
	t.Helper()
	ctx := context.Background()

	hash, err := auth.HashPassword("integration-password")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user, err := env.queries.CreateUser(ctx, database.CreateUserParams{
		Email:             email,
		PasswordHash:      hash,
		FullName:          "Integration Test User",
		VerificationToken: uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	if role != "" && role != user.Role {
		setUserRole(t, env, email, role)
		user.Role = role
	}

	session, err := env.queries.CreateSession(ctx, database.CreateSessionParams{
		ID:     uuid.New(),
		UserID: user.ID,
	})
	if err != nil {
		t.Fatalf("failed to create test session: %v", err)
	}

	token, err := env.tokens.IssueAccessToken(user.ID, user.Email, user.Role, session.ID)
	if err != nil {
		t.Fatalf("failed to issue access token: %v", err)
	}
	return token
}

// uniqueEmail returns an email address that will not collide with other tests
// sharing the database.
func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%s@example.com", prefix, uuid.NewString()[:8])
}
