package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	return &TokenService{
		secret:     []byte("test-secret-at-least-16-chars"),
		accessTTL:  30 * time.Minute,
		refreshTTL: 7 * 24 * time.Hour,
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	ts := newTestTokenService(t)
	ctx := context.Background()

	userID := uuid.New()
	sessionID := uuid.New()

	tokenString, err := ts.IssueAccessToken(userID, "student@mathservice.com", RoleUser, sessionID)
	if err != nil {
		t.Fatalf("IssueAccessToken() error = %v", err)
	}

	claims, err := ts.VerifyToken(ctx, tokenString, TokenTypeAccess)
	if err != nil {
		t.Fatalf("VerifyToken() error = %v", err)
	}

	if claims.UserID != userID.String() {
		t.Errorf("user_id = %q, want %q", claims.UserID, userID)
	}
	if claims.Email != "student@mathservice.com" {
		t.Errorf("email = %q, want student@mathservice.com", claims.Email)
	}
	if claims.Role != RoleUser {
		t.Errorf("role = %q, want %q", claims.Role, RoleUser)
	}
	if claims.Type != TokenTypeAccess {
		t.Errorf("type = %q, want %q", claims.Type, TokenTypeAccess)
	}
	if claims.SessionID != sessionID.String() {
		t.Errorf("session_id = %q, want %q", claims.SessionID, sessionID)
	}
}

func TestRefreshTokenRejectedAsAccess(t *testing.T) {
	ts := newTestTokenService(t)
	ctx := context.Background()

	refresh, err := ts.IssueRefreshToken(uuid.New())
	if err != nil {
		t.Fatalf("IssueRefreshToken() error = %v", err)
	}

	if _, err := ts.VerifyToken(ctx, refresh, TokenTypeAccess); err == nil {
		t.Error("a refresh token must not verify as an access token")
	}

	if _, err := ts.VerifyToken(ctx, refresh, TokenTypeRefresh); err != nil {
		t.Errorf("refresh token should verify as refresh type: %v", err)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	ts := newTestTokenService(t)
	ts.accessTTL = -1 * time.Minute // already expired when issued

	tokenString, err := ts.IssueAccessToken(uuid.New(), "a@b.com", RoleUser, uuid.New())
	if err != nil {
		t.Fatalf("IssueAccessToken() error = %v", err)
	}

	if _, err := ts.VerifyToken(context.Background(), tokenString, TokenTypeAccess); err == nil {
		t.Error("expired token must be rejected")
	}
}

func TestWrongSecretRejected(t *testing.T) {
	ts := newTestTokenService(t)

	tokenString, err := ts.IssueAccessToken(uuid.New(), "a@b.com", RoleUser, uuid.New())
	if err != nil {
		t.Fatalf("IssueAccessToken() error = %v", err)
	}

	other := newTestTokenService(t)
	other.secret = []byte("a-completely-different-secret")

	if _, err := other.VerifyToken(context.Background(), tokenString, TokenTypeAccess); err == nil {
		t.Error("token signed with a different secret must be rejected")
	}
}

func TestGarbageTokenRejected(t *testing.T) {
	ts := newTestTokenService(t)

	tests := []string{
		"",
		"not-a-jwt",
		"aaa.bbb.ccc",
	}

	for _, tokenString := range tests {
		if _, err := ts.VerifyToken(context.Background(), tokenString, TokenTypeAccess); err == nil {
			t.Errorf("VerifyToken(%q) should fail", tokenString)
		}
	}
}

func TestLoginLimiter(t *testing.T) {
	limiter := NewLoginLimiter(5)

	// first burst of attempts is allowed
	for i := 0; i < 5; i++ {
		if !limiter.Allow("user@example.com", "10.0.0.1") {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}

	// the burst is exhausted for this email+IP pair
	if limiter.Allow("user@example.com", "10.0.0.1") {
		t.Error("attempt beyond the burst should be rejected")
	}

	// a different IP gets its own bucket
	if !limiter.Allow("user@example.com", "10.0.0.2") {
		t.Error("a different client IP should have its own budget")
	}

	// a different email gets its own bucket
	if !limiter.Allow("other@example.com", "10.0.0.1") {
		t.Error("a different email should have its own budget")
	}

	// disabled limiter always allows
	var disabled *LoginLimiter
	if !disabled.Allow("user@example.com", "10.0.0.1") {
		t.Error("nil limiter should always allow")
	}
}

// A credential-stuffing run against one account must be cut off at the
// burst: the bucket has to survive across calls instead of being rebuilt
// (and thereby refilled) on every attempt.
func TestLoginLimiterCountsRapidAttempts(t *testing.T) {
	limiter := NewLoginLimiter(3)

	allowed := 0
	for i := 0; i < 10; i++ {
		if limiter.Allow("target@example.com", "203.0.113.9") {
			allowed++
		}
	}
	if allowed != 3 {
		t.Errorf("%d of 10 rapid attempts allowed, want exactly the burst of 3", allowed)
	}
}
