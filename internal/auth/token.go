package auth

// token.go issues and verifies the JWT access and refresh tokens used across
// all five services.
//
// Access tokens carry {user_id, email, role, type:"access", session_id} and
// expire after ACCESS_TOKEN_TTL (default 30m). Refresh tokens carry
// {user_id, type:"refresh"} and expire after REFRESH_TOKEN_TTL (default 7d).

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/mathservice-vn/platform/app/internal/config"
)

// Token types carried in the "type" claim. Verification rejects a token
// presented for the wrong purpose (e.g. a refresh token on an API call).
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Roles recognized by the platform.
const (
	RoleUser        = "user"
	RolePremiumUser = "premium_user"
	RoleAuthor      = "author"
	RoleAdmin       = "admin"
	RoleSuperAdmin  = "super_admin"
)

// Claims is the JWT claims structure shared by all services.
type Claims struct {
	jwt.RegisteredClaims
	UserID    string `json:"user_id"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"`
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
}

// TokenService issues and verifies tokens.
//
// In HS256 mode (the default) every service shares JWT_SECRET. In RS256 mode
// the user service signs with a private JWK and the other services verify
// against the user service JWKS endpoint via a remote key cache.
type TokenService struct {
	secret     []byte
	signingKey *signingKey    // nil in HS256 mode
	remoteKeys *RemoteKeySet  // nil unless JWT_JWKS_URL is configured
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenService builds a TokenService from the server configuration.
// ctx is used to start the background JWKS cache refresh in RS256 mode.
func NewTokenService(ctx context.Context, cfg *config.ServerEnvironment) (*TokenService, error) {
	ts := &TokenService{
		secret:     []byte(cfg.JWTSecret),
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
	}

	if cfg.JWTSigningKeyPath != "" {
		key, err := LoadSigningKey(cfg.JWTSigningKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load signing key: %w", err)
		}
		ts.signingKey = key
	}

	if cfg.JWTJWKSURL != "" && !cfg.SkipJWKCache {
		remote, err := NewRemoteKeySet(ctx, cfg.JWTJWKSURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize JWKS cache: %w", err)
		}
		ts.remoteKeys = remote
	}

	return ts, nil
}

// AccessTokenTTL returns the configured access token lifetime.
func (ts *TokenService) AccessTokenTTL() time.Duration { return ts.accessTTL }

// PublicJWKS returns the public JWK set matching the local signing key so the
// user service can publish it on /.well-known/jwks.json. Returns (nil, nil)
// in HS256 mode, where there is no key to publish.
func (ts *TokenService) PublicJWKS() (jwk.Set, error) {
	if ts.signingKey == nil {
		return nil, nil
	}
	return ts.signingKey.PublicJWKS()
}

// IssueAccessToken creates a signed access token for the given user.
func (ts *TokenService) IssueAccessToken(userID uuid.UUID, email, role string, sessionID uuid.UUID) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.accessTTL)),
		},
		UserID:    userID.String(),
		Email:     email,
		Role:      role,
		Type:      TokenTypeAccess,
		SessionID: sessionID.String(),
	}
	return ts.sign(claims)
}

// IssueRefreshToken creates a signed refresh token for the given user.
func (ts *TokenService) IssueRefreshToken(userID uuid.UUID) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.refreshTTL)),
		},
		UserID: userID.String(),
		Type:   TokenTypeRefresh,
	}
	return ts.sign(claims)
}

func (ts *TokenService) sign(claims *Claims) (string, error) {
	if ts.signingKey != nil {
		token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
		token.Header["kid"] = ts.signingKey.KeyID
		signed, err := token.SignedString(ts.signingKey.PrivateKey)
		if err != nil {
			return "", fmt.Errorf("failed to sign token: %w", err)
		}
		return signed, nil
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ts.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken validates a token string and checks that its "type" claim
// matches wantType. Any failure (bad signature, expiry, wrong type, wrong
// algorithm) returns an error; callers map it to 401 "Invalid token".
func (ts *TokenService) VerifyToken(ctx context.Context, tokenString, wantType string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, ts.keyFunc(ctx),
		jwt.WithValidMethods([]string{"HS256", "RS256"}))
	if err != nil {
		return nil, fmt.Errorf("token verification failed: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("token is not valid")
	}
	if claims.Type != wantType {
		return nil, fmt.Errorf("unexpected token type %q (want %q)", claims.Type, wantType)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("token is missing the user_id claim")
	}
	return claims, nil
}

// keyFunc resolves the verification key for a parsed token header.
func (ts *TokenService) keyFunc(ctx context.Context) jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) {
		switch token.Method.Alg() {
		case "HS256":
			return ts.secret, nil
		case "RS256":
			// Prefer the local key pair when this service is the signer.
			if ts.signingKey != nil {
				return &ts.signingKey.PrivateKey.PublicKey, nil
			}
			if ts.remoteKeys == nil {
				return nil, fmt.Errorf("RS256 token received but no JWKS source configured")
			}
			kid, _ := token.Header["kid"].(string)
			if kid == "" {
				return nil, fmt.Errorf("RS256 token is missing the kid header")
			}
			return ts.remoteKeys.PublicKey(ctx, kid)
		default:
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
	}
}
