package auth

// middleware.go implements the chi middleware enforcing bearer tokens and
// role gates on protected routes.

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/mathservice-vn/platform/app/internal/api"
	"github.com/mathservice-vn/platform/app/internal/logger"
)

type contextKey int

const principalKey contextKey = iota

// Principal is the authenticated caller attached to the request context by
// RequireAuth.
type Principal struct {
	UserID    uuid.UUID
	Email     string
	Role      string
	SessionID string
}

// IsAdmin reports whether the principal has admin or super_admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin || p.Role == RoleSuperAdmin
}

// IsPremium reports whether the principal may use premium-gated features.
func (p Principal) IsPremium() bool {
	return p.Role == RolePremiumUser || p.IsAdmin()
}

// PrincipalFromContext returns the authenticated caller, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

// ContextWithPrincipal attaches a principal to the context (used by tests).
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// SecurityRecorder receives authentication failures for the security event
// trail. Implementations must be safe for concurrent use and must not block
// on storage errors. A nil recorder disables recording.
type SecurityRecorder interface {
	RecordAuthFailure(ctx context.Context, eventType, ip string, userID *uuid.UUID, details map[string]any)
}

// RequireAuth returns a middleware that enforces a valid bearer access token.
//
// A missing Authorization header returns 403 "Not authenticated" and a bad,
// expired or blacklisted token returns 401 "Invalid token" (matching the
// platform API contract).
//
// blacklist and security may be nil when the service does not enforce logout
// or record security events.
func RequireAuth(tokens *TokenService, blacklist *SessionBlacklist, security SecurityRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			header := r.Header.Get("Authorization")
			if header == "" {
				api.RespondWithError(w, r, api.NewForbiddenError("Not authenticated"))
				return
			}

			tokenString, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || tokenString == "" {
				api.RespondWithError(w, r, api.NewUnauthorizedError("Invalid token"))
				return
			}

			claims, err := tokens.VerifyToken(ctx, tokenString, TokenTypeAccess)
			if err != nil {
				reqLogger := logger.ContextRequestLogger(ctx)
				reqLogger.Debug("token rejected", slog.String("error", err.Error()))

				if security != nil {
					security.RecordAuthFailure(ctx, "unauthorized_access", r.RemoteAddr, nil, map[string]any{
						"reason": "invalid_token",
						"path":   r.URL.Path,
					})
				}
				api.RespondWithError(w, r, api.NewUnauthorizedError("Invalid token"))
				return
			}

			// Logged-out sessions are rejected until the blacklist entry expires
			if blacklist != nil && claims.SessionID != "" {
				blacklisted, err := blacklist.IsBlacklisted(ctx, claims.SessionID)
				if err != nil {
					api.RespondWithError(w, r, api.WrapInternalError(err, "failed to check session blacklist"))
					return
				}
				if blacklisted {
					if security != nil {
						security.RecordAuthFailure(ctx, "unauthorized_access", r.RemoteAddr, nil, map[string]any{
							"reason": "blacklisted_session",
							"path":   r.URL.Path,
						})
					}
					api.RespondWithError(w, r, api.NewUnauthorizedError("Invalid token"))
					return
				}
			}

			userID, err := uuid.Parse(claims.UserID)
			if err != nil {
				api.RespondWithError(w, r, api.NewUnauthorizedError("Invalid token"))
				return
			}

			principal := Principal{
				UserID:    userID,
				Email:     claims.Email,
				Role:      claims.Role,
				SessionID: claims.SessionID,
			}

			logger.ContextWithLogAttrs(ctx, slog.String("user_id", claims.UserID))

			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(ctx, principal)))
		})
	}
}

// RequireRoles returns a middleware that rejects callers whose role is not in
// the allowed set. message is the client-facing 403 detail, e.g.
// "Admin access required" or "Insufficient permissions".
//
// Must be mounted after RequireAuth.
func RequireRoles(message string, roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				api.RespondWithError(w, r, api.NewForbiddenError("Not authenticated"))
				return
			}
			if !allowed[principal.Role] {
				api.RespondWithError(w, r, api.NewForbiddenError(message))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
