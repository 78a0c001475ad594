// Package users implements the user service HTTP API: registration, login,
// session logout, email verification, profile management and the admin user
// listing. It owns token issuance for the whole platform.
package users

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mathservice-vn/platform/app/internal/admin/audit"
	"github.com/mathservice-vn/platform/app/internal/api"
	"github.com/mathservice-vn/platform/app/internal/auth"
	"github.com/mathservice-vn/platform/app/internal/database"
	"github.com/mathservice-vn/platform/app/internal/logger"
	serverhandlers "github.com/mathservice-vn/platform/app/internal/server/handlers"
)

// Handlers carries the dependencies of the user endpoints.
type Handlers struct {
	queries   *database.Queries
	tokens    *auth.TokenService
	blacklist *auth.SessionBlacklist
	limiter   *auth.LoginLimiter
	security  *audit.Recorder
}

func NewHandlers(queries *database.Queries, tokens *auth.TokenService, blacklist *auth.SessionBlacklist, limiter *auth.LoginLimiter) *Handlers {
	return &Handlers{
		queries:   queries,
		tokens:    tokens,
		blacklist: blacklist,
		limiter:   limiter,
		security:  audit.NewRecorder(queries),
	}
}

// RegisterRoutes attaches the user service routes. Registration, login,
// refresh and email verification are public; the JWKS endpoint is published
// only when the service holds an RS256 signing key.
func RegisterRoutes(h *Handlers, tokens *auth.TokenService, blacklist *auth.SessionBlacklist) func(chi.Router) {
	return func(r chi.Router) {
		r.Post("/auth/register", h.HandleRegister)
		r.Post("/auth/login", h.HandleLogin)
		r.Post("/auth/refresh", h.HandleRefresh)
		r.Post("/auth/verify-email", h.HandleVerifyEmail)

		if set, err := tokens.PublicJWKS(); err == nil && set != nil {
			r.Get("/.well-known/jwks.json", serverhandlers.HandleJWKS(set))
		}

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens, blacklist, h.security))

			r.Post("/auth/logout", h.HandleLogout)
			r.Get("/users/profile", h.HandleGetProfile)
			r.Put("/users/profile", h.HandleUpdateProfile)
			r.Post("/users/change-password", h.HandleChangePassword)
			r.Get("/users/sessions", h.HandleListSessions)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRoles("Admin access required", auth.RoleAdmin, auth.RoleSuperAdmin))
				r.Get("/admin/users", h.HandleAdminListUsers)
				r.Put("/admin/users/{id}/status", h.HandleAdminSetUserStatus)
			})
		})
	}
}

type registerRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	FullName string  `json:"full_name"`
	Phone    *string `json:"phone"`
}

// HandleRegister godoc
//
//	@Summary		Register a new account
//	@Description	New accounts start with role "user", active and unverified.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Router			/auth/register [post]
func (h *Handlers) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := api.DecodeJSONBody(r, &req); err != nil {
		api.RespondWithError(w, r, err)
		return
	}

	if req.Email == "" || req.Password == "" || req.FullName == "" {
		api.RespondWithError(w, r, api.NewValidationError("Missing required fields"))
		return
	}
	if !strings.Contains(req.Email, "@") {
		api.RespondWithError(w, r, api.NewValidationError("Invalid email format"))
		return
	}
	if len(req.Password) < 8 {
		api.RespondWithError(w, r, api.NewValidationError("Password too short"))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to hash password"))
		return
	}

	verificationToken := uuid.NewString()
	user, err := h.queries.CreateUser(r.Context(), database.CreateUserParams{
		Email:             strings.ToLower(req.Email),
		PasswordHash:      hash,
		FullName:          req.FullName,
		Phone:             req.Phone,
		VerificationToken: verificationToken,
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			api.RespondWithError(w, r, api.NewValidationError("Email already registered"))
			return
		}
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to create user"))
		return
	}

	api.RespondWithSuccess(w, http.StatusCreated, map[string]any{
		"user":               userView(user),
		"verification_token": verificationToken,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin godoc
//
//	@Summary		Authenticate and receive tokens
//	@Description	Issues an access token and a refresh token, records a session
//	@Description	and stamps last_login_at. Attempts are limited per email+IP.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Router			/auth/login [post]
func (h *Handlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := api.DecodeJSONBody(r, &req); err != nil {
		api.RespondWithError(w, r, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		api.RespondWithError(w, r, api.NewValidationError("Email and password required"))
		return
	}

	ip := clientIP(r)
	if !h.limiter.Allow(strings.ToLower(req.Email), ip) {
		h.security.RecordSecurity(r.Context(), audit.SecurityInput{
			EventType: "account_locked",
			IPAddress: ip,
			Details:   map[string]any{"email": strings.ToLower(req.Email)},
		})
		api.RespondWithError(w, r, api.NewRateLimitError("Too many login attempts"))
		return
	}

	user, err := h.queries.GetUserByEmail(r.Context(), strings.ToLower(req.Email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			h.security.RecordSecurity(r.Context(), audit.SecurityInput{
				EventType: "failed_login",
				IPAddress: ip,
				Details: map[string]any{
					"email":          strings.ToLower(req.Email),
					"failure_reason": "unknown_email",
				},
			})
			api.RespondWithError(w, r, api.NewUnauthorizedError("Invalid credentials"))
			return
		}
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to look up user"))
		return
	}

	// Soft-deleted accounts keep their hash but may not log in.
	if !auth.CheckPassword(req.Password, user.PasswordHash) || !user.IsActive {
		h.security.RecordSecurity(r.Context(), audit.SecurityInput{
			EventType: "failed_login",
			UserID:    &user.ID,
			IPAddress: ip,
			Details:   map[string]any{"email": user.Email},
		})
		api.RespondWithError(w, r, api.NewUnauthorizedError("Invalid credentials"))
		return
	}

	session, err := h.createSession(r, user.ID)
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to create session"))
		return
	}

	accessToken, err := h.tokens.IssueAccessToken(user.ID, user.Email, user.Role, session.ID)
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to issue access token"))
		return
	}
	refreshToken, err := h.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to issue refresh token"))
		return
	}

	if err := h.queries.UpdateUserLastLogin(r.Context(), user.ID); err != nil {
		reqLogger := logger.ContextRequestLogger(r.Context())
		reqLogger.Warn("failed to update last login", slog.String("error", err.Error()))
	}

	api.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"token_type":    "bearer",
		"expires_in":    int(h.tokens.AccessTokenTTL().Seconds()),
		"user":          userView(user),
	})
}

// HandleLogout godoc
//
//	@Summary	Invalidate the current session
//	@Tags		Auth
//	@Security	BearerAccessToken
//	@Produce	json
//	@Router		/auth/logout [post]
func (h *Handlers) HandleLogout(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		api.RespondWithError(w, r, api.NewUnauthorizedError("Invalid token"))
		return
	}

	if h.blacklist != nil && principal.SessionID != "" {
		if err := h.blacklist.Blacklist(r.Context(), principal.SessionID); err != nil {
			api.RespondWithError(w, r, api.WrapInternalError(err, "failed to blacklist session"))
			return
		}
	}

	if sessionID, err := uuid.Parse(principal.SessionID); err == nil {
		if err := h.queries.DeactivateSession(r.Context(), sessionID); err != nil {
			reqLogger := logger.ContextRequestLogger(r.Context())
			reqLogger.Warn("failed to deactivate session", slog.String("error", err.Error()))
		}
	}

	api.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"message": "Logged out successfully",
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// HandleRefresh godoc
//
//	@Summary		Exchange a refresh token for a new access token
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Router			/auth/refresh [post]
func (h *Handlers) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := api.DecodeJSONBody(r, &req); err != nil {
		api.RespondWithError(w, r, err)
		return
	}
	if req.RefreshToken == "" {
		api.RespondWithError(w, r, api.NewValidationError("Refresh token required"))
		return
	}

	claims, err := h.tokens.VerifyToken(r.Context(), req.RefreshToken, auth.TokenTypeRefresh)
	if err != nil {
		api.RespondWithError(w, r, api.NewUnauthorizedError("Invalid token"))
		return
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		api.RespondWithError(w, r, api.NewUnauthorizedError("Invalid token"))
		return
	}

	user, err := h.queries.GetUserByID(r.Context(), userID)
	if err != nil {
		api.RespondWithError(w, r, api.NewUnauthorizedError("Invalid credentials"))
		return
	}
	if !user.IsActive {
		api.RespondWithError(w, r, api.NewUnauthorizedError("Invalid credentials"))
		return
	}

	session, err := h.createSession(r, user.ID)
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to create session"))
		return
	}

	accessToken, err := h.tokens.IssueAccessToken(user.ID, user.Email, user.Role, session.ID)
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to issue access token"))
		return
	}

	api.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"access_token": accessToken,
		"token_type":   "bearer",
		"expires_in":   int(h.tokens.AccessTokenTTL().Seconds()),
	})
}

type verifyEmailRequest struct {
	Token string `json:"token"`
}

// HandleVerifyEmail godoc
//
//	@Summary		Confirm an email address with its verification token
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Router			/auth/verify-email [post]
func (h *Handlers) HandleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req verifyEmailRequest
	if err := api.DecodeJSONBody(r, &req); err != nil {
		api.RespondWithError(w, r, err)
		return
	}
	if req.Token == "" {
		api.RespondWithError(w, r, api.NewValidationError("Verification token required"))
		return
	}

	user, err := h.queries.VerifyUserByToken(r.Context(), req.Token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			api.RespondWithError(w, r, api.NewValidationError("Invalid verification token"))
			return
		}
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to verify email"))
		return
	}

	api.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"message": "Email verified successfully",
		"user":    userView(user),
	})
}

// HandleGetProfile godoc
//
//	@Summary	The authenticated user's profile
//	@Tags		Users
//	@Security	BearerAccessToken
//	@Produce	json
//	@Router		/users/profile [get]
func (h *Handlers) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		api.RespondWithError(w, r, api.NewUnauthorizedError("Invalid token"))
		return
	}

	user, err := h.queries.GetUserByID(r.Context(), principal.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			api.RespondWithError(w, r, api.NewNotFoundError("User not found"))
			return
		}
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to load user"))
		return
	}

	api.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"user": userView(user),
	})
}

type updateProfileRequest struct {
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`
}

// HandleUpdateProfile godoc
//
//	@Summary		Update profile fields
//	@Description	Only full_name, phone and address may be changed here.
//	@Tags			Users
//	@Security		BearerAccessToken
//	@Accept			json
//	@Produce		json
//	@Router			/users/profile [put]
func (h *Handlers) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		api.RespondWithError(w, r, api.NewUnauthorizedError("Invalid token"))
		return
	}

	var req updateProfileRequest
	if err := api.DecodeJSONBody(r, &req); err != nil {
		api.RespondWithError(w, r, err)
		return
	}

	params := database.UpdateUserProfileParams{ID: principal.UserID}
	var updatedFields []string
	if req.FullName != nil && *req.FullName != "" {
		params.FullName = req.FullName
		updatedFields = append(updatedFields, "full_name")
	}
	if req.Phone != nil {
		params.Phone = req.Phone
		updatedFields = append(updatedFields, "phone")
	}
	if req.Address != nil {
		params.Address = req.Address
		updatedFields = append(updatedFields, "address")
	}
	if len(updatedFields) == 0 {
		api.RespondWithError(w, r, api.NewValidationError("No valid fields to update"))
		return
	}

	user, err := h.queries.UpdateUserProfile(r.Context(), params)
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to update profile"))
		return
	}

	api.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"message":        "Profile updated successfully",
		"updated_fields": updatedFields,
		"user":           userView(user),
	})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// HandleChangePassword godoc
//
//	@Summary		Change the account password
//	@Tags			Users
//	@Security		BearerAccessToken
//	@Accept			json
//	@Produce		json
//	@Router			/users/change-password [post]
func (h *Handlers) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		api.RespondWithError(w, r, api.NewUnauthorizedError("Invalid token"))
		return
	}

	var req changePasswordRequest
	if err := api.DecodeJSONBody(r, &req); err != nil {
		api.RespondWithError(w, r, err)
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		api.RespondWithError(w, r, api.NewValidationError("Current and new password required"))
		return
	}
	if len(req.NewPassword) < 8 {
		api.RespondWithError(w, r, api.NewValidationError("New password too short"))
		return
	}
	if req.NewPassword == req.CurrentPassword {
		api.RespondWithError(w, r, api.NewValidationError("New password must be different"))
		return
	}

	user, err := h.queries.GetUserByID(r.Context(), principal.UserID)
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to load user"))
		return
	}
	if !auth.CheckPassword(req.CurrentPassword, user.PasswordHash) {
		api.RespondWithError(w, r, api.NewValidationError("Current password incorrect"))
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to hash password"))
		return
	}
	if err := h.queries.UpdateUserPassword(r.Context(), user.ID, hash); err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to update password"))
		return
	}

	api.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"message": "Password changed successfully",
	})
}

// HandleListSessions godoc
//
//	@Summary	Sessions recorded for the authenticated user
//	@Tags		Users
//	@Security	BearerAccessToken
//	@Produce	json
//	@Router		/users/sessions [get]
func (h *Handlers) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		api.RespondWithError(w, r, api.NewUnauthorizedError("Invalid token"))
		return
	}

	sessions, err := h.queries.ListUserSessions(r.Context(), principal.UserID)
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to list sessions"))
		return
	}

	items := make([]map[string]any, 0, len(sessions))
	for _, s := range sessions {
		items = append(items, map[string]any{
			"id":          s.ID,
			"device_info": s.DeviceInfo,
			"ip_address":  s.IPAddress,
			"is_active":   s.IsActive,
			"created_at":  s.CreatedAt,
		})
	}

	api.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"sessions": items,
	})
}

// HandleAdminListUsers godoc
//
//	@Summary		List users with filters
//	@Description	Filters: role, status, is_active, search (email or name).
//	@Tags			Admin
//	@Security		BearerAccessToken
//	@Produce		json
//	@Router			/admin/users [get]
func (h *Handlers) HandleAdminListUsers(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePagination(r)

	params := database.ListUsersParams{
		Limit:  int32(limit),
		Offset: int32((page - 1) * limit),
	}
	if v := r.URL.Query().Get("role"); v != "" {
		params.Role = &v
	}
	if v := r.URL.Query().Get("status"); v != "" {
		params.Status = &v
	}
	if v := r.URL.Query().Get("is_active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			api.RespondWithError(w, r, api.NewValidationError("is_active must be true or false"))
			return
		}
		params.IsActive = &active
	}
	if v := r.URL.Query().Get("search"); v != "" {
		params.Search = &v
	}

	users, err := h.queries.ListUsers(r.Context(), params)
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to list users"))
		return
	}
	total, err := h.queries.CountUsers(r.Context(), params)
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to count users"))
		return
	}

	items := make([]map[string]any, 0, len(users))
	for _, u := range users {
		items = append(items, userView(u))
	}

	api.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"users":      items,
		"pagination": api.NewPagination(page, limit, total),
	})
}

type setUserStatusRequest struct {
	IsActive *bool `json:"is_active"`
}

// HandleAdminSetUserStatus godoc
//
//	@Summary		Activate or deactivate an account
//	@Description	Deactivation is a soft delete: the user keeps their data but
//	@Description	cannot log in until reactivated.
//	@Tags			Admin
//	@Security		BearerAccessToken
//	@Accept			json
//	@Produce		json
//	@Router			/admin/users/{id}/status [put]
func (h *Handlers) HandleAdminSetUserStatus(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.RespondWithError(w, r, api.NewValidationError("Invalid user ID"))
		return
	}

	var req setUserStatusRequest
	if err := api.DecodeJSONBody(r, &req); err != nil {
		api.RespondWithError(w, r, err)
		return
	}
	if req.IsActive == nil {
		api.RespondWithError(w, r, api.NewValidationError("is_active field required"))
		return
	}

	user, err := h.queries.SetUserActive(r.Context(), userID, *req.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			api.RespondWithError(w, r, api.NewNotFoundError("User not found"))
			return
		}
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to update user status"))
		return
	}

	action := "deactivated"
	if user.IsActive {
		action = "activated"
	}

	api.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("User %s %s successfully", user.ID, action),
		"user":    userView(user),
	})
}

// createSession records a session row for the client making the request.
func (h *Handlers) createSession(r *http.Request, userID uuid.UUID) (database.Session, error) {
	params := database.CreateSessionParams{
		ID:     uuid.New(),
		UserID: userID,
	}
	if ua := r.UserAgent(); ua != "" {
		params.DeviceInfo = &ua
	}
	if ip := clientIP(r); ip != "" {
		params.IPAddress = &ip
	}
	return h.queries.CreateSession(r.Context(), params)
}

// userView shapes a user for API responses. Password hash and verification
// token never leave the service.
func userView(u database.User) map[string]any {
	return map[string]any{
		"id":            u.ID,
		"email":         u.Email,
		"full_name":     u.FullName,
		"phone":         u.Phone,
		"address":       u.Address,
		"date_of_birth": u.DateOfBirth,
		"role":          u.Role,
		"status":        u.Status,
		"is_active":     u.IsActive,
		"is_verified":   u.IsVerified,
		"last_login_at": u.LastLoginAt,
		"created_at":    u.CreatedAt,
	}
}

func parsePagination(r *http.Request) (page, limit int) {
	page, limit = 1, 10

	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			page = n
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 && n <= 100 {
			limit = n
		}
	}
	return page, limit
}

// clientIP prefers the X-Real-IP header set by the RealIP middleware and
// falls back to the connection address.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
