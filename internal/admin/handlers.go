package admin

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/mathservice-vn/platform/app/internal/admin/audit"
	"github.com/mathservice-vn/platform/app/internal/api"
	"github.com/mathservice-vn/platform/app/internal/auth"
	"github.com/mathservice-vn/platform/app/internal/config"
	"github.com/mathservice-vn/platform/app/internal/database"
	"github.com/mathservice-vn/platform/app/internal/logger"
	"github.com/mathservice-vn/platform/app/internal/server/middleware"
)

// Handlers carries the dependencies of the admin endpoints.
type Handlers struct {
	queries *database.Queries
	pool    *pgxpool.Pool
	redis   *redis.Client
	cfg     *config.ServerEnvironment
	health  *HealthChecker
	backups *BackupRunner

	auditSeq atomic.Int64
}

func NewHandlers(queries *database.Queries, pool *pgxpool.Pool, redisClient *redis.Client,
	cfg *config.ServerEnvironment, health *HealthChecker, backups *BackupRunner) *Handlers {
	return &Handlers{
		queries: queries,
		pool:    pool,
		redis:   redisClient,
		cfg:     cfg,
		health:  health,
		backups: backups,
	}
}

// RegisterRoutes attaches the admin routes. The health aggregate is public;
// everything else requires an admin token, and backups a super admin.
func RegisterRoutes(h *Handlers, tokens *auth.TokenService, blacklist *auth.SessionBlacklist) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/system/health", h.HandleSystemHealth)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens, blacklist, audit.NewRecorder(h.queries)))

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRoles("Admin access required", auth.RoleAdmin, auth.RoleSuperAdmin))
				r.Get("/system/metrics", h.HandleSystemMetrics)
				r.Get("/system/logs", h.HandleSystemLogs)
				r.Get("/system/backups", h.HandleListBackups)
				r.Get("/users", h.HandleListUsers)
				r.Get("/users/{id}", h.HandleGetUser)
				r.Put("/users/{id}/status", h.HandleSetUserStatus)
				r.Get("/analytics/overview", h.HandleAnalyticsOverview)
				r.Get("/analytics/revenue", h.HandleAnalyticsRevenue)
				r.Get("/audit/logs", h.HandleListAuditLogs)
				r.Get("/security/events", h.HandleListSecurityEvents)
			})

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRoles("Super admin access required", auth.RoleSuperAdmin))
				r.Post("/system/backup", h.HandleCreateBackup)
			})
		})
	}
}

// HandleSystemHealth godoc
//
//	@Summary	Aggregate health of all platform services
//	@Tags		Admin
//	@Produce	json
//	@Router		/system/health [get]
func (h *Handlers) HandleSystemHealth(w http.ResponseWriter, r *http.Request) {
	report := h.health.Check(r.Context())
	api.RespondWithSuccess(w, http.StatusOK, map[string]any{"health": report})
}

// HandleSystemMetrics godoc
//
//	@Summary	Host, application and database metrics
//	@Tags		Admin
//	@Produce	json
//	@Security	BearerAuth
//	@Router		/system/metrics [get]
func (h *Handlers) HandleSystemMetrics(w http.ResponseWriter, r *http.Request) {
	snapshot := CollectSystemMetrics(r.Context())

	appStats := middleware.Stats()
	isActive := true
	activeUsers, err := h.queries.CountUsers(r.Context(), database.ListUsersParams{IsActive: &isActive})
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to count active users"))
		return
	}

	dbBlock := map[string]any{
		"total_connections": 0,
		"active_queries":    0,
		"cache_hit_rate":    h.cacheHitRate(r),
	}
	if h.pool != nil {
		stat := h.pool.Stat()
		dbBlock["total_connections"] = stat.TotalConns()
		dbBlock["active_queries"] = stat.AcquiredConns()
	}

	api.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"metrics": map[string]any{
			"system": snapshot,
			"application": map[string]any{
				"active_users":             activeUsers,
				"requests_per_minute":      appStats.RequestsPerMinute,
				"average_response_time_ms": round2(appStats.AverageResponseTimeMS),
				"error_rate_percent":       round2(appStats.ErrorRatePercent),
			},
			"database": dbBlock,
		},
	})
}

// cacheHitRate derives the Redis keyspace hit rate from INFO stats. Returns
// zero when Redis is unavailable.
func (h *Handlers) cacheHitRate(r *http.Request) float64 {
	if h.redis == nil {
		return 0
	}
	info, err := h.redis.Info(r.Context(), "stats").Result()
	if err != nil {
		return 0
	}
	hits := parseInfoCounter(info, "keyspace_hits")
	misses := parseInfoCounter(info, "keyspace_misses")
	if hits+misses == 0 {
		return 0
	}
	return round2(float64(hits) / float64(hits+misses) * 100)
}

func parseInfoCounter(info, field string) int64 {
	for _, line := range strings.Split(info, "\r\n") {
		if v, ok := strings.CutPrefix(line, field+":"); ok {
			n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
			if err == nil {
				return n
			}
		}
	}
	return 0
}

// HandleSystemLogs godoc
//
//	@Summary	System event log with severity/component filters
//	@Tags		Admin
//	@Produce	json
//	@Security	BearerAuth
//	@Param		severity	query	string	false	"debug|info|warning|error|critical"
//	@Param		component	query	string	false	"component filter"
//	@Router		/system/logs [get]
func (h *Handlers) HandleSystemLogs(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePagination(r)

	params := database.ListSystemEventsParams{
		Limit:  int32(limit),
		Offset: int32((page - 1) * limit),
	}
	if v := r.URL.Query().Get("severity"); v != "" {
		params.Severity = &v
	}
	if v := r.URL.Query().Get("component"); v != "" {
		params.Component = &v
	}

	events, err := h.queries.ListSystemEvents(r.Context(), params)
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to list system events"))
		return
	}
	total, err := h.queries.CountSystemEvents(r.Context(), params)
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to count system events"))
		return
	}

	items := make([]map[string]any, 0, len(events))
	for _, e := range events {
		items = append(items, map[string]any{
			"id":             e.ID,
			"event_type":     e.EventType,
			"severity":       e.Severity,
			"component":      e.Component,
			"message":        e.Message,
			"metadata":       jsonMap(e.Metadata),
			"requires_alert": e.RequiresAlert,
			"created_at":     e.CreatedAt,
		})
	}
	api.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"logs":       items,
		"pagination": api.NewPagination(page, limit, total),
	})
}

// HandleListUsers godoc
//
//	@Summary	User administration list
//	@Tags		Admin
//	@Produce	json
//	@Security	BearerAuth
//	@Param		role	query	string	false	"role filter"
//	@Param		status	query	string	false	"status filter"
//	@Param		search	query	string	false	"email/name substring"
//	@Router		/users [get]
func (h *Handlers) HandleListUsers(w http.ResponseWriter, r *http.Request) {
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
		items = append(items, adminUserView(u))
	}
	api.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"users":      items,
		"pagination": api.NewPagination(page, limit, total),
	})
}

// HandleGetUser godoc
//
//	@Summary	User detail with subscription, statistics and recent activity
//	@Tags		Admin
//	@Produce	json
//	@Security	BearerAuth
//	@Router		/users/{id} [get]
func (h *Handlers) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.RespondWithError(w, r, api.NewValidationError("Invalid user ID"))
		return
	}

	user, err := h.queries.GetUserByID(r.Context(), id)
	if errors.Is(err, pgx.ErrNoRows) {
		api.RespondWithError(w, r, api.NewNotFoundError("User not found"))
		return
	}
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to load user"))
		return
	}

	view := adminUserView(user)
	view["subscription"] = map[string]any{
		"plan":   planForRole(user.Role),
		"status": user.Status,
	}

	stats, err := h.queries.GetUserSolveStats(r.Context(), id)
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to load user statistics"))
		return
	}
	view["statistics"] = map[string]any{
		"problems_solved":          stats.TotalSolved,
		"average_solving_time_ms":  round2(stats.AvgTimeMs),
		"success_rate_percent":     round2(stats.SuccessRate),
		"problems_by_type":         stats.CountsByType,
		"active_days":              stats.ActiveDays,
		"days_since_last_activity": stats.LastSolveDays,
	}

	recent, err := h.queries.ListAuditLogs(r.Context(), database.ListAuditLogsParams{
		UserID: &id,
		Limit:  5,
	})
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to load recent activity"))
		return
	}
	activity := make([]map[string]any, 0, len(recent))
	for _, a := range recent {
		activity = append(activity, map[string]any{
			"action":     a.Action,
			"resource":   a.Resource,
			"risk_level": a.RiskLevel,
			"created_at": a.CreatedAt,
		})
	}
	view["recent_activity"] = activity

	api.RespondWithSuccess(w, http.StatusOK, map[string]any{"user": view})
}

var validUserStatuses = map[string]bool{
	"active":    true,
	"suspended": true,
	"banned":    true,
}

// HandleSetUserStatus godoc
//
//	@Summary	Set a user's moderation status
//	@Tags		Admin
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Router		/users/{id}/status [put]
func (h *Handlers) HandleSetUserStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.RespondWithError(w, r, api.NewValidationError("Invalid user ID"))
		return
	}

	var req struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	}
	if err := api.DecodeJSONBody(r, &req); err != nil {
		api.RespondWithError(w, r, err)
		return
	}
	if !validUserStatuses[req.Status] {
		api.RespondWithError(w, r, api.NewValidationError("Invalid status"))
		return
	}

	user, err := h.queries.SetUserStatus(r.Context(), id, req.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		api.RespondWithError(w, r, api.NewNotFoundError("User not found"))
		return
	}
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to update user status"))
		return
	}

	details := map[string]any{"new_status": req.Status}
	if req.Reason != "" {
		details["reason"] = req.Reason
	}
	if principal, ok := auth.PrincipalFromContext(r.Context()); ok {
		details["updated_by"] = principal.UserID.String()
	}
	h.recordActivity(r, audit.ActivityInput{
		UserID:     id,
		Action:     "update_user",
		Resource:   "user",
		ResourceID: id.String(),
		Details:    details,
	})

	api.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"user":    adminUserView(user),
		"message": fmt.Sprintf("User status updated to %s", req.Status),
	})
}

// HandleAnalyticsOverview godoc
//
//	@Summary	Platform-wide analytics overview
//	@Tags		Admin
//	@Produce	json
//	@Security	BearerAuth
//	@Router		/analytics/overview [get]
func (h *Handlers) HandleAnalyticsOverview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := time.Now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	totalUsers, err := h.queries.CountUsers(ctx, database.ListUsersParams{})
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to count users"))
		return
	}
	newToday, err := h.queries.CountUsersSince(ctx, midnight)
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to count new users"))
		return
	}
	newThisWeek, err := h.queries.CountUsersSince(ctx, now.AddDate(0, 0, -7))
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to count new users"))
		return
	}
	byRole, err := h.queries.CountUsersByRole(ctx)
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to count users by role"))
		return
	}

	txStats, err := h.queries.GetTransactionStats(ctx)
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to load transaction stats"))
		return
	}

	articlesByStatus, err := h.queries.CountArticlesByStatus(ctx)
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to count articles"))
		return
	}
	var totalArticles int64
	for _, n := range articlesByStatus {
		totalArticles += n
	}

	solvedToday, err := h.queries.CountSolvesSince(ctx, 1)
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to count solves"))
		return
	}
	solvedThisWeek, err := h.queries.CountSolvesSince(ctx, 7)
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to count solves"))
		return
	}

	appStats := middleware.Stats()

	api.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"overview": map[string]any{
			"users": map[string]any{
				"total":         totalUsers,
				"new_today":     newToday,
				"new_this_week": newThisWeek,
				"by_role":       byRole,
			},
			"revenue": map[string]any{
				"total_vnd":               txStats.TotalAmount,
				"average_transaction_vnd": txStats.AverageAmount,
				"completed_transactions":  txStats.CompletedCount,
				"pending_transactions":    txStats.PendingCount,
				"failed_transactions":     txStats.FailedCount,
			},
			"content": map[string]any{
				"total_articles":     totalArticles,
				"articles_by_status": articlesByStatus,
			},
			"math_solver": map[string]any{
				"problems_solved_today":     solvedToday,
				"problems_solved_this_week": solvedThisWeek,
			},
			"system_performance": map[string]any{
				"requests_per_minute":      appStats.RequestsPerMinute,
				"average_response_time_ms": round2(appStats.AverageResponseTimeMS),
				"error_rate_percent":       round2(appStats.ErrorRatePercent),
			},
		},
	})
}

// HandleAnalyticsRevenue godoc
//
//	@Summary	Revenue breakdown for a period
//	@Tags		Admin
//	@Produce	json
//	@Security	BearerAuth
//	@Param		period	query	string	false	"month (default) or week"
//	@Router		/analytics/revenue [get]
func (h *Handlers) HandleAnalyticsRevenue(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "month"
	}

	var from time.Time
	switch period {
	case "month":
		from = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	case "week":
		from = now.AddDate(0, 0, -7)
	default:
		api.RespondWithSuccess(w, http.StatusOK, map[string]any{
			"revenue": map[string]any{
				"period":          period,
				"total_vnd":       0,
				"daily":           []any{},
				"by_method":       []any{},
				"by_subscription": []any{},
			},
			"message": "No data available for this period",
		})
		return
	}

	daily, err := h.queries.GetDailyRevenue(r.Context(), from, now)
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to load daily revenue"))
		return
	}
	byMethod, err := h.queries.GetRevenueByMethod(r.Context(), from, now)
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to load revenue by method"))
		return
	}
	byPlan, err := h.queries.GetRevenueByPlan(r.Context(), from, now)
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to load revenue by plan"))
		return
	}

	dailyRows := make([]map[string]any, 0, len(daily))
	totalVND := int64(0)
	for _, d := range daily {
		dailyRows = append(dailyRows, map[string]any{
			"date":         d.Day.Format("2006-01-02"),
			"transactions": d.Count,
			"amount_vnd":   d.TotalAmount,
		})
		totalVND += d.TotalAmount.IntPart()
	}
	methodRows := make([]map[string]any, 0, len(byMethod))
	for _, m := range byMethod {
		methodRows = append(methodRows, map[string]any{
			"payment_method": m.PaymentMethod,
			"transactions":   m.Count,
			"amount_vnd":     m.TotalAmount,
		})
	}
	planRows := make([]map[string]any, 0, len(byPlan))
	for _, p := range byPlan {
		planRows = append(planRows, map[string]any{
			"plan":         p.Plan,
			"transactions": p.Count,
			"amount_vnd":   p.TotalAmount,
		})
	}

	api.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"revenue": map[string]any{
			"period":          period,
			"from":            from,
			"to":              now,
			"total_vnd":       totalVND,
			"daily":           dailyRows,
			"by_method":       methodRows,
			"by_subscription": planRows,
		},
	})
}

// HandleListAuditLogs godoc
//
//	@Summary	Audit trail with action/user/date filters
//	@Tags		Admin
//	@Produce	json
//	@Security	BearerAuth
//	@Param		action	query	string	false	"action filter"
//	@Param		user_id	query	string	false	"user id filter"
//	@Param		from	query	string	false	"RFC3339 lower bound"
//	@Param		to		query	string	false	"RFC3339 upper bound"
//	@Router		/audit/logs [get]
func (h *Handlers) HandleListAuditLogs(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePagination(r)

	params := database.ListAuditLogsParams{
		Limit:  int32(limit),
		Offset: int32((page - 1) * limit),
	}
	if v := r.URL.Query().Get("action"); v != "" {
		params.Action = &v
	}
	if v := r.URL.Query().Get("user_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			api.RespondWithError(w, r, api.NewValidationError("Invalid user ID"))
			return
		}
		params.UserID = &id
	}
	if v := r.URL.Query().Get("from"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			api.RespondWithError(w, r, api.NewValidationError("Invalid from date"))
			return
		}
		params.From = &ts
	}
	if v := r.URL.Query().Get("to"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			api.RespondWithError(w, r, api.NewValidationError("Invalid to date"))
			return
		}
		params.To = &ts
	}

	logs, err := h.queries.ListAuditLogs(r.Context(), params)
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to list audit logs"))
		return
	}
	total, err := h.queries.CountAuditLogs(r.Context(), params)
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to count audit logs"))
		return
	}

	items := make([]map[string]any, 0, len(logs))
	for _, a := range logs {
		items = append(items, map[string]any{
			"audit_id":       a.AuditID,
			"user_id":        a.UserID,
			"action":         a.Action,
			"resource":       a.Resource,
			"risk_level":     a.RiskLevel,
			"details":        jsonMap(a.Details),
			"ip_address":     a.IPAddress,
			"integrity_hash": a.IntegrityHash,
			"created_at":     a.CreatedAt,
		})
	}
	api.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"audit_logs": items,
		"pagination": api.NewPagination(page, limit, total),
	})
}

// HandleListSecurityEvents godoc
//
//	@Summary	Security events with severity filter and summary counts
//	@Tags		Admin
//	@Produce	json
//	@Security	BearerAuth
//	@Param		severity	query	string	false	"severity filter"
//	@Param		category	query	string	false	"category filter"
//	@Router		/security/events [get]
func (h *Handlers) HandleListSecurityEvents(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePagination(r)

	params := database.ListSecurityEventsParams{
		Limit:  int32(limit),
		Offset: int32((page - 1) * limit),
	}
	if v := r.URL.Query().Get("severity"); v != "" {
		params.Severity = &v
	}
	if v := r.URL.Query().Get("category"); v != "" {
		params.Category = &v
	}

	events, err := h.queries.ListSecurityEvents(r.Context(), params)
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to list security events"))
		return
	}
	summary, err := h.queries.CountSecurityEventsBySeverity(r.Context())
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to count security events"))
		return
	}
	var total int64
	for _, n := range summary {
		total += n
	}

	items := make([]map[string]any, 0, len(events))
	for _, e := range events {
		items = append(items, map[string]any{
			"id":                     e.ID,
			"event_type":             e.EventType,
			"category":               e.Category,
			"severity":               e.Severity,
			"user_id":                e.UserID,
			"ip_address":             e.IPAddress,
			"details":                jsonMap(e.Details),
			"compliance_tags":        e.ComplianceTags,
			"requires_investigation": e.RequiresInvestigation,
			"created_at":             e.CreatedAt,
		})
	}
	api.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"events":     items,
		"summary":    summary,
		"pagination": api.NewPagination(page, limit, total),
	})
}

// HandleCreateBackup godoc
//
//	@Summary	Start a platform backup
//	@Tags		Admin
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Router		/system/backup [post]
func (h *Handlers) HandleCreateBackup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BackupType string `json:"backup_type"`
	}
	if err := api.DecodeJSONBody(r, &req); err != nil {
		api.RespondWithError(w, r, err)
		return
	}
	if !ValidBackupType(req.BackupType) {
		api.RespondWithError(w, r, api.NewValidationError("Invalid backup type"))
		return
	}

	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		api.RespondWithError(w, r, api.NewUnauthorizedError("Invalid token"))
		return
	}

	record, err := h.backups.Start(r.Context(), req.BackupType, principal.UserID)
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to start backup"))
		return
	}

	estimated, err := h.queries.DatabaseSizeBytes(r.Context())
	if err != nil {
		estimated = 0
	}

	h.recordActivity(r, audit.ActivityInput{
		UserID:     principal.UserID,
		Action:     "system_config_change",
		Resource:   "backup",
		ResourceID: record.ID.String(),
		Details:    map[string]any{"backup_type": req.BackupType},
	})

	api.RespondWithSuccess(w, http.StatusAccepted, map[string]any{
		"backup": map[string]any{
			"id":                record.ID,
			"backup_type":       record.BackupType,
			"status":            record.Status,
			"estimated_size_mb": round2(float64(estimated) / (1 << 20)),
			"retention_until":   record.RetentionUntil,
			"created_at":        record.CreatedAt,
		},
		"message": "Backup started successfully",
	})
}

// HandleListBackups godoc
//
//	@Summary	List backup jobs
//	@Tags		Admin
//	@Produce	json
//	@Security	BearerAuth
//	@Router		/system/backups [get]
func (h *Handlers) HandleListBackups(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePagination(r)

	backups, err := h.queries.ListBackups(r.Context(), int32(limit), int32((page-1)*limit))
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to list backups"))
		return
	}

	items := make([]map[string]any, 0, len(backups))
	for _, b := range backups {
		items = append(items, map[string]any{
			"id":              b.ID,
			"backup_type":     b.BackupType,
			"status":          b.Status,
			"size_bytes":      b.SizeBytes,
			"location":        b.Location,
			"initiated_by":    b.InitiatedBy,
			"retention_until": b.RetentionUntil,
			"created_at":      b.CreatedAt,
			"completed_at":    b.CompletedAt,
		})
	}
	api.RespondWithSuccess(w, http.StatusOK, map[string]any{"backups": items})
}

// enrichActivityInput fills the request-derived audit fields: session from
// the authenticated principal, caller address, user agent and request ID.
func enrichActivityInput(r *http.Request, in audit.ActivityInput) audit.ActivityInput {
	if principal, ok := auth.PrincipalFromContext(r.Context()); ok {
		in.SessionID = principal.SessionID
	}
	in.IPAddress = r.RemoteAddr
	in.UserAgent = r.UserAgent()
	in.RequestID = chimiddleware.GetReqID(r.Context())
	return in
}

// recordActivity persists an audit entry for an admin action. Failures are
// logged, never surfaced to the caller.
func (h *Handlers) recordActivity(r *http.Request, in audit.ActivityInput) {
	ctx := r.Context()

	in = enrichActivityInput(r, in)

	activity, err := audit.NewActivity(time.Now(), h.auditSeq.Add(1), in)
	if err != nil {
		logger.ContextRequestLogger(ctx).Warn("failed to build audit record", slog.String("error", err.Error()))
		return
	}
	details, err := json.Marshal(activity.Details)
	if err != nil {
		logger.ContextRequestLogger(ctx).Warn("failed to marshal audit details", slog.String("error", err.Error()))
		return
	}
	_, err = h.queries.CreateAuditLog(ctx, database.CreateAuditLogParams{
		AuditID:       activity.AuditID,
		UserID:        activity.UserID,
		Action:        activity.Action,
		Resource:      activity.Resource,
		RiskLevel:     activity.RiskLevel,
		Details:       details,
		IPAddress:     in.IPAddress,
		UserAgent:     in.UserAgent,
		IntegrityHash: activity.IntegrityHash,
	})
	if err != nil {
		logger.ContextRequestLogger(ctx).Warn("failed to store audit record", slog.String("error", err.Error()))
	}
}

// adminUserView is the user shape returned by the admin endpoints. Credentials
// never leave the service.
func adminUserView(u database.User) map[string]any {
	return map[string]any{
		"id":            u.ID,
		"email":         u.Email,
		"full_name":     u.FullName,
		"role":          u.Role,
		"status":        u.Status,
		"is_active":     u.IsActive,
		"is_verified":   u.IsVerified,
		"last_login_at": u.LastLoginAt,
		"created_at":    u.CreatedAt,
	}
}

func planForRole(role string) string {
	switch role {
	case auth.RolePremiumUser, auth.RoleAdmin, auth.RoleSuperAdmin:
		return "premium"
	default:
		return "free"
	}
}

func jsonMap(raw []byte) map[string]any {
	if len(raw) == 0 {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return map[string]any{}
	}
	return m
}

func parsePagination(r *http.Request) (page, limit int) {
	page, limit = 1, 10
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v >= 1 {
		page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v >= 1 && v <= 100 {
		limit = v
	}
	return page, limit
}
