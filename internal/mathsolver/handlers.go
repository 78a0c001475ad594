// Package mathsolver provides the HTTP layer of the math-solver
// service: request decoding, premium gating, history recording and the
// wiring of the pure solver engines (algebra, calculus, geometry,
// statistics) to their endpoints.
package mathsolver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mathservice-vn/platform/app/internal/admin/audit"
	"github.com/mathservice-vn/platform/app/internal/api"
	"github.com/mathservice-vn/platform/app/internal/auth"
	"github.com/mathservice-vn/platform/app/internal/database"
	"github.com/mathservice-vn/platform/app/internal/logger"
	"github.com/mathservice-vn/platform/app/internal/mathsolver/algebra"
	"github.com/mathservice-vn/platform/app/internal/mathsolver/calculus"
	"github.com/mathservice-vn/platform/app/internal/mathsolver/geometry"
	"github.com/mathservice-vn/platform/app/internal/mathsolver/statistics"
)

// Handlers carries the dependencies of the math-solver endpoints.
type Handlers struct {
	queries *database.Queries
}

func NewHandlers(queries *database.Queries) *Handlers {
	return &Handlers{queries: queries}
}

// RegisterRoutes attaches the math-solver routes. /validate is public;
// everything else requires an access token.
func RegisterRoutes(h *Handlers, tokens *auth.TokenService, blacklist *auth.SessionBlacklist) func(chi.Router) {
	return func(r chi.Router) {
		r.Post("/validate", h.HandleValidate)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens, blacklist, audit.NewRecorder(h.queries)))

			r.Post("/algebra/solve", h.HandleSolveAlgebra)
			r.Post("/algebra/solve-system", h.HandleSolveSystem)
			r.Post("/calculus/derivative", h.HandleDerivative)
			r.Post("/calculus/integral", h.HandleIntegral)
			r.Post("/calculus/limit", h.HandleLimit)
			r.Post("/geometry/area", h.HandleGeometryArea)
			r.Post("/statistics/analyze", h.HandleStatisticsAnalyze)
			r.Get("/history", h.HandleHistory)
			r.Get("/statistics/user", h.HandleUserStats)
		})
	}
}

// recordHistory inserts a solver_history row. Failures are logged and
// never surfaced: a solved problem should not 500 because the history
// insert lost a race with a restart.
func (h *Handlers) recordHistory(ctx context.Context, problemType, input, summary string, elapsedMS float64, success bool) {
	principal, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		return
	}
	_, err := h.queries.CreateSolveRecord(ctx, database.CreateSolveRecordParams{
		UserID:        principal.UserID,
		ProblemType:   problemType,
		Input:         input,
		ResultSummary: summary,
		SolvingTimeMs: elapsedMS,
		Success:       success,
	})
	if err != nil {
		logger.ContextRequestLogger(ctx).Warn("failed to record solve history",
			slog.String("problem_type", problemType),
			slog.String("error", err.Error()),
		)
	}
}

func elapsedMS(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}

type solveRequest struct {
	Equation string `json:"equation"`
	Variable string `json:"variable"`
}

// HandleSolveAlgebra godoc
//
//	@Summary		Solve an algebraic equation
//	@Description	Solves linear, quadratic, cubic and quartic equations with worked steps.
//	@Description	Cubic and higher degrees require a premium subscription.
//	@Tags			Algebra
//	@Security		BearerAccessToken
//	@Accept			json
//	@Produce		json
//	@Param			request	body		solveRequest	true	"equation to solve"
//	@Success		200		{object}	map[string]any	"solution"
//	@Failure		400		{object}	api.ErrorResponse
//	@Failure		403		{object}	api.ErrorResponse
//	@Router			/algebra/solve [post]
func (h *Handlers) HandleSolveAlgebra(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req solveRequest
	if err := api.DecodeJSONBody(r, &req); err != nil {
		api.RespondWithError(w, r, err)
		return
	}

	// Step 1. Validate the request.
	if req.Equation == "" {
		api.RespondWithError(w, r, api.NewValidationError("Equation is required"))
		return
	}
	if req.Variable == "" {
		req.Variable = "x"
	}

	// Step 2. Determine the degree so the right solver (and the premium
	// gate) applies.
	coeffs, err := algebra.ParseEquation(req.Equation, req.Variable)
	if err != nil {
		api.RespondWithError(w, r, api.NewValidationError(err.Error()))
		return
	}
	degree := coeffs.Degree()

	if degree >= 3 {
		principal, _ := auth.PrincipalFromContext(r.Context())
		if !principal.IsPremium() {
			api.RespondWithError(w, r, api.NewForbiddenError("Premium subscription required for cubic equations"))
			return
		}
	}

	problem := map[string]any{
		"equation": req.Equation,
		"variable": req.Variable,
	}

	// Step 3. Solve by degree.
	var solution map[string]any
	var summary string
	var problemType string

	switch degree {
	case 0, 1:
		problemType = "linear"
		result, err := algebra.SolveLinear(req.Equation, req.Variable)
		if err != nil {
			api.RespondWithError(w, r, api.NewValidationError(err.Error()))
			return
		}
		solution = map[string]any{
			"solution_type": result.SolutionType,
			"steps":         result.Steps,
		}
		if result.SolutionType == "solved" {
			solution["value"] = result.Value
			solution["verification"] = result.Steps[len(result.Steps)-1]
			summary = fmt.Sprintf("%s = %g", req.Variable, result.Value)
		} else {
			solution["message"] = result.Message
			solution["is_valid"] = false
			summary = result.SolutionType
		}

	case 2:
		problemType = "quadratic"
		result, err := algebra.SolveQuadratic(req.Equation, req.Variable)
		if err != nil {
			api.RespondWithError(w, r, api.NewValidationError(err.Error()))
			return
		}
		solution = map[string]any{
			"root_type":    result.RootType,
			"discriminant": result.Discriminant,
			"steps":        result.Steps,
		}
		if result.RootType == "complex" {
			solution["values"] = result.ComplexRoots
		} else {
			solution["values"] = result.Roots
		}
		summary = result.RootType

	case 3, 4:
		problemType = "cubic"
		solve := algebra.SolveCubic
		if degree == 4 {
			problemType = "quartic"
			solve = algebra.SolveQuartic
		}
		result, err := solve(req.Equation, req.Variable)
		if err != nil {
			api.RespondWithError(w, r, api.NewValidationError(err.Error()))
			return
		}
		solution = map[string]any{
			"values": result.Roots,
			"steps":  result.Steps,
		}
		if len(result.ComplexRoots) > 0 {
			solution["complex_values"] = result.ComplexRoots
		}
		summary = fmt.Sprintf("%d real roots", len(result.Roots))

	default:
		api.RespondWithError(w, r, api.NewValidationError(
			fmt.Sprintf("Equations of degree %d are not supported", degree)))
		return
	}

	problem["type"] = problemType
	elapsed := elapsedMS(start)
	h.recordHistory(r.Context(), problemType, req.Equation, summary, elapsed, true)

	api.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"problem":         problem,
		"solution":        solution,
		"solving_time_ms": elapsed,
	})
}

type solveSystemRequest struct {
	Equations []string `json:"equations"`
}

// HandleSolveSystem godoc
//
//	@Summary	Solve a system of linear equations
//	@Tags		Algebra
//	@Security	BearerAccessToken
//	@Accept		json
//	@Produce	json
//	@Router		/algebra/solve-system [post]
func (h *Handlers) HandleSolveSystem(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req solveSystemRequest
	if err := api.DecodeJSONBody(r, &req); err != nil {
		api.RespondWithError(w, r, err)
		return
	}
	if len(req.Equations) == 0 {
		api.RespondWithError(w, r, api.NewValidationError("Equations are required"))
		return
	}

	result, err := algebra.SolveSystem(req.Equations)
	if err != nil {
		api.RespondWithError(w, r, api.NewValidationError(err.Error()))
		return
	}

	solution := map[string]any{
		"solution_type": result.SolutionType,
		"steps":         result.Steps,
	}
	if result.SolutionType == "solved" {
		solution["values"] = result.Values
	} else {
		solution["message"] = result.Message
	}

	elapsed := elapsedMS(start)
	h.recordHistory(r.Context(), "system", fmt.Sprintf("%v", req.Equations), result.SolutionType, elapsed, true)

	api.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"problem": map[string]any{
			"equations": req.Equations,
			"type":      "system",
		},
		"solution":        solution,
		"solving_time_ms": elapsed,
	})
}

type calculusRequest struct {
	Expression  string  `json:"expression"`
	Variable    string  `json:"variable"`
	Type        string  `json:"type"`
	Limits      *bounds `json:"limits"`
	Approaching string  `json:"approaching"`
	Direction   string  `json:"direction"`
}

type bounds struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// HandleDerivative godoc
//
//	@Summary	Differentiate an expression
//	@Tags		Calculus
//	@Security	BearerAccessToken
//	@Accept		json
//	@Produce	json
//	@Router		/calculus/derivative [post]
func (h *Handlers) HandleDerivative(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req calculusRequest
	if err := api.DecodeJSONBody(r, &req); err != nil {
		api.RespondWithError(w, r, err)
		return
	}
	if req.Expression == "" {
		api.RespondWithError(w, r, api.NewValidationError("Expression is required"))
		return
	}
	if req.Variable == "" {
		req.Variable = "x"
	}

	result, err := calculus.Differentiate(req.Expression, req.Variable)
	if err != nil {
		api.RespondWithError(w, r, api.NewValidationError(err.Error()))
		return
	}

	elapsed := elapsedMS(start)
	h.recordHistory(r.Context(), "derivative", req.Expression, result.Derivative, elapsed, true)

	api.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"problem": map[string]any{
			"expression": req.Expression,
			"variable":   req.Variable,
			"type":       "derivative",
		},
		"solution": map[string]any{
			"derivative": result.Derivative,
			"steps":      result.Steps,
			"rule":       result.Rule,
		},
		"solving_time_ms": elapsed,
	})
}

// HandleIntegral godoc
//
//	@Summary	Integrate an expression
//	@Description	Indefinite by default; definite when type is "definite" and limits are supplied.
//	@Tags		Calculus
//	@Security	BearerAccessToken
//	@Accept		json
//	@Produce	json
//	@Router		/calculus/integral [post]
func (h *Handlers) HandleIntegral(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req calculusRequest
	if err := api.DecodeJSONBody(r, &req); err != nil {
		api.RespondWithError(w, r, err)
		return
	}
	if req.Expression == "" {
		api.RespondWithError(w, r, api.NewValidationError("Expression is required"))
		return
	}
	if req.Variable == "" {
		req.Variable = "x"
	}

	definite := req.Type == "definite"
	if definite && req.Limits == nil {
		api.RespondWithError(w, r, api.NewValidationError("Limits required for definite integral"))
		return
	}

	var result *calculus.IntegralResult
	var err error
	if definite {
		result, err = calculus.IntegrateDefinite(req.Expression, req.Variable, req.Limits.Lower, req.Limits.Upper)
	} else {
		result, err = calculus.Integrate(req.Expression, req.Variable)
	}
	if err != nil {
		api.RespondWithError(w, r, api.NewValidationError(err.Error()))
		return
	}

	solution := map[string]any{
		"steps":           result.Steps,
		"has_closed_form": result.HasClosedForm,
	}
	summary := "no closed form"
	if result.HasClosedForm {
		if definite {
			solution["definite_value"] = *result.DefiniteValue
			solution["antiderivative"] = result.Antiderivative
			summary = fmt.Sprintf("= %g", *result.DefiniteValue)
		} else {
			solution["integral"] = result.Antiderivative + " + C"
			summary = result.Antiderivative + " + C"
		}
	}

	elapsed := elapsedMS(start)
	h.recordHistory(r.Context(), "integral", req.Expression, summary, elapsed, result.HasClosedForm)

	api.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"problem": map[string]any{
			"expression": req.Expression,
			"variable":   req.Variable,
			"type":       "integral",
		},
		"solution":        solution,
		"solving_time_ms": elapsed,
	})
}

// HandleLimit godoc
//
//	@Summary	Evaluate a limit
//	@Tags		Calculus
//	@Security	BearerAccessToken
//	@Accept		json
//	@Produce	json
//	@Router		/calculus/limit [post]
func (h *Handlers) HandleLimit(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req calculusRequest
	if err := api.DecodeJSONBody(r, &req); err != nil {
		api.RespondWithError(w, r, err)
		return
	}
	if req.Expression == "" {
		api.RespondWithError(w, r, api.NewValidationError("Expression is required"))
		return
	}
	if req.Variable == "" {
		req.Variable = "x"
	}
	if req.Direction == "" {
		req.Direction = "both"
	}
	if req.Direction != "both" && req.Direction != "left" && req.Direction != "right" {
		api.RespondWithError(w, r, api.NewValidationError("Direction must be both, left or right"))
		return
	}

	target, _, err := calculus.ParseApproach(req.Approaching)
	if err != nil {
		api.RespondWithError(w, r, api.NewValidationError(err.Error()))
		return
	}

	result, err := calculus.Limit(req.Expression, req.Variable, target, req.Direction)
	if err != nil {
		api.RespondWithError(w, r, api.NewValidationError(err.Error()))
		return
	}

	solution := map[string]any{
		"exists":    result.Exists,
		"technique": result.Technique,
		"steps":     result.Steps,
	}
	summary := "does not exist"
	if result.Exists {
		solution["value"] = result.Value
		summary = fmt.Sprintf("= %g", result.Value)
	}
	if result.IsInfinite {
		solution["is_infinite"] = true
		solution["sign"] = result.Sign
		summary = "infinite"
	}

	elapsed := elapsedMS(start)
	h.recordHistory(r.Context(), "limit", req.Expression, summary, elapsed, true)

	api.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"problem": map[string]any{
			"expression":  req.Expression,
			"variable":    req.Variable,
			"approaching": req.Approaching,
			"direction":   req.Direction,
			"type":        "limit",
		},
		"solution":        solution,
		"solving_time_ms": elapsed,
	})
}

type geometryRequest struct {
	Shape  string   `json:"shape"`
	Width  *float64 `json:"width"`
	Height *float64 `json:"height"`
	Radius *float64 `json:"radius"`
	Base   *float64 `json:"base"`
}

// HandleGeometryArea godoc
//
//	@Summary	Compute the area of a shape
//	@Tags		Geometry
//	@Security	BearerAccessToken
//	@Accept		json
//	@Produce	json
//	@Router		/geometry/area [post]
func (h *Handlers) HandleGeometryArea(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req geometryRequest
	if err := api.DecodeJSONBody(r, &req); err != nil {
		api.RespondWithError(w, r, err)
		return
	}
	if req.Shape == "" {
		api.RespondWithError(w, r, api.NewValidationError("Shape is required"))
		return
	}

	var result *geometry.AreaResult
	var err error
	switch req.Shape {
	case "rectangle":
		if req.Width == nil || req.Height == nil {
			api.RespondWithError(w, r, api.NewValidationError("Width and height required for rectangle"))
			return
		}
		result, err = geometry.RectangleArea(*req.Width, *req.Height)
	case "circle":
		if req.Radius == nil {
			api.RespondWithError(w, r, api.NewValidationError("Radius required for circle"))
			return
		}
		result, err = geometry.CircleArea(*req.Radius)
	case "triangle":
		if req.Base == nil || req.Height == nil {
			api.RespondWithError(w, r, api.NewValidationError("Base and height required for triangle"))
			return
		}
		result, err = geometry.TriangleArea(*req.Base, *req.Height)
	default:
		api.RespondWithError(w, r, api.NewValidationError("Unsupported shape"))
		return
	}
	if err != nil {
		api.RespondWithError(w, r, api.NewValidationError(err.Error()))
		return
	}

	elapsed := elapsedMS(start)
	h.recordHistory(r.Context(), "geometry", req.Shape, fmt.Sprintf("area = %g", result.Area), elapsed, true)

	api.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"shape":           result.Shape,
		"area":            result.Area,
		"formula":         result.Formula,
		"inputs":          result.Inputs,
		"solving_time_ms": elapsed,
	})
}

type statisticsRequest struct {
	Data         []float64 `json:"data"`
	AnalysisType string    `json:"analysis_type"`
}

// HandleStatisticsAnalyze godoc
//
//	@Summary	Descriptive statistics over a numeric sample
//	@Tags		Statistics
//	@Security	BearerAccessToken
//	@Accept		json
//	@Produce	json
//	@Router		/statistics/analyze [post]
func (h *Handlers) HandleStatisticsAnalyze(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req statisticsRequest
	if err := api.DecodeJSONBody(r, &req); err != nil {
		api.RespondWithError(w, r, err)
		return
	}
	if req.Data == nil {
		api.RespondWithError(w, r, api.NewValidationError("Data array is required"))
		return
	}
	if len(req.Data) == 0 {
		api.RespondWithError(w, r, api.NewValidationError("Data array cannot be empty"))
		return
	}
	if req.AnalysisType == "" {
		req.AnalysisType = "descriptive"
	}
	if req.AnalysisType != "descriptive" {
		api.RespondWithError(w, r, api.NewValidationError("Unsupported analysis type"))
		return
	}

	result, err := statistics.Describe(req.Data)
	if err != nil {
		api.RespondWithError(w, r, api.NewValidationError(err.Error()))
		return
	}

	elapsed := elapsedMS(start)
	h.recordHistory(r.Context(), "statistics", fmt.Sprintf("%d values", len(req.Data)),
		fmt.Sprintf("mean = %g", result.Mean), elapsed, true)

	api.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"analysis_type":   req.AnalysisType,
		"statistics":      result,
		"solving_time_ms": elapsed,
	})
}

type validateRequest struct {
	Expression string `json:"expression"`
}

// HandleValidate godoc
//
//	@Summary		Validate an expression or equation
//	@Description	Public endpoint: checks syntax and estimates solving complexity without solving.
//	@Tags			Solver
//	@Accept			json
//	@Produce		json
//	@Router			/validate [post]
func (h *Handlers) HandleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := api.DecodeJSONBody(r, &req); err != nil {
		api.RespondWithError(w, r, err)
		return
	}
	if req.Expression == "" {
		api.RespondWithError(w, r, api.NewValidationError("Expression is required"))
		return
	}

	v := algebra.Validate(req.Expression)
	if !v.IsValid {
		api.RespondWithSuccess(w, http.StatusOK, map[string]any{
			"validation": map[string]any{
				"is_valid":    false,
				"errors":      v.Errors,
				"suggestions": v.Suggestions,
			},
		})
		return
	}

	api.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"validation": map[string]any{
			"is_valid":                  true,
			"complexity":                v.Complexity,
			"estimated_solving_time_ms": v.EstimatedTimeMS,
			"operations":                v.Operations,
			"supported_operations":      []string{"solve", "simplify", "evaluate"},
		},
	})
}

// HandleHistory godoc
//
//	@Summary	Solve history for the current user
//	@Tags		Solver
//	@Security	BearerAccessToken
//	@Produce	json
//	@Param		page			query	int		false	"page (default 1)"
//	@Param		limit			query	int		false	"page size (default 10)"
//	@Param		problem_type	query	string	false	"filter by problem type"
//	@Router		/history [get]
func (h *Handlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		api.RespondWithError(w, r, api.NewUnauthorizedError("Invalid token"))
		return
	}

	page, limit := parsePagination(r)
	var problemType *string
	if v := r.URL.Query().Get("problem_type"); v != "" {
		problemType = &v
	}

	params := database.ListSolveHistoryParams{
		UserID:      principal.UserID,
		ProblemType: problemType,
		Limit:       int32(limit),
		Offset:      int32((page - 1) * limit),
	}

	records, err := h.queries.ListSolveHistory(r.Context(), params)
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to list solve history"))
		return
	}
	total, err := h.queries.CountSolveHistory(r.Context(), params)
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to count solve history"))
		return
	}

	items := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		items = append(items, map[string]any{
			"id":              rec.ID,
			"problem_type":    rec.ProblemType,
			"input":           rec.Input,
			"result_summary":  rec.ResultSummary,
			"solving_time_ms": rec.SolvingTimeMs,
			"success":         rec.Success,
			"created_at":      rec.CreatedAt,
		})
	}

	api.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"history":    items,
		"pagination": api.NewPagination(page, limit, total),
	})
}

// HandleUserStats godoc
//
//	@Summary	Aggregate solving statistics for the current user
//	@Tags		Solver
//	@Security	BearerAccessToken
//	@Produce	json
//	@Router		/statistics/user [get]
func (h *Handlers) HandleUserStats(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		api.RespondWithError(w, r, api.NewUnauthorizedError("Invalid token"))
		return
	}

	stats, err := h.queries.GetUserSolveStats(r.Context(), principal.UserID)
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to compute user statistics"))
		return
	}

	api.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"statistics": map[string]any{
			"total_problems_solved":   stats.TotalSolved,
			"problems_by_type":        stats.CountsByType,
			"average_solving_time_ms": round2(stats.AvgTimeMs),
			"accuracy_rate":           round2(stats.SuccessRate),
			"streak_days":             stats.ActiveDays,
			"level":                   solverLevel(stats.TotalSolved),
			"achievements":            achievements(stats),
		},
	})
}

// solverLevel maps lifetime solve counts to a coarse level name.
func solverLevel(total int64) string {
	switch {
	case total >= 500:
		return "master"
	case total >= 100:
		return "advanced"
	case total >= 20:
		return "intermediate"
	default:
		return "beginner"
	}
}

func achievements(stats database.SolveStats) []string {
	var out []string
	if stats.TotalSolved >= 1 {
		out = append(out, "first_solve")
	}
	if stats.TotalSolved >= 100 {
		out = append(out, "century")
	}
	if stats.SuccessRate >= 95 && stats.TotalSolved >= 10 {
		out = append(out, "precision")
	}
	if len(stats.CountsByType) >= 5 {
		out = append(out, "all_rounder")
	}
	return out
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

func parsePagination(r *http.Request) (page, limit int) {
	page, limit = 1, 10
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	return page, limit
}
