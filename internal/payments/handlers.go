package payments

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/mathservice-vn/platform/app/internal/admin/audit"
	"github.com/mathservice-vn/platform/app/internal/api"
	"github.com/mathservice-vn/platform/app/internal/auth"
	"github.com/mathservice-vn/platform/app/internal/config"
	"github.com/mathservice-vn/platform/app/internal/database"
	"github.com/mathservice-vn/platform/app/internal/logger"
)

// Handlers carries the dependencies of the payment endpoints.
type Handlers struct {
	queries *database.Queries
	factory *Factory
	cfg     *config.ServerEnvironment
}

func NewHandlers(queries *database.Queries, factory *Factory, cfg *config.ServerEnvironment) *Handlers {
	return &Handlers{queries: queries, factory: factory, cfg: cfg}
}

// RegisterRoutes attaches the payment routes. The method catalog and the
// gateway callbacks are public; everything else needs an access token.
func RegisterRoutes(h *Handlers, tokens *auth.TokenService, blacklist *auth.SessionBlacklist) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/payment-methods", h.HandlePaymentMethods)
		r.Post("/payments/callback/{method}", h.HandleCallback)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens, blacklist, audit.NewRecorder(h.queries)))

			r.Post("/payments/create", h.HandleCreatePayment)
			r.Get("/transactions", h.HandleListTransactions)
			r.Get("/transactions/{ref}", h.HandleGetTransaction)
			r.Get("/balance", h.HandleGetBalance)
			r.Post("/balance/deposit", h.HandleDeposit)
			r.Post("/balance/spend", h.HandleSpendBalance)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRoles("Admin access required", auth.RoleAdmin, auth.RoleSuperAdmin))
				r.Get("/admin/transactions", h.HandleAdminTransactions)
				r.Get("/admin/statistics", h.HandleAdminStatistics)
			})
		})
	}
}

// HandlePaymentMethods godoc
//
//	@Summary	Active payment methods with fees and limits
//	@Tags		Payments
//	@Produce	json
//	@Router		/payment-methods [get]
func (h *Handlers) HandlePaymentMethods(w http.ResponseWriter, r *http.Request) {
	methods, err := h.queries.ListPaymentMethods(r.Context(), true)
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to list payment methods"))
		return
	}

	items := make([]map[string]any, 0, len(methods))
	for _, m := range methods {
		items = append(items, map[string]any{
			"id":          m.ID,
			"name":        m.Name,
			"code":        m.Code,
			"fee_percent": m.FeePercent,
			"min_amount":  m.MinAmount,
			"max_amount":  m.MaxAmount,
		})
	}

	api.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"payment_methods": items,
	})
}

type createPaymentRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	Description   string          `json:"description"`
}

// HandleCreatePayment godoc
//
//	@Summary		Create a pending transaction and a gateway payment URL
//	@Tags			Payments
//	@Security		BearerAccessToken
//	@Accept			json
//	@Produce		json
//	@Router			/payments/create [post]
func (h *Handlers) HandleCreatePayment(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		api.RespondWithError(w, r, api.NewUnauthorizedError("Invalid token"))
		return
	}

	var req createPaymentRequest
	if err := api.DecodeJSONBody(r, &req); err != nil {
		api.RespondWithError(w, r, err)
		return
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		api.RespondWithError(w, r, api.NewValidationError("Invalid amount"))
		return
	}
	if req.PaymentMethod == "" {
		api.RespondWithError(w, r, api.NewValidationError("Payment method required"))
		return
	}

	method, err := h.queries.GetPaymentMethodByCode(r.Context(), req.PaymentMethod)
	if err != nil || !method.IsActive {
		api.RespondWithError(w, r, api.NewValidationError("Invalid payment method"))
		return
	}
	if err := ValidateAmount(req.Amount, method); err != nil {
		api.RespondWithError(w, r, api.NewValidationError(
			"Amount must be between "+method.MinAmount.String()+" and "+method.MaxAmount.String()+" VND"))
		return
	}

	gateway, err := h.factory.Gateway(method.Code)
	if err != nil {
		api.RespondWithError(w, r, api.NewValidationError("Invalid payment method"))
		return
	}

	fee, total := CalculateFee(req.Amount, method)

	var description *string
	if req.Description != "" {
		description = &req.Description
	}
	txn, err := h.queries.CreateTransaction(r.Context(), database.CreateTransactionParams{
		TransactionRef: NewTransactionRef(time.Now()),
		UserID:         principal.UserID,
		Amount:         req.Amount,
		PaymentMethod:  method.Code,
		Description:    description,
		ExpiresAt:      time.Now().Add(h.cfg.PaymentExpiresIn),
	})
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to create transaction"))
		return
	}

	payment, err := gateway.CreatePayment(r.Context(), CreatePaymentRequest{
		TransactionRef: txn.TransactionRef,
		Amount:         req.Amount,
		Description:    req.Description,
		UserID:         principal.UserID.String(),
		ClientIP:       clientIP(r),
	})
	if err != nil {
		logger.ContextRequestLogger(r.Context()).Error("gateway create failed",
			slog.String("method", method.Code),
			slog.String("transaction_ref", txn.TransactionRef),
			slog.String("error", err.Error()),
		)
		_, _ = h.queries.UpdateTransactionStatus(r.Context(), database.UpdateTransactionStatusParams{
			TransactionRef: txn.TransactionRef,
			Status:         StatusFailed,
		})
		api.RespondWithError(w, r, api.NewInternalError("Payment gateway unavailable"))
		return
	}

	api.RespondWithSuccess(w, http.StatusCreated, map[string]any{
		"transaction": transactionView(txn),
		"payment": map[string]any{
			"payment_url":  payment.PaymentURL,
			"fee_amount":   fee,
			"total_amount": total,
			"extra":        payment.Extra,
		},
	})
}

// HandleCallback godoc
//
//	@Summary		Gateway callback endpoint
//	@Description	Verifies the gateway signature and finalizes the transaction.
//	@Tags			Payments
//	@Accept			json
//	@Produce		json
//	@Param			method	path	string	true	"vnpay, momo or zalopay"
//	@Router			/payments/callback/{method} [post]
func (h *Handlers) HandleCallback(w http.ResponseWriter, r *http.Request) {
	code, label, ok := callbackMethod(chi.URLParam(r, "method"))
	if !ok {
		api.RespondWithError(w, r, api.NewValidationError("Invalid payment method"))
		return
	}

	params, err := callbackParams(r)
	if err != nil {
		api.RespondWithError(w, r, api.NewValidationError("Missing required "+label+" parameters"))
		return
	}

	gateway, err := h.factory.Gateway(code)
	if err != nil {
		api.RespondWithError(w, r, api.NewValidationError("Invalid payment method"))
		return
	}

	result, err := gateway.VerifyCallback(params)
	if err != nil {
		if errors.Is(err, ErrInvalidSignature) {
			api.RespondWithError(w, r, api.NewUnauthorizedError("Invalid "+label+" signature"))
			return
		}
		api.RespondWithError(w, r, api.NewValidationError("Missing required "+label+" parameters"))
		return
	}

	txn, err := h.queries.GetTransactionByRef(r.Context(), result.TransactionRef)
	if err != nil {
		api.RespondWithError(w, r, api.NewNotFoundError("Transaction not found"))
		return
	}

	status := StatusCompleted
	if !result.Success {
		status = StatusFailed
	}
	if err := ValidateTransition(txn.Status, status); err != nil {
		api.RespondWithError(w, r, api.NewConflictError(err.Error()))
		return
	}

	gatewayResponse, _ := json.Marshal(result.Raw)
	var gatewayID *string
	if result.GatewayTransactionID != "" {
		gatewayID = &result.GatewayTransactionID
	}
	updated, err := h.queries.UpdateTransactionStatus(r.Context(), database.UpdateTransactionStatusParams{
		TransactionRef:       txn.TransactionRef,
		Status:               status,
		GatewayTransactionID: gatewayID,
		GatewayResponse:      gatewayResponse,
	})
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to update transaction"))
		return
	}

	// A completed deposit credits the balance right away.
	if status == StatusCompleted {
		if _, err := h.queries.DepositBalance(r.Context(), txn.UserID, txn.Amount); err != nil {
			api.RespondWithError(w, r, api.WrapInternalError(err, "failed to credit balance"))
			return
		}
	}

	api.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"transaction": transactionView(updated),
	})
}

// HandleListTransactions godoc
//
//	@Summary	Transactions of the current user
//	@Tags		Payments
//	@Security	BearerAccessToken
//	@Produce	json
//	@Router		/transactions [get]
func (h *Handlers) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		api.RespondWithError(w, r, api.NewUnauthorizedError("Invalid token"))
		return
	}

	page, limit := parsePagination(r)
	params := transactionFilters(r)
	params.UserID = &principal.UserID
	params.Limit = int32(limit)
	params.Offset = int32((page - 1) * limit)

	h.respondTransactionList(w, r, params, page, limit)
}

// HandleGetTransaction godoc
//
//	@Summary	One transaction by reference; owner or admin only
//	@Tags		Payments
//	@Security	BearerAccessToken
//	@Produce	json
//	@Router		/transactions/{ref} [get]
func (h *Handlers) HandleGetTransaction(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		api.RespondWithError(w, r, api.NewUnauthorizedError("Invalid token"))
		return
	}

	txn, err := h.queries.GetTransactionByRef(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			api.RespondWithError(w, r, api.NewNotFoundError("Transaction not found"))
			return
		}
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to load transaction"))
		return
	}

	if txn.UserID != principal.UserID && !principal.IsAdmin() {
		api.RespondWithError(w, r, api.NewForbiddenError("Access denied"))
		return
	}

	api.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"transaction": transactionView(txn),
	})
}

// HandleGetBalance godoc
//
//	@Summary	Current user's balance (created empty on first use)
//	@Tags		Payments
//	@Security	BearerAccessToken
//	@Produce	json
//	@Router		/balance [get]
func (h *Handlers) HandleGetBalance(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		api.RespondWithError(w, r, api.NewUnauthorizedError("Invalid token"))
		return
	}

	balance, err := h.queries.GetBalance(r.Context(), principal.UserID)
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to load balance"))
		return
	}

	api.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"balance": balanceView(balance),
	})
}

type depositRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	TransactionID string          `json:"transaction_id"`
}

// HandleDeposit godoc
//
//	@Summary		Credit the balance from a completed transaction
//	@Tags			Payments
//	@Security		BearerAccessToken
//	@Accept			json
//	@Produce		json
//	@Router			/balance/deposit [post]
func (h *Handlers) HandleDeposit(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		api.RespondWithError(w, r, api.NewUnauthorizedError("Invalid token"))
		return
	}

	var req depositRequest
	if err := api.DecodeJSONBody(r, &req); err != nil {
		api.RespondWithError(w, r, err)
		return
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		api.RespondWithError(w, r, api.NewValidationError("Invalid amount"))
		return
	}
	if req.TransactionID == "" {
		api.RespondWithError(w, r, api.NewValidationError("Transaction ID required"))
		return
	}

	txn, err := h.queries.GetTransactionByRef(r.Context(), req.TransactionID)
	if err != nil {
		api.RespondWithError(w, r, api.NewNotFoundError("Transaction not found"))
		return
	}
	if txn.UserID != principal.UserID {
		api.RespondWithError(w, r, api.NewForbiddenError("Access denied"))
		return
	}
	if txn.Status != StatusCompleted {
		api.RespondWithError(w, r, api.NewValidationError("Transaction is not completed"))
		return
	}

	balance, err := h.queries.DepositBalance(r.Context(), principal.UserID, req.Amount)
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to deposit"))
		return
	}

	api.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"balance": balanceView(balance),
	})
}

type spendRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// HandleSpendBalance godoc
//
//	@Summary		Debit the balance
//	@Description	Used for in-platform purchases such as the premium subscription.
//	@Tags			Payments
//	@Security		BearerAccessToken
//	@Accept			json
//	@Produce		json
//	@Router			/balance/spend [post]
func (h *Handlers) HandleSpendBalance(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		api.RespondWithError(w, r, api.NewUnauthorizedError("Invalid token"))
		return
	}

	var req spendRequest
	if err := api.DecodeJSONBody(r, &req); err != nil {
		api.RespondWithError(w, r, err)
		return
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		api.RespondWithError(w, r, api.NewValidationError("Invalid amount"))
		return
	}

	balance, err := h.queries.SpendBalance(r.Context(), principal.UserID, req.Amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			api.RespondWithError(w, r, api.NewValidationError("Insufficient balance"))
			return
		}
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to spend"))
		return
	}

	logger.ContextRequestLogger(r.Context()).Info("balance spent",
		slog.String("user_id", principal.UserID.String()),
		slog.String("amount", req.Amount.String()),
		slog.String("description", req.Description),
	)

	api.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"balance": balanceView(balance),
	})
}

// HandleAdminTransactions godoc
//
//	@Summary	All transactions, filterable; admin only
//	@Tags		Admin
//	@Security	BearerAccessToken
//	@Produce	json
//	@Router		/admin/transactions [get]
func (h *Handlers) HandleAdminTransactions(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePagination(r)
	params := transactionFilters(r)
	params.Limit = int32(limit)
	params.Offset = int32((page - 1) * limit)

	h.respondTransactionList(w, r, params, page, limit)
}

// HandleAdminStatistics godoc
//
//	@Summary	Transaction statistics; admin only
//	@Tags		Admin
//	@Security	BearerAccessToken
//	@Produce	json
//	@Router		/admin/statistics [get]
func (h *Handlers) HandleAdminStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.queries.GetTransactionStats(r.Context())
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to compute statistics"))
		return
	}

	to := time.Now()
	from := to.AddDate(0, 0, -30)
	byMethod, err := h.queries.GetRevenueByMethod(r.Context(), from, to)
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to compute method revenue"))
		return
	}
	daily, err := h.queries.GetDailyRevenue(r.Context(), from, to)
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to compute daily revenue"))
		return
	}

	var successRate decimal.Decimal
	if stats.TotalCount > 0 {
		successRate = decimal.NewFromInt(stats.CompletedCount).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(stats.TotalCount)).
			Round(2)
	}

	methodRows := make([]map[string]any, 0, len(byMethod))
	for _, m := range byMethod {
		methodRows = append(methodRows, map[string]any{
			"payment_method": m.PaymentMethod,
			"count":          m.Count,
			"total_amount":   m.TotalAmount,
		})
	}
	dailyRows := make([]map[string]any, 0, len(daily))
	for _, d := range daily {
		dailyRows = append(dailyRows, map[string]any{
			"date":         d.Day.Format("2006-01-02"),
			"count":        d.Count,
			"total_amount": d.TotalAmount,
		})
	}

	api.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"statistics": map[string]any{
			"total_transactions": stats.TotalCount,
			"by_status": map[string]int64{
				"pending":   stats.PendingCount,
				"completed": stats.CompletedCount,
				"failed":    stats.FailedCount,
				"cancelled": stats.CancelledCount,
			},
			"total_amount":   stats.TotalAmount,
			"average_amount": stats.AverageAmount,
			"success_rate":   successRate,
			"by_method":      methodRows,
			"daily":          dailyRows,
		},
	})
}

func (h *Handlers) respondTransactionList(w http.ResponseWriter, r *http.Request, params database.ListTransactionsParams, page, limit int) {
	transactions, err := h.queries.ListTransactions(r.Context(), params)
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to list transactions"))
		return
	}
	total, err := h.queries.CountTransactions(r.Context(), params)
	if err != nil {
		api.RespondWithError(w, r, api.WrapInternalError(err, "failed to count transactions"))
		return
	}

	items := make([]map[string]any, 0, len(transactions))
	for _, t := range transactions {
		items = append(items, transactionView(t))
	}

	api.RespondWithSuccess(w, http.StatusOK, map[string]any{
		"transactions": items,
		"pagination":   api.NewPagination(page, limit, total),
	})
}

func transactionView(t database.Transaction) map[string]any {
	return map[string]any{
		"id":                     t.ID,
		"transaction_ref":        t.TransactionRef,
		"user_id":                t.UserID,
		"amount":                 t.Amount,
		"currency":               t.Currency,
		"payment_method":         t.PaymentMethod,
		"description":            t.Description,
		"status":                 t.Status,
		"gateway_transaction_id": t.GatewayTransactionID,
		"expires_at":             t.ExpiresAt,
		"created_at":             t.CreatedAt,
		"completed_at":           t.CompletedAt,
		"failed_at":              t.FailedAt,
		"cancelled_at":           t.CancelledAt,
	}
}

func balanceView(b database.Balance) map[string]any {
	return map[string]any{
		"user_id":         b.UserID,
		"current_balance": b.CurrentBalance,
		"total_deposited": b.TotalDeposited,
		"total_spent":     b.TotalSpent,
		"updated_at":      b.UpdatedAt,
	}
}

func callbackMethod(segment string) (code, label string, ok bool) {
	switch segment {
	case "vnpay":
		return CodeVNPay, "VNPay", true
	case "momo":
		return CodeMoMo, "MoMo", true
	case "zalopay":
		return CodeZaloPay, "ZaloPay", true
	}
	return "", "", false
}

// callbackParams flattens the callback payload into a string map. VNPay
// sends query parameters; MoMo and ZaloPay post JSON bodies.
func callbackParams(r *http.Request) (map[string]string, error) {
	params := map[string]string{}
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}
	if r.Body != nil && r.Header.Get("Content-Type") == "application/json" {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return nil, err
		}
		for k, v := range body {
			switch val := v.(type) {
			case string:
				params[k] = val
			case float64:
				params[k] = strconv.FormatFloat(val, 'f', -1, 64)
			case bool:
				params[k] = strconv.FormatBool(val)
			}
		}
	}
	if len(params) == 0 {
		return nil, errors.New("empty callback")
	}
	return params, nil
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

func transactionFilters(r *http.Request) database.ListTransactionsParams {
	var params database.ListTransactionsParams
	q := r.URL.Query()
	if v := q.Get("status"); v != "" {
		params.Status = &v
	}
	if v := q.Get("payment_method"); v != "" {
		params.PaymentMethod = &v
	}
	if v := q.Get("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			params.From = &t
		}
	}
	if v := q.Get("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			params.To = &t
		}
	}
	return params
}

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
