package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Money columns are NUMERIC in Postgres; they are selected as text and
// converted to decimal.Decimal here so amounts never pass through floats.

const transactionColumns = `id, transaction_ref, user_id, amount::text, currency, payment_method,
	description, status, gateway_transaction_id, gateway_response, expires_at,
	created_at, completed_at, failed_at, cancelled_at`

func scanTransaction(row interface{ Scan(dest ...any) error }) (Transaction, error) {
	var t Transaction
	var amount string
	err := row.Scan(
		&t.ID, &t.TransactionRef, &t.UserID, &amount, &t.Currency, &t.PaymentMethod,
		&t.Description, &t.Status, &t.GatewayTransactionID, &t.GatewayResponse, &t.ExpiresAt,
		&t.CreatedAt, &t.CompletedAt, &t.FailedAt, &t.CancelledAt,
	)
	if err != nil {
		return t, err
	}
	t.Amount, err = decimal.NewFromString(amount)
	return t, err
}

func (q *Queries) ListPaymentMethods(ctx context.Context, activeOnly bool) ([]PaymentMethod, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, name, code, is_active, fee_percent::text, min_amount::text, max_amount::text, config
		FROM payment_methods
		WHERE NOT $1::boolean OR is_active
		ORDER BY id`, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var methods []PaymentMethod
	for rows.Next() {
		m, err := scanPaymentMethod(rows)
		if err != nil {
			return nil, err
		}
		methods = append(methods, m)
	}
	return methods, rows.Err()
}

func (q *Queries) GetPaymentMethodByCode(ctx context.Context, code string) (PaymentMethod, error) {
	row := q.db.QueryRow(ctx, `
		SELECT id, name, code, is_active, fee_percent::text, min_amount::text, max_amount::text, config
		FROM payment_methods WHERE code = $1`, code)
	return scanPaymentMethod(row)
}

func scanPaymentMethod(row interface{ Scan(dest ...any) error }) (PaymentMethod, error) {
	var m PaymentMethod
	var fee, minAmount, maxAmount string
	if err := row.Scan(&m.ID, &m.Name, &m.Code, &m.IsActive, &fee, &minAmount, &maxAmount, &m.Config); err != nil {
		return m, err
	}
	var err error
	if m.FeePercent, err = decimal.NewFromString(fee); err != nil {
		return m, err
	}
	if m.MinAmount, err = decimal.NewFromString(minAmount); err != nil {
		return m, err
	}
	m.MaxAmount, err = decimal.NewFromString(maxAmount)
	return m, err
}

type CreateTransactionParams struct {
	TransactionRef string
	UserID         uuid.UUID
	Amount         decimal.Decimal
	PaymentMethod  string
	Description    *string
	ExpiresAt      time.Time
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (Transaction, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO transactions (transaction_ref, user_id, amount, payment_method, description, expires_at)
		VALUES ($1, $2, $3::numeric, $4, $5, $6)
		RETURNING `+transactionColumns,
		arg.TransactionRef, arg.UserID, arg.Amount.String(), arg.PaymentMethod, arg.Description, arg.ExpiresAt)
	return scanTransaction(row)
}

func (q *Queries) GetTransactionByRef(ctx context.Context, ref string) (Transaction, error) {
	row := q.db.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE transaction_ref = $1`, ref)
	return scanTransaction(row)
}

type UpdateTransactionStatusParams struct {
	TransactionRef       string
	Status               string
	GatewayTransactionID *string
	GatewayResponse      []byte
}

// UpdateTransactionStatus records the new status and stamps the matching
// terminal timestamp column. Status transition rules are enforced by the
// payments package before calling this.
func (q *Queries) UpdateTransactionStatus(ctx context.Context, arg UpdateTransactionStatusParams) (Transaction, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE transactions
		SET status = $2,
		    gateway_transaction_id = COALESCE($3, gateway_transaction_id),
		    gateway_response = COALESCE($4, gateway_response),
		    completed_at = CASE WHEN $2 = 'completed' THEN now() ELSE completed_at END,
		    failed_at = CASE WHEN $2 = 'failed' THEN now() ELSE failed_at END,
		    cancelled_at = CASE WHEN $2 = 'cancelled' THEN now() ELSE cancelled_at END
		WHERE transaction_ref = $1
		RETURNING `+transactionColumns,
		arg.TransactionRef, arg.Status, arg.GatewayTransactionID, arg.GatewayResponse)
	return scanTransaction(row)
}

type ListTransactionsParams struct {
	UserID        *uuid.UUID
	Status        *string
	PaymentMethod *string
	From          *time.Time
	To            *time.Time
	Limit         int32
	Offset        int32
}

func (q *Queries) ListTransactions(ctx context.Context, arg ListTransactionsParams) ([]Transaction, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE ($1::uuid IS NULL OR user_id = $1)
		  AND ($2::text IS NULL OR status = $2)
		  AND ($3::text IS NULL OR payment_method = $3)
		  AND ($4::timestamptz IS NULL OR created_at >= $4)
		  AND ($5::timestamptz IS NULL OR created_at <= $5)
		ORDER BY created_at DESC
		LIMIT $6 OFFSET $7`,
		arg.UserID, arg.Status, arg.PaymentMethod, arg.From, arg.To, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

func (q *Queries) CountTransactions(ctx context.Context, arg ListTransactionsParams) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, `
		SELECT count(*)
		FROM transactions
		WHERE ($1::uuid IS NULL OR user_id = $1)
		  AND ($2::text IS NULL OR status = $2)
		  AND ($3::text IS NULL OR payment_method = $3)
		  AND ($4::timestamptz IS NULL OR created_at >= $4)
		  AND ($5::timestamptz IS NULL OR created_at <= $5)`,
		arg.UserID, arg.Status, arg.PaymentMethod, arg.From, arg.To).Scan(&count)
	return count, err
}

// GetBalance returns the user's balance, creating a zeroed row on first use.
func (q *Queries) GetBalance(ctx context.Context, userID uuid.UUID) (Balance, error) {
	_, err := q.db.Exec(ctx, `
		INSERT INTO balances (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, userID)
	if err != nil {
		return Balance{}, err
	}

	row := q.db.QueryRow(ctx, `
		SELECT user_id, current_balance::text, total_deposited::text, total_spent::text, updated_at
		FROM balances WHERE user_id = $1`, userID)
	return scanBalance(row)
}

func scanBalance(row interface{ Scan(dest ...any) error }) (Balance, error) {
	var b Balance
	var current, deposited, spent string
	if err := row.Scan(&b.UserID, &current, &deposited, &spent, &b.UpdatedAt); err != nil {
		return b, err
	}
	var err error
	if b.CurrentBalance, err = decimal.NewFromString(current); err != nil {
		return b, err
	}
	if b.TotalDeposited, err = decimal.NewFromString(deposited); err != nil {
		return b, err
	}
	b.TotalSpent, err = decimal.NewFromString(spent)
	return b, err
}

// DepositBalance credits the user's balance atomically.
func (q *Queries) DepositBalance(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (Balance, error) {
	_, err := q.db.Exec(ctx, `
		INSERT INTO balances (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, userID)
	if err != nil {
		return Balance{}, err
	}

	row := q.db.QueryRow(ctx, `
		UPDATE balances
		SET current_balance = current_balance + $2::numeric,
		    total_deposited = total_deposited + $2::numeric,
		    updated_at = now()
		WHERE user_id = $1
		RETURNING user_id, current_balance::text, total_deposited::text, total_spent::text, updated_at`,
		userID, amount.String())
	return scanBalance(row)
}

// SpendBalance debits the user's balance atomically. Returns pgx.ErrNoRows
// when the balance is insufficient.
func (q *Queries) SpendBalance(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (Balance, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE balances
		SET current_balance = current_balance - $2::numeric,
		    total_spent = total_spent + $2::numeric,
		    updated_at = now()
		WHERE user_id = $1 AND current_balance >= $2::numeric
		RETURNING user_id, current_balance::text, total_deposited::text, total_spent::text, updated_at`,
		userID, amount.String())
	return scanBalance(row)
}

// TransactionStats is the aggregate row behind the admin statistics endpoint.
type TransactionStats struct {
	TotalCount     int64
	PendingCount   int64
	CompletedCount int64
	FailedCount    int64
	CancelledCount int64
	TotalAmount    decimal.Decimal // completed transactions only
	AverageAmount  decimal.Decimal
}

func (q *Queries) GetTransactionStats(ctx context.Context) (TransactionStats, error) {
	var s TransactionStats
	var total, average string
	err := q.db.QueryRow(ctx, `
		SELECT count(*),
		       count(*) FILTER (WHERE status = 'pending'),
		       count(*) FILTER (WHERE status = 'completed'),
		       count(*) FILTER (WHERE status = 'failed'),
		       count(*) FILTER (WHERE status = 'cancelled'),
		       COALESCE(sum(amount) FILTER (WHERE status = 'completed'), 0)::text,
		       COALESCE(avg(amount) FILTER (WHERE status = 'completed'), 0)::text
		FROM transactions`).Scan(
		&s.TotalCount, &s.PendingCount, &s.CompletedCount, &s.FailedCount, &s.CancelledCount,
		&total, &average)
	if err != nil {
		return s, err
	}
	if s.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return s, err
	}
	s.AverageAmount, err = decimal.NewFromString(average)
	return s, err
}

// MethodRevenue is a per-gateway revenue row (completed transactions only).
type MethodRevenue struct {
	PaymentMethod string
	Count         int64
	TotalAmount   decimal.Decimal
}

func (q *Queries) GetRevenueByMethod(ctx context.Context, from, to time.Time) ([]MethodRevenue, error) {
	rows, err := q.db.Query(ctx, `
		SELECT payment_method, count(*), COALESCE(sum(amount), 0)::text
		FROM transactions
		WHERE status = 'completed' AND created_at >= $1 AND created_at < $2
		GROUP BY payment_method
		ORDER BY payment_method`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []MethodRevenue
	for rows.Next() {
		var r MethodRevenue
		var total string
		if err := rows.Scan(&r.PaymentMethod, &r.Count, &total); err != nil {
			return nil, err
		}
		if r.TotalAmount, err = decimal.NewFromString(total); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// PlanRevenue splits completed revenue between premium subscription
// purchases and one-time payments, keyed off the transaction description.
type PlanRevenue struct {
	Plan        string
	Count       int64
	TotalAmount decimal.Decimal
}

func (q *Queries) GetRevenueByPlan(ctx context.Context, from, to time.Time) ([]PlanRevenue, error) {
	rows, err := q.db.Query(ctx, `
		SELECT CASE WHEN description ILIKE '%premium%' THEN 'premium' ELSE 'one_time' END AS plan,
		       count(*), COALESCE(sum(amount), 0)::text
		FROM transactions
		WHERE status = 'completed' AND created_at >= $1 AND created_at < $2
		GROUP BY plan
		ORDER BY plan`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []PlanRevenue
	for rows.Next() {
		var r PlanRevenue
		var total string
		if err := rows.Scan(&r.Plan, &r.Count, &total); err != nil {
			return nil, err
		}
		if r.TotalAmount, err = decimal.NewFromString(total); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// DailyRevenue is a per-day revenue row (completed transactions only).
type DailyRevenue struct {
	Day         time.Time
	Count       int64
	TotalAmount decimal.Decimal
}

func (q *Queries) GetDailyRevenue(ctx context.Context, from, to time.Time) ([]DailyRevenue, error) {
	rows, err := q.db.Query(ctx, `
		SELECT date_trunc('day', created_at) AS day, count(*), COALESCE(sum(amount), 0)::text
		FROM transactions
		WHERE status = 'completed' AND created_at >= $1 AND created_at < $2
		GROUP BY day
		ORDER BY day`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []DailyRevenue
	for rows.Next() {
		var r DailyRevenue
		var total string
		if err := rows.Scan(&r.Day, &r.Count, &total); err != nil {
			return nil, err
		}
		if r.TotalAmount, err = decimal.NewFromString(total); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
