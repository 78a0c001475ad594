package database

import (
	"context"

	"github.com/google/uuid"
)

type CreateSolveRecordParams struct {
	UserID        uuid.UUID
	ProblemType   string
	Input         string
	ResultSummary string
	SolvingTimeMs float64
	Success       bool
}

func (q *Queries) CreateSolveRecord(ctx context.Context, arg CreateSolveRecordParams) (SolveRecord, error) {
	var rec SolveRecord
	err := q.db.QueryRow(ctx, `
		INSERT INTO solver_history (user_id, problem_type, input, result_summary, solving_time_ms, success)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, user_id, problem_type, input, result_summary, solving_time_ms, success, created_at`,
		arg.UserID, arg.ProblemType, arg.Input, arg.ResultSummary, arg.SolvingTimeMs, arg.Success).Scan(
		&rec.ID, &rec.UserID, &rec.ProblemType, &rec.Input, &rec.ResultSummary, &rec.SolvingTimeMs,
		&rec.Success, &rec.CreatedAt)
	return rec, err
}

type ListSolveHistoryParams struct {
	UserID      uuid.UUID
	ProblemType *string
	Limit       int32
	Offset      int32
}

func (q *Queries) ListSolveHistory(ctx context.Context, arg ListSolveHistoryParams) ([]SolveRecord, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, user_id, problem_type, input, result_summary, solving_time_ms, success, created_at
		FROM solver_history
		WHERE user_id = $1 AND ($2::text IS NULL OR problem_type = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`,
		arg.UserID, arg.ProblemType, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []SolveRecord
	for rows.Next() {
		var rec SolveRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.ProblemType, &rec.Input, &rec.ResultSummary,
			&rec.SolvingTimeMs, &rec.Success, &rec.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (q *Queries) CountSolveHistory(ctx context.Context, arg ListSolveHistoryParams) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, `
		SELECT count(*) FROM solver_history
		WHERE user_id = $1 AND ($2::text IS NULL OR problem_type = $2)`,
		arg.UserID, arg.ProblemType).Scan(&count)
	return count, err
}

// SolveStats is the aggregate behind GET /statistics/user.
type SolveStats struct {
	TotalSolved   int64
	AvgTimeMs     float64
	SuccessRate   float64 // 0..100, 2dp rounding is done by the handler
	CountsByType  map[string]int64
	ActiveDays    int64
	LastSolveDays int64
}

func (q *Queries) GetUserSolveStats(ctx context.Context, userID uuid.UUID) (SolveStats, error) {
	stats := SolveStats{CountsByType: make(map[string]int64)}

	err := q.db.QueryRow(ctx, `
		SELECT count(*),
		       COALESCE(avg(solving_time_ms), 0),
		       COALESCE(100.0 * count(*) FILTER (WHERE success) / NULLIF(count(*), 0), 0),
		       count(DISTINCT date_trunc('day', created_at)),
		       COALESCE(EXTRACT(DAY FROM now() - max(created_at))::bigint, 0)
		FROM solver_history WHERE user_id = $1`, userID).Scan(
		&stats.TotalSolved, &stats.AvgTimeMs, &stats.SuccessRate, &stats.ActiveDays, &stats.LastSolveDays)
	if err != nil {
		return stats, err
	}

	rows, err := q.db.Query(ctx, `
		SELECT problem_type, count(*) FROM solver_history WHERE user_id = $1 GROUP BY problem_type`, userID)
	if err != nil {
		return stats, err
	}
	defer rows.Close()

	for rows.Next() {
		var problemType string
		var count int64
		if err := rows.Scan(&problemType, &count); err != nil {
			return stats, err
		}
		stats.CountsByType[problemType] = count
	}
	return stats, rows.Err()
}

// CountSolvesSince supports the admin analytics overview.
func (q *Queries) CountSolvesSince(ctx context.Context, days int) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, `
		SELECT count(*) FROM solver_history WHERE created_at >= now() - make_interval(days => $1)`,
		days).Scan(&count)
	return count, err
}
