package database

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type CreateAuditLogParams struct {
	AuditID       string
	UserID        uuid.UUID
	Action        string
	Resource      string
	RiskLevel     string
	Details       []byte
	IPAddress     string
	UserAgent     string
	IntegrityHash string
}

func (q *Queries) CreateAuditLog(ctx context.Context, arg CreateAuditLogParams) (AuditLog, error) {
	var a AuditLog
	err := q.db.QueryRow(ctx, `
		INSERT INTO audit_logs (audit_id, user_id, action, resource, risk_level, details, ip_address, user_agent, integrity_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, audit_id, user_id, action, resource, risk_level, details, ip_address, user_agent, integrity_hash, created_at`,
		arg.AuditID, arg.UserID, arg.Action, arg.Resource, arg.RiskLevel, arg.Details,
		arg.IPAddress, arg.UserAgent, arg.IntegrityHash).Scan(
		&a.ID, &a.AuditID, &a.UserID, &a.Action, &a.Resource, &a.RiskLevel, &a.Details,
		&a.IPAddress, &a.UserAgent, &a.IntegrityHash, &a.CreatedAt)
	return a, err
}

type ListAuditLogsParams struct {
	Action *string
	UserID *uuid.UUID
	From   *time.Time
	To     *time.Time
	Limit  int32
	Offset int32
}

func (q *Queries) ListAuditLogs(ctx context.Context, arg ListAuditLogsParams) ([]AuditLog, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, audit_id, user_id, action, resource, risk_level, details, ip_address, user_agent, integrity_hash, created_at
		FROM audit_logs
		WHERE ($1::text IS NULL OR action = $1)
		  AND ($2::uuid IS NULL OR user_id = $2)
		  AND ($3::timestamptz IS NULL OR created_at >= $3)
		  AND ($4::timestamptz IS NULL OR created_at <= $4)
		ORDER BY created_at DESC
		LIMIT $5 OFFSET $6`,
		arg.Action, arg.UserID, arg.From, arg.To, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []AuditLog
	for rows.Next() {
		var a AuditLog
		if err := rows.Scan(&a.ID, &a.AuditID, &a.UserID, &a.Action, &a.Resource, &a.RiskLevel,
			&a.Details, &a.IPAddress, &a.UserAgent, &a.IntegrityHash, &a.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, a)
	}
	return logs, rows.Err()
}

func (q *Queries) CountAuditLogs(ctx context.Context, arg ListAuditLogsParams) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, `
		SELECT count(*)
		FROM audit_logs
		WHERE ($1::text IS NULL OR action = $1)
		  AND ($2::uuid IS NULL OR user_id = $2)
		  AND ($3::timestamptz IS NULL OR created_at >= $3)
		  AND ($4::timestamptz IS NULL OR created_at <= $4)`,
		arg.Action, arg.UserID, arg.From, arg.To).Scan(&count)
	return count, err
}

type CreateSystemEventParams struct {
	EventType     string
	Severity      string
	Component     string
	Message       string
	Metadata      []byte
	EventHash     string
	RequiresAlert bool
}

func (q *Queries) CreateSystemEvent(ctx context.Context, arg CreateSystemEventParams) (SystemEvent, error) {
	var e SystemEvent
	err := q.db.QueryRow(ctx, `
		INSERT INTO system_events (event_type, severity, component, message, metadata, event_hash, requires_alert)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, event_type, severity, component, message, metadata, event_hash, requires_alert, created_at`,
		arg.EventType, arg.Severity, arg.Component, arg.Message, arg.Metadata, arg.EventHash, arg.RequiresAlert).Scan(
		&e.ID, &e.EventType, &e.Severity, &e.Component, &e.Message, &e.Metadata, &e.EventHash,
		&e.RequiresAlert, &e.CreatedAt)
	return e, err
}

type ListSystemEventsParams struct {
	Severity  *string
	Component *string
	Limit     int32
	Offset    int32
}

func (q *Queries) ListSystemEvents(ctx context.Context, arg ListSystemEventsParams) ([]SystemEvent, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, event_type, severity, component, message, metadata, event_hash, requires_alert, created_at
		FROM system_events
		WHERE ($1::text IS NULL OR severity = $1)
		  AND ($2::text IS NULL OR component = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`,
		arg.Severity, arg.Component, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []SystemEvent
	for rows.Next() {
		var e SystemEvent
		if err := rows.Scan(&e.ID, &e.EventType, &e.Severity, &e.Component, &e.Message, &e.Metadata,
			&e.EventHash, &e.RequiresAlert, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (q *Queries) CountSystemEvents(ctx context.Context, arg ListSystemEventsParams) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, `
		SELECT count(*) FROM system_events
		WHERE ($1::text IS NULL OR severity = $1)
		  AND ($2::text IS NULL OR component = $2)`,
		arg.Severity, arg.Component).Scan(&count)
	return count, err
}

type CreateSecurityEventParams struct {
	EventType             string
	Category              string
	Severity              string
	UserID                *uuid.UUID
	IPAddress             string
	Details               []byte
	ComplianceTags        []string
	RequiresInvestigation bool
	SecurityHash          string
}

func (q *Queries) CreateSecurityEvent(ctx context.Context, arg CreateSecurityEventParams) (SecurityEvent, error) {
	var e SecurityEvent
	err := q.db.QueryRow(ctx, `
		INSERT INTO security_events (event_type, category, severity, user_id, ip_address, details,
			compliance_tags, requires_investigation, security_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, event_type, category, severity, user_id, ip_address, details, compliance_tags,
			requires_investigation, security_hash, created_at`,
		arg.EventType, arg.Category, arg.Severity, arg.UserID, arg.IPAddress, arg.Details,
		arg.ComplianceTags, arg.RequiresInvestigation, arg.SecurityHash).Scan(
		&e.ID, &e.EventType, &e.Category, &e.Severity, &e.UserID, &e.IPAddress, &e.Details,
		&e.ComplianceTags, &e.RequiresInvestigation, &e.SecurityHash, &e.CreatedAt)
	return e, err
}

type ListSecurityEventsParams struct {
	Severity *string
	Category *string
	Limit    int32
	Offset   int32
}

func (q *Queries) ListSecurityEvents(ctx context.Context, arg ListSecurityEventsParams) ([]SecurityEvent, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, event_type, category, severity, user_id, ip_address, details, compliance_tags,
			requires_investigation, security_hash, created_at
		FROM security_events
		WHERE ($1::text IS NULL OR severity = $1)
		  AND ($2::text IS NULL OR category = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`,
		arg.Severity, arg.Category, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []SecurityEvent
	for rows.Next() {
		var e SecurityEvent
		if err := rows.Scan(&e.ID, &e.EventType, &e.Category, &e.Severity, &e.UserID, &e.IPAddress,
			&e.Details, &e.ComplianceTags, &e.RequiresInvestigation, &e.SecurityHash, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (q *Queries) CountSecurityEventsBySeverity(ctx context.Context) (map[string]int64, error) {
	rows, err := q.db.Query(ctx, `SELECT severity, count(*) FROM security_events GROUP BY severity`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var severity string
		var count int64
		if err := rows.Scan(&severity, &count); err != nil {
			return nil, err
		}
		counts[severity] = count
	}
	return counts, rows.Err()
}

// DatabaseSizeBytes reports the on-disk size of the current database. The
// backup endpoint uses it as the size estimate returned to the caller.
func (q *Queries) DatabaseSizeBytes(ctx context.Context) (int64, error) {
	var size int64
	err := q.db.QueryRow(ctx, `SELECT pg_database_size(current_database())`).Scan(&size)
	return size, err
}

type CreateBackupParams struct {
	BackupType     string
	InitiatedBy    uuid.UUID
	RetentionUntil time.Time
}

func (q *Queries) CreateBackup(ctx context.Context, arg CreateBackupParams) (Backup, error) {
	var b Backup
	err := q.db.QueryRow(ctx, `
		INSERT INTO backups (backup_type, initiated_by, retention_until)
		VALUES ($1, $2, $3)
		RETURNING id, backup_type, status, size_bytes, location, initiated_by, retention_until, created_at, completed_at`,
		arg.BackupType, arg.InitiatedBy, arg.RetentionUntil).Scan(
		&b.ID, &b.BackupType, &b.Status, &b.SizeBytes, &b.Location, &b.InitiatedBy,
		&b.RetentionUntil, &b.CreatedAt, &b.CompletedAt)
	return b, err
}

type FinishBackupParams struct {
	ID        uuid.UUID
	Status    string
	SizeBytes int64
	Location  string
}

func (q *Queries) FinishBackup(ctx context.Context, arg FinishBackupParams) error {
	_, err := q.db.Exec(ctx, `
		UPDATE backups SET status = $2, size_bytes = $3, location = $4, completed_at = now()
		WHERE id = $1`, arg.ID, arg.Status, arg.SizeBytes, arg.Location)
	return err
}

func (q *Queries) ListBackups(ctx context.Context, limit, offset int32) ([]Backup, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, backup_type, status, size_bytes, location, initiated_by, retention_until, created_at, completed_at
		FROM backups ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var backups []Backup
	for rows.Next() {
		var b Backup
		if err := rows.Scan(&b.ID, &b.BackupType, &b.Status, &b.SizeBytes, &b.Location, &b.InitiatedBy,
			&b.RetentionUntil, &b.CreatedAt, &b.CompletedAt); err != nil {
			return nil, err
		}
		backups = append(backups, b)
	}
	return backups, rows.Err()
}
