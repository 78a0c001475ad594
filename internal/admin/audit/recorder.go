package audit

// recorder.go persists built security and system events. Handlers and
// background jobs record through it on a best-effort basis: storage failures
// are logged, never surfaced to the caller.

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/mathservice-vn/platform/app/internal/database"
	"github.com/mathservice-vn/platform/app/internal/logger"
)

// EventStore is the storage surface the recorder writes to.
type EventStore interface {
	CreateSecurityEvent(ctx context.Context, arg database.CreateSecurityEventParams) (database.SecurityEvent, error)
	CreateSystemEvent(ctx context.Context, arg database.CreateSystemEventParams) (database.SystemEvent, error)
}

// Recorder builds and stores security and system events. A nil Recorder is
// valid and records nothing.
type Recorder struct {
	store EventStore
	seq   atomic.Int64
	now   func() time.Time
}

func NewRecorder(queries *database.Queries) *Recorder {
	if queries == nil {
		return nil
	}
	return &Recorder{store: queries, now: time.Now}
}

// SystemInput describes a system event to be recorded.
type SystemInput struct {
	EventType   string
	Severity    string
	Component   string
	Message     string
	Details     map[string]any
	Environment string
}

// RecordSecurity builds and stores a security event.
func (rec *Recorder) RecordSecurity(ctx context.Context, in SecurityInput) {
	if rec == nil {
		return
	}

	event := NewSecurityEvent(rec.now(), rec.seq.Add(1), in)

	details, err := json.Marshal(event.Details)
	if err != nil {
		logger.ContextRequestLogger(ctx).Warn("failed to marshal security event details",
			slog.String("error", err.Error()))
		return
	}
	_, err = rec.store.CreateSecurityEvent(ctx, database.CreateSecurityEventParams{
		EventType:             event.EventType,
		Category:              event.Category,
		Severity:              event.Severity,
		UserID:                event.UserID,
		IPAddress:             event.IPAddress,
		Details:               details,
		ComplianceTags:        event.ComplianceTags,
		RequiresInvestigation: event.RequiresInvestigation,
		SecurityHash:          event.SecurityHash,
	})
	if err != nil {
		logger.ContextRequestLogger(ctx).Warn("failed to store security event",
			slog.String("event_type", event.EventType),
			slog.String("error", err.Error()))
	}
}

// RecordSystem builds and stores a system event.
func (rec *Recorder) RecordSystem(ctx context.Context, in SystemInput) {
	if rec == nil {
		return
	}

	event := NewSystemEvent(rec.now(), in.EventType, in.Severity, in.Component, in.Message, in.Details, in.Environment)

	metadata, err := json.Marshal(map[string]any{
		"details":  event.Details,
		"metadata": event.Metadata,
	})
	if err != nil {
		logger.ContextRequestLogger(ctx).Warn("failed to marshal system event metadata",
			slog.String("error", err.Error()))
		return
	}
	_, err = rec.store.CreateSystemEvent(ctx, database.CreateSystemEventParams{
		EventType:     event.EventType,
		Severity:      event.Severity,
		Component:     event.Component,
		Message:       event.Message,
		Metadata:      metadata,
		EventHash:     event.EventHash,
		RequiresAlert: event.RequiresAlert,
	})
	if err != nil {
		logger.ContextRequestLogger(ctx).Warn("failed to store system event",
			slog.String("event_type", event.EventType),
			slog.String("error", err.Error()))
	}
}

// RecordAuthFailure records a token or login rejection. It satisfies the
// auth middleware's recorder interface without the auth package depending on
// this one.
func (rec *Recorder) RecordAuthFailure(ctx context.Context, eventType, ip string, userID *uuid.UUID, details map[string]any) {
	rec.RecordSecurity(ctx, SecurityInput{
		EventType: eventType,
		UserID:    userID,
		IPAddress: ip,
		Details:   details,
	})
}
