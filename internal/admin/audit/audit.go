// Package audit builds the tamper-evident records served by the admin
// service: user activity entries, system events and security events. All
// services record into the shared tables through the Recorder; records carry
// integrity hashes so the trail verifier can detect edits after the fact.
package audit

import (
	"crypto/md5" // #nosec G501 -- event_hash deduplicates events, not a security boundary
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gowebpki/jcs"
)

// Risk levels assigned to activity records.
const (
	RiskHigh   = "high"
	RiskMedium = "medium"
	RiskLow    = "low"
)

var highRiskActions = map[string]bool{
	"delete_user":          true,
	"change_password":      true,
	"grant_admin":          true,
	"revoke_admin":         true,
	"delete_payment":       true,
	"refund_payment":       true,
	"system_config_change": true,
}

var mediumRiskActions = map[string]bool{
	"create_user":     true,
	"update_user":     true,
	"login":           true,
	"logout":          true,
	"create_payment":  true,
	"update_payment":  true,
	"publish_content": true,
}

// RiskLevel classifies an action. Unknown actions are low risk.
func RiskLevel(action string) string {
	switch {
	case highRiskActions[action]:
		return RiskHigh
	case mediumRiskActions[action]:
		return RiskMedium
	default:
		return RiskLow
	}
}

// ActivityInput describes a user action to be recorded.
type ActivityInput struct {
	UserID     uuid.UUID
	Action     string
	Resource   string
	ResourceID string
	Details    map[string]any
	IPAddress  string
	UserAgent  string
	SessionID  string
	RequestID  string
}

// Activity is a fully-built audit record ready for storage.
type Activity struct {
	AuditID       string         `json:"audit_id"`
	Timestamp     time.Time      `json:"timestamp"`
	UserID        uuid.UUID      `json:"user_id"`
	Action        string         `json:"action"`
	Resource      string         `json:"resource"`
	ResourceID    string         `json:"resource_id,omitempty"`
	RiskLevel     string         `json:"risk_level"`
	Details       map[string]any `json:"details"`
	Metadata      map[string]any `json:"metadata"`
	Status        string         `json:"status"`
	IntegrityHash string         `json:"integrity_hash"`
}

// NewActivity builds an activity record at the given time. seq disambiguates
// records created within the same second; callers pass a monotonic counter.
func NewActivity(now time.Time, seq int64, in ActivityInput) (Activity, error) {
	uid := in.UserID.String()
	auditID := fmt.Sprintf("audit_%s_%s_%d", now.UTC().Format("20060102_150405"), uid[:8], seq%10000)

	details := make(map[string]any, len(in.Details)+4)
	for k, v := range in.Details {
		details[k] = v
	}
	enrichDetails(in.Action, details)

	a := Activity{
		AuditID:    auditID,
		Timestamp:  now.UTC(),
		UserID:     in.UserID,
		Action:     in.Action,
		Resource:   in.Resource,
		ResourceID: in.ResourceID,
		RiskLevel:  RiskLevel(in.Action),
		Details:    details,
		Metadata: map[string]any{
			"ip_address": in.IPAddress,
			"user_agent": in.UserAgent,
			"session_id": in.SessionID,
			"request_id": in.RequestID,
		},
		Status: "success",
	}

	hash, err := IntegrityHash(a.AuditID, uid, a.Action, a.Resource, a.Timestamp)
	if err != nil {
		return Activity{}, err
	}
	a.IntegrityHash = hash
	return a, nil
}

// enrichDetails fills action-specific context with defaults so downstream
// consumers can rely on the keys being present.
func enrichDetails(action string, details map[string]any) {
	switch action {
	case "login":
		setDefault(details, "login_method", "password")
		setDefault(details, "two_factor_used", false)
		setDefault(details, "device_fingerprint", nil)
	case "delete_user":
		setDefault(details, "deleted_user_email", nil)
		setDefault(details, "reason", "Not specified")
		setDefault(details, "data_retention_days", 30)
	case "create_payment", "update_payment", "delete_payment":
		setDefault(details, "amount", nil)
		setDefault(details, "currency", "VND")
		setDefault(details, "payment_method", nil)
		setDefault(details, "transaction_id", nil)
	}
}

func setDefault(m map[string]any, key string, value any) {
	if _, ok := m[key]; !ok {
		m[key] = value
	}
}

// IntegrityHash computes SHA-256 over the JCS-canonicalized core fields of an
// activity record. The canonical form makes the hash independent of map
// ordering and whitespace.
func IntegrityHash(auditID, userID, action, resource string, timestamp time.Time) (string, error) {
	core := map[string]any{
		"audit_id":  auditID,
		"user_id":   userID,
		"action":    action,
		"resource":  resource,
		"timestamp": timestamp.UTC().Format(time.RFC3339),
	}
	raw, err := json.Marshal(core)
	if err != nil {
		return "", fmt.Errorf("failed to marshal core fields: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize core fields: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// Severity levels for system events.
var validSeverities = map[string]bool{
	"debug":    true,
	"info":     true,
	"warning":  true,
	"error":    true,
	"critical": true,
}

// SystemEventRecord is a built system event ready for storage.
type SystemEventRecord struct {
	Timestamp     time.Time      `json:"timestamp"`
	EventType     string         `json:"event_type"`
	Severity      string         `json:"severity"`
	Component     string         `json:"component"`
	Message       string         `json:"message"`
	Details       map[string]any `json:"details"`
	Metadata      map[string]any `json:"metadata"`
	RequiresAlert bool           `json:"requires_alert"`
	AlertChannels []string       `json:"alert_channels,omitempty"`
	EventHash     string         `json:"event_hash"`
}

// NewSystemEvent builds a system event. Invalid severities fall back to info.
// environment tags the metadata (dev, staging, prod).
func NewSystemEvent(now time.Time, eventType, severity, component, message string, details map[string]any, environment string) SystemEventRecord {
	if !validSeverities[severity] {
		severity = "info"
	}
	if component == "" {
		component = "system"
	}

	merged := make(map[string]any, len(details)+4)
	for k, v := range details {
		merged[k] = v
	}
	enrichComponent(component, merged)

	e := SystemEventRecord{
		Timestamp: now.UTC(),
		EventType: eventType,
		Severity:  severity,
		Component: component,
		Message:   message,
		Details:   merged,
		Metadata: map[string]any{
			"hostname":    "math-service-server",
			"environment": environment,
		},
		EventHash: EventHash(eventType, component, message),
	}

	if severity == "error" || severity == "critical" {
		e.RequiresAlert = true
		e.AlertChannels = []string{"email", "slack"}
		if severity == "critical" {
			e.AlertChannels = append(e.AlertChannels, "sms")
		}
	}
	return e
}

func enrichComponent(component string, details map[string]any) {
	switch component {
	case "database":
		setDefault(details, "database_name", nil)
		setDefault(details, "query_duration_ms", nil)
		setDefault(details, "affected_rows", nil)
		setDefault(details, "connection_pool_size", 10)
	case "payment_gateway":
		setDefault(details, "gateway_name", nil)
		setDefault(details, "transaction_id", nil)
		setDefault(details, "response_code", nil)
		setDefault(details, "response_time_ms", nil)
	case "cache":
		setDefault(details, "cache_type", "redis")
		setDefault(details, "cache_key", nil)
		setDefault(details, "hit_rate_percent", nil)
		setDefault(details, "memory_usage_mb", nil)
	}
}

// EventHash deduplicates system events: identical type+component+message
// collapse to the same hash.
func EventHash(eventType, component, message string) string {
	sum := md5.Sum([]byte(eventType + component + message)) // #nosec G401
	return hex.EncodeToString(sum[:])
}
