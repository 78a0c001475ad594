package audit

// security.go classifies security events, enriches them with threat
// intelligence and compliance tags, and stamps them with a hash covering the
// identifying fields.

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Security event categories.
const (
	CategoryAuthentication = "authentication"
	CategoryAuthorization  = "authorization"
	CategoryDataAccess     = "data_access"
	CategorySystemSecurity = "system_security"
	CategoryGeneral        = "general"
)

var securityCategories = map[string]string{
	"failed_login":          CategoryAuthentication,
	"successful_login":      CategoryAuthentication,
	"password_change":       CategoryAuthentication,
	"account_locked":        CategoryAuthentication,
	"unauthorized_access":   CategoryAuthorization,
	"privilege_escalation":  CategoryAuthorization,
	"permission_denied":     CategoryAuthorization,
	"data_export":           CategoryDataAccess,
	"data_deletion":         CategoryDataAccess,
	"sensitive_data_access": CategoryDataAccess,
	"suspicious_activity":   CategorySystemSecurity,
	"malware_detected":      CategorySystemSecurity,
	"intrusion_attempt":     CategorySystemSecurity,
}

// Categorize maps a security event type to its category.
func Categorize(eventType string) string {
	if cat, ok := securityCategories[eventType]; ok {
		return cat
	}
	return CategoryGeneral
}

// SecurityInput describes a security event to be recorded.
type SecurityInput struct {
	EventType string
	UserID    *uuid.UUID
	IPAddress string
	Severity  string
	Details   map[string]any
}

// ThreatIntel is the (static) reputation lookup attached to events carrying
// an IP address.
type ThreatIntel struct {
	IsKnownThreat   bool    `json:"is_known_threat"`
	ReputationScore float64 `json:"reputation_score"`
	Country         string  `json:"country"`
	ISP             string  `json:"isp"`
}

// SecurityEventRecord is a built security event ready for storage.
type SecurityEventRecord struct {
	SecurityID            string         `json:"security_id"`
	Timestamp             time.Time      `json:"timestamp"`
	EventType             string         `json:"event_type"`
	Category              string         `json:"category"`
	Severity              string         `json:"severity"`
	UserID                *uuid.UUID     `json:"user_id"`
	IPAddress             string         `json:"ip_address"`
	Details               map[string]any `json:"details"`
	ThreatIntelligence    *ThreatIntel   `json:"threat_intelligence,omitempty"`
	ComplianceTags        []string       `json:"compliance_tags"`
	RequiresInvestigation bool           `json:"requires_investigation"`
	SecurityHash          string         `json:"security_hash"`
}

// knownThreatIPs is the seed list for the static threat lookup. A real feed
// would replace this table.
var knownThreatIPs = map[string]bool{
	"192.168.1.666": true,
	"10.0.0.999":    true,
}

// NewSecurityEvent builds a security event. Severity escalates automatically:
// repeated login failures and high anomaly scores become high, known threat
// IPs become critical.
func NewSecurityEvent(now time.Time, seq int64, in SecurityInput) SecurityEventRecord {
	severity := in.Severity
	if severity == "" {
		severity = "medium"
	}

	details := make(map[string]any, len(in.Details)+4)
	for k, v := range in.Details {
		details[k] = v
	}

	category := Categorize(in.EventType)
	investigate := severity == "high" || severity == "critical"

	switch in.EventType {
	case "failed_login":
		setDefault(details, "failure_reason", "invalid_credentials")
		setDefault(details, "attempt_count", 1)
		if count, ok := asInt(details["attempt_count"]); ok && count >= 5 {
			severity = "high"
			investigate = true
		}
	case "unauthorized_access":
		setDefault(details, "access_method", "web")
	case "suspicious_activity":
		setDefault(details, "anomaly_score", 0.5)
		if score, ok := asFloat(details["anomaly_score"]); ok && score > 0.8 {
			severity = "high"
			investigate = true
		}
	}

	var intel *ThreatIntel
	if in.IPAddress != "" {
		intel = lookupThreatIntel(in.IPAddress)
		if intel.IsKnownThreat {
			severity = "critical"
			investigate = true
		}
	}

	e := SecurityEventRecord{
		SecurityID:            fmt.Sprintf("sec_%s_%d", now.UTC().Format("20060102_150405"), seq%10000),
		Timestamp:             now.UTC(),
		EventType:             in.EventType,
		Category:              category,
		Severity:              severity,
		UserID:                in.UserID,
		IPAddress:             in.IPAddress,
		Details:               details,
		ThreatIntelligence:    intel,
		ComplianceTags:        complianceTags(category, in.EventType),
		RequiresInvestigation: investigate,
	}
	e.SecurityHash = SecurityHash(e.SecurityID, e.EventType, in.UserID, e.IPAddress, e.Timestamp)
	return e
}

// complianceTags maps the event to the regulations its record supports.
func complianceTags(category, eventType string) []string {
	var tags []string
	if category == CategoryAuthentication {
		tags = append(tags, "PCI-DSS", "SOX")
	}
	if category == CategoryDataAccess {
		tags = append(tags, "GDPR", "PCI-DSS")
	}
	if eventType == "data_export" || eventType == "data_deletion" {
		tags = append(tags, "Data-Retention-Policy")
	}
	if tags == nil {
		tags = []string{}
	}
	return tags
}

func lookupThreatIntel(ip string) *ThreatIntel {
	intel := &ThreatIntel{
		IsKnownThreat:   knownThreatIPs[ip],
		ReputationScore: 0.8,
		Country:         "Unknown",
		ISP:             "Unknown",
	}
	if strings.HasPrefix(ip, "192.168.1") {
		intel.ReputationScore = 0.2
	}
	if strings.HasPrefix(ip, "192.168") {
		intel.Country = "VN"
		intel.ISP = "Local ISP"
	}
	return intel
}

// SecurityHash covers the identifying fields of a security event.
func SecurityHash(securityID, eventType string, userID *uuid.UUID, ip string, timestamp time.Time) string {
	uid := ""
	if userID != nil {
		uid = userID.String()
	}
	data := securityID + eventType + uid + ip + timestamp.UTC().Format(time.RFC3339)
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
