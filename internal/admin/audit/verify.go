package audit

// verify.go checks a slice of trail entries for tampering: recomputed
// integrity hashes, missing required fields, future timestamps and
// automation/spoofing patterns.

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TrailEntry is the subset of an audit record the verifier inspects.
type TrailEntry struct {
	EntryID       string
	UserID        *uuid.UUID
	Action        string
	Resource      string
	Timestamp     time.Time
	IPAddress     string
	IntegrityHash string
}

// EntryCheck is the verification outcome for a single entry.
type EntryCheck struct {
	EntryID              string   `json:"entry_id"`
	IsValid              bool     `json:"is_valid"`
	MissingFields        []string `json:"missing_fields,omitempty"`
	HashMismatch         bool     `json:"hash_mismatch"`
	InvalidTimestamp     bool     `json:"invalid_timestamp"`
	SuspiciousIndicators []string `json:"suspicious_indicators,omitempty"`
}

// TrailReport summarizes a verification run.
type TrailReport struct {
	Results        []EntryCheck `json:"verification_results"`
	TotalEntries   int          `json:"total_entries"`
	ValidEntries   int          `json:"valid_entries"`
	InvalidEntries int          `json:"invalid_entries"`
	IntegrityScore float64      `json:"integrity_score_percent"`
	OverallStatus  string       `json:"overall_status"`
}

// VerifyTrail inspects entries against the current time. An empty trail is
// intact by definition.
func VerifyTrail(now time.Time, entries []TrailEntry) TrailReport {
	report := TrailReport{
		Results:      make([]EntryCheck, 0, len(entries)),
		TotalEntries: len(entries),
	}

	for i, entry := range entries {
		check := EntryCheck{EntryID: entry.EntryID}

		if entry.Timestamp.IsZero() {
			check.MissingFields = append(check.MissingFields, "timestamp")
		}
		if entry.UserID == nil {
			check.MissingFields = append(check.MissingFields, "user_id")
		}

		if entry.IntegrityHash != "" && entry.UserID != nil && !entry.Timestamp.IsZero() {
			expected, err := IntegrityHash(entry.EntryID, entry.UserID.String(), entry.Action, entry.Resource, entry.Timestamp)
			if err != nil || expected != entry.IntegrityHash {
				check.HashMismatch = true
			}
		}

		if entry.Timestamp.IsZero() || entry.Timestamp.After(now) {
			check.InvalidTimestamp = true
		}

		// Same-user entries less than a second apart suggest automation.
		for j, other := range entries {
			if i == j || entry.UserID == nil || other.UserID == nil || *entry.UserID != *other.UserID {
				continue
			}
			if entry.Timestamp.Sub(other.Timestamp).Abs() < time.Second {
				check.SuspiciousIndicators = append(check.SuspiciousIndicators, "rapid_sequential_actions")
				break
			}
		}

		if ip := entry.IPAddress; ip != "" {
			if strings.HasPrefix(ip, "0.") || strings.HasPrefix(ip, "255.") || strings.Contains(ip, "999") {
				check.SuspiciousIndicators = append(check.SuspiciousIndicators, "suspicious_ip_address")
			}
		}

		check.IsValid = len(check.MissingFields) == 0 &&
			!check.HashMismatch &&
			!check.InvalidTimestamp &&
			len(check.SuspiciousIndicators) == 0
		if check.IsValid {
			report.ValidEntries++
		}
		report.Results = append(report.Results, check)
	}

	report.InvalidEntries = report.TotalEntries - report.ValidEntries

	score := 100.0
	if report.TotalEntries > 0 {
		score = float64(report.ValidEntries) / float64(report.TotalEntries) * 100
	}
	report.IntegrityScore = math.Round(score*100) / 100

	switch {
	case report.IntegrityScore == 100:
		report.OverallStatus = "intact"
	case report.IntegrityScore >= 95:
		report.OverallStatus = "minor_issues"
	case report.IntegrityScore >= 80:
		report.OverallStatus = "compromised"
	default:
		report.OverallStatus = "severely_compromised"
	}
	return report
}
