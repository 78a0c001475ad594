package middleware

import (
	"net/http"
	"sync"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// StatsSnapshot is a point-in-time view of the request counters, consumed by
// the admin metrics endpoint.
type StatsSnapshot struct {
	RequestsPerMinute     int64   `json:"requests_per_minute"`
	AverageResponseTimeMS float64 `json:"average_response_time_ms"`
	ErrorRatePercent      float64 `json:"error_rate_percent"`
}

// requestStats keeps a rolling window of per-second buckets.
type requestStats struct {
	mu      sync.Mutex
	buckets []statsBucket
	now     func() time.Time
}

type statsBucket struct {
	second   int64
	requests int64
	errors   int64
	totalDur time.Duration
}

const statsWindowSeconds = 60

var stats = &requestStats{
	buckets: make([]statsBucket, statsWindowSeconds),
	now:     time.Now,
}

func (s *requestStats) record(status int, dur time.Duration) {
	sec := s.now().Unix()
	idx := sec % statsWindowSeconds

	s.mu.Lock()
	defer s.mu.Unlock()

	b := &s.buckets[idx]
	if b.second != sec {
		*b = statsBucket{second: sec}
	}
	b.requests++
	b.totalDur += dur
	if status >= http.StatusInternalServerError {
		b.errors++
	}
}

func (s *requestStats) snapshot() StatsSnapshot {
	cutoff := s.now().Unix() - statsWindowSeconds

	s.mu.Lock()
	defer s.mu.Unlock()

	var requests, errors int64
	var totalDur time.Duration
	for _, b := range s.buckets {
		if b.second <= cutoff {
			continue
		}
		requests += b.requests
		errors += b.errors
		totalDur += b.totalDur
	}

	snap := StatsSnapshot{RequestsPerMinute: requests}
	if requests > 0 {
		snap.AverageResponseTimeMS = float64(totalDur.Microseconds()) / float64(requests) / 1000
		snap.ErrorRatePercent = float64(errors) / float64(requests) * 100
	}
	return snap
}

// RequestMetrics records request counts, latency and server-error rate into
// the process-wide rolling window.
func RequestMetrics() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			stats.record(ww.Status(), time.Since(start))
		})
	}
}

// Stats returns the current rolling-window request statistics.
func Stats() StatsSnapshot {
	return stats.snapshot()
}
