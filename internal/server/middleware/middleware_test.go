package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

func okHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}
}

func TestRequestSizeLimit(t *testing.T) {
	const maxRequestSize = 64

	router := chi.NewRouter()
	router.Group(func(r chi.Router) {
		r.Use(RequestSizeLimit(maxRequestSize))
		r.Post("/algebra/solve", okHandler())
	})

	tests := []struct {
		name     string
		bodySize int
		wantCode int
	}{
		{"body at the limit", maxRequestSize, http.StatusOK},
		{"body over the limit", maxRequestSize * 2, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := strings.Repeat("x", tt.bodySize)
			req := httptest.NewRequest(http.MethodPost, "/algebra/solve", strings.NewReader(body))
			req.ContentLength = int64(tt.bodySize)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if rec.Header().Get("X-Max-Request-Size") != "64" {
				t.Errorf("X-Max-Request-Size = %q, want 64", rec.Header().Get("X-Max-Request-Size"))
			}
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	tests := []struct {
		environment string
		wantHSTS    bool
	}{
		{"dev", false},
		{"test", false},
		{"staging", true},
		{"prod", true},
	}

	for _, tt := range tests {
		t.Run(tt.environment, func(t *testing.T) {
			handler := SecurityHeaders(tt.environment)(okHandler())
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/articles", nil))

			if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
				t.Error("X-Content-Type-Options not set")
			}
			if rec.Header().Get("X-Frame-Options") != "DENY" {
				t.Error("X-Frame-Options not set")
			}
			if got := rec.Header().Get("Strict-Transport-Security") != ""; got != tt.wantHSTS {
				t.Errorf("HSTS set = %v, want %v", got, tt.wantHSTS)
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	tests := []struct {
		name          string
		rps           int32
		burst         int32
		requests      int
		wantLimited   int
		wantSucceeded int
	}{
		{"within burst", 10, 5, 5, 0, 5},
		{"burst exceeded", 10, 5, 6, 1, 5},
		{"disabled with zero", 0, 1, 3, 0, 3},
		{"disabled with negative", -1, 1, 3, 0, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := chi.NewRouter()
			router.Use(RateLimit(tt.rps, tt.burst))
			router.Get("/validate", okHandler())

			var limited, succeeded int
			for i := 0; i < tt.requests; i++ {
				rec := httptest.NewRecorder()
				router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/validate", nil))
				switch rec.Code {
				case http.StatusOK:
					succeeded++
				case http.StatusTooManyRequests:
					limited++
				default:
					t.Fatalf("unexpected status %d on request %d", rec.Code, i+1)
				}
			}

			if limited != tt.wantLimited || succeeded != tt.wantSucceeded {
				t.Errorf("limited = %d succeeded = %d, want %d and %d",
					limited, succeeded, tt.wantLimited, tt.wantSucceeded)
			}
		})
	}
}

// fakeClock drives a requestStats window without sleeping.
type fakeClock struct {
	mu  sync.Mutex
	cur time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = c.cur.Add(d)
}

func newTestStats() (*requestStats, *fakeClock) {
	clock := &fakeClock{cur: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
	s := &requestStats{
		buckets: make([]statsBucket, statsWindowSeconds),
		now:     clock.now,
	}
	return s, clock
}

func TestRequestStatsEmptyWindow(t *testing.T) {
	s, _ := newTestStats()

	snap := s.snapshot()
	if snap.RequestsPerMinute != 0 {
		t.Errorf("RequestsPerMinute = %d, want 0", snap.RequestsPerMinute)
	}
	if snap.AverageResponseTimeMS != 0 || snap.ErrorRatePercent != 0 {
		t.Errorf("empty window must not divide by zero: %+v", snap)
	}
}

func TestRequestStatsCounters(t *testing.T) {
	s, clock := newTestStats()

	s.record(http.StatusOK, 10*time.Millisecond)
	s.record(http.StatusNotFound, 20*time.Millisecond)
	clock.advance(30 * time.Second)
	s.record(http.StatusInternalServerError, 30*time.Millisecond)
	s.record(http.StatusBadGateway, 40*time.Millisecond)

	snap := s.snapshot()
	if snap.RequestsPerMinute != 4 {
		t.Errorf("RequestsPerMinute = %d, want 4", snap.RequestsPerMinute)
	}
	if snap.ErrorRatePercent != 50 {
		t.Errorf("ErrorRatePercent = %v, want 50 (4xx must not count)", snap.ErrorRatePercent)
	}
	if snap.AverageResponseTimeMS != 25 {
		t.Errorf("AverageResponseTimeMS = %v, want 25", snap.AverageResponseTimeMS)
	}
}

func TestRequestStatsWindowExpiry(t *testing.T) {
	s, clock := newTestStats()

	s.record(http.StatusOK, time.Millisecond)
	s.record(http.StatusOK, time.Millisecond)

	clock.advance(59 * time.Second)
	if snap := s.snapshot(); snap.RequestsPerMinute != 2 {
		t.Errorf("RequestsPerMinute at 59s = %d, want 2", snap.RequestsPerMinute)
	}

	clock.advance(2 * time.Second)
	if snap := s.snapshot(); snap.RequestsPerMinute != 0 {
		t.Errorf("RequestsPerMinute past the window = %d, want 0", snap.RequestsPerMinute)
	}
}

// A bucket reused a full window later must reset, not accumulate onto the
// minute-old counters sharing its slot.
func TestRequestStatsBucketRollover(t *testing.T) {
	s, clock := newTestStats()

	for i := 0; i < 5; i++ {
		s.record(http.StatusOK, time.Millisecond)
	}

	clock.advance(statsWindowSeconds * time.Second)
	s.record(http.StatusOK, time.Millisecond)

	if snap := s.snapshot(); snap.RequestsPerMinute != 1 {
		t.Errorf("RequestsPerMinute after rollover = %d, want 1", snap.RequestsPerMinute)
	}
}

func TestRequestStatsConcurrent(t *testing.T) {
	s, _ := newTestStats()

	const goroutines = 8
	const perGoroutine = 100

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				s.record(http.StatusOK, time.Millisecond)
				s.snapshot()
			}
		}()
	}
	wg.Wait()

	if snap := s.snapshot(); snap.RequestsPerMinute != goroutines*perGoroutine {
		t.Errorf("RequestsPerMinute = %d, want %d", snap.RequestsPerMinute, goroutines*perGoroutine)
	}
}

func TestRequestMetricsMiddleware(t *testing.T) {
	router := chi.NewRouter()
	router.Use(RequestMetrics())
	router.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	before := Stats()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	after := Stats()

	if after.RequestsPerMinute <= before.RequestsPerMinute {
		t.Errorf("RequestsPerMinute did not grow: before %d after %d",
			before.RequestsPerMinute, after.RequestsPerMinute)
	}
	if after.ErrorRatePercent == 0 {
		t.Error("500 response not counted as an error")
	}
}
