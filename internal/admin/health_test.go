package admin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mathservice-vn/platform/app/internal/config"
)

func newProbeTarget(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health/ready" {
			t.Errorf("unexpected probe path %q", r.URL.Path)
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHealthCheckAllHealthy(t *testing.T) {
	up := newProbeTarget(t, http.StatusOK)

	cfg := &config.ServerEnvironment{
		UserServiceURL:     up.URL,
		PaymentServiceURL:  up.URL,
		ContentServiceURL:  up.URL,
		SolverServiceURL:   up.URL,
		HealthProbeTimeout: time.Second,
	}
	report := NewHealthChecker(cfg, nil, nil).Check(context.Background())

	if report.Status != "healthy" {
		t.Fatalf("status = %q, want healthy", report.Status)
	}
	if len(report.Services) != 4 {
		t.Fatalf("expected 4 services, got %d", len(report.Services))
	}
	for name, s := range report.Services {
		if s.Status != "healthy" {
			t.Errorf("service %s status = %q", name, s.Status)
		}
	}
	if report.Databases["status"] != "unknown" {
		t.Errorf("databases status = %v, want unknown", report.Databases["status"])
	}
	if report.Redis["status"] != "unknown" {
		t.Errorf("redis status = %v, want unknown", report.Redis["status"])
	}
}

func TestHealthCheckDegraded(t *testing.T) {
	up := newProbeTarget(t, http.StatusOK)
	down := newProbeTarget(t, http.StatusServiceUnavailable)

	cfg := &config.ServerEnvironment{
		UserServiceURL:     up.URL,
		PaymentServiceURL:  down.URL,
		ContentServiceURL:  up.URL,
		SolverServiceURL:   up.URL,
		HealthProbeTimeout: time.Second,
	}
	report := NewHealthChecker(cfg, nil, nil).Check(context.Background())

	if report.Status != "degraded" {
		t.Fatalf("status = %q, want degraded", report.Status)
	}
	if report.Services["payment-service"].Status != "unhealthy" {
		t.Errorf("payment-service status = %q, want unhealthy", report.Services["payment-service"].Status)
	}
	if report.Services["user-service"].Status != "healthy" {
		t.Errorf("user-service status = %q, want healthy", report.Services["user-service"].Status)
	}
}

func TestHealthCheckUnreachableService(t *testing.T) {
	up := newProbeTarget(t, http.StatusOK)

	cfg := &config.ServerEnvironment{
		UserServiceURL:     up.URL,
		PaymentServiceURL:  up.URL,
		ContentServiceURL:  up.URL,
		SolverServiceURL:   "http://127.0.0.1:1", // nothing listens here
		HealthProbeTimeout: 500 * time.Millisecond,
	}
	report := NewHealthChecker(cfg, nil, nil).Check(context.Background())

	if report.Status != "degraded" {
		t.Fatalf("status = %q, want degraded", report.Status)
	}
	if report.Services["math-solver"].Status != "unreachable" {
		t.Errorf("math-solver status = %q, want unreachable", report.Services["math-solver"].Status)
	}
}
