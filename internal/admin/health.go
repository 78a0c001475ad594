package admin

// health.go aggregates platform health: it probes each service's readiness
// endpoint, reports database pool statistics and pings Redis.

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/mathservice-vn/platform/app/internal/config"
)

// ServiceStatus is the probe result for one service.
type ServiceStatus struct {
	Status         string  `json:"status"`
	ResponseTimeMS float64 `json:"response_time_ms"`
}

// HealthReport is the aggregate returned by GET /system/health.
type HealthReport struct {
	Status    string                   `json:"status"`
	Services  map[string]ServiceStatus `json:"services"`
	Databases map[string]any           `json:"databases"`
	Redis     map[string]any           `json:"redis"`
}

// HealthChecker probes the platform services and shared stores.
type HealthChecker struct {
	client   *http.Client
	services map[string]string
	pool     *pgxpool.Pool
	redis    *redis.Client
}

// NewHealthChecker wires the checker from the server configuration. pool and
// redisClient may be nil; the corresponding blocks then report unknown.
func NewHealthChecker(cfg *config.ServerEnvironment, pool *pgxpool.Pool, redisClient *redis.Client) *HealthChecker {
	return &HealthChecker{
		client: &http.Client{Timeout: cfg.HealthProbeTimeout},
		services: map[string]string{
			"user-service":    cfg.UserServiceURL,
			"payment-service": cfg.PaymentServiceURL,
			"content-service": cfg.ContentServiceURL,
			"math-solver":     cfg.SolverServiceURL,
		},
		pool:  pool,
		redis: redisClient,
	}
}

// Check probes every service concurrently and assembles the report. The
// aggregate status is healthy only when every probe succeeds.
func (hc *HealthChecker) Check(ctx context.Context) HealthReport {
	report := HealthReport{
		Services:  make(map[string]ServiceStatus, len(hc.services)),
		Databases: map[string]any{},
		Redis:     map[string]any{},
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	for name, baseURL := range hc.services {
		wg.Add(1)
		go func(name, baseURL string) {
			defer wg.Done()
			status := hc.probeService(ctx, baseURL)
			mu.Lock()
			report.Services[name] = status
			mu.Unlock()
		}(name, baseURL)
	}
	wg.Wait()

	healthy := true
	for _, s := range report.Services {
		if s.Status != "healthy" {
			healthy = false
		}
	}

	if hc.pool != nil {
		stat := hc.pool.Stat()
		dbStatus := "healthy"
		pingCtx, cancel := context.WithTimeout(ctx, hc.client.Timeout)
		if err := hc.pool.Ping(pingCtx); err != nil {
			dbStatus = "unhealthy"
			healthy = false
		}
		cancel()
		report.Databases = map[string]any{
			"status":            dbStatus,
			"total_connections": stat.TotalConns(),
			"idle_connections":  stat.IdleConns(),
			"max_connections":   stat.MaxConns(),
		}
	} else {
		report.Databases["status"] = "unknown"
	}

	if hc.redis != nil {
		start := time.Now()
		redisStatus := "healthy"
		if err := hc.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
			healthy = false
		}
		report.Redis = map[string]any{
			"status":           redisStatus,
			"response_time_ms": elapsedMS(start),
		}
	} else {
		report.Redis["status"] = "unknown"
	}

	if healthy {
		report.Status = "healthy"
	} else {
		report.Status = "degraded"
	}
	return report
}

func (hc *HealthChecker) probeService(ctx context.Context, baseURL string) ServiceStatus {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health/ready", nil)
	if err != nil {
		return ServiceStatus{Status: "unreachable"}
	}
	resp, err := hc.client.Do(req)
	if err != nil {
		return ServiceStatus{Status: "unreachable", ResponseTimeMS: elapsedMS(start)}
	}
	defer resp.Body.Close()

	status := "healthy"
	if resp.StatusCode != http.StatusOK {
		status = "unhealthy"
	}
	return ServiceStatus{Status: status, ResponseTimeMS: elapsedMS(start)}
}

func elapsedMS(start time.Time) float64 {
	return round2(float64(time.Since(start).Microseconds()) / 1000)
}
