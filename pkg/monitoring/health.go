package monitoring

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status    string                 `json:"status"`
	Service   string                 `json:"service"`
	Version   string                 `json:"version"`
	Timestamp int64                  `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks"`
}

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

const defaultCheckTimeout = 5 * time.Second

// CheckResult represents the result of an individual health check
type CheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// HealthCheck checks one dependency. It must return once ctx is done.
type HealthCheck func(ctx context.Context) CheckResult

// HealthChecker runs the registered checks concurrently, each bounded by
// Timeout.
type HealthChecker struct {
	service string
	version string
	Timeout time.Duration

	mu     sync.RWMutex
	checks map[string]HealthCheck
}

func NewHealthChecker(service, version string) *HealthChecker {
	return &HealthChecker{
		service: service,
		version: version,
		Timeout: defaultCheckTimeout,
		checks:  make(map[string]HealthCheck),
	}
}

func (hc *HealthChecker) AddCheck(name string, check HealthCheck) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.checks[name] = check
}

// CheckHealth runs all checks and folds them into one status: any unhealthy
// (or unknown) result wins over degraded, which wins over healthy.
func (hc *HealthChecker) CheckHealth(ctx context.Context) HealthStatus {
	hc.mu.RLock()
	names := make([]string, 0, len(hc.checks))
	for name := range hc.checks {
		names = append(names, name)
	}
	checks := make([]HealthCheck, len(names))
	sort.Strings(names)
	for i, name := range names {
		checks[i] = hc.checks[name]
	}
	hc.mu.RUnlock()

	timeout := hc.Timeout
	if timeout <= 0 {
		timeout = defaultCheckTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	results := make([]CheckResult, len(checks))
	var g errgroup.Group
	for i, check := range checks {
		g.Go(func() error {
			results[i] = check(ctx)
			return nil
		})
	}
	_ = g.Wait()

	status := HealthStatus{
		Service:   hc.service,
		Version:   hc.version,
		Timestamp: time.Now().Unix(),
		Checks:    make(map[string]CheckResult, len(names)),
		Status:    StatusHealthy,
	}
	for i, name := range names {
		status.Checks[name] = results[i]
		switch results[i].Status {
		case StatusHealthy:
		case StatusDegraded:
			if status.Status == StatusHealthy {
				status.Status = StatusDegraded
			}
		default:
			status.Status = StatusUnhealthy
		}
	}
	return status
}

// Handler serves the health document; 503 when unhealthy.
func (hc *HealthChecker) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		health := hc.CheckHealth(c.Request.Context())
		statusCode := http.StatusOK
		if health.Status == StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		c.JSON(statusCode, health)
	}
}

// DatabaseHealthCheck pings the pool and reports its open connection count.
func DatabaseHealthCheck(db *sql.DB) HealthCheck {
	return func(ctx context.Context) CheckResult {
		if db == nil {
			return CheckResult{Status: StatusUnhealthy, Message: "Database connection is nil"}
		}
		start := time.Now()
		err := db.PingContext(ctx)
		latency := time.Since(start).String()
		if err != nil {
			return CheckResult{
				Status:  StatusUnhealthy,
				Message: fmt.Sprintf("Database ping failed: %v", err),
				Latency: latency,
			}
		}
		stats := db.Stats()
		return CheckResult{
			Status:  StatusHealthy,
			Message: fmt.Sprintf("Database reachable (%d open, %d in use)", stats.OpenConnections, stats.InUse),
			Latency: latency,
		}
	}
}

// ConfigurationHealthCheck reports degraded when any of the named settings is empty.
func ConfigurationHealthCheck(settings map[string]string) HealthCheck {
	return func(context.Context) CheckResult {
		var missing []string
		for name, value := range settings {
			if strings.TrimSpace(value) == "" {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			return CheckResult{
				Status:  StatusDegraded,
				Message: "Missing configuration: " + strings.Join(missing, ", "),
			}
		}
		return CheckResult{Status: StatusHealthy, Message: "Configuration complete"}
	}
}
