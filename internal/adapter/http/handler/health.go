package handler

import (
	"context"
	"net/http"
	"time"

	"b2b-wallet/internal/core/ports"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const healthTimeout = 2 * time.Second

type dependencyStatus struct {
	Status    string  `json:"status"`
	LatencyMS float64 `json:"latency_ms"`
	Error     string  `json:"error,omitempty"`
}

// HealthCheck handles GET /health. Dependencies are probed in parallel under
// a shared deadline; any failure degrades the whole report to 503.
func HealthCheck(checkers ...ports.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		statuses := make([]dependencyStatus, len(checkers))
		var g errgroup.Group
		for i, checker := range checkers {
			g.Go(func() error {
				statuses[i] = probe(ctx, checker)
				return nil
			})
		}
		_ = g.Wait()

		deps := make(map[string]dependencyStatus, len(checkers))
		code, status := http.StatusOK, "healthy"
		for i, checker := range checkers {
			deps[checker.Name()] = statuses[i]
			if statuses[i].Error != "" {
				code, status = http.StatusServiceUnavailable, "degraded"
			}
		}

		c.JSON(code, gin.H{
			"status":       status,
			"dependencies": deps,
		})
	}
}

func probe(ctx context.Context, checker ports.HealthChecker) dependencyStatus {
	start := time.Now()
	err := checker.Ping(ctx)
	st := dependencyStatus{
		Status:    "healthy",
		LatencyMS: float64(time.Since(start).Microseconds()) / 1000,
	}
	if err != nil {
		st.Status = "unhealthy"
		st.Error = err.Error()
	}
	return st
}
