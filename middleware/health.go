package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthCheck probes one dependency; returning an error marks it unhealthy.
type HealthCheck func(ctx context.Context) error

// RegisterHealthRoutes registers the health endpoints. They are always
// exempt from admission control.
//
// GET /health           - aggregate status of all checks
// GET /health/liveness  - process liveness, no dependency probing
// GET /health/readiness - ready for traffic, all checks must pass
func RegisterHealthRoutes(router gin.IRouter, checks map[string]HealthCheck) {
	router.GET("/health", func(c *gin.Context) {
		status, results := runChecks(c.Request.Context(), checks)
		code := http.StatusOK
		if status != "healthy" {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status": status,
			"checks": results,
		})
	})

	router.GET("/health/liveness", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "alive"})
	})

	router.GET("/health/readiness", func(c *gin.Context) {
		status, _ := runChecks(c.Request.Context(), checks)
		code := http.StatusOK
		if status != "healthy" {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": status})
	})
}

func runChecks(ctx context.Context, checks map[string]HealthCheck) (string, map[string]string) {
	status := "healthy"
	results := make(map[string]string, len(checks))

	for name, check := range checks {
		if err := check(ctx); err != nil {
			status = "unhealthy"
			results[name] = err.Error()
			continue
		}
		results[name] = "ok"
	}

	return status, results
}
