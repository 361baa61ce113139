package middleware

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotaflow/quotaflow/testutil"
)

func TestHealthRoutes(t *testing.T) {
	router := gin.New()
	RegisterHealthRoutes(router, map[string]HealthCheck{
		"redis": func(ctx context.Context) error { return nil },
	})

	for _, path := range []string{"/health", "/health/liveness", "/health/readiness"} {
		resp := testutil.NewRequest(http.MethodGet, path).Perform(router)
		assert.Equal(t, http.StatusOK, resp.Code, path)
	}

	resp := testutil.NewRequest(http.MethodGet, "/health").Perform(router)
	assert.Contains(t, resp.Body.String(), `"status":"healthy"`)
	assert.Contains(t, resp.Body.String(), `"redis":"ok"`)
}

func TestHealthRoutes_FailingCheck(t *testing.T) {
	router := gin.New()
	RegisterHealthRoutes(router, map[string]HealthCheck{
		"redis": func(ctx context.Context) error { return errors.New("connection refused") },
	})

	resp := testutil.NewRequest(http.MethodGet, "/health").Perform(router)
	require.Equal(t, http.StatusServiceUnavailable, resp.Code)
	assert.Contains(t, resp.Body.String(), "connection refused")

	// liveness ignores dependency state
	resp = testutil.NewRequest(http.MethodGet, "/health/liveness").Perform(router)
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = testutil.NewRequest(http.MethodGet, "/health/readiness").Perform(router)
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
}
