package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/quotaflow/quotaflow/admission"
)

// healthPaths are always exempt from admission control.
var healthPaths = map[string]bool{
	"/health":           true,
	"/health/liveness":  true,
	"/health/readiness": true,
}

// AdmissionConfig configures the admission middleware.
type AdmissionConfig struct {
	// Guard admission controller (required)
	Guard *admission.Guard

	// IdentityFunc resolves the caller identity (default: authenticated
	// user id from the context, falling back to the client IP)
	IdentityFunc func(*gin.Context) string

	// PayloadSizeFunc resolves the request payload size in bytes
	// (default: Content-Length, 0 when absent)
	PayloadSizeFunc func(*gin.Context) int64

	// ErrorHandler handles guard errors (default: admit the request)
	ErrorHandler func(*gin.Context, error)

	// BlockedHandler renders the rejection (default: 429 JSON body with
	// Retry-After)
	BlockedHandler func(*gin.Context, *admission.Decision)

	// SkipFunc caller-supplied bypass predicate (optional)
	SkipFunc func(*gin.Context) bool

	// SkipPaths exempt paths in addition to the guard configuration and
	// the health endpoints
	SkipPaths []string
}

// DefaultAdmissionConfig returns the default middleware configuration.
func DefaultAdmissionConfig(guard *admission.Guard) AdmissionConfig {
	return AdmissionConfig{
		Guard:        guard,
		IdentityFunc: IdentityFromContext("user_id"),
		PayloadSizeFunc: func(c *gin.Context) int64 {
			if c.Request.ContentLength > 0 {
				return c.Request.ContentLength
			}
			return 0
		},
		ErrorHandler: func(c *gin.Context, err error) {
			// fail open on internal errors
			c.Next()
		},
		BlockedHandler: writeBlocked,
	}
}

// Admission creates the admission middleware with defaults.
//
// Usage:
//
//	engine.Use(middleware.Admission(guard))
//
//	cfg := middleware.DefaultAdmissionConfig(guard)
//	cfg.IdentityFunc = middleware.IdentityByHeader("X-API-Key")
//	cfg.SkipPaths = []string{"/metrics"}
//	engine.Use(middleware.AdmissionWithConfig(cfg))
func Admission(guard *admission.Guard) gin.HandlerFunc {
	return AdmissionWithConfig(DefaultAdmissionConfig(guard))
}

// AdmissionWithConfig creates the admission middleware.
func AdmissionWithConfig(cfg AdmissionConfig) gin.HandlerFunc {
	if cfg.Guard == nil {
		panic("AdmissionConfig.Guard cannot be nil")
	}

	if cfg.IdentityFunc == nil {
		cfg.IdentityFunc = IdentityFromContext("user_id")
	}
	if cfg.PayloadSizeFunc == nil {
		cfg.PayloadSizeFunc = func(c *gin.Context) int64 {
			if c.Request.ContentLength > 0 {
				return c.Request.ContentLength
			}
			return 0
		}
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c *gin.Context, err error) {
			c.Next()
		}
	}
	if cfg.BlockedHandler == nil {
		cfg.BlockedHandler = writeBlocked
	}

	skip := make(map[string]bool, len(cfg.SkipPaths)+len(cfg.Guard.SkipPaths()))
	for _, path := range cfg.Guard.SkipPaths() {
		skip[path] = true
	}
	for _, path := range cfg.SkipPaths {
		skip[path] = true
	}

	return func(c *gin.Context) {
		if !cfg.Guard.IsEnabled() {
			c.Next()
			return
		}

		path := c.Request.URL.Path
		if healthPaths[path] || skip[path] {
			c.Next()
			return
		}

		if cfg.SkipFunc != nil && cfg.SkipFunc(c) {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		decision, err := cfg.Guard.Check(ctx, admission.Request{
			Identity:    cfg.IdentityFunc(c),
			Path:        path,
			Method:      c.Request.Method,
			PayloadSize: cfg.PayloadSizeFunc(c),
		})
		if err != nil {
			cfg.ErrorHandler(c, err)
			return
		}

		attachBudgetHeaders(c, decision)

		if !decision.Allowed {
			cfg.BlockedHandler(c, decision)
			return
		}

		if decision.Delay > 0 {
			// Suspends only this request; a cancelled request abandons
			// the delay together with its timer.
			if err := admission.Sleep(ctx, decision.Delay); err != nil {
				c.Abort()
				return
			}
		}

		c.Next()
	}
}

// IdentityFromContext resolves the identity from an authenticated context
// value, falling back to the client IP for anonymous callers.
func IdentityFromContext(userIDKey string) func(*gin.Context) string {
	return func(c *gin.Context) string {
		if userID, exists := c.Get(userIDKey); exists {
			return fmt.Sprintf("user:%v", userID)
		}
		return "ip:" + c.ClientIP()
	}
}

// IdentityByHeader resolves the identity from a request header, falling
// back to the client IP when the header is empty.
func IdentityByHeader(headerName string) func(*gin.Context) string {
	return func(c *gin.Context) string {
		if value := c.GetHeader(headerName); value != "" {
			return "key:" + value
		}
		return "ip:" + c.ClientIP()
	}
}

// IdentityByIP resolves the identity from the client IP only.
func IdentityByIP(c *gin.Context) string {
	return "ip:" + c.ClientIP()
}
