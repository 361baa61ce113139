package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/quotaflow/quotaflow/admission"
)

// Rate-limit response headers.
const (
	HeaderLimit     = "X-RateLimit-Limit"
	HeaderRemaining = "X-RateLimit-Remaining"
	HeaderReset     = "X-RateLimit-Reset"
	HeaderWarning   = "X-RateLimit-Warning"
	HeaderSlowdown  = "X-RateLimit-Slowdown"
	HeaderRetry     = "Retry-After"
)

// BlockedCode is the machine-readable code carried by every 429 body.
const BlockedCode = "RATE_LIMIT_EXCEEDED"

// blockedResponse is the 429 response body.
type blockedResponse struct {
	Error             string `json:"error"`
	Message           string `json:"message"`
	Code              string `json:"code"`
	RetryAfterSeconds int64  `json:"retryAfterSeconds"`
	ResetTime         string `json:"resetTime"`
	Timestamp         string `json:"timestamp"`
}

// attachBudgetHeaders renders the standard rate-limit headers. Exempt
// decisions and endpoints without any configured budget get none.
func attachBudgetHeaders(c *gin.Context, d *admission.Decision) {
	if d.Bypassed || d.Degraded || !d.HasBudget {
		return
	}

	c.Header(HeaderLimit, strconv.FormatInt(d.Limit, 10))
	c.Header(HeaderRemaining, strconv.FormatInt(d.Remaining, 10))
	c.Header(HeaderReset, strconv.FormatInt(d.ResetAt.Unix(), 10))

	if len(d.Warnings) > 0 {
		c.Header(HeaderWarning, strings.Join(d.Warnings, "; "))
	}
	if d.Delay > 0 {
		c.Header(HeaderSlowdown, strconv.FormatInt(d.Delay.Milliseconds(), 10))
	}
}

// writeBlocked renders the 429 rejection with Retry-After.
func writeBlocked(c *gin.Context, d *admission.Decision) {
	retrySeconds := int64(d.RetryAfter / time.Second)
	if retrySeconds < 1 {
		retrySeconds = 1
	}

	c.Header(HeaderRetry, strconv.FormatInt(retrySeconds, 10))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, blockedResponse{
		Error:             "Too Many Requests",
		Message:           d.Reason,
		Code:              BlockedCode,
		RetryAfterSeconds: retrySeconds,
		ResetTime:         d.ResetAt.UTC().Format(time.RFC3339),
		Timestamp:         time.Now().UTC().Format(time.RFC3339),
	})
}
