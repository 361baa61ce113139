// Package admission provides adaptive, multi-window request admission control
//
// Design philosophy:
// - Standalone package, depends only on the logger component of quotaflow
// - Event-driven, the application layer can subscribe to all events
// - Metrics exposed, application layer can access real-time data
// - Optional enablement, passthrough when not configured
// - Progressive response: warnings, artificial slowdown, then hard rejection
// - Supports multiple storages: memory, Redis
package admission

import (
	"time"
)

// Request carries the per-request inputs supplied by upstream collaborators:
// the resolved caller identity (user id or network address), the raw request
// path and method, and the payload size in bytes (0 when not applicable).
type Request struct {
	Identity    string
	Path        string
	Method      string
	PayloadSize int64
}

// Decision is the per-request admission outcome. It is never persisted.
type Decision struct {
	// Allowed reports whether the request may proceed downstream.
	Allowed bool

	// Bypassed is set for exempt requests (guard disabled, whitelisted
	// identity). Bypassed requests are not counted and carry no budget.
	Bypassed bool

	// Degraded is set when the counter backend was unreachable and the
	// guard failed open.
	Degraded bool

	// Pattern is the endpoint pattern the request resolved to.
	Pattern string

	// Reason describes the violated budget (valid when Allowed=false).
	Reason string

	// HasBudget reports whether any dimension is configured for the
	// endpoint; when false Limit/Remaining/ResetAt are meaningless.
	HasBudget bool

	// Limit is the budget of the tightest configured dimension.
	Limit int64

	// Remaining is the minimum remaining budget across configured
	// dimensions, Unlimited for dimensions without a configured limit.
	Remaining int64

	// ResetAt is the earliest window reset among configured dimensions.
	ResetAt time.Time

	// RetryAfter suggests when to retry (valid when Allowed=false).
	RetryAfter time.Duration

	// Warnings lists budget dimensions past the warning threshold.
	Warnings []string

	// Delay is the progressive slowdown to apply before forwarding.
	Delay time.Duration
}

// Unlimited is the remaining-budget sentinel for unconfigured dimensions.
const Unlimited int64 = -1
