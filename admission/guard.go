package admission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/quotaflow/quotaflow/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Guard is the admission controller. One instance owns its counter store
// and event bus; construct at startup, Close at shutdown. Requests share
// no mutable state except through the store, so Check is safe for
// arbitrary concurrency.
type Guard struct {
	config    Config
	store     CounterStore
	matcher   *Matcher
	keys      *KeyResolver
	evaluator *Evaluator
	throttle  *Throttle
	windows   windowSet
	whitelist map[string]struct{}
	eventBus  EventBus
	metrics   MetricsCollector
	otel      *OTelMetrics
	logger    *logger.CtxZapLogger
}

// NewGuard creates an admission guard with the default logger and an
// in-process or Redis store per the configuration.
func NewGuard(config Config) (*Guard, error) {
	return NewGuardWithLogger(config, nil, nil)
}

// NewGuardWithLogger creates an admission guard. redisClient is required
// when the configured store type is redis.
func NewGuardWithLogger(config Config, ctxLogger *logger.CtxZapLogger, redisClient *redis.Client) (*Guard, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if ctxLogger == nil {
		ctxLogger = logger.GetLogger("admission")
	}

	if !config.Enabled {
		ctxLogger.Debug("admission guard not enabled, all requests pass through")
		return &Guard{
			config: config,
			logger: ctxLogger,
		}, nil
	}

	config.ApplyDefaults()

	var store CounterStore
	switch StoreType(config.StoreType) {
	case StoreTypeMemory:
		store = NewMemoryStore()
		ctxLogger.Debug("admission guard using in-memory counter store")
	case StoreTypeRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("redis client is required for redis store")
		}
		store = NewRedisStore(redisClient, config.Redis.KeyPrefix)
		ctxLogger.Debug("admission guard using Redis counter store",
			zap.String("key_prefix", config.Redis.KeyPrefix))
	default:
		return nil, fmt.Errorf("unsupported store type: %s", config.StoreType)
	}

	windows := resolveWindows(config.WindowOverrides, ctxLogger)

	whitelist := make(map[string]struct{}, len(config.Whitelist))
	for _, identity := range config.Whitelist {
		whitelist[identity] = struct{}{}
	}

	ctxLogger.Debug("admission guard initialized",
		zap.String("store_type", config.StoreType),
		zap.String("namespace", config.Namespace),
		zap.Int("endpoints", len(config.Endpoints)))

	return &Guard{
		config:    config,
		store:     store,
		matcher:   NewMatcher(config.Endpoints, config.Default),
		keys:      NewKeyResolver(config.Namespace),
		evaluator: NewEvaluator(config.WarningThreshold, windows),
		throttle:  NewThrottle(config.SlowdownThreshold, config.BaseSlowdownDelay),
		windows:   windows,
		whitelist: whitelist,
		eventBus:  NewEventBus(config.EventBusBuffer),
		metrics:   NewMetricsCollector(),
		logger:    ctxLogger,
	}, nil
}

// resolveWindows applies duration-string overrides to the standard windows.
// Unparseable values fall back to 60s, logged once per bad value.
func resolveWindows(overrides map[string]string, log *logger.CtxZapLogger) windowSet {
	ws := defaultWindows()
	for name, raw := range overrides {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			log.Warn("invalid window override, falling back to 60s",
				zap.String("window", name),
				zap.String("value", raw))
			d = fallbackWindow
		}
		switch name {
		case WindowMinute.String():
			ws.minute = d
		case WindowHour.String():
			ws.hour = d
		case WindowDay.String():
			ws.day = d
		default:
			log.Warn("unknown window override ignored", zap.String("window", name))
		}
	}
	return ws
}

// Check runs the admission decision for one request: bypass check, endpoint
// resolution, counter reads, limit evaluation, counting, and slowdown
// computation. Blocked requests are reported through the Decision, not the
// error; the error is reserved for misuse and is never caused by a store
// outage (the guard fails open instead).
func (g *Guard) Check(ctx context.Context, req Request) (*Decision, error) {
	if !g.config.Enabled {
		return &Decision{Allowed: true, Bypassed: true}, nil
	}

	if _, ok := g.whitelist[req.Identity]; ok {
		return &Decision{Allowed: true, Bypassed: true}, nil
	}

	pattern, policy := g.matcher.Resolve(req.Path)
	dims := policy.Dimensions()
	if len(dims) == 0 {
		// Nothing configured for this endpoint: admit without counting.
		return &Decision{Allowed: true, Pattern: pattern}, nil
	}

	base := g.keys.Resolve(req.Identity, pattern)
	now := time.Now()

	counts := make(map[Dimension]int64, len(dims))
	for _, dim := range dims {
		value, err := g.store.Get(ctx, DimensionKey(base, dim))
		if err != nil {
			return g.failOpen(ctx, req, pattern, err), nil
		}
		counts[dim] = value
	}

	result := g.evaluator.Evaluate(now, counts, policy, req.PayloadSize)
	if result.Blocked {
		retryAfter := ceilSeconds(result.ResetAt.Sub(now))
		decision := &Decision{
			Allowed:    false,
			Pattern:    pattern,
			Reason:     result.Reason,
			HasBudget:  true,
			Limit:      policy.Limit(result.Dimension),
			Remaining:  0,
			ResetAt:    result.ResetAt,
			RetryAfter: retryAfter,
		}

		g.metrics.RecordBlocked(result.Reason)
		if g.otel != nil {
			g.otel.RecordBlocked(ctx, pattern, result.Reason)
		}
		g.eventBus.Publish(&BlockedEvent{
			BaseEvent:  NewBaseEvent(EventBlocked, req.Identity, pattern),
			Reason:     result.Reason,
			RetryAfter: retryAfter,
			ResetAt:    result.ResetAt,
		})

		return decision, nil
	}

	// Count the admitted request. Byte counters advance only for admitted
	// requests carrying a payload.
	for _, dim := range dims {
		amount := int64(1)
		if dim.Bytes() {
			if req.PayloadSize <= 0 {
				continue
			}
			amount = req.PayloadSize
		}
		total, err := g.store.IncrBy(ctx, DimensionKey(base, dim), amount, g.windows.untilReset(dim.Window(), now))
		if err != nil {
			return g.failOpen(ctx, req, pattern, err), nil
		}
		counts[dim] = total
	}

	decision := &Decision{
		Allowed:   true,
		Pattern:   pattern,
		HasBudget: true,
		Warnings:  result.Warnings,
		Delay:     g.throttle.Delay(counts, policy),
	}
	g.fillBudget(decision, counts, policy, now)

	g.metrics.RecordAdmitted()
	if g.otel != nil {
		g.otel.RecordAdmitted(ctx, pattern)
	}
	g.eventBus.Publish(&AdmittedEvent{
		BaseEvent: NewBaseEvent(EventAdmitted, req.Identity, pattern),
		Remaining: decision.Remaining,
		Warnings:  result.Warnings,
	})

	if decision.Delay > 0 {
		g.metrics.RecordThrottled(decision.Delay)
		if g.otel != nil {
			g.otel.RecordThrottled(ctx, pattern, float64(decision.Delay)/float64(time.Millisecond))
		}
		g.eventBus.Publish(&ThrottledEvent{
			BaseEvent: NewBaseEvent(EventThrottled, req.Identity, pattern),
			Delay:     decision.Delay,
		})
	}

	return decision, nil
}

// fillBudget computes the headline budget: remaining is the minimum across
// configured dimensions, the limit is that dimension's budget, and the
// reset is the earliest window boundary.
func (g *Guard) fillBudget(d *Decision, counts map[Dimension]int64, policy EndpointPolicy, now time.Time) {
	d.Remaining = Unlimited
	for _, dim := range policy.Dimensions() {
		limit := policy.Limit(dim)
		remaining := limit - counts[dim]
		if remaining < 0 {
			remaining = 0
		}
		if d.Remaining == Unlimited || remaining < d.Remaining {
			d.Remaining = remaining
			d.Limit = limit
		}

		reset := g.windows.nextReset(dim.Window(), now)
		if d.ResetAt.IsZero() || reset.Before(d.ResetAt) {
			d.ResetAt = reset
		}
	}
}

// failOpen admits a request after a store failure: availability wins over
// strict enforcement, and the controller must never turn a store outage
// into a failed business request.
func (g *Guard) failOpen(ctx context.Context, req Request, pattern string, err error) *Decision {
	if errors.Is(err, ErrStoreUnavailable) || errors.Is(err, ErrStoreClosed) {
		g.logger.WarnCtx(ctx, "counter store unavailable, admitting request fail-open",
			zap.String("identity", req.Identity),
			zap.String("endpoint", pattern),
			zap.Error(err))
	} else {
		g.logger.WarnCtx(ctx, "counter store error, admitting request fail-open",
			zap.String("identity", req.Identity),
			zap.String("endpoint", pattern),
			zap.Error(err))
	}

	g.metrics.RecordDegraded()
	if g.otel != nil {
		g.otel.RecordDegraded(ctx, pattern)
	}
	g.eventBus.Publish(&StoreDegradedEvent{
		BaseEvent: NewBaseEvent(EventStoreDegraded, req.Identity, pattern),
		Err:       err,
	})

	return &Decision{Allowed: true, Pattern: pattern, Degraded: true}
}

// Reset drops all counters for an (identity, path) pair.
func (g *Guard) Reset(ctx context.Context, identity, path string) error {
	if !g.config.Enabled {
		return nil
	}

	pattern, _ := g.matcher.Resolve(path)
	base := g.keys.Resolve(identity, pattern)

	keys := make([]string, 0, 5)
	for _, dim := range []Dimension{DimRequestsMinute, DimRequestsHour, DimRequestsDay, DimBytesMinute, DimBytesHour} {
		keys = append(keys, DimensionKey(base, dim))
	}
	return g.store.Del(ctx, keys...)
}

// EventBus returns the event bus for subscriptions.
func (g *Guard) EventBus() EventBus {
	return g.eventBus
}

// Metrics returns a snapshot of the guard counters.
func (g *Guard) Metrics() *MetricsSnapshot {
	if g.metrics == nil {
		return &MetricsSnapshot{}
	}
	return g.metrics.GetSnapshot()
}

// SetOTelMetrics attaches an OTel provider; pass a registered provider
// before serving traffic.
func (g *Guard) SetOTelMetrics(m *OTelMetrics) {
	g.otel = m
}

// IsEnabled reports whether admission control is active.
func (g *Guard) IsEnabled() bool {
	return g.config.Enabled
}

// Config returns the guard configuration.
func (g *Guard) Config() Config {
	return g.config
}

// SkipPaths returns the configured exempt paths.
func (g *Guard) SkipPaths() []string {
	return g.config.SkipPaths
}

// Close tears down the event bus and the counter store.
func (g *Guard) Close() error {
	if g.eventBus != nil {
		g.eventBus.Close()
	}

	if g.store != nil {
		return g.store.Close()
	}

	return nil
}

// ceilSeconds rounds a duration up to whole seconds, minimum 1s.
func ceilSeconds(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Second
	}
	secs := (d + time.Second - 1) / time.Second
	return secs * time.Second
}
