package admission

import (
	"time"
)

// Config is the admission guard configuration.
type Config struct {
	// Enabled whether admission control is active (false means passthrough)
	Enabled bool `mapstructure:"enabled"`

	// StoreType storage type: memory, redis
	StoreType string `mapstructure:"store_type"`

	// Namespace prefixes every counter key so independent guard instances
	// (upload-specific, search-specific) keep separate budgets for the
	// same identity.
	Namespace string `mapstructure:"namespace"`

	// Redis configuration (required when StoreType is redis)
	Redis RedisKeyConfig `mapstructure:"redis"`

	// EventBusBuffer event bus buffer size
	EventBusBuffer int `mapstructure:"event_bus_buffer"`

	// WarningThreshold fraction of a budget at which warnings are raised
	WarningThreshold float64 `mapstructure:"warning_threshold"`

	// SlowdownThreshold fraction of a budget at which artificial delay starts
	SlowdownThreshold float64 `mapstructure:"slowdown_threshold"`

	// BaseSlowdownDelay maximum artificial delay, reached at full budget
	BaseSlowdownDelay time.Duration `mapstructure:"base_slowdown_delay"`

	// Whitelist identities that bypass admission control entirely
	Whitelist []string `mapstructure:"whitelist"`

	// SkipPaths paths that bypass admission control (health checks are
	// always exempt regardless of this list)
	SkipPaths []string `mapstructure:"skip_paths"`

	// WindowOverrides shortens the standard windows, keyed by window name
	// ("minute", "hour", "day"). Values are duration strings; unparseable
	// values fall back to 60s.
	WindowOverrides map[string]string `mapstructure:"window_overrides"`

	// Default policy applied when no endpoint pattern matches
	Default EndpointPolicy `mapstructure:"default"`

	// Endpoints ordered (pattern, policy) pairs, first match wins
	Endpoints []EndpointRule `mapstructure:"endpoints"`
}

// EndpointRule binds a path pattern to a policy. Patterns may contain
// ":param" and "*" segments.
type EndpointRule struct {
	Pattern string         `mapstructure:"pattern"`
	Policy  EndpointPolicy `mapstructure:",squash"`
}

// EndpointPolicy is the immutable per-pattern budget configuration.
// A zero field means unlimited for that dimension.
type EndpointPolicy struct {
	RequestsPerMinute int64 `mapstructure:"requests_per_minute"`
	RequestsPerHour   int64 `mapstructure:"requests_per_hour"`
	RequestsPerDay    int64 `mapstructure:"requests_per_day"`
	BytesPerMinute    int64 `mapstructure:"bytes_per_minute"`
	BytesPerHour      int64 `mapstructure:"bytes_per_hour"`
}

// RedisKeyConfig Redis key settings for the shared store.
type RedisKeyConfig struct {
	KeyPrefix string `mapstructure:"key_prefix"`
}

// Limit returns the configured budget for the dimension, 0 when unlimited.
func (p EndpointPolicy) Limit(dim Dimension) int64 {
	switch dim {
	case DimRequestsMinute:
		return p.RequestsPerMinute
	case DimRequestsHour:
		return p.RequestsPerHour
	case DimRequestsDay:
		return p.RequestsPerDay
	case DimBytesMinute:
		return p.BytesPerMinute
	case DimBytesHour:
		return p.BytesPerHour
	default:
		return 0
	}
}

// Dimensions returns the configured dimensions in evaluation order:
// count dimensions (minute, hour, day) before byte dimensions (minute, hour).
func (p EndpointPolicy) Dimensions() []Dimension {
	dims := make([]Dimension, 0, 5)
	for _, d := range countDimensions {
		if p.Limit(d) > 0 {
			dims = append(dims, d)
		}
	}
	for _, d := range byteDimensions {
		if p.Limit(d) > 0 {
			dims = append(dims, d)
		}
	}
	return dims
}

// Merge fills unset dimensions from defaults. Explicit endpoint budgets
// always win.
func (p EndpointPolicy) Merge(defaults EndpointPolicy) EndpointPolicy {
	if p.RequestsPerMinute == 0 {
		p.RequestsPerMinute = defaults.RequestsPerMinute
	}
	if p.RequestsPerHour == 0 {
		p.RequestsPerHour = defaults.RequestsPerHour
	}
	if p.RequestsPerDay == 0 {
		p.RequestsPerDay = defaults.RequestsPerDay
	}
	if p.BytesPerMinute == 0 {
		p.BytesPerMinute = defaults.BytesPerMinute
	}
	if p.BytesPerHour == 0 {
		p.BytesPerHour = defaults.BytesPerHour
	}
	return p
}

// IsEmpty reports whether no dimension is configured.
func (p EndpointPolicy) IsEmpty() bool {
	return p.RequestsPerMinute == 0 &&
		p.RequestsPerHour == 0 &&
		p.RequestsPerDay == 0 &&
		p.BytesPerMinute == 0 &&
		p.BytesPerHour == 0
}

// Validate checks all budgets are non-negative.
func (p *EndpointPolicy) Validate() error {
	for _, d := range []Dimension{DimRequestsMinute, DimRequestsHour, DimRequestsDay, DimBytesMinute, DimBytesHour} {
		if p.Limit(d) < 0 {
			return &ValidationError{Field: d.String(), Message: "must be >= 0"}
		}
	}
	return nil
}

// DefaultConfig returns the default guard configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:           false,
		StoreType:         string(StoreTypeMemory),
		Namespace:         "rl",
		EventBusBuffer:    500,
		WarningThreshold:  0.8,
		SlowdownThreshold: 0.9,
		BaseSlowdownDelay: time.Second,
		Whitelist:         []string{},
		SkipPaths:         []string{},
		Endpoints:         []EndpointRule{},
	}
}

// ApplyDefaults fills zero-valued fields with defaults.
func (c *Config) ApplyDefaults() {
	if c.StoreType == "" {
		c.StoreType = string(StoreTypeMemory)
	}
	if c.Namespace == "" {
		c.Namespace = "rl"
	}
	if c.EventBusBuffer <= 0 {
		c.EventBusBuffer = 500
	}
	if c.WarningThreshold <= 0 {
		c.WarningThreshold = 0.8
	}
	if c.SlowdownThreshold <= 0 {
		c.SlowdownThreshold = 0.9
	}
	if c.BaseSlowdownDelay <= 0 {
		c.BaseSlowdownDelay = time.Second
	}
	if c.Redis.KeyPrefix == "" {
		c.Redis.KeyPrefix = "quotaflow:"
	}
}

// Validate checks the configuration. Not-enabled configurations are
// accepted as-is since the guard is a passthrough.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	c.ApplyDefaults()

	if c.StoreType != string(StoreTypeMemory) && c.StoreType != string(StoreTypeRedis) {
		return &ValidationError{Field: "store_type", Message: "must be 'memory' or 'redis'"}
	}

	if c.WarningThreshold > 1 {
		return &ValidationError{Field: "warning_threshold", Message: "must be within (0, 1]"}
	}
	if c.SlowdownThreshold >= 1 {
		return &ValidationError{Field: "slowdown_threshold", Message: "must be within (0, 1)"}
	}

	if err := c.Default.Validate(); err != nil {
		return err
	}

	for _, rule := range c.Endpoints {
		if rule.Pattern == "" {
			return &ValidationError{Field: "endpoints.pattern", Message: "must not be empty"}
		}
		if err := rule.Policy.Validate(); err != nil {
			return &ValidationError{Pattern: rule.Pattern, Err: err}
		}
	}

	return nil
}
