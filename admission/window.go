package admission

import (
	"time"
)

// Window identifies a fixed counting window.
type Window uint8

const (
	WindowMinute Window = iota
	WindowHour
	WindowDay
)

// String returns the window name.
func (w Window) String() string {
	switch w {
	case WindowMinute:
		return "minute"
	case WindowHour:
		return "hour"
	case WindowDay:
		return "day"
	default:
		return "unknown"
	}
}

// Dimension is one tracked budget: request count or payload bytes over a window.
type Dimension uint8

const (
	DimRequestsMinute Dimension = iota
	DimRequestsHour
	DimRequestsDay
	DimBytesMinute
	DimBytesHour
)

// countDimensions are evaluated before byte dimensions, tightest window first.
var countDimensions = [...]Dimension{DimRequestsMinute, DimRequestsHour, DimRequestsDay}

var byteDimensions = [...]Dimension{DimBytesMinute, DimBytesHour}

// Window returns the time window the dimension counts over.
func (d Dimension) Window() Window {
	switch d {
	case DimRequestsMinute, DimBytesMinute:
		return WindowMinute
	case DimRequestsHour, DimBytesHour:
		return WindowHour
	default:
		return WindowDay
	}
}

// Bytes reports whether the dimension tracks payload volume.
func (d Dimension) Bytes() bool {
	return d == DimBytesMinute || d == DimBytesHour
}

// String returns the dimension name used in reasons and warnings.
func (d Dimension) String() string {
	if d.Bytes() {
		return "bytes-" + d.Window().String()
	}
	return d.Window().String()
}

// keySuffix returns the counter-key suffix for the dimension.
func (d Dimension) keySuffix() string {
	if d.Bytes() {
		return "bytes:" + d.Window().String()
	}
	return "count:" + d.Window().String()
}

// fallbackWindow is used when a window override cannot be parsed.
const fallbackWindow = 60 * time.Second

// windowSet holds the resolved window durations. Overrides exist for tests
// and for deployments that shorten windows; unparseable values fall back to
// 60s (logged once at guard construction).
type windowSet struct {
	minute time.Duration
	hour   time.Duration
	day    time.Duration
}

func defaultWindows() windowSet {
	return windowSet{
		minute: time.Minute,
		hour:   time.Hour,
		day:    24 * time.Hour,
	}
}

// duration returns the length of the given window.
func (ws windowSet) duration(w Window) time.Duration {
	switch w {
	case WindowMinute:
		return ws.minute
	case WindowHour:
		return ws.hour
	default:
		return ws.day
	}
}

// nextReset returns the start of the next fixed window after now.
// Windows are aligned to epoch boundaries, so all counters for a window
// reset at the same instant regardless of when counting started.
func (ws windowSet) nextReset(w Window, now time.Time) time.Time {
	d := ws.duration(w)
	return now.Truncate(d).Add(d)
}

// untilReset returns the TTL for a counter created now.
func (ws windowSet) untilReset(w Window, now time.Time) time.Duration {
	ttl := ws.nextReset(w, now).Sub(now)
	if ttl <= 0 {
		ttl = ws.duration(w)
	}
	return ttl
}
