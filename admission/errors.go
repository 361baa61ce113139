package admission

import "errors"

var (
	// ErrStoreUnavailable backend unreachable, caller must fail open
	ErrStoreUnavailable = errors.New("counter store unavailable")

	// ErrStoreClosed store already closed
	ErrStoreClosed = errors.New("counter store closed")

	// ErrInvalidConfig configuration invalid
	ErrInvalidConfig = errors.New("invalid config")
)

// ValidationError reports an invalid configuration field.
type ValidationError struct {
	Pattern string
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Pattern != "" {
		if e.Err != nil {
			return "admission config validation failed for endpoint '" + e.Pattern + "': " + e.Err.Error()
		}
		return "admission config validation failed for endpoint '" + e.Pattern + "." + e.Field + "': " + e.Message
	}

	if e.Field != "" {
		return "admission config validation failed for field '" + e.Field + "': " + e.Message
	}

	if e.Err != nil {
		return "admission config validation failed: " + e.Err.Error()
	}

	return "admission config validation failed"
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
