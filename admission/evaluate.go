package admission

import (
	"fmt"
	"time"
)

// Result is the ephemeral outcome of evaluating current counts against a
// policy. Never persisted.
type Result struct {
	Blocked   bool
	Reason    string
	Dimension Dimension
	ResetAt   time.Time
	Remaining map[Dimension]int64
	Warnings  []string
}

// Evaluator decides allow/block from current counts and computes remaining
// budgets and warnings.
type Evaluator struct {
	warningThreshold float64
	windows          windowSet
}

// NewEvaluator creates an evaluator. threshold is the warning fraction
// (0.8 when zero).
func NewEvaluator(threshold float64, windows windowSet) *Evaluator {
	if threshold <= 0 {
		threshold = 0.8
	}
	return &Evaluator{
		warningThreshold: threshold,
		windows:          windows,
	}
}

// Evaluate applies the policy to the pre-increment counts, first violation
// wins. Count dimensions (minute, hour, day) are checked before byte
// dimensions (minute, hour). A single oversized request is admitted into an
// empty byte window so a caller whose one request exceeds the budget is
// never permanently starved.
func (e *Evaluator) Evaluate(now time.Time, counts map[Dimension]int64, policy EndpointPolicy, incomingSize int64) *Result {
	result := &Result{
		Remaining: make(map[Dimension]int64),
	}

	for _, dim := range countDimensions {
		limit := policy.Limit(dim)
		if limit <= 0 {
			continue
		}
		if counts[dim] >= limit {
			result.Blocked = true
			result.Reason = fmt.Sprintf("%s limit exceeded", dim)
			result.Dimension = dim
			result.ResetAt = e.windows.nextReset(dim.Window(), now)
			return result
		}
	}

	for _, dim := range byteDimensions {
		limit := policy.Limit(dim)
		if limit <= 0 {
			continue
		}
		if counts[dim]+incomingSize > limit {
			// Oversized-first-request tie-break: an empty window always
			// admits one request, even past the byte budget.
			if counts[dim] == 0 {
				continue
			}
			result.Blocked = true
			result.Reason = fmt.Sprintf("%s limit exceeded", dim)
			result.Dimension = dim
			result.ResetAt = e.windows.nextReset(dim.Window(), now)
			return result
		}
	}

	for _, dim := range policy.Dimensions() {
		limit := policy.Limit(dim)
		remaining := limit - counts[dim]
		if remaining < 0 {
			remaining = 0
		}
		result.Remaining[dim] = remaining

		if float64(counts[dim]) >= e.warningThreshold*float64(limit) {
			pct := counts[dim] * 100 / limit
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s budget %d%% consumed (%d of %d)", dim, pct, counts[dim], limit))
		}
	}

	return result
}
