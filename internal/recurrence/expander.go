package recurrence

import (
	"time"

	"github.com/akinalpfdn/ExpenseTracker-sub000/internal/core"
	"github.com/akinalpfdn/ExpenseTracker-sub000/internal/dates"
)

// OccurrenceCap is the hard upper bound on the number of dates a single
// expansion emits. Unbounded rules are an expected input; the cap keeps
// their expansion finite. Identical in tests and production.
const OccurrenceCap = 1000

// Expander walks recurrence rules forward in a fixed calendar.
type Expander struct {
	cal dates.Calendar
}

// NewExpander returns an Expander operating in the given calendar.
func NewExpander(cal dates.Calendar) Expander {
	return Expander{cal: cal}
}

// Expand returns the ordered occurrence dates of rule within
// [windowStart, windowEnd], both bounds inclusive. The walk starts at
// origin, so an origin inside the window is emitted at index 0. The rule's
// EndDate, when set, is an exclusive bound. Output is strictly increasing
// and never longer than OccurrenceCap.
//
// Degenerate inputs yield an empty result rather than an error: a rule of
// kind none, an inverted window, an EndDate at or before origin, and a
// custom rule with a non-positive interval.
func (e Expander) Expand(rule core.RecurrenceRule, origin, windowStart, windowEnd time.Time) []time.Time {
	if !rule.IsRepeating() {
		return nil
	}
	if windowStart.After(windowEnd) {
		return nil
	}
	if !rule.EndDate.IsZero() && !rule.EndDate.After(origin) {
		return nil
	}
	step, err := StepperFor(rule)
	if err != nil {
		// Defensive default: a zero or negative custom interval would
		// never advance the walk, so treat it like kind none.
		return nil
	}

	var out []time.Time
	for k := 0; len(out) < OccurrenceCap; k++ {
		d := step.Occurrence(e.cal, origin, k)
		if d.After(windowEnd) {
			break
		}
		if !rule.EndDate.IsZero() && !d.Before(rule.EndDate) {
			break
		}
		if !d.Before(windowStart) {
			out = append(out, d)
		}
	}
	return out
}
