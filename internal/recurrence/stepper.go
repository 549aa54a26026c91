// Package recurrence expands recurring-expense rules into concrete dated
// occurrences and derives instance records from templates.
//
// Each recurrence kind has its own stepper that encapsulates the date
// arithmetic for that frequency; steppers are looked up through a registry
// keyed by kind.
package recurrence

import (
	"fmt"
	"time"

	"github.com/akinalpfdn/ExpenseTracker-sub000/internal/core"
	"github.com/akinalpfdn/ExpenseTracker-sub000/internal/dates"
)

// Stepper computes the k-th occurrence of a rule counting from the origin
// date. Occurrence 0 is the origin itself. Stepping from the origin rather
// than from the previous occurrence keeps monthly and yearly walks from
// drifting after short months.
type Stepper interface {
	Occurrence(cal dates.Calendar, origin time.Time, k int) time.Time
}

// unitStepper steps by a fixed number of calendar units per occurrence.
type unitStepper struct {
	unit  dates.Unit
	count int
}

func (s unitStepper) Occurrence(cal dates.Calendar, origin time.Time, k int) time.Time {
	return cal.AddPeriod(origin, s.unit, k*s.count)
}

// customStepper steps by a rule-supplied number of days per occurrence.
type customStepper struct {
	days int
}

func (s customStepper) Occurrence(cal dates.Calendar, origin time.Time, k int) time.Time {
	return cal.AddPeriod(origin, dates.Day, k*s.days)
}

var steppers = map[core.RecurrenceKind]Stepper{
	core.RecurrenceDaily:     unitStepper{dates.Day, 1},
	core.RecurrenceWeekly:    unitStepper{dates.Week, 1},
	core.RecurrenceBiweekly:  unitStepper{dates.Week, 2},
	core.RecurrenceMonthly:   unitStepper{dates.Month, 1},
	core.RecurrenceQuarterly: unitStepper{dates.Month, 3},
	core.RecurrenceYearly:    unitStepper{dates.Year, 1},
}

// StepperFor returns the stepper for a rule. Rules of kind none have no
// stepper; custom rules get a stepper built from their interval.
func StepperFor(rule core.RecurrenceRule) (Stepper, error) {
	if rule.Kind == core.RecurrenceCustom {
		if rule.CustomIntervalDays <= 0 {
			return nil, core.ErrInvalidInterval
		}
		return customStepper{days: rule.CustomIntervalDays}, nil
	}
	s, ok := steppers[rule.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown recurrence kind: %s", rule.Kind)
	}
	return s, nil
}
