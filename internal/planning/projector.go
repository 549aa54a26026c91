// Package planning derives savings-plan metrics from plan parameters and
// compares planned against actual monthly figures.
package planning

import (
	"time"

	"github.com/akinalpfdn/ExpenseTracker-sub000/internal/core"
	"github.com/akinalpfdn/ExpenseTracker-sub000/internal/dates"
	"github.com/akinalpfdn/ExpenseTracker-sub000/internal/finmath"
)

// Plan lifecycle states. Status is a pure function of the clock and the
// plan's fields, recomputed on every call, never stored.
const (
	PlanUpcoming  PlanStatus = "upcoming"
	PlanActive    PlanStatus = "active"
	PlanPaused    PlanStatus = "paused"
	PlanCompleted PlanStatus = "completed"
)

type PlanStatus string

// Status classifies a plan relative to now. Dates win over the active
// flag: a plan is upcoming before its start and completed from its end
// onward no matter the flag; within the span the flag decides between
// active and paused.
func Status(plan core.PlanParameters, now time.Time) PlanStatus {
	switch {
	case now.Before(plan.StartDate):
		return PlanUpcoming
	case !now.Before(plan.EndDate):
		return PlanCompleted
	case !plan.IsActive:
		return PlanPaused
	default:
		return PlanActive
	}
}

// Projector computes derived metrics for a savings plan.
type Projector struct {
	cal dates.Calendar
}

// NewProjector returns a Projector operating in the given calendar.
func NewProjector(cal dates.Calendar) Projector {
	return Projector{cal: cal}
}

// DurationMonths returns the plan's span in whole calendar months.
func (p Projector) DurationMonths(plan core.PlanParameters) int {
	return p.cal.MonthsBetween(plan.StartDate, plan.EndDate)
}

// RequiredMonthlySavings solves for the monthly payment that grows to the
// plan's savings goal over its duration at the plan's rate. Zero rate or a
// zero-month duration fall back to straight-line division; a degenerate
// sub-month span returns the whole goal at once.
func (p Projector) RequiredMonthlySavings(plan core.PlanParameters) (float64, error) {
	months := p.DurationMonths(plan)
	if months <= 0 {
		return plan.SavingsGoal, nil
	}
	if plan.AnnualRate == 0 {
		return plan.SavingsGoal / float64(months), nil
	}
	return finmath.RequiredPayment(plan.SavingsGoal, plan.AnnualRate, months)
}

// ProgressPercentage returns how far through its span the plan is at asOf:
// 0 before the start, 100 at or after the end, linear in between.
func (p Projector) ProgressPercentage(plan core.PlanParameters, asOf time.Time) float64 {
	if !asOf.After(plan.StartDate) {
		return 0
	}
	if !asOf.Before(plan.EndDate) {
		return 100
	}
	total := plan.EndDate.Sub(plan.StartDate)
	elapsed := asOf.Sub(plan.StartDate)
	return float64(elapsed) / float64(total) * 100
}

// NetWorthProjection simulates month-by-month net worth over the plan's
// duration: each month adds the net income and then applies one month of
// the plan's rate. Entry 0 is the starting value, so the series has
// durationMonths+1 entries.
func (p Projector) NetWorthProjection(startingNetWorth, monthlyNetIncome float64, plan core.PlanParameters) []float64 {
	months := p.DurationMonths(plan)
	if months < 0 {
		months = 0
	}
	r := plan.AnnualRate / 12
	series := make([]float64, 0, months+1)
	v := startingNetWorth
	series = append(series, v)
	for i := 0; i < months; i++ {
		v = (v + monthlyNetIncome) * (1 + r)
		series = append(series, v)
	}
	return series
}

// EmergencyFundProgress returns the funded percentage (capped at 100) and
// the remaining amount toward the plan's emergency-fund goal. A plan
// without a goal reports (0, 0) rather than dividing by zero.
func (p Projector) EmergencyFundProgress(plan core.PlanParameters, currentAmount float64) (percent, remaining float64) {
	if plan.EmergencyFundGoal <= 0 {
		return 0, 0
	}
	percent = currentAmount / plan.EmergencyFundGoal * 100
	if percent > 100 {
		percent = 100
	}
	if percent < 0 {
		percent = 0
	}
	remaining = plan.EmergencyFundGoal - currentAmount
	if remaining < 0 {
		remaining = 0
	}
	return percent, remaining
}
