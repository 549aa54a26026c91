package core

import (
	"errors"
	"strings"
	"time"
)

// Interest accrual kinds for a savings plan.
const (
	InterestSimple   InterestKind = "simple"
	InterestCompound InterestKind = "compound"
)

// DefaultCompoundingFrequency is the periods-per-year used when a plan does
// not specify one.
const DefaultCompoundingFrequency = 12

type (
	InterestKind string

	// PlanParameters holds the inputs of a savings plan. All monetary
	// figures are currency units as float64; AnnualRate is a decimal
	// (0.05 means 5%).
	PlanParameters struct {
		ID                   string
		Name                 string
		StartDate            time.Time
		EndDate              time.Time
		TotalIncome          float64
		SavingsGoal          float64
		EmergencyFundGoal    float64
		Interest             InterestKind
		AnnualRate           float64
		CompoundingFrequency int
		// Allocations maps a category to its percentage of the monthly
		// expense budget. The sum must not exceed 100.
		Allocations map[string]float64
		IsActive    bool
	}

	// CategoryFigures is the planned/actual/variance triple for one
	// category of a monthly breakdown.
	CategoryFigures struct {
		Planned  float64
		Actual   float64
		Variance float64
	}

	// MonthlyBreakdown compares planned and actual figures for one calendar
	// month of a plan's span. It is created once per month and updated as
	// actual figures arrive.
	MonthlyBreakdown struct {
		PlanID          string
		Year            int
		Month           time.Month
		PlannedIncome   float64
		ActualIncome    float64
		PlannedExpenses float64
		ActualExpenses  float64
		PlannedSavings  float64
		ActualSavings   float64
		Categories      map[string]CategoryFigures
		HealthScore     float64
	}
)

var (
	ErrEmptyPlanName     = errors.New("empty plan name")
	ErrInvalidPlanDates  = errors.New("plan start date must be before end date")
	ErrNegativeGoal      = errors.New("savings goal must not be negative")
	ErrInvalidRate       = errors.New("annual rate must be between 0 and 1")
	ErrInvalidInterest   = errors.New("invalid interest kind")
	ErrAllocationsExceed = errors.New("category allocations exceed 100 percent")
)

func (k InterestKind) Validate() error {
	switch k {
	case InterestSimple, InterestCompound:
		return nil
	}
	return ErrInvalidInterest
}

func (p PlanParameters) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyPlanName
	}
	if p.StartDate.IsZero() || p.EndDate.IsZero() || !p.StartDate.Before(p.EndDate) {
		return ErrInvalidPlanDates
	}
	if p.SavingsGoal < 0 {
		return ErrNegativeGoal
	}
	if p.AnnualRate < 0 || p.AnnualRate > 1 {
		return ErrInvalidRate
	}
	if err := p.Interest.Validate(); err != nil {
		return err
	}
	var total float64
	for _, pct := range p.Allocations {
		total += pct
	}
	if total > 100.0+1e-9 {
		return ErrAllocationsExceed
	}
	return nil
}

// Compounding returns the plan's periods per year, falling back to the
// default when unset.
func (p PlanParameters) Compounding() int {
	if p.CompoundingFrequency <= 0 {
		return DefaultCompoundingFrequency
	}
	return p.CompoundingFrequency
}

// Contains reports whether t falls within the plan's span. The start bound
// is inclusive and the end bound exclusive.
func (p PlanParameters) Contains(t time.Time) bool {
	return !t.Before(p.StartDate) && t.Before(p.EndDate)
}

// WithDates returns a copy of the plan with a different span.
func (p PlanParameters) WithDates(start, end time.Time) PlanParameters {
	p.StartDate = start
	p.EndDate = end
	return p
}

// WithRate returns a copy of the plan with a different annual rate.
func (p PlanParameters) WithRate(rate float64) PlanParameters {
	p.AnnualRate = rate
	return p
}
