package core

import (
	"errors"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
	if err := (Money{Cents: -50}).Validate(); err == nil {
		t.Fatalf("expected error for negative")
	}
}

func TestRecurrenceRuleValidate(t *testing.T) {
	cases := []struct {
		name string
		rule RecurrenceRule
		want error
	}{
		{"none", RecurrenceRule{Kind: RecurrenceNone}, nil},
		{"monthly", RecurrenceRule{Kind: RecurrenceMonthly}, nil},
		{"biweekly", RecurrenceRule{Kind: RecurrenceBiweekly}, nil},
		{"custom valid", RecurrenceRule{Kind: RecurrenceCustom, CustomIntervalDays: 10}, nil},
		{"custom zero interval", RecurrenceRule{Kind: RecurrenceCustom}, ErrInvalidInterval},
		{"custom negative interval", RecurrenceRule{Kind: RecurrenceCustom, CustomIntervalDays: -3}, ErrInvalidInterval},
		{"unknown kind", RecurrenceRule{Kind: "fortnightly"}, ErrInvalidRecurrence},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.rule.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("Validate() = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestExpenseTemplateValidate(t *testing.T) {
	good := ExpenseTemplate{
		ID:          "tpl-1",
		Amount:      Money{Cents: 1250},
		Currency:    "EUR",
		Category:    "Casa",
		Subcategory: "Internet",
		Description: "fibra",
		OriginDate:  date(2024, 1, 15),
		Recurrence:  RecurrenceRule{Kind: RecurrenceMonthly},
		Status:      StatusConfirmed,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []struct {
		name   string
		mutate func(ExpenseTemplate) ExpenseTemplate
		want   error
	}{
		{"zero amount", func(e ExpenseTemplate) ExpenseTemplate { return e.WithAmount(Money{}) }, ErrInvalidAmount},
		{"empty description", func(e ExpenseTemplate) ExpenseTemplate { return e.WithDescription("  ") }, ErrEmptyDescription},
		{"empty category", func(e ExpenseTemplate) ExpenseTemplate { e.Category = ""; return e }, ErrEmptyCategory},
		{"zero origin", func(e ExpenseTemplate) ExpenseTemplate { e.OriginDate = time.Time{}; return e }, ErrZeroOriginDate},
		{"bad status", func(e ExpenseTemplate) ExpenseTemplate { return e.WithStatus("archived") }, ErrInvalidStatus},
		{"end before origin", func(e ExpenseTemplate) ExpenseTemplate {
			return e.WithRecurrence(RecurrenceRule{Kind: RecurrenceWeekly, EndDate: date(2023, 12, 1)})
		}, ErrEndBeforeStart},
	}
	for _, tc := range bads {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.mutate(good).Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("Validate() = %v, want %v", err, tc.want)
			}
		})
	}

	// With* helpers must not touch the receiver.
	_ = good.WithStatus(StatusCancelled)
	if good.Status != StatusConfirmed {
		t.Fatalf("WithStatus mutated the original template")
	}
}

func TestPlanParametersValidate(t *testing.T) {
	good := PlanParameters{
		ID:                "plan-1",
		Name:              "casa nuova",
		StartDate:         date(2024, 1, 1),
		EndDate:           date(2025, 1, 1),
		TotalIncome:       5000,
		SavingsGoal:       12000,
		EmergencyFundGoal: 6000,
		Interest:          InterestCompound,
		AnnualRate:        0.05,
		Allocations:       map[string]float64{"Casa": 40, "Spesa": 30, "Trasporti": 10},
		IsActive:          true,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(PlanParameters) PlanParameters
		want   error
	}{
		{"empty name", func(p PlanParameters) PlanParameters { p.Name = ""; return p }, ErrEmptyPlanName},
		{"start after end", func(p PlanParameters) PlanParameters { return p.WithDates(date(2025, 2, 1), date(2025, 1, 1)) }, ErrInvalidPlanDates},
		{"start equals end", func(p PlanParameters) PlanParameters { return p.WithDates(date(2025, 1, 1), date(2025, 1, 1)) }, ErrInvalidPlanDates},
		{"negative goal", func(p PlanParameters) PlanParameters { p.SavingsGoal = -1; return p }, ErrNegativeGoal},
		{"rate above one", func(p PlanParameters) PlanParameters { return p.WithRate(1.5) }, ErrInvalidRate},
		{"negative rate", func(p PlanParameters) PlanParameters { return p.WithRate(-0.01) }, ErrInvalidRate},
		{"bad interest kind", func(p PlanParameters) PlanParameters { p.Interest = "daily"; return p }, ErrInvalidInterest},
		{"allocations over 100", func(p PlanParameters) PlanParameters {
			p.Allocations = map[string]float64{"Casa": 70, "Spesa": 40}
			return p
		}, ErrAllocationsExceed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.mutate(good).Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("Validate() = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestPlanCompoundingDefault(t *testing.T) {
	p := PlanParameters{}
	if got := p.Compounding(); got != DefaultCompoundingFrequency {
		t.Fatalf("Compounding() = %d, want %d", got, DefaultCompoundingFrequency)
	}
	p.CompoundingFrequency = 4
	if got := p.Compounding(); got != 4 {
		t.Fatalf("Compounding() = %d, want 4", got)
	}
}

func TestPlanContains(t *testing.T) {
	p := PlanParameters{StartDate: date(2024, 1, 1), EndDate: date(2024, 7, 1)}
	if !p.Contains(date(2024, 1, 1)) {
		t.Fatalf("start date should be inside the span")
	}
	if p.Contains(date(2024, 7, 1)) {
		t.Fatalf("end date is exclusive")
	}
	if p.Contains(date(2023, 12, 31)) {
		t.Fatalf("day before start should be outside")
	}
}
