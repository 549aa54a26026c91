package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/akinalpfdn/ExpenseTracker-sub000/internal/core"
	"github.com/akinalpfdn/ExpenseTracker-sub000/internal/dates"
	"github.com/akinalpfdn/ExpenseTracker-sub000/internal/log"
	"github.com/akinalpfdn/ExpenseTracker-sub000/internal/planning"
)

type (
	PlanStore interface {
		SavePlan(ctx context.Context, p core.PlanParameters) error
		GetPlan(ctx context.Context, id string) (core.PlanParameters, error)
		ListPlans(ctx context.Context) ([]core.PlanParameters, error)
	}

	BreakdownStore interface {
		UpsertBreakdown(ctx context.Context, b core.MonthlyBreakdown) error
		GetBreakdown(ctx context.Context, planID string, year int, month time.Month) (core.MonthlyBreakdown, error)
		ListBreakdowns(ctx context.Context, planID string) ([]core.MonthlyBreakdown, error)
		DeleteBreakdownsOutside(ctx context.Context, planID string, first, last int) error
	}
)

// ActualFigures are the observed numbers for one month, reported by the
// caller when recording against a plan.
type ActualFigures struct {
	Income     float64
	Expenses   float64
	Savings    float64
	Categories map[string]float64
}

// PlanService manages savings plans and their monthly breakdowns: it
// derives the planned figures from the plan parameters and folds reported
// actuals into variance and health scores.
type PlanService struct {
	plans      PlanStore
	breakdowns BreakdownStore
	projector  planning.Projector
	cal        dates.Calendar
}

func NewPlanService(plans PlanStore, breakdowns BreakdownStore, cal dates.Calendar) *PlanService {
	return &PlanService{
		plans:      plans,
		breakdowns: breakdowns,
		projector:  planning.NewProjector(cal),
		cal:        cal,
	}
}

// SavePlan validates and persists a plan, then reconciles its monthly
// breakdowns with the (possibly changed) date span.
func (s *PlanService) SavePlan(ctx context.Context, plan core.PlanParameters) error {
	if err := plan.Validate(); err != nil {
		return fmt.Errorf("validate plan: %w", err)
	}

	if err := s.plans.SavePlan(ctx, plan); err != nil {
		return err
	}

	return s.EnsureBreakdowns(ctx, plan)
}

func (s *PlanService) GetPlan(ctx context.Context, id string) (core.PlanParameters, error) {
	return s.plans.GetPlan(ctx, id)
}

func (s *PlanService) ListPlans(ctx context.Context) ([]core.PlanParameters, error) {
	return s.plans.ListPlans(ctx)
}

func (s *PlanService) ListBreakdowns(ctx context.Context, planID string) ([]core.MonthlyBreakdown, error) {
	return s.breakdowns.ListBreakdowns(ctx, planID)
}

// EnsureBreakdowns creates one breakdown per calendar month of the plan's
// span, preserving already recorded actuals, and removes breakdowns for
// months the span no longer covers.
func (s *PlanService) EnsureBreakdowns(ctx context.Context, plan core.PlanParameters) error {
	plannedSavings, err := s.projector.RequiredMonthlySavings(plan)
	if err != nil {
		return fmt.Errorf("required monthly savings: %w", err)
	}
	plannedExpenses := plan.TotalIncome - plannedSavings
	if plannedExpenses < 0 {
		plannedExpenses = 0
	}

	first, last := 0, 0
	created := 0

	for m := s.cal.StartOfMonth(plan.StartDate); m.Before(plan.EndDate); m = s.cal.AddPeriod(m, dates.Month, 1) {
		year, month := m.Year(), m.Month()
		key := year*100 + int(month)
		if first == 0 {
			first = key
		}
		last = key

		existing, err := s.breakdowns.GetBreakdown(ctx, plan.ID, year, month)
		if err == nil {
			// Refresh planned figures, keep recorded actuals.
			updated := s.plannedBreakdown(plan, year, month, plannedExpenses, plannedSavings)
			updated.ActualIncome = existing.ActualIncome
			updated.ActualExpenses = existing.ActualExpenses
			updated.ActualSavings = existing.ActualSavings
			for category, figures := range existing.Categories {
				f, ok := updated.Categories[category]
				if !ok {
					f = core.CategoryFigures{}
				}
				f.Actual = figures.Actual
				f.Variance = f.Planned - f.Actual
				updated.Categories[category] = f
			}
			updated.HealthScore = planning.HealthScore(updated)
			if err := s.breakdowns.UpsertBreakdown(ctx, updated); err != nil {
				return fmt.Errorf("refresh breakdown %d-%02d: %w", year, month, err)
			}
			continue
		}

		b := s.plannedBreakdown(plan, year, month, plannedExpenses, plannedSavings)
		b.HealthScore = planning.HealthScore(b)
		if err := s.breakdowns.UpsertBreakdown(ctx, b); err != nil {
			return fmt.Errorf("create breakdown %d-%02d: %w", year, month, err)
		}
		created++
	}

	if first != 0 {
		if err := s.breakdowns.DeleteBreakdownsOutside(ctx, plan.ID, first, last); err != nil {
			return fmt.Errorf("prune breakdowns: %w", err)
		}
	}

	fields := log.NewFields().
		WithComponent(log.ComponentPlanning).
		WithOperation(log.OpProject).
		WithPlan(plan.ID, plan.Name)
	slog.InfoContext(ctx, "Plan breakdowns reconciled",
		append(fields.ToSlice(), "created", created, "planned_savings", plannedSavings)...)

	return nil
}

func (s *PlanService) plannedBreakdown(plan core.PlanParameters, year int, month time.Month, plannedExpenses, plannedSavings float64) core.MonthlyBreakdown {
	categories := make(map[string]core.CategoryFigures, len(plan.Allocations))
	for category, pct := range plan.Allocations {
		planned := plannedExpenses * pct / 100
		categories[category] = core.CategoryFigures{Planned: planned, Variance: planned}
	}
	return core.MonthlyBreakdown{
		PlanID:          plan.ID,
		Year:            year,
		Month:           month,
		PlannedIncome:   plan.TotalIncome,
		PlannedExpenses: plannedExpenses,
		PlannedSavings:  plannedSavings,
		Categories:      categories,
	}
}

// RecordActuals stores the observed figures for one month of a plan and
// recomputes per-category variance and the month's health score.
func (s *PlanService) RecordActuals(ctx context.Context, planID string, year int, month time.Month, actuals ActualFigures) (core.MonthlyBreakdown, error) {
	b, err := s.breakdowns.GetBreakdown(ctx, planID, year, month)
	if err != nil {
		return core.MonthlyBreakdown{}, fmt.Errorf("load breakdown: %w", err)
	}

	b.ActualIncome = actuals.Income
	b.ActualExpenses = actuals.Expenses
	b.ActualSavings = actuals.Savings

	if b.Categories == nil {
		b.Categories = make(map[string]core.CategoryFigures)
	}
	planned := make(map[string]float64, len(b.Categories))
	for category, figures := range b.Categories {
		planned[category] = figures.Planned
	}
	for category, variance := range planning.Variance(planned, actuals.Categories) {
		figures := b.Categories[category]
		figures.Actual = actuals.Categories[category]
		figures.Variance = variance
		b.Categories[category] = figures
	}

	b.HealthScore = planning.HealthScore(b)

	if err := s.breakdowns.UpsertBreakdown(ctx, b); err != nil {
		return core.MonthlyBreakdown{}, fmt.Errorf("store breakdown: %w", err)
	}

	fields := log.NewFields().
		WithComponent(log.ComponentPlanning).
		WithOperation(log.OpScore).
		WithMonth(year, int(month))
	fields[log.FieldPlanID] = planID
	fields[log.FieldHealthScore] = b.HealthScore
	slog.InfoContext(ctx, "Recorded monthly actuals", fields.ToSlice()...)

	return b, nil
}

// PlanMetrics is the derived view of a plan returned by Metrics.
type PlanMetrics struct {
	Status                 planning.PlanStatus
	DurationMonths         int
	RequiredMonthlySavings float64
	ProgressPercentage     float64
	EmergencyFundPercent   float64
	EmergencyFundRemaining float64
	NetWorthProjection     []float64
}

// Metrics computes the derived numbers for a plan as of now.
// currentEmergencyFund and startingNetWorth are caller-supplied balances.
func (s *PlanService) Metrics(ctx context.Context, planID string, now time.Time, currentEmergencyFund, startingNetWorth float64) (PlanMetrics, error) {
	plan, err := s.plans.GetPlan(ctx, planID)
	if err != nil {
		return PlanMetrics{}, err
	}

	required, err := s.projector.RequiredMonthlySavings(plan)
	if err != nil {
		return PlanMetrics{}, fmt.Errorf("required monthly savings: %w", err)
	}

	efPercent, efRemaining := s.projector.EmergencyFundProgress(plan, currentEmergencyFund)
	monthlyNet := plan.TotalIncome - required

	return PlanMetrics{
		Status:                 planning.Status(plan, now),
		DurationMonths:         s.projector.DurationMonths(plan),
		RequiredMonthlySavings: required,
		ProgressPercentage:     s.projector.ProgressPercentage(plan, now),
		EmergencyFundPercent:   efPercent,
		EmergencyFundRemaining: efRemaining,
		NetWorthProjection:     s.projector.NetWorthProjection(startingNetWorth, monthlyNet, plan),
	}, nil
}
