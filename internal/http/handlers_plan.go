package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/akinalpfdn/ExpenseTracker-sub000/internal/core"
	"github.com/akinalpfdn/ExpenseTracker-sub000/internal/services"
)

type planRequest struct {
	ID                   string             `json:"id,omitempty"`
	Name                 string             `json:"name"`
	StartDate            string             `json:"start_date"`
	EndDate              string             `json:"end_date"`
	TotalIncome          float64            `json:"total_income"`
	SavingsGoal          float64            `json:"savings_goal"`
	EmergencyFundGoal    float64            `json:"emergency_fund_goal,omitempty"`
	Interest             string             `json:"interest,omitempty"`
	AnnualRate           float64            `json:"annual_rate,omitempty"`
	CompoundingFrequency int                `json:"compounding_frequency,omitempty"`
	Allocations          map[string]float64 `json:"allocations,omitempty"`
	IsActive             *bool              `json:"is_active,omitempty"`
}

type planResponse struct {
	ID                   string             `json:"id"`
	Name                 string             `json:"name"`
	StartDate            string             `json:"start_date"`
	EndDate              string             `json:"end_date"`
	TotalIncome          float64            `json:"total_income"`
	SavingsGoal          float64            `json:"savings_goal"`
	EmergencyFundGoal    float64            `json:"emergency_fund_goal"`
	Interest             string             `json:"interest"`
	AnnualRate           float64            `json:"annual_rate"`
	CompoundingFrequency int                `json:"compounding_frequency"`
	Allocations          map[string]float64 `json:"allocations,omitempty"`
	IsActive             bool               `json:"is_active"`
}

type metricsResponse struct {
	Status                 string    `json:"status"`
	DurationMonths         int       `json:"duration_months"`
	RequiredMonthlySavings float64   `json:"required_monthly_savings"`
	ProgressPercentage     float64   `json:"progress_percentage"`
	EmergencyFundPercent   float64   `json:"emergency_fund_percent"`
	EmergencyFundRemaining float64   `json:"emergency_fund_remaining"`
	NetWorthProjection     []float64 `json:"net_worth_projection"`
}

type categoryFiguresResponse struct {
	Planned  float64 `json:"planned"`
	Actual   float64 `json:"actual"`
	Variance float64 `json:"variance"`
}

type breakdownResponse struct {
	Year            int                                `json:"year"`
	Month           int                                `json:"month"`
	PlannedIncome   float64                            `json:"planned_income"`
	ActualIncome    float64                            `json:"actual_income"`
	PlannedExpenses float64                            `json:"planned_expenses"`
	ActualExpenses  float64                            `json:"actual_expenses"`
	PlannedSavings  float64                            `json:"planned_savings"`
	ActualSavings   float64                            `json:"actual_savings"`
	Categories      map[string]categoryFiguresResponse `json:"categories,omitempty"`
	HealthScore     float64                            `json:"health_score"`
}

type actualsRequest struct {
	Income     float64            `json:"income"`
	Expenses   float64            `json:"expenses"`
	Savings    float64            `json:"savings"`
	Categories map[string]float64 `json:"categories,omitempty"`
}

func planToResponse(p core.PlanParameters) planResponse {
	return planResponse{
		ID:                   p.ID,
		Name:                 p.Name,
		StartDate:            formatDate(p.StartDate),
		EndDate:              formatDate(p.EndDate),
		TotalIncome:          p.TotalIncome,
		SavingsGoal:          p.SavingsGoal,
		EmergencyFundGoal:    p.EmergencyFundGoal,
		Interest:             string(p.Interest),
		AnnualRate:           p.AnnualRate,
		CompoundingFrequency: p.Compounding(),
		Allocations:          p.Allocations,
		IsActive:             p.IsActive,
	}
}

func breakdownToResponse(b core.MonthlyBreakdown) breakdownResponse {
	categories := make(map[string]categoryFiguresResponse, len(b.Categories))
	for name, f := range b.Categories {
		categories[name] = categoryFiguresResponse{
			Planned:  f.Planned,
			Actual:   f.Actual,
			Variance: f.Variance,
		}
	}
	return breakdownResponse{
		Year:            b.Year,
		Month:           int(b.Month),
		PlannedIncome:   b.PlannedIncome,
		ActualIncome:    b.ActualIncome,
		PlannedExpenses: b.PlannedExpenses,
		ActualExpenses:  b.ActualExpenses,
		PlannedSavings:  b.PlannedSavings,
		ActualSavings:   b.ActualSavings,
		Categories:      categories,
		HealthScore:     b.HealthScore,
	}
}

func (s *Server) handleSavePlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	loc := s.cal.Location()

	start, err := parseDate(req.StartDate, loc)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	end, err := parseDate(req.EndDate, loc)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id := req.ID
	created := false
	if id == "" {
		id = uuid.NewString()
		created = true
	}

	interest := core.InterestKind(req.Interest)
	if req.Interest == "" {
		interest = core.InterestCompound
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	plan := core.PlanParameters{
		ID:                   id,
		Name:                 req.Name,
		StartDate:            start,
		EndDate:              end,
		TotalIncome:          req.TotalIncome,
		SavingsGoal:          req.SavingsGoal,
		EmergencyFundGoal:    req.EmergencyFundGoal,
		Interest:             interest,
		AnnualRate:           req.AnnualRate,
		CompoundingFrequency: req.CompoundingFrequency,
		Allocations:          req.Allocations,
		IsActive:             active,
	}

	if err := plan.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.plans.SavePlan(r.Context(), plan); err != nil {
		slog.ErrorContext(r.Context(), "Failed to save plan", "plan_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save plan")
		return
	}

	s.invalidateMetrics(id)

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, planToResponse(plan))
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.plans.ListPlans(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list plans", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list plans")
		return
	}

	out := make([]planResponse, 0, len(plans))
	for _, p := range plans {
		out = append(out, planToResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	p, err := s.plans.GetPlan(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "plan not found")
		return
	}
	writeJSON(w, http.StatusOK, planToResponse(p))
}

// handlePlanMetrics returns the derived metrics for a plan. Optional
// query parameters emergency_fund and net_worth supply current balances.
func (s *Server) handlePlanMetrics(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	emergencyFund, err := parseFloatQuery(r, "emergency_fund")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	netWorth, err := parseFloatQuery(r, "net_worth")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	now := time.Now()
	key := fmt.Sprintf("%s|%s|%.2f|%.2f", id, now.Format(dateLayout), emergencyFund, netWorth)

	metrics, err := s.metricsCache.GetOrCompute(key, func() (services.PlanMetrics, error) {
		return s.plans.Metrics(r.Context(), id, now, emergencyFund, netWorth)
	})
	if err != nil {
		writeError(w, http.StatusNotFound, "plan not found")
		return
	}

	writeJSON(w, http.StatusOK, metricsResponse{
		Status:                 string(metrics.Status),
		DurationMonths:         metrics.DurationMonths,
		RequiredMonthlySavings: metrics.RequiredMonthlySavings,
		ProgressPercentage:     metrics.ProgressPercentage,
		EmergencyFundPercent:   metrics.EmergencyFundPercent,
		EmergencyFundRemaining: metrics.EmergencyFundRemaining,
		NetWorthProjection:     metrics.NetWorthProjection,
	})
}

func (s *Server) handleListBreakdowns(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if _, err := s.plans.GetPlan(r.Context(), id); err != nil {
		writeError(w, http.StatusNotFound, "plan not found")
		return
	}

	breakdowns, err := s.plans.ListBreakdowns(r.Context(), id)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list breakdowns", "plan_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list breakdowns")
		return
	}

	out := make([]breakdownResponse, 0, len(breakdowns))
	for _, b := range breakdowns {
		out = append(out, breakdownToResponse(b))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRecordActuals(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid year")
		return
	}
	month, err := strconv.Atoi(r.PathValue("month"))
	if err != nil || month < 1 || month > 12 {
		writeError(w, http.StatusUnprocessableEntity, "invalid month")
		return
	}

	var req actualsRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	b, err := s.plans.RecordActuals(r.Context(), id, year, time.Month(month), services.ActualFigures{
		Income:     req.Income,
		Expenses:   req.Expenses,
		Savings:    req.Savings,
		Categories: req.Categories,
	})
	if err != nil {
		writeError(w, http.StatusNotFound, "breakdown not found")
		return
	}

	s.invalidateMetrics(id)

	writeJSON(w, http.StatusOK, breakdownToResponse(b))
}

// invalidateMetrics drops cached metrics for a plan. The cache key embeds
// the balances, so plain deletion by plan id is not possible; entries
// expire via TTL instead and this only covers the no-balance key.
func (s *Server) invalidateMetrics(planID string) {
	key := fmt.Sprintf("%s|%s|%.2f|%.2f", planID, time.Now().Format(dateLayout), 0.0, 0.0)
	s.metricsCache.Delete(key)
}

func parseFloatQuery(r *http.Request, name string) (float64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, v)
	}
	return f, nil
}
