package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/akinalpfdn/ExpenseTracker-sub000/internal/core"
	"github.com/akinalpfdn/ExpenseTracker-sub000/internal/dates"
	"github.com/akinalpfdn/ExpenseTracker-sub000/internal/services"
)

type memTemplateStore struct {
	templates map[string]core.ExpenseTemplate
	instances map[string][]core.ExpenseInstance
}

func newMemTemplateStore() *memTemplateStore {
	return &memTemplateStore{
		templates: make(map[string]core.ExpenseTemplate),
		instances: make(map[string][]core.ExpenseInstance),
	}
}

func (m *memTemplateStore) CreateTemplate(_ context.Context, t core.ExpenseTemplate) error {
	m.templates[t.ID] = t
	return nil
}

func (m *memTemplateStore) GetTemplate(_ context.Context, id string) (core.ExpenseTemplate, error) {
	t, ok := m.templates[id]
	if !ok {
		return core.ExpenseTemplate{}, fmt.Errorf("template %s not found", id)
	}
	return t, nil
}

func (m *memTemplateStore) ListTemplates(context.Context) ([]core.ExpenseTemplate, error) {
	out := make([]core.ExpenseTemplate, 0, len(m.templates))
	for _, t := range m.templates {
		out = append(out, t)
	}
	return out, nil
}

func (m *memTemplateStore) SetTemplateActive(_ context.Context, id string, _ bool) error {
	if _, ok := m.templates[id]; !ok {
		return fmt.Errorf("template %s not found", id)
	}
	return nil
}

func (m *memTemplateStore) ListInstancesByOrigin(_ context.Context, originID string) ([]core.ExpenseInstance, error) {
	return m.instances[originID], nil
}

type memPlanStore struct {
	plans map[string]core.PlanParameters
}

func (m *memPlanStore) SavePlan(_ context.Context, p core.PlanParameters) error {
	m.plans[p.ID] = p
	return nil
}

func (m *memPlanStore) GetPlan(_ context.Context, id string) (core.PlanParameters, error) {
	p, ok := m.plans[id]
	if !ok {
		return core.PlanParameters{}, fmt.Errorf("plan %s not found", id)
	}
	return p, nil
}

func (m *memPlanStore) ListPlans(context.Context) ([]core.PlanParameters, error) {
	out := make([]core.PlanParameters, 0, len(m.plans))
	for _, p := range m.plans {
		out = append(out, p)
	}
	return out, nil
}

type memBreakdownStore struct {
	items map[string]core.MonthlyBreakdown
}

func bkey(planID string, year int, month time.Month) string {
	return fmt.Sprintf("%s|%d|%02d", planID, year, int(month))
}

func (m *memBreakdownStore) UpsertBreakdown(_ context.Context, b core.MonthlyBreakdown) error {
	m.items[bkey(b.PlanID, b.Year, b.Month)] = b
	return nil
}

func (m *memBreakdownStore) GetBreakdown(_ context.Context, planID string, year int, month time.Month) (core.MonthlyBreakdown, error) {
	b, ok := m.items[bkey(planID, year, month)]
	if !ok {
		return core.MonthlyBreakdown{}, fmt.Errorf("breakdown not found")
	}
	return b, nil
}

func (m *memBreakdownStore) ListBreakdowns(_ context.Context, planID string) ([]core.MonthlyBreakdown, error) {
	var out []core.MonthlyBreakdown
	for _, b := range m.items {
		if b.PlanID == planID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memBreakdownStore) DeleteBreakdownsOutside(_ context.Context, planID string, first, last int) error {
	for key, b := range m.items {
		if b.PlanID != planID {
			continue
		}
		k := b.Year*100 + int(b.Month)
		if k < first || k > last {
			delete(m.items, key)
		}
	}
	return nil
}

func newTestServer(t *testing.T) (*Server, *memTemplateStore) {
	t.Helper()
	store := newMemTemplateStore()
	planSvc := services.NewPlanService(
		&memPlanStore{plans: make(map[string]core.PlanParameters)},
		&memBreakdownStore{items: make(map[string]core.MonthlyBreakdown)},
		dates.UTC(),
	)
	srv := NewServer(":0", store, planSvc, dates.UTC(), 90)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv, store
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestRecurrencePreview(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/recurrence/preview", map[string]any{
		"kind":         "monthly",
		"origin_date":  "2024-01-15",
		"window_start": "2024-01-01",
		"window_end":   "2024-06-30",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp previewResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Count != 6 {
		t.Errorf("count = %d, want 6", resp.Count)
	}
	if resp.Dates[0] != "2024-01-15" || resp.Dates[5] != "2024-06-15" {
		t.Errorf("unexpected dates: %v", resp.Dates)
	}
}

func TestRecurrencePreview_InvalidRule(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/recurrence/preview", map[string]any{
		"kind":        "custom",
		"origin_date": "2024-01-15",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

func TestCreateAndGetTemplate(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/templates", map[string]any{
		"amount":      "12,50",
		"category":    "Casa",
		"description": "Affitto",
		"origin_date": "2024-01-15",
		"kind":        "monthly",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var created templateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.AmountCents != 1250 {
		t.Errorf("amount_cents = %d, want 1250", created.AmountCents)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/templates/"+created.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
}

func TestCreateTemplate_Invalid(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/templates", map[string]any{
		"amount":      "12.50",
		"category":    "",
		"description": "Affitto",
		"origin_date": "2024-01-15",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "category") {
		t.Errorf("error should mention category, got %s", rec.Body.String())
	}
}

func TestGetTemplate_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/templates/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestPlanLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/plans", map[string]any{
		"name":         "Vacation fund",
		"start_date":   "2024-01-01",
		"end_date":     "2024-07-01",
		"total_income": 3000,
		"savings_goal": 1200,
		"allocations":  map[string]float64{"Casa": 50},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var plan planResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &plan); err != nil {
		t.Fatalf("decode plan: %v", err)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/plans/"+plan.ID+"/breakdowns", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("breakdowns status = %d", rec.Code)
	}
	var breakdowns []breakdownResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &breakdowns); err != nil {
		t.Fatalf("decode breakdowns: %v", err)
	}
	if len(breakdowns) != 6 {
		t.Fatalf("breakdowns = %d, want 6", len(breakdowns))
	}

	rec = doJSON(t, srv, http.MethodPut,
		"/api/plans/"+plan.ID+"/breakdowns/2024/2/actuals",
		actualsRequest{Income: 3000, Expenses: 2800, Savings: 200})
	if rec.Code != http.StatusOK {
		t.Fatalf("actuals status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var b breakdownResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &b); err != nil {
		t.Fatalf("decode breakdown: %v", err)
	}
	if b.HealthScore < 99.9 {
		t.Errorf("health score = %f, want ~100", b.HealthScore)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/plans/"+plan.ID+"/metrics?emergency_fund=0&net_worth=1000", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	var metrics metricsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &metrics); err != nil {
		t.Fatalf("decode metrics: %v", err)
	}
	if metrics.DurationMonths != 6 {
		t.Errorf("duration_months = %d, want 6", metrics.DurationMonths)
	}
	if len(metrics.NetWorthProjection) != 7 {
		t.Errorf("projection entries = %d, want 7", len(metrics.NetWorthProjection))
	}
}

func TestPlanSave_Invalid(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/plans", map[string]any{
		"name":       "Bad dates",
		"start_date": "2024-07-01",
		"end_date":   "2024-01-01",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

func TestRecordActuals_UnknownPlan(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPut,
		"/api/plans/nope/breakdowns/2024/2/actuals",
		actualsRequest{Income: 1})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestListInstances(t *testing.T) {
	srv, store := newTestServer(t)

	tmpl := core.ExpenseTemplate{
		ID:          "tmpl-1",
		Amount:      core.Money{Cents: 1000},
		Currency:    "EUR",
		Category:    "Casa",
		Description: "Affitto",
		OriginDate:  time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		Recurrence:  core.RecurrenceRule{Kind: core.RecurrenceMonthly},
		Status:      core.StatusConfirmed,
	}
	store.templates[tmpl.ID] = tmpl
	store.instances[tmpl.ID] = []core.ExpenseInstance{{
		ID:          "inst-1",
		OriginID:    tmpl.ID,
		Date:        time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
		Amount:      tmpl.Amount,
		Currency:    "EUR",
		Category:    "Casa",
		Description: "Affitto (recurring)",
		Status:      core.StatusPending,
	}}

	rec := doJSON(t, srv, http.MethodGet, "/api/templates/tmpl-1/instances", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var instances []instanceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &instances); err != nil {
		t.Fatalf("decode instances: %v", err)
	}
	if len(instances) != 1 || instances[0].Date != "2024-02-15" {
		t.Errorf("unexpected instances: %+v", instances)
	}
}
