// Package storage persists templates, generated instances, plans and
// monthly breakdowns in SQLite. Dates are stored as yyyy-mm-dd strings and
// interpreted in the repository's calendar location.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/akinalpfdn/ExpenseTracker-sub000/internal/core"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

type SQLiteRepository struct {
	db  *sql.DB
	loc *time.Location
}

func NewSQLiteRepository(dbPath string, loc *time.Location) (*SQLiteRepository, error) {
	if loc == nil {
		loc = time.UTC
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, loc: loc}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// --- templates ---

func (r *SQLiteRepository) CreateTemplate(ctx context.Context, t core.ExpenseTemplate) error {
	tags, err := json.Marshal(t.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO templates
			(id, amount_cents, currency, category, subcategory, description,
			 origin_date, recur_kind, recur_interval_days, recur_end_date,
			 tags, notes, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Amount.Cents, t.Currency, t.Category, t.Subcategory, t.Description,
		r.formatDate(t.OriginDate), string(t.Recurrence.Kind), t.Recurrence.CustomIntervalDays,
		r.formatNullableDate(t.Recurrence.EndDate), string(tags), t.Notes, string(t.Status))
	if err != nil {
		return fmt.Errorf("create template: %w", err)
	}

	slog.InfoContext(ctx, "Template saved",
		"id", t.ID,
		"description", t.Description,
		"amount_cents", t.Amount.Cents,
		"recur_kind", t.Recurrence.Kind)
	return nil
}

func (r *SQLiteRepository) GetTemplate(ctx context.Context, id string) (core.ExpenseTemplate, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, amount_cents, currency, category, subcategory, description,
		       origin_date, recur_kind, recur_interval_days, recur_end_date,
		       tags, notes, status
		FROM templates WHERE id = ?`, id)
	t, err := r.scanTemplate(row)
	if err != nil {
		return core.ExpenseTemplate{}, fmt.Errorf("get template %s: %w", id, err)
	}
	return t, nil
}

func (r *SQLiteRepository) ListTemplates(ctx context.Context) ([]core.ExpenseTemplate, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, amount_cents, currency, category, subcategory, description,
		       origin_date, recur_kind, recur_interval_days, recur_end_date,
		       tags, notes, status
		FROM templates
		ORDER BY origin_date, id`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var templates []core.ExpenseTemplate
	for rows.Next() {
		t, err := r.scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

// ListActiveTemplates returns the repeating templates eligible for
// instance materialization.
func (r *SQLiteRepository) ListActiveTemplates(ctx context.Context) ([]core.ExpenseTemplate, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, amount_cents, currency, category, subcategory, description,
		       origin_date, recur_kind, recur_interval_days, recur_end_date,
		       tags, notes, status
		FROM templates
		WHERE is_active = 1 AND recur_kind != 'none'
		ORDER BY origin_date, id`)
	if err != nil {
		return nil, fmt.Errorf("list active templates: %w", err)
	}
	defer rows.Close()

	var templates []core.ExpenseTemplate
	for rows.Next() {
		t, err := r.scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

func (r *SQLiteRepository) SetTemplateActive(ctx context.Context, id string, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE templates SET is_active = ? WHERE id = ?`, boolToInt(active), id)
	if err != nil {
		return fmt.Errorf("set template active: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *SQLiteRepository) scanTemplate(row rowScanner) (core.ExpenseTemplate, error) {
	var (
		t            core.ExpenseTemplate
		kind, status string
		originDate   string
		endDate      sql.NullString
		tagsJSON     string
	)
	err := row.Scan(&t.ID, &t.Amount.Cents, &t.Currency, &t.Category, &t.Subcategory,
		&t.Description, &originDate, &kind, &t.Recurrence.CustomIntervalDays,
		&endDate, &tagsJSON, &t.Notes, &status)
	if err != nil {
		return core.ExpenseTemplate{}, err
	}
	t.Recurrence.Kind = core.RecurrenceKind(kind)
	t.Status = core.ExpenseStatus(status)
	if t.OriginDate, err = r.parseDate(originDate); err != nil {
		return core.ExpenseTemplate{}, err
	}
	if endDate.Valid {
		if t.Recurrence.EndDate, err = r.parseDate(endDate.String); err != nil {
			return core.ExpenseTemplate{}, err
		}
	}
	if err := json.Unmarshal([]byte(tagsJSON), &t.Tags); err != nil {
		return core.ExpenseTemplate{}, fmt.Errorf("unmarshal tags: %w", err)
	}
	return t, nil
}

// --- instances ---

// InsertInstance persists a generated instance. The (origin_id, date) pair
// is unique, so re-generating an already materialized occurrence is a
// no-op; the bool reports whether a row was actually inserted.
func (r *SQLiteRepository) InsertInstance(ctx context.Context, inst core.ExpenseInstance) (bool, error) {
	tags, err := json.Marshal(inst.Tags)
	if err != nil {
		return false, fmt.Errorf("marshal tags: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO instances
			(id, origin_id, date, amount_cents, currency, category,
			 subcategory, description, tags, notes, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inst.ID, inst.OriginID, r.formatDate(inst.Date), inst.Amount.Cents,
		inst.Currency, inst.Category, inst.Subcategory, inst.Description,
		string(tags), inst.Notes, string(inst.Status))
	if err != nil {
		return false, fmt.Errorf("insert instance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) GetInstance(ctx context.Context, id string) (core.ExpenseInstance, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, origin_id, date, amount_cents, currency, category,
		       subcategory, description, tags, notes, status
		FROM instances WHERE id = ?`, id)
	inst, err := r.scanInstance(row)
	if err != nil {
		return core.ExpenseInstance{}, fmt.Errorf("get instance %s: %w", id, err)
	}
	return inst, nil
}

func (r *SQLiteRepository) ListInstancesByOrigin(ctx context.Context, originID string) ([]core.ExpenseInstance, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, origin_id, date, amount_cents, currency, category,
		       subcategory, description, tags, notes, status
		FROM instances WHERE origin_id = ? ORDER BY date`, originID)
	if err != nil {
		return nil, fmt.Errorf("list instances by origin: %w", err)
	}
	defer rows.Close()

	var instances []core.ExpenseInstance
	for rows.Next() {
		inst, err := r.scanInstance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan instance: %w", err)
		}
		instances = append(instances, inst)
	}
	return instances, rows.Err()
}

// GetPendingExportInstances returns instances not yet exported, oldest first.
func (r *SQLiteRepository) GetPendingExportInstances(ctx context.Context, limit int) ([]core.ExpenseInstance, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, origin_id, date, amount_cents, currency, category,
		       subcategory, description, tags, notes, status
		FROM instances WHERE synced = 0 ORDER BY date LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending export instances: %w", err)
	}
	defer rows.Close()

	var instances []core.ExpenseInstance
	for rows.Next() {
		inst, err := r.scanInstance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan instance: %w", err)
		}
		instances = append(instances, inst)
	}
	return instances, rows.Err()
}

func (r *SQLiteRepository) MarkInstanceSynced(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE instances SET synced = 1, sync_error = 0 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark instance synced: %w", err)
	}
	slog.InfoContext(ctx, "Instance marked as synced", "instance_id", id)
	return nil
}

func (r *SQLiteRepository) MarkInstanceSyncError(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE instances SET sync_error = 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark instance sync error: %w", err)
	}
	slog.WarnContext(ctx, "Instance marked with sync error", "instance_id", id)
	return nil
}

func (r *SQLiteRepository) scanInstance(row rowScanner) (core.ExpenseInstance, error) {
	var (
		inst     core.ExpenseInstance
		date     string
		tagsJSON string
		status   string
	)
	err := row.Scan(&inst.ID, &inst.OriginID, &date, &inst.Amount.Cents,
		&inst.Currency, &inst.Category, &inst.Subcategory, &inst.Description,
		&tagsJSON, &inst.Notes, &status)
	if err != nil {
		return core.ExpenseInstance{}, err
	}
	inst.Status = core.ExpenseStatus(status)
	if inst.Date, err = r.parseDate(date); err != nil {
		return core.ExpenseInstance{}, err
	}
	if err := json.Unmarshal([]byte(tagsJSON), &inst.Tags); err != nil {
		return core.ExpenseInstance{}, fmt.Errorf("unmarshal tags: %w", err)
	}
	return inst, nil
}

// --- plans ---

func (r *SQLiteRepository) SavePlan(ctx context.Context, p core.PlanParameters) error {
	allocations, err := json.Marshal(p.Allocations)
	if err != nil {
		return fmt.Errorf("marshal allocations: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO plans
			(id, name, start_date, end_date, total_income, savings_goal,
			 emergency_fund_goal, interest_kind, annual_rate, compounding,
			 allocations, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			total_income = excluded.total_income,
			savings_goal = excluded.savings_goal,
			emergency_fund_goal = excluded.emergency_fund_goal,
			interest_kind = excluded.interest_kind,
			annual_rate = excluded.annual_rate,
			compounding = excluded.compounding,
			allocations = excluded.allocations,
			is_active = excluded.is_active`,
		p.ID, p.Name, r.formatDate(p.StartDate), r.formatDate(p.EndDate),
		p.TotalIncome, p.SavingsGoal, p.EmergencyFundGoal, string(p.Interest),
		p.AnnualRate, p.Compounding(), string(allocations), boolToInt(p.IsActive))
	if err != nil {
		return fmt.Errorf("save plan: %w", err)
	}

	slog.InfoContext(ctx, "Plan saved", "plan_id", p.ID, "plan_name", p.Name)
	return nil
}

func (r *SQLiteRepository) GetPlan(ctx context.Context, id string) (core.PlanParameters, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, start_date, end_date, total_income, savings_goal,
		       emergency_fund_goal, interest_kind, annual_rate, compounding,
		       allocations, is_active
		FROM plans WHERE id = ?`, id)
	p, err := r.scanPlan(row)
	if err != nil {
		return core.PlanParameters{}, fmt.Errorf("get plan %s: %w", id, err)
	}
	return p, nil
}

func (r *SQLiteRepository) ListPlans(ctx context.Context) ([]core.PlanParameters, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, start_date, end_date, total_income, savings_goal,
		       emergency_fund_goal, interest_kind, annual_rate, compounding,
		       allocations, is_active
		FROM plans ORDER BY start_date, id`)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var plans []core.PlanParameters
	for rows.Next() {
		p, err := r.scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

func (r *SQLiteRepository) scanPlan(row rowScanner) (core.PlanParameters, error) {
	var (
		p               core.PlanParameters
		start, end      string
		interest        string
		allocationsJSON string
		active          int
	)
	err := row.Scan(&p.ID, &p.Name, &start, &end, &p.TotalIncome, &p.SavingsGoal,
		&p.EmergencyFundGoal, &interest, &p.AnnualRate, &p.CompoundingFrequency,
		&allocationsJSON, &active)
	if err != nil {
		return core.PlanParameters{}, err
	}
	p.Interest = core.InterestKind(interest)
	p.IsActive = active != 0
	if p.StartDate, err = r.parseDate(start); err != nil {
		return core.PlanParameters{}, err
	}
	if p.EndDate, err = r.parseDate(end); err != nil {
		return core.PlanParameters{}, err
	}
	if err := json.Unmarshal([]byte(allocationsJSON), &p.Allocations); err != nil {
		return core.PlanParameters{}, fmt.Errorf("unmarshal allocations: %w", err)
	}
	return p, nil
}

// --- monthly breakdowns ---

func (r *SQLiteRepository) UpsertBreakdown(ctx context.Context, b core.MonthlyBreakdown) error {
	categories, err := json.Marshal(b.Categories)
	if err != nil {
		return fmt.Errorf("marshal categories: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO breakdowns
			(plan_id, year, month, planned_income, actual_income,
			 planned_expenses, actual_expenses, planned_savings,
			 actual_savings, categories, health_score)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (plan_id, year, month) DO UPDATE SET
			planned_income = excluded.planned_income,
			actual_income = excluded.actual_income,
			planned_expenses = excluded.planned_expenses,
			actual_expenses = excluded.actual_expenses,
			planned_savings = excluded.planned_savings,
			actual_savings = excluded.actual_savings,
			categories = excluded.categories,
			health_score = excluded.health_score`,
		b.PlanID, b.Year, int(b.Month), b.PlannedIncome, b.ActualIncome,
		b.PlannedExpenses, b.ActualExpenses, b.PlannedSavings, b.ActualSavings,
		string(categories), b.HealthScore)
	if err != nil {
		return fmt.Errorf("upsert breakdown: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetBreakdown(ctx context.Context, planID string, year int, month time.Month) (core.MonthlyBreakdown, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT plan_id, year, month, planned_income, actual_income,
		       planned_expenses, actual_expenses, planned_savings,
		       actual_savings, categories, health_score
		FROM breakdowns WHERE plan_id = ? AND year = ? AND month = ?`,
		planID, year, int(month))
	b, err := r.scanBreakdown(row)
	if err != nil {
		return core.MonthlyBreakdown{}, fmt.Errorf("get breakdown %s %d-%02d: %w", planID, year, month, err)
	}
	return b, nil
}

func (r *SQLiteRepository) ListBreakdowns(ctx context.Context, planID string) ([]core.MonthlyBreakdown, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT plan_id, year, month, planned_income, actual_income,
		       planned_expenses, actual_expenses, planned_savings,
		       actual_savings, categories, health_score
		FROM breakdowns WHERE plan_id = ? ORDER BY year, month`, planID)
	if err != nil {
		return nil, fmt.Errorf("list breakdowns: %w", err)
	}
	defer rows.Close()

	var breakdowns []core.MonthlyBreakdown
	for rows.Next() {
		b, err := r.scanBreakdown(rows)
		if err != nil {
			return nil, fmt.Errorf("scan breakdown: %w", err)
		}
		breakdowns = append(breakdowns, b)
	}
	return breakdowns, rows.Err()
}

// DeleteBreakdownsOutside removes breakdowns for months outside
// [first, last], both expressed as yyyy*100+mm. Used when a plan's date
// range changes.
func (r *SQLiteRepository) DeleteBreakdownsOutside(ctx context.Context, planID string, first, last int) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM breakdowns
		WHERE plan_id = ? AND (year * 100 + month < ? OR year * 100 + month > ?)`,
		planID, first, last)
	if err != nil {
		return fmt.Errorf("delete breakdowns outside range: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		slog.InfoContext(ctx, "Removed breakdowns outside plan range",
			"plan_id", planID, "removed", n)
	}
	return nil
}

func (r *SQLiteRepository) scanBreakdown(row rowScanner) (core.MonthlyBreakdown, error) {
	var (
		b              core.MonthlyBreakdown
		month          int
		categoriesJSON string
	)
	err := row.Scan(&b.PlanID, &b.Year, &month, &b.PlannedIncome, &b.ActualIncome,
		&b.PlannedExpenses, &b.ActualExpenses, &b.PlannedSavings, &b.ActualSavings,
		&categoriesJSON, &b.HealthScore)
	if err != nil {
		return core.MonthlyBreakdown{}, err
	}
	b.Month = time.Month(month)
	if err := json.Unmarshal([]byte(categoriesJSON), &b.Categories); err != nil {
		return core.MonthlyBreakdown{}, fmt.Errorf("unmarshal categories: %w", err)
	}
	return b, nil
}

// --- helpers ---

func (r *SQLiteRepository) formatDate(t time.Time) string {
	return t.In(r.loc).Format(dateLayout)
}

func (r *SQLiteRepository) formatNullableDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return r.formatDate(t)
}

func (r *SQLiteRepository) parseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, s, r.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
