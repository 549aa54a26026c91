package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/akinalpfdn/ExpenseTracker-sub000/internal/core"
	"github.com/akinalpfdn/ExpenseTracker-sub000/internal/dates"
)

type fakeTemplateStore struct {
	templates []core.ExpenseTemplate
	err       error
}

func (f *fakeTemplateStore) ListActiveTemplates(context.Context) ([]core.ExpenseTemplate, error) {
	return f.templates, f.err
}

type fakeInstanceStore struct {
	inserted []core.ExpenseInstance
	seen     map[string]bool
	failOn   string // date that triggers an insert error
}

func (f *fakeInstanceStore) InsertInstance(_ context.Context, inst core.ExpenseInstance) (bool, error) {
	date := inst.Date.Format("2006-01-02")
	if date == f.failOn {
		return false, errors.New("storage unavailable")
	}
	if f.seen == nil {
		f.seen = make(map[string]bool)
	}
	key := inst.OriginID + "|" + date
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	f.inserted = append(f.inserted, inst)
	return true, nil
}

type fakePublisher struct {
	published []string
	err       error
}

func (f *fakePublisher) PublishInstanceSync(_ context.Context, instanceID, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, instanceID)
	return nil
}

func monthlyTemplate(id string, origin time.Time) core.ExpenseTemplate {
	return core.ExpenseTemplate{
		ID:          id,
		Amount:      core.Money{Cents: 90000},
		Currency:    "EUR",
		Category:    "Casa",
		Description: "Affitto",
		OriginDate:  origin,
		Recurrence:  core.RecurrenceRule{Kind: core.RecurrenceMonthly},
		Status:      core.StatusConfirmed,
	}
}

func TestProcessTemplates(t *testing.T) {
	origin := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC)

	templates := &fakeTemplateStore{templates: []core.ExpenseTemplate{monthlyTemplate("tmpl-1", origin)}}
	instances := &fakeInstanceStore{}
	publisher := &fakePublisher{}

	p := NewRecurringProcessor(templates, instances, publisher, dates.UTC())

	inserted, err := p.ProcessTemplates(context.Background(), now)
	if err != nil {
		t.Fatalf("ProcessTemplates() error = %v", err)
	}
	// Occurrences after the origin up to now: Feb 15, Mar 15, Apr 15.
	if inserted != 3 {
		t.Fatalf("inserted = %d, want 3", inserted)
	}
	if len(publisher.published) != 3 {
		t.Errorf("published = %d messages, want 3", len(publisher.published))
	}
	for i, inst := range instances.inserted {
		if inst.OriginID != "tmpl-1" {
			t.Errorf("instance %d OriginID = %s, want tmpl-1", i, inst.OriginID)
		}
		if inst.Status != core.StatusPending {
			t.Errorf("instance %d status = %s, want pending", i, inst.Status)
		}
	}
}

func TestProcessTemplates_Idempotent(t *testing.T) {
	origin := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC)

	templates := &fakeTemplateStore{templates: []core.ExpenseTemplate{monthlyTemplate("tmpl-1", origin)}}
	instances := &fakeInstanceStore{}

	p := NewRecurringProcessor(templates, instances, nil, dates.UTC())

	first, err := p.ProcessTemplates(context.Background(), now)
	if err != nil {
		t.Fatalf("first run error = %v", err)
	}
	second, err := p.ProcessTemplates(context.Background(), now)
	if err != nil {
		t.Fatalf("second run error = %v", err)
	}

	if first != 3 || second != 0 {
		t.Errorf("runs inserted %d then %d, want 3 then 0", first, second)
	}
}

func TestProcessTemplates_ListError(t *testing.T) {
	templates := &fakeTemplateStore{err: errors.New("db closed")}
	p := NewRecurringProcessor(templates, &fakeInstanceStore{}, nil, dates.UTC())

	if _, err := p.ProcessTemplates(context.Background(), time.Now()); err == nil {
		t.Fatal("expected error when template listing fails")
	}
}

func TestProcessTemplates_InsertFailureDoesNotStallRun(t *testing.T) {
	origin := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC)

	templates := &fakeTemplateStore{templates: []core.ExpenseTemplate{monthlyTemplate("tmpl-1", origin)}}
	instances := &fakeInstanceStore{failOn: "2024-03-15"}

	p := NewRecurringProcessor(templates, instances, nil, dates.UTC())

	inserted, err := p.ProcessTemplates(context.Background(), now)
	if err != nil {
		t.Fatalf("ProcessTemplates() error = %v", err)
	}
	if inserted != 2 {
		t.Errorf("inserted = %d, want 2 (failed occurrence skipped)", inserted)
	}
}

func TestProcessTemplates_PublishFailureKeepsInstance(t *testing.T) {
	origin := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC)

	templates := &fakeTemplateStore{templates: []core.ExpenseTemplate{monthlyTemplate("tmpl-1", origin)}}
	instances := &fakeInstanceStore{}
	publisher := &fakePublisher{err: fmt.Errorf("circuit breaker is open")}

	p := NewRecurringProcessor(templates, instances, publisher, dates.UTC())

	inserted, err := p.ProcessTemplates(context.Background(), now)
	if err != nil {
		t.Fatalf("ProcessTemplates() error = %v", err)
	}
	if inserted != 1 {
		t.Errorf("inserted = %d, want 1 despite publish failure", inserted)
	}
}

func TestProcessTemplates_NotInitialized(t *testing.T) {
	p := &RecurringProcessor{}
	if _, err := p.ProcessTemplates(context.Background(), time.Now()); err == nil {
		t.Fatal("expected error for uninitialized processor")
	}
}
