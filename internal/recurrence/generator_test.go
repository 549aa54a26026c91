package recurrence

import (
	"strings"
	"testing"

	"github.com/akinalpfdn/ExpenseTracker-sub000/internal/core"
	"github.com/akinalpfdn/ExpenseTracker-sub000/internal/dates"
)

func template() core.ExpenseTemplate {
	return core.ExpenseTemplate{
		ID:          "tpl-1",
		Amount:      core.Money{Cents: 2990},
		Currency:    "EUR",
		Category:    "Casa",
		Subcategory: "Internet",
		Description: "fibra",
		OriginDate:  d(2024, 1, 15),
		Recurrence:  core.RecurrenceRule{Kind: core.RecurrenceMonthly},
		Tags:        []string{"fixed"},
		Notes:       "contract 24m",
		Status:      core.StatusConfirmed,
	}
}

func TestGenerateSkipsOrigin(t *testing.T) {
	g := NewGenerator(dates.UTC())

	got := g.Generate(template(), d(2024, 6, 30), 0)

	if len(got) != 5 {
		t.Fatalf("Generate() returned %d instances, want 5: %+v", len(got), got)
	}
	for _, inst := range got {
		if inst.Date.Equal(d(2024, 1, 15)) {
			t.Fatalf("origin date must never become an instance")
		}
	}
	if !got[0].Date.Equal(d(2024, 2, 15)) {
		t.Fatalf("first instance date = %v, want 2024-02-15", got[0].Date)
	}
}

func TestGenerateInstanceFields(t *testing.T) {
	g := NewGenerator(dates.UTC())
	tpl := template()

	got := g.Generate(tpl, d(2024, 4, 30), 0)
	if len(got) == 0 {
		t.Fatal("expected instances")
	}

	seen := map[string]bool{tpl.ID: true}
	for i, inst := range got {
		if inst.Status != core.StatusPending {
			t.Errorf("instance %d status = %s, want pending", i, inst.Status)
		}
		if inst.OriginID != tpl.ID {
			t.Errorf("instance %d origin id = %s, want %s", i, inst.OriginID, tpl.ID)
		}
		if seen[inst.ID] {
			t.Errorf("instance %d id %s not distinct", i, inst.ID)
		}
		seen[inst.ID] = true
		if !strings.HasSuffix(inst.Description, RecurringMarker) {
			t.Errorf("instance %d description %q missing recurring marker", i, inst.Description)
		}
		if inst.Amount != tpl.Amount || inst.Currency != tpl.Currency ||
			inst.Category != tpl.Category || inst.Subcategory != tpl.Subcategory ||
			inst.Notes != tpl.Notes {
			t.Errorf("instance %d did not carry over template fields", i)
		}
		if i > 0 && !got[i-1].Date.Before(inst.Date) {
			t.Errorf("instances not in ascending date order at %d", i)
		}
	}
}

func TestGenerateDeterministicExceptIDs(t *testing.T) {
	g := NewGenerator(dates.UTC())
	tpl := template()

	a := g.Generate(tpl, d(2024, 12, 31), 0)
	b := g.Generate(tpl, d(2024, 12, 31), 0)

	if len(a) != len(b) {
		t.Fatalf("repeated calls disagree on count: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if !a[i].Date.Equal(b[i].Date) || a[i].Amount != b[i].Amount ||
			a[i].Description != b[i].Description || a[i].Status != b[i].Status {
			t.Fatalf("instance %d differs beyond its id", i)
		}
		if a[i].ID == b[i].ID {
			t.Fatalf("instance %d reused an id across calls", i)
		}
	}
}

func TestGenerateMaxOccurrences(t *testing.T) {
	g := NewGenerator(dates.UTC())
	tpl := template()
	tpl.Recurrence = core.RecurrenceRule{Kind: core.RecurrenceDaily}

	got := g.Generate(tpl, d(2024, 12, 31), 10)
	if len(got) != 10 {
		t.Fatalf("Generate() returned %d instances, want 10", len(got))
	}

	// Default cap applies when the caller passes zero.
	got = g.Generate(tpl, d(2024, 12, 31), 0)
	if len(got) != DefaultMaxInstances {
		t.Fatalf("Generate() returned %d instances, want default %d", len(got), DefaultMaxInstances)
	}
}

func TestGenerateNonRepeatingTemplate(t *testing.T) {
	g := NewGenerator(dates.UTC())
	tpl := template()
	tpl.Recurrence = core.RecurrenceRule{Kind: core.RecurrenceNone}

	if got := g.Generate(tpl, d(2024, 12, 31), 0); len(got) != 0 {
		t.Fatalf("Generate() = %d instances for kind none, want 0", len(got))
	}
}

func TestGenerateTagsCopied(t *testing.T) {
	g := NewGenerator(dates.UTC())
	tpl := template()

	got := g.Generate(tpl, d(2024, 3, 31), 0)
	if len(got) == 0 {
		t.Fatal("expected instances")
	}
	got[0].Tags[0] = "mutated"
	if tpl.Tags[0] != "fixed" {
		t.Fatalf("instance tags must not alias the template's slice")
	}
}
