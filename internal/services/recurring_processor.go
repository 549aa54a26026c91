package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/akinalpfdn/ExpenseTracker-sub000/internal/core"
	"github.com/akinalpfdn/ExpenseTracker-sub000/internal/dates"
	"github.com/akinalpfdn/ExpenseTracker-sub000/internal/log"
	"github.com/akinalpfdn/ExpenseTracker-sub000/internal/recurrence"
)

// Storage ports the processor depends on. The SQLite repository satisfies
// both; tests substitute fakes.
type (
	TemplateStore interface {
		ListActiveTemplates(ctx context.Context) ([]core.ExpenseTemplate, error)
	}

	InstanceStore interface {
		InsertInstance(ctx context.Context, inst core.ExpenseInstance) (bool, error)
	}

	// SyncPublisher notifies the export worker about a new instance.
	SyncPublisher interface {
		PublishInstanceSync(ctx context.Context, instanceID, originID string) error
	}
)

// RecurringProcessor materializes due instances from active recurring
// templates. It runs periodically; the (origin, date) uniqueness in
// storage makes repeated runs idempotent.
type RecurringProcessor struct {
	templates TemplateStore
	instances InstanceStore
	publisher SyncPublisher
	generator recurrence.Generator
}

// NewRecurringProcessor creates a processor generating instances in the
// given calendar. publisher may be nil when no export pipeline is wired.
func NewRecurringProcessor(templates TemplateStore, instances InstanceStore, publisher SyncPublisher, cal dates.Calendar) *RecurringProcessor {
	return &RecurringProcessor{
		templates: templates,
		instances: instances,
		publisher: publisher,
		generator: recurrence.NewGenerator(cal),
	}
}

// ProcessTemplates generates and persists every instance due up to now,
// for all active recurring templates. Returns how many new instances were
// stored. A failing template is logged and skipped so one bad record
// cannot stall the whole run.
func (p *RecurringProcessor) ProcessTemplates(ctx context.Context, now time.Time) (int, error) {
	if p.templates == nil || p.instances == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	templates, err := p.templates.ListActiveTemplates(ctx)
	if err != nil {
		return 0, fmt.Errorf("list active templates: %w", err)
	}

	slog.InfoContext(ctx, "Processing recurring templates",
		"total_active", len(templates),
		"processing_date", now.Format("2006-01-02"))

	inserted := 0

	for _, t := range templates {
		if err := ctx.Err(); err != nil {
			return inserted, err
		}

		generated := p.generator.Generate(t, now, 0)
		if len(generated) == 0 {
			continue
		}

		newForTemplate := 0
		for _, inst := range generated {
			ok, err := p.instances.InsertInstance(ctx, inst)
			if err != nil {
				fields := log.NewFields().
					WithComponent(log.ComponentRecurrence).
					WithOperation(log.OpGenerate).
					WithError(err)
				fields[log.FieldOriginID] = t.ID
				slog.ErrorContext(ctx, "Failed to store generated instance",
					append(fields.ToSlice(), "date", inst.Date.Format("2006-01-02"))...)
				continue
			}
			if !ok {
				// Occurrence already materialized on a previous run.
				continue
			}

			newForTemplate++
			inserted++

			if p.publisher != nil {
				if err := p.publisher.PublishInstanceSync(ctx, inst.ID, inst.OriginID); err != nil {
					// The instance is stored; the export worker will pick
					// it up through the pending scan.
					slog.WarnContext(ctx, "Failed to publish sync message",
						"instance_id", inst.ID,
						"error", err)
				}
			}
		}

		if newForTemplate > 0 {
			fields := log.NewFields().
				WithComponent(log.ComponentRecurrence).
				WithOperation(log.OpGenerate).
				WithTemplate(t.ID, t.Amount.Cents)
			fields[log.FieldOccurrences] = newForTemplate
			slog.InfoContext(ctx, "Materialized instances from template",
				append(fields.ToSlice(), "description", t.Description)...)
		}
	}

	slog.InfoContext(ctx, "Recurring template processing complete",
		"inserted", inserted,
		"templates_checked", len(templates))

	return inserted, nil
}
