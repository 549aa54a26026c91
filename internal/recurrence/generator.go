package recurrence

import (
	"time"

	"github.com/google/uuid"

	"github.com/akinalpfdn/ExpenseTracker-sub000/internal/core"
	"github.com/akinalpfdn/ExpenseTracker-sub000/internal/dates"
)

// DefaultMaxInstances bounds how many instances one Generate call returns
// when the caller does not choose a limit.
const DefaultMaxInstances = 50

// RecurringMarker is appended to the description of every generated
// instance so derived records are recognizable next to the template.
const RecurringMarker = " (recurring)"

// Generator derives concrete expense instances from a template's
// recurrence rule. It is stateless: every call regenerates the full
// candidate set for the requested window, and deduplication against
// already persisted instances is the caller's job via (OriginID, Date).
type Generator struct {
	exp Expander
}

// NewGenerator returns a Generator operating in the given calendar.
func NewGenerator(cal dates.Calendar) Generator {
	return Generator{exp: NewExpander(cal)}
}

// Generate expands the template's rule from its origin date through
// windowEnd and materializes one instance per occurrence. The first
// occurrence is the template itself and is always dropped. maxOccurrences
// caps the result; zero or negative means DefaultMaxInstances.
//
// Instances share every template field except: a fresh UUID id, the
// occurrence date, status forced to pending, the recurring description
// marker, and the OriginID back-reference. Two calls with identical inputs
// agree on everything but the generated ids.
func (g Generator) Generate(t core.ExpenseTemplate, windowEnd time.Time, maxOccurrences int) []core.ExpenseInstance {
	if maxOccurrences <= 0 {
		maxOccurrences = DefaultMaxInstances
	}

	occurrences := g.exp.Expand(t.Recurrence, t.OriginDate, t.OriginDate, windowEnd)
	if len(occurrences) <= 1 {
		return nil
	}
	occurrences = occurrences[1:] // index 0 is the template, not an instance
	if len(occurrences) > maxOccurrences {
		occurrences = occurrences[:maxOccurrences]
	}

	instances := make([]core.ExpenseInstance, 0, len(occurrences))
	for _, d := range occurrences {
		instances = append(instances, core.ExpenseInstance{
			ID:          uuid.NewString(),
			OriginID:    t.ID,
			Date:        d,
			Amount:      t.Amount,
			Currency:    t.Currency,
			Category:    t.Category,
			Subcategory: t.Subcategory,
			Description: t.Description + RecurringMarker,
			Tags:        append([]string(nil), t.Tags...),
			Notes:       t.Notes,
			Status:      core.StatusPending,
		})
	}
	return instances
}
