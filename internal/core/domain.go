package core

import (
	"errors"
	"strings"
	"time"
)

// Recurrence kinds supported by the expansion engine.
const (
	RecurrenceNone      RecurrenceKind = "none"
	RecurrenceDaily     RecurrenceKind = "daily"
	RecurrenceWeekly    RecurrenceKind = "weekly"
	RecurrenceBiweekly  RecurrenceKind = "biweekly"
	RecurrenceMonthly   RecurrenceKind = "monthly"
	RecurrenceQuarterly RecurrenceKind = "quarterly"
	RecurrenceYearly    RecurrenceKind = "yearly"
	RecurrenceCustom    RecurrenceKind = "custom"
)

// Expense lifecycle states. Generated instances always start as pending.
const (
	StatusPending   ExpenseStatus = "pending"
	StatusConfirmed ExpenseStatus = "confirmed"
	StatusCancelled ExpenseStatus = "cancelled"
	StatusRefunded  ExpenseStatus = "refunded"
)

type (
	RecurrenceKind string

	ExpenseStatus string

	Money struct {
		Cents int64
	}

	// RecurrenceRule describes how an expense template repeats.
	// EndDate is an exclusive upper bound; the zero time means unbounded.
	// CustomIntervalDays is only consulted when Kind is RecurrenceCustom.
	RecurrenceRule struct {
		Kind               RecurrenceKind
		CustomIntervalDays int
		EndDate            time.Time
	}

	// ExpenseTemplate is the origin record a recurring instance is derived
	// from. Templates are immutable inputs: the engine never mutates one.
	ExpenseTemplate struct {
		ID          string
		Amount      Money
		Currency    string
		Category    string
		Subcategory string
		Description string
		OriginDate  time.Time
		Recurrence  RecurrenceRule
		Tags        []string
		Notes       string
		Status      ExpenseStatus
	}

	// ExpenseInstance is one generated occurrence of a template. It carries
	// its own identity plus a back-reference to the template it came from.
	ExpenseInstance struct {
		ID          string
		OriginID    string
		Date        time.Time
		Amount      Money
		Currency    string
		Category    string
		Subcategory string
		Description string
		Tags        []string
		Notes       string
		Status      ExpenseStatus
	}
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrEmptyDescription  = errors.New("empty description")
	ErrEmptyCategory     = errors.New("empty category")
	ErrZeroOriginDate    = errors.New("origin date cannot be zero")
	ErrInvalidRecurrence = errors.New("invalid recurrence kind")
	ErrInvalidInterval   = errors.New("custom interval must be positive")
	ErrInvalidStatus     = errors.New("invalid expense status")
	ErrEndBeforeStart    = errors.New("end date must be after start date")
)

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// IsRepeating reports whether the rule produces any occurrence beyond the
// origin date.
func (r RecurrenceRule) IsRepeating() bool {
	return r.Kind != "" && r.Kind != RecurrenceNone
}

func (r RecurrenceRule) Validate() error {
	switch r.Kind {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceBiweekly,
		RecurrenceMonthly, RecurrenceQuarterly, RecurrenceYearly:
	case RecurrenceCustom:
		if r.CustomIntervalDays <= 0 {
			return ErrInvalidInterval
		}
	default:
		return ErrInvalidRecurrence
	}
	return nil
}

func (s ExpenseStatus) Validate() error {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusRefunded:
		return nil
	}
	return ErrInvalidStatus
}

func (t ExpenseTemplate) Validate() error {
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if t.OriginDate.IsZero() {
		return ErrZeroOriginDate
	}
	if err := t.Recurrence.Validate(); err != nil {
		return err
	}
	if !t.Recurrence.EndDate.IsZero() && !t.Recurrence.EndDate.After(t.OriginDate) {
		return ErrEndBeforeStart
	}
	return t.Status.Validate()
}

func (i ExpenseInstance) Validate() error {
	if strings.TrimSpace(i.ID) == "" || strings.TrimSpace(i.OriginID) == "" {
		return errors.New("instance must reference its template")
	}
	if i.Date.IsZero() {
		return ErrZeroOriginDate
	}
	if err := i.Amount.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(i.Description)) == 0 {
		return ErrEmptyDescription
	}
	if strings.TrimSpace(i.Category) == "" {
		return ErrEmptyCategory
	}
	return i.Status.Validate()
}

// WithAmount returns a copy of the template with a different amount.
func (t ExpenseTemplate) WithAmount(m Money) ExpenseTemplate {
	t.Amount = m
	return t
}

// WithStatus returns a copy of the template with a different status.
func (t ExpenseTemplate) WithStatus(s ExpenseStatus) ExpenseTemplate {
	t.Status = s
	return t
}

// WithRecurrence returns a copy of the template with a different rule.
func (t ExpenseTemplate) WithRecurrence(r RecurrenceRule) ExpenseTemplate {
	t.Recurrence = r
	return t
}

// WithDescription returns a copy of the template with a different description.
func (t ExpenseTemplate) WithDescription(d string) ExpenseTemplate {
	t.Description = d
	return t
}
