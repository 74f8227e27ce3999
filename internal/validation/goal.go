package validation

import (
	"errors"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/templui/goalboard/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var ErrInvalid = errors.New("invalid goal")

// Errors maps a field name to the reason it was rejected.
type Errors map[string]string

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+e[f])
	}
	return "invalid goal: " + strings.Join(parts, "; ")
}

func (e Errors) Is(target error) bool {
	return target == ErrInvalid
}

func (e Errors) orNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

var categoryCaser = cases.Lower(language.Und)

// NormalizeCategory trims and case-folds a free-text category so "Fitness "
// and "fitness" land in the same group.
func NormalizeCategory(category string) string {
	return categoryCaser.String(strings.TrimSpace(category))
}

// NormalizeDraft cleans up free-text fields and fills defaults before validation.
func NormalizeDraft(d model.GoalDraft) model.GoalDraft {
	d.Title = strings.TrimSpace(d.Title)
	d.Category = NormalizeCategory(d.Category)
	d.Unit = strings.TrimSpace(d.Unit)
	if d.Direction == "" {
		d.Direction = model.GoalDirectionIncrease
	}
	if d.StepSize == 0 {
		d.StepSize = 1
	}
	return d
}

// ValidateDraft checks a create request before it is sent anywhere.
func ValidateDraft(d model.GoalDraft) error {
	errs := Errors{}
	validateFields(errs, fields{
		title:        d.Title,
		description:  d.Description,
		startDate:    d.StartDate,
		endDate:      d.EndDate,
		targetValue:  d.TargetValue,
		currentValue: d.CurrentValue,
		direction:    d.Direction,
		stepSize:     d.StepSize,
	})
	return errs.orNil()
}

// ValidateGoal checks a full goal, typically an existing goal with a patch applied.
func ValidateGoal(g model.Goal) error {
	errs := Errors{}
	validateFields(errs, fields{
		title:        g.Title,
		description:  g.Description,
		startDate:    g.StartDate,
		endDate:      g.EndDate,
		targetValue:  g.TargetValue,
		currentValue: g.CurrentValue,
		direction:    g.Direction,
		stepSize:     g.StepSize,
	})
	return errs.orNil()
}

type fields struct {
	title        string
	description  string
	startDate    time.Time
	endDate      time.Time
	targetValue  float64
	currentValue float64
	direction    string
	stepSize     float64
}

func validateFields(errs Errors, f fields) {
	if err := ValidateTitle(f.title); err != nil {
		errs["title"] = err.Error()
	}
	if err := validateDescription(f.description); err != nil {
		errs["description"] = err.Error()
	}

	if f.startDate.IsZero() {
		errs["startDate"] = "start date is required"
	}
	if f.endDate.IsZero() {
		errs["endDate"] = "end date is required"
	}
	if !f.startDate.IsZero() && !f.endDate.IsZero() && f.endDate.Before(f.startDate) {
		errs["endDate"] = "end date must not be before start date"
	}

	if !finite(f.targetValue) || f.targetValue <= 0 {
		errs["targetValue"] = "target value must be greater than zero"
	}
	if !finite(f.currentValue) || f.currentValue < 0 {
		errs["currentValue"] = "current value must not be negative"
	}
	if !finite(f.stepSize) || f.stepSize < 0 {
		errs["stepSize"] = "step size must not be negative"
	}

	switch f.direction {
	case "", model.GoalDirectionIncrease, model.GoalDirectionDecrease:
	default:
		errs["direction"] = "direction must be increase or decrease"
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
