package activity

import (
	"complianceTracker/internal/recurrence"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type Violation struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError собирает все нарушения конфигурации активности разом.
type ValidationError struct {
	Violations []Violation
}

func NewValidationError(violations ...Violation) *ValidationError {
	return &ValidationError{Violations: violations}
}

// Error перечисляет нарушения через "; ", контекст добавляет вызывающий.
func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, fmt.Sprintf("%s: %s", v.Field, v.Reason))
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, reason string) {
	e.Violations = append(e.Violations, Violation{Field: field, Reason: reason})
}

// Validate проверяет активность при сохранении; значения никогда не подрезаются.
func (a *Activity) Validate() error {
	verr := &ValidationError{}

	if err := validate.Struct(a); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("валидация активности: %w", err)
		}
		for _, fe := range fieldErrs {
			verr.add(jsonName(fe.StructNamespace()), describeTag(fe))
		}
	}

	switch {
	case !a.Frequency.Valid():
		if a.Frequency != "" {
			verr.add("frequency", fmt.Sprintf("неизвестное значение %q", a.Frequency))
		}
	case a.Frequency == recurrence.AsNeeded:
		if a.DueDate == nil || a.DueDate.IsZero() {
			verr.add("due_date", "обязательна для as_needed")
		}
	default:
		if err := recurrence.ValidateDueDay(a.Frequency, a.DueDay); err != nil {
			verr.add("due_day", err.Error())
		}
	}

	// окно грейса/напоминания не может быть больше одного периода
	if limit := recurrence.MaxDueDay(a.Frequency); limit > 0 {
		if a.GracePeriodDays > limit {
			verr.add("grace_period_days", fmt.Sprintf("больше %d для %s", limit, a.Frequency))
		}
		if a.ReminderDays > limit {
			verr.add("reminder_days", fmt.Sprintf("больше %d для %s", limit, a.Frequency))
		}
	}

	if a.Assignment.Empty() {
		verr.add("assignment", "нужна хотя бы одна назначенная роль")
	}

	if len(verr.Violations) > 0 {
		return verr
	}
	return nil
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "обязательное поле"
	case "gte":
		return "не может быть меньше " + fe.Param()
	case "max":
		return "длина больше " + fe.Param()
	}
	return fmt.Sprintf("правило %q", fe.Tag())
}

// Activity.GracePeriodDays -> grace_period_days
func jsonName(namespace string) string {
	parts := strings.Split(namespace, ".")
	for i, p := range parts {
		parts[i] = snake(p)
	}
	if len(parts) > 1 {
		parts = parts[1:]
	}
	return strings.Join(parts, ".")
}

func snake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
