package activity

import (
	"complianceTracker/internal/models/task"
	"complianceTracker/internal/recurrence"
	"time"
)

// Option - частичное обновление активности; nil означает "поле не менялось".
type Option func(*Activity)

func WithName(name string) Option {
	if name == "" {
		return nil
	}
	return func(a *Activity) {
		a.Name = name
	}
}

func WithDescription(description string) Option {
	return func(a *Activity) {
		a.Description = description
	}
}

func WithSchedule(freq recurrence.Frequency, dueDay int) Option {
	if freq == "" {
		return nil
	}
	return func(a *Activity) {
		a.Frequency = freq
		a.DueDay = dueDay
	}
}

func WithFrequency(freq recurrence.Frequency) Option {
	if freq == "" {
		return nil
	}
	return func(a *Activity) {
		a.Frequency = freq
	}
}

func WithDueDay(dueDay int) Option {
	return func(a *Activity) {
		a.DueDay = dueDay
	}
}

func WithDueDate(dueDate time.Time) Option {
	if dueDate.IsZero() {
		return nil
	}
	return func(a *Activity) {
		a.DueDate = &dueDate
	}
}

func WithGracePeriodDays(days int) Option {
	return func(a *Activity) {
		a.GracePeriodDays = days
	}
}

func WithReminderDays(days int) Option {
	return func(a *Activity) {
		a.ReminderDays = days
	}
}

func WithAssignment(assignment task.Assignment) Option {
	return func(a *Activity) {
		a.Assignment = assignment
	}
}

func WithActive(active bool) Option {
	return func(a *Activity) {
		a.Active = active
	}
}

// Apply применяет опции, пропуская nil.
func (a *Activity) Apply(options ...Option) {
	for _, opt := range options {
		if opt != nil {
			opt(a)
		}
	}
}
