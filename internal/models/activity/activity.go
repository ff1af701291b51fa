package activity

import (
	"complianceTracker/internal/calendar"
	"complianceTracker/internal/models/task"
	"complianceTracker/internal/recurrence"
	"time"

	"github.com/google/uuid"
)

// Activity - шаблон регулярной обязанности, который настраивает администратор.
// Правки влияют только на задачи, созданные после них.
type Activity struct {
	UUID            uuid.UUID            `json:"uuid" db:"uuid"`
	Name            string               `json:"name" db:"name" validate:"required,max=255"`
	Description     string               `json:"description" db:"description" validate:"max=2000"`
	Frequency       recurrence.Frequency `json:"frequency" db:"frequency" validate:"required"`
	DueDay          int                  `json:"due_day" db:"due_day"`
	DueDate         *time.Time           `json:"due_date,omitempty" db:"due_date,omitempty"`
	GracePeriodDays int                  `json:"grace_period_days" db:"grace_period_days" validate:"gte=0"`
	ReminderDays    int                  `json:"reminder_days" db:"reminder_days" validate:"gte=0"`
	Assignment      task.Assignment      `json:"assignment" db:"assignment"`
	Active          bool                 `json:"active" db:"active"`
	LastSpawnedDue  *time.Time           `json:"last_spawned_due,omitempty" db:"last_spawned_due,omitempty"`
	CreatedAt       time.Time            `json:"created_at" db:"created_at"`
	UpdatedAt       *time.Time           `json:"updated_at,omitempty" db:"updated_at,omitempty"`
	Version         int                  `json:"version" db:"version"`
}

func (a *Activity) Template() task.Template {
	return task.Template{
		ActivityID:      a.UUID,
		Title:           a.Name,
		GracePeriodDays: a.GracePeriodDays,
		ReminderDays:    a.ReminderDays,
		Assignment:      a.Assignment,
	}
}

// NextDueDate - срок следующей задачи: явная дата для as_needed,
// иначе ближайшая дата движка после now.
func (a *Activity) NextDueDate(now time.Time) (time.Time, error) {
	if a.Frequency == recurrence.AsNeeded {
		if a.DueDate == nil {
			return time.Time{}, NewValidationError(Violation{Field: "due_date", Reason: "обязательна для as_needed"})
		}
		return calendar.Day(a.DueDate.In(now.Location())), nil
	}
	return recurrence.NextDueDate(a.Frequency, a.DueDay, now)
}

// UpcomingDueDates - превью ближайших count сроков.
func (a *Activity) UpcomingDueDates(now time.Time, count int) []time.Time {
	if a.Frequency == recurrence.AsNeeded {
		if a.DueDate == nil || count <= 0 {
			return []time.Time{}
		}
		return []time.Time{calendar.Day(a.DueDate.In(now.Location()))}
	}
	return recurrence.NextDueDates(a.Frequency, a.DueDay, now, count)
}

// Clone - копия с собственными указателями.
func (a *Activity) Clone() *Activity {
	if a == nil {
		return nil
	}
	c := *a
	c.DueDate = cloneTime(a.DueDate)
	c.LastSpawnedDue = cloneTime(a.LastSpawnedDue)
	c.UpdatedAt = cloneTime(a.UpdatedAt)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
