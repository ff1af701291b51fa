package sqlite

import (
	"complianceTracker/internal/calendar"
	"complianceTracker/internal/models/activity"
	"complianceTracker/internal/models/task"
	"complianceTracker/internal/recurrence"
	"time"

	"github.com/google/uuid"
)

// календарные даты хранятся строками YYYY-MM-DD: они сравниваются лексикографически
// и не зависят от часового пояса соединения

type activityRow struct {
	UUID            string     `gorm:"primaryKey;type:varchar(36)"`
	Name            string     `gorm:"size:255;not null"`
	Description     string
	Frequency       string     `gorm:"size:16;not null"`
	DueDay          int
	DueDate         *string    `gorm:"size:10"`
	GracePeriodDays int
	ReminderDays    int
	Maker           string     `gorm:"size:128"`
	Checker         string     `gorm:"size:128"`
	Reviewer        string     `gorm:"size:128"`
	Auditor         string     `gorm:"size:128"`
	Active          bool       `gorm:"index"`
	LastSpawnedDue  *string    `gorm:"size:10"`
	CreatedAt       time.Time
	UpdatedAt       *time.Time `gorm:"autoUpdateTime:false"`
	Version         int        `gorm:"not null"`
}

func (activityRow) TableName() string { return "activities" }

type taskRow struct {
	UUID            string          `gorm:"primaryKey;type:varchar(36)"`
	ActivityID      string          `gorm:"type:varchar(36);index:idx_tasks_activity_due,priority:1;not null"`
	Title           string          `gorm:"size:255;not null"`
	DueDate         string          `gorm:"size:10;index:idx_tasks_activity_due,priority:2;not null"`
	GracePeriodDate string          `gorm:"size:10;not null"`
	ReminderDate    string          `gorm:"size:10;not null"`
	Maker           string          `gorm:"size:128;index"`
	Checker         string          `gorm:"size:128;index"`
	Reviewer        string          `gorm:"size:128;index"`
	Auditor         string          `gorm:"size:128;index"`
	CurrentStage    string          `gorm:"size:16"`
	CurrentStatus   string          `gorm:"size:16;index;not null"`
	Movements       []task.Movement `gorm:"serializer:json"`
	RemindedAt      *time.Time
	EscalatedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       *time.Time      `gorm:"autoUpdateTime:false"`
	Version         int             `gorm:"not null"`
}

func (taskRow) TableName() string { return "tasks" }

func toDateString(t time.Time) string {
	return t.Format(time.DateOnly)
}

func toNullableDateString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	v := toDateString(*t)
	return &v
}

func (s *Storage) parseDate(v string) time.Time {
	t, err := time.ParseInLocation(time.DateOnly, v, s.loc)
	if err != nil {
		return time.Time{}
	}
	return calendar.Day(t)
}

func (s *Storage) parseNullableDate(v *string) *time.Time {
	if v == nil {
		return nil
	}
	t := s.parseDate(*v)
	return &t
}

func toTaskRow(t *task.Task) *taskRow {
	return &taskRow{
		UUID:            t.UUID.String(),
		ActivityID:      t.ActivityID.String(),
		Title:           t.Title,
		DueDate:         toDateString(t.DueDate),
		GracePeriodDate: toDateString(t.GracePeriodDate),
		ReminderDate:    toDateString(t.ReminderDate),
		Maker:           t.Assignment.Maker,
		Checker:         t.Assignment.Checker,
		Reviewer:        t.Assignment.Reviewer,
		Auditor:         t.Assignment.Auditor,
		CurrentStage:    string(t.CurrentStage),
		CurrentStatus:   string(t.CurrentStatus),
		Movements:       t.Movements,
		RemindedAt:      t.RemindedAt,
		EscalatedAt:     t.EscalatedAt,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
		Version:         t.Version,
	}
}

func (s *Storage) fromTaskRow(r *taskRow) (*task.Task, error) {
	id, err := uuid.Parse(r.UUID)
	if err != nil {
		return nil, err
	}
	activityID, err := uuid.Parse(r.ActivityID)
	if err != nil {
		return nil, err
	}
	movements := r.Movements
	if movements == nil {
		movements = []task.Movement{}
	}
	return &task.Task{
		UUID:            id,
		ActivityID:      activityID,
		Title:           r.Title,
		DueDate:         s.parseDate(r.DueDate),
		GracePeriodDate: s.parseDate(r.GracePeriodDate),
		ReminderDate:    s.parseDate(r.ReminderDate),
		Assignment: task.Assignment{
			Maker:    r.Maker,
			Checker:  r.Checker,
			Reviewer: r.Reviewer,
			Auditor:  r.Auditor,
		},
		CurrentStage:  task.Stage(r.CurrentStage),
		CurrentStatus: task.Status(r.CurrentStatus),
		Movements:     movements,
		RemindedAt:    r.RemindedAt,
		EscalatedAt:   r.EscalatedAt,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
		Version:       r.Version,
	}, nil
}

func toActivityRow(a *activity.Activity) *activityRow {
	return &activityRow{
		UUID:            a.UUID.String(),
		Name:            a.Name,
		Description:     a.Description,
		Frequency:       string(a.Frequency),
		DueDay:          a.DueDay,
		DueDate:         toNullableDateString(a.DueDate),
		GracePeriodDays: a.GracePeriodDays,
		ReminderDays:    a.ReminderDays,
		Maker:           a.Assignment.Maker,
		Checker:         a.Assignment.Checker,
		Reviewer:        a.Assignment.Reviewer,
		Auditor:         a.Assignment.Auditor,
		Active:          a.Active,
		LastSpawnedDue:  toNullableDateString(a.LastSpawnedDue),
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
		Version:         a.Version,
	}
}

func (s *Storage) fromActivityRow(r *activityRow) (*activity.Activity, error) {
	id, err := uuid.Parse(r.UUID)
	if err != nil {
		return nil, err
	}
	return &activity.Activity{
		UUID:            id,
		Name:            r.Name,
		Description:     r.Description,
		Frequency:       recurrence.Frequency(r.Frequency),
		DueDay:          r.DueDay,
		DueDate:         s.parseNullableDate(r.DueDate),
		GracePeriodDays: r.GracePeriodDays,
		ReminderDays:    r.ReminderDays,
		Assignment: task.Assignment{
			Maker:    r.Maker,
			Checker:  r.Checker,
			Reviewer: r.Reviewer,
			Auditor:  r.Auditor,
		},
		Active:         r.Active,
		LastSpawnedDue: s.parseNullableDate(r.LastSpawnedDue),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
		Version:        r.Version,
	}, nil
}
