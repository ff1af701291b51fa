package task

import (
	"complianceTracker/internal/calendar"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Task - одна конкретная обязанность, порождённая активностью.
// Даты срока/грейса/напоминания вычисляются один раз при создании.
type Task struct {
	UUID            uuid.UUID  `json:"uuid" db:"uuid"`
	ActivityID      uuid.UUID  `json:"activity_id" db:"activity_id"`
	Title           string     `json:"title" db:"title"`
	DueDate         time.Time  `json:"due_date" db:"due_date"`
	GracePeriodDate time.Time  `json:"grace_period_date" db:"grace_period_date"`
	ReminderDate    time.Time  `json:"reminder_date" db:"reminder_date"`
	Assignment      Assignment `json:"assignment" db:"assignment"`
	CurrentStage    Stage      `json:"current_stage" db:"current_stage"`
	CurrentStatus   Status     `json:"current_status" db:"current_status"`
	Movements       []Movement `json:"movements" db:"movements"`
	RemindedAt      *time.Time `json:"reminded_at,omitempty" db:"reminded_at,omitempty"`
	EscalatedAt     *time.Time `json:"escalated_at,omitempty" db:"escalated_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty" db:"updated_at,omitempty"`
	Version         int        `json:"version" db:"version"`
}

type Status string

const StatusPending Status = "pending"
const StatusCompleted Status = "completed"
const StatusRejected Status = "rejected"

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusCompleted || s == StatusRejected
}

// Template - то, что активность передаёт задаче при создании.
type Template struct {
	ActivityID      uuid.UUID
	Title           string
	GracePeriodDays int
	ReminderDays    int
	Assignment      Assignment
}

// New создаёт задачу со сроком dueDate и открывает движение на первой заполненной роли.
// Шаблон должен быть провалидирован: без назначенных ролей возвращается nil.
func New(id uuid.UUID, tpl Template, dueDate, now time.Time) *Task {
	stages := tpl.Assignment.Stages()
	if len(stages) == 0 {
		return nil
	}
	due := calendar.Day(dueDate)
	first := stages[0]

	return &Task{
		UUID:            id,
		ActivityID:      tpl.ActivityID,
		Title:           tpl.Title,
		DueDate:         due,
		GracePeriodDate: calendar.AddDays(due, tpl.GracePeriodDays),
		// напоминание отсчитывается от момента создания, а не от срока
		ReminderDate:  calendar.AddDays(now, tpl.ReminderDays),
		Assignment:    tpl.Assignment,
		CurrentStage:  first,
		CurrentStatus: StatusPending,
		Movements:     []Movement{Open(first, tpl.Assignment.Get(first), now, due)},
		CreatedAt:     now,
		Version:       1,
	}
}

func (t *Task) IsTerminal() bool {
	return t.CurrentStatus == StatusCompleted || t.CurrentStatus == StatusRejected
}

// Stages - упорядоченный маршрут задачи.
func (t *Task) Stages() []Stage {
	return t.Assignment.Stages()
}

// NextStage - следующая заполненная роль после stage.
func (t *Task) NextStage(stage Stage) (Stage, bool) {
	stages := t.Stages()
	idx := slices.Index(stages, stage)
	if idx < 0 || idx+1 >= len(stages) {
		return StageNone, false
	}
	return stages[idx+1], true
}

func (t *Task) Assignee(stage Stage) string {
	return t.Assignment.Get(stage)
}

// ActiveMovement возвращает незакрытое движение и его индекс, либо -1.
func (t *Task) ActiveMovement() (*Movement, int) {
	for i := len(t.Movements) - 1; i >= 0; i-- {
		if t.Movements[i].Decision == DecisionPending {
			return &t.Movements[i], i
		}
	}
	return nil, -1
}

func (t *Task) LastMovement() *Movement {
	if len(t.Movements) == 0 {
		return nil
	}
	return &t.Movements[len(t.Movements)-1]
}

// CompletedAt - outDate последнего движения завершённой задачи.
func (t *Task) CompletedAt() *time.Time {
	if t.CurrentStatus != StatusCompleted {
		return nil
	}
	if last := t.LastMovement(); last != nil {
		return last.OutDate
	}
	return nil
}

// Clone - глубокая копия, чтобы переходы не трогали исходную запись.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	c.Movements = make([]Movement, len(t.Movements))
	for i, m := range t.Movements {
		c.Movements[i] = m.clone()
	}
	c.RemindedAt = cloneTime(t.RemindedAt)
	c.EscalatedAt = cloneTime(t.EscalatedAt)
	c.UpdatedAt = cloneTime(t.UpdatedAt)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
