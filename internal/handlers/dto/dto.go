package dto

import (
	"complianceTracker/internal/compliance"
	"complianceTracker/internal/lifecycle"
	"complianceTracker/internal/models/activity"
	"complianceTracker/internal/models/task"
	"complianceTracker/internal/recurrence"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const DateLayout = time.DateOnly

type AssignmentDTO struct {
	Maker    string `json:"maker" yaml:"maker" validate:"omitempty,max=128"`
	Checker  string `json:"checker" yaml:"checker" validate:"omitempty,max=128"`
	Reviewer string `json:"reviewer" yaml:"reviewer" validate:"omitempty,max=128"`
	Auditor  string `json:"auditor" yaml:"auditor" validate:"omitempty,max=128"`
}

func (a AssignmentDTO) ToAssignment() task.Assignment {
	return task.Assignment{
		Maker:    a.Maker,
		Checker:  a.Checker,
		Reviewer: a.Reviewer,
		Auditor:  a.Auditor,
	}
}

type CreateActivityRequest struct {
	Name            string        `json:"name" yaml:"name" validate:"required,max=255"`
	Description     string        `json:"description" yaml:"description" validate:"max=2000"`
	Frequency       string        `json:"frequency" yaml:"frequency" validate:"required"`
	DueDay          int           `json:"due_day" yaml:"due_day" validate:"gte=0"`
	DueDate         string        `json:"due_date" yaml:"due_date" validate:"omitempty,datetime=2006-01-02"`
	GracePeriodDays int           `json:"grace_period_days" yaml:"grace_period_days" validate:"gte=0"`
	ReminderDays    int           `json:"reminder_days" yaml:"reminder_days" validate:"gte=0"`
	Assignment      AssignmentDTO `json:"assignment" yaml:"assignment"`
	Active          *bool         `json:"active" yaml:"active"`
}

// ToActivity переводит запрос в модель; даты читаются в часовом поясе loc.
func (r CreateActivityRequest) ToActivity(loc *time.Location) (*activity.Activity, error) {
	freq, err := recurrence.ParseFrequency(r.Frequency)
	if err != nil {
		return nil, err
	}
	a := &activity.Activity{
		Name:            r.Name,
		Description:     r.Description,
		Frequency:       freq,
		DueDay:          r.DueDay,
		GracePeriodDays: r.GracePeriodDays,
		ReminderDays:    r.ReminderDays,
		Assignment:      r.Assignment.ToAssignment(),
		Active:          true,
	}
	if r.Active != nil {
		a.Active = *r.Active
	}
	if r.DueDate != "" {
		due, err := ParseDate(r.DueDate, loc)
		if err != nil {
			return nil, err
		}
		a.DueDate = &due
	}
	return a, nil
}

// UpdateActivityRequest - частичное обновление; отсутствующее поле не меняется.
type UpdateActivityRequest struct {
	Name            *string        `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Description     *string        `json:"description,omitempty" validate:"omitempty,max=2000"`
	Frequency       *string        `json:"frequency,omitempty"`
	DueDay          *int           `json:"due_day,omitempty" validate:"omitempty,gte=0"`
	DueDate         *string        `json:"due_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	GracePeriodDays *int           `json:"grace_period_days,omitempty" validate:"omitempty,gte=0"`
	ReminderDays    *int           `json:"reminder_days,omitempty" validate:"omitempty,gte=0"`
	Assignment      *AssignmentDTO `json:"assignment,omitempty"`
	Active          *bool          `json:"active,omitempty"`
	Version         int            `json:"version" validate:"gte=0"`
}

// Options собирает опции обновления, даты читаются в часовом поясе loc.
func (r UpdateActivityRequest) Options(loc *time.Location) ([]activity.Option, error) {
	var options []activity.Option
	if r.Name != nil {
		options = append(options, activity.WithName(*r.Name))
	}
	if r.Description != nil {
		options = append(options, activity.WithDescription(*r.Description))
	}
	if r.Frequency != nil {
		freq, err := recurrence.ParseFrequency(*r.Frequency)
		if err != nil {
			return nil, err
		}
		options = append(options, activity.WithFrequency(freq))
	}
	if r.DueDay != nil {
		options = append(options, activity.WithDueDay(*r.DueDay))
	}
	if r.DueDate != nil {
		due, err := ParseDate(*r.DueDate, loc)
		if err != nil {
			return nil, err
		}
		options = append(options, activity.WithDueDate(due))
	}
	if r.GracePeriodDays != nil {
		options = append(options, activity.WithGracePeriodDays(*r.GracePeriodDays))
	}
	if r.ReminderDays != nil {
		options = append(options, activity.WithReminderDays(*r.ReminderDays))
	}
	if r.Assignment != nil {
		options = append(options, activity.WithAssignment(r.Assignment.ToAssignment()))
	}
	if r.Active != nil {
		options = append(options, activity.WithActive(*r.Active))
	}
	return options, nil
}

type DecisionRequest struct {
	UserID   string `json:"user_id" validate:"omitempty,max=128"`
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
	Remark   string `json:"remark" validate:"max=2000"`
	Version  int    `json:"version" validate:"gte=0"`
}

func (r DecisionRequest) ToDecision() (lifecycle.Decision, error) {
	return lifecycle.ParseDecision(r.Decision)
}

func ParseDate(raw string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("дата %q не в формате YYYY-MM-DD", raw)
	}
	return t, nil
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

func formatNullableDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	v := FormatDate(*t)
	return &v
}

type ActivityResponse struct {
	UUID            uuid.UUID     `json:"id"`
	Name            string        `json:"name"`
	Description     string        `json:"description"`
	Frequency       string        `json:"frequency"`
	DueDay          int           `json:"due_day"`
	DueDate         *string       `json:"due_date,omitempty"`
	GracePeriodDays int           `json:"grace_period_days"`
	ReminderDays    int           `json:"reminder_days"`
	Assignment      AssignmentDTO `json:"assignment"`
	Active          bool          `json:"active"`
	LastSpawnedDue  *string       `json:"last_spawned_due,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       *time.Time    `json:"updated_at,omitempty"`
	Version         int           `json:"version"`
}

func FromActivity(a *activity.Activity) ActivityResponse {
	return ActivityResponse{
		UUID:            a.UUID,
		Name:            a.Name,
		Description:     a.Description,
		Frequency:       string(a.Frequency),
		DueDay:          a.DueDay,
		DueDate:         formatNullableDate(a.DueDate),
		GracePeriodDays: a.GracePeriodDays,
		ReminderDays:    a.ReminderDays,
		Assignment: AssignmentDTO{
			Maker:    a.Assignment.Maker,
			Checker:  a.Assignment.Checker,
			Reviewer: a.Assignment.Reviewer,
			Auditor:  a.Assignment.Auditor,
		},
		Active:         a.Active,
		LastSpawnedDue: formatNullableDate(a.LastSpawnedDue),
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
		Version:        a.Version,
	}
}

func FromActivityList(activities []*activity.Activity) []ActivityResponse {
	result := make([]ActivityResponse, len(activities))
	for i, a := range activities {
		result[i] = FromActivity(a)
	}
	return result
}

type MovementResponse struct {
	Stage           string     `json:"stage"`
	UserID          string     `json:"user_id"`
	InDate          time.Time  `json:"in_date"`
	OutDate         *time.Time `json:"out_date,omitempty"`
	Decision        string     `json:"decision"`
	Remarks         string     `json:"remarks,omitempty"`
	RejectionRemark string     `json:"rejection_remark,omitempty"`
	PlannedTAT      int        `json:"planned_tat"`
	ActualTAT       int        `json:"actual_tat"`
}

type TaskResponse struct {
	UUID            uuid.UUID          `json:"id"`
	ActivityID      uuid.UUID          `json:"activity_id"`
	Title           string             `json:"title"`
	DueDate         string             `json:"due_date"`
	GracePeriodDate string             `json:"grace_period_date"`
	ReminderDate    string             `json:"reminder_date"`
	Assignment      AssignmentDTO      `json:"assignment"`
	CurrentStage    string             `json:"current_stage,omitempty"`
	Status          string             `json:"status"`
	State           string             `json:"state"`
	Bucket          string             `json:"compliance"`
	Movements       []MovementResponse `json:"movements"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       *time.Time         `json:"updated_at,omitempty"`
	Version         int                `json:"version"`
}

// FromTask добавляет к записи состояние автомата и корзину на момент now.
func FromTask(t *task.Task, now time.Time, opts ...compliance.Option) TaskResponse {
	movements := make([]MovementResponse, len(t.Movements))
	for i, m := range t.Movements {
		movements[i] = MovementResponse{
			Stage:           string(m.Stage),
			UserID:          m.UserID,
			InDate:          m.InDate,
			OutDate:         m.OutDate,
			Decision:        string(m.Decision),
			Remarks:         m.Remarks,
			RejectionRemark: m.RejectionRemark,
			PlannedTAT:      m.PlannedTAT,
			ActualTAT:       m.ActualTAT,
		}
	}
	return TaskResponse{
		UUID:            t.UUID,
		ActivityID:      t.ActivityID,
		Title:           t.Title,
		DueDate:         FormatDate(t.DueDate),
		GracePeriodDate: FormatDate(t.GracePeriodDate),
		ReminderDate:    FormatDate(t.ReminderDate),
		Assignment: AssignmentDTO{
			Maker:    t.Assignment.Maker,
			Checker:  t.Assignment.Checker,
			Reviewer: t.Assignment.Reviewer,
			Auditor:  t.Assignment.Auditor,
		},
		CurrentStage: string(t.CurrentStage),
		Status:       string(t.CurrentStatus),
		State:        string(lifecycle.StateOf(t)),
		Bucket:       string(compliance.BucketOf(t, now, opts...)),
		Movements:    movements,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
		Version:      t.Version,
	}
}

func FromTaskList(tasks []*task.Task, now time.Time, opts ...compliance.Option) []TaskResponse {
	result := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = FromTask(t, now, opts...)
	}
	return result
}

type DueDatesResponse struct {
	Frequency string   `json:"frequency"`
	DueDay    int      `json:"due_day,omitempty"`
	Dates     []string `json:"dates"`
}

func FromDueDates(freq recurrence.Frequency, dueDay int, dates []time.Time) DueDatesResponse {
	res := DueDatesResponse{Frequency: string(freq), DueDay: dueDay, Dates: make([]string, len(dates))}
	for i, d := range dates {
		res.Dates[i] = FormatDate(d)
	}
	return res
}

type ComplianceResponse struct {
	Now          time.Time              `json:"now"`
	Counts       compliance.Counts      `json:"counts"`
	Percentages  compliance.Percentages `json:"percentages"`
	Compliant    []uuid.UUID            `json:"compliant"`
	NonCompliant []uuid.UUID            `json:"non_compliant"`
	InProgress   []uuid.UUID            `json:"in_progress"`
	Excluded     []uuid.UUID            `json:"excluded"`
}

func FromReport(r compliance.Report) ComplianceResponse {
	return ComplianceResponse{
		Now:          r.Now,
		Counts:       r.Counts,
		Percentages:  r.Percentages,
		Compliant:    ids(r.Compliant),
		NonCompliant: ids(r.NonCompliant),
		InProgress:   ids(r.InProgress),
		Excluded:     ids(r.Excluded),
	}
}

func ids(tasks []*task.Task) []uuid.UUID {
	res := make([]uuid.UUID, len(tasks))
	for i, t := range tasks {
		res[i] = t.UUID
	}
	return res
}
