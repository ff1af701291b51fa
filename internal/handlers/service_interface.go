package handlers

import (
	"complianceTracker/internal/compliance"
	"complianceTracker/internal/lifecycle"
	"complianceTracker/internal/models/activity"
	"complianceTracker/internal/models/task"
	"complianceTracker/internal/recurrence"
	"complianceTracker/internal/service"
	"context"
	"time"

	"github.com/google/uuid"
)

type ComplianceService interface {
	HealthCheck(ctx context.Context) error
	Now() time.Time

	NextDueDates(ctx context.Context, freq recurrence.Frequency, dueDay, count int) ([]time.Time, error)

	CreateActivity(ctx context.Context, a *activity.Activity) (*activity.Activity, error)
	UpdateActivity(ctx context.Context, id uuid.UUID, expectedVersion int, options ...activity.Option) (*activity.Activity, error)
	GetActivity(ctx context.Context, id uuid.UUID) (*activity.Activity, error)
	ListActivities(ctx context.Context, page, limit int) ([]*activity.Activity, error)
	PreviewActivity(ctx context.Context, id uuid.UUID, count int) ([]time.Time, error)

	SpawnTask(ctx context.Context, activityID uuid.UUID) (*task.Task, error)
	GetTaskByID(ctx context.Context, id uuid.UUID) (*task.Task, error)
	ListTasks(ctx context.Context, page, limit int, status task.Status) ([]*task.Task, error)
	SubmitDecision(ctx context.Context, taskID uuid.UUID, actor string, decision lifecycle.Decision, remark string, expectedVersion int) (*task.Task, error)
	ListByAssignee(ctx context.Context, user string, stage task.Stage, awaitingOnly bool) ([]*task.Task, error)

	Classify(ctx context.Context, options ...service.ClassifyOption) (compliance.Report, error)
}
