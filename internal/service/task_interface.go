package service

import (
	"complianceTracker/internal/models/activity"
	"complianceTracker/internal/models/task"
	"context"
	"time"

	"github.com/google/uuid"
)

// TaskRepository - хранилище задач. Save сохраняет запись, только если
// версия в хранилище равна expectedVersion, иначе repository.ErrVersionConflict.
type TaskRepository interface {
	HealthCheck(context.Context) error
	Create(context.Context, *task.Task) error
	GetByID(context.Context, uuid.UUID) (*task.Task, error)
	Save(ctx context.Context, t *task.Task, expectedVersion int) error
	// stage == task.StageNone - любая роль
	ListByAssignee(ctx context.Context, userID string, stage task.Stage) ([]*task.Task, error)
	GetByActivity(context.Context, uuid.UUID) ([]*task.Task, error)
	GetAllWithLimit(ctx context.Context, page, limit int) ([]*task.Task, error)
	GetStatusedWithLimit(ctx context.Context, page, limit int, status task.Status) ([]*task.Task, error)
	// незавершённые задачи, по которым пора напомнить (reminder_date <= now)
	// или эскалировать (grace_period_date < now) и это ещё не сделано
	GetAwaitingNotice(ctx context.Context, now time.Time, limit int) ([]*task.Task, error)
}

type ActivityRepository interface {
	Create(context.Context, *activity.Activity) error
	GetByID(context.Context, uuid.UUID) (*activity.Activity, error)
	// Update проверяет a.Version и увеличивает её
	Update(context.Context, *activity.Activity) error
	GetAllWithLimit(ctx context.Context, page, limit int) ([]*activity.Activity, error)
	GetActive(context.Context) ([]*activity.Activity, error)
}
