package service

import (
	"complianceTracker/internal/calendar"
	"complianceTracker/internal/clock"
	"complianceTracker/internal/compliance"
	"complianceTracker/internal/lifecycle"
	"complianceTracker/internal/logger"
	"complianceTracker/internal/models/activity"
	"complianceTracker/internal/models/task"
	"complianceTracker/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// здесь происходит проверка ошибок бизнес-логики

const defaultPageSize = 200

type ComplianceService struct {
	tasks      TaskRepository
	activities ActivityRepository
	clock      clock.Clock
	pageSize   int
}

func NewComplianceService(tasks TaskRepository, activities ActivityRepository, clk clock.Clock) *ComplianceService {
	if clk == nil {
		clk = clock.System{Location: time.UTC}
	}
	return &ComplianceService{
		tasks:      tasks,
		activities: activities,
		clock:      clk,
		pageSize:   defaultPageSize,
	}
}

func (s *ComplianceService) Now() time.Time {
	return s.clock.Now()
}

func (s *ComplianceService) HealthCheck(ctx context.Context) error {
	if err := s.tasks.HealthCheck(ctx); err != nil {
		return fmt.Errorf("проверка здоровья сервиса: %w", err)
	}
	return nil
}

// SpawnTask - spawnTask: создаёт задачу по активности с ближайшим сроком.
func (s *ComplianceService) SpawnTask(ctx context.Context, activityID uuid.UUID) (*task.Task, error) {
	a, err := s.getActivity(ctx, activityID)
	if err != nil {
		return nil, err
	}
	if !a.Active {
		return nil, NewBusinessError(CodeInvalidState, fmt.Sprintf("активность %s отключена", a.UUID),
			ToDetail("activity_id", a.UUID.String()),
			ToDetail("reason", "inactive"))
	}

	now := s.clock.Now()
	due, err := a.NextDueDate(now)
	if err != nil {
		var verr *activity.ValidationError
		if errors.As(err, &verr) {
			return nil, fromActivityValidation(verr)
		}
		return nil, fmt.Errorf("расчёт срока активности %s: %w", a.UUID, err)
	}

	return s.spawn(ctx, a, due, now)
}

func (s *ComplianceService) spawn(ctx context.Context, a *activity.Activity, due, now time.Time) (*task.Task, error) {
	created := task.New(uuid.New(), a.Template(), due, now)
	if created == nil {
		return nil, NewValidationError("assignment", "нужна хотя бы одна назначенная роль")
	}
	if err := lifecycle.CheckInvariants(created); err != nil {
		return nil, fmt.Errorf("создание задачи: %w", err)
	}

	if err := s.tasks.Create(ctx, created); err != nil {
		logger.Error("Service: Не удалось сохранить задачу", err, zap.String("activity_id", a.UUID.String()))
		return nil, fmt.Errorf("создание задачи: %w", err)
	}

	s.markSpawned(ctx, a, due)

	logger.Info("Service: Задача создана",
		zap.String("task_id", created.UUID.String()),
		zap.String("activity_id", a.UUID.String()),
		zap.Time("due_date", created.DueDate),
		zap.String("stage", string(created.CurrentStage)))
	return created, nil
}

// markSpawned запоминает последний созданный срок; конфликт версий не критичен -
// планировщик всё равно сверяется с уже созданными задачами.
func (s *ComplianceService) markSpawned(ctx context.Context, a *activity.Activity, due time.Time) {
	if a.LastSpawnedDue != nil && calendar.DaysBetween(*a.LastSpawnedDue, due) == 0 {
		return
	}
	updated := a.Clone()
	updated.LastSpawnedDue = &due
	if err := s.activities.Update(ctx, updated); err != nil {
		logger.Warn("Service: Не удалось отметить срок активности",
			zap.String("activity_id", a.UUID.String()),
			zap.Error(err))
		return
	}
	*a = *updated
}

// SpawnScheduled создаёт по одной задаче на каждый новый срок активных регулярных активностей.
func (s *ComplianceService) SpawnScheduled(ctx context.Context) (int, error) {
	activities, err := s.activities.GetActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("получение активностей: %w", err)
	}

	now := s.clock.Now()
	spawned := 0
	var errs []error

	for _, a := range activities {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if !a.Frequency.IsRecurring() {
			continue
		}

		due, err := a.NextDueDate(now)
		if err != nil {
			errs = append(errs, fmt.Errorf("активность %s: %w", a.UUID, err))
			continue
		}
		if a.LastSpawnedDue != nil && calendar.DaysBetween(*a.LastSpawnedDue, due) == 0 {
			continue
		}

		exists, err := s.hasTaskFor(ctx, a.UUID, due)
		if err != nil {
			errs = append(errs, fmt.Errorf("активность %s: %w", a.UUID, err))
			continue
		}
		if exists {
			s.markSpawned(ctx, a, due)
			continue
		}

		if _, err := s.spawn(ctx, a, due, now); err != nil {
			errs = append(errs, fmt.Errorf("активность %s: %w", a.UUID, err))
			continue
		}
		spawned++
	}

	return spawned, errors.Join(errs...)
}

func (s *ComplianceService) hasTaskFor(ctx context.Context, activityID uuid.UUID, due time.Time) (bool, error) {
	existing, err := s.tasks.GetByActivity(ctx, activityID)
	if err != nil {
		return false, fmt.Errorf("получение задач активности: %w", err)
	}
	for _, t := range existing {
		if calendar.DaysBetween(t.DueDate, due) == 0 {
			return true, nil
		}
	}
	return false, nil
}

// SubmitDecision - submitDecision: чтение, переход автомата, сохранение с проверкой версии.
// expectedVersion == 0 - клиент не передал версию, сверяемся с прочитанной.
func (s *ComplianceService) SubmitDecision(ctx context.Context, taskID uuid.UUID, actor string, decision lifecycle.Decision, remark string, expectedVersion int) (*task.Task, error) {
	current, err := s.GetTaskByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if expectedVersion > 0 && expectedVersion != current.Version {
		logger.Info("Service: Устаревшая версия задачи",
			zap.String("task_id", taskID.String()),
			zap.Int("expected_version", expectedVersion),
			zap.Int("current_version", current.Version))
		return nil, NewInvalidState(taskID.String(), "устаревшая версия, перечитайте задачу", repository.ErrVersionConflict)
	}

	next, err := lifecycle.Submit(current, actor, decision, remark, s.clock.Now())
	if err != nil {
		logger.Info("Service: Переход отклонён",
			zap.String("task_id", taskID.String()),
			zap.String("user_id", actor),
			zap.String("decision", string(decision)),
			zap.Error(err))
		return nil, fromLifecycle(taskID.String(), actor, err)
	}
	if err := lifecycle.CheckInvariants(next); err != nil {
		return nil, fmt.Errorf("переход задачи %s: %w", taskID, err)
	}

	if err := s.tasks.Save(ctx, next, current.Version); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, NewInvalidState(taskID.String(), "задачу изменили параллельно, перечитайте задачу", err)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFound(ResourceTask, taskID.String())
		}
		return nil, fmt.Errorf("сохранение задачи: %w", err)
	}

	logger.Info("Service: Решение принято",
		zap.String("task_id", taskID.String()),
		zap.String("user_id", actor),
		zap.String("decision", string(decision)),
		zap.String("status", string(next.CurrentStatus)),
		zap.String("stage", string(next.CurrentStage)),
		zap.Int("version", next.Version))
	return next, nil
}

func (s *ComplianceService) GetTaskByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	t, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.String("target_id", id.String()))
			return nil, NewNotFound(ResourceTask, id.String())
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}
	return t, nil
}

// ListTasks - страница задач; пустой status - любые.
func (s *ComplianceService) ListTasks(ctx context.Context, page, limit int, status task.Status) ([]*task.Task, error) {
	if page < 1 {
		return nil, NewValidationError("page", "должно быть больше 0")
	}
	if limit < 1 {
		return nil, NewValidationError("limit", "должно быть больше 0")
	}

	var tasks []*task.Task
	var err error
	if status == "" {
		tasks, err = s.tasks.GetAllWithLimit(ctx, page, limit)
	} else {
		if !status.Valid() {
			return nil, NewValidationError("status", fmt.Sprintf("неизвестный статус %q", status))
		}
		tasks, err = s.tasks.GetStatusedWithLimit(ctx, page, limit, status)
	}
	if err != nil {
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	return tasks, nil
}

// ListByAssignee - задачи, где user занимает роль stage (StageNone - любую).
// awaitingOnly оставляет только те, что сейчас ждут его решения.
func (s *ComplianceService) ListByAssignee(ctx context.Context, user string, stage task.Stage, awaitingOnly bool) ([]*task.Task, error) {
	if user == "" {
		return nil, NewValidationError("user_id", "не может быть пустым")
	}
	if stage != task.StageNone && !stage.Valid() {
		return nil, NewValidationError("stage", fmt.Sprintf("неизвестная роль %q", stage))
	}

	tasks, err := s.tasks.ListByAssignee(ctx, user, stage)
	if err != nil {
		return nil, fmt.Errorf("получение задач пользователя: %w", err)
	}
	if !awaitingOnly {
		return tasks, nil
	}

	res := make([]*task.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.IsTerminal() || t.Assignee(t.CurrentStage) != user {
			continue
		}
		if stage != task.StageNone && t.CurrentStage != stage {
			continue
		}
		res = append(res, t)
	}
	return res, nil
}

// Classify - classifyCompliance по выборке задач на текущий момент.
func (s *ComplianceService) Classify(ctx context.Context, options ...ClassifyOption) (compliance.Report, error) {
	q := classifyQuery{}
	for _, opt := range options {
		if opt != nil {
			opt(&q)
		}
	}

	tasks, err := s.loadForReport(ctx, q)
	if err != nil {
		return compliance.Report{}, err
	}

	var opts []compliance.Option
	if q.lateAsNonCompliant {
		opts = append(opts, compliance.WithLateCompletionAsNonCompliant())
	}
	return compliance.Classify(tasks, s.clock.Now(), opts...), nil
}

func (s *ComplianceService) loadForReport(ctx context.Context, q classifyQuery) ([]*task.Task, error) {
	var tasks []*task.Task
	var err error

	switch {
	case q.activityID != uuid.Nil:
		tasks, err = s.tasks.GetByActivity(ctx, q.activityID)
	case q.assignee != "":
		tasks, err = s.tasks.ListByAssignee(ctx, q.assignee, task.StageNone)
	default:
		tasks, err = s.allTasks(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("получение задач для отчёта: %w", err)
	}

	if q.activityID != uuid.Nil && q.assignee != "" {
		filtered := tasks[:0:0]
		for _, t := range tasks {
			if t.Assignment.Holds(q.assignee) {
				filtered = append(filtered, t)
			}
		}
		tasks = filtered
	}
	return tasks, nil
}

func (s *ComplianceService) allTasks(ctx context.Context) ([]*task.Task, error) {
	var all []*task.Task
	for page := 1; ; page++ {
		batch, err := s.tasks.GetAllWithLimit(ctx, page, s.pageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < s.pageSize {
			return all, nil
		}
	}
}
