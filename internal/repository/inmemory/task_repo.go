package inmemory

import (
	"complianceTracker/internal/calendar"
	"complianceTracker/internal/logger"
	"complianceTracker/internal/models/task"
	repo "complianceTracker/internal/repository"
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TaskStorage хранит копии задач: снаружи нельзя изменить запись в обход Save.
type TaskStorage struct {
	storage map[uuid.UUID]*task.Task
	mtx     *sync.RWMutex
	ids     []uuid.UUID
}

func NewTaskStorage() *TaskStorage {
	return &TaskStorage{
		storage: make(map[uuid.UUID]*task.Task),
		mtx:     &sync.RWMutex{},
		ids:     []uuid.UUID{},
	}
}

func (s *TaskStorage) HealthCheck(ctx context.Context) error {
	logger.Info("Repository: Соединение стабильно")
	return nil
}

func (s *TaskStorage) Create(ctx context.Context, taskToCreate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[taskToCreate.UUID]; ok {
		return repo.ErrAlreadyExists
	}
	if taskToCreate.CreatedAt.IsZero() {
		taskToCreate.CreatedAt = time.Now()
	}
	if taskToCreate.Version == 0 {
		taskToCreate.Version = 1
	}

	s.storage[taskToCreate.UUID] = taskToCreate.Clone()
	s.ids = append(s.ids, taskToCreate.UUID)
	return nil
}

// Save заменяет запись целиком, если её версия всё ещё expectedVersion.
func (s *TaskStorage) Save(ctx context.Context, taskToSave *task.Task, expectedVersion int) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existed, ok := s.storage[taskToSave.UUID]
	if !ok {
		return repo.ErrNotFound
	}
	if existed.Version != expectedVersion {
		logger.Warn("Repository: Конфликт версий при сохранении задачи",
			zap.String("task_id", taskToSave.UUID.String()),
			zap.Int("expected_version", expectedVersion),
			zap.Int("stored_version", existed.Version))
		return repo.ErrVersionConflict
	}

	now := time.Now()
	taskToSave.UpdatedAt = &now
	taskToSave.Version = expectedVersion + 1
	s.storage[taskToSave.UUID] = taskToSave.Clone()
	return nil
}

func (s *TaskStorage) GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	taskToGet, ok := s.storage[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return taskToGet.Clone(), nil
}

func (s *TaskStorage) ListByAssignee(ctx context.Context, userID string, stage task.Stage) ([]*task.Task, error) {
	return s.filter(0, 0, func(t *task.Task) bool {
		if stage == task.StageNone {
			return t.Assignment.Holds(userID)
		}
		return t.Assignment.Get(stage) == userID
	}), nil
}

func (s *TaskStorage) GetByActivity(ctx context.Context, activityID uuid.UUID) ([]*task.Task, error) {
	return s.filter(0, 0, func(t *task.Task) bool {
		return t.ActivityID == activityID
	}), nil
}

func (s *TaskStorage) GetAllWithLimit(ctx context.Context, page, limit int) ([]*task.Task, error) {
	return s.filter((page-1)*limit, limit, func(*task.Task) bool { return true }), nil
}

// получение задач с определённым статусом
func (s *TaskStorage) GetStatusedWithLimit(ctx context.Context, page, limit int, status task.Status) ([]*task.Task, error) {
	return s.filter((page-1)*limit, limit, func(t *task.Task) bool {
		return t.CurrentStatus == status
	}), nil
}

func (s *TaskStorage) GetAwaitingNotice(ctx context.Context, now time.Time, limit int) ([]*task.Task, error) {
	return s.filter(0, limit, func(t *task.Task) bool {
		if t.CurrentStatus != task.StatusPending {
			return false
		}
		remind := t.RemindedAt == nil && calendar.OnOrBefore(t.ReminderDate, now)
		escalate := t.EscalatedAt == nil && calendar.After(now, t.GracePeriodDate)
		return remind || escalate
	}), nil
}

// filter обходит задачи в порядке создания, пропуская offset подходящих.
// limit == 0 - без ограничения.
func (s *TaskStorage) filter(offset, limit int, match func(*task.Task) bool) []*task.Task {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*task.Task{}
	offset = max(offset, 0)
	skipped := 0
	for _, id := range s.ids {
		if limit > 0 && len(res) >= limit {
			break
		}
		t := s.storage[id]
		if !match(t) {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		res = append(res, t.Clone())
	}
	return res
}
