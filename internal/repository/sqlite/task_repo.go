package sqlite

import (
	"complianceTracker/internal/logger"
	"complianceTracker/internal/models/task"
	repo "complianceTracker/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var stageColumns = map[task.Stage]string{
	task.StageMaker:    "maker",
	task.StageChecker:  "checker",
	task.StageReviewer: "reviewer",
	task.StageAuditor:  "auditor",
}

func (s *Storage) Create(ctx context.Context, t *task.Task) error {
	if t.Version == 0 {
		t.Version = 1
	}
	err := s.db.WithContext(ctx).Create(toTaskRow(t)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
			return repo.ErrAlreadyExists
		}
		logger.Error("Repository: Не удалось добавить задачу", err)
		return fmt.Errorf("добавление задачи: %w", err)
	}
	return nil
}

// Save обновляет изменяемые поля задачи, если версия в базе равна expectedVersion.
func (s *Storage) Save(ctx context.Context, t *task.Task, expectedVersion int) error {
	now := time.Now()
	row := toTaskRow(t)
	row.Version = expectedVersion + 1
	row.UpdatedAt = &now

	res := s.db.WithContext(ctx).
		Model(&taskRow{}).
		Where("uuid = ? AND version = ?", row.UUID, expectedVersion).
		Select("current_stage", "current_status", "movements", "reminded_at", "escalated_at", "updated_at", "version").
		Updates(row)
	if res.Error != nil {
		logger.Error("Repository: Не удалось сохранить задачу", res.Error)
		return fmt.Errorf("сохранение задачи: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return s.missOrConflict(ctx, &taskRow{}, row.UUID, expectedVersion)
	}

	t.Version = row.Version
	t.UpdatedAt = &now
	return nil
}

func (s *Storage) missOrConflict(ctx context.Context, model any, id string, expectedVersion int) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(model).Where("uuid = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("проверка записи: %w", err)
	}
	if count == 0 {
		return repo.ErrNotFound
	}
	logger.Warn("Repository: Конфликт версий",
		zap.String("id", id),
		zap.Int("expected_version", expectedVersion))
	return repo.ErrVersionConflict
}

func (s *Storage) GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	var row taskRow
	err := s.db.WithContext(ctx).Where("uuid = ?", id.String()).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repo.ErrNotFound
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}
	return s.fromTaskRow(&row)
}

func (s *Storage) ListByAssignee(ctx context.Context, userID string, stage task.Stage) ([]*task.Task, error) {
	q := s.db.WithContext(ctx)
	if stage == task.StageNone {
		q = q.Where("? IN (maker, checker, reviewer, auditor)", userID)
	} else {
		column, ok := stageColumns[stage]
		if !ok {
			return nil, fmt.Errorf("неизвестная роль %q", stage)
		}
		q = q.Where(column+" = ?", userID)
	}
	return s.findTasks(q.Order("due_date, created_at"))
}

func (s *Storage) GetByActivity(ctx context.Context, activityID uuid.UUID) ([]*task.Task, error) {
	q := s.db.WithContext(ctx).Where("activity_id = ?", activityID.String()).Order("due_date, created_at")
	return s.findTasks(q)
}

func (s *Storage) GetAllWithLimit(ctx context.Context, page, limit int) ([]*task.Task, error) {
	q := s.db.WithContext(ctx).Order("created_at, uuid").Limit(limit).Offset(max((page-1)*limit, 0))
	return s.findTasks(q)
}

func (s *Storage) GetStatusedWithLimit(ctx context.Context, page, limit int, status task.Status) ([]*task.Task, error) {
	q := s.db.WithContext(ctx).
		Where("current_status = ?", string(status)).
		Order("created_at, uuid").
		Limit(limit).
		Offset(max((page-1)*limit, 0))
	return s.findTasks(q)
}

func (s *Storage) GetAwaitingNotice(ctx context.Context, now time.Time, limit int) ([]*task.Task, error) {
	today := toDateString(now.In(s.loc))
	q := s.db.WithContext(ctx).
		Where("current_status = ?", string(task.StatusPending)).
		Where(s.db.Where("reminded_at IS NULL AND reminder_date <= ?", today).
			Or("escalated_at IS NULL AND grace_period_date < ?", today)).
		Order("due_date").
		Limit(limit)
	return s.findTasks(q)
}

func (s *Storage) findTasks(q *gorm.DB) ([]*task.Task, error) {
	var rows []taskRow
	if err := q.Find(&rows).Error; err != nil {
		logger.Error("Repository: Не удалось получить задачи", err)
		return nil, fmt.Errorf("получение задач: %w", err)
	}

	tasks := make([]*task.Task, 0, len(rows))
	for i := range rows {
		t, err := s.fromTaskRow(&rows[i])
		if err != nil {
			return nil, fmt.Errorf("разбор задачи %s: %w", rows[i].UUID, err)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}
