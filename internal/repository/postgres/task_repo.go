package postgres

import (
	"complianceTracker/internal/logger"
	"complianceTracker/internal/models/task"
	repo "complianceTracker/internal/repository"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

const taskColumns = `uuid,
				activity_id,
				title,
				due_date,
				grace_period_date,
				reminder_date,
				maker,
				checker,
				reviewer,
				auditor,
				current_stage,
				current_status,
				movements,
				reminded_at,
				escalated_at,
				created_at,
				updated_at,
				version`

// колонки ролей; имя колонки никогда не берётся из запроса напрямую
var stageColumns = map[task.Stage]string{
	task.StageMaker:    "maker",
	task.StageChecker:  "checker",
	task.StageReviewer: "reviewer",
	task.StageAuditor:  "auditor",
}

func (s *Storage) Create(ctx context.Context, taskToCreate *task.Task) error {
	start := time.Now()

	movements, err := json.Marshal(taskToCreate.Movements)
	if err != nil {
		return fmt.Errorf("сериализация движений: %w", err)
	}
	if taskToCreate.Version == 0 {
		taskToCreate.Version = 1
	}

	query := `INSERT INTO tasks
				(uuid, activity_id, title, due_date, grace_period_date, reminder_date,
				 maker, checker, reviewer, auditor, current_stage, current_status,
				 movements, reminded_at, escalated_at, created_at, version)
				VALUES ($1, $2, $3, $4::date, $5::date, $6::date,
				 $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	_, err = s.pool.Exec(ctx, query,
		taskToCreate.UUID,
		taskToCreate.ActivityID,
		taskToCreate.Title,
		dateArg(taskToCreate.DueDate),
		dateArg(taskToCreate.GracePeriodDate),
		dateArg(taskToCreate.ReminderDate),
		taskToCreate.Assignment.Maker,
		taskToCreate.Assignment.Checker,
		taskToCreate.Assignment.Reviewer,
		taskToCreate.Assignment.Auditor,
		taskToCreate.CurrentStage,
		taskToCreate.CurrentStatus,
		movements,
		taskToCreate.RemindedAt,
		taskToCreate.EscalatedAt,
		taskToCreate.CreatedAt,
		taskToCreate.Version,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return repo.ErrAlreadyExists
		}
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление задачи: %w", err)
	}

	s.warnIfSlow("create_task", start, slowQuery/2)
	return nil
}

// Save перезаписывает изменяемые поля задачи при совпадении версии.
func (s *Storage) Save(ctx context.Context, taskToSave *task.Task, expectedVersion int) error {
	start := time.Now()

	movements, err := json.Marshal(taskToSave.Movements)
	if err != nil {
		return fmt.Errorf("сериализация движений: %w", err)
	}

	query := `UPDATE tasks
			SET current_stage = $1,
				current_status = $2,
				movements = $3,
				reminded_at = $4,
				escalated_at = $5,
				version = version + 1,
				updated_at = NOW()
			WHERE uuid = $6 AND version = $7
			RETURNING updated_at, version`

	err = s.pool.QueryRow(ctx, query,
		taskToSave.CurrentStage,
		taskToSave.CurrentStatus,
		movements,
		taskToSave.RemindedAt,
		taskToSave.EscalatedAt,
		taskToSave.UUID,
		expectedVersion,
	).Scan(&taskToSave.UpdatedAt, &taskToSave.Version)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s.missOrConflict(ctx, "tasks", taskToSave.UUID, expectedVersion)
		}
		logger.Error("Repository: Не удалось сохранить задачу", err)
		return fmt.Errorf("сохранение задачи: %w", err)
	}

	s.warnIfSlow("save_task", start, slowQuery)
	return nil
}

// missOrConflict различает отсутствующую запись и устаревшую версию после пустого UPDATE.
func (s *Storage) missOrConflict(ctx context.Context, table string, id uuid.UUID, expectedVersion int) error {
	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE uuid = $1)`, table)
	if err := s.pool.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return fmt.Errorf("проверка записи: %w", err)
	}
	if !exists {
		return repo.ErrNotFound
	}
	logger.Warn("Repository: Конфликт версий",
		zap.String("table", table),
		zap.String("id", id.String()),
		zap.Int("expected_version", expectedVersion))
	return repo.ErrVersionConflict
}

func (s *Storage) GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	start := time.Now()

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE uuid = $1`

	t, err := s.scanTask(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	s.warnIfSlow("get_task", start, slowQuery)
	return t, nil
}

func (s *Storage) ListByAssignee(ctx context.Context, userID string, stage task.Stage) ([]*task.Task, error) {
	where := `$1 IN (maker, checker, reviewer, auditor)`
	if stage != task.StageNone {
		column, ok := stageColumns[stage]
		if !ok {
			return nil, fmt.Errorf("неизвестная роль %q", stage)
		}
		where = column + ` = $1`
	}

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE ` + where + ` ORDER BY due_date, created_at`
	return s.queryTasks(ctx, "list_by_assignee", query, userID)
}

func (s *Storage) GetByActivity(ctx context.Context, activityID uuid.UUID) ([]*task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE activity_id = $1 ORDER BY due_date, created_at`
	return s.queryTasks(ctx, "get_by_activity", query, activityID)
}

func (s *Storage) GetAllWithLimit(ctx context.Context, page, limit int) ([]*task.Task, error) {
	offset := max((page-1)*limit, 0)
	query := `SELECT ` + taskColumns + ` FROM tasks ORDER BY created_at, uuid LIMIT $1 OFFSET $2`
	return s.queryTasks(ctx, "get_all", query, limit, offset)
}

// получение задач с определённым статусом
func (s *Storage) GetStatusedWithLimit(ctx context.Context, page, limit int, status task.Status) ([]*task.Task, error) {
	offset := max((page-1)*limit, 0)
	query := `SELECT ` + taskColumns + ` FROM tasks
				WHERE current_status = $1
				ORDER BY created_at, uuid
				LIMIT $2 OFFSET $3`
	return s.queryTasks(ctx, "get_statused", query, status, limit, offset)
}

func (s *Storage) GetAwaitingNotice(ctx context.Context, now time.Time, limit int) ([]*task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
				WHERE current_status = $1
				  AND ((reminded_at IS NULL AND reminder_date <= $2::date)
				    OR (escalated_at IS NULL AND grace_period_date < $2::date))
				ORDER BY due_date
				LIMIT $3`
	return s.queryTasks(ctx, "get_awaiting_notice", query, task.StatusPending, dateArg(now.In(s.loc)), limit)
}

func (s *Storage) queryTasks(ctx context.Context, op, query string, args ...any) ([]*task.Task, error) {
	start := time.Now()

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.String("op", op), zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	defer rows.Close()

	tasks := []*task.Task{}
	for rows.Next() {
		t, err := s.scanTask(rows)
		if err != nil {
			logger.Error("Repository: Ошибка сканирования задачи", err, zap.String("op", op))
			return nil, fmt.Errorf("сканирование задачи: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	s.warnIfSlow(op, start, slowQuery/2+time.Millisecond*time.Duration(len(tasks)))
	return tasks, nil
}

func (s *Storage) scanTask(row pgx.Row) (*task.Task, error) {
	t := &task.Task{}
	var movements []byte

	err := row.Scan(
		&t.UUID,
		&t.ActivityID,
		&t.Title,
		&t.DueDate,
		&t.GracePeriodDate,
		&t.ReminderDate,
		&t.Assignment.Maker,
		&t.Assignment.Checker,
		&t.Assignment.Reviewer,
		&t.Assignment.Auditor,
		&t.CurrentStage,
		&t.CurrentStatus,
		&movements,
		&t.RemindedAt,
		&t.EscalatedAt,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.Version,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(movements, &t.Movements); err != nil {
		return nil, fmt.Errorf("разбор движений задачи %s: %w", t.UUID, err)
	}
	t.DueDate = s.fromDate(t.DueDate)
	t.GracePeriodDate = s.fromDate(t.GracePeriodDate)
	t.ReminderDate = s.fromDate(t.ReminderDate)
	return t, nil
}
