package postgres

import (
	"complianceTracker/internal/logger"
	"complianceTracker/internal/models/activity"
	repo "complianceTracker/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

const activityColumns = `uuid,
				name,
				description,
				frequency,
				due_day,
				due_date,
				grace_period_days,
				reminder_days,
				maker,
				checker,
				reviewer,
				auditor,
				active,
				last_spawned_due,
				created_at,
				updated_at,
				version`

// ActivityStorage - те же соединения, что у Storage, но с контрактом хранилища активностей.
type ActivityStorage struct {
	*Storage
}

func (s *Storage) Activities() *ActivityStorage {
	return &ActivityStorage{Storage: s}
}

func (s *ActivityStorage) Create(ctx context.Context, a *activity.Activity) error {
	start := time.Now()
	if a.Version == 0 {
		a.Version = 1
	}

	query := `INSERT INTO activities
				(uuid, name, description, frequency, due_day, due_date,
				 grace_period_days, reminder_days, maker, checker, reviewer, auditor,
				 active, last_spawned_due, created_at, version)
				VALUES ($1, $2, $3, $4, $5, $6::date, $7, $8, $9, $10, $11, $12, $13, $14::date, $15, $16)`

	_, err := s.pool.Exec(ctx, query,
		a.UUID,
		a.Name,
		a.Description,
		a.Frequency,
		a.DueDay,
		nullableDateArg(a.DueDate),
		a.GracePeriodDays,
		a.ReminderDays,
		a.Assignment.Maker,
		a.Assignment.Checker,
		a.Assignment.Reviewer,
		a.Assignment.Auditor,
		a.Active,
		nullableDateArg(a.LastSpawnedDue),
		a.CreatedAt,
		a.Version,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return repo.ErrAlreadyExists
		}
		logger.Error("Repository: Не удалось добавить активность", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление активности: %w", err)
	}

	s.warnIfSlow("create_activity", start, slowQuery/2)
	return nil
}

func (s *ActivityStorage) Update(ctx context.Context, a *activity.Activity) error {
	start := time.Now()

	query := `UPDATE activities
			SET name = $1,
				description = $2,
				frequency = $3,
				due_day = $4,
				due_date = $5::date,
				grace_period_days = $6,
				reminder_days = $7,
				maker = $8,
				checker = $9,
				reviewer = $10,
				auditor = $11,
				active = $12,
				last_spawned_due = $13::date,
				version = version + 1,
				updated_at = NOW()
			WHERE uuid = $14 AND version = $15
			RETURNING updated_at, version`

	expected := a.Version
	err := s.pool.QueryRow(ctx, query,
		a.Name,
		a.Description,
		a.Frequency,
		a.DueDay,
		nullableDateArg(a.DueDate),
		a.GracePeriodDays,
		a.ReminderDays,
		a.Assignment.Maker,
		a.Assignment.Checker,
		a.Assignment.Reviewer,
		a.Assignment.Auditor,
		a.Active,
		nullableDateArg(a.LastSpawnedDue),
		a.UUID,
		expected,
	).Scan(&a.UpdatedAt, &a.Version)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s.missOrConflict(ctx, "activities", a.UUID, expected)
		}
		logger.Error("Repository: Не удалось обновить активность", err)
		return fmt.Errorf("обновление активности: %w", err)
	}

	s.warnIfSlow("update_activity", start, slowQuery)
	return nil
}

func (s *ActivityStorage) GetByID(ctx context.Context, id uuid.UUID) (*activity.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE uuid = $1`

	a, err := s.scanActivity(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить активность", err)
		return nil, fmt.Errorf("получение активности: %w", err)
	}
	return a, nil
}

func (s *ActivityStorage) GetAllWithLimit(ctx context.Context, page, limit int) ([]*activity.Activity, error) {
	offset := max((page-1)*limit, 0)
	query := `SELECT ` + activityColumns + ` FROM activities ORDER BY created_at, uuid LIMIT $1 OFFSET $2`
	return s.queryActivities(ctx, query, limit, offset)
}

func (s *ActivityStorage) GetActive(ctx context.Context) ([]*activity.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE active ORDER BY created_at, uuid`
	return s.queryActivities(ctx, query)
}

func (s *ActivityStorage) queryActivities(ctx context.Context, query string, args ...any) ([]*activity.Activity, error) {
	start := time.Now()

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить активности", err)
		return nil, fmt.Errorf("получение активностей: %w", err)
	}
	defer rows.Close()

	res := []*activity.Activity{}
	for rows.Next() {
		a, err := s.scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("сканирование активности: %w", err)
		}
		res = append(res, a)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	s.warnIfSlow("query_activities", start, slowQuery)
	return res, nil
}

func (s *ActivityStorage) scanActivity(row pgx.Row) (*activity.Activity, error) {
	a := &activity.Activity{}
	err := row.Scan(
		&a.UUID,
		&a.Name,
		&a.Description,
		&a.Frequency,
		&a.DueDay,
		&a.DueDate,
		&a.GracePeriodDays,
		&a.ReminderDays,
		&a.Assignment.Maker,
		&a.Assignment.Checker,
		&a.Assignment.Reviewer,
		&a.Assignment.Auditor,
		&a.Active,
		&a.LastSpawnedDue,
		&a.CreatedAt,
		&a.UpdatedAt,
		&a.Version,
	)
	if err != nil {
		return nil, err
	}
	a.DueDate = s.fromNullableDate(a.DueDate)
	a.LastSpawnedDue = s.fromNullableDate(a.LastSpawnedDue)
	return a, nil
}
