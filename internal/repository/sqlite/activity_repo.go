package sqlite

import (
	"complianceTracker/internal/logger"
	"complianceTracker/internal/models/activity"
	repo "complianceTracker/internal/repository"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ActivityStorage struct {
	*Storage
}

func (s *Storage) Activities() *ActivityStorage {
	return &ActivityStorage{Storage: s}
}

func (s *ActivityStorage) Create(ctx context.Context, a *activity.Activity) error {
	if a.Version == 0 {
		a.Version = 1
	}
	err := s.db.WithContext(ctx).Create(toActivityRow(a)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
			return repo.ErrAlreadyExists
		}
		logger.Error("Repository: Не удалось добавить активность", err)
		return fmt.Errorf("добавление активности: %w", err)
	}
	return nil
}

func (s *ActivityStorage) Update(ctx context.Context, a *activity.Activity) error {
	row := toActivityRow(a)
	expected := a.Version
	row.Version = expected + 1
	if row.UpdatedAt == nil {
		now := time.Now()
		row.UpdatedAt = &now
	}

	// Select("*") пишет и нулевые значения (active = false)
	res := s.db.WithContext(ctx).
		Model(&activityRow{}).
		Where("uuid = ? AND version = ?", row.UUID, expected).
		Select("*").
		Omit("uuid", "created_at").
		Updates(row)
	if res.Error != nil {
		logger.Error("Repository: Не удалось обновить активность", res.Error)
		return fmt.Errorf("обновление активности: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return s.missOrConflict(ctx, &activityRow{}, row.UUID, expected)
	}

	a.Version = row.Version
	a.UpdatedAt = row.UpdatedAt
	return nil
}

func (s *ActivityStorage) GetByID(ctx context.Context, id uuid.UUID) (*activity.Activity, error) {
	var row activityRow
	err := s.db.WithContext(ctx).Where("uuid = ?", id.String()).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repo.ErrNotFound
		}
		return nil, fmt.Errorf("получение активности: %w", err)
	}
	return s.fromActivityRow(&row)
}

func (s *ActivityStorage) GetAllWithLimit(ctx context.Context, page, limit int) ([]*activity.Activity, error) {
	q := s.db.WithContext(ctx).Order("created_at, uuid").Limit(limit).Offset(max((page-1)*limit, 0))
	return s.findActivities(q)
}

func (s *ActivityStorage) GetActive(ctx context.Context) ([]*activity.Activity, error) {
	return s.findActivities(s.db.WithContext(ctx).Where("active = ?", true).Order("created_at, uuid"))
}

func (s *ActivityStorage) findActivities(q *gorm.DB) ([]*activity.Activity, error) {
	var rows []activityRow
	if err := q.Find(&rows).Error; err != nil {
		logger.Error("Repository: Не удалось получить активности", err)
		return nil, fmt.Errorf("получение активностей: %w", err)
	}
	res := make([]*activity.Activity, 0, len(rows))
	for i := range rows {
		a, err := s.fromActivityRow(&rows[i])
		if err != nil {
			return nil, fmt.Errorf("разбор активности %s: %w", rows[i].UUID, err)
		}
		res = append(res, a)
	}
	return res, nil
}

// драйвер sqlite без TranslateError возвращает текст ошибки ограничения
func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
