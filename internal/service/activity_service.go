package service

import (
	"complianceTracker/internal/logger"
	"complianceTracker/internal/models/activity"
	"complianceTracker/internal/recurrence"
	"complianceTracker/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const MaxPreviewCount = 60

// NextDueDates - превью расписания без сохранения активности.
func (s *ComplianceService) NextDueDates(ctx context.Context, freq recurrence.Frequency, dueDay, count int) ([]time.Time, error) {
	if !freq.Valid() {
		return nil, NewValidationError("frequency", fmt.Sprintf("неизвестное значение %q", freq))
	}
	if !freq.IsRecurring() {
		return nil, NewValidationError("frequency", "as_needed не порождает дат")
	}
	if err := recurrence.ValidateDueDay(freq, dueDay); err != nil {
		return nil, NewValidationError("due_day", err.Error())
	}
	if count <= 0 || count > MaxPreviewCount {
		return nil, NewValidationError("count", fmt.Sprintf("должно быть от 1 до %d", MaxPreviewCount))
	}
	return recurrence.NextDueDates(freq, dueDay, s.clock.Now(), count), nil
}

func (s *ComplianceService) CreateActivity(ctx context.Context, a *activity.Activity) (*activity.Activity, error) {
	if a == nil {
		return nil, NewValidationError("activity", "пустое тело")
	}
	if err := validateActivity(a); err != nil {
		return nil, err
	}

	created := a.Clone()
	created.UUID = uuid.New()
	created.CreatedAt = s.clock.Now()
	created.UpdatedAt = nil
	created.LastSpawnedDue = nil
	created.Version = 1

	if err := s.activities.Create(ctx, created); err != nil {
		logger.Error("Service: Не удалось сохранить активность", err, zap.String("name", created.Name))
		return nil, fmt.Errorf("создание активности: %w", err)
	}

	logger.Info("Service: Активность создана",
		zap.String("activity_id", created.UUID.String()),
		zap.String("frequency", string(created.Frequency)),
		zap.Int("due_day", created.DueDay))
	return created, nil
}

// UpdateActivity применяет частичное обновление. expectedVersion == 0 - без сверки.
func (s *ComplianceService) UpdateActivity(ctx context.Context, id uuid.UUID, expectedVersion int, options ...activity.Option) (*activity.Activity, error) {
	current, err := s.getActivity(ctx, id)
	if err != nil {
		return nil, err
	}
	if expectedVersion > 0 && expectedVersion != current.Version {
		return nil, NewBusinessError(CodeInvalidState, "устаревшая версия активности, перечитайте её",
			ToDetail("activity_id", id.String()),
			ToDetail("version", current.Version))
	}

	updated := current.Clone()
	updated.Apply(options...)
	if err := validateActivity(updated); err != nil {
		return nil, err
	}
	now := s.clock.Now()
	updated.UpdatedAt = &now

	if err := s.activities.Update(ctx, updated); err != nil {
		switch {
		case errors.Is(err, repository.ErrVersionConflict):
			return nil, NewBusinessError(CodeInvalidState, "активность изменили параллельно, перечитайте её",
				ToDetail("activity_id", id.String()))
		case errors.Is(err, repository.ErrNotFound):
			return nil, NewNotFound(ResourceActivity, id.String())
		}
		return nil, fmt.Errorf("обновление активности: %w", err)
	}

	logger.Info("Service: Активность обновлена",
		zap.String("activity_id", id.String()),
		zap.Int("version", updated.Version))
	return updated, nil
}

func (s *ComplianceService) GetActivity(ctx context.Context, id uuid.UUID) (*activity.Activity, error) {
	return s.getActivity(ctx, id)
}

func (s *ComplianceService) ListActivities(ctx context.Context, page, limit int) ([]*activity.Activity, error) {
	if page < 1 {
		return nil, NewValidationError("page", "должно быть больше 0")
	}
	if limit < 1 {
		return nil, NewValidationError("limit", "должно быть больше 0")
	}
	activities, err := s.activities.GetAllWithLimit(ctx, page, limit)
	if err != nil {
		return nil, fmt.Errorf("получение активностей: %w", err)
	}
	return activities, nil
}

// PreviewActivity - ближайшие count сроков сохранённой активности.
func (s *ComplianceService) PreviewActivity(ctx context.Context, id uuid.UUID, count int) ([]time.Time, error) {
	if count <= 0 || count > MaxPreviewCount {
		return nil, NewValidationError("count", fmt.Sprintf("должно быть от 1 до %d", MaxPreviewCount))
	}
	a, err := s.getActivity(ctx, id)
	if err != nil {
		return nil, err
	}
	return a.UpcomingDueDates(s.clock.Now(), count), nil
}

func (s *ComplianceService) getActivity(ctx context.Context, id uuid.UUID) (*activity.Activity, error) {
	a, err := s.activities.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Info("Service: Активность не найдена", zap.String("target_id", id.String()))
			return nil, NewNotFound(ResourceActivity, id.String())
		}
		return nil, fmt.Errorf("получение активности: %w", err)
	}
	return a, nil
}

func validateActivity(a *activity.Activity) error {
	err := a.Validate()
	if err == nil {
		return nil
	}
	var verr *activity.ValidationError
	if errors.As(err, &verr) {
		return fromActivityValidation(verr)
	}
	return fmt.Errorf("валидация активности: %w", err)
}
