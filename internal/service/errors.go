package service

import (
	"complianceTracker/internal/lifecycle"
	"complianceTracker/internal/models/activity"
	"complianceTracker/internal/repository"
	"errors"
	"fmt"
)

const (
	CodeNotFound     = "NOT_FOUND"
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeInvalidState = "INVALID_STATE"
)

type Resource string

const ResourceTask Resource = "задача"
const ResourceActivity Resource = "активность"

type BusinessError struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

type Detail struct {
	Key     string
	Payload any
}

func (b *BusinessError) Error() string {
	if b.Err != nil {
		return fmt.Sprintf("[%s] %s: %s", b.Code, b.Message, b.Err.Error())
	}
	return fmt.Sprintf("[%s] %s", b.Code, b.Message)
}

func (b *BusinessError) Unwrap() error {
	return b.Err
}

func ToDetail(key string, payload any) Detail {
	return Detail{
		Key:     key,
		Payload: payload,
	}
}

func NewBusinessError(code string, message string, details ...Detail) *BusinessError {
	busErr := &BusinessError{
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}
	for _, detail := range details {
		busErr.Details[detail.Key] = detail.Payload
	}
	return busErr
}

func NewNotFound(resource Resource, id string) *BusinessError {
	return &BusinessError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s %s не найден(а)", resource, id),
		Details: map[string]any{
			"resource": string(resource),
			"id":       id,
		},
		Err: repository.ErrNotFound,
	}
}

func NewValidationError(field, reason string) *BusinessError {
	return &BusinessError{
		Code:    CodeValidation,
		Message: fmt.Sprintf("Неверное значение поля '%s': %s", field, reason),
		Details: map[string]any{
			"field":  field,
			"reason": reason,
		},
	}
}

func NewUnauthorized(taskID, user string, err error) *BusinessError {
	return &BusinessError{
		Code:    CodeUnauthorized,
		Message: fmt.Sprintf("пользователь %s не может действовать по задаче %s", user, taskID),
		Details: map[string]any{
			"task_id": taskID,
			"user_id": user,
		},
		Err: err,
	}
}

func NewInvalidState(taskID, reason string, err error) *BusinessError {
	return &BusinessError{
		Code:    CodeInvalidState,
		Message: fmt.Sprintf("задача %s: %s", taskID, reason),
		Details: map[string]any{
			"task_id": taskID,
			"reason":  reason,
		},
		Err: err,
	}
}

// fromActivityValidation переносит все нарушения в details.
func fromActivityValidation(verr *activity.ValidationError) *BusinessError {
	busErr := NewBusinessError(CodeValidation, "неверная конфигурация активности",
		ToDetail("violations", verr.Violations))
	busErr.Err = verr
	return busErr
}

// fromLifecycle переводит ошибки автомата в бизнес-ошибки.
func fromLifecycle(taskID, user string, err error) error {
	switch {
	case errors.Is(err, lifecycle.ErrUnauthorized):
		return NewUnauthorized(taskID, user, err)
	case errors.Is(err, lifecycle.ErrInvalidDecision):
		busErr := NewValidationError("decision", err.Error())
		busErr.Err = err
		return busErr
	case errors.Is(err, lifecycle.ErrInvalidState):
		return NewInvalidState(taskID, "переход невозможен", err)
	}
	return fmt.Errorf("переход задачи %s: %w", taskID, err)
}

func IsCode(err error, code string) bool {
	var busErr *BusinessError
	return errors.As(err, &busErr) && busErr.Code == code
}
