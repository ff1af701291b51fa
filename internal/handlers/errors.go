package handlers

import (
	"complianceTracker/internal/logger"
	"complianceTracker/internal/service"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// handleBusinessError отвечает клиенту, если err - бизнес-ошибка сервиса.
func handleBusinessError(w http.ResponseWriter, err error) bool {
	var businessErr *service.BusinessError
	if !errors.As(err, &businessErr) {
		return false
	}

	statusCode := mapBusinessErrorToHTTP(businessErr.Code)
	logger.Warn("HTTP: Бизнес-ошибка",
		zap.String("error_code", businessErr.Code),
		zap.String("message", businessErr.Message),
		zap.Int("http_status", statusCode))

	responseWithJSON(w, statusCode,
		toPayload("error", businessErr.Code),
		toPayload("message", businessErr.Message),
		toPayload("details", businessErr.Details),
	)
	return true
}

// respondServiceError - бизнес-ошибка с её кодом, всё остальное 500.
func respondServiceError(w http.ResponseWriter, err error) {
	if handleBusinessError(w, err) {
		return
	}
	logger.Error("HTTP: Ошибка Service", err)
	responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервиса")
}

func mapBusinessErrorToHTTP(code string) int {
	switch code {
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeValidation:
		return http.StatusBadRequest
	case service.CodeUnauthorized:
		return http.StatusForbidden
	case service.CodeInvalidState:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}
