package handlers

import (
	"complianceTracker/internal/handlers/dto"
	"complianceTracker/internal/logger"
	"complianceTracker/internal/recurrence"
	"complianceTracker/internal/service"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if err := h.Service.HealthCheck(r.Context()); err != nil {
		logger.Error("HTTP: Сервис недоступен", err)
		responseWithJSON(w, http.StatusServiceUnavailable,
			toPayload("status", "unavailable"),
			toPayload("error", err.Error()))
		return
	}

	logOut(start, "Проверка здоровья", http.StatusOK)
	responseWithJSON(w, http.StatusOK, toPayload("status", "ok"))
}

// GetScheduleDueDates - превью расписания без сохранённой активности.
func (h *Handler) GetScheduleDueDates(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	freq, err := recurrence.ParseFrequency(r.URL.Query().Get("frequency"))
	if err != nil {
		logger.Warn("HTTP: Неверная периодичность",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	dueDay, ok := queryInt(w, r, "due_day", 0)
	if !ok {
		return
	}
	count, ok := queryInt(w, r, "count", defaultDueDates)
	if !ok {
		return
	}

	dates, err := h.Service.NextDueDates(r.Context(), freq, dueDay, count)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	logOut(start, "Даты рассчитаны", http.StatusOK, zap.Int("count", len(dates)))
	responseWithJSON(w, http.StatusOK, toPayload("schedule", dto.FromDueDates(freq, dueDay, dates)))
}

func (h *Handler) GetCompliance(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	query := r.URL.Query()
	var options []service.ClassifyOption

	if raw := query.Get("activity_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			logger.Warn("HTTP: Неверный формат ID",
				zap.String("activity_id", raw),
				zap.String("client_ip", r.RemoteAddr))
			responseWithError(w, http.StatusBadRequest, "неверный формат activity_id: "+raw)
			return
		}
		options = append(options, service.ForActivity(id))
	}
	if assignee := query.Get("assignee"); assignee != "" {
		options = append(options, service.ForAssignee(assignee))
	}
	late, ok := queryBool(w, r, "late_as_non_compliant", h.LateAsNonCompliant)
	if !ok {
		return
	}
	options = append(options, service.LateAsNonCompliant(late))

	report, err := h.Service.Classify(r.Context(), options...)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	logOut(start, "Отчёт о соответствии построен", http.StatusOK,
		zap.Int("total", report.Counts.Total))
	responseWithJSON(w, http.StatusOK, toPayload("report", dto.FromReport(report)))
}
