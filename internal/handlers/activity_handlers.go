package handlers

import (
	"complianceTracker/internal/handlers/dto"
	"complianceTracker/internal/logger"
	"net/http"
	"time"

	"go.uber.org/zap"
)

func (h *Handler) PostActivity(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyLen)
	var req dto.CreateActivityRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	a, err := req.ToActivity(h.Service.Now().Location())
	if err != nil {
		logger.Warn("HTTP: Неверные данные активности",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	logger.Info("HTTP: Вызов сервиса для создания активности", zap.String("name", a.Name))

	created, err := h.Service.CreateActivity(r.Context(), a)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	logOut(start, "Активность создана", http.StatusCreated,
		zap.String("activity_id", created.UUID.String()))
	responseWithJSON(w, http.StatusCreated, toPayload("activity", dto.FromActivity(created)))
}

func (h *Handler) GetActivities(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	page, ok := queryInt(w, r, "page", defaultPage)
	if !ok {
		return
	}
	limit, ok := queryInt(w, r, "limit", defaultLimit)
	if !ok {
		return
	}

	activities, err := h.Service.ListActivities(r.Context(), page, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	logOut(start, "Активности получены", http.StatusOK, zap.Int("count", len(activities)))
	responseWithJSON(w, http.StatusOK,
		toPayload("activities", dto.FromActivityList(activities)),
		toPayload("page", page),
		toPayload("limit", limit))
}

func (h *Handler) GetActivityByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := parseID(w, r)
	if !ok {
		return
	}

	a, err := h.Service.GetActivity(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	logOut(start, "Активность получена", http.StatusOK, zap.String("activity_id", id.String()))
	responseWithJSON(w, http.StatusOK, toPayload("activity", dto.FromActivity(a)))
}

func (h *Handler) UpdateActivityByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := parseID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyLen)
	var req dto.UpdateActivityRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	options, err := req.Options(h.Service.Now().Location())
	if err != nil {
		logger.Warn("HTTP: Неверные данные активности",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.Service.UpdateActivity(r.Context(), id, req.Version, options...)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	logOut(start, "Активность обновлена", http.StatusOK,
		zap.String("activity_id", id.String()),
		zap.Int("version", updated.Version))
	responseWithJSON(w, http.StatusOK, toPayload("activity", dto.FromActivity(updated)))
}

// GetActivityDueDates - ближайшие сроки сохранённой активности.
func (h *Handler) GetActivityDueDates(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := parseID(w, r)
	if !ok {
		return
	}
	count, ok := queryInt(w, r, "count", defaultDueDates)
	if !ok {
		return
	}

	dates, err := h.Service.PreviewActivity(r.Context(), id, count)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	formatted := make([]string, len(dates))
	for i, d := range dates {
		formatted[i] = dto.FormatDate(d)
	}

	logOut(start, "Сроки активности рассчитаны", http.StatusOK, zap.Int("count", len(dates)))
	responseWithJSON(w, http.StatusOK,
		toPayload("activity_id", id),
		toPayload("dates", formatted))
}

func (h *Handler) SpawnTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := parseID(w, r)
	if !ok {
		return
	}

	t, err := h.Service.SpawnTask(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	logOut(start, "Задача создана", http.StatusCreated,
		zap.String("activity_id", id.String()),
		zap.String("task_id", t.UUID.String()))
	responseWithJSON(w, http.StatusCreated, toPayload("task", dto.FromTask(t, h.Service.Now(), h.bucketOptions()...)))
}
