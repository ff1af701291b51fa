package handlers

import (
	"complianceTracker/internal/handlers/dto"
	"complianceTracker/internal/logger"
	"complianceTracker/internal/models/task"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func (h *Handler) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := parseID(w, r)
	if !ok {
		return
	}

	t, err := h.Service.GetTaskByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	logOut(start, "Задача получена", http.StatusOK, zap.String("task_id", id.String()))
	responseWithJSON(w, http.StatusOK, toPayload("task", dto.FromTask(t, h.Service.Now(), h.bucketOptions()...)))
}

// GetTasks - страница задач, status= фильтрует по статусу.
func (h *Handler) GetTasks(w http.ResponseWriter, r *http.Request) {
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
	status := task.Status(strings.ToLower(r.URL.Query().Get("status")))
	if status != "" && !status.Valid() {
		logger.Warn("HTTP: Неизвестный статус",
			zap.String("status", string(status)),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "неизвестный статус: "+string(status))
		return
	}

	tasks, err := h.Service.ListTasks(r.Context(), page, limit, status)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	logOut(start, "Задачи получены", http.StatusOK,
		zap.String("status", string(status)),
		zap.Int("count", len(tasks)))
	responseWithJSON(w, http.StatusOK,
		toPayload("tasks", dto.FromTaskList(tasks, h.Service.Now(), h.bucketOptions()...)),
		toPayload("page", page),
		toPayload("limit", limit))
}

// PostDecision - решение текущей роли. Пользователь берётся из заголовка
// X-Acting-User, иначе из поля user_id.
func (h *Handler) PostDecision(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := parseID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyLen)
	var req dto.DecisionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	actor := strings.TrimSpace(r.Header.Get(actingUserHeader))
	if actor == "" {
		actor = strings.TrimSpace(req.UserID)
	}
	if actor == "" {
		logger.Warn("HTTP: Не указан пользователь",
			zap.String("task_id", id.String()),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "укажите пользователя в "+actingUserHeader+" или user_id")
		return
	}

	decision, err := req.ToDecision()
	if err != nil {
		responseWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	logger.Info("HTTP: Вызов сервиса для решения по задаче",
		zap.String("task_id", id.String()),
		zap.String("actor", actor),
		zap.String("decision", string(decision)))

	t, err := h.Service.SubmitDecision(r.Context(), id, actor, decision, req.Remark, req.Version)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	logOut(start, "Решение принято", http.StatusOK,
		zap.String("task_id", id.String()),
		zap.String("status", string(t.CurrentStatus)))
	responseWithJSON(w, http.StatusOK, toPayload("task", dto.FromTask(t, h.Service.Now(), h.bucketOptions()...)))
}

// GetUserTasks - задачи пользователя; awaiting=true оставляет ждущие его решения.
func (h *Handler) GetUserTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	user := chi.URLParam(r, "userID")

	stage := task.StageNone
	if raw := r.URL.Query().Get("stage"); raw != "" {
		parsed, valid := task.ParseStage(strings.ToLower(raw))
		if !valid {
			logger.Warn("HTTP: Неизвестная роль",
				zap.String("stage", raw),
				zap.String("client_ip", r.RemoteAddr))
			responseWithError(w, http.StatusBadRequest, "неизвестная роль: "+raw)
			return
		}
		stage = parsed
	}
	awaiting, ok := queryBool(w, r, "awaiting", false)
	if !ok {
		return
	}

	tasks, err := h.Service.ListByAssignee(r.Context(), user, stage, awaiting)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	logOut(start, "Задачи пользователя получены", http.StatusOK,
		zap.String("user_id", user),
		zap.Int("count", len(tasks)))
	responseWithJSON(w, http.StatusOK, toPayload("tasks", dto.FromTaskList(tasks, h.Service.Now(), h.bucketOptions()...)))
}
