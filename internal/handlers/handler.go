package handlers

import (
	"complianceTracker/internal/compliance"
	"complianceTracker/internal/logger"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultPage       = 1
	defaultLimit      = 50
	defaultDueDates   = 5
	actingUserHeader  = "X-Acting-User"
	maxRequestBodyLen = 1 << 20
)

type Handler struct {
	Service ComplianceService
	// LateAsNonCompliant - умолчание для отчёта, если параметр не передан
	LateAsNonCompliant bool
}

func NewHandler(svc ComplianceService) Handler {
	return Handler{Service: svc}
}

// Routes регистрирует все маршруты API на r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/health", h.HealthCheck)
	r.Get("/schedule/due-dates", h.GetScheduleDueDates)

	r.Route("/activities", func(r chi.Router) {
		r.Post("/", h.PostActivity)
		r.Get("/", h.GetActivities)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetActivityByID)
			r.Put("/", h.UpdateActivityByID)
			r.Get("/due-dates", h.GetActivityDueDates)
			r.Post("/tasks", h.SpawnTask)
		})
	})

	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", h.GetTasks)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetTaskByID)
			r.Post("/decision", h.PostDecision)
		})
	})

	r.Get("/users/{userID}/tasks", h.GetUserTasks)
	r.Get("/compliance", h.GetCompliance)
}

// bucketOptions - настройки классификатора для корзины в ответах по задачам
func (h *Handler) bucketOptions() []compliance.Option {
	if h.LateAsNonCompliant {
		return []compliance.Option{compliance.WithLateCompletionAsNonCompliant()}
	}
	return nil
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		logger.Warn("HTTP: Неверный формат ID",
			zap.String("id", raw),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "неверный формат ID: "+raw)
		return uuid.Nil, false
	}
	return id, true
}

// queryInt читает целый параметр запроса, пустое значение - def.
func queryInt(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		logger.Warn("HTTP: Ошибка получения параметра",
			zap.String("query", name),
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "неверное значение "+name+": "+raw)
		return 0, false
	}
	return v, true
}

func queryBool(w http.ResponseWriter, r *http.Request, name string, def bool) (bool, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		logger.Warn("HTTP: Ошибка получения параметра",
			zap.String("query", name),
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "неверное значение "+name+": "+raw)
		return false, false
	}
	return v, true
}

func logOut(start time.Time, msg string, status int, fields ...zap.Field) {
	fields = append(fields,
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", status))
	logger.Info("HTTP_OUT: "+msg, fields...)
}
