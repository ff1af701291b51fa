package handlers

import (
	"complianceTracker/internal/logger"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var validate = newValidator()

// newValidator называет поля в ошибках по json-тегам.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func checkContentType(r *http.Request, target string) bool {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return false
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	return mediaType == target
}

// decodeJSON читает тело запроса в dst и проверяет теги validate.
// При ошибке ответ уже отправлен.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if !checkContentType(r, "application/json") {
		logger.Warn("HTTP: Неверный Content-Type",
			zap.String("content_type", r.Header.Get("Content-Type")),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusUnsupportedMediaType, "ожидается application/json")
		return false
	}

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		logger.Warn("HTTP: Ошибка разбора JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "неверный JSON: "+err.Error())
		return false
	}

	if err := validate.Struct(dst); err != nil {
		violations := describeValidation(err)
		logger.Warn("HTTP: Запрос не прошёл валидацию",
			zap.Strings("violations", violations),
			zap.String("client_ip", r.RemoteAddr))
		responseWithJSON(w, http.StatusBadRequest,
			toPayload("error", "VALIDATION_ERROR"),
			toPayload("message", "неверные данные запроса"),
			toPayload("details", violations),
		)
		return false
	}
	return true
}

func describeValidation(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	res := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		res = append(res, fmt.Sprintf("%s: %s", fe.Field(), rule))
	}
	return res
}
