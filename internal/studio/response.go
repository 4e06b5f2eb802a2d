package studio

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"narrate/internal/api"
	"narrate/internal/logging"
	"narrate/internal/services"
)

// statusForKind maps services.Kind codes onto HTTP statuses.
var statusForKind = map[string]int{
	"validation":       http.StatusBadRequest,
	"slide_not_found":  http.StatusNotFound,
	"not_found":        http.StatusNotFound,
	"version_conflict": http.StatusConflict,
	"transcode":        http.StatusUnprocessableEntity,
	"provider":         http.StatusBadGateway,
	"store":            http.StatusBadGateway,
	"configuration":    http.StatusServiceUnavailable,
	"corrupt_manifest": http.StatusInternalServerError,
}

func respondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func respondStatus(c *gin.Context, status int, code, message string) {
	c.JSON(status, api.ErrorEnvelope{Error: api.APIError{
		Message:   message,
		Code:      code,
		RequestID: c.GetString(logging.FieldRequestID),
	}})
}

// respondError classifies err and writes the error envelope.
func respondError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		respondStatus(c, http.StatusRequestEntityTooLarge, "too_large", err.Error())
		return
	}
	code := services.Kind(err)
	status, ok := statusForKind[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, api.ErrorEnvelope{Error: api.APIError{
		Message:   msg,
		Code:      code,
		Retryable: services.Retryable(err),
		RequestID: c.GetString(logging.FieldRequestID),
	}})
}
