package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Spok95/kitchen-quotes/internal/domain/access"
	"github.com/Spok95/kitchen-quotes/internal/domain/quotes"
	"github.com/Spok95/kitchen-quotes/internal/validation"
	"github.com/gin-gonic/gin"
)

type errorBody struct {
	Error     string                  `json:"error"`
	Code      string                  `json:"code"`
	Errors    []validation.FieldError `json:"errors,omitempty"`
	RequestID string                  `json:"requestId,omitempty"`
}

// statusOf: validation 400, forbidden 403, not found 404, conflict 409, остальное 500.
func statusOf(err error) (int, string) {
	if _, ok := validation.As(err); ok {
		return http.StatusBadRequest, "validation_failed"
	}
	switch {
	case errors.Is(err, access.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, quotes.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, quotes.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, quotes.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, quotes.ErrAlreadyRecorded):
		return http.StatusConflict, "already_recorded"
	}
	return http.StatusInternalServerError, "internal"
}

func respondError(c *gin.Context, log *slog.Logger, err error) {
	status, code := statusOf(err)
	body := errorBody{Error: err.Error(), Code: code, RequestID: c.GetString(ctxRequestID)}
	if ve, ok := validation.As(err); ok {
		body.Error = "validation failed"
		body.Errors = ve.Errors
	}
	if status == http.StatusInternalServerError {
		log.Error("request failed", "path", c.FullPath(), "request_id", body.RequestID, "err", err)
		body.Error = "internal error"
	}
	c.AbortWithStatusJSON(status, body)
}
