package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"scoreservice.app/review/internal/backlog"
	"scoreservice.app/review/internal/http/dto"
	"scoreservice.app/review/internal/review"
	"scoreservice.app/review/internal/service"
)

const invalidBodyMessage = "request body must be a valid JSON object"

// statusFor maps a service error to the HTTP status it is reported with.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, backlog.ErrInvalidIdentifier):
		return http.StatusBadRequest
	case review.IsInvalidResult(err):
		return http.StatusUnprocessableEntity
	case backlog.IsUpstream(err),
		errors.Is(err, service.ErrModelRequest):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as {"error": message}. Caller and upstream
// failures carry their message; anything else is logged and hidden.
func respondError(c *gin.Context, err error, action string) {
	ctx := c.Request.Context()
	status := statusFor(err)
	_ = c.Error(err)

	if status == http.StatusInternalServerError {
		slog.ErrorContext(ctx, "failed to "+action, "error", err)
		c.JSON(status, dto.ErrorResponse{Error: "failed to " + action})
		return
	}

	slog.WarnContext(ctx, action+" rejected", "error", err, "status", status)
	c.JSON(status, dto.ErrorResponse{Error: err.Error()})
}

func respondValidation(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
}
