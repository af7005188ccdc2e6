package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"scoreservice.app/review/common/logger"
	"scoreservice.app/review/internal/http/dto"
)

const panicMessage = "failed to handle request"

// Recovery turns a handler panic into a 500 in the API's error shape and
// marks the request span as failed.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}

			ctx := logger.WithLogFields(c.Request.Context(), logger.LogFields{Component: "http.recovery"})
			err := fmt.Errorf("handler panic: %v", recovered)

			span := trace.SpanFromContext(ctx)
			span.RecordError(err)
			span.SetStatus(codes.Error, "panic")

			slog.ErrorContext(ctx, "request handler panicked",
				"error", err,
				"method", c.Request.Method,
				"route", c.FullPath(),
				"stack", string(debug.Stack()),
			)

			c.AbortWithStatusJSON(http.StatusInternalServerError, dto.ErrorResponse{Error: panicMessage})
		}()
		c.Next()
	}
}
