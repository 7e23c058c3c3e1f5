package middleware

import (
	"time"

	"github.com/JonnyWalker81/daylog/internal/logger"
	"github.com/gin-gonic/gin"
)

// RequestIDHeader carries the request correlation id in both directions
const RequestIDHeader = "X-Request-ID"

// RequestObserver receives per-request timings
type RequestObserver interface {
	ObserveRequest(route, method string, status int, duration time.Duration)
}

// Logger assigns each request an id (reusing a client supplied X-Request-ID),
// stores a request scoped logger in the context and logs the outcome. A nil
// observer skips request metrics.
func Logger(base logger.Logger, observer RequestObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		ctx := logger.WithRequestID(c.Request.Context(), c.GetHeader(RequestIDHeader))
		requestID := logger.RequestIDFromContext(ctx)
		ctx = logger.WithLogger(ctx, base.WithContext(ctx))
		c.Request = c.Request.WithContext(ctx)

		c.Set("request_id", requestID)
		c.Header(RequestIDHeader, requestID)

		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		if observer != nil {
			observer.ObserveRequest(route, c.Request.Method, status, latency)
		}

		fields := []logger.Field{
			logger.String("method", c.Request.Method),
			logger.String("route", route),
			logger.Int("status", status),
			logger.Duration("latency", latency),
			logger.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, logger.String("errors", c.Errors.String()))
		}

		// The auth middleware adds the user id to the request context after
		// this middleware ran, so read it from the gin context
		log := base.WithContext(ctx)
		if userID := c.GetString("user_id"); userID != "" {
			log = log.With(logger.String("user_id", userID))
		}

		switch {
		case status >= 500:
			log.Error("request failed", fields...)
		case status >= 400:
			log.Warn("request rejected", fields...)
		default:
			log.Info("request completed", fields...)
		}
	}
}
