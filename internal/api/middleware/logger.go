package middleware

import (
	"time"

	"intraday-welfare/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

// Logger tags each request with an id and logs it once served.
func Logger(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		log = logger.Nop()
	}
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Header(RequestIDHeader, id)
		c.Request = c.Request.WithContext(logger.ContextWithRequestID(c.Request.Context(), id))

		start := time.Now()
		c.Next()

		fields := []logger.Field{
			logger.NewField("method", c.Request.Method),
			logger.NewField("path", c.Request.URL.Path),
			logger.NewField("status", c.Writer.Status()),
			logger.NewField("latency", time.Since(start).String()),
		}
		if len(c.Errors) > 0 {
			log.ErrorContext(c.Request.Context(), c.Errors.Last(), fields...)
			return
		}
		log.InfoContext(c.Request.Context(), "request", fields...)
	}
}
