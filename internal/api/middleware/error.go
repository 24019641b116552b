package middleware

import (
	"fmt"
	"net/http"

	"intraday-welfare/internal/api/models"
	"intraday-welfare/internal/logger"

	"github.com/gin-gonic/gin"
)

// ErrorHandler recovers panics into a 500 error response.
func ErrorHandler(log *logger.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		message := "An unexpected error occurred"
		if s, ok := recovered.(string); ok {
			message = s
		}
		if log != nil {
			log.ErrorContext(c.Request.Context(), fmt.Errorf("panic: %v", recovered),
				logger.NewField("path", c.Request.URL.Path))
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INTERNAL_ERROR",
				Message: message,
			},
		})
	})
}
