package handlers

import (
	"intraday-welfare/internal/api/models"

	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}
