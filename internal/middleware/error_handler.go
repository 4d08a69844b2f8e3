package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/flexledger/internal/domain/dto"
)

// ErrorHandler turns errors attached with c.Error into a 500 JSON response when the
// handler did not write one itself.
//
// Usage:
//
//	router := gin.New()
//	router.Use(middleware.ErrorHandler)
func ErrorHandler(c *gin.Context) {
	c.Next()

	if len(c.Errors) == 0 || c.Writer.Written() {
		return
	}
	c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("Internal server error", c.Errors.Last().Err))
}

// AbortWithError stops the chain and writes the standard error body with the given status.
func AbortWithError(c *gin.Context, status int, message string, err error) {
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(message, err))
}
