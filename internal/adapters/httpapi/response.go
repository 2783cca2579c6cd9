package httpapi

import (
	"net/http"

	"listing-auction-service/internal/domain/shared"

	"github.com/gin-gonic/gin"
)

// JSONResponse sends a structured JSON response
func JSONResponse(c *gin.Context, status int, data any, message string) {
	c.JSON(status, gin.H{
		"status":  status,
		"message": message,
		"data":    data,
	})
}

// JSONError sends a structured error response
func JSONError(c *gin.Context, status int, err error, message string) {
	c.JSON(status, gin.H{
		"status":  status,
		"message": message,
		"error":   err.Error(),
	})
}

// StatusFor maps an error to its HTTP status through its kind
func StatusFor(err error) int {
	switch shared.KindOf(err) {
	case shared.KindValidation:
		return http.StatusBadRequest
	case shared.KindNotFound:
		return http.StatusNotFound
	case shared.KindConflict:
		return http.StatusConflict
	case shared.KindTransient:
		return http.StatusServiceUnavailable
	case shared.KindUnauthorized:
		return http.StatusUnauthorized
	case shared.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError writes the error envelope and stops the handler chain
func abortWithError(c *gin.Context, err error) {
	status := StatusFor(err)
	message := http.StatusText(status)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		JSONError(c, status, errInternal, message)
	} else {
		JSONError(c, status, err, message)
	}
	c.Abort()
}
