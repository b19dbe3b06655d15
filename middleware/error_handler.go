package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Dakudbilla/DevConnect/logger"
	"github.com/Dakudbilla/DevConnect/models"
)

// ErrorHandler renders the first error a handler attached with c.Error.
func ErrorHandler(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors[0].Err
		var appErr *models.AppError
		if !errors.As(err, &appErr) || appErr.Kind == models.KindStorage {
			log.Error("request failed",
				"request_id", RequestID(c),
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"error", err.Error(),
			)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error", "code": "INTERNAL_ERROR"})
			return
		}

		body := gin.H{"error": appErr.Message, "code": appErr.Kind}
		if len(appErr.Fields) > 0 {
			body["fields"] = appErr.Fields
		}
		c.JSON(StatusFor(appErr.Kind), body)
	}
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind models.Kind) int {
	switch kind {
	case models.KindValidation, models.KindDuplicateUser, models.KindAlreadyLiked, models.KindNotLiked:
		return http.StatusBadRequest
	case models.KindInvalidCredentials, models.KindUnauthenticated:
		return http.StatusUnauthorized
	case models.KindForbidden:
		return http.StatusForbidden
	case models.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
