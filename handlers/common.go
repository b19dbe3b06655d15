package handlers

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Dakudbilla/DevConnect/middleware"
	"github.com/Dakudbilla/DevConnect/models"
)

// DefaultTimeout bounds the store calls made on behalf of one request.
const DefaultTimeout = 10 * time.Second

type msgResponse struct {
	Msg string `json:"msg"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func requestContext(c *gin.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return context.WithTimeout(c.Request.Context(), timeout)
}

// bindJSON decodes the body into dst. An empty body leaves dst zero so that
// field validation reports what is missing.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		c.Error(models.NewValidationError("Invalid request body", nil))
		return false
	}
	return true
}

// currentUser returns the authenticated caller. Routes using it sit behind the auth gate.
func currentUser(c *gin.Context) (primitive.ObjectID, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		c.Error(models.NewUnauthenticatedError("No token, authorization denied"))
		return primitive.NilObjectID, false
	}
	return id, true
}

// pathID parses an ObjectID path parameter. A malformed id cannot name an existing
// document, so it is reported as not found.
func pathID(c *gin.Context, param, resource string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(param))
	if err != nil {
		c.Error(models.NewNotFoundError(resource))
		return primitive.NilObjectID, false
	}
	return id, true
}
