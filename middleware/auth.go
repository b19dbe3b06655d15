package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Dakudbilla/DevConnect/logger"
	"github.com/Dakudbilla/DevConnect/models"
)

const (
	// TokenHeader carries the identity token. "Authorization: Bearer <token>" is accepted too.
	TokenHeader = "x-auth-token"

	userIDKey = "userId"
)

type userIDContextKey struct{}

type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Authenticate rejects requests without a valid token and stores the caller's id on the context.
func Authenticate(verifier TokenVerifier, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip middleware for OPTIONS requests (CORS preflight)
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		tokenString := extractToken(c)
		if tokenString == "" {
			c.Error(models.NewUnauthenticatedError("No token, authorization denied"))
			c.Abort()
			return
		}

		subject, err := verifier.Verify(tokenString)
		if err != nil {
			log.Debug("token rejected", "error", err.Error(), "path", c.Request.URL.Path)
			c.Error(models.NewUnauthenticatedError("Token is not valid"))
			c.Abort()
			return
		}

		userID, err := primitive.ObjectIDFromHex(subject)
		if err != nil {
			c.Error(models.NewUnauthenticatedError("Token is not valid"))
			c.Abort()
			return
		}

		c.Set(userIDKey, userID)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), userIDContextKey{}, userID))
		c.Next()
	}
}

// UserID returns the id stored by Authenticate.
func UserID(c *gin.Context) (primitive.ObjectID, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return primitive.NilObjectID, false
	}
	id, ok := v.(primitive.ObjectID)
	return id, ok
}

// UserIDFromContext returns the id Authenticate attached to the request context.
func UserIDFromContext(ctx context.Context) (primitive.ObjectID, bool) {
	id, ok := ctx.Value(userIDContextKey{}).(primitive.ObjectID)
	return id, ok
}

func extractToken(c *gin.Context) string {
	if t := strings.TrimSpace(c.GetHeader(TokenHeader)); t != "" {
		return t
	}
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
