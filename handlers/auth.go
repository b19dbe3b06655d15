package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Dakudbilla/DevConnect/models"
	"github.com/Dakudbilla/DevConnect/service"
)

type AuthService interface {
	Register(ctx context.Context, in service.RegisterInput) (string, error)
	Login(ctx context.Context, in service.LoginInput) (string, error)
	CurrentUser(ctx context.Context, userID primitive.ObjectID) (*models.User, error)
}

type AuthHandler struct {
	auth    AuthService
	timeout time.Duration
}

func NewAuthHandler(auth AuthService, timeout time.Duration) *AuthHandler {
	return &AuthHandler{auth: auth, timeout: timeout}
}

// Register handles POST /api/users.
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterInput
	if !bindJSON(c, &req) {
		return
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	token, err := h.auth.Register(ctx, req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, tokenResponse{Token: token})
}

// Login handles POST /api/auth.
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginInput
	if !bindJSON(c, &req) {
		return
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	token, err := h.auth.Login(ctx, req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, tokenResponse{Token: token})
}

// Me handles GET /api/auth.
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	user, err := h.auth.CurrentUser(ctx, userID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, user)
}
