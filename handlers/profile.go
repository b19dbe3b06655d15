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

type ProfileService interface {
	Upsert(ctx context.Context, userID primitive.ObjectID, in service.ProfileInput) (*models.Profile, error)
	GetOwn(ctx context.Context, userID primitive.ObjectID) (*models.Profile, error)
	GetByUser(ctx context.Context, userID primitive.ObjectID) (*models.Profile, error)
	List(ctx context.Context) ([]models.Profile, error)
	DeleteAccount(ctx context.Context, userID primitive.ObjectID) error
	AddExperience(ctx context.Context, userID primitive.ObjectID, in service.ExperienceInput) (*models.Profile, error)
	RemoveExperience(ctx context.Context, userID, expID primitive.ObjectID) (*models.Profile, error)
	AddEducation(ctx context.Context, userID primitive.ObjectID, in service.EducationInput) (*models.Profile, error)
	RemoveEducation(ctx context.Context, userID, eduID primitive.ObjectID) (*models.Profile, error)
}

type ProfileHandler struct {
	profiles ProfileService
	timeout  time.Duration
}

func NewProfileHandler(profiles ProfileService, timeout time.Duration) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, timeout: timeout}
}

// GetMine handles GET /api/profile/me.
func (h *ProfileHandler) GetMine(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	profile, err := h.profiles.GetOwn(ctx, userID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// Upsert handles POST /api/profile.
func (h *ProfileHandler) Upsert(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req service.ProfileInput
	if !bindJSON(c, &req) {
		return
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	profile, err := h.profiles.Upsert(ctx, userID, req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// List handles GET /api/profile.
func (h *ProfileHandler) List(c *gin.Context) {
	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	profiles, err := h.profiles.List(ctx)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, profiles)
}

// GetByUser handles GET /api/profile/user/:user_id.
func (h *ProfileHandler) GetByUser(c *gin.Context) {
	userID, ok := pathID(c, "user_id", "Profile")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	profile, err := h.profiles.GetByUser(ctx, userID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// DeleteAccount handles DELETE /api/profile.
func (h *ProfileHandler) DeleteAccount(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	if err := h.profiles.DeleteAccount(ctx, userID); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, msgResponse{Msg: "User deleted"})
}

// AddExperience handles PUT /api/profile/experience.
func (h *ProfileHandler) AddExperience(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req service.ExperienceInput
	if !bindJSON(c, &req) {
		return
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	profile, err := h.profiles.AddExperience(ctx, userID, req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// RemoveExperience handles DELETE /api/profile/experience/:exp_id.
func (h *ProfileHandler) RemoveExperience(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	expID, ok := pathID(c, "exp_id", "Experience")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	profile, err := h.profiles.RemoveExperience(ctx, userID, expID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// AddEducation handles PUT /api/profile/education.
func (h *ProfileHandler) AddEducation(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req service.EducationInput
	if !bindJSON(c, &req) {
		return
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	profile, err := h.profiles.AddEducation(ctx, userID, req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// RemoveEducation handles DELETE /api/profile/education/:edu_id.
func (h *ProfileHandler) RemoveEducation(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	eduID, ok := pathID(c, "edu_id", "Education")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	profile, err := h.profiles.RemoveEducation(ctx, userID, eduID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
