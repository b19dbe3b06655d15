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

type PostService interface {
	Create(ctx context.Context, userID primitive.ObjectID, in service.PostInput) (*models.Post, error)
	List(ctx context.Context) ([]models.Post, error)
	Get(ctx context.Context, postID primitive.ObjectID) (*models.Post, error)
	Delete(ctx context.Context, userID, postID primitive.ObjectID) error
	Like(ctx context.Context, userID, postID primitive.ObjectID) ([]models.Like, error)
	Unlike(ctx context.Context, userID, postID primitive.ObjectID) ([]models.Like, error)
	AddComment(ctx context.Context, userID, postID primitive.ObjectID, in service.CommentInput) ([]models.Comment, error)
	RemoveComment(ctx context.Context, userID, postID, commentID primitive.ObjectID) ([]models.Comment, error)
}

type PostHandler struct {
	posts   PostService
	timeout time.Duration
}

func NewPostHandler(posts PostService, timeout time.Duration) *PostHandler {
	return &PostHandler{posts: posts, timeout: timeout}
}

// Create handles POST /api/post.
func (h *PostHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req service.PostInput
	if !bindJSON(c, &req) {
		return
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	post, err := h.posts.Create(ctx, userID, req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// List handles GET /api/post.
func (h *PostHandler) List(c *gin.Context) {
	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	posts, err := h.posts.List(ctx)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

// Get handles GET /api/post/:id.
func (h *PostHandler) Get(c *gin.Context) {
	postID, ok := pathID(c, "id", "Post")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	post, err := h.posts.Get(ctx, postID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// Delete handles DELETE /api/post/:id.
func (h *PostHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	postID, ok := pathID(c, "id", "Post")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	if err := h.posts.Delete(ctx, userID, postID); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, msgResponse{Msg: "Post removed"})
}

// Like handles PUT /api/post/like/:id.
func (h *PostHandler) Like(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	postID, ok := pathID(c, "id", "Post")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	likes, err := h.posts.Like(ctx, userID, postID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, likes)
}

// Unlike handles PUT /api/post/unlike/:id.
func (h *PostHandler) Unlike(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	postID, ok := pathID(c, "id", "Post")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	likes, err := h.posts.Unlike(ctx, userID, postID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, likes)
}

// AddComment handles POST /api/post/comment/:id.
func (h *PostHandler) AddComment(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	postID, ok := pathID(c, "id", "Post")
	if !ok {
		return
	}
	var req service.CommentInput
	if !bindJSON(c, &req) {
		return
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	comments, err := h.posts.AddComment(ctx, userID, postID, req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

// RemoveComment handles DELETE /api/post/comment/:id/:comment_id.
func (h *PostHandler) RemoveComment(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	postID, ok := pathID(c, "id", "Post")
	if !ok {
		return
	}
	commentID, ok := pathID(c, "comment_id", "Comment")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	comments, err := h.posts.RemoveComment(ctx, userID, postID, commentID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, comments)
}
