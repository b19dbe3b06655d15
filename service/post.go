package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Dakudbilla/DevConnect/logger"
	"github.com/Dakudbilla/DevConnect/models"
	"github.com/Dakudbilla/DevConnect/validation"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PostInput struct {
	Text string `json:"text" validate:"required"`
}

type CommentInput struct {
	Text string `json:"text" validate:"required"`
}

type Posts struct {
	users  UserStore
	posts  PostStore
	logger *logger.Logger
	now    func() time.Time
}

func NewPosts(users UserStore, posts PostStore, logger *logger.Logger) *Posts {
	return &Posts{users: users, posts: posts, logger: logger, now: time.Now}
}

// Create stores a post carrying a snapshot of the author's name and avatar.
func (s *Posts) Create(ctx context.Context, userID primitive.ObjectID, in PostInput) (*models.Post, error) {
	in.Text = strings.TrimSpace(in.Text)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	author, err := s.author(ctx, userID)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Text:      in.Text,
		Name:      author.Name,
		Avatar:    author.Avatar,
		Likes:     []models.Like{},
		Comments:  []models.Comment{},
		CreatedAt: s.now().UTC(),
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, models.NewStorageError("create post", err)
	}

	s.logger.Info("Post service: post created", "post_id", post.ID.Hex(), "user_id", userID.Hex())

	return post, nil
}

// List returns every post, newest first.
func (s *Posts) List(ctx context.Context) ([]models.Post, error) {
	posts, err := s.posts.List(ctx)
	if err != nil {
		return nil, models.NewStorageError("list posts", err)
	}
	if posts == nil {
		posts = []models.Post{}
	}
	for i := range posts {
		normalizePost(&posts[i])
	}
	return posts, nil
}

func (s *Posts) Get(ctx context.Context, postID primitive.ObjectID) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.NewNotFoundError("Post")
	}
	if err != nil {
		return nil, models.NewStorageError("get post", err)
	}
	return normalizePost(post), nil
}

// Delete removes a post owned by userID.
func (s *Posts) Delete(ctx context.Context, userID, postID primitive.ObjectID) error {
	post, err := s.Get(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != userID {
		s.logger.Info("Post service: delete denied", "post_id", postID.Hex(), "user_id", userID.Hex())
		return models.NewForbiddenError("User not authorized")
	}

	err = s.posts.Delete(ctx, postID, userID)
	if errors.Is(err, models.ErrNotFound) {
		// Removed by a concurrent request.
		return models.NewNotFoundError("Post")
	}
	if err != nil {
		return models.NewStorageError("delete post", err)
	}

	s.logger.Info("Post service: post deleted", "post_id", postID.Hex(), "user_id", userID.Hex())

	return nil
}

// Like records userID's like and returns the post's likes, most recent first.
func (s *Posts) Like(ctx context.Context, userID, postID primitive.ObjectID) ([]models.Like, error) {
	post, err := s.posts.AddLike(ctx, postID, userID)
	if errors.Is(err, models.ErrNotFound) {
		if _, err := s.Get(ctx, postID); err != nil {
			return nil, err
		}
		return nil, models.NewAlreadyLikedError()
	}
	if err != nil {
		return nil, models.NewStorageError("like post", err)
	}

	s.logger.Debug("Post service: post liked", "post_id", postID.Hex(), "user_id", userID.Hex())

	return normalizePost(post).Likes, nil
}

// Unlike removes userID's like and returns the remaining likes.
func (s *Posts) Unlike(ctx context.Context, userID, postID primitive.ObjectID) ([]models.Like, error) {
	post, err := s.posts.RemoveLike(ctx, postID, userID)
	if errors.Is(err, models.ErrNotFound) {
		if _, err := s.Get(ctx, postID); err != nil {
			return nil, err
		}
		return nil, models.NewNotLikedError()
	}
	if err != nil {
		return nil, models.NewStorageError("unlike post", err)
	}

	s.logger.Debug("Post service: post unliked", "post_id", postID.Hex(), "user_id", userID.Hex())

	return normalizePost(post).Likes, nil
}

func (s *Posts) AddComment(ctx context.Context, userID, postID primitive.ObjectID, in CommentInput) ([]models.Comment, error) {
	in.Text = strings.TrimSpace(in.Text)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	author, err := s.author(ctx, userID)
	if err != nil {
		return nil, err
	}

	comment := models.Comment{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Text:      in.Text,
		Name:      author.Name,
		Avatar:    author.Avatar,
		CreatedAt: s.now().UTC(),
	}

	post, err := s.posts.AddComment(ctx, postID, comment)
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.NewNotFoundError("Post")
	}
	if err != nil {
		return nil, models.NewStorageError("add comment", err)
	}

	s.logger.Debug("Post service: comment added", "post_id", postID.Hex(), "comment_id", comment.ID.Hex())

	return normalizePost(post).Comments, nil
}

// RemoveComment deletes a comment written by userID and returns the remaining comments.
func (s *Posts) RemoveComment(ctx context.Context, userID, postID, commentID primitive.ObjectID) ([]models.Comment, error) {
	post, err := s.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	comment := post.FindComment(commentID)
	if comment == nil {
		return nil, models.NewNotFoundError("Comment")
	}
	if comment.UserID != userID {
		return nil, models.NewForbiddenError("User not authorized")
	}

	post, err = s.posts.RemoveComment(ctx, postID, commentID, userID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.NewNotFoundError("Comment")
	}
	if err != nil {
		return nil, models.NewStorageError("remove comment", err)
	}

	s.logger.Debug("Post service: comment removed", "post_id", postID.Hex(), "comment_id", commentID.Hex())

	return normalizePost(post).Comments, nil
}

func (s *Posts) author(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.NewNotFoundError("User")
	}
	if err != nil {
		return nil, models.NewStorageError("get user", err)
	}
	return user, nil
}

func normalizePost(p *models.Post) *models.Post {
	if p.Likes == nil {
		p.Likes = []models.Like{}
	}
	if p.Comments == nil {
		p.Comments = []models.Comment{}
	}
	return p
}
