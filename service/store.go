package service

import (
	"context"

	"github.com/Dakudbilla/DevConnect/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Stores report a missing document, or a conditional update that matched nothing,
// as models.ErrNotFound. Any other error is an unexpected storage failure.

// UserStore persists user identity records.
type UserStore interface {
	// Create returns models.ErrDuplicateUser when the email is already taken.
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ProfileStore persists profiles, at most one per user.
type ProfileStore interface {
	Upsert(ctx context.Context, userID primitive.ObjectID, update models.ProfileUpdate) (*models.Profile, error)
	GetByUser(ctx context.Context, userID primitive.ObjectID) (*models.Profile, error)
	List(ctx context.Context) ([]models.Profile, error)
	DeleteByUser(ctx context.Context, userID primitive.ObjectID) error
	PushExperience(ctx context.Context, userID primitive.ObjectID, exp models.Experience) (*models.Profile, error)
	PullExperience(ctx context.Context, userID, expID primitive.ObjectID) (*models.Profile, error)
	PushEducation(ctx context.Context, userID primitive.ObjectID, edu models.Education) (*models.Profile, error)
	PullEducation(ctx context.Context, userID, eduID primitive.ObjectID) (*models.Profile, error)
}

// PostStore persists posts together with their likes and comments.
type PostStore interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	// List returns all posts, newest first.
	List(ctx context.Context) ([]models.Post, error)
	// Delete removes the post only if it is authored by authorID.
	Delete(ctx context.Context, id, authorID primitive.ObjectID) error
	DeleteByUser(ctx context.Context, userID primitive.ObjectID) (int64, error)
	// AddLike prepends a like unless userID already liked the post.
	AddLike(ctx context.Context, postID, userID primitive.ObjectID) (*models.Post, error)
	// RemoveLike removes userID's like if present.
	RemoveLike(ctx context.Context, postID, userID primitive.ObjectID) (*models.Post, error)
	AddComment(ctx context.Context, postID primitive.ObjectID, comment models.Comment) (*models.Post, error)
	// RemoveComment removes the comment only if it is authored by authorID.
	RemoveComment(ctx context.Context, postID, commentID, authorID primitive.ObjectID) (*models.Post, error)
}

// TokenManager issues and verifies identity tokens.
type TokenManager interface {
	Issue(userID string) (string, error)
	Verify(token string) (string, error)
}
