package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Dakudbilla/DevConnect/logger"
	"github.com/Dakudbilla/DevConnect/models"
	"github.com/Dakudbilla/DevConnect/validation"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

type RegisterInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type Auth struct {
	users    UserStore
	tokens   TokenManager
	logger   *logger.Logger
	hashCost int
	now      func() time.Time

	dummyOnce sync.Once
	dummyHash []byte
}

func NewAuth(users UserStore, tokens TokenManager, logger *logger.Logger, hashCost int) *Auth {
	if hashCost == 0 {
		hashCost = bcrypt.DefaultCost
	}
	return &Auth{
		users:    users,
		tokens:   tokens,
		logger:   logger,
		hashCost: hashCost,
		now:      time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a user and returns a freshly issued token for it.
func (a *Auth) Register(ctx context.Context, in RegisterInput) (string, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if err := validation.Struct(in); err != nil {
		return "", err
	}

	a.logger.Debug("Auth service: registering user", "email", in.Email)

	_, err := a.users.GetByEmail(ctx, in.Email)
	if err == nil {
		a.logger.Info("Auth service: user already exists", "email", in.Email)
		return "", models.NewDuplicateUserError()
	}
	if !errors.Is(err, models.ErrNotFound) {
		return "", models.NewStorageError("get user by email", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), a.hashCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", models.NewValidationError("password must be at most 72 bytes",
			map[string]string{"password": "password must be at most 72 bytes"})
	}
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           primitive.NewObjectID(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		Avatar:       AvatarURL(in.Email),
		CreatedAt:    a.now().UTC(),
	}

	if err := a.users.Create(ctx, user); err != nil {
		// A concurrent registration can slip between the lookup and the insert;
		// the unique email index catches it.
		if errors.Is(err, models.ErrDuplicateUser) {
			a.logger.Info("Auth service: user already exists", "email", in.Email)
			return "", models.NewDuplicateUserError()
		}
		return "", models.NewStorageError("create user", err)
	}

	token, err := a.tokens.Issue(user.ID.Hex())
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}

	a.logger.Info("Auth service: user registered", "user_id", user.ID.Hex())

	return token, nil
}

// Login checks credentials and returns a token. Unknown email and wrong password
// are indistinguishable to the caller.
func (a *Auth) Login(ctx context.Context, in LoginInput) (string, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validation.Struct(in); err != nil {
		return "", err
	}

	user, err := a.users.GetByEmail(ctx, in.Email)
	if errors.Is(err, models.ErrNotFound) {
		// Burn the same bcrypt work as a real comparison.
		_ = bcrypt.CompareHashAndPassword(a.dummy(), []byte(in.Password))
		a.logger.Info("Auth service: login failed", "reason", "unknown email")
		return "", models.NewInvalidCredentialsError()
	}
	if err != nil {
		return "", models.NewStorageError("get user by email", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		a.logger.Info("Auth service: login failed", "reason", "password mismatch", "user_id", user.ID.Hex())
		return "", models.NewInvalidCredentialsError()
	}

	token, err := a.tokens.Issue(user.ID.Hex())
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}

	a.logger.Info("Auth service: user logged in", "user_id", user.ID.Hex())

	return token, nil
}

// CurrentUser returns the authenticated user's record.
func (a *Auth) CurrentUser(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	user, err := a.users.GetByID(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.NewNotFoundError("User")
	}
	if err != nil {
		return nil, models.NewStorageError("get user", err)
	}
	return user, nil
}

func (a *Auth) dummy() []byte {
	a.dummyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("devconnect-timing-equalizer"), a.hashCost)
		if err != nil {
			a.logger.Error("Auth service: failed to build dummy hash", "error", err.Error())
			return
		}
		a.dummyHash = hash
	})
	return a.dummyHash
}
