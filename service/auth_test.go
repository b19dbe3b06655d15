package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/Dakudbilla/DevConnect/models"
	"github.com/Dakudbilla/DevConnect/testutil"
	"github.com/Dakudbilla/DevConnect/token"
)

var (
	_ UserStore    = (*testutil.UserStore)(nil)
	_ ProfileStore = (*testutil.ProfileStore)(nil)
	_ PostStore    = (*testutil.PostStore)(nil)
	_ TokenManager = (*token.JWT)(nil)
)

const testSecret = "service-test-secret"

// failingUserStore wraps a UserStore and fails the selected operations.
type failingUserStore struct {
	UserStore
	getByEmailErr error
	createErr     error
	deleteErr     error
}

func (s *failingUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if s.getByEmailErr != nil {
		return nil, s.getByEmailErr
	}
	return s.UserStore.GetByEmail(ctx, email)
}

func (s *failingUserStore) Create(ctx context.Context, user *models.User) error {
	if s.createErr != nil {
		return s.createErr
	}
	return s.UserStore.Create(ctx, user)
}

func (s *failingUserStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return s.UserStore.Delete(ctx, id)
}

func newTestAuth(users UserStore) (*Auth, *token.JWT) {
	tokens := token.NewJWT(testSecret, time.Hour)
	return NewAuth(users, tokens, testutil.MakeNoopLogger(), bcrypt.MinCost), tokens
}

func TestAuth_Register(t *testing.T) {
	ctx := context.Background()
	stores := testutil.NewStores()
	a, tokens := newTestAuth(stores.Users)

	tok, err := a.Register(ctx, RegisterInput{Name: " Alice ", Email: " Alice@Example.COM ", Password: "secret1"})
	require.NoError(t, err)

	id, err := tokens.Verify(tok)
	require.NoError(t, err)

	user, err := stores.Users.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), id)
	assert.Equal(t, "Alice", user.Name)
	assert.Equal(t, AvatarURL("alice@example.com"), user.Avatar)
	assert.NotEqual(t, "secret1", user.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret1")))
}

func TestAuth_Register_Duplicate(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestAuth(testutil.NewStores().Users)

	_, err := a.Register(ctx, RegisterInput{Name: "Alice", Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = a.Register(ctx, RegisterInput{Name: "Other", Email: "ALICE@example.com", Password: "another"})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrDuplicateUser)
	assert.Equal(t, "User already exists", err.Error())
}

func TestAuth_Register_DuplicateRace(t *testing.T) {
	// The lookup misses but the insert hits the unique index.
	users := &failingUserStore{UserStore: testutil.NewStores().Users, createErr: models.ErrDuplicateUser}
	a, _ := newTestAuth(users)

	_, err := a.Register(context.Background(), RegisterInput{Name: "Alice", Email: "alice@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, models.ErrDuplicateUser)
}

func TestAuth_Register_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input RegisterInput
		field string
	}{
		{name: "missing name", input: RegisterInput{Email: "a@b.co", Password: "secret1"}, field: "name"},
		{name: "blank name", input: RegisterInput{Name: "   ", Email: "a@b.co", Password: "secret1"}, field: "name"},
		{name: "bad email", input: RegisterInput{Name: "A", Email: "not-an-email", Password: "secret1"}, field: "email"},
		{name: "short password", input: RegisterInput{Name: "A", Email: "a@b.co", Password: "12345"}, field: "password"},
		{name: "long password", input: RegisterInput{Name: "A", Email: "a@b.co", Password: strings.Repeat("x", 73)}, field: "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stores := testutil.NewStores()
			a, _ := newTestAuth(stores.Users)

			_, err := a.Register(context.Background(), tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, models.ErrValidation)

			var appErr *models.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Contains(t, appErr.Fields, tt.field)

			_, err = stores.Users.GetByEmail(context.Background(), "a@b.co")
			assert.ErrorIs(t, err, models.ErrNotFound)
		})
	}
}

func TestAuth_Register_StorageFailure(t *testing.T) {
	users := &failingUserStore{UserStore: testutil.NewStores().Users, getByEmailErr: assert.AnError}
	a, _ := newTestAuth(users)

	_, err := a.Register(context.Background(), RegisterInput{Name: "A", Email: "a@b.co", Password: "secret1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrStorage)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestAuth_Login(t *testing.T) {
	ctx := context.Background()
	stores := testutil.NewStores()
	a, tokens := newTestAuth(stores.Users)

	_, err := a.Register(ctx, RegisterInput{Name: "Alice", Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)

	tok, err := a.Login(ctx, LoginInput{Email: "ALICE@example.com", Password: "secret1"})
	require.NoError(t, err)

	id, err := tokens.Verify(tok)
	require.NoError(t, err)
	user, err := stores.Users.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), id)
}

func TestAuth_Login_InvalidCredentials(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestAuth(testutil.NewStores().Users)

	_, err := a.Register(ctx, RegisterInput{Name: "Alice", Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, wrongPassword := a.Login(ctx, LoginInput{Email: "alice@example.com", Password: "wrong-password"})
	_, unknownEmail := a.Login(ctx, LoginInput{Email: "bob@example.com", Password: "secret1"})

	for _, err := range []error{wrongPassword, unknownEmail} {
		require.Error(t, err)
		assert.ErrorIs(t, err, models.ErrInvalidCredentials)
		assert.Equal(t, "Invalid credentials", err.Error())
	}
}

func TestAuth_Login_Validation(t *testing.T) {
	a, _ := newTestAuth(testutil.NewStores().Users)

	_, err := a.Login(context.Background(), LoginInput{Email: "alice@example.com"})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestAuth_CurrentUser(t *testing.T) {
	ctx := context.Background()
	stores := testutil.NewStores()
	a, tokens := newTestAuth(stores.Users)

	tok, err := a.Register(ctx, RegisterInput{Name: "Alice", Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)
	hex, err := tokens.Verify(tok)
	require.NoError(t, err)
	id, err := primitive.ObjectIDFromHex(hex)
	require.NoError(t, err)

	user, err := a.CurrentUser(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Name)

	_, err = a.CurrentUser(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestAvatarURL(t *testing.T) {
	// md5("alice@example.com")
	want := "https://www.gravatar.com/avatar/c160f8cc69a4f0bf2b0362752353d060?s=200&r=pg&d=mm"
	assert.Equal(t, want, AvatarURL("alice@example.com"))
	assert.Equal(t, want, AvatarURL("  Alice@Example.com "))
}
