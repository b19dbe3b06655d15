package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Dakudbilla/DevConnect/models"
	"github.com/Dakudbilla/DevConnect/testutil"
)

func newTestPosts(t *testing.T) (*Posts, primitive.ObjectID, primitive.ObjectID) {
	t.Helper()
	stores := testutil.NewStores()
	alice := seedUser(t, stores, "Alice", "alice@example.com")
	bob := seedUser(t, stores, "Bob", "bob@example.com")
	return NewPosts(stores.Users, stores.Posts, testutil.MakeNoopLogger()), alice, bob
}

func TestPosts_Create(t *testing.T) {
	ctx := context.Background()
	svc, alice, _ := newTestPosts(t)

	post, err := svc.Create(ctx, alice, PostInput{Text: "  Hello  "})
	require.NoError(t, err)
	assert.Equal(t, "Hello", post.Text)
	assert.Equal(t, "Alice", post.Name)
	assert.Equal(t, AvatarURL("alice@example.com"), post.Avatar)
	assert.NotNil(t, post.Likes)
	assert.NotNil(t, post.Comments)

	_, err = svc.Create(ctx, alice, PostInput{Text: "   "})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.Create(ctx, primitive.NewObjectID(), PostInput{Text: "ghost"})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestPosts_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	svc, alice, bob := newTestPosts(t)

	first, err := svc.Create(ctx, alice, PostInput{Text: "first"})
	require.NoError(t, err)
	second, err := svc.Create(ctx, bob, PostInput{Text: "second"})
	require.NoError(t, err)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)
	assert.Equal(t, first.ID, all[1].ID)
}

func TestPosts_Delete(t *testing.T) {
	ctx := context.Background()
	svc, alice, bob := newTestPosts(t)

	post, err := svc.Create(ctx, alice, PostInput{Text: "Hello"})
	require.NoError(t, err)

	err = svc.Delete(ctx, bob, post.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrForbidden)
	assert.Equal(t, "User not authorized", err.Error())

	_, err = svc.Get(ctx, post.ID)
	require.NoError(t, err, "post survives a forbidden delete")

	require.NoError(t, svc.Delete(ctx, alice, post.ID))

	err = svc.Delete(ctx, alice, post.ID)
	require.Error(t, err)
	assert.Equal(t, "Post not found", err.Error())
}

func TestPosts_LikeUnlike(t *testing.T) {
	ctx := context.Background()
	svc, alice, bob := newTestPosts(t)

	post, err := svc.Create(ctx, alice, PostInput{Text: "Hello"})
	require.NoError(t, err)

	likes, err := svc.Like(ctx, bob, post.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.Like{{UserID: bob}}, likes)

	_, err = svc.Like(ctx, bob, post.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrAlreadyLiked)
	assert.Equal(t, "Post already liked", err.Error())

	likes, err = svc.Like(ctx, alice, post.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.Like{{UserID: alice}, {UserID: bob}}, likes, "newest like first")

	likes, err = svc.Unlike(ctx, bob, post.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.Like{{UserID: alice}}, likes)

	_, err = svc.Unlike(ctx, bob, post.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrNotLiked)
	assert.Equal(t, "Post has not yet been liked", err.Error())

	_, err = svc.Like(ctx, bob, primitive.NewObjectID())
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = svc.Unlike(ctx, bob, primitive.NewObjectID())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestPosts_ConcurrentLikes(t *testing.T) {
	ctx := context.Background()
	stores := testutil.NewStores()
	alice := seedUser(t, stores, "Alice", "alice@example.com")
	svc := NewPosts(stores.Users, stores.Posts, testutil.MakeNoopLogger())

	post, err := svc.Create(ctx, alice, PostInput{Text: "Hello"})
	require.NoError(t, err)

	const n = 20
	likers := make([]primitive.ObjectID, n)
	for i := range likers {
		likers[i] = primitive.NewObjectID()
	}

	var wg sync.WaitGroup
	for _, id := range likers {
		wg.Add(1)
		go func(id primitive.ObjectID) {
			defer wg.Done()
			// Each user likes twice; exactly one attempt may succeed.
			_, _ = svc.Like(ctx, id, post.ID)
			_, _ = svc.Like(ctx, id, post.ID)
		}(id)
	}
	wg.Wait()

	got, err := svc.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Len(t, got.Likes, n)
	for _, id := range likers {
		assert.True(t, got.HasLike(id))
	}
}

func TestPosts_Comments(t *testing.T) {
	ctx := context.Background()
	svc, alice, bob := newTestPosts(t)

	post, err := svc.Create(ctx, alice, PostInput{Text: "Hello"})
	require.NoError(t, err)

	_, err = svc.AddComment(ctx, bob, post.ID, CommentInput{Text: ""})
	assert.ErrorIs(t, err, models.ErrValidation)

	comments, err := svc.AddComment(ctx, bob, post.ID, CommentInput{Text: "Nice"})
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "Bob", comments[0].Name)
	assert.Equal(t, bob, comments[0].UserID)

	comments, err = svc.AddComment(ctx, alice, post.ID, CommentInput{Text: "Thanks"})
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "Thanks", comments[0].Text, "newest comment first")
	bobComment := comments[1].ID

	_, err = svc.RemoveComment(ctx, alice, post.ID, bobComment)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = svc.RemoveComment(ctx, bob, post.ID, primitive.NewObjectID())
	require.Error(t, err)
	assert.Equal(t, "Comment not found", err.Error())

	comments, err = svc.RemoveComment(ctx, bob, post.ID, bobComment)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "Thanks", comments[0].Text)

	_, err = svc.AddComment(ctx, bob, primitive.NewObjectID(), CommentInput{Text: "Nice"})
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = svc.RemoveComment(ctx, bob, primitive.NewObjectID(), bobComment)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
