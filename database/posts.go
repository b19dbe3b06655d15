package database

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Dakudbilla/DevConnect/models"
)

type PostStore struct {
	coll *mongo.Collection
}

func NewPostStore(d *Database) *PostStore {
	return &PostStore{coll: d.Posts}
}

func (s *PostStore) Create(ctx context.Context, post *models.Post) error {
	if post.ID.IsZero() {
		post.ID = primitive.NewObjectID()
	}
	if _, err := s.coll.InsertOne(ctx, post); err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

func (s *PostStore) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	var post models.Post
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find post: %w", err)
	}
	return &post, nil
}

func (s *PostStore) List(ctx context.Context) ([]models.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find posts: %w", err)
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}
	return posts, nil
}

func (s *PostStore) Delete(ctx context.Context, id, authorID primitive.ObjectID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id, "user": authorID})
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *PostStore) DeleteByUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{"user": userID})
	if err != nil {
		return 0, fmt.Errorf("delete posts: %w", err)
	}
	return res.DeletedCount, nil
}

// AddLike matches only while userID is absent from likes, so a user can never like twice.
func (s *PostStore) AddLike(ctx context.Context, postID, userID primitive.ObjectID) (*models.Post, error) {
	return s.findAndUpdate(ctx,
		bson.M{"_id": postID, "likes.user": bson.M{"$ne": userID}},
		prepend("likes", models.Like{UserID: userID}),
	)
}

func (s *PostStore) RemoveLike(ctx context.Context, postID, userID primitive.ObjectID) (*models.Post, error) {
	return s.findAndUpdate(ctx,
		bson.M{"_id": postID, "likes.user": userID},
		bson.M{"$pull": bson.M{"likes": bson.M{"user": userID}}},
	)
}

func (s *PostStore) AddComment(ctx context.Context, postID primitive.ObjectID, comment models.Comment) (*models.Post, error) {
	return s.findAndUpdate(ctx, bson.M{"_id": postID}, prepend("comments", comment))
}

func (s *PostStore) RemoveComment(ctx context.Context, postID, commentID, authorID primitive.ObjectID) (*models.Post, error) {
	return s.findAndUpdate(ctx,
		bson.M{"_id": postID, "comments": bson.M{"$elemMatch": bson.M{"_id": commentID, "user": authorID}}},
		bson.M{"$pull": bson.M{"comments": bson.M{"_id": commentID}}},
	)
}

func (s *PostStore) findAndUpdate(ctx context.Context, filter, update bson.M) (*models.Post, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var post models.Post
	err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	return &post, nil
}
