// Package database implements the stores on top of MongoDB.
package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/Dakudbilla/DevConnect/logger"
)

const (
	usersCollection    = "users"
	profilesCollection = "profiles"
	postsCollection    = "posts"
)

// Database owns the client and the collections the stores work on.
type Database struct {
	Client   *mongo.Client
	Users    *mongo.Collection
	Profiles *mongo.Collection
	Posts    *mongo.Collection

	logger *logger.Logger
}

// Connect dials MongoDB, pings the primary and prepares the collections.
func Connect(ctx context.Context, uri, name string, log *logger.Logger) (*Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	opts := options.Client().
		ApplyURI(uri).
		SetMonitor(newCommandMonitor())

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	db := client.Database(name)
	d := &Database{
		Client:   client,
		Users:    db.Collection(usersCollection),
		Profiles: db.Collection(profilesCollection),
		Posts:    db.Collection(postsCollection),
		logger:   log,
	}

	log.Info("Connected to MongoDB successfully", "database", name)
	return d, nil
}

// EnsureIndexes creates the indexes the stores rely on. It is idempotent.
func (d *Database) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if _, err := d.Users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	}); err != nil {
		return fmt.Errorf("failed to create users index: %w", err)
	}

	if _, err := d.Profiles.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("user_unique"),
	}); err != nil {
		return fmt.Errorf("failed to create profiles index: %w", err)
	}

	if _, err := d.Posts.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "date", Value: -1}}, Options: options.Index().SetName("date_desc")},
		{Keys: bson.D{{Key: "user", Value: 1}}, Options: options.Index().SetName("user")},
	}); err != nil {
		return fmt.Errorf("failed to create posts indexes: %w", err)
	}

	d.logger.Debug("MongoDB indexes ensured")
	return nil
}

// Ping reports whether the primary is reachable.
func (d *Database) Ping(ctx context.Context) error {
	return d.Client.Ping(ctx, readpref.Primary())
}

func (d *Database) Disconnect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := d.Client.Disconnect(ctx); err != nil {
		return err
	}

	d.logger.Info("Disconnected from MongoDB")
	return nil
}
