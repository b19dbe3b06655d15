package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Dakudbilla/DevConnect/models"
)

type ProfileStore struct {
	coll      *mongo.Collection
	usersColl string
	now       func() time.Time
}

func NewProfileStore(d *Database) *ProfileStore {
	return &ProfileStore{coll: d.Profiles, usersColl: d.Users.Name(), now: time.Now}
}

// Upsert applies the non-empty fields of update in one atomic FindOneAndUpdate.
// Two first-time saves racing on the unique user index make one insert fail;
// that one is retried and then matches the document the other created.
func (s *ProfileStore) Upsert(ctx context.Context, userID primitive.ObjectID, update models.ProfileUpdate) (*models.Profile, error) {
	set := bson.M{}
	setIfPresent(set, "company", update.Company)
	setIfPresent(set, "website", update.Website)
	setIfPresent(set, "location", update.Location)
	setIfPresent(set, "bio", update.Bio)
	setIfPresent(set, "status", update.Status)
	setIfPresent(set, "githubusername", update.GithubUsername)
	setIfPresent(set, "social.youtube", update.Social.YouTube)
	setIfPresent(set, "social.twitter", update.Social.Twitter)
	setIfPresent(set, "social.facebook", update.Social.Facebook)
	setIfPresent(set, "social.linkedin", update.Social.LinkedIn)
	setIfPresent(set, "social.instagram", update.Social.Instagram)

	setOnInsert := bson.M{
		"experience": bson.A{},
		"education":  bson.A{},
		"date":       s.now().UTC(),
	}
	if update.Skills != nil {
		set["skills"] = update.Skills
	} else {
		setOnInsert["skills"] = bson.A{}
	}

	doc := bson.M{"$setOnInsert": setOnInsert}
	if len(set) > 0 {
		doc["$set"] = set
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	filter := bson.M{"user": userID}

	var err error
	for attempt := 0; attempt < 2; attempt++ {
		err = s.coll.FindOneAndUpdate(ctx, filter, doc, opts).Err()
		if err == nil || !mongo.IsDuplicateKeyError(err) {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}

	return s.GetByUser(ctx, userID)
}

func (s *ProfileStore) GetByUser(ctx context.Context, userID primitive.ObjectID) (*models.Profile, error) {
	profiles, err := s.aggregate(ctx, bson.D{{Key: "user", Value: userID}})
	if err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, models.ErrNotFound
	}
	return &profiles[0], nil
}

func (s *ProfileStore) List(ctx context.Context) ([]models.Profile, error) {
	return s.aggregate(ctx, bson.D{})
}

func (s *ProfileStore) DeleteByUser(ctx context.Context, userID primitive.ObjectID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"user": userID})
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *ProfileStore) PushExperience(ctx context.Context, userID primitive.ObjectID, exp models.Experience) (*models.Profile, error) {
	return s.update(ctx, bson.M{"user": userID}, prepend("experience", exp))
}

func (s *ProfileStore) PullExperience(ctx context.Context, userID, expID primitive.ObjectID) (*models.Profile, error) {
	return s.update(ctx,
		bson.M{"user": userID, "experience._id": expID},
		bson.M{"$pull": bson.M{"experience": bson.M{"_id": expID}}},
	)
}

func (s *ProfileStore) PushEducation(ctx context.Context, userID primitive.ObjectID, edu models.Education) (*models.Profile, error) {
	return s.update(ctx, bson.M{"user": userID}, prepend("education", edu))
}

func (s *ProfileStore) PullEducation(ctx context.Context, userID, eduID primitive.ObjectID) (*models.Profile, error) {
	return s.update(ctx,
		bson.M{"user": userID, "education._id": eduID},
		bson.M{"$pull": bson.M{"education": bson.M{"_id": eduID}}},
	)
}

// update runs a conditional UpdateOne and returns the profile as it is afterwards.
func (s *ProfileStore) update(ctx context.Context, filter, update bson.M) (*models.Profile, error) {
	res, err := s.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, models.ErrNotFound
	}
	userID, _ := filter["user"].(primitive.ObjectID)
	return s.GetByUser(ctx, userID)
}

// aggregate reads profiles and joins the owner's public name and avatar.
func (s *ProfileStore) aggregate(ctx context.Context, match bson.D) ([]models.Profile, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "date", Value: 1}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: s.usersColl},
			{Key: "localField", Value: "user"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "owner"},
		}}},
		{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$owner"},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "owner.email", Value: 0},
			{Key: "owner.password", Value: 0},
			{Key: "owner.date", Value: 0},
		}}},
	}

	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate profiles: %w", err)
	}
	defer cursor.Close(ctx)

	profiles := []models.Profile{}
	if err := cursor.All(ctx, &profiles); err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}
	return profiles, nil
}

func prepend(field string, entry interface{}) bson.M {
	return bson.M{"$push": bson.M{field: bson.M{
		"$each":     bson.A{entry},
		"$position": 0,
	}}}
}

func setIfPresent(set bson.M, key, value string) {
	if value != "" {
		set[key] = value
	}
}
