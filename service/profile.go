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

// ProfileInput is the body of a create-or-update profile request. Empty fields are left as they are.
type ProfileInput struct {
	Company        string `json:"company"`
	Website        string `json:"website"`
	Location       string `json:"location"`
	Bio            string `json:"bio"`
	Status         string `json:"status" validate:"required"`
	GithubUsername string `json:"githubusername"`
	// Skills is a comma-separated list, e.g. "go, rust".
	Skills    string `json:"skills"`
	YouTube   string `json:"youtube"`
	Twitter   string `json:"twitter"`
	Facebook  string `json:"facebook"`
	LinkedIn  string `json:"linkedin"`
	Instagram string `json:"instagram"`
}

type ExperienceInput struct {
	Title       string       `json:"title" validate:"required"`
	Company     string       `json:"company" validate:"required"`
	Location    string       `json:"location"`
	From        models.Date  `json:"from" validate:"required"`
	To          *models.Date `json:"to"`
	Current     bool         `json:"current"`
	Description string       `json:"description"`
}

type EducationInput struct {
	School       string       `json:"school" validate:"required"`
	Degree       string       `json:"degree" validate:"required"`
	FieldOfStudy string       `json:"fieldofstudy" validate:"required"`
	From         models.Date  `json:"from" validate:"required"`
	To           *models.Date `json:"to"`
	Current      bool         `json:"current"`
	Description  string       `json:"description"`
}

type Profiles struct {
	users    UserStore
	profiles ProfileStore
	posts    PostStore
	logger   *logger.Logger
}

func NewProfiles(users UserStore, profiles ProfileStore, posts PostStore, logger *logger.Logger) *Profiles {
	return &Profiles{users: users, profiles: profiles, posts: posts, logger: logger}
}

// SplitSkills turns "go, rust,," into ["go", "rust"].
func SplitSkills(raw string) []string {
	parts := strings.Split(raw, ",")
	skills := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			skills = append(skills, s)
		}
	}
	return skills
}

// Upsert creates the user's profile or applies the provided fields to the existing one.
func (s *Profiles) Upsert(ctx context.Context, userID primitive.ObjectID, in ProfileInput) (*models.Profile, error) {
	in.Status = strings.TrimSpace(in.Status)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	update := models.ProfileUpdate{
		Company:        strings.TrimSpace(in.Company),
		Website:        strings.TrimSpace(in.Website),
		Location:       strings.TrimSpace(in.Location),
		Bio:            strings.TrimSpace(in.Bio),
		Status:         in.Status,
		GithubUsername: strings.TrimSpace(in.GithubUsername),
		Social: models.Social{
			YouTube:   strings.TrimSpace(in.YouTube),
			Twitter:   strings.TrimSpace(in.Twitter),
			Facebook:  strings.TrimSpace(in.Facebook),
			LinkedIn:  strings.TrimSpace(in.LinkedIn),
			Instagram: strings.TrimSpace(in.Instagram),
		},
	}
	if strings.TrimSpace(in.Skills) != "" {
		update.Skills = SplitSkills(in.Skills)
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NewNotFoundError("User")
		}
		return nil, models.NewStorageError("get user", err)
	}

	profile, err := s.profiles.Upsert(ctx, userID, update)
	if errors.Is(err, models.ErrNotFound) {
		// The account was removed between the owner check and the write.
		return nil, models.NewNotFoundError("User")
	}
	if err != nil {
		return nil, models.NewStorageError("upsert profile", err)
	}

	s.logger.Info("Profile service: profile saved", "user_id", userID.Hex(), "profile_id", profile.ID.Hex())

	return normalizeProfile(profile), nil
}

func (s *Profiles) GetOwn(ctx context.Context, userID primitive.ObjectID) (*models.Profile, error) {
	return s.GetByUser(ctx, userID)
}

func (s *Profiles) GetByUser(ctx context.Context, userID primitive.ObjectID) (*models.Profile, error) {
	profile, err := s.profiles.GetByUser(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.NewNotFoundError("Profile")
	}
	if err != nil {
		return nil, models.NewStorageError("get profile", err)
	}
	return normalizeProfile(profile), nil
}

func (s *Profiles) List(ctx context.Context) ([]models.Profile, error) {
	profiles, err := s.profiles.List(ctx)
	if err != nil {
		return nil, models.NewStorageError("list profiles", err)
	}
	if profiles == nil {
		profiles = []models.Profile{}
	}
	for i := range profiles {
		normalizeProfile(&profiles[i])
	}
	return profiles, nil
}

// DeleteAccount removes the user's posts, profile and user record, in that order.
// The steps are not transactional: a failure part-way leaves earlier deletions in place.
func (s *Profiles) DeleteAccount(ctx context.Context, userID primitive.ObjectID) error {
	removed, err := s.posts.DeleteByUser(ctx, userID)
	if err != nil {
		s.logger.Error("Profile service: failed to delete posts", "user_id", userID.Hex(), "error", err.Error())
		return models.NewStorageError("delete account: posts", err)
	}

	if err := s.profiles.DeleteByUser(ctx, userID); err != nil && !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("Profile service: failed to delete profile", "user_id", userID.Hex(),
			"posts_removed", removed, "error", err.Error())
		return models.NewStorageError("delete account: profile", err)
	}

	err = s.users.Delete(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		return models.NewNotFoundError("User")
	}
	if err != nil {
		s.logger.Error("Profile service: failed to delete user", "user_id", userID.Hex(),
			"posts_removed", removed, "error", err.Error())
		return models.NewStorageError("delete account: user", err)
	}

	s.logger.Info("Profile service: account deleted", "user_id", userID.Hex(), "posts_removed", removed)

	return nil
}

func (s *Profiles) AddExperience(ctx context.Context, userID primitive.ObjectID, in ExperienceInput) (*models.Profile, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Company = strings.TrimSpace(in.Company)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	to, err := endDate(in.From, in.To, in.Current)
	if err != nil {
		return nil, err
	}

	exp := models.Experience{
		ID:          primitive.NewObjectID(),
		Title:       in.Title,
		Company:     in.Company,
		Location:    strings.TrimSpace(in.Location),
		From:        in.From.Time,
		To:          to,
		Current:     in.Current,
		Description: strings.TrimSpace(in.Description),
	}

	profile, err := s.profiles.PushExperience(ctx, userID, exp)
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.NewNotFoundError("Profile")
	}
	if err != nil {
		return nil, models.NewStorageError("add experience", err)
	}
	return normalizeProfile(profile), nil
}

func (s *Profiles) RemoveExperience(ctx context.Context, userID, expID primitive.ObjectID) (*models.Profile, error) {
	profile, err := s.profiles.PullExperience(ctx, userID, expID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, s.missingEntry(ctx, userID, "Experience")
	}
	if err != nil {
		return nil, models.NewStorageError("remove experience", err)
	}
	return normalizeProfile(profile), nil
}

func (s *Profiles) AddEducation(ctx context.Context, userID primitive.ObjectID, in EducationInput) (*models.Profile, error) {
	in.School = strings.TrimSpace(in.School)
	in.Degree = strings.TrimSpace(in.Degree)
	in.FieldOfStudy = strings.TrimSpace(in.FieldOfStudy)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	to, err := endDate(in.From, in.To, in.Current)
	if err != nil {
		return nil, err
	}

	edu := models.Education{
		ID:           primitive.NewObjectID(),
		School:       in.School,
		Degree:       in.Degree,
		FieldOfStudy: in.FieldOfStudy,
		From:         in.From.Time,
		To:           to,
		Current:      in.Current,
		Description:  strings.TrimSpace(in.Description),
	}

	profile, err := s.profiles.PushEducation(ctx, userID, edu)
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.NewNotFoundError("Profile")
	}
	if err != nil {
		return nil, models.NewStorageError("add education", err)
	}
	return normalizeProfile(profile), nil
}

func (s *Profiles) RemoveEducation(ctx context.Context, userID, eduID primitive.ObjectID) (*models.Profile, error) {
	profile, err := s.profiles.PullEducation(ctx, userID, eduID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, s.missingEntry(ctx, userID, "Education")
	}
	if err != nil {
		return nil, models.NewStorageError("remove education", err)
	}
	return normalizeProfile(profile), nil
}

// missingEntry tells a missing profile apart from a missing sub-list entry.
func (s *Profiles) missingEntry(ctx context.Context, userID primitive.ObjectID, entry string) error {
	_, err := s.profiles.GetByUser(ctx, userID)
	switch {
	case errors.Is(err, models.ErrNotFound):
		return models.NewNotFoundError("Profile")
	case err != nil:
		return models.NewStorageError("get profile", err)
	default:
		return models.NewNotFoundError(entry)
	}
}

// endDate drops the end date of a current position and rejects one that precedes the start.
func endDate(from models.Date, to *models.Date, current bool) (*time.Time, error) {
	if current || to == nil || to.IsZero() {
		return nil, nil
	}
	if to.Before(from.Time) {
		return nil, models.NewValidationError("to must not be before from",
			map[string]string{"to": "to must not be before from"})
	}
	t := to.Time
	return &t, nil
}

func normalizeProfile(p *models.Profile) *models.Profile {
	if p.Skills == nil {
		p.Skills = []string{}
	}
	if p.Experience == nil {
		p.Experience = []models.Experience{}
	}
	if p.Education == nil {
		p.Education = []models.Education{}
	}
	return p
}
