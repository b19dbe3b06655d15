// Package testutil provides in-memory stores and helpers for tests.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Dakudbilla/DevConnect/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Stores groups in-memory stores sharing one user table so that
// profile reads can attach the owner like the Mongo lookup does.
type Stores struct {
	Users    *UserStore
	Profiles *ProfileStore
	Posts    *PostStore
}

func NewStores() *Stores {
	users := &UserStore{byID: map[primitive.ObjectID]models.User{}}
	return &Stores{
		Users:    users,
		Profiles: &ProfileStore{users: users, byUser: map[primitive.ObjectID]models.Profile{}},
		Posts:    &PostStore{byID: map[primitive.ObjectID]models.Post{}},
	}
}

type UserStore struct {
	mu   sync.RWMutex
	byID map[primitive.ObjectID]models.User
}

func (s *UserStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.byID {
		if u.Email == user.Email {
			return models.ErrDuplicateUser
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	s.byID[user.ID] = *user
	return nil
}

func (s *UserStore) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &u, nil
}

func (s *UserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.byID {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *UserStore) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return models.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

func (s *UserStore) summary(id primitive.ObjectID) *models.UserSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil
	}
	return &models.UserSummary{ID: u.ID, Name: u.Name, Avatar: u.Avatar}
}

type ProfileStore struct {
	users  *UserStore
	mu     sync.RWMutex
	byUser map[primitive.ObjectID]models.Profile
}

func (s *ProfileStore) Upsert(_ context.Context, userID primitive.ObjectID, u models.ProfileUpdate) (*models.Profile, error) {
	s.mu.Lock()
	p, ok := s.byUser[userID]
	if !ok {
		p = models.Profile{
			ID:         primitive.NewObjectID(),
			UserID:     userID,
			Skills:     []string{},
			Experience: []models.Experience{},
			Education:  []models.Education{},
			CreatedAt:  time.Now().UTC(),
		}
	}
	setIf(&p.Company, u.Company)
	setIf(&p.Website, u.Website)
	setIf(&p.Location, u.Location)
	setIf(&p.Bio, u.Bio)
	setIf(&p.Status, u.Status)
	setIf(&p.GithubUsername, u.GithubUsername)
	if u.Skills != nil {
		p.Skills = append([]string{}, u.Skills...)
	}
	setIf(&p.Social.YouTube, u.Social.YouTube)
	setIf(&p.Social.Twitter, u.Social.Twitter)
	setIf(&p.Social.Facebook, u.Social.Facebook)
	setIf(&p.Social.LinkedIn, u.Social.LinkedIn)
	setIf(&p.Social.Instagram, u.Social.Instagram)
	s.byUser[userID] = p
	s.mu.Unlock()

	return s.view(p), nil
}

func (s *ProfileStore) GetByUser(_ context.Context, userID primitive.ObjectID) (*models.Profile, error) {
	s.mu.RLock()
	p, ok := s.byUser[userID]
	s.mu.RUnlock()
	if !ok {
		return nil, models.ErrNotFound
	}
	return s.view(p), nil
}

func (s *ProfileStore) List(_ context.Context) ([]models.Profile, error) {
	s.mu.RLock()
	all := make([]models.Profile, 0, len(s.byUser))
	for _, p := range s.byUser {
		all = append(all, p)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })
	out := make([]models.Profile, 0, len(all))
	for _, p := range all {
		out = append(out, *s.view(p))
	}
	return out, nil
}

func (s *ProfileStore) DeleteByUser(_ context.Context, userID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byUser[userID]; !ok {
		return models.ErrNotFound
	}
	delete(s.byUser, userID)
	return nil
}

func (s *ProfileStore) PushExperience(_ context.Context, userID primitive.ObjectID, exp models.Experience) (*models.Profile, error) {
	return s.mutate(userID, func(p *models.Profile) bool {
		p.Experience = append([]models.Experience{exp}, p.Experience...)
		return true
	})
}

func (s *ProfileStore) PullExperience(_ context.Context, userID, expID primitive.ObjectID) (*models.Profile, error) {
	return s.mutate(userID, func(p *models.Profile) bool {
		for i, e := range p.Experience {
			if e.ID == expID {
				p.Experience = append(append([]models.Experience{}, p.Experience[:i]...), p.Experience[i+1:]...)
				return true
			}
		}
		return false
	})
}

func (s *ProfileStore) PushEducation(_ context.Context, userID primitive.ObjectID, edu models.Education) (*models.Profile, error) {
	return s.mutate(userID, func(p *models.Profile) bool {
		p.Education = append([]models.Education{edu}, p.Education...)
		return true
	})
}

func (s *ProfileStore) PullEducation(_ context.Context, userID, eduID primitive.ObjectID) (*models.Profile, error) {
	return s.mutate(userID, func(p *models.Profile) bool {
		for i, e := range p.Education {
			if e.ID == eduID {
				p.Education = append(append([]models.Education{}, p.Education[:i]...), p.Education[i+1:]...)
				return true
			}
		}
		return false
	})
}

// mutate applies fn to the stored profile and keeps the change only if fn reports a match.
func (s *ProfileStore) mutate(userID primitive.ObjectID, fn func(p *models.Profile) bool) (*models.Profile, error) {
	s.mu.Lock()
	p, ok := s.byUser[userID]
	if !ok {
		s.mu.Unlock()
		return nil, models.ErrNotFound
	}
	p = copyProfile(p)
	if !fn(&p) {
		s.mu.Unlock()
		return nil, models.ErrNotFound
	}
	s.byUser[userID] = p
	s.mu.Unlock()

	return s.view(p), nil
}

func (s *ProfileStore) view(p models.Profile) *models.Profile {
	out := copyProfile(p)
	out.Owner = s.users.summary(p.UserID)
	return &out
}

type PostStore struct {
	mu   sync.RWMutex
	byID map[primitive.ObjectID]models.Post
}

func (s *PostStore) Create(_ context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if post.ID.IsZero() {
		post.ID = primitive.NewObjectID()
	}
	s.byID[post.ID] = copyPost(*post)
	return nil
}

func (s *PostStore) GetByID(_ context.Context, id primitive.ObjectID) (*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := copyPost(p)
	return &out, nil
}

func (s *PostStore) List(_ context.Context) ([]models.Post, error) {
	s.mu.RLock()
	out := make([]models.Post, 0, len(s.byID))
	for _, p := range s.byID {
		out = append(out, copyPost(p))
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.Hex() > out[j].ID.Hex()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *PostStore) Delete(_ context.Context, id, authorID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[id]
	if !ok || p.UserID != authorID {
		return models.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

func (s *PostStore) DeleteByUser(_ context.Context, userID primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, p := range s.byID {
		if p.UserID == userID {
			delete(s.byID, id)
			n++
		}
	}
	return n, nil
}

func (s *PostStore) AddLike(_ context.Context, postID, userID primitive.ObjectID) (*models.Post, error) {
	return s.mutate(postID, func(p *models.Post) bool {
		if p.HasLike(userID) {
			return false
		}
		p.Likes = append([]models.Like{{UserID: userID}}, p.Likes...)
		return true
	})
}

func (s *PostStore) RemoveLike(_ context.Context, postID, userID primitive.ObjectID) (*models.Post, error) {
	return s.mutate(postID, func(p *models.Post) bool {
		for i, l := range p.Likes {
			if l.UserID == userID {
				p.Likes = append(p.Likes[:i:i], p.Likes[i+1:]...)
				return true
			}
		}
		return false
	})
}

func (s *PostStore) AddComment(_ context.Context, postID primitive.ObjectID, comment models.Comment) (*models.Post, error) {
	return s.mutate(postID, func(p *models.Post) bool {
		p.Comments = append([]models.Comment{comment}, p.Comments...)
		return true
	})
}

func (s *PostStore) RemoveComment(_ context.Context, postID, commentID, authorID primitive.ObjectID) (*models.Post, error) {
	return s.mutate(postID, func(p *models.Post) bool {
		for i, c := range p.Comments {
			if c.ID == commentID && c.UserID == authorID {
				p.Comments = append(p.Comments[:i:i], p.Comments[i+1:]...)
				return true
			}
		}
		return false
	})
}

func (s *PostStore) mutate(postID primitive.ObjectID, fn func(p *models.Post) bool) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[postID]
	if !ok {
		return nil, models.ErrNotFound
	}
	p = copyPost(p)
	if !fn(&p) {
		return nil, models.ErrNotFound
	}
	s.byID[postID] = p
	out := copyPost(p)
	return &out, nil
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func copyProfile(p models.Profile) models.Profile {
	p.Skills = append([]string{}, p.Skills...)
	p.Experience = append([]models.Experience{}, p.Experience...)
	p.Education = append([]models.Education{}, p.Education...)
	return p
}

func copyPost(p models.Post) models.Post {
	p.Likes = append([]models.Like{}, p.Likes...)
	p.Comments = append([]models.Comment{}, p.Comments...)
	return p
}
