package handlers

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"sort"
	"sync"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/internal/reaction"
	"github.com/anonto42/nano-social/backend/internal/repositories"
)

// memStore implements the user, post, reaction and account repositories in memory.
type memStore struct {
	mu         sync.Mutex
	users      map[uint]models.User
	posts      map[uint]models.Post
	likes      map[uint]map[uint]bool
	dislikes   map[uint]map[uint]bool
	nextUserID uint
	nextPostID uint
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[uint]models.User{},
		posts:    map[uint]models.Post{},
		likes:    map[uint]map[uint]bool{},
		dislikes: map[uint]map[uint]bool{},
	}
}

func (s *memStore) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return repositories.ErrDuplicateEmail
		}
	}
	s.nextUserID++
	user.ID = s.nextUserID
	s.users[user.ID] = *user
	return nil
}

func (s *memStore) GetUserByID(_ context.Context, id uint) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	return &u, nil
}

func (s *memStore) findUser(match func(models.User) bool) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (s *memStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	return s.findUser(func(u models.User) bool { return u.Email == email })
}

func (s *memStore) GetUserByFirebaseUID(_ context.Context, uid string) (*models.User, error) {
	return s.findUser(func(u models.User) bool { return u.FirebaseUID != nil && *u.FirebaseUID == uid })
}

func (s *memStore) GetUsersByIDs(_ context.Context, ids []uint) (map[uint]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[uint]models.User{}
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (s *memStore) UpdateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return repositories.ErrUserNotFound
	}
	s.users[user.ID] = *user
	return nil
}

func (s *memStore) CreatePost(_ context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextPostID++
	post.ID = s.nextPostID
	post.CreatedAt = time.Now()
	s.posts[post.ID] = *post
	return nil
}

func (s *memStore) GetPostByID(_ context.Context, id uint) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, repositories.ErrPostNotFound
	}
	return &p, nil
}

func (s *memStore) ListPosts(_ context.Context, filter models.PostFilter) ([]models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Post{}
	for _, p := range s.posts {
		if filter.AuthorID == nil || p.AuthorID == *filter.AuthorID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if filter.Skip >= len(out) {
		return []models.Post{}, nil
	}
	out = out[filter.Skip:]
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *memStore) DeletePost(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[id]; !ok {
		return repositories.ErrPostNotFound
	}
	delete(s.posts, id)
	delete(s.likes, id)
	delete(s.dislikes, id)
	return nil
}

func (s *memStore) Toggle(_ context.Context, postID, userID uint, action reaction.Action) (*reaction.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[postID]; !ok {
		return nil, repositories.ErrPostNotFound
	}
	if s.likes[postID] == nil {
		s.likes[postID] = map[uint]bool{}
	}
	if s.dislikes[postID] == nil {
		s.dislikes[postID] = map[uint]bool{}
	}
	next := reaction.Apply(reaction.StateOf(s.likes[postID][userID], s.dislikes[postID][userID]), action)
	delete(s.likes[postID], userID)
	delete(s.dislikes[postID], userID)
	switch next {
	case reaction.Liked:
		s.likes[postID][userID] = true
	case reaction.Disliked:
		s.dislikes[postID][userID] = true
	}
	return &reaction.Summary{
		LikesCount:    int64(len(s.likes[postID])),
		DislikesCount: int64(len(s.dislikes[postID])),
		Viewer:        next,
	}, nil
}

func (s *memStore) Summaries(_ context.Context, postIDs []uint, viewerID uint) (map[uint]reaction.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[uint]reaction.Summary{}
	for _, id := range postIDs {
		sum := reaction.Summary{
			LikesCount:    int64(len(s.likes[id])),
			DislikesCount: int64(len(s.dislikes[id])),
			Viewer:        reaction.Neutral,
		}
		if viewerID != 0 {
			sum.Viewer = reaction.StateOf(s.likes[id][viewerID], s.dislikes[id][viewerID])
		}
		out[id] = sum
	}
	return out, nil
}

func (s *memStore) DeleteAccount(_ context.Context, userID uint) (*repositories.DeletedAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	acct := &repositories.DeletedAccount{User: u}
	for id, p := range s.posts {
		if p.AuthorID == userID {
			acct.Posts = append(acct.Posts, p)
			delete(s.posts, id)
			delete(s.likes, id)
			delete(s.dislikes, id)
		}
	}
	for _, set := range s.likes {
		delete(set, userID)
	}
	for _, set := range s.dislikes {
		delete(set, userID)
	}
	delete(s.users, userID)
	return acct, nil
}

// memMedia records saved uploads.
type memMedia struct {
	mu    sync.Mutex
	files map[string]bool
	n     int
}

func newMemMedia() *memMedia {
	return &memMedia{files: map[string]bool{}}
}

func (m *memMedia) Save(_ context.Context, folder string, file *multipart.FileHeader) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.n++
	url := fmt.Sprintf("/media/%s/%d%s", folder, m.n, filepath.Ext(file.Filename))
	m.files[url] = true
	return url, nil
}

func (m *memMedia) Delete(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, url)
	return nil
}

func (m *memMedia) has(url string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.files[url]
}

// fakeVerifier accepts ID tokens it was seeded with.
type fakeVerifier struct {
	tokens map[string]*fbauth.Token
}

func (f *fakeVerifier) VerifyIDToken(_ context.Context, idToken string) (*fbauth.Token, error) {
	tok, ok := f.tokens[idToken]
	if !ok {
		return nil, errors.New("id token has invalid signature")
	}
	return tok, nil
}
