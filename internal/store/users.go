package store

import (
	"fmt"
	"log"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/google/uuid"
)

// User is an account that owns view history.
type User struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	LastDatasetID string `json:"last_dataset_id,omitempty"`
}

// UserStore persists users in one JSON file.
type UserStore struct {
	mu    sync.Mutex
	fs    billy.Filesystem
	path  string
	users []User
}

// NewUserStore loads (or initializes) the user file. A store with no
// users gets a generated default user so a fresh install works at once.
func NewUserStore(fs billy.Filesystem, path string) *UserStore {
	s := &UserStore{fs: fs, path: path}
	var users []User
	if loadOrInit(fs, path, &users) {
		s.users = users
	}
	if len(s.users) == 0 {
		s.users = []User{{ID: uuid.NewString(), Name: "default"}}
		s.save()
	}
	return s
}

func (s *UserStore) save() {
	if err := saveJSON(s.fs, s.path, s.users); err != nil {
		log.Printf("store: save users: %v", err)
	}
}

// Get returns a user by id.
func (s *UserStore) Get(id string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return User{}, fmt.Errorf("user %s: %w", id, ErrNotFound)
}

// DefaultUser returns the first user.
func (s *UserStore) DefaultUser() User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[0]
}

// Find returns all users.
func (s *UserStore) Find() []User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]User(nil), s.users...)
}

// Create adds a user with a generated id.
func (s *UserStore) Create(name string) User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := User{ID: uuid.NewString(), Name: name}
	s.users = append(s.users, u)
	s.save()
	return u
}

// LastDatasetID returns the dataset the user touched last, if any.
func (s *UserStore) LastDatasetID(userID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == userID {
			return u.LastDatasetID, u.LastDatasetID != ""
		}
	}
	return "", false
}

// SetLastDatasetID records the dataset the user touched last.
func (s *UserStore) SetLastDatasetID(userID, datasetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].ID == userID {
			s.users[i].LastDatasetID = datasetID
			s.save()
			return nil
		}
	}
	return fmt.Errorf("user %s: %w", userID, ErrNotFound)
}
