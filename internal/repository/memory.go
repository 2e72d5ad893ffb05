package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sumire/lmsauth/internal/domain"
)

// MemoryStore keeps users, clients, linked identities and tokens in memory.
// It serves local development and tests and is safe for concurrent use.
type MemoryStore struct {
	mu         sync.RWMutex
	users      map[int64]domain.User
	clients    map[string]domain.Client
	identities []domain.LinkedIdentity
	tokens     map[string]domain.IssuedToken
	nextUserID int64
	nextID     int64
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[int64]domain.User),
		clients: make(map[string]domain.Client),
		tokens:  make(map[string]domain.IssuedToken),
	}
}

// AddUser stores user, assigning an ID when it has none.
func (s *MemoryStore) AddUser(user domain.User) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.ID == 0 {
		s.nextUserID++
		user.ID = s.nextUserID
	} else if user.ID > s.nextUserID {
		s.nextUserID = user.ID
	}
	if user.DateJoined.IsZero() {
		user.DateJoined = time.Now().UTC()
	}
	s.users[user.ID] = user
	return user
}

// AddClient registers an OAuth client.
func (s *MemoryStore) AddClient(client domain.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[client.ClientID] = client
}

// LinkIdentity links a provider UID to a user. A user has at most one
// identity per provider and a (provider, uid) pair maps to one user.
func (s *MemoryStore) LinkIdentity(provider, uid string, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, li := range s.identities {
		if li.Provider == provider && (li.UID == uid || li.UserID == userID) {
			return fmt.Errorf("link %s/%s: %w", provider, uid, domain.ErrConflict)
		}
	}
	s.nextID++
	s.identities = append(s.identities, domain.LinkedIdentity{
		ID:        s.nextID,
		Provider:  provider,
		UID:       uid,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

// UnlinkAll removes every linked identity.
func (s *MemoryStore) UnlinkAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identities = nil
}

func (s *MemoryStore) FindByID(_ context.Context, id int64) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &user, nil
}

func (s *MemoryStore) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.Username == username {
			return &user, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *MemoryStore) UpdateProfile(_ context.Context, user domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.users[user.ID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	user.Username = existing.Username
	user.IsStaff = existing.IsStaff
	user.IsActive = existing.IsActive
	user.DateJoined = existing.DateJoined
	user.UpdatedAt = time.Now().UTC()
	s.users[user.ID] = user
	return &user, nil
}

func (s *MemoryStore) FindByClientID(_ context.Context, clientID string) (*domain.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	client, ok := s.clients[clientID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &client, nil
}

func (s *MemoryStore) FindByProviderUID(_ context.Context, provider, uid string) (*domain.LinkedIdentity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, li := range s.identities {
		if li.Provider == provider && li.UID == uid {
			return &li, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *MemoryStore) Create(_ context.Context, token domain.IssuedToken) (*domain.IssuedToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tokens[token.Token]; exists {
		return nil, fmt.Errorf("create access token: %w", domain.ErrConflict)
	}
	s.nextID++
	token.ID = s.nextID
	token.CreatedAt = time.Now().UTC()
	s.tokens[token.Token] = token
	return &token, nil
}

func (s *MemoryStore) FindUnexpired(_ context.Context, userID int64, clientID, scope string, now time.Time) (*domain.IssuedToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best *domain.IssuedToken
	for _, t := range s.tokens {
		if t.UserID != userID || t.ClientID != clientID || t.Scope != scope || !t.ExpiresAt.After(now) {
			continue
		}
		if best == nil || t.ExpiresAt.After(best.ExpiresAt) {
			cp := t
			best = &cp
		}
	}
	if best == nil {
		return nil, domain.ErrNotFound
	}
	return best, nil
}

func (s *MemoryStore) FindByToken(_ context.Context, token string) (*domain.IssuedToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tokens[token]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}
