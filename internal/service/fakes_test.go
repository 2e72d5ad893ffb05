package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sumire/lmsauth/internal/domain"
	"github.com/sumire/lmsauth/internal/provider"
)

type memClients map[string]*domain.Client

func (m memClients) FindByClientID(_ context.Context, id string) (*domain.Client, error) {
	c, ok := m[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

type memIdentities struct {
	items []domain.LinkedIdentity
	err   error
}

func (m *memIdentities) FindByProviderUID(_ context.Context, p, uid string) (*domain.LinkedIdentity, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.items {
		if m.items[i].Provider == p && m.items[i].UID == uid {
			return &m.items[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

type memUsers struct {
	mu    sync.Mutex
	items map[int64]*domain.User
}

func newMemUsers(users ...*domain.User) *memUsers {
	m := &memUsers{items: make(map[int64]*domain.User)}
	for _, u := range users {
		m.items[u.ID] = u
	}
	return m
}

func (m *memUsers) FindByID(_ context.Context, id int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.items {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memUsers) UpdateProfile(_ context.Context, user domain.User) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[user.ID]; !ok {
		return nil, domain.ErrNotFound
	}
	cp := user
	m.items[user.ID] = &cp
	return &user, nil
}

type memTokens struct {
	mu     sync.Mutex
	items  []domain.IssuedToken
	nextID int64
	err    error
}

func (m *memTokens) Create(_ context.Context, t domain.IssuedToken) (*domain.IssuedToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.nextID++
	t.ID = m.nextID
	t.CreatedAt = time.Now()
	m.items = append(m.items, t)
	return &t, nil
}

func (m *memTokens) FindUnexpired(_ context.Context, userID int64, clientID, scope string, now time.Time) (*domain.IssuedToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.items) - 1; i >= 0; i-- {
		t := m.items[i]
		if t.UserID == userID && t.ClientID == clientID && t.Scope == scope && t.ExpiresAt.After(now) {
			return &t, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memTokens) FindByToken(_ context.Context, token string) (*domain.IssuedToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.items {
		if t.Token == token {
			return &t, nil
		}
	}
	return nil, domain.ErrNotFound
}

// fakeFetcher answers userinfo calls from a table of valid access tokens.
type fakeFetcher struct {
	uids  map[string]string
	calls int
}

func (f *fakeFetcher) FetchUID(_ context.Context, _ provider.Config, accessToken string) (string, error) {
	f.calls++
	uid, ok := f.uids[accessToken]
	if !ok {
		return "", errors.New("userinfo returned status 400")
	}
	return uid, nil
}
