package localauth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Phoethar22452/supabase-task-tracker/internal/domain"
)

// Ensure MemoryUsers implements UserStore.
var _ UserStore = (*MemoryUsers)(nil)

type memoryUser struct {
	user domain.User
	hash []byte
}

type memoryRefresh struct {
	expiresAt time.Time
	user      domain.User
}

// MemoryUsers is an in-process UserStore.
type MemoryUsers struct {
	clock   domain.Clock
	byEmail map[string]memoryUser
	refresh map[string]memoryRefresh
	mu      sync.RWMutex
}

// NewMemoryUsers creates an empty store.
func NewMemoryUsers(clock domain.Clock) *MemoryUsers {
	return &MemoryUsers{
		clock:   clock,
		byEmail: make(map[string]memoryUser),
		refresh: make(map[string]memoryRefresh),
	}
}

// CreateUser stores a new user.
func (m *MemoryUsers) CreateUser(_ context.Context, email string, hash []byte) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[email]; ok {
		return domain.User{}, domain.ErrUserExists
	}
	u := domain.User{ID: uuid.NewString(), Email: email}
	m.byEmail[email] = memoryUser{user: u, hash: hash}
	return u, nil
}

// FindUser returns the user and hash for email.
func (m *MemoryUsers) FindUser(_ context.Context, email string) (domain.User, []byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mu, ok := m.byEmail[email]
	if !ok {
		return domain.User{}, nil, domain.ErrInvalidCredential
	}
	return mu.user, mu.hash, nil
}

// SaveRefreshToken records a refresh token.
func (m *MemoryUsers) SaveRefreshToken(_ context.Context, token string, user domain.User, s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refresh[token] = memoryRefresh{user: user, expiresAt: s.ExpiresAt.Add(RefreshTokenTTL)}
	return nil
}

// ConsumeRefreshToken deletes the token and returns its user.
func (m *MemoryUsers) ConsumeRefreshToken(_ context.Context, token string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.refresh[token]
	if !ok || m.clock.Now().After(r.expiresAt) {
		return domain.User{}, ErrUnknownRefreshToken
	}
	delete(m.refresh, token)
	return r.user, nil
}

// RevokeRefreshTokens deletes the user's refresh tokens.
func (m *MemoryUsers) RevokeRefreshTokens(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for token, r := range m.refresh {
		if r.user.ID == userID {
			delete(m.refresh, token)
		}
	}
	return nil
}
