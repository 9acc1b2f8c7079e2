package localauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/Phoethar22452/supabase-task-tracker/internal/domain"
	"github.com/Phoethar22452/supabase-task-tracker/internal/infra/eventhub"
)

// ErrUnknownRefreshToken is returned by UserStore.ConsumeRefreshToken.
var ErrUnknownRefreshToken = errors.New("refresh token not found")

// UserStore persists users and refresh tokens.
type UserStore interface {
	// CreateUser stores a new user. It returns domain.ErrUserExists on a duplicate email.
	CreateUser(ctx context.Context, email string, passwordHash []byte) (domain.User, error)

	// FindUser returns the user and password hash for email.
	// It returns domain.ErrInvalidCredential when no user matches.
	FindUser(ctx context.Context, email string) (domain.User, []byte, error)

	// SaveRefreshToken records a refresh token for the user.
	SaveRefreshToken(ctx context.Context, token string, user domain.User, s *domain.Session) error

	// ConsumeRefreshToken deletes the token and returns its user.
	ConsumeRefreshToken(ctx context.Context, token string) (domain.User, error)

	// RevokeRefreshTokens deletes every refresh token of the user.
	RevokeRefreshTokens(ctx context.Context, userID string) error
}

// Ensure Service implements domain.IdentityService.
var _ domain.IdentityService = (*Service)(nil)

// Service is a self-hosted identity service.
// Fields are ordered to minimize memory padding.
type Service struct {
	users    UserStore
	sessions domain.SessionStore
	issuer   *Issuer
	clock    domain.Clock
	hub      *eventhub.Hub
	logger   *slog.Logger
	session  *domain.Session
	mu       sync.Mutex
	loaded   bool
}

// New creates a Service.
func New(users UserStore, sessions domain.SessionStore, issuer *Issuer, clock domain.Clock, logger *slog.Logger) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		issuer:   issuer,
		clock:    clock,
		hub:      eventhub.New(),
		logger:   logger,
	}
}

// current returns the session, loading and verifying it once. Caller holds mu.
func (s *Service) current() *domain.Session {
	if s.loaded {
		return s.session
	}
	s.loaded = true
	stored, err := s.sessions.Load()
	if err != nil {
		s.logger.Warn("load session", "error", err)
		return nil
	}
	if stored == nil {
		return nil
	}
	if _, err := s.issuer.Verify(stored.AccessToken); err != nil {
		s.logger.Info("discarding stored session", "error", err)
		return nil
	}
	s.session = stored
	return stored
}

// AccessToken returns the current access token, or "".
func (s *Service) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur := s.current(); cur != nil {
		return cur.AccessToken
	}
	return ""
}

// GetSession returns the current session, rotating the refresh token
// when the access token has expired.
func (s *Service) GetSession(ctx context.Context) (*domain.Session, error) {
	s.mu.Lock()
	cur := s.current()
	s.mu.Unlock()

	if cur == nil || !cur.Expired(s.clock.Now()) {
		return cur, nil
	}

	user, err := s.users.ConsumeRefreshToken(ctx, cur.RefreshToken)
	if err != nil {
		if errors.Is(err, ErrUnknownRefreshToken) {
			s.setSession(nil, domain.AuthSignedOut)
			return nil, nil
		}
		return nil, fmt.Errorf("refresh session: %w", err)
	}
	next, err := s.issue(ctx, user)
	if err != nil {
		return nil, err
	}
	s.setSession(next, domain.AuthTokenRefreshed)
	return next, nil
}

func (s *Service) issue(ctx context.Context, user domain.User) (*domain.Session, error) {
	session, err := s.issuer.Issue(user)
	if err != nil {
		return nil, err
	}
	if err := s.users.SaveRefreshToken(ctx, session.RefreshToken, user, session); err != nil {
		return nil, fmt.Errorf("save refresh token: %w", err)
	}
	return session, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp registers and signs in a user.
func (s *Service) SignUp(ctx context.Context, email, password string) (*domain.Session, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user, err := s.users.CreateUser(ctx, normalizeEmail(email), hash)
	if err != nil {
		return nil, err
	}
	session, err := s.issue(ctx, user)
	if err != nil {
		return nil, err
	}
	s.setSession(session, domain.AuthSignedIn)
	return session, nil
}

// SignIn authenticates with email and password.
func (s *Service) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	user, hash, err := s.users.FindUser(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
		return nil, domain.ErrInvalidCredential
	}
	session, err := s.issue(ctx, user)
	if err != nil {
		return nil, err
	}
	s.setSession(session, domain.AuthSignedIn)
	return session, nil
}

// SignOut revokes the user's refresh tokens and clears the session.
func (s *Service) SignOut(ctx context.Context) error {
	s.mu.Lock()
	cur := s.current()
	s.mu.Unlock()

	if cur != nil {
		if err := s.users.RevokeRefreshTokens(ctx, cur.User.ID); err != nil {
			return fmt.Errorf("revoke refresh tokens: %w", err)
		}
	}
	s.setSession(nil, domain.AuthSignedOut)
	return nil
}

// Subscribe delivers an AuthChangeEvent per identity change, starting
// with INITIAL_SESSION.
func (s *Service) Subscribe(ctx context.Context) (domain.Subscription, error) {
	s.mu.Lock()
	initial := domain.AuthChangeEvent{Kind: domain.AuthInitialSession, Session: s.current()}
	s.mu.Unlock()
	return s.hub.Subscribe(ctx, eventhub.AuthChanges, initial), nil
}

func (s *Service) setSession(session *domain.Session, kind domain.AuthEventKind) {
	s.mu.Lock()
	s.loaded = true
	s.session = session
	s.mu.Unlock()

	if err := s.sessions.Save(session); err != nil {
		s.logger.Warn("persist session", "error", err)
	}
	s.hub.Publish(domain.AuthChangeEvent{Kind: kind, Session: session})
}
