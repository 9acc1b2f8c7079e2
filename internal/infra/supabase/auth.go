package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Phoethar22452/supabase-task-tracker/internal/domain"
	"github.com/Phoethar22452/supabase-task-tracker/internal/infra/eventhub"
)

// refreshMargin is how long before expiry a session is refreshed.
const refreshMargin = time.Minute

// Ensure Auth implements domain.IdentityService.
var _ domain.IdentityService = (*Auth)(nil)

// Auth is the GoTrue identity adapter. The session is persisted through
// store and every change is published to subscribers.
// Fields are ordered to minimize memory padding.
type Auth struct {
	client  *Client
	store   domain.SessionStore
	clock   domain.Clock
	hub     *eventhub.Hub
	session *domain.Session
	// refreshMu serialises refreshes so a rotated refresh token is used once.
	refreshMu sync.Mutex
	mu        sync.Mutex
	loaded    bool
}

// NewAuth creates the identity adapter and makes it the client's token source.
func NewAuth(client *Client, store domain.SessionStore, clock domain.Clock) *Auth {
	a := &Auth{
		client: client,
		store:  store,
		clock:  clock,
		hub:    eventhub.New(),
	}
	client.SetTokenSource(a.AccessToken)
	client.SetRenewer(a.renew)
	return a
}

// tokenResponse is the body of a GoTrue token or signup response.
type tokenResponse struct {
	User         *userResponse `json:"user"`
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresAt    int64         `json:"expires_at"`
	ExpiresIn    int64         `json:"expires_in"`
	// Signup without auto-confirm returns the user at the top level.
	ID    string `json:"id"`
	Email string `json:"email"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// current returns the in-memory session, loading it from the store once.
// Caller holds mu.
func (a *Auth) current() *domain.Session {
	if !a.loaded {
		a.loaded = true
		if s, err := a.store.Load(); err != nil {
			a.client.logger.Warn("load session", "error", err)
		} else {
			a.session = s
		}
	}
	return a.session
}

// AccessToken returns a usable access token, refreshing the session when
// it is about to expire. It returns "" when signed out. A failed refresh
// keeps the stored token so the request reports the server's error.
func (a *Auth) AccessToken(ctx context.Context) string {
	s, err := a.fresh(ctx)
	if err != nil {
		a.client.logger.Warn("refresh session", "error", err)
		a.mu.Lock()
		s = a.session
		a.mu.Unlock()
	}
	if s == nil {
		return ""
	}
	return s.AccessToken
}

// GetSession returns the current session, refreshing it when it is about to expire.
func (a *Auth) GetSession(ctx context.Context) (*domain.Session, error) {
	return a.fresh(ctx)
}

func (a *Auth) expiring(s *domain.Session) bool {
	return !s.ExpiresAt.IsZero() && !a.clock.Now().Add(refreshMargin).Before(s.ExpiresAt)
}

func (a *Auth) fresh(ctx context.Context) (*domain.Session, error) {
	a.mu.Lock()
	s := a.current()
	a.mu.Unlock()
	if s == nil || !a.expiring(s) {
		return s, nil
	}

	a.refreshMu.Lock()
	defer a.refreshMu.Unlock()

	// Another caller may have refreshed while we waited.
	a.mu.Lock()
	s = a.session
	a.mu.Unlock()
	if s == nil || !a.expiring(s) {
		return s, nil
	}
	return a.refreshLocked(ctx, s)
}

// renew replaces a token the server rejected. It returns the current
// token unchanged if the session was already refreshed past stale.
func (a *Auth) renew(ctx context.Context, stale string) (string, error) {
	a.refreshMu.Lock()
	defer a.refreshMu.Unlock()

	a.mu.Lock()
	s := a.current()
	a.mu.Unlock()
	if s == nil {
		return "", domain.ErrNoSession
	}
	if s.AccessToken != stale {
		return s.AccessToken, nil
	}
	refreshed, err := a.refreshLocked(ctx, s)
	if err != nil {
		return "", err
	}
	if refreshed == nil {
		return "", domain.ErrNoSession
	}
	return refreshed.AccessToken, nil
}

// refreshLocked exchanges the refresh token of s. Caller holds refreshMu.
func (a *Auth) refreshLocked(ctx context.Context, s *domain.Session) (*domain.Session, error) {
	if s.RefreshToken == "" {
		a.setSession(nil, domain.AuthSignedOut)
		return nil, nil
	}

	refreshed, err := a.refresh(ctx, s.RefreshToken)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status < 500 {
			// The refresh token was revoked or already used.
			a.setSession(nil, domain.AuthSignedOut)
		}
		return nil, fmt.Errorf("refresh session: %w", err)
	}
	a.setSession(refreshed, domain.AuthTokenRefreshed)
	return refreshed, nil
}

func (a *Auth) refresh(ctx context.Context, refreshToken string) (*domain.Session, error) {
	var resp tokenResponse
	err := a.client.do(ctx, request{
		method:   http.MethodPost,
		path:     "/auth/v1/token",
		query:    url.Values{"grant_type": {"refresh_token"}},
		body:     map[string]string{"refresh_token": refreshToken},
		bearer:   a.client.anonKey,
		out:      &resp,
		retrying: true,
	})
	if err != nil {
		return nil, err
	}
	return a.sessionFrom(&resp)
}

// SignUp registers a user. A nil session means email confirmation is pending.
func (a *Auth) SignUp(ctx context.Context, email, password string) (*domain.Session, error) {
	var resp tokenResponse
	err := a.client.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/signup",
		body:   credentials{Email: email, Password: password},
		bearer: a.client.anonKey,
		out:    &resp,
	})
	if err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, nil
	}
	s, err := a.sessionFrom(&resp)
	if err != nil {
		return nil, err
	}
	a.setSession(s, domain.AuthSignedIn)
	return s, nil
}

// SignIn authenticates with email and password.
func (a *Auth) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	var resp tokenResponse
	err := a.client.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {"password"}},
		body:   credentials{Email: email, Password: password},
		bearer: a.client.anonKey,
		out:    &resp,
	})
	if err != nil {
		return nil, err
	}
	s, err := a.sessionFrom(&resp)
	if err != nil {
		return nil, err
	}
	a.setSession(s, domain.AuthSignedIn)
	return s, nil
}

// SignOut revokes the session. A token the server no longer knows
// still signs out locally.
func (a *Auth) SignOut(ctx context.Context) error {
	token := a.AccessToken(ctx)
	if token != "" {
		err := a.client.do(ctx, request{
			method: http.MethodPost,
			path:   "/auth/v1/logout",
			bearer: token,
		})
		var apiErr *APIError
		if err != nil && !(errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden || apiErr.Status == http.StatusNotFound)) {
			return err
		}
	}
	a.setSession(nil, domain.AuthSignedOut)
	return nil
}

// Subscribe delivers an AuthChangeEvent per identity change, starting
// with INITIAL_SESSION carrying the stored session. A stored session that
// is about to expire is withheld; GetSession refreshes it and announces
// the result as TOKEN_REFRESHED or SIGNED_OUT.
func (a *Auth) Subscribe(ctx context.Context) (domain.Subscription, error) {
	a.mu.Lock()
	s := a.current()
	a.mu.Unlock()
	if s != nil && a.expiring(s) {
		s = nil
	}
	initial := domain.AuthChangeEvent{Kind: domain.AuthInitialSession, Session: s}
	return a.hub.Subscribe(ctx, eventhub.AuthChanges, initial), nil
}

func (a *Auth) setSession(s *domain.Session, kind domain.AuthEventKind) {
	a.mu.Lock()
	a.loaded = true
	a.session = s
	a.mu.Unlock()

	if err := a.store.Save(s); err != nil {
		a.client.logger.Warn("persist session", "error", err)
	}
	a.hub.Publish(domain.AuthChangeEvent{Kind: kind, Session: s})
}

// sessionFrom builds a session from a token response, filling missing
// fields from the access token's claims.
func (a *Auth) sessionFrom(resp *tokenResponse) (*domain.Session, error) {
	if resp.AccessToken == "" {
		return nil, errors.New("token response has no access token")
	}
	s := &domain.Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	}
	if resp.User != nil {
		s.User = domain.User{ID: resp.User.ID, Email: resp.User.Email}
	}
	switch {
	case resp.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(resp.ExpiresAt, 0)
	case resp.ExpiresIn > 0:
		s.ExpiresAt = a.clock.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	}

	if s.User.ID == "" || s.User.Email == "" || s.ExpiresAt.IsZero() {
		claims, err := ParseClaims(resp.AccessToken)
		if err != nil {
			return nil, err
		}
		if s.User.ID == "" {
			s.User.ID = claims.Subject
		}
		if s.User.Email == "" {
			s.User.Email = claims.Email
		}
		if s.ExpiresAt.IsZero() && !claims.ExpiresAt.IsZero() {
			s.ExpiresAt = claims.ExpiresAt
		}
	}
	return s, nil
}

// Claims are the access token claims the client reads.
type Claims struct {
	ExpiresAt time.Time
	Subject   string
	Email     string
}

// ParseClaims reads the claims of a GoTrue access token without verifying
// its signature; the token is only ever sent back to the server that issued it.
func ParseClaims(token string) (*Claims, error) {
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		return nil, fmt.Errorf("parse access token: %w", err)
	}
	c := &Claims{}
	c.Subject, _ = mc.GetSubject()
	if email, ok := mc["email"].(string); ok {
		c.Email = email
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, nil
}
