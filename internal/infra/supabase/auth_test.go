package supabase

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Phoethar22452/supabase-task-tracker/internal/domain"
	"github.com/Phoethar22452/supabase-task-tracker/internal/testutil"
)

var authNow = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func signedToken(t *testing.T, sub, email string, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   sub,
		"email": email,
		"exp":   exp.Unix(),
		"role":  "authenticated",
	}).SignedString([]byte("server-secret"))
	require.NoError(t, err)
	return tok
}

// fakeGoTrue serves the auth endpoints used by Auth.
type fakeGoTrue struct {
	t          *testing.T
	token      string
	logouts    []string
	grants     []string
	confirm    bool
	failSignIn bool
}

func (f *fakeGoTrue) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/auth/v1/token":
		grant := r.URL.Query().Get("grant_type")
		f.grants = append(f.grants, grant)
		if grant == "password" && f.failSignIn {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error_code":"invalid_credentials","msg":"Invalid login credentials"}`))
			return
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  f.token,
			"refresh_token": "refresh-" + grant,
			"expires_in":    3600,
			"user":          map[string]string{"id": "u1", "email": "a@b.c"},
		})
	case "/auth/v1/signup":
		if f.confirm {
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "u2", "email": "new@b.c"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": f.token, "refresh_token": "r"})
	case "/auth/v1/logout":
		f.logouts = append(f.logouts, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}

func newTestAuth(t *testing.T, f *fakeGoTrue, store *testutil.MockSessionStore) *Auth {
	t.Helper()
	f.t = t
	if f.token == "" {
		f.token = signedToken(t, "u1", "a@b.c", authNow.Add(time.Hour))
	}
	c, _ := newTestClient(t, f)
	return NewAuth(c, store, &testutil.MockClock{NowTime: authNow})
}

func nextEvent(t *testing.T, sub domain.Subscription) domain.AuthChangeEvent {
	t.Helper()
	select {
	case ev := <-sub.Events():
		return ev.(domain.AuthChangeEvent)
	case <-time.After(time.Second):
		t.Fatal("no auth event")
		return domain.AuthChangeEvent{}
	}
}

func TestAuth_SignIn(t *testing.T) {
	store := &testutil.MockSessionStore{}
	f := &fakeGoTrue{}
	auth := newTestAuth(t, f, store)
	sub, err := auth.Subscribe(context.Background())
	require.NoError(t, err)
	defer func() { _ = sub.Close() }()

	initial := nextEvent(t, sub)
	assert.Equal(t, domain.AuthInitialSession, initial.Kind)
	assert.Nil(t, initial.Session)

	s, err := auth.SignIn(context.Background(), "a@b.c", "pw")

	require.NoError(t, err)
	assert.Equal(t, "a@b.c", s.Email())
	assert.Equal(t, "u1", s.User.ID)
	assert.Equal(t, authNow.Add(time.Hour), s.ExpiresAt)
	assert.Equal(t, []string{"password"}, f.grants)
	assert.Equal(t, s, store.Session, "session is persisted")
	assert.Equal(t, f.token, auth.AccessToken(context.Background()))

	ev := nextEvent(t, sub)
	assert.Equal(t, domain.AuthSignedIn, ev.Kind)
	assert.Equal(t, s, ev.Session)
}

func TestAuth_SignIn_InvalidCredentials(t *testing.T) {
	store := &testutil.MockSessionStore{}
	auth := newTestAuth(t, &fakeGoTrue{failSignIn: true}, store)

	_, err := auth.SignIn(context.Background(), "a@b.c", "bad")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Invalid login credentials", apiErr.Message)
	assert.Nil(t, store.Session)
	assert.Zero(t, store.Saves)
}

func TestAuth_SignUp(t *testing.T) {
	auth := newTestAuth(t, &fakeGoTrue{}, &testutil.MockSessionStore{})

	s, err := auth.SignUp(context.Background(), "a@b.c", "pw")

	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "a@b.c", s.Email(), "email read from the token claims")
	assert.Equal(t, authNow.Add(time.Hour).Unix(), s.ExpiresAt.Unix())
}

func TestAuth_SignUp_ConfirmationPending(t *testing.T) {
	store := &testutil.MockSessionStore{}
	auth := newTestAuth(t, &fakeGoTrue{confirm: true}, store)

	s, err := auth.SignUp(context.Background(), "new@b.c", "pw")

	require.NoError(t, err)
	assert.Nil(t, s)
	assert.Zero(t, store.Saves)
}

func TestAuth_SignOut(t *testing.T) {
	store := &testutil.MockSessionStore{}
	f := &fakeGoTrue{}
	auth := newTestAuth(t, f, store)
	_, err := auth.SignIn(context.Background(), "a@b.c", "pw")
	require.NoError(t, err)

	sub, err := auth.Subscribe(context.Background())
	require.NoError(t, err)
	defer func() { _ = sub.Close() }()
	assert.NotNil(t, nextEvent(t, sub).Session)

	require.NoError(t, auth.SignOut(context.Background()))

	assert.Equal(t, []string{"Bearer " + f.token}, f.logouts)
	ev := nextEvent(t, sub)
	assert.Equal(t, domain.AuthSignedOut, ev.Kind)
	assert.Nil(t, ev.Session)
	assert.Nil(t, store.Session)
	assert.Empty(t, auth.AccessToken(context.Background()))
}

func TestAuth_GetSession_RestoresFromStore(t *testing.T) {
	stored := &domain.Session{AccessToken: "stored", ExpiresAt: authNow.Add(time.Hour), User: domain.User{Email: "a@b.c"}}
	f := &fakeGoTrue{}
	auth := newTestAuth(t, f, &testutil.MockSessionStore{Session: stored})

	s, err := auth.GetSession(context.Background())

	require.NoError(t, err)
	assert.Equal(t, stored, s)
	assert.Empty(t, f.grants, "valid session is not refreshed")
}

func TestAuth_GetSession_RefreshesExpired(t *testing.T) {
	stored := &domain.Session{AccessToken: "old", RefreshToken: "rt", ExpiresAt: authNow.Add(-time.Minute)}
	store := &testutil.MockSessionStore{Session: stored}
	f := &fakeGoTrue{}
	auth := newTestAuth(t, f, store)
	sub, _ := auth.Subscribe(context.Background())
	defer func() { _ = sub.Close() }()
	nextEvent(t, sub)

	s, err := auth.GetSession(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"refresh_token"}, f.grants)
	assert.Equal(t, f.token, s.AccessToken)
	assert.Equal(t, "refresh-refresh_token", store.Session.RefreshToken)
	assert.Equal(t, domain.AuthTokenRefreshed, nextEvent(t, sub).Kind)
}

func TestAuth_GetSession_ExpiredWithoutRefreshToken(t *testing.T) {
	stored := &domain.Session{AccessToken: "old", ExpiresAt: authNow.Add(-time.Minute)}
	auth := newTestAuth(t, &fakeGoTrue{}, &testutil.MockSessionStore{Session: stored})

	s, err := auth.GetSession(context.Background())

	require.NoError(t, err)
	assert.Nil(t, s)
}

// tasksBehindAuth serves GoTrue plus a tasks table that accepts only the
// token GoTrue issued last, the way PostgREST rejects expired JWTs.
type tasksBehindAuth struct {
	gotrue  *fakeGoTrue
	mu      sync.Mutex
	valid   string
	bearers []string
}

func (h *tasksBehindAuth) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/rest/v1/tasks" {
		h.gotrue.ServeHTTP(w, r)
		return
	}
	h.mu.Lock()
	bearer := r.Header.Get("Authorization")
	h.bearers = append(h.bearers, bearer)
	ok := bearer == "Bearer "+h.valid
	h.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":"PGRST301","message":"JWT expired"}`))
		return
	}
	_, _ = w.Write([]byte(`[]`))
}

func (h *tasksBehindAuth) seen() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.bearers...)
}

func newAuthAndTasks(t *testing.T, stored *domain.Session, valid string) (*Auth, *Tasks, *tasksBehindAuth, *testutil.MockClock) {
	t.Helper()
	f := &fakeGoTrue{t: t, token: signedToken(t, "u1", "a@b.c", authNow.Add(3*time.Hour))}
	h := &tasksBehindAuth{gotrue: f, valid: valid}
	if valid == "" {
		h.valid = f.token
	}
	c, _ := newTestClient(t, h)
	clock := &testutil.MockClock{NowTime: authNow}
	auth := NewAuth(c, &testutil.MockSessionStore{Session: stored}, clock)
	return auth, NewTasks(c, "tasks"), h, clock
}

func TestAuth_RefreshesWhenClockPassesExpiry(t *testing.T) {
	stored := &domain.Session{AccessToken: "old", RefreshToken: "rt", ExpiresAt: authNow.Add(10 * time.Minute), User: domain.User{ID: "u1", Email: "a@b.c"}}
	auth, tasks, h, clock := newAuthAndTasks(t, stored, "old")
	sub, err := auth.Subscribe(context.Background())
	require.NoError(t, err)
	defer func() { _ = sub.Close() }()
	assert.Equal(t, stored, nextEvent(t, sub).Session)

	_, err = tasks.List(context.Background(), domain.DefaultTaskQuery())
	require.NoError(t, err)
	assert.Empty(t, h.gotrue.grants)

	clock.NowTime = authNow.Add(2 * time.Hour)
	h.mu.Lock()
	h.valid = h.gotrue.token
	h.mu.Unlock()

	_, err = tasks.List(context.Background(), domain.DefaultTaskQuery())

	require.NoError(t, err)
	assert.Equal(t, []string{"refresh_token"}, h.gotrue.grants)
	assert.Equal(t, []string{"Bearer old", "Bearer " + h.gotrue.token}, h.seen())
	ev := nextEvent(t, sub)
	assert.Equal(t, domain.AuthTokenRefreshed, ev.Kind)
	assert.Equal(t, h.gotrue.token, ev.Session.AccessToken)
}

func TestAuth_RenewsTokenRejectedByServer(t *testing.T) {
	// The local clock still considers "old" valid; the server does not.
	stored := &domain.Session{AccessToken: "old", RefreshToken: "rt", ExpiresAt: authNow.Add(time.Hour), User: domain.User{ID: "u1", Email: "a@b.c"}}
	auth, tasks, h, _ := newAuthAndTasks(t, stored, "")

	_, err := tasks.List(context.Background(), domain.DefaultTaskQuery())

	require.NoError(t, err)
	assert.Equal(t, []string{"refresh_token"}, h.gotrue.grants)
	assert.Equal(t, []string{"Bearer old", "Bearer " + h.gotrue.token}, h.seen())
	assert.Equal(t, h.gotrue.token, auth.AccessToken(context.Background()))
}

func TestAuth_RenewFailureReturnsServerError(t *testing.T) {
	stored := &domain.Session{AccessToken: "old", ExpiresAt: authNow.Add(time.Hour), User: domain.User{ID: "u1", Email: "a@b.c"}}
	_, tasks, h, _ := newAuthAndTasks(t, stored, "")

	_, err := tasks.List(context.Background(), domain.DefaultTaskQuery())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, []string{"Bearer old"}, h.seen(), "no retry without a refresh token")
}

func TestAuth_Subscribe_WithholdsExpiredSession(t *testing.T) {
	stored := &domain.Session{AccessToken: "old", RefreshToken: "rt", ExpiresAt: authNow.Add(-time.Minute)}
	auth := newTestAuth(t, &fakeGoTrue{}, &testutil.MockSessionStore{Session: stored})

	sub, err := auth.Subscribe(context.Background())
	require.NoError(t, err)
	defer func() { _ = sub.Close() }()

	initial := nextEvent(t, sub)
	assert.Equal(t, domain.AuthInitialSession, initial.Kind)
	assert.Nil(t, initial.Session)
}

func TestParseClaims(t *testing.T) {
	exp := authNow.Add(time.Hour)

	c, err := ParseClaims(signedToken(t, "u1", "a@b.c", exp))

	require.NoError(t, err)
	assert.Equal(t, "u1", c.Subject)
	assert.Equal(t, "a@b.c", c.Email)
	assert.Equal(t, exp.Unix(), c.ExpiresAt.Unix())

	_, err = ParseClaims("not-a-token")
	assert.Error(t, err)
}
