package localauth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Phoethar22452/supabase-task-tracker/internal/domain"
	"github.com/Phoethar22452/supabase-task-tracker/internal/testutil"
)

const testSecret = "test-secret"

func newTestService(t *testing.T) (*Service, *testutil.MockSessionStore, *testutil.MockClock) {
	t.Helper()
	clock := &testutil.MockClock{NowTime: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	sessions := &testutil.MockSessionStore{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := New(NewMemoryUsers(clock), sessions, NewIssuer(testSecret, clock), clock, logger)
	return svc, sessions, clock
}

func nextEvent(t *testing.T, sub domain.Subscription) domain.AuthChangeEvent {
	t.Helper()
	select {
	case ev := <-sub.Events():
		auth, ok := ev.(domain.AuthChangeEvent)
		require.True(t, ok)
		return auth
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for auth event")
	}
	return domain.AuthChangeEvent{}
}

func TestIssuer_IssueVerify(t *testing.T) {
	clock := &testutil.MockClock{NowTime: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	issuer := NewIssuer(testSecret, clock)

	s, err := issuer.Issue(domain.User{ID: "u1", Email: "a@b.c"})
	require.NoError(t, err)
	assert.Equal(t, clock.NowTime.Add(AccessTokenTTL), s.ExpiresAt.UTC())
	assert.NotEmpty(t, s.RefreshToken)

	user, err := issuer.Verify(s.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, domain.User{ID: "u1", Email: "a@b.c"}, user)
}

func TestIssuer_VerifyWrongSecret(t *testing.T) {
	clock := &testutil.MockClock{NowTime: time.Now()}
	s, err := NewIssuer("one", clock).Issue(domain.User{ID: "u1"})
	require.NoError(t, err)

	_, err = NewIssuer("two", clock).Verify(s.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_SignUpThenSignIn(t *testing.T) {
	svc, sessions, _ := newTestService(t)
	ctx := context.Background()

	s, err := svc.SignUp(ctx, " A@B.c ", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", s.Email())
	assert.Same(t, s, sessions.Session)

	require.NoError(t, svc.SignOut(ctx))
	assert.Nil(t, sessions.Session)

	s2, err := svc.SignIn(ctx, "a@b.c", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, s.User.ID, s2.User.ID)
}

func TestService_SignUpDuplicate(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, "a@b.c", "pw")
	require.NoError(t, err)
	_, err = svc.SignUp(ctx, "a@b.c", "pw")
	assert.ErrorIs(t, err, domain.ErrUserExists)
}

func TestService_SignInInvalid(t *testing.T) {
	svc, sessions, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.SignUp(ctx, "a@b.c", "right")
	require.NoError(t, err)
	require.NoError(t, svc.SignOut(ctx))

	_, err = svc.SignIn(ctx, "a@b.c", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredential)

	_, err = svc.SignIn(ctx, "nobody@b.c", "right")
	assert.ErrorIs(t, err, domain.ErrInvalidCredential)
	assert.Nil(t, sessions.Session)
}

func TestService_GetSessionRefreshesExpired(t *testing.T) {
	svc, _, clock := newTestService(t)
	ctx := context.Background()
	first, err := svc.SignUp(ctx, "a@b.c", "pw")
	require.NoError(t, err)

	got, err := svc.GetSession(ctx)
	require.NoError(t, err)
	assert.Same(t, first, got)

	clock.NowTime = clock.NowTime.Add(2 * AccessTokenTTL)
	refreshed, err := svc.GetSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, refreshed)
	assert.NotEqual(t, first.RefreshToken, refreshed.RefreshToken)
	assert.True(t, refreshed.SameUser(first))
}

func TestService_GetSessionUnknownRefreshSignsOut(t *testing.T) {
	clock := &testutil.MockClock{NowTime: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	issuer := NewIssuer(testSecret, clock)
	stored, err := issuer.Issue(domain.User{ID: "u1", Email: "a@b.c"})
	require.NoError(t, err)
	sessions := &testutil.MockSessionStore{Session: stored}
	svc := New(NewMemoryUsers(clock), sessions, issuer, clock, slog.New(slog.NewTextHandler(io.Discard, nil)))

	clock.NowTime = clock.NowTime.Add(2 * AccessTokenTTL)
	got, err := svc.GetSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Nil(t, sessions.Session)
}

func TestService_DiscardsForeignStoredSession(t *testing.T) {
	clock := &testutil.MockClock{NowTime: time.Now()}
	foreign, err := NewIssuer("other", clock).Issue(domain.User{ID: "u1"})
	require.NoError(t, err)
	sessions := &testutil.MockSessionStore{Session: foreign}
	svc := New(NewMemoryUsers(clock), sessions, NewIssuer(testSecret, clock), clock, slog.New(slog.NewTextHandler(io.Discard, nil)))

	got, err := svc.GetSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Empty(t, svc.AccessToken())
}

func TestService_SubscribeEvents(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := svc.Subscribe(ctx)
	require.NoError(t, err)
	defer func() { _ = sub.Close() }()

	initial := nextEvent(t, sub)
	assert.Equal(t, domain.AuthInitialSession, initial.Kind)
	assert.Nil(t, initial.Session)

	_, err = svc.SignUp(ctx, "a@b.c", "pw")
	require.NoError(t, err)
	in := nextEvent(t, sub)
	assert.Equal(t, domain.AuthSignedIn, in.Kind)
	assert.Equal(t, "a@b.c", in.Session.Email())

	require.NoError(t, svc.SignOut(ctx))
	out := nextEvent(t, sub)
	assert.Equal(t, domain.AuthSignedOut, out.Kind)
	assert.Nil(t, out.Session)
}
