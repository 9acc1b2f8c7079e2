package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSession_Expired(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	var nilSession *Session
	assert.True(t, nilSession.Expired(now))
	assert.False(t, (&Session{}).Expired(now), "zero expiry never expires")
	assert.False(t, (&Session{ExpiresAt: now.Add(time.Minute)}).Expired(now))
	assert.True(t, (&Session{ExpiresAt: now}).Expired(now))
	assert.True(t, (&Session{ExpiresAt: now.Add(-time.Minute)}).Expired(now))
}

func TestSession_Email(t *testing.T) {
	var nilSession *Session
	assert.Equal(t, "", nilSession.Email())
	assert.Equal(t, "a@b.c", (&Session{User: User{Email: "a@b.c"}}).Email())
}

func TestSession_SameUser(t *testing.T) {
	a := &Session{User: User{ID: "u1", Email: "a@b.c"}}
	refreshed := &Session{AccessToken: "new", User: User{ID: "u1", Email: "a@b.c"}}
	other := &Session{User: User{ID: "u2", Email: "a@b.c"}}
	noID := &Session{User: User{Email: "a@b.c"}}

	assert.True(t, a.SameUser(refreshed))
	assert.False(t, a.SameUser(other))
	assert.True(t, a.SameUser(noID), "falls back to email when an id is missing")
	assert.False(t, a.SameUser(nil))
	var nilSession *Session
	assert.False(t, nilSession.SameUser(a))
}
