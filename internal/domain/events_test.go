package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInsertPayload(t *testing.T) {
	raw := []byte(`{"id":42,"title":"Buy milk","description":"2%","image_url":null,"email":"a@b.c","created_at":"2025-01-01T10:00:00Z"}`)

	ev, err := ParseInsertPayload("tasks", raw)

	require.NoError(t, err)
	assert.Equal(t, "tasks", ev.Table)
	assert.Equal(t, int64(42), ev.Task.ID)
	assert.Equal(t, "Buy milk", ev.Task.Title)
	assert.Equal(t, "2%", ev.Task.Description)
	assert.Nil(t, ev.Task.ImageURL)
	assert.Equal(t, "a@b.c", ev.Task.Email)
	assert.Equal(t, 2025, ev.Task.CreatedAt.Year())
}

func TestParseInsertPayload_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `{`},
		{"missing id", `{"title":"x"}`},
		{"wrong type", `{"id":"abc"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseInsertPayload("tasks", []byte(tt.raw))
			assert.ErrorIs(t, err, ErrInvalidPayload)
		})
	}
}

func TestEvent_Variants(t *testing.T) {
	events := []Event{
		AuthChangeEvent{Kind: AuthSignedIn, Session: &Session{}},
		InsertEvent{Table: "tasks", Task: Task{ID: 1}},
	}

	var auth, insert int
	for _, ev := range events {
		switch ev.(type) {
		case AuthChangeEvent:
			auth++
		case InsertEvent:
			insert++
		}
	}
	assert.Equal(t, 1, auth)
	assert.Equal(t, 1, insert)
}
