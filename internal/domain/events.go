package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Event is the sealed interface for payloads delivered by subscriptions.
//
// go-sumtype:decl Event
type Event interface {
	sealed()
}

// AuthEventKind identifies an identity change.
type AuthEventKind string

// Identity change kinds.
const (
	AuthInitialSession AuthEventKind = "INITIAL_SESSION"
	AuthSignedIn       AuthEventKind = "SIGNED_IN"
	AuthSignedOut      AuthEventKind = "SIGNED_OUT"
	AuthTokenRefreshed AuthEventKind = "TOKEN_REFRESHED"
	AuthUserUpdated    AuthEventKind = "USER_UPDATED"
)

// AuthChangeEvent is delivered when the current identity changes.
// Session is nil after sign-out.
type AuthChangeEvent struct {
	Session *Session
	Kind    AuthEventKind
}

func (AuthChangeEvent) sealed() {}

// ChangeEventType is the kind of row change a stream watches.
type ChangeEventType string

// Row change types.
const (
	EventInsert ChangeEventType = "INSERT"
	EventUpdate ChangeEventType = "UPDATE"
	EventDelete ChangeEventType = "DELETE"
)

// InsertEvent is delivered when any client inserts a row into a watched table.
type InsertEvent struct {
	Table string
	Task  Task
}

func (InsertEvent) sealed() {}

// ResyncEvent is delivered after a stream reconnects. Rows inserted while
// it was down were not delivered, so consumers should reload the table.
type ResyncEvent struct {
	Table string
}

func (ResyncEvent) sealed() {}

// ErrInvalidPayload is returned when a change payload cannot be decoded into a task.
var ErrInvalidPayload = errors.New("invalid change payload")

// ParseInsertPayload decodes a raw row into an InsertEvent.
// Rows without an id are rejected.
func ParseInsertPayload(table string, raw []byte) (InsertEvent, error) {
	var t Task
	if err := json.Unmarshal(raw, &t); err != nil {
		return InsertEvent{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if t.ID == 0 {
		return InsertEvent{}, fmt.Errorf("%w: missing id", ErrInvalidPayload)
	}
	return InsertEvent{Table: table, Task: t}, nil
}
