package domain

import (
	"errors"
	"fmt"
)

// Domain errors.
var (
	ErrTaskNotFound      = errors.New("task not found")
	ErrNoSession         = errors.New("not signed in")
	ErrNotEditing        = errors.New("no task is being edited")
	ErrEmptyTitle        = errors.New("title cannot be empty")
	ErrEmptyCredentials  = errors.New("email and password are required")
	ErrConfigExists      = errors.New("config file already exists")
	ErrUnknownBackend    = errors.New("unknown backend")
	ErrBackendConfig     = errors.New("backend is not configured")
	ErrSubscriptionEnded = errors.New("subscription closed")
	ErrInvalidCredential = errors.New("invalid login credentials")
	ErrUserExists        = errors.New("user already registered")
)

// ErrorKind classifies a failed backend call.
type ErrorKind int

// Error kinds.
const (
	KindAuth     ErrorKind = iota + 1 // Sign-in, sign-up, sign-out, session fetch
	KindFetch                         // Listing tasks
	KindMutation                      // Insert, update, delete
	KindUpload                        // Blob upload or public URL
)

// String returns the taxonomy name of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindAuth:
		return "AuthError"
	case KindFetch:
		return "FetchError"
	case KindMutation:
		return "MutationError"
	case KindUpload:
		return "UploadError"
	}
	return "Error"
}

// Error is a failed backend call.
type Error struct {
	Err  error
	Op   string // e.g. "sign in", "insert task"
	Kind ErrorKind
}

// NewError wraps err as a failure of op.
func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a domain Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind == kind
	}
	return false
}
