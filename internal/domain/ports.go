package domain

import (
	"context"
	"io"
	"time"
)

// Subscription is a long-lived stream of events.
// Close releases the underlying channel or connection and closes Events.
type Subscription interface {
	// Events returns the channel events are delivered on.
	Events() <-chan Event

	// Close stops delivery. It is safe to call more than once.
	Close() error
}

// IdentityService issues and tracks the authenticated session.
type IdentityService interface {
	// GetSession returns the current session, or nil if signed out.
	GetSession(ctx context.Context) (*Session, error)

	// SignUp registers a user. The returned session is nil when
	// the backend requires confirmation before sign-in.
	SignUp(ctx context.Context, email, password string) (*Session, error)

	// SignIn authenticates with email and password.
	SignIn(ctx context.Context, email, password string) (*Session, error)

	// SignOut terminates the current session.
	SignOut(ctx context.Context) error

	// Subscribe delivers an AuthChangeEvent for every identity change.
	Subscribe(ctx context.Context) (Subscription, error)
}

// TaskStore is the structured store holding the tasks table.
type TaskStore interface {
	// List returns all tasks ordered per the query.
	List(ctx context.Context, q TaskQuery) ([]Task, error)

	// Insert creates a task and returns the stored row.
	Insert(ctx context.Context, t NewTask) (*Task, error)

	// Update patches the task with the given id and returns the stored row.
	Update(ctx context.Context, id int64, patch TaskPatch) (*Task, error)

	// Delete removes the task with the given id.
	Delete(ctx context.Context, id int64) error
}

// BlobStore stores binary objects.
type BlobStore interface {
	// Upload stores the content at path inside bucket.
	Upload(ctx context.Context, bucket, path, contentType string, r io.Reader) error

	// PublicURL returns a publicly retrievable URL for path.
	PublicURL(bucket, path string) string
}

// ChangeStream delivers row change notifications.
type ChangeStream interface {
	// Subscribe delivers an InsertEvent for every row inserted into table.
	Subscribe(ctx context.Context, table string, kind ChangeEventType) (Subscription, error)
}

// SessionStore persists the session between runs.
type SessionStore interface {
	// Load returns the saved session, or nil if none.
	Load() (*Session, error)

	// Save persists the session. A nil session clears it.
	Save(s *Session) error
}

// Logger writes diagnostics grouped by category.
type Logger interface {
	Info(category, msg string)
	Debug(category, msg string)
	Warn(category, msg string)
	Error(category, msg string)
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Info(string, string)  {}
func (NopLogger) Debug(string, string) {}
func (NopLogger) Warn(string, string)  {}
func (NopLogger) Error(string, string) {}

// Clock provides time operations for testability.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// RealClock implements Clock using the system clock.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// ConfigInfo describes a config file on disk.
type ConfigInfo struct {
	Path    string
	Content string
	Exists  bool
}

// ConfigLoader loads the merged configuration.
type ConfigLoader interface {
	// Load returns default <- global <- project <- environment.
	Load() (*Config, error)
}

// ConfigManager reads and creates config files.
type ConfigManager interface {
	GlobalConfigInfo() ConfigInfo
	ProjectConfigInfo() ConfigInfo
	InitGlobalConfig() error
	InitProjectConfig() error
}
