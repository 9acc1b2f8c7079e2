// Package testutil provides shared test utilities and mock implementations.
package testutil

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Phoethar22452/supabase-task-tracker/internal/domain"
)

// MockClock is a test double for domain.Clock.
type MockClock struct {
	NowTime time.Time
}

// Now returns the configured time.
func (m *MockClock) Now() time.Time {
	return m.NowTime
}

// MockSubscription is a test double for domain.Subscription.
// Send pushes an event to the consumer.
type MockSubscription struct {
	ch     chan domain.Event
	sent   int
	mu     sync.Mutex
	closed bool
}

// NewMockSubscription creates a subscription with a buffered channel.
func NewMockSubscription() *MockSubscription {
	return &MockSubscription{ch: make(chan domain.Event, 16)}
}

// Events returns the event channel.
func (m *MockSubscription) Events() <-chan domain.Event {
	return m.ch
}

// Send delivers ev unless the subscription is closed.
func (m *MockSubscription) Send(ev domain.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.sent++
	m.ch <- ev
}

// Sent returns how many events Send delivered.
func (m *MockSubscription) Sent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent
}

// Close closes the channel. Safe to call more than once.
func (m *MockSubscription) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.ch)
	}
	return nil
}

// Closed reports whether Close was called.
func (m *MockSubscription) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// MockIdentity is a test double for domain.IdentityService.
// Fields are ordered to minimize memory padding.
type MockIdentity struct {
	Session      *domain.Session
	Sub          *MockSubscription
	GetErr       error
	SignInErr    error
	SignUpErr    error
	SignOutErr   error
	SubscribeErr error
	SignInCalls  []string // Emails passed to SignIn
	SignUpCalls  []string // Emails passed to SignUp
	mu           sync.Mutex
	SignOutCalls int
	// Confirm makes SignUp return a nil session.
	Confirm bool
}

// NewMockIdentity creates a signed-out identity with an open subscription.
func NewMockIdentity() *MockIdentity {
	return &MockIdentity{Sub: NewMockSubscription()}
}

// SessionFor returns a session for email.
func SessionFor(email string) *domain.Session {
	return &domain.Session{
		AccessToken: "token-" + email,
		User:        domain.User{ID: "id-" + email, Email: email},
	}
}

// GetSession returns the configured session.
func (m *MockIdentity) GetSession(_ context.Context) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	return m.Session, nil
}

// SignUp records the call and signs the user in unless Confirm is set.
func (m *MockIdentity) SignUp(_ context.Context, email, _ string) (*domain.Session, error) {
	m.mu.Lock()
	m.SignUpCalls = append(m.SignUpCalls, email)
	if m.SignUpErr != nil {
		m.mu.Unlock()
		return nil, m.SignUpErr
	}
	if m.Confirm {
		m.mu.Unlock()
		return nil, nil
	}
	s := SessionFor(email)
	m.Session = s
	m.mu.Unlock()
	m.Sub.Send(domain.AuthChangeEvent{Kind: domain.AuthSignedIn, Session: s})
	return s, nil
}

// SignIn records the call and emits SIGNED_IN on success.
func (m *MockIdentity) SignIn(_ context.Context, email, _ string) (*domain.Session, error) {
	m.mu.Lock()
	m.SignInCalls = append(m.SignInCalls, email)
	if m.SignInErr != nil {
		m.mu.Unlock()
		return nil, m.SignInErr
	}
	s := SessionFor(email)
	m.Session = s
	m.mu.Unlock()
	m.Sub.Send(domain.AuthChangeEvent{Kind: domain.AuthSignedIn, Session: s})
	return s, nil
}

// SignOut records the call and emits SIGNED_OUT on success.
func (m *MockIdentity) SignOut(_ context.Context) error {
	m.mu.Lock()
	m.SignOutCalls++
	if m.SignOutErr != nil {
		m.mu.Unlock()
		return m.SignOutErr
	}
	m.Session = nil
	m.mu.Unlock()
	m.Sub.Send(domain.AuthChangeEvent{Kind: domain.AuthSignedOut})
	return nil
}

// Subscribe returns Sub.
func (m *MockIdentity) Subscribe(_ context.Context) (domain.Subscription, error) {
	if m.SubscribeErr != nil {
		return nil, m.SubscribeErr
	}
	return m.Sub, nil
}

// MockTaskStore is a test double for domain.TaskStore.
// Inserted rows get sequential ids and creation times one minute apart.
// Fields are ordered to minimize memory padding.
type MockTaskStore struct {
	Base        time.Time
	ListErr     error
	InsertErr   error
	UpdateErr   error
	DeleteErr   error
	Tasks       []domain.Task
	Inserts     []domain.NewTask
	Updates     []domain.TaskPatch
	Deletes     []int64
	Calls       []string // Method names in call order
	mu          sync.Mutex
	NextIDN     int64
	ListCalls   int
	UpdateCalls int
}

// NewMockTaskStore creates an empty store.
func NewMockTaskStore() *MockTaskStore {
	return &MockTaskStore{
		Base:    time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC),
		NextIDN: 1,
	}
}

// Seed appends a task with the next id and returns it.
func (m *MockTaskStore) Seed(title, description string) domain.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.add(domain.NewTask{Title: title, Description: description})
}

func (m *MockTaskStore) add(nt domain.NewTask) domain.Task {
	id := m.NextIDN
	m.NextIDN++
	t := domain.Task{
		ID:          id,
		Title:       nt.Title,
		Description: nt.Description,
		ImageURL:    nt.ImageURL,
		Email:       nt.Email,
		CreatedAt:   m.Base.Add(time.Duration(id) * time.Minute),
	}
	m.Tasks = append(m.Tasks, t)
	return t
}

// List returns a copy of the stored tasks in creation order.
func (m *MockTaskStore) List(_ context.Context, _ domain.TaskQuery) ([]domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, "List")
	m.ListCalls++
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	out := append([]domain.Task(nil), m.Tasks...)
	domain.SortTasks(out)
	return out, nil
}

// Insert records the payload and stores a row.
func (m *MockTaskStore) Insert(_ context.Context, nt domain.NewTask) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, "Insert")
	m.Inserts = append(m.Inserts, nt)
	if m.InsertErr != nil {
		return nil, m.InsertErr
	}
	t := m.add(nt)
	return &t, nil
}

// Update records the patch and applies it.
func (m *MockTaskStore) Update(_ context.Context, id int64, patch domain.TaskPatch) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, "Update")
	m.Updates = append(m.Updates, patch)
	m.UpdateCalls++
	if m.UpdateErr != nil {
		return nil, m.UpdateErr
	}
	for i := range m.Tasks {
		if m.Tasks[i].ID == id {
			m.Tasks[i].Title = patch.Title
			m.Tasks[i].Description = patch.Description
			m.Tasks[i].ImageURL = patch.ImageURL
			t := m.Tasks[i]
			return &t, nil
		}
	}
	return nil, domain.ErrTaskNotFound
}

// Delete records the id and removes the row.
func (m *MockTaskStore) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, "Delete")
	m.Deletes = append(m.Deletes, id)
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	for i := range m.Tasks {
		if m.Tasks[i].ID == id {
			m.Tasks = append(m.Tasks[:i], m.Tasks[i+1:]...)
			return nil
		}
	}
	return nil
}

// MockBlobStore is a test double for domain.BlobStore.
// Fields are ordered to minimize memory padding.
type MockBlobStore struct {
	Objects   map[string][]byte // Keyed by bucket/path
	UploadErr error
	Calls     *[]string // Optional shared call log, e.g. MockTaskStore.Calls
	Types     map[string]string
	mu        sync.Mutex
}

// NewMockBlobStore creates an empty blob store.
func NewMockBlobStore() *MockBlobStore {
	return &MockBlobStore{
		Objects: make(map[string][]byte),
		Types:   make(map[string]string),
	}
}

// Upload stores the content.
func (m *MockBlobStore) Upload(_ context.Context, bucket, path, contentType string, r io.Reader) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Calls != nil {
		*m.Calls = append(*m.Calls, "Upload")
	}
	if m.UploadErr != nil {
		return m.UploadErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	key := bucket + "/" + path
	m.Objects[key] = data
	m.Types[key] = contentType
	return nil
}

// PublicURL returns a deterministic fake URL.
func (m *MockBlobStore) PublicURL(bucket, path string) string {
	return fmt.Sprintf("https://blobs.test/%s/%s", bucket, path)
}

// MockChangeStream is a test double for domain.ChangeStream.
type MockChangeStream struct {
	Sub          *MockSubscription
	SubscribeErr error
	Tables       []string
}

// NewMockChangeStream creates a stream with an open subscription.
func NewMockChangeStream() *MockChangeStream {
	return &MockChangeStream{Sub: NewMockSubscription()}
}

// Subscribe records the table and returns Sub.
func (m *MockChangeStream) Subscribe(_ context.Context, table string, _ domain.ChangeEventType) (domain.Subscription, error) {
	m.Tables = append(m.Tables, table)
	if m.SubscribeErr != nil {
		return nil, m.SubscribeErr
	}
	return m.Sub, nil
}

// MockSessionStore is a test double for domain.SessionStore.
type MockSessionStore struct {
	Session *domain.Session
	LoadErr error
	SaveErr error
	Saves   int
}

// Load returns the stored session.
func (m *MockSessionStore) Load() (*domain.Session, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	return m.Session, nil
}

// Save stores the session.
func (m *MockSessionStore) Save(s *domain.Session) error {
	m.Saves++
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Session = s
	return nil
}

// LogEntry is one line captured by MockLogger.
type LogEntry struct {
	Level    string
	Category string
	Msg      string
}

// MockLogger is a test double for domain.Logger that records entries.
type MockLogger struct {
	Entries []LogEntry
	mu      sync.Mutex
}

func (m *MockLogger) record(level, category, msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, LogEntry{Level: level, Category: category, Msg: msg})
}

// Info records an INFO entry.
func (m *MockLogger) Info(category, msg string) { m.record("INFO", category, msg) }

// Debug records a DEBUG entry.
func (m *MockLogger) Debug(category, msg string) { m.record("DEBUG", category, msg) }

// Warn records a WARN entry.
func (m *MockLogger) Warn(category, msg string) { m.record("WARN", category, msg) }

// Error records an ERROR entry.
func (m *MockLogger) Error(category, msg string) { m.record("ERROR", category, msg) }

// Errors returns the recorded ERROR entries.
func (m *MockLogger) Errors() []LogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []LogEntry
	for _, e := range m.Entries {
		if e.Level == "ERROR" {
			out = append(out, e)
		}
	}
	return out
}

// MockConfigManager is a test double for domain.ConfigManager.
// Fields are ordered to minimize memory padding.
type MockConfigManager struct {
	InitErr           error
	Global            domain.ConfigInfo
	Project           domain.ConfigInfo
	InitGlobalCalled  bool
	InitProjectCalled bool
}

// GlobalConfigInfo returns Global.
func (m *MockConfigManager) GlobalConfigInfo() domain.ConfigInfo { return m.Global }

// ProjectConfigInfo returns Project.
func (m *MockConfigManager) ProjectConfigInfo() domain.ConfigInfo { return m.Project }

// InitGlobalConfig records the call.
func (m *MockConfigManager) InitGlobalConfig() error {
	m.InitGlobalCalled = true
	if m.Global.Exists {
		return domain.ErrConfigExists
	}
	return m.InitErr
}

// InitProjectConfig records the call.
func (m *MockConfigManager) InitProjectConfig() error {
	m.InitProjectCalled = true
	if m.Project.Exists {
		return domain.ErrConfigExists
	}
	return m.InitErr
}

// MockConfigLoader is a test double for domain.ConfigLoader.
type MockConfigLoader struct {
	Config  *domain.Config
	LoadErr error
}

// Load returns Config, or defaults when unset.
func (m *MockConfigLoader) Load() (*domain.Config, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	if m.Config == nil {
		return domain.NewDefaultConfig(), nil
	}
	return m.Config, nil
}
