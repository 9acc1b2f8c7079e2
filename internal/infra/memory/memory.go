// Package memory implements an in-process backend. Nothing survives the process.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/Phoethar22452/supabase-task-tracker/internal/domain"
	"github.com/Phoethar22452/supabase-task-tracker/internal/infra/eventhub"
	"github.com/Phoethar22452/supabase-task-tracker/internal/infra/localauth"
)

// Ensure interface compliance.
var (
	_ domain.TaskStore    = (*Store)(nil)
	_ domain.BlobStore    = (*Blobs)(nil)
	_ domain.ChangeStream = (*Stream)(nil)
)

// Store holds tasks for one table and publishes inserts to a hub.
type Store struct {
	clock  domain.Clock
	hub    *eventhub.Hub
	table  string
	tasks  []domain.Task
	nextID int64
	mu     sync.RWMutex
}

// NewStore creates an empty Store.
func NewStore(table string, clock domain.Clock, hub *eventhub.Hub) *Store {
	return &Store{table: table, clock: clock, hub: hub, nextID: 1}
}

// List returns a copy of all tasks.
func (s *Store) List(_ context.Context, q domain.TaskQuery) ([]domain.Task, error) {
	s.mu.RLock()
	out := slices.Clone(s.tasks)
	s.mu.RUnlock()
	if out == nil {
		out = []domain.Task{}
	}

	switch q.OrderBy {
	case "id":
		sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	case "title":
		sort.SliceStable(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	default:
		domain.SortTasks(out)
	}
	if !q.Ascending {
		slices.Reverse(out)
	}
	return out, nil
}

// Insert assigns an id and creation time, then publishes the row.
func (s *Store) Insert(_ context.Context, nt domain.NewTask) (*domain.Task, error) {
	s.mu.Lock()
	t := domain.Task{
		ID:          s.nextID,
		CreatedAt:   s.clock.Now(),
		Title:       nt.Title,
		Description: nt.Description,
		ImageURL:    nt.ImageURL,
		Email:       nt.Email,
	}
	s.nextID++
	s.tasks = append(s.tasks, t)
	s.mu.Unlock()

	s.hub.Publish(domain.InsertEvent{Table: s.table, Task: t})
	return &t, nil
}

// Update patches a task.
func (s *Store) Update(_ context.Context, id int64, patch domain.TaskPatch) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks[i].Title = patch.Title
			s.tasks[i].Description = patch.Description
			s.tasks[i].ImageURL = patch.ImageURL
			t := s.tasks[i]
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: %d", domain.ErrTaskNotFound, id)
}

// Delete removes a task if present.
func (s *Store) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = slices.DeleteFunc(s.tasks, func(t domain.Task) bool { return t.ID == id })
	return nil
}

// Blobs keeps uploaded objects in memory.
type Blobs struct {
	objects map[string][]byte
	mu      sync.RWMutex
}

// NewBlobs creates an empty blob store.
func NewBlobs() *Blobs {
	return &Blobs{objects: make(map[string][]byte)}
}

// Upload stores a copy of the content.
func (b *Blobs) Upload(ctx context.Context, bucket, path, _ string, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return fmt.Errorf("read content: %w", err)
	}
	b.mu.Lock()
	b.objects[bucket+"/"+path] = buf.Bytes()
	b.mu.Unlock()
	return nil
}

// Get returns a stored object.
func (b *Blobs) Get(bucket, path string) ([]byte, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	data, ok := b.objects[bucket+"/"+path]
	return data, ok
}

// PublicURL returns a memory:// URL.
func (b *Blobs) PublicURL(bucket, path string) string {
	return "memory://" + bucket + "/" + strings.TrimPrefix(path, "/")
}

// Stream delivers inserts published to the hub.
type Stream struct {
	hub *eventhub.Hub
}

// NewStream creates a Stream over hub.
func NewStream(hub *eventhub.Hub) *Stream {
	return &Stream{hub: hub}
}

// Subscribe delivers InsertEvents for table.
func (s *Stream) Subscribe(ctx context.Context, table string, kind domain.ChangeEventType) (domain.Subscription, error) {
	if kind != domain.EventInsert {
		return nil, fmt.Errorf("unsupported change type %q", kind)
	}
	return s.hub.Subscribe(ctx, eventhub.InsertsInto(table)), nil
}

// Backend bundles the in-process adapters.
type Backend struct {
	Auth   *localauth.Service
	Tasks  *Store
	Blobs  *Blobs
	Stream *Stream
}

// NewBackend wires an in-process backend. Sessions are signed with a
// per-process secret, so a persisted session never outlives the process.
func NewBackend(table string, sessions domain.SessionStore, clock domain.Clock, logger *slog.Logger) *Backend {
	hub := eventhub.New()
	issuer := localauth.NewIssuer(uuid.NewString(), clock)
	return &Backend{
		Auth:   localauth.New(localauth.NewMemoryUsers(clock), sessions, issuer, clock, logger),
		Tasks:  NewStore(table, clock, hub),
		Blobs:  NewBlobs(),
		Stream: NewStream(hub),
	}
}
