package metrics

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/Phoethar22452/supabase-task-tracker/internal/domain"
)

// Component labels.
const (
	componentIdentity = "identity"
	componentTasks    = "tasks"
	componentBlobs    = "blobs"
	componentChanges  = "changes"
)

// Ensure interface compliance.
var (
	_ domain.IdentityService = (*Identity)(nil)
	_ domain.TaskStore       = (*Tasks)(nil)
	_ domain.BlobStore       = (*Blobs)(nil)
	_ domain.ChangeStream    = (*Changes)(nil)
)

// Identity instruments an IdentityService.
type Identity struct {
	next domain.IdentityService
	m    *Metrics
}

// WrapIdentity returns an instrumented IdentityService.
func (m *Metrics) WrapIdentity(next domain.IdentityService) *Identity {
	return &Identity{next: next, m: m}
}

func (i *Identity) GetSession(ctx context.Context) (*domain.Session, error) {
	start := time.Now()
	s, err := i.next.GetSession(ctx)
	i.m.observe(componentIdentity, "get_session", start, err)
	return s, err
}

func (i *Identity) SignUp(ctx context.Context, email, password string) (*domain.Session, error) {
	start := time.Now()
	s, err := i.next.SignUp(ctx, email, password)
	i.m.observe(componentIdentity, "sign_up", start, err)
	return s, err
}

func (i *Identity) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	start := time.Now()
	s, err := i.next.SignIn(ctx, email, password)
	i.m.observe(componentIdentity, "sign_in", start, err)
	return s, err
}

func (i *Identity) SignOut(ctx context.Context) error {
	start := time.Now()
	err := i.next.SignOut(ctx)
	i.m.observe(componentIdentity, "sign_out", start, err)
	return err
}

func (i *Identity) Subscribe(ctx context.Context) (domain.Subscription, error) {
	start := time.Now()
	sub, err := i.next.Subscribe(ctx)
	i.m.observe(componentIdentity, "subscribe", start, err)
	if err != nil {
		return nil, err
	}
	return i.m.countEvents(componentIdentity, sub), nil
}

// Tasks instruments a TaskStore.
type Tasks struct {
	next domain.TaskStore
	m    *Metrics
}

// WrapTasks returns an instrumented TaskStore.
func (m *Metrics) WrapTasks(next domain.TaskStore) *Tasks {
	return &Tasks{next: next, m: m}
}

func (t *Tasks) List(ctx context.Context, q domain.TaskQuery) ([]domain.Task, error) {
	start := time.Now()
	tasks, err := t.next.List(ctx, q)
	t.m.observe(componentTasks, "list", start, err)
	return tasks, err
}

func (t *Tasks) Insert(ctx context.Context, nt domain.NewTask) (*domain.Task, error) {
	start := time.Now()
	task, err := t.next.Insert(ctx, nt)
	t.m.observe(componentTasks, "insert", start, err)
	return task, err
}

func (t *Tasks) Update(ctx context.Context, id int64, patch domain.TaskPatch) (*domain.Task, error) {
	start := time.Now()
	task, err := t.next.Update(ctx, id, patch)
	t.m.observe(componentTasks, "update", start, err)
	return task, err
}

func (t *Tasks) Delete(ctx context.Context, id int64) error {
	start := time.Now()
	err := t.next.Delete(ctx, id)
	t.m.observe(componentTasks, "delete", start, err)
	return err
}

// Blobs instruments a BlobStore.
type Blobs struct {
	next domain.BlobStore
	m    *Metrics
}

// WrapBlobs returns an instrumented BlobStore.
func (m *Metrics) WrapBlobs(next domain.BlobStore) *Blobs {
	return &Blobs{next: next, m: m}
}

func (b *Blobs) Upload(ctx context.Context, bucket, path, contentType string, r io.Reader) error {
	start := time.Now()
	err := b.next.Upload(ctx, bucket, path, contentType, r)
	b.m.observe(componentBlobs, "upload", start, err)
	return err
}

func (b *Blobs) PublicURL(bucket, path string) string {
	return b.next.PublicURL(bucket, path)
}

// Changes instruments a ChangeStream.
type Changes struct {
	next domain.ChangeStream
	m    *Metrics
}

// WrapChanges returns an instrumented ChangeStream.
func (m *Metrics) WrapChanges(next domain.ChangeStream) *Changes {
	return &Changes{next: next, m: m}
}

func (c *Changes) Subscribe(ctx context.Context, table string, kind domain.ChangeEventType) (domain.Subscription, error) {
	start := time.Now()
	sub, err := c.next.Subscribe(ctx, table, kind)
	c.m.observe(componentChanges, "subscribe", start, err)
	if err != nil {
		return nil, err
	}
	return c.m.countEvents(componentChanges, sub), nil
}

// countingSub counts events as the consumer receives them.
type countingSub struct {
	next domain.Subscription
	out  chan domain.Event
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func (m *Metrics) countEvents(component string, next domain.Subscription) domain.Subscription {
	s := &countingSub{
		next: next,
		out:  make(chan domain.Event),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	counter := m.Events.WithLabelValues(component)
	go func() {
		defer close(s.done)
		defer close(s.out)
		for ev := range next.Events() {
			select {
			case s.out <- ev:
				counter.Inc()
			case <-s.stop:
				return
			}
		}
	}()
	return s
}

func (s *countingSub) Events() <-chan domain.Event {
	return s.out
}

func (s *countingSub) Close() error {
	s.once.Do(func() { close(s.stop) })
	err := s.next.Close()
	<-s.done
	return err
}
