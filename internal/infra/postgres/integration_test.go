package postgres

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Phoethar22452/supabase-task-tracker/internal/domain"
)

// setupDB connects to DATABASE_URL and migrates a throwaway table.
func setupDB(t *testing.T) (*pgxpool.Pool, string) {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()
	db, err := Connect(ctx, dsn)
	require.NoError(t, err)

	table := fmt.Sprintf("tasks_it_%d", time.Now().UnixNano()%1_000_000_000)
	require.NoError(t, Migrate(ctx, db, table))
	t.Cleanup(func() {
		_, _ = db.Exec(context.Background(), "DROP TABLE IF EXISTS "+table)
		_, _ = db.Exec(context.Background(), "DROP FUNCTION IF EXISTS notify_"+table+"_insert()")
		db.Close()
	})
	return db, table
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingPublisher struct {
	mu    sync.Mutex
	tasks []domain.Task
}

func (p *recordingPublisher) PublishInsert(_ context.Context, _ string, t domain.Task) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tasks = append(p.tasks, t)
	return nil
}

func TestStore_CRUD(t *testing.T) {
	db, table := setupDB(t)
	ctx := context.Background()
	pub := &recordingPublisher{}
	store, err := NewStore(db, table, discardLogger())
	require.NoError(t, err)
	store.WithPublisher(pub)

	created, err := store.Insert(ctx, domain.NewTask{Title: "Buy milk", Description: "2%", Email: "a@b.c"})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Nil(t, created.ImageURL)
	require.Len(t, pub.tasks, 1)
	assert.Equal(t, created.ID, pub.tasks[0].ID)

	other, err := store.Insert(ctx, domain.NewTask{Title: "Other", Email: "a@b.c"})
	require.NoError(t, err)

	url := "https://x/img.png"
	updated, err := store.Update(ctx, created.ID, domain.TaskPatch{Title: "Buy oat milk", ImageURL: &url})
	require.NoError(t, err)
	assert.Equal(t, "Buy oat milk", updated.Title)
	require.NotNil(t, updated.ImageURL)
	assert.Equal(t, url, *updated.ImageURL)

	list, err := store.List(ctx, domain.DefaultTaskQuery())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, created.ID, list[0].ID)
	assert.Equal(t, "Other", list[1].Title)

	require.NoError(t, store.Delete(ctx, other.ID))
	list, err = store.List(ctx, domain.DefaultTaskQuery())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Nil(t, domain.FindTask(list, other.ID))

	_, err = store.Update(ctx, other.ID, domain.TaskPatch{Title: "gone"})
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestNotifier_DeliversInserts(t *testing.T) {
	db, table := setupDB(t)
	ctx := context.Background()
	store, err := NewStore(db, table, discardLogger())
	require.NoError(t, err)

	sub, err := NewNotifier(db, discardLogger()).Subscribe(ctx, table, domain.EventInsert)
	require.NoError(t, err)
	defer func() { _ = sub.Close() }()

	created, err := store.Insert(ctx, domain.NewTask{Title: "live", Email: "a@b.c"})
	require.NoError(t, err)

	select {
	case ev := <-sub.Events():
		ins, ok := ev.(domain.InsertEvent)
		require.True(t, ok)
		assert.Equal(t, table, ins.Table)
		assert.Equal(t, created.ID, ins.Task.ID)
		assert.Equal(t, "live", ins.Task.Title)
	case <-time.After(5 * time.Second):
		t.Fatal("no notification received")
	}
}

func TestNotifier_RejectsOtherKinds(t *testing.T) {
	n := NewNotifier(nil, discardLogger())
	_, err := n.Subscribe(context.Background(), "tasks", domain.EventDelete)
	assert.Error(t, err)
}

func TestUsers_SignUpSignIn(t *testing.T) {
	db, _ := setupDB(t)
	ctx := context.Background()
	users := NewUsers(db)
	email := fmt.Sprintf("it-%d@example.com", time.Now().UnixNano())
	t.Cleanup(func() { _, _ = db.Exec(context.Background(), "DELETE FROM users WHERE email = $1", email) })

	u, err := users.CreateUser(ctx, email, []byte("hash"))
	require.NoError(t, err)
	_, err = users.CreateUser(ctx, email, []byte("hash"))
	assert.ErrorIs(t, err, domain.ErrUserExists)

	found, hash, err := users.FindUser(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, u, found)
	assert.Equal(t, []byte("hash"), hash)

	session := &domain.Session{ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, users.SaveRefreshToken(ctx, "tok-"+email, u, session))
	got, err := users.ConsumeRefreshToken(ctx, "tok-"+email)
	require.NoError(t, err)
	assert.Equal(t, u, got)
	_, err = users.ConsumeRefreshToken(ctx, "tok-"+email)
	assert.Error(t, err)

	_, _, err = users.FindUser(ctx, "missing-"+email)
	assert.ErrorIs(t, err, domain.ErrInvalidCredential)
}
