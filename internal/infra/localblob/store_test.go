package localblob

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Upload(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, "")

	err := s.Upload(context.Background(), "task-images", "images/1-a.png", "image/png", strings.NewReader("png"))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "task-images", "images", "1-a.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))

	// Overwrites like an upsert.
	require.NoError(t, s.Upload(context.Background(), "task-images", "images/1-a.png", "image/png", strings.NewReader("v2")))
	data, err = os.ReadFile(filepath.Join(dir, "task-images", "images", "1-a.png"))
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))

	leftovers, err := filepath.Glob(filepath.Join(dir, "task-images", "images", ".upload-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestStore_UploadRejectsEscape(t *testing.T) {
	s := New(t.TempDir(), "")
	err := s.Upload(context.Background(), "b", "../../etc/passwd", "", strings.NewReader("x"))
	assert.Error(t, err)
	err = s.Upload(context.Background(), "b", "", "", strings.NewReader("x"))
	assert.Error(t, err)
}

func TestStore_UploadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := New(t.TempDir(), "").Upload(ctx, "b", "a.png", "", strings.NewReader("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStore_PublicURL(t *testing.T) {
	s := New("/srv/blobs", "https://cdn.example.com/")
	assert.Equal(t, "https://cdn.example.com/task-images/images/1-a%20b.png", s.PublicURL("task-images", "images/1-a b.png"))

	local := New("/srv/blobs", "")
	assert.Equal(t, "file:///srv/blobs/task-images/images/1-a.png", local.PublicURL("task-images", "images/1-a.png"))
}
