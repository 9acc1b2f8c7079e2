package usecase

import (
	"context"
	"testing"

	"github.com/Phoethar22452/supabase-task-tracker/internal/domain"
	"github.com/Phoethar22452/supabase-task-tracker/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateTask_Execute_ChangesOnlyTarget(t *testing.T) {
	store := testutil.NewMockTaskStore()
	a := store.Seed("a", "desc a")
	b := store.Seed("b", "desc b")
	uc := NewUpdateTask(store, newTestUpload(testutil.NewMockBlobStore()), domain.NopLogger{})

	_, err := uc.Execute(context.Background(), UpdateTaskInput{ID: a.ID, Title: "a2", Description: "desc a"})
	require.NoError(t, err)

	out, err := NewListTasks(store).Execute(context.Background(), ListTasksInput{})
	require.NoError(t, err)
	require.Len(t, out.Tasks, 2)
	assert.Equal(t, "a2", out.Tasks[0].Title)
	assert.Equal(t, b, out.Tasks[1])
}

func TestUpdateTask_Execute_NoAttachmentClearsImage(t *testing.T) {
	store := testutil.NewMockTaskStore()
	url := "https://blobs.test/old.png"
	store.Tasks = append(store.Tasks, domain.Task{ID: 5, Title: "x", ImageURL: &url})
	uc := NewUpdateTask(store, newTestUpload(testutil.NewMockBlobStore()), domain.NopLogger{})

	out, err := uc.Execute(context.Background(), UpdateTaskInput{ID: 5, Title: "x"})

	require.NoError(t, err)
	assert.Nil(t, store.Updates[0].ImageURL)
	assert.Nil(t, out.Task.ImageURL)
}

func TestUpdateTask_Execute_UploadPrecedesUpdate(t *testing.T) {
	store := testutil.NewMockTaskStore()
	task := store.Seed("x", "")
	blobs := testutil.NewMockBlobStore()
	blobs.Calls = &store.Calls
	uc := NewUpdateTask(store, newTestUpload(blobs), domain.NopLogger{})

	_, err := uc.Execute(context.Background(), UpdateTaskInput{
		ID:         task.ID,
		Title:      "x",
		Attachment: &domain.Attachment{Name: "new.png", Path: writeTempFile(t, "new.png", "png")},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"Upload", "Update"}, store.Calls)
	require.NotNil(t, store.Updates[0].ImageURL)
	assert.Equal(t, "https://blobs.test/task-images/images/1735725600123-new.png", *store.Updates[0].ImageURL)
}

func TestUpdateTask_Execute_NotEditing(t *testing.T) {
	store := testutil.NewMockTaskStore()
	uc := NewUpdateTask(store, newTestUpload(testutil.NewMockBlobStore()), domain.NopLogger{})

	_, err := uc.Execute(context.Background(), UpdateTaskInput{Title: "x"})

	assert.ErrorIs(t, err, domain.ErrNotEditing)
	assert.Zero(t, store.UpdateCalls)
}

func TestUpdateTask_Execute_Error(t *testing.T) {
	store := testutil.NewMockTaskStore()
	store.UpdateErr = assert.AnError
	uc := NewUpdateTask(store, newTestUpload(testutil.NewMockBlobStore()), domain.NopLogger{})

	_, err := uc.Execute(context.Background(), UpdateTaskInput{ID: 1, Title: "x"})

	assert.True(t, domain.IsKind(err, domain.KindMutation))
}
