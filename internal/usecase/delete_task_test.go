package usecase

import (
	"context"
	"testing"

	"github.com/Phoethar22452/supabase-task-tracker/internal/domain"
	"github.com/Phoethar22452/supabase-task-tracker/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteTask_Execute_ThenListExcludes(t *testing.T) {
	store := testutil.NewMockTaskStore()
	keep := store.Seed("keep", "")
	drop := store.Seed("drop", "")
	uc := NewDeleteTask(store, domain.NopLogger{})

	_, err := uc.Execute(context.Background(), DeleteTaskInput{ID: drop.ID})
	require.NoError(t, err)

	out, err := NewListTasks(store).Execute(context.Background(), ListTasksInput{})
	require.NoError(t, err)
	assert.Equal(t, []domain.Task{keep}, out.Tasks)
	assert.Nil(t, domain.FindTask(out.Tasks, drop.ID))
}

func TestDeleteTask_Execute_Error(t *testing.T) {
	store := testutil.NewMockTaskStore()
	store.DeleteErr = assert.AnError
	logger := &testutil.MockLogger{}
	uc := NewDeleteTask(store, logger)

	_, err := uc.Execute(context.Background(), DeleteTaskInput{ID: 1})

	assert.True(t, domain.IsKind(err, domain.KindMutation))
	assert.Contains(t, err.Error(), "delete task")
	assert.Empty(t, logger.Entries)
}
