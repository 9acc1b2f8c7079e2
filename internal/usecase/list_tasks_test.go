package usecase

import (
	"context"
	"testing"

	"github.com/Phoethar22452/supabase-task-tracker/internal/domain"
	"github.com/Phoethar22452/supabase-task-tracker/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListTasks_Execute(t *testing.T) {
	store := testutil.NewMockTaskStore()
	store.Seed("first", "")
	store.Seed("second", "")
	uc := NewListTasks(store)

	out, err := uc.Execute(context.Background(), ListTasksInput{})

	require.NoError(t, err)
	require.Len(t, out.Tasks, 2)
	assert.Equal(t, "first", out.Tasks[0].Title)
	assert.Equal(t, "second", out.Tasks[1].Title)
}

func TestListTasks_Execute_Empty(t *testing.T) {
	uc := NewListTasks(testutil.NewMockTaskStore())

	out, err := uc.Execute(context.Background(), ListTasksInput{})

	require.NoError(t, err)
	assert.NotNil(t, out.Tasks)
	assert.Empty(t, out.Tasks)
}

func TestListTasks_Execute_Error(t *testing.T) {
	store := testutil.NewMockTaskStore()
	store.ListErr = assert.AnError
	uc := NewListTasks(store)

	_, err := uc.Execute(context.Background(), ListTasksInput{})

	assert.True(t, domain.IsKind(err, domain.KindFetch))
	assert.ErrorIs(t, err, assert.AnError)
}
