package usecase

import (
	"context"

	"github.com/Phoethar22452/supabase-task-tracker/internal/domain"
)

// ListTasksInput contains the parameters for listing tasks.
type ListTasksInput struct {
	Query *domain.TaskQuery // nil = created_at ascending
}

// ListTasksOutput contains the result of listing tasks.
type ListTasksOutput struct {
	Tasks []domain.Task
}

// ListTasks is the use case for listing tasks.
type ListTasks struct {
	tasks domain.TaskStore
}

// NewListTasks creates a new ListTasks use case.
func NewListTasks(tasks domain.TaskStore) *ListTasks {
	return &ListTasks{tasks: tasks}
}

// Execute fetches the full task list.
func (uc *ListTasks) Execute(ctx context.Context, in ListTasksInput) (*ListTasksOutput, error) {
	q := domain.DefaultTaskQuery()
	if in.Query != nil {
		q = *in.Query
	}
	tasks, err := uc.tasks.List(ctx, q)
	if err != nil {
		return nil, domain.NewError(domain.KindFetch, "fetch tasks", err)
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return &ListTasksOutput{Tasks: tasks}, nil
}
