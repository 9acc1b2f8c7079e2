package usecase

import (
	"context"
	"fmt"

	"github.com/Phoethar22452/supabase-task-tracker/internal/domain"
)

// DeleteTaskInput contains the parameters for deleting a task.
type DeleteTaskInput struct {
	ID int64 // Task ID to delete
}

// DeleteTaskOutput contains the result of deleting a task.
type DeleteTaskOutput struct{}

// DeleteTask is the use case for deleting a task.
type DeleteTask struct {
	tasks  domain.TaskStore
	logger domain.Logger
}

// NewDeleteTask creates a new DeleteTask use case.
func NewDeleteTask(tasks domain.TaskStore, logger domain.Logger) *DeleteTask {
	return &DeleteTask{tasks: tasks, logger: logger}
}

// Execute deletes the task with the given ID.
func (uc *DeleteTask) Execute(ctx context.Context, in DeleteTaskInput) (*DeleteTaskOutput, error) {
	if err := uc.tasks.Delete(ctx, in.ID); err != nil {
		return nil, domain.NewError(domain.KindMutation, "delete task", err)
	}
	uc.logger.Info(catTasks, fmt.Sprintf("deleted task #%d", in.ID))
	return &DeleteTaskOutput{}, nil
}
