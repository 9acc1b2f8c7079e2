package usecase

import (
	"context"
	"fmt"

	"github.com/Phoethar22452/supabase-task-tracker/internal/domain"
)

// UpdateTaskInput contains the parameters for updating a task.
type UpdateTaskInput struct {
	Attachment  *domain.Attachment // Optional; nil clears the stored image
	Title       string
	Description string
	ID          int64
}

// UpdateTaskOutput contains the result of updating a task.
type UpdateTaskOutput struct {
	Task *domain.Task
}

// UpdateTask is the use case for patching a task.
type UpdateTask struct {
	tasks  domain.TaskStore
	upload *UploadImage
	logger domain.Logger
}

// NewUpdateTask creates a new UpdateTask use case.
func NewUpdateTask(tasks domain.TaskStore, upload *UploadImage, logger domain.Logger) *UpdateTask {
	return &UpdateTask{tasks: tasks, upload: upload, logger: logger}
}

// Execute uploads the attachment, if any, then updates the task.
// The image URL is always sent, so omitting an attachment clears it.
func (uc *UpdateTask) Execute(ctx context.Context, in UpdateTaskInput) (*UpdateTaskOutput, error) {
	if in.ID == 0 {
		return nil, domain.NewError(domain.KindMutation, "update task", domain.ErrNotEditing)
	}

	imageURL, err := uploadAttachment(ctx, uc.upload, in.Attachment)
	if err != nil {
		return nil, err
	}

	task, err := uc.tasks.Update(ctx, in.ID, domain.TaskPatch{
		Title:       in.Title,
		Description: in.Description,
		ImageURL:    imageURL,
	})
	if err != nil {
		return nil, domain.NewError(domain.KindMutation, "update task", err)
	}
	uc.logger.Info(catTasks, fmt.Sprintf("updated task #%d", in.ID))
	return &UpdateTaskOutput{Task: task}, nil
}
