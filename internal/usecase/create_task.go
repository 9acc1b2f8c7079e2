package usecase

import (
	"context"
	"fmt"

	"github.com/Phoethar22452/supabase-task-tracker/internal/domain"
)

// CreateTaskInput contains the parameters for creating a task.
type CreateTaskInput struct {
	Attachment *domain.Attachment // Optional image, uploaded before insert
	Email      string             // Owner email from the current session
	Draft      domain.Draft
}

// CreateTaskOutput contains the result of creating a task.
type CreateTaskOutput struct {
	Task *domain.Task // Row as stored by the backend
}

// CreateTask is the use case for inserting a task.
type CreateTask struct {
	tasks  domain.TaskStore
	upload *UploadImage
	logger domain.Logger
}

// NewCreateTask creates a new CreateTask use case.
func NewCreateTask(tasks domain.TaskStore, upload *UploadImage, logger domain.Logger) *CreateTask {
	return &CreateTask{tasks: tasks, upload: upload, logger: logger}
}

// Execute uploads the attachment, if any, then inserts the task.
// Without an attachment the inserted image URL is nil.
func (uc *CreateTask) Execute(ctx context.Context, in CreateTaskInput) (*CreateTaskOutput, error) {
	if in.Email == "" {
		return nil, domain.NewError(domain.KindMutation, "insert task", domain.ErrNoSession)
	}

	imageURL, err := uploadAttachment(ctx, uc.upload, in.Attachment)
	if err != nil {
		return nil, err
	}

	task, err := uc.tasks.Insert(ctx, domain.NewTask{
		Title:       in.Draft.Title,
		Description: in.Draft.Description,
		Email:       in.Email,
		ImageURL:    imageURL,
	})
	if err != nil {
		return nil, domain.NewError(domain.KindMutation, "insert task", err)
	}
	uc.logger.Info(catTasks, fmt.Sprintf("created task #%d", task.ID))
	return &CreateTaskOutput{Task: task}, nil
}

func uploadAttachment(ctx context.Context, upload *UploadImage, a *domain.Attachment) (*string, error) {
	if a == nil {
		return nil, nil
	}
	out, err := upload.Execute(ctx, UploadImageInput{Attachment: *a})
	if err != nil {
		return nil, err
	}
	return &out.URL, nil
}
