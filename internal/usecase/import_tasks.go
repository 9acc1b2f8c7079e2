package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/Phoethar22452/supabase-task-tracker/internal/domain"
)

// ImportTasksInput contains the import source.
type ImportTasksInput struct {
	Reader io.Reader
	Email  string // Owner of the imported tasks; emails in the file are ignored
}

// ImportTasksOutput contains the created tasks.
type ImportTasksOutput struct {
	Tasks []domain.Task
}

// ImportTasks is the use case for inserting tasks from an export file.
type ImportTasks struct {
	tasks  domain.TaskStore
	logger domain.Logger
}

// NewImportTasks creates a new ImportTasks use case.
func NewImportTasks(tasks domain.TaskStore, logger domain.Logger) *ImportTasks {
	return &ImportTasks{tasks: tasks, logger: logger}
}

// Execute decodes the YAML document and inserts each task as a new row.
// IDs and creation times in the file are reassigned by the backend.
// Import stops at the first failed insert; Output lists what was created.
func (uc *ImportTasks) Execute(ctx context.Context, in ImportTasksInput) (*ImportTasksOutput, error) {
	if in.Email == "" {
		return nil, domain.NewError(domain.KindMutation, "import tasks", domain.ErrNoSession)
	}

	var doc exportDocument
	if err := yaml.NewDecoder(in.Reader).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return &ImportTasksOutput{Tasks: []domain.Task{}}, nil
		}
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	if doc.Version > exportVersion {
		return nil, fmt.Errorf("decode tasks: unsupported version %d", doc.Version)
	}

	out := &ImportTasksOutput{Tasks: make([]domain.Task, 0, len(doc.Tasks))}
	for i, t := range doc.Tasks {
		created, err := uc.tasks.Insert(ctx, domain.NewTask{
			Title:       t.Title,
			Description: t.Description,
			ImageURL:    t.ImageURL,
			Email:       in.Email,
		})
		if err != nil {
			return out, domain.NewError(domain.KindMutation, fmt.Sprintf("import task %d", i+1), err)
		}
		out.Tasks = append(out.Tasks, *created)
	}
	uc.logger.Info(catTasks, fmt.Sprintf("imported %d tasks", len(out.Tasks)))
	return out, nil
}
