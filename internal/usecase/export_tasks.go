package usecase

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/Phoethar22452/supabase-task-tracker/internal/domain"
)

// exportVersion is the current export document version.
const exportVersion = 1

// exportDocument is the YAML layout of an export file.
type exportDocument struct {
	Tasks   []domain.Task `yaml:"tasks"`
	Version int           `yaml:"version"`
}

// ExportTasksInput contains the export destination.
type ExportTasksInput struct {
	Writer io.Writer
}

// ExportTasksOutput contains the number of exported tasks.
type ExportTasksOutput struct {
	Count int
}

// ExportTasks is the use case for writing all tasks as YAML.
type ExportTasks struct {
	list *ListTasks
}

// NewExportTasks creates a new ExportTasks use case.
func NewExportTasks(tasks domain.TaskStore) *ExportTasks {
	return &ExportTasks{list: NewListTasks(tasks)}
}

// Execute lists all tasks and encodes them to in.Writer.
func (uc *ExportTasks) Execute(ctx context.Context, in ExportTasksInput) (*ExportTasksOutput, error) {
	out, err := uc.list.Execute(ctx, ListTasksInput{})
	if err != nil {
		return nil, err
	}

	enc := yaml.NewEncoder(in.Writer)
	enc.SetIndent(2)
	if err := enc.Encode(exportDocument{Version: exportVersion, Tasks: out.Tasks}); err != nil {
		return nil, fmt.Errorf("encode tasks: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode tasks: %w", err)
	}
	return &ExportTasksOutput{Count: len(out.Tasks)}, nil
}
