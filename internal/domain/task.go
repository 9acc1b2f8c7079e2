// Package domain contains core business entities and interfaces.
package domain

import (
	"slices"
	"strings"
	"time"
)

// DefaultTaskTable is the backend table tasks live in.
const DefaultTaskTable = "tasks"

// Task is a row of the tasks table.
// Fields are ordered to minimize memory padding.
type Task struct {
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	ImageURL    *string   `json:"image_url" yaml:"image_url,omitempty"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description" yaml:"description"`
	Email       string    `json:"email" yaml:"email"`
	ID          int64     `json:"id" yaml:"id"`
}

// HasImage returns true if an image URL is set.
func (t *Task) HasImage() bool {
	return t.ImageURL != nil && *t.ImageURL != ""
}

// NewTask is the payload of an insert request.
type NewTask struct {
	ImageURL    *string `json:"image_url"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Email       string  `json:"email"`
}

// TaskPatch is the payload of an update request.
// ImageURL is always sent: nil clears the stored image.
type TaskPatch struct {
	ImageURL    *string `json:"image_url"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
}

// TaskQuery specifies how tasks are listed.
type TaskQuery struct {
	OrderBy   string // Column to order by (empty = created_at)
	Ascending bool   // Sort direction
}

// DefaultTaskQuery lists all tasks by creation time, oldest first.
func DefaultTaskQuery() TaskQuery {
	return TaskQuery{OrderBy: "created_at", Ascending: true}
}

// Draft holds the new-task form state.
type Draft struct {
	Title       string
	Description string
}

// IsEmpty returns true if neither field has content.
func (d Draft) IsEmpty() bool {
	return strings.TrimSpace(d.Title) == "" && strings.TrimSpace(d.Description) == ""
}

// EditRecord holds the edit-task form state.
// A non-nil ID is the sole discriminator for update mode.
type EditRecord struct {
	ID          *int64
	Title       string
	Description string
}

// Active returns true while a task is being edited.
func (e EditRecord) Active() bool {
	return e.ID != nil
}

// EditRecordFor returns an edit record populated from the task.
func EditRecordFor(t Task) EditRecord {
	id := t.ID
	return EditRecord{ID: &id, Title: t.Title, Description: t.Description}
}

// Attachment is a locally selected file pending upload.
type Attachment struct {
	Name string // Base file name
	Path string // Local file path
}

// FindTask returns the task with the given id, or nil.
func FindTask(tasks []Task, id int64) *Task {
	for i := range tasks {
		if tasks[i].ID == id {
			return &tasks[i]
		}
	}
	return nil
}

// MergeTasks returns base with extra upserted by id, ordered by creation time.
// Rows in base win over rows in extra with the same id.
func MergeTasks(base, extra []Task) []Task {
	seen := make(map[int64]struct{}, len(base)+len(extra))
	out := make([]Task, 0, len(base)+len(extra))
	for _, t := range base {
		if _, dup := seen[t.ID]; dup {
			continue
		}
		seen[t.ID] = struct{}{}
		out = append(out, t)
	}
	for _, t := range extra {
		if _, dup := seen[t.ID]; dup {
			continue
		}
		seen[t.ID] = struct{}{}
		out = append(out, t)
	}
	SortTasks(out)
	return out
}

// UpsertTask replaces the task with the same id or appends it to the end.
func UpsertTask(tasks []Task, t Task) []Task {
	out := slices.Clone(tasks)
	for i := range out {
		if out[i].ID == t.ID {
			out[i] = t
			return out
		}
	}
	return append(out, t)
}

// SortTasks orders tasks by creation time, then id.
func SortTasks(tasks []Task) {
	slices.SortStableFunc(tasks, func(a, b Task) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
}
