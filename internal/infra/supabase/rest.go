package supabase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Phoethar22452/supabase-task-tracker/internal/domain"
)

// Ensure Tasks implements domain.TaskStore.
var _ domain.TaskStore = (*Tasks)(nil)

// Tasks is the PostgREST adapter for the tasks table.
type Tasks struct {
	client *Client
	table  string
}

// NewTasks creates the task store adapter.
func NewTasks(client *Client, table string) *Tasks {
	return &Tasks{client: client, table: table}
}

func (t *Tasks) path() string {
	return "/rest/v1/" + url.PathEscape(t.table)
}

func idFilter(id int64) url.Values {
	return url.Values{"id": {"eq." + strconv.FormatInt(id, 10)}}
}

var representation = map[string]string{"Prefer": "return=representation"}

// List returns all rows ordered per the query.
func (t *Tasks) List(ctx context.Context, q domain.TaskQuery) ([]domain.Task, error) {
	orderBy := q.OrderBy
	if orderBy == "" {
		orderBy = "created_at"
	}
	dir := "desc"
	if q.Ascending {
		dir = "asc"
	}

	var tasks []domain.Task
	err := t.client.do(ctx, request{
		method:   http.MethodGet,
		path:     t.path(),
		query:    url.Values{"select": {"*"}, "order": {orderBy + "." + dir}},
		out:      &tasks,
		retrying: true,
	})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// Insert creates a row and returns it as stored.
func (t *Tasks) Insert(ctx context.Context, nt domain.NewTask) (*domain.Task, error) {
	var rows []domain.Task
	err := t.client.do(ctx, request{
		method:  http.MethodPost,
		path:    t.path(),
		body:    nt,
		headers: representation,
		out:     &rows,
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("insert returned no rows")
	}
	return &rows[0], nil
}

// Update patches the row with the given id.
// The image URL is always sent, so nil clears it.
func (t *Tasks) Update(ctx context.Context, id int64, patch domain.TaskPatch) (*domain.Task, error) {
	var rows []domain.Task
	err := t.client.do(ctx, request{
		method:  http.MethodPatch,
		path:    t.path(),
		query:   idFilter(id),
		body:    patch,
		headers: representation,
		out:     &rows,
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrTaskNotFound
	}
	return &rows[0], nil
}

// Delete removes the row with the given id.
func (t *Tasks) Delete(ctx context.Context, id int64) error {
	return t.client.do(ctx, request{
		method: http.MethodDelete,
		path:   t.path(),
		query:  idFilter(id),
	})
}
