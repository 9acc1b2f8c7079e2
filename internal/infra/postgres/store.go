package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Phoethar22452/supabase-task-tracker/internal/domain"
)

// InsertPublisher announces stored rows to other clients.
type InsertPublisher interface {
	PublishInsert(ctx context.Context, table string, t domain.Task) error
}

// Ensure Store implements domain.TaskStore.
var _ domain.TaskStore = (*Store)(nil)

const taskColumns = `id, created_at, title, description, image_url, email`

// Store is the tasks table repository.
type Store struct {
	db        *pgxpool.Pool
	publisher InsertPublisher
	logger    *slog.Logger
	table     string
}

// NewStore creates a Store for table.
func NewStore(db *pgxpool.Pool, table string, logger *slog.Logger) (*Store, error) {
	if err := ValidateTable(table); err != nil {
		return nil, err
	}
	return &Store{db: db, table: table, logger: logger}, nil
}

// WithPublisher makes Insert publish every stored row.
func (s *Store) WithPublisher(p InsertPublisher) *Store {
	s.publisher = p
	return s
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (domain.Task, error) {
	var t domain.Task
	err := row.Scan(&t.ID, &t.CreatedAt, &t.Title, &t.Description, &t.ImageURL, &t.Email)
	return t, err
}

// orderClause maps a query to a whitelisted ORDER BY.
func orderClause(q domain.TaskQuery) string {
	col := "created_at"
	switch q.OrderBy {
	case "id", "title", "created_at":
		col = q.OrderBy
	}
	dir := "DESC"
	if q.Ascending {
		dir = "ASC"
	}
	return fmt.Sprintf("%s %s, id %s", col, dir, dir)
}

// List returns all tasks.
func (s *Store) List(ctx context.Context, q domain.TaskQuery) ([]domain.Task, error) {
	rows, err := s.db.Query(ctx, `SELECT `+taskColumns+` FROM `+s.table+` ORDER BY `+orderClause(q))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []domain.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

// Insert stores a task and publishes it when a publisher is set.
func (s *Store) Insert(ctx context.Context, nt domain.NewTask) (*domain.Task, error) {
	t, err := scanTask(s.db.QueryRow(ctx,
		`INSERT INTO `+s.table+` (title, description, image_url, email) VALUES ($1,$2,$3,$4) RETURNING `+taskColumns,
		nt.Title, nt.Description, nt.ImageURL, nt.Email))
	if err != nil {
		return nil, err
	}
	if s.publisher != nil {
		if err := s.publisher.PublishInsert(ctx, s.table, t); err != nil {
			s.logger.Warn("publish insert", "id", t.ID, "error", err)
		}
	}
	return &t, nil
}

// Update patches a task. The image URL is always written.
func (s *Store) Update(ctx context.Context, id int64, patch domain.TaskPatch) (*domain.Task, error) {
	t, err := scanTask(s.db.QueryRow(ctx,
		`UPDATE `+s.table+` SET title = $1, description = $2, image_url = $3 WHERE id = $4 RETURNING `+taskColumns,
		patch.Title, patch.Description, patch.ImageURL, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", domain.ErrTaskNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Delete removes a task. Deleting a missing id is not an error.
func (s *Store) Delete(ctx context.Context, id int64) error {
	_, err := s.db.Exec(ctx, `DELETE FROM `+s.table+` WHERE id = $1`, id)
	return err
}
