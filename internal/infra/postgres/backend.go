package postgres

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Phoethar22452/supabase-task-tracker/internal/domain"
	"github.com/Phoethar22452/supabase-task-tracker/internal/infra/localauth"
)

// Backend bundles the adapters sharing one pool.
type Backend struct {
	Pool     *pgxpool.Pool
	Auth     *localauth.Service
	Tasks    *Store
	Notifier *Notifier
}

// Options configures Open.
type Options struct {
	Logger    *slog.Logger
	Clock     domain.Clock
	Sessions  domain.SessionStore
	DSN       string
	JWTSecret string
	Table     string
}

// Open connects, migrates and wires all adapters.
func Open(ctx context.Context, opts Options) (*Backend, error) {
	if err := ValidateTable(opts.Table); err != nil {
		return nil, err
	}
	db, err := Connect(ctx, opts.DSN)
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, db, opts.Table); err != nil {
		db.Close()
		return nil, err
	}
	tasks, err := NewStore(db, opts.Table, opts.Logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	issuer := localauth.NewIssuer(opts.JWTSecret, opts.Clock)
	return &Backend{
		Pool:     db,
		Auth:     localauth.New(NewUsers(db), opts.Sessions, issuer, opts.Clock, opts.Logger),
		Tasks:    tasks,
		Notifier: NewNotifier(db, opts.Logger),
	}, nil
}

// Close closes the pool.
func (b *Backend) Close() {
	b.Pool.Close()
}
