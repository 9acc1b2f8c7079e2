package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Phoethar22452/supabase-task-tracker/internal/domain"
	"github.com/Phoethar22452/supabase-task-tracker/internal/infra/eventhub"
)

// Ensure Notifier implements domain.ChangeStream.
var _ domain.ChangeStream = (*Notifier)(nil)

// Notifier streams inserts announced by the table's NOTIFY trigger.
type Notifier struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

// NewNotifier creates a Notifier.
func NewNotifier(db *pgxpool.Pool, logger *slog.Logger) *Notifier {
	return &Notifier{db: db, logger: logger}
}

// Subscribe takes a dedicated connection, LISTENs on the table's channel
// and delivers one InsertEvent per notification until closed.
func (n *Notifier) Subscribe(ctx context.Context, table string, kind domain.ChangeEventType) (domain.Subscription, error) {
	if kind != domain.EventInsert {
		return nil, fmt.Errorf("unsupported change type %q", kind)
	}
	if err := ValidateTable(table); err != nil {
		return nil, err
	}

	pooled, err := n.db.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	channel := InsertChannel(table)
	if _, err := pooled.Exec(ctx, "LISTEN "+pgx.Identifier{channel}.Sanitize()); err != nil {
		pooled.Release()
		return nil, fmt.Errorf("listen %s: %w", channel, err)
	}
	// The connection carries session state now; it never goes back to the pool.
	conn := pooled.Hijack()

	pipe := eventhub.NewPipe(ctx, eventhub.DefaultBuffer)
	go n.listen(pipe, conn, table)
	return pipe, nil
}

func (n *Notifier) listen(pipe *eventhub.Pipe, conn *pgx.Conn, table string) {
	defer pipe.Finish()
	defer func() { _ = conn.Close(context.Background()) }()

	ctx := pipe.Context()
	for {
		note, err := conn.WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() == nil {
				n.logger.Error("wait for notification", "table", table, "error", err)
			}
			return
		}
		ev, err := domain.ParseInsertPayload(table, []byte(note.Payload))
		if err != nil {
			n.logger.Warn("drop notification", "table", table, "error", err)
			continue
		}
		if !pipe.Send(ev) {
			return
		}
	}
}
