// Package redisstream fans task inserts out over Redis pub/sub.
package redisstream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/Phoethar22452/supabase-task-tracker/internal/domain"
	"github.com/Phoethar22452/supabase-task-tracker/internal/infra/eventhub"
)

// Channel returns the pub/sub channel for inserts into table.
func Channel(table string) string {
	return "tasktracker:" + table + ":insert"
}

// Options configures the Redis client.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// NewClient creates a client and verifies connectivity.
func NewClient(ctx context.Context, opts Options) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	return rdb, nil
}

// Ensure Stream implements domain.ChangeStream.
var _ domain.ChangeStream = (*Stream)(nil)

// Stream publishes and subscribes to insert events.
type Stream struct {
	rdb    *redis.Client
	logger *slog.Logger
}

// New creates a Stream.
func New(rdb *redis.Client, logger *slog.Logger) *Stream {
	return &Stream{rdb: rdb, logger: logger}
}

// PublishInsert announces a stored row.
func (s *Stream) PublishInsert(ctx context.Context, table string, t domain.Task) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode task: %w", err)
	}
	return s.rdb.Publish(ctx, Channel(table), payload).Err()
}

// Subscribe delivers one InsertEvent per message on the table's channel.
func (s *Stream) Subscribe(ctx context.Context, table string, kind domain.ChangeEventType) (domain.Subscription, error) {
	if kind != domain.EventInsert {
		return nil, fmt.Errorf("unsupported change type %q", kind)
	}
	ps := s.rdb.Subscribe(ctx, Channel(table))
	// Block until the server confirms the subscription.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", Channel(table), err)
	}

	pipe := eventhub.NewPipe(ctx, eventhub.DefaultBuffer)
	go s.forward(pipe, ps, table)
	return pipe, nil
}

func (s *Stream) forward(pipe *eventhub.Pipe, ps *redis.PubSub, table string) {
	defer pipe.Finish()
	defer func() { _ = ps.Close() }()

	ctx := pipe.Context()
	// Subscription confirmations arrive again after the client reconnects.
	msgs := ps.ChannelWithSubscriptions()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			var ev domain.Event
			switch m := msg.(type) {
			case *redis.Subscription:
				if m.Kind != "subscribe" {
					continue
				}
				s.logger.Info("resubscribed", "channel", m.Channel)
				ev = domain.ResyncEvent{Table: table}
			case *redis.Message:
				ins, err := domain.ParseInsertPayload(table, []byte(m.Payload))
				if err != nil {
					s.logger.Warn("drop message", "channel", m.Channel, "error", err)
					continue
				}
				ev = ins
			default:
				continue
			}
			if !pipe.Send(ev) {
				return
			}
		}
	}
}
