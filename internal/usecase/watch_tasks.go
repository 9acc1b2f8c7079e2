package usecase

import (
	"context"

	"github.com/Phoethar22452/supabase-task-tracker/internal/domain"
)

// WatchTasksOutput contains the open insert subscription.
type WatchTasksOutput struct {
	Subscription domain.Subscription // Caller must Close it
}

// WatchTasks is the use case for subscribing to task inserts.
type WatchTasks struct {
	stream domain.ChangeStream
	logger domain.Logger
	table  string
}

// NewWatchTasks creates a new WatchTasks use case.
func NewWatchTasks(stream domain.ChangeStream, logger domain.Logger, table string) *WatchTasks {
	return &WatchTasks{stream: stream, logger: logger, table: table}
}

// Execute opens a subscription delivering an InsertEvent per inserted row.
func (uc *WatchTasks) Execute(ctx context.Context, _ struct{}) (*WatchTasksOutput, error) {
	sub, err := uc.stream.Subscribe(ctx, uc.table, domain.EventInsert)
	if err != nil {
		return nil, domain.NewError(domain.KindFetch, "subscribe to "+uc.table, err)
	}
	uc.logger.Debug(catRealtime, "subscribed to inserts on "+uc.table)
	return &WatchTasksOutput{Subscription: sub}, nil
}
