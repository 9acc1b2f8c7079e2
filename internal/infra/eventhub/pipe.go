package eventhub

import (
	"context"
	"sync"

	"github.com/Phoethar22452/supabase-task-tracker/internal/domain"
)

// Pipe is a Subscription fed by a single producer goroutine.
// The producer selects on Context, delivers with Send and calls Finish on exit.
type Pipe struct {
	ctx    context.Context
	cancel context.CancelFunc
	ch     chan domain.Event
	done   chan struct{}
	once   sync.Once
}

// NewPipe creates a Pipe whose context ends with parent or Close.
func NewPipe(parent context.Context, buffer int) *Pipe {
	ctx, cancel := context.WithCancel(parent)
	return &Pipe{
		ctx:    ctx,
		cancel: cancel,
		ch:     make(chan domain.Event, buffer),
		done:   make(chan struct{}),
	}
}

// Context is cancelled when the consumer closes the pipe.
func (p *Pipe) Context() context.Context {
	return p.ctx
}

// Send delivers ev, blocking until it is buffered or the pipe is closed.
func (p *Pipe) Send(ev domain.Event) bool {
	select {
	case p.ch <- ev:
		return true
	case <-p.ctx.Done():
		return false
	}
}

// Finish closes the event channel. Only the producer calls it.
func (p *Pipe) Finish() {
	p.once.Do(func() {
		p.cancel()
		close(p.ch)
		close(p.done)
	})
}

// Events returns the delivery channel.
func (p *Pipe) Events() <-chan domain.Event {
	return p.ch
}

// Close cancels the producer and waits for it to finish.
func (p *Pipe) Close() error {
	p.cancel()
	<-p.done
	return nil
}
