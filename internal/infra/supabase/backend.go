package supabase

import (
	"github.com/Phoethar22452/supabase-task-tracker/internal/domain"
)

// Backend bundles the adapters sharing one Client.
type Backend struct {
	Auth     *Auth
	Tasks    *Tasks
	Storage  *Storage
	Realtime *Realtime
}

// NewBackend wires all adapters for a project.
func NewBackend(opts Options, table string, sessions domain.SessionStore, clock domain.Clock) *Backend {
	client := NewClient(opts)
	return &Backend{
		Auth:     NewAuth(client, sessions, clock),
		Tasks:    NewTasks(client, table),
		Storage:  NewStorage(client),
		Realtime: NewRealtime(client),
	}
}
