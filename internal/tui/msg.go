package tui

import "github.com/Phoethar22452/supabase-task-tracker/internal/domain"

// Msg is the sealed interface for all TUI messages.
//
// go-sumtype:decl Msg
type Msg interface {
	sealed()
}

// scopedMsg is a message addressed to one mounted task view.
// The gate drops it when the generation no longer matches.
type scopedMsg interface {
	Msg
	generation() uint64
}

// MsgSessionLoaded is sent when the initial session fetch completes.
type MsgSessionLoaded struct {
	Session *domain.Session
	Err     error
}

func (MsgSessionLoaded) sealed() {}

// MsgAuthSubscribed is sent when the auth change subscription is open.
type MsgAuthSubscribed struct {
	Sub domain.Subscription
	Err error
}

func (MsgAuthSubscribed) sealed() {}

// MsgAuthEvent is sent for every identity change.
type MsgAuthEvent struct {
	Event domain.AuthChangeEvent
}

func (MsgAuthEvent) sealed() {}

// MsgAuthClosed is sent when the auth subscription ends.
type MsgAuthClosed struct{}

func (MsgAuthClosed) sealed() {}

// MsgCredentialsResult is sent when sign-in or sign-up completes.
type MsgCredentialsResult struct {
	Err     error
	SignUp  bool
	Pending bool // Sign-up succeeded but needs confirmation
}

func (MsgCredentialsResult) sealed() {}

// MsgSignedOut is sent when sign-out completes.
type MsgSignedOut struct {
	Err error
}

func (MsgSignedOut) sealed() {}

// MsgTasksLoaded is sent when a list request completes.
type MsgTasksLoaded struct {
	Err   error
	Tasks []domain.Task
	Gen   uint64
	Seq   uint64 // Request sequence; older responses are dropped
}

func (MsgTasksLoaded) sealed() {}
func (m MsgTasksLoaded) generation() uint64 { return m.Gen }

// MsgWatchStarted is sent when the insert subscription is open.
type MsgWatchStarted struct {
	Sub domain.Subscription
	Err error
	Gen uint64
}

func (MsgWatchStarted) sealed() {}
func (m MsgWatchStarted) generation() uint64 { return m.Gen }

// discard releases the subscription of a view that is no longer mounted.
func (m MsgWatchStarted) discard() {
	if m.Sub != nil {
		_ = m.Sub.Close()
	}
}

// MsgTaskInserted is sent for each insert event.
type MsgTaskInserted struct {
	Task domain.Task
	Gen  uint64
}

func (MsgTaskInserted) sealed() {}
func (m MsgTaskInserted) generation() uint64 { return m.Gen }

// MsgWatchResynced is sent when the insert subscription reconnected
// and may have missed rows.
type MsgWatchResynced struct {
	Gen uint64
}

func (MsgWatchResynced) sealed() {}
func (m MsgWatchResynced) generation() uint64 { return m.Gen }

// MsgWatchClosed is sent when the insert subscription ends.
type MsgWatchClosed struct {
	Gen uint64
}

func (MsgWatchClosed) sealed() {}
func (m MsgWatchClosed) generation() uint64 { return m.Gen }

// MsgTaskCreated is sent when a create request completes.
type MsgTaskCreated struct {
	Err  error
	Task *domain.Task
	Gen  uint64
}

func (MsgTaskCreated) sealed() {}
func (m MsgTaskCreated) generation() uint64 { return m.Gen }

// MsgTaskUpdated is sent when an update request completes.
type MsgTaskUpdated struct {
	Err  error
	Task *domain.Task
	Gen  uint64
}

func (MsgTaskUpdated) sealed() {}
func (m MsgTaskUpdated) generation() uint64 { return m.Gen }

// MsgTaskDeleted is sent when a delete request completes.
type MsgTaskDeleted struct {
	Err error
	ID  int64
	Gen uint64
}

func (MsgTaskDeleted) sealed() {}
func (m MsgTaskDeleted) generation() uint64 { return m.Gen }
