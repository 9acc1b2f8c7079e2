package tui

import (
	"reflect"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Phoethar22452/supabase-task-tracker/internal/app"
	"github.com/Phoethar22452/supabase-task-tracker/internal/domain"
	"github.com/Phoethar22452/supabase-task-tracker/internal/testutil"
)

// stuck bounds how long drain waits for a running command before failing.
const stuck = 5 * time.Second

func init() {
	// A blinking cursor re-arms a timer forever; commands would never settle.
	cursorMode = cursor.CursorStatic
}

// Subscription waiters, identified by the function that built the command.
const (
	waiterNone   = ""
	waiterAuth   = "waitForAuth"
	waiterInsert = "waitForInsert"
)

// result is a finished command.
type result struct {
	msg    tea.Msg
	waiter string
}

// fixture wires a Gate to mock ports and runs its commands the way the
// bubbletea runtime would: each command in its own goroutine. It counts
// running commands so drain returns once only subscription waiters
// with nothing to read remain.
type fixture struct {
	t        *testing.T
	gate     *Gate
	identity *testutil.MockIdentity
	store    *testutil.MockTaskStore
	blobs    *testutil.MockBlobStore
	changes  *testutil.MockChangeStream
	logger   *testutil.MockLogger
	results  chan result
	running  map[string]int // Outstanding commands by waiter kind
	consumed map[string]int // Events turned into messages by waiter kind
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		t:        t,
		identity: testutil.NewMockIdentity(),
		store:    testutil.NewMockTaskStore(),
		blobs:    testutil.NewMockBlobStore(),
		changes:  testutil.NewMockChangeStream(),
		logger:   &testutil.MockLogger{},
		results:  make(chan result, 256),
		running:  map[string]int{},
		consumed: map[string]int{},
	}
	c := app.NewWithDeps(domain.NewDefaultConfig(), app.Deps{
		Identity: f.identity,
		Tasks:    f.store,
		Blobs:    f.blobs,
		Changes:  f.changes,
		Clock:    &testutil.MockClock{NowTime: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)},
		Log:      f.logger,
	})
	f.gate = New(c)
	t.Cleanup(func() {
		f.gate.Close()
		_ = f.changes.Sub.Close()
	})
	return f
}

// start runs Init and a window size, then drains.
func (f *fixture) start() {
	f.send(tea.WindowSizeMsg{Width: 100, Height: 40})
	f.run(f.gate.Init())
	f.drain()
}

// signedIn starts the fixture with an existing session for email.
func (f *fixture) signedIn(email string) {
	f.t.Helper()
	f.identity.Session = testutil.SessionFor(email)
	f.start()
	if f.gate.Tasks() == nil {
		f.t.Fatalf("expected task view to be mounted for %s", email)
	}
}

func waiterKind(cmd tea.Cmd) string {
	name := runtime.FuncForPC(reflect.ValueOf(cmd).Pointer()).Name()
	switch {
	case strings.Contains(name, waiterAuth):
		return waiterAuth
	case strings.Contains(name, waiterInsert):
		return waiterInsert
	}
	return waiterNone
}

func (f *fixture) run(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	kind := waiterKind(cmd)
	f.running[kind]++
	go func() {
		f.results <- result{msg: cmd(), waiter: kind}
	}()
}

// send feeds msg to the gate and runs the returned command.
func (f *fixture) send(msg tea.Msg) {
	switch msg := msg.(type) {
	case nil:
		return
	case tea.BatchMsg:
		for _, cmd := range msg {
			f.run(cmd)
		}
		return
	}
	_, cmd := f.gate.Update(msg)
	f.run(cmd)
}

// busy reports whether a waiter on sub is about to return: the
// subscription was closed or holds events not yet turned into messages.
func (f *fixture) busy(kind string, sub *testutil.MockSubscription) bool {
	return f.running[kind] > 0 && (sub.Closed() || sub.Sent() > f.consumed[kind])
}

func (f *fixture) settled() bool {
	return len(f.results) == 0 &&
		f.running[waiterNone] == 0 &&
		!f.busy(waiterAuth, f.identity.Sub) &&
		!f.busy(waiterInsert, f.changes.Sub)
}

// drain delivers command results until only idle subscription waiters remain.
func (f *fixture) drain() {
	f.t.Helper()
	for !f.settled() {
		select {
		case r := <-f.results:
			f.running[r.waiter]--
			switch r.msg.(type) {
			case MsgAuthClosed, MsgWatchClosed:
			default:
				if r.waiter != waiterNone {
					f.consumed[r.waiter]++
				}
			}
			f.send(r.msg)
		case <-time.After(stuck):
			f.t.Fatalf("commands still running after %s: %v", stuck, f.running)
		}
	}
}

// press sends a key and drains.
func (f *fixture) press(k string) {
	f.send(keyMsg(k))
	f.drain()
}

// do runs cmd and drains.
func (f *fixture) do(cmd tea.Cmd) {
	f.run(cmd)
	f.drain()
}

// assertGateInvariant checks that exactly one of the form and the task view is shown.
func (f *fixture) assertGateInvariant() {
	f.t.Helper()
	if (f.gate.Session() == nil) != (f.gate.Tasks() == nil) {
		f.t.Fatalf("session %v but task view mounted=%v", f.gate.Session(), f.gate.Tasks() != nil)
	}
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "ctrl+t":
		return tea.KeyMsg{Type: tea.KeyCtrlT}
	case "ctrl+a":
		return tea.KeyMsg{Type: tea.KeyCtrlA}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func titles(tasks []domain.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Title)
	}
	return out
}
