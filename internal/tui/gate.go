package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Phoethar22452/supabase-task-tracker/internal/app"
	"github.com/Phoethar22452/supabase-task-tracker/internal/domain"
)

// Gate is the root model. It shows the credential form while signed out
// and a task view bound to the session while signed in.
// Fields are ordered to minimize memory padding.
type Gate struct {
	container  *app.Container
	session    *domain.Session
	authSub    domain.Subscription
	err        error
	form       *CredentialForm
	tasks      *TaskManager
	help       help.Model
	keys       KeyMap
	styles     Styles
	gen        uint64
	authEvents int // Non-initial auth events seen
	width      int
	height     int
	loaded     bool
	quitting   bool
	closed     bool
}

// New creates the root model.
func New(c *app.Container) *Gate {
	keys := DefaultKeyMap()
	styles := DefaultStyles()
	return &Gate{
		container: c,
		keys:      keys,
		styles:    styles,
		help:      help.New(),
		form:      NewCredentialForm(c, keys, styles),
	}
}

// Init fetches the session and subscribes to identity changes.
func (g *Gate) Init() tea.Cmd {
	return tea.Batch(fetchSession(g.container), subscribeAuth(g.container), textinput.Blink)
}

// Session returns the current session, or nil.
func (g *Gate) Session() *domain.Session { return g.session }

// Tasks returns the mounted task view, or nil while signed out.
func (g *Gate) Tasks() *TaskManager { return g.tasks }

// Form returns the credential form.
func (g *Gate) Form() *CredentialForm { return g.form }

// Err returns the gate's error slot.
func (g *Gate) Err() error { return g.err }

// Close releases the auth subscription and the mounted view.
func (g *Gate) Close() {
	if g.closed {
		return
	}
	g.closed = true
	if g.authSub != nil {
		_ = g.authSub.Close()
		g.authSub = nil
	}
	if g.tasks != nil {
		g.tasks.Close()
	}
}

// setSession applies a session change. A different user remounts the
// task view so no state crosses identities.
func (g *Gate) setSession(s *domain.Session) tea.Cmd {
	prev := g.session
	g.session = s

	if s == nil {
		if g.tasks != nil {
			g.tasks.Close()
			g.tasks = nil
		}
		if prev != nil {
			g.form = NewCredentialForm(g.container, g.keys, g.styles)
		}
		return nil
	}

	if g.tasks != nil && prev.SameUser(s) {
		g.tasks.SetSession(s)
		return nil
	}

	if g.tasks != nil {
		g.tasks.Close()
	}
	g.err = nil
	g.gen++
	g.tasks = NewTaskManager(g.container, s, g.gen, g.keys, g.styles)
	g.tasks.SetSize(g.width, g.height)
	g.form = NewCredentialForm(g.container, g.keys, g.styles)
	return g.tasks.Init()
}

// Update handles messages.
func (g *Gate) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		g.width = msg.Width
		g.height = msg.Height
		g.help.Width = msg.Width
		if g.tasks != nil {
			g.tasks.SetSize(msg.Width, msg.Height)
		}
		return g, nil

	case tea.KeyMsg:
		return g, g.handleKey(msg)

	case MsgSessionLoaded:
		g.loaded = true
		if msg.Err != nil {
			g.container.Log.Error(catAuth, "Error fetching session: "+msg.Err.Error())
			g.err = msg.Err
			return g, nil
		}
		// A later identity change already superseded this snapshot.
		if g.authEvents > 0 {
			return g, nil
		}
		return g, g.setSession(msg.Session)

	case MsgAuthSubscribed:
		if msg.Err != nil {
			g.container.Log.Error(catAuth, "Error subscribing to auth changes: "+msg.Err.Error())
			g.err = msg.Err
			return g, nil
		}
		if g.closed {
			_ = msg.Sub.Close()
			return g, nil
		}
		g.authSub = msg.Sub
		return g, waitForAuth(g.authSub)

	case MsgAuthEvent:
		g.loaded = true
		if msg.Event.Kind != domain.AuthInitialSession {
			g.authEvents++
		}
		g.container.Log.Debug(catAuth, "auth change: "+string(msg.Event.Kind))
		cmd := g.setSession(msg.Event.Session)
		if g.authSub == nil {
			return g, cmd
		}
		return g, tea.Batch(cmd, waitForAuth(g.authSub))

	case MsgAuthClosed:
		if !g.closed {
			g.container.Log.Warn(catAuth, "auth subscription closed")
		}
		g.authSub = nil
		return g, nil

	case MsgCredentialsResult:
		return g, g.form.Update(msg)

	case MsgSignedOut:
		if msg.Err != nil {
			g.container.Log.Error(catAuth, "Error signing out: "+msg.Err.Error())
			g.err = msg.Err
		}
		return g, nil

	case scopedMsg:
		if g.tasks == nil || msg.generation() != g.tasks.Gen() {
			if ws, ok := msg.(MsgWatchStarted); ok {
				ws.discard()
			}
			return g, nil
		}
		return g, g.tasks.Update(msg)
	}
	return g, nil
}

func (g *Gate) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, g.keys.ForceQuit) {
		g.quitting = true
		g.Close()
		return tea.Quit
	}

	if g.tasks == nil {
		return g.form.Update(msg)
	}

	if !g.tasks.InputMode() && g.tasks.Mode() == ModeBrowse {
		switch {
		case key.Matches(msg, g.keys.Quit):
			g.quitting = true
			g.Close()
			return tea.Quit
		case key.Matches(msg, g.keys.SignOut):
			g.err = nil
			return signOut(g.container)
		}
	}
	return g.tasks.Update(msg)
}
