package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Phoethar22452/supabase-task-tracker/internal/app"
	"github.com/Phoethar22452/supabase-task-tracker/internal/domain"
	"github.com/Phoethar22452/supabase-task-tracker/internal/usecase"
)

// Log categories.
const (
	catTasks    = "tasks"
	catUpload   = "upload"
	catRealtime = "realtime"
)

// TaskManager is the task list view-model of one signed-in session.
// Its context is cancelled and its subscription released by Close.
// Fields are ordered to minimize memory padding.
type TaskManager struct {
	container  *app.Container
	ctx        context.Context
	cancel     context.CancelFunc
	sub        domain.Subscription
	session    *domain.Session
	err        error
	attachment *domain.Attachment
	tasks      []domain.Task
	pending    []domain.Task // Inserts received while a list is in flight
	keys       KeyMap
	styles     Styles
	titleInput textinput.Model
	descInput  textinput.Model
	imageInput textinput.Model
	edit       domain.EditRecord
	draft      domain.Draft
	gen        uint64
	listSeq    uint64
	mode       Mode
	returnMode Mode
	cursor     int
	width      int
	height     int
	listing    bool
	submitting bool
	closed     bool
}

// NewTaskManager creates a view for session. gen identifies this mount.
func NewTaskManager(c *app.Container, session *domain.Session, gen uint64, keys KeyMap, styles Styles) *TaskManager {
	ti := newInput("Task title", 200)
	di := newInput("Description (optional)", 1000)
	ii := newInput("Path to image file", 4096)

	ctx, cancel := context.WithCancel(context.Background())
	return &TaskManager{
		container:  c,
		ctx:        ctx,
		cancel:     cancel,
		session:    session,
		keys:       keys,
		styles:     styles,
		titleInput: ti,
		descInput:  di,
		imageInput: ii,
		gen:        gen,
		mode:       ModeBrowse,
		tasks:      []domain.Task{},
	}
}

// Init fetches the list and opens the insert subscription.
func (m *TaskManager) Init() tea.Cmd {
	return tea.Batch(m.refetch(), watchInserts(m.ctx, m.container, m.gen))
}

// Close cancels in-flight requests and releases the subscription.
func (m *TaskManager) Close() {
	if m.closed {
		return
	}
	m.closed = true
	m.cancel()
	if m.sub != nil {
		_ = m.sub.Close()
		m.sub = nil
	}
}

// Session returns the session this view acts for.
func (m *TaskManager) Session() *domain.Session { return m.session }

// SetSession swaps the session, e.g. after a token refresh.
func (m *TaskManager) SetSession(s *domain.Session) { m.session = s }

// Gen returns the mount generation.
func (m *TaskManager) Gen() uint64 { return m.gen }

// Tasks returns the current collection.
func (m *TaskManager) Tasks() []domain.Task { return m.tasks }

// Draft returns the new-task form state.
func (m *TaskManager) Draft() domain.Draft { return m.draft }

// EditRecord returns the edit form state.
func (m *TaskManager) EditRecord() domain.EditRecord { return m.edit }

// Attachment returns the pending attachment, or nil.
func (m *TaskManager) Attachment() *domain.Attachment { return m.attachment }

// Err returns the error slot.
func (m *TaskManager) Err() error { return m.err }

// Mode returns the current mode.
func (m *TaskManager) Mode() Mode { return m.mode }

// InputMode reports whether keys go to a text input.
func (m *TaskManager) InputMode() bool { return m.mode.IsInputMode() }

// SetSize sets the render size.
func (m *TaskManager) SetSize(width, height int) {
	m.width = width
	m.height = height
	inputWidth := width - 24
	if inputWidth < 20 {
		inputWidth = 20
	}
	m.titleInput.Width = inputWidth
	m.descInput.Width = inputWidth
	m.imageInput.Width = inputWidth
}

// Selected returns the task under the cursor, or nil.
func (m *TaskManager) Selected() *domain.Task {
	if m.cursor < 0 || m.cursor >= len(m.tasks) {
		return nil
	}
	return &m.tasks[m.cursor]
}

// refetch issues a list request. Inserts arriving until it completes
// are merged into its result.
func (m *TaskManager) refetch() tea.Cmd {
	m.listSeq++
	m.listing = true
	m.pending = nil
	return listTasks(m.ctx, m.container, m.gen, m.listSeq)
}

// Edit copies the task into the draft and the edit record.
// An unknown id is a no-op.
func (m *TaskManager) Edit(id int64) bool {
	t := domain.FindTask(m.tasks, id)
	if t == nil {
		return false
	}
	m.draft = domain.Draft{Title: t.Title, Description: t.Description}
	m.edit = domain.EditRecordFor(*t)
	m.syncInputs()
	return true
}

// CancelEdit leaves update mode and drops the pending attachment.
// The draft is kept.
func (m *TaskManager) CancelEdit() {
	m.edit = domain.EditRecord{}
	m.attachment = nil
	m.syncInputs()
}

// SetTitle writes to the active structure.
func (m *TaskManager) SetTitle(v string) {
	if m.edit.Active() {
		m.edit.Title = v
	} else {
		m.draft.Title = v
	}
}

// SetDescription writes to the active structure.
func (m *TaskManager) SetDescription(v string) {
	if m.edit.Active() {
		m.edit.Description = v
	} else {
		m.draft.Description = v
	}
}

// activeFields returns the title and description bound to the inputs.
func (m *TaskManager) activeFields() (string, string) {
	if m.edit.Active() {
		return m.edit.Title, m.edit.Description
	}
	return m.draft.Title, m.draft.Description
}

func (m *TaskManager) syncInputs() {
	title, desc := m.activeFields()
	m.titleInput.SetValue(title)
	m.descInput.SetValue(desc)
}

// Attach sets the pending attachment after checking the file exists.
func (m *TaskManager) Attach(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("no file selected")
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	m.attachment = &domain.Attachment{Name: filepath.Base(path), Path: path}
	return nil
}

// Submit creates the draft or updates the edited task.
func (m *TaskManager) Submit() tea.Cmd {
	if m.submitting {
		return nil
	}
	title, desc := m.activeFields()
	if strings.TrimSpace(title) == "" {
		m.err = domain.ErrEmptyTitle
		return nil
	}
	m.submitting = true
	m.err = nil

	var attachment *domain.Attachment
	if m.attachment != nil {
		a := *m.attachment
		attachment = &a
	}
	if m.edit.Active() {
		return updateTask(m.ctx, m.container, m.gen, usecase.UpdateTaskInput{
			ID:          *m.edit.ID,
			Title:       title,
			Description: desc,
			Attachment:  attachment,
		})
	}
	return createTask(m.ctx, m.container, m.gen, usecase.CreateTaskInput{
		Email:      m.session.Email(),
		Draft:      domain.Draft{Title: title, Description: desc},
		Attachment: attachment,
	})
}

// Delete removes the task with id.
func (m *TaskManager) Delete(id int64) tea.Cmd {
	return deleteTask(m.ctx, m.container, m.gen, id)
}

// fail logs err under prefix and sets the error slot.
func (m *TaskManager) fail(prefix string, err error) {
	category := catTasks
	if domain.IsKind(err, domain.KindUpload) {
		category = catUpload
		prefix = "Error uploading image"
	}
	m.container.Log.Error(category, prefix+": "+err.Error())
	m.err = err
}

func (m *TaskManager) clampCursor() {
	if m.cursor >= len(m.tasks) {
		m.cursor = len(m.tasks) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *TaskManager) resetForm() {
	m.draft = domain.Draft{}
	m.attachment = nil
	m.titleInput.Reset()
	m.descInput.Reset()
	m.imageInput.Reset()
	m.setMode(ModeBrowse)
}

func (m *TaskManager) setMode(mode Mode) {
	m.mode = mode
	m.titleInput.Blur()
	m.descInput.Blur()
	m.imageInput.Blur()
	switch mode {
	case ModeInputTitle:
		m.titleInput.Focus()
	case ModeInputDesc:
		m.descInput.Focus()
	case ModeInputImage:
		m.imageInput.Focus()
	case ModeBrowse, ModeConfirmDelete, ModeHelp:
	}
}

// Update handles messages for this view.
func (m *TaskManager) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case MsgTasksLoaded:
		if msg.Seq != m.listSeq {
			return nil
		}
		m.listing = false
		if msg.Err != nil {
			m.pending = nil
			m.fail("Error fetching tasks", msg.Err)
			return nil
		}
		m.tasks = domain.MergeTasks(msg.Tasks, m.pending)
		m.pending = nil
		m.clampCursor()
		return nil

	case MsgWatchStarted:
		if msg.Err != nil {
			m.container.Log.Error(catRealtime, "Error subscribing to inserts: "+msg.Err.Error())
			m.err = msg.Err
			return nil
		}
		if m.closed {
			msg.discard()
			return nil
		}
		m.sub = msg.Sub
		return waitForInsert(m.sub, m.gen)

	case MsgTaskInserted:
		m.tasks = domain.UpsertTask(m.tasks, msg.Task)
		domain.SortTasks(m.tasks)
		if m.listing {
			m.pending = domain.UpsertTask(m.pending, msg.Task)
		}
		if m.sub == nil {
			return nil
		}
		return waitForInsert(m.sub, m.gen)

	case MsgWatchResynced:
		m.container.Log.Info(catRealtime, "insert subscription reconnected, reloading tasks")
		if m.sub == nil {
			return m.refetch()
		}
		return tea.Batch(m.refetch(), waitForInsert(m.sub, m.gen))

	case MsgWatchClosed:
		if !m.closed {
			m.container.Log.Warn(catRealtime, "insert subscription closed")
		}
		m.sub = nil
		return nil

	case MsgTaskCreated:
		m.submitting = false
		if msg.Err != nil {
			m.fail("Error creating task", msg.Err)
			return nil
		}
		m.resetForm()
		return m.refetch()

	case MsgTaskUpdated:
		m.submitting = false
		if msg.Err != nil {
			m.fail("Error updating task", msg.Err)
			return nil
		}
		m.edit = domain.EditRecord{}
		m.resetForm()
		return m.refetch()

	case MsgTaskDeleted:
		if msg.Err != nil {
			m.fail("Error deleting task", msg.Err)
			return nil
		}
		m.err = nil
		return m.refetch()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return nil
}

func (m *TaskManager) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch m.mode {
	case ModeInputTitle, ModeInputDesc:
		return m.handleFormKey(msg)
	case ModeInputImage:
		return m.handleImageKey(msg)
	case ModeConfirmDelete:
		if key.Matches(msg, m.keys.Confirm) {
			m.setMode(ModeBrowse)
			if t := m.Selected(); t != nil {
				return m.Delete(t.ID)
			}
			return nil
		}
		m.setMode(ModeBrowse)
		return nil
	case ModeHelp:
		m.setMode(ModeBrowse)
		return nil
	case ModeBrowse:
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.tasks)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.New):
		m.syncInputs()
		m.setMode(ModeInputTitle)
		return textinput.Blink
	case key.Matches(msg, m.keys.Edit):
		if t := m.Selected(); t != nil && m.Edit(t.ID) {
			m.setMode(ModeInputTitle)
			return textinput.Blink
		}
	case key.Matches(msg, m.keys.Delete):
		if m.Selected() != nil {
			m.setMode(ModeConfirmDelete)
		}
	case key.Matches(msg, m.keys.Attach):
		m.returnMode = ModeBrowse
		m.setMode(ModeInputImage)
		return textinput.Blink
	case key.Matches(msg, m.keys.Detach):
		m.attachment = nil
	case key.Matches(msg, m.keys.Cancel):
		if m.edit.Active() {
			m.CancelEdit()
		}
		m.err = nil
	case key.Matches(msg, m.keys.Refresh):
		return m.refetch()
	case key.Matches(msg, m.keys.Help):
		m.setMode(ModeHelp)
	}
	return nil
}

func (m *TaskManager) handleFormKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Submit):
		return m.Submit()
	case key.Matches(msg, m.keys.NextField):
		if m.mode == ModeInputTitle {
			m.setMode(ModeInputDesc)
		} else {
			m.setMode(ModeInputTitle)
		}
		return nil
	case key.Matches(msg, m.keys.Cancel):
		if m.edit.Active() {
			m.CancelEdit()
		}
		m.setMode(ModeBrowse)
		return nil
	case key.Matches(msg, m.keys.FormAttach):
		m.returnMode = m.mode
		m.setMode(ModeInputImage)
		return textinput.Blink
	}

	var cmd tea.Cmd
	if m.mode == ModeInputTitle {
		m.titleInput, cmd = m.titleInput.Update(msg)
		m.SetTitle(m.titleInput.Value())
	} else {
		m.descInput, cmd = m.descInput.Update(msg)
		m.SetDescription(m.descInput.Value())
	}
	return cmd
}

func (m *TaskManager) handleImageKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Submit):
		if err := m.Attach(m.imageInput.Value()); err != nil {
			m.container.Log.Warn(catUpload, "Error attaching file: "+err.Error())
			m.err = err
			return nil
		}
		m.err = nil
		m.imageInput.Reset()
		m.setMode(m.returnMode)
		return nil
	case key.Matches(msg, m.keys.Cancel):
		m.imageInput.Reset()
		m.setMode(m.returnMode)
		return nil
	}
	var cmd tea.Cmd
	m.imageInput, cmd = m.imageInput.Update(msg)
	return cmd
}
