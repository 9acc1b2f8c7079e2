package tui

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Phoethar22452/supabase-task-tracker/internal/domain"
)

func writeImage(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("\x89PNG"), 0o600))
	return path
}

func indexOf(calls []string, name string) int {
	for i, c := range calls {
		if c == name {
			return i
		}
	}
	return -1
}

func TestTaskManager_CreateThenListShowsTaskOnce(t *testing.T) {
	f := newFixture(t)
	f.signedIn("a@example.com")

	f.press("n")
	f.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("Buy milk")})
	f.press("enter")

	m := f.gate.Tasks()
	require.NoError(t, m.Err())
	require.Len(t, f.store.Inserts, 1)
	assert.Nil(t, f.store.Inserts[0].ImageURL)
	assert.Equal(t, "a@example.com", f.store.Inserts[0].Email)
	assert.Equal(t, []string{"Buy milk"}, titles(m.Tasks()))
	assert.Equal(t, ModeBrowse, m.Mode())
	assert.True(t, m.Draft().IsEmpty())

	// The insert notification for the same row must not duplicate it.
	f.changes.Sub.Send(domain.InsertEvent{Table: domain.DefaultTaskTable, Task: f.store.Tasks[0]})
	f.drain()
	assert.Equal(t, []string{"Buy milk"}, titles(m.Tasks()))
}

func TestTaskManager_ResyncReloadsMissedTasks(t *testing.T) {
	f := newFixture(t)
	f.store.Seed("before", "")
	f.signedIn("a@example.com")
	m := f.gate.Tasks()
	lists := f.store.ListCalls

	// Inserted while the stream was reconnecting; no event arrives for it.
	f.store.Seed("missed", "")
	f.changes.Sub.Send(domain.ResyncEvent{Table: domain.DefaultTaskTable})
	f.drain()

	assert.Equal(t, lists+1, f.store.ListCalls)
	assert.ElementsMatch(t, []string{"before", "missed"}, titles(m.Tasks()))

	// Still listening after the reload.
	later := f.store.Seed("later", "")
	f.changes.Sub.Send(domain.InsertEvent{Table: domain.DefaultTaskTable, Task: later})
	f.drain()
	assert.ElementsMatch(t, []string{"before", "missed", "later"}, titles(m.Tasks()))
}

func TestTaskManager_EmptyTitleRejected(t *testing.T) {
	f := newFixture(t)
	f.signedIn("a@example.com")

	f.press("n")
	f.press("enter")

	assert.ErrorIs(t, f.gate.Tasks().Err(), domain.ErrEmptyTitle)
	assert.Empty(t, f.store.Inserts)
}

func TestTaskManager_DeleteExcludesTask(t *testing.T) {
	f := newFixture(t)
	a := f.store.Seed("a", "")
	f.store.Seed("b", "")
	f.signedIn("a@example.com")

	f.press("d")
	require.Equal(t, ModeConfirmDelete, f.gate.Tasks().Mode())
	assert.Contains(t, f.gate.View(), "Delete task #1?")
	f.press("y")

	assert.Equal(t, []int64{a.ID}, f.store.Deletes)
	assert.Equal(t, []string{"b"}, titles(f.gate.Tasks().Tasks()))
}

func TestTaskManager_DeleteCancelledByOtherKey(t *testing.T) {
	f := newFixture(t)
	f.store.Seed("a", "")
	f.signedIn("a@example.com")

	f.press("d")
	f.press("n")

	assert.Empty(t, f.store.Deletes)
	assert.Equal(t, ModeBrowse, f.gate.Tasks().Mode())
}

func TestTaskManager_UpdateChangesOnlyTarget(t *testing.T) {
	f := newFixture(t)
	a := f.store.Seed("a", "desc a")
	b := f.store.Seed("b", "desc b")
	f.signedIn("a@example.com")
	m := f.gate.Tasks()

	require.True(t, m.Edit(a.ID))
	m.SetTitle("a2")
	f.do(m.Submit())

	require.NoError(t, m.Err())
	require.Len(t, m.Tasks(), 2)
	assert.Equal(t, "a2", m.Tasks()[0].Title)
	assert.Equal(t, "desc a", m.Tasks()[0].Description)
	assert.Equal(t, b, m.Tasks()[1])
	assert.False(t, m.EditRecord().Active())
}

func TestTaskManager_EditThenCancelLeavesRecord(t *testing.T) {
	f := newFixture(t)
	a := f.store.Seed("a", "desc a")
	f.signedIn("a@example.com")
	m := f.gate.Tasks()
	require.NoError(t, m.Attach(writeImage(t, "cat.png")))

	f.press("e")
	require.True(t, m.EditRecord().Active())
	assert.Equal(t, a.ID, *m.EditRecord().ID)
	assert.Contains(t, f.gate.View(), "(editing)")
	f.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("zzz")})
	f.press("esc")

	assert.False(t, m.EditRecord().Active())
	assert.Nil(t, m.Attachment())
	assert.Zero(t, f.store.UpdateCalls)
	assert.Equal(t, []string{"a"}, titles(m.Tasks()))
}

func TestTaskManager_EditUnknownIDIsNoop(t *testing.T) {
	f := newFixture(t)
	f.store.Seed("a", "")
	f.signedIn("a@example.com")
	m := f.gate.Tasks()

	assert.False(t, m.Edit(999))
	assert.False(t, m.EditRecord().Active())
	assert.True(t, m.Draft().IsEmpty())
}

func TestTaskManager_EditWritesToEditRecord(t *testing.T) {
	f := newFixture(t)
	f.store.Seed("a", "")
	f.signedIn("a@example.com")
	m := f.gate.Tasks()
	m.SetTitle("draft")

	require.True(t, m.Edit(1))
	m.SetTitle("edited")

	assert.Equal(t, "edited", m.EditRecord().Title)
	m.CancelEdit()
	m.SetTitle("draft again")
	assert.Equal(t, "draft again", m.Draft().Title)
}

func TestTaskManager_UploadPrecedesUpdate(t *testing.T) {
	f := newFixture(t)
	a := f.store.Seed("a", "")
	f.blobs.Calls = &f.store.Calls
	f.signedIn("a@example.com")
	m := f.gate.Tasks()

	require.True(t, m.Edit(a.ID))
	require.NoError(t, m.Attach(writeImage(t, "cat.png")))
	f.do(m.Submit())

	require.NoError(t, m.Err())
	upload, update := indexOf(f.store.Calls, "Upload"), indexOf(f.store.Calls, "Update")
	require.NotEqual(t, -1, upload)
	assert.Less(t, upload, update)
	require.NotNil(t, f.store.Updates[0].ImageURL)
	assert.True(t, strings.HasPrefix(*f.store.Updates[0].ImageURL, "https://blobs.test/"))
	assert.Nil(t, m.Attachment())
	assert.True(t, m.Tasks()[0].HasImage())
}

func TestTaskManager_CreateWithAttachment(t *testing.T) {
	f := newFixture(t)
	f.signedIn("a@example.com")
	m := f.gate.Tasks()

	m.SetTitle("with image")
	require.NoError(t, m.Attach(writeImage(t, "cat.png")))
	assert.Contains(t, f.gate.View(), "Attached: cat.png")
	f.do(m.Submit())

	require.Len(t, f.store.Inserts, 1)
	require.NotNil(t, f.store.Inserts[0].ImageURL)
	assert.Len(t, f.blobs.Objects, 1)
	assert.Contains(t, f.gate.View(), "[img]")
}

func TestTaskManager_UploadFailureLogged(t *testing.T) {
	f := newFixture(t)
	f.blobs.UploadErr = errors.New("bucket missing")
	f.signedIn("a@example.com")
	m := f.gate.Tasks()

	m.SetTitle("with image")
	require.NoError(t, m.Attach(writeImage(t, "cat.png")))
	f.do(m.Submit())

	assert.Empty(t, f.store.Inserts)
	require.Error(t, m.Err())
	assert.True(t, domain.IsKind(m.Err(), domain.KindUpload))
	errs := f.logger.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, catUpload, errs[0].Category)
	assert.True(t, strings.HasPrefix(errs[0].Msg, "Error uploading image: "))
	assert.NotNil(t, m.Attachment())
}

func TestTaskManager_ListFailureLogged(t *testing.T) {
	f := newFixture(t)
	f.store.ListErr = errors.New("relation does not exist")
	f.signedIn("a@example.com")
	m := f.gate.Tasks()

	require.Error(t, m.Err())
	assert.Empty(t, m.Tasks())
	errs := f.logger.Errors()
	require.NotEmpty(t, errs)
	assert.True(t, strings.HasPrefix(errs[0].Msg, "Error fetching tasks: "))
}

func TestTaskManager_AttachRejectsMissingFile(t *testing.T) {
	f := newFixture(t)
	f.signedIn("a@example.com")
	m := f.gate.Tasks()

	assert.Error(t, m.Attach(filepath.Join(t.TempDir(), "missing.png")))
	assert.Error(t, m.Attach(t.TempDir()))
	assert.Error(t, m.Attach("  "))
	assert.Nil(t, m.Attachment())
}

func TestTaskManager_AttachFromImageInput(t *testing.T) {
	f := newFixture(t)
	f.signedIn("a@example.com")
	m := f.gate.Tasks()
	path := writeImage(t, "dog.png")

	f.press("i")
	require.Equal(t, ModeInputImage, m.Mode())
	f.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(path)})
	f.press("enter")

	require.NotNil(t, m.Attachment())
	assert.Equal(t, "dog.png", m.Attachment().Name)
	assert.Equal(t, ModeBrowse, m.Mode())

	f.press("x")
	assert.Nil(t, m.Attachment())
}

func TestTaskManager_InsertsDuringListAreMerged(t *testing.T) {
	f := newFixture(t)
	a := f.store.Seed("a", "")
	f.signedIn("a@example.com")
	m := f.gate.Tasks()

	// Issue a list request without delivering its response yet.
	_ = m.refetch()
	x := domain.Task{ID: 10, Title: "x", CreatedAt: a.CreatedAt.Add(1)}
	y := domain.Task{ID: 11, Title: "y", CreatedAt: a.CreatedAt.Add(2)}
	f.send(MsgTaskInserted{Gen: m.Gen(), Task: x})
	f.send(MsgTaskInserted{Gen: m.Gen(), Task: y})
	f.send(MsgTasksLoaded{Gen: m.Gen(), Seq: m.listSeq, Tasks: []domain.Task{a}})

	assert.Equal(t, []string{"a", "x", "y"}, titles(m.Tasks()))
}

func TestTaskManager_StaleListResponseDropped(t *testing.T) {
	f := newFixture(t)
	a := f.store.Seed("a", "")
	b := f.store.Seed("b", "")
	f.signedIn("a@example.com")
	m := f.gate.Tasks()

	_ = m.refetch()
	older := m.listSeq
	_ = m.refetch()
	f.send(MsgTasksLoaded{Gen: m.Gen(), Seq: m.listSeq, Tasks: []domain.Task{a, b}})
	f.send(MsgTasksLoaded{Gen: m.Gen(), Seq: older, Tasks: []domain.Task{a}})

	assert.Equal(t, []string{"a", "b"}, titles(m.Tasks()))
}

func TestTaskManager_InsertFromOtherClientAppears(t *testing.T) {
	f := newFixture(t)
	f.store.Seed("mine", "")
	f.signedIn("a@example.com")
	m := f.gate.Tasks()

	other := f.store.Seed("theirs", "")
	f.changes.Sub.Send(domain.InsertEvent{Table: domain.DefaultTaskTable, Task: other})
	f.drain()

	assert.Equal(t, []string{"mine", "theirs"}, titles(m.Tasks()))
}

func TestTaskManager_CursorNavigation(t *testing.T) {
	f := newFixture(t)
	f.store.Seed("a", "")
	f.store.Seed("b", "")
	f.signedIn("a@example.com")
	m := f.gate.Tasks()

	f.press("down")
	assert.Equal(t, "b", m.Selected().Title)
	f.press("down")
	assert.Equal(t, "b", m.Selected().Title)
	f.press("k")
	assert.Equal(t, "a", m.Selected().Title)
}

func TestTaskManager_HelpOverlay(t *testing.T) {
	f := newFixture(t)
	f.signedIn("a@example.com")

	f.press("?")
	assert.Equal(t, ModeHelp, f.gate.Tasks().Mode())
	assert.Contains(t, f.gate.View(), "KEYBOARD SHORTCUTS")

	f.press("j")
	assert.Equal(t, ModeBrowse, f.gate.Tasks().Mode())
}
