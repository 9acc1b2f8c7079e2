package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"

	"github.com/Phoethar22452/supabase-task-tracker/internal/domain"
)

const (
	minContentWidth = 40
	appChrome       = 4 // App padding on both sides
)

// View renders the TUI.
func (g *Gate) View() string {
	if g.quitting {
		return ""
	}
	if !g.loaded {
		return g.styles.App.Render("Loading...")
	}

	var b strings.Builder
	b.WriteString(g.viewHeader())
	b.WriteString("\n")

	if g.err != nil {
		b.WriteString(g.styles.ErrorMsg.Render("Error: "+g.err.Error()) + "\n\n")
	}

	if g.tasks == nil {
		b.WriteString(g.form.View())
		b.WriteString("\n\n")
		b.WriteString(g.help.View(formHelp{keys: g.keys}))
		return g.styles.App.Render(b.String())
	}

	b.WriteString(g.tasks.View())
	b.WriteString("\n")
	b.WriteString(g.viewFooter())
	return g.styles.App.Render(b.String())
}

func (g *Gate) viewHeader() string {
	title := g.styles.HeaderText.Render("Tasks")
	if g.session == nil {
		return g.styles.Header.Render(title)
	}
	user := g.styles.HeaderUser.Render(g.session.Email())
	return g.styles.Header.Render(title + "  " + user)
}

func (g *Gate) viewFooter() string {
	switch mode := g.tasks.Mode(); {
	case mode.IsInputMode():
		return g.help.View(inputHelp{keys: g.keys})
	case mode == ModeBrowse:
		return g.help.View(g.keys)
	default:
		// Hints are shown in the dialogs themselves
		return ""
	}
}

func (m *TaskManager) contentWidth() int {
	w := m.width - appChrome
	if w < minContentWidth {
		return minContentWidth
	}
	return w
}

// View renders the task list, the form and any overlay.
func (m *TaskManager) View() string {
	if m.mode == ModeHelp {
		return m.viewHelp()
	}

	var b strings.Builder
	if m.err != nil {
		b.WriteString(m.styles.ErrorMsg.Render("Error: "+m.err.Error()) + "\n\n")
	}

	b.WriteString(m.viewTaskList())

	if t := m.Selected(); t != nil && m.mode == ModeBrowse {
		b.WriteString("\n")
		b.WriteString(m.viewDetail(t))
	}

	b.WriteString("\n")
	switch m.mode {
	case ModeConfirmDelete:
		b.WriteString(m.viewConfirmDialog())
	case ModeInputImage:
		b.WriteString(m.viewImageInput())
	case ModeBrowse, ModeInputTitle, ModeInputDesc, ModeHelp:
		b.WriteString(m.viewForm())
	}
	return b.String()
}

func (m *TaskManager) viewTaskList() string {
	if len(m.tasks) == 0 {
		if m.listing {
			return m.styles.EmptyState.Render("Loading tasks...") + "\n"
		}
		return m.styles.EmptyState.Render("No tasks yet. Press n to add one.") + "\n"
	}

	var b strings.Builder
	for i := range m.tasks {
		b.WriteString(m.renderTaskItem(&m.tasks[i], i == m.cursor))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *TaskManager) renderTaskItem(t *domain.Task, selected bool) string {
	width := m.contentWidth()

	cursor := "  "
	titleStyle := m.styles.TaskTitle
	descStyle := m.styles.TaskDesc
	if selected {
		cursor = m.styles.Cursor.Render("> ")
		titleStyle = m.styles.TaskTitleSelected
		descStyle = m.styles.TaskDescSelected
	}

	id := m.styles.TaskID.Render(fmt.Sprintf("#%d", t.ID))
	suffix := ""
	if t.HasImage() {
		suffix += " " + m.styles.TaskImage.Render("[img]")
	}
	if m.edit.Active() && *m.edit.ID == t.ID {
		suffix += " " + m.styles.TaskEditing.Render("(editing)")
	}

	avail := width - 2 - lipgloss.Width(id) - 1 - lipgloss.Width(suffix)
	if avail < 8 {
		avail = 8
	}
	title := runewidth.Truncate(t.Title, avail, "…")
	line := cursor + id + " " + titleStyle.Render(title) + suffix

	if t.Description == "" {
		return line
	}
	desc := wordwrap.String(t.Description, width-4)
	lines := strings.Split(desc, "\n")
	if len(lines) > 2 {
		lines = lines[:2]
		lines[1] = truncate.StringWithTail(lines[1], uint(width-5), "…")
	}
	for i := range lines {
		lines[i] = "    " + descStyle.Render(lines[i])
	}
	return line + "\n" + strings.Join(lines, "\n")
}

func (m *TaskManager) viewDetail(t *domain.Task) string {
	row := func(label, value string) string {
		return m.styles.DetailLabel.Render(label) + m.styles.DetailValue.Render(value) + "\n"
	}
	var b strings.Builder
	if !t.CreatedAt.IsZero() {
		b.WriteString(row("Created", t.CreatedAt.Local().Format("2006-01-02 15:04")))
	}
	if t.Email != "" {
		b.WriteString(row("Owner", t.Email))
	}
	if t.HasImage() {
		url := truncate.StringWithTail(*t.ImageURL, uint(m.contentWidth()-12), "…")
		b.WriteString(row("Image", url))
	}
	return b.String()
}

func (m *TaskManager) viewForm() string {
	var b strings.Builder

	title := "New task"
	if m.edit.Active() {
		title = fmt.Sprintf("Edit task #%d", *m.edit.ID)
	}
	b.WriteString(m.styles.FormTitle.Render(title) + "\n")

	label := func(mode Mode, text string) string {
		if m.mode == mode {
			return m.styles.FormLabelBold.Render(text)
		}
		return m.styles.FormLabel.Render(text)
	}
	b.WriteString(label(ModeInputTitle, "Title") + m.titleInput.View() + "\n")
	b.WriteString(label(ModeInputDesc, "Description") + m.descInput.View() + "\n")

	if m.attachment != nil {
		b.WriteString(m.styles.Attachment.Render("Attached: "+m.attachment.Name) + "\n")
	}
	if m.submitting {
		b.WriteString(m.styles.DialogPrompt.Render("Saving...") + "\n")
	}
	return m.styles.Form.Render(strings.TrimRight(b.String(), "\n"))
}

func (m *TaskManager) viewImageInput() string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		m.styles.DialogTitle.Render("Attach image"),
		"",
		m.imageInput.View(),
		"",
		m.styles.DialogPrompt.Render("enter attach · esc cancel"),
	)
	return m.styles.Dialog.BorderForeground(Colors.Primary).Render(content)
}

func (m *TaskManager) viewConfirmDialog() string {
	t := m.Selected()
	if t == nil {
		return ""
	}

	title := m.styles.DialogTitle.Foreground(Colors.Error).Render(fmt.Sprintf("Delete task #%d?", t.ID))
	prompt := m.styles.DialogPrompt.Render("This action cannot be undone.")
	yesBtn := m.styles.FormLabelBold.Render("[ y ] Confirm")
	noBtn := m.styles.Footer.Render("[ any ] Cancel")
	buttons := lipgloss.JoinHorizontal(lipgloss.Left, yesBtn, "  ", noBtn)

	content := lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		prompt,
		"",
		buttons,
	)
	return m.styles.Dialog.BorderForeground(Colors.Error).Render(content)
}

func (m *TaskManager) viewHelp() string {
	title := m.styles.HeaderText.Render("KEYBOARD SHORTCUTS")

	sections := []struct {
		name  string
		binds []helpEntry
	}{
		{name: "NAVIGATION", binds: bindingsOf(m.keys.Up, m.keys.Down, m.keys.Refresh)},
		{name: "TASKS", binds: bindingsOf(m.keys.New, m.keys.Edit, m.keys.Delete, m.keys.Attach, m.keys.Detach)},
		{name: "FORM", binds: bindingsOf(m.keys.Submit, m.keys.NextField, m.keys.FormAttach, m.keys.Cancel)},
		{name: "GENERAL", binds: bindingsOf(m.keys.SignOut, m.keys.Help, m.keys.Quit, m.keys.ForceQuit)},
	}

	var col1, col2 strings.Builder
	renderSection := func(b *strings.Builder, idx int) {
		section := sections[idx]
		b.WriteString(m.styles.FormLabelBold.Render(section.name))
		b.WriteString("\n")
		for _, bind := range section.binds {
			k := m.styles.DetailLabel.Width(10).Render(bind.key)
			fmt.Fprintf(b, "%s %s\n", k, m.styles.DetailValue.Render(bind.desc))
		}
		b.WriteString("\n")
	}
	renderSection(&col1, 0)
	renderSection(&col1, 1)
	renderSection(&col2, 2)
	renderSection(&col2, 3)

	content := lipgloss.JoinHorizontal(lipgloss.Top,
		col1.String(),
		"    ",
		col2.String(),
	)

	return m.styles.Dialog.
		BorderForeground(Colors.Primary).
		Render(lipgloss.JoinVertical(lipgloss.Left, title, "", content, m.styles.Footer.Render("any key to close")))
}

// helpEntry is one row of the help overlay.
type helpEntry struct {
	key  string
	desc string
}

func bindingsOf(bindings ...key.Binding) []helpEntry {
	out := make([]helpEntry, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		out = append(out, helpEntry{key: h.Key, desc: h.Desc})
	}
	return out
}
