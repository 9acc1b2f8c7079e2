package tui

import "github.com/charmbracelet/lipgloss"

// Colors defines the color palette for the TUI.
var Colors = struct {
	// Base colors
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Muted     lipgloss.Color
	Error     lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color

	// Title/text colors
	TitleNormal   lipgloss.Color
	TitleSelected lipgloss.Color
	DescNormal    lipgloss.Color
	DescSelected  lipgloss.Color
}{
	Primary:   lipgloss.Color("#6C5CE7"), // Purple
	Secondary: lipgloss.Color("#A29BFE"), // Lavender
	Muted:     lipgloss.Color("#636E72"), // Gray
	Error:     lipgloss.Color("#D63031"), // Red
	Success:   lipgloss.Color("#00B894"), // Green
	Warning:   lipgloss.Color("#FDCB6E"), // Yellow

	TitleNormal:   lipgloss.Color("#DFE6E9"), // Light gray
	TitleSelected: lipgloss.Color("#FFEAA7"), // Yellow (selected)
	DescNormal:    lipgloss.Color("#636E72"), // Gray
	DescSelected:  lipgloss.Color("#B2BEC3"), // Light gray
}

// Styles contains all the lipgloss styles for the TUI.
type Styles struct {
	// App
	App lipgloss.Style

	// Header
	Header     lipgloss.Style
	HeaderText lipgloss.Style
	HeaderUser lipgloss.Style

	// Task list
	TaskID            lipgloss.Style
	TaskTitle         lipgloss.Style
	TaskTitleSelected lipgloss.Style
	TaskDesc          lipgloss.Style
	TaskDescSelected  lipgloss.Style
	TaskImage         lipgloss.Style
	TaskEditing       lipgloss.Style
	Cursor            lipgloss.Style
	EmptyState        lipgloss.Style

	// Form
	Form          lipgloss.Style
	FormTitle     lipgloss.Style
	FormLabel     lipgloss.Style
	FormLabelBold lipgloss.Style
	Attachment    lipgloss.Style
	Notice        lipgloss.Style

	// Dialog
	Dialog       lipgloss.Style
	DialogTitle  lipgloss.Style
	DialogPrompt lipgloss.Style

	// Help / footer
	Help   lipgloss.Style
	Footer lipgloss.Style

	// Error
	ErrorMsg lipgloss.Style

	// Detail line
	DetailLabel lipgloss.Style
	DetailValue lipgloss.Style
}

// DefaultStyles returns the default styles for the TUI.
func DefaultStyles() Styles {
	return Styles{
		App: lipgloss.NewStyle().
			Padding(1, 2),

		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(Colors.Primary).
			MarginBottom(1),

		HeaderText: lipgloss.NewStyle().
			Bold(true),

		HeaderUser: lipgloss.NewStyle().
			Foreground(Colors.Muted),

		TaskID: lipgloss.NewStyle().
			Foreground(Colors.Muted),

		TaskTitle: lipgloss.NewStyle().
			Foreground(Colors.TitleNormal),

		TaskTitleSelected: lipgloss.NewStyle().
			Foreground(Colors.TitleSelected).
			Bold(true),

		TaskDesc: lipgloss.NewStyle().
			Foreground(Colors.DescNormal),

		TaskDescSelected: lipgloss.NewStyle().
			Foreground(Colors.DescSelected),

		TaskImage: lipgloss.NewStyle().
			Foreground(Colors.Secondary),

		TaskEditing: lipgloss.NewStyle().
			Foreground(Colors.Warning).
			Bold(true),

		Cursor: lipgloss.NewStyle().
			Foreground(Colors.TitleSelected).
			Bold(true),

		EmptyState: lipgloss.NewStyle().
			Foreground(Colors.Muted).
			Italic(true).
			PaddingLeft(2),

		Form: lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Colors.Muted),

		FormTitle: lipgloss.NewStyle().
			Foreground(Colors.Primary).
			Bold(true),

		FormLabel: lipgloss.NewStyle().
			Foreground(Colors.Muted).
			Width(13),

		FormLabelBold: lipgloss.NewStyle().
			Foreground(Colors.TitleSelected).
			Bold(true).
			Width(13),

		Attachment: lipgloss.NewStyle().
			Foreground(Colors.Secondary),

		Notice: lipgloss.NewStyle().
			Foreground(Colors.Success),

		Dialog: lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Colors.Warning),

		DialogTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(Colors.Warning),

		DialogPrompt: lipgloss.NewStyle().
			Foreground(Colors.Muted),

		Help: lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Colors.Muted),

		Footer: lipgloss.NewStyle().
			Foreground(Colors.Muted),

		ErrorMsg: lipgloss.NewStyle().
			Foreground(Colors.Error).
			Bold(true),

		DetailLabel: lipgloss.NewStyle().
			Foreground(Colors.Muted),

		DetailValue: lipgloss.NewStyle().
			Foreground(Colors.DescSelected),
	}
}
