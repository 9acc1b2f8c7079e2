// Package tui provides the terminal user interface for tasktracker.
package tui

// Mode represents the current task view mode.
type Mode int

const (
	ModeBrowse        Mode = iota // Default navigation mode
	ModeInputTitle                // Title input (draft or edit record)
	ModeInputDesc                 // Description input (draft or edit record)
	ModeInputImage                // Attachment path input
	ModeConfirmDelete             // Delete confirmation dialog
	ModeHelp                      // Help overlay mode
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeBrowse:
		return "browse"
	case ModeInputTitle:
		return "input_title"
	case ModeInputDesc:
		return "input_desc"
	case ModeInputImage:
		return "input_image"
	case ModeConfirmDelete:
		return "confirm_delete"
	case ModeHelp:
		return "help"
	default:
		return "unknown"
	}
}

// IsInputMode returns true if the mode accepts text input.
func (m Mode) IsInputMode() bool {
	switch m {
	case ModeInputTitle, ModeInputDesc, ModeInputImage:
		return true
	case ModeBrowse, ModeConfirmDelete, ModeHelp:
		return false
	}
	return false
}

// IsFormMode returns true while the title or description input is focused.
func (m Mode) IsFormMode() bool {
	return m == ModeInputTitle || m == ModeInputDesc
}

// FormField identifies the focused credential input.
type FormField int

const (
	FieldEmail FormField = iota
	FieldPassword
)

// String returns the field name.
func (f FormField) String() string {
	if f == FieldPassword {
		return "password"
	}
	return "email"
}
