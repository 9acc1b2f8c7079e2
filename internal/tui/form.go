package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Phoethar22452/supabase-task-tracker/internal/app"
)

const catAuth = "auth"

// cursorMode is the cursor mode of every text input.
var cursorMode = cursor.CursorBlink

func newInput(placeholder string, limit int) textinput.Model {
	ti := textinput.New()
	_ = ti.Cursor.SetMode(cursorMode)
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	return ti
}

// CredentialForm collects email and password and signs in or up.
// A successful submit changes nothing here; the gate's auth
// subscription delivers the new session.
type CredentialForm struct {
	container  *app.Container
	err        error
	notice     string
	keys       KeyMap
	styles     Styles
	email      textinput.Model
	password   textinput.Model
	focus      FormField
	signUp     bool
	submitting bool
}

// NewCredentialForm creates a form in sign-in mode with the email focused.
func NewCredentialForm(c *app.Container, keys KeyMap, styles Styles) *CredentialForm {
	email := newInput("you@example.com", 254)
	email.Focus()

	password := newInput("password", 128)
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return &CredentialForm{
		container: c,
		keys:      keys,
		styles:    styles,
		email:     email,
		password:  password,
		focus:     FieldEmail,
	}
}

// Email returns the email field value.
func (f *CredentialForm) Email() string { return f.email.Value() }

// Password returns the password field value.
func (f *CredentialForm) Password() string { return f.password.Value() }

// SignUpMode reports whether submit registers a new user.
func (f *CredentialForm) SignUpMode() bool { return f.signUp }

// Err returns the last submit error.
func (f *CredentialForm) Err() error { return f.err }

// Focus returns the focused field.
func (f *CredentialForm) Focus() FormField { return f.focus }

// SetValues fills both fields.
func (f *CredentialForm) SetValues(email, password string) {
	f.email.SetValue(email)
	f.password.SetValue(password)
}

// Toggle flips between sign-in and sign-up without submitting.
func (f *CredentialForm) Toggle() {
	f.signUp = !f.signUp
	f.err = nil
	f.notice = ""
}

// Submit issues sign-up or sign-in according to the mode.
func (f *CredentialForm) Submit() tea.Cmd {
	if f.submitting {
		return nil
	}
	f.submitting = true
	f.err = nil
	f.notice = ""
	return submitCredentials(f.container, f.signUp, f.email.Value(), f.password.Value())
}

func (f *CredentialForm) setFocus(field FormField) {
	f.focus = field
	if field == FieldEmail {
		f.password.Blur()
		f.email.Focus()
		return
	}
	f.email.Blur()
	f.password.Focus()
}

// Update handles key input and submit results.
func (f *CredentialForm) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case MsgCredentialsResult:
		f.submitting = false
		if msg.Err != nil {
			action := "signing in"
			if msg.SignUp {
				action = "signing up"
			}
			f.container.Log.Error(catAuth, "Error "+action+": "+msg.Err.Error())
			f.err = msg.Err
			return nil
		}
		if msg.Pending {
			f.notice = "Check your email to confirm the account, then sign in."
		}
		return nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, f.keys.Submit):
			return f.Submit()
		case key.Matches(msg, f.keys.NextField):
			if f.focus == FieldEmail {
				f.setFocus(FieldPassword)
			} else {
				f.setFocus(FieldEmail)
			}
			return nil
		case key.Matches(msg, f.keys.ToggleMode):
			f.Toggle()
			return nil
		}
		var cmd tea.Cmd
		if f.focus == FieldEmail {
			f.email, cmd = f.email.Update(msg)
		} else {
			f.password, cmd = f.password.Update(msg)
		}
		return cmd
	}
	return nil
}

// View renders the form.
func (f *CredentialForm) View() string {
	var b strings.Builder
	title, other := "Sign in", "sign up"
	if f.signUp {
		title, other = "Sign up", "sign in"
	}
	b.WriteString(f.styles.FormTitle.Render(title) + "\n\n")

	label := func(field FormField, text string) string {
		if f.focus == field {
			return f.styles.FormLabelBold.Render(text)
		}
		return f.styles.FormLabel.Render(text)
	}
	b.WriteString(label(FieldEmail, "Email") + f.email.View() + "\n")
	b.WriteString(label(FieldPassword, "Password") + f.password.View() + "\n")

	if f.submitting {
		b.WriteString("\n" + f.styles.DialogPrompt.Render("Submitting...") + "\n")
	}
	if f.err != nil {
		b.WriteString("\n" + f.styles.ErrorMsg.Render("Error: "+f.err.Error()) + "\n")
	}
	if f.notice != "" {
		b.WriteString("\n" + f.styles.Notice.Render(f.notice) + "\n")
	}
	b.WriteString("\n" + f.styles.DialogPrompt.Render("ctrl+t to "+other))
	return f.styles.Form.Render(b.String())
}
