package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Phoethar22452/supabase-task-tracker/internal/app"
	"github.com/Phoethar22452/supabase-task-tracker/internal/usecase"
)

// passwordEnv is read when --password is not given.
const passwordEnv = "TASKTRACKER_PASSWORD"

type credentialFlags struct {
	email    string
	password string
}

func (f *credentialFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.email, "email", "e", "", "Account email (required)")
	cmd.Flags().StringVarP(&f.password, "password", "p", "", "Password (default: $"+passwordEnv+" or a line from stdin)")
	_ = cmd.MarkFlagRequired("email")
}

// input resolves the password from the flag, the environment or stdin.
func (f *credentialFlags) input(cmd *cobra.Command) (usecase.CredentialsInput, error) {
	password := f.password
	if password == "" {
		password = os.Getenv(passwordEnv)
	}
	if password == "" {
		_, _ = fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && err != io.EOF {
			return usecase.CredentialsInput{}, fmt.Errorf("read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}
	return usecase.CredentialsInput{Email: f.email, Password: password}, nil
}

// newLoginCommand creates the login command.
func newLoginCommand(c *app.Container) *cobra.Command {
	var flags credentialFlags

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Long: `Sign in with email and password.

The session is saved and reused by later commands and the TUI.

Examples:
  tasktracker login -e me@example.com
  TASKTRACKER_PASSWORD=secret tasktracker login -e me@example.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := connect(cmd.Context(), c); err != nil {
				return err
			}
			in, err := flags.input(cmd)
			if err != nil {
				return err
			}
			out, err := c.SignInUseCase().Execute(cmd.Context(), in)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", out.Session.Email())
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

// newSignupCommand creates the signup command.
func newSignupCommand(c *app.Container) *cobra.Command {
	var flags credentialFlags

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Register a new account",
		Long: `Register a new account with email and password.

Some backends require the email address to be confirmed before the
first sign-in. In that case no session is created.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := connect(cmd.Context(), c); err != nil {
				return err
			}
			in, err := flags.input(cmd)
			if err != nil {
				return err
			}
			out, err := c.SignUpUseCase().Execute(cmd.Context(), in)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if out.Session == nil {
				_, _ = fmt.Fprintf(w, "Registered %s. Check your email to confirm the account, then sign in.\n", strings.TrimSpace(in.Email))
				return nil
			}
			_, _ = fmt.Fprintf(w, "Signed up as %s\n", out.Session.Email())
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

// newLogoutCommand creates the logout command.
func newLogoutCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := connect(cmd.Context(), c); err != nil {
				return err
			}
			if _, err := c.SignOutUseCase().Execute(cmd.Context(), struct{}{}); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

// newWhoamiCommand creates the whoami command.
func newWhoamiCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := connect(cmd.Context(), c); err != nil {
				return err
			}
			out, err := c.GetSessionUseCase().Execute(cmd.Context(), struct{}{})
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if out.Session == nil {
				_, _ = fmt.Fprintln(w, "Not signed in")
				return nil
			}
			_, _ = fmt.Fprintln(w, out.Session.Email())
			if !out.Session.ExpiresAt.IsZero() {
				_, _ = fmt.Fprintf(w, "Session expires %s\n", out.Session.ExpiresAt.Local().Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}
