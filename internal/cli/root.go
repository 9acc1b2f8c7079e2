// Package cli provides the command-line interface for tasktracker.
package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Phoethar22452/supabase-task-tracker/internal/app"
	"github.com/Phoethar22452/supabase-task-tracker/internal/domain"
)

// Command group IDs.
const (
	groupSetup = "setup"
	groupAuth  = "auth"
	groupTask  = "task"
)

// Persistent flag names. main pre-scans them to build the container.
const (
	FlagBackend = "backend"
	FlagConfig  = "config"
)

// launchTUIFunc is a function variable for launching the TUI, allowing it to be mocked in tests.
var launchTUIFunc = launchTUI

// NewRootCommand creates the root command for tasktracker.
// It receives the container for dependency injection and version for display.
func NewRootCommand(c *app.Container, version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "tasktracker",
		Short: "Task tracker with live sync",
		Long: `tasktracker keeps a shared list of tasks in a hosted backend.

Sign in, then create, edit and delete tasks, optionally with an image.
Tasks inserted by other clients appear live while the TUI is open.
Running without a subcommand launches the TUI.`,
		Version: version,
		// SilenceUsage prevents usage from being printed on errors
		SilenceUsage: true,
		// SilenceErrors prevents Cobra from printing errors (we handle it in main)
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip if container is nil (e.g. in tests)
			if c == nil || c.AppConfig == nil {
				return nil
			}
			for _, w := range c.AppConfig.Warnings {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", w)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, c)
		},
	}

	root.PersistentFlags().String(FlagBackend, "", "Backend driver: supabase, postgres or memory")
	root.PersistentFlags().String(FlagConfig, "", "Config file replacing the project config")

	root.AddGroup(
		&cobra.Group{ID: groupSetup, Title: "Setup Commands:"},
		&cobra.Group{ID: groupAuth, Title: "Account:"},
		&cobra.Group{ID: groupTask, Title: "Task Management:"},
	)

	configCmd := newConfigCommand(c)
	configCmd.GroupID = groupSetup

	loginCmd := newLoginCommand(c)
	loginCmd.GroupID = groupAuth

	signupCmd := newSignupCommand(c)
	signupCmd.GroupID = groupAuth

	logoutCmd := newLogoutCommand(c)
	logoutCmd.GroupID = groupAuth

	whoamiCmd := newWhoamiCommand(c)
	whoamiCmd.GroupID = groupAuth

	listCmd := newListCommand(c)
	listCmd.GroupID = groupTask

	addCmd := newAddCommand(c)
	addCmd.GroupID = groupTask

	editCmd := newEditCommand(c)
	editCmd.GroupID = groupTask

	rmCmd := newRmCommand(c)
	rmCmd.GroupID = groupTask

	watchCmd := newWatchCommand(c)
	watchCmd.GroupID = groupTask

	exportCmd := newExportCommand(c)
	exportCmd.GroupID = groupTask

	importCmd := newImportCommand(c)
	importCmd.GroupID = groupTask

	tuiCmd := newTUICommand(c)
	tuiCmd.GroupID = groupTask

	root.AddCommand(
		configCmd,
		loginCmd,
		signupCmd,
		logoutCmd,
		whoamiCmd,
		listCmd,
		addCmd,
		editCmd,
		rmCmd,
		watchCmd,
		exportCmd,
		importCmd,
		tuiCmd,
	)

	return root
}

// connect creates the backend adapters on first use.
// Containers built with injected ports are used as they are.
func connect(ctx context.Context, c *app.Container) error {
	if c == nil {
		return domain.ErrBackendConfig
	}
	if c.Identity != nil {
		return nil
	}
	return c.Connect(ctx)
}

// requireSession connects and returns the current session.
// It fails with domain.ErrNoSession when signed out.
func requireSession(ctx context.Context, c *app.Container) (*domain.Session, error) {
	if err := connect(ctx, c); err != nil {
		return nil, err
	}
	out, err := c.GetSessionUseCase().Execute(ctx, struct{}{})
	if err != nil {
		return nil, err
	}
	if out.Session == nil {
		return nil, fmt.Errorf("%w: run `tasktracker login` first", domain.ErrNoSession)
	}
	return out.Session, nil
}

// parseTaskID parses a task ID from a string, accepting an optional leading #.
func parseTaskID(s string) (int64, error) {
	if len(s) > 0 && s[0] == '#' {
		s = s[1:]
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task ID: %q", s)
	}
	return id, nil
}
