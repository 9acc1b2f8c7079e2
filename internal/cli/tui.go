package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Phoethar22452/supabase-task-tracker/internal/app"
	"github.com/Phoethar22452/supabase-task-tracker/internal/tui"
)

// newTUICommand creates the tui command for launching the interactive TUI.
// This is the same as running tasktracker without arguments.
func newTUICommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Launch interactive TUI",
		Long:  `Launch the interactive terminal user interface for managing tasks.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, c)
		},
	}
	return cmd
}

func runTUI(cmd *cobra.Command, c *app.Container) error {
	if c != nil {
		if err := connect(cmd.Context(), c); err != nil {
			return err
		}
		c.ServeMetrics(cmd.Context())
	}
	return launchTUIFunc(c)
}

// launchTUI runs the TUI until the user quits.
func launchTUI(c *app.Container) error {
	model := tui.New(c)
	defer model.Close()
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
