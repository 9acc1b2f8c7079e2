package cli

import (
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Phoethar22452/supabase-task-tracker/internal/app"
	"github.com/Phoethar22452/supabase-task-tracker/internal/domain"
)

// newWatchCommand creates the watch command.
func newWatchCommand(c *app.Container) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print tasks as they are inserted",
		Long: `Subscribe to inserts on the tasks table and print each new task
until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if _, err := requireSession(ctx, c); err != nil {
				return err
			}
			out, err := c.WatchTasksUseCase().Execute(ctx, struct{}{})
			if err != nil {
				return err
			}
			sub := out.Subscription
			defer func() { _ = sub.Close() }()

			w := cmd.OutOrStdout()
			enc := json.NewEncoder(w)
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s for inserts (ctrl+c to stop)\n", c.AppConfig.Tasks.Table)
			for {
				select {
				case <-ctx.Done():
					return nil
				case ev, ok := <-sub.Events():
					if !ok {
						return domain.ErrSubscriptionEnded
					}
					ins, isInsert := ev.(domain.InsertEvent)
					if !isInsert {
						continue
					}
					if asJSON {
						if err := enc.Encode(ins.Task); err != nil {
							return err
						}
						continue
					}
					_, _ = fmt.Fprintf(w, "#%d %s (%s)\n", ins.Task.ID, ins.Task.Title, ins.Task.Email)
				}
			}
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print each task as a JSON line")
	return cmd
}
