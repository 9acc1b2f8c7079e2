package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Phoethar22452/supabase-task-tracker/internal/app"
	"github.com/Phoethar22452/supabase-task-tracker/internal/domain"
	"github.com/Phoethar22452/supabase-task-tracker/internal/usecase"
)

// newListCommand creates the list command.
func newListCommand(c *app.Container) *cobra.Command {
	var opts struct {
		OrderBy string
		JSON    bool
		Desc    bool
	}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Long: `Display all tasks, oldest first.

Output format is tab-separated with columns:
  ID, CREATED, IMAGE, TITLE

Examples:
  tasktracker list
  tasktracker list --order-by title
  tasktracker list --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := requireSession(cmd.Context(), c); err != nil {
				return err
			}
			q := domain.TaskQuery{OrderBy: opts.OrderBy, Ascending: !opts.Desc}
			out, err := c.ListTasksUseCase().Execute(cmd.Context(), usecase.ListTasksInput{Query: &q})
			if err != nil {
				return err
			}

			if opts.JSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out.Tasks)
			}
			printTaskList(cmd.OutOrStdout(), out.Tasks)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.OrderBy, "order-by", "created_at", "Sort column: id, title or created_at")
	cmd.Flags().BoolVar(&opts.Desc, "desc", false, "Sort descending")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Output as JSON")

	return cmd
}

func printTaskList(w io.Writer, tasks []domain.Task) {
	if len(tasks) == 0 {
		_, _ = fmt.Fprintln(w, "No tasks")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tCREATED\tIMAGE\tTITLE")
	for _, t := range tasks {
		image := "-"
		if t.HasImage() {
			image = "yes"
		}
		created := "-"
		if !t.CreatedAt.IsZero() {
			created = t.CreatedAt.Local().Format("2006-01-02 15:04")
		}
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", t.ID, created, image, t.Title)
	}
	_ = tw.Flush()
}

// attachmentFor returns an attachment for path, or nil when empty.
func attachmentFor(path string) *domain.Attachment {
	if path == "" {
		return nil
	}
	return &domain.Attachment{Name: filepath.Base(path), Path: path}
}

// newAddCommand creates the add command.
func newAddCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Title string
		Body  string
		Image string
	}

	cmd := &cobra.Command{
		Use:   "add [title]",
		Short: "Create a task",
		Long: `Create a task owned by the signed-in user.

An image given with --image is uploaded before the task is inserted.

Examples:
  tasktracker add "Buy milk"
  tasktracker add --title "Fix bike" --body "Rear tire" --image ./tire.jpg`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := opts.Title
			if title == "" && len(args) == 1 {
				title = args[0]
			}
			if strings.TrimSpace(title) == "" {
				return domain.ErrEmptyTitle
			}
			session, err := requireSession(cmd.Context(), c)
			if err != nil {
				return err
			}

			out, err := c.CreateTaskUseCase().Execute(cmd.Context(), usecase.CreateTaskInput{
				Email:      session.Email(),
				Draft:      domain.Draft{Title: title, Description: opts.Body},
				Attachment: attachmentFor(opts.Image),
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created task #%d\n", out.Task.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Title, "title", "t", "", "Task title")
	cmd.Flags().StringVarP(&opts.Body, "body", "b", "", "Task description")
	cmd.Flags().StringVarP(&opts.Image, "image", "i", "", "Image file to attach")

	return cmd
}

// newEditCommand creates the edit command.
func newEditCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Title string
		Body  string
		Image string
	}

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Update a task",
		Long: `Update the title, description or image of a task.

Fields without a flag keep their current value, except the image:
an update always replaces it, so omitting --image clears it.

Examples:
  tasktracker edit 3 --title "Buy oat milk"
  tasktracker edit 3 --image ./receipt.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			if _, err := requireSession(cmd.Context(), c); err != nil {
				return err
			}

			list, err := c.ListTasksUseCase().Execute(cmd.Context(), usecase.ListTasksInput{})
			if err != nil {
				return err
			}
			current := domain.FindTask(list.Tasks, id)
			if current == nil {
				return fmt.Errorf("%w: #%d", domain.ErrTaskNotFound, id)
			}
			record := domain.EditRecordFor(*current)
			if cmd.Flags().Changed("title") {
				record.Title = opts.Title
			}
			if cmd.Flags().Changed("body") {
				record.Description = opts.Body
			}
			if strings.TrimSpace(record.Title) == "" {
				return domain.ErrEmptyTitle
			}

			if _, err := c.UpdateTaskUseCase().Execute(cmd.Context(), usecase.UpdateTaskInput{
				ID:          *record.ID,
				Title:       record.Title,
				Description: record.Description,
				Attachment:  attachmentFor(opts.Image),
			}); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Updated task #%d\n", id)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Title, "title", "t", "", "New title")
	cmd.Flags().StringVarP(&opts.Body, "body", "b", "", "New description")
	cmd.Flags().StringVarP(&opts.Image, "image", "i", "", "Image file to attach")

	return cmd
}

// newRmCommand creates the rm command.
func newRmCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			if _, err := requireSession(cmd.Context(), c); err != nil {
				return err
			}
			if _, err := c.DeleteTaskUseCase().Execute(cmd.Context(), usecase.DeleteTaskInput{ID: id}); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted task #%d\n", id)
			return nil
		},
	}
}
