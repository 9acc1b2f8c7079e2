package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Phoethar22452/supabase-task-tracker/internal/app"
	"github.com/Phoethar22452/supabase-task-tracker/internal/usecase"
)

// newExportCommand creates the export command.
func newExportCommand(c *app.Container) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all tasks as YAML",
		Long: `Write all tasks as a YAML document to stdout or --out.

The document can be loaded into another backend with import.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := requireSession(cmd.Context(), c); err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("create %s: %w", outPath, err)
				}
				defer func() { _ = f.Close() }()
				w = f
			}

			out, err := c.ExportTasksUseCase().Execute(cmd.Context(), usecase.ExportTasksInput{Writer: w})
			if err != nil {
				return err
			}
			if outPath != "" {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Exported %d task(s) to %s\n", out.Count, outPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (default: stdout)")
	return cmd
}

// newImportCommand creates the import command.
func newImportCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Create tasks from an export file",
		Long: `Create tasks from a YAML document written by export.

Each task becomes a new row owned by the signed-in user. IDs and
creation times are assigned by the backend. Use - to read stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := requireSession(cmd.Context(), c)
			if err != nil {
				return err
			}

			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open %s: %w", args[0], err)
				}
				defer func() { _ = f.Close() }()
				r = f
			}

			out, err := c.ImportTasksUseCase().Execute(cmd.Context(), usecase.ImportTasksInput{
				Reader: r,
				Email:  session.Email(),
			})
			w := cmd.OutOrStdout()
			if out != nil {
				for _, t := range out.Tasks {
					_, _ = fmt.Fprintf(w, "Created task #%d: %s\n", t.ID, t.Title)
				}
			}
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(w, "\nImported %d task(s)\n", len(out.Tasks))
			return nil
		},
	}
	return cmd
}
