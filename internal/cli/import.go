package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	Name string
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a CSV, TSV, Parquet or Arrow file into the project",
		Long: `Import a data file into the active project as a persistent table.

Without --name, the table name is derived from the file name.

Example:
  quarry import --project sales.duckdb ./orders.csv
  quarry import --project sales.duckdb ./orders.parquet --name orders_q3`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := opts.openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			name, err := s.ImportFile(ctx, args[0], opts.Name)
			if err != nil {
				return WrapExitError(ExitFailure, "import failed", err)
			}
			return opts.formatter(cmd).Success(fmt.Sprintf("imported %s as %s", args[0], name))
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "table name (default: derived from file name)")

	return cmd
}
