package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// SortOptions holds flags for the sort command.
type SortOptions struct {
	*RootOptions
	By         []string
	Descending []bool
}

// NewSortCommand creates the sort command.
func NewSortCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SortOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sort <name>",
		Short: "Sort a dataset into <name>_sorted",
		Long: `Sort a dataset by one or more columns. The result is stored under
the fixed name <name>_sorted; sorting the same dataset again replaces it.

Example:
  quarry sort orders --by revenue --desc true
  quarry sort orders --by region --by revenue --desc false --desc true`,
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

			desc := opts.Descending
			for len(desc) < len(opts.By) {
				desc = append(desc, false)
			}
			name, err := s.Sort(ctx, args[0], opts.By, desc)
			if err != nil {
				return WrapExitError(ExitFailure, "sort failed", err)
			}
			return opts.formatter(cmd).Success(fmt.Sprintf("sorted into %s", name))
		},
	}

	cmd.Flags().StringArrayVar(&opts.By, "by", nil, "column to sort by (repeatable, required)")
	cmd.Flags().BoolSliceVar(&opts.Descending, "desc", nil, "sort direction per --by column")
	_ = cmd.MarkFlagRequired("by")

	return cmd
}

// FilterOptions holds flags for the filter command.
type FilterOptions struct {
	*RootOptions
	Where string
}

// NewFilterCommand creates the filter command.
func NewFilterCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FilterOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "filter <name>",
		Short: "Filter a dataset with a WHERE clause",
		Long: `Filter a dataset with a raw SQL WHERE clause. The result is stored
as a new <name>_filtered table.

Example:
  quarry filter orders --where "revenue > 1000 AND region = 'EMEA'"`,
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

			name, err := s.FilterSQL(ctx, args[0], opts.Where)
			if err != nil {
				return WrapExitError(ExitFailure, "filter failed", err)
			}
			return opts.formatter(cmd).Success(fmt.Sprintf("filtered into %s", name))
		},
	}

	cmd.Flags().StringVar(&opts.Where, "where", "", "SQL WHERE clause (required)")
	_ = cmd.MarkFlagRequired("where")

	return cmd
}

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Out string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <name>",
		Short: "Export a dataset to CSV or Parquet",
		Long: `Export a dataset to a file. The format follows the output extension:
.csv for CSV, .parquet for Parquet.

Example:
  quarry export orders --out ./orders_backup.parquet`,
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

			switch {
			case strings.HasSuffix(opts.Out, ".csv"):
				err = s.ExportCSV(ctx, args[0], opts.Out)
			case strings.HasSuffix(opts.Out, ".parquet"):
				err = s.ExportParquet(ctx, args[0], opts.Out)
			default:
				return WrapExitError(ExitCommandError,
					fmt.Sprintf("unsupported export extension on %s: use .csv or .parquet", opts.Out), nil)
			}
			if err != nil {
				return WrapExitError(ExitFailure, "export failed", err)
			}
			return opts.formatter(cmd).Success(fmt.Sprintf("exported %s to %s", args[0], opts.Out))
		},
	}

	cmd.Flags().StringVar(&opts.Out, "out", "", "output file path (required)")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}
