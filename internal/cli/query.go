package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// PreviewOptions holds flags for the preview command.
type PreviewOptions struct {
	*RootOptions
	Rows   uint64
	Offset uint64
}

// NewPreviewCommand creates the preview command.
func NewPreviewCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PreviewOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "preview <name>",
		Short:         "Show rows of a dataset",
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

			rows := opts.Rows
			if rows == 0 {
				rows = opts.Config.PreviewRows
			}
			ipc, err := s.ChunkIPC(ctx, args[0], opts.Offset, rows)
			if err != nil {
				return WrapExitError(ExitFailure, "preview failed", err)
			}
			return opts.formatter(cmd).Table(ipc)
		},
	}

	cmd.Flags().Uint64Var(&opts.Rows, "rows", 0, "rows to show (default from config)")
	cmd.Flags().Uint64Var(&opts.Offset, "offset", 0, "rows to skip")

	return cmd
}

// SQLOptions holds flags for the sql command.
type SQLOptions struct {
	*RootOptions
	Materialize bool
}

// NewSQLCommand creates the sql command.
func NewSQLCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SQLOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sql <query>",
		Short: "Run SQL against the project",
		Long: `Run SQL against the active project.

By default the result streams to the terminal. With --materialize the
result is stored as a new sql_result table and the table name printed.`,
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

			if opts.Materialize {
				name, err := s.ExecuteSQL(ctx, args[0])
				if err != nil {
					return WrapExitError(ExitFailure, "sql failed", err)
				}
				return opts.formatter(cmd).Success(fmt.Sprintf("result stored as %s", name))
			}

			ipc, err := s.QueryIPC(ctx, args[0])
			if err != nil {
				return WrapExitError(ExitFailure, "sql failed", err)
			}
			return opts.formatter(cmd).Table(ipc)
		},
	}

	cmd.Flags().BoolVar(&opts.Materialize, "materialize", false, "store the result as a new table")

	return cmd
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "stats <name>",
		Short:         "Show per-column summary statistics",
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

			ipc, err := s.SummaryStatsIPC(ctx, args[0])
			if err != nil {
				return WrapExitError(ExitFailure, "stats failed", err)
			}
			return opts.formatter(cmd).Table(ipc)
		},
	}
}

// ChartOptions holds flags for the chart command.
type ChartOptions struct {
	*RootOptions
	GroupColumn string
	ValueColumn string
	Agg         string
	Limit       uint64
}

// NewChartCommand creates the chart command.
func NewChartCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ChartOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "chart <name>",
		Short: "Aggregate a dataset into label/value pairs",
		Long: `Aggregate a dataset into label/value pairs for chart rendering.

Example:
  quarry chart orders --group region --value revenue --agg sum --limit 10
  quarry chart orders --group region --agg count`,
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

			ipc, err := s.AggregateForChart(ctx, args[0], opts.GroupColumn, opts.ValueColumn, opts.Agg, opts.Limit)
			if err != nil {
				return WrapExitError(ExitFailure, "chart failed", err)
			}
			return opts.formatter(cmd).Table(ipc)
		},
	}

	cmd.Flags().StringVar(&opts.GroupColumn, "group", "", "column to group by (required)")
	cmd.Flags().StringVar(&opts.ValueColumn, "value", "", "column to aggregate")
	cmd.Flags().StringVar(&opts.Agg, "agg", "count", "aggregation (count|sum|avg|min|max)")
	cmd.Flags().Uint64Var(&opts.Limit, "limit", 20, "maximum label/value pairs")
	_ = cmd.MarkFlagRequired("group")

	return cmd
}
