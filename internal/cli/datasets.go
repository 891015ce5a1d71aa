package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewDatasetsCommand creates the datasets command group: list, info, rm.
func NewDatasetsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "datasets",
		Short: "List and inspect datasets in the project",
	}

	cmd.AddCommand(newDatasetsListCommand(rootOpts))
	cmd.AddCommand(newDatasetsInfoCommand(rootOpts))
	cmd.AddCommand(newDatasetsRemoveCommand(rootOpts))

	return cmd
}

func newDatasetsListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List dataset names",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := opts.openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			names := s.ListDatasets(ctx)
			if opts.Format == "json" {
				return opts.formatter(cmd).Success(names)
			}
			return opts.formatter(cmd).Success(strings.Join(names, "\n"))
		},
	}
}

func newDatasetsInfoCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "info <name>",
		Short:         "Show schema, row count and size estimate for a dataset",
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

			info, err := s.DatasetInfo(ctx, args[0])
			if err != nil {
				return WrapExitError(ExitFailure, "info failed", err)
			}
			if opts.Format == "json" {
				return opts.formatter(cmd).Success(info)
			}

			var b strings.Builder
			fmt.Fprintf(&b, "name: %s\n", info.Name)
			rows := "unknown"
			if info.RowCountKnown {
				rows = fmt.Sprintf("%d", info.RowCount)
			}
			fmt.Fprintf(&b, "rows: %s\n", rows)
			fmt.Fprintf(&b, "persistent: %v\n", info.Persistent)
			if info.EstimatedBytes > 0 {
				fmt.Fprintf(&b, "estimated size: %d bytes\n", info.EstimatedBytes)
			}
			fmt.Fprintf(&b, "columns (%d):\n", info.NumColumns)
			for i, name := range info.ColumnNames {
				colType := ""
				if i < len(info.ColumnTypes) {
					colType = info.ColumnTypes[i]
				}
				fmt.Fprintf(&b, "  %s  %s\n", name, colType)
			}
			return opts.formatter(cmd).Success(strings.TrimRight(b.String(), "\n"))
		},
	}
}

func newDatasetsRemoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "rm <name>",
		Short:         "Remove a dataset",
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

			removed, err := s.RemoveDataset(ctx, args[0])
			if err != nil {
				return WrapExitError(ExitFailure, "remove failed", err)
			}
			if !removed {
				return opts.formatter(cmd).Success(fmt.Sprintf("no dataset named %s", args[0]))
			}
			return opts.formatter(cmd).Success(fmt.Sprintf("removed %s", args[0]))
		},
	}
}
