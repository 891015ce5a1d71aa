package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quarrydata/quarry/internal/registry"
)

// NewRecentCommand creates the recent command group: list, forget.
func NewRecentCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Manage the recently opened projects list",
	}

	cmd.AddCommand(newRecentListCommand(rootOpts))
	cmd.AddCommand(newRecentForgetCommand(rootOpts))

	return cmd
}

func newRecentListCommand(opts *RootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List recently opened projects",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			reg, err := registry.Open(opts.Config.RegistryPath)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open registry", err)
			}
			defer reg.Close()

			entries, err := reg.Recent(ctx, limit)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to list recent projects", err)
			}
			if opts.Format == "json" {
				return opts.formatter(cmd).Success(entries)
			}

			if len(entries) == 0 {
				return opts.formatter(cmd).Success("no recent projects")
			}
			var b strings.Builder
			for _, e := range entries {
				fmt.Fprintf(&b, "%s  %s  (opened %d times, last %s)\n",
					e.DisplayName, e.Path, e.OpenCount, e.LastOpenedAt.Format("2006-01-02 15:04"))
			}
			return opts.formatter(cmd).Success(strings.TrimRight(b.String(), "\n"))
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "maximum entries to show")

	return cmd
}

func newRecentForgetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "forget <path>",
		Short:         "Remove a project from the recent list",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			reg, err := registry.Open(opts.Config.RegistryPath)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open registry", err)
			}
			defer reg.Close()

			removed, err := reg.Forget(ctx, args[0])
			if err != nil {
				return WrapExitError(ExitFailure, "failed to forget project", err)
			}
			if !removed {
				return opts.formatter(cmd).Success(fmt.Sprintf("%s was not in the recent list", args[0]))
			}
			return opts.formatter(cmd).Success(fmt.Sprintf("forgot %s", args[0]))
		},
	}
}
