// Package cli implements the quarry command line interface on top of the
// session engine.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/quarrydata/quarry/internal/registry"
	"github.com/quarrydata/quarry/internal/session"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	Project    string // project file; overrides config default
	ConfigPath string

	Config Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the quarry CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "quarry",
		Short: "Quarry - dataset session engine",
		Long:  "Import, query, transform and export tabular datasets backed by an embedded analytical store.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}

			logLevel := slog.LevelWarn
			if opts.Verbose {
				logLevel = slog.LevelDebug
			}
			handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
			slog.SetDefault(slog.New(handler))

			cfg, err := LoadConfig(opts.ConfigPath)
			if err != nil {
				return err
			}
			opts.Config = cfg
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.Project, "project", "p", "", "project file to open")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", DefaultConfigPath(), "config file path")

	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewDatasetsCommand(opts))
	cmd.AddCommand(NewPreviewCommand(opts))
	cmd.AddCommand(NewSQLCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewChartCommand(opts))
	cmd.AddCommand(NewSortCommand(opts))
	cmd.AddCommand(NewFilterCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewRecentCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()}
}

// projectPath resolves the project file from the flag or the config
// default. Empty means no project.
func (o *RootOptions) projectPath() string {
	if o.Project != "" {
		return o.Project
	}
	return o.Config.DefaultProject
}

// openSession opens a session over the resolved project file and records
// the open in the recent-projects registry. Registry failures are logged,
// never fatal.
func (o *RootOptions) openSession(ctx context.Context) (*session.Session, error) {
	path := o.projectPath()
	if path == "" {
		return nil, WrapExitError(ExitCommandError,
			"no project: pass --project or set default_project in the config", nil)
	}

	s := session.New()
	if _, err := s.OpenProject(ctx, path); err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open project", err)
	}

	_ = os.MkdirAll(filepath.Dir(o.Config.RegistryPath), 0o755)
	if reg, err := registry.Open(o.Config.RegistryPath); err == nil {
		if err := reg.Touch(ctx, path); err != nil {
			slog.Warn("failed to record recent project", "error", err)
		}
		reg.Close()
	} else {
		slog.Warn("failed to open recent projects registry", "error", err)
	}

	return s, nil
}
