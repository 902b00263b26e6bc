package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/david/campus-events/internal/app"
	"github.com/david/campus-events/internal/config"
	"github.com/david/campus-events/internal/logging"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigFile string
	Format     string // "text" | "json"
	Verbose    bool
}

var ValidFormats = []string{"text", "json"}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "eventctl",
		Short: "Operate the campus events backend",
		Long:  "Run ingestion, maintenance and lookups against the campus events store without going through HTTP.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "", "path to config.yaml")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(NewScrapeCommand(opts))
	cmd.AddCommand(NewSweepCommand(opts))
	cmd.AddCommand(NewCollegesCommand(opts))
	cmd.AddCommand(NewSummarizeCommand(opts))
	cmd.AddCommand(NewRunsCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewTriggerCommand(opts))

	return cmd
}

func (o *RootOptions) loadConfig() (*config.Config, logrus.FieldLogger, error) {
	cfg, err := config.Load(o.ConfigFile)
	if err != nil {
		return nil, nil, err
	}
	level := cfg.Log.Level
	if o.Verbose {
		level = "debug"
	}
	log := logging.New(level, cfg.Log.Format)
	// stdout carries command output
	log.SetOutput(errWriter)
	return cfg, log, nil
}

func (o *RootOptions) openApp(ctx context.Context) (*app.App, error) {
	cfg, log, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, log)
}
