package main

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mhpenta/showdown"
	"github.com/mhpenta/showdown/config"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "showdown",
		Short: "Compare image generation providers side by side",
		Long: `showdown sends one prompt to several image generation providers and
shows their results next to each other. Run "showdown serve" for the
comparison backend and "showdown compare" to run a comparison.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	addRootFlags(cmd.PersistentFlags(), opts)

	cmd.AddCommand(
		newServeCmd(opts),
		newCompareCmd(opts),
		newModelsCmd(opts),
	)
	return cmd
}

func addRootFlags(fs *pflag.FlagSet, opts *rootOptions) {
	fs.StringVar(&opts.configPath, "config", "", "config file (default ./showdown.yaml if present)")
	fs.StringVar(&opts.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
}

// load reads the configuration, catalog and logger shared by every command.
func (o *rootOptions) load() (*config.Config, *showdown.Catalog, *slog.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return nil, nil, nil, err
	}

	catalog, err := config.LoadCatalog(cfg.Catalog.Path)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, catalog, logger, nil
}
