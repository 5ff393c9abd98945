package cmd

import (
	"fmt"
	"os"

	"github.com/kampuskuevent/server/internal/config"
	"github.com/spf13/cobra"
)

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}
	serveCmd := newServeCommand(opts)

	rootCmd := &cobra.Command{
		Use:   "server",
		Short: "KampusKuEvent server - campus events and registration backend",
		Long: `KampusKuEvent server manages campus events and participant registrations
over a JSON HTTP API.

The server supports:
- Event CRUD with admin-only writes
- Participant registration bounded by each event's quota
- SQLite or PostgreSQL storage with versioned migrations
- Prometheus metrics and OpenTelemetry tracing`,
		SilenceErrors: true,
		// Run the serve command by default if no subcommand is specified
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveCmd.RunE(cmd, args)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "env file to load before reading the environment (default: ./.env if present)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error) (default: info)")
	rootCmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "log format (json, console) (default: json)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(newMigrateCommand(opts))
	rootCmd.AddCommand(newVersionCommand())
	rootCmd.AddCommand(newHealthcheckCommand())
	rootCmd.AddCommand(newHashTokenCommand())

	return rootCmd
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads configuration and applies the persistent logging flags.
func loadConfig(opts *globalOptions) (config.Config, error) {
	var files []string
	if opts != nil && opts.configPath != "" {
		files = append(files, opts.configPath)
	}

	cfg, err := config.Load(files...)
	if err != nil {
		return config.Config{}, err
	}

	if opts != nil {
		if opts.logLevel != "" {
			cfg.Logging.Level = opts.logLevel
		}
		if opts.logFormat != "" {
			cfg.Logging.Format = opts.logFormat
		}
	}
	return cfg, nil
}
