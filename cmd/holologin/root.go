package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/holomush/holologin/internal/config"
	"github.com/holomush/holologin/internal/logging"
)

// flagKeys maps CLI flag names to config keys.
var flagKeys = map[string]string{
	"base-url":      "base_url",
	"login-path":    "login_path",
	"logout-path":   "logout_path",
	"locale":        "locale",
	"log-format":    "log_format",
	"log-level":     "log_level",
	"metrics-addr":  "metrics_addr",
	"listen-addr":   "dev.listen_addr",
	"accounts-file": "dev.accounts_file",
}

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the holologin CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "holologin",
		Short: "holologin - sign in to a login endpoint from the terminal",
		Long: `holologin submits an ID and password to a login endpoint, reports
wrong credentials, unknown users, blocked or robot-flagged accounts, and
keeps the session until you log out. A local dev endpoint is included.`,
		SilenceUsage: true,
	}

	defaults := config.Default()
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default: XDG_CONFIG_HOME/holologin/config.yaml)")
	cmd.PersistentFlags().String("log-format", defaults.LogFormat, "log format (json or text)")
	cmd.PersistentFlags().String("log-level", defaults.LogLevel, "log level (debug, info, warn, error)")

	cmd.AddCommand(NewLoginCmd(nil))
	cmd.AddCommand(NewDevserverCmd())
	cmd.AddCommand(NewHashPasswordCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// loadConfig layers defaults, config file, environment and changed flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Load(config.LoadOptions{
		ConfigFile: configFile,
		Flags:      cmd.Flags(),
		FlagKeys:   flagKeys,
	})
}

// newLogger builds the process logger on stderr.
func newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	// Level was validated by config.Load.
	level, _ := logging.ParseLevel(cfg.LogLevel) //nolint:errcheck // validated on load
	return logging.Setup(logging.Options{
		Service: "holologin",
		Version: version,
		Format:  cfg.LogFormat,
		Level:   level,
		Writer:  cmd.ErrOrStderr(),
	})
}

// NewVersionCmd creates the version subcommand.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.Printf("holologin %s (commit: %s, built: %s)\n", version, commit, date)
			return nil
		},
	}
}
