package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/holologin/internal/config"
	"github.com/holomush/holologin/internal/devserver"
)

// NewDevserverCmd creates the devserver subcommand.
func NewDevserverCmd() *cobra.Command {
	defaults := config.Default()

	cmd := &cobra.Command{
		Use:   "devserver",
		Short: "Run a local login endpoint for development",
		Long: `Serve the login and logout endpoints locally with accounts from a
YAML file. Without an accounts file, test@test.com / 123456 is available.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runDevserver(ctx, cmd, cfg)
		},
	}

	cmd.Flags().String("listen-addr", defaults.Dev.ListenAddr, "listen address")
	cmd.Flags().String("accounts-file", "", "YAML accounts file (default: built-in test account)")
	cmd.Flags().String("login-path", defaults.LoginPath, "login request path")
	cmd.Flags().String("logout-path", defaults.LogoutPath, "logout request path")

	return cmd
}

func runDevserver(ctx context.Context, cmd *cobra.Command, cfg *config.Config) error {
	logger := newLogger(cmd, cfg).With("component", "devserver")

	var accounts []devserver.Account
	if cfg.Dev.AccountsFile != "" {
		var err error
		accounts, err = devserver.LoadAccounts(cfg.Dev.AccountsFile)
		if err != nil {
			return err
		}
	}

	srv, err := devserver.New(devserver.Options{
		Addr:       cfg.Dev.ListenAddr,
		LoginPath:  cfg.LoginPath,
		LogoutPath: cfg.LogoutPath,
		Accounts:   accounts,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	errCh, err := srv.Start()
	if err != nil {
		return err
	}
	cmd.Printf("Dev login endpoint listening on %s\n", srv.URL())

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	case e, ok := <-errCh:
		if ok {
			serveErr = oops.Wrapf(e, "dev server")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Warn("error stopping dev server", "error", err)
	}
	for range errCh {
	}
	return serveErr
}
