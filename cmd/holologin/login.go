package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"os/signal"
	"syscall"
	"time"

	"github.com/muesli/termenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/holomush/holologin/internal/auth"
	"github.com/holomush/holologin/internal/config"
	"github.com/holomush/holologin/internal/console"
	"github.com/holomush/holologin/internal/form"
	"github.com/holomush/holologin/internal/observability"
	"github.com/holomush/holologin/internal/session"
	"github.com/holomush/holologin/internal/transport"
)

// LoginDeps contains injectable dependencies for the login command.
// All fields with nil values will use their default implementations.
type LoginDeps struct {
	// In defaults to os.Stdin.
	In io.Reader
	// Out defaults to a termenv output on the command's stdout.
	Out *termenv.Output
	// ReadSecret defaults to console's terminal-aware reader.
	ReadSecret console.SecretReader
	// HTTPClient defaults to a client with a cookie jar. Requests are only
	// bounded by the command's context.
	HTTPClient *http.Client
}

// NewLoginCmd creates the login subcommand.
func NewLoginCmd(deps *LoginDeps) *cobra.Command {
	defaults := config.Default()

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in interactively",
		Long: `Prompt for an ID and password and submit them to the login endpoint.
Once signed in, type logout to end the session or quit to exit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runLogin(ctx, cmd, cfg, deps)
		},
	}

	cmd.Flags().String("base-url", defaults.BaseURL, "login endpoint base URL")
	cmd.Flags().String("login-path", defaults.LoginPath, "login request path")
	cmd.Flags().String("logout-path", defaults.LogoutPath, "logout request path")
	cmd.Flags().String("locale", defaults.Locale, "message locale")
	cmd.Flags().String("metrics-addr", "", "metrics/health HTTP address (empty = disabled)")

	return cmd
}

// runLogin wires transport, auth, session, form and console and runs the
// console until the user quits.
func runLogin(ctx context.Context, cmd *cobra.Command, cfg *config.Config, deps *LoginDeps) error {
	if deps == nil {
		deps = &LoginDeps{}
	}
	if deps.In == nil {
		deps.In = cmd.InOrStdin()
	}
	if deps.Out == nil {
		deps.Out = termenv.NewOutput(cmd.OutOrStdout())
	}
	if deps.HTTPClient == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return oops.Wrapf(err, "create cookie jar")
		}
		deps.HTTPClient = &http.Client{Jar: jar}
	}

	logger := newLogger(cmd, cfg)

	messages, err := form.MessagesFor(cfg.Locale)
	if err != nil {
		return err
	}

	tr, err := transport.NewHTTPTransport(transport.Config{
		BaseURL:    cfg.BaseURL,
		LoginPath:  cfg.LoginPath,
		LogoutPath: cfg.LogoutPath,
		Client:     deps.HTTPClient,
		Logger:     logger.With("component", "transport"),
	})
	if err != nil {
		return err
	}

	authSvc, err := auth.NewService(tr, logger.With("component", "auth"))
	if err != nil {
		return err
	}

	metrics, stopMetrics, err := startMetrics(cfg, logger)
	if err != nil {
		return err
	}
	defer stopMetrics()

	coord, err := session.NewCoordinator(authSvc,
		session.WithLogger(logger.With("component", "session")),
		session.WithObserver(metrics),
		session.WithTracer(otel.Tracer("github.com/holomush/holologin/internal/session")),
	)
	if err != nil {
		return err
	}

	ctrl, err := form.NewController(coord, messages, logger.With("component", "form"))
	if err != nil {
		return err
	}

	con, err := console.New(ctrl, console.Options{
		In:         deps.In,
		Output:     deps.Out,
		ReadSecret: deps.ReadSecret,
		Logger:     logger.With("component", "console"),
	})
	if err != nil {
		return err
	}

	logger.Info("login console starting",
		"base_url", cfg.BaseURL,
		"locale", cfg.Locale,
		"config_file", cfg.ConfigFile,
	)
	return con.Run(ctx)
}

// startMetrics serves metrics when metrics_addr is set; otherwise metrics are
// recorded on a private registry and never exported.
func startMetrics(cfg *config.Config, logger *slog.Logger) (*observability.Metrics, func(), error) {
	if cfg.MetricsAddr == "" {
		return observability.NewMetrics(prometheus.NewRegistry()), func() {}, nil
	}

	srv := observability.NewServer(cfg.MetricsAddr, logger.With("component", "observability"), nil)
	errCh, err := srv.Start()
	if err != nil {
		return nil, nil, oops.With("metrics_addr", cfg.MetricsAddr).Wrapf(err, "start observability server")
	}
	go func() {
		for serveErr := range errCh {
			logger.Warn("observability server failed", "error", serveErr)
		}
	}()

	stop := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			logger.Warn("error stopping observability server", "error", err)
		}
	}
	return srv.Metrics(), stop, nil
}

