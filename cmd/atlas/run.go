package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"deckforge-hq/atlas/pkg/cli"
	"deckforge-hq/atlas/pkg/config"
	"deckforge-hq/atlas/pkg/telemetry/health"
)

type runOptions struct {
	listenAddress   string
	watch           bool
	shutdownTimeout time.Duration

	// onListen, when set, receives the bound address once the server
	// accepts connections.
	onListen func(addr string)
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the Atlas gateway",
		Long: `Start the Atlas gateway with the specified configuration.

The gateway registers every configured provider, starts background health
monitoring and serves /metrics, /health, /ready and /version on the metrics
listen address. Provider changes in the configuration file are applied
without a restart.

Examples:
  # Start with default config
  atlas run

  # Start with custom config
  atlas run --config /etc/atlas/config.yaml

  # Override listen address
  atlas run --listen 0.0.0.0:9090`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := cli.SetupSignalHandler(cmd.Context())
			defer stop()
			return runGateway(ctx, root, opts, cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&opts.listenAddress, "listen", "l", "", "override metrics and probe listen address")
	cmd.Flags().BoolVar(&opts.watch, "watch", true, "reload providers when the config file changes")
	cmd.Flags().DurationVar(&opts.shutdownTimeout, "shutdown-timeout", 10*time.Second, "graceful shutdown timeout")
	return cmd
}

// runGateway serves the probe and metrics endpoints until ctx is cancelled.
func runGateway(ctx context.Context, root *rootOptions, opts *runOptions, logOut io.Writer) error {
	a, err := newApp(ctx, root, logOut)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), opts.shutdownTimeout)
		defer cancel()
		if err := a.Close(closeCtx); err != nil {
			a.logger.Warn("shutdown incomplete", zap.Error(err))
		}
	}()

	addr := a.cfg.Telemetry.Metrics.ListenAddress
	if opts.listenAddress != "" {
		addr = opts.listenAddress
	}

	checker := health.New(5 * time.Second)
	checker.RegisterCheck("providers", health.ProvidersCheck(a.manager))

	mux := http.NewServeMux()
	checker.Register(mux, Version, GitCommit, BuildDate)
	if a.cfg.Telemetry.Metrics.Enabled {
		mux.Handle(a.cfg.Telemetry.Metrics.Path, a.metrics.Handler())
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("failed to listen on %s: %w", addr, err))
	}

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	if opts.watch {
		stopWatch, err := watchConfig(ctx, root.configPath, a)
		if err != nil {
			a.logger.Warn("config hot reload disabled", zap.Error(err))
		} else {
			defer stopWatch()
		}
	}

	a.logger.Info("atlas started",
		zap.String("version", Version),
		zap.String("address", ln.Addr().String()),
		zap.String("strategy", a.manager.Strategy()),
		zap.Strings("providers", a.manager.Providers()),
		zap.Bool("metrics", a.cfg.Telemetry.Metrics.Enabled),
		zap.Bool("tracing", a.tracer.Enabled()),
	)
	if opts.onListen != nil {
		opts.onListen(ln.Addr().String())
	}

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-serveErr:
		return cli.NewCommandError("run", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return cli.NewCommandError("run", fmt.Errorf("server shutdown: %w", err))
	}
	a.logger.Info("atlas stopped")
	return nil
}

// watchConfig reconciles providers on every valid change to path. The
// returned func stops the watcher.
func watchConfig(ctx context.Context, path string, a *app) (func(), error) {
	w, err := config.NewWatcher(path, config.WithWatcherLogger(a.logger.Named("config")))
	if err != nil {
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := w.Watch(ctx, func(cfg *config.Config) { a.reload(ctx, cfg) }); err != nil {
			a.logger.Error("config watcher failed", zap.Error(err))
		}
	}()

	return func() {
		_ = w.Stop()
		<-done
	}, nil
}
