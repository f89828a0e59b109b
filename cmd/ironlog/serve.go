package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/ironlog"
	httpAdapter "github.com/aretw0/ironlog/pkg/adapters/http"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"tailscale.com/tsnet"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Starts the workout engine behind a JSON API with a server-sent event stream.
With tailscale.enabled the API is only reachable on your tailnet.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		streams := httpAdapter.NewStreamManager(logger)
		stack, err := openStack(cmd, ironlog.WithLifecycleHooks(streams.Hooks()))
		if err != nil {
			return err
		}
		defer stack.Close()

		handler, err := httpAdapter.NewHandler(stack.Engine,
			httpAdapter.WithLogger(logger),
			httpAdapter.WithStreams(streams),
			httpAdapter.WithGatherer(stack.Registry),
		)
		if err != nil {
			return err
		}

		listener, closeListener, err := listen()
		if err != nil {
			return err
		}
		defer closeListener()

		srv := &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("IronLog server starting", "addr", listener.Addr().String(), "tailscale", cfg.Tailscale.Enabled)
			serverErrors <- srv.Serve(listener)
		}()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return errors.Wrap(err, "server error")
		case <-ctx.Done():
			logger.Info("Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
				return srv.Close()
			}
			logger.Info("IronLog server stopped gracefully")
			return nil
		}
	},
}

// listen opens the tailnet listener when enabled, a plain TCP one otherwise.
func listen() (net.Listener, func(), error) {
	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	if !cfg.Tailscale.Enabled {
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "failed to listen on %s", addr)
		}
		return ln, func() {}, nil
	}

	ts := &tsnet.Server{
		Hostname: cfg.Tailscale.Hostname,
		Dir:      cfg.Tailscale.StateDir,
		Logf: func(format string, args ...any) {
			logger.Debug(fmt.Sprintf(format, args...), "component", "tsnet")
		},
	}
	if err := ts.Start(); err != nil {
		return nil, nil, errors.Wrap(err, "tsnet start failed")
	}
	ln, err := ts.Listen("tcp", fmt.Sprintf(":%d", cfg.HTTP.Port))
	if err != nil {
		_ = ts.Close()
		return nil, nil, errors.Wrap(err, "tsnet listen failed")
	}
	return ln, func() { _ = ts.Close() }, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "", "Interface to bind (ignored with tailscale)")
}
