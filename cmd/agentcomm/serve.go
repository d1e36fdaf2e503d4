package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tailored-agentic-units/agentcomm/archive"
	"github.com/tailored-agentic-units/agentcomm/config"
	"github.com/tailored-agentic-units/agentcomm/hub"
	"github.com/tailored-agentic-units/agentcomm/observability"
	"github.com/tailored-agentic-units/agentcomm/transport"
)

func newServeCommand(root *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a hub and expose it over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(root.configFile)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")

	return cmd
}

type syncer interface {
	Sync() error
}

// setupLogging builds the process logger and registers the observers the
// hub config may name.
func setupLogging(cfg *config.Config, w io.Writer) (*slog.Logger, syncer, error) {
	logger, err := observability.NewLogger(cfg.Log.Level, cfg.Log.Format, w)
	if err != nil {
		return nil, nil, err
	}
	observability.RegisterObserver("slog", observability.NewSlogObserver(logger))

	switch cfg.Log.Backend {
	case "slog":
		return logger, nil, nil
	case "zap":
		zl, err := observability.NewZapLogger(cfg.Log.Level, cfg.Log.Format)
		if err != nil {
			return nil, nil, err
		}
		observability.RegisterObserver("zap", observability.NewZapObserver(zl))
		if cfg.Hub.Observer == "slog" {
			cfg.Hub.Observer = "zap"
		}
		return logger, zl, nil
	default:
		return nil, nil, fmt.Errorf("unknown log backend: %q", cfg.Log.Backend)
	}
}

func serve(ctx context.Context, cfg *config.Config, logOutput io.Writer) error {
	logger, flusher, err := setupLogging(cfg, logOutput)
	if err != nil {
		return err
	}
	if flusher != nil {
		defer flusher.Sync()
	}
	cfg.Hub.Logger = logger

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	hubOpts := []hub.Option{hub.WithRegisterer(registry)}

	store, err := archive.NewStore(ctx, &cfg.Archive)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	if store != nil {
		defer store.Close()
		hubOpts = append(hubOpts, hub.WithRecorder(archive.NewRecorder(store)))
		logger.Info("archive enabled", "backend", cfg.Archive.Backend)
	}

	h, err := hub.New(cfg.Hub, hubOpts...)
	if err != nil {
		return err
	}
	if err := h.Start(ctx); err != nil {
		return err
	}

	observer, err := observability.GetObserver(cfg.Hub.Observer)
	if err != nil {
		return err
	}

	server := transport.NewServer(h,
		transport.WithLogger(logger),
		transport.WithObserver(observer),
		transport.WithGatherer(registry),
	)

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout.Std(),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("hub listening", "hub", h.Name(), "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down", "hub", h.Name())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Hub.ShutdownTimeout.Std())
		defer cancel()

		shutdownErr := httpServer.Shutdown(shutdownCtx)
		server.Close()
		stopErr := h.Stop(0)

		return errors.Join(shutdownErr, stopErr)
	})

	return g.Wait()
}
