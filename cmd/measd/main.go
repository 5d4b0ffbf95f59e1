package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/mutker/measd/internal/config"
	"codeberg.org/mutker/measd/internal/errors"
	"codeberg.org/mutker/measd/internal/ingest"
	"codeberg.org/mutker/measd/internal/logger"
	"codeberg.org/mutker/measd/internal/metrics"
	"codeberg.org/mutker/measd/internal/pid"
	"codeberg.org/mutker/measd/internal/server"
	"codeberg.org/mutker/measd/internal/storage"
	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

const readHeaderTimeout = 5 * time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "measd: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) (err error) {
	errFactory := errors.New()

	cfg, err := config.Load(args)
	if err != nil {
		return err
	}

	logger.Init(cfg.LogLevel.Level(), logger.IsService())
	logger.Debug().
		Str("config_file", cfg.File).
		Str("log_level", cfg.LogLevel.String()).
		Msg("Config loaded")

	if cfg.PIDFile != "" {
		if err := pid.Write(cfg.PIDFile); err != nil {
			return err
		}
		defer func() {
			if rerr := pid.Remove(cfg.PIDFile); rerr != nil {
				err = multierror.Append(err, rerr)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	rec, err := metrics.NewService(cfg.Metrics, reg)
	if err != nil {
		return errFactory.Wrap(errors.ErrInitMetrics, err)
	}

	repo, err := storage.NewRepository(ctx, cfg.Storage, logger.Default())
	if err != nil {
		return err
	}
	// Runs after the servers have stopped accepting requests.
	defer func() {
		if cerr := repo.Close(); cerr != nil {
			err = multierror.Append(err, cerr)
		}
	}()

	coordinator, err := ingest.NewCoordinator(cfg.Ingest, repo, rec)
	if err != nil {
		return err
	}

	var srvReg prometheus.Registerer
	if cfg.Metrics.Enabled {
		srvReg = reg
	}
	srv, err := server.New(cfg.Server, coordinator, srvReg)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.ListenAndServe)
	g.Go(srv.ShutdownHandler(gctx))

	if cfg.Metrics.Enabled {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		serveMetrics(gctx, g, cfg, reg)
	}

	logger.Info().
		Str("listen", cfg.Server.Listen).
		Str("storage_driver", cfg.Storage.Driver).
		Int("buffer_limit", cfg.Ingest.Limit).
		Msg("measd started")

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info().Msg("Exiting...")

	return nil
}

func serveMetrics(ctx context.Context, g *errgroup.Group, cfg *config.Config, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))

	httpServer := &http.Server{
		Addr:              cfg.Metrics.Listen,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g.Go(func() error {
		logger.Info().Str("address", cfg.Metrics.Listen).Msg("Metrics server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.New().Wrap(errors.ErrServe, err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracePeriod)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return errors.New().Wrap(errors.ErrShutdownFailed, err)
		}
		return nil
	})
}
