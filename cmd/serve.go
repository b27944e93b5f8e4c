package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"cdim-evaluator/internal/app"
	"cdim-evaluator/internal/config"
	httpapi "cdim-evaluator/internal/http"
	"cdim-evaluator/internal/observability"
	"cdim-evaluator/internal/observability/logging"
	"cdim-evaluator/internal/samples"
	"cdim-evaluator/internal/service/ingest"
)

var serveFlags struct {
	port   string
	ingest string
	sample string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the evaluation viewer",
	Long: "Serve the single-page evaluation viewer on HTTP_PORT and metrics on METRICS_ADDR.\n" +
		"Configuration is read from the environment and an optional .env file.",
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveFlags.port, "port", "", "HTTP port (overrides HTTP_PORT)")
	f.StringVar(&serveFlags.ingest, "ingest", "", "Ingest source: none, kafka or mock (overrides INGEST_SOURCE)")
	f.StringVar(&serveFlags.sample, "sample", "", "Load a bundled sample evaluation on start (e.g. contoso.json)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	if serveFlags.port != "" {
		cfg.Service.HTTPPort = serveFlags.port
	}
	if serveFlags.ingest != "" {
		switch serveFlags.ingest {
		case config.IngestNone, config.IngestKafka, config.IngestMock:
			cfg.Ingest.Source = serveFlags.ingest
		default:
			return fmt.Errorf("unknown ingest source %q (want none, kafka or mock)", serveFlags.ingest)
		}
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Observability.LogLevel
	logCfg.Format = cfg.Observability.LogFormat
	logCfg.File = cfg.Observability.LogFile
	logCloser := logging.Init(logCfg)
	defer logCloser.Close()

	application := app.New(cfg)
	defer application.Shutdown()

	source, err := application.IngestSource()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if serveFlags.sample != "" {
		data, err := samples.Read(serveFlags.sample)
		if err != nil {
			return fmt.Errorf("sample %q: %w (available: %v)", serveFlags.sample, err, samples.Names())
		}
		if _, err := application.Uploads.Load(ctx, ingest.OriginMock, serveFlags.sample, data); err != nil {
			return fmt.Errorf("sample %q: %w", serveFlags.sample, err)
		}
	}

	hub := httpapi.NewHub()
	server := &http.Server{
		Addr:              ":" + cfg.Service.HTTPPort,
		Handler:           httpapi.NewRouter(application, hub),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	obs := observability.NewServer(cfg.Observability.MetricsAddr, application.Ready)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Msg("CDIM evaluator viewer listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("viewer server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := obs.ListenAndServe(); err != nil {
			return fmt.Errorf("observability server: %w", err)
		}
		return nil
	})
	if source != nil {
		g.Go(func() error {
			log.Info().Str("source", source.Name()).Msg("Ingest source started")
			return source.Run(gctx, application.Uploads)
		})
	}

	if err := application.Start(); err != nil {
		return err
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Service.ShutdownTimeout)
		defer cancel()

		var errs []error
		if source != nil {
			errs = append(errs, source.Close())
		}
		errs = append(errs, server.Shutdown(shutdownCtx), obs.Shutdown(shutdownCtx))
		return errors.Join(errs...)
	})

	return g.Wait()
}
