package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"github.com/aretw0/govform"
	"github.com/aretw0/govform/internal/auth"
	"github.com/aretw0/govform/internal/cli"
	httpAdapter "github.com/aretw0/govform/pkg/adapters/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serves application sessions over HTTP with JSON endpoints, document
uploads and a server-sent events stream per session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := cli.NewLogger(cfg, cmd.ErrOrStderr())

		var (
			reg     *prometheus.Registry
			metrics http.Handler
		)
		if cfg.Server.Metrics {
			reg = prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			metrics = promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
		}

		streams := httpAdapter.NewStreamManager(logger)
		var registerer prometheus.Registerer
		if reg != nil {
			registerer = reg
		}
		svc, err := cli.BuildService(cfg, logger, registerer,
			govform.WithNotifier(streams),
			govform.WithTracerProvider(otel.GetTracerProvider()),
		)
		if err != nil {
			return err
		}
		defer svc.Close()

		opts := []httpAdapter.Option{
			httpAdapter.WithStreams(streams),
			httpAdapter.WithLogger(logger),
			httpAdapter.WithVersion(govform.Version),
			httpAdapter.WithMaxUploadBytes(cfg.Server.MaxUploadBytes),
			httpAdapter.WithRequestTimeout(cfg.Server.RequestTimeout),
		}
		if metrics != nil {
			opts = append(opts, httpAdapter.WithMetricsHandler(metrics))
		}
		if cfg.Auth.Secret != "" {
			tokens, err := auth.NewTokens(cfg.Auth.Secret, cfg.Auth.TokenTTL)
			if err != nil {
				return err
			}
			opts = append(opts, httpAdapter.WithTokens(tokens))
		}

		handler, err := httpAdapter.NewHandler(svc, opts...)
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()
		g, ctx := errgroup.WithContext(sc)

		g.Go(func() error {
			logger.Info("Starting govform server", "addr", srv.Addr, "store", cfg.Store.Driver)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			if sig := sc.Signal(); sig != nil {
				logger.Info("Start shutdown...", "signal", sig.String())
			}

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				_ = srv.Close()
				return fmt.Errorf("graceful shutdown did not complete in %v: %w", cfg.Server.ShutdownTimeout, err)
			}
			logger.Info("govform server stopped gracefully")
			return nil
		})
		return g.Wait()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (overrides server.addr)")
}
