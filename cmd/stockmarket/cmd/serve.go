package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/stockmarket/engine"
	"github.com/rustyeddy/stockmarket/internal/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the market until interrupted",
	Long: `Load saved state, start the price scheduler and autosave, and run
until SIGINT or SIGTERM. On shutdown the scheduler is stopped and all
data is saved. SIGHUP rereads the config file and reloads the instrument
catalog; other settings need a restart.

Players trade against an in-memory economy that opens every player at
economy.starting_balance.

Example:
  stockmarket serve -f market.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	e, err := engine.FromConfig(cfg, nil, engine.WithLogger(log), engine.WithMetrics(m))
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer e.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rep := e.Open(ctx)
	if rep.Err != nil {
		log.Warn().Err(rep.Err).Msg("started from catalog defaults")
	}
	if err := e.Start(ctx); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}

	var srv *http.Server
	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv = &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("metrics server failed")
			}
		}()
		log.Info().Str("addr", cfg.Metrics.Addr).Msg("metrics listening")
	}

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for ctx.Err() == nil {
		select {
		case <-ctx.Done():
		case <-hup:
			if _, err := reloadCatalog(e); err != nil {
				log.Error().Err(err).Msg("catalog reload failed")
			}
		}
	}
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if srv != nil {
		_ = srv.Shutdown(shutdownCtx)
	}
	return e.Stop(shutdownCtx)
}

// reloadCatalog rereads the config file and swaps its instruments into e.
func reloadCatalog(e *engine.Engine) (engine.ReloadReport, error) {
	cfg, err := loadConfig()
	if err != nil {
		return engine.ReloadReport{}, err
	}
	cat, err := cfg.Catalog()
	if err != nil {
		return engine.ReloadReport{}, fmt.Errorf("build catalog: %w", err)
	}
	return e.Reload(cat)
}
