package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/alavela/clubhub/services/ledger/internal/app"
	"github.com/alavela/clubhub/services/ledger/internal/clock"
	"github.com/alavela/clubhub/services/ledger/internal/config"
	"github.com/alavela/clubhub/services/ledger/internal/metrics"
	"github.com/alavela/clubhub/services/ledger/internal/storage/postgres"
	transporthttp "github.com/alavela/clubhub/services/ledger/internal/transport/http"
	"github.com/alavela/clubhub/services/ledger/migrations"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Str("service", "ledger").Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load configuration")
	}
	zerolog.SetGlobalLevel(logLevel(cfg.LogLevel))

	startupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(startupCtx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("connect to db")
	}
	defer pool.Close()

	if err := pool.Ping(startupCtx); err != nil {
		log.Fatal().Err(err).Msg("db ping")
	}
	if err := migrations.Apply(startupCtx, pool); err != nil {
		log.Fatal().Err(err).Msg("apply migrations")
	}

	inventoryRepo := postgres.NewInventoryRepository(pool)
	reservationRepo := postgres.NewReservationRepository(pool)
	eventRepo := postgres.NewEventRepository(pool)
	clk := clock.NewSystem()

	workflowSvc := app.NewWorkflowService(inventoryRepo, inventoryRepo, reservationRepo, clk)
	inventorySvc := app.NewInventoryService(inventoryRepo, inventoryRepo, reservationRepo, clk)
	sweepSvc := app.NewSweepService(inventoryRepo, inventoryRepo, reservationRepo, eventRepo, clk, log.Logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", transporthttp.HealthHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/reservations", transporthttp.HandleReservations(workflowSvc))
	mux.Handle("/reservations/", transporthttp.HandleReservationItem(workflowSvc))
	mux.Handle("/equipment", transporthttp.HandleEquipment(inventorySvc))
	mux.Handle("/equipment/", transporthttp.HandleEquipmentItem(inventorySvc))
	mux.Handle("/admin/reset", transporthttp.HandleAdminReset(inventorySvc))
	mux.Handle("/admin/reclaim", transporthttp.HandleAdminReclaim(sweepSvc))
	mux.Handle("/", transporthttp.NotFoundHandler())

	handler := transporthttp.RequestLogger(
		transporthttp.Metrics(
			transporthttp.CORS(cfg.CORSOrigins, mux),
		),
		log.Logger,
	)

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: handler,
	}

	log.Info().Str("addr", cfg.HTTPAddr).Msg("ledger listening")

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go runSweep(stopCtx, sweepSvc, cfg.SweepInterval)

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
		}
	case <-stopCtx.Done():
		log.Info().Msg("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("server shutdown error")
	}
	log.Info().Msg("server stopped")
}

// runSweep drives the reclaim sweep on a fixed interval until ctx is
// cancelled. The timer lives here so the core stays free of wall-clock
// scheduling.
func runSweep(ctx context.Context, sweep *app.SweepService, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report, err := sweep.Tick(ctx)
			if err != nil {
				log.Error().Err(err).Msg("reclaim sweep failed")
				continue
			}
			if report.Events > 0 {
				metrics.SweepEvents.Add(float64(report.Events))
				metrics.SweepQuantityReturned.Add(float64(report.QuantityReturned))
			}
		}
	}
}

func logLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
