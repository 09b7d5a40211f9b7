// The api binary serves the webhook intake pipeline and the operator API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wildguard_backend/internal/cluster"
	"wildguard_backend/internal/config"
	"wildguard_backend/internal/conversation"
	"wildguard_backend/internal/geo"
	"wildguard_backend/internal/geofence"
	apphttp "wildguard_backend/internal/http"
	"wildguard_backend/internal/http/router"
	"wildguard_backend/internal/line"
	"wildguard_backend/internal/relay"
	"wildguard_backend/internal/reports"
	"wildguard_backend/internal/reports/token"
	"wildguard_backend/internal/scheduler"
	"wildguard_backend/internal/session"
	"wildguard_backend/internal/settings"
	"wildguard_backend/internal/staff"
	"wildguard_backend/internal/webhook"
	"wildguard_backend/platform/db"
	"wildguard_backend/platform/logger"
	"wildguard_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("production").Error("configuration error", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := db.RunMigrations(ctx, cfg, "migrations"); err != nil {
		log.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	pool, err := openPool(ctx, cfg, log)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	val := validator.New()

	settingsModule := settings.NewModule(pool, val)
	settingsSvc := settingsModule.Service()
	if err := settingsSvc.EnsureConfigured(ctx); err != nil {
		log.Error("system settings missing", "error", err)
		os.Exit(1)
	}

	staffModule := staff.NewModule(pool, val)
	clusterModule := cluster.NewModule(pool, settingsSvc)

	lineClient := line.NewClient(cfg, log)

	relaySvc, err := relay.NewService(cfg, lineClient, log)
	if err != nil {
		log.Error("object storage client failed", "error", err)
		os.Exit(1)
	}
	if err := relaySvc.EnsureBucketExists(ctx); err != nil {
		log.Error("image bucket unavailable", "error", err)
		os.Exit(1)
	}

	var notifier scheduler.Notifier
	asynqClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Warn("background queue disabled", "error", err)
		notifier = (*scheduler.Client)(nil)
	} else {
		notifier = asynqClient
		defer func() {
			_ = asynqClient.Close()
		}()
	}

	reportsModule := reports.NewModule(
		pool,
		staffModule.Service(),
		clusterModule.Service(),
		token.NewSigner(cfg.ReportTokenSecret),
		notifier,
		val,
		log,
	)

	machine := conversation.NewMachine(
		session.NewRepository(pool),
		geofence.New(settingsSvc),
		geo.NewNominatimService(cfg.NominatimBaseURL, log),
		relaySvc,
		reportsModule.Service(),
		settingsSvc,
		log,
	)

	app := &apphttp.App{
		Config: cfg,
		Logger: log,
		Health: db.NewPoolAdapter(pool),
		Modules: []apphttp.Module{
			webhook.NewModule(cfg, machine, lineClient, log),
			reportsModule,
			clusterModule,
			staffModule,
			settingsModule,
		},
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("http server starting", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown incomplete", "error", err)
	}
}

// openPool retries the initial connection; serverless Postgres may still be
// waking up when the process starts.
func openPool(ctx context.Context, cfg *config.Config, log *logger.Logger) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	err := db.WithRetry(ctx, db.DefaultRetryAttempts, db.DefaultRetryBaseDelay, func(ctx context.Context) error {
		var err error
		pool, err = db.NewPool(ctx, cfg)
		if err != nil {
			log.Warn("database connection attempt failed", "error", err)
		}
		return err
	})
	return pool, err
}
