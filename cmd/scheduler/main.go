// The scheduler binary runs background work: the periodic session-expiry
// sweep and staff notification delivery.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"wildguard_backend/internal/config"
	"wildguard_backend/internal/email"
	"wildguard_backend/internal/scheduler"
	"wildguard_backend/platform/db"
	"wildguard_backend/platform/logger"
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

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	var sender email.Sender
	if cfg.EmailEnabled {
		sender = email.NewSMTPSender(cfg)
	} else {
		log.Info("email notifications disabled")
		sender = (*email.SMTPSender)(nil)
	}

	worker, err := scheduler.NewWorker(cfg, cfg.SweepPeriod, pool, sender, log)
	if err != nil {
		log.Error("worker setup failed", "error", err)
		os.Exit(1)
	}

	log.Info("scheduler worker starting", "queue", cfg.AsynqQueue, "sweep_period", cfg.SweepPeriod.String())
	worker.Run(ctx)
}
