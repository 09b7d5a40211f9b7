package scheduler

import (
	"context"
	"fmt"
	"time"

	"wildguard_backend/internal/email"
	reportsrepo "wildguard_backend/internal/reports/repository"
	"wildguard_backend/internal/session"
	staffrepo "wildguard_backend/internal/staff/repository"
	"wildguard_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Worker consumes background tasks and runs the periodic session sweep.
type Worker struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	sessions  *session.Repository
	reports   *reportsrepo.Repository
	staff     *staffrepo.Repository
	sender    email.Sender
	log       *logger.Logger
}

// NewWorker builds the asynq server, registers handlers, and schedules the
// session sweep at the configured period.
func NewWorker(cfg Config, sweepPeriod time.Duration, pool *pgxpool.Pool, sender email.Sender, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL)
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			queue: 1,
		},
	})

	if sweepPeriod <= 0 {
		sweepPeriod = time.Hour
	}
	sched := asynq.NewScheduler(opt, nil)
	if _, err := sched.Register(
		fmt.Sprintf("@every %s", sweepPeriod),
		NewSessionSweepTask(),
		asynq.Queue(queue),
	); err != nil {
		return nil, fmt.Errorf("register session sweep: %w", err)
	}

	mux := asynq.NewServeMux()
	w := &Worker{
		server:    server,
		scheduler: sched,
		mux:       mux,
		sessions:  session.NewRepository(pool),
		reports:   reportsrepo.New(pool),
		staff:     staffrepo.New(pool),
		sender:    sender,
		log:       log,
	}

	mux.HandleFunc(TaskSessionSweep, w.handleSessionSweep)
	mux.HandleFunc(TaskStaffAssigned, w.handleStaffAssigned)

	return w, nil
}

// Run blocks serving tasks until the context is canceled.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.scheduler.Shutdown()
		w.server.Shutdown()
	}()

	go func() {
		if err := w.scheduler.Run(); err != nil {
			w.log.Error("sweep scheduler stopped", "error", err)
		}
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleSessionSweep(ctx context.Context, _ *asynq.Task) error {
	purged, err := w.sessions.DeleteExpired(ctx)
	if err != nil {
		w.log.DatabaseError("session sweep", err)
		return err
	}

	if purged > 0 {
		w.log.Info("expired sessions purged", "count", purged)
	}
	return nil
}

func (w *Worker) handleStaffAssigned(ctx context.Context, task *asynq.Task) error {
	if w.sender == nil {
		return nil
	}

	payload, err := ParseStaffAssignedPayload(task)
	if err != nil {
		return err
	}

	reportID, err := uuid.Parse(payload.ReportID)
	if err != nil {
		return err
	}
	staffID, err := uuid.Parse(payload.StaffID)
	if err != nil {
		return err
	}

	report, err := w.reports.GetByID(ctx, reportID)
	if err != nil {
		return err
	}
	member, err := w.staff.GetStaff(ctx, staffID)
	if err != nil {
		return err
	}

	if member.Email == "" {
		return nil
	}

	return w.sender.SendAssignmentNotification(ctx, member.Email, member.Name,
		report.AnimalType, report.Address, report.ID.String())
}
