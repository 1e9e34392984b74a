package jobs

import (
	"context"
	"fmt"
	"time"

	"ticketpoint/internal/shared/config"
	"ticketpoint/pkg/logger"

	"github.com/go-co-op/gocron/v2"
)

// Workflow is the booking lifecycle the jobs sweep
type Workflow interface {
	ExpireReservations(ctx context.Context, ttl time.Duration) (int, error)
	ResumeStalled(ctx context.Context, olderThan time.Duration) (int, error)
}

// JobConfig contains configuration for background jobs
type JobConfig struct {
	ReservationTTL time.Duration
	ExpiryInterval time.Duration
	RepairInterval time.Duration
	RepairGrace    time.Duration
}

// DefaultJobConfig returns default job configuration
func DefaultJobConfig() *JobConfig {
	return &JobConfig{
		ReservationTTL: 30 * time.Minute, // Unpaid reservations give their seat back after this
		ExpiryInterval: 1 * time.Minute,
		RepairInterval: 1 * time.Minute,
		RepairGrace:    2 * time.Minute, // Leave in-flight webhooks alone
	}
}

func JobConfigFrom(cfg config.IssuanceConfig) *JobConfig {
	return &JobConfig{
		ReservationTTL: cfg.ReservationTTL,
		ExpiryInterval: cfg.ExpiryInterval,
		RepairInterval: cfg.RepairInterval,
		RepairGrace:    cfg.RepairGrace,
	}
}

// JobProcessor runs the reservation expiry and issuance repair sweeps
type JobProcessor struct {
	workflow  Workflow
	config    *JobConfig
	log       *logger.Logger
	scheduler gocron.Scheduler
}

func NewJobProcessor(workflow Workflow, cfg *JobConfig, log *logger.Logger) *JobProcessor {
	if cfg == nil {
		cfg = DefaultJobConfig()
	}
	if log == nil {
		log = logger.GetDefault()
	}
	return &JobProcessor{
		workflow: workflow,
		config:   cfg,
		log:      log.WithComponent("jobs"),
	}
}

// Start schedules both sweeps. A sweep still running when its next run is
// due is not started twice.
func (jp *JobProcessor) Start(ctx context.Context) error {
	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	jobs := []struct {
		name     string
		interval time.Duration
		run      func(context.Context) (int, error)
	}{
		{"expire-reservations", jp.config.ExpiryInterval, jp.RunExpiry},
		{"resume-stalled-issuance", jp.config.RepairInterval, jp.RunRepair},
	}

	for _, job := range jobs {
		run := job.run
		_, err := s.NewJob(
			gocron.DurationJob(job.interval),
			gocron.NewTask(func() { _, _ = run(ctx) }),
			gocron.WithName(job.name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			_ = s.Shutdown()
			return fmt.Errorf("failed to schedule %s: %w", job.name, err)
		}
	}

	jp.scheduler = s
	s.Start()

	jp.log.Info("Background jobs started",
		"expiry_interval", jp.config.ExpiryInterval.String(),
		"repair_interval", jp.config.RepairInterval.String(),
	)
	return nil
}

// Stop waits for running sweeps to return
func (jp *JobProcessor) Stop() error {
	if jp.scheduler == nil {
		return nil
	}
	if err := jp.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("failed to stop scheduler: %w", err)
	}
	jp.log.Info("Background jobs stopped")
	return nil
}

// RunExpiry cancels reservations older than the TTL
func (jp *JobProcessor) RunExpiry(ctx context.Context) (int, error) {
	n, err := jp.workflow.ExpireReservations(ctx, jp.config.ReservationTTL)
	if err != nil {
		jp.log.ErrorWithContext(ctx, "Reservation expiry failed", err, nil)
		return n, err
	}
	if n > 0 {
		jp.log.InfoWithContext(ctx, "Expired reservations", map[string]interface{}{"count": n})
	}
	return n, nil
}

// RunRepair resumes credential issuance for paid bookings left without one
func (jp *JobProcessor) RunRepair(ctx context.Context) (int, error) {
	n, err := jp.workflow.ResumeStalled(ctx, jp.config.RepairGrace)
	if err != nil {
		jp.log.ErrorWithContext(ctx, "Issuance repair failed", err, nil)
		return n, err
	}
	if n > 0 {
		jp.log.InfoWithContext(ctx, "Resumed stalled issuance", map[string]interface{}{"count": n})
	}
	return n, nil
}
