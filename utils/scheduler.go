package utils

import (
	"context"
	"time"

	"coursedelivery/logger"

	"github.com/robfig/cron/v3"
)

// Job is one unit of maintenance work run by the scheduler.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// Each run gets this long before its context is cancelled.
const jobTimeout = 5 * time.Minute

// InitializeMaintenanceScheduler registers every job on spec, starts the
// scheduler and returns it so the caller can Stop it on shutdown.
func InitializeMaintenanceScheduler(spec string, log *logger.Logger, jobs ...Job) (*cron.Cron, error) {
	log = log.With("component", "scheduler")
	log.Info("Initializing maintenance scheduler", "schedule", spec, "jobs", len(jobs))

	c := cron.New(cron.WithLocation(time.UTC), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	for _, job := range jobs {
		job := job
		if _, err := c.AddFunc(spec, func() { RunJob(context.Background(), log, job) }); err != nil {
			return nil, err
		}
	}

	c.Start()
	log.Info("Maintenance scheduler started", "schedule", spec)
	return c, nil
}

// RunJob runs job once with a timeout and logs the outcome. Panics are
// recovered so one bad run does not stop the scheduler.
func RunJob(ctx context.Context, log *logger.Logger, job Job) {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			log.Error("Scheduled job panicked", "job", job.Name, "panic", r)
		}
	}()

	start := time.Now()
	if err := job.Run(ctx); err != nil {
		log.Error("Scheduled job failed", "job", job.Name, "error", err)
		return
	}
	log.Info("Scheduled job finished", "job", job.Name, "took", time.Since(start).String())
}
