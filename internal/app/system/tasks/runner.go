// internal/app/system/tasks/runner.go
package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/peterdrier/volunteerhub/internal/app/system/metrics"
	"github.com/peterdrier/volunteerhub/internal/app/system/timeouts"
)

// Job is a periodic background task.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Runner drives a set of jobs on their intervals. Each job runs on its
// own goroutine; a panic or error in one job never affects another.
type Runner struct {
	jobs   []Job
	log    *zap.Logger
	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewRunner(log *zap.Logger, jobs ...Job) *Runner {
	return &Runner{
		jobs:   jobs,
		log:    log,
		stopCh: make(chan struct{}),
	}
}

// Start begins all job loops.
func (r *Runner) Start() {
	for _, j := range r.jobs {
		r.wg.Add(1)
		go r.loop(j)
		r.log.Info("background job started",
			zap.String("job", j.Name),
			zap.Duration("interval", j.Interval))
	}
}

// Stop signals all jobs to stop and waits for them to finish.
func (r *Runner) Stop() {
	close(r.stopCh)
	r.wg.Wait()
	r.log.Info("background jobs stopped")
}

func (r *Runner) loop(j Job) {
	defer r.wg.Done()

	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.runOnce(j)
		}
	}
}

func (r *Runner) runOnce(j Job) {
	runID := uuid.NewString()
	ctx, cancel := timeouts.WithTimeout(context.Background(), timeouts.Batch(), r.log, j.Name)
	defer cancel()

	start := time.Now()
	err := j.Run(ctx)
	elapsed := time.Since(start)

	if err != nil {
		metrics.JobRuns.WithLabelValues(j.Name, "failure").Inc()
		r.log.Error("background job failed",
			zap.String("job", j.Name),
			zap.String("run_id", runID),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return
	}
	metrics.JobRuns.WithLabelValues(j.Name, "success").Inc()
	r.log.Debug("background job completed",
		zap.String("job", j.Name),
		zap.String("run_id", runID),
		zap.Duration("elapsed", elapsed))
}
