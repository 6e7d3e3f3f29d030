package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

const defaultInterval = 24 * time.Hour

// Job is a unit of periodic maintenance.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry holds jobs in registration order.
type Registry struct {
	jobs []Job
}

// NewRegistry builds a registry preloaded with jobs. Nil jobs are ignored.
func NewRegistry(jobs ...Job) *Registry {
	r := &Registry{}
	for _, job := range jobs {
		r.Register(job)
	}
	return r
}

// Register appends a job.
func (r *Registry) Register(job Job) {
	if job == nil {
		return
	}
	r.jobs = append(r.jobs, job)
}

// Jobs returns a copy of the registered jobs.
func (r *Registry) Jobs() []Job {
	jobs := make([]Job, len(r.jobs))
	copy(jobs, r.jobs)
	return jobs
}

// JobMetrics receives per-job outcomes.
type JobMetrics interface {
	ObserveJobDuration(job string, duration time.Duration)
	IncJobSuccess(job string)
	IncJobFailure(job string)
}

// SchedulerParams configure a Scheduler.
type SchedulerParams struct {
	Logger   *zap.Logger
	Registry *Registry
	Lock     Lock
	Metrics  JobMetrics
	Interval time.Duration
}

// Scheduler runs every registered job once at start and then on a fixed interval.
type Scheduler struct {
	logger   *zap.Logger
	registry *Registry
	lock     Lock
	metrics  JobMetrics
	interval time.Duration
}

// NewScheduler validates params and applies defaults.
func NewScheduler(params SchedulerParams) (*Scheduler, error) {
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	lock := params.Lock
	if lock == nil {
		lock = NoopLock{}
	}
	registry := params.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Scheduler{
		logger:   params.Logger,
		registry: registry,
		lock:     lock,
		metrics:  params.Metrics,
		interval: interval,
	}, nil
}

// Run blocks until ctx is canceled and returns ctx.Err().
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.RunOnce(ctx); err != nil {
		s.logger.Error("scheduled run failed", zap.Error(err))
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				s.logger.Error("scheduled run failed", zap.Error(err))
			}
		}
	}
}

// RunOnce executes one cycle. Job failures are logged and counted but do not
// stop the remaining jobs; only lock errors are returned.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return err
	}
	if !locked {
		s.logger.Info("another instance holds the maintenance lock; skipping cycle")
		return nil
	}
	defer func() {
		if relErr := s.lock.Release(ctx); relErr != nil {
			s.logger.Warn("failed to release maintenance lock", zap.Error(relErr))
		}
	}()

	for _, job := range s.registry.Jobs() {
		s.runJob(ctx, job)
	}
	return nil
}

func (s *Scheduler) runJob(ctx context.Context, job Job) {
	logger := s.logger.With(zap.String("job", job.Name()))
	start := time.Now()
	err := job.Run(ctx)
	duration := time.Since(start)
	if s.metrics != nil {
		s.metrics.ObserveJobDuration(job.Name(), duration)
	}
	if err != nil {
		logger.Error("job failed", zap.Error(err), zap.Duration("duration", duration))
		if s.metrics != nil {
			s.metrics.IncJobFailure(job.Name())
		}
		return
	}
	logger.Info("job completed", zap.Duration("duration", duration))
	if s.metrics != nil {
		s.metrics.IncJobSuccess(job.Name())
	}
}
