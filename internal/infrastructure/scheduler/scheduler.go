package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mfgadmin/backend/internal/infrastructure/config"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// JobStatus represents the status of a scheduled job run
type JobStatus string

const (
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// JobFunc is the body of a scheduled job. The context carries the job timeout.
type JobFunc func(ctx context.Context) error

// JobRun records the most recent execution of a job
type JobRun struct {
	Name        string
	Status      JobStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
}

type registeredJob struct {
	spec    string
	fn      JobFunc
	entryID cron.EntryID
}

// CronScheduler runs named jobs on cron schedules. A job that is still
// running when its next tick fires is skipped rather than stacked.
type CronScheduler struct {
	config config.SchedulerConfig
	logger *zap.Logger
	cron   *cron.Cron

	mu        sync.Mutex
	jobs      map[string]*registeredJob
	runs      map[string]JobRun
	baseCtx   context.Context
	cancel    context.CancelFunc
	isRunning bool
}

// NewCronScheduler creates a scheduler using standard 5-field cron specs
func NewCronScheduler(cfg config.SchedulerConfig, logger *zap.Logger) *CronScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	cl := cronLogger{logger: logger.Sugar()}
	return &CronScheduler{
		config: cfg,
		logger: logger,
		cron: cron.New(cron.WithChain(
			cron.Recover(cl),
			cron.SkipIfStillRunning(cl),
		)),
		jobs:    make(map[string]*registeredJob),
		runs:    make(map[string]JobRun),
		baseCtx: context.Background(),
	}
}

// Register adds a job under a unique name
func (s *CronScheduler) Register(name, spec string, fn JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, name)
	}

	entryID, err := s.cron.AddFunc(spec, func() {
		_ = s.execute(name, fn)
	})
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidSchedule, spec, err)
	}

	s.jobs[name] = &registeredJob{spec: spec, fn: fn, entryID: entryID}
	s.logger.Info("Scheduled job registered", zap.String("job", name), zap.String("schedule", spec))
	return nil
}

// Start begins firing registered jobs
func (s *CronScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	if !s.config.Enabled {
		s.logger.Info("Scheduler disabled, jobs will not run")
		return nil
	}

	s.baseCtx, s.cancel = context.WithCancel(ctx)
	s.cron.Start()
	s.isRunning = true

	s.logger.Info("Scheduler started",
		zap.Int("jobs", len(s.jobs)),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)
	return nil
}

// Stop halts the schedule and waits for running jobs to finish, or for ctx
// to end
func (s *CronScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	done := s.cron.Stop()

	select {
	case <-done.Done():
		if s.cancel != nil {
			s.cancel()
		}
		s.logger.Info("Scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		if s.cancel != nil {
			s.cancel()
		}
		s.logger.Warn("Scheduler stop timed out")
		return ctx.Err()
	}
}

// RunNow executes a registered job immediately, outside its schedule
func (s *CronScheduler) RunNow(name string) error {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	return s.execute(name, job.fn)
}

// LastRun returns the most recent run of a job
func (s *CronScheduler) LastRun(name string) (JobRun, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[name]
	return run, ok
}

// NextRun returns when a job fires next. Zero when the scheduler is not
// running or the job is unknown.
func (s *CronScheduler) NextRun(name string) time.Time {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return time.Time{}
	}
	return s.cron.Entry(job.entryID).Next
}

func (s *CronScheduler) execute(name string, fn JobFunc) error {
	s.mu.Lock()
	base := s.baseCtx
	s.mu.Unlock()

	ctx := base
	if s.config.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(base, s.config.JobTimeout)
		defer cancel()
	}

	run := JobRun{Name: name, Status: JobStatusRunning, StartedAt: time.Now()}
	s.record(run)
	s.logger.Info("Job started", zap.String("job", name))

	err := fn(ctx)

	completed := time.Now()
	run.CompletedAt = &completed
	if err != nil {
		run.Status = JobStatusFailed
		run.Error = err.Error()
		s.record(run)
		s.logger.Error("Job failed",
			zap.String("job", name),
			zap.Duration("duration", completed.Sub(run.StartedAt)),
			zap.Error(err),
		)
		return err
	}

	run.Status = JobStatusSuccess
	s.record(run)
	s.logger.Info("Job completed",
		zap.String("job", name),
		zap.Duration("duration", completed.Sub(run.StartedAt)),
	)
	return nil
}

func (s *CronScheduler) record(run JobRun) {
	s.mu.Lock()
	s.runs[run.Name] = run
	s.mu.Unlock()
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
