package scheduler

import (
	"context"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is a unit of background work run on a cron schedule.
type Job interface {
	Run(ctx context.Context) error
	Name() string
}

// Scheduler manages background jobs. A job never overlaps with itself.
type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
}

func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
	zap.L().Info("Scheduler started", zap.Int("jobs", len(s.cron.Entries())))
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	zap.L().Info("Scheduler stopped")
}

// AddJob registers job with a standard five-field cron expression or a
// descriptor such as "@every 10m".
func (s *Scheduler) AddJob(schedule string, job Job) error {
	var running sync.Mutex
	_, err := s.cron.AddFunc(schedule, func() {
		if !running.TryLock() {
			zap.L().Warn("Previous run still in progress, skipping", zap.String("job", job.Name()))
			return
		}
		defer running.Unlock()
		s.run(job)
	})
	if err != nil {
		return err
	}

	zap.L().Info("Job registered",
		zap.String("schedule", schedule),
		zap.String("job", job.Name()))
	return nil
}

// RunNow executes a job immediately, outside its schedule.
func (s *Scheduler) RunNow(job Job) error {
	zap.L().Info("Running job immediately", zap.String("job", job.Name()))
	return job.Run(s.ctx)
}

func (s *Scheduler) run(job Job) {
	zap.L().Debug("Running job", zap.String("job", job.Name()))
	if err := job.Run(s.ctx); err != nil {
		zap.L().Error("Job failed", zap.String("job", job.Name()), zap.Error(err))
		return
	}
	zap.L().Debug("Job completed", zap.String("job", job.Name()))
}
