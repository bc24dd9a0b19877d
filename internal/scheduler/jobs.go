package scheduler

import (
	"context"
	"fmt"
	"time"

	"signals-ledger-go/internal/investment"
	"signals-ledger-go/internal/ledger"
	"signals-ledger-go/internal/models"

	"go.uber.org/zap"
)

// ReconcileJob checks every balance against its transaction history and
// every investment against its ledger trail.
type ReconcileJob struct {
	Reconciler *ledger.Reconciler
}

func (j ReconcileJob) Name() string { return "reconcile" }

func (j ReconcileJob) Run(ctx context.Context) error {
	reports, err := j.Reconciler.ReconcileAll(ctx)
	drifted := 0
	for _, report := range reports {
		if !report.Balanced() {
			drifted++
		}
	}

	issues, checkErr := j.Reconciler.CheckInvestments(ctx)
	zap.L().Info("Reconciliation run finished",
		zap.Int("users", len(reports)),
		zap.Int("drifted", drifted),
		zap.Int("investment_issues", len(issues)))

	if err != nil {
		return err
	}
	return checkErr
}

type MaturityJob struct {
	Engine *investment.Engine
}

func (j MaturityJob) Name() string { return "maturity" }

func (j MaturityJob) Run(ctx context.Context) error {
	_, err := j.Engine.CompleteMatured(ctx)
	return err
}

type ExpiryJob struct {
	Engine *investment.Engine
	TTL    time.Duration
}

func (j ExpiryJob) Name() string { return "pending-expiry" }

func (j ExpiryJob) Run(ctx context.Context) error {
	_, err := j.Engine.ExpirePending(ctx, j.TTL)
	return err
}

type scheduledJob struct {
	schedule string
	job      Job
}

// Register adds the configured jobs. Expiry is only scheduled when the
// pending TTL is positive.
func Register(s *Scheduler, cfg models.SchedulerConfig, pendingTTL time.Duration, engine *investment.Engine, reconciler *ledger.Reconciler) error {
	jobs := []scheduledJob{
		{cfg.ReconcileSchedule, ReconcileJob{Reconciler: reconciler}},
		{cfg.MaturitySchedule, MaturityJob{Engine: engine}},
	}
	if pendingTTL > 0 {
		jobs = append(jobs, scheduledJob{cfg.ExpirySchedule, ExpiryJob{Engine: engine, TTL: pendingTTL}})
	}

	for _, j := range jobs {
		if j.schedule == "" {
			continue
		}
		if err := s.AddJob(j.schedule, j.job); err != nil {
			return fmt.Errorf("failed to schedule %s job: %w", j.job.Name(), err)
		}
	}
	return nil
}
