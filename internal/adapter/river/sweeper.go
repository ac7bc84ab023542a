package river

import (
	"context"
	"log/slog"
	"time"

	"github.com/riverqueue/river"
)

// SweepFunc expires every lease whose end date has passed and returns how
// many were expired. It is supplied by the caller at Setup time; a closure
// lets the service be wired after the River client it publishes through.
type SweepFunc func(ctx context.Context) (int, error)

// ExpireSweepArgs is the payload of the periodic expiry sweep job. The job
// carries no data; the sweep always operates on "today".
type ExpireSweepArgs struct{}

// Kind returns the unique job type identifier used by River's job routing.
func (ExpireSweepArgs) Kind() string { return "lease.expire_sweep" }

// ExpireWorker runs the expiry sweep: leases past their end date move to
// expired and the lease_expired signal is published for collaborators.
type ExpireWorker struct {
	river.WorkerDefaults[ExpireSweepArgs]

	sweep SweepFunc
}

// Work runs a single sweep.
func (w *ExpireWorker) Work(ctx context.Context, job *river.Job[ExpireSweepArgs]) error {
	expired, err := w.sweep(ctx)
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "expiry sweep complete",
		"expired", expired,
		"job_id", job.ID,
		"attempt", job.Attempt,
	)
	return nil
}

// expirePeriodicJob schedules the sweep daily, with a run on startup so a
// service that was down over a lease boundary catches up immediately.
func expirePeriodicJob() *river.PeriodicJob {
	return river.NewPeriodicJob(
		river.PeriodicInterval(24*time.Hour),
		func() (river.JobArgs, *river.InsertOpts) {
			return ExpireSweepArgs{}, nil
		},
		&river.PeriodicJobOpts{RunOnStart: true},
	)
}
