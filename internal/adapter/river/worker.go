package river

import (
	"context"
	"log/slog"

	"github.com/riverqueue/river"
)

// EventWorker processes lifecycle event jobs from the River queue.
// For now it logs the event and its collaborator signals; future versions
// will dispatch to the unit-management service and deposit accounting.
type EventWorker struct {
	river.WorkerDefaults[EventJobArgs]
}

// Work processes a single event job.
func (w *EventWorker) Work(ctx context.Context, job *river.Job[EventJobArgs]) error {
	slog.InfoContext(ctx, "processing lease event",
		"event", job.Args.Event,
		"lease_id", job.Args.LeaseID,
		"unit_id", job.Args.UnitID,
		"signals", job.Args.Signals,
		"job_id", job.ID,
		"attempt", job.Attempt,
	)
	return nil
}
