package river

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/leaseiq/internal/domain"
)

// Compile-time check: Publisher implements domain.EventPublisher.
var _ domain.EventPublisher = (*Publisher)(nil)

// EventJobArgs carries the data needed to process a lifecycle event
// asynchronously. River serializes this as JSON into its job queue table.
// It includes a snapshot of the lease at the time the event was published,
// so the worker never needs to query the database, plus the advisory
// signals (unit occupied, unit vacated, deposit record created, lease
// expired) for the unit-management collaborator.
type EventJobArgs struct {
	Event         string   `json:"event"`
	LeaseID       string   `json:"lease_id"`
	UnitID        string   `json:"unit_id"`
	PrimaryTenant string   `json:"primary_tenant"`
	Status        string   `json:"status"`
	MonthlyRent   float64  `json:"monthly_rent"`
	Signals       []string `json:"signals,omitempty"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (EventJobArgs) Kind() string { return "lease.event" }

// Client is the River client type parameterized for SQLite (*sql.Tx).
type Client = river.Client[*sql.Tx]

// Publisher implements domain.EventPublisher by enqueuing River jobs.
type Publisher struct {
	client *Client
}

// NewPublisher creates a publisher backed by the given River client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// Publish enqueues a lifecycle event as an async job in River.
func (p *Publisher) Publish(ctx context.Context, event domain.Event, lease domain.Lease, signals []domain.Signal) error {
	args := EventJobArgs{
		Event:         string(event),
		LeaseID:       lease.ID,
		UnitID:        lease.UnitID,
		PrimaryTenant: lease.PrimaryTenant(),
		Status:        string(lease.Status),
		MonthlyRent:   lease.MonthlyRent,
	}
	for _, s := range signals {
		args.Signals = append(args.Signals, string(s))
	}

	if _, err := p.client.Insert(ctx, args, nil); err != nil {
		return fmt.Errorf("enqueuing event job: %w", err)
	}
	return nil
}
