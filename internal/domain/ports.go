package domain

import (
	"context"
	"time"
)

// LeaseRepository defines the persistence contract for leases.
type LeaseRepository interface {
	Create(ctx context.Context, lease Lease) error
	GetByID(ctx context.Context, id string) (Lease, error)
	List(ctx context.Context, filter ListFilter) ([]Lease, error)
	Update(ctx context.Context, lease Lease) error
}

// ListFilter holds optional criteria for listing leases.
type ListFilter struct {
	Status    *Status
	UnitID    string
	TenantID  string
	EndBefore *time.Time // leases whose end date falls strictly before this
	Limit     int
	Offset    int
}

// EventPublisher defines the contract for emitting lifecycle events together
// with their advisory collaborator signals.
type EventPublisher interface {
	Publish(ctx context.Context, event Event, lease Lease, signals []Signal) error
}

// TransitionValidator checks whether an event is legal from a status and
// resolves the destination status.
type TransitionValidator interface {
	Apply(ctx context.Context, current Status, event Event) (Status, error)
}
