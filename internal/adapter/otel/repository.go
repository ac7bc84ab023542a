package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/leaseiq/internal/domain"
)

const tracerName = "github.com/neomorfeo/leaseiq/internal/adapter/otel"

// TracingRepository wraps a domain.LeaseRepository with OpenTelemetry tracing.
// Each method creates a span with semantic attributes and records errors.
type TracingRepository struct {
	next   domain.LeaseRepository
	tracer trace.Tracer
}

// Compile-time check: TracingRepository implements domain.LeaseRepository.
var _ domain.LeaseRepository = (*TracingRepository)(nil)

// NewTracingRepository creates a tracing decorator around the given repository.
func NewTracingRepository(next domain.LeaseRepository) *TracingRepository {
	return &TracingRepository{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (r *TracingRepository) Create(ctx context.Context, lease domain.Lease) error {
	ctx, span := r.tracer.Start(ctx, "LeaseRepository.Create",
		trace.WithAttributes(
			attribute.String("lease.id", lease.ID),
			attribute.String("lease.unit_id", lease.UnitID),
			attribute.String("lease.status", string(lease.Status)),
		),
	)
	defer span.End()

	err := r.next.Create(ctx, lease)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (r *TracingRepository) GetByID(ctx context.Context, id string) (domain.Lease, error) {
	ctx, span := r.tracer.Start(ctx, "LeaseRepository.GetByID",
		trace.WithAttributes(attribute.String("lease.id", id)),
	)
	defer span.End()

	lease, err := r.next.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return lease, err
}

func (r *TracingRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Lease, error) {
	ctx, span := r.tracer.Start(ctx, "LeaseRepository.List",
		trace.WithAttributes(
			attribute.Int("filter.limit", filter.Limit),
			attribute.Int("filter.offset", filter.Offset),
		),
	)
	defer span.End()

	if filter.Status != nil {
		span.SetAttributes(attribute.String("filter.status", string(*filter.Status)))
	}
	if filter.UnitID != "" {
		span.SetAttributes(attribute.String("filter.unit_id", filter.UnitID))
	}

	leases, err := r.next.List(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int("result.count", len(leases)))
	}
	return leases, err
}

func (r *TracingRepository) Update(ctx context.Context, lease domain.Lease) error {
	ctx, span := r.tracer.Start(ctx, "LeaseRepository.Update",
		trace.WithAttributes(
			attribute.String("lease.id", lease.ID),
			attribute.String("lease.status", string(lease.Status)),
		),
	)
	defer span.End()

	err := r.next.Update(ctx, lease)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
