package otel_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	adapter "github.com/neomorfeo/leaseiq/internal/adapter/otel"
	"github.com/neomorfeo/leaseiq/internal/domain"
)

// --- Test tracer setup ---

func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return exporter
}

// --- Mock repository ---

type mockRepo struct {
	leases map[string]domain.Lease
}

func newMockRepo() *mockRepo {
	return &mockRepo{leases: make(map[string]domain.Lease)}
}

func (m *mockRepo) Create(_ context.Context, l domain.Lease) error {
	m.leases[l.ID] = l
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id string) (domain.Lease, error) {
	l, ok := m.leases[id]
	if !ok {
		return domain.Lease{}, domain.ErrLeaseNotFound
	}
	return l, nil
}

func (m *mockRepo) List(_ context.Context, _ domain.ListFilter) ([]domain.Lease, error) {
	out := make([]domain.Lease, 0, len(m.leases))
	for _, l := range m.leases {
		out = append(out, l)
	}
	return out, nil
}

func (m *mockRepo) Update(_ context.Context, l domain.Lease) error {
	if _, ok := m.leases[l.ID]; !ok {
		return domain.ErrLeaseNotFound
	}
	m.leases[l.ID] = l
	return nil
}

func testLease(id string) domain.Lease {
	return domain.Lease{
		ID:          id,
		UnitID:      "unit-1",
		TenantIDs:   []string{"tenant-1"},
		StartDate:   time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
		MonthlyRent: 1000,
		LeaseType:   domain.LeaseTypeFixedTerm,
		Status:      domain.StatusDraft,
	}
}

// --- Tests ---

func TestTracingRepository_Create_RecordsSpan(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := newMockRepo()
	repo := adapter.NewTracingRepository(inner)

	if err := repo.Create(context.Background(), testLease("l-1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name != "LeaseRepository.Create" {
		t.Errorf("span name = %q, want %q", spans[0].Name, "LeaseRepository.Create")
	}

	assertAttribute(t, spans[0], "lease.id", "l-1")
	assertAttribute(t, spans[0], "lease.unit_id", "unit-1")
	assertAttribute(t, spans[0], "lease.status", "draft")
}

func TestTracingRepository_GetByID_RecordsSpan(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := newMockRepo()
	repo := adapter.NewTracingRepository(inner)

	inner.leases["l-1"] = testLease("l-1")

	got, err := repo.GetByID(context.Background(), "l-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "l-1" {
		t.Errorf("ID = %q, want %q", got.ID, "l-1")
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name != "LeaseRepository.GetByID" {
		t.Errorf("span name = %q, want %q", spans[0].Name, "LeaseRepository.GetByID")
	}
}

func TestTracingRepository_GetByID_RecordsError(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := newMockRepo()
	repo := adapter.NewTracingRepository(inner)

	_, err := repo.GetByID(context.Background(), "nonexistent")
	if !errors.Is(err, domain.ErrLeaseNotFound) {
		t.Fatalf("expected ErrLeaseNotFound, got %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}

	if spans[0].Status.Code != codes.Error {
		t.Errorf("span status = %v, want %v", spans[0].Status.Code, codes.Error)
	}

	if len(spans[0].Events) == 0 {
		t.Error("expected error event on span")
	}
}

func TestTracingRepository_List_RecordsResultCount(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := newMockRepo()
	repo := adapter.NewTracingRepository(inner)

	inner.leases["l-1"] = testLease("l-1")
	inner.leases["l-2"] = testLease("l-2")

	leases, err := repo.List(context.Background(), domain.ListFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(leases) != 2 {
		t.Errorf("got %d leases, want 2", len(leases))
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}

	assertAttribute(t, spans[0], "result.count", "2")
}

func TestTracingRepository_List_RecordsFilter(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := newMockRepo()
	repo := adapter.NewTracingRepository(inner)

	status := domain.StatusActive
	if _, err := repo.List(context.Background(), domain.ListFilter{Status: &status, UnitID: "unit-1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}

	assertAttribute(t, spans[0], "filter.status", "active")
	assertAttribute(t, spans[0], "filter.unit_id", "unit-1")
}

func TestTracingRepository_Update_RecordsSpan(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := newMockRepo()
	repo := adapter.NewTracingRepository(inner)

	lease := testLease("l-1")
	inner.leases["l-1"] = lease

	lease.Status = domain.StatusActive
	if err := repo.Update(context.Background(), lease); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name != "LeaseRepository.Update" {
		t.Errorf("span name = %q, want %q", spans[0].Name, "LeaseRepository.Update")
	}

	assertAttribute(t, spans[0], "lease.status", "active")
}

// assertAttribute checks that a span has an attribute with the given key and string value.
func assertAttribute(t *testing.T, span tracetest.SpanStub, key, want string) {
	t.Helper()
	for _, attr := range span.Attributes {
		if string(attr.Key) == key {
			got := attr.Value.Emit()
			if got != want {
				t.Errorf("attribute %q = %q, want %q", key, got, want)
			}
			return
		}
	}
	t.Errorf("attribute %q not found on span %q", key, span.Name)
}
