package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/neomorfeo/leaseiq/internal/app"
	"github.com/neomorfeo/leaseiq/internal/domain"
)

// --- Mocks ---

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

func (m *mockRepo) List(_ context.Context, f domain.ListFilter) ([]domain.Lease, error) {
	out := make([]domain.Lease, 0, len(m.leases))
	for _, l := range m.leases {
		if f.Status != nil && l.Status != *f.Status {
			continue
		}
		if f.EndBefore != nil {
			if l.EndDate == nil || !l.EndDate.Before(*f.EndBefore) {
				continue
			}
		}
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

type mockPublisher struct {
	events []publishedEvent
}

type publishedEvent struct {
	event   domain.Event
	lease   domain.Lease
	signals []domain.Signal
}

func (m *mockPublisher) Publish(_ context.Context, e domain.Event, l domain.Lease, signals []domain.Signal) error {
	m.events = append(m.events, publishedEvent{event: e, lease: l, signals: signals})
	return nil
}

// tableValidator resolves transitions directly against the domain table,
// keeping these tests free of the fsm adapter.
type tableValidator struct{}

func (tableValidator) Apply(_ context.Context, current domain.Status, event domain.Event) (domain.Status, error) {
	for _, tr := range domain.Transitions {
		if tr.Event == event && tr.Src == current {
			return tr.Dst, nil
		}
	}
	return "", &domain.TransitionError{Event: event, Current: current}
}

func newService() (*app.LeaseService, *mockRepo, *mockPublisher) {
	repo := newMockRepo()
	pub := &mockPublisher{}
	return app.NewLeaseService(repo, pub, tableValidator{}), repo, pub
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

// farFuture returns a termination date that is always ahead of the wall
// clock, which the cancellation rules compare against.
func farFuture() time.Time {
	return time.Now().UTC().AddDate(1, 0, 0)
}

func createPayload() domain.CreatePayload {
	return domain.CreatePayload{
		UnitID:          "unit-1",
		TenantIDs:       []string{"tenant-1"},
		StartDate:       date(2026, time.January, 1),
		EndDate:         datePtr(2026, time.December, 31),
		MonthlyRent:     1000,
		SecurityDeposit: 1000,
		GracePeriodDays: 5,
		RentDueDay:      1,
		LeaseType:       domain.LeaseTypeFixedTerm,
		Status:          domain.StatusDraft,
	}
}

func mustCreate(t *testing.T, svc *app.LeaseService, p domain.CreatePayload) domain.Lease {
	t.Helper()
	lease, _, err := svc.Create(context.Background(), p)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	return lease
}

// --- Tests ---

func TestCreate_Success(t *testing.T) {
	svc, repo, pub := newService()

	lease, warnings, err := svc.Create(context.Background(), createPayload())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none", warnings)
	}
	if lease.ID == "" {
		t.Error("ID should not be empty")
	}
	if lease.Status != domain.StatusDraft {
		t.Errorf("Status = %q, want %q", lease.Status, domain.StatusDraft)
	}

	// Persisted.
	stored, err := repo.GetByID(context.Background(), lease.ID)
	if err != nil {
		t.Fatalf("lease not found in repo: %v", err)
	}
	if stored.UnitID != "unit-1" {
		t.Errorf("stored UnitID = %q, want %q", stored.UnitID, "unit-1")
	}

	// Creation event published.
	if len(pub.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(pub.events))
	}
	if pub.events[0].event != domain.EventCreate {
		t.Errorf("event = %q, want %q", pub.events[0].event, domain.EventCreate)
	}
}

func TestCreate_ActiveWithoutSignedDateWarns(t *testing.T) {
	svc, _, _ := newService()

	p := createPayload()
	p.Status = domain.StatusActive

	lease, warnings, err := svc.Create(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lease.Status != domain.StatusActive {
		t.Errorf("Status = %q, want %q", lease.Status, domain.StatusActive)
	}
	if len(warnings) == 0 {
		t.Error("expected a warning about the missing signed date")
	}
}

func TestCreate_Rejected(t *testing.T) {
	svc, _, pub := newService()

	p := createPayload()
	p.UnitID = ""
	p.MonthlyRent = -5

	_, _, err := svc.Create(context.Background(), p)
	var rej *domain.Rejection
	if !errors.As(err, &rej) {
		t.Fatalf("expected Rejection, got %v", err)
	}
	if len(rej.Reasons) < 2 {
		t.Errorf("Reasons = %v, want both unit and rent problems reported", rej.Reasons)
	}
	if len(pub.events) != 0 {
		t.Errorf("no event expected on rejection, got %d", len(pub.events))
	}
}

func TestActivate_FixedTermWithoutEndDateRejected(t *testing.T) {
	svc, repo, _ := newService()

	p := createPayload()
	p.EndDate = nil
	lease := mustCreate(t, svc, p)

	_, err := svc.Activate(context.Background(), lease.ID, domain.ActivatePayload{
		SignedDate: date(2025, time.December, 15),
	})
	var rej *domain.Rejection
	if !errors.As(err, &rej) {
		t.Fatalf("expected Rejection, got %v", err)
	}
	found := false
	for _, r := range rej.Reasons {
		if strings.Contains(r, "end date must be set before activating a Fixed Term lease") {
			found = true
		}
	}
	if !found {
		t.Errorf("Reasons = %v, want Fixed Term end date reason", rej.Reasons)
	}

	// Lease is untouched.
	stored, _ := repo.GetByID(context.Background(), lease.ID)
	if stored.Status != domain.StatusDraft {
		t.Errorf("Status = %q, want unchanged %q", stored.Status, domain.StatusDraft)
	}
}

func TestActivate_Success(t *testing.T) {
	svc, _, pub := newService()

	lease := mustCreate(t, svc, createPayload())

	updated, err := svc.Activate(context.Background(), lease.ID, domain.ActivatePayload{
		SignedDate: date(2025, time.December, 15),
		MoveInDate: datePtr(2026, time.January, 1),
	})
	if err != nil {
		t.Fatalf("activate failed: %v", err)
	}
	if updated.Status != domain.StatusActive {
		t.Errorf("Status = %q, want %q", updated.Status, domain.StatusActive)
	}

	last := pub.events[len(pub.events)-1]
	if last.event != domain.EventActivate {
		t.Errorf("event = %q, want %q", last.event, domain.EventActivate)
	}
	wantSignals := map[domain.Signal]bool{
		domain.SignalUnitOccupied:         false,
		domain.SignalDepositRecordCreated: false,
	}
	for _, s := range last.signals {
		wantSignals[s] = true
	}
	for s, seen := range wantSignals {
		if !seen {
			t.Errorf("signal %q not published", s)
		}
	}
}

func TestRenew_AppliesRentIncrease(t *testing.T) {
	svc, _, _ := newService()

	lease := mustCreate(t, svc, createPayload())
	if _, err := svc.Activate(context.Background(), lease.ID, domain.ActivatePayload{
		SignedDate: date(2025, time.December, 15),
	}); err != nil {
		t.Fatalf("activate failed: %v", err)
	}

	updated, err := svc.Renew(context.Background(), lease.ID, domain.RenewPayload{
		EffectiveDate: date(2027, time.January, 1),
		NewEndDate:    date(2027, time.December, 31),
		RentIncrease:  50,
	})
	if err != nil {
		t.Fatalf("renew failed: %v", err)
	}
	if updated.Status != domain.StatusActive {
		t.Errorf("Status = %q, want %q", updated.Status, domain.StatusActive)
	}
	if updated.MonthlyRent != 1050 {
		t.Errorf("MonthlyRent = %v, want 1050", updated.MonthlyRent)
	}
	if updated.EndDate == nil || !updated.EndDate.Equal(date(2027, time.December, 31)) {
		t.Errorf("EndDate = %v, want 2027-12-31", updated.EndDate)
	}
	if !strings.Contains(updated.SpecialConditions, "+5.0%") {
		t.Errorf("SpecialConditions = %q, want 5%% increase note", updated.SpecialConditions)
	}
}

func TestRenew_DraftRejected(t *testing.T) {
	svc, _, _ := newService()

	lease := mustCreate(t, svc, createPayload())

	_, err := svc.Renew(context.Background(), lease.ID, domain.RenewPayload{
		EffectiveDate: date(2027, time.January, 1),
		NewEndDate:    date(2027, time.December, 31),
	})
	var rej *domain.Rejection
	if !errors.As(err, &rej) {
		t.Fatalf("expected Rejection, got %v", err)
	}
	found := false
	for _, r := range rej.Reasons {
		if strings.Contains(r, `event "renew" is not valid from state "draft"`) {
			found = true
		}
	}
	if !found {
		t.Errorf("Reasons = %v, want transition legality reason", rej.Reasons)
	}
}

func TestCancel_SettlesDeposit(t *testing.T) {
	svc, repo, pub := newService()

	lease := mustCreate(t, svc, createPayload())
	if _, err := svc.Activate(context.Background(), lease.ID, domain.ActivatePayload{
		SignedDate: date(2025, time.December, 15),
	}); err != nil {
		t.Fatalf("activate failed: %v", err)
	}

	updated, err := svc.Cancel(context.Background(), lease.ID, domain.CancelPayload{
		TerminationDate:   farFuture(),
		TerminationReason: "Tenant Request",
		RefundAmount:      700,
		DeductionReason:   "Carpet damage",
	})
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if updated.Status != domain.StatusTerminated {
		t.Errorf("Status = %q, want %q", updated.Status, domain.StatusTerminated)
	}
	if updated.RefundAmount != 700 {
		t.Errorf("RefundAmount = %v, want 700", updated.RefundAmount)
	}
	if got := domain.ComputeDeduction(updated.SecurityDeposit, updated.RefundAmount); got != 300 {
		t.Errorf("deduction = %v, want 300", got)
	}

	stored, _ := repo.GetByID(context.Background(), lease.ID)
	if stored.Status != domain.StatusTerminated {
		t.Errorf("stored Status = %q, want %q", stored.Status, domain.StatusTerminated)
	}

	last := pub.events[len(pub.events)-1]
	if last.event != domain.EventCancel {
		t.Errorf("event = %q, want %q", last.event, domain.EventCancel)
	}
	vacated := false
	for _, s := range last.signals {
		if s == domain.SignalUnitVacated {
			vacated = true
		}
	}
	if !vacated {
		t.Errorf("signals = %v, want unit_vacated", last.signals)
	}
}

func TestCancel_RefundAboveDepositRejected(t *testing.T) {
	svc, _, _ := newService()

	lease := mustCreate(t, svc, createPayload())

	_, err := svc.Cancel(context.Background(), lease.ID, domain.CancelPayload{
		TerminationDate:   farFuture(),
		TerminationReason: "Tenant Request",
		RefundAmount:      1500, // deposit is 1000
	})
	var rej *domain.Rejection
	if !errors.As(err, &rej) {
		t.Fatalf("expected Rejection, got %v", err)
	}
	found := false
	for _, r := range rej.Reasons {
		if strings.Contains(r, "security deposit") {
			found = true
		}
	}
	if !found {
		t.Errorf("Reasons = %v, want refund-over-deposit reason", rej.Reasons)
	}
}

func TestCancel_TerminatedLeaseRejected(t *testing.T) {
	svc, _, _ := newService()

	lease := mustCreate(t, svc, createPayload())
	if _, err := svc.Cancel(context.Background(), lease.ID, domain.CancelPayload{
		TerminationDate:   farFuture(),
		TerminationReason: "Tenant Request",
		RefundAmount:      1000, // full refund, no deduction to justify
	}); err != nil {
		t.Fatalf("first cancel failed: %v", err)
	}

	_, err := svc.Cancel(context.Background(), lease.ID, domain.CancelPayload{
		TerminationDate:   farFuture(),
		TerminationReason: "Tenant Request",
	})
	var rej *domain.Rejection
	if !errors.As(err, &rej) {
		t.Fatalf("expected Rejection, got %v", err)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	svc, _, _ := newService()

	_, err := svc.GetByID(context.Background(), "nonexistent")
	if !errors.Is(err, domain.ErrLeaseNotFound) {
		t.Errorf("expected ErrLeaseNotFound, got %v", err)
	}
}

func TestActivate_NotFound(t *testing.T) {
	svc, _, _ := newService()

	_, err := svc.Activate(context.Background(), "nonexistent", domain.ActivatePayload{
		SignedDate: date(2025, time.December, 15),
	})
	if !errors.Is(err, domain.ErrLeaseNotFound) {
		t.Errorf("expected ErrLeaseNotFound, got %v", err)
	}
}

func TestExpireDue(t *testing.T) {
	svc, repo, pub := newService()

	// An active lease that ended in the past.
	ended := mustCreate(t, svc, createPayload())
	if _, err := svc.Activate(context.Background(), ended.ID, domain.ActivatePayload{
		SignedDate: date(2025, time.December, 15),
	}); err != nil {
		t.Fatalf("activate failed: %v", err)
	}

	// A month-to-month lease with no end date; never expires.
	open := createPayload()
	open.LeaseType = domain.LeaseTypeMonthToMonth
	open.EndDate = nil
	mustCreate(t, svc, open)

	now := date(2027, time.March, 1)
	expired, err := svc.ExpireDue(context.Background(), now)
	if err != nil {
		t.Fatalf("expire sweep failed: %v", err)
	}
	if expired != 1 {
		t.Errorf("expired = %d, want 1", expired)
	}

	stored, _ := repo.GetByID(context.Background(), ended.ID)
	if stored.Status != domain.StatusExpired {
		t.Errorf("Status = %q, want %q", stored.Status, domain.StatusExpired)
	}

	last := pub.events[len(pub.events)-1]
	if last.event != domain.EventExpire {
		t.Errorf("event = %q, want %q", last.event, domain.EventExpire)
	}
	signalled := false
	for _, s := range last.signals {
		if s == domain.SignalLeaseExpired {
			signalled = true
		}
	}
	if !signalled {
		t.Errorf("signals = %v, want lease_expired", last.signals)
	}
}

func TestExpireDue_SkipsDrafts(t *testing.T) {
	svc, repo, _ := newService()

	// Draft with a past end date: not in an expirable state, left alone.
	lease := mustCreate(t, svc, createPayload())

	expired, err := svc.ExpireDue(context.Background(), date(2027, time.March, 1))
	if err != nil {
		t.Fatalf("expire sweep failed: %v", err)
	}
	if expired != 0 {
		t.Errorf("expired = %d, want 0", expired)
	}

	stored, _ := repo.GetByID(context.Background(), lease.ID)
	if stored.Status != domain.StatusDraft {
		t.Errorf("Status = %q, want unchanged %q", stored.Status, domain.StatusDraft)
	}
}
