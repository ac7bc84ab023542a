package domain

import "time"

// Status represents the lifecycle state of a lease.
type Status string

const (
	StatusDraft          Status = "draft"
	StatusActive         Status = "active"
	StatusPendingRenewal Status = "pending_renewal"
	StatusRenewed        Status = "renewed"
	StatusTerminated     Status = "terminated"
	StatusExpired        Status = "expired"
)

// LeaseType classifies the term structure of a lease.
type LeaseType string

const (
	LeaseTypeFixedTerm    LeaseType = "fixed_term"
	LeaseTypeMonthToMonth LeaseType = "month_to_month"
	LeaseTypeWeekToWeek   LeaseType = "week_to_week"
)

// Event represents an action that triggers a state transition.
type Event string

const (
	// EventCreate is published when a lease is created. Creation is not a
	// state transition (there is no source state), so it has no entry in
	// Transitions; it exists so collaborators observe new leases.
	EventCreate   Event = "create"
	EventActivate Event = "activate"
	EventRenew    Event = "renew"
	EventCancel   Event = "cancel"
	EventExpire   Event = "expire"
)

// Signal is an advisory flag emitted alongside an event for external
// collaborators (unit management, deposit accounting). This core never acts
// on them itself.
type Signal string

const (
	SignalUnitOccupied         Signal = "unit_occupied"
	SignalUnitVacated          Signal = "unit_vacated"
	SignalDepositRecordCreated Signal = "deposit_record_created"
	SignalLeaseExpired         Signal = "lease_expired"
)

// Transition defines a valid state change: an event moves a lease from Src to Dst.
type Transition struct {
	Event Event
	Src   Status
	Dst   Status
}

// Transitions defines all valid state changes in the lease lifecycle.
// This is domain knowledge consumed by the FSM adapter. A successful renew
// always lands on "active"; the "renewed" status is retained for rows
// written by older systems and is only ever a cancel source.
var Transitions = []Transition{
	{Event: EventActivate, Src: StatusDraft, Dst: StatusActive},
	{Event: EventRenew, Src: StatusActive, Dst: StatusActive},
	{Event: EventRenew, Src: StatusPendingRenewal, Dst: StatusActive},
	{Event: EventCancel, Src: StatusDraft, Dst: StatusTerminated},
	{Event: EventCancel, Src: StatusActive, Dst: StatusTerminated},
	{Event: EventCancel, Src: StatusPendingRenewal, Dst: StatusTerminated},
	{Event: EventCancel, Src: StatusRenewed, Dst: StatusTerminated},
	{Event: EventExpire, Src: StatusActive, Dst: StatusExpired},
	{Event: EventExpire, Src: StatusPendingRenewal, Dst: StatusExpired},
}

// Lease is the core domain entity: a time-bounded agreement between a unit
// and one or more tenants with defined rent and deposit terms. Operations
// never mutate a Lease in place; they return a new snapshot.
type Lease struct {
	ID        string
	UnitID    string
	TenantIDs []string

	StartDate  time.Time
	EndDate    *time.Time // nil only for month-to-month / week-to-week
	SignedDate *time.Time // nil until activation
	MoveInDate *time.Time

	MonthlyRent     float64
	SecurityDeposit float64
	PetDeposit      float64
	LateFee         float64
	GracePeriodDays int
	RentDueDay      int

	LeaseType LeaseType
	Status    Status

	LeaseTerms        string
	SpecialConditions string // append-only audit trail of lifecycle notes

	// Termination record, filled by Cancel.
	TerminationDate     *time.Time
	TerminationReason   string
	RefundAmount        float64
	DeductionReason     string
	EarlyTerminationFee float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PrimaryTenant returns the first tenant on the lease, used for default
// display and contact purposes. Empty when the lease has no tenants.
func (l Lease) PrimaryTenant() string {
	if len(l.TenantIDs) == 0 {
		return ""
	}
	return l.TenantIDs[0]
}

// IsTerminal reports whether the lease has reached a state no user-invoked
// operation may leave.
func (l Lease) IsTerminal() bool {
	return l.Status == StatusTerminated || l.Status == StatusExpired
}

// dateOnly strips the time-of-day component so rule comparisons operate on
// calendar dates, avoiding off-by-a-few-hours rejections.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
