package domain

import "time"

// Payload types carry caller intent into a transition operation. They are
// deliberately separate from the Lease snapshot: the orchestrator is the
// only place the two combine.

// CreatePayload describes a lease to be created in draft or directly active.
type CreatePayload struct {
	UnitID    string
	TenantIDs []string

	StartDate  time.Time
	EndDate    *time.Time
	SignedDate *time.Time
	MoveInDate *time.Time

	MonthlyRent     float64
	SecurityDeposit float64
	PetDeposit      float64
	LateFee         float64
	GracePeriodDays int
	RentDueDay      int

	LeaseType LeaseType
	Status    Status // StatusDraft or StatusActive

	LeaseTerms        string
	SpecialConditions string
}

// ActivatePayload moves a draft lease to active.
type ActivatePayload struct {
	SignedDate      time.Time
	MoveInDate      *time.Time
	ActivationNotes string
}

// RenewPayload extends a lease with a new end date and optional rent increase.
type RenewPayload struct {
	EffectiveDate time.Time
	NewEndDate    time.Time
	RentIncrease  float64
	// NoticePeriodDays is metadata recorded in the renewal note, not a gate.
	// Conventional values are 30, 60 and 90.
	NoticePeriodDays int
	RenewalNotes     string
}

// CancelPayload terminates a lease and settles the security deposit.
type CancelPayload struct {
	TerminationDate     time.Time
	TerminationReason   string
	NoticeGiven         bool
	NoticeDate          *time.Time
	RefundAmount        float64
	DeductionReason     string
	EarlyTerminationFee float64
	CancellationNotes   string
}

// TerminationReasons is the fixed taxonomy accepted by Cancel.
// "Other" is the catch-all.
var TerminationReasons = []string{
	"Tenant Request",
	"Non-Payment",
	"Lease Violation",
	"Property Sale",
	"Owner Move-In",
	"Mutual Agreement",
	"Other",
}

// ValidTerminationReason reports whether reason is in the taxonomy.
func ValidTerminationReason(reason string) bool {
	for _, r := range TerminationReasons {
		if r == reason {
			return true
		}
	}
	return false
}
