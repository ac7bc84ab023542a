package domain

import (
	"fmt"
	"strings"
	"time"
)

// The rules engine: one pure function per operation. Each collects every
// violated rule into a *Rejection instead of stopping at the first, so the
// caller can surface all problems at once. Date comparisons operate on
// calendar dates with time-of-day stripped; "after" is strict, "not before"
// is inclusive.

// ValidateCreate checks a CreatePayload. It returns non-fatal warnings
// (currently only the missing-signed-date advisory for leases created
// directly active) alongside the rejection, if any.
func ValidateCreate(p CreatePayload) ([]string, error) {
	var reasons, warnings []string

	if p.UnitID == "" {
		reasons = append(reasons, "unit is required")
	}
	if len(p.TenantIDs) == 0 {
		reasons = append(reasons, "at least one tenant is required")
	}
	if p.StartDate.IsZero() {
		reasons = append(reasons, "start date is required")
	}
	if p.MonthlyRent <= 0 {
		reasons = append(reasons, "monthly rent must be greater than zero")
	}
	if p.SecurityDeposit < 0 {
		reasons = append(reasons, "security deposit cannot be negative")
	}
	if p.PetDeposit < 0 {
		reasons = append(reasons, "pet deposit cannot be negative")
	}
	if p.LateFee < 0 {
		reasons = append(reasons, "late fee cannot be negative")
	}
	if p.GracePeriodDays < 0 || p.GracePeriodDays > 31 {
		reasons = append(reasons, "grace period must be between 0 and 31 days")
	}
	if p.RentDueDay < 1 || p.RentDueDay > 31 {
		reasons = append(reasons, "rent due day must be between 1 and 31")
	}

	switch p.LeaseType {
	case LeaseTypeFixedTerm, LeaseTypeMonthToMonth, LeaseTypeWeekToWeek:
	default:
		reasons = append(reasons, fmt.Sprintf("unknown lease type %q", p.LeaseType))
	}

	switch p.Status {
	case StatusDraft:
	case StatusActive:
		if p.LeaseType == LeaseTypeFixedTerm && p.EndDate == nil {
			reasons = append(reasons, "end date must be set before activating a Fixed Term lease")
		}
		if p.SignedDate == nil {
			warnings = append(warnings, "signed date is recommended when creating an active lease")
		}
	default:
		reasons = append(reasons, fmt.Sprintf("a lease can only be created as %q or %q", StatusDraft, StatusActive))
	}

	if !p.StartDate.IsZero() {
		start := dateOnly(p.StartDate)
		if p.EndDate != nil && !dateOnly(*p.EndDate).After(start) {
			reasons = append(reasons, "end date must be after start date")
		}
		if p.MoveInDate != nil && dateOnly(*p.MoveInDate).Before(start) {
			reasons = append(reasons, "move-in date cannot be before start date")
		}
		if p.SignedDate != nil && dateOnly(*p.SignedDate).After(start) {
			reasons = append(reasons, "signed date cannot be after start date")
		}
	}

	if len(reasons) > 0 {
		return warnings, &Rejection{Reasons: reasons}
	}
	return warnings, nil
}

// ValidateActivate checks an ActivatePayload against the lease being
// activated. Legality of the draft → active transition itself is the
// transition validator's concern.
func ValidateActivate(l Lease, p ActivatePayload) error {
	var reasons []string

	start := dateOnly(l.StartDate)

	if p.SignedDate.IsZero() {
		reasons = append(reasons, "signed date is required")
	} else if dateOnly(p.SignedDate).After(start) {
		reasons = append(reasons, "signed date cannot be after start date")
	}

	if l.LeaseType == LeaseTypeFixedTerm && l.EndDate == nil {
		reasons = append(reasons, "end date must be set before activating a Fixed Term lease")
	}

	if p.MoveInDate != nil && dateOnly(*p.MoveInDate).Before(start) {
		reasons = append(reasons, "move-in date cannot be before start date")
	}

	if len(reasons) > 0 {
		return &Rejection{Reasons: reasons}
	}
	return nil
}

// ValidateRenew checks a RenewPayload. The new end date must be strictly
// after the effective date. The notice period is metadata and never gates.
func ValidateRenew(l Lease, p RenewPayload) error {
	var reasons []string

	if p.EffectiveDate.IsZero() {
		reasons = append(reasons, "effective date is required")
	}
	if p.NewEndDate.IsZero() {
		reasons = append(reasons, "new end date is required")
	} else if !p.EffectiveDate.IsZero() && !dateOnly(p.NewEndDate).After(dateOnly(p.EffectiveDate)) {
		reasons = append(reasons, "new end date must be after the effective date")
	}
	if p.RentIncrease < 0 {
		reasons = append(reasons, "rent increase cannot be negative")
	}

	if len(reasons) > 0 {
		return &Rejection{Reasons: reasons}
	}
	return nil
}

// ValidateCancel checks a CancelPayload against the lease being terminated.
// now is the caller's current time; backdated terminations are rejected
// against its calendar date.
func ValidateCancel(l Lease, p CancelPayload, now time.Time) error {
	var reasons []string

	if p.TerminationDate.IsZero() {
		reasons = append(reasons, "termination date is required")
	} else if dateOnly(p.TerminationDate).Before(dateOnly(now)) {
		reasons = append(reasons, "termination date cannot be in the past")
	}

	if p.TerminationReason == "" {
		reasons = append(reasons, "termination reason is required")
	} else if !ValidTerminationReason(p.TerminationReason) {
		reasons = append(reasons, fmt.Sprintf("termination reason must be one of: %s", strings.Join(TerminationReasons, ", ")))
	}

	if p.NoticeGiven && p.NoticeDate == nil {
		reasons = append(reasons, "notice date is required when notice has been given")
	}

	if p.RefundAmount < 0 || p.RefundAmount > l.SecurityDeposit {
		reasons = append(reasons, fmt.Sprintf("refund amount must be between 0 and the security deposit (%.2f)", l.SecurityDeposit))
	} else if ComputeDeduction(l.SecurityDeposit, p.RefundAmount) > 0 && p.DeductionReason == "" {
		reasons = append(reasons, "deduction reason is required when a deduction is taken")
	}

	if p.EarlyTerminationFee < 0 {
		reasons = append(reasons, "early termination fee cannot be negative")
	}

	if len(reasons) > 0 {
		return &Rejection{Reasons: reasons}
	}
	return nil
}
