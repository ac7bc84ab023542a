package domain

import (
	"fmt"
	"time"
)

// Snapshot builders for the transition operations. Each takes the current
// lease by value and returns a new snapshot plus the advisory signals the
// change produces. They assume validation has already passed; the
// orchestrator composes the two.

// NewLease builds a lease from a create payload in draft or directly active
// state.
func NewLease(id string, p CreatePayload, now time.Time) (Lease, []Signal) {
	l := Lease{
		ID:                id,
		UnitID:            p.UnitID,
		TenantIDs:         append([]string(nil), p.TenantIDs...),
		StartDate:         p.StartDate,
		EndDate:           p.EndDate,
		SignedDate:        p.SignedDate,
		MoveInDate:        p.MoveInDate,
		MonthlyRent:       p.MonthlyRent,
		SecurityDeposit:   p.SecurityDeposit,
		PetDeposit:        p.PetDeposit,
		LateFee:           p.LateFee,
		GracePeriodDays:   p.GracePeriodDays,
		RentDueDay:        p.RentDueDay,
		LeaseType:         p.LeaseType,
		Status:            p.Status,
		LeaseTerms:        p.LeaseTerms,
		SpecialConditions: p.SpecialConditions,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	var signals []Signal
	if p.Status == StatusActive {
		signals = append(signals, SignalUnitOccupied)
		if p.SecurityDeposit > 0 {
			signals = append(signals, SignalDepositRecordCreated)
		}
	}
	return l, signals
}

// ActivatedLease moves a draft lease to active, recording the signed date
// and optional move-in date, and appends an audit note when activation
// notes are present.
func ActivatedLease(l Lease, p ActivatePayload, now time.Time) (Lease, []Signal) {
	signed := p.SignedDate
	l.Status = StatusActive
	l.SignedDate = &signed
	if p.MoveInDate != nil {
		l.MoveInDate = p.MoveInDate
	}
	if p.ActivationNotes != "" {
		l.SpecialConditions = appendCondition(l.SpecialConditions, "Activated: "+p.ActivationNotes, now)
	}
	l.UpdatedAt = now

	signals := []Signal{SignalUnitOccupied}
	if l.SecurityDeposit > 0 {
		signals = append(signals, SignalDepositRecordCreated)
	}
	return l, signals
}

// RenewedLease extends the lease to the new end date, applies the rent
// increase, and appends a renewal note with the computed figures.
func RenewedLease(l Lease, p RenewPayload, now time.Time) (Lease, []Signal) {
	end := p.NewEndDate
	newRent := ComputeNewRent(l.MonthlyRent, p.RentIncrease)

	note := fmt.Sprintf("Renewed through %s, rent %.2f", end.Format("2006-01-02"), newRent)
	if pct, ok := ComputePercentIncrease(l.MonthlyRent, p.RentIncrease); ok && p.RentIncrease > 0 {
		note = fmt.Sprintf("%s (+%.1f%%)", note, pct)
	}
	if p.NoticePeriodDays > 0 {
		note = fmt.Sprintf("%s, notice period %d days", note, p.NoticePeriodDays)
	}
	if p.RenewalNotes != "" {
		note = note + ": " + p.RenewalNotes
	}

	l.Status = StatusActive
	l.EndDate = &end
	l.MonthlyRent = newRent
	l.SpecialConditions = appendCondition(l.SpecialConditions, note, now)
	l.UpdatedAt = now

	return l, nil
}

// TerminatedLease records the termination and its deposit settlement.
func TerminatedLease(l Lease, p CancelPayload, now time.Time) (Lease, []Signal) {
	term := p.TerminationDate

	l.Status = StatusTerminated
	l.TerminationDate = &term
	l.TerminationReason = p.TerminationReason
	l.RefundAmount = p.RefundAmount
	l.DeductionReason = p.DeductionReason
	l.EarlyTerminationFee = p.EarlyTerminationFee

	note := fmt.Sprintf("Terminated effective %s (%s)", term.Format("2006-01-02"), p.TerminationReason)
	if p.CancellationNotes != "" {
		note = note + ": " + p.CancellationNotes
	}
	l.SpecialConditions = appendCondition(l.SpecialConditions, note, now)
	l.UpdatedAt = now

	return l, []Signal{SignalUnitVacated}
}

// ExpiredLease marks a lease whose end date has passed without renewal.
func ExpiredLease(l Lease, now time.Time) (Lease, []Signal) {
	l.Status = StatusExpired
	l.SpecialConditions = appendCondition(l.SpecialConditions, "Expired without renewal", now)
	l.UpdatedAt = now
	return l, []Signal{SignalLeaseExpired, SignalUnitVacated}
}

// appendCondition adds a dated entry to the append-only audit trail.
func appendCondition(existing, note string, now time.Time) string {
	entry := fmt.Sprintf("[%s] %s", dateOnly(now).Format("2006-01-02"), note)
	if existing == "" {
		return entry
	}
	return existing + "\n" + entry
}
