package domain

// Financial settlement calculator: pure functions, no side effects. These
// assume validated inputs; a caller that bypasses validation can obtain a
// negative deduction, which the orchestrator treats as a precondition
// violation.

// ComputeDeduction returns the amount withheld from the security deposit.
// For any valid pair, ComputeDeduction(d, r) + r == d.
func ComputeDeduction(securityDeposit, refundAmount float64) float64 {
	return securityDeposit - refundAmount
}

// ComputeNewRent returns the rent after a renewal increase. A zero increase
// is a date-only renewal.
func ComputeNewRent(currentRent, rentIncrease float64) float64 {
	return currentRent + rentIncrease
}

// ComputePercentIncrease returns the rent increase as a percentage of the
// current rent. The second return is false when currentRent is zero, where
// the percentage is undefined.
func ComputePercentIncrease(currentRent, rentIncrease float64) (float64, bool) {
	if currentRent == 0 {
		return 0, false
	}
	return rentIncrease / currentRent * 100, true
}

// ComputeTotalSettlement returns the informational total owed by the tenant
// at termination: deposit deduction plus any early-termination fee. It is
// presented to the caller, not persisted as its own field.
func ComputeTotalSettlement(deduction, earlyTerminationFee float64) float64 {
	return deduction + earlyTerminationFee
}

// Settlement summarizes the financial reconciliation computed at
// cancellation.
type Settlement struct {
	Refund              float64
	Deduction           float64
	EarlyTerminationFee float64
	Total               float64
}

// SettlementFor derives the full settlement for a cancel payload.
func SettlementFor(l Lease, p CancelPayload) Settlement {
	deduction := ComputeDeduction(l.SecurityDeposit, p.RefundAmount)
	return Settlement{
		Refund:              p.RefundAmount,
		Deduction:           deduction,
		EarlyTerminationFee: p.EarlyTerminationFee,
		Total:               ComputeTotalSettlement(deduction, p.EarlyTerminationFee),
	}
}
