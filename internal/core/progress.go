package core

// DebtProgress is a computed snapshot of a debtor's payment state. It never
// mutates the payment history it was derived from.
type DebtProgress struct {
	Paid         Money
	Remaining    Money
	Percentage   float64 // 0-100, clamped
	FullySettled bool
}

// ComputeProgress aggregates a debtor's payment log against its principal.
//
// Paid is the exact cent sum of all payments (order independent). Remaining
// clamps at zero: overpayment is silently absorbed, not reported as credit.
// Percentage clamps at 100. A negative payment amount or a non-positive
// principal is rejected.
func ComputeProgress(principal Money, payments []Payment) (DebtProgress, error) {
	if principal.Cents <= 0 {
		return DebtProgress{}, ErrInvalidAmount
	}

	var paid int64
	for _, p := range payments {
		if p.Amount.Cents < 0 {
			return DebtProgress{}, ErrNegativePayment
		}
		paid += p.Amount.Cents
	}

	remaining := principal.Cents - paid
	if remaining < 0 {
		remaining = 0
	}
	pct := float64(paid) / float64(principal.Cents) * 100
	if pct > 100 {
		pct = 100
	}

	return DebtProgress{
		Paid:         Money{Cents: paid},
		Remaining:    Money{Cents: remaining},
		Percentage:   pct,
		FullySettled: paid >= principal.Cents,
	}, nil
}

// IsFullySettled reports whether paid covers the principal. Callers invoke
// it right after appending a payment to decide whether to offer the settled
// transition; the transition itself stays an explicit external action.
func IsFullySettled(principal, paid Money) bool {
	return paid.Cents >= principal.Cents
}
