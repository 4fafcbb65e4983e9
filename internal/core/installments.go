package core

import (
	"time"

	"github.com/google/uuid"
)

// Installment is one scheduled portion of a split purchase. All installments
// of one purchase share the same ParentRef.
type Installment struct {
	Index      int // 1-based
	TotalCount int
	Amount     Money
	DueDate    Date
	ParentRef  string
}

// SplitInstallments distributes total across count monthly installments.
//
// Installments 1..count-1 carry the half-up rounded value of total/count;
// the last installment absorbs the rounding remainder so the cent sum is
// always exact. Due dates advance one calendar month per installment,
// keeping the day of month and clamping at month end (Jan 31 -> Feb 28/29).
//
// parentRef correlates the resulting records; when empty a fresh UUID is
// generated. The function is pure: persistence is the caller's concern.
func SplitInstallments(total Money, count int, start Date, parentRef string) ([]Installment, error) {
	if total.Cents <= 0 {
		return nil, ErrInvalidAmount
	}
	if count < 1 {
		return nil, ErrInvalidInstallmentCount
	}
	if err := start.Validate(); err != nil {
		return nil, err
	}

	// Half-up rounding of total/count in integer cents.
	base := (2*total.Cents + int64(count)) / (2 * int64(count))
	last := total.Cents - base*int64(count-1)
	if last < 0 {
		// Only reachable when count is within 2x of the total in cents,
		// i.e. installments of well under one cent each.
		return nil, ErrInvalidInstallmentCount
	}

	if parentRef == "" {
		parentRef = uuid.New().String()
	}

	out := make([]Installment, count)
	for i := 0; i < count; i++ {
		amount := base
		if i == count-1 {
			amount = last
		}
		out[i] = Installment{
			Index:      i + 1,
			TotalCount: count,
			Amount:     Money{Cents: amount},
			DueDate:    addMonthsClamped(start, i),
			ParentRef:  parentRef,
		}
	}
	return out, nil
}

// addMonthsClamped adds months to d preserving the day of month where the
// target month allows it, clamping to the month's last day otherwise.
// time.AddDate is not used because it normalizes Jan 31 + 1 month to Mar 2/3.
func addMonthsClamped(d Date, months int) Date {
	y, m, day := d.Date()
	m += time.Month(months)
	for m > 12 {
		m -= 12
		y++
	}
	for m < 1 {
		m += 12
		y--
	}
	if max := daysInMonth(y, m); day > max {
		day = max
	}
	return NewDate(y, int(m), day)
}

// daysInMonth returns the number of days in the given month.
func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
