package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// CoolingOffDays is the period after the start date in which a cancellation is refunded in full.
const CoolingOffDays = 14

var hundredPercent = decimal.NewFromInt(1)

// ComputeRefund returns the refund owed when a policy is cancelled on today,
// and the payment type to refund through (the first recorded payment's type,
// PaymentTypeNone when nothing was paid). Both the percentage and the amount
// are rounded half to even at two decimal places. Nothing is owed once the
// term has ended.
func ComputeRefund(p Policy, today time.Time) (decimal.Decimal, PaymentType) {
	today = DateOf(today)
	start := DateOf(p.StartDate)
	end := DateOf(p.EndDate)

	pct := hundredPercent
	if !today.Before(AddDays(start, CoolingOffDays)) {
		pct = decimal.Zero
		total := DaysBetween(start, end) + 1
		remaining := DaysBetween(today, end) + 1
		if total > 0 && remaining > 0 {
			pct = decimal.NewFromInt(int64(remaining)).DivRound(decimal.NewFromInt(int64(total)), 16).RoundBank(2)
		}
	}

	amount := p.TotalPaid().Mul(pct).RoundBank(2)

	typ := PaymentTypeNone
	if len(p.Payments) > 0 {
		typ = p.Payments[0].Type
	}
	return amount, typ
}
