package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	assessmentdomain "github.com/smallbiznis/taxsuite/internal/assessment/domain"
	"github.com/smallbiznis/taxsuite/internal/interest"
	"github.com/smallbiznis/taxsuite/internal/money"
)

// Allocate distributes payments over schedule rows and recomputes the
// derived columns: cumulative paid, shortfall, payment status, and 234C
// deferment interest. Pure; rows must be the full four quarters in order.
//
// Hinted payments go wholly to their quarter, even past its requirement
// (explicit overpaid state, never an error). Unhinted payments fill the
// earliest quarter with remaining capacity in date order and spill forward;
// anything beyond Q4's requirement stays on Q4. This same reduction
// re-attaches historical payments after a schedule regeneration, matching
// on date rather than serial position.
func Allocate(rows []assessmentdomain.ScheduleRow, payments []Payment, now time.Time) []assessmentdomain.ScheduleRow {
	out := make([]assessmentdomain.ScheduleRow, len(rows))
	copy(out, rows)
	if len(out) == 0 {
		return out
	}

	var allocated [4]decimal.Decimal
	for q := range allocated {
		allocated[q] = decimal.Zero
	}

	sorted := make([]Payment, len(payments))
	copy(sorted, payments)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].PaidOn.Equal(sorted[j].PaidOn) {
			return sorted[i].PaidOn.Before(sorted[j].PaidOn)
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	for _, p := range sorted {
		if p.Quarter != nil && *p.Quarter >= 1 && *p.Quarter <= len(out) {
			q := *p.Quarter - 1
			allocated[q] = allocated[q].Add(p.Amount)
			continue
		}

		remaining := p.Amount
		for q := 0; q < len(out) && remaining.IsPositive(); q++ {
			capacity := out[q].TaxPayableThisQuarter.Sub(allocated[q])
			if !capacity.IsPositive() {
				continue
			}
			fill := money.Min(remaining, capacity)
			allocated[q] = allocated[q].Add(fill)
			remaining = remaining.Sub(fill)
		}
		if remaining.IsPositive() {
			last := len(out) - 1
			allocated[last] = allocated[last].Add(remaining)
		}
	}

	var cumulativePaid [4]decimal.Decimal
	running := decimal.Zero
	for q := range out {
		running = running.Add(allocated[q])
		cumulativePaid[q] = running
	}

	assessed := out[len(out)-1].CumulativeTaxDue
	deferment := interest.Deferment234C(assessed, cumulativePaid)

	for q := range out {
		out[q].CumulativeTaxPaid = cumulativePaid[q]
		out[q].ShortfallAmount = money.ClampNonNegative(out[q].CumulativeTaxDue.Sub(cumulativePaid[q]))
		out[q].PaymentStatus = statusFor(out[q].TaxPayableThisQuarter, allocated[q])

		// Deferment interest accrues only once the installment is due.
		if out[q].DueDate.After(now) {
			out[q].Interest234C = decimal.Zero
			continue
		}
		out[q].Interest234C = deferment.Quarters[q].Interest
	}

	return out
}

func statusFor(payable, allocated decimal.Decimal) assessmentdomain.PaymentStatus {
	switch {
	case !payable.IsPositive() && !allocated.IsPositive():
		return assessmentdomain.PaymentStatusPaid
	case allocated.IsZero():
		return assessmentdomain.PaymentStatusPending
	case allocated.LessThan(payable):
		return assessmentdomain.PaymentStatusPartial
	case allocated.Equal(payable):
		return assessmentdomain.PaymentStatusPaid
	default:
		return assessmentdomain.PaymentStatusOverpaid
	}
}

// TotalPaid sums payment amounts; the 234B year-end aggregate.
func TotalPaid(payments []Payment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	return total
}
