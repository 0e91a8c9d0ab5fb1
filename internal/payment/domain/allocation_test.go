package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	assessmentdomain "github.com/smallbiznis/taxsuite/internal/assessment/domain"
	"github.com/stretchr/testify/assert"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// scheduleFor builds the standard 15/45/75/100 split for FY 2024-25.
func scheduleFor(assessed int64) []assessmentdomain.ScheduleRow {
	total := d(assessed)
	cums := []decimal.Decimal{
		total.Mul(decimal.NewFromFloat(0.15)),
		total.Mul(decimal.NewFromFloat(0.45)),
		total.Mul(decimal.NewFromFloat(0.75)),
		total,
	}
	dues := []time.Time{
		time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.September, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.December, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC),
	}

	rows := make([]assessmentdomain.ScheduleRow, 4)
	prev := decimal.Zero
	for q := 0; q < 4; q++ {
		rows[q] = assessmentdomain.ScheduleRow{
			Quarter:               q + 1,
			DueDate:               dues[q],
			CumulativeTaxDue:      cums[q],
			TaxPayableThisQuarter: cums[q].Sub(prev),
		}
		prev = cums[q]
	}
	return rows
}

func pay(amount int64, paidOn time.Time, quarter *int) Payment {
	return Payment{Amount: d(amount), PaidOn: paidOn, CreatedAt: paidOn, Quarter: quarter}
}

func q(n int) *int { return &n }

var yearEnd = time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)

func TestAllocate_UnhintedFIFOWithSpill(t *testing.T) {
	rows := scheduleFor(1_000_000)
	payments := []Payment{
		pay(200_000, time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC), nil),
	}

	out := Allocate(rows, payments, yearEnd)

	// 150,000 fills Q1, the rest spills into Q2.
	assert.Equal(t, assessmentdomain.PaymentStatusPaid, out[0].PaymentStatus)
	assert.True(t, out[0].ShortfallAmount.IsZero())
	assert.Equal(t, assessmentdomain.PaymentStatusPartial, out[1].PaymentStatus)
	assert.True(t, out[1].CumulativeTaxPaid.Equal(d(200_000)))
	assert.True(t, out[1].ShortfallAmount.Equal(d(250_000)))
	assert.Equal(t, assessmentdomain.PaymentStatusPending, out[2].PaymentStatus)
}

func TestAllocate_HintedOverpaysItsQuarter(t *testing.T) {
	rows := scheduleFor(1_000_000)
	payments := []Payment{
		pay(250_000, time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC), q(1)),
	}

	out := Allocate(rows, payments, yearEnd)

	// The whole amount stays on Q1 even past its 150,000 requirement.
	assert.Equal(t, assessmentdomain.PaymentStatusOverpaid, out[0].PaymentStatus)
	assert.True(t, out[0].CumulativeTaxPaid.Equal(d(250_000)))
	// Cumulatively Q2 is 250,000 of 450,000, but its own installment saw
	// nothing.
	assert.Equal(t, assessmentdomain.PaymentStatusPending, out[1].PaymentStatus)
	assert.True(t, out[1].ShortfallAmount.Equal(d(200_000)))
}

func TestAllocate_ExcessBeyondQ4StaysOnQ4(t *testing.T) {
	rows := scheduleFor(1_000_000)
	payments := []Payment{
		pay(1_100_000, time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC), nil),
	}

	out := Allocate(rows, payments, yearEnd)

	for q := 0; q < 3; q++ {
		assert.Equal(t, assessmentdomain.PaymentStatusPaid, out[q].PaymentStatus)
	}
	assert.Equal(t, assessmentdomain.PaymentStatusOverpaid, out[3].PaymentStatus)
	assert.True(t, out[3].CumulativeTaxPaid.Equal(d(1_100_000)))
	assert.True(t, out[3].ShortfallAmount.IsZero())
}

func TestAllocate_DateOrderNotInsertionOrder(t *testing.T) {
	rows := scheduleFor(1_000_000)
	// Recorded out of order; the June payment must fill Q1 first.
	payments := []Payment{
		pay(300_000, time.Date(2024, time.September, 10, 0, 0, 0, 0, time.UTC), nil),
		pay(150_000, time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC), nil),
	}

	out := Allocate(rows, payments, yearEnd)

	assert.Equal(t, assessmentdomain.PaymentStatusPaid, out[0].PaymentStatus)
	assert.Equal(t, assessmentdomain.PaymentStatusPaid, out[1].PaymentStatus)
	assert.True(t, out[1].CumulativeTaxPaid.Equal(d(450_000)))
}

func TestAllocate_Interest234COnlyAfterDueDate(t *testing.T) {
	rows := scheduleFor(1_000_000)
	payments := []Payment{
		pay(100_000, time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC), q(1)),
	}

	// Mid-July: Q1 is due and 50,000 short, later quarters not due yet.
	now := time.Date(2024, time.July, 10, 0, 0, 0, 0, time.UTC)
	out := Allocate(rows, payments, now)

	assert.True(t, out[0].Interest234C.Equal(d(1_500)))
	for quarter := 1; quarter < 4; quarter++ {
		assert.True(t, out[quarter].Interest234C.IsZero(), "quarter %d", quarter+1)
	}
}

func TestAllocate_FullyPaidNoInterest(t *testing.T) {
	rows := scheduleFor(1_000_000)
	payments := []Payment{
		pay(150_000, time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC), nil),
		pay(300_000, time.Date(2024, time.September, 10, 0, 0, 0, 0, time.UTC), nil),
		pay(300_000, time.Date(2024, time.December, 10, 0, 0, 0, 0, time.UTC), nil),
		pay(250_000, time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC), nil),
	}

	out := Allocate(rows, payments, yearEnd)

	for quarter, row := range out {
		assert.Equal(t, assessmentdomain.PaymentStatusPaid, row.PaymentStatus, "quarter %d", quarter+1)
		assert.True(t, row.Interest234C.IsZero(), "quarter %d", quarter+1)
		assert.True(t, row.ShortfallAmount.IsZero(), "quarter %d", quarter+1)
	}
}

func TestAllocate_ZeroLiability(t *testing.T) {
	rows := scheduleFor(0)

	out := Allocate(rows, nil, yearEnd)

	for _, row := range out {
		assert.Equal(t, assessmentdomain.PaymentStatusPaid, row.PaymentStatus)
		assert.True(t, row.Interest234C.IsZero())
	}
}

func TestAllocate_DoesNotMutateInput(t *testing.T) {
	rows := scheduleFor(1_000_000)
	payments := []Payment{
		pay(500_000, time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC), nil),
	}

	_ = Allocate(rows, payments, yearEnd)

	assert.True(t, rows[0].CumulativeTaxPaid.IsZero())
	assert.Equal(t, assessmentdomain.PaymentStatus(""), rows[0].PaymentStatus)
}

func TestTotalPaid(t *testing.T) {
	payments := []Payment{
		pay(100_000, yearEnd, nil),
		pay(50_000, yearEnd, q(2)),
	}
	assert.True(t, TotalPaid(payments).Equal(d(150_000)))
	assert.True(t, TotalPaid(nil).IsZero())
}
