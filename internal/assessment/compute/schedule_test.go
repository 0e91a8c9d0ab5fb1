package compute

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/taxsuite/internal/fiscal"
	"github.com/stretchr/testify/assert"
)

func TestBuildSchedule_CumulativeSplit(t *testing.T) {
	fy := fiscal.Year("2024-25")

	rows := BuildSchedule(fy, d(1_000_000), decimal.Zero, NettingNetTotal)

	assert.True(t, rows[0].CumulativeTaxDue.Equal(d(150_000)))
	assert.True(t, rows[1].CumulativeTaxDue.Equal(d(450_000)))
	assert.True(t, rows[2].CumulativeTaxDue.Equal(d(750_000)))
	assert.True(t, rows[3].CumulativeTaxDue.Equal(d(1_000_000)))

	assert.Equal(t, time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC), rows[0].DueDate)
	assert.Equal(t, time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC), rows[3].DueDate)
}

func TestBuildSchedule_InstallmentsSumToLiability(t *testing.T) {
	fy := fiscal.Year("2024-25")

	// An awkward liability whose 15/45/75 splits all round.
	rows := BuildSchedule(fy, decimal.NewFromFloat(999_999.37), decimal.Zero, NettingNetTotal)

	sum := decimal.Zero
	prev := decimal.Zero
	for _, row := range rows {
		assert.True(t, row.CumulativeTaxDue.GreaterThanOrEqual(prev), "quarter %d", row.Quarter)
		prev = row.CumulativeTaxDue
		sum = sum.Add(row.TaxPayableThisQuarter)
	}
	assert.True(t, sum.Equal(d(999_999)), "sum %s", sum)
	assert.True(t, sum.Equal(rows[3].CumulativeTaxDue))
}

func TestBuildSchedule_NetTotalPolicy(t *testing.T) {
	fy := fiscal.Year("2024-25")

	rows := BuildSchedule(fy, d(1_000_000), d(200_000), NettingNetTotal)

	// Credits shrink the base before the percentage split.
	assert.True(t, rows[0].CumulativeTaxDue.Equal(d(120_000)))
	assert.True(t, rows[3].CumulativeTaxDue.Equal(d(800_000)))
}

func TestBuildSchedule_LastQuarterPolicy(t *testing.T) {
	fy := fiscal.Year("2024-25")

	rows := BuildSchedule(fy, d(1_000_000), d(200_000), NettingLastQuarter)

	// Early quarters stay on the gross liability; only Q4 nets the credits.
	assert.True(t, rows[0].CumulativeTaxDue.Equal(d(150_000)))
	assert.True(t, rows[2].CumulativeTaxDue.Equal(d(750_000)))
	assert.True(t, rows[3].CumulativeTaxDue.Equal(d(800_000)))
	assert.True(t, rows[3].TaxPayableThisQuarter.Equal(d(50_000)))
}

func TestBuildSchedule_LastQuarterNeverDropsBelowQ3(t *testing.T) {
	fy := fiscal.Year("2024-25")

	// Credits exceed the final installment; the cumulative line must not
	// regress below Q3.
	rows := BuildSchedule(fy, d(1_000_000), d(400_000), NettingLastQuarter)

	assert.True(t, rows[3].CumulativeTaxDue.Equal(rows[2].CumulativeTaxDue))
	assert.True(t, rows[3].TaxPayableThisQuarter.IsZero())
}

func TestBuildSchedule_ZeroAndOverCreditedLiability(t *testing.T) {
	fy := fiscal.Year("2024-25")

	for _, rows := range [][4]QuarterDue{
		BuildSchedule(fy, decimal.Zero, decimal.Zero, NettingNetTotal),
		BuildSchedule(fy, d(100_000), d(150_000), NettingNetTotal),
	} {
		for _, row := range rows {
			assert.True(t, row.CumulativeTaxDue.IsZero())
			assert.True(t, row.TaxPayableThisQuarter.IsZero())
		}
	}
}
