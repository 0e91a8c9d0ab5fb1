// Package interest implements the section 234B and 234C interest formulas.
// Both calculators are pure functions of already-known fields; callers
// write the results back onto the schedule.
package interest

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/taxsuite/internal/fiscal"
	"github.com/smallbiznis/taxsuite/internal/money"
)

// Monthly rate of 1% for both sections.
var monthlyRate = decimal.NewFromFloat(0.01)

// ninetyPercent is the 234B applicability threshold.
var ninetyPercent = decimal.NewFromFloat(0.90)

// CumulativePercents are the statutory installment thresholds.
var CumulativePercents = [4]decimal.Decimal{
	decimal.NewFromInt(15),
	decimal.NewFromInt(45),
	decimal.NewFromInt(75),
	decimal.NewFromInt(100),
}

// reliefPercents are the 234C relief floors: an installment counts as met
// when actual cumulative payment reaches these, even below the nominal
// threshold. Only Q1 and Q2 carry relief.
var reliefPercents = [4]decimal.Decimal{
	decimal.NewFromInt(12),
	decimal.NewFromInt(36),
	decimal.NewFromInt(75),
	decimal.NewFromInt(100),
}

// quarterMonths is the deferment period charged per quarter.
var quarterMonths = [4]int{3, 3, 3, 1}

type Result234B struct {
	Applies   bool            `json:"applies"`
	Shortfall decimal.Decimal `json:"shortfall"`
	Months    int             `json:"months"`
	Interest  decimal.Decimal `json:"interest"`
}

// Shortfall234B computes annual under-payment interest. No interest when
// advance tax paid reaches 90% of assessed tax. Months run from 1 April of
// the assessment year to the determination (or payment) date, any part of a
// month counting in full.
func Shortfall234B(assessedTax, advanceTaxPaid decimal.Decimal, fy fiscal.Year, determinedAt time.Time) Result234B {
	if !assessedTax.IsPositive() {
		return Result234B{}
	}
	if advanceTaxPaid.GreaterThanOrEqual(assessedTax.Mul(ninetyPercent)) {
		return Result234B{}
	}

	shortfall := money.RoundRupees(assessedTax.Sub(advanceTaxPaid))
	months := fiscal.MonthsBetween(fy.AssessmentStart(), determinedAt)
	interest := money.RoundRupees(shortfall.Mul(monthlyRate).Mul(decimal.NewFromInt(int64(months))))

	return Result234B{
		Applies:   true,
		Shortfall: shortfall,
		Months:    months,
		Interest:  interest,
	}
}

type QuarterDeferment struct {
	Quarter            int             `json:"quarter"`
	RequiredCumulative decimal.Decimal `json:"required_cumulative"`
	PaidCumulative     decimal.Decimal `json:"paid_cumulative"`
	Shortfall          decimal.Decimal `json:"shortfall"`
	Months             int             `json:"months"`
	Interest           decimal.Decimal `json:"interest"`
}

type Result234C struct {
	Quarters [4]QuarterDeferment `json:"quarters"`
	Total    decimal.Decimal     `json:"total"`
}

// Deferment234C computes per-quarter deferment interest from assessed tax
// and actual cumulative payments per quarter.
func Deferment234C(assessedTax decimal.Decimal, cumulativePaid [4]decimal.Decimal) Result234C {
	var out Result234C
	out.Total = decimal.Zero

	if !assessedTax.IsPositive() {
		for q := range out.Quarters {
			out.Quarters[q] = QuarterDeferment{Quarter: q + 1, Months: quarterMonths[q]}
		}
		return out
	}

	for q := 0; q < 4; q++ {
		required := money.Percent(assessedTax, CumulativePercents[q])
		relief := money.Percent(assessedTax, reliefPercents[q])
		paid := cumulativePaid[q]

		shortfall := decimal.Zero
		if paid.LessThan(relief) {
			shortfall = money.ClampNonNegative(required.Sub(paid))
		}

		months := quarterMonths[q]
		qInterest := money.RoundRupees(shortfall.Mul(monthlyRate).Mul(decimal.NewFromInt(int64(months))))

		out.Quarters[q] = QuarterDeferment{
			Quarter:            q + 1,
			RequiredCumulative: money.RoundRupees(required),
			PaidCumulative:     paid,
			Shortfall:          money.RoundRupees(shortfall),
			Months:             months,
			Interest:           qInterest,
		}
		out.Total = out.Total.Add(qInterest)
	}

	return out
}
