package compute

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/taxsuite/internal/fiscal"
	"github.com/smallbiznis/taxsuite/internal/interest"
	"github.com/smallbiznis/taxsuite/internal/money"
)

// NettingPolicy decides how credits known before the year starts reduce
// the schedule. The statute does not disambiguate this; it is a policy
// point, not law.
type NettingPolicy string

const (
	// NettingNetTotal nets credits against the liability before the
	// percentage split. Default.
	NettingNetTotal NettingPolicy = "net_total"

	// NettingLastQuarter leaves the split on the gross liability and nets
	// credits only against the final installment.
	NettingLastQuarter NettingPolicy = "last_quarter"
)

// QuarterDue is one generated installment before payments are applied.
type QuarterDue struct {
	Quarter               int
	DueDate               time.Time
	CumulativePercent     decimal.Decimal
	CumulativeTaxDue      decimal.Decimal
	TaxPayableThisQuarter decimal.Decimal
}

// BuildSchedule generates the four-quarter cumulative-due schedule.
// Cumulative dues are rounded and per-quarter payables derived as adjacent
// differences, so their sum always equals the rounded net liability.
func BuildSchedule(fy fiscal.Year, assessedTax, creditsUpfront decimal.Decimal, policy NettingPolicy) [4]QuarterDue {
	var rows [4]QuarterDue

	gross := money.ClampNonNegative(assessedTax)
	credits := money.ClampNonNegative(creditsUpfront)

	base := gross
	if policy != NettingLastQuarter {
		base = money.ClampNonNegative(gross.Sub(credits))
	}

	prev := decimal.Zero
	for q := 0; q < 4; q++ {
		pct := interest.CumulativePercents[q]
		cumDue := money.RoundRupees(money.Percent(base, pct))

		if policy == NettingLastQuarter && q == 3 {
			cumDue = money.ClampNonNegative(cumDue.Sub(money.RoundRupees(credits)))
			if cumDue.LessThan(prev) {
				cumDue = prev
			}
		}

		due, _ := fy.QuarterDueDate(q + 1)
		rows[q] = QuarterDue{
			Quarter:               q + 1,
			DueDate:               due,
			CumulativePercent:     pct,
			CumulativeTaxDue:      cumDue,
			TaxPayableThisQuarter: cumDue.Sub(prev),
		}
		prev = cumDue
	}

	return rows
}
