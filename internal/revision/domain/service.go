package domain

import (
	"context"

	"github.com/shopspring/decimal"
	assessmentdomain "github.com/smallbiznis/taxsuite/internal/assessment/domain"
)

type Service interface {
	// Revise snapshots the current derived state, applies the changed
	// inputs, recomputes the full pipeline, regenerates the schedule, and
	// appends a Revision. One transaction end to end.
	Revise(ctx context.Context, req ReviseRequest) (*Revision, error)

	List(ctx context.Context, assessmentID string) ([]Revision, error)

	// Advise compares a fresh income projection against the assessment's
	// current taxable income and flags drift beyond the configured
	// threshold. Advisory only; nothing is persisted.
	Advise(ctx context.Context, assessmentID string, projectedIncome decimal.Decimal) (*Advisory, error)
}

// Variance computes the typed deltas between two snapshots.
func Variance(previous, revised assessmentdomain.ComputedState) (taxableIncome, totalTax, netPayable decimal.Decimal) {
	taxableIncome = revised.TaxableIncome.Sub(previous.TaxableIncome)
	totalTax = revised.TotalTaxLiability.Sub(previous.TotalTaxLiability)
	netPayable = revised.NetTaxPayable.Sub(previous.NetTaxPayable)
	return taxableIncome, totalTax, netPayable
}
