package domain

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/taxsuite/internal/fiscal"
)

// Service resolves statutory rates for a computation pass. Resolution is
// income-dependent because marginal relief caps the surcharge near slab
// thresholds.
type Service interface {
	// Resolve returns rates for the normal (taxable income) basis.
	Resolve(ctx context.Context, fy fiscal.Year, regime Regime, taxableIncome decimal.Decimal, version *int) (*ResolvedRates, error)

	// ResolveMAT returns rates for the book-profit basis: the surcharge
	// tier and marginal relief are evaluated against book profit with the
	// MAT amount as the surcharge base.
	ResolveMAT(ctx context.Context, fy fiscal.Year, regime Regime, bookProfit decimal.Decimal, version *int) (*ResolvedRates, error)

	List(ctx context.Context, fy fiscal.Year) ([]RulePack, error)
}
