package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/taxsuite/internal/fiscal"
	"gorm.io/gorm"
)

type Service interface {
	// AvailableBalance sums non-expired entry balances as of the given FY.
	AvailableBalance(ctx context.Context, companyID snowflake.ID, asOf fiscal.Year) (decimal.Decimal, error)

	// UpsertCredit records (or refreshes, while the year is still being
	// revised) the credit created by a MAT year.
	UpsertCredit(ctx context.Context, tx *gorm.DB, entry LedgerEntry) error

	// Utilize consumes the oldest non-expired entries first and writes one
	// utilization record per entry drawn.
	Utilize(ctx context.Context, tx *gorm.DB, companyID snowflake.ID, asOf fiscal.Year, amount decimal.Decimal) ([]Utilization, error)

	Summary(ctx context.Context, companyID snowflake.ID, asOf fiscal.Year) (*Summary, error)
}

// PlanDraws allocates a required amount over ledger entries FIFO by
// creation year, skipping expired entries, to minimize expiry loss. Pure;
// entries must be sorted oldest first.
func PlanDraws(entries []LedgerEntry, need decimal.Decimal, asOf fiscal.Year) []Draw {
	fyStart := asOf.StartYear()
	draws := make([]Draw, 0, len(entries))
	remaining := need

	for _, entry := range entries {
		if !remaining.IsPositive() {
			break
		}
		if entry.Expired(fyStart) || !entry.Balance.IsPositive() {
			continue
		}

		amount := entry.Balance
		if remaining.LessThan(amount) {
			amount = remaining
		}
		draws = append(draws, Draw{Entry: entry, Amount: amount})
		remaining = remaining.Sub(amount)
	}

	return draws
}
