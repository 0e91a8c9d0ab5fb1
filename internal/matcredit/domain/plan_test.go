package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/taxsuite/internal/fiscal"
	"github.com/stretchr/testify/assert"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func entry(fy string, balance int64, expiryStart int) LedgerEntry {
	return LedgerEntry{
		FinancialYear:   fy,
		CreditCreated:   d(balance),
		Balance:         d(balance),
		ExpiryYearStart: expiryStart,
	}
}

func TestPlanDraws_OldestFirst(t *testing.T) {
	entries := []LedgerEntry{
		entry("2020-21", 100_000, 2035),
		entry("2022-23", 200_000, 2037),
	}

	draws := PlanDraws(entries, d(150_000), fiscal.Year("2024-25"))

	assert.Len(t, draws, 2)
	assert.Equal(t, "2020-21", draws[0].Entry.FinancialYear)
	assert.True(t, draws[0].Amount.Equal(d(100_000)))
	assert.Equal(t, "2022-23", draws[1].Entry.FinancialYear)
	assert.True(t, draws[1].Amount.Equal(d(50_000)))
}

func TestPlanDraws_SkipsExpired(t *testing.T) {
	entries := []LedgerEntry{
		entry("2008-09", 100_000, 2023),
		entry("2020-21", 100_000, 2035),
	}

	draws := PlanDraws(entries, d(150_000), fiscal.Year("2024-25"))

	// The 2008-09 entry expired after FY 2023-24; only the later entry is
	// drawable, leaving the plan short.
	assert.Len(t, draws, 1)
	assert.Equal(t, "2020-21", draws[0].Entry.FinancialYear)
	assert.True(t, draws[0].Amount.Equal(d(100_000)))
}

func TestPlanDraws_ExactLastYearOfWindow(t *testing.T) {
	entries := []LedgerEntry{entry("2009-10", 50_000, 2024)}

	// Usable in the FY starting in the expiry year itself.
	draws := PlanDraws(entries, d(50_000), fiscal.Year("2024-25"))
	assert.Len(t, draws, 1)

	draws = PlanDraws(entries, d(50_000), fiscal.Year("2025-26"))
	assert.Empty(t, draws)
}

func TestPlanDraws_ZeroNeedAndZeroBalances(t *testing.T) {
	entries := []LedgerEntry{
		entry("2020-21", 0, 2035),
		entry("2021-22", 75_000, 2036),
	}

	assert.Empty(t, PlanDraws(entries, decimal.Zero, fiscal.Year("2024-25")))

	draws := PlanDraws(entries, d(50_000), fiscal.Year("2024-25"))
	assert.Len(t, draws, 1)
	assert.Equal(t, "2021-22", draws[0].Entry.FinancialYear)
}
