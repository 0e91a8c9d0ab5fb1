// Package seed installs the statutory rule packs so a fresh install can
// compute without any manual rate entry.
package seed

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	rulepackdomain "github.com/smallbiznis/taxsuite/internal/rulepack/domain"
	"gorm.io/gorm"
)

var seedYears = []string{"2024-25", "2025-26"}

// EnsureDefaultRulePacks seeds version 1 packs for the covered financial
// years. Idempotent: a year that already has any pack is left alone, so
// operator-shipped corrections are never overwritten.
func EnsureDefaultRulePacks(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, fy := range seedYears {
			if err := ensureRulePackTx(ctx, tx, node, fy); err != nil {
				return err
			}
		}
		return nil
	})
}

func ensureRulePackTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, fy string) error {
	var count int64
	if err := tx.WithContext(ctx).
		Model(&rulepackdomain.RulePack{}).
		Where("financial_year = ?", fy).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	pack := rulepackdomain.RulePack{
		ID:            node.Generate(),
		FinancialYear: fy,
		Version:       1,
		IsActive:      true,
		CessRate:      decimal.NewFromFloat(0.04),
		MATRate:       decimal.NewFromFloat(0.15),
	}
	if err := tx.WithContext(ctx).Create(&pack).Error; err != nil {
		return err
	}

	rates := []rulepackdomain.RegimeRate{
		{ID: node.Generate(), RulePackID: pack.ID, Regime: rulepackdomain.RegimeNormal, TaxRate: decimal.NewFromFloat(0.30)},
		{ID: node.Generate(), RulePackID: pack.ID, Regime: rulepackdomain.Regime115BAA, TaxRate: decimal.NewFromFloat(0.22)},
		{ID: node.Generate(), RulePackID: pack.ID, Regime: rulepackdomain.Regime115BAB, TaxRate: decimal.NewFromFloat(0.15)},
	}
	if err := tx.WithContext(ctx).Create(&rates).Error; err != nil {
		return err
	}

	oneCrore := decimal.NewFromInt(10_000_000)
	tenCrore := decimal.NewFromInt(100_000_000)
	tiers := []rulepackdomain.SurchargeTier{
		{ID: node.Generate(), RulePackID: pack.ID, Regime: rulepackdomain.RegimeNormal, IncomeAbove: oneCrore, Rate: decimal.NewFromFloat(0.07)},
		{ID: node.Generate(), RulePackID: pack.ID, Regime: rulepackdomain.RegimeNormal, IncomeAbove: tenCrore, Rate: decimal.NewFromFloat(0.12)},

		// Sections 115BAA/115BAB carry a flat 10% surcharge from the first
		// rupee, so the threshold is zero and marginal relief never binds.
		{ID: node.Generate(), RulePackID: pack.ID, Regime: rulepackdomain.Regime115BAA, IncomeAbove: decimal.Zero, Rate: decimal.NewFromFloat(0.10)},
		{ID: node.Generate(), RulePackID: pack.ID, Regime: rulepackdomain.Regime115BAB, IncomeAbove: decimal.Zero, Rate: decimal.NewFromFloat(0.10)},
	}
	return tx.WithContext(ctx).Create(&tiers).Error
}
