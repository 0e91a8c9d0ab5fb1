package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Regime is the corporate tax scheme elected for a financial year.
// Regimes are mutually exclusive per company per year.
type Regime string

const (
	RegimeNormal Regime = "normal"
	Regime115BAA Regime = "115BAA"
	Regime115BAB Regime = "115BAB"
)

func ParseRegime(s string) (Regime, error) {
	switch Regime(s) {
	case RegimeNormal, Regime115BAA, Regime115BAB:
		return Regime(s), nil
	default:
		return "", ErrInvalidRegime
	}
}

// RulePack is an immutable, versioned statutory rate table scoped to one
// financial year. Packs are never edited in place: a correction ships as a
// new version and the previous one is deactivated.
type RulePack struct {
	ID            snowflake.ID    `gorm:"primaryKey"`
	FinancialYear string          `gorm:"column:financial_year;type:text;not null;index;uniqueIndex:ux_rule_pack_version,priority:1"`
	Version       int             `gorm:"not null;uniqueIndex:ux_rule_pack_version,priority:2"`
	IsActive      bool            `gorm:"column:is_active;not null;default:true"`
	CessRate      decimal.Decimal `gorm:"column:cess_rate;type:numeric(6,4);not null"`
	MATRate       decimal.Decimal `gorm:"column:mat_rate;type:numeric(6,4);not null"`
	CreatedAt     time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (RulePack) TableName() string { return "rule_packs" }

// RegimeRate is the flat corporate rate for one regime inside a pack.
type RegimeRate struct {
	ID         snowflake.ID    `gorm:"primaryKey"`
	RulePackID snowflake.ID    `gorm:"column:rule_pack_id;not null;index"`
	Regime     Regime          `gorm:"type:text;not null"`
	TaxRate    decimal.Decimal `gorm:"column:tax_rate;type:numeric(6,4);not null"`
}

func (RegimeRate) TableName() string { return "rule_pack_rates" }

// SurchargeTier applies its rate when income exceeds IncomeAbove. The
// highest tier whose threshold is crossed wins.
type SurchargeTier struct {
	ID          snowflake.ID    `gorm:"primaryKey"`
	RulePackID  snowflake.ID    `gorm:"column:rule_pack_id;not null;index"`
	Regime      Regime          `gorm:"type:text;not null"`
	IncomeAbove decimal.Decimal `gorm:"column:income_above;type:numeric(18,2);not null"`
	Rate        decimal.Decimal `gorm:"type:numeric(6,4);not null"`
}

func (SurchargeTier) TableName() string { return "rule_pack_surcharge_tiers" }

// Pack is a fully loaded rule pack snapshot. It is handed to computations
// as an immutable value so a single pass stays deterministic.
type Pack struct {
	RulePack
	Rates []RegimeRate
	Tiers []SurchargeTier
}

// ResolvedRates is the resolver output for one (year, regime, income)
// lookup. EffectiveSurchargeRate already reflects marginal relief; callers
// apply it directly instead of the nominal slab rate.
type ResolvedRates struct {
	FinancialYear          string
	Regime                 Regime
	RulePackVersion        int
	TaxRate                decimal.Decimal
	NominalSurchargeRate   decimal.Decimal
	EffectiveSurchargeRate decimal.Decimal
	SurchargeThreshold     decimal.Decimal
	CessRate               decimal.Decimal
	MATRate                decimal.Decimal
}
