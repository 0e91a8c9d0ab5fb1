package service

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/taxsuite/internal/fiscal"
	rulepackdomain "github.com/smallbiznis/taxsuite/internal/rulepack/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Service struct {
	log  *zap.Logger
	repo rulepackdomain.Repository
}

type ServiceParam struct {
	fx.In

	Log        *zap.Logger
	Repository rulepackdomain.Repository
}

func NewService(p ServiceParam) rulepackdomain.Service {
	return &Service{
		log:  p.Log.Named("rulepack.service"),
		repo: p.Repository,
	}
}

func (s *Service) Resolve(ctx context.Context, fy fiscal.Year, regime rulepackdomain.Regime, taxableIncome decimal.Decimal, version *int) (*rulepackdomain.ResolvedRates, error) {
	pack, taxRate, err := s.loadPackRate(ctx, fy, regime, version)
	if err != nil {
		return nil, err
	}

	baseTax := taxableIncome.Mul(taxRate)
	resolved := &rulepackdomain.ResolvedRates{
		FinancialYear:   string(fy),
		Regime:          regime,
		RulePackVersion: pack.Version,
		TaxRate:         taxRate,
		CessRate:        pack.CessRate,
		MATRate:         pack.MATRate,
	}
	applySurcharge(resolved, pack, regime, taxableIncome, baseTax)
	return resolved, nil
}

func (s *Service) ResolveMAT(ctx context.Context, fy fiscal.Year, regime rulepackdomain.Regime, bookProfit decimal.Decimal, version *int) (*rulepackdomain.ResolvedRates, error) {
	pack, taxRate, err := s.loadPackRate(ctx, fy, regime, version)
	if err != nil {
		return nil, err
	}

	matBase := bookProfit.Mul(pack.MATRate)
	resolved := &rulepackdomain.ResolvedRates{
		FinancialYear:   string(fy),
		Regime:          regime,
		RulePackVersion: pack.Version,
		TaxRate:         taxRate,
		CessRate:        pack.CessRate,
		MATRate:         pack.MATRate,
	}
	applySurcharge(resolved, pack, regime, bookProfit, matBase)
	return resolved, nil
}

func (s *Service) List(ctx context.Context, fy fiscal.Year) ([]rulepackdomain.RulePack, error) {
	return s.repo.ListPacks(ctx, fy)
}

func (s *Service) loadPackRate(ctx context.Context, fy fiscal.Year, regime rulepackdomain.Regime, version *int) (*rulepackdomain.Pack, decimal.Decimal, error) {
	if _, err := rulepackdomain.ParseRegime(string(regime)); err != nil {
		return nil, decimal.Zero, err
	}
	if version != nil && *version <= 0 {
		return nil, decimal.Zero, rulepackdomain.ErrInvalidVersion
	}

	pack, err := s.repo.FindPack(ctx, fy, version)
	if err != nil {
		return nil, decimal.Zero, err
	}
	if pack == nil {
		s.log.Warn("no active rule pack", zap.String("financial_year", string(fy)))
		return nil, decimal.Zero, rulepackdomain.ErrNotFound
	}

	for _, rate := range pack.Rates {
		if rate.Regime == regime {
			return pack, rate.TaxRate, nil
		}
	}
	return nil, decimal.Zero, rulepackdomain.ErrMissingRate
}

// applySurcharge picks the highest crossed tier and caps the surcharge with
// marginal relief: the surcharge may never exceed the income above the
// threshold that triggered it.
func applySurcharge(resolved *rulepackdomain.ResolvedRates, pack *rulepackdomain.Pack, regime rulepackdomain.Regime, income, surchargeBase decimal.Decimal) {
	tier := pickTier(pack.Tiers, regime, income)
	if tier == nil {
		return
	}

	resolved.NominalSurchargeRate = tier.Rate
	resolved.SurchargeThreshold = tier.IncomeAbove

	nominal := surchargeBase.Mul(tier.Rate)
	excess := income.Sub(tier.IncomeAbove)
	surcharge := nominal
	if excess.LessThan(surcharge) {
		surcharge = excess
	}
	if surcharge.IsNegative() {
		surcharge = decimal.Zero
	}

	if surchargeBase.IsPositive() {
		resolved.EffectiveSurchargeRate = surcharge.Div(surchargeBase)
	}
}

func pickTier(tiers []rulepackdomain.SurchargeTier, regime rulepackdomain.Regime, income decimal.Decimal) *rulepackdomain.SurchargeTier {
	var picked *rulepackdomain.SurchargeTier
	for i := range tiers {
		tier := &tiers[i]
		if tier.Regime != regime {
			continue
		}
		if income.GreaterThan(tier.IncomeAbove) {
			if picked == nil || tier.IncomeAbove.GreaterThan(picked.IncomeAbove) {
				picked = tier
			}
		}
	}
	return picked
}
