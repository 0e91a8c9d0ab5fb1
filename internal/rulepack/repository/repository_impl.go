package repository

import (
	"context"
	"errors"

	"github.com/smallbiznis/taxsuite/internal/fiscal"
	rulepackdomain "github.com/smallbiznis/taxsuite/internal/rulepack/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

type Param struct {
	fx.In

	DB *gorm.DB
}

func NewRepository(p Param) rulepackdomain.Repository {
	return &repository{db: p.DB}
}

func (r *repository) FindPack(ctx context.Context, fy fiscal.Year, version *int) (*rulepackdomain.Pack, error) {
	stmt := r.db.WithContext(ctx).Where("financial_year = ?", string(fy))
	if version != nil {
		stmt = stmt.Where("version = ?", *version)
	} else {
		stmt = stmt.Where("is_active = ?", true).Order("version DESC")
	}

	var pack rulepackdomain.RulePack
	if err := stmt.First(&pack).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var rates []rulepackdomain.RegimeRate
	if err := r.db.WithContext(ctx).
		Where("rule_pack_id = ?", pack.ID).
		Find(&rates).Error; err != nil {
		return nil, err
	}

	var tiers []rulepackdomain.SurchargeTier
	if err := r.db.WithContext(ctx).
		Where("rule_pack_id = ?", pack.ID).
		Order("income_above ASC").
		Find(&tiers).Error; err != nil {
		return nil, err
	}

	return &rulepackdomain.Pack{RulePack: pack, Rates: rates, Tiers: tiers}, nil
}

func (r *repository) ListPacks(ctx context.Context, fy fiscal.Year) ([]rulepackdomain.RulePack, error) {
	var packs []rulepackdomain.RulePack
	err := r.db.WithContext(ctx).
		Where("financial_year = ?", string(fy)).
		Order("version DESC").
		Find(&packs).Error
	return packs, err
}
