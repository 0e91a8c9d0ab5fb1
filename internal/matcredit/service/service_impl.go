package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/taxsuite/internal/fiscal"
	matdomain "github.com/smallbiznis/taxsuite/internal/matcredit/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

func NewService(p ServiceParam) matdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("matcredit.service"),
		genID: p.GenID,
	}
}

func (s *Service) AvailableBalance(ctx context.Context, companyID snowflake.ID, asOf fiscal.Year) (decimal.Decimal, error) {
	entries, err := s.listEntries(ctx, s.db, companyID)
	if err != nil {
		return decimal.Zero, err
	}

	fyStart := asOf.StartYear()
	balance := decimal.Zero
	for _, entry := range entries {
		if entry.Expired(fyStart) {
			continue
		}
		balance = balance.Add(entry.Balance)
	}
	return balance, nil
}

func (s *Service) UpsertCredit(ctx context.Context, tx *gorm.DB, entry matdomain.LedgerEntry) error {
	if tx == nil {
		tx = s.db
	}
	if entry.CompanyID == 0 {
		return matdomain.ErrInvalidCompany
	}
	if entry.CreditCreated.IsNegative() {
		return matdomain.ErrInvalidAmount
	}

	fy, err := fiscal.Parse(entry.FinancialYear)
	if err != nil {
		return err
	}

	var existing matdomain.LedgerEntry
	res := tx.WithContext(ctx).
		Where("company_id = ? AND financial_year = ?", entry.CompanyID, entry.FinancialYear).
		First(&existing)
	if res.Error != nil && res.Error != gorm.ErrRecordNotFound {
		return res.Error
	}

	now := time.Now().UTC()
	if res.Error == gorm.ErrRecordNotFound {
		entry.ID = s.genID.Generate()
		entry.CreditUtilized = decimal.Zero
		entry.Balance = entry.CreditCreated
		entry.ExpiryYearStart = fy.StartYear() + matdomain.CarryForwardYears
		entry.CreatedAt = now
		entry.UpdatedAt = now
		return tx.WithContext(ctx).Create(&entry).Error
	}

	// A revision of the source year may legitimately change the credit
	// before any of it is consumed. Once drawn against, the entry is fixed.
	if existing.CreditUtilized.IsPositive() {
		return matdomain.ErrEntryExists
	}

	return tx.WithContext(ctx).Model(&matdomain.LedgerEntry{}).
		Where("id = ?", existing.ID).
		Updates(map[string]any{
			"book_profit":    entry.BookProfit,
			"mat_amount":     entry.MATAmount,
			"normal_tax":     entry.NormalTax,
			"credit_created": entry.CreditCreated,
			"balance":        entry.CreditCreated,
			"updated_at":     now,
		}).Error
}

func (s *Service) Utilize(ctx context.Context, tx *gorm.DB, companyID snowflake.ID, asOf fiscal.Year, amount decimal.Decimal) ([]matdomain.Utilization, error) {
	if tx == nil {
		tx = s.db
	}
	if amount.IsNegative() {
		return nil, matdomain.ErrInvalidAmount
	}
	if amount.IsZero() {
		return nil, nil
	}

	entries, err := s.listEntries(ctx, tx, companyID)
	if err != nil {
		return nil, err
	}

	draws := matdomain.PlanDraws(entries, amount, asOf)
	drawn := decimal.Zero
	for _, draw := range draws {
		drawn = drawn.Add(draw.Amount)
	}
	if drawn.LessThan(amount) {
		return nil, matdomain.ErrInsufficientDraws
	}

	now := time.Now().UTC()
	utilizations := make([]matdomain.Utilization, 0, len(draws))
	for _, draw := range draws {
		newUtilized := draw.Entry.CreditUtilized.Add(draw.Amount)
		newBalance := draw.Entry.CreditCreated.Sub(newUtilized)
		if newBalance.IsNegative() {
			return nil, matdomain.ErrOverdraw
		}

		if err := tx.WithContext(ctx).Model(&matdomain.LedgerEntry{}).
			Where("id = ?", draw.Entry.ID).
			Updates(map[string]any{
				"credit_utilized": newUtilized,
				"balance":         newBalance,
				"updated_at":      now,
			}).Error; err != nil {
			return nil, err
		}

		utilization := matdomain.Utilization{
			ID:             s.genID.Generate(),
			EntryID:        draw.Entry.ID,
			CompanyID:      companyID,
			AssessmentYear: string(asOf),
			Amount:         draw.Amount,
			BalanceAfter:   newBalance,
			CreatedAt:      now,
		}
		if err := tx.WithContext(ctx).Create(&utilization).Error; err != nil {
			return nil, err
		}
		utilizations = append(utilizations, utilization)
	}

	s.log.Info("mat credit utilized",
		zap.String("company_id", companyID.String()),
		zap.String("assessment_year", string(asOf)),
		zap.String("amount", amount.String()),
	)
	return utilizations, nil
}

func (s *Service) Summary(ctx context.Context, companyID snowflake.ID, asOf fiscal.Year) (*matdomain.Summary, error) {
	entries, err := s.listEntries(ctx, s.db, companyID)
	if err != nil {
		return nil, err
	}

	fyStart := asOf.StartYear()
	available := decimal.Zero
	expiring := decimal.Zero
	for _, entry := range entries {
		if entry.Expired(fyStart) {
			continue
		}
		available = available.Add(entry.Balance)
		if entry.ExpiryYearStart <= fyStart+2 {
			expiring = expiring.Add(entry.Balance)
		}
	}

	return &matdomain.Summary{
		CompanyID:        companyID.String(),
		AvailableBalance: available,
		ExpiringBalance:  expiring,
		Entries:          entries,
	}, nil
}

// listEntries returns entries oldest first so FIFO draws fall out of order.
func (s *Service) listEntries(ctx context.Context, tx *gorm.DB, companyID snowflake.ID) ([]matdomain.LedgerEntry, error) {
	var entries []matdomain.LedgerEntry
	err := tx.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("financial_year ASC").
		Find(&entries).Error
	return entries, err
}
