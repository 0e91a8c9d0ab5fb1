package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/taxsuite/internal/clock"
	"github.com/smallbiznis/taxsuite/internal/journal/domain"
	paymentdomain "github.com/smallbiznis/taxsuite/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service posts advance-tax vouchers into the journal. It satisfies the
// payment module's JournalPoster so a ledger swap stays behind one
// interface.
type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
}

func NewService(p ServiceParam) paymentdomain.JournalPoster {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("journal.service"),
		genID: p.GenID,
		clock: p.Clock,
	}
}

func (s *Service) CreateEntry(ctx context.Context, req paymentdomain.JournalEntryRequest) (snowflake.ID, error) {
	entry := domain.JournalEntry{
		ID:            s.genID.Generate(),
		CompanyID:     req.CompanyID,
		DebitAccount:  domain.AccountAdvanceTax,
		CreditAccount: domain.AccountBank,
		Amount:        req.Amount,
		EntryDate:     req.PaidOn,
		Narration:     req.Narration,
		SourceType:    domain.SourceAdvanceTaxPayment,
		SourceID:      req.AssessmentID,
		CreatedAt:     s.clock.Now(),
	}

	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return 0, err
	}

	s.log.Info("journal entry posted",
		zap.String("entry_id", entry.ID.String()),
		zap.String("company_id", entry.CompanyID.String()),
		zap.String("amount", entry.Amount.String()),
	)
	return entry.ID, nil
}
