package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	assessmentdomain "github.com/smallbiznis/taxsuite/internal/assessment/domain"
	"github.com/smallbiznis/taxsuite/internal/clock"
	"github.com/smallbiznis/taxsuite/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node
	clock  clock.Clock
	poster domain.JournalPoster
}

type ServiceParam struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Poster domain.JournalPoster
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("payment.service"),
		genID:  p.GenID,
		clock:  p.Clock,
		poster: p.Poster,
	}
}

func (s *Service) Record(ctx context.Context, req domain.RecordRequest) (*domain.RecordResponse, error) {
	assessmentID, err := snowflake.ParseString(strings.TrimSpace(req.AssessmentID))
	if err != nil {
		return nil, assessmentdomain.ErrInvalidID
	}
	if !req.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	if req.PaidOn.IsZero() {
		return nil, domain.ErrInvalidDate
	}
	if req.Quarter != nil && (*req.Quarter < 1 || *req.Quarter > 4) {
		return nil, domain.ErrInvalidQuarter
	}

	var a assessmentdomain.Assessment
	if err := s.db.WithContext(ctx).Where("id = ?", assessmentID).First(&a).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, assessmentdomain.ErrNotFound
		}
		return nil, err
	}

	payment := domain.Payment{
		ID:           s.genID.Generate(),
		AssessmentID: assessmentID,
		Quarter:      req.Quarter,
		Amount:       req.Amount,
		PaidOn:       req.PaidOn,
		Narration:    req.Narration,
		CreatedAt:    s.clock.Now(),
	}

	var warning string
	if req.CreateJournalEntry {
		// Posting is best-effort. A ledger outage must not lose the payment,
		// so a failed post records the payment unposted with a warning.
		entryID, postErr := s.poster.CreateEntry(ctx, domain.JournalEntryRequest{
			CompanyID:    a.CompanyID,
			AssessmentID: assessmentID,
			Amount:       req.Amount,
			PaidOn:       req.PaidOn,
			Narration:    req.Narration,
		})
		if postErr != nil {
			warning = "payment recorded but journal entry creation failed; post it manually"
			s.log.Warn("journal entry creation failed",
				zap.String("assessment_id", assessmentID.String()),
				zap.Error(postErr),
			)
		} else {
			payment.JournalEntryID = &entryID
			payment.IsPosted = true
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}
		return s.Reallocate(ctx, tx, assessmentID)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("payment recorded",
		zap.String("payment_id", payment.ID.String()),
		zap.String("assessment_id", assessmentID.String()),
		zap.String("amount", payment.Amount.String()),
	)
	return &domain.RecordResponse{Payment: payment, Warning: warning}, nil
}

func (s *Service) List(ctx context.Context, assessmentID string) ([]domain.Payment, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(assessmentID))
	if err != nil {
		return nil, assessmentdomain.ErrInvalidID
	}

	var payments []domain.Payment
	err = s.db.WithContext(ctx).
		Where("assessment_id = ?", parsed).
		Order("paid_on ASC, created_at ASC").
		Find(&payments).Error
	return payments, err
}

func (s *Service) Reallocate(ctx context.Context, tx *gorm.DB, assessmentID snowflake.ID) error {
	var rows []assessmentdomain.ScheduleRow
	if err := tx.WithContext(ctx).
		Where("assessment_id = ?", assessmentID).
		Order("quarter ASC").
		Find(&rows).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	var payments []domain.Payment
	if err := tx.WithContext(ctx).
		Where("assessment_id = ?", assessmentID).
		Find(&payments).Error; err != nil {
		return err
	}

	now := s.clock.Now()
	for _, row := range domain.Allocate(rows, payments, now) {
		row.UpdatedAt = now
		if err := tx.WithContext(ctx).Save(&row).Error; err != nil {
			return err
		}
	}
	return nil
}
