package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	assessmentdomain "github.com/smallbiznis/taxsuite/internal/assessment/domain"
	"github.com/smallbiznis/taxsuite/internal/clock"
	"github.com/smallbiznis/taxsuite/internal/config"
	"github.com/smallbiznis/taxsuite/internal/fiscal"
	"github.com/smallbiznis/taxsuite/internal/revision/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	cfg    config.Config
	genID  *snowflake.Node
	clock  clock.Clock
	engine assessmentdomain.Engine
}

type ServiceParam struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Config config.Config
	GenID  *snowflake.Node
	Clock  clock.Clock
	Engine assessmentdomain.Engine
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("revision.service"),
		cfg:    p.Config,
		genID:  p.GenID,
		clock:  p.Clock,
		engine: p.Engine,
	}
}

func (s *Service) Revise(ctx context.Context, req domain.ReviseRequest) (*domain.Revision, error) {
	assessmentID, err := snowflake.ParseString(strings.TrimSpace(req.AssessmentID))
	if err != nil {
		return nil, assessmentdomain.ErrInvalidID
	}
	if strings.TrimSpace(req.Reason) == "" {
		return nil, domain.ErrReasonRequired
	}

	var revision *domain.Revision
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var a assessmentdomain.Assessment
		if err := tx.Where("id = ?", assessmentID).First(&a).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return assessmentdomain.ErrNotFound
			}
			return err
		}

		if a.RevisionCount != req.ExpectedRevision {
			return domain.ErrStaleRevision
		}
		if a.Status == assessmentdomain.StatusFinalized && !s.cfg.AllowRevisionAfterFinalize {
			return domain.ErrAssessmentLocked
		}

		previous := a.Computed()
		if err := applyChanges(&a, req); err != nil {
			return err
		}

		out, err := s.engine.Evaluate(ctx, &a)
		if err != nil {
			return err
		}
		s.engine.Apply(&a, out)
		revised := a.Computed()

		now := s.clock.Now()
		a.RevisionCount++
		a.UpdatedAt = now

		// Optimistic write: the revision count in the WHERE clause catches a
		// concurrent revision that landed between the read and this update.
		res := tx.Model(&assessmentdomain.Assessment{}).
			Where("id = ? AND revision_count = ?", a.ID, req.ExpectedRevision).
			Select("*").Omit("id", "created_at").
			Updates(&a)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrStaleRevision
		}
		if err := s.engine.RegenerateSchedule(ctx, tx, &a, out); err != nil {
			return err
		}

		incomeDelta, taxDelta, netDelta := domain.Variance(previous, revised)
		fy := fiscal.Year(a.FinancialYear)
		rev := domain.Revision{
			ID:                 s.genID.Generate(),
			AssessmentID:       a.ID,
			Number:             a.RevisionCount,
			Quarter:            fy.QuarterFor(now),
			Reason:             strings.TrimSpace(req.Reason),
			TaxableIncomeDelta: incomeDelta,
			TotalTaxDelta:      taxDelta,
			NetPayableDelta:    netDelta,
			CreatedAt:          now,
		}
		if err := rev.SetSnapshots(previous, revised); err != nil {
			return err
		}
		if err := tx.Create(&rev).Error; err != nil {
			return err
		}
		revision = &rev
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("assessment revised",
		zap.String("assessment_id", req.AssessmentID),
		zap.Int("revision", revision.Number),
		zap.String("net_payable_delta", revision.NetPayableDelta.String()),
	)
	return revision, nil
}

func (s *Service) List(ctx context.Context, assessmentID string) ([]domain.Revision, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(assessmentID))
	if err != nil {
		return nil, assessmentdomain.ErrInvalidID
	}

	var revisions []domain.Revision
	err = s.db.WithContext(ctx).
		Where("assessment_id = ?", parsed).
		Order("number ASC").
		Find(&revisions).Error
	return revisions, err
}

func (s *Service) Advise(ctx context.Context, assessmentID string, projectedIncome decimal.Decimal) (*domain.Advisory, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(assessmentID))
	if err != nil {
		return nil, assessmentdomain.ErrInvalidID
	}

	var a assessmentdomain.Assessment
	if err := s.db.WithContext(ctx).Where("id = ?", parsed).First(&a).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, assessmentdomain.ErrNotFound
		}
		return nil, err
	}

	threshold := decimal.NewFromFloat(s.cfg.RevisionAdvisoryThreshold)
	advisory := &domain.Advisory{
		Threshold:       threshold,
		CurrentIncome:   a.TaxableIncome,
		ProjectedIncome: projectedIncome,
	}

	// A zero basis makes any nonzero projection a recommendation.
	if a.TaxableIncome.IsZero() {
		advisory.Recommend = !projectedIncome.IsZero()
		if advisory.Recommend {
			advisory.DriftRatio = decimal.NewFromInt(1)
		}
		return advisory, nil
	}

	drift := projectedIncome.Sub(a.TaxableIncome).Div(a.TaxableIncome).Abs()
	advisory.DriftRatio = drift
	advisory.Recommend = drift.GreaterThan(threshold)
	return advisory, nil
}

func applyChanges(a *assessmentdomain.Assessment, req domain.ReviseRequest) error {
	if req.BookProfit != nil {
		a.BookProfit = *req.BookProfit
	}
	if req.YTDActual != nil {
		a.YTDActual = *req.YTDActual
	}
	if req.ProjectedRevenue != nil {
		a.ProjectedRevenue = *req.ProjectedRevenue
	}
	if req.ProjectedExpense != nil {
		a.ProjectedExpense = *req.ProjectedExpense
	}
	if req.Additions != nil {
		if err := a.SetAdditions(*req.Additions); err != nil {
			return err
		}
	}
	if req.Deductions != nil {
		if err := a.SetDeductions(*req.Deductions); err != nil {
			return err
		}
	}
	if req.TDSReceivable != nil {
		a.TDSReceivable = *req.TDSReceivable
	}
	if req.TCSCredit != nil {
		a.TCSCredit = *req.TCSCredit
	}
	return nil
}
