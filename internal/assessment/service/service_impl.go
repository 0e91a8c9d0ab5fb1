package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/taxsuite/internal/assessment/compute"
	assessmentdomain "github.com/smallbiznis/taxsuite/internal/assessment/domain"
	"github.com/smallbiznis/taxsuite/internal/clock"
	"github.com/smallbiznis/taxsuite/internal/config"
	"github.com/smallbiznis/taxsuite/internal/fiscal"
	"github.com/smallbiznis/taxsuite/internal/interest"
	matdomain "github.com/smallbiznis/taxsuite/internal/matcredit/domain"
	"github.com/smallbiznis/taxsuite/internal/money"
	paymentdomain "github.com/smallbiznis/taxsuite/internal/payment/domain"
	"github.com/smallbiznis/taxsuite/internal/reconciliation"
	rulepackdomain "github.com/smallbiznis/taxsuite/internal/rulepack/domain"
	"github.com/smallbiznis/taxsuite/pkg/db"
	"github.com/smallbiznis/taxsuite/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	cfg   config.Config
	genID *snowflake.Node
	clock clock.Clock

	rateSvc rulepackdomain.Service
	matSvc  matdomain.Service
}

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Config  config.Config
	GenID   *snowflake.Node
	Clock   clock.Clock
	RateSvc rulepackdomain.Service
	MATSvc  matdomain.Service
}

func NewService(p ServiceParam) (assessmentdomain.Service, assessmentdomain.Engine) {
	s := &Service{
		db:      p.DB,
		log:     p.Log.Named("assessment.service"),
		cfg:     p.Config,
		genID:   p.GenID,
		clock:   p.Clock,
		rateSvc: p.RateSvc,
		matSvc:  p.MATSvc,
	}
	return s, s
}

func (s *Service) Create(ctx context.Context, req assessmentdomain.CreateRequest) (*assessmentdomain.Assessment, error) {
	a, err := s.buildFromRequest(req)
	if err != nil {
		return nil, err
	}

	out, err := s.Evaluate(ctx, a)
	if err != nil {
		return nil, err
	}
	s.Apply(a, out)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(a).Error; err != nil {
			if db.IsDuplicateKeyErr(err) {
				return assessmentdomain.ErrAlreadyExists
			}
			return err
		}
		if err := s.RegenerateSchedule(ctx, tx, a, out); err != nil {
			return err
		}

		// A schedule now exists, so the assessment is active.
		a.Status = assessmentdomain.StatusActive
		a.UpdatedAt = s.clock.Now()
		return tx.Model(a).Updates(map[string]any{
			"status":     a.Status,
			"updated_at": a.UpdatedAt,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("assessment created",
		zap.String("assessment_id", a.ID.String()),
		zap.String("company_id", a.CompanyID.String()),
		zap.String("financial_year", a.FinancialYear),
	)
	return a, nil
}

func (s *Service) Update(ctx context.Context, req assessmentdomain.UpdateRequest) (*assessmentdomain.Assessment, error) {
	a, err := s.load(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if a.Status == assessmentdomain.StatusFinalized {
		return nil, assessmentdomain.ErrFinalized
	}

	if err := applyUpdate(a, req); err != nil {
		return nil, err
	}

	out, err := s.Evaluate(ctx, a)
	if err != nil {
		return nil, err
	}
	s.Apply(a, out)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a.UpdatedAt = s.clock.Now()
		if err := tx.Save(a).Error; err != nil {
			return err
		}
		return s.RegenerateSchedule(ctx, tx, a, out)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Finalize(ctx context.Context, id string) (*assessmentdomain.Assessment, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status == assessmentdomain.StatusFinalized {
		return nil, assessmentdomain.ErrFinalized
	}
	if a.Status != assessmentdomain.StatusActive {
		return nil, assessmentdomain.ErrNotActive
	}

	fy := fiscal.Year(a.FinancialYear)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Settle the MAT credit ledger at filing time, not per revision,
		// so intermediate recomputations never double-book credit.
		if a.IsMATApplicable && a.MATCreditCreated.IsPositive() {
			entry := matdomain.LedgerEntry{
				CompanyID:     a.CompanyID,
				FinancialYear: a.FinancialYear,
				BookProfit:    a.BookProfit,
				MATAmount:     a.MATPayable,
				NormalTax:     a.TotalTaxLiability,
				CreditCreated: a.MATCreditCreated,
			}
			if err := s.matSvc.UpsertCredit(ctx, tx, entry); err != nil {
				return err
			}
		}
		if a.MATCreditUtilized.IsPositive() {
			if _, err := s.matSvc.Utilize(ctx, tx, a.CompanyID, fy, a.MATCreditUtilized); err != nil {
				return err
			}
		}

		a.Status = assessmentdomain.StatusFinalized
		a.UpdatedAt = s.clock.Now()
		return tx.Model(a).Updates(map[string]any{
			"status":     a.Status,
			"updated_at": a.UpdatedAt,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("assessment finalized", zap.String("assessment_id", a.ID.String()))
	return a, nil
}

func (s *Service) Preview(ctx context.Context, req assessmentdomain.CreateRequest) (*compute.Outcome, error) {
	a, err := s.buildFromRequest(req)
	if err != nil {
		return nil, err
	}
	return s.Evaluate(ctx, a)
}

func (s *Service) Get(ctx context.Context, id string) (*assessmentdomain.Assessment, error) {
	return s.load(ctx, id)
}

func (s *Service) List(ctx context.Context, req assessmentdomain.ListRequest) (*assessmentdomain.ListResponse, error) {
	stmt := s.db.WithContext(ctx).Model(&assessmentdomain.Assessment{})
	if req.CompanyID != "" {
		companyID, err := snowflake.ParseString(req.CompanyID)
		if err != nil {
			return nil, assessmentdomain.ErrInvalidCompany
		}
		stmt = stmt.Where("company_id = ?", companyID)
	}
	if req.FinancialYear != "" {
		stmt = stmt.Where("financial_year = ?", req.FinancialYear)
	}
	if req.Status != "" {
		stmt = stmt.Where("status = ?", req.Status)
	}

	limit := req.Pagination.PageSize
	if limit <= 0 {
		limit = 10
	}

	// Snowflake IDs are time-ordered, so the ID doubles as the cursor.
	if req.Pagination.PageToken != "" {
		cursor, err := pagination.DecodeCursor(req.Pagination.PageToken)
		if err != nil {
			return nil, assessmentdomain.ErrInvalidPageToken
		}
		lastID, err := snowflake.ParseString(cursor.ID)
		if err != nil {
			return nil, assessmentdomain.ErrInvalidPageToken
		}
		stmt = stmt.Where("id < ?", lastID)
	}

	var assessments []assessmentdomain.Assessment
	if err := stmt.Order("id DESC").Limit(limit + 1).Find(&assessments).Error; err != nil {
		return nil, err
	}

	assessments, pageInfo := pagination.BuildCursorPageInfo(assessments, limit, func(a assessmentdomain.Assessment) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{ID: a.ID.String()})
		if err != nil {
			s.log.Warn("failed to encode page cursor", zap.Error(err))
			return ""
		}
		return token
	})

	return &assessmentdomain.ListResponse{Assessments: assessments, PageInfo: pageInfo}, nil
}

func (s *Service) Tracker(ctx context.Context, id string) (*assessmentdomain.Tracker, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	var rows []assessmentdomain.ScheduleRow
	if err := s.db.WithContext(ctx).
		Where("assessment_id = ?", a.ID).
		Order("quarter ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	var payments []paymentdomain.Payment
	if err := s.db.WithContext(ctx).
		Where("assessment_id = ?", a.ID).
		Find(&payments).Error; err != nil {
		return nil, err
	}

	fy := fiscal.Year(a.FinancialYear)
	advancePaid := a.AdvanceTaxPaid.Add(paymentdomain.TotalPaid(payments))
	assessedFor234B := money.ClampNonNegative(
		a.TaxPayableAfterMAT.Sub(a.TDSReceivable).Sub(a.TCSCredit),
	)

	total234C := decimal.Zero
	for _, row := range rows {
		total234C = total234C.Add(row.Interest234C)
	}

	return &assessmentdomain.Tracker{
		Assessment:        a,
		Schedule:          rows,
		Interest234B:      interest.Shortfall234B(assessedFor234B, advancePaid, fy, s.clock.Now()),
		TotalInterest234C: total234C,
	}, nil
}

// Evaluate runs reconciliation, rate resolution, and the computation core
// over injected snapshots. Read-only and deterministic for fixed inputs
// and rule-pack version.
func (s *Service) Evaluate(ctx context.Context, a *assessmentdomain.Assessment) (*compute.Outcome, error) {
	fy, err := fiscal.Parse(a.FinancialYear)
	if err != nil {
		return nil, err
	}

	reconInput, err := a.ReconInput()
	if err != nil {
		return nil, err
	}
	if err := reconciliation.Validate(reconInput); err != nil {
		return nil, err
	}
	recon := reconciliation.Build(reconInput)

	var version *int
	if a.RulePackVersion > 0 {
		v := a.RulePackVersion
		version = &v
	}

	rates, err := s.rateSvc.Resolve(ctx, fy, a.Regime, recon.TaxableIncome, version)
	if err != nil {
		return nil, err
	}
	matRates, err := s.rateSvc.ResolveMAT(ctx, fy, a.Regime, recon.BookProfit, version)
	if err != nil {
		return nil, err
	}

	available, err := s.matSvc.AvailableBalance(ctx, a.CompanyID, fy)
	if err != nil {
		return nil, err
	}

	out := compute.Run(compute.Inputs{
		Recon:              recon,
		Rates:              *rates,
		MATRates:           *matRates,
		AvailableMATCredit: available,
		TDSReceivable:      a.TDSReceivable,
		TCSCredit:          a.TCSCredit,
		AdvanceTaxPaid:     a.AdvanceTaxPaid,
	})
	return &out, nil
}

// Apply writes a computation outcome onto the aggregate. Derived columns
// only ever come from here.
func (s *Service) Apply(a *assessmentdomain.Assessment, out *compute.Outcome) {
	a.RulePackVersion = out.RulePackVersion
	a.RawTaxableIncome = out.RawTaxableIncome
	a.TaxableIncome = out.TaxableIncome
	a.BaseTax = out.BaseTax
	a.Surcharge = out.Surcharge
	a.Cess = out.Cess
	a.TotalTaxLiability = out.TotalTaxLiability
	a.MATPayable = out.MAT.MATPayable
	a.IsMATApplicable = out.MAT.IsApplicable
	a.MATApplicabilityReason = out.MAT.Reason
	a.MATCreditCreated = out.MAT.CreditCreated
	a.MATCreditUtilized = out.MAT.CreditToUtilize
	a.TaxPayableAfterMAT = out.MAT.TaxPayableAfterMAT
	a.NetTaxPayable = out.NetTaxPayable
}

// RegenerateSchedule discards the four rows and rebuilds them, re-attaching
// recorded payments by date (Replace-Not-Append).
func (s *Service) RegenerateSchedule(ctx context.Context, tx *gorm.DB, a *assessmentdomain.Assessment, out *compute.Outcome) error {
	if err := tx.WithContext(ctx).
		Where("assessment_id = ?", a.ID).
		Delete(&assessmentdomain.ScheduleRow{}).Error; err != nil {
		return err
	}

	fy := fiscal.Year(a.FinancialYear)
	dues := compute.BuildSchedule(fy, out.AssessedTax, out.CreditsUpfront, compute.NettingPolicy(s.cfg.CreditNettingPolicy))

	now := s.clock.Now()
	rows := make([]assessmentdomain.ScheduleRow, 0, len(dues))
	for _, due := range dues {
		rows = append(rows, assessmentdomain.ScheduleRow{
			ID:                    s.genID.Generate(),
			AssessmentID:          a.ID,
			Quarter:               due.Quarter,
			DueDate:               due.DueDate,
			CumulativePercent:     due.CumulativePercent,
			CumulativeTaxDue:      due.CumulativeTaxDue,
			TaxPayableThisQuarter: due.TaxPayableThisQuarter,
			CumulativeTaxPaid:     decimal.Zero,
			ShortfallAmount:       due.CumulativeTaxDue,
			Interest234C:          decimal.Zero,
			PaymentStatus:         assessmentdomain.PaymentStatusPending,
			CreatedAt:             now,
			UpdatedAt:             now,
		})
	}

	var payments []paymentdomain.Payment
	if err := tx.WithContext(ctx).
		Where("assessment_id = ?", a.ID).
		Find(&payments).Error; err != nil {
		return err
	}
	rows = paymentdomain.Allocate(rows, payments, now)

	return tx.WithContext(ctx).Create(&rows).Error
}

func (s *Service) load(ctx context.Context, id string) (*assessmentdomain.Assessment, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
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
	return &a, nil
}

func (s *Service) buildFromRequest(req assessmentdomain.CreateRequest) (*assessmentdomain.Assessment, error) {
	companyID, err := snowflake.ParseString(strings.TrimSpace(req.CompanyID))
	if err != nil {
		return nil, assessmentdomain.ErrInvalidCompany
	}
	fy, err := fiscal.Parse(strings.TrimSpace(req.FinancialYear))
	if err != nil {
		return nil, err
	}
	regime, err := rulepackdomain.ParseRegime(strings.TrimSpace(req.Regime))
	if err != nil {
		return nil, err
	}
	if req.TDSReceivable.IsNegative() || req.TCSCredit.IsNegative() || req.AdvanceTaxPaid.IsNegative() {
		return nil, assessmentdomain.ErrNegativeCredit
	}

	now := s.clock.Now()
	a := &assessmentdomain.Assessment{
		ID:               s.genID.Generate(),
		CompanyID:        companyID,
		FinancialYear:    string(fy),
		Regime:           regime,
		Status:           assessmentdomain.StatusDraft,
		BookProfit:       req.BookProfit,
		YTDActual:        req.YTDActual,
		ProjectedRevenue: req.ProjectedRevenue,
		ProjectedExpense: req.ProjectedExpense,
		TDSReceivable:    req.TDSReceivable,
		TCSCredit:        req.TCSCredit,
		AdvanceTaxPaid:   req.AdvanceTaxPaid,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if req.RulePackVersion != nil {
		a.RulePackVersion = *req.RulePackVersion
	}
	if err := a.SetAdditions(req.Additions); err != nil {
		return nil, err
	}
	if err := a.SetDeductions(req.Deductions); err != nil {
		return nil, err
	}
	return a, nil
}

func applyUpdate(a *assessmentdomain.Assessment, req assessmentdomain.UpdateRequest) error {
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
		if req.TDSReceivable.IsNegative() {
			return assessmentdomain.ErrNegativeCredit
		}
		a.TDSReceivable = *req.TDSReceivable
	}
	if req.TCSCredit != nil {
		if req.TCSCredit.IsNegative() {
			return assessmentdomain.ErrNegativeCredit
		}
		a.TCSCredit = *req.TCSCredit
	}
	return nil
}
