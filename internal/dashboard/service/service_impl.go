package service

import (
	"context"
	"sort"
	"sync"

	assessmentdomain "github.com/smallbiznis/taxsuite/internal/assessment/domain"
	"github.com/smallbiznis/taxsuite/internal/clock"
	"github.com/smallbiznis/taxsuite/internal/dashboard/domain"
	"github.com/smallbiznis/taxsuite/internal/fiscal"
	"github.com/smallbiznis/taxsuite/internal/interest"
	"github.com/smallbiznis/taxsuite/internal/money"
	paymentdomain "github.com/smallbiznis/taxsuite/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// maxWorkers bounds per-company fan-out. Each assessment is summarized by
// exactly one worker, so no assessment is read twice concurrently.
const maxWorkers = 8

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("dashboard.service"),
		clock: p.Clock,
	}
}

// Compliance aggregates every assessment of a financial year into one
// report, fanning the per-assessment work over a bounded worker pool.
func (s *Service) Compliance(ctx context.Context, fyRaw string) (*domain.Report, error) {
	fy, err := fiscal.Parse(fyRaw)
	if err != nil {
		return nil, err
	}

	var assessments []assessmentdomain.Assessment
	if err := s.db.WithContext(ctx).
		Where("financial_year = ?", string(fy)).
		Find(&assessments).Error; err != nil {
		return nil, err
	}

	summaries := make([]domain.CompanySummary, len(assessments))
	errs := make([]error, len(assessments))

	jobs := make(chan int)
	var wg sync.WaitGroup
	workers := maxWorkers
	if len(assessments) < workers {
		workers = len(assessments)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				summaries[i], errs[i] = s.summarize(ctx, fy, &assessments[i])
			}
		}()
	}
	for i := range assessments {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Outstanding.GreaterThan(summaries[j].Outstanding)
	})

	report := &domain.Report{
		FinancialYear: string(fy),
		GeneratedAt:   s.clock.Now(),
		Companies:     summaries,
	}
	for _, c := range summaries {
		report.TotalAssessed = report.TotalAssessed.Add(c.AssessedTax)
		report.TotalPaid = report.TotalPaid.Add(c.TotalPaid)
		report.TotalOutstanding = report.TotalOutstanding.Add(c.Outstanding)
		report.TotalInterest = report.TotalInterest.Add(c.Interest234B).Add(c.Interest234C)
		if c.Outstanding.IsPositive() {
			report.CompaniesInShortfall++
		}
	}
	return report, nil
}

func (s *Service) summarize(ctx context.Context, fy fiscal.Year, a *assessmentdomain.Assessment) (domain.CompanySummary, error) {
	var rows []assessmentdomain.ScheduleRow
	if err := s.db.WithContext(ctx).
		Where("assessment_id = ?", a.ID).
		Order("quarter ASC").
		Find(&rows).Error; err != nil {
		return domain.CompanySummary{}, err
	}

	var payments []paymentdomain.Payment
	if err := s.db.WithContext(ctx).
		Where("assessment_id = ?", a.ID).
		Find(&payments).Error; err != nil {
		return domain.CompanySummary{}, err
	}

	now := s.clock.Now()
	totalPaid := a.AdvanceTaxPaid.Add(paymentdomain.TotalPaid(payments))

	summary := domain.CompanySummary{
		CompanyID:       a.CompanyID.String(),
		AssessmentID:    a.ID.String(),
		Status:          string(a.Status),
		Regime:          string(a.Regime),
		IsMATApplicable: a.IsMATApplicable,
		AssessedTax:     a.TaxPayableAfterMAT,
		NetTaxPayable:   a.NetTaxPayable,
		TotalPaid:       totalPaid,
		RevisionCount:   a.RevisionCount,
	}

	for _, row := range rows {
		summary.Interest234C = summary.Interest234C.Add(row.Interest234C)
		if !row.DueDate.After(now) {
			summary.Outstanding = money.ClampNonNegative(row.CumulativeTaxDue.Sub(row.CumulativeTaxPaid))
			summary.QuartersDue++
			if row.PaymentStatus == assessmentdomain.PaymentStatusPaid ||
				row.PaymentStatus == assessmentdomain.PaymentStatusOverpaid {
				summary.QuartersPaid++
			}
		} else if summary.NextDueDate.IsZero() {
			summary.NextDueDate = row.DueDate
			summary.NextDueAmount = money.ClampNonNegative(row.CumulativeTaxDue.Sub(row.CumulativeTaxPaid))
		}
	}

	assessedFor234B := money.ClampNonNegative(
		a.TaxPayableAfterMAT.Sub(a.TDSReceivable).Sub(a.TCSCredit),
	)
	res := interest.Shortfall234B(assessedFor234B, totalPaid, fy, now)
	summary.Interest234B = res.Interest
	if summary.Outstanding.IsZero() && summary.Interest234C.IsZero() {
		summary.Compliant = true
	}
	return summary, nil
}
