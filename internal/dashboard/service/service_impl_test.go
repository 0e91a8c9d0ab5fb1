package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	assessmentdomain "github.com/smallbiznis/taxsuite/internal/assessment/domain"
	"github.com/smallbiznis/taxsuite/internal/clock"
	"github.com/smallbiznis/taxsuite/internal/dashboard/domain"
	"github.com/smallbiznis/taxsuite/internal/fiscal"
	paymentdomain "github.com/smallbiznis/taxsuite/internal/payment/domain"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func setupService(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node, *clock.FakeClock) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=auto", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&assessmentdomain.Assessment{},
		&assessmentdomain.ScheduleRow{},
		&paymentdomain.Payment{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	fake := clock.NewFakeClock(time.Date(2024, time.October, 1, 0, 0, 0, 0, time.UTC))

	svc := NewService(ServiceParam{DB: db, Log: zap.NewNop(), Clock: fake})
	return svc, db, node, fake
}

// seedCompany writes one active assessment with the standard split and the
// given cumulative payment allocated by quarter.
func seedCompany(t *testing.T, db *gorm.DB, node *snowflake.Node, assessed int64, paidByQuarter [4]int64) snowflake.ID {
	t.Helper()

	a := assessmentdomain.Assessment{
		ID:                 node.Generate(),
		CompanyID:          node.Generate(),
		FinancialYear:      "2024-25",
		Regime:             "115BAA",
		Status:             assessmentdomain.StatusActive,
		TaxPayableAfterMAT: d(assessed),
	}
	if err := db.Create(&a).Error; err != nil {
		t.Fatalf("seed assessment: %v", err)
	}

	percents := []int64{15, 45, 75, 100}
	dues := []time.Time{
		time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.September, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.December, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC),
	}
	prevDue := int64(0)
	cumPaid := int64(0)
	for q := 0; q < 4; q++ {
		due := assessed * percents[q] / 100
		cumPaid += paidByQuarter[q]
		status := assessmentdomain.PaymentStatusPending
		switch {
		case paidByQuarter[q] >= due-prevDue && due > prevDue:
			status = assessmentdomain.PaymentStatusPaid
		case paidByQuarter[q] > 0:
			status = assessmentdomain.PaymentStatusPartial
		}
		row := assessmentdomain.ScheduleRow{
			ID:                    node.Generate(),
			AssessmentID:          a.ID,
			Quarter:               q + 1,
			DueDate:               dues[q],
			CumulativeTaxDue:      d(due),
			TaxPayableThisQuarter: d(due - prevDue),
			CumulativeTaxPaid:     d(cumPaid),
			ShortfallAmount:       d(max64(due-cumPaid, 0)),
			PaymentStatus:         status,
		}
		if err := db.Create(&row).Error; err != nil {
			t.Fatalf("seed row: %v", err)
		}
		prevDue = due
	}

	if cumPaid > 0 {
		payment := paymentdomain.Payment{
			ID:           node.Generate(),
			AssessmentID: a.ID,
			Amount:       d(cumPaid),
			PaidOn:       time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC),
		}
		if err := db.Create(&payment).Error; err != nil {
			t.Fatalf("seed payment: %v", err)
		}
	}
	return a.CompanyID
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func TestCompliance_AggregatesAndSorts(t *testing.T) {
	svc, db, node, _ := setupService(t)

	// Fully paid through Q2 versus nothing paid at all.
	compliant := seedCompany(t, db, node, 1_000_000, [4]int64{150_000, 300_000, 0, 0})
	shortfall := seedCompany(t, db, node, 2_000_000, [4]int64{0, 0, 0, 0})

	report, err := svc.Compliance(context.Background(), "2024-25")
	assert.NoError(t, err)
	assert.Len(t, report.Companies, 2)
	assert.Equal(t, 1, report.CompaniesInShortfall)
	assert.True(t, report.TotalAssessed.Equal(d(3_000_000)))
	assert.True(t, report.TotalPaid.Equal(d(450_000)))

	// Largest outstanding first.
	assert.Equal(t, shortfall.String(), report.Companies[0].CompanyID)
	assert.True(t, report.Companies[0].Outstanding.Equal(d(900_000)))
	assert.False(t, report.Companies[0].Compliant)

	assert.Equal(t, compliant.String(), report.Companies[1].CompanyID)
	assert.True(t, report.Companies[1].Outstanding.IsZero())
	assert.Equal(t, 2, report.Companies[1].QuartersDue)
	assert.Equal(t, 2, report.Companies[1].QuartersPaid)
}

func TestCompliance_NextDue(t *testing.T) {
	svc, db, node, _ := setupService(t)
	seedCompany(t, db, node, 1_000_000, [4]int64{150_000, 300_000, 0, 0})

	report, err := svc.Compliance(context.Background(), "2024-25")
	assert.NoError(t, err)

	company := report.Companies[0]
	assert.Equal(t, time.Date(2024, time.December, 15, 0, 0, 0, 0, time.UTC), company.NextDueDate)
	assert.True(t, company.NextDueAmount.Equal(d(300_000)))
}

func TestCompliance_ManyCompaniesFanOut(t *testing.T) {
	svc, db, node, _ := setupService(t)

	for i := 0; i < 25; i++ {
		seedCompany(t, db, node, 1_000_000, [4]int64{150_000, 300_000, 0, 0})
	}

	report, err := svc.Compliance(context.Background(), "2024-25")
	assert.NoError(t, err)
	assert.Len(t, report.Companies, 25)
	assert.True(t, report.TotalAssessed.Equal(d(25_000_000)))
}

func TestCompliance_InvalidYearAndEmpty(t *testing.T) {
	svc, _, _, _ := setupService(t)

	_, err := svc.Compliance(context.Background(), "2024-26")
	assert.ErrorIs(t, err, fiscal.ErrInvalidYear)

	report, err := svc.Compliance(context.Background(), "2024-25")
	assert.NoError(t, err)
	assert.Empty(t, report.Companies)
	assert.Zero(t, report.CompaniesInShortfall)
}
