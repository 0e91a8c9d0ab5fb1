package scheduler

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
	journalservice "github.com/smallbiznis/taxsuite/internal/journal/service"
	paymentdomain "github.com/smallbiznis/taxsuite/internal/payment/domain"
	paymentservice "github.com/smallbiznis/taxsuite/internal/payment/service"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func setupScheduler(t *testing.T, batchSize int) (*Scheduler, *gorm.DB, *snowflake.Node, *clock.FakeClock) {
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
	fake := clock.NewFakeClock(time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC))

	poster := journalservice.NewService(journalservice.ServiceParam{
		DB: db, Log: zap.NewNop(), GenID: node, Clock: fake,
	})
	paymentSvc := paymentservice.NewService(paymentservice.ServiceParam{
		DB: db, Log: zap.NewNop(), GenID: node, Clock: fake, Poster: poster,
	})

	scheduler, err := New(Params{
		DB:         db,
		Log:        zap.NewNop(),
		PaymentSvc: paymentSvc,
		Clock:      fake,
		Config:     Config{RunInterval: time.Hour, BatchSize: batchSize},
	})
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	return scheduler, db, node, fake
}

func seedActiveAssessment(t *testing.T, db *gorm.DB, node *snowflake.Node, status assessmentdomain.Status) snowflake.ID {
	t.Helper()

	a := assessmentdomain.Assessment{
		ID:            node.Generate(),
		CompanyID:     node.Generate(),
		FinancialYear: "2024-25",
		Status:        status,
	}
	if err := db.Create(&a).Error; err != nil {
		t.Fatalf("seed assessment: %v", err)
	}

	cums := []int64{150_000, 450_000, 750_000, 1_000_000}
	dues := []time.Time{
		time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.September, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.December, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC),
	}
	prev := int64(0)
	for q := 0; q < 4; q++ {
		row := assessmentdomain.ScheduleRow{
			ID:                    node.Generate(),
			AssessmentID:          a.ID,
			Quarter:               q + 1,
			DueDate:               dues[q],
			CumulativeTaxDue:      d(cums[q]),
			TaxPayableThisQuarter: d(cums[q] - prev),
			ShortfallAmount:       d(cums[q]),
			PaymentStatus:         assessmentdomain.PaymentStatusPending,
		}
		if err := db.Create(&row).Error; err != nil {
			t.Fatalf("seed row: %v", err)
		}
		prev = cums[q]
	}
	return a.ID
}

func TestRunOnce_RefreshesInterestAsClockMoves(t *testing.T) {
	scheduler, db, node, fake := setupScheduler(t, 10)
	id := seedActiveAssessment(t, db, node, assessmentdomain.StatusActive)

	// Before the Q1 due date nothing accrues.
	assert.NoError(t, scheduler.RunOnce(context.Background()))

	var row assessmentdomain.ScheduleRow
	assert.NoError(t, db.Where("assessment_id = ? AND quarter = 1", id).First(&row).Error)
	assert.True(t, row.Interest234C.IsZero())

	// Past the due date with no payments the sweep alone surfaces the
	// deferment interest: 150,000 x 1% x 3 months.
	fake.Set(time.Date(2024, time.June, 20, 0, 0, 0, 0, time.UTC))
	assert.NoError(t, scheduler.RunOnce(context.Background()))

	assert.NoError(t, db.Where("assessment_id = ? AND quarter = 1", id).First(&row).Error)
	assert.True(t, row.Interest234C.Equal(d(4_500)))
}

func TestRunOnce_SkipsNonActive(t *testing.T) {
	scheduler, db, node, fake := setupScheduler(t, 10)
	draftID := seedActiveAssessment(t, db, node, assessmentdomain.StatusDraft)
	activeID := seedActiveAssessment(t, db, node, assessmentdomain.StatusActive)

	fake.Set(time.Date(2024, time.June, 20, 0, 0, 0, 0, time.UTC))
	assert.NoError(t, scheduler.RunOnce(context.Background()))

	var row assessmentdomain.ScheduleRow
	assert.NoError(t, db.Where("assessment_id = ? AND quarter = 1", draftID).First(&row).Error)
	assert.True(t, row.Interest234C.IsZero())

	var activeRow assessmentdomain.ScheduleRow
	assert.NoError(t, db.Where("assessment_id = ? AND quarter = 1", activeID).First(&activeRow).Error)
	assert.True(t, activeRow.Interest234C.IsPositive())
}

func TestRunOnce_BatchesPastBatchSize(t *testing.T) {
	scheduler, db, node, fake := setupScheduler(t, 2)

	ids := make([]snowflake.ID, 0, 5)
	for i := 0; i < 5; i++ {
		ids = append(ids, seedActiveAssessment(t, db, node, assessmentdomain.StatusActive))
	}

	fake.Set(time.Date(2024, time.June, 20, 0, 0, 0, 0, time.UTC))
	assert.NoError(t, scheduler.RunOnce(context.Background()))

	for _, id := range ids {
		var row assessmentdomain.ScheduleRow
		assert.NoError(t, db.Where("assessment_id = ? AND quarter = 1", id).First(&row).Error)
		assert.True(t, row.Interest234C.IsPositive(), "assessment %s", id)
	}
}

func TestRunOnce_CancelledContext(t *testing.T) {
	scheduler, db, node, _ := setupScheduler(t, 10)
	seedActiveAssessment(t, db, node, assessmentdomain.StatusActive)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := scheduler.RunOnce(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_RejectsNilDeps(t *testing.T) {
	_, err := New(Params{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
