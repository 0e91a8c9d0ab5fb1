package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/taxsuite/internal/fiscal"
	matdomain "github.com/smallbiznis/taxsuite/internal/matcredit/domain"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func setupService(t *testing.T) (matdomain.Service, *gorm.DB, *snowflake.Node) {
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

	if err := db.AutoMigrate(&matdomain.LedgerEntry{}, &matdomain.Utilization{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}

	svc := NewService(ServiceParam{DB: db, Log: zap.NewNop(), GenID: node})
	return svc, db, node
}

func credit(t *testing.T, svc matdomain.Service, companyID snowflake.ID, fy string, amount int64) {
	t.Helper()
	err := svc.UpsertCredit(context.Background(), nil, matdomain.LedgerEntry{
		CompanyID:     companyID,
		FinancialYear: fy,
		BookProfit:    d(amount * 10),
		MATAmount:     d(amount * 2),
		NormalTax:     d(amount),
		CreditCreated: d(amount),
	})
	if err != nil {
		t.Fatalf("upsert credit %s: %v", fy, err)
	}
}

func TestUpsertCredit_NewEntry(t *testing.T) {
	svc, db, node := setupService(t)
	company := node.Generate()

	credit(t, svc, company, "2022-23", 100_000)

	var entry matdomain.LedgerEntry
	assert.NoError(t, db.Where("company_id = ?", company).First(&entry).Error)
	assert.True(t, entry.Balance.Equal(d(100_000)))
	assert.Equal(t, 2037, entry.ExpiryYearStart)

	balance, err := svc.AvailableBalance(context.Background(), company, fiscal.Year("2024-25"))
	assert.NoError(t, err)
	assert.True(t, balance.Equal(d(100_000)))
}

func TestUpsertCredit_RefreshUntilDrawn(t *testing.T) {
	svc, db, node := setupService(t)
	company := node.Generate()

	credit(t, svc, company, "2022-23", 100_000)
	// Revised figure for the same year replaces the undrawn entry.
	credit(t, svc, company, "2022-23", 120_000)

	var entry matdomain.LedgerEntry
	assert.NoError(t, db.Where("company_id = ?", company).First(&entry).Error)
	assert.True(t, entry.Balance.Equal(d(120_000)))

	// Draw part of it; the entry is now fixed.
	_, err := svc.Utilize(context.Background(), nil, company, fiscal.Year("2024-25"), d(20_000))
	assert.NoError(t, err)

	err = svc.UpsertCredit(context.Background(), nil, matdomain.LedgerEntry{
		CompanyID:     company,
		FinancialYear: "2022-23",
		CreditCreated: d(150_000),
	})
	assert.ErrorIs(t, err, matdomain.ErrEntryExists)
}

func TestUpsertCredit_Validation(t *testing.T) {
	svc, _, node := setupService(t)

	err := svc.UpsertCredit(context.Background(), nil, matdomain.LedgerEntry{
		FinancialYear: "2022-23",
		CreditCreated: d(1),
	})
	assert.ErrorIs(t, err, matdomain.ErrInvalidCompany)

	err = svc.UpsertCredit(context.Background(), nil, matdomain.LedgerEntry{
		CompanyID:     node.Generate(),
		FinancialYear: "2022-23",
		CreditCreated: d(-1),
	})
	assert.ErrorIs(t, err, matdomain.ErrInvalidAmount)
}

func TestUtilize_FIFOAcrossEntries(t *testing.T) {
	svc, db, node := setupService(t)
	company := node.Generate()

	credit(t, svc, company, "2020-21", 100_000)
	credit(t, svc, company, "2022-23", 200_000)

	utilizations, err := svc.Utilize(context.Background(), nil, company, fiscal.Year("2024-25"), d(150_000))
	assert.NoError(t, err)
	assert.Len(t, utilizations, 2)
	assert.True(t, utilizations[0].Amount.Equal(d(100_000)))
	assert.True(t, utilizations[0].BalanceAfter.IsZero())
	assert.True(t, utilizations[1].Amount.Equal(d(50_000)))
	assert.True(t, utilizations[1].BalanceAfter.Equal(d(150_000)))

	var entries []matdomain.LedgerEntry
	assert.NoError(t, db.Where("company_id = ?", company).Order("financial_year ASC").Find(&entries).Error)
	assert.True(t, entries[0].Balance.IsZero())
	assert.True(t, entries[1].Balance.Equal(d(150_000)))

	balance, err := svc.AvailableBalance(context.Background(), company, fiscal.Year("2024-25"))
	assert.NoError(t, err)
	assert.True(t, balance.Equal(d(150_000)))
}

func TestUtilize_InsufficientBalance(t *testing.T) {
	svc, db, node := setupService(t)
	company := node.Generate()

	credit(t, svc, company, "2020-21", 100_000)

	_, err := svc.Utilize(context.Background(), nil, company, fiscal.Year("2024-25"), d(150_000))
	assert.ErrorIs(t, err, matdomain.ErrInsufficientDraws)

	// Nothing was drawn.
	var entry matdomain.LedgerEntry
	assert.NoError(t, db.Where("company_id = ?", company).First(&entry).Error)
	assert.True(t, entry.Balance.Equal(d(100_000)))
}

func TestUtilize_ZeroAndNegative(t *testing.T) {
	svc, _, node := setupService(t)
	company := node.Generate()

	utilizations, err := svc.Utilize(context.Background(), nil, company, fiscal.Year("2024-25"), decimal.Zero)
	assert.NoError(t, err)
	assert.Empty(t, utilizations)

	_, err = svc.Utilize(context.Background(), nil, company, fiscal.Year("2024-25"), d(-1))
	assert.ErrorIs(t, err, matdomain.ErrInvalidAmount)
}

func TestSummary_ExpiringWindow(t *testing.T) {
	svc, _, node := setupService(t)
	company := node.Generate()

	// Expires after FY starting 2025: inside the two-year warning window
	// from 2024-25.
	credit(t, svc, company, "2010-11", 80_000)
	credit(t, svc, company, "2022-23", 200_000)

	summary, err := svc.Summary(context.Background(), company, fiscal.Year("2024-25"))
	assert.NoError(t, err)
	assert.True(t, summary.AvailableBalance.Equal(d(280_000)))
	assert.True(t, summary.ExpiringBalance.Equal(d(80_000)))
	assert.Len(t, summary.Entries, 2)
}
