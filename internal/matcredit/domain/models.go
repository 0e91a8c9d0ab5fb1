package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// CarryForwardYears is the statutory MAT credit carry-forward cap.
const CarryForwardYears = 15

// LedgerEntry is one year's MAT credit for a company. Entries are never
// deleted; expiry is a computed view over ExpiryYearStart.
type LedgerEntry struct {
	ID            snowflake.ID `gorm:"primaryKey"`
	CompanyID     snowflake.ID `gorm:"column:company_id;not null;index;uniqueIndex:ux_mat_entry_year,priority:1"`
	FinancialYear string       `gorm:"column:financial_year;type:text;not null;uniqueIndex:ux_mat_entry_year,priority:2"`

	BookProfit decimal.Decimal `gorm:"column:book_profit;type:numeric(18,2);not null"`
	MATAmount  decimal.Decimal `gorm:"column:mat_amount;type:numeric(18,2);not null"`
	NormalTax  decimal.Decimal `gorm:"column:normal_tax;type:numeric(18,2);not null"`

	CreditCreated  decimal.Decimal `gorm:"column:credit_created;type:numeric(18,2);not null"`
	CreditUtilized decimal.Decimal `gorm:"column:credit_utilized;type:numeric(18,2);not null"`
	Balance        decimal.Decimal `gorm:"type:numeric(18,2);not null"`

	// ExpiryYearStart is the start year of the last FY in which the credit
	// may be utilized (creation year + 15).
	ExpiryYearStart int `gorm:"column:expiry_year_start;not null"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (LedgerEntry) TableName() string { return "mat_credit_entries" }

// Expired reports whether the entry is out of the carry-forward window for
// the given assessment financial year start.
func (e LedgerEntry) Expired(fyStart int) bool {
	return fyStart > e.ExpiryYearStart
}

// Utilization links a ledger entry to the assessment year that consumed
// part of it. Append-only.
type Utilization struct {
	ID             snowflake.ID    `gorm:"primaryKey"`
	EntryID        snowflake.ID    `gorm:"column:entry_id;not null;index"`
	CompanyID      snowflake.ID    `gorm:"column:company_id;not null;index"`
	AssessmentYear string          `gorm:"column:assessment_year;type:text;not null"`
	Amount         decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	BalanceAfter   decimal.Decimal `gorm:"column:balance_after;type:numeric(18,2);not null"`
	CreatedAt      time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Utilization) TableName() string { return "mat_credit_utilizations" }

// Draw is one planned utilization against an entry. Plans are computed
// pure and applied in the caller's transaction.
type Draw struct {
	Entry  LedgerEntry
	Amount decimal.Decimal
}

// Summary is the per-company credit view for compliance reporting.
type Summary struct {
	CompanyID        string          `json:"company_id"`
	AvailableBalance decimal.Decimal `json:"available_balance"`
	ExpiringBalance  decimal.Decimal `json:"expiring_balance"` // expires within 2 FYs
	Entries          []LedgerEntry   `json:"entries"`
}
