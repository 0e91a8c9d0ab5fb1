package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

const (
	AccountAdvanceTax = "advance_tax_asset"
	AccountBank       = "bank"

	SourceAdvanceTaxPayment = "advance_tax_payment"
)

// JournalEntry is a double-entry voucher. Entries are append-only; a
// wrong entry is reversed, never edited.
type JournalEntry struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	CompanyID snowflake.ID `gorm:"column:company_id;not null;index"`

	DebitAccount  string          `gorm:"column:debit_account;not null"`
	CreditAccount string          `gorm:"column:credit_account;not null"`
	Amount        decimal.Decimal `gorm:"type:numeric(18,2);not null"`

	EntryDate time.Time `gorm:"column:entry_date;not null"`
	Narration string    `gorm:"type:text"`

	SourceType string       `gorm:"column:source_type;not null;index:idx_journal_source"`
	SourceID   snowflake.ID `gorm:"column:source_id;not null;index:idx_journal_source"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (JournalEntry) TableName() string { return "journal_entries" }
