package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Payment is one advance-tax remittance. A payment linked to a posted
// journal entry is append-only; unposted payments remain editable.
type Payment struct {
	ID           snowflake.ID `gorm:"primaryKey"`
	AssessmentID snowflake.ID `gorm:"column:assessment_id;not null;index"`

	// Quarter pins the payment to one installment. Nil means FIFO
	// allocation against the earliest shortfall.
	Quarter *int `gorm:"type:int"`

	Amount decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	PaidOn time.Time       `gorm:"column:paid_on;not null;index"`

	JournalEntryID *snowflake.ID `gorm:"column:journal_entry_id"`
	IsPosted       bool          `gorm:"column:is_posted;not null;default:false"`

	Narration string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Payment) TableName() string { return "advance_tax_payments" }

// JournalEntryRequest asks the external ledger to post a payment voucher.
type JournalEntryRequest struct {
	CompanyID    snowflake.ID
	AssessmentID snowflake.ID
	Amount       decimal.Decimal
	PaidOn       time.Time
	Narration    string
}

// JournalPoster is the external journal/ledger collaborator. Posting is
// decoupled from recording: a posting failure never blocks the payment.
type JournalPoster interface {
	CreateEntry(ctx context.Context, req JournalEntryRequest) (snowflake.ID, error)
}

type RecordRequest struct {
	AssessmentID       string          `json:"assessment_id"`
	Quarter            *int            `json:"quarter,omitempty"`
	Amount             decimal.Decimal `json:"amount"`
	PaidOn             time.Time       `json:"paid_on"`
	Narration          string          `json:"narration,omitempty"`
	CreateJournalEntry bool            `json:"create_journal_entry"`
}

// RecordResponse surfaces the posting warning without failing the record.
type RecordResponse struct {
	Payment Payment `json:"payment"`
	Warning string  `json:"warning,omitempty"`
}
