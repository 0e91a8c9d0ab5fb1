package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// CompanySummary is one company's advance-tax position for the year.
type CompanySummary struct {
	CompanyID    string `json:"company_id"`
	AssessmentID string `json:"assessment_id"`
	Status       string `json:"status"`
	Regime       string `json:"regime"`

	IsMATApplicable bool `json:"is_mat_applicable"`

	AssessedTax   decimal.Decimal `json:"assessed_tax"`
	NetTaxPayable decimal.Decimal `json:"net_tax_payable"`
	TotalPaid     decimal.Decimal `json:"total_paid"`

	// Outstanding is the unpaid cumulative requirement of the latest due
	// quarter; zero when every due installment is covered.
	Outstanding decimal.Decimal `json:"outstanding"`

	QuartersDue  int `json:"quarters_due"`
	QuartersPaid int `json:"quarters_paid"`

	NextDueDate   time.Time       `json:"next_due_date,omitempty"`
	NextDueAmount decimal.Decimal `json:"next_due_amount"`

	Interest234B decimal.Decimal `json:"interest_234b"`
	Interest234C decimal.Decimal `json:"interest_234c"`

	RevisionCount int  `json:"revision_count"`
	Compliant     bool `json:"compliant"`
}

// Report is the fleet-wide compliance view for one financial year,
// companies sorted by outstanding amount descending.
type Report struct {
	FinancialYear string    `json:"financial_year"`
	GeneratedAt   time.Time `json:"generated_at"`

	TotalAssessed        decimal.Decimal `json:"total_assessed"`
	TotalPaid            decimal.Decimal `json:"total_paid"`
	TotalOutstanding     decimal.Decimal `json:"total_outstanding"`
	TotalInterest        decimal.Decimal `json:"total_interest"`
	CompaniesInShortfall int             `json:"companies_in_shortfall"`

	Companies []CompanySummary `json:"companies"`
}

type Service interface {
	Compliance(ctx context.Context, financialYear string) (*Report, error)
}
