// Package challan builds the ITNS 280 data snapshot for an installment.
// Snapshot only: rendering and bank hand-off live outside this service.
package challan

import (
	"time"

	"github.com/shopspring/decimal"
	assessmentdomain "github.com/smallbiznis/taxsuite/internal/assessment/domain"
	"github.com/smallbiznis/taxsuite/internal/fiscal"
)

const (
	// Advance tax payment code on ITNS 280.
	PaymentCodeAdvanceTax = "100"
	// Corporation tax major head.
	MajorHeadCorporate = "0020"
)

// Snapshot is everything a challan form needs for one quarter, frozen at
// generation time. Amounts reflect the current schedule, so a later
// revision produces a different snapshot.
type Snapshot struct {
	CompanyID      string `json:"company_id"`
	AssessmentID   string `json:"assessment_id"`
	FinancialYear  string `json:"financial_year"`
	AssessmentYear string `json:"assessment_year"`

	MajorHead   string `json:"major_head"`
	PaymentCode string `json:"payment_code"`

	Quarter int       `json:"quarter"`
	DueDate time.Time `json:"due_date"`

	AmountDue     decimal.Decimal `json:"amount_due"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	AmountPayable decimal.Decimal `json:"amount_payable"`

	GeneratedAt time.Time `json:"generated_at"`
}

// Build freezes the quarter's payable into a challan snapshot. The row must
// belong to the assessment.
func Build(a *assessmentdomain.Assessment, row assessmentdomain.ScheduleRow, now time.Time) Snapshot {
	fy := fiscal.Year(a.FinancialYear)
	payable := row.CumulativeTaxDue.Sub(row.CumulativeTaxPaid)
	if payable.IsNegative() {
		payable = decimal.Zero
	}

	return Snapshot{
		CompanyID:      a.CompanyID.String(),
		AssessmentID:   a.ID.String(),
		FinancialYear:  a.FinancialYear,
		AssessmentYear: string(fy.Next()),
		MajorHead:      MajorHeadCorporate,
		PaymentCode:    PaymentCodeAdvanceTax,
		Quarter:        row.Quarter,
		DueDate:        row.DueDate,
		AmountDue:      row.CumulativeTaxDue,
		AmountPaid:     row.CumulativeTaxPaid,
		AmountPayable:  payable,
		GeneratedAt:    now,
	}
}
