package domain

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/taxsuite/internal/assessment/compute"
	"github.com/smallbiznis/taxsuite/internal/interest"
	"github.com/smallbiznis/taxsuite/internal/reconciliation"
	"github.com/smallbiznis/taxsuite/pkg/db/pagination"
	"gorm.io/gorm"
)

type CreateRequest struct {
	CompanyID        string                    `json:"company_id"`
	FinancialYear    string                    `json:"financial_year"`
	Regime           string                    `json:"regime"`
	BookProfit       decimal.Decimal           `json:"book_profit"`
	YTDActual        decimal.Decimal           `json:"ytd_actual"`
	ProjectedRevenue decimal.Decimal           `json:"projected_revenue"`
	ProjectedExpense decimal.Decimal           `json:"projected_expense"`
	Additions        []reconciliation.LineItem `json:"additions"`
	Deductions       []reconciliation.LineItem `json:"deductions"`
	TDSReceivable    decimal.Decimal           `json:"tds_receivable"`
	TCSCredit        decimal.Decimal           `json:"tcs_credit"`
	AdvanceTaxPaid   decimal.Decimal           `json:"advance_tax_paid"`
	RulePackVersion  *int                      `json:"rule_pack_version,omitempty"`
}

type UpdateRequest struct {
	ID               string                     `json:"id"`
	BookProfit       *decimal.Decimal           `json:"book_profit,omitempty"`
	YTDActual        *decimal.Decimal           `json:"ytd_actual,omitempty"`
	ProjectedRevenue *decimal.Decimal           `json:"projected_revenue,omitempty"`
	ProjectedExpense *decimal.Decimal           `json:"projected_expense,omitempty"`
	Additions        *[]reconciliation.LineItem `json:"additions,omitempty"`
	Deductions       *[]reconciliation.LineItem `json:"deductions,omitempty"`
	TDSReceivable    *decimal.Decimal           `json:"tds_receivable,omitempty"`
	TCSCredit        *decimal.Decimal           `json:"tcs_credit,omitempty"`
}

type ListRequest struct {
	CompanyID     string
	FinancialYear string
	Status        string
	Pagination    pagination.Pagination
}

type ListResponse struct {
	Assessments []Assessment         `json:"assessments"`
	PageInfo    *pagination.PageInfo `json:"page_info"`
}

// Tracker is the per-assessment view used by the advance-tax screen:
// the assessment, its schedule, and live interest figures.
type Tracker struct {
	Assessment        *Assessment         `json:"assessment"`
	Schedule          []ScheduleRow       `json:"schedule"`
	Interest234B      interest.Result234B `json:"interest_234b"`
	TotalInterest234C decimal.Decimal     `json:"total_interest_234c"`
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Assessment, error)
	Update(ctx context.Context, req UpdateRequest) (*Assessment, error)
	Finalize(ctx context.Context, id string) (*Assessment, error)

	// Preview runs the full pipeline without persisting anything.
	Preview(ctx context.Context, req CreateRequest) (*compute.Outcome, error)

	Get(ctx context.Context, id string) (*Assessment, error)
	List(ctx context.Context, req ListRequest) (*ListResponse, error)
	Tracker(ctx context.Context, id string) (*Tracker, error)
}

// Engine is the recomputation pipeline shared with the revision engine and
// the nightly sweep. Evaluate is read-only; RegenerateSchedule rebuilds all
// four rows inside the caller's transaction, re-attaching payment history
// by date.
type Engine interface {
	Evaluate(ctx context.Context, a *Assessment) (*compute.Outcome, error)
	Apply(a *Assessment, out *compute.Outcome)
	RegenerateSchedule(ctx context.Context, tx *gorm.DB, a *Assessment, out *compute.Outcome) error
}
