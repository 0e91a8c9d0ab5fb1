package domain

import (
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/taxsuite/internal/reconciliation"
	rulepackdomain "github.com/smallbiznis/taxsuite/internal/rulepack/domain"
	"gorm.io/datatypes"
)

// Status is the assessment lifecycle state. Draft on creation, active once
// a schedule exists, finalized when the company files the period. After
// finalize only the revision engine may alter values.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusActive    Status = "active"
	StatusFinalized Status = "finalized"
)

// Assessment is the aggregate root: one company + financial year pair owns
// at most one active assessment. All reconciliation inputs are retained per
// category; derived amounts are always re-derived, never edited directly.
type Assessment struct {
	ID            snowflake.ID           `gorm:"primaryKey"`
	CompanyID     snowflake.ID           `gorm:"column:company_id;not null;index;uniqueIndex:ux_assessment_company_year,priority:1"`
	FinancialYear string                 `gorm:"column:financial_year;type:text;not null;uniqueIndex:ux_assessment_company_year,priority:2"`
	Regime        rulepackdomain.Regime  `gorm:"type:text;not null"`
	Status        Status                 `gorm:"type:text;not null;default:'draft'"`

	// Rule pack version used by the last computation, for auditability.
	RulePackVersion int `gorm:"column:rule_pack_version;not null;default:0"`

	// Reconciliation inputs.
	BookProfit       decimal.Decimal `gorm:"column:book_profit;type:numeric(18,2);not null"`
	YTDActual        decimal.Decimal `gorm:"column:ytd_actual;type:numeric(18,2);not null"`
	ProjectedRevenue decimal.Decimal `gorm:"column:projected_revenue;type:numeric(18,2);not null"`
	ProjectedExpense decimal.Decimal `gorm:"column:projected_expense;type:numeric(18,2);not null"`
	Additions        datatypes.JSON  `gorm:"type:jsonb"`
	Deductions       datatypes.JSON  `gorm:"type:jsonb"`

	// Derived income.
	RawTaxableIncome decimal.Decimal `gorm:"column:raw_taxable_income;type:numeric(18,2);not null"`
	TaxableIncome    decimal.Decimal `gorm:"column:taxable_income;type:numeric(18,2);not null"`

	// Derived tax amounts (normal basis).
	BaseTax           decimal.Decimal `gorm:"column:base_tax;type:numeric(18,2);not null"`
	Surcharge         decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	Cess              decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	TotalTaxLiability decimal.Decimal `gorm:"column:total_tax_liability;type:numeric(18,2);not null"`

	// MAT.
	MATPayable             decimal.Decimal `gorm:"column:mat_payable;type:numeric(18,2);not null"`
	IsMATApplicable        bool            `gorm:"column:is_mat_applicable;not null;default:false"`
	MATApplicabilityReason string          `gorm:"column:mat_applicability_reason;type:text;not null"`
	MATCreditCreated       decimal.Decimal `gorm:"column:mat_credit_created;type:numeric(18,2);not null"`
	MATCreditUtilized      decimal.Decimal `gorm:"column:mat_credit_utilized;type:numeric(18,2);not null"`
	TaxPayableAfterMAT     decimal.Decimal `gorm:"column:tax_payable_after_mat;type:numeric(18,2);not null"`

	// Credits.
	TDSReceivable  decimal.Decimal `gorm:"column:tds_receivable;type:numeric(18,2);not null"`
	TCSCredit      decimal.Decimal `gorm:"column:tcs_credit;type:numeric(18,2);not null"`
	AdvanceTaxPaid decimal.Decimal `gorm:"column:advance_tax_paid;type:numeric(18,2);not null"`

	NetTaxPayable decimal.Decimal `gorm:"column:net_tax_payable;type:numeric(18,2);not null"`

	RevisionCount int       `gorm:"column:revision_count;not null;default:0"`
	CreatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Assessment) TableName() string { return "assessments" }

func (a *Assessment) SetAdditions(items []reconciliation.LineItem) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	a.Additions = datatypes.JSON(raw)
	return nil
}

func (a *Assessment) SetDeductions(items []reconciliation.LineItem) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	a.Deductions = datatypes.JSON(raw)
	return nil
}

func (a *Assessment) AdditionItems() ([]reconciliation.LineItem, error) {
	return decodeLineItems(a.Additions)
}

func (a *Assessment) DeductionItems() ([]reconciliation.LineItem, error) {
	return decodeLineItems(a.Deductions)
}

func decodeLineItems(raw datatypes.JSON) ([]reconciliation.LineItem, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var items []reconciliation.LineItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ReconInput rebuilds the reconciliation input from retained fields.
func (a *Assessment) ReconInput() (reconciliation.Input, error) {
	additions, err := a.AdditionItems()
	if err != nil {
		return reconciliation.Input{}, err
	}
	deductions, err := a.DeductionItems()
	if err != nil {
		return reconciliation.Input{}, err
	}
	return reconciliation.Input{
		BookProfit:       a.BookProfit,
		YTDActual:        a.YTDActual,
		ProjectedRevenue: a.ProjectedRevenue,
		ProjectedExpense: a.ProjectedExpense,
		Additions:        additions,
		Deductions:       deductions,
	}, nil
}

// PaymentStatus tracks how a schedule quarter stands against its due.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPartial  PaymentStatus = "partial"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusOverpaid PaymentStatus = "overpaid"
)

// ScheduleRow is one advance-tax installment. Rows are owned by the
// assessment and regenerated wholesale whenever inputs change.
type ScheduleRow struct {
	ID           snowflake.ID `gorm:"primaryKey"`
	AssessmentID snowflake.ID `gorm:"column:assessment_id;not null;index;uniqueIndex:ux_schedule_quarter,priority:1"`
	Quarter      int          `gorm:"not null;uniqueIndex:ux_schedule_quarter,priority:2"`
	DueDate      time.Time    `gorm:"column:due_date;not null"`

	CumulativePercent     decimal.Decimal `gorm:"column:cumulative_percent;type:numeric(6,2);not null"`
	CumulativeTaxDue      decimal.Decimal `gorm:"column:cumulative_tax_due;type:numeric(18,2);not null"`
	TaxPayableThisQuarter decimal.Decimal `gorm:"column:tax_payable_this_quarter;type:numeric(18,2);not null"`

	CumulativeTaxPaid decimal.Decimal `gorm:"column:cumulative_tax_paid;type:numeric(18,2);not null"`
	ShortfallAmount   decimal.Decimal `gorm:"column:shortfall_amount;type:numeric(18,2);not null"`
	Interest234C      decimal.Decimal `gorm:"column:interest_234c;type:numeric(18,2);not null"`

	PaymentStatus PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (ScheduleRow) TableName() string { return "assessment_schedule_rows" }

// ComputedState is the value snapshot the revision engine diffs. It mirrors
// the derived columns on Assessment, never the inputs.
type ComputedState struct {
	RulePackVersion        int             `json:"rule_pack_version"`
	RawTaxableIncome       decimal.Decimal `json:"raw_taxable_income"`
	TaxableIncome          decimal.Decimal `json:"taxable_income"`
	BaseTax                decimal.Decimal `json:"base_tax"`
	Surcharge              decimal.Decimal `json:"surcharge"`
	Cess                   decimal.Decimal `json:"cess"`
	TotalTaxLiability      decimal.Decimal `json:"total_tax_liability"`
	MATPayable             decimal.Decimal `json:"mat_payable"`
	IsMATApplicable        bool            `json:"is_mat_applicable"`
	MATApplicabilityReason string          `json:"mat_applicability_reason"`
	MATCreditCreated       decimal.Decimal `json:"mat_credit_created"`
	MATCreditUtilized      decimal.Decimal `json:"mat_credit_utilized"`
	TaxPayableAfterMAT     decimal.Decimal `json:"tax_payable_after_mat"`
	NetTaxPayable          decimal.Decimal `json:"net_tax_payable"`
}

func (a *Assessment) Computed() ComputedState {
	return ComputedState{
		RulePackVersion:        a.RulePackVersion,
		RawTaxableIncome:       a.RawTaxableIncome,
		TaxableIncome:          a.TaxableIncome,
		BaseTax:                a.BaseTax,
		Surcharge:              a.Surcharge,
		Cess:                   a.Cess,
		TotalTaxLiability:      a.TotalTaxLiability,
		MATPayable:             a.MATPayable,
		IsMATApplicable:        a.IsMATApplicable,
		MATApplicabilityReason: a.MATApplicabilityReason,
		MATCreditCreated:       a.MATCreditCreated,
		MATCreditUtilized:      a.MATCreditUtilized,
		TaxPayableAfterMAT:     a.TaxPayableAfterMAT,
		NetTaxPayable:          a.NetTaxPayable,
	}
}
