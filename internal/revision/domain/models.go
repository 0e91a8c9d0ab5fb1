package domain

import (
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	assessmentdomain "github.com/smallbiznis/taxsuite/internal/assessment/domain"
	"github.com/smallbiznis/taxsuite/internal/reconciliation"
	"gorm.io/datatypes"
)

// Revision is one append-only recomputation of an assessment. The previous
// and revised snapshots make the audit trail self-contained; the typed
// variance columns keep the common queries off the JSON blobs.
type Revision struct {
	ID           snowflake.ID `gorm:"primaryKey"`
	AssessmentID snowflake.ID `gorm:"column:assessment_id;not null;uniqueIndex:idx_revision_assessment_number,priority:1"`

	// Number is 1 for the first revision and increments monotonically per
	// assessment.
	Number int `gorm:"column:number;not null;uniqueIndex:idx_revision_assessment_number,priority:2"`

	// Quarter the revision landed in, by revision date (1..4).
	Quarter int `gorm:"column:quarter;not null"`

	Reason string `gorm:"type:text;not null"`

	Previous datatypes.JSON `gorm:"type:jsonb;not null"`
	Revised  datatypes.JSON `gorm:"type:jsonb;not null"`

	TaxableIncomeDelta decimal.Decimal `gorm:"column:taxable_income_delta;type:numeric(18,2);not null"`
	TotalTaxDelta      decimal.Decimal `gorm:"column:total_tax_delta;type:numeric(18,2);not null"`
	NetPayableDelta    decimal.Decimal `gorm:"column:net_payable_delta;type:numeric(18,2);not null"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Revision) TableName() string { return "assessment_revisions" }

func (r *Revision) SetSnapshots(previous, revised assessmentdomain.ComputedState) error {
	prev, err := json.Marshal(previous)
	if err != nil {
		return err
	}
	rev, err := json.Marshal(revised)
	if err != nil {
		return err
	}
	r.Previous = datatypes.JSON(prev)
	r.Revised = datatypes.JSON(rev)
	return nil
}

func (r *Revision) PreviousState() (assessmentdomain.ComputedState, error) {
	var state assessmentdomain.ComputedState
	err := json.Unmarshal(r.Previous, &state)
	return state, err
}

func (r *Revision) RevisedState() (assessmentdomain.ComputedState, error) {
	var state assessmentdomain.ComputedState
	err := json.Unmarshal(r.Revised, &state)
	return state, err
}

// ReviseRequest carries the changed inputs plus the optimistic concurrency
// token. ExpectedRevision must equal the assessment's current revision
// count or the revise is rejected as stale.
type ReviseRequest struct {
	AssessmentID     string                     `json:"assessment_id"`
	Reason           string                     `json:"reason"`
	ExpectedRevision int                        `json:"expected_revision"`
	BookProfit       *decimal.Decimal           `json:"book_profit,omitempty"`
	YTDActual        *decimal.Decimal           `json:"ytd_actual,omitempty"`
	ProjectedRevenue *decimal.Decimal           `json:"projected_revenue,omitempty"`
	ProjectedExpense *decimal.Decimal           `json:"projected_expense,omitempty"`
	Additions        *[]reconciliation.LineItem `json:"additions,omitempty"`
	Deductions       *[]reconciliation.LineItem `json:"deductions,omitempty"`
	TDSReceivable    *decimal.Decimal           `json:"tds_receivable,omitempty"`
	TCSCredit        *decimal.Decimal           `json:"tcs_credit,omitempty"`
}

// Advisory reports whether a fresh projection has drifted far enough from
// the assessment basis to recommend a revision.
type Advisory struct {
	Recommend      bool            `json:"recommend"`
	DriftRatio     decimal.Decimal `json:"drift_ratio"`
	Threshold      decimal.Decimal `json:"threshold"`
	CurrentIncome  decimal.Decimal `json:"current_taxable_income"`
	ProjectedIncome decimal.Decimal `json:"projected_taxable_income"`
}
