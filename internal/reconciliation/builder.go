// Package reconciliation turns book profit plus addition/deduction line
// items into taxable income. Build is a pure function; every line item is
// retained on the assessment for audit.
package reconciliation

import (
	"errors"

	"github.com/shopspring/decimal"
)

// AdjustmentCategory enumerates book-to-tax adjustment buckets.
type AdjustmentCategory string

const (
	// Additions
	CategoryDepreciationDifference AdjustmentCategory = "depreciation_difference"
	CategoryDisallowance40A        AdjustmentCategory = "disallowance_40a"
	CategoryDisallowance43B        AdjustmentCategory = "disallowance_43b"
	CategoryProvisionReversal      AdjustmentCategory = "provision_reversal"
	CategoryOtherAddition          AdjustmentCategory = "other_addition"

	// Deductions
	CategoryDeduction80C       AdjustmentCategory = "deduction_80c"
	CategoryDeduction80D       AdjustmentCategory = "deduction_80d"
	CategoryExemptIncome       AdjustmentCategory = "exempt_income"
	CategoryAdditionalDeprec   AdjustmentCategory = "additional_depreciation"
	CategoryOtherDeduction     AdjustmentCategory = "other_deduction"
	CategoryBroughtForwardLoss AdjustmentCategory = "brought_forward_loss"
)

var additionCategories = map[AdjustmentCategory]bool{
	CategoryDepreciationDifference: true,
	CategoryDisallowance40A:        true,
	CategoryDisallowance43B:        true,
	CategoryProvisionReversal:      true,
	CategoryOtherAddition:          true,
}

var deductionCategories = map[AdjustmentCategory]bool{
	CategoryDeduction80C:       true,
	CategoryDeduction80D:       true,
	CategoryExemptIncome:       true,
	CategoryAdditionalDeprec:   true,
	CategoryOtherDeduction:     true,
	CategoryBroughtForwardLoss: true,
}

var (
	ErrUnknownCategory = errors.New("invalid_adjustment_category")
	ErrNegativeAmount  = errors.New("invalid_adjustment_amount")
)

// LineItem is one book-to-tax adjustment. Amounts are always positive; the
// category decides the sign.
type LineItem struct {
	Category    AdjustmentCategory `json:"category"`
	Description string             `json:"description,omitempty"`
	Amount      decimal.Decimal    `json:"amount"`
}

// Input carries the reconciliation inputs. When BookProfit is zero the
// projected figure (YTD actuals plus projected revenue net of expense) is
// used, which is the usual shape for an advance-tax estimate made mid-year.
type Input struct {
	BookProfit       decimal.Decimal
	YTDActual        decimal.Decimal
	ProjectedRevenue decimal.Decimal
	ProjectedExpense decimal.Decimal
	Additions        []LineItem
	Deductions       []LineItem
}

type Result struct {
	BookProfit      decimal.Decimal
	TotalAdditions  decimal.Decimal
	TotalDeductions decimal.Decimal

	// RawTaxableIncome may be negative; it is preserved for disclosure.
	RawTaxableIncome decimal.Decimal

	// TaxableIncome is clamped at zero for liability purposes. The loss
	// itself carries forward outside this engine.
	TaxableIncome decimal.Decimal
}

func Validate(in Input) error {
	for _, item := range in.Additions {
		if !additionCategories[item.Category] {
			return ErrUnknownCategory
		}
		if item.Amount.IsNegative() {
			return ErrNegativeAmount
		}
	}
	for _, item := range in.Deductions {
		if !deductionCategories[item.Category] {
			return ErrUnknownCategory
		}
		if item.Amount.IsNegative() {
			return ErrNegativeAmount
		}
	}
	return nil
}

func Build(in Input) Result {
	bookProfit := in.BookProfit
	if bookProfit.IsZero() {
		bookProfit = in.YTDActual.Add(in.ProjectedRevenue).Sub(in.ProjectedExpense)
	}

	totalAdditions := decimal.Zero
	for _, item := range in.Additions {
		totalAdditions = totalAdditions.Add(item.Amount)
	}

	totalDeductions := decimal.Zero
	for _, item := range in.Deductions {
		totalDeductions = totalDeductions.Add(item.Amount)
	}

	raw := bookProfit.Add(totalAdditions).Sub(totalDeductions)
	taxable := raw
	if taxable.IsNegative() {
		taxable = decimal.Zero
	}

	return Result{
		BookProfit:       bookProfit,
		TotalAdditions:   totalAdditions,
		TotalDeductions:  totalDeductions,
		RawTaxableIncome: raw,
		TaxableIncome:    taxable,
	}
}
