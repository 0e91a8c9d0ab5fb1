// Package compute is the pure computation core: tax computation, MAT
// evaluation, and schedule generation over injected rate and credit
// snapshots. Nothing here touches storage; a pass can be discarded without
// partial-write risk.
package compute

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/taxsuite/internal/money"
	"github.com/smallbiznis/taxsuite/internal/reconciliation"
	rulepackdomain "github.com/smallbiznis/taxsuite/internal/rulepack/domain"
)

// Inputs is the immutable snapshot for one computation pass.
type Inputs struct {
	Recon    reconciliation.Result
	Rates    rulepackdomain.ResolvedRates // normal basis
	MATRates rulepackdomain.ResolvedRates // book-profit basis

	AvailableMATCredit decimal.Decimal

	TDSReceivable  decimal.Decimal
	TCSCredit      decimal.Decimal
	AdvanceTaxPaid decimal.Decimal
}

// MATOutcome is the section 115JB decision for the year.
type MATOutcome struct {
	NormalTax       decimal.Decimal
	MATPayable      decimal.Decimal
	IsApplicable    bool
	Reason          string
	CreditCreated   decimal.Decimal
	CreditToUtilize decimal.Decimal

	TaxPayableAfterMAT decimal.Decimal
}

// Outcome carries every derived amount, rounded once at this boundary.
type Outcome struct {
	RulePackVersion int

	RawTaxableIncome decimal.Decimal
	TaxableIncome    decimal.Decimal

	BaseTax           decimal.Decimal
	Surcharge         decimal.Decimal
	Cess              decimal.Decimal
	TotalTaxLiability decimal.Decimal

	MAT MATOutcome

	TotalCredits  decimal.Decimal
	NetTaxPayable decimal.Decimal

	// AssessedTax is the liability the quarterly schedule and interest
	// calculations run against: MAT total in a MAT year, normal liability
	// otherwise.
	AssessedTax decimal.Decimal

	// CreditsUpfront nets against the schedule before the percentage split.
	CreditsUpfront decimal.Decimal
}

// liability applies rate, effective surcharge, and cess to a base amount.
// Unrounded; callers round at their boundary.
func liability(base decimal.Decimal, rate, surchargeRate, cessRate decimal.Decimal) (tax, surcharge, cess, total decimal.Decimal) {
	tax = base.Mul(rate)
	surcharge = tax.Mul(surchargeRate)
	cess = tax.Add(surcharge).Mul(cessRate)
	total = tax.Add(surcharge).Add(cess)
	return tax, surcharge, cess, total
}

// Run executes one full deterministic pass.
func Run(in Inputs) Outcome {
	baseTax, surcharge, cess, normalTax := liability(
		in.Recon.TaxableIncome,
		in.Rates.TaxRate,
		in.Rates.EffectiveSurchargeRate,
		in.Rates.CessRate,
	)

	mat := evaluateMAT(in, normalTax)

	totalCredits := in.TDSReceivable.Add(in.TCSCredit).Add(mat.CreditToUtilize)
	net := money.ClampNonNegative(
		mat.TaxPayableAfterMAT.
			Sub(in.TDSReceivable).
			Sub(in.TCSCredit).
			Sub(in.AdvanceTaxPaid),
	)

	assessed := normalTax
	if mat.IsApplicable {
		assessed = mat.MATPayable
	}

	return Outcome{
		RulePackVersion:  in.Rates.RulePackVersion,
		RawTaxableIncome: money.RoundRupees(in.Recon.RawTaxableIncome),
		TaxableIncome:    money.RoundRupees(in.Recon.TaxableIncome),

		BaseTax:           money.RoundRupees(baseTax),
		Surcharge:         money.RoundRupees(surcharge),
		Cess:              money.RoundRupees(cess),
		TotalTaxLiability: money.RoundRupees(normalTax),

		MAT: MATOutcome{
			NormalTax:          money.RoundRupees(mat.NormalTax),
			MATPayable:         money.RoundRupees(mat.MATPayable),
			IsApplicable:       mat.IsApplicable,
			Reason:             mat.Reason,
			CreditCreated:      money.RoundRupees(mat.CreditCreated),
			CreditToUtilize:    money.RoundRupees(mat.CreditToUtilize),
			TaxPayableAfterMAT: money.RoundRupees(mat.TaxPayableAfterMAT),
		},

		TotalCredits:  money.RoundRupees(totalCredits),
		NetTaxPayable: money.RoundRupees(net),

		AssessedTax:    money.RoundRupees(assessed),
		CreditsUpfront: money.RoundRupees(in.TDSReceivable.Add(in.TCSCredit).Add(mat.CreditToUtilize)),
	}
}

// evaluateMAT applies section 115JB: MAT on book profit floors the normal
// liability; the excess banks as credit, a deficit consumes banked credit
// oldest-first (the draw order lives in the matcredit ledger).
func evaluateMAT(in Inputs, normalTax decimal.Decimal) MATOutcome {
	bookProfit := in.Recon.BookProfit

	matBase := bookProfit.Mul(in.MATRates.MATRate)
	if matBase.IsNegative() {
		matBase = decimal.Zero
	}
	matSurcharge := matBase.Mul(in.MATRates.EffectiveSurchargeRate)
	matCess := matBase.Add(matSurcharge).Mul(in.MATRates.CessRate)
	totalMAT := matBase.Add(matSurcharge).Add(matCess)

	out := MATOutcome{
		NormalTax:       normalTax,
		MATPayable:      totalMAT,
		CreditCreated:   decimal.Zero,
		CreditToUtilize: decimal.Zero,
	}

	if totalMAT.GreaterThan(normalTax) {
		out.IsApplicable = true
		out.TaxPayableAfterMAT = totalMAT
		out.CreditCreated = totalMAT.Sub(normalTax)
		out.Reason = fmt.Sprintf(
			"MAT of %s on book profit %s exceeds normal tax %s; tax payable under section 115JB, excess of %s banked as MAT credit",
			money.RoundRupees(totalMAT), money.RoundRupees(bookProfit),
			money.RoundRupees(normalTax), money.RoundRupees(out.CreditCreated),
		)
		return out
	}

	headroom := normalTax.Sub(totalMAT)
	out.CreditToUtilize = money.Min(in.AvailableMATCredit, headroom)
	if out.CreditToUtilize.IsNegative() {
		out.CreditToUtilize = decimal.Zero
	}
	out.TaxPayableAfterMAT = normalTax.Sub(out.CreditToUtilize)

	if out.CreditToUtilize.IsPositive() {
		out.Reason = fmt.Sprintf(
			"normal tax %s covers MAT %s; MAT not applicable, utilizing %s of banked MAT credit",
			money.RoundRupees(normalTax), money.RoundRupees(totalMAT),
			money.RoundRupees(out.CreditToUtilize),
		)
	} else {
		out.Reason = fmt.Sprintf(
			"normal tax %s covers MAT %s; MAT not applicable and no credit available to utilize",
			money.RoundRupees(normalTax), money.RoundRupees(totalMAT),
		)
	}
	return out
}
