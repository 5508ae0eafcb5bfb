package dta

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Calculator computes treaty relief. Stateless; safe for unrestricted
// concurrent use.
type Calculator struct{}

func NewCalculator() *Calculator {
	return &Calculator{}
}

// Relief computes the foreign-tax credit for one income item given the
// resolved treaty residence. It never errors: items that cannot be mapped,
// or an undetermined residence, degrade to zero relief with a warning so the
// overall calculation completes.
func (c *Calculator) Relief(residence Residence, in ReliefInput) ReliefCalculation {
	out := ReliefCalculation{
		ItemID:       in.Item.ID.String(),
		SourceTax:    in.SourceTax,
		ResidenceTax: in.ResidenceTax,
		Credit:       decimal.Zero,
	}

	residenceJurisdiction, ok := residence.Jurisdiction()
	if !ok {
		out.Warnings = append(out.Warnings,
			fmt.Sprintf("treaty residence %s grants no relief; mutual agreement procedure required", residence))
		return out
	}

	article, err := categorize(in.Item, in.Facts)
	if err != nil {
		out.Warnings = append(out.Warnings, fmt.Sprintf("no treaty article mapping: %v", err))
		return out
	}
	out.Article = article.Name

	// Income sourced in the residence country carries no foreign tax to
	// credit.
	if in.Item.SourceCountry == residenceJurisdiction {
		return out
	}

	if article.Rights == RightsResidenceExclusive {
		// The source country should not have taxed this at all; no credit
		// arises and none may be claimed.
		return out
	}

	creditable := in.SourceTax
	if article.SourceRateCap != nil {
		capped := in.Item.Amount.Mul(*article.SourceRateCap).RoundBank(2)
		creditable = decimal.Min(creditable, capped)
	}
	credit := decimal.Min(creditable, in.ResidenceTax)
	if credit.IsNegative() {
		credit = decimal.Zero
	}
	out.Credit = credit
	out.ReliefCountry = residenceJurisdiction
	return out
}

// TotalCredit sums per-item credits. Convenience for aggregation upstream.
func TotalCredit(calcs []ReliefCalculation) decimal.Decimal {
	total := decimal.Zero
	for _, rc := range calcs {
		total = total.Add(rc.Credit)
	}
	return total
}
