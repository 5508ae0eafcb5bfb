package satax

import (
	"github.com/shopspring/decimal"

	dErrors "goalplan/pkg/domain-errors"
)

// CGTResult is the inclusion-rate breakdown plus the marginal tax the
// included gain attracted on top of ordinary income.
type CGTResult struct {
	ExclusionUsed decimal.Decimal `json:"exclusion_used"`
	TaxableGain   decimal.Decimal `json:"taxable_gain"`
	CGT           decimal.Decimal `json:"cgt"`
}

// CapitalGainsTax implements the inclusion-rate method:
//
//	taxableGain = max(gain − annualExclusion, 0) × inclusionRate
//
// The taxable gain is added to ordinary taxable income and taxed at the
// marginal rate, so the charge is tax(income + taxableGain) − tax(income).
// A flat-rate shortcut would mis-tax gains that straddle a band boundary.
func (c *Calculator) CapitalGainsTax(gain, ordinaryTaxableIncome decimal.Decimal, age int) (CGTResult, error) {
	if gain.IsNegative() {
		return CGTResult{}, dErrors.New(dErrors.CodeInvalidInput, "gain must not be negative")
	}
	if ordinaryTaxableIncome.IsNegative() {
		return CGTResult{}, dErrors.New(dErrors.CodeInvalidInput, "taxable income must not be negative")
	}

	exclusionUsed := decimal.Min(gain, c.cfg.CGTAnnualExclusion)
	taxableGain := gain.Sub(exclusionUsed).Mul(c.cfg.CGTInclusionRate)

	withGain, err := c.IncomeTax(ordinaryTaxableIncome.Add(taxableGain), age)
	if err != nil {
		return CGTResult{}, err
	}
	withoutGain, err := c.IncomeTax(ordinaryTaxableIncome, age)
	if err != nil {
		return CGTResult{}, err
	}

	return CGTResult{
		ExclusionUsed: exclusionUsed,
		TaxableGain:   taxableGain,
		CGT:           withGain.TaxPayable.Sub(withoutGain.TaxPayable),
	}, nil
}
