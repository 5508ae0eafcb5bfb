package uktax

import (
	"github.com/shopspring/decimal"

	dErrors "goalplan/pkg/domain-errors"
)

// CGTInput describes one disposal's gain. BasicRateBandRemaining must come
// from the income tax calculation for the same year: the gain occupies
// whatever basic-rate band the taxpayer's income left unused, and re-deriving
// it here would double count.
type CGTInput struct {
	Gain                   decimal.Decimal
	Property               bool
	BasicRateBandRemaining decimal.Decimal
	// ExemptionRemaining overrides the annual exempt amount when an earlier
	// disposal in the same year already used part of it. Nil means the full
	// annual amount is still available.
	ExemptionRemaining *decimal.Decimal
}

// CGTResult is the exempt/taxable split and the tax at each rate.
type CGTResult struct {
	ExemptionUsed decimal.Decimal `json:"exemption_used"`
	TaxableGain   decimal.Decimal `json:"taxable_gain"`
	BasicTax      decimal.Decimal `json:"basic_tax"`
	HigherTax     decimal.Decimal `json:"higher_tax"`
	Total         decimal.Decimal `json:"total"`
}

// CapitalGainsTax subtracts the annual exempt amount, then splits the
// remaining gain across the unused basic-rate band before the higher rate
// applies. Rates are selected by asset type.
func (c *Calculator) CapitalGainsTax(in CGTInput) (CGTResult, error) {
	if in.Gain.IsNegative() {
		return CGTResult{}, dErrors.New(dErrors.CodeInvalidInput, "gain must not be negative")
	}
	if in.BasicRateBandRemaining.IsNegative() {
		return CGTResult{}, dErrors.New(dErrors.CodeInvalidInput, "remaining basic-rate band must not be negative")
	}

	exemption := c.cfg.CGTAnnualExemption
	if in.ExemptionRemaining != nil {
		if in.ExemptionRemaining.IsNegative() {
			return CGTResult{}, dErrors.New(dErrors.CodeInvalidInput, "remaining exemption must not be negative")
		}
		exemption = *in.ExemptionRemaining
	}
	exemptionUsed := decimal.Min(in.Gain, exemption)
	taxable := in.Gain.Sub(exemptionUsed)

	basicRate, higherRate := c.cfg.CGTRates.OtherBasic, c.cfg.CGTRates.OtherHigher
	if in.Property {
		basicRate, higherRate = c.cfg.CGTRates.PropertyBasic, c.cfg.CGTRates.PropertyHigher
	}

	basicSlice := decimal.Min(taxable, in.BasicRateBandRemaining)
	higherSlice := taxable.Sub(basicSlice)

	res := CGTResult{
		ExemptionUsed: exemptionUsed,
		TaxableGain:   taxable,
		BasicTax:      basicSlice.Mul(basicRate).RoundBank(2),
		HigherTax:     higherSlice.Mul(higherRate).RoundBank(2),
	}
	res.Total = res.BasicTax.Add(res.HigherTax)
	return res, nil
}
