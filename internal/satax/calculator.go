// Package satax implements South African income tax, capital gains via the
// inclusion-rate method, and dividend withholding against a published
// TaxYearConfig. All functions are pure over the immutable config.
package satax

import (
	"github.com/shopspring/decimal"

	"goalplan/internal/bands"
	"goalplan/internal/taxconfig"
	id "goalplan/pkg/domain"
	dErrors "goalplan/pkg/domain-errors"
)

// Calculator evaluates SA taxes for one published year of assessment.
type Calculator struct {
	year id.TaxYear
	cfg  *taxconfig.SAConfig
}

// New builds a calculator from a published config.
func New(cfg *taxconfig.TaxYearConfig) (*Calculator, error) {
	if cfg == nil || cfg.Jurisdiction != id.JurisdictionSA || cfg.SA == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "SA calculator requires an SA tax year config")
	}
	return &Calculator{year: cfg.TaxYear, cfg: cfg.SA}, nil
}

// IncomeTaxResult is the gross band tax, the age-banded rebate, and the net
// payable (never negative: the rebate cannot create a refund).
type IncomeTaxResult struct {
	Bands      bands.Result    `json:"bands"`
	GrossTax   decimal.Decimal `json:"gross_tax"`
	Rebate     decimal.Decimal `json:"rebate"`
	TaxPayable decimal.Decimal `json:"tax_payable"`
}

// IncomeTax applies the SA bands to taxable income, then subtracts the
// cumulative age rebate, floored at zero.
func (c *Calculator) IncomeTax(taxableIncome decimal.Decimal, age int) (IncomeTaxResult, error) {
	if taxableIncome.IsNegative() {
		return IncomeTaxResult{}, dErrors.New(dErrors.CodeInvalidInput, "taxable income must not be negative")
	}
	if age < 0 || age > 150 {
		return IncomeTaxResult{}, dErrors.Newf(dErrors.CodeInvalidInput, "implausible age %d", age)
	}

	result, err := bands.Apply(taxableIncome, c.cfg.IncomeTaxBands)
	if err != nil {
		return IncomeTaxResult{}, err
	}

	rebate := c.cfg.RebateFor(age)
	payable := result.TotalTax.Sub(rebate)
	if payable.IsNegative() {
		payable = decimal.Zero
	}
	return IncomeTaxResult{
		Bands:      result,
		GrossTax:   result.TotalTax,
		Rebate:     rebate,
		TaxPayable: payable,
	}, nil
}
