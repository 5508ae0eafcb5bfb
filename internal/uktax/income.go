package uktax

import (
	"github.com/shopspring/decimal"

	"goalplan/internal/bands"
	dErrors "goalplan/pkg/domain-errors"
)

// IncomeTaxInput is non-savings income before the personal allowance.
// Scottish bands are selected by residency, never by income type.
type IncomeTaxInput struct {
	TotalIncome      decimal.Decimal
	ScottishResident bool
}

// IncomeTaxResult carries the band breakdown plus the two occupancy values
// downstream calculations need: the untaxed width of the basic-rate band
// (CGT rate selection) and the band width this income consumed (dividend
// stacking). Handing them on explicitly avoids re-deriving, and
// double-counting, band occupancy.
type IncomeTaxResult struct {
	PersonalAllowance      decimal.Decimal `json:"personal_allowance"`
	TaxableIncome          decimal.Decimal `json:"taxable_income"`
	Bands                  bands.Result    `json:"bands"`
	BasicRateBandRemaining decimal.Decimal `json:"basic_rate_band_remaining"`
	BandWidthConsumed      decimal.Decimal `json:"band_width_consumed"`
}

// IncomeTax computes income tax with the personal-allowance taper: the
// allowance erodes by £1 per £2 of income over the taper threshold, floored
// at zero.
func (c *Calculator) IncomeTax(in IncomeTaxInput) (IncomeTaxResult, error) {
	if in.TotalIncome.IsNegative() {
		return IncomeTaxResult{}, dErrors.New(dErrors.CodeInvalidInput, "income must not be negative")
	}

	allowance := c.taperedAllowance(in.TotalIncome)
	taxable := nonNegative(in.TotalIncome.Sub(allowance))

	table := c.cfg.IncomeTaxBands
	if in.ScottishResident {
		table = c.cfg.ScottishBands
	}
	result, err := bands.Apply(taxable, table)
	if err != nil {
		return IncomeTaxResult{}, err
	}

	// The basic-rate band is defined by the rUK table regardless of which
	// table taxed the income; CGT rate selection uses the rUK boundary.
	basicUpper := *c.cfg.IncomeTaxBands[0].Upper
	return IncomeTaxResult{
		PersonalAllowance:      allowance,
		TaxableIncome:          taxable,
		Bands:                  result,
		BasicRateBandRemaining: nonNegative(basicUpper.Sub(taxable)),
		BandWidthConsumed:      taxable,
	}, nil
}

func (c *Calculator) taperedAllowance(income decimal.Decimal) decimal.Decimal {
	excess := income.Sub(c.cfg.TaperThreshold)
	if excess.Sign() <= 0 {
		return c.cfg.PersonalAllowance
	}
	return nonNegative(c.cfg.PersonalAllowance.Sub(excess.Div(two)))
}
