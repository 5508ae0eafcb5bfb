package uktax

import (
	"github.com/shopspring/decimal"

	"goalplan/internal/bands"
	dErrors "goalplan/pkg/domain-errors"
)

// DividendInput describes the year's dividends. BandWidthConsumed is the
// band width the taxpayer's other income already occupies (from the income
// tax result): dividends are the top slice of the income stack, so their
// band occupancy starts where other income stopped. Statutory ordering is
// non-savings, then savings, then dividends.
type DividendInput struct {
	Dividends         decimal.Decimal
	BandWidthConsumed decimal.Decimal
}

// DividendResult is the allowance split and the per-band dividend tax.
type DividendResult struct {
	AllowanceUsed    decimal.Decimal `json:"allowance_used"`
	TaxableDividends decimal.Decimal `json:"taxable_dividends"`
	Slices           []bands.Slice   `json:"tax_by_band"`
	Total            decimal.Decimal `json:"total"`
}

// DividendTax subtracts the dividend allowance, then stacks the taxable
// dividends above the already-consumed band width.
func (c *Calculator) DividendTax(in DividendInput) (DividendResult, error) {
	if in.Dividends.IsNegative() {
		return DividendResult{}, dErrors.New(dErrors.CodeInvalidInput, "dividends must not be negative")
	}
	if in.BandWidthConsumed.IsNegative() {
		return DividendResult{}, dErrors.New(dErrors.CodeInvalidInput, "consumed band width must not be negative")
	}

	allowanceUsed := decimal.Min(in.Dividends, c.cfg.DividendAllowance)
	taxable := in.Dividends.Sub(allowanceUsed)

	res := DividendResult{
		AllowanceUsed:    allowanceUsed,
		TaxableDividends: taxable,
		Total:            decimal.Zero,
	}
	if taxable.IsZero() {
		return res, nil
	}

	// Walk the dividend bands charging the overlap of
	// [consumed, consumed+taxable) with each band.
	start := in.BandWidthConsumed
	end := start.Add(taxable)
	for _, b := range c.cfg.DividendBands {
		sliceLower := decimal.Max(start, b.Lower)
		sliceUpper := end
		if b.Upper != nil {
			sliceUpper = decimal.Min(end, *b.Upper)
		}
		if sliceUpper.LessThanOrEqual(sliceLower) {
			continue
		}
		inBand := sliceUpper.Sub(sliceLower)
		tax := inBand.Mul(b.Rate).RoundBank(2)
		res.Slices = append(res.Slices, bands.Slice{
			Band:          b.Name,
			Rate:          b.Rate,
			TaxableInBand: inBand,
			Tax:           tax,
		})
		res.Total = res.Total.Add(tax)
	}
	return res, nil
}
