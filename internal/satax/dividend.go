package satax

import (
	"github.com/shopspring/decimal"

	dErrors "goalplan/pkg/domain-errors"
)

// DividendResult splits local withholding from the foreign amount that flows
// into ordinary income instead.
type DividendResult struct {
	LocalDividends    decimal.Decimal `json:"local_dividends"`
	WithholdingTax    decimal.Decimal `json:"withholding_tax"`
	ForeignToOrdinary decimal.Decimal `json:"foreign_to_ordinary"`
}

// DividendTax applies the flat withholding rate to local dividends at
// source, independent of the income tax bands. Foreign dividends are not
// withheld here; the caller adds ForeignToOrdinary to ordinary taxable
// income instead.
func (c *Calculator) DividendTax(localDividends, foreignDividends decimal.Decimal) (DividendResult, error) {
	if localDividends.IsNegative() || foreignDividends.IsNegative() {
		return DividendResult{}, dErrors.New(dErrors.CodeInvalidInput, "dividends must not be negative")
	}
	return DividendResult{
		LocalDividends:    localDividends,
		WithholdingTax:    localDividends.Mul(c.cfg.DividendTaxRate).RoundBank(2),
		ForeignToOrdinary: foreignDividends,
	}, nil
}
