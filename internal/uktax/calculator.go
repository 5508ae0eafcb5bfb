// Package uktax implements UK income tax, National Insurance, capital gains
// tax and dividend tax against a published TaxYearConfig. All functions are
// pure over the immutable config.
package uktax

import (
	"github.com/shopspring/decimal"

	"goalplan/internal/taxconfig"
	id "goalplan/pkg/domain"
	dErrors "goalplan/pkg/domain-errors"
)

// Calculator evaluates UK taxes for one published tax year.
type Calculator struct {
	year id.TaxYear
	cfg  *taxconfig.UKConfig
}

// New builds a calculator from a published config. The config must be a UK
// one; the repository guarantees the tables inside are valid.
func New(cfg *taxconfig.TaxYearConfig) (*Calculator, error) {
	if cfg == nil || cfg.Jurisdiction != id.JurisdictionUK || cfg.UK == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "UK calculator requires a UK tax year config")
	}
	return &Calculator{year: cfg.TaxYear, cfg: cfg.UK}, nil
}

var two = decimal.NewFromInt(2)

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
