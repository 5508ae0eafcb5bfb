package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dErrors "goalplan/pkg/domain-errors"
)

// IncomeType classifies an income item for band stacking and treaty mapping.
type IncomeType string

const (
	IncomeEmployment     IncomeType = "employment"
	IncomeSelfEmployment IncomeType = "self_employment"
	IncomeDividend       IncomeType = "dividend"
	IncomeInterest       IncomeType = "interest"
	IncomePension        IncomeType = "pension"
	IncomeCapitalGain    IncomeType = "capital_gain"
	IncomeOther          IncomeType = "other"
)

// ParseIncomeType validates an income type string.
func ParseIncomeType(s string) (IncomeType, error) {
	switch IncomeType(s) {
	case IncomeEmployment, IncomeSelfEmployment, IncomeDividend, IncomeInterest,
		IncomePension, IncomeCapitalGain, IncomeOther:
		return IncomeType(s), nil
	}
	return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown income type %q", s)
}

// IncomeItem is a read-only snapshot from the income ledger. The core never
// writes these back.
type IncomeItem struct {
	ID            uuid.UUID       `json:"id"`
	Type          IncomeType      `json:"type"`
	SourceCountry Jurisdiction    `json:"source_country"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      Currency        `json:"currency"`
	TaxYear       TaxYear         `json:"tax_year"`

	// Pension items only: government-service pensions follow a different
	// treaty article than private pensions.
	GovernmentPension bool `json:"government_pension,omitempty"`
	// Capital gains only: gains linked to immovable property are taxed at
	// source under the treaty.
	ImmovableProperty bool `json:"immovable_property,omitempty"`
}

// Validate rejects items the calculators must never see.
func (i IncomeItem) Validate() error {
	if _, err := ParseIncomeType(string(i.Type)); err != nil {
		return err
	}
	if i.Amount.IsNegative() {
		return dErrors.Newf(dErrors.CodeInvalidInput, "income item %s has a negative amount", i.ID)
	}
	if i.Currency == "" {
		return dErrors.Newf(dErrors.CodeInvalidInput, "income item %s has no currency", i.ID)
	}
	if _, err := ParseTaxYear(string(i.TaxYear)); err != nil {
		return err
	}
	return nil
}
