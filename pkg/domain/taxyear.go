package domain

import (
	"fmt"
	"strconv"
	"strings"

	dErrors "goalplan/pkg/domain-errors"
)

// TaxYear identifies a fiscal year in "YYYY/YY" form, e.g. "2024/25".
// The UK year runs 6 April to 5 April; the SA year of assessment runs
// 1 March to the end of February. Both are addressed by the same identifier,
// named after the year in which the period starts.
type TaxYear string

// ParseTaxYear validates the "YYYY/YY" form and that the suffix is the
// following calendar year. Malformed identifiers are InvalidInput.
func ParseTaxYear(s string) (TaxYear, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 2 {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "tax year %q must use the YYYY/YY form", s)
	}
	start, err := strconv.Atoi(parts[0])
	if err != nil || start < 1900 || start > 2200 {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "tax year %q has an invalid start year", s)
	}
	end, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "tax year %q has an invalid end year", s)
	}
	if (start+1)%100 != end {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "tax year %q must span consecutive years", s)
	}
	return TaxYear(s), nil
}

// MustTaxYear panics on an invalid identifier. For seed data and tests only.
func MustTaxYear(s string) TaxYear {
	y, err := ParseTaxYear(s)
	if err != nil {
		panic(err)
	}
	return y
}

// StartYear returns the calendar year in which the tax year begins.
func (y TaxYear) StartYear() int {
	n, _ := strconv.Atoi(strings.SplitN(string(y), "/", 2)[0])
	return n
}

// Prev returns the preceding tax year. Used by residency look-backs.
func (y TaxYear) Prev() TaxYear {
	start := y.StartYear() - 1
	return TaxYear(fmt.Sprintf("%04d/%02d", start, (start+1)%100))
}

func (y TaxYear) String() string { return string(y) }

// Jurisdiction selects a tax regime.
type Jurisdiction string

const (
	JurisdictionUK Jurisdiction = "UK"
	JurisdictionSA Jurisdiction = "SA"
)

// ParseJurisdiction validates a jurisdiction code.
func ParseJurisdiction(s string) (Jurisdiction, error) {
	switch Jurisdiction(strings.ToUpper(s)) {
	case JurisdictionUK:
		return JurisdictionUK, nil
	case JurisdictionSA:
		return JurisdictionSA, nil
	}
	return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown jurisdiction %q", s)
}

func (j Jurisdiction) String() string { return string(j) }

// Currency is an ISO 4217 code. Conversion rates are supplied by a
// collaborator; the core never fetches them.
type Currency string

const (
	CurrencyGBP Currency = "GBP"
	CurrencyZAR Currency = "ZAR"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
)

// CurrencyFor returns the jurisdiction's home currency.
func CurrencyFor(j Jurisdiction) Currency {
	if j == JurisdictionSA {
		return CurrencyZAR
	}
	return CurrencyGBP
}
