// Package bands implements the generic progressive band engine every
// jurisdiction-specific calculator is built on. It is pure: no I/O, no
// mutable state, safe for unrestricted parallel use.
package bands

import (
	"github.com/shopspring/decimal"

	dErrors "goalplan/pkg/domain-errors"
)

// Band is one slice of a progressive table. A nil Upper marks the unbounded
// top band.
type Band struct {
	Name  string           `json:"name" yaml:"name"`
	Lower decimal.Decimal  `json:"lower" yaml:"lower"`
	Upper *decimal.Decimal `json:"upper,omitempty" yaml:"upper,omitempty"`
	Rate  decimal.Decimal  `json:"rate" yaml:"rate"`
}

// Slice records the tax charged within a single band.
type Slice struct {
	Band          string          `json:"band"`
	Rate          decimal.Decimal `json:"rate"`
	TaxableInBand decimal.Decimal `json:"taxable_in_band"`
	Tax           decimal.Decimal `json:"tax"`
}

// Result is the outcome of applying a band table to a taxable amount.
type Result struct {
	Slices        []Slice         `json:"tax_by_band"`
	TotalTax      decimal.Decimal `json:"total_tax"`
	MarginalRate  decimal.Decimal `json:"marginal_rate"`
	EffectiveRate decimal.Decimal `json:"effective_rate"`
}

// effectiveRatePlaces matches the statutory convention of quoting effective
// rates to four decimal places.
const effectiveRatePlaces = 4

// Validate checks the structural invariants of a band table: bounds are
// contiguous and strictly increasing, the first band starts at zero and the
// top band is unbounded.
func Validate(table []Band) error {
	if len(table) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "band table must not be empty")
	}
	if !table[0].Lower.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "first band must start at zero")
	}
	for i, b := range table {
		if b.Rate.IsNegative() {
			return dErrors.Newf(dErrors.CodeInvalidInput, "band %q has a negative rate", b.Name)
		}
		last := i == len(table)-1
		if last {
			if b.Upper != nil {
				return dErrors.New(dErrors.CodeInvalidInput, "top band must be unbounded")
			}
			continue
		}
		if b.Upper == nil {
			return dErrors.Newf(dErrors.CodeInvalidInput, "band %q is unbounded but not the top band", b.Name)
		}
		if b.Upper.LessThanOrEqual(b.Lower) {
			return dErrors.Newf(dErrors.CodeInvalidInput, "band %q upper bound must exceed its lower bound", b.Name)
		}
		if !table[i+1].Lower.Equal(*b.Upper) {
			return dErrors.Newf(dErrors.CodeInvalidInput, "band %q is not contiguous with the next band", b.Name)
		}
	}
	return nil
}

// Apply charges taxable against the table. Per-band tax is rounded to two
// places with banker's rounding, matching statutory per-band conventions;
// the total is the sum of the rounded slices, never re-rounded. Zero or
// negative taxable amounts yield zero tax without error.
func Apply(taxable decimal.Decimal, table []Band) (Result, error) {
	if err := Validate(table); err != nil {
		return Result{}, err
	}

	result := Result{
		Slices:        make([]Slice, 0, len(table)),
		TotalTax:      decimal.Zero,
		MarginalRate:  marginalRate(taxable, table),
		EffectiveRate: decimal.Zero,
	}
	if taxable.Sign() <= 0 {
		return result, nil
	}

	remaining := taxable
	for _, b := range table {
		var inBand decimal.Decimal
		if b.Upper == nil {
			inBand = remaining
		} else {
			width := b.Upper.Sub(b.Lower)
			inBand = decimal.Min(remaining, width)
		}
		tax := inBand.Mul(b.Rate).RoundBank(2)
		result.Slices = append(result.Slices, Slice{
			Band:          b.Name,
			Rate:          b.Rate,
			TaxableInBand: inBand,
			Tax:           tax,
		})
		result.TotalTax = result.TotalTax.Add(tax)
		remaining = remaining.Sub(inBand)
		if remaining.Sign() <= 0 {
			break
		}
	}

	result.EffectiveRate = result.TotalTax.Div(taxable).RoundBank(effectiveRatePlaces)
	return result, nil
}

// marginalRate is the rate of the band the next unit of income would fall
// into. At an exact boundary that is the band above; past the top band lower
// bound it is the top rate.
func marginalRate(taxable decimal.Decimal, table []Band) decimal.Decimal {
	if taxable.Sign() <= 0 {
		return table[0].Rate
	}
	for _, b := range table {
		if b.Upper == nil || taxable.LessThan(*b.Upper) {
			return b.Rate
		}
	}
	return table[len(table)-1].Rate
}
