// Package taxconfig holds the versioned, immutable rate/band/allowance
// tables. A published config is never mutated; a refresh publishes a new
// snapshot so in-flight calculations always see a consistent version.
package taxconfig

import (
	"github.com/shopspring/decimal"

	"goalplan/internal/bands"
	id "goalplan/pkg/domain"
	dErrors "goalplan/pkg/domain-errors"
)

// TaxYearConfig is one published (jurisdiction, tax year) table set. Exactly
// one of UK/SA is populated, matching the jurisdiction.
type TaxYearConfig struct {
	Jurisdiction id.Jurisdiction `json:"jurisdiction" yaml:"jurisdiction"`
	TaxYear      id.TaxYear      `json:"tax_year" yaml:"tax_year"`
	// Version distinguishes republications of the same year (corrections).
	// Audit records pin it so historical runs reproduce exactly.
	Version string `json:"version" yaml:"version"`

	UK *UKConfig `json:"uk,omitempty" yaml:"uk,omitempty"`
	SA *SAConfig `json:"sa,omitempty" yaml:"sa,omitempty"`
}

// UKConfig carries every UK table the calculators read.
type UKConfig struct {
	PersonalAllowance decimal.Decimal `json:"personal_allowance" yaml:"personal_allowance"`
	// TaperThreshold is where the allowance starts eroding by £1 per £2.
	TaperThreshold decimal.Decimal `json:"taper_threshold" yaml:"taper_threshold"`

	IncomeTaxBands []bands.Band `json:"income_tax_bands" yaml:"income_tax_bands"`
	ScottishBands  []bands.Band `json:"scottish_bands" yaml:"scottish_bands"`

	NI NIThresholds `json:"ni_thresholds" yaml:"ni_thresholds"`

	CGTAnnualExemption decimal.Decimal `json:"cgt_annual_exemption" yaml:"cgt_annual_exemption"`
	CGTRates           CGTRates        `json:"cgt_rates" yaml:"cgt_rates"`

	DividendAllowance decimal.Decimal `json:"dividend_allowance" yaml:"dividend_allowance"`
	// DividendBands share the income band boundaries but carry dividend rates;
	// occupancy is computed after other income has consumed its slice.
	DividendBands []bands.Band `json:"dividend_rates" yaml:"dividend_rates"`
}

// NIThresholds covers Class 1 employee and Class 2/4 self-employed charges.
type NIThresholds struct {
	Class1PrimaryThreshold   decimal.Decimal `json:"class1_primary_threshold" yaml:"class1_primary_threshold"`
	Class1UpperEarningsLimit decimal.Decimal `json:"class1_upper_earnings_limit" yaml:"class1_upper_earnings_limit"`
	Class1MainRate           decimal.Decimal `json:"class1_main_rate" yaml:"class1_main_rate"`
	Class1UpperRate          decimal.Decimal `json:"class1_upper_rate" yaml:"class1_upper_rate"`

	Class2WeeklyRate            decimal.Decimal `json:"class2_weekly_rate" yaml:"class2_weekly_rate"`
	Class2SmallProfitsThreshold decimal.Decimal `json:"class2_small_profits_threshold" yaml:"class2_small_profits_threshold"`

	Class4LowerProfitsLimit decimal.Decimal `json:"class4_lower_profits_limit" yaml:"class4_lower_profits_limit"`
	Class4UpperProfitsLimit decimal.Decimal `json:"class4_upper_profits_limit" yaml:"class4_upper_profits_limit"`
	Class4MainRate          decimal.Decimal `json:"class4_main_rate" yaml:"class4_main_rate"`
	Class4UpperRate         decimal.Decimal `json:"class4_upper_rate" yaml:"class4_upper_rate"`
}

// CGTRates are selected by asset type, then by whether the gain slice falls
// inside the taxpayer's remaining basic-rate band.
type CGTRates struct {
	PropertyBasic  decimal.Decimal `json:"property_basic" yaml:"property_basic"`
	PropertyHigher decimal.Decimal `json:"property_higher" yaml:"property_higher"`
	OtherBasic     decimal.Decimal `json:"other_basic" yaml:"other_basic"`
	OtherHigher    decimal.Decimal `json:"other_higher" yaml:"other_higher"`
}

// SAConfig carries every South African table the calculators read.
type SAConfig struct {
	IncomeTaxBands []bands.Band `json:"income_tax_bands" yaml:"income_tax_bands"`

	Rebates      Rebates `json:"rebates" yaml:"rebates"`
	SecondaryAge int     `json:"secondary_age" yaml:"secondary_age"`
	TertiaryAge  int     `json:"tertiary_age" yaml:"tertiary_age"`

	CGTAnnualExclusion decimal.Decimal `json:"cgt_annual_exclusion" yaml:"cgt_annual_exclusion"`
	CGTInclusionRate   decimal.Decimal `json:"cgt_inclusion_rate" yaml:"cgt_inclusion_rate"`

	DividendTaxRate decimal.Decimal `json:"dividend_tax_rate" yaml:"dividend_tax_rate"`
}

// Rebates are age-banded and cumulative: a 76 year old gets all three.
type Rebates struct {
	Primary   decimal.Decimal `json:"primary" yaml:"primary"`
	Secondary decimal.Decimal `json:"secondary" yaml:"secondary"`
	Tertiary  decimal.Decimal `json:"tertiary" yaml:"tertiary"`
}

// RebateFor returns the cumulative rebate for a taxpayer's age.
func (c *SAConfig) RebateFor(age int) decimal.Decimal {
	rebate := c.Rebates.Primary
	if age >= c.SecondaryAge {
		rebate = rebate.Add(c.Rebates.Secondary)
	}
	if age >= c.TertiaryAge {
		rebate = rebate.Add(c.Rebates.Tertiary)
	}
	return rebate
}

// Validate checks a config before publication. A table that fails here is
// never visible to calculations.
func (c *TaxYearConfig) Validate() error {
	if _, err := id.ParseTaxYear(string(c.TaxYear)); err != nil {
		return err
	}
	if c.Version == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "config version is required")
	}
	switch c.Jurisdiction {
	case id.JurisdictionUK:
		if c.UK == nil {
			return dErrors.New(dErrors.CodeInvalidInput, "UK config missing UK tables")
		}
		for _, table := range [][]bands.Band{c.UK.IncomeTaxBands, c.UK.ScottishBands, c.UK.DividendBands} {
			if err := bands.Validate(table); err != nil {
				return err
			}
		}
	case id.JurisdictionSA:
		if c.SA == nil {
			return dErrors.New(dErrors.CodeInvalidInput, "SA config missing SA tables")
		}
		if err := bands.Validate(c.SA.IncomeTaxBands); err != nil {
			return err
		}
		if c.SA.CGTInclusionRate.IsNegative() || c.SA.CGTInclusionRate.GreaterThan(decimal.NewFromInt(1)) {
			return dErrors.New(dErrors.CodeInvalidInput, "CGT inclusion rate must be within [0,1]")
		}
	default:
		return dErrors.Newf(dErrors.CodeInvalidInput, "unknown jurisdiction %q", c.Jurisdiction)
	}
	return nil
}

// VersionKey is the pinned identifier recorded on audit records,
// e.g. "UK:2024/25@v1".
func (c *TaxYearConfig) VersionKey() string {
	return string(c.Jurisdiction) + ":" + string(c.TaxYear) + "@" + c.Version
}
