package taxconfig

import (
	"github.com/shopspring/decimal"

	"goalplan/internal/bands"
	id "goalplan/pkg/domain"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func dp(s string) *decimal.Decimal {
	v := decimal.RequireFromString(s)
	return &v
}

// Seed returns the built-in published configs. Figures are the published
// HMRC and SARS tables; adding a year is data only, never calculator code.
func Seed() []*TaxYearConfig {
	return []*TaxYearConfig{
		uk2324(), uk2425(),
		sa2324(), sa2425(),
	}
}

func uk2425() *TaxYearConfig {
	return &TaxYearConfig{
		Jurisdiction: id.JurisdictionUK,
		TaxYear:      id.MustTaxYear("2024/25"),
		Version:      "v1",
		UK: &UKConfig{
			PersonalAllowance: d("12570"),
			TaperThreshold:    d("100000"),
			IncomeTaxBands: []bands.Band{
				{Name: "basic", Lower: d("0"), Upper: dp("37700"), Rate: d("0.20")},
				{Name: "higher", Lower: d("37700"), Upper: dp("125140"), Rate: d("0.40")},
				{Name: "additional", Lower: d("125140"), Rate: d("0.45")},
			},
			ScottishBands: []bands.Band{
				{Name: "starter", Lower: d("0"), Upper: dp("2306"), Rate: d("0.19")},
				{Name: "basic", Lower: d("2306"), Upper: dp("13991"), Rate: d("0.20")},
				{Name: "intermediate", Lower: d("13991"), Upper: dp("31092"), Rate: d("0.21")},
				{Name: "higher", Lower: d("31092"), Upper: dp("62430"), Rate: d("0.42")},
				{Name: "advanced", Lower: d("62430"), Upper: dp("125140"), Rate: d("0.45")},
				{Name: "top", Lower: d("125140"), Rate: d("0.48")},
			},
			NI: NIThresholds{
				Class1PrimaryThreshold:      d("12570"),
				Class1UpperEarningsLimit:    d("50270"),
				Class1MainRate:              d("0.08"),
				Class1UpperRate:             d("0.02"),
				Class2WeeklyRate:            d("3.45"),
				Class2SmallProfitsThreshold: d("6725"),
				Class4LowerProfitsLimit:     d("12570"),
				Class4UpperProfitsLimit:     d("50270"),
				Class4MainRate:              d("0.06"),
				Class4UpperRate:             d("0.02"),
			},
			CGTAnnualExemption: d("3000"),
			CGTRates: CGTRates{
				PropertyBasic:  d("0.18"),
				PropertyHigher: d("0.24"),
				OtherBasic:     d("0.10"),
				OtherHigher:    d("0.20"),
			},
			DividendAllowance: d("500"),
			DividendBands: []bands.Band{
				{Name: "basic", Lower: d("0"), Upper: dp("37700"), Rate: d("0.0875")},
				{Name: "higher", Lower: d("37700"), Upper: dp("125140"), Rate: d("0.3375")},
				{Name: "additional", Lower: d("125140"), Rate: d("0.3935")},
			},
		},
	}
}

func uk2324() *TaxYearConfig {
	cfg := uk2425()
	cfg.TaxYear = id.MustTaxYear("2023/24")
	uk := *cfg.UK
	uk.ScottishBands = []bands.Band{
		{Name: "starter", Lower: d("0"), Upper: dp("2162"), Rate: d("0.19")},
		{Name: "basic", Lower: d("2162"), Upper: dp("13118"), Rate: d("0.20")},
		{Name: "intermediate", Lower: d("13118"), Upper: dp("31092"), Rate: d("0.21")},
		{Name: "higher", Lower: d("31092"), Upper: dp("125140"), Rate: d("0.42")},
		{Name: "top", Lower: d("125140"), Rate: d("0.47")},
	}
	uk.NI.Class1MainRate = d("0.10")
	uk.NI.Class4MainRate = d("0.09")
	uk.CGTAnnualExemption = d("6000")
	uk.CGTRates.PropertyHigher = d("0.28")
	uk.DividendAllowance = d("1000")
	cfg.UK = &uk
	return cfg
}

func sa2425() *TaxYearConfig {
	return &TaxYearConfig{
		Jurisdiction: id.JurisdictionSA,
		TaxYear:      id.MustTaxYear("2024/25"),
		Version:      "v1",
		SA: &SAConfig{
			IncomeTaxBands: []bands.Band{
				{Name: "18%", Lower: d("0"), Upper: dp("237100"), Rate: d("0.18")},
				{Name: "26%", Lower: d("237100"), Upper: dp("370500"), Rate: d("0.26")},
				{Name: "31%", Lower: d("370500"), Upper: dp("512800"), Rate: d("0.31")},
				{Name: "36%", Lower: d("512800"), Upper: dp("673000"), Rate: d("0.36")},
				{Name: "39%", Lower: d("673000"), Upper: dp("857900"), Rate: d("0.39")},
				{Name: "41%", Lower: d("857900"), Upper: dp("1817000"), Rate: d("0.41")},
				{Name: "45%", Lower: d("1817000"), Rate: d("0.45")},
			},
			Rebates: Rebates{
				Primary:   d("17235"),
				Secondary: d("9444"),
				Tertiary:  d("3145"),
			},
			SecondaryAge:       65,
			TertiaryAge:        75,
			CGTAnnualExclusion: d("40000"),
			CGTInclusionRate:   d("0.40"),
			DividendTaxRate:    d("0.20"),
		},
	}
}

func sa2324() *TaxYearConfig {
	// SARS carried the 2023/24 brackets and rebates into 2024/25 unchanged.
	cfg := sa2425()
	cfg.TaxYear = id.MustTaxYear("2023/24")
	return cfg
}
