package dta

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "goalplan/pkg/domain"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func boolPtr(b bool) *bool { return &b }

func saItem(t id.IncomeType, amount string) id.IncomeItem {
	return id.IncomeItem{
		ID:            uuid.New(),
		Type:          t,
		SourceCountry: id.JurisdictionSA,
		Amount:        dec(amount),
		Currency:      id.CurrencyZAR,
		TaxYear:       id.MustTaxYear("2024/25"),
	}
}

func TestTiebreak(t *testing.T) {
	calc := NewCalculator()

	t.Run("permanent home in the UK only resolves at the first step", func(t *testing.T) {
		result := calc.Tiebreak(TiebreakFacts{PermanentHomeUK: true})
		assert.Equal(t, ResidenceUK, result.Residence)
		assert.Equal(t, "permanent_home", result.Step)
		assert.False(t, result.MAPRequired)
		require.Len(t, result.Path, 1)
	})

	t.Run("permanent home in SA only resolves to SA", func(t *testing.T) {
		result := calc.Tiebreak(TiebreakFacts{PermanentHomeSA: true})
		assert.Equal(t, ResidenceSA, result.Residence)
		assert.Equal(t, "permanent_home", result.Step)
	})

	t.Run("home in both falls through to vital interests", func(t *testing.T) {
		result := calc.Tiebreak(TiebreakFacts{
			PermanentHomeUK: true,
			PermanentHomeSA: true,
			VitalInterests:  ResidenceSA,
		})
		assert.Equal(t, ResidenceSA, result.Residence)
		assert.Equal(t, "vital_interests", result.Step)
	})

	t.Run("habitual abode then nationality", func(t *testing.T) {
		result := calc.Tiebreak(TiebreakFacts{HabitualAbode: ResidenceUK})
		assert.Equal(t, "habitual_abode", result.Step)

		result = calc.Tiebreak(TiebreakFacts{Nationality: ResidenceSA})
		assert.Equal(t, "nationality", result.Step)
		assert.Equal(t, ResidenceSA, result.Residence)
	})

	t.Run("fully unresolved cascade is undetermined, never an error", func(t *testing.T) {
		result := calc.Tiebreak(TiebreakFacts{})
		assert.Equal(t, ResidenceUndetermined, result.Residence)
		assert.Equal(t, "mutual_agreement_procedure", result.Step)
		assert.True(t, result.MAPRequired)
		// Every cascade step was evaluated and traced.
		require.Len(t, result.Path, 5)
		assert.Equal(t, "permanent_home", result.Path[0].Rule)
	})
}

func TestRelief(t *testing.T) {
	calc := NewCalculator()

	t.Run("credit is the lesser of source and residence tax", func(t *testing.T) {
		in := ReliefInput{
			Item:         saItem(id.IncomeEmployment, "100000"),
			Facts:        ItemFacts{DaysInSourceCountry: 200},
			SourceTax:    dec("18000"),
			ResidenceTax: dec("25000"),
		}
		out := calc.Relief(ResidenceUK, in)
		assert.Equal(t, "employment", out.Article)
		assert.True(t, out.Credit.Equal(dec("18000")))
		assert.Equal(t, id.JurisdictionUK, out.ReliefCountry)

		in.ResidenceTax = dec("12000")
		out = calc.Relief(ResidenceUK, in)
		assert.True(t, out.Credit.Equal(dec("12000")), "credit must not exceed residence tax")
	})

	t.Run("short assignment employment is residence exclusive", func(t *testing.T) {
		in := ReliefInput{
			Item: saItem(id.IncomeEmployment, "40000"),
			Facts: ItemFacts{
				DaysInSourceCountry:    90,
				PermanentEstablishment: boolPtr(false),
			},
			SourceTax:    dec("7200"),
			ResidenceTax: dec("9000"),
		}
		out := calc.Relief(ResidenceUK, in)
		assert.True(t, out.Credit.IsZero(), "residence-exclusive income claims no relief")
		assert.Empty(t, out.ReliefCountry)
		assert.Empty(t, out.Warnings)
	})

	t.Run("undetermined permanent establishment defaults to source taxing", func(t *testing.T) {
		in := ReliefInput{
			Item:         saItem(id.IncomeEmployment, "40000"),
			Facts:        ItemFacts{DaysInSourceCountry: 90},
			SourceTax:    dec("7200"),
			ResidenceTax: dec("9000"),
		}
		out := calc.Relief(ResidenceUK, in)
		assert.True(t, out.Credit.Equal(dec("7200")))
	})

	t.Run("dividend credit is capped at the treaty rate", func(t *testing.T) {
		in := ReliefInput{
			Item:         saItem(id.IncomeDividend, "10000"),
			SourceTax:    dec("2000"), // 20% withheld at source
			ResidenceTax: dec("3375"),
		}
		out := calc.Relief(ResidenceUK, in)
		assert.True(t, out.Credit.Equal(dec("1000")), "portfolio cap is 10% of the dividend")

		in.Facts.ConnectedPerson = boolPtr(true)
		out = calc.Relief(ResidenceUK, in)
		assert.True(t, out.Credit.Equal(dec("500")), "connected-person cap is 5%")
	})

	t.Run("immovable property gains are taxed at source, other gains at residence", func(t *testing.T) {
		property := saItem(id.IncomeCapitalGain, "50000")
		property.ImmovableProperty = true
		out := calc.Relief(ResidenceUK, ReliefInput{
			Item:         property,
			SourceTax:    dec("3600"),
			ResidenceTax: dec("5000"),
		})
		assert.True(t, out.Credit.Equal(dec("3600")))

		shares := saItem(id.IncomeCapitalGain, "50000")
		out = calc.Relief(ResidenceUK, ReliefInput{
			Item:         shares,
			SourceTax:    dec("3600"),
			ResidenceTax: dec("5000"),
		})
		assert.True(t, out.Credit.IsZero())
	})

	t.Run("government pension follows nationality", func(t *testing.T) {
		pension := saItem(id.IncomePension, "20000")
		pension.GovernmentPension = true
		in := ReliefInput{Item: pension, SourceTax: dec("3600"), ResidenceTax: dec("4000")}

		out := calc.Relief(ResidenceUK, in)
		assert.True(t, out.Credit.Equal(dec("3600")), "source taxes unless the beneficiary is a residence national")

		in.Facts.NationalOfResidence = true
		out = calc.Relief(ResidenceUK, in)
		assert.True(t, out.Credit.IsZero())
	})

	t.Run("income sourced in the residence country carries no credit", func(t *testing.T) {
		item := saItem(id.IncomeEmployment, "50000")
		out := calc.Relief(ResidenceSA, ReliefInput{
			Item:         item,
			Facts:        ItemFacts{DaysInSourceCountry: 300},
			SourceTax:    dec("9000"),
			ResidenceTax: dec("9000"),
		})
		assert.True(t, out.Credit.IsZero())
		assert.Empty(t, out.Warnings)
	})

	t.Run("unmappable item degrades to zero relief with a warning", func(t *testing.T) {
		out := calc.Relief(ResidenceUK, ReliefInput{
			Item:         saItem(id.IncomeOther, "1000"),
			SourceTax:    dec("200"),
			ResidenceTax: dec("200"),
		})
		assert.True(t, out.Credit.IsZero())
		require.Len(t, out.Warnings, 1)
	})

	t.Run("undetermined residence yields no relief with a warning", func(t *testing.T) {
		out := calc.Relief(ResidenceUndetermined, ReliefInput{
			Item:         saItem(id.IncomeEmployment, "1000"),
			SourceTax:    dec("200"),
			ResidenceTax: dec("200"),
		})
		assert.True(t, out.Credit.IsZero())
		require.Len(t, out.Warnings, 1)
		assert.Contains(t, out.Warnings[0], "mutual agreement")
	})

	t.Run("credit bounds hold across inputs", func(t *testing.T) {
		cases := []struct{ source, residence string }{
			{"0", "0"},
			{"100", "5000"},
			{"5000", "100"},
			{"2500", "2500"},
		}
		for _, tc := range cases {
			out := calc.Relief(ResidenceUK, ReliefInput{
				Item:         saItem(id.IncomeEmployment, "1000000"),
				Facts:        ItemFacts{DaysInSourceCountry: 365},
				SourceTax:    dec(tc.source),
				ResidenceTax: dec(tc.residence),
			})
			assert.False(t, out.Credit.IsNegative())
			assert.True(t, out.Credit.LessThanOrEqual(decimal.Min(dec(tc.source), dec(tc.residence))))
		}
	})
}

func TestTotalCredit(t *testing.T) {
	total := TotalCredit([]ReliefCalculation{
		{Credit: dec("100.50")},
		{Credit: dec("0")},
		{Credit: dec("49.50")},
	})
	assert.True(t, total.Equal(dec("150")))
}
