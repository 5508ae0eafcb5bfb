package uktax

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goalplan/internal/taxconfig"
	id "goalplan/pkg/domain"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func calculator2425(t *testing.T) *Calculator {
	t.Helper()
	repo, err := taxconfig.NewRepository(taxconfig.Seed()...)
	require.NoError(t, err)
	cfg, err := repo.Get(id.JurisdictionUK, id.MustTaxYear("2024/25"))
	require.NoError(t, err)
	calc, err := New(cfg)
	require.NoError(t, err)
	return calc
}

func TestIncomeTax(t *testing.T) {
	calc := calculator2425(t)

	t.Run("salary of 30,000 is taxed entirely at basic rate", func(t *testing.T) {
		res, err := calc.IncomeTax(IncomeTaxInput{TotalIncome: dec("30000")})
		require.NoError(t, err)
		assert.True(t, res.PersonalAllowance.Equal(dec("12570")))
		assert.True(t, res.TaxableIncome.Equal(dec("17430")))
		assert.True(t, res.Bands.TotalTax.Equal(dec("3486")), "got %s", res.Bands.TotalTax)
		assert.True(t, res.Bands.MarginalRate.Equal(dec("0.20")))
	})

	t.Run("salary of 60,000 spans basic and higher bands", func(t *testing.T) {
		res, err := calc.IncomeTax(IncomeTaxInput{TotalIncome: dec("60000")})
		require.NoError(t, err)
		assert.True(t, res.TaxableIncome.Equal(dec("47430")))
		assert.True(t, res.Bands.TotalTax.Equal(dec("11432")), "got %s", res.Bands.TotalTax)
		require.Len(t, res.Bands.Slices, 2)
		assert.True(t, res.Bands.Slices[0].Tax.Equal(dec("7540")))
		assert.True(t, res.Bands.Slices[1].Tax.Equal(dec("3892")))
	})

	t.Run("allowance tapers by one pound per two over 100,000", func(t *testing.T) {
		res, err := calc.IncomeTax(IncomeTaxInput{TotalIncome: dec("110000")})
		require.NoError(t, err)
		assert.True(t, res.PersonalAllowance.Equal(dec("7570")), "got %s", res.PersonalAllowance)
		assert.True(t, res.TaxableIncome.Equal(dec("102430")))
	})

	t.Run("allowance floors at zero", func(t *testing.T) {
		res, err := calc.IncomeTax(IncomeTaxInput{TotalIncome: dec("130000")})
		require.NoError(t, err)
		assert.True(t, res.PersonalAllowance.IsZero())
	})

	t.Run("scottish bands selected by residency flag", func(t *testing.T) {
		res, err := calc.IncomeTax(IncomeTaxInput{TotalIncome: dec("30000"), ScottishResident: true})
		require.NoError(t, err)
		// 2,306 at 19% + 11,685 at 20% + 3,439 at 21%
		assert.True(t, res.Bands.TotalTax.Equal(dec("3497.33")), "got %s", res.Bands.TotalTax)
	})

	t.Run("occupancy outputs feed CGT and dividend stacking", func(t *testing.T) {
		res, err := calc.IncomeTax(IncomeTaxInput{TotalIncome: dec("30000")})
		require.NoError(t, err)
		assert.True(t, res.BasicRateBandRemaining.Equal(dec("20270")))
		assert.True(t, res.BandWidthConsumed.Equal(dec("17430")))
	})

	t.Run("negative income is rejected", func(t *testing.T) {
		_, err := calc.IncomeTax(IncomeTaxInput{TotalIncome: dec("-1")})
		assert.Error(t, err)
	})
}

func TestNationalInsurance(t *testing.T) {
	calc := calculator2425(t)

	t.Run("class 1 within the main band", func(t *testing.T) {
		res, err := calc.NationalInsurance(dec("30000"), decimal.Zero)
		require.NoError(t, err)
		assert.True(t, res.Class1.Equal(dec("1394.40")), "got %s", res.Class1)
		assert.True(t, res.Class2.IsZero())
		assert.True(t, res.Class4.IsZero())
	})

	t.Run("class 1 above the upper earnings limit", func(t *testing.T) {
		res, err := calc.NationalInsurance(dec("60000"), decimal.Zero)
		require.NoError(t, err)
		// 37,700 at 8% + 9,730 at 2%
		assert.True(t, res.Class1.Equal(dec("3210.60")), "got %s", res.Class1)
	})

	t.Run("self employed pays class 2 and class 4", func(t *testing.T) {
		res, err := calc.NationalInsurance(decimal.Zero, dec("30000"))
		require.NoError(t, err)
		assert.True(t, res.Class2.Equal(dec("179.40")), "got %s", res.Class2)
		assert.True(t, res.Class4.Equal(dec("1045.80")), "got %s", res.Class4)
		assert.True(t, res.Total.Equal(dec("1225.20")))
	})

	t.Run("no class 2 below the small profits threshold", func(t *testing.T) {
		res, err := calc.NationalInsurance(decimal.Zero, dec("6000"))
		require.NoError(t, err)
		assert.True(t, res.Class2.IsZero())
	})

	t.Run("NI ignores the income tax personal allowance", func(t *testing.T) {
		// Earnings just over the primary threshold but under the personal
		// allowance plus threshold: NI is still due.
		res, err := calc.NationalInsurance(dec("13000"), decimal.Zero)
		require.NoError(t, err)
		assert.True(t, res.Class1.Equal(dec("34.40")), "got %s", res.Class1)
	})
}

func TestCapitalGainsTax(t *testing.T) {
	calc := calculator2425(t)

	t.Run("annual exemption comes off first", func(t *testing.T) {
		res, err := calc.CapitalGainsTax(CGTInput{
			Gain:                   dec("10000"),
			BasicRateBandRemaining: dec("20000"),
		})
		require.NoError(t, err)
		assert.True(t, res.ExemptionUsed.Equal(dec("3000")))
		assert.True(t, res.TaxableGain.Equal(dec("7000")))
		assert.True(t, res.Total.Equal(dec("700")), "got %s", res.Total)
	})

	t.Run("gain splits across the remaining basic-rate band", func(t *testing.T) {
		res, err := calc.CapitalGainsTax(CGTInput{
			Gain:                   dec("10000"),
			Property:               true,
			BasicRateBandRemaining: dec("2000"),
		})
		require.NoError(t, err)
		// 2,000 at 18% + 5,000 at 24%
		assert.True(t, res.BasicTax.Equal(dec("360")))
		assert.True(t, res.HigherTax.Equal(dec("1200")))
		assert.True(t, res.Total.Equal(dec("1560")))
	})

	t.Run("gain within the exemption is tax free", func(t *testing.T) {
		res, err := calc.CapitalGainsTax(CGTInput{
			Gain:                   dec("2500"),
			BasicRateBandRemaining: decimal.Zero,
		})
		require.NoError(t, err)
		assert.True(t, res.Total.IsZero())
	})
}

func TestDividendTax(t *testing.T) {
	calc := calculator2425(t)

	t.Run("dividends within the basic band after other income", func(t *testing.T) {
		res, err := calc.DividendTax(DividendInput{
			Dividends:         dec("5000"),
			BandWidthConsumed: dec("17430"),
		})
		require.NoError(t, err)
		assert.True(t, res.AllowanceUsed.Equal(dec("500")))
		assert.True(t, res.TaxableDividends.Equal(dec("4500")))
		assert.True(t, res.Total.Equal(dec("393.75")), "got %s", res.Total)
	})

	t.Run("dividends stacked into the higher band by other income", func(t *testing.T) {
		res, err := calc.DividendTax(DividendInput{
			Dividends:         dec("2000"),
			BandWidthConsumed: dec("47430"),
		})
		require.NoError(t, err)
		// 1,500 taxable, all at 33.75%
		assert.True(t, res.Total.Equal(dec("506.25")), "got %s", res.Total)
	})

	t.Run("dividends straddling the basic boundary", func(t *testing.T) {
		res, err := calc.DividendTax(DividendInput{
			Dividends:         dec("1500"),
			BandWidthConsumed: dec("37000"),
		})
		require.NoError(t, err)
		// 700 at 8.75% + 300 at 33.75%
		require.Len(t, res.Slices, 2)
		assert.True(t, res.Slices[0].Tax.Equal(dec("61.25")))
		assert.True(t, res.Slices[1].Tax.Equal(dec("101.25")))
		assert.True(t, res.Total.Equal(dec("162.50")))
	})

	t.Run("dividends within the allowance are tax free", func(t *testing.T) {
		res, err := calc.DividendTax(DividendInput{
			Dividends:         dec("400"),
			BandWidthConsumed: dec("17430"),
		})
		require.NoError(t, err)
		assert.True(t, res.Total.IsZero())
		assert.Empty(t, res.Slices)
	})
}
