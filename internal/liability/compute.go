package liability

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"goalplan/internal/dta"
	"goalplan/internal/uktax"
	id "goalplan/pkg/domain"
)

// totals aggregates the year's income items in one jurisdiction's home
// currency. Local means sourced in that jurisdiction.
type totals struct {
	employment       decimal.Decimal
	selfEmployment   decimal.Decimal
	otherIncome      decimal.Decimal
	localDividends   decimal.Decimal
	foreignDividends decimal.Decimal
	propertyGains    decimal.Decimal
	otherGains       decimal.Decimal
}

func (r *run) totalsFor(ctx context.Context, target id.Jurisdiction) (totals, error) {
	var t totals
	for _, item := range r.items {
		amount, err := r.amountIn(ctx, item, target)
		if err != nil {
			return totals{}, err
		}
		switch item.Type {
		case id.IncomeEmployment:
			t.employment = t.employment.Add(amount)
		case id.IncomeSelfEmployment:
			t.selfEmployment = t.selfEmployment.Add(amount)
		case id.IncomeDividend:
			if item.SourceCountry == target {
				t.localDividends = t.localDividends.Add(amount)
			} else {
				t.foreignDividends = t.foreignDividends.Add(amount)
			}
		case id.IncomeCapitalGain:
			if item.ImmovableProperty {
				t.propertyGains = t.propertyGains.Add(amount)
			} else {
				t.otherGains = t.otherGains.Add(amount)
			}
		default:
			// interest, pensions and other flow into ordinary income
			t.otherIncome = t.otherIncome.Add(amount)
		}
	}
	return t, nil
}

func (r *run) amountIn(ctx context.Context, item id.IncomeItem, target id.Jurisdiction) (decimal.Decimal, error) {
	amount, err := r.svc.deps.FX.Convert(ctx, item.Amount, item.Currency, id.CurrencyFor(target), r.req.TaxYear)
	if err != nil {
		return decimal.Zero, fmt.Errorf("convert income item %s: %w", item.ID, err)
	}
	return amount, nil
}

// computeUK runs the UK stack in statutory order: income tax with the
// tapered allowance, National Insurance, capital gains against the unused
// basic-rate band, then dividends stacked on top of everything else.
func (r *run) computeUK(ctx context.Context) (*UKResult, error) {
	t, err := r.totalsFor(ctx, id.JurisdictionUK)
	if err != nil {
		return nil, err
	}

	totalIncome := t.employment.Add(t.selfEmployment).Add(t.otherIncome)
	incomeTax, err := r.ukCalc.IncomeTax(uktax.IncomeTaxInput{
		TotalIncome:      totalIncome,
		ScottishResident: r.req.ScottishResident,
	})
	if err != nil {
		return nil, err
	}

	ni, err := r.ukCalc.NationalInsurance(t.employment, t.selfEmployment)
	if err != nil {
		return nil, err
	}

	cgt, err := r.computeUKGains(t, incomeTax.BasicRateBandRemaining)
	if err != nil {
		return nil, err
	}

	allDividends := t.localDividends.Add(t.foreignDividends)
	dividends, err := r.ukCalc.DividendTax(uktax.DividendInput{
		Dividends:         allDividends,
		BandWidthConsumed: incomeTax.BandWidthConsumed,
	})
	if err != nil {
		return nil, err
	}

	result := &UKResult{
		IncomeTax: incomeTax,
		NI:        ni,
		CGT:       cgt,
		Dividends: dividends,
		Relief:    decimal.Zero,
	}
	result.GrossTax = incomeTax.Bands.TotalTax.
		Add(ni.Total).
		Add(cgt.Total).
		Add(dividends.Total)
	return result, nil
}

// computeUKGains taxes property and other gains sequentially, threading the
// shared annual exemption and the shared unused basic-rate band through both
// calls.
func (r *run) computeUKGains(t totals, basicRemaining decimal.Decimal) (uktax.CGTResult, error) {
	property, err := r.ukCalc.CapitalGainsTax(uktax.CGTInput{
		Gain:                   t.propertyGains,
		Property:               true,
		BasicRateBandRemaining: basicRemaining,
	})
	if err != nil {
		return uktax.CGTResult{}, err
	}

	exemptionLeft := nonNegative(r.ukCfg.UK.CGTAnnualExemption.Sub(property.ExemptionUsed))
	bandLeft := nonNegative(basicRemaining.Sub(property.TaxableGain))
	other, err := r.ukCalc.CapitalGainsTax(uktax.CGTInput{
		Gain:                   t.otherGains,
		BasicRateBandRemaining: bandLeft,
		ExemptionRemaining:     &exemptionLeft,
	})
	if err != nil {
		return uktax.CGTResult{}, err
	}

	combined := uktax.CGTResult{
		ExemptionUsed: property.ExemptionUsed.Add(other.ExemptionUsed),
		TaxableGain:   property.TaxableGain.Add(other.TaxableGain),
		BasicTax:      property.BasicTax.Add(other.BasicTax),
		HigherTax:     property.HigherTax.Add(other.HigherTax),
	}
	combined.Total = combined.BasicTax.Add(combined.HigherTax)
	return combined, nil
}

// computeSA runs the SA stack: ordinary income including foreign dividends,
// the inclusion-rate gain on top, then local dividend withholding.
func (r *run) computeSA(ctx context.Context) (*SAResult, error) {
	t, err := r.totalsFor(ctx, id.JurisdictionSA)
	if err != nil {
		return nil, err
	}

	taxable := t.employment.Add(t.selfEmployment).Add(t.otherIncome).Add(t.foreignDividends)
	incomeTax, err := r.saCalc.IncomeTax(taxable, r.req.Age)
	if err != nil {
		return nil, err
	}

	cgt, err := r.saCalc.CapitalGainsTax(t.propertyGains.Add(t.otherGains), taxable, r.req.Age)
	if err != nil {
		return nil, err
	}

	dividends, err := r.saCalc.DividendTax(t.localDividends, t.foreignDividends)
	if err != nil {
		return nil, err
	}

	result := &SAResult{
		IncomeTax: incomeTax,
		CGT:       cgt,
		Dividends: dividends,
		Relief:    decimal.Zero,
	}
	result.GrossTax = incomeTax.TaxPayable.
		Add(cgt.CGT).
		Add(dividends.WithholdingTax)
	return result, nil
}

// applyRelief resolves the treaty residence, then credits the residence
// country's tax on each foreign-source item. Residency must already be
// determined; relief ordering depends on it.
func (r *run) applyRelief(ctx context.Context, result *TaxCalculationResult) error {
	var residence dta.Residence
	switch {
	case result.UK != nil && result.SA != nil:
		tb := r.svc.deps.DTA.Tiebreak(r.req.TiebreakFacts)
		result.DTAResidence = &tb
		result.MAPRequired = tb.MAPRequired
		residence = tb.Residence
	case result.UK != nil:
		residence = dta.ResidenceUK
	case result.SA != nil:
		residence = dta.ResidenceSA
	default:
		// Resident nowhere: nothing to credit, but the treaty outcome is
		// still part of the result.
		result.DTAResidence = &dta.DTAResidenceResult{
			Residence: dta.ResidenceNeither,
			Step:      "not_resident_either_state",
			Path: []dta.Step{{
				Rule:    "not_resident_either_state",
				Outcome: "treaty inapplicable, resident in neither state",
			}},
		}
		return nil
	}

	residenceJ, ok := residence.Jurisdiction()
	if !ok {
		result.Warnings = append(result.Warnings,
			"treaty residence undetermined; proceeding with no relief applied")
		return nil
	}

	for _, item := range r.items {
		if item.SourceCountry == residenceJ {
			continue
		}
		// The residence config is present or the residence computation
		// would have failed; the source side may be unpublished.
		if (item.SourceCountry == id.JurisdictionUK && r.ukCalc == nil) ||
			(item.SourceCountry == id.JurisdictionSA && r.saCalc == nil) {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"no %s configuration published for %s, zero relief for item %s",
				item.SourceCountry, r.req.TaxYear, item.ID))
			continue
		}
		sourceTax, err := r.estimateItemTax(ctx, item.SourceCountry, item, result)
		if err != nil {
			return err
		}
		residenceTax, err := r.estimateItemTax(ctx, residenceJ, item, result)
		if err != nil {
			return err
		}

		// The credit is granted by the residence country, so both tax
		// figures and the treaty-cap base must be in its currency before
		// they are compared.
		residenceCurrency := id.CurrencyFor(residenceJ)
		sourceTax, err = r.svc.deps.FX.Convert(ctx,
			sourceTax, id.CurrencyFor(item.SourceCountry), residenceCurrency, r.req.TaxYear)
		if err != nil {
			return fmt.Errorf("convert source tax for item %s: %w", item.ID, err)
		}
		converted := item
		converted.Currency = residenceCurrency
		converted.Amount, err = r.amountIn(ctx, item, residenceJ)
		if err != nil {
			return err
		}

		rc := r.svc.deps.DTA.Relief(residence, dta.ReliefInput{
			Item:         converted,
			Facts:        r.req.ItemFacts[item.ID.String()],
			SourceTax:    sourceTax,
			ResidenceTax: residenceTax,
		})
		result.Relief = append(result.Relief, rc)
		result.Warnings = append(result.Warnings, rc.Warnings...)

		switch rc.ReliefCountry {
		case id.JurisdictionUK:
			result.UK.Relief = result.UK.Relief.Add(rc.Credit)
		case id.JurisdictionSA:
			result.SA.Relief = result.SA.Relief.Add(rc.Credit)
		}
	}
	return nil
}

// estimateItemTax approximates one jurisdiction's tax on a single item at
// the taxpayer's marginal rates, falling back to a standalone band charge
// when the taxpayer is not resident there.
func (r *run) estimateItemTax(ctx context.Context, j id.Jurisdiction, item id.IncomeItem, result *TaxCalculationResult) (decimal.Decimal, error) {
	amount, err := r.amountIn(ctx, item, j)
	if err != nil {
		return decimal.Zero, err
	}
	if j == id.JurisdictionUK {
		return r.estimateUKItemTax(amount, item, result.UK)
	}
	return r.estimateSAItemTax(amount, item, result.SA)
}

func (r *run) estimateUKItemTax(amount decimal.Decimal, item id.IncomeItem, uk *UKResult) (decimal.Decimal, error) {
	cfg := r.ukCfg.UK
	switch item.Type {
	case id.IncomeDividend:
		rate := cfg.DividendBands[0].Rate
		if uk != nil && len(uk.Dividends.Slices) > 0 {
			rate = uk.Dividends.Slices[len(uk.Dividends.Slices)-1].Rate
		}
		return amount.Mul(rate).RoundBank(2), nil
	case id.IncomeCapitalGain:
		rate := cfg.CGTRates.OtherBasic
		if item.ImmovableProperty {
			rate = cfg.CGTRates.PropertyBasic
			if uk != nil && uk.CGT.HigherTax.IsPositive() {
				rate = cfg.CGTRates.PropertyHigher
			}
		} else if uk != nil && uk.CGT.HigherTax.IsPositive() {
			rate = cfg.CGTRates.OtherHigher
		}
		taxable := nonNegative(amount.Sub(cfg.CGTAnnualExemption))
		return taxable.Mul(rate).RoundBank(2), nil
	default:
		if uk != nil {
			return amount.Mul(uk.IncomeTax.Bands.MarginalRate).RoundBank(2), nil
		}
		standalone, err := r.ukCalc.IncomeTax(uktax.IncomeTaxInput{TotalIncome: amount})
		if err != nil {
			return decimal.Zero, err
		}
		return standalone.Bands.TotalTax, nil
	}
}

func (r *run) estimateSAItemTax(amount decimal.Decimal, item id.IncomeItem, sa *SAResult) (decimal.Decimal, error) {
	cfg := r.saCfg.SA
	switch item.Type {
	case id.IncomeDividend:
		// Only SA-source dividends face the flat withholding; foreign
		// dividends enter ordinary income, so they are priced at the
		// ordinary rates below.
		if item.SourceCountry == id.JurisdictionSA {
			return amount.Mul(cfg.DividendTaxRate).RoundBank(2), nil
		}
	case id.IncomeCapitalGain:
		included := nonNegative(amount.Sub(cfg.CGTAnnualExclusion)).Mul(cfg.CGTInclusionRate)
		if sa != nil {
			return included.Mul(sa.IncomeTax.Bands.MarginalRate).RoundBank(2), nil
		}
		standalone, err := r.saCalc.IncomeTax(included, r.req.Age)
		if err != nil {
			return decimal.Zero, err
		}
		return standalone.TaxPayable, nil
	}

	if sa != nil {
		return amount.Mul(sa.IncomeTax.Bands.MarginalRate).RoundBank(2), nil
	}
	standalone, err := r.saCalc.IncomeTax(amount, r.req.Age)
	if err != nil {
		return decimal.Zero, err
	}
	return standalone.TaxPayable, nil
}
