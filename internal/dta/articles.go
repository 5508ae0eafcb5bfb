package dta

import (
	"github.com/shopspring/decimal"

	id "goalplan/pkg/domain"
	dErrors "goalplan/pkg/domain-errors"
)

// Treaty rate caps on source-country tax for shared-rights articles.
var (
	dividendCapConnected = decimal.RequireFromString("0.05")
	dividendCapPortfolio = decimal.RequireFromString("0.10")
	interestCap          = decimal.RequireFromString("0.10")
)

// categorize maps an income item to its treaty article. Items that map to no
// article return an error; the relief layer degrades that to zero relief
// with a warning instead of aborting the calculation.
func categorize(item id.IncomeItem, facts ItemFacts) (Article, error) {
	switch item.Type {
	case id.IncomeEmployment:
		return employmentArticle(facts), nil
	case id.IncomeSelfEmployment:
		// Business profits are taxable at source only through a permanent
		// establishment there. Undetermined defaults to present.
		if pe := facts.PermanentEstablishment; pe != nil && !*pe {
			return Article{Name: "business_profits", Rights: RightsResidenceExclusive}, nil
		}
		return Article{Name: "business_profits", Rights: RightsSourcePrimary}, nil
	case id.IncomeDividend:
		cap := dividendCapPortfolio
		if c := facts.ConnectedPerson; c != nil && *c {
			cap = dividendCapConnected
		}
		return Article{Name: "dividends", Rights: RightsSourcePrimary, SourceRateCap: &cap}, nil
	case id.IncomeInterest:
		cap := interestCap
		return Article{Name: "interest", Rights: RightsSourcePrimary, SourceRateCap: &cap}, nil
	case id.IncomeCapitalGain:
		if item.ImmovableProperty {
			return Article{Name: "capital_gains_immovable_property", Rights: RightsSourcePrimary}, nil
		}
		return Article{Name: "capital_gains", Rights: RightsResidenceExclusive}, nil
	case id.IncomePension:
		if item.GovernmentPension {
			if facts.NationalOfResidence {
				return Article{Name: "government_pensions", Rights: RightsResidenceExclusive}, nil
			}
			return Article{Name: "government_pensions", Rights: RightsSourcePrimary}, nil
		}
		return Article{Name: "pensions", Rights: RightsResidenceExclusive}, nil
	}
	return Article{}, dErrors.Newf(dErrors.CodeInvalidInput, "income type %q maps to no treaty article", item.Type)
}

// employmentArticle applies the 183-day rule: the residence country keeps
// exclusive rights only when the stay is short, the employer is not resident
// in the source country and there is no permanent establishment there.
// An undetermined permanent establishment defaults to present.
func employmentArticle(facts ItemFacts) Article {
	peAbsent := facts.PermanentEstablishment != nil && !*facts.PermanentEstablishment
	if facts.DaysInSourceCountry < 183 && !facts.EmployerResidentInSource && peAbsent {
		return Article{Name: "employment", Rights: RightsResidenceExclusive}
	}
	return Article{Name: "employment", Rights: RightsSourcePrimary}
}
