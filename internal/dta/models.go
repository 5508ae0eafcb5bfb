// Package dta resolves dual residency under the UK/SA double tax agreement
// and computes foreign-tax-credit relief per income item. The tie-breaker is
// an ordered cascade in the style of the residency decision tables; an
// unresolvable cascade is a valid terminal state, not an error.
package dta

import (
	"github.com/shopspring/decimal"

	id "goalplan/pkg/domain"
)

// Residence is a tie-breaker outcome.
type Residence string

const (
	ResidenceUK           Residence = "UK"
	ResidenceSA           Residence = "SA"
	ResidenceNeither      Residence = "NEITHER"
	ResidenceUndetermined Residence = "UNDETERMINED"
)

// Jurisdiction maps a resolved residence onto a tax regime. Only UK and SA
// outcomes have one.
func (r Residence) Jurisdiction() (id.Jurisdiction, bool) {
	switch r {
	case ResidenceUK:
		return id.JurisdictionUK, true
	case ResidenceSA:
		return id.JurisdictionSA, true
	}
	return "", false
}

// TiebreakFacts are the Article 4 inputs. The Residence-typed fields carry
// the country each factor points to, or empty when the factor is unclear and
// the cascade should fall through.
type TiebreakFacts struct {
	PermanentHomeUK bool `json:"permanent_home_uk"`
	PermanentHomeSA bool `json:"permanent_home_sa"`

	VitalInterests Residence `json:"vital_interests,omitempty"`
	HabitualAbode  Residence `json:"habitual_abode,omitempty"`
	Nationality    Residence `json:"nationality,omitempty"`
}

// Step is one evaluated cascade node.
type Step struct {
	Rule    string `json:"rule"`
	Outcome string `json:"outcome"`
}

// DTAResidenceResult is the tie-breaker outcome plus the step that resolved
// it. MAPRequired flags an UNDETERMINED outcome for advisor follow-up under
// the mutual agreement procedure.
type DTAResidenceResult struct {
	Residence   Residence `json:"residence"`
	Step        string    `json:"step"`
	MAPRequired bool      `json:"map_required"`
	Path        []Step    `json:"path"`
}

// TaxingRights classifies who may tax an income item under its treaty
// article.
type TaxingRights string

const (
	// RightsSourcePrimary: the source country taxes and the residence
	// country grants a credit.
	RightsSourcePrimary TaxingRights = "source_primary"
	// RightsResidenceExclusive: only the residence country taxes; no
	// relief arises.
	RightsResidenceExclusive TaxingRights = "residence_exclusive"
)

// Article is the taxing-rights rule an income item mapped to. SourceRateCap,
// when set, limits the source-country tax creditable against residence tax.
type Article struct {
	Name          string
	Rights        TaxingRights
	SourceRateCap *decimal.Decimal
}

// ItemFacts carry the per-item treaty inputs that need human or collaborator
// judgment. Nil pointer fields mean "not determined" and default to the
// conservative reading (the one producing the most tax).
type ItemFacts struct {
	// Employment: days the employee worked in the source country.
	DaysInSourceCountry int `json:"days_in_source_country"`
	// Employment: whether the employer is resident in the source country.
	EmployerResidentInSource bool `json:"employer_resident_in_source"`
	// Employment and business profits: whether the payer has a permanent
	// establishment in the source country. Nil defaults to present.
	PermanentEstablishment *bool `json:"permanent_establishment,omitempty"`
	// Dividends: connected-person holdings qualify for the reduced treaty
	// rate. Nil defaults to not connected.
	ConnectedPerson *bool `json:"connected_person,omitempty"`
	// Government pensions: a beneficiary who is a national of the
	// residence country is taxed there instead of at source.
	NationalOfResidence bool `json:"national_of_residence"`
}

// ReliefInput is one income item with the tax each side charges on it,
// computed upstream at the taxpayer's marginal rates.
type ReliefInput struct {
	Item  id.IncomeItem
	Facts ItemFacts
	// SourceTax is the source country's tax on this item.
	SourceTax decimal.Decimal
	// ResidenceTax is the residence country's tax on this item before any
	// relief.
	ResidenceTax decimal.Decimal
}

// ReliefCalculation is the per-item relief result. Credit is never negative
// and never exceeds either side's tax.
type ReliefCalculation struct {
	ItemID       string          `json:"item_id"`
	Article      string          `json:"article"`
	SourceTax    decimal.Decimal `json:"source_tax"`
	ResidenceTax decimal.Decimal `json:"residence_tax"`
	Credit       decimal.Decimal `json:"credit"`
	// ReliefCountry is the country granting the credit, empty when no
	// relief arises.
	ReliefCountry id.Jurisdiction `json:"relief_country,omitempty"`
	Warnings      []string        `json:"warnings,omitempty"`
}
