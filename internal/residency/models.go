// Package residency determines UK and SA tax residency and UK domicile from
// day counts and tie facts. The rules are ordered decision tables evaluated
// top-down; every rule evaluated is appended to a reasoning trace so the
// decision path is auditable and testable rule by rule.
package residency

import (
	id "goalplan/pkg/domain"
	dErrors "goalplan/pkg/domain-errors"
)

const maxDaysInYear = 366 // leap years

// Ties are the UK sufficient-ties indicators. The work tie is derived from
// UKWorkDays in Facts (40 or more qualifying days).
type Ties struct {
	Family         bool `json:"family"`
	Accommodation  bool `json:"accommodation"`
	NinetyDayPrior bool `json:"ninety_day_prior"`
	// CountryMoreDaysUK: more midnights in the UK than any other country.
	// Counts only for leavers.
	CountryMoreDaysUK bool `json:"country_more_days_uk"`
}

// Domicile is a declared domicile country grouping.
type Domicile string

const (
	DomicileUK    Domicile = "UK"
	DomicileSA    Domicile = "SA"
	DomicileOther Domicile = "OTHER"
)

// Facts is the immutable value object a determination runs over. It is
// supplied per call; the engine keeps no state between calls.
type Facts struct {
	TaxYear id.TaxYear `json:"tax_year"`

	DaysInUK int `json:"days_in_uk"`
	DaysInSA int `json:"days_in_sa"`

	// UK SRT inputs.
	UKWorkDays         int  `json:"uk_work_days"`
	FullTimeWorkAbroad bool `json:"full_time_work_abroad"`
	FullTimeUKWork     bool `json:"full_time_uk_work"`
	SoleUKHome         bool `json:"sole_uk_home"`
	DaysAtUKHome       int  `json:"days_at_uk_home"`
	// ResidentPrior3 is UK residency for the three prior tax years, most
	// recent first. Distinguishes arrivers from leavers.
	ResidentPrior3 [3]bool `json:"resident_prior_3"`
	Ties           Ties    `json:"ties"`

	// SA physical-presence inputs: day counts for the five prior years,
	// most recent first.
	SADaysPrior5 [5]int `json:"sa_days_prior_5"`

	// Domicile inputs.
	DomicileOfOrigin Domicile  `json:"domicile_of_origin"`
	DomicileOfChoice *Domicile `json:"domicile_of_choice,omitempty"`
	// UKResidentYearsInLast20 counts UK-resident tax years in the 20 ending
	// with the prior year.
	UKResidentYearsInLast20 int `json:"uk_resident_years_in_last_20"`
	// UKResidentInLast2 is UK residency in the two prior years, most recent
	// first. Used by the formerly-domiciled-resident rule.
	UKResidentInLast2 [2]bool `json:"uk_resident_in_last_2"`
}

// Validate rejects facts the decision tables must never see. Ambiguity is
// fine; impossibility is not.
func (f Facts) Validate() error {
	if _, err := id.ParseTaxYear(string(f.TaxYear)); err != nil {
		return err
	}
	for name, days := range map[string]int{
		"days_in_uk":      f.DaysInUK,
		"days_in_sa":      f.DaysInSA,
		"uk_work_days":    f.UKWorkDays,
		"days_at_uk_home": f.DaysAtUKHome,
	} {
		if days < 0 || days > maxDaysInYear {
			return dErrors.Newf(dErrors.CodeInvalidInput, "%s must be within [0,%d], got %d", name, maxDaysInYear, days)
		}
	}
	for i, days := range f.SADaysPrior5 {
		if days < 0 || days > maxDaysInYear {
			return dErrors.Newf(dErrors.CodeInvalidInput, "sa_days_prior_5[%d] must be within [0,%d], got %d", i, maxDaysInYear, days)
		}
	}
	if f.UKResidentYearsInLast20 < 0 || f.UKResidentYearsInLast20 > 20 {
		return dErrors.Newf(dErrors.CodeInvalidInput, "uk_resident_years_in_last_20 must be within [0,20], got %d", f.UKResidentYearsInLast20)
	}
	switch f.DomicileOfOrigin {
	case DomicileUK, DomicileSA, DomicileOther:
	default:
		return dErrors.Newf(dErrors.CodeInvalidInput, "unknown domicile of origin %q", f.DomicileOfOrigin)
	}
	return nil
}

// arriver reports whether the taxpayer was non-resident throughout the prior
// three years. The sufficient-ties thresholds differ for arrivers, and the
// country tie does not apply to them.
func (f Facts) arriver() bool {
	return !f.ResidentPrior3[0] && !f.ResidentPrior3[1] && !f.ResidentPrior3[2]
}

// workTie is the 40-day work tie.
func (f Facts) workTie() bool { return f.UKWorkDays >= 40 }

// Step is one evaluated rule in the decision path.
type Step struct {
	Rule    string `json:"rule"`
	Outcome string `json:"outcome"`
}

// Outcomes recorded in the decision path.
const (
	OutcomeNotMet      = "not_met"
	OutcomeResident    = "resident"
	OutcomeNonResident = "non_resident"
)

// Determination is the authoritative residency result for one tax year.
// Superseded determinations are retained by the store, never deleted.
type Determination struct {
	TaxYear id.TaxYear `json:"tax_year"`

	UKResident bool   `json:"uk_resident"`
	UKRule     string `json:"uk_rule"`
	SAResident bool   `json:"sa_resident"`
	SARule     string `json:"sa_rule"`

	Domicile DomicileStatus `json:"domicile"`

	// Path is every rule evaluated, in order, across all three tables.
	Path      []Step   `json:"path"`
	Reasoning []string `json:"reasoning"`
}

// DomicileStatus is declared domicile plus the purely-additive deemed flag.
type DomicileStatus struct {
	Domicile Domicile `json:"domicile"`
	Deemed   bool     `json:"deemed"`
	Basis    string   `json:"basis"`
}
