// Package liability orchestrates a full composite calculation: gather
// income and residency facts upfront, determine residency, run the UK and
// SA calculators, resolve treaty relief, aggregate net liability and write
// one audit record. Everything inside the calculation region is pure over
// the gathered inputs and a pinned config snapshot.
package liability

import (
	"github.com/shopspring/decimal"

	"goalplan/internal/dta"
	"goalplan/internal/residency"
	"goalplan/internal/satax"
	"goalplan/internal/uktax"
	id "goalplan/pkg/domain"
	dErrors "goalplan/pkg/domain-errors"
)

// TaxCalculationRequest drives one composite calculation. Income items and
// residency facts come from the ledgers, not the request; the request only
// carries what the ledgers cannot know.
type TaxCalculationRequest struct {
	UserID  id.UserID  `json:"user_id"`
	TaxYear id.TaxYear `json:"tax_year"`
	Age     int        `json:"age"`

	ScottishResident bool `json:"scottish_resident"`

	// TiebreakFacts feed the treaty cascade when both residencies hold.
	TiebreakFacts dta.TiebreakFacts `json:"tiebreak_facts"`
	// ItemFacts carry per-item treaty inputs, keyed by income item ID.
	// Missing entries take the conservative defaults.
	ItemFacts map[string]dta.ItemFacts `json:"item_facts,omitempty"`

	// PinnedConfigVersions replays a historical calculation against the
	// exact config versions its audit record names. Empty means current.
	PinnedConfigVersions map[string]string `json:"pinned_config_versions,omitempty"`
}

func (r TaxCalculationRequest) Validate() error {
	if r.UserID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "user_id is required")
	}
	if _, err := id.ParseTaxYear(string(r.TaxYear)); err != nil {
		return err
	}
	if r.Age < 0 || r.Age > 150 {
		return dErrors.Newf(dErrors.CodeInvalidInput, "implausible age %d", r.Age)
	}
	return nil
}

// UKResult is the UK side of the composite result. The band breakdown and
// marginal/effective rates live inside IncomeTax.Bands.
type UKResult struct {
	IncomeTax uktax.IncomeTaxResult `json:"income_tax"`
	NI        uktax.NIResult        `json:"national_insurance"`
	CGT       uktax.CGTResult       `json:"capital_gains_tax"`
	Dividends uktax.DividendResult  `json:"dividend_tax"`
	GrossTax  decimal.Decimal       `json:"gross_tax"`
	Relief    decimal.Decimal       `json:"relief"`
	NetTax    decimal.Decimal       `json:"net_tax"`
}

// SAResult is the SA side of the composite result.
type SAResult struct {
	IncomeTax satax.IncomeTaxResult `json:"income_tax"`
	CGT       satax.CGTResult       `json:"capital_gains_tax"`
	Dividends satax.DividendResult  `json:"dividend_tax"`
	GrossTax  decimal.Decimal       `json:"gross_tax"`
	Relief    decimal.Decimal       `json:"relief"`
	NetTax    decimal.Decimal       `json:"net_tax"`
}

// TaxCalculationResult is the composite outcome. Identical requests against
// identical config versions reproduce it exactly; only AuditRecordID is
// minted per run (a cache hit returns the original).
type TaxCalculationResult struct {
	TaxYear        id.TaxYear              `json:"tax_year"`
	Residency      residency.Determination `json:"residency"`
	DTAResidence   *dta.DTAResidenceResult `json:"dta_residence,omitempty"`
	UK             *UKResult               `json:"uk,omitempty"`
	SA             *SAResult               `json:"sa,omitempty"`
	Relief         []dta.ReliefCalculation `json:"relief,omitempty"`
	TotalTax       decimal.Decimal         `json:"total_tax"`
	ConfigVersions map[string]string       `json:"config_versions"`

	// Warnings carry per-item degradations (unmappable treaty articles)
	// and the mutual-agreement advisory. They never abort a calculation.
	Warnings    []string `json:"warnings,omitempty"`
	MAPRequired bool     `json:"map_required,omitempty"`

	AuditRecordID id.AuditRecordID `json:"audit_record_id"`
}
