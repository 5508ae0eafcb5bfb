package handler

import (
	"goalplan/internal/dta"
	"goalplan/internal/liability"
	"goalplan/internal/residency"
	"goalplan/internal/scenario"
	id "goalplan/pkg/domain"
	dErrors "goalplan/pkg/domain-errors"
)

// CalculateRequest is the wire form of a composite calculation request. The
// user comes from the bearer token, never the body.
type CalculateRequest struct {
	TaxYear          string `json:"tax_year"`
	Age              int    `json:"age"`
	ScottishResident bool   `json:"scottish_resident"`

	TiebreakFacts dta.TiebreakFacts        `json:"tiebreak_facts"`
	ItemFacts     map[string]dta.ItemFacts `json:"item_facts,omitempty"`

	PinnedConfigVersions map[string]string `json:"pinned_config_versions,omitempty"`
}

func (r CalculateRequest) Validate() error {
	if _, err := id.ParseTaxYear(r.TaxYear); err != nil {
		return err
	}
	if r.Age < 0 || r.Age > 150 {
		return dErrors.Newf(dErrors.CodeInvalidInput, "implausible age %d", r.Age)
	}
	return nil
}

// ToDomain builds the service request for the authenticated user.
func (r CalculateRequest) ToDomain(userID id.UserID) liability.TaxCalculationRequest {
	return liability.TaxCalculationRequest{
		UserID:               userID,
		TaxYear:              id.TaxYear(r.TaxYear),
		Age:                  r.Age,
		ScottishResident:     r.ScottishResident,
		TiebreakFacts:        r.TiebreakFacts,
		ItemFacts:            r.ItemFacts,
		PinnedConfigVersions: r.PinnedConfigVersions,
	}
}

// ScenarioRequest is the wire form of a what-if batch: the base calculation
// request plus the variants to fan out over it.
type ScenarioRequest struct {
	CalculateRequest
	Variants []scenario.Variant `json:"variants"`
}

func (r ScenarioRequest) Validate() error {
	if err := r.CalculateRequest.Validate(); err != nil {
		return err
	}
	if len(r.Variants) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "at least one variant is required")
	}
	return nil
}

func (r ScenarioRequest) ToDomain(userID id.UserID) scenario.Batch {
	return scenario.Batch{
		Base:     r.CalculateRequest.ToDomain(userID),
		Variants: r.Variants,
	}
}

// DetermineRequest wraps residency facts for the determination endpoint.
type DetermineRequest struct {
	Facts residency.Facts `json:"facts"`
}

func (r DetermineRequest) Validate() error {
	return r.Facts.Validate()
}
