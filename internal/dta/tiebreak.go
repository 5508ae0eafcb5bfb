package dta

import "fmt"

// tiebreakRule is one node of the Article 4 cascade. A non-empty residence
// is terminal; empty falls through.
type tiebreakRule struct {
	name string
	eval func(TiebreakFacts) (Residence, string)
}

// tiebreakCascade is the Article 4 order: permanent home, centre of vital
// interests, habitual abode, nationality, mutual agreement procedure.
var tiebreakCascade = []tiebreakRule{
	{
		name: "permanent_home",
		eval: func(f TiebreakFacts) (Residence, string) {
			switch {
			case f.PermanentHomeUK && !f.PermanentHomeSA:
				return ResidenceUK, "permanent home in the UK only"
			case f.PermanentHomeSA && !f.PermanentHomeUK:
				return ResidenceSA, "permanent home in SA only"
			case f.PermanentHomeUK && f.PermanentHomeSA:
				return "", "permanent home in both countries"
			}
			return "", "no permanent home in either country"
		},
	},
	{
		name: "vital_interests",
		eval: func(f TiebreakFacts) (Residence, string) {
			if f.VitalInterests == ResidenceUK || f.VitalInterests == ResidenceSA {
				return f.VitalInterests, fmt.Sprintf("centre of vital interests in %s", f.VitalInterests)
			}
			return "", "centre of vital interests unclear"
		},
	},
	{
		name: "habitual_abode",
		eval: func(f TiebreakFacts) (Residence, string) {
			if f.HabitualAbode == ResidenceUK || f.HabitualAbode == ResidenceSA {
				return f.HabitualAbode, fmt.Sprintf("habitual abode in %s", f.HabitualAbode)
			}
			return "", "habitual abode in both or neither"
		},
	},
	{
		name: "nationality",
		eval: func(f TiebreakFacts) (Residence, string) {
			if f.Nationality == ResidenceUK || f.Nationality == ResidenceSA {
				return f.Nationality, fmt.Sprintf("national of %s", f.Nationality)
			}
			return "", "national of both or neither"
		},
	},
}

// Tiebreak resolves dual UK/SA residency. It never errors: an unresolved
// cascade terminates as UNDETERMINED with the mutual-agreement flag set, and
// the calculation upstream proceeds with no relief.
func (c *Calculator) Tiebreak(facts TiebreakFacts) DTAResidenceResult {
	result := DTAResidenceResult{}
	for _, rule := range tiebreakCascade {
		residence, reason := rule.eval(facts)
		if residence == "" {
			result.Path = append(result.Path, Step{Rule: rule.name, Outcome: reason})
			continue
		}
		result.Residence = residence
		result.Step = rule.name
		result.Path = append(result.Path, Step{Rule: rule.name, Outcome: reason})
		return result
	}
	result.Residence = ResidenceUndetermined
	result.Step = "mutual_agreement_procedure"
	result.MAPRequired = true
	result.Path = append(result.Path, Step{Rule: "mutual_agreement_procedure", Outcome: "requires mutual agreement procedure"})
	return result
}
