package residency

import "fmt"

// Engine evaluates the UK SRT, the SA physical-presence test and the UK
// domicile rules. It is stateless: the rules are centralized here so they
// stay testable one table at a time.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// srtRule is one node of an ordered decision table. It either returns a
// terminal outcome (terminal=true) or falls through to the next rule.
type srtRule struct {
	name string
	eval func(Facts) (resident bool, terminal bool, reason string)
}

// Determine runs all three decision tables over the facts. It only errors on
// invalid input; ambiguous facts always produce a defined terminal state.
func (e *Engine) Determine(facts Facts) (Determination, error) {
	if err := facts.Validate(); err != nil {
		return Determination{}, err
	}

	det := Determination{TaxYear: facts.TaxYear}

	det.UKResident, det.UKRule = e.runTable(ukSRTRules, facts, &det)
	det.SAResident, det.SARule = e.runTable(saPresenceRules, facts, &det)
	det.Domicile = e.determineDomicile(facts, &det)

	return det, nil
}

// runTable evaluates rules top-down, appending every evaluated node to the
// decision path. The final rule of every table is a catch-all, so the walk
// always terminates in a defined state.
func (e *Engine) runTable(rules []srtRule, facts Facts, det *Determination) (bool, string) {
	for _, rule := range rules {
		resident, terminal, reason := rule.eval(facts)
		if !terminal {
			det.Path = append(det.Path, Step{Rule: rule.name, Outcome: OutcomeNotMet})
			continue
		}
		outcome := OutcomeNonResident
		if resident {
			outcome = OutcomeResident
		}
		det.Path = append(det.Path, Step{Rule: rule.name, Outcome: outcome})
		det.Reasoning = append(det.Reasoning, fmt.Sprintf("%s: %s", rule.name, reason))
		return resident, rule.name
	}
	// Unreachable: every table ends in a catch-all.
	return false, "unterminated"
}
