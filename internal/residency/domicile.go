package residency

import "fmt"

// determineDomicile resolves declared domicile and the deemed-domicile flag.
// Deemed domicile is purely additive: it widens tax-liability scope but
// never changes the declared domicile itself.
func (e *Engine) determineDomicile(f Facts, det *Determination) DomicileStatus {
	declared := f.DomicileOfOrigin
	basis := "origin"
	if f.DomicileOfChoice != nil {
		declared = *f.DomicileOfChoice
		basis = "choice"
	}

	status := DomicileStatus{Domicile: declared, Basis: basis}

	// 15-of-20 long-term residence rule.
	if f.UKResidentYearsInLast20 >= 15 {
		status.Deemed = true
		det.Path = append(det.Path, Step{Rule: "domicile_deemed_15_of_20", Outcome: "deemed"})
		det.Reasoning = append(det.Reasoning,
			fmt.Sprintf("domicile_deemed_15_of_20: UK resident %d of the last 20 tax years", f.UKResidentYearsInLast20))
		return status
	}
	det.Path = append(det.Path, Step{Rule: "domicile_deemed_15_of_20", Outcome: OutcomeNotMet})

	// Formerly-domiciled resident: UK domicile of origin and resident in
	// at least one of the last two years.
	if f.DomicileOfOrigin == DomicileUK && (f.UKResidentInLast2[0] || f.UKResidentInLast2[1]) {
		status.Deemed = true
		det.Path = append(det.Path, Step{Rule: "domicile_deemed_origin_recent_resident", Outcome: "deemed"})
		det.Reasoning = append(det.Reasoning,
			"domicile_deemed_origin_recent_resident: UK domicile of origin and UK resident in one of the last 2 years")
		return status
	}
	det.Path = append(det.Path, Step{Rule: "domicile_deemed_origin_recent_resident", Outcome: OutcomeNotMet})

	det.Reasoning = append(det.Reasoning,
		fmt.Sprintf("domicile: declared %s by %s, not deemed UK-domiciled", declared, basis))
	return status
}
