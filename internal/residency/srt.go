package residency

import "fmt"

// ukSRTRules is the Statutory Residence Test as an ordered decision table:
// automatic overseas tests, then automatic UK tests, then the sufficient
// ties test. First terminal rule wins.
var ukSRTRules = []srtRule{
	{
		name: "srt_automatic_overseas_days_under_16",
		eval: func(f Facts) (bool, bool, string) {
			if f.DaysInUK < 16 {
				return false, true, fmt.Sprintf("%d UK days is under 16", f.DaysInUK)
			}
			return false, false, ""
		},
	},
	{
		name: "srt_automatic_overseas_arriver_days_under_46",
		eval: func(f Facts) (bool, bool, string) {
			if f.arriver() && f.DaysInUK < 46 {
				return false, true, fmt.Sprintf("non-resident in all 3 prior years and %d UK days is under 46", f.DaysInUK)
			}
			return false, false, ""
		},
	},
	{
		name: "srt_automatic_overseas_full_time_work_abroad",
		eval: func(f Facts) (bool, bool, string) {
			if f.FullTimeWorkAbroad && f.DaysInUK < 91 && f.UKWorkDays <= 30 {
				return false, true, fmt.Sprintf("full-time work abroad with %d UK days and %d UK work days", f.DaysInUK, f.UKWorkDays)
			}
			return false, false, ""
		},
	},
	{
		name: "srt_automatic_uk_days_183_or_more",
		eval: func(f Facts) (bool, bool, string) {
			if f.DaysInUK >= 183 {
				return true, true, fmt.Sprintf("%d UK days is 183 or more", f.DaysInUK)
			}
			return false, false, ""
		},
	},
	{
		name: "srt_automatic_uk_only_home",
		eval: func(f Facts) (bool, bool, string) {
			if f.SoleUKHome && f.DaysAtUKHome >= 30 {
				return true, true, fmt.Sprintf("only home is in the UK and present there %d days", f.DaysAtUKHome)
			}
			return false, false, ""
		},
	},
	{
		name: "srt_automatic_uk_full_time_work",
		eval: func(f Facts) (bool, bool, string) {
			if f.FullTimeUKWork {
				return true, true, "works full-time in the UK"
			}
			return false, false, ""
		},
	},
	{
		name: "srt_sufficient_ties",
		eval: evalSufficientTies,
	},
}

// tiesThreshold is one row of the day-count-banded threshold table: with
// days in [minDays, maxDays], at least tiesNeeded ties make the taxpayer
// resident. A tiesNeeded above the possible tie count means no number of
// ties suffices in that day band.
type tiesThreshold struct {
	minDays, maxDays int
	tiesNeeded       int
}

// Arrivers have at most 4 possible ties (no country tie) and stricter
// thresholds than leavers.
var arriverThresholds = []tiesThreshold{
	{16, 45, 5},
	{46, 90, 4},
	{91, 120, 3},
	{121, 182, 2},
}

var leaverThresholds = []tiesThreshold{
	{16, 45, 4},
	{46, 90, 3},
	{91, 120, 2},
	{121, 182, 1},
}

// evalSufficientTies is the catch-all of the UK table: the automatic tests
// left 16..182 days unresolved for leavers and 46..182 for arrivers, and
// every day count in that range falls in exactly one threshold row.
func evalSufficientTies(f Facts) (bool, bool, string) {
	count := 0
	if f.Ties.Family {
		count++
	}
	if f.Ties.Accommodation {
		count++
	}
	if f.workTie() {
		count++
	}
	if f.Ties.NinetyDayPrior {
		count++
	}
	leaver := !f.arriver()
	if leaver && f.Ties.CountryMoreDaysUK {
		count++
	}

	thresholds := arriverThresholds
	class := "arriver"
	if leaver {
		thresholds = leaverThresholds
		class = "leaver"
	}
	for _, row := range thresholds {
		if f.DaysInUK >= row.minDays && f.DaysInUK <= row.maxDays {
			if count >= row.tiesNeeded {
				return true, true, fmt.Sprintf("%s with %d UK days and %d ties (needs %d)", class, f.DaysInUK, count, row.tiesNeeded)
			}
			return false, true, fmt.Sprintf("%s with %d UK days and %d ties (needs %d)", class, f.DaysInUK, count, row.tiesNeeded)
		}
	}
	return false, true, fmt.Sprintf("%s with %d UK days matches no ties threshold row", class, f.DaysInUK)
}
