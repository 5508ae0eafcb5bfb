package residency

import "fmt"

// saPresenceRules is the SA physical-presence test: resident only if the
// current year exceeds 91 days AND the six-year average (current plus five
// prior) exceeds 91. Either failing is terminal non-residence regardless of
// the other, so the current-year gate runs first.
var saPresenceRules = []srtRule{
	{
		name: "sa_presence_current_year",
		eval: func(f Facts) (bool, bool, string) {
			if f.DaysInSA <= 91 {
				return false, true, fmt.Sprintf("%d SA days this year is not over 91", f.DaysInSA)
			}
			return false, false, ""
		},
	},
	{
		name: "sa_presence_six_year_average",
		eval: func(f Facts) (bool, bool, string) {
			total := f.DaysInSA
			for _, days := range f.SADaysPrior5 {
				total += days
			}
			// Compare the sum against 91*6 rather than dividing, so
			// 366-day leap years introduce no fractional drift.
			if total > 91*6 {
				return true, true, fmt.Sprintf("six-year total of %d SA days exceeds %d", total, 91*6)
			}
			return false, true, fmt.Sprintf("six-year total of %d SA days does not exceed %d", total, 91*6)
		},
	},
}
