package uktax

import (
	"github.com/shopspring/decimal"

	dErrors "goalplan/pkg/domain-errors"
)

const weeksPerYear = 52

// NIResult breaks National Insurance down by class. NI shares no allowance
// with income tax and is computed independently of it.
type NIResult struct {
	Class1 decimal.Decimal `json:"class1"`
	Class2 decimal.Decimal `json:"class2"`
	Class4 decimal.Decimal `json:"class4"`
	Total  decimal.Decimal `json:"total"`
}

// NationalInsurance charges Class 1 on employment earnings and Class 2/4 on
// self-employment profits.
func (c *Calculator) NationalInsurance(employmentEarnings, selfEmploymentProfits decimal.Decimal) (NIResult, error) {
	if employmentEarnings.IsNegative() || selfEmploymentProfits.IsNegative() {
		return NIResult{}, dErrors.New(dErrors.CodeInvalidInput, "earnings must not be negative")
	}

	ni := c.cfg.NI
	res := NIResult{
		Class1: chargeBetween(employmentEarnings, ni.Class1PrimaryThreshold, ni.Class1UpperEarningsLimit, ni.Class1MainRate, ni.Class1UpperRate),
		Class2: decimal.Zero,
		Class4: chargeBetween(selfEmploymentProfits, ni.Class4LowerProfitsLimit, ni.Class4UpperProfitsLimit, ni.Class4MainRate, ni.Class4UpperRate),
	}
	if selfEmploymentProfits.GreaterThan(ni.Class2SmallProfitsThreshold) {
		res.Class2 = ni.Class2WeeklyRate.Mul(decimal.NewFromInt(weeksPerYear)).RoundBank(2)
	}
	res.Total = res.Class1.Add(res.Class2).Add(res.Class4)
	return res, nil
}

// chargeBetween applies mainRate to the slice between lower and upper and
// upperRate above upper. Each charge rounds to two places independently.
func chargeBetween(amount, lower, upper, mainRate, upperRate decimal.Decimal) decimal.Decimal {
	if amount.LessThanOrEqual(lower) {
		return decimal.Zero
	}
	mainSlice := decimal.Min(amount, upper).Sub(lower)
	charge := mainSlice.Mul(mainRate).RoundBank(2)
	if amount.GreaterThan(upper) {
		charge = charge.Add(amount.Sub(upper).Mul(upperRate).RoundBank(2))
	}
	return charge
}
