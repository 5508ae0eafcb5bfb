// Package ledger defines the collaborator ports the calculation core reads
// from: the income ledger, the residency-facts provider and currency
// conversion. The core only ever sees read-only snapshots; it never writes
// back through these interfaces.
package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"goalplan/internal/residency"
	id "goalplan/pkg/domain"
)

// IncomeLedger lists a user's income items for a tax year.
type IncomeLedger interface {
	ListIncome(ctx context.Context, userID id.UserID, year id.TaxYear) ([]id.IncomeItem, error)
}

// ResidencyFactsProvider supplies day counts and tie indicators per tax
// year.
type ResidencyFactsProvider interface {
	DayCounts(ctx context.Context, userID id.UserID, year id.TaxYear) (residency.Facts, error)
}

// FXConverter converts amounts between currencies at the rate for the tax
// year. Identity conversions must be exact.
type FXConverter interface {
	Convert(ctx context.Context, amount decimal.Decimal, from, to id.Currency, year id.TaxYear) (decimal.Decimal, error)
}
