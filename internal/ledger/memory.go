package ledger

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"goalplan/internal/residency"
	id "goalplan/pkg/domain"
	dErrors "goalplan/pkg/domain-errors"
)

type key struct {
	user id.UserID
	year id.TaxYear
}

// InMemoryIncomeLedger holds income snapshots keyed by user and tax year.
// Backs tests and single-node deployments where the real ledger service is
// not wired.
type InMemoryIncomeLedger struct {
	mu    sync.RWMutex
	items map[key][]id.IncomeItem
}

func NewInMemoryIncomeLedger() *InMemoryIncomeLedger {
	return &InMemoryIncomeLedger{items: make(map[key][]id.IncomeItem)}
}

// Put replaces the user's items for the year.
func (l *InMemoryIncomeLedger) Put(userID id.UserID, year id.TaxYear, items []id.IncomeItem) {
	l.mu.Lock()
	defer l.mu.Unlock()
	copied := make([]id.IncomeItem, len(items))
	copy(copied, items)
	l.items[key{user: userID, year: year}] = copied
}

// ListIncome returns a copy of the stored snapshot. A user with no items is
// an empty list, not an error.
func (l *InMemoryIncomeLedger) ListIncome(ctx context.Context, userID id.UserID, year id.TaxYear) ([]id.IncomeItem, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	stored := l.items[key{user: userID, year: year}]
	out := make([]id.IncomeItem, len(stored))
	copy(out, stored)
	return out, nil
}

// InMemoryFactsProvider holds residency facts keyed by user and tax year.
type InMemoryFactsProvider struct {
	mu    sync.RWMutex
	facts map[key]residency.Facts
}

func NewInMemoryFactsProvider() *InMemoryFactsProvider {
	return &InMemoryFactsProvider{facts: make(map[key]residency.Facts)}
}

func (p *InMemoryFactsProvider) Put(userID id.UserID, facts residency.Facts) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.facts[key{user: userID, year: facts.TaxYear}] = facts
}

// DayCounts fails with NotFound when no facts were recorded; residency can
// never be determined from nothing.
func (p *InMemoryFactsProvider) DayCounts(ctx context.Context, userID id.UserID, year id.TaxYear) (residency.Facts, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	facts, ok := p.facts[key{user: userID, year: year}]
	if !ok {
		return residency.Facts{}, dErrors.Newf(dErrors.CodeNotFound, "no residency facts for %s %s", userID, year)
	}
	return facts, nil
}

// StaticFXConverter converts with a fixed rate table keyed by currency pair.
// Rates are per unit of the from currency.
type StaticFXConverter struct {
	mu    sync.RWMutex
	rates map[[2]id.Currency]decimal.Decimal
}

func NewStaticFXConverter() *StaticFXConverter {
	return &StaticFXConverter{rates: make(map[[2]id.Currency]decimal.Decimal)}
}

// SetRate records the rate for from->to and its reciprocal.
func (c *StaticFXConverter) SetRate(from, to id.Currency, rate decimal.Decimal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rates[[2]id.Currency{from, to}] = rate
	if !rate.IsZero() {
		c.rates[[2]id.Currency{to, from}] = decimal.NewFromInt(1).Div(rate)
	}
}

func (c *StaticFXConverter) Convert(ctx context.Context, amount decimal.Decimal, from, to id.Currency, year id.TaxYear) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	rate, ok := c.rates[[2]id.Currency{from, to}]
	if !ok {
		return decimal.Zero, dErrors.Newf(dErrors.CodeInvalidInput, "no conversion rate from %s to %s", from, to)
	}
	return amount.Mul(rate).RoundBank(2), nil
}
