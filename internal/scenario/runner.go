// Package scenario runs what-if batches: one base calculation request fanned
// out across named variants, so a user can compare tax outcomes of moves they
// have not made yet (a different treaty home, a later year's tables).
package scenario

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"goalplan/internal/audit"
	"goalplan/internal/dta"
	"goalplan/internal/liability"
	id "goalplan/pkg/domain"
	dErrors "goalplan/pkg/domain-errors"
)

// defaultParallelism bounds concurrent variant runs when the caller does not.
const defaultParallelism = 4

// Calculator is the composite calculation the runner fans out over.
type Calculator interface {
	Calculate(ctx context.Context, req liability.TaxCalculationRequest) (*liability.TaxCalculationResult, error)
}

// Variant overrides parts of the base request. Nil fields inherit the base.
type Variant struct {
	Name string `json:"name"`

	Age              *int               `json:"age,omitempty"`
	ScottishResident *bool              `json:"scottish_resident,omitempty"`
	TiebreakFacts    *dta.TiebreakFacts `json:"tiebreak_facts,omitempty"`

	ItemFacts            map[string]dta.ItemFacts `json:"item_facts,omitempty"`
	PinnedConfigVersions map[string]string        `json:"pinned_config_versions,omitempty"`
}

func (v Variant) apply(base liability.TaxCalculationRequest) liability.TaxCalculationRequest {
	req := base
	if v.Age != nil {
		req.Age = *v.Age
	}
	if v.ScottishResident != nil {
		req.ScottishResident = *v.ScottishResident
	}
	if v.TiebreakFacts != nil {
		req.TiebreakFacts = *v.TiebreakFacts
	}
	if v.ItemFacts != nil {
		req.ItemFacts = v.ItemFacts
	}
	if v.PinnedConfigVersions != nil {
		req.PinnedConfigVersions = v.PinnedConfigVersions
	}
	return req
}

// Batch is one what-if run: a base request plus the variants to compare.
type Batch struct {
	Base     liability.TaxCalculationRequest `json:"base"`
	Variants []Variant                       `json:"variants"`
}

func (b Batch) validate() error {
	if err := b.Base.Validate(); err != nil {
		return err
	}
	if len(b.Variants) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "batch has no variants")
	}
	seen := make(map[string]struct{}, len(b.Variants))
	for _, v := range b.Variants {
		if v.Name == "" {
			return dErrors.New(dErrors.CodeInvalidInput, "variant name is required")
		}
		if _, dup := seen[v.Name]; dup {
			return dErrors.Newf(dErrors.CodeInvalidInput, "duplicate variant name %q", v.Name)
		}
		seen[v.Name] = struct{}{}
	}
	return nil
}

// Outcome is one variant's result. Exactly one of Result and Error is set.
type Outcome struct {
	Name   string                          `json:"name"`
	Result *liability.TaxCalculationResult `json:"result,omitempty"`
	Error  string                          `json:"error,omitempty"`
}

// Runner fans a batch out over the calculator with bounded parallelism.
type Runner struct {
	calc        Calculator
	inbox       chan<- audit.CalculationAuditRecord
	parallelism int
	logger      *slog.Logger
}

// NewRunner builds a runner. The inbox feeds the audit worker and may be nil
// when batch summaries need no durable trail (tests).
func NewRunner(calc Calculator, inbox chan<- audit.CalculationAuditRecord, parallelism int, logger *slog.Logger) *Runner {
	if parallelism <= 0 {
		parallelism = defaultParallelism
	}
	return &Runner{calc: calc, inbox: inbox, parallelism: parallelism, logger: logger}
}

// Run executes every variant and returns outcomes in input order. A variant
// that fails on its own data records the failure and the batch continues; a
// misdefined batch (bad input, missing config) cancels the remaining runs and
// fails the whole batch, since every variant shares that definition.
func (r *Runner) Run(ctx context.Context, batch Batch) ([]Outcome, error) {
	if err := batch.validate(); err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, len(batch.Variants))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallelism)

	for i, variant := range batch.Variants {
		i, variant := i, variant
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result, err := r.calc.Calculate(gctx, variant.apply(batch.Base))
			switch {
			case err == nil:
				outcomes[i] = Outcome{Name: variant.Name, Result: result}
			case fatal(err):
				return fmt.Errorf("variant %q: %w", variant.Name, err)
			default:
				outcomes[i] = Outcome{Name: variant.Name, Error: err.Error()}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.recordBatch(ctx, batch, outcomes)
	return outcomes, nil
}

// fatal reports errors caused by the batch definition rather than one
// variant's data.
func fatal(err error) bool {
	return dErrors.HasCode(err, dErrors.CodeInvalidInput) ||
		dErrors.HasCode(err, dErrors.CodeConfigNotFound)
}

// recordBatch hands a summary record to the audit worker. Batches are
// advisory what-ifs, so a full inbox drops the summary rather than stalling
// the caller.
func (r *Runner) recordBatch(ctx context.Context, batch Batch, outcomes []Outcome) {
	if r.inbox == nil {
		return
	}
	request, err := json.Marshal(batch)
	if err != nil {
		r.logger.ErrorContext(ctx, "marshal scenario batch", "error", err)
		return
	}
	result, err := json.Marshal(summarize(outcomes))
	if err != nil {
		r.logger.ErrorContext(ctx, "marshal scenario outcomes", "error", err)
		return
	}

	record := audit.CalculationAuditRecord{
		ID:        id.NewAuditRecordID(),
		UserID:    batch.Base.UserID,
		TaxYear:   batch.Base.TaxYear,
		CreatedAt: time.Now().UTC(),
		Request:   request,
		Result:    result,
	}
	select {
	case r.inbox <- record:
	default:
		r.logger.WarnContext(ctx, "audit inbox full, dropping scenario summary",
			"user_id", batch.Base.UserID.String(),
		)
	}
}

// summary strips full results down to the figures a comparison needs.
type summary struct {
	Name          string `json:"name"`
	TotalTax      string `json:"total_tax,omitempty"`
	AuditRecordID string `json:"audit_record_id,omitempty"`
	Error         string `json:"error,omitempty"`
}

func summarize(outcomes []Outcome) []summary {
	out := make([]summary, len(outcomes))
	for i, o := range outcomes {
		out[i] = summary{Name: o.Name, Error: o.Error}
		if o.Result != nil {
			out[i].TotalTax = o.Result.TotalTax.String()
			out[i].AuditRecordID = o.Result.AuditRecordID.String()
		}
	}
	return out
}
