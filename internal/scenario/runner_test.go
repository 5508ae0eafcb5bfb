package scenario

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goalplan/internal/audit"
	"goalplan/internal/dta"
	"goalplan/internal/liability"
	id "goalplan/pkg/domain"
	dErrors "goalplan/pkg/domain-errors"
)

// scriptedCalculator maps variant ages to canned responses, which gives each
// variant a distinguishable outcome without real tax tables.
type scriptedCalculator struct {
	mu    sync.Mutex
	calls []liability.TaxCalculationRequest
	run   func(req liability.TaxCalculationRequest) (*liability.TaxCalculationResult, error)
}

func (c *scriptedCalculator) Calculate(ctx context.Context, req liability.TaxCalculationRequest) (*liability.TaxCalculationResult, error) {
	c.mu.Lock()
	c.calls = append(c.calls, req)
	c.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.run(req)
}

func testUserID(t *testing.T) id.UserID {
	t.Helper()
	userID, err := id.ParseUserID("7d3fb1f6-6f39-4e68-9df5-4f26a14b7a01")
	require.NoError(t, err)
	return userID
}

func baseRequest(t *testing.T) liability.TaxCalculationRequest {
	return liability.TaxCalculationRequest{
		UserID:  testUserID(t),
		TaxYear: id.MustTaxYear("2024/25"),
		Age:     40,
	}
}

func intPtr(v int) *int { return &v }

func TestRun(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("outcomes keep input order under parallelism", func(t *testing.T) {
		calc := &scriptedCalculator{run: func(req liability.TaxCalculationRequest) (*liability.TaxCalculationResult, error) {
			return &liability.TaxCalculationResult{
				TaxYear:  req.TaxYear,
				TotalTax: decimal.NewFromInt(int64(req.Age * 100)),
			}, nil
		}}
		runner := NewRunner(calc, nil, 3, logger)

		outcomes, err := runner.Run(ctx, Batch{
			Base: baseRequest(t),
			Variants: []Variant{
				{Name: "as_is"},
				{Name: "at_50", Age: intPtr(50)},
				{Name: "at_66", Age: intPtr(66)},
			},
		})
		require.NoError(t, err)
		require.Len(t, outcomes, 3)
		assert.Equal(t, "as_is", outcomes[0].Name)
		assert.True(t, outcomes[0].Result.TotalTax.Equal(decimal.NewFromInt(4000)))
		assert.True(t, outcomes[1].Result.TotalTax.Equal(decimal.NewFromInt(5000)))
		assert.True(t, outcomes[2].Result.TotalTax.Equal(decimal.NewFromInt(6600)))
	})

	t.Run("variant overrides inherit the base", func(t *testing.T) {
		calc := &scriptedCalculator{run: func(req liability.TaxCalculationRequest) (*liability.TaxCalculationResult, error) {
			return &liability.TaxCalculationResult{TaxYear: req.TaxYear}, nil
		}}
		runner := NewRunner(calc, nil, 1, logger)

		tb := dta.TiebreakFacts{PermanentHomeUK: true}
		_, err := runner.Run(ctx, Batch{
			Base: baseRequest(t),
			Variants: []Variant{
				{Name: "uk_home", TiebreakFacts: &tb},
				{Name: "unchanged"},
			},
		})
		require.NoError(t, err)

		require.Len(t, calc.calls, 2)
		byTiebreak := map[bool]liability.TaxCalculationRequest{}
		for _, call := range calc.calls {
			byTiebreak[call.TiebreakFacts.PermanentHomeUK] = call
		}
		assert.Equal(t, 40, byTiebreak[true].Age, "untouched fields come from the base")
		assert.Equal(t, 40, byTiebreak[false].Age)
	})

	t.Run("a data failure records the variant and keeps going", func(t *testing.T) {
		calc := &scriptedCalculator{run: func(req liability.TaxCalculationRequest) (*liability.TaxCalculationResult, error) {
			if req.Age == 50 {
				return nil, dErrors.New(dErrors.CodeNotFound, "no residency facts recorded")
			}
			return &liability.TaxCalculationResult{TaxYear: req.TaxYear}, nil
		}}
		runner := NewRunner(calc, nil, 1, logger)

		outcomes, err := runner.Run(ctx, Batch{
			Base: baseRequest(t),
			Variants: []Variant{
				{Name: "ok"},
				{Name: "missing", Age: intPtr(50)},
			},
		})
		require.NoError(t, err)
		assert.NotNil(t, outcomes[0].Result)
		assert.Empty(t, outcomes[0].Error)
		assert.Nil(t, outcomes[1].Result)
		assert.Contains(t, outcomes[1].Error, "no residency facts")
	})

	t.Run("a bad batch definition fails the whole run", func(t *testing.T) {
		calc := &scriptedCalculator{run: func(req liability.TaxCalculationRequest) (*liability.TaxCalculationResult, error) {
			if req.Age == 50 {
				return nil, dErrors.New(dErrors.CodeConfigNotFound, "1999/00 is unpublished")
			}
			return &liability.TaxCalculationResult{TaxYear: req.TaxYear}, nil
		}}
		runner := NewRunner(calc, nil, 1, logger)

		_, err := runner.Run(ctx, Batch{
			Base: baseRequest(t),
			Variants: []Variant{
				{Name: "bad_pin", Age: intPtr(50)},
				{Name: "never_runs"},
				{Name: "never_runs_either"},
			},
		})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConfigNotFound))
		assert.Contains(t, err.Error(), `variant "bad_pin"`)
	})

	t.Run("rejects empty and duplicate variants", func(t *testing.T) {
		calc := &scriptedCalculator{run: func(req liability.TaxCalculationRequest) (*liability.TaxCalculationResult, error) {
			return &liability.TaxCalculationResult{}, nil
		}}
		runner := NewRunner(calc, nil, 1, logger)

		_, err := runner.Run(ctx, Batch{Base: baseRequest(t)})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

		_, err = runner.Run(ctx, Batch{
			Base:     baseRequest(t),
			Variants: []Variant{{Name: "twice"}, {Name: "twice"}},
		})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("cancelled context stops remaining runs", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		calc := &scriptedCalculator{run: func(req liability.TaxCalculationRequest) (*liability.TaxCalculationResult, error) {
			return &liability.TaxCalculationResult{}, nil
		}}
		runner := NewRunner(calc, nil, 1, logger)

		_, err := runner.Run(cancelled, Batch{
			Base:     baseRequest(t),
			Variants: []Variant{{Name: "a"}, {Name: "b"}},
		})
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestRunRecordsSummary(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	inbox := make(chan audit.CalculationAuditRecord, 1)

	calc := &scriptedCalculator{run: func(req liability.TaxCalculationRequest) (*liability.TaxCalculationResult, error) {
		return &liability.TaxCalculationResult{
			TaxYear:       req.TaxYear,
			TotalTax:      decimal.NewFromInt(1000),
			AuditRecordID: id.NewAuditRecordID(),
		}, nil
	}}
	runner := NewRunner(calc, inbox, 1, logger)

	_, err := runner.Run(ctx, Batch{
		Base:     baseRequest(t),
		Variants: []Variant{{Name: "only"}},
	})
	require.NoError(t, err)

	select {
	case record := <-inbox:
		assert.Equal(t, testUserID(t), record.UserID)
		assert.Equal(t, id.MustTaxYear("2024/25"), record.TaxYear)
		assert.Contains(t, string(record.Request), `"only"`)
		assert.Contains(t, string(record.Result), `"total_tax":"1000"`)
	default:
		t.Fatal("expected a batch summary on the audit inbox")
	}
}
