package liability

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"goalplan/internal/audit"
	"goalplan/internal/dta"
	"goalplan/internal/ledger"
	"goalplan/internal/liability/metrics"
	"goalplan/internal/residency"
	"goalplan/internal/satax"
	"goalplan/internal/taxconfig"
	"goalplan/internal/uktax"
	id "goalplan/pkg/domain"
)

// Deps wires the orchestrator. Cache and Metrics may be nil; Publisher may
// not: every calculation writes an audit record.
type Deps struct {
	Configs        *taxconfig.Repository
	Incomes        ledger.IncomeLedger
	Facts          ledger.ResidencyFactsProvider
	FX             ledger.FXConverter
	Residency      *residency.Engine
	Determinations residency.Store
	DTA            *dta.Calculator
	Publisher      *audit.Publisher
	Cache          ResultCache
	Metrics        *metrics.Metrics
	Logger         *slog.Logger
}

// Service runs composite calculations. All mutable state lives in the
// per-call run; the service itself is safe for unrestricted concurrent use.
type Service struct {
	deps   Deps
	tracer trace.Tracer
}

func NewService(deps Deps) *Service {
	return &Service{
		deps:   deps,
		tracer: otel.Tracer("goalplan/liability"),
	}
}

// Calculate gathers ledger data upfront, then enters the pure calculation
// region: residency, per-jurisdiction tax, treaty relief, aggregation. It
// finishes by persisting the audit record whose ID the result carries.
func (s *Service) Calculate(ctx context.Context, req TaxCalculationRequest) (*TaxCalculationResult, error) {
	ctx, span := s.tracer.Start(ctx, "liability.Calculate")
	defer span.End()
	start := time.Now()

	if err := req.Validate(); err != nil {
		s.deps.Metrics.IncrementCalculation("error")
		return nil, err
	}

	r, err := s.newRun(ctx, req)
	if err != nil {
		s.deps.Metrics.IncrementCalculation("error")
		return nil, err
	}

	if cached, ok := s.cachedResult(ctx, r.hash); ok {
		s.deps.Metrics.IncrementCalculation("cached")
		return cached, nil
	}

	result, err := r.compute(ctx)
	if err != nil {
		s.deps.Metrics.IncrementCalculation("error")
		return nil, err
	}

	if err := s.finish(ctx, r, result); err != nil {
		s.deps.Metrics.IncrementCalculation("error")
		return nil, err
	}

	s.deps.Metrics.IncrementCalculation("ok")
	s.deps.Metrics.ObserveCalculateLatency(time.Since(start))
	s.deps.Logger.InfoContext(ctx, "composite calculation complete",
		"user_id", req.UserID.String(),
		"tax_year", string(req.TaxYear),
		"total_tax", result.TotalTax.String(),
		"audit_record_id", result.AuditRecordID.String(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// run holds everything one calculation depends on, gathered before the pure
// region begins. Nothing in it mutates after gather.
type run struct {
	svc   *Service
	req   TaxCalculationRequest
	items []id.IncomeItem
	facts residency.Facts

	ukCfg, saCfg       *taxconfig.TaxYearConfig
	ukCfgErr, saCfgErr error
	ukCalc             *uktax.Calculator
	saCalc             *satax.Calculator
	versions           map[string]string
	hash               string
}

// newRun resolves configs, fetches ledger data in parallel and fingerprints
// the inputs. Config resolution honors pinned versions for historical
// replays.
func (s *Service) newRun(ctx context.Context, req TaxCalculationRequest) (*run, error) {
	ctx, span := s.tracer.Start(ctx, "liability.gather")
	defer span.End()

	r := &run{svc: s, req: req, versions: make(map[string]string, 2)}

	// A year may be published for one jurisdiction only; resolution errors
	// are held until residency says which regimes the calculation needs.
	r.ukCfg, r.ukCfgErr = s.resolveConfig(id.JurisdictionUK, req)
	r.saCfg, r.saCfgErr = s.resolveConfig(id.JurisdictionSA, req)
	if r.ukCfgErr != nil && r.saCfgErr != nil {
		return nil, r.ukCfgErr
	}

	var err error
	if r.ukCfg != nil {
		r.versions[versionMapKey(id.JurisdictionUK, req.TaxYear)] = r.ukCfg.VersionKey()
		if r.ukCalc, err = uktax.New(r.ukCfg); err != nil {
			return nil, err
		}
	}
	if r.saCfg != nil {
		r.versions[versionMapKey(id.JurisdictionSA, req.TaxYear)] = r.saCfg.VersionKey()
		if r.saCalc, err = satax.New(r.saCfg); err != nil {
			return nil, err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fetchStart := time.Now()
		items, err := s.deps.Incomes.ListIncome(gctx, req.UserID, req.TaxYear)
		s.deps.Metrics.ObserveGatherLatency("income", time.Since(fetchStart))
		if err != nil {
			return fmt.Errorf("list income: %w", err)
		}
		for _, item := range items {
			if err := item.Validate(); err != nil {
				return err
			}
		}
		r.items = items
		return nil
	})
	g.Go(func() error {
		fetchStart := time.Now()
		facts, err := s.deps.Facts.DayCounts(gctx, req.UserID, req.TaxYear)
		s.deps.Metrics.ObserveGatherLatency("residency_facts", time.Since(fetchStart))
		if err != nil {
			return fmt.Errorf("residency facts: %w", err)
		}
		r.facts = facts
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if r.hash, err = requestHash(req, r.items, r.facts, r.versions); err != nil {
		return nil, err
	}
	return r, nil
}

func versionMapKey(j id.Jurisdiction, year id.TaxYear) string {
	return string(j) + ":" + string(year)
}

func (s *Service) resolveConfig(j id.Jurisdiction, req TaxCalculationRequest) (*taxconfig.TaxYearConfig, error) {
	if pinned, ok := req.PinnedConfigVersions[versionMapKey(j, req.TaxYear)]; ok {
		return s.deps.Configs.GetVersion(j, req.TaxYear, pinned)
	}
	return s.deps.Configs.Get(j, req.TaxYear)
}

func (s *Service) cachedResult(ctx context.Context, hash string) (*TaxCalculationResult, bool) {
	if s.deps.Cache == nil {
		return nil, false
	}
	raw, hit, err := s.deps.Cache.Get(ctx, hash)
	if err != nil {
		s.deps.Logger.WarnContext(ctx, "result cache read failed", "error", err)
		s.deps.Metrics.IncrementCacheLookup("miss")
		return nil, false
	}
	if !hit {
		s.deps.Metrics.IncrementCacheLookup("miss")
		return nil, false
	}
	var result TaxCalculationResult
	if err := json.Unmarshal(raw, &result); err != nil {
		s.deps.Logger.WarnContext(ctx, "result cache entry corrupt", "error", err)
		s.deps.Metrics.IncrementCacheLookup("miss")
		return nil, false
	}
	s.deps.Metrics.IncrementCacheLookup("hit")
	return &result, true
}

// compute is the pure calculation region. It performs no I/O other than FX
// lookups, which read the fixed rate table for the tax year.
func (r *run) compute(ctx context.Context) (*TaxCalculationResult, error) {
	ctx, span := r.svc.tracer.Start(ctx, "liability.compute")
	defer span.End()

	determination, err := r.svc.deps.Residency.Determine(r.facts)
	if err != nil {
		return nil, err
	}

	result := &TaxCalculationResult{
		TaxYear:        r.req.TaxYear,
		Residency:      determination,
		TotalTax:       decimal.Zero,
		ConfigVersions: r.versions,
	}

	if determination.UKResident {
		if r.ukCalc == nil {
			return nil, r.ukCfgErr
		}
		uk, err := r.computeUK(ctx)
		if err != nil {
			return nil, err
		}
		result.UK = uk
	}
	if determination.SAResident {
		if r.saCalc == nil {
			return nil, r.saCfgErr
		}
		sa, err := r.computeSA(ctx)
		if err != nil {
			return nil, err
		}
		result.SA = sa
	}

	if err := r.applyRelief(ctx, result); err != nil {
		return nil, err
	}

	if result.UK != nil {
		result.UK.NetTax = nonNegative(result.UK.GrossTax.Sub(result.UK.Relief))
		result.TotalTax = result.TotalTax.Add(result.UK.NetTax)
	}
	if result.SA != nil {
		result.SA.NetTax = nonNegative(result.SA.GrossTax.Sub(result.SA.Relief))
		result.TotalTax = result.TotalTax.Add(result.SA.NetTax)
	}
	return result, nil
}

// finish persists the determination and the audit record, then fills the
// cache. The audit write is synchronous: the result advertises the record ID
// and the record must exist once the caller sees it.
func (s *Service) finish(ctx context.Context, r *run, result *TaxCalculationResult) error {
	if err := s.deps.Determinations.Save(ctx, r.req.UserID, result.Residency); err != nil {
		return fmt.Errorf("save determination: %w", err)
	}

	result.AuditRecordID = id.NewAuditRecordID()
	record, err := buildAuditRecord(r, result)
	if err != nil {
		return err
	}
	if err := s.deps.Publisher.Publish(ctx, record); err != nil {
		return err
	}

	if s.deps.Cache != nil {
		raw, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
		if err := s.deps.Cache.Set(ctx, r.hash, raw); err != nil {
			s.deps.Logger.WarnContext(ctx, "result cache write failed", "error", err)
		}
	}
	return nil
}

func buildAuditRecord(r *run, result *TaxCalculationResult) (audit.CalculationAuditRecord, error) {
	request, err := json.Marshal(struct {
		Request TaxCalculationRequest `json:"request"`
		Items   []id.IncomeItem       `json:"items"`
		Facts   residency.Facts       `json:"facts"`
	}{r.req, r.items, r.facts})
	if err != nil {
		return audit.CalculationAuditRecord{}, fmt.Errorf("marshal audit request: %w", err)
	}
	intermediates, err := json.Marshal(struct {
		Residency    residency.Determination `json:"residency"`
		DTAResidence *dta.DTAResidenceResult `json:"dta_residence,omitempty"`
		UK           *UKResult               `json:"uk,omitempty"`
		SA           *SAResult               `json:"sa,omitempty"`
		Relief       []dta.ReliefCalculation `json:"relief,omitempty"`
	}{result.Residency, result.DTAResidence, result.UK, result.SA, result.Relief})
	if err != nil {
		return audit.CalculationAuditRecord{}, fmt.Errorf("marshal audit intermediates: %w", err)
	}
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return audit.CalculationAuditRecord{}, fmt.Errorf("marshal audit result: %w", err)
	}
	return audit.CalculationAuditRecord{
		ID:             result.AuditRecordID,
		UserID:         r.req.UserID,
		TaxYear:        r.req.TaxYear,
		ConfigVersions: r.versions,
		RequestHash:    r.hash,
		Request:        request,
		Intermediates:  intermediates,
		Result:         resultJSON,
	}, nil
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
