package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"goalplan/internal/audit"
	"goalplan/internal/liability"
	"goalplan/internal/residency"
	"goalplan/internal/scenario"
	"goalplan/internal/taxconfig"
	id "goalplan/pkg/domain"
	dErrors "goalplan/pkg/domain-errors"
	"goalplan/pkg/platform/httputil"
	"goalplan/pkg/requestcontext"
)

// Service defines the composite calculation operation.
type Service interface {
	Calculate(ctx context.Context, req liability.TaxCalculationRequest) (*liability.TaxCalculationResult, error)
}

// Handler wires the tax intelligence endpoints: calculation, residency
// determination, audit record retrieval and config inspection.
type Handler struct {
	service   Service
	residency *residency.Engine
	records   audit.Store
	configs   *taxconfig.Repository
	scenarios *scenario.Runner
	logger    *slog.Logger
}

func New(service Service, engine *residency.Engine, records audit.Store, configs *taxconfig.Repository, scenarios *scenario.Runner, logger *slog.Logger) *Handler {
	return &Handler{
		service:   service,
		residency: engine,
		records:   records,
		configs:   configs,
		scenarios: scenarios,
		logger:    logger,
	}
}

// Register mounts the endpoints that operate on the caller's own data and
// therefore require a bearer token.
func (h *Handler) Register(r chi.Router) {
	r.Post("/tax/calculate", h.HandleCalculate)
	r.Post("/tax/scenarios", h.HandleRunScenarios)
	r.Post("/residency/determine", h.HandleDetermine)
	r.Get("/audit/records/{recordID}", h.HandleGetAuditRecord)
}

// RegisterPublic mounts the endpoints that serve published reference data.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/config/{jurisdiction}/{taxYear}", h.HandleGetConfig)
}

// HandleCalculate handles POST /tax/calculate.
func (h *Handler) HandleCalculate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[CalculateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Calculate(ctx, req.ToDomain(userID))
	if err != nil {
		h.logger.ErrorContext(ctx, "composite calculation failed",
			"request_id", requestID,
			"user_id", userID.String(),
			"tax_year", req.TaxYear,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "composite calculation served",
		"request_id", requestID,
		"user_id", userID.String(),
		"tax_year", req.TaxYear,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleRunScenarios handles POST /tax/scenarios.
func (h *Handler) HandleRunScenarios(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[ScenarioRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	outcomes, err := h.scenarios.Run(ctx, req.ToDomain(userID))
	if err != nil {
		h.logger.ErrorContext(ctx, "scenario batch failed",
			"request_id", requestID,
			"user_id", userID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "scenario batch served",
		"request_id", requestID,
		"user_id", userID.String(),
		"variants", len(outcomes),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"outcomes": outcomes})
}

// HandleDetermine handles POST /residency/determine.
func (h *Handler) HandleDetermine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if requestcontext.UserID(ctx).IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[DetermineRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	determination, err := h.residency.Determine(req.Facts)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, determination)
}

// HandleGetAuditRecord handles GET /audit/records/{recordID}.
func (h *Handler) HandleGetAuditRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	recordID, err := id.ParseAuditRecordID(chi.URLParam(r, "recordID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	record, err := h.records.Get(ctx, recordID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	// Records are scoped to their owner.
	if record.UserID != userID {
		httputil.WriteError(w, dErrors.Newf(dErrors.CodeNotFound, "audit record %s not found", recordID))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}

// HandleGetConfig handles GET /config/{jurisdiction}/{taxYear}. Tax years
// use a dash in the path ("2024-25") since the identifier contains a slash.
func (h *Handler) HandleGetConfig(w http.ResponseWriter, r *http.Request) {
	jurisdiction, err := id.ParseJurisdiction(chi.URLParam(r, "jurisdiction"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	year, err := id.ParseTaxYear(pathTaxYear(chi.URLParam(r, "taxYear")))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	cfg, err := h.configs.Get(jurisdiction, year)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cfg)
}

func pathTaxYear(s string) string {
	out := []byte(s)
	for i := range out {
		if out[i] == '-' {
			out[i] = '/'
		}
	}
	return string(out)
}
