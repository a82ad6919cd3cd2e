// Package estimator is the HTTP surface of the fee estimator. Handlers
// collect input, call the remote calculation service, and hand the response
// through the feecore derivation pipeline; they perform no fee arithmetic of
// their own. The JSON views and the PDF export are both projections of the
// same snapshot, which is what keeps the surfaces bit-identical.
package estimator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/packlane/epr-estimator/internal/feecore"
	"github.com/packlane/epr-estimator/internal/history"
	"github.com/packlane/epr-estimator/internal/pdfexport"
	"github.com/packlane/epr-estimator/internal/remote"
	"github.com/packlane/epr-estimator/internal/snapshot"
)

var tracer = otel.Tracer("github.com/packlane/epr-estimator/internal/estimator")

// CalcAPI is the remote service surface the server consumes.
type CalcAPI interface {
	GroupSource
	GroupedMaterials(ctx context.Context, jurisdiction string) ([]remote.Category, error)
	Calculate(ctx context.Context, req remote.CalculateRequest) (feecore.CalculationResponse, error)
	CalculatePhase2(ctx context.Context, jurisdiction string, req remote.Phase2CalculateRequest) (feecore.CalculationResponse, error)
}

// Recorder is the audit-log surface the server consumes.
type Recorder interface {
	Append(ctx context.Context, rec history.Record) (history.Record, error)
	Recent(ctx context.Context, limit int) ([]history.Record, error)
}

// PDFRenderer turns a snapshot into PDF bytes.
type PDFRenderer interface {
	Render(ctx context.Context, snap snapshot.PdfSnapshot) ([]byte, error)
}

// Options wires the server's collaborators and deployment values.
type Options struct {
	Client       CalcAPI
	History      Recorder
	Renderer     PDFRenderer
	Log          *zap.SugaredLogger
	WebDir       string
	ExportPrefix string
	// DefaultJurisdiction and DefaultPhase come from configuration, not a
	// package constant: which phase UI opens first is a deployment choice.
	DefaultJurisdiction string
	DefaultPhase        int
}

// lastCalc is the most-recent calculation, replaced whole on every
// calculate and cleared on jurisdiction switch. The export path reads only
// this.
type lastCalc struct {
	result       feecore.CalculationResponse
	resolvedRate float64
	groupName    string
	jurisdiction string
}

type Server struct {
	opts    Options
	catalog *Catalog

	mu   sync.Mutex
	last *lastCalc
}

func NewServer(opts Options) (*Server, http.Handler) {
	s := &Server{
		opts:    opts,
		catalog: NewCatalog(opts.Client, opts.Log),
	}

	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/bootstrap", s.handleBootstrap)
		r.Post("/jurisdiction", s.handleSwitchJurisdiction)
		r.Get("/materials", s.handleMaterials)
		r.Get("/materials/grouped", s.handleGroupedMaterials)
		r.Get("/rate-status", s.handleRateStatus)
		r.Post("/calculate", s.handleCalculate)
		r.Post("/export", s.handleExport)
		r.Get("/history", s.handleHistory)
	})
	r.Get("/*", s.handleStatic)

	if opts.DefaultJurisdiction != "" {
		if err := s.catalog.Switch(opts.DefaultJurisdiction); err != nil {
			opts.Log.Warnw("default jurisdiction rejected", "jurisdiction", opts.DefaultJurisdiction, "err", err)
		}
	}
	return s, r
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]any{"error": code, "message": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// handleBootstrap tells the frontend which program surface to open on.
func (s *Server) handleBootstrap(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"default_jurisdiction": s.opts.DefaultJurisdiction,
		"default_phase":        s.opts.DefaultPhase,
		"program_name":         programName(s.opts.DefaultJurisdiction),
	})
}

func (s *Server) handleSwitchJurisdiction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StateCode string `json:"state_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if err := s.catalog.Switch(req.StateCode); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_state", "please select a state")
		return
	}

	// A new jurisdiction invalidates the previous result entirely.
	s.mu.Lock()
	s.last = nil
	s.mu.Unlock()

	code, _ := feecore.NormalizeStateCode(req.StateCode)
	writeJSON(w, http.StatusAccepted, map[string]any{"jurisdiction": code, "loading": true})
}

func (s *Server) handleMaterials(w http.ResponseWriter, r *http.Request) {
	jurisdiction, groups, loading, err := s.catalog.State()
	payload := map[string]any{
		"jurisdiction": jurisdiction,
		"loading":      loading,
		"groups":       groups,
	}
	if err != nil && !loading {
		payload["error"] = "materials_unavailable"
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleGroupedMaterials(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	cats, err := s.opts.Client.GroupedMaterials(r.Context(), state)
	if err != nil {
		if errors.Is(err, feecore.ErrInvalidStateCode) {
			writeError(w, http.StatusBadRequest, "invalid_state", "please select a state")
			return
		}
		writeError(w, http.StatusBadGateway, "materials_unavailable", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": cats})
}

func (s *Server) handleRateStatus(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("group_key")
	rate, status := s.catalog.Rate(key)
	payload := map[string]any{
		"status":       status,
		"rate_display": feecore.FormatRate(rate),
	}
	writeJSON(w, http.StatusOK, payload)
}

type calculateRequest struct {
	Jurisdiction string  `json:"jurisdiction"`
	GroupKey     string  `json:"group_key,omitempty"`
	MaterialCode string  `json:"material_code,omitempty"`
	Category     string  `json:"category,omitempty"`
	Subcategory  string  `json:"subcategory,omitempty"`
	WeightLbs    float64 `json:"weight_lbs"`

	EcoModulationPercent float64 `json:"eco_modulation_percent"`
	LCABonusPercent      float64 `json:"lca_bonus_percent"`
	ReuseCreditAmount    float64 `json:"reuse_credit_amount"`
}

// calculationView is the one payload both on-screen renderers consume. The
// snapshot carries the breakdown and the derived timeline; Timeline prefers
// the remote's own step list when present (its endpoints match the derived
// figures by contract).
type calculationView struct {
	RecordID string               `json:"record_id,omitempty"`
	Snapshot snapshot.PdfSnapshot `json:"snapshot"`
	Timeline *feecore.Timeline    `json:"timeline,omitempty"`
}

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "estimator.calculate")
	defer span.End()

	var req calculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if req.WeightLbs <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_weight", "weight must be a positive number of pounds")
		return
	}
	jurisdiction, err := feecore.NormalizeStateCode(req.Jurisdiction)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_state", "please select a state")
		return
	}
	span.SetAttributes(attribute.String("jurisdiction", jurisdiction))

	if req.GroupKey != "" {
		s.calculatePhase2(ctx, w, jurisdiction, req)
		return
	}
	s.calculateGrouped(ctx, w, jurisdiction, req)
}

func (s *Server) calculatePhase2(ctx context.Context, w http.ResponseWriter, jurisdiction string, req calculateRequest) {
	// Loading must never surface as "rate unavailable": while the group
	// list is in flight the only honest answer is "not yet". The catalog
	// also refuses to resolve against a different state's list, so a
	// request can never be priced with a rate the requested jurisdiction
	// never published.
	rate, err := s.catalog.ResolveRateFor(jurisdiction, req.GroupKey)
	if err != nil {
		if errors.Is(err, ErrGroupsLoading) {
			writeError(w, http.StatusConflict, "loading", "material groups are still loading")
			return
		}
		var jm *JurisdictionMismatchError
		if errors.As(err, &jm) {
			writeJSON(w, http.StatusConflict, map[string]any{
				"error":     "wrong_jurisdiction_loaded",
				"message":   "material groups for the requested state are not loaded",
				"requested": jm.Requested,
				"loaded":    jm.Loaded,
			})
			return
		}
		var re *feecore.RateError
		if errors.As(err, &re) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":     "rate_unavailable",
				"message":   "no published rate for this material group",
				"group_key": re.GroupKey,
				"available": re.Available,
			})
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}

	resp, err := s.opts.Client.CalculatePhase2(ctx, jurisdiction, remote.Phase2CalculateRequest{
		GroupKey:             req.GroupKey,
		WeightLbs:            req.WeightLbs,
		EcoModulationPercent: req.EcoModulationPercent,
		LCABonusPercent:      req.LCABonusPercent,
		ReuseCreditAmount:    req.ReuseCreditAmount,
	})
	if err != nil {
		// Prior results stay untouched on a failed call.
		s.opts.Log.Warnw("phase2 calculation failed", "jurisdiction", jurisdiction, "err", err)
		writeError(w, http.StatusBadGateway, "calculation_failed", err.Error())
		return
	}
	resp.WeightLbs = req.WeightLbs

	s.finishCalculation(ctx, w, jurisdiction, resp, rate, s.groupName(req.GroupKey))
}

func (s *Server) calculateGrouped(ctx context.Context, w http.ResponseWriter, jurisdiction string, req calculateRequest) {
	if req.MaterialCode == "" {
		writeError(w, http.StatusBadRequest, "invalid_material", "select a material")
		return
	}
	cats, err := s.opts.Client.GroupedMaterials(ctx, jurisdiction)
	if err != nil {
		writeError(w, http.StatusBadGateway, "materials_unavailable", err.Error())
		return
	}
	rate, ok := leafRate(cats, req.MaterialCode)
	if !ok {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":     "rate_unavailable",
			"message":   "no published rate for this material",
			"group_key": req.MaterialCode,
		})
		return
	}

	resp, err := s.opts.Client.Calculate(ctx, remote.CalculateRequest{
		Jurisdiction: jurisdiction,
		MaterialCode: req.MaterialCode,
		Category:     req.Category,
		Subcategory:  req.Subcategory,
		WeightLbs:    req.WeightLbs,
	})
	if err != nil {
		s.opts.Log.Warnw("calculation failed", "jurisdiction", jurisdiction, "err", err)
		writeError(w, http.StatusBadGateway, "calculation_failed", err.Error())
		return
	}
	resp.WeightLbs = req.WeightLbs

	name := req.Subcategory
	if name == "" {
		name = req.MaterialCode
	}
	s.finishCalculation(ctx, w, jurisdiction, resp, rate, name)
}

// finishCalculation is the single tail of both calculate paths: derive,
// snapshot, persist, respond. Both renderers read this view; nothing past
// here recomputes a fee value.
func (s *Server) finishCalculation(ctx context.Context, w http.ResponseWriter, jurisdiction string, resp feecore.CalculationResponse, rate float64, groupName string) {
	snap := snapshot.Build(resp, rate, groupName, s.metadata(jurisdiction))

	var tl *feecore.Timeline
	if len(resp.Timeline) > 0 {
		tl = feecore.TimelineFromSteps(resp.Timeline)
	} else {
		tl = feecore.TimelineFromDerived(feecore.Derive(resp))
	}

	s.mu.Lock()
	s.last = &lastCalc{result: resp, resolvedRate: rate, groupName: groupName, jurisdiction: jurisdiction}
	s.mu.Unlock()

	view := calculationView{Snapshot: snap, Timeline: tl}
	rec, err := s.opts.History.Append(ctx, history.Record{
		Kind:         history.KindCalculation,
		Jurisdiction: jurisdiction,
		GroupKey:     firstNonEmpty(resp.GroupKey, resp.MaterialCode, groupName),
		GroupName:    groupName,
		WeightLbs:    resp.WeightLbs,
		FinalPayable: feecore.Derive(resp).FinalPayable,
	})
	if err != nil {
		s.opts.Log.Warnw("history append failed", "err", err)
	} else {
		view.RecordID = rec.ID
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "estimator.export_pdf")
	defer span.End()

	s.mu.Lock()
	last := s.last
	s.mu.Unlock()
	if last == nil {
		writeError(w, http.StatusConflict, "no_result", "calculate a fee before exporting")
		return
	}

	snap := snapshot.Build(last.result, last.resolvedRate, last.groupName, s.metadata(last.jurisdiction))
	pdf, err := s.opts.Renderer.Render(ctx, snap)
	if err != nil {
		s.opts.Log.Errorw("pdf render failed", "err", err)
		writeError(w, http.StatusInternalServerError, "export_failed", err.Error())
		return
	}

	filename := pdfexport.Filename(s.opts.ExportPrefix, last.jurisdiction, last.groupName, time.Now())
	if _, err := s.opts.History.Append(ctx, history.Record{
		Kind:         history.KindExport,
		Jurisdiction: last.jurisdiction,
		GroupKey:     firstNonEmpty(last.result.GroupKey, last.result.MaterialCode, last.groupName),
		GroupName:    last.groupName,
		WeightLbs:    last.result.WeightLbs,
		FinalPayable: feecore.Derive(last.result).FinalPayable,
		Filename:     filename,
	}); err != nil {
		s.opts.Log.Warnw("history append failed", "err", err)
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	records, err := s.opts.History.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": records})
}

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	// Prevent stale frontend bundles from breaking the UI after deploys.
	w.Header().Set("Cache-Control", "no-store")
	if r.URL.Path == "/" || r.URL.Path == "/index.html" {
		http.ServeFile(w, r, filepath.Join(s.opts.WebDir, "index.html"))
		return
	}
	path := filepath.Join(s.opts.WebDir, filepath.Clean(r.URL.Path))
	if _, err := os.Stat(path); err == nil {
		http.ServeFile(w, r, path)
		return
	}
	http.NotFound(w, r)
}

// groupName looks up the display name for a group key in the current
// catalog, falling back to the key itself.
func (s *Server) groupName(key string) string {
	_, groups, _, _ := s.catalog.State()
	for _, g := range groups {
		if g.GroupKey == key {
			return g.GroupName
		}
	}
	return key
}

func (s *Server) metadata(jurisdiction string) snapshot.Metadata {
	return snapshot.Metadata{
		Jurisdiction:  jurisdiction,
		ProgramName:   programName(jurisdiction),
		AuthorityText: authorityText(jurisdiction),
		GeneratedAt:   time.Now(),
	}
}

func leafRate(cats []remote.Category, code string) (float64, bool) {
	for _, c := range cats {
		for _, sub := range c.Subcategories {
			if sub.Code != code {
				continue
			}
			groups := []feecore.MaterialGroup{{GroupKey: sub.Code, GroupName: sub.Name, BaseRatePerLb: sub.RatePerLb}}
			return feecore.ResolveRateSafe(groups, code)
		}
	}
	return 0, false
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
