package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"mercator-hq/saturn/pkg/backend"
	"mercator-hq/saturn/pkg/budget"
	"mercator-hq/saturn/pkg/engine"
	"mercator-hq/saturn/pkg/estimator"
	"mercator-hq/saturn/pkg/history"
)

// maxBodyBytes limits JSON request bodies.
const maxBodyBytes = 1 << 20

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Error string `json:"error"`
}

// admissionRequest asks whether an operation with the given projected
// cost may execute.
type admissionRequest struct {
	ProjectedCostUSD float64 `json:"projected_cost_usd"`
}

// admissionResponse is the budget verdict.
type admissionResponse struct {
	Allowed bool   `json:"allowed"`
	Action  string `json:"action"`
	Message string `json:"message"`
	RuleID  string `json:"rule_id,omitempty"`
}

// operationReport describes a completed (or failed) operation.
type operationReport struct {
	Operation        string  `json:"operation"`
	OperationType    string  `json:"operation_type"`
	EstimatedCostUSD float64 `json:"estimated_cost_usd"`
	BytesProcessed   int64   `json:"bytes_processed"`
	SlotMilliseconds int64   `json:"slot_ms"`
	DurationMS       int64   `json:"duration_ms"`
	Error            string  `json:"error,omitempty"`
}

// resolveRequest identifies the violation to resolve.
type resolveRequest struct {
	ID string `json:"id"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, format string, args ...any) {
	writeJSON(w, status, errorResponse{Error: fmt.Sprintf(format, args...)})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: %v", err)
		return false
	}
	return true
}

// intQuery parses an integer query parameter, falling back to def when
// absent or unparsable.
func intQuery(r *http.Request, name string, def int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return def
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return def
	}
	return i
}

// handleHealth is the liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
	})
}

// handleAdmission checks a projected cost against the budget and
// reserves it when admitted. Denials respond 200 with allowed=false;
// the HTTP layer reports transport problems, not budget verdicts.
func (s *Server) handleAdmission(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req admissionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ProjectedCostUSD < 0 {
		writeError(w, http.StatusBadRequest, "projected_cost_usd must be non-negative")
		return
	}

	decision := s.engine.CanExecuteCost(req.ProjectedCostUSD)
	writeJSON(w, http.StatusOK, admissionResponse{
		Allowed: decision.Allowed,
		Action:  string(decision.Action),
		Message: decision.Message,
		RuleID:  decision.RuleID,
	})
}

// handleOperations records a completed operation: ledger append, spend
// settlement, and post-execution enforcement.
func (s *Server) handleOperations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req operationReport
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Operation == "" {
		writeError(w, http.StatusBadRequest, "operation is required")
		return
	}
	if req.OperationType == "" {
		writeError(w, http.StatusBadRequest, "operation_type is required")
		return
	}

	track := engine.TrackRequest{
		Operation:     req.Operation,
		OperationType: req.OperationType,
		Estimate: &estimator.CostEstimate{
			ProjectedCostUSD: req.EstimatedCostUSD,
			ComputedAt:       time.Now().UTC(),
		},
	}
	if req.Error != "" {
		track.Err = errors.New(req.Error)
	} else {
		track.Result = &backend.ExecutionResult{
			BytesProcessed:   req.BytesProcessed,
			SlotMilliseconds: req.SlotMilliseconds,
			Duration:         time.Duration(req.DurationMS) * time.Millisecond,
		}
	}

	result := s.engine.Track(r.Context(), track)
	writeJSON(w, http.StatusCreated, map[string]any{
		"record":     result.Record,
		"violations": result.Violations,
	})
}

// handleBudgetStatus reports the current status of every enabled rule.
func (s *Server) handleBudgetStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.engine.GetBudgetStatus())
}

// handleBudgetSummary reports the ledger summary over a window
// (default 30 days).
func (s *Server) handleBudgetSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	windowDays := intQuery(r, "window_days", 30)
	summary, err := s.engine.Summary(r.Context(), windowDays)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "summary failed: %v", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleViolations lists violations, optionally filtered by resolution
// state via ?resolved=true|false.
func (s *Server) handleViolations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	windowDays := intQuery(r, "window_days", 30)
	var resolved *bool
	if val := r.URL.Query().Get("resolved"); val != "" {
		b, err := strconv.ParseBool(val)
		if err != nil {
			writeError(w, http.StatusBadRequest, "resolved must be true or false")
			return
		}
		resolved = &b
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"violations": s.engine.Violations(windowDays, resolved),
		"summary":    s.engine.ViolationSummary(windowDays),
	})
}

// handleResolveViolation marks a violation resolved.
func (s *Server) handleResolveViolation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req resolveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := s.engine.ResolveViolation(r.Context(), req.ID); err != nil {
		var notFound *budget.ViolationNotFoundError
		if errors.As(err, &notFound) {
			writeError(w, http.StatusNotFound, "%v", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "resolve failed: %v", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"resolved": true})
}

// handleHistory returns aggregated history records between ?start and
// ?end (YYYY-MM-DD, inclusive) at the requested ?granularity.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := r.URL.Query()
	start, err := time.Parse("2006-01-02", q.Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "start must be YYYY-MM-DD")
		return
	}
	end, err := time.Parse("2006-01-02", q.Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "end must be YYYY-MM-DD")
		return
	}

	granularity := history.Granularity(q.Get("granularity"))
	if granularity == "" {
		granularity = history.GranularityDaily
	}
	switch granularity {
	case history.GranularityDaily, history.GranularityWeekly,
		history.GranularityMonthly, history.GranularityQuarterly,
		history.GranularityYearly:
	default:
		writeError(w, http.StatusBadRequest, "unknown granularity %q", granularity)
		return
	}

	records, err := s.engine.History(r.Context(), start, end, granularity)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "history query failed: %v", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": records})
}

// handleTrends returns period-over-period trends for the last ?days
// (default 30).
func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	trends, err := s.engine.AnalyzeTrends(r.Context(), intQuery(r, "days", 30))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "trend analysis failed: %v", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"trends": trends})
}

// handleAnomalies returns statistical anomalies in the last ?days
// (default 30).
func (s *Server) handleAnomalies(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	anomalies, err := s.engine.DetectAnomalies(r.Context(), intQuery(r, "days", 30))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "anomaly detection failed: %v", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"anomalies": anomalies})
}
