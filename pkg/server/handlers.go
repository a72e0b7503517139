package server

import (
	"encoding/json"
	"net/http"
	"time"
)

// enforceRequest is the POST /v1/enforce body.
type enforceRequest struct {
	Query string `json:"query"`
}

// enforceResponse is the decision surface returned to callers.
type enforceResponse struct {
	SessionID  string   `json:"session_id"`
	Domain     string   `json:"domain"`
	Intent     string   `json:"intent,omitempty"`
	Action     string   `json:"action"`
	Score      float64  `json:"score"`
	Response   string   `json:"response,omitempty"`
	Violations []string `json:"violations,omitempty"`
	Caveats    []string `json:"caveats,omitempty"`
	Retries    int      `json:"retries"`
	Owners     []string `json:"owners,omitempty"`
	DurationMS int64    `json:"duration_ms"`
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/enforce", s.handleEnforce)
	mux.HandleFunc("/healthz", s.handleHealth)
	if s.health != nil {
		mux.HandleFunc("/readyz", s.health.Handler())
	}
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics.Handler())
	}
	return mux
}

func (s *Server) handleEnforce(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req enforceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query must not be empty")
		return
	}

	decision, err := s.enforcer.Enforce(r.Context(), req.Query)
	if err != nil {
		s.logger.Error("enforcement pipeline unusable", "error", err)
		writeError(w, http.StatusInternalServerError, "enforcement unavailable")
		return
	}

	writeJSON(w, http.StatusOK, &enforceResponse{
		SessionID:  decision.SessionID,
		Domain:     decision.Domain,
		Intent:     decision.Intent,
		Action:     string(decision.Action),
		Score:      decision.Score,
		Response:   decision.Response,
		Violations: decision.Violations,
		Caveats:    decision.Caveats,
		Retries:    decision.Retries,
		Owners:     decision.Owners,
		DurationMS: decision.Duration.Milliseconds(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
