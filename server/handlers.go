package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/heibot/sanction"
	"github.com/heibot/sanction/client"
	"github.com/heibot/sanction/standing"
	"github.com/heibot/sanction/violation"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// maxStandingUsers bounds one standings lookup.
const maxStandingUsers = 100

type evaluateResponse struct {
	Result *sanction.PunishmentResult `json:"result"`
	Alert  string                     `json:"alert"`
}

type batchRequest struct {
	Inputs      []client.EvaluateInput `json:"inputs"`
	Concurrency int                    `json:"concurrency,omitempty"`
}

type batchResponse struct {
	Results []evaluateResponse `json:"results"`
}

type standingResponse struct {
	sanction.AccountStandingData
	Summary string `json:"summary"`
}

type ruleResponse struct {
	ID          string                 `json:"id"`
	Section     int                    `json:"section"`
	SectionName string                 `json:"section_name"`
	Title       string                 `json:"title"`
	Type        sanction.ViolationType `json:"type"`
	Severe      bool                   `json:"severe"`
}

type expireRequest struct {
	ModeratorID string `json:"moderator_id"`
}

type reviewRequest struct {
	ReviewerID string                 `json:"reviewer_id"`
	Outcome    sanction.ReviewOutcome `json:"outcome"`
}

type errorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.client.Ping(r.Context()); err != nil {
		s.logger.Warn("health check failed", "err", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var in client.EvaluateInput
	if !s.decode(w, r, &in) {
		return
	}

	res, err := s.client.Evaluate(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, evaluateResponse{Result: res, Alert: client.FormatAlert(res, in)})
}

func (s *Server) handleEvaluateBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if !s.decode(w, r, &req) {
		return
	}

	results, err := s.client.EvaluateBatch(r.Context(), req.Inputs, req.Concurrency)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := batchResponse{Results: make([]evaluateResponse, len(results))}
	for i, res := range results {
		out.Results[i] = evaluateResponse{Result: res, Alert: client.FormatAlert(res, req.Inputs[i])}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	rules := violation.Rules()
	out := make([]ruleResponse, len(rules))
	for i, rule := range rules {
		out[i] = ruleResponse{
			ID:          rule.ID,
			Section:     int(rule.Section),
			SectionName: rule.Section.String(),
			Title:       rule.Title,
			Type:        rule.Type,
			Severe:      rule.Severe,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStanding(w http.ResponseWriter, r *http.Request) {
	data, err := s.client.AccountStanding(r.Context(), chi.URLParam(r, "guildID"), chi.URLParam(r, "userID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, standingResponse{AccountStandingData: data, Summary: standing.Describe(data)})
}

func (s *Server) handleStandings(w http.ResponseWriter, r *http.Request) {
	var userIDs []string
	seen := make(map[string]bool)
	for _, v := range r.URL.Query()["user"] {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" && !seen[id] {
				seen[id] = true
				userIDs = append(userIDs, id)
			}
		}
	}
	if len(userIDs) == 0 {
		s.writeError(w, r, sanction.NewValidationError("user", "at least one user is required"))
		return
	}
	if len(userIDs) > maxStandingUsers {
		s.writeError(w, r, sanction.NewValidationError("user", fmt.Sprintf("at most %d users per request", maxStandingUsers)))
		return
	}

	all, err := s.client.AccountStandings(r.Context(), chi.URLParam(r, "guildID"), userIDs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make(map[string]standingResponse, len(all))
	for uid, data := range all {
		out[uid] = standingResponse{AccountStandingData: data, Summary: standing.Describe(data)}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleExpire(w http.ResponseWriter, r *http.Request) {
	var req expireRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.client.ExpireViolation(r.Context(), chi.URLParam(r, "violationID"), req.ModeratorID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.client.RecordReview(r.Context(), chi.URLParam(r, "violationID"), req.ReviewerID, req.Outcome); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Description: "invalid json: " + err.Error()})
		return false
	}
	return true
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case sanction.IsValidationError(err):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Description: strings.TrimPrefix(err.Error(), "sanction: ")})
	case errors.Is(err, sanction.ErrViolationNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_found", Description: "violation not found"})
	case errors.Is(err, sanction.ErrAlreadyExpired):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "conflict", Description: "violation already expired"})
	case sanction.IsStoreError(err):
		s.logger.Error("store unavailable",
			"request_id", middleware.GetReqID(r.Context()),
			"path", r.URL.Path,
			"err", err)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "store_unavailable"})
	default:
		s.logger.Error("request failed",
			"request_id", middleware.GetReqID(r.Context()),
			"path", r.URL.Path,
			"err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal_error"})
	}
}

// encodeFailedBody is sent when a response value cannot be encoded.
const encodeFailedBody = `{"error":"internal_error","error_description":"response encoding failed"}` + "\n"

// writeJSON encodes v before touching the response so an encoding failure
// still produces a well-formed 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		buf.Reset()
		buf.WriteString(encodeFailedBody)
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
