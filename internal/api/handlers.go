package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/frontdesk-ai/frontdesk/internal/faults"
	"github.com/frontdesk-ai/frontdesk/pkg/models"
)

type aiCallRequest struct {
	Question   string `json:"question"`
	CustomerID string `json:"customerId"`
}

type respondRequest struct {
	RequestID string `json:"requestId"`
	Answer    string `json:"answer"`
}

type unresolveRequest struct {
	RequestID string `json:"requestId"`
	Reason    string `json:"reason"`
}

// createHelpRequestBody tolerates the shapes the original UI sent: a plain
// string question, or a nested object carrying the text under question, text
// or q.
type createHelpRequestBody struct {
	Question   json.RawMessage `json:"question"`
	CustomerID string          `json:"customerId"`
}

// extract returns the question text and, when the caller nested it inside
// the question object, the customer id.
func (b *createHelpRequestBody) extract() (question, customerID string) {
	customerID = b.CustomerID
	var asString string
	if err := json.Unmarshal(b.Question, &asString); err == nil {
		return strings.TrimSpace(asString), customerID
	}
	var asObject struct {
		Question   string `json:"question"`
		Text       string `json:"text"`
		Q          string `json:"q"`
		CustomerID string `json:"customerId"`
	}
	if err := json.Unmarshal(b.Question, &asObject); err == nil {
		if customerID == "" {
			customerID = asObject.CustomerID
		}
		for _, candidate := range []string{asObject.Question, asObject.Text, asObject.Q} {
			if candidate != "" {
				return strings.TrimSpace(candidate), customerID
			}
		}
	}
	return "", customerID
}

func (g *Gateway) handleAICall(w http.ResponseWriter, r *http.Request) {
	var body aiCallRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	reply, err := g.resolver.HandleQuestion(r.Context(), body.Question, body.CustomerID)
	if err != nil {
		writeFailure(w, err)
		return
	}

	response := map[string]any{
		"ok":                    true,
		"from":                  "ai",
		"answer":                reply.Answer,
		"answeredFromKnowledge": reply.AnsweredFromKnowledge,
	}
	if reply.HelpRequestID != "" {
		response["helpRequestId"] = reply.HelpRequestID
	}
	writeJSON(w, http.StatusOK, response)
}

func (g *Gateway) handlePendingRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := g.lifecycle.ListByStatus(r.Context(), models.StatusPending)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "requests": requests})
}

func (g *Gateway) handleRespond(w http.ResponseWriter, r *http.Request) {
	var body respondRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if _, err := g.lifecycle.Resolve(r.Context(), body.RequestID, body.Answer); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"message": "Request answered and knowledge base updated",
	})
}

func (g *Gateway) handleUnresolve(w http.ResponseWriter, r *http.Request) {
	var body unresolveRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if _, err := g.lifecycle.MarkUnresolved(r.Context(), body.RequestID, body.Reason); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (g *Gateway) handleUnresolvedRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := g.lifecycle.ListByStatus(r.Context(), models.StatusUnresolved)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "requests": requests})
}

func (g *Gateway) handleCreateHelpRequest(w http.ResponseWriter, r *http.Request) {
	var body createHelpRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	question, customerID := body.extract()
	req, err := g.lifecycle.Create(r.Context(), question, customerID)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "helpRequest": req})
}

func (g *Gateway) handleListHelpRequests(w http.ResponseWriter, r *http.Request) {
	var status models.RequestStatus
	switch strings.ToLower(r.URL.Query().Get("status")) {
	case "pending":
		status = models.StatusPending
	case "resolved":
		status = models.StatusResolved
	case "unresolved":
		status = models.StatusUnresolved
	}

	requests, err := g.lifecycle.ListByStatus(r.Context(), status)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "requests": requests})
}

func (g *Gateway) handleListKnowledge(w http.ResponseWriter, r *http.Request) {
	items, err := g.knowledge.ListKnowledge(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "items": items})
}

func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := g.pinger.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"ok":     false,
			"status": "degraded",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "status": "ok"})
}

// writeFailure maps service errors onto HTTP statuses: validation to 400,
// unknown ids to 404, terminal-state conflicts to 409, everything else to a
// logged 500.
func writeFailure(w http.ResponseWriter, err error) {
	switch {
	case faults.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, faults.ErrNotFound):
		writeError(w, http.StatusNotFound, "Help request not found")
	case faults.IsConflict(err):
		writeError(w, http.StatusConflict, err.Error())
	default:
		log.Printf("internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
	}
}
