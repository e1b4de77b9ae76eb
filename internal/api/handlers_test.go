package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/frontdesk-ai/frontdesk/internal/agent"
	"github.com/frontdesk-ai/frontdesk/internal/request"
	"github.com/frontdesk-ai/frontdesk/internal/store"
	"github.com/frontdesk-ai/frontdesk/pkg/models"
)

func newTestGateway(t *testing.T) (*Gateway, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	lifecycle := request.NewService(st, st, nil, request.Config{DefaultCustomerID: "ui-caller"})
	resolver := agent.NewResolver(st, lifecycle, "")
	return NewGateway(DefaultGatewayConfig(), resolver, lifecycle, st), st
}

func doJSON(t *testing.T, g *Gateway, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	g.Handler().ServeHTTP(rec, req)

	var decoded map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("%s %s: decode response %q: %v", method, path, rec.Body.String(), err)
	}
	return rec, decoded
}

func TestAICallEscalatesAndAnswers(t *testing.T) {
	g, _ := newTestGateway(t)

	rec, body := doJSON(t, g, "POST", "/api/v1/ai/call",
		`{"question":"Do you offer hair coloring?","customerId":"cust-1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %v", rec.Code, body)
	}
	if body["answeredFromKnowledge"] != false {
		t.Errorf("answeredFromKnowledge = %v, want false", body["answeredFromKnowledge"])
	}
	requestID, _ := body["helpRequestId"].(string)
	if requestID == "" {
		t.Fatal("helpRequestId missing on escalation")
	}

	// Supervisor answers; the knowledge base learns.
	rec, body = doJSON(t, g, "POST", "/api/v1/supervisor/respond",
		`{"requestId":"`+requestID+`","answer":"Yes, from $40"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("respond status = %d, body = %v", rec.Code, body)
	}

	// The same question now gets the learned answer.
	rec, body = doJSON(t, g, "POST", "/api/v1/ai/call",
		`{"question":"do you offer HAIR coloring","customerId":"cust-2"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body["answeredFromKnowledge"] != true {
		t.Errorf("answeredFromKnowledge = %v, want true", body["answeredFromKnowledge"])
	}
	if body["answer"] != "Yes, from $40" {
		t.Errorf("answer = %v", body["answer"])
	}
	if _, present := body["helpRequestId"]; present {
		t.Error("helpRequestId present on a knowledge hit")
	}
}

func TestAICallValidation(t *testing.T) {
	g, _ := newTestGateway(t)

	rec, body := doJSON(t, g, "POST", "/api/v1/ai/call", `{"question":"  "}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if body["ok"] != false {
		t.Errorf("ok = %v, want false", body["ok"])
	}

	rec, _ = doJSON(t, g, "POST", "/api/v1/ai/call", `not json`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad JSON status = %d, want 400", rec.Code)
	}
}

func TestRespondErrors(t *testing.T) {
	g, _ := newTestGateway(t)

	rec, _ := doJSON(t, g, "POST", "/api/v1/supervisor/respond",
		`{"requestId":"nope","answer":"x"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown id status = %d, want 404", rec.Code)
	}

	rec, _ = doJSON(t, g, "POST", "/api/v1/supervisor/respond",
		`{"requestId":"","answer":"x"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing id status = %d, want 400", rec.Code)
	}

	// Resolving twice conflicts.
	_, body := doJSON(t, g, "POST", "/api/v1/ai/call", `{"question":"q?"}`)
	id := body["helpRequestId"].(string)
	doJSON(t, g, "POST", "/api/v1/supervisor/respond", `{"requestId":"`+id+`","answer":"a"}`)
	rec, _ = doJSON(t, g, "POST", "/api/v1/supervisor/respond", `{"requestId":"`+id+`","answer":"b"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("re-resolve status = %d, want 409", rec.Code)
	}
}

func TestUnresolveAndListings(t *testing.T) {
	g, _ := newTestGateway(t)

	_, body := doJSON(t, g, "POST", "/api/v1/ai/call", `{"question":"first?"}`)
	first := body["helpRequestId"].(string)
	doJSON(t, g, "POST", "/api/v1/ai/call", `{"question":"second?"}`)

	rec, body := doJSON(t, g, "POST", "/api/v1/supervisor/unresolve",
		`{"requestId":"`+first+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("unresolve status = %d, body = %v", rec.Code, body)
	}

	_, body = doJSON(t, g, "GET", "/api/v1/supervisor/unresolved", "")
	requests := body["requests"].([]any)
	if len(requests) != 1 {
		t.Fatalf("unresolved = %d, want 1", len(requests))
	}
	got := requests[0].(map[string]any)
	if got["unresolvedReason"] != models.ReasonManual {
		t.Errorf("reason = %v, want manual default", got["unresolvedReason"])
	}

	_, body = doJSON(t, g, "GET", "/api/v1/supervisor/pending", "")
	if len(body["requests"].([]any)) != 1 {
		t.Errorf("pending = %d, want 1", len(body["requests"].([]any)))
	}

	_, body = doJSON(t, g, "GET", "/api/v1/help-requests?status=pending", "")
	if len(body["requests"].([]any)) != 1 {
		t.Errorf("filtered listing = %d, want 1", len(body["requests"].([]any)))
	}

	_, body = doJSON(t, g, "GET", "/api/v1/help-requests", "")
	if len(body["requests"].([]any)) != 2 {
		t.Errorf("full listing = %d, want 2", len(body["requests"].([]any)))
	}
}

func TestCreateHelpRequestTolerantBody(t *testing.T) {
	g, st := newTestGateway(t)

	rec, body := doJSON(t, g, "POST", "/api/v1/help-requests",
		`{"question":{"text":"Nested question?","customerId":"nested-cust"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %v", rec.Code, body)
	}

	pending, _ := st.ListRequests(context.Background(), models.StatusPending)
	if len(pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(pending))
	}
	if pending[0].Question != "Nested question?" {
		t.Errorf("question = %q", pending[0].Question)
	}
	if pending[0].CustomerID != "nested-cust" {
		t.Errorf("customerId = %q, want nested value", pending[0].CustomerID)
	}

	rec, _ = doJSON(t, g, "POST", "/api/v1/help-requests", `{"question":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty question status = %d, want 400", rec.Code)
	}
}

func TestKnowledgeListing(t *testing.T) {
	g, st := newTestGateway(t)

	err := st.AddKnowledge(context.Background(), &models.KnowledgeEntry{
		ID:                 uuid.New().String(),
		NormalizedQuestion: "do you take walkins",
		Answer:             "Yes, before 4pm",
		Source:             models.SourceSeed,
		CreatedAt:          time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("add knowledge: %v", err)
	}

	rec, body := doJSON(t, g, "GET", "/api/v1/knowledge", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	items := body["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	if items[0].(map[string]any)["answer"] != "Yes, before 4pm" {
		t.Errorf("items = %v", items)
	}
}

func TestHealth(t *testing.T) {
	g, _ := newTestGateway(t)
	rec, body := doJSON(t, g, "GET", "/api/v1/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body["ok"] != true {
		t.Errorf("body = %v", body)
	}
}
