// Package agent is the AI front door: it answers customer questions from the
// knowledge base when it can and escalates to a supervisor when it cannot.
package agent

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/frontdesk-ai/frontdesk/internal/faults"
	"github.com/frontdesk-ai/frontdesk/internal/normalize"
	"github.com/frontdesk-ai/frontdesk/internal/request"
	"github.com/frontdesk-ai/frontdesk/internal/store"
)

// DefaultEscalationMessage is the reply sent when the question is unknown and
// a help request has been created.
const DefaultEscalationMessage = "Let me check with my supervisor and get back to you."

// Reply is the resolver's answer to one customer question.
type Reply struct {
	// AnsweredFromKnowledge is true when the answer came from a stored
	// knowledge entry and false when the question was escalated.
	AnsweredFromKnowledge bool
	Answer                string

	// HelpRequestID is set only on escalation.
	HelpRequestID string
}

// Resolver decides "known" vs "unknown" for incoming questions.
type Resolver struct {
	knowledge         store.KnowledgeStore
	lifecycle         *request.Service
	escalationMessage string
}

// NewResolver creates a resolver. An empty escalation message falls back to
// DefaultEscalationMessage.
func NewResolver(knowledge store.KnowledgeStore, lifecycle *request.Service, escalationMessage string) *Resolver {
	if escalationMessage == "" {
		escalationMessage = DefaultEscalationMessage
	}
	return &Resolver{
		knowledge:         knowledge,
		lifecycle:         lifecycle,
		escalationMessage: escalationMessage,
	}
}

// HandleQuestion normalizes the question and tries an exact knowledge lookup,
// then the relaxed substring fallback. On a miss it creates a PENDING help
// request and returns the fixed escalation message with the new request's id.
// Store failures propagate to the caller; nothing is retried.
func (r *Resolver) HandleQuestion(ctx context.Context, question, customerID string) (*Reply, error) {
	if strings.TrimSpace(question) == "" {
		return nil, faults.Invalid("question", "must be a non-empty string")
	}

	key := normalize.Normalize(question)

	entry, err := r.knowledge.FindExact(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("knowledge lookup: %w", err)
	}
	if entry == nil {
		entry, err = r.knowledge.FindFuzzy(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("knowledge lookup: %w", err)
		}
	}
	if entry != nil {
		log.Printf("answered %q from knowledge entry %s", key, entry.ID)
		return &Reply{AnsweredFromKnowledge: true, Answer: entry.Answer}, nil
	}

	req, err := r.lifecycle.Create(ctx, question, customerID)
	if err != nil {
		return nil, err
	}
	log.Printf("escalated %q as help request %s", key, req.ID)
	return &Reply{
		AnsweredFromKnowledge: false,
		Answer:                r.escalationMessage,
		HelpRequestID:         req.ID,
	}, nil
}
